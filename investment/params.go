// Copyright (C) 2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package investment

import (
	"net/url"
	"strings"

	"github.com/cardinalhq/investquery/esquery"
)

// Query-string parameter names accepted from callers.
const (
	ParamLimit        = "limit"
	ParamOffset       = "offset"
	ParamCompanyName  = "company_name"
	ParamCountryCode  = "country_code"
	ParamCity         = "city"
	ParamTotal        = "total"
	ParamInvestorName = "investor_name"
)

// ParseListPage reads limit/offset for the plain organization and funding listings.
func ParseListPage(v url.Values) esquery.Page {
	return esquery.ParsePage(v.Get(ParamLimit), v.Get(ParamOffset), esquery.DefaultListSize)
}

// ParseOrganizationFilter reads the filtered organization search parameters.
func ParseOrganizationFilter(v url.Values) esquery.OrganizationFilter {
	return esquery.OrganizationFilter{
		Name:        v.Get(ParamCompanyName),
		CountryCode: v.Get(ParamCountryCode),
		City:        v.Get(ParamCity),
		TotalFloor:  esquery.ParseFundingFloor(v.Get(ParamTotal)),
		Page:        esquery.ParsePage(v.Get(ParamLimit), v.Get(ParamOffset), esquery.DefaultSearchSize),
	}
}

// ParseInvestorPage reads the investor-scoped funding lookup parameters. A
// missing investor name is left empty; the service rejects it.
func ParseInvestorPage(v url.Values) esquery.InvestorPage {
	return esquery.InvestorPage{
		InvestorName: ParseInvestorName(v),
		Page:         esquery.ParsePage(v.Get(ParamLimit), v.Get(ParamOffset), esquery.DefaultSearchSize),
	}
}

// ParseInvestorName reads the investor name. Whitespace-only names count as missing.
func ParseInvestorName(v url.Values) string {
	name := v.Get(ParamInvestorName)
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return name
}
