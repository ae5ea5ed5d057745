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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardinalhq/investquery/esquery"
)

func TestParseListPage(t *testing.T) {
	assert.Equal(t, esquery.Page{Size: 10, From: 0}, ParseListPage(url.Values{}))
	assert.Equal(t, esquery.Page{Size: 10, From: 0}, ParseListPage(url.Values{"limit": {"abc"}, "offset": {"-"}}))
	assert.Equal(t, esquery.Page{Size: 5, From: 15}, ParseListPage(url.Values{"limit": {"5"}, "offset": {"15"}}))
}

func TestParseOrganizationFilter(t *testing.T) {
	f := ParseOrganizationFilter(url.Values{})
	assert.Equal(t, esquery.OrganizationFilter{
		TotalFloor: 1_000_000,
		Page:       esquery.Page{Size: 100, From: 0},
	}, f)

	f = ParseOrganizationFilter(url.Values{
		"company_name": {"TechCorp"},
		"country_code": {"US"},
		"city":         {"San Francisco"},
		"total":        {"5000000"},
		"limit":        {"10"},
		"offset":       {"0"},
	})
	assert.Equal(t, esquery.OrganizationFilter{
		Name:        "TechCorp",
		CountryCode: "US",
		City:        "San Francisco",
		TotalFloor:  5_000_000,
		Page:        esquery.Page{Size: 10, From: 0},
	}, f)

	f = ParseOrganizationFilter(url.Values{"total": {"plenty"}})
	assert.Equal(t, int64(1_000_000), f.TotalFloor)
}

func TestParseInvestorPage(t *testing.T) {
	p := ParseInvestorPage(url.Values{"investor_name": {"Acme"}})
	assert.Equal(t, esquery.InvestorPage{InvestorName: "Acme", Page: esquery.Page{Size: 100}}, p)

	p = ParseInvestorPage(url.Values{"investor_name": {"   "}, "limit": {"20"}})
	assert.Equal(t, "", p.InvestorName)
	assert.Equal(t, 20, p.Page.Size)

	assert.Equal(t, "", ParseInvestorName(url.Values{}))
}
