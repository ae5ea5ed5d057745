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
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Organization is a company record from the organization index.
type Organization struct {
	UUID             string `json:"uuid,omitempty"`
	CompanyName      string `json:"company_name,omitempty"`
	HomepageURL      string `json:"homepage_url,omitempty"`
	CountryCode      string `json:"country_code,omitempty"`
	StateCode        string `json:"state_code,omitempty"`
	Region           string `json:"region,omitempty"`
	City             string `json:"city,omitempty"`
	Status           string `json:"status,omitempty"`
	CategoryList     string `json:"category_list,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	Description      string `json:"description,omitempty"`
	FundingRounds    Number `json:"funding_rounds,omitzero"`
	FundingTotalUSD  Number `json:"funding_total_usd,omitzero"`
	FoundedOn        string `json:"founded_on,omitempty"`
	LastFundingOn    string `json:"last_funding_on,omitempty"`
}

// FundingEvent is a funding round record from the funding index.
type FundingEvent struct {
	UUID            string  `json:"uuid,omitempty"`
	CompanyUUID     string  `json:"company_uuid,omitempty"`
	CompanyName     string  `json:"company_name,omitempty"`
	InvestmentType  string  `json:"investment_type,omitempty"`
	AnnouncedOn     string  `json:"announced_on,omitempty"`
	RaisedAmountUSD Number  `json:"raised_amount_usd,omitzero"`
	InvestorNames   RawText `json:"investor_names,omitempty"`
}

// InvestorAggregate counts the funding events naming one investor.
type InvestorAggregate struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// InvestorList is the result of InvestorsWithMultipleEntries.
type InvestorList struct {
	Investors []InvestorAggregate `json:"investors"`
}

// RefinedFunding is a funding event with its share of the result set's total raised amount.
type RefinedFunding struct {
	FundingEvent
	Ratio Ratio `json:"ratio"`
}

// HitPage is one page of documents plus the index's total-hit counter.
type HitPage[T any] struct {
	Hits  []T   `json:"hits"`
	Total int64 `json:"total"`
}

// Number is a numeric document field that may be missing, null, a JSON
// number, or a number encoded as a string. Null is set only for an explicit
// JSON null.
type Number struct {
	Value float64
	Valid bool
	Null  bool
}

func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		*n = Number{Value: v, Valid: err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)}
		return nil
	}
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		// booleans, objects and arrays are not numbers
		*n = Number{}
		return nil
	}
	if v == nil {
		*n = Number{Null: true}
		return nil
	}
	*n = NewNumber(*v)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// RawText holds a text field verbatim. Non-string JSON values are kept as
// their JSON text so artifact-encoded values survive unchanged.
type RawText string

func (t *RawText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = RawText(s)
		return nil
	}
	*t = RawText(data)
	return nil
}

// Ratio is a percentage. NaN marks an undefined ratio and encodes as JSON null.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Defined reports whether r holds a real percentage.
func (r Ratio) Defined() bool {
	f := float64(r)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
