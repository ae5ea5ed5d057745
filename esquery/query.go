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

// Package esquery builds the structured search-engine queries used by the
// investment service and decodes the engine's search responses.
//
// Queries are plain JSON-able maps in the engine's query DSL. Builders are
// pure: the same parameters always yield an identical query.
package esquery

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Query is a request body in the engine's query DSL.
type Query map[string]any

// Field names in the organization and funding indices.
const (
	FieldCompanyName     = "company_name"
	FieldCompanyUUID     = "company_uuid"
	FieldCountryCode     = "country_code"
	FieldCity            = "city"
	FieldFundingRounds   = "funding_rounds"
	FieldFundingTotalUSD = "funding_total_usd"
	FieldInvestorNames   = "investor_names"
	FieldInvestmentType  = "investment_type"
	FieldAnnouncedOn     = "announced_on"
	FieldRaisedAmountUSD = "raised_amount_usd"
)

const (
	// DefaultListSize is the page size for plain organization and funding listings.
	DefaultListSize = 10
	// DefaultSearchSize is the page size for filtered and investor-scoped searches.
	DefaultSearchSize = 100
	// DefaultFundingFloor is the minimum funding_total_usd for filtered organization search.
	DefaultFundingFloor int64 = 1_000_000

	// MaxPageSize caps a requested page size.
	MaxPageSize = 1000
	// MaxResultWindow is the engine's default index.max_result_window; from+size
	// beyond it is rejected by the engine.
	MaxResultWindow = 10_000

	// InvestorAggregationName names the terms aggregation built by InvestorAggregationQuery.
	InvestorAggregationName = "investors"

	investorMinOccurrences = 2
	investorTopN           = 100
	minRaisedAmountUSD     = 1_000_000
)

// ErrNoNames is returned when an organization lookup is requested for an empty name set.
var ErrNoNames = errors.New("no organization names to look up")

// excludedInvestmentTypes are never returned by FundingsByInvestorQuery.
var excludedInvestmentTypes = []string{"seed", "pre_seed"}

// fundingProjection is the _source projection for investor-scoped funding lookups.
var fundingProjection = []string{
	FieldCompanyUUID,
	FieldCompanyName,
	FieldInvestmentType,
	FieldAnnouncedOn,
	FieldRaisedAmountUSD,
}

// Page is a size/from window over a result set.
type Page struct {
	Size int
	From int
}

// ParsePage converts raw limit/offset strings into a Page. Values that are
// absent, non-numeric or negative fall back to defaultSize and 0.
func ParsePage(limit, offset string, defaultSize int) Page {
	p := Page{Size: defaultSize}
	if n, ok := ParseCount(limit); ok {
		p.Size = n
	}
	if n, ok := ParseCount(offset); ok {
		p.From = n
	}
	return p
}

// ParseCount parses a non-negative integer. The second result is false when
// s is empty, not an integer, or negative.
func ParseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseFundingFloor parses the minimum funding total. Absent, non-numeric and
// zero values yield DefaultFundingFloor.
func ParseFundingFloor(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return DefaultFundingFloor
	}
	return n
}

// Clamped returns p limited to MaxPageSize and to the engine's result window.
func (p Page) Clamped() Page {
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.From > MaxResultWindow-p.Size {
		p.From = MaxResultWindow - p.Size
	}
	return p
}

func (p Page) apply(q Query) Query {
	p = p.Clamped()
	q["size"] = p.Size
	q["from"] = p.From
	return q
}

// OrganizationFilter holds the optional filters of a filtered organization search.
// Empty strings mean "no filter".
type OrganizationFilter struct {
	Name        string
	CountryCode string
	City        string
	TotalFloor  int64
	Page        Page
}

// InvestorPage scopes a funding lookup to one investor.
type InvestorPage struct {
	InvestorName string
	Page         Page
}

// PagedQuery matches everything in an index, one page at a time.
func PagedQuery(p Page) Query {
	return p.apply(Query{})
}

// OrganizationFilterQuery requires at least one funding round and a funding
// total of at least f.TotalFloor, plus a match on each filter that is set.
func OrganizationFilterQuery(f OrganizationFilter) Query {
	floor := f.TotalFloor
	if floor == 0 {
		floor = DefaultFundingFloor
	}
	must := []any{
		rangeQuery(FieldFundingRounds, "gte", 1),
		rangeQuery(FieldFundingTotalUSD, "gte", floor),
	}
	for _, m := range []struct{ field, value string }{
		{FieldCompanyName, f.Name},
		{FieldCountryCode, f.CountryCode},
		{FieldCity, f.City},
	} {
		if m.value != "" {
			must = append(must, matchQuery(m.field, m.value))
		}
	}
	return f.Page.apply(Query{
		"query": map[string]any{
			"bool": map[string]any{"must": must},
		},
	})
}

// InvestorAggregationQuery asks for no hits and the top investor names that
// appear in at least two funding events.
func InvestorAggregationQuery() Query {
	return Query{
		"size": 0,
		"aggs": map[string]any{
			InvestorAggregationName: map[string]any{
				"terms": map[string]any{
					"field":         FieldInvestorNames,
					"min_doc_count": investorMinOccurrences,
					"size":          investorTopN,
				},
			},
		},
	}
}

// FundingsByInvestorQuery returns non-seed funding rounds above one million
// USD that name the investor, projected to the company and round fields.
func FundingsByInvestorQuery(p InvestorPage) Query {
	return p.Page.apply(Query{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					investorMatch(p.InvestorName),
					rangeQuery(FieldRaisedAmountUSD, "gt", minRaisedAmountUSD),
				},
				"must_not": []any{
					map[string]any{
						"terms": map[string]any{FieldInvestmentType: excludedInvestmentTypes},
					},
				},
			},
		},
		"_source": fundingProjection,
	})
}

// CompanyNamesByInvestorQuery finds the funding events naming the investor and
// returns only the funded company's name. The engine's default page size applies.
func CompanyNamesByInvestorQuery(investorName string) Query {
	return Query{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{investorMatch(investorName)},
			},
		},
		"_source": []string{FieldCompanyName},
	}
}

// OrganizationsByNamesQuery matches organizations whose name matches any of
// names. Names are emitted in sorted order so the query is deterministic.
func OrganizationsByNamesQuery(names mapset.Set[string]) (Query, error) {
	if names == nil || names.Cardinality() == 0 {
		return nil, ErrNoNames
	}
	sorted := names.ToSlice()
	sort.Strings(sorted)
	should := make([]any, 0, len(sorted))
	for _, name := range sorted {
		should = append(should, matchQuery(FieldCompanyName, name))
	}
	return Query{
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
	}, nil
}

// investorMatch matches the investor either as a substring of the raw field or
// as the whole field in the upstream artifact encoding {"name"}.
func investorMatch(name string) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				queryString(FieldInvestorNames, SubstringPattern(name)),
				queryString(FieldInvestorNames, ArtifactPhrase(name)),
			},
			"minimum_should_match": 1,
		},
	}
}

// SubstringPattern is the query_string wildcard pattern matching name anywhere in a field.
func SubstringPattern(name string) string {
	return "*" + name + "*"
}

// ArtifactPhrase is the query_string phrase matching a field holding exactly
// {"name"}, with the braces and quotes escaped for the query_string syntax.
func ArtifactPhrase(name string) string {
	return fmt.Sprintf(`"\{\"%s\"\}"`, name)
}

func queryString(field, query string) map[string]any {
	return map[string]any{
		"query_string": map[string]any{
			"default_field": field,
			"query":         query,
		},
	}
}

func matchQuery(field, value string) map[string]any {
	return map[string]any{
		"match": map[string]any{field: value},
	}
}

func rangeQuery(field, op string, bound any) map[string]any {
	return map[string]any{
		"range": map[string]any{
			field: map[string]any{op: bound},
		},
	}
}
