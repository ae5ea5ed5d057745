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

// Package investment answers the organization and funding questions asked of
// the search index. It builds queries, executes them through a Searcher,
// shapes the hits, and caches the expensive or frequently repeated answers.
//
// Operations never fail: when the engine cannot be reached or answers with an
// error, the failure is logged and the documented empty shape is returned.
package investment

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cardinalhq/investquery/esquery"
	"github.com/cardinalhq/investquery/internal/logctx"
)

// InvestorNamesCacheKey holds the cached investor aggregation.
const InvestorNamesCacheKey = "investor_names"

// DefaultCacheTTL is how long cached answers are served.
const DefaultCacheTTL = time.Hour

// Searcher executes a structured query against a named index.
type Searcher interface {
	Execute(ctx context.Context, index string, query esquery.Query) (*esquery.Response, error)
}

// Cache stores shaped results with per-entry expiry. Values put in the cache
// are never mutated afterwards.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Expire(key string)
}

// Service is the investment query orchestrator.
type Service struct {
	searcher          Searcher
	cache             Cache
	organizationIndex string
	fundingIndex      string
	cacheTTL          time.Duration
	logger            *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIndices overrides the organization and funding index names. Empty names keep the defaults.
func WithIndices(organizationIndex, fundingIndex string) Option {
	return func(s *Service) {
		if organizationIndex != "" {
			s.organizationIndex = organizationIndex
		}
		if fundingIndex != "" {
			s.fundingIndex = fundingIndex
		}
	}
}

// WithCacheTTL sets how long cached answers live. Non-positive values keep DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func NewService(searcher Searcher, cache Cache, opts ...Option) (*Service, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}
	s := &Service{
		searcher:          searcher,
		cache:             cache,
		organizationIndex: "org",
		fundingIndex:      "funding",
		cacheTTL:          DefaultCacheTTL,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListOrganizations returns one page of organizations.
func (s *Service) ListOrganizations(ctx context.Context, page esquery.Page) HitPage[Organization] {
	resp, ok := s.execute(ctx, "list_organizations", s.organizationIndex, esquery.PagedQuery(page))
	if !ok {
		return HitPage[Organization]{Hits: []Organization{}}
	}
	hits, err := ExtractHits[Organization](resp)
	if err != nil {
		s.shapeFailed(ctx, "list_organizations", err)
		return HitPage[Organization]{Hits: []Organization{}}
	}
	return hits
}

// ListFundings returns one page of funding events.
func (s *Service) ListFundings(ctx context.Context, page esquery.Page) HitPage[FundingEvent] {
	resp, ok := s.execute(ctx, "list_fundings", s.fundingIndex, esquery.PagedQuery(page))
	if !ok {
		return HitPage[FundingEvent]{Hits: []FundingEvent{}}
	}
	hits, err := ExtractHits[FundingEvent](resp)
	if err != nil {
		s.shapeFailed(ctx, "list_fundings", err)
		return HitPage[FundingEvent]{Hits: []FundingEvent{}}
	}
	return hits
}

// InvestorsWithMultipleEntries returns the investors named in at least two
// funding events. A non-empty answer is cached under InvestorNamesCacheKey.
func (s *Service) InvestorsWithMultipleEntries(ctx context.Context) InvestorList {
	const op = "investors"
	if cached, ok := s.cachedValue(ctx, op, InvestorNamesCacheKey); ok {
		if investors, ok := cached.([]InvestorAggregate); ok {
			return InvestorList{Investors: slices.Clone(investors)}
		}
	}

	resp, ok := s.execute(ctx, op, s.fundingIndex, esquery.InvestorAggregationQuery())
	if !ok {
		return InvestorList{Investors: []InvestorAggregate{}}
	}
	investors := CleanInvestorBuckets(resp.Buckets(esquery.InvestorAggregationName))
	if len(investors) > 0 {
		s.cache.Set(InvestorNamesCacheKey, slices.Clone(investors), s.cacheTTL)
	}
	return InvestorList{Investors: investors}
}

// SearchOrganizations returns the funded organizations matching every filter that is set.
func (s *Service) SearchOrganizations(ctx context.Context, filter esquery.OrganizationFilter) []Organization {
	const op = "search_organizations"
	resp, ok := s.execute(ctx, op, s.organizationIndex, esquery.OrganizationFilterQuery(filter))
	if !ok {
		return []Organization{}
	}
	orgs, err := ExtractSources[Organization](resp)
	if err != nil {
		s.shapeFailed(ctx, op, err)
		return []Organization{}
	}
	if len(orgs) == 0 {
		s.log(ctx).Debug("No organizations matched", slog.String("operation", op))
	}
	return orgs
}

// FundingsByInvestor returns the investor's larger non-seed rounds, each with
// its share of the page's total raised amount. Non-empty answers are cached
// per investor and page.
func (s *Service) FundingsByInvestor(ctx context.Context, p esquery.InvestorPage) []RefinedFunding {
	const op = "fundings_by_investor"
	if p.InvestorName == "" {
		s.rejectInput(ctx, op, ErrInvestorNameRequired)
		return []RefinedFunding{}
	}

	key := FundingsCacheKey(p)
	if cached, ok := s.cachedValue(ctx, op, key); ok {
		if fundings, ok := cached.([]RefinedFunding); ok {
			return slices.Clone(fundings)
		}
	}

	resp, ok := s.execute(ctx, op, s.fundingIndex, esquery.FundingsByInvestorQuery(p))
	if !ok {
		return []RefinedFunding{}
	}
	events, err := ExtractSources[FundingEvent](resp)
	if err != nil {
		s.shapeFailed(ctx, op, err)
		return []RefinedFunding{}
	}
	if len(events) == 0 {
		s.log(ctx).Debug("No fundings matched investor", slog.String("investor", p.InvestorName))
		return []RefinedFunding{}
	}

	refined := AttachRatios(events)
	s.cache.Set(key, slices.Clone(refined), s.cacheTTL)
	return refined
}

// CompaniesByInvestor returns the organizations the investor has funded. The
// company names come from the funding index first; the organization index is
// only queried when at least one name was found.
func (s *Service) CompaniesByInvestor(ctx context.Context, investorName string) []Organization {
	const op = "companies_by_investor"
	if investorName == "" {
		s.rejectInput(ctx, op, ErrInvestorNameRequired)
		return []Organization{}
	}

	names := s.companyNamesByInvestor(ctx, investorName)
	if names.Cardinality() == 0 {
		s.log(ctx).Debug("No funded companies found for investor", slog.String("investor", investorName))
		return []Organization{}
	}

	query, err := esquery.OrganizationsByNamesQuery(names)
	if err != nil {
		s.log(ctx).Error("Failed to build organization lookup", slog.String("operation", op), slog.Any("error", err))
		return []Organization{}
	}
	resp, ok := s.execute(ctx, op, s.organizationIndex, query)
	if !ok {
		return []Organization{}
	}
	orgs, err := ExtractSources[Organization](resp)
	if err != nil {
		s.shapeFailed(ctx, op, err)
		return []Organization{}
	}
	return orgs
}

func (s *Service) companyNamesByInvestor(ctx context.Context, investorName string) mapset.Set[string] {
	const op = "company_names_by_investor"
	names := mapset.NewThreadUnsafeSet[string]()

	resp, ok := s.execute(ctx, op, s.fundingIndex, esquery.CompanyNamesByInvestorQuery(investorName))
	if !ok {
		return names
	}
	events, err := ExtractSources[FundingEvent](resp)
	if err != nil {
		s.shapeFailed(ctx, op, err)
		return names
	}
	for _, e := range events {
		if e.CompanyName != "" {
			names.Add(e.CompanyName)
		}
	}
	return names
}

// FundingsCacheKey is the cache key of one investor's funding page. The
// investor name is quoted so that no two (name, size, from) triples collide.
func FundingsCacheKey(p esquery.InvestorPage) string {
	page := p.Page.Clamped()
	return fmt.Sprintf("IF-%q-%d-%d", p.InvestorName, page.Size, page.From)
}

func (s *Service) execute(ctx context.Context, op, index string, query esquery.Query) (*esquery.Response, bool) {
	resp, err := s.searcher.Execute(ctx, index, query)
	if err != nil {
		recordAdapterFailure(ctx, op)
		s.log(ctx).Error("Search failed",
			slog.String("operation", op),
			slog.String("index", index),
			slog.Any("error", err))
		return nil, false
	}
	if resp == nil {
		recordAdapterFailure(ctx, op)
		s.log(ctx).Error("Search returned no response", slog.String("operation", op), slog.String("index", index))
		return nil, false
	}
	return resp, true
}

// log returns the request-scoped logger when there is one.
func (s *Service) log(ctx context.Context) *slog.Logger {
	return logctx.FromContext(ctx, s.logger)
}

func (s *Service) cachedValue(ctx context.Context, op, key string) (any, bool) {
	v, ok := s.cache.Get(key)
	recordCacheLookup(op, ok)
	if ok {
		s.log(ctx).Debug("Cache hit", slog.String("operation", op), slog.String("key", key))
	}
	return v, ok
}

func (s *Service) shapeFailed(ctx context.Context, op string, err error) {
	recordAdapterFailure(ctx, op)
	s.log(ctx).Error("Failed to shape search result", slog.String("operation", op), slog.Any("error", err))
}

func (s *Service) rejectInput(ctx context.Context, op string, err error) {
	s.log(ctx).Warn("Rejected request", slog.String("operation", op), slog.Any("error", err))
}
