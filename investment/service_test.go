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
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/investquery/esquery"
)

type searchCall struct {
	index string
	query esquery.Query
}

// fakeSearcher replays scripted responses in order and records every call.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   []searchCall
	replies []fakeReply
}

type fakeReply struct {
	resp *esquery.Response
	err  error
}

func (f *fakeSearcher) Execute(_ context.Context, index string, query esquery.Query) (*esquery.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, searchCall{index: index, query: query})
	if len(f.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r.resp, r.err
}

func (f *fakeSearcher) reply(resp *esquery.Response) *fakeSearcher {
	f.replies = append(f.replies, fakeReply{resp: resp})
	return f
}

func (f *fakeSearcher) fail(err error) *fakeSearcher {
	f.replies = append(f.replies, fakeReply{err: err})
	return f
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeCache is an in-memory Cache with a controllable clock.
type fakeCache struct {
	mu      sync.Mutex
	now     time.Time
	entries map[string]fakeEntry
}

type fakeEntry struct {
	value     any
	expiresAt time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{now: time.Unix(1_700_000_000, 0), entries: map[string]fakeEntry{}}
}

func (c *fakeCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now.Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *fakeCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = fakeEntry{value: value, expiresAt: c.now.Add(ttl)}
}

func (c *fakeCache) Expire(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *fakeCache) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func hitsResponse(total int64, sources ...string) *esquery.Response {
	resp := &esquery.Response{Hits: esquery.HitsEnvelope{Total: esquery.Total{Value: total}}}
	for _, src := range sources {
		resp.Hits.Hits = append(resp.Hits.Hits, esquery.Hit{Source: json.RawMessage(src)})
	}
	return resp
}

func bucketsResponse(buckets ...esquery.Bucket) *esquery.Response {
	return &esquery.Response{
		Aggregations: map[string]esquery.Aggregation{
			esquery.InvestorAggregationName: {Buckets: buckets},
		},
	}
}

func newTestService(t *testing.T, searcher *fakeSearcher, cache *fakeCache) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(searcher, cache, WithLogger(logger))
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	_, err := NewService(nil, newFakeCache())
	assert.Equal(t, ErrSearcherRequired, err)

	_, err = NewService(&fakeSearcher{}, nil)
	assert.Equal(t, ErrCacheRequired, err)

	svc, err := NewService(&fakeSearcher{}, newFakeCache(),
		WithIndices("companies", ""),
		WithCacheTTL(time.Minute),
		WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, "companies", svc.organizationIndex)
	assert.Equal(t, "funding", svc.fundingIndex)
	assert.Equal(t, time.Minute, svc.cacheTTL)
	assert.NotNil(t, svc.logger)
}

func TestListOrganizations(t *testing.T) {
	searcher := (&fakeSearcher{}).reply(hitsResponse(1, `{"uuid":"u1","company_name":"Org1"}`))
	svc := newTestService(t, searcher, newFakeCache())

	got := svc.ListOrganizations(context.Background(), esquery.Page{Size: 5})
	assert.Equal(t, int64(1), got.Total)
	require.Len(t, got.Hits, 1)
	assert.Equal(t, "Org1", got.Hits[0].CompanyName)

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "org", searcher.calls[0].index)
	assert.Equal(t, esquery.Query{"size": 5, "from": 0}, searcher.calls[0].query)
}

func TestListFundings(t *testing.T) {
	searcher := (&fakeSearcher{}).reply(hitsResponse(1, `{"company_name":"Fund1","raised_amount_usd":100}`))
	svc := newTestService(t, searcher, newFakeCache())

	got := svc.ListFundings(context.Background(), esquery.Page{Size: 10, From: 2})
	assert.Equal(t, int64(1), got.Total)
	require.Len(t, got.Hits, 1)
	assert.Equal(t, "Fund1", got.Hits[0].CompanyName)
	assert.Equal(t, "funding", searcher.calls[0].index)
	assert.Equal(t, esquery.Query{"size": 10, "from": 2}, searcher.calls[0].query)
}

func TestListingsDegradeOnFailure(t *testing.T) {
	searcher := (&fakeSearcher{}).fail(errors.New("connection refused"))
	svc := newTestService(t, searcher, newFakeCache())

	orgs := svc.ListOrganizations(context.Background(), esquery.Page{Size: 10})
	assert.Equal(t, int64(0), orgs.Total)
	assert.NotNil(t, orgs.Hits)
	assert.Empty(t, orgs.Hits)

	fundings := svc.ListFundings(context.Background(), esquery.Page{Size: 10})
	assert.Equal(t, int64(0), fundings.Total)
	assert.Empty(t, fundings.Hits)

	data, err := json.Marshal(orgs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hits":[],"total":0}`, string(data))
}

func TestInvestorsWithMultipleEntriesCaching(t *testing.T) {
	searcher := (&fakeSearcher{}).reply(bucketsResponse(
		esquery.Bucket{Key: `{"Acme Ventures"}`, DocCount: 3},
		esquery.Bucket{Key: `{}`, DocCount: 9},
		esquery.Bucket{Key: "InvestorY", DocCount: 2},
	))
	cache := newFakeCache()
	svc := newTestService(t, searcher, cache)
	ctx := context.Background()

	want := InvestorList{Investors: []InvestorAggregate{
		{Name: "Acme Ventures", Count: 3},
		{Name: "InvestorY", Count: 2},
	}}

	assert.Equal(t, want, svc.InvestorsWithMultipleEntries(ctx))
	assert.Equal(t, 1, searcher.callCount())
	assert.Equal(t, esquery.InvestorAggregationQuery(), searcher.calls[0].query)
	assert.Equal(t, "funding", searcher.calls[0].index)

	cache.advance(59 * time.Minute)
	assert.Equal(t, want, svc.InvestorsWithMultipleEntries(ctx))
	assert.Equal(t, 1, searcher.callCount(), "second call within the TTL must be served from cache")

	cache.advance(2 * time.Minute)
	assert.Equal(t, want, svc.InvestorsWithMultipleEntries(ctx))
	assert.Equal(t, 2, searcher.callCount(), "call after expiry must query again")
}

func TestInvestorsWithMultipleEntriesNoNegativeCaching(t *testing.T) {
	searcher := (&fakeSearcher{}).
		fail(errors.New("engine down")).
		reply(bucketsResponse()).
		reply(bucketsResponse(esquery.Bucket{Key: "InvestorY", DocCount: 2}))
	cache := newFakeCache()
	svc := newTestService(t, searcher, cache)
	ctx := context.Background()

	got := svc.InvestorsWithMultipleEntries(ctx)
	assert.NotNil(t, got.Investors)
	assert.Empty(t, got.Investors)
	assert.Empty(t, cache.keys())

	assert.Empty(t, svc.InvestorsWithMultipleEntries(ctx).Investors)
	assert.Empty(t, cache.keys(), "empty results are not cached")

	assert.Len(t, svc.InvestorsWithMultipleEntries(ctx).Investors, 1)
	assert.Equal(t, []string{InvestorNamesCacheKey}, cache.keys())
	assert.Equal(t, 3, searcher.callCount())
}

func TestInvestorsCachedValueIsNotShared(t *testing.T) {
	searcher := (&fakeSearcher{}).reply(bucketsResponse(esquery.Bucket{Key: "InvestorY", DocCount: 2}))
	svc := newTestService(t, searcher, newFakeCache())
	ctx := context.Background()

	first := svc.InvestorsWithMultipleEntries(ctx)
	first.Investors[0].Name = "mutated"

	second := svc.InvestorsWithMultipleEntries(ctx)
	assert.Equal(t, "InvestorY", second.Investors[0].Name)
}

func TestSearchOrganizations(t *testing.T) {
	searcher := (&fakeSearcher{}).reply(hitsResponse(1, `{"company_name":"TechCorp","country_code":"US","city":"San Francisco"}`))
	svc := newTestService(t, searcher, newFakeCache())

	filter := esquery.OrganizationFilter{Name: "TechCorp", CountryCode: "US", City: "San Francisco", TotalFloor: 5_000_000, Page: esquery.Page{Size: 10}}
	got := svc.SearchOrganizations(context.Background(), filter)
	assert.Equal(t, []Organization{{CompanyName: "TechCorp", CountryCode: "US", City: "San Francisco"}}, got)
	assert.Equal(t, "org", searcher.calls[0].index)
	assert.Equal(t, esquery.OrganizationFilterQuery(filter), searcher.calls[0].query)
}

func TestSearchOrganizationsDegrades(t *testing.T) {
	searcher := (&fakeSearcher{}).fail(errors.New("timeout"))
	svc := newTestService(t, searcher, newFakeCache())

	got := svc.SearchOrganizations(context.Background(), esquery.OrganizationFilter{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFundingsByInvestor(t *testing.T) {
	searcher := (&fakeSearcher{}).reply(hitsResponse(2,
		`{"company_uuid":"c1","company_name":"A","investment_type":"series_a","announced_on":"2014-05-01","raised_amount_usd":100}`,
		`{"company_uuid":"c2","company_name":"B","investment_type":"series_b","announced_on":"2016-02-01","raised_amount_usd":300}`,
	))
	cache := newFakeCache()
	svc := newTestService(t, searcher, cache)
	ctx := context.Background()
	p := esquery.InvestorPage{InvestorName: "Acme", Page: esquery.Page{Size: 10}}

	got := svc.FundingsByInvestor(ctx, p)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].CompanyName)
	assert.InDelta(t, 25.0, float64(got[0].Ratio), 1e-9)
	assert.InDelta(t, 75.0, float64(got[1].Ratio), 1e-9)
	assert.Equal(t, esquery.FundingsByInvestorQuery(p), searcher.calls[0].query)

	again := svc.FundingsByInvestor(ctx, p)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, searcher.callCount())
	assert.Equal(t, []string{FundingsCacheKey(p)}, cache.keys())
}

func TestFundingsByInvestorCacheKeysIncludePage(t *testing.T) {
	first := hitsResponse(1, `{"company_name":"A","raised_amount_usd":100}`)
	second := hitsResponse(1, `{"company_name":"B","raised_amount_usd":100}`)
	searcher := (&fakeSearcher{}).reply(first).reply(second)
	cache := newFakeCache()
	svc := newTestService(t, searcher, cache)
	ctx := context.Background()

	p10 := esquery.InvestorPage{InvestorName: "Acme", Page: esquery.Page{Size: 10, From: 0}}
	p20 := esquery.InvestorPage{InvestorName: "Acme", Page: esquery.Page{Size: 20, From: 0}}

	a := svc.FundingsByInvestor(ctx, p10)
	b := svc.FundingsByInvestor(ctx, p20)
	assert.Equal(t, "A", a[0].CompanyName)
	assert.Equal(t, "B", b[0].CompanyName)
	assert.Equal(t, 2, searcher.callCount())
	assert.NotEqual(t, FundingsCacheKey(p10), FundingsCacheKey(p20))
	assert.Len(t, cache.keys(), 2)

	assert.Equal(t, "A", svc.FundingsByInvestor(ctx, p10)[0].CompanyName)
	assert.Equal(t, "B", svc.FundingsByInvestor(ctx, p20)[0].CompanyName)
	assert.Equal(t, 2, searcher.callCount())
}

func TestFundingsCacheKeyIsUnambiguous(t *testing.T) {
	a := FundingsCacheKey(esquery.InvestorPage{InvestorName: "x-1", Page: esquery.Page{Size: 2, From: 3}})
	b := FundingsCacheKey(esquery.InvestorPage{InvestorName: "x", Page: esquery.Page{Size: 1, From: 2}})
	assert.NotEqual(t, a, b)
	assert.Equal(t, `IF-"Acme"-10-0`, FundingsCacheKey(esquery.InvestorPage{InvestorName: "Acme", Page: esquery.Page{Size: 10}}))
}

func TestFundingsByInvestorRequiresName(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := newTestService(t, searcher, newFakeCache())

	got := svc.FundingsByInvestor(context.Background(), esquery.InvestorPage{Page: esquery.Page{Size: 10}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, searcher.callCount())
}

func TestFundingsByInvestorNoNegativeCaching(t *testing.T) {
	searcher := (&fakeSearcher{}).
		fail(errors.New("engine down")).
		reply(hitsResponse(0)).
		reply(hitsResponse(1, `{"company_name":"A","raised_amount_usd":5}`))
	cache := newFakeCache()
	svc := newTestService(t, searcher, cache)
	ctx := context.Background()
	p := esquery.InvestorPage{InvestorName: "Acme", Page: esquery.Page{Size: 10}}

	assert.Empty(t, svc.FundingsByInvestor(ctx, p))
	assert.Empty(t, svc.FundingsByInvestor(ctx, p))
	assert.Empty(t, cache.keys())

	got := svc.FundingsByInvestor(ctx, p)
	require.Len(t, got, 1)
	assert.InDelta(t, 100.0, float64(got[0].Ratio), 1e-9)
	assert.Equal(t, 3, searcher.callCount())
}

func TestCompaniesByInvestor(t *testing.T) {
	searcher := (&fakeSearcher{}).
		reply(hitsResponse(3,
			`{"company_name":"StartupY"}`,
			`{"company_name":"StartupY"}`,
			`{"company_name":"StartupZ"}`,
		)).
		reply(hitsResponse(2,
			`{"company_name":"StartupY","city":"New York"}`,
			`{"company_name":"StartupZ","city":"Austin"}`,
		))
	svc := newTestService(t, searcher, newFakeCache())

	got := svc.CompaniesByInvestor(context.Background(), "InvestorX")
	assert.Equal(t, []Organization{
		{CompanyName: "StartupY", City: "New York"},
		{CompanyName: "StartupZ", City: "Austin"},
	}, got)

	require.Len(t, searcher.calls, 2)
	assert.Equal(t, "funding", searcher.calls[0].index)
	assert.Equal(t, esquery.CompanyNamesByInvestorQuery("InvestorX"), searcher.calls[0].query)

	assert.Equal(t, "org", searcher.calls[1].index)
	data, err := json.Marshal(searcher.calls[1].query)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"bool":{
		"should":[{"match":{"company_name":"StartupY"}},{"match":{"company_name":"StartupZ"}}],
		"minimum_should_match":1
	}}}`, string(data), "duplicate names collapse into one condition")
}

func TestCompaniesByInvestorShortCircuits(t *testing.T) {
	t.Run("no funding events", func(t *testing.T) {
		searcher := (&fakeSearcher{}).reply(hitsResponse(0))
		svc := newTestService(t, searcher, newFakeCache())

		got := svc.CompaniesByInvestor(context.Background(), "Nobody")
		assert.NotNil(t, got)
		assert.Empty(t, got)
		require.Len(t, searcher.calls, 1)
		assert.Equal(t, "funding", searcher.calls[0].index, "organization index must not be queried")
	})

	t.Run("phase one fails", func(t *testing.T) {
		searcher := (&fakeSearcher{}).fail(errors.New("engine down"))
		svc := newTestService(t, searcher, newFakeCache())

		assert.Empty(t, svc.CompaniesByInvestor(context.Background(), "InvestorX"))
		assert.Equal(t, 1, searcher.callCount())
	})

	t.Run("events without company names", func(t *testing.T) {
		searcher := (&fakeSearcher{}).reply(hitsResponse(1, `{"investment_type":"seed"}`))
		svc := newTestService(t, searcher, newFakeCache())

		assert.Empty(t, svc.CompaniesByInvestor(context.Background(), "InvestorX"))
		assert.Equal(t, 1, searcher.callCount())
	})

	t.Run("missing investor name", func(t *testing.T) {
		searcher := &fakeSearcher{}
		svc := newTestService(t, searcher, newFakeCache())

		assert.Empty(t, svc.CompaniesByInvestor(context.Background(), ""))
		assert.Equal(t, 0, searcher.callCount())
	})
}

func TestCompaniesByInvestorPhaseTwoFails(t *testing.T) {
	searcher := (&fakeSearcher{}).
		reply(hitsResponse(1, `{"company_name":"StartupY"}`)).
		fail(errors.New("engine down"))
	svc := newTestService(t, searcher, newFakeCache())

	got := svc.CompaniesByInvestor(context.Background(), "InvestorX")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 2, searcher.callCount())
}

func TestConcurrentCachedCalls(t *testing.T) {
	searcher := (&fakeSearcher{}).reply(bucketsResponse(esquery.Bucket{Key: "InvestorY", DocCount: 2}))
	svc := newTestService(t, searcher, newFakeCache())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := svc.InvestorsWithMultipleEntries(context.Background())
			assert.Len(t, got.Investors, 1)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, searcher.callCount(), 1)
}
