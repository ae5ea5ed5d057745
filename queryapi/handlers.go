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

package queryapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/cardinalhq/investquery/investment"
)

const (
	messageOK          = "OK"
	messageNotFound    = "Not Found"
	messageServerError = "Something went wrong"

	routeNotFound = "not_found"
)

type envelope struct {
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// operation runs one service call on the raw query-string parameters.
type operation func(ctx context.Context, q InvestmentQuerier, params url.Values) any

type route struct {
	name string
	op   operation
}

var routes = []route{
	{"orgs", func(ctx context.Context, q InvestmentQuerier, v url.Values) any {
		return q.ListOrganizations(ctx, investment.ParseListPage(v))
	}},
	{"fundings", func(ctx context.Context, q InvestmentQuerier, v url.Values) any {
		return q.ListFundings(ctx, investment.ParseListPage(v))
	}},
	{"investors", func(ctx context.Context, q InvestmentQuerier, _ url.Values) any {
		return q.InvestorsWithMultipleEntries(ctx)
	}},
	{"organizations", func(ctx context.Context, q InvestmentQuerier, v url.Values) any {
		return q.SearchOrganizations(ctx, investment.ParseOrganizationFilter(v))
	}},
	{"investorfunds", func(ctx context.Context, q InvestmentQuerier, v url.Values) any {
		return q.FundingsByInvestor(ctx, investment.ParseInvestorPage(v))
	}},
	{"investorcomp", func(ctx context.Context, q InvestmentQuerier, v url.Values) any {
		return q.CompaniesByInvestor(ctx, investment.ParseInvestorName(v))
	}},
}

// Operations lists the operation names, each served at "/" + name.
func Operations() []string {
	names := make([]string, 0, len(routes))
	for _, rt := range routes {
		names = append(names, rt.name)
	}
	return names
}

// Dispatch runs the named operation with raw query-string parameters. The
// second result is false for an unknown name.
func Dispatch(ctx context.Context, q InvestmentQuerier, name string, params url.Values) (any, bool) {
	for _, rt := range routes {
		if rt.name == name {
			return rt.op(ctx, q, params), true
		}
	}
	return nil, false
}

// operationHandler serves op on GET; every other method is treated as an unknown route.
func (s *Server) operationHandler(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeNotFound(w, r)
			return
		}
		results := op(r.Context(), s.querier, r.URL.Query())
		writeEnvelope(w, http.StatusOK, envelope{Message: messageOK, Results: results})
	}
}

func writeNotFound(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusNotFound, envelope{Message: messageNotFound})
}

func writeServerError(w http.ResponseWriter) {
	writeEnvelope(w, http.StatusInternalServerError, envelope{Message: messageServerError})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
