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
	"log"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var apiRequests metric.Int64Counter

func init() {
	meter := otel.Meter("github.com/cardinalhq/investquery/queryapi")

	var err error
	apiRequests, err = meter.Int64Counter(
		"investquery.api.requests",
		metric.WithDescription("Number of API requests by route and status"),
	)
	if err != nil {
		log.Fatalf("failed to create api.requests counter: %v", err)
	}
}

func recordRequest(ctx context.Context, route string, status int) {
	apiRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	))
}
