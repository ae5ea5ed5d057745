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
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	cacheLookups    metric.Int64Counter
	adapterFailures metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/investquery/investment")

	var err error

	cacheLookups, err = meter.Int64Counter(
		"investquery.cache.lookups",
		metric.WithDescription("Number of result cache lookups by operation and result"),
	)
	if err != nil {
		log.Fatalf("failed to create cache.lookups counter: %v", err)
	}

	adapterFailures, err = meter.Int64Counter(
		"investquery.adapter.failures",
		metric.WithDescription("Number of search calls degraded to an empty result"),
	)
	if err != nil {
		log.Fatalf("failed to create adapter.failures counter: %v", err)
	}
}

func recordCacheLookup(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}

func recordAdapterFailure(ctx context.Context, operation string) {
	adapterFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}
