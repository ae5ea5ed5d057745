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

package esclient

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	searchDuration metric.Float64Histogram
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/investquery/internal/esclient")

	var err error

	searchDuration, err = meter.Float64Histogram(
		"investquery.search.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of search engine requests in seconds"),
	)
	if err != nil {
		log.Fatalf("failed to create search.duration histogram: %v", err)
	}
}

func recordSearchDuration(ctx context.Context, index string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	searchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("index", index),
		attribute.String("outcome", outcome),
	))
}
