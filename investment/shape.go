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
	"encoding/json"
	"fmt"
	"math"
	"regexp"

	"github.com/cardinalhq/investquery/esquery"
)

// artifactWrapper matches one layer of the upstream {"name"} encoding: a
// leading brace with an optional quote, or a trailing optional quote and brace.
var artifactWrapper = regexp.MustCompile(`^\{["']?|["']?\}$`)

// CleanInvestorName strips a single artifact wrapper from an investor name.
// This is a lossy best-effort cleanup: nested wrappers are left in place and a
// name that legitimately starts with "{" loses it.
func CleanInvestorName(raw string) string {
	return artifactWrapper.ReplaceAllString(raw, "")
}

// CleanInvestorBuckets turns investor-name buckets into aggregates, dropping
// buckets whose name is empty once cleaned. Bucket order is preserved.
func CleanInvestorBuckets(buckets []esquery.Bucket) []InvestorAggregate {
	out := make([]InvestorAggregate, 0, len(buckets))
	for _, b := range buckets {
		name := CleanInvestorName(b.KeyString())
		if name == "" {
			continue
		}
		out = append(out, InvestorAggregate{Name: name, Count: b.DocCount})
	}
	return out
}

// ExtractSources decodes the stored document of every hit.
func ExtractSources[T any](resp *esquery.Response) ([]T, error) {
	if resp == nil {
		return []T{}, nil
	}
	out := make([]T, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc T
		if len(hit.Source) > 0 {
			if err := json.Unmarshal(hit.Source, &doc); err != nil {
				return nil, fmt.Errorf("decode document %q from %s: %w", hit.ID, hit.Index, err)
			}
		}
		out = append(out, doc)
	}
	return out, nil
}

// ExtractHits decodes the hits of resp and pairs them with the total-hit counter.
func ExtractHits[T any](resp *esquery.Response) (HitPage[T], error) {
	docs, err := ExtractSources[T](resp)
	if err != nil {
		return HitPage[T]{}, err
	}
	page := HitPage[T]{Hits: docs}
	if resp != nil {
		page.Total = resp.Hits.Total.Value
	}
	return page, nil
}

// AttachRatios gives each event its raised amount as a percentage of the sum
// over all events. Null, missing and non-numeric amounts count as zero in the
// sum. A null amount gets a zero ratio; missing and non-numeric amounts get
// an undefined one. When the sum is zero every ratio is undefined.
func AttachRatios(events []FundingEvent) []RefinedFunding {
	var sum float64
	for _, e := range events {
		if e.RaisedAmountUSD.Valid {
			sum += e.RaisedAmountUSD.Value
		}
	}
	out := make([]RefinedFunding, 0, len(events))
	for _, e := range events {
		ratio := Ratio(math.NaN())
		switch {
		case sum == 0:
		case e.RaisedAmountUSD.Valid:
			ratio = Ratio(e.RaisedAmountUSD.Value / sum * 100)
		case e.RaisedAmountUSD.Null:
			ratio = 0
		}
		out = append(out, RefinedFunding{FundingEvent: e, Ratio: ratio})
	}
	return out
}
