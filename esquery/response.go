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

package esquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Response is the subset of a search response the service reads.
type Response struct {
	Took         int64                  `json:"took"`
	TimedOut     bool                   `json:"timed_out"`
	Hits         HitsEnvelope           `json:"hits"`
	Aggregations map[string]Aggregation `json:"aggregations,omitempty"`
}

// HitsEnvelope holds the returned page of hits and the total-hit counter.
type HitsEnvelope struct {
	Total Total `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Total is the total-hit counter. Older engines report a bare number; newer
// ones an object with a value and a relation.
type Total struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation,omitempty"`
}

func (t *Total) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		if bytes.Equal(data, []byte("null")) {
			*t = Total{}
			return nil
		}
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode hits.total: %w", err)
		}
		*t = Total{Value: n, Relation: "eq"}
		return nil
	}
	type plain Total
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode hits.total: %w", err)
	}
	*t = Total(p)
	return nil
}

// Hit is one matched document.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score,omitempty"`
	Source json.RawMessage `json:"_source"`
}

// Aggregation is a bucketed aggregation result.
type Aggregation struct {
	Buckets []Bucket `json:"buckets"`
}

// Bucket is one aggregation group.
type Bucket struct {
	Key      any   `json:"key"`
	DocCount int64 `json:"doc_count"`
}

// KeyString returns the bucket key as text.
func (b Bucket) KeyString() string {
	switch k := b.Key.(type) {
	case nil:
		return ""
	case string:
		return k
	default:
		return fmt.Sprint(k)
	}
}

// DecodeResponse reads a search response body.
func DecodeResponse(r io.Reader) (*Response, error) {
	var resp Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

// Buckets returns the buckets of the named aggregation, or nil if the response has none.
func (r *Response) Buckets(name string) []Bucket {
	if r == nil {
		return nil
	}
	agg, ok := r.Aggregations[name]
	if !ok {
		return nil
	}
	return agg.Buckets
}
