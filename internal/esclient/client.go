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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cardinalhq/investquery/esquery"
)

// ErrSearchFailed is wrapped by Execute when the engine answers with an error status.
var ErrSearchFailed = errors.New("search request failed")

// ErrNoAddresses is returned by New when no engine address is configured.
var ErrNoAddresses = errors.New("no search engine address configured")

type Config struct {
	URL               string `mapstructure:"url"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	APIKey            string `mapstructure:"api_key"`
	OrganizationIndex string `mapstructure:"organization_index"`
	FundingIndex      string `mapstructure:"funding_index"`
	MaxRetries        int    `mapstructure:"max_retries"`

	// Addresses is derived from URL, which may hold a comma-separated list.
	Addresses []string `mapstructure:"-"`
}

func DefaultConfig() Config {
	return Config{
		OrganizationIndex: "org",
		FundingIndex:      "funding",
		MaxRetries:        3,
	}
}

// Client executes structured queries against named indices. It keeps no
// state between calls beyond the underlying connection pool.
type Client struct {
	es *elasticsearch.Client
}

func New(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, ErrNoAddresses
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		APIKey:     cfg.APIKey,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}
	return &Client{es: es}, nil
}

// Execute runs query against index and decodes the response. Any transport
// failure, error status, or undecodable body is returned as an error; the
// caller decides how to degrade.
func (c *Client) Execute(ctx context.Context, index string, query esquery.Query) (*esquery.Response, error) {
	tracer := otel.Tracer("github.com/cardinalhq/investquery/internal/esclient")
	ctx, span := tracer.Start(ctx, "search.execute")
	defer span.End()
	span.SetAttributes(attribute.String("index", index))

	start := time.Now()
	resp, err := c.execute(ctx, index, query)
	recordSearchDuration(ctx, index, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("hits.total", resp.Hits.Total.Value),
		attribute.Int("hits.returned", len(resp.Hits.Hits)),
	)
	return resp, nil
}

func (c *Client) execute(ctx context.Context, index string, query esquery.Query) (*esquery.Response, error) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(&body),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		slog.Debug("Search engine returned an error",
			slog.String("index", index),
			slog.Int("status", res.StatusCode),
			slog.String("body", string(msg)))
		return nil, fmt.Errorf("search %s: %w: %s", index, ErrSearchFailed, res.Status())
	}

	resp, err := esquery.DecodeResponse(res.Body)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	return resp, nil
}

// Ping reports whether the engine answers.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping search engine: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("ping search engine: %w: %s", ErrSearchFailed, res.Status())
	}
	return nil
}
