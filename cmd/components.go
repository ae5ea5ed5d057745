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

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/cardinalhq/investquery/config"
	"github.com/cardinalhq/investquery/internal/esclient"
	"github.com/cardinalhq/investquery/internal/resultcache"
	"github.com/cardinalhq/investquery/investment"
)

// components is everything a command needs to answer investment queries.
type components struct {
	client  *esclient.Client
	cache   *resultcache.Cache
	service *investment.Service
}

func loadComponents() (*config.Config, *components, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Debug.Enabled {
		logLevel.Set(slog.LevelDebug)
	}

	client, err := esclient.New(cfg.Search)
	if err != nil {
		slog.Error("Failed to create search client", slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed to create search client: %w", err)
	}

	cache := resultcache.New(cfg.Cache)

	service, err := investment.NewService(client, cache,
		investment.WithLogger(slog.Default()),
		investment.WithIndices(cfg.Search.OrganizationIndex, cfg.Search.FundingIndex),
		investment.WithCacheTTL(cfg.Cache.TTL),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create investment service: %w", err)
	}

	return cfg, &components{client: client, cache: cache, service: service}, nil
}
