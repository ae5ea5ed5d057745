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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/investquery/internal/debugging"
	"github.com/cardinalhq/investquery/internal/healthcheck"
	"github.com/cardinalhq/investquery/queryapi"
)

// searchReachable is the readiness condition tracking the search engine.
const searchReachable = "search_reachable"

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the investment query API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			servicename := "investquery"
			doneCtx, doneFx, err := setupTelemetry(servicename, os.Stdout)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				if err := doneFx(); err != nil {
					slog.Error("Error shutting down telemetry", slog.Any("error", err))
				}
			}()

			cfg, comps, err := loadComponents()
			if err != nil {
				return err
			}

			go comps.cache.Start()
			defer comps.cache.Stop()

			healthServer := healthcheck.NewServer(cfg.Health)
			api := queryapi.NewServer(cfg.API, comps.service, slog.Default())

			var tasks taskGroup
			g, gctx := errgroup.WithContext(doneCtx)
			g.Go(tasks.run("health", func() error { return healthServer.Start(gctx) }))
			g.Go(tasks.run("readiness", func() error {
				healthServer.WatchDependency(gctx, searchReachable, comps.client)
				return nil
			}))
			g.Go(tasks.run("pprof", func() error { return debugging.RunPprof(gctx, cfg.Debug.PprofPort) }))
			g.Go(tasks.run("api", func() error { return api.Run(gctx) }))

			healthServer.SetStatus(healthcheck.StatusHealthy)

			_ = g.Wait()
			if err := tasks.err(); err != nil {
				slog.Error("Server stopped with errors", slog.Any("error", err))
				return err
			}
			slog.Info("Server stopped")
			return nil
		},
	}

	rootCmd.AddCommand(cmd)
}

// taskGroup collects the error of every named task, not only the first.
type taskGroup struct {
	mu   sync.Mutex
	errs *multierror.Error
}

func (t *taskGroup) run(name string, fn func() error) func() error {
	return func() error {
		err := fn()
		if err != nil && !errors.Is(err, context.Canceled) {
			t.mu.Lock()
			t.errs = multierror.Append(t.errs, fmt.Errorf("%s: %w", name, err))
			t.mu.Unlock()
		}
		return err
	}
}

func (t *taskGroup) err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errs.ErrorOrNil()
}
