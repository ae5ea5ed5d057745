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

// Package queryapi exposes the investment queries over HTTP.
package queryapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cardinalhq/investquery/esquery"
	"github.com/cardinalhq/investquery/investment"
)

// Config holds the HTTP listener settings.
type Config struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultConfig returns the listener settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":8080",
		AllowedOrigin:   "*",
		ShutdownTimeout: 10 * time.Second,
	}
}

// InvestmentQuerier is the set of operations served by the API.
type InvestmentQuerier interface {
	ListOrganizations(ctx context.Context, page esquery.Page) investment.HitPage[investment.Organization]
	ListFundings(ctx context.Context, page esquery.Page) investment.HitPage[investment.FundingEvent]
	InvestorsWithMultipleEntries(ctx context.Context) investment.InvestorList
	SearchOrganizations(ctx context.Context, filter esquery.OrganizationFilter) []investment.Organization
	FundingsByInvestor(ctx context.Context, p esquery.InvestorPage) []investment.RefinedFunding
	CompaniesByInvestor(ctx context.Context, investorName string) []investment.Organization
}

type Server struct {
	cfg     Config
	querier InvestmentQuerier
	logger  *slog.Logger
}

func NewServer(cfg Config, querier InvestmentQuerier, logger *slog.Logger) *Server {
	def := DefaultConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = def.AllowedOrigin
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, querier: querier, logger: logger}
}

// Handler returns the full routing tree with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, rt := range routes {
		path := "/" + rt.name
		mux.Handle(path, s.instrument(path, s.recoverPanics(s.operationHandler(rt.op))))
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/", s.instrument(routeNotFound, http.HandlerFunc(writeNotFound)))

	return s.withCORS(s.withRequestID(mux))
}

// Run serves the API until doneCtx is cancelled, then shuts down gracefully.
func (s *Server) Run(doneCtx context.Context) error {
	s.logger.Info("Starting query API", slog.String("addr", s.cfg.ListenAddr))

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	case <-doneCtx.Done():
	}

	s.logger.Info("Shutting down query API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Failed to shutdown HTTP server", slog.Any("error", err))
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
