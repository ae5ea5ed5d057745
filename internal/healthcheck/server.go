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

package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type Status int32

const (
	StatusStarting Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

type Response struct {
	Healthy    bool            `json:"healthy"`
	Conditions map[string]bool `json:"conditions,omitempty"`
}

type Config struct {
	Port          int           `mapstructure:"port"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
}

func DefaultConfig() Config {
	return Config{
		Port:          8090,
		ProbeInterval: 30 * time.Second,
	}
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg        Config
	status     atomic.Int32
	conditions sync.Map // map[string]bool, named readiness conditions
	server     *http.Server
}

func NewServer(cfg Config) *Server {
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = def.ProbeInterval
	}
	return &Server{cfg: cfg}
}

func (s *Server) SetStatus(status Status) {
	s.status.Store(int32(status))
	slog.Debug("Health check status updated", slog.String("status", status.String()))
}

func (s *Server) GetStatus() Status {
	return Status(s.status.Load())
}

// SetReadyCondition sets a named readiness condition. The server is ready
// once it is healthy and every registered condition is true.
func (s *Server) SetReadyCondition(name string, ready bool) {
	s.conditions.Store(name, ready)
	slog.Debug("Ready condition updated", slog.String("condition", name), slog.Bool("ready", ready))
}

func (s *Server) ClearReadyCondition(name string) {
	s.conditions.Delete(name)
}

func (s *Server) IsReady() bool {
	if s.GetStatus() != StatusHealthy {
		return false
	}
	ready := true
	s.conditions.Range(func(_, value any) bool {
		if !value.(bool) {
			ready = false
			return false
		}
		return true
	})
	return ready
}

func (s *Server) readyConditions() map[string]bool {
	out := map[string]bool{}
	s.conditions.Range(func(key, value any) bool {
		out[key.(string)] = value.(bool)
		return true
	})
	return out
}

// WatchDependency pings dep right away and then every probe interval,
// recording the outcome as the named readiness condition. It returns when
// ctx is cancelled.
func (s *Server) WatchDependency(ctx context.Context, name string, dep Pinger) {
	probe := func() {
		err := dep.Ping(ctx)
		if err != nil && ctx.Err() == nil {
			slog.Warn("Dependency probe failed", slog.String("dependency", name), slog.Any("error", err))
		}
		s.SetReadyCondition(name, err == nil)
	}

	probe()
	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

// Handler serves /healthz, /readyz and /livez.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, Response{Healthy: s.GetStatus() == StatusHealthy})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, Response{Healthy: s.IsReady(), Conditions: s.readyConditions()})
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, Response{Healthy: s.GetStatus() != StatusUnhealthy})
	})
	return mux
}

// Start serves the health endpoints until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("Starting health check server", slog.Int("port", s.cfg.Port))

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("health check server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return s.Stop()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	slog.Info("Stopping health check server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func writeStatus(w http.ResponseWriter, response Response) {
	w.Header().Set("Content-Type", "application/json")
	if response.Healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health check response", slog.Any("error", err))
	}
}
