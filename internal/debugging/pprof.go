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

package debugging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"time"
)

const DefaultPprofPort = 6060

type Config struct {
	PprofPort int  `mapstructure:"pprof_port"`
	Enabled   bool `mapstructure:"enabled"`
}

func DefaultConfig() Config {
	return Config{PprofPort: DefaultPprofPort}
}

// RunPprof serves the net/http/pprof handlers on port until ctx is done.
// It returns nil immediately when port is not positive.
func RunPprof(ctx context.Context, port int) error {
	if port <= 0 {
		return nil
	}

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		slog.Info("Starting pprof server", slog.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("pprof server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down pprof server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down pprof server", slog.Any("error", err))
		return err
	}
	return nil
}
