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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/investquery/queryapi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query <operation> [key=value ...]",
		Short: "run one investment query and print the result as JSON",
		Long: `Run one investment query against the configured search engine and print the
result as JSON on stdout. Parameters use the same names as the HTTP API.

Operations: ` + strings.Join(queryapi.Operations(), ", ") + `

Example:
  investquery query investorfunds investor_name=Acme limit=20`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			params, err := parseQueryArgs(args[1:])
			if err != nil {
				return err
			}

			doneCtx, doneFx, err := setupTelemetry("investquery-cli", os.Stderr)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				if err := doneFx(); err != nil {
					slog.Error("Error shutting down telemetry", slog.Any("error", err))
				}
			}()

			_, comps, err := loadComponents()
			if err != nil {
				return err
			}
			return printOperation(doneCtx, c.OutOrStdout(), comps.service, args[0], params)
		},
	}

	rootCmd.AddCommand(cmd)
}

// parseQueryArgs turns key=value arguments into query parameters. A key may
// repeat; the first value wins, as it does for the HTTP API.
func parseQueryArgs(args []string) (url.Values, error) {
	params := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", arg)
		}
		params.Add(key, value)
	}
	return params, nil
}

func printOperation(ctx context.Context, out io.Writer, q queryapi.InvestmentQuerier, name string, params url.Values) error {
	results, ok := queryapi.Dispatch(ctx, q, name, params)
	if !ok {
		return fmt.Errorf("unknown operation %q: want one of %s", name, strings.Join(queryapi.Operations(), ", "))
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
