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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cardinalhq/investquery/internal/debugging"
	"github.com/cardinalhq/investquery/internal/esclient"
	"github.com/cardinalhq/investquery/internal/healthcheck"
	"github.com/cardinalhq/investquery/internal/resultcache"
	"github.com/cardinalhq/investquery/queryapi"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "INVESTQUERY"

// LegacySearchURLEnv is accepted in place of INVESTQUERY_SEARCH_URL.
const LegacySearchURLEnv = "ES_URL"

// ErrSearchURLRequired is returned by Load when no search engine URL is configured.
var ErrSearchURLRequired = errors.New("search.url is required: set INVESTQUERY_SEARCH_URL or ES_URL")

// Config aggregates configuration for the application.
// Each field is owned by its respective package.
type Config struct {
	Search esclient.Config    `mapstructure:"search"`
	Cache  resultcache.Config `mapstructure:"cache"`
	API    queryapi.Config    `mapstructure:"api"`
	Health healthcheck.Config `mapstructure:"health"`
	Debug  debugging.Config   `mapstructure:"debug"`
}

func defaults() *Config {
	return &Config{
		Search: esclient.DefaultConfig(),
		Cache:  resultcache.DefaultConfig(),
		API:    queryapi.DefaultConfig(),
		Health: healthcheck.DefaultConfig(),
		Debug:  debugging.DefaultConfig(),
	}
}

// Load reads configuration from a .env file, config.yaml and environment
// variables, in increasing order of precedence. Environment variables use the
// prefix "INVESTQUERY" and the dot character in keys is replaced by an
// underscore. For example, "search.url" becomes "INVESTQUERY_SEARCH_URL".
// Variables already present in the environment are never overridden by .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.BindEnv("search.url", EnvPrefix+"_SEARCH_URL", LegacySearchURLEnv)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	cfg.Search.Addresses = splitAddresses(cfg.Search.URL)
	if len(cfg.Search.Addresses) == 0 {
		return nil, ErrSearchURLRequired
	}
	return cfg, nil
}

func splitAddresses(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
