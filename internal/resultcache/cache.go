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

// Package resultcache is the process-wide cache of shaped query results.
// A Cache is an owned instance: callers construct it once and pass it to the
// components that use it.
package resultcache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultTTL applies to entries set with a zero TTL.
const DefaultTTL = time.Hour

type Config struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity uint64        `mapstructure:"capacity"`
}

func DefaultConfig() Config {
	return Config{TTL: DefaultTTL}
}

// Cache maps string keys to immutable result values with per-entry expiry.
// It is safe for concurrent use; concurrent writers of one key race and the
// last write wins.
type Cache struct {
	items *ttlcache.Cache[string, any]
}

func New(cfg Config) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	opts := []ttlcache.Option[string, any]{
		ttlcache.WithTTL[string, any](ttl),
		ttlcache.WithDisableTouchOnHit[string, any](),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, any](cfg.Capacity))
	}
	return &Cache{items: ttlcache.New(opts...)}
}

// Start runs the expired-entry janitor until Stop is called.
func (c *Cache) Start() {
	c.items.Start()
}

func (c *Cache) Stop() {
	c.items.Stop()
}

// Get returns the value stored under key if it has not expired.
func (c *Cache) Get(key string) (any, bool) {
	item := c.items.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value(), true
}

// Set stores value under key, replacing any previous entry. A zero ttl uses
// the cache's configured TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	c.items.Set(key, value, ttl)
}

// Expire removes the entry for key, if any.
func (c *Cache) Expire(key string) {
	c.items.Delete(key)
}

// Len reports the number of entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	return c.items.Len()
}
