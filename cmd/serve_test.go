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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskGroupCollectsEveryError(t *testing.T) {
	var tasks taskGroup
	errA := errors.New("bind failed")
	errB := errors.New("shutdown timed out")

	var wg sync.WaitGroup
	for _, fn := range []func() error{
		tasks.run("api", func() error { return errA }),
		tasks.run("health", func() error { return errB }),
		tasks.run("pprof", func() error { return nil }),
		tasks.run("readiness", func() error { return context.Canceled }),
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fn()
		}()
	}
	wg.Wait()

	err := tasks.err()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "api: bind failed")
}

func TestTaskGroupEmpty(t *testing.T) {
	var tasks taskGroup
	assert.NoError(t, tasks.run("api", func() error { return nil })())
	assert.NoError(t, tasks.err())
}
