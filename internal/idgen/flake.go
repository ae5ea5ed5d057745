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

package idgen

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

// epoch is the zero point of generated IDs.
var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type FlakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewFlakeGenerator derives the machine ID from the host's private IPv4
// address. Hosts without one get a random machine ID instead.
func NewFlakeGenerator() (*FlakeGenerator, error) {
	g, err := newFlakeGenerator(nil)
	if err != nil {
		return newFlakeGenerator(randomMachineID)
	}
	return g, nil
}

func randomMachineID() (uint16, error) {
	return uint16(rand.Uint32()), nil
}

// newFlakeGenerator uses machineID, or the private IP default when it is nil.
func newFlakeGenerator(machineID func() (uint16, error)) (*FlakeGenerator, error) {
	sf, err := sonyflake.New(sonyflake.Settings{StartTime: epoch, MachineID: machineID})
	if err != nil {
		return nil, err
	}
	if sf == nil {
		return nil, errors.New("failed to create Sonyflake instance")
	}
	return &FlakeGenerator{sf: sf}, nil
}

// NextID returns a positive int64 that'll increase roughly in time order.
// When the generator cannot produce an ID a random one is returned instead.
func (g *FlakeGenerator) NextID() int64 {
	if g == nil {
		return rand.Int64()
	}
	v, err := g.sf.NextID()
	if err != nil {
		return rand.Int64()
	}
	return int64(v)
}

var instanceID = sync.OnceValue(func() int64 {
	gen, err := NewFlakeGenerator()
	if err != nil {
		return rand.Int64()
	}
	return gen.NextID()
})

// InstanceID identifies this process in logs and telemetry. It is fixed for
// the lifetime of the process.
func InstanceID() int64 {
	return instanceID()
}

// InstanceIDString is InstanceID in base 36.
func InstanceIDString() string {
	return strconv.FormatInt(InstanceID(), 36)
}
