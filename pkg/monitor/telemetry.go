// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package monitor

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"gitlab.com/tozd/go/errors"
)

// 📡 Sample is one reading of host counters
type Sample struct {
	CPUPercent float64
	MemPercent float64
	BytesSent  uint64 // cumulative
	BytesRecv  uint64 // cumulative
}

// Telemetry reads host counters
type Telemetry interface {
	Sample(ctx context.Context) (Sample, error)
}

// 🖥️ SystemTelemetry reads counters from the running host
type SystemTelemetry struct{}

var _ Telemetry = SystemTelemetry{}

// Sample reads CPU, memory and network counters. CPU usage is measured since
// the previous call.
func (SystemTelemetry) Sample(ctx context.Context) (Sample, error) {
	var s Sample

	cpus, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return s, errors.Errorf("reading cpu usage: %w", err)
	}
	if len(cpus) > 0 {
		s.CPUPercent = cpus[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, errors.Errorf("reading memory usage: %w", err)
	}
	s.MemPercent = vm.UsedPercent

	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return s, errors.Errorf("reading network counters: %w", err)
	}
	if len(counters) > 0 {
		s.BytesSent = counters[0].BytesSent
		s.BytesRecv = counters[0].BytesRecv
	}

	return s, nil
}
