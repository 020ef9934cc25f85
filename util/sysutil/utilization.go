// Copyright 2024 OpalDB, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sysutil reports operating-system resource utilization of the host
// and the current process, for surfacing in meta tables and diagnostics.
package sysutil

import (
	"os"

	"github.com/pingcap/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Utilization is one point-in-time snapshot of system and process resource
// usage.
type Utilization struct {
	CPUSystemTimeSeconds  float64
	CPUProcessTimeSeconds float64

	LoadAverage1Min  float64
	LoadAverage5Min  float64
	LoadAverage15Min float64

	SystemMemoryTotalBytes     uint64
	SystemMemoryFreeBytes      uint64
	SystemMemoryAvailableBytes uint64

	ProcessVirtualMemoryBytes  uint64
	ProcessPhysicalMemoryBytes uint64
}

// Collect gathers a utilization snapshot. Values a platform cannot report stay
// zero; an error is only returned when nothing at all could be collected.
func Collect() (*Utilization, error) {
	u := &Utilization{}

	var firstErr error
	remember := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if times, err := cpu.Times(false); err == nil && len(times) > 0 {
		u.CPUSystemTimeSeconds = times[0].User + times[0].System
	} else {
		remember(err)
	}

	if avg, err := load.Avg(); err == nil {
		u.LoadAverage1Min = avg.Load1
		u.LoadAverage5Min = avg.Load5
		u.LoadAverage15Min = avg.Load15
	} else {
		remember(err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		u.SystemMemoryTotalBytes = vm.Total
		u.SystemMemoryFreeBytes = vm.Free
		u.SystemMemoryAvailableBytes = vm.Available
	} else {
		remember(err)
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if times, err := proc.Times(); err == nil {
			u.CPUProcessTimeSeconds = times.User + times.System
		} else {
			remember(err)
		}
		if info, err := proc.MemoryInfo(); err == nil {
			u.ProcessVirtualMemoryBytes = info.VMS
			u.ProcessPhysicalMemoryBytes = info.RSS
		} else {
			remember(err)
		}
	} else {
		remember(err)
	}

	if *u == (Utilization{}) && firstErr != nil {
		return nil, errors.Annotate(firstErr, "collect system utilization")
	}
	return u, nil
}
