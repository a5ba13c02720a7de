//go:build linux
// +build linux

// File: internal/affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import (
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// PinCurrentThread locks the calling goroutine to its current OS thread and
// restricts that thread to run on cpuID only. numaNode is advisory (used to
// pick a default cpuID via NUMANodeCPUHint when cpuID < 0).
func PinCurrentThread(numaNode, cpuID int) error {
	runtime.LockOSThread()
	if cpuID < 0 {
		cpuID = NUMANodeCPUHint(numaNode)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return unix.SchedSetaffinity(0, &set)
}

// UnpinCurrentThread restores the thread's affinity to every online CPU.
func UnpinCurrentThread() error {
	var set unix.CPUSet
	set.Zero()
	for i := 0; i < runtime.NumCPU(); i++ {
		set.Set(i)
	}
	return unix.SchedSetaffinity(0, &set)
}

// NUMANodeCPUHint picks a CPU index for a NUMA node when the caller has no
// stronger preference. Without libnuma this is only a heuristic: the
// runtime.NumCPU() CPUs are divided into equal blocks, one per sysfs NUMA
// node, and the first CPU of node numaNode's block is returned.
func NUMANodeCPUHint(numaNode int) int {
	n := runtime.NumCPU()
	if n == 0 {
		return 0
	}
	if numaNode < 0 {
		return 0
	}
	nodes := NUMANodes()
	if nodes <= 1 {
		return numaNode % n
	}
	perNode := n / nodes
	if perNode == 0 {
		perNode = 1
	}
	return (numaNode * perNode) % n
}

// NUMANodes counts NUMA node directories under /sys/devices/system/node.
// Returns 1 when the sysfs entry is absent (no NUMA support, containers, CI).
func NUMANodes() int {
	entries, err := os.ReadDir("/sys/devices/system/node")
	if err != nil {
		return 1
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "node") {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}
