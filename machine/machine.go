/*
 * nucleus - Machine boot harness.
 *
 * Copyright 2026, nucleus contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package machine wires the kernel core and virtual memory manager into a
// runnable simulated machine: a set of CPUs running the dispatcher's
// hardclock, a page-frame database backed by a swap drum, and the
// background cleaner/pagedaemon threads. It is scaffolding around the
// kernel core, not a redefinition of its semantics.
package machine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rcornwell/nucleus/config"
	"github.com/rcornwell/nucleus/ke"
	"github.com/rcornwell/nucleus/vm"
)

// demoAddressSpaceBase is the virtual address the harness's one demo
// address space starts at.
const demoAddressSpaceBase = 0x10000

// demoAddressSpaceSize is the virtual address range reserved for it.
const demoAddressSpaceSize = 0x100000

// Machine is a booted simulated system: its CPU set, page-frame database,
// swap drum and the background threads keeping them serviced.
type Machine struct {
	CPUs []*ke.CPU
	DB   *vm.PageDB
	Drum *vm.Drum

	Demo *vm.AddressSpace

	cleanerStop   chan struct{}
	daemonStop    chan struct{}
	hardclockStop []chan struct{}
}

// Boot brings up a machine per cfg: starts cfg.CPUs CPU scheduling loops,
// each running its own hardclock at ke.HardclockHz (cfg.HZ is only
// logged), allocates a page-frame
// database of cfg.Frames frames backed by a cfg.DrumSlots-slot swap drum,
// starts the cleaner and pagedaemon, and maps one demo anonymous address
// space bounded to cfg.WSLLimit resident pages.
func Boot(cfg *config.Machine) (*Machine, error) {
	if cfg.CPUs < 1 {
		return nil, fmt.Errorf("machine: CPUs must be at least 1, got %d", cfg.CPUs)
	}

	m := &Machine{
		cleanerStop: make(chan struct{}),
		daemonStop:  make(chan struct{}),
	}

	for i := 0; i < cfg.CPUs; i++ {
		cpu := ke.NewCPU(i)
		cpu.Start()
		m.CPUs = append(m.CPUs, cpu)

		stop := make(chan struct{})
		m.hardclockStop = append(m.hardclockStop, stop)
		go cpu.RunHardclock(stop)
	}

	bootCPU := m.CPUs[0]
	m.DB = vm.NewPageDB(bootCPU, cfg.Frames)
	m.Drum = vm.NewDrum(cfg.DrumSlots)

	cleaner := vm.NewCleaner(bootCPU, m.DB)
	daemon := vm.NewPageDaemon(bootCPU, m.DB)

	cleanerThread := ke.NewThread("cleaner", bootCPU, func(t *ke.Thread) {
		cleaner.Run(t, time.Second, m.cleanerStop)
	})
	cleanerThread.Start()
	cleanerThread.Resume()

	daemonThread := ke.NewThread("pagedaemon", bootCPU, func(t *ke.Thread) {
		daemon.Run(t, m.daemonStop)
	})
	daemonThread.Start()
	daemonThread.Resume()

	m.Demo = vm.NewAddressSpace(bootCPU, m.DB, demoAddressSpaceBase, demoAddressSpaceSize, cfg.WSLLimit)

	done := make(chan struct{})
	setup := ke.NewThread("setup", bootCPU, func(t *ke.Thread) {
		defer close(done)
		if _, err := m.Demo.Allocate(t, m.Drum, vm.PageSize, vm.ProtRead|vm.ProtWrite); err != nil {
			slog.Error("machine: demo allocation failed", "err", err)
		}
	})
	setup.Start()
	setup.Resume()
	<-done

	slog.Info("machine booted", "cpus", cfg.CPUs, "hz", cfg.HZ, "frames", cfg.Frames, "drumslots", cfg.DrumSlots)
	return m, nil
}

// Shutdown stops the cleaner, pagedaemon and every CPU's hardclock and
// scheduler loop.
func (m *Machine) Shutdown() {
	close(m.cleanerStop)
	close(m.daemonStop)
	for _, stop := range m.hardclockStop {
		close(stop)
	}
	for _, cpu := range m.CPUs {
		cpu.Stop()
	}
	slog.Info("machine shutdown complete")
}

// Status summarizes the machine's current occupancy, for the inspection
// console's "status" command.
func (m *Machine) Status() string {
	return fmt.Sprintf("cpus=%d frames=%d free=%d", len(m.CPUs), m.DB.NumFrames(), m.DB.FreeCount())
}
