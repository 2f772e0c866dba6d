// Package service provides a slim, read-only snapshot of interpreter
// state for the REPL's inspector panel, mirroring the teacher's
// service package shape (small serializable state structs, decoupled
// from the VM's live pointers) but scoped down to what an Axe
// program's state actually is: variables, memory, and the step
// cursor, rather than CPU registers and breakpoints.
package service

import (
	"github.com/axe-run/axe-interpreter/memmap"
	"github.com/axe-run/axe-interpreter/vm"
)

// VarSnapshot is the current value of one A-Z variable.
type VarSnapshot struct {
	Letter byte
	Value  uint16
}

// RegionSnapshot names a memory region and its current byte contents.
type RegionSnapshot struct {
	Name   string
	Offset uint16
	Data   []byte
}

// StateSnapshot is a point-in-time, copy-based view of a running
// Driver, safe to read from the inspector goroutine while the
// interpreter continues stepping (it is taken, not shared).
type StateSnapshot struct {
	PC         int
	StepCount  int
	DebugLevel int
	Diagnostic bool
	Vars       [26]VarSnapshot
}

// Snapshot captures the current state of d.
func Snapshot(d *vm.Driver) StateSnapshot {
	s := StateSnapshot{
		PC:         d.PC,
		DebugLevel: d.DebugLevel,
		Diagnostic: d.Diagnostic,
	}
	for i := 0; i < 26; i++ {
		letter := byte('A' + i)
		s.Vars[i] = VarSnapshot{Letter: letter, Value: d.Calc.GetVar(letter)}
	}
	return s
}

// RegionDump copies out a named region's bytes for display.
func RegionDump(d *vm.Driver, name string) (RegionSnapshot, bool) {
	offset, ok := memmap.RegionOffset(name)
	if !ok {
		return RegionSnapshot{}, false
	}
	size := regionSize(name)
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = d.Calc.GetByte(int(offset) + i)
	}
	return RegionSnapshot{Name: name, Offset: offset, Data: data}, true
}

// regionSize is an approximation used only for inspector display: the
// full gap to the next region by address (or to the end of memory),
// or the framebuffer size for the two buffer regions.
func regionSize(name string) int {
	switch name {
	case "L6", "L3":
		return memmap.FramebufferSize
	}
	for _, r := range memmap.Regions {
		if r.Name != name {
			continue
		}
		end := memmap.Size
		for _, o := range memmap.Regions {
			if o.Offset > r.Offset && int(o.Offset) < end {
				end = int(o.Offset)
			}
		}
		return end - int(r.Offset)
	}
	return 0
}
