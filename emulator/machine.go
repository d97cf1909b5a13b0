// Package emulator implements the synchronous fetch/decode/execute core:
// flat memory, a 31-register file plus PC, condition flags, and the
// single-threaded Step/Run loop. Nothing here schedules, locks, or
// threads — every operation runs to completion before the next begins,
// per the toolchain's concurrency model.
package emulator

// Machine composes the pieces a running program needs: memory, the
// register file, and the condition flags. Each is a value this Machine
// owns outright, not a shared/global singleton.
type Machine struct {
	Mem    *Memory
	Regs   *RegisterFile
	PState *PState
}

// NewMachine returns a Machine with zeroed memory and registers.
func NewMachine() *Machine {
	return &Machine{
		Mem:    NewMemory(),
		Regs:   NewRegisterFile(),
		PState: &PState{},
	}
}

// LoadProgram installs prog at address 0 and resets PC to 0.
func (m *Machine) LoadProgram(prog []byte) error {
	if err := m.Mem.Load(prog); err != nil {
		return err
	}
	m.Regs.SetPC(0)
	return nil
}

// Run executes instructions until Step reports the HALT sentinel or
// returns an error.
func (m *Machine) Run() error {
	for {
		halted, err := m.Step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}
