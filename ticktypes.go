package kernelsim

import "fmt"

// Ttick is a point in, or a span of, simulated logical time. The simulation
// advances in whole sub-ticks; there is no sub-integer time in this model.
type Ttick int

func (t Ttick) String() string {
	return fmt.Sprintf("%dT", int(t))
}

// Tpid is a process identifier, unique for the lifetime of a run.
type Tpid int

// Tframe is a physical frame identifier, 0..N-1.
type Tframe int

// Tpage is a logical page identifier local to one process, 0..pageCount-1.
type Tpage int

// Tmem counts frames or pages, depending on context.
type Tmem int
