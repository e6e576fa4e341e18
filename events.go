package kernelsim

// Reason tags why a state transition happened, for the trace (§6).
type Reason string

const (
	ReasonArrival       Reason = "arrival"
	ReasonDispatch      Reason = "dispatch"
	ReasonMemoryWait    Reason = "memory_wait"
	ReasonMemoryReady   Reason = "memory_ready"
	ReasonQuantumExpiry Reason = "quantum_expiry"
	ReasonPreemption    Reason = "preemption"
	ReasonBurstYield    Reason = "burst_yield"
	ReasonIOSubmit      Reason = "io_submit"
	ReasonIOComplete    Reason = "io_complete"
	ReasonCompletion    Reason = "completion"
)

// StateTransition is one edge of the §4.1 state machine, tagged with
// the cause.
type StateTransition struct {
	Pid    Tpid
	Name   string
	From   ProcessState
	To     ProcessState
	Reason Reason
}

// outbox is the bounded event buffer the scheduler drains at the end
// of every step. Memory and I/O callbacks append to it rather than
// up-calling into the scheduler directly, which is what keeps the
// ordering guarantees of §5 (callbacks fired during advanceFaultQueue
// and device ticking for step s take effect in tick s) mechanical
// instead of implicit in call order.
type outbox struct {
	transitions []StateTransition
	readyAgain  []Tpid // pids released from MEMORY_WAITING or IO_WAITING this step
}

func newOutbox() *outbox {
	return &outbox{}
}

func (o *outbox) transition(pid Tpid, name string, from, to ProcessState, reason Reason) {
	o.transitions = append(o.transitions, StateTransition{pid, name, from, to, reason})
}

func (o *outbox) releaseToReady(pid Tpid) {
	o.readyAgain = append(o.readyAgain, pid)
}

func (o *outbox) drainTransitions() []StateTransition {
	t := o.transitions
	o.transitions = nil
	return t
}

func (o *outbox) drainReleases() []Tpid {
	r := o.readyAgain
	o.readyAgain = nil
	return r
}
