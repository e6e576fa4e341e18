package kernelsim

import "golang.org/x/exp/slices"

// SJFPolicy is non-preemptive shortest-job-first: ordered by ascending
// remaining duration of the current burst *at insertion time*, ties
// broken by arrival tick then pid. A process's remaining time changing
// while it sits elsewhere does not reorder this queue; the scheduler
// re-inserts on every READY transition, which is what re-establishes
// the order (§4.2).
type SJFPolicy struct {
	*fifoQueue
}

func newSJFPolicy() *SJFPolicy {
	return &SJFPolicy{fifoQueue: newFifoQueue()}
}

func (s *SJFPolicy) Push(p *Process) {
	s.push(p)
	slices.SortFunc(s.q, func(a, b *Process) bool {
		ra, rb := sjfKey(a), sjfKey(b)
		if ra != rb {
			return ra < rb
		}
		if a.ArrivalTick != b.ArrivalTick {
			return a.ArrivalTick < b.ArrivalTick
		}
		return a.Pid < b.Pid
	})
}

func sjfKey(p *Process) Ttick {
	if b := p.CurrentBurst(); b != nil {
		return b.RemainingDuration
	}
	return 0
}

func (s *SJFPolicy) Peek() *Process           { return s.peek() }
func (s *SJFPolicy) PopPid(pid Tpid) *Process { return s.popPid(pid) }
func (s *SJFPolicy) Size() int                { return s.size() }
func (s *SJFPolicy) Clear()                   { s.clear() }
func (s *SJFPolicy) AlgorithmTag() string     { return "SJF" }
