package kernelsim

import "golang.org/x/exp/slices"

// PriorityPolicy orders by ascending numeric priority (lower = stronger),
// ties broken by arrival tick then pid. Preemption itself is the
// scheduler's job (§4.3 step 6); this policy only keeps the queue in
// the right order so the scheduler's peek reflects who should run next.
type PriorityPolicy struct {
	*fifoQueue
}

func newPriorityPolicy() *PriorityPolicy {
	return &PriorityPolicy{fifoQueue: newFifoQueue()}
}

func (pr *PriorityPolicy) Push(p *Process) {
	pr.push(p)
	slices.SortFunc(pr.q, func(a, b *Process) bool {
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.ArrivalTick != b.ArrivalTick {
			return a.ArrivalTick < b.ArrivalTick
		}
		return a.Pid < b.Pid
	})
}

func (pr *PriorityPolicy) Peek() *Process           { return pr.peek() }
func (pr *PriorityPolicy) PopPid(pid Tpid) *Process { return pr.popPid(pid) }
func (pr *PriorityPolicy) Size() int                { return pr.size() }
func (pr *PriorityPolicy) Clear()                   { pr.clear() }
func (pr *PriorityPolicy) AlgorithmTag() string     { return "PRIORITY" }
