package kernelsim

// FCFSPolicy orders processes by insertion order.
type FCFSPolicy struct {
	*fifoQueue
}

func newFCFSPolicy() *FCFSPolicy {
	return &FCFSPolicy{fifoQueue: newFifoQueue()}
}

func (f *FCFSPolicy) Push(p *Process)          { f.push(p) }
func (f *FCFSPolicy) Peek() *Process           { return f.peek() }
func (f *FCFSPolicy) PopPid(pid Tpid) *Process { return f.popPid(pid) }
func (f *FCFSPolicy) Size() int                { return f.size() }
func (f *FCFSPolicy) Clear()                   { f.clear() }
func (f *FCFSPolicy) AlgorithmTag() string     { return "FCFS" }
