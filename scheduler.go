package kernelsim

// defaultPageFaultLatency is the internal tuning constant for the
// single simulated paging disk's per-fault latency. Not an externally
// configurable key (§6 lists none); kept as a constant in the
// teacher's style (MAX_MEM, EWMA_ALPHA) rather than threaded through
// the config file.
const defaultPageFaultLatency Ttick = 3

// BurstSpec and ProcessSpec are the loader's output: an immutable
// description of a process's workload, from which fresh Process values
// are built on every load/reset (§8 invariant 8, idempotence).
type BurstSpec struct {
	Kind       BurstKind
	DeviceName string
	Duration   Ttick
}

type ProcessSpec struct {
	Pid      Tpid
	Name     string
	Arrival  Ttick
	Priority int
	Bursts   []BurstSpec
	Pages    int
}

// Config is the parsed form of the config file (§6).
type Config struct {
	TotalMemoryFrames        Tmem
	FrameSize                int // informational, unused by the core
	SchedulingAlgorithm      string
	PageReplacementAlgorithm string
	IOSchedulingAlgorithm    string
	Quantum                  Ttick
	IOQuantum                Ttick
}

// Scheduler is the CPU-scheduler coordinator of §4.3: it owns the
// simulation clock, the ready queue, and the process arena, and drives
// the memory manager and I/O manager it holds.
type Scheduler struct {
	clock Ttick

	cfg     Config
	readyQ  ReadyQueuePolicy
	mm      *MemoryManager
	io      *IOManager
	metrics *MetricsCollector

	specs    []ProcessSpec
	processes map[Tpid]*Process
	pidOrder  []Tpid

	hasLastRun      bool
	lastRunPid      Tpid
	contextSwitches int

	busyTicks Ttick
}

// NewScheduler validates cfg, builds the ready-queue and replacement
// policies it names, and returns a Scheduler with no workload loaded.
func NewScheduler(cfg Config, metrics *MetricsCollector) (*Scheduler, error) {
	if cfg.TotalMemoryFrames < 1 {
		return nil, errConfigf("total_memory_frames must be >= 1, got %d", cfg.TotalMemoryFrames)
	}
	readyQ, err := newReadyQueuePolicy(cfg.SchedulingAlgorithm, cfg.Quantum)
	if err != nil {
		return nil, err
	}
	replacement, err := newReplacementPolicy(cfg.PageReplacementAlgorithm)
	if err != nil {
		return nil, err
	}
	if cfg.IOSchedulingAlgorithm == "" {
		cfg.IOSchedulingAlgorithm = "FCFS"
	}
	// Devices are created lazily on first submission; the I/O policy tag
	// and quantum are checked here so a bad config fails before the run.
	if _, err := newIODevice("default", cfg.IOSchedulingAlgorithm, cfg.IOQuantum); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = newMetricsCollector()
	}
	mm := newMemoryManager(cfg.TotalMemoryFrames, replacement, defaultPageFaultLatency)
	s := &Scheduler{
		cfg:       cfg,
		readyQ:    readyQ,
		mm:        mm,
		io:        newIOManager(cfg.IOSchedulingAlgorithm, cfg.IOQuantum, mm),
		metrics:   metrics,
		processes: make(map[Tpid]*Process),
	}
	return s, nil
}

// Load installs the workload and resets the clock and every counter
// (§4.3 `load`).
func (s *Scheduler) Load(specs []ProcessSpec) error {
	if len(specs) == 0 {
		return errWorkloadf("workload has no valid processes")
	}
	s.specs = specs
	return s.Reset()
}

// Reset returns the engine to a reloadable state by rebuilding every
// Process from the stored immutable specs (§4.3 `reset`, §8 invariant 8).
func (s *Scheduler) Reset() error {
	s.clock = 0
	s.hasLastRun = false
	s.lastRunPid = 0
	s.contextSwitches = 0
	s.busyTicks = 0
	s.readyQ.Clear()
	replacement, err := newReplacementPolicy(s.cfg.PageReplacementAlgorithm)
	if err != nil {
		return err
	}
	s.mm = newMemoryManager(s.cfg.TotalMemoryFrames, replacement, defaultPageFaultLatency)
	s.io = newIOManager(s.cfg.IOSchedulingAlgorithm, s.cfg.IOQuantum, s.mm)
	s.processes = make(map[Tpid]*Process, len(s.specs))
	s.pidOrder = make([]Tpid, 0, len(s.specs))

	for _, spec := range s.specs {
		bursts := make([]Burst, len(spec.Bursts))
		for i, bs := range spec.Bursts {
			if bs.Kind == CPUBurst {
				bursts[i] = newCPUBurst(bs.Duration)
			} else {
				bursts[i] = newIOBurst(bs.DeviceName, bs.Duration)
			}
		}
		p := newProcess(spec.Pid, spec.Name, spec.Arrival, spec.Priority, bursts, spec.Pages)
		s.processes[spec.Pid] = p
		s.pidOrder = append(s.pidOrder, spec.Pid)
	}
	return nil
}

func (s *Scheduler) Clock() Ttick { return s.clock }

func (s *Scheduler) ContextSwitches() int { return s.contextSwitches }

func (s *Scheduler) Processes() []*Process {
	out := make([]*Process, 0, len(s.pidOrder))
	for _, pid := range s.pidOrder {
		out = append(out, s.processes[pid])
	}
	return out
}

func (s *Scheduler) AllTerminated() bool {
	for _, pid := range s.pidOrder {
		if s.processes[pid].State != TERMINATED {
			return false
		}
	}
	return true
}

// admitArrivals implements §4.3 step 1: every NEW process whose
// arrival_tick has been reached transitions to READY, registers with
// the memory manager, and is enqueued — in ascending PID order so
// simultaneous arrivals are admitted deterministically.
func (s *Scheduler) admitArrivals(now Ttick, ob *outbox) {
	for _, pid := range s.pidOrder {
		p := s.processes[pid]
		if p.State != NEW || p.ArrivalTick > now {
			continue
		}
		p.State = READY
		s.mm.Register(p)
		s.readyQ.Push(p)
		ob.transition(p.Pid, p.Name, NEW, READY, ReasonArrival)
	}
}

func (s *Scheduler) hasPendingWork() bool {
	return s.mm.HasPendingFaults() || s.io.HasPendingIO()
}

// processReleases moves every process the memory or I/O subsystems
// released back to READY this step, re-inserting per the ready-queue's
// own ordering rule. Memory releases and I/O releases both land here
// via the same outbox, which is what keeps §5's "takes effect within
// this step's tick" guarantee mechanical.
func (s *Scheduler) processReleases(ob *outbox) {
	for _, pid := range ob.drainReleases() {
		p, ok := s.processes[pid]
		if !ok || p.State == TERMINATED {
			continue
		}
		from := p.State
		wasMemory := from == MEMORY_WAITING
		p.State = READY
		if wasMemory {
			ob.transition(pid, p.Name, from, READY, ReasonMemoryReady)
		}
		s.readyQ.Push(p)
	}
}

// Step advances the simulation by one scheduling decision (§4.3).
func (s *Scheduler) Step() error {
	ob := newOutbox()
	tickNow := s.clock
	s.admitArrivals(tickNow, ob)

	var candidate *Process
	for {
		candidate = s.readyQ.Peek()
		if candidate == nil {
			break
		}
		if candidate.State == TERMINATED {
			return errInvariant(tickNow, candidate.Pid, "ready queue yielded a TERMINATED process")
		}
		if candidate.State != READY {
			s.readyQ.PopPid(candidate.Pid)
			continue
		}
		break
	}

	if candidate == nil {
		return s.idleStep(tickNow, ob)
	}

	contextSwitch := !s.hasLastRun || s.lastRunPid != candidate.Pid

	if ready := s.mm.PrepareForCPU(candidate, tickNow, ob); !ready {
		s.readyQ.PopPid(candidate.Pid)
		ob.transition(candidate.Pid, candidate.Name, READY, MEMORY_WAITING, ReasonMemoryWait)
		candidate.State = MEMORY_WAITING
		s.metrics.LogMemory(tickNow, "PAGE_FAULT", candidate.Pid, candidate.Name, -1, -1, s.mm.TotalPageFaults(), s.mm.TotalReplacements())
		s.metrics.LogPageTable(tickNow, candidate.Pid, candidate.Name, candidate.Pages)
		s.metrics.LogFrameStatus(tickNow, s.mm.FrameSnapshot())
		return s.advanceAndEmit(tickNow, 1, "IDLE", -1, "", 0, false, ob)
	}

	s.readyQ.PopPid(candidate.Pid)
	burst := candidate.CurrentBurst()
	if burst == nil {
		ob.transition(candidate.Pid, candidate.Name, candidate.State, TERMINATED, ReasonCompletion)
		candidate.State = TERMINATED
		candidate.calculateMetrics(tickNow)
		s.mm.Release(candidate.Pid)
		return s.advanceAndEmit(tickNow, 0, "COMPLETE", candidate.Pid, candidate.Name, 0, contextSwitch, ob)
	}

	candidate.noteFirstDispatch(tickNow)

	if burst.Kind == IOBurst {
		ob.transition(candidate.Pid, candidate.Name, READY, IO_WAITING, ReasonIOSubmit)
		candidate.State = IO_WAITING
		req := newIORequest(candidate, burst, burst.DeviceName, tickNow)
		if err := s.io.Submit(req); err != nil {
			return err
		}
		if contextSwitch {
			s.contextSwitches++
		}
		s.hasLastRun = true
		s.lastRunPid = candidate.Pid
		return s.advanceAndEmit(tickNow, 1, "IDLE", -1, "", 0, false, ob)
	}

	return s.runCPUBurst(tickNow, candidate, burst, contextSwitch, ob)
}

// runCPUBurst is §4.3 step 6's CPU-burst branch. Arrivals are
// re-admitted at every sub-tick boundary within the run (not just once
// at step start), and the memory/I/O subsystems co-advance by that same
// sub-tick before the next boundary's check, so a higher-priority
// process that becomes READY mid-burst — whether by arrival or by an
// I/O/memory release — is visible to the PRIORITY preemption check at
// the very next sub-tick, per §4.2/§4.3/§4.6, rather than only after the
// whole burst has already run to completion.
func (s *Scheduler) runCPUBurst(tickNow Ttick, p *Process, burst *Burst, contextSwitch bool, ob *outbox) error {
	if contextSwitch {
		s.contextSwitches++
	}
	s.hasLastRun = true
	s.lastRunPid = p.Pid

	ob.transition(p.Pid, p.Name, READY, RUNNING, ReasonDispatch)
	p.State = RUNNING

	limit := s.cfg.Quantum
	if limit == 0 {
		limit = burst.RemainingDuration
	}

	ran := Ttick(0)
	preempted := false
	for ran < limit && burst.RemainingDuration > 0 {
		if ran > 0 {
			s.admitArrivals(tickNow+ran, ob)
		}
		if s.cfg.SchedulingAlgorithm == "Priority" {
			if next := s.readyQ.Peek(); next != nil && next.Priority < p.Priority {
				preempted = true
				break
			}
		}
		burst.RemainingDuration--
		if err := s.mm.AdvanceFaultQueue(1, tickNow+ran, ob, s.metrics); err != nil {
			return err
		}
		s.io.Tick(1, tickNow+ran, ob, s.metrics)
		s.processReleases(ob)
		ran++
	}
	s.busyTicks += ran

	event := "EXEC"
	remaining := int(burst.RemainingDuration)

	switch {
	case burst.RemainingDuration == 0:
		p.AdvanceCursor()
		if !p.HasMoreBursts() {
			event = "COMPLETE"
			ob.transition(p.Pid, p.Name, RUNNING, TERMINATED, ReasonCompletion)
			p.State = TERMINATED
			p.calculateMetrics(tickNow + ran)
			s.mm.MarkInactive(p)
			s.mm.Release(p.Pid)
		} else {
			ob.transition(p.Pid, p.Name, RUNNING, READY, ReasonBurstYield)
			p.State = READY
			s.mm.MarkInactive(p)
			s.readyQ.Push(p)
		}
	case preempted:
		event = "PREEMPT"
		ob.transition(p.Pid, p.Name, RUNNING, READY, ReasonPreemption)
		p.State = READY
		s.mm.MarkInactive(p)
		s.readyQ.Push(p)
	default:
		event = "PREEMPT"
		ob.transition(p.Pid, p.Name, RUNNING, READY, ReasonQuantumExpiry)
		p.State = READY
		s.mm.MarkInactive(p)
		s.readyQ.Push(p)
	}

	// The memory/IO co-advance for these ran sub-ticks already happened
	// inside the loop above, one sub-tick at a time; only the tick's
	// metrics emission and clock advance are still pending.
	return s.finishStep(tickNow, ran, event, p.Pid, p.Name, remaining, contextSwitch, ob)
}

// idleStep is §4.3 step 2's empty-ready-queue branch: if other
// subsystems still have work, or a process has yet to arrive, advance
// by one sub-tick and emit an IDLE event; otherwise the run is complete
// and there is nothing to do.
func (s *Scheduler) idleStep(tickNow Ttick, ob *outbox) error {
	if !s.hasPendingWork() && s.AllTerminated() {
		return nil
	}
	return s.advanceAndEmit(tickNow, 1, "IDLE", -1, "", 0, false, ob)
}

// advanceAndEmit is §4.3 steps 7-8 for every call site that advances
// the memory fault queue and the I/O device bank as a single atomic
// sub-tick (or delta-sub-tick) jump rather than sub-tick by sub-tick —
// idle ticks, a process blocking on memory, a process submitting to
// I/O, and immediate completions. runCPUBurst instead co-advances both
// subsystems inline, one sub-tick per loop iteration (so a completion
// is visible to the very next preemption check), and calls finishStep
// directly once its loop is done, skipping the redundant second advance
// here.
//
// A step that blocks a process on memory or submits it to I/O spends
// zero sub-ticks executing CPU work by definition, but simulated time
// must still pass for the clock to be non-decreasing and for run() to
// make progress; this implementation advances those two cases by one
// sub-tick rather than zero, resolving §4.3 step 5/7's literal zero
// against §8 invariant 5 (documented as an open-question decision).
func (s *Scheduler) advanceAndEmit(tickNow Ttick, delta Ttick, cpuEvent string, pid Tpid, name string, remaining int, contextSwitch bool, ob *outbox) error {
	if delta > 0 {
		if err := s.mm.AdvanceFaultQueue(delta, tickNow, ob, s.metrics); err != nil {
			return err
		}
		s.io.Tick(delta, tickNow, ob, s.metrics)
	}
	return s.finishStep(tickNow, delta, cpuEvent, pid, name, remaining, contextSwitch, ob)
}

// finishStep processes whatever releases landed in ob (from either
// advanceAndEmit's single-shot advance or runCPUBurst's per-sub-tick
// co-advance), publishes the tick's metrics records in CPU-event ≺
// state-transitions ≺ queue-snapshot order (§5), and moves the clock.
func (s *Scheduler) finishStep(tickNow Ttick, delta Ttick, cpuEvent string, pid Tpid, name string, remaining int, contextSwitch bool, ob *outbox) error {
	s.processReleases(ob)

	logPid := pid
	if cpuEvent == "IDLE" {
		logPid = Tpid(-1)
	}
	s.metrics.LogCPU(tickNow, cpuEvent, logPid, name, remaining, s.readyQ.Size(), contextSwitch)
	s.metrics.LogStateTransitions(tickNow, ob.drainTransitions())
	s.emitQueueSnapshot(tickNow)

	if delta > 0 {
		s.clock += delta
	} else {
		s.clock++
	}
	return nil
}

func (s *Scheduler) emitQueueSnapshot(tickNow Ttick) {
	var ready, memWait, ioWait []Tpid
	running := Tpid(-1)
	for _, pid := range s.pidOrder {
		p := s.processes[pid]
		switch p.State {
		case READY:
			ready = append(ready, pid)
		case MEMORY_WAITING:
			memWait = append(memWait, pid)
		case IO_WAITING:
			ioWait = append(ioWait, pid)
		case RUNNING:
			running = pid
		}
	}
	s.metrics.LogQueueSnapshot(tickNow, ready, memWait, ioWait, running)
}

// Run iterates Step until every process is TERMINATED (§4.3 `run`).
func (s *Scheduler) Run() error {
	for !s.AllTerminated() {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// EmitSummaries stages the CPU and memory summary records for the next
// FlushAll call (§6 trace summary records).
func (s *Scheduler) EmitSummaries() {
	s.metrics.AddCPUSummary(s.Processes(), s.clock, s.busyTicks, s.contextSwitches, s.cfg.SchedulingAlgorithm)
	s.metrics.AddMemorySummary(s.mm.TotalPageFaults(), s.mm.TotalReplacements(), int(s.cfg.TotalMemoryFrames), s.mm.UsedFrames(), s.cfg.PageReplacementAlgorithm)
}
