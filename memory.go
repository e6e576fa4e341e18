package kernelsim

import "github.com/markphelps/optional"

// pageLoadTask is a page fault in flight: it exists only while its
// owning process is blocked on memory.
type pageLoadTask struct {
	pid              Tpid
	page             Tpage
	remainingLatency Ttick
	frame            Tframe // reserved when the task starts running
	wasReplacement   bool
}

// MemoryManager guarantees every required page of a process is
// resident before it runs on CPU, maintains the frame table, and
// serializes page-load latency through a single simulated paging
// disk (§4.4). It implements ProcessLookup for the replacement
// policies.
type MemoryManager struct {
	totalFrames Tmem
	frames      []Frame
	policy      ReplacementPolicy
	faultLatency Ttick

	registry map[Tpid]*Process

	faultQueue []*pageLoadTask
	activeTask *pageLoadTask

	pendingByProcess map[Tpid]map[Tpage]bool
	waiting          map[Tpid]bool

	totalPageFaults   int
	totalReplacements int
}

func newMemoryManager(totalFrames Tmem, policy ReplacementPolicy, faultLatency Ttick) *MemoryManager {
	frames := make([]Frame, totalFrames)
	for i := range frames {
		frames[i] = newFrame(Tframe(i))
	}
	return &MemoryManager{
		totalFrames:      totalFrames,
		frames:           frames,
		policy:           policy,
		faultLatency:     faultLatency,
		registry:         make(map[Tpid]*Process),
		pendingByProcess: make(map[Tpid]map[Tpage]bool),
		waiting:          make(map[Tpid]bool),
	}
}

// Process implements ProcessLookup.
func (mm *MemoryManager) Process(pid Tpid) *Process {
	return mm.registry[pid]
}

func (mm *MemoryManager) Register(p *Process) {
	mm.registry[p.Pid] = p
}

// Unregister frees every frame owned by pid and drops its pending
// tasks (including the active one, if any) from the fault queue.
func (mm *MemoryManager) Unregister(pid Tpid) {
	for i := range mm.frames {
		if !mm.frames[i].Occupied {
			continue
		}
		if owner, _ := mm.frames[i].OwnerPid.Get(); Tpid(owner) == pid {
			mm.policy.OnFrameReleased(mm.frames[i].ID)
			mm.frames[i].free()
		}
	}

	filtered := make([]*pageLoadTask, 0, len(mm.faultQueue))
	for _, t := range mm.faultQueue {
		if t.pid != pid {
			filtered = append(filtered, t)
		}
	}
	mm.faultQueue = filtered

	if mm.activeTask != nil && mm.activeTask.pid == pid {
		mm.activeTask = nil
	}

	delete(mm.pendingByProcess, pid)
	delete(mm.waiting, pid)
	delete(mm.registry, pid)
}

func (mm *MemoryManager) Release(pid Tpid) {
	mm.Unregister(pid)
}

// PrepareForCPU sweeps the page table. If every page is resident it
// pins them all (the referenced? bit) and returns true. Otherwise it
// enqueues one page-load task per missing page not already pending,
// records the process as waiting, and returns false.
func (mm *MemoryManager) PrepareForCPU(p *Process, now Ttick, ob *outbox) bool {
	missing := p.Pages.missingPages()
	if len(missing) == 0 {
		for i := range p.Pages {
			p.Pages[i].Referenced = true
		}
		return true
	}

	pending, ok := mm.pendingByProcess[p.Pid]
	if !ok {
		pending = make(map[Tpage]bool)
		mm.pendingByProcess[p.Pid] = pending
	}
	for _, pg := range missing {
		if pending[pg] {
			continue
		}
		pending[pg] = true
		mm.faultQueue = append(mm.faultQueue, &pageLoadTask{
			pid:              p.Pid,
			page:             pg,
			remainingLatency: mm.faultLatency,
		})
		mm.totalPageFaults++
		p.PageFaults++
	}
	mm.waiting[p.Pid] = true
	return false
}

// AdvanceFaultQueue advances the paging disk by delta sub-ticks
// starting at startTick. Completions during this call append to ob,
// including the memory-ready release when a process's pending set
// empties (§5: these take effect within this step's tick). metrics may
// be nil (disabled collector). Returns an InvariantError (§7) if the
// configured replacement policy names a frame outside the frame table.
func (mm *MemoryManager) AdvanceFaultQueue(delta Ttick, startTick Ttick, ob *outbox, metrics *MetricsCollector) error {
	for i := Ttick(0); i < delta; i++ {
		tickNow := startTick + i
		if mm.activeTask == nil {
			if len(mm.faultQueue) == 0 {
				continue
			}
			task := mm.faultQueue[0]
			mm.faultQueue = mm.faultQueue[1:]
			frameID, replaced, ok, err := mm.reserveFrame(task, tickNow)
			if err != nil {
				return err
			}
			if !ok {
				// every candidate frame is pinned; wait, rotate to tail
				mm.faultQueue = append(mm.faultQueue, task)
				continue
			}
			task.frame = frameID
			task.wasReplacement = replaced
			mm.activeTask = task
			continue
		}

		mm.activeTask.remainingLatency--
		if mm.activeTask.remainingLatency > 0 {
			continue
		}
		mm.completeActiveTask(tickNow+1, ob, metrics)
	}
	return nil
}

// reserveFrame finds a frame for task, evicting a victim if no frame is
// free. The bool result reports whether this was a replacement (for the
// PAGE_LOADED vs. PAGE_REPLACED trace event). Returns an InvariantError
// (§7) if the replacement policy names a frame id outside mm.frames —
// a policy contract violation, not a normal "every frame pinned" wait.
func (mm *MemoryManager) reserveFrame(task *pageLoadTask, now Ttick) (Tframe, bool, bool, error) {
	for _, f := range mm.frames {
		if !f.Occupied {
			return f.ID, false, true, nil
		}
	}

	victim, ok := mm.policy.SelectVictim(mm.frames, mm, now)
	if !ok {
		return 0, false, false, nil
	}
	if int(victim) < 0 || int(victim) >= len(mm.frames) {
		return 0, false, false, errInvariant(now, task.pid, "replacement policy %q selected out-of-range frame %d (have %d frames)", mm.policy.AlgorithmTag(), victim, len(mm.frames))
	}

	victimFrame := &mm.frames[victim]
	ownerPid, _ := victimFrame.OwnerPid.Get()
	ownerPage, _ := victimFrame.PageID.Get()
	if owner := mm.registry[Tpid(ownerPid)]; owner != nil && ownerPage < len(owner.Pages) {
		owner.Pages[ownerPage].Resident = false
		owner.Pages[ownerPage].Frame = optional.Int{}
		owner.Replacements++
	}
	mm.totalReplacements++
	mm.policy.OnFrameReleased(victim)
	victimFrame.free()

	return victim, true, true, nil
}

func (mm *MemoryManager) completeActiveTask(now Ttick, ob *outbox, metrics *MetricsCollector) {
	task := mm.activeTask
	mm.activeTask = nil

	proc := mm.registry[task.pid]
	if proc == nil || int(task.page) >= len(proc.Pages) {
		return
	}

	entry := &proc.Pages[task.page]
	entry.Resident = true
	entry.Referenced = true
	entry.LastAccessTick = now
	entry.Frame = optional.NewInt(int(task.frame))

	mm.frames[task.frame].assign(task.pid, task.page)
	mm.policy.OnFrameLoaded(task.frame)

	if metrics != nil {
		event := "PAGE_LOADED"
		if task.wasReplacement {
			event = "PAGE_REPLACED"
		}
		metrics.LogMemory(now, event, proc.Pid, proc.Name, int(task.page), int(task.frame), mm.totalPageFaults, mm.totalReplacements)
		// §6's page_table/frame_status keys are on-demand snapshots, not
		// an every-tick dump: the tick a load or replacement resolves is
		// exactly the tick those two structures actually changed.
		metrics.LogPageTable(now, proc.Pid, proc.Name, proc.Pages)
		metrics.LogFrameStatus(now, mm.frames)
	}

	if pending, ok := mm.pendingByProcess[task.pid]; ok {
		delete(pending, task.page)
		if len(pending) == 0 {
			delete(mm.pendingByProcess, task.pid)
			delete(mm.waiting, task.pid)
			ob.releaseToReady(task.pid)
		}
	}
}

// MarkInactive clears the referenced? pin on every resident page of
// the process; called whenever the scheduler stops running it for any
// reason other than a fresh dispatch.
func (mm *MemoryManager) MarkInactive(p *Process) {
	for i := range p.Pages {
		if p.Pages[i].Resident {
			p.Pages[i].Referenced = false
		}
	}
}

func (mm *MemoryManager) TotalPageFaults() int   { return mm.totalPageFaults }
func (mm *MemoryManager) TotalReplacements() int { return mm.totalReplacements }

// HasPendingFaults reports whether the paging disk still has work: an
// active task or anything queued behind it.
func (mm *MemoryManager) HasPendingFaults() bool {
	return mm.activeTask != nil || len(mm.faultQueue) > 0
}

func (mm *MemoryManager) UsedFrames() int {
	used := 0
	for _, f := range mm.frames {
		if f.Occupied {
			used++
		}
	}
	return used
}

func (mm *MemoryManager) FrameSnapshot() []Frame {
	out := make([]Frame, len(mm.frames))
	copy(out, mm.frames)
	return out
}
