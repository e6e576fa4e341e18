package kernelsim

// OptimalReplacement is the state-approximate OPTIMAL policy of §4.5:
// it is not oracle-based (the design notes explicitly call out not to
// replicate an oracle/trace-based variant). Preference order:
//  1. a frame owned by a TERMINATED process (memory that will never be
//     touched again),
//  2. among frames owned by IO_WAITING processes, the one whose owner
//     has the largest remaining I/O time (least likely to be woken
//     soon),
//  3. any non-pinned frame.
type OptimalReplacement struct{}

func newOptimalReplacement() *OptimalReplacement {
	return &OptimalReplacement{}
}

func (o *OptimalReplacement) SelectVictim(frames []Frame, lookup ProcessLookup, now Ttick) (Tframe, bool) {
	candidates := nonPinnedFrames(frames, lookup)
	if len(candidates) == 0 {
		return 0, false
	}

	for _, fr := range candidates {
		if owner := ownerOf(fr, lookup); owner != nil && owner.State == TERMINATED {
			return fr.ID, true
		}
	}

	var best *Frame
	var bestRemaining Ttick
	for i, fr := range candidates {
		owner := ownerOf(fr, lookup)
		if owner == nil || owner.State != IO_WAITING {
			continue
		}
		remaining := owner.remainingIOTicks()
		if best == nil || remaining > bestRemaining {
			best = &candidates[i]
			bestRemaining = remaining
		}
	}
	if best != nil {
		return best.ID, true
	}

	return candidates[0].ID, true
}

func ownerOf(f Frame, lookup ProcessLookup) *Process {
	if !f.Occupied {
		return nil
	}
	pidVal, _ := f.OwnerPid.Get()
	return lookup.Process(Tpid(pidVal))
}

func (o *OptimalReplacement) OnFrameLoaded(Tframe)   {}
func (o *OptimalReplacement) OnFrameReleased(Tframe) {}

func (o *OptimalReplacement) AlgorithmTag() string { return "OPTIMAL" }
