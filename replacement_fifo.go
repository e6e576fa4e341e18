package kernelsim

// FIFOReplacement evicts the frame loaded longest ago among the
// non-pinned frames. A pinned head is rotated to the tail rather than
// evicted — second-chance by pin, not by a reference bit scan.
type FIFOReplacement struct {
	order []Tframe // load order, oldest first
}

func newFIFOReplacement() *FIFOReplacement {
	return &FIFOReplacement{order: make([]Tframe, 0)}
}

func (f *FIFOReplacement) SelectVictim(frames []Frame, lookup ProcessLookup, now Ttick) (Tframe, bool) {
	occupied := make(map[Tframe]Frame, len(frames))
	for _, fr := range frames {
		if fr.Occupied {
			occupied[fr.ID] = fr
		}
	}

	seen := 0
	bound := len(f.order)
	for seen < bound && len(f.order) > 0 {
		head := f.order[0]
		fr, ok := occupied[head]
		if !ok {
			// stale entry (frame was freed without going through
			// OnFrameReleased, shouldn't normally happen) - drop it
			f.order = f.order[1:]
			continue
		}
		if frameIsPinned(fr, lookup) {
			f.order = append(f.order[1:], head)
			seen++
			continue
		}
		return head, true
	}
	return 0, false
}

func (f *FIFOReplacement) OnFrameLoaded(id Tframe) {
	f.order = append(f.order, id)
}

func (f *FIFOReplacement) OnFrameReleased(id Tframe) {
	for i, v := range f.order {
		if v == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			return
		}
	}
}

func (f *FIFOReplacement) AlgorithmTag() string { return "FIFO" }
