package kernelsim

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// NRUReplacement partitions the non-pinned frames into the four
// (referenced?, dirty?) classes and picks uniformly at random from the
// lowest non-empty class, in the order (0,0),(0,1),(1,0),(1,1) (§4.5).
type NRUReplacement struct {
	rng *rand.Rand
}

func newNRUReplacement() *NRUReplacement {
	return &NRUReplacement{rng: rand.New(rand.NewSource(1))}
}

func (n *NRUReplacement) SelectVictim(frames []Frame, lookup ProcessLookup, now Ttick) (Tframe, bool) {
	var classes [4][]Tframe // index = referenced*2 + dirty

	for _, fr := range frames {
		if !fr.Occupied || frameIsPinned(fr, lookup) {
			continue
		}
		entry := framePageEntry(fr, lookup)
		if entry == nil {
			continue
		}
		idx := 0
		if entry.Referenced {
			idx += 2
		}
		if entry.Dirty {
			idx += 1
		}
		classes[idx] = append(classes[idx], fr.ID)
	}

	for _, class := range classes {
		if len(class) == 0 {
			continue
		}
		u := distuv.Uniform{Min: 0, Max: float64(len(class)), Src: n.rng}
		idx := int(u.Rand())
		if idx >= len(class) {
			idx = len(class) - 1
		}
		return class[idx], true
	}
	return 0, false
}

func (n *NRUReplacement) OnFrameLoaded(Tframe)   {}
func (n *NRUReplacement) OnFrameReleased(Tframe) {}

func (n *NRUReplacement) AlgorithmTag() string { return "NRU" }
