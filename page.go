package kernelsim

import (
	"github.com/markphelps/optional"
)

// Frame is one unit of physical memory, able to hold one page of one
// process at a time.
type Frame struct {
	ID        Tframe
	Occupied  bool
	OwnerPid  optional.Int // ⊥ when unoccupied
	PageID    optional.Int // ⊥ when unoccupied
}

func newFrame(id Tframe) Frame {
	return Frame{ID: id}
}

func (f *Frame) free() {
	f.Occupied = false
	f.OwnerPid = optional.Int{}
	f.PageID = optional.Int{}
}

func (f *Frame) assign(pid Tpid, page Tpage) {
	f.Occupied = true
	f.OwnerPid = optional.NewInt(int(pid))
	f.PageID = optional.NewInt(int(page))
}

// PageTableEntry is one row of a process's page table.
type PageTableEntry struct {
	Frame          optional.Int // ⊥ until the page is loaded
	Resident       bool
	Referenced     bool // the eviction pin while the owner is running
	Dirty          bool
	LastAccessTick Ttick
}

// PageTable is indexed by page id, 0..len-1.
type PageTable []PageTableEntry

func newPageTable(pageCount int) PageTable {
	return make(PageTable, pageCount)
}

func (pt PageTable) allResident() bool {
	for i := range pt {
		if !pt[i].Resident {
			return false
		}
	}
	return true
}

func (pt PageTable) missingPages() []Tpage {
	missing := make([]Tpage, 0)
	for i := range pt {
		if !pt[i].Resident {
			missing = append(missing, Tpage(i))
		}
	}
	return missing
}
