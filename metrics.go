package kernelsim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// OutputMode is the tri-state sink selector for the trace (§6 `-m`):
// disabled, a file line-appended, or standard output.
type OutputMode int

const (
	OutputDisabled OutputMode = iota
	OutputFile
	OutputStdout
)

type cpuRecord struct {
	Event         string `json:"event"`
	Pid           int    `json:"pid"`
	Name          string `json:"name"`
	Remaining     int    `json:"remaining"`
	ReadyQueue    int    `json:"ready_queue"`
	ContextSwitch bool   `json:"context_switch"`
}

type ioRecord struct {
	Device    string `json:"device"`
	Event     string `json:"event"`
	Pid       int    `json:"pid"`
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
	Queue     int    `json:"queue"`
}

type memoryRecord struct {
	Event             string `json:"event"`
	Pid               int    `json:"pid"`
	Name              string `json:"name"`
	PageID            int    `json:"page_id"`
	FrameID           int    `json:"frame_id"`
	TotalPageFaults   int    `json:"total_page_faults"`
	TotalReplacements int    `json:"total_replacements"`
}

type stateTransitionRecord struct {
	Pid    int    `json:"pid"`
	Name   string `json:"name"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type queueSnapshotRecord struct {
	Ready         []int `json:"ready"`
	BlockedMemory []int `json:"blocked_memory"`
	BlockedIO     []int `json:"blocked_io"`
	Running       int   `json:"running"`
}

type pageTableEntryRecord struct {
	Page       int  `json:"page"`
	Frame      int  `json:"frame"`
	Valid      bool `json:"valid"`
	Referenced bool `json:"referenced"`
	Modified   bool `json:"modified"`
}

type pageTableRecord struct {
	Pid   int                    `json:"pid"`
	Name  string                 `json:"name"`
	Pages []pageTableEntryRecord `json:"pages"`
}

type frameStatusEntryRecord struct {
	Frame    int  `json:"frame"`
	Occupied bool `json:"occupied"`
	Pid      int  `json:"pid"`
	Page     int  `json:"page"`
}

type tickRecord struct {
	Tick             int                      `json:"tick"`
	CPU              *cpuRecord               `json:"cpu,omitempty"`
	IO               *ioRecord                `json:"io,omitempty"`
	Memory           *memoryRecord            `json:"memory,omitempty"`
	StateTransitions []stateTransitionRecord  `json:"state_transitions,omitempty"`
	Queues           *queueSnapshotRecord     `json:"queues,omitempty"`
	PageTable        *pageTableRecord         `json:"page_table,omitempty"`
	FrameStatus      []frameStatusEntryRecord `json:"frame_status,omitempty"`
}

type cpuSummaryRecord struct {
	Summary           string  `json:"summary"`
	TotalTime         int     `json:"total_time"`
	CPUUtilization    float64 `json:"cpu_utilization"`
	AvgWaitingTime    float64 `json:"avg_waiting_time"`
	AvgTurnaroundTime float64 `json:"avg_turnaround_time"`
	AvgResponseTime   float64 `json:"avg_response_time"`
	ContextSwitches   int     `json:"context_switches"`
	Algorithm         string  `json:"algorithm"`
}

type memorySummaryRecord struct {
	Summary           string  `json:"summary"`
	TotalPageFaults   int     `json:"total_page_faults"`
	TotalReplacements int     `json:"total_replacements"`
	TotalFrames       int     `json:"total_frames"`
	UsedFrames        int     `json:"used_frames"`
	FrameUtilization  float64 `json:"frame_utilization"`
	Algorithm         string  `json:"algorithm"`
}

// MetricsCollector is the buffered, tick-indexed, JSON-line emitter of
// §4.7: any component may log from any context, the emitter never
// reorders ticks, and state_transitions accumulate across writes for a
// tick while every other field (cpu, io, memory, queues, page_table,
// frame_status) holds only the latest write for that tick.
type MetricsCollector struct {
	mu       sync.Mutex
	mode     OutputMode
	file     *os.File
	writer   *bufio.Writer
	buffer   map[Ttick]*tickRecord
	summaries []any
}

func newMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		mode:   OutputDisabled,
		buffer: make(map[Ttick]*tickRecord),
	}
}

// NewMetricsCollector constructs a disabled collector; the driver
// enables a sink with EnableFileOutput/EnableStdoutOutput per §6's
// `-m` flag before handing it to NewScheduler.
func NewMetricsCollector() *MetricsCollector {
	return newMetricsCollector()
}

func (m *MetricsCollector) EnableFileOutput(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errConfigf("cannot open metrics file %q: %v", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.file = f
	m.writer = bufio.NewWriter(f)
	m.mode = OutputFile
	return nil
}

func (m *MetricsCollector) EnableStdoutOutput() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = OutputStdout
}

func (m *MetricsCollector) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = OutputDisabled
}

func (m *MetricsCollector) IsEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode != OutputDisabled
}

func (m *MetricsCollector) tickSlot(tick Ttick) *tickRecord {
	rec, ok := m.buffer[tick]
	if !ok {
		rec = &tickRecord{Tick: int(tick)}
		m.buffer[tick] = rec
	}
	return rec
}

func (m *MetricsCollector) LogCPU(tick Ttick, event string, pid Tpid, name string, remaining int, readyQueueLen int, contextSwitch bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickSlot(tick).CPU = &cpuRecord{event, int(pid), name, remaining, readyQueueLen, contextSwitch}
}

func (m *MetricsCollector) LogIO(tick Ttick, device, event string, pid int, name string, remaining int, queueLen int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickSlot(tick).IO = &ioRecord{device, event, pid, name, remaining, queueLen}
}

func (m *MetricsCollector) LogMemory(tick Ttick, event string, pid Tpid, name string, pageID, frameID, totalFaults, totalRepl int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickSlot(tick).Memory = &memoryRecord{event, int(pid), name, pageID, frameID, totalFaults, totalRepl}
}

func (m *MetricsCollector) LogStateTransitions(tick Ttick, transitions []StateTransition) {
	if len(transitions) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.tickSlot(tick)
	for _, t := range transitions {
		rec.StateTransitions = append(rec.StateTransitions, stateTransitionRecord{
			Pid: int(t.Pid), Name: t.Name, From: t.From.String(), To: t.To.String(), Reason: string(t.Reason),
		})
	}
}

func (m *MetricsCollector) LogQueueSnapshot(tick Ttick, ready, blockedMem, blockedIO []Tpid, running Tpid) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickSlot(tick).Queues = &queueSnapshotRecord{
		Ready:         pidsToInts(ready),
		BlockedMemory: pidsToInts(blockedMem),
		BlockedIO:     pidsToInts(blockedIO),
		Running:       int(running),
	}
}

func (m *MetricsCollector) LogPageTable(tick Ttick, pid Tpid, name string, pages PageTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]pageTableEntryRecord, len(pages))
	for i, e := range pages {
		frameID := -1
		if v, err := e.Frame.Get(); err == nil {
			frameID = v
		}
		entries[i] = pageTableEntryRecord{Page: i, Frame: frameID, Valid: e.Resident, Referenced: e.Referenced, Modified: e.Dirty}
	}
	m.tickSlot(tick).PageTable = &pageTableRecord{Pid: int(pid), Name: name, Pages: entries}
}

func (m *MetricsCollector) LogFrameStatus(tick Ttick, frames []Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]frameStatusEntryRecord, len(frames))
	for i, f := range frames {
		pid, page := -1, -1
		if v, err := f.OwnerPid.Get(); err == nil {
			pid = v
		}
		if v, err := f.PageID.Get(); err == nil {
			page = v
		}
		entries[i] = frameStatusEntryRecord{Frame: int(f.ID), Occupied: f.Occupied, Pid: pid, Page: page}
	}
	m.tickSlot(tick).FrameStatus = entries
}

func pidsToInts(pids []Tpid) []int {
	out := make([]int, len(pids))
	for i, p := range pids {
		out[i] = int(p)
	}
	return out
}

// AddCPUSummary stages the CPU summary record, emitted on FlushAll.
// Averages are computed with gonum/stat.Mean over the per-process
// metric slices rather than a hand-rolled sum/len loop.
func (m *MetricsCollector) AddCPUSummary(processes []*Process, totalTime Ttick, busyTicks Ttick, contextSwitches int, algorithm string) {
	waiting := make([]float64, 0, len(processes))
	turnaround := make([]float64, 0, len(processes))
	response := make([]float64, 0, len(processes))
	for _, p := range processes {
		if p.State != TERMINATED {
			continue
		}
		waiting = append(waiting, float64(p.WaitingTicks))
		turnaround = append(turnaround, float64(p.TurnaroundTicks))
		response = append(response, float64(p.ResponseTicks))
	}

	util := 0.0
	if totalTime > 0 {
		util = float64(busyTicks) / float64(totalTime)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, cpuSummaryRecord{
		Summary:           "CPU_METRICS",
		TotalTime:         int(totalTime),
		CPUUtilization:    util,
		AvgWaitingTime:    meanOrZero(waiting),
		AvgTurnaroundTime: meanOrZero(turnaround),
		AvgResponseTime:   meanOrZero(response),
		ContextSwitches:   contextSwitches,
		Algorithm:         algorithm,
	})
}

func (m *MetricsCollector) AddMemorySummary(totalFaults, totalReplacements, totalFrames, usedFrames int, algorithm string) {
	util := 0.0
	if totalFrames > 0 {
		util = float64(usedFrames) / float64(totalFrames)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, memorySummaryRecord{
		Summary:           "MEMORY_METRICS",
		TotalPageFaults:   totalFaults,
		TotalReplacements: totalReplacements,
		TotalFrames:       totalFrames,
		UsedFrames:        usedFrames,
		FrameUtilization:  util,
		Algorithm:         algorithm,
	})
}

func meanOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// FlushAll writes every buffered tick in ascending order, then every
// staged summary record, and clears both buffers. Never flush out of
// order (§9 design note).
func (m *MetricsCollector) FlushAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode == OutputDisabled {
		m.buffer = make(map[Ttick]*tickRecord)
		m.summaries = nil
		return nil
	}

	ticks := make([]Ttick, 0, len(m.buffer))
	for t := range m.buffer {
		ticks = append(ticks, t)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })

	for _, t := range ticks {
		if err := m.writeLine(m.buffer[t]); err != nil {
			return err
		}
	}
	for _, s := range m.summaries {
		if err := m.writeLine(s); err != nil {
			return err
		}
	}

	m.buffer = make(map[Ttick]*tickRecord)
	m.summaries = nil

	if m.writer != nil {
		return m.writer.Flush()
	}
	return nil
}

func (m *MetricsCollector) writeLine(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	switch m.mode {
	case OutputFile:
		_, err = m.writer.Write(append(line, '\n'))
		return err
	case OutputStdout:
		fmt.Println(string(line))
		return nil
	default:
		return nil
	}
}

func (m *MetricsCollector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		return m.file.Close()
	}
	return nil
}
