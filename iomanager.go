package kernelsim

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// IOManager holds devices by name, routes I/O requests to them, and
// ticks every device per CPU step (§4.6). Only a device mutates its
// own queue; the manager only routes and orders the tick.
type IOManager struct {
	devices           map[string]*IODevice
	defaultPolicyTag  string
	defaultQuantum    Ttick
	mm                *MemoryManager
}

func newIOManager(defaultPolicyTag string, defaultQuantum Ttick, mm *MemoryManager) *IOManager {
	return &IOManager{
		devices:          make(map[string]*IODevice),
		defaultPolicyTag: defaultPolicyTag,
		defaultQuantum:   defaultQuantum,
		mm:               mm,
	}
}

func (m *IOManager) AddDevice(name, policyTag string, quantum Ttick) error {
	dev, err := newIODevice(name, policyTag, quantum)
	if err != nil {
		return err
	}
	dev.setCompletionCallback(m.handleCompletion)
	m.devices[name] = dev
	return nil
}

func (m *IOManager) HasDevice(name string) bool {
	_, ok := m.devices[name]
	return ok
}

func (m *IOManager) Device(name string) *IODevice {
	return m.devices[name]
}

// Submit routes an I/O request to the device named on its burst,
// lazily creating the device under the configured global
// io_scheduling_algorithm/io_quantum (§6) on first reference — the
// workload, not the config file, names devices.
func (m *IOManager) Submit(req *IORequest) error {
	if err := m.ensureDevice(req.DeviceName); err != nil {
		return err
	}
	m.devices[req.DeviceName].Enqueue(req)
	return nil
}

func (m *IOManager) ensureDevice(name string) error {
	if _, ok := m.devices[name]; ok {
		return nil
	}
	return m.AddDevice(name, m.defaultPolicyTag, m.defaultQuantum)
}

// Tick advances every device by delta sub-ticks. Devices are stepped
// one sub-tick at a time across the whole bank, in ascending
// device-name order, so that simultaneous completions land in the
// outbox in that order (§4.6, §5).
func (m *IOManager) Tick(delta Ttick, now Ttick, ob *outbox, metrics *MetricsCollector) {
	names := maps.Keys(m.devices)
	slices.Sort(names)

	for i := Ttick(0); i < delta; i++ {
		tickNow := now + i
		for _, name := range names {
			m.devices[name].Tick(1, tickNow, ob, metrics)
		}
	}
}

func (m *IOManager) HasPendingIO() bool {
	for _, d := range m.devices {
		if d.Pending() {
			return true
		}
	}
	return false
}

// handleCompletion is the shared completion callback wired into every
// device: it marks the I/O burst complete, advances the cursor, and
// either releases the process back to READY or terminates it.
func (m *IOManager) handleCompletion(req *IORequest, now Ttick, ob *outbox) {
	proc := req.Process
	proc.AdvanceCursor()

	if proc.HasMoreBursts() {
		ob.transition(proc.Pid, proc.Name, IO_WAITING, READY, ReasonIOComplete)
		proc.State = READY
		ob.releaseToReady(proc.Pid)
		return
	}

	ob.transition(proc.Pid, proc.Name, IO_WAITING, TERMINATED, ReasonCompletion)
	proc.State = TERMINATED
	proc.calculateMetrics(now)
	if m.mm != nil {
		m.mm.Release(proc.Pid)
	}
}
