package kernelsim

import "github.com/markphelps/optional"

// IORequest exists from submission to completion; the scheduler owns
// the process across that interval via the IO_WAITING state (§3).
type IORequest struct {
	Process     *Process
	Burst       *Burst
	DeviceName  string
	ArrivalTick Ttick
	StartTick   optional.Int
	CompletionTick optional.Int
}

func newIORequest(p *Process, b *Burst, device string, arrival Ttick) *IORequest {
	return &IORequest{Process: p, Burst: b, DeviceName: device, ArrivalTick: arrival}
}

// IODevice executes one request at a time under a per-device
// scheduling policy (§4.6): FCFS or ROUND_ROBIN with its own quantum.
type IODevice struct {
	Name         string
	policyTag    string
	quantum      Ttick
	queue        []*IORequest
	active       *IORequest
	sliceElapsed Ttick // sub-ticks the active request has had this RR slice

	busyTicks   int
	switches    int
	completions int

	onComplete func(req *IORequest, now Ttick, ob *outbox)
}

func newIODevice(name, policyTag string, quantum Ttick) (*IODevice, error) {
	switch policyTag {
	case "", "FCFS":
		policyTag = "FCFS"
	case "RoundRobin":
		if quantum < 1 {
			return nil, errConfigf("io device %q: round robin quantum must be >= 1, got %d", name, quantum)
		}
	default:
		return nil, errConfigf("unknown io_scheduling_algorithm %q", policyTag)
	}
	return &IODevice{Name: name, policyTag: policyTag, quantum: quantum}, nil
}

func (d *IODevice) setCompletionCallback(cb func(req *IORequest, now Ttick, ob *outbox)) {
	d.onComplete = cb
}

func (d *IODevice) Enqueue(req *IORequest) {
	d.queue = append(d.queue, req)
}

func (d *IODevice) IsBusy() bool {
	return d.active != nil
}

func (d *IODevice) Pending() bool {
	return d.active != nil || len(d.queue) > 0
}

func (d *IODevice) QueueSize() int {
	return len(d.queue)
}

// Tick advances the device by delta sub-ticks starting at tick now.
func (d *IODevice) Tick(delta Ttick, now Ttick, ob *outbox, metrics *MetricsCollector) {
	for i := Ttick(0); i < delta; i++ {
		tickNow := now + i
		if d.active == nil {
			if len(d.queue) == 0 {
				if metrics != nil {
					metrics.LogIO(tickNow, d.Name, "IDLE", -1, "", 0, len(d.queue))
				}
				continue
			}
			d.active = d.queue[0]
			d.queue = d.queue[1:]
			d.sliceElapsed = 0
			d.switches++
			if !d.active.StartTick.Present() {
				d.active.StartTick = optional.NewInt(int(tickNow))
			}
		}

		d.active.Burst.RemainingDuration--
		d.busyTicks++
		d.sliceElapsed++

		if metrics != nil {
			metrics.LogIO(tickNow, d.Name, "STEP", int(d.active.Process.Pid), d.active.Process.Name,
				int(d.active.Burst.RemainingDuration), len(d.queue))
		}

		if d.active.Burst.RemainingDuration <= 0 {
			completed := d.active
			d.active = nil
			d.completions++
			completed.CompletionTick = optional.NewInt(int(tickNow + 1))
			if metrics != nil {
				metrics.LogIO(tickNow, d.Name, "COMPLETED", int(completed.Process.Pid), completed.Process.Name, 0, len(d.queue))
			}
			if d.onComplete != nil {
				d.onComplete(completed, tickNow+1, ob)
			}
			continue
		}

		if d.policyTag == "RoundRobin" && d.sliceElapsed >= d.quantum {
			d.queue = append(d.queue, d.active)
			d.active = nil
			d.sliceElapsed = 0
		}
	}
}
