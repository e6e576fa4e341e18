package kernelsim

import "testing"

func TestIOManagerSubmitLazilyCreatesDevice(t *testing.T) {
	m := newIOManager("FCFS", 0, nil)
	p := newProcess(1, "P1", 0, 0, []Burst{newIOBurst("disk", 2)}, 0)

	if m.HasDevice("disk") {
		t.Fatalf("device should not exist before first submission")
	}
	if err := m.Submit(newIORequest(p, &p.Bursts[0], "disk", 0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !m.HasDevice("disk") {
		t.Fatalf("expected disk device to be created on first submission")
	}
}

func TestIOManagerTerminatesProcessAfterLastBurst(t *testing.T) {
	m := newIOManager("FCFS", 0, nil)
	p := newProcess(1, "P1", 0, 0, []Burst{newIOBurst("disk", 2)}, 0)
	p.State = IO_WAITING

	if err := m.Submit(newIORequest(p, &p.Bursts[0], "disk", 0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ob := newOutbox()
	m.Tick(2, 0, ob, nil)

	if p.State != TERMINATED {
		t.Fatalf("state = %s, want TERMINATED", p.State)
	}
	if !p.CompletionTick.Present() {
		t.Fatalf("expected a completion tick to be recorded")
	}
}

func TestIOManagerReleasesProcessWithMoreBurstsToReady(t *testing.T) {
	m := newIOManager("FCFS", 0, nil)
	p := newProcess(1, "P1", 0, 0, []Burst{newIOBurst("disk", 2), newCPUBurst(1)}, 0)
	p.State = IO_WAITING

	if err := m.Submit(newIORequest(p, &p.Bursts[0], "disk", 0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ob := newOutbox()
	m.Tick(2, 0, ob, nil)

	if p.State != READY {
		t.Fatalf("state = %s, want READY", p.State)
	}
	released := ob.drainReleases()
	if len(released) != 1 || released[0] != p.Pid {
		t.Fatalf("expected a release for pid %d, got %v", p.Pid, released)
	}
}

func TestIOManagerTicksDevicesInAscendingNameOrder(t *testing.T) {
	m := newIOManager("FCFS", 0, nil)
	pZ := newProcess(1, "PZ", 0, 0, []Burst{newIOBurst("zzz", 1)}, 0)
	pA := newProcess(2, "PA", 0, 0, []Burst{newIOBurst("aaa", 1)}, 0)
	if err := m.Submit(newIORequest(pZ, &pZ.Bursts[0], "zzz", 0)); err != nil {
		t.Fatalf("Submit zzz: %v", err)
	}
	if err := m.Submit(newIORequest(pA, &pA.Bursts[0], "aaa", 0)); err != nil {
		t.Fatalf("Submit aaa: %v", err)
	}

	var completedOrder []Tpid
	for _, name := range []string{"zzz", "aaa"} {
		dev := m.Device(name)
		dev.setCompletionCallback(func(req *IORequest, now Ttick, ob *outbox) {
			completedOrder = append(completedOrder, req.Process.Pid)
			m.handleCompletion(req, now, ob)
		})
	}

	ob := newOutbox()
	m.Tick(1, 0, ob, nil)

	if len(completedOrder) != 2 || completedOrder[0] != pA.Pid || completedOrder[1] != pZ.Pid {
		t.Fatalf("completion order = %v, want [%d %d] (ascending device name)", completedOrder, pA.Pid, pZ.Pid)
	}
}

func TestIOManagerHasPendingIO(t *testing.T) {
	m := newIOManager("FCFS", 0, nil)
	if m.HasPendingIO() {
		t.Fatalf("expected no pending IO on an empty manager")
	}
	p := newProcess(1, "P1", 0, 0, []Burst{newIOBurst("disk", 1)}, 0)
	if err := m.Submit(newIORequest(p, &p.Bursts[0], "disk", 0)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !m.HasPendingIO() {
		t.Fatalf("expected pending IO after a submission")
	}
}
