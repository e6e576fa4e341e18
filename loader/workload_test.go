package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/osshop/kernelsim"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "workload.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadWorkloadParsesProcessLines(t *testing.T) {
	path := writeTemp(t, "# comment\nP1 0 CPU(5),E/S(3),CPU(2) 1 4\n\nP2 2 CPU(4)\n")

	specs, err := LoadWorkload(path)
	if err != nil {
		t.Fatalf("LoadWorkload: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}

	p1 := specs[0]
	if p1.Pid != 1 || p1.Name != "P1" || p1.Arrival != 0 || p1.Priority != 1 || p1.Pages != 4 {
		t.Fatalf("P1 spec = %+v", p1)
	}
	if len(p1.Bursts) != 3 {
		t.Fatalf("P1 bursts = %+v, want 3 entries", p1.Bursts)
	}
	if p1.Bursts[0].Kind != kernelsim.CPUBurst || p1.Bursts[0].Duration != 5 {
		t.Fatalf("P1 burst 0 = %+v", p1.Bursts[0])
	}
	if p1.Bursts[1].Kind != kernelsim.IOBurst || p1.Bursts[1].Duration != 3 || p1.Bursts[1].DeviceName != "disk" {
		t.Fatalf("P1 burst 1 = %+v", p1.Bursts[1])
	}

	p2 := specs[1]
	if p2.Pid != 2 || p2.Arrival != 2 || p2.Priority != 0 || p2.Pages != 0 {
		t.Fatalf("P2 spec = %+v", p2)
	}
}

func TestLoadWorkloadDerivesPidFromLeadingLetterOrPlainInteger(t *testing.T) {
	path := writeTemp(t, "P7 0 CPU(1)\n3 0 CPU(1)\n")

	specs, err := LoadWorkload(path)
	if err != nil {
		t.Fatalf("LoadWorkload: %v", err)
	}
	if specs[0].Pid != 7 {
		t.Fatalf("pid for %q = %d, want 7", specs[0].Name, specs[0].Pid)
	}
	if specs[1].Pid != 3 {
		t.Fatalf("pid for %q = %d, want 3", specs[1].Name, specs[1].Pid)
	}
}

func TestLoadWorkloadSkipsMalformedLinesWithDiagnostic(t *testing.T) {
	path := writeTemp(t, "P1 0 CPU(1)\nthis line is garbage\nP2 1 BOGUS(3)\nP3 2 CPU(2)\n")

	specs, err := LoadWorkload(path)
	if err != nil {
		t.Fatalf("LoadWorkload: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2 (malformed lines skipped)", len(specs))
	}
	if specs[0].Pid != 1 || specs[1].Pid != 3 {
		t.Fatalf("expected P1 and P3 to survive, got %+v", specs)
	}
}

func TestLoadWorkloadRejectsFileWithNoValidProcesses(t *testing.T) {
	path := writeTemp(t, "# only comments\n\n")

	if _, err := LoadWorkload(path); err == nil {
		t.Fatalf("expected a WorkloadError for a file with no valid processes")
	} else if _, ok := err.(*kernelsim.WorkloadError); !ok {
		t.Fatalf("expected a *kernelsim.WorkloadError, got %T: %v", err, err)
	}
}

func TestLoadWorkloadRejectsMissingFile(t *testing.T) {
	if _, err := LoadWorkload(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected an error for a missing workload file")
	}
}
