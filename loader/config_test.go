package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/osshop/kernelsim"
)

func writeConfigTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfigParsesKnownKeys(t *testing.T) {
	path := writeConfigTemp(t, "# comment\ntotal_memory_frames=8\nframe_size=4096\n"+
		"scheduling_algorithm=RoundRobin\npage_replacement_algorithm=LRU\n"+
		"io_scheduling_algorithm=RoundRobin\nquantum=4\nio_quantum=2\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TotalMemoryFrames != 8 || cfg.FrameSize != 4096 {
		t.Fatalf("memory fields = %+v", cfg)
	}
	if cfg.SchedulingAlgorithm != "RoundRobin" || cfg.Quantum != 4 {
		t.Fatalf("cpu scheduling fields = %+v", cfg)
	}
	if cfg.PageReplacementAlgorithm != "LRU" {
		t.Fatalf("page_replacement_algorithm = %q, want LRU", cfg.PageReplacementAlgorithm)
	}
	if cfg.IOSchedulingAlgorithm != "RoundRobin" || cfg.IOQuantum != 2 {
		t.Fatalf("io fields = %+v", cfg)
	}
}

func TestLoadConfigDefaultsReplacementAndIOAlgorithms(t *testing.T) {
	path := writeConfigTemp(t, "total_memory_frames=4\nscheduling_algorithm=FCFS\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PageReplacementAlgorithm != "FIFO" {
		t.Fatalf("default page_replacement_algorithm = %q, want FIFO", cfg.PageReplacementAlgorithm)
	}
	if cfg.IOSchedulingAlgorithm != "FCFS" {
		t.Fatalf("default io_scheduling_algorithm = %q, want FCFS", cfg.IOSchedulingAlgorithm)
	}
}

func TestLoadConfigIgnoresUnknownKeys(t *testing.T) {
	path := writeConfigTemp(t, "total_memory_frames=4\nsome_future_knob=true\n")

	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
}

func TestLoadConfigRejectsNonNumericValue(t *testing.T) {
	path := writeConfigTemp(t, "total_memory_frames=many\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatalf("expected a ConfigError for a non-numeric total_memory_frames")
	}
	if _, ok := err.(*kernelsim.ConfigError); !ok {
		t.Fatalf("expected a *kernelsim.ConfigError, got %T: %v", err, err)
	}
}

func TestLoadConfigRejectsMalformedLine(t *testing.T) {
	path := writeConfigTemp(t, "not_a_key_value_pair\n")

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected an error for a malformed line")
	}
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}
