package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/osshop/kernelsim"
)

// LoadConfig parses the `key=value` config file of §6 into a
// kernelsim.Config. Algorithm name validation is left to
// kernelsim.NewScheduler, which is the component that actually knows
// the legal tags for each policy family.
func LoadConfig(path string) (kernelsim.Config, error) {
	cfg := kernelsim.Config{
		PageReplacementAlgorithm: "FIFO",
		IOSchedulingAlgorithm:    "FCFS",
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, kernelsim.NewConfigError("cannot open config file %q: %v", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return cfg, kernelsim.NewConfigError("%s:%d: malformed line %q (expected key=value)", path, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := applyConfigKey(&cfg, key, value); err != nil {
			return cfg, kernelsim.NewConfigError("%s:%d: %v", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, kernelsim.NewConfigError("reading config file %q: %v", path, err)
	}
	return cfg, nil
}

func applyConfigKey(cfg *kernelsim.Config, key, value string) error {
	switch key {
	case "total_memory_frames":
		n, err := strconv.Atoi(value)
		if err != nil {
			return notNumeric(key, value)
		}
		cfg.TotalMemoryFrames = kernelsim.Tmem(n)
	case "frame_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return notNumeric(key, value)
		}
		cfg.FrameSize = n
	case "scheduling_algorithm":
		cfg.SchedulingAlgorithm = value
	case "page_replacement_algorithm":
		cfg.PageReplacementAlgorithm = value
	case "io_scheduling_algorithm":
		cfg.IOSchedulingAlgorithm = value
	case "quantum":
		n, err := strconv.Atoi(value)
		if err != nil {
			return notNumeric(key, value)
		}
		cfg.Quantum = kernelsim.Ttick(n)
	case "io_quantum":
		n, err := strconv.Atoi(value)
		if err != nil {
			return notNumeric(key, value)
		}
		cfg.IOQuantum = kernelsim.Ttick(n)
	default:
		// unrecognised keys are ignored rather than rejected, matching
		// the original config parser's behaviour.
	}
	return nil
}

func notNumeric(key, value string) error {
	return fmt.Errorf("%s must be numeric, got %q", key, value)
}
