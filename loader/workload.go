// Package loader parses the text workload and config file formats of
// §6. It is an external collaborator to the core engine (§1's explicit
// scoping) and depends on kernelsim only for the spec-shaped values it
// hands back: BurstSpec, ProcessSpec, Config.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/osshop/kernelsim"
)

var burstTokenPattern = regexp.MustCompile(`^(CPU|E/S)\((\d+)\)$`)

var pidPattern = regexp.MustCompile(`^[A-Za-z]?(\d+)$`)

const defaultDeviceName = "disk"

// LoadWorkload parses the workload file at path into the ordered
// ProcessSpecs the scheduler loads (§6). Malformed lines are skipped
// with a diagnostic on stderr; a file yielding zero valid processes is
// a WorkloadError.
func LoadWorkload(path string) ([]kernelsim.ProcessSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kernelsim.NewConfigError("cannot open workload file %q: %v", path, err)
	}
	defer f.Close()

	var specs []kernelsim.ProcessSpec
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		spec, err := parseProcessLine(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "workload %s:%d: %v\n", path, lineNo, err)
			continue
		}
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, kernelsim.NewConfigError("reading workload file %q: %v", path, err)
	}
	if len(specs) == 0 {
		return nil, kernelsim.NewWorkloadError("no valid processes in %q", path)
	}
	return specs, nil
}

// parseProcessLine implements the `<name> <arrival> <burst-spec>
// [priority] [pages]` grammar of §6.
func parseProcessLine(line string) (kernelsim.ProcessSpec, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return kernelsim.ProcessSpec{}, fmt.Errorf("expected at least <name> <arrival> <burst-spec>, got %q", line)
	}

	name := fields[0]
	pid, err := parsePid(name)
	if err != nil {
		return kernelsim.ProcessSpec{}, err
	}

	arrival, err := strconv.Atoi(fields[1])
	if err != nil || arrival < 0 {
		return kernelsim.ProcessSpec{}, fmt.Errorf("invalid arrival tick %q", fields[1])
	}

	bursts, err := parseBurstSequence(fields[2])
	if err != nil {
		return kernelsim.ProcessSpec{}, err
	}
	if len(bursts) == 0 {
		return kernelsim.ProcessSpec{}, fmt.Errorf("empty burst sequence")
	}

	priority := 0
	if len(fields) >= 4 {
		priority, err = strconv.Atoi(fields[3])
		if err != nil {
			return kernelsim.ProcessSpec{}, fmt.Errorf("invalid priority %q", fields[3])
		}
	}

	pages := 0
	if len(fields) >= 5 {
		pages, err = strconv.Atoi(fields[4])
		if err != nil || pages < 0 {
			return kernelsim.ProcessSpec{}, fmt.Errorf("invalid page count %q", fields[4])
		}
	}

	return kernelsim.ProcessSpec{
		Pid:      kernelsim.Tpid(pid),
		Name:     name,
		Arrival:  kernelsim.Ttick(arrival),
		Priority: priority,
		Bursts:   bursts,
		Pages:    pages,
	}, nil
}

// parsePid extracts the PID from a name token: its numeric suffix
// after an optional single leading letter, or the whole token if it is
// itself an integer.
func parsePid(name string) (int, error) {
	if m := pidPattern.FindStringSubmatch(name); m != nil {
		pid, err := strconv.Atoi(m[1])
		if err == nil {
			return pid, nil
		}
	}
	if pid, err := strconv.Atoi(name); err == nil {
		return pid, nil
	}
	return 0, fmt.Errorf("cannot derive a PID from name %q", name)
}

// parseBurstSequence splits a comma-separated burst-spec into the
// tagged bursts it names: CPU(n) or E/S(n) (alias for an I/O burst on
// the default device).
func parseBurstSequence(spec string) ([]kernelsim.BurstSpec, error) {
	tokens := strings.Split(spec, ",")
	bursts := make([]kernelsim.BurstSpec, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		m := burstTokenPattern.FindStringSubmatch(tok)
		if m == nil {
			return nil, fmt.Errorf("invalid burst token %q", tok)
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("burst duration must be >= 1, got %q", tok)
		}
		if m[1] == "CPU" {
			bursts = append(bursts, kernelsim.BurstSpec{
				Kind:     kernelsim.CPUBurst,
				Duration: kernelsim.Ttick(n),
			})
		} else {
			bursts = append(bursts, kernelsim.BurstSpec{
				Kind:       kernelsim.IOBurst,
				DeviceName: defaultDeviceName,
				Duration:   kernelsim.Ttick(n),
			})
		}
	}
	return bursts, nil
}
