package kernelsim

import "fmt"

// The three error kinds of §7. ConfigError and WorkloadError are
// surfaced to the driver without starting (or continuing) the run;
// InvariantError is fatal and identifies the tick/pid at fault.

type ConfigError struct{ msg string }

func (e *ConfigError) Error() string { return "config error: " + e.msg }

func errConfigf(format string, args ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// NewConfigError lets the loader package (an external collaborator per
// §1) report the same ConfigError kind without reaching into this
// package's unexported constructor.
func NewConfigError(format string, args ...any) error {
	return errConfigf(format, args...)
}

type WorkloadError struct{ msg string }

func (e *WorkloadError) Error() string { return "workload error: " + e.msg }

func errWorkloadf(format string, args ...any) error {
	return &WorkloadError{msg: fmt.Sprintf(format, args...)}
}

// NewWorkloadError lets the loader package report the same
// WorkloadError kind without reaching into this package's unexported
// constructor.
func NewWorkloadError(format string, args ...any) error {
	return errWorkloadf(format, args...)
}

// InvariantError marks a fatal runtime invariant violation (§7). It is
// raised when a replacement policy returns an out-of-range frame and
// when the ready queue yields a TERMINATED process; a process sitting
// in two queues at once is not detected. The tick and pid at fault are
// carried so the driver's diagnostic can name them.
type InvariantError struct {
	Tick Ttick
	Pid  Tpid
	msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation at tick %d, pid %d: %s", e.Tick, e.Pid, e.msg)
}

func errInvariant(tick Ttick, pid Tpid, format string, args ...any) error {
	return &InvariantError{Tick: tick, Pid: pid, msg: fmt.Sprintf(format, args...)}
}
