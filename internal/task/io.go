package task

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ioBoundCap is the cpu_usage ceiling for I/O-bound variants from
// spec.md §4.2's common Execute contract.
const ioBoundCap = 0.3

// IoBound appends one line to filePath per invocation, then sleeps for
// half the quantum to simulate blocking I/O wait (spec.md §4.2).
type IoBound struct {
	base

	mu                  sync.Mutex
	filePath            string
	operationsRemaining int32
}

// NewIoBound constructs an I/O-bound task. operationsRemaining also
// does double duty as the residual-work count carried through
// SharedTaskRecord.RemainingMs on serialization (spec.md §9's noted
// ambiguity; see DESIGN.md).
func NewIoBound(id int32, description string, staticPriority int, filePath string, operationsRemaining int32) (*IoBound, error) {
	b, err := newBase(id, description, staticPriority, true)
	if err != nil {
		return nil, err
	}
	return &IoBound{base: b, filePath: filePath, operationsRemaining: operationsRemaining}, nil
}

func (io *IoBound) OperationsRemaining() int32 {
	io.mu.Lock()
	defer io.mu.Unlock()
	return io.operationsRemaining
}

func (io *IoBound) FilePath() string {
	io.mu.Lock()
	defer io.mu.Unlock()
	return io.filePath
}

// TotalTime has no intrinsic bound for an I/O-bound task: the per-
// operation cost is driven by the executor's quantum, not a fixed work
// budget, so it never qualifies for the executor's single-shot
// fast path (spec.md §4.4 step 3).
func (io *IoBound) TotalTime() time.Duration {
	return time.Duration(1<<63 - 1)
}

func (io *IoBound) Execute(quantum time.Duration) (bool, error) {
	io.beginRun()
	start := time.Now()

	f, err := os.OpenFile(io.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		// An unopenable file is treated as immediate completion, not
		// an error (spec.md §4.2).
		elapsed := time.Since(start)
		return io.endRun(elapsed, quantum, true, ioBoundCap), nil
	}
	_, _ = fmt.Fprintf(f, "task %d: operation at %s\n", io.ID(), time.Now().Format(time.RFC3339Nano))
	f.Close()

	time.Sleep(quantum / 2)

	io.mu.Lock()
	io.operationsRemaining--
	done := io.operationsRemaining <= 0
	io.mu.Unlock()

	elapsed := time.Since(start)
	return io.endRun(elapsed, quantum, done, ioBoundCap), nil
}
