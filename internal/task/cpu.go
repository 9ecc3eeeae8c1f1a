package task

import (
	"sync"
	"time"
)

// CpuIntensive simulates a fixed amount of CPU-bound work, checking
// wall-clock time on each inner iteration so it never overruns its
// quantum by more than a scheduling-clock tick (spec.md §4.2).
type CpuIntensive struct {
	base

	mu              sync.Mutex
	totalWorkMs     int32
	remainingWorkMs int32
}

func NewCpuIntensive(id int32, description string, staticPriority int, totalWorkMs int32) (*CpuIntensive, error) {
	b, err := newBase(id, description, staticPriority, false)
	if err != nil {
		return nil, err
	}
	return &CpuIntensive{
		base:            b,
		totalWorkMs:     totalWorkMs,
		remainingWorkMs: totalWorkMs,
	}, nil
}

// TotalTime returns the task's original work budget, letting the
// executor prefer running the whole task in one shot when it fits
// inside a single quantum (spec.md §4.2, §4.4 step 3).
func (c *CpuIntensive) TotalTime() time.Duration {
	return time.Duration(c.totalWorkMs) * time.Millisecond
}

func (c *CpuIntensive) RemainingWork() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingWorkMs
}

func (c *CpuIntensive) Execute(quantum time.Duration) (bool, error) {
	c.beginRun()

	c.mu.Lock()
	remaining := c.remainingWorkMs
	c.mu.Unlock()

	start := time.Now()
	deadline := start.Add(quantum)
	if workDeadline := start.Add(time.Duration(remaining) * time.Millisecond); workDeadline.Before(deadline) {
		deadline = workDeadline
	}

	for time.Now().Before(deadline) {
		simulateWork()
	}

	elapsed := time.Since(start)
	c.mu.Lock()
	c.remainingWorkMs -= int32(elapsed.Milliseconds())
	if c.remainingWorkMs < 0 {
		c.remainingWorkMs = 0
	}
	done := c.remainingWorkMs <= 0
	c.mu.Unlock()

	return c.endRun(elapsed, quantum, done, 1.0), nil
}

// simulateWork is a deterministic inner computation standing in for
// real CPU-bound work; it is sized to be cheap enough that the
// surrounding loop's time.Now() checks stay responsive.
func simulateWork() {
	acc := 0
	for i := 0; i < 20_000; i++ {
		acc += i * i
	}
	_ = acc
}
