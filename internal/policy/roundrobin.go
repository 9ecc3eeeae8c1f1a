package policy

import (
	"sync"

	"github.com/hrygo/taskscheduler/internal/task"
)

// RoundRobin cycles through tasks in ring order, independent of
// priority (spec.md §4.3).
type RoundRobin struct {
	mu           sync.Mutex
	currentIndex int
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{currentIndex: -1}
}

func (p *RoundRobin) Select(tasks []task.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, ErrEmptyTaskSet
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentIndex = (p.currentIndex + 1) % len(tasks)
	return p.currentIndex, nil
}

// UpdatePriority is a no-op: round-robin ignores priority entirely.
func (p *RoundRobin) UpdatePriority(task.Task) {}

func (p *RoundRobin) Name() string { return "round-robin" }
