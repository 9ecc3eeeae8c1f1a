package policy

import "github.com/hrygo/taskscheduler/internal/task"

// StaticPriority always selects the highest-priority task, breaking
// ties by insertion order (spec.md §4.3).
type StaticPriority struct{}

func NewStaticPriority() *StaticPriority { return &StaticPriority{} }

func (p *StaticPriority) Select(tasks []task.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, ErrEmptyTaskSet
	}
	best := 0
	bestPriority := tasks[0].Priority()
	for i := 1; i < len(tasks); i++ {
		if tasks[i].Priority() > bestPriority {
			best = i
			bestPriority = tasks[i].Priority()
		}
	}
	return best, nil
}

// UpdatePriority is a no-op: static priority never changes.
func (p *StaticPriority) UpdatePriority(task.Task) {}

func (p *StaticPriority) Name() string { return "static-priority" }
