package policy

import "github.com/hrygo/taskscheduler/internal/task"

// DynamicPriority selects the highest-priority task like
// StaticPriority, but first lets every task recompute its own dynamic
// priority via AdjustDynamicPriority (spec.md §4.2, §4.3).
type DynamicPriority struct{}

func NewDynamicPriority() *DynamicPriority { return &DynamicPriority{} }

func (p *DynamicPriority) Select(tasks []task.Task) (int, error) {
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

func (p *DynamicPriority) UpdatePriority(t task.Task) {
	t.AdjustDynamicPriority()
}

func (p *DynamicPriority) Name() string { return "dynamic-priority" }
