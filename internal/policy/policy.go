// Package policy implements the pluggable scheduling policies from
// spec.md §4.3: round-robin, static priority, and dynamic priority.
// The set is closed and explicitly dispatched rather than an open
// plugin registry, per spec.md §9 ("only three policies exist and the
// executor needs none of the flexibility").
package policy

import (
	"errors"

	"github.com/hrygo/taskscheduler/internal/task"
)

// ErrEmptyTaskSet is returned by Select when given no tasks
// (spec.md §7 EMPTY_TASK_SET).
var ErrEmptyTaskSet = errors.New("policy: select called with no tasks")

// SchedulingPolicy is the capability set from spec.md §4.3.
type SchedulingPolicy interface {
	// Select returns the index, within tasks, of the task that should
	// run next.
	Select(tasks []task.Task) (int, error)
	// UpdatePriority gives the policy a chance to recompute t's
	// dynamic priority before the next Select.
	UpdatePriority(t task.Task)
	Name() string
}
