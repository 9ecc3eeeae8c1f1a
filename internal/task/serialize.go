package task

import (
	"fmt"

	"github.com/hrygo/taskscheduler/internal/ipc"
)

// ConvertToShared implements spec.md §4.5's convert_to_shared: it
// flattens whichever concrete variant t is into the fixed-size wire
// record, losing in-process-only state (virtual_runtime,
// last_execution_time) that §4.5's note says must be recomputed on
// re-materialization rather than carried across.
func ConvertToShared(t Task) (ipc.SharedTaskRecord, error) {
	rec := ipc.SharedTaskRecord{
		ID:        t.ID(),
		Priority:  int32(t.Priority()),
		Completed: t.IsCompleted(),
	}

	switch v := t.(type) {
	case *CpuIntensive:
		rec.Kind = ipc.KindCPUIntensive
		rec.Description = v.Description()
		if rec.Completed {
			rec.RemainingMs = 0
		} else {
			rec.RemainingMs = v.RemainingWork()
		}
	case *IoBound:
		rec.Kind = ipc.KindIOBound
		// The wire record has one text field; for IoBound it carries
		// file_path rather than the human label (spec.md §3's note
		// that description doubles as "a parameter" for some variants).
		rec.Description = v.FilePath()
		if rec.Completed {
			rec.RemainingMs = 0
		} else {
			rec.RemainingMs = v.OperationsRemaining()
		}
	case *Generic:
		rec.Kind = ipc.KindGeneric
		rec.Description = v.Description()
		rec.RemainingMs = 0
	default:
		return ipc.SharedTaskRecord{}, fmt.Errorf("task: unknown variant %T", t)
	}
	return rec, nil
}

// ConvertFromShared implements spec.md §4.5's convert_from_shared: it
// reconstructs the variant named by kind, clamping an out-of-range
// stored priority instead of failing, since records must tolerate
// surviving a process restart with whatever was last written.
func ConvertFromShared(rec ipc.SharedTaskRecord) (Task, error) {
	priority := ipc.ClampPriority(int(rec.Priority))

	switch rec.Kind {
	case ipc.KindCPUIntensive:
		t, err := NewCpuIntensive(rec.ID, rec.Description, priority, rec.RemainingMs)
		if err != nil {
			return nil, err
		}
		if rec.Completed {
			t.ForceComplete()
		}
		return t, nil
	case ipc.KindIOBound:
		t, err := NewIoBound(rec.ID, rec.Description, priority, rec.Description, rec.RemainingMs)
		if err != nil {
			return nil, err
		}
		if rec.Completed {
			t.ForceComplete()
		}
		return t, nil
	case ipc.KindGeneric:
		t, err := NewGeneric(rec.ID, rec.Description, priority, rec.Description)
		if err != nil {
			return nil, err
		}
		if rec.Completed {
			t.ForceComplete()
		}
		return t, nil
	default:
		return nil, fmt.Errorf("task: unknown kind %d", rec.Kind)
	}
}
