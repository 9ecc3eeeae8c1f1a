package ipc

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// TaskKind tags which task variant a SharedTaskRecord represents.
type TaskKind uint8

const (
	KindCPUIntensive TaskKind = iota
	KindIOBound
	KindGeneric
)

func (k TaskKind) String() string {
	switch k {
	case KindCPUIntensive:
		return "CPU_INTENSIVE"
	case KindIOBound:
		return "IO_BOUND"
	case KindGeneric:
		return "GENERIC"
	default:
		return "UNKNOWN"
	}
}

const (
	descriptionSize = 256

	// RecordSize is the fixed, packed, little-endian size in bytes of a
	// SharedTaskRecord slot: id(4) + priority(4) + description(256) +
	// kind(1) + completed(1) + remaining_ms(4).
	RecordSize = 4 + 4 + descriptionSize + 1 + 1 + 4
)

// SharedTaskRecord is the on-wire layout written into a ring slot of the
// shared memory segment. All integer fields are little-endian.
type SharedTaskRecord struct {
	ID          int32
	Priority    int32
	Description string
	Kind        TaskKind
	Completed   bool
	RemainingMs int32
}

// MinPriority and MaxPriority bound both static and dynamic priority.
const (
	MinPriority = -20
	MaxPriority = 19
)

// ClampPriority forces p into [MinPriority, MaxPriority].
func ClampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

// Marshal encodes the record into a RecordSize-byte buffer.
func (r SharedTaskRecord) Marshal(buf []byte) error {
	if len(buf) < RecordSize {
		return errors.Wrap(ErrInvalidArgument, "record buffer too small")
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.ID))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.Priority))

	desc := buf[8 : 8+descriptionSize]
	for i := range desc {
		desc[i] = 0
	}
	n := copy(desc[:descriptionSize-1], r.Description)
	desc[n] = 0

	off := 8 + descriptionSize
	buf[off] = byte(r.Kind)
	if r.Completed {
		buf[off+1] = 1
	} else {
		buf[off+1] = 0
	}
	binary.LittleEndian.PutUint32(buf[off+2:off+6], uint32(r.RemainingMs))
	return nil
}

// Unmarshal decodes a RecordSize-byte buffer into the record.
func (r *SharedTaskRecord) Unmarshal(buf []byte) error {
	if len(buf) < RecordSize {
		return errors.Wrap(ErrInvalidArgument, "record buffer too small")
	}
	r.ID = int32(binary.LittleEndian.Uint32(buf[0:4]))
	r.Priority = int32(binary.LittleEndian.Uint32(buf[4:8]))

	desc := buf[8 : 8+descriptionSize]
	nul := descriptionSize
	for i, b := range desc {
		if b == 0 {
			nul = i
			break
		}
	}
	r.Description = string(desc[:nul])

	off := 8 + descriptionSize
	r.Kind = TaskKind(buf[off])
	r.Completed = buf[off+1] != 0
	r.RemainingMs = int32(binary.LittleEndian.Uint32(buf[off+2 : off+6]))
	return nil
}
