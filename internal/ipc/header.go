package ipc

import "encoding/binary"

// headerView is a fixed-layout window onto the first headerSize bytes of
// the mapped segment. All mutation happens while mut is held; the
// scheduler-running flag and the two counters may additionally be read
// without mut for observability, per spec.md §5.
//
// Layout (little-endian): front(4) rear(4) count(4) capacity(4)
// schedulerRunning(1) totalEnqueued(8) totalDequeued(8).
type headerView struct {
	buf []byte
}

const headerSize = 4 + 4 + 4 + 4 + 1 + 8 + 8

func newHeaderView(buf []byte) headerView {
	return headerView{buf: buf[:headerSize]}
}

func (h headerView) front() uint32      { return binary.LittleEndian.Uint32(h.buf[0:4]) }
func (h headerView) setFront(v uint32)  { binary.LittleEndian.PutUint32(h.buf[0:4], v) }
func (h headerView) rear() uint32       { return binary.LittleEndian.Uint32(h.buf[4:8]) }
func (h headerView) setRear(v uint32)   { binary.LittleEndian.PutUint32(h.buf[4:8], v) }
func (h headerView) count() uint32      { return binary.LittleEndian.Uint32(h.buf[8:12]) }
func (h headerView) setCount(v uint32)  { binary.LittleEndian.PutUint32(h.buf[8:12], v) }
func (h headerView) capacity() uint32   { return binary.LittleEndian.Uint32(h.buf[12:16]) }
func (h headerView) setCapacity(v uint32) {
	binary.LittleEndian.PutUint32(h.buf[12:16], v)
}

func (h headerView) schedulerRunning() bool { return h.buf[16] != 0 }
func (h headerView) setSchedulerRunning(b bool) {
	if b {
		h.buf[16] = 1
	} else {
		h.buf[16] = 0
	}
}

func (h headerView) totalEnqueued() uint64 { return binary.LittleEndian.Uint64(h.buf[17:25]) }
func (h headerView) setTotalEnqueued(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[17:25], v)
}

func (h headerView) totalDequeued() uint64 { return binary.LittleEndian.Uint64(h.buf[25:33]) }
func (h headerView) setTotalDequeued(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[25:33], v)
}

// QueueStats is a point-in-time, racily-read snapshot for observability,
// grounded on original_source/TaskQueueManager's getStatistics().
type QueueStats struct {
	Count         uint32
	Capacity      uint32
	TotalEnqueued uint64
	TotalDequeued uint64
}
