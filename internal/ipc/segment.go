package ipc

import (
	"os"
	"path/filepath"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// DefaultSegmentDir returns the directory backing named memory
// segments: /dev/shm when present (tmpfs, the Linux analogue of a POSIX
// shared memory object store), falling back to the OS temp directory
// everywhere else.
func DefaultSegmentDir() string {
	const shm = "/dev/shm"
	if fi, err := os.Stat(shm); err == nil && fi.IsDir() {
		return shm
	}
	return filepath.Join(os.TempDir(), "taskscheduler-shm")
}

// sanitizeName strips the POSIX-style leading slash from a segment name
// (spec.md §6: "/task_queue") so it can serve as both a filesystem path
// component and a semaphore key component.
func sanitizeName(name string) string {
	return strings.TrimPrefix(name, "/")
}

type segment struct {
	dir      string
	name     string
	capacity uint32
	file     *os.File
	data     mmap.MMap
	header   headerView
}

func segmentFilePath(dir, name string) string {
	return filepath.Join(dir, sanitizeName(name)+".segment")
}

func segmentSize(capacity uint32) int64 {
	return int64(headerSize) + int64(capacity)*int64(RecordSize)
}

// createSegment allocates a fresh backing file of the right size,
// zeroes the header, and maps it. Any stale file of the same name is
// removed first, matching the create-unlinks-stale-state contract of
// spec.md §4.1.
func createSegment(dir, name string, capacity uint32) (*segment, error) {
	if capacity < 1 || capacity > 10_000 {
		return nil, errors.Wrap(ErrInvalidArgument, "capacity must be in [1, 10000]")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(ErrSegmentCreateFailed, err.Error())
	}
	path := segmentFilePath(dir, name)
	_ = os.Remove(path)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o666)
	if err != nil {
		return nil, errors.Wrap(ErrSegmentCreateFailed, err.Error())
	}

	size := segmentSize(capacity)
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(ErrTruncateFailed, err.Error())
	}

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(ErrMapFailed, err.Error())
	}

	seg := &segment{
		dir:      dir,
		name:     name,
		capacity: capacity,
		file:     f,
		data:     data,
		header:   newHeaderView(data),
	}
	seg.header.setFront(0)
	seg.header.setRear(0)
	seg.header.setCount(0)
	seg.header.setCapacity(capacity)
	seg.header.setSchedulerRunning(false)
	seg.header.setTotalEnqueued(0)
	seg.header.setTotalDequeued(0)
	return seg, nil
}

// attachSegment maps an existing backing file without altering it.
func attachSegment(dir, name string) (*segment, error) {
	path := segmentFilePath(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR, 0o666)
	if err != nil {
		return nil, errors.Wrap(ErrNotAttached, err.Error())
	}
	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(ErrMapFailed, err.Error())
	}
	h := newHeaderView(data)
	seg := &segment{
		dir:      dir,
		name:     name,
		capacity: h.capacity(),
		file:     f,
		data:     data,
		header:   h,
	}
	return seg, nil
}

func (s *segment) slotRange(i uint32) (int, int) {
	off := headerSize + int(i)*RecordSize
	return off, off + RecordSize
}

func (s *segment) writeSlot(i uint32, rec SharedTaskRecord) error {
	lo, hi := s.slotRange(i)
	return rec.Marshal(s.data[lo:hi])
}

func (s *segment) readSlot(i uint32, rec *SharedTaskRecord) error {
	lo, hi := s.slotRange(i)
	return rec.Unmarshal(s.data[lo:hi])
}

// detach unmaps the segment but leaves the backing file in place.
func (s *segment) detach() error {
	if s.data == nil {
		return nil
	}
	err := s.data.Unmap()
	s.data = nil
	closeErr := s.file.Close()
	if err == nil {
		err = closeErr
	}
	return err
}

// destroySegmentFile removes the backing file; safe to call after detach.
func destroySegmentFile(dir, name string) error {
	err := os.Remove(segmentFilePath(dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
