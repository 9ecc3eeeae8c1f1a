//go:build unix

package ipc

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// fifoSemaphore realizes a named counting semaphore as a POSIX FIFO of
// one-byte tokens. glibc's sem_open keeps its state in a shared-memory
// object reachable only via cgo; a named pipe gives the same
// cross-process, kernel-arbitrated wait/post pair without it. Opening
// O_RDWR (rather than O_RDONLY/O_WRONLY) avoids the classic FIFO
// open-blocks-until-both-ends-present deadlock, and is why unix.Mkfifo
// plus os.OpenFile(O_RDWR) below is the whole implementation.
type fifoSemaphore struct {
	path string
	f    *os.File
}

func createSemaphore(path string, initial int) (namedSemaphore, error) {
	_ = unix.Unlink(path)
	if err := unix.Mkfifo(path, 0o666); err != nil {
		return nil, errors.Wrapf(err, "mkfifo %s", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o666)
	if err != nil {
		return nil, errors.Wrapf(err, "open fifo %s", path)
	}
	s := &fifoSemaphore{path: path, f: f}
	if initial > 0 {
		tokens := make([]byte, initial)
		if _, err := f.Write(tokens); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "seed fifo %s", path)
		}
	}
	return s, nil
}

func attachSemaphore(path string) (namedSemaphore, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o666)
	if err != nil {
		return nil, errors.Wrapf(err, "attach fifo %s", path)
	}
	return &fifoSemaphore{path: path, f: f}, nil
}

func (s *fifoSemaphore) wait() error {
	buf := make([]byte, 1)
	for {
		n, err := s.f.Read(buf)
		if err != nil {
			return errors.Wrap(err, "semaphore wait")
		}
		if n == 1 {
			return nil
		}
	}
}

func (s *fifoSemaphore) post() error {
	if _, err := s.f.Write([]byte{1}); err != nil {
		return errors.Wrap(err, "semaphore post")
	}
	return nil
}

func (s *fifoSemaphore) close() error {
	return s.f.Close()
}

func (s *fifoSemaphore) unlink() error {
	if err := unix.Unlink(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
