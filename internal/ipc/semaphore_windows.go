//go:build windows

package ipc

import (
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const maxSemaphoreCount = 10_000

// winSemaphore wraps a kernel named semaphore object, the Windows
// equivalent of a POSIX named semaphore: the name is visible to any
// process that asks for it, and survives independently of the handle
// that created it until the last handle closes.
type winSemaphore struct {
	handle windows.Handle
}

func semaphoreName(path string) (*uint16, error) {
	// Windows kernel object names use backslashes as a namespace
	// separator; the queue's semaphore paths are flat file-system-style
	// names, so they pass straight through as a Local\ object name.
	return syscall.UTF16PtrFromString(`Local\` + path)
}

func createSemaphore(path string, initial int) (namedSemaphore, error) {
	name, err := semaphoreName(path)
	if err != nil {
		return nil, errors.Wrap(err, "semaphore name")
	}
	h, err := windows.CreateSemaphore(nil, int32(initial), int32(maxSemaphoreCount), name)
	if err != nil {
		return nil, errors.Wrapf(err, "CreateSemaphore %s", path)
	}
	return &winSemaphore{handle: h}, nil
}

func attachSemaphore(path string) (namedSemaphore, error) {
	name, err := semaphoreName(path)
	if err != nil {
		return nil, errors.Wrap(err, "semaphore name")
	}
	h, err := windows.OpenSemaphore(windows.SEMAPHORE_ALL_ACCESS, false, name)
	if err != nil {
		return nil, errors.Wrapf(err, "OpenSemaphore %s", path)
	}
	return &winSemaphore{handle: h}, nil
}

func (s *winSemaphore) wait() error {
	ev, err := windows.WaitForSingleObject(s.handle, windows.INFINITE)
	if err != nil {
		return errors.Wrap(err, "semaphore wait")
	}
	if ev != windows.WAIT_OBJECT_0 {
		return errors.Errorf("semaphore wait: unexpected event %d", ev)
	}
	return nil
}

func (s *winSemaphore) post() error {
	return windows.ReleaseSemaphore(s.handle, 1, nil)
}

func (s *winSemaphore) close() error {
	return windows.CloseHandle(s.handle)
}

// unlink is a no-op on Windows: named kernel objects disappear once
// every handle referencing them is closed, there is no separate unlink
// step the way POSIX sem_unlink requires.
func (s *winSemaphore) unlink() error {
	return nil
}
