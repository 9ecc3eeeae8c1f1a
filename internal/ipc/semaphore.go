package ipc

// namedSemaphore is a counting semaphore identified by a name shared
// across processes, matching spec.md §6: derived from the segment name
// with a suffix (`_enq`, `_deq`, `_mut`), permission mode 0666.
//
// wait blocks until a token is available and cannot be cancelled; post
// releases one token. The pair is implemented per-OS on top of
// golang.org/x/sys, the way sclevine-xsum pulls in that module: a named
// FIFO of one-byte tokens in semaphore_unix.go and a Win32 named kernel
// semaphore in semaphore_windows.go.
type namedSemaphore interface {
	wait() error
	post() error
	close() error
	unlink() error
}

// semTriple bundles the classic (capacity, 0, 1) triple from spec.md §4.1.
type semTriple struct {
	enq namedSemaphore // producers wait, consumers post; starts at capacity
	deq namedSemaphore // consumers wait, producers post; starts at 0
	mut namedSemaphore // binary mutex; starts at 1
}

func (s semTriple) closeAll() error {
	var firstErr error
	for _, sem := range []namedSemaphore{s.enq, s.deq, s.mut} {
		if sem == nil {
			continue
		}
		if err := sem.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s semTriple) unlinkAll() error {
	var firstErr error
	for _, sem := range []namedSemaphore{s.enq, s.deq, s.mut} {
		if sem == nil {
			continue
		}
		if err := sem.unlink(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
