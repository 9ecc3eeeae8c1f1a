// Package command implements the TCP command protocol from spec.md
// §6: a line-oriented `<op> <int> <int>` wire format accepted on port
// 8080, translated into Generic tasks and handed to a Scheduler.
// Connection concurrency is bounded with a weighted semaphore, the
// pattern sclevine-xsum/pqueue.go uses for its CPULock.
package command

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/taskscheduler/internal/logx"
	"github.com/hrygo/taskscheduler/internal/task"
)

// Priority assignment fixed by spec.md §6.
const (
	priorityAdd = 19
	prioritySub = 18
	priorityMul = 15
	priorityDel = 16
)

var opPriority = map[string]int{
	"add": priorityAdd,
	"sub": prioritySub,
	"mul": priorityMul,
	"del": priorityDel,
}

// Adder is the subset of Scheduler the command server depends on.
type Adder interface {
	Add(t task.Task) error
}

// Server accepts connections on a TCP listener and feeds parsed
// commands to an Adder.
type Server struct {
	addr     string
	adder    Adder
	log      logx.Logger
	maxConns int64

	nextTaskID func() int32
}

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a log sink. Defaults to logx.Noop.
func WithLogger(l logx.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMaxConnections bounds concurrent in-flight connections.
// Defaults to 64.
func WithMaxConnections(n int64) Option {
	return func(s *Server) { s.maxConns = n }
}

// NewServer builds a command Server listening on addr (host:port,
// spec.md §6 defaults to ":8080") that submits parsed commands to
// adder.
func NewServer(addr string, adder Adder, opts ...Option) *Server {
	var counter atomic.Int32
	s := &Server{
		addr:     addr,
		adder:    adder,
		log:      logx.Noop{},
		maxConns: 64,
		nextTaskID: func() int32 {
			return counter.Add(1)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe blocks accepting connections until ctx is cancelled.
// It returns an error only when the listener cannot be opened; Accept
// errors are logged and accepting continues.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	sem := semaphore.NewWeighted(s.maxConns)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.log.Errorf("command: accept: %v", err)
				continue
			}
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			conn.Close()
			return nil
		}
		go func() {
			defer sem.Release(1)
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		g, err := s.parse(line)
		if err != nil {
			s.log.Log("command: dropped: " + err.Error())
			continue
		}
		if err := g.LaunchProcess(DefaultLaunch); err != nil {
			s.log.Errorf("command: launch %q: %v", line, err)
			continue
		}
		if err := s.adder.Add(g); err != nil {
			s.log.Errorf("command: add task: %v", err)
		}
	}
}

// parse turns a single "<op> <int> <int>" line into a Generic task,
// translating the arithmetic mnemonic into the shell expression
// launch_process forks (spec.md §6, §9; original_source/Task forks
// "sh -c <command>").
func (s *Server) parse(line string) (*task.Generic, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, errMalformed(line)
	}
	priority, ok := opPriority[fields[0]]
	if !ok {
		return nil, errUnknownOp(fields[0])
	}
	a, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, errMalformed(line)
	}
	b, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, errMalformed(line)
	}

	shellExpr, err := arithmeticShellCommand(fields[0], a, b)
	if err != nil {
		return nil, err
	}
	return task.NewGeneric(s.nextTaskID(), line, priority, shellExpr)
}

func arithmeticShellCommand(op string, a, b int) (string, error) {
	switch op {
	case "add":
		return fmt.Sprintf("echo $((%d + %d))", a, b), nil
	case "sub":
		return fmt.Sprintf("echo $((%d - %d))", a, b), nil
	case "mul":
		return fmt.Sprintf("echo $((%d * %d))", a, b), nil
	case "del":
		return fmt.Sprintf("echo $((%d / %d))", a, b), nil
	default:
		return "", errUnknownOp(op)
	}
}
