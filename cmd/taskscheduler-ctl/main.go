// Command taskscheduler-ctl is the external-collaborator REPL client
// from spec.md §6: it reads one command per line from stdin and sends
// it to taskscheduler-server over a fresh TCP connection per line,
// the same per-command dial/send/close cycle as
// original_source/Client. A local "history" command bypasses the TCP
// protocol and reads the scheduler's completed-task audit trail
// directly, since add/sub/mul/del is the only vocabulary
// taskscheduler-server's wire protocol understands (spec.md §4.8).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/taskscheduler/internal/history"
	"github.com/hrygo/taskscheduler/internal/history/postgres"
	"github.com/hrygo/taskscheduler/internal/history/sqlite"
)

const defaultHistoryLimit = 20

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "taskscheduler-server address")
	historyDriver := flag.String("history-driver", "sqlite", "history store driver for the history command: sqlite, postgres")
	historyDSN := flag.String("history-dsn", "", "history store DSN for the history command (required to use it)")
	flag.Parse()

	fmt.Printf("connected to %s, enter commands like 'add 5 10' or 'history' (Ctrl-D to quit)\n", *addr)

	var historyStore *history.Store

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Println("Empty command. Please try again")
			continue
		}

		fields := strings.Fields(line)
		if fields[0] == "history" {
			if historyStore == nil {
				s, err := openHistory(*historyDriver, *historyDSN)
				if err != nil {
					fmt.Fprintf(os.Stderr, "history unavailable: %v\n", err)
					continue
				}
				historyStore = s
			}
			if err := printHistory(historyStore, fields[1:]); err != nil {
				fmt.Fprintf(os.Stderr, "history failed: %v\n", err)
			}
			continue
		}

		if err := sendCommand(*addr, line); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	}

	if historyStore != nil {
		historyStore.Close()
	}
}

func openHistory(driver, dsn string) (*history.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pass -history-dsn (matching taskscheduler-run's -dsn) to use the history command")
	}
	switch driver {
	case "postgres":
		db, err := postgres.Open(dsn)
		if err != nil {
			return nil, err
		}
		return history.New(db), nil
	default:
		db, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		return history.New(db), nil
	}
}

func printHistory(store *history.Store, args []string) error {
	limit := defaultHistoryLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("usage: history [limit]")
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	completed, err := store.ListCompleted(ctx, limit)
	if err != nil {
		return err
	}
	if len(completed) == 0 {
		fmt.Println("no completed tasks recorded")
		return nil
	}
	for _, t := range completed {
		fmt.Printf("%s  id=%-6d priority=%-3d %s\n",
			t.CompletedAt.Format(time.RFC3339), t.ID, t.Priority, t.Description)
	}
	return nil
}

func sendCommand(addr, command string) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, command); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	fmt.Printf("command sent: %s\n", command)
	return nil
}
