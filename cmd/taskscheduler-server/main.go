// Command taskscheduler-server hosts the TCP command listener
// described in spec.md §6: it accepts `<op> <int> <int>` lines,
// converts them to Generic tasks, and enqueues them onto the shared
// task queue for a separate taskscheduler-run process to pick up.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/taskscheduler/internal/command"
	"github.com/hrygo/taskscheduler/internal/ipc"
	"github.com/hrygo/taskscheduler/internal/logx"
	"github.com/hrygo/taskscheduler/internal/task"
)

var rootCmd = &cobra.Command{
	Use:   "taskscheduler-server",
	Short: "Accepts task submissions over TCP and hands them to the shared queue.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return nil
	},
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().String("queue-name", "/task_queue", "shared queue name; must match taskscheduler-run")
	rootCmd.PersistentFlags().String("addr", ":8080", "TCP listen address")
	rootCmd.PersistentFlags().Int64("max-connections", 64, "maximum concurrent connections")
	rootCmd.PersistentFlags().String("logs-dir", "logs", "log directory")

	for _, name := range []string{"queue-name", "addr", "max-connections", "logs-dir"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("taskscheduler")
	viper.AutomaticEnv()
}

// queueAdder implements command.Adder by serializing a task straight
// onto the shared queue, without running a scheduler loop in this
// process (the scheduler process owns that).
type queueAdder struct {
	queue *ipc.SharedTaskQueue
}

func (a queueAdder) Add(t task.Task) error {
	rec, err := task.ConvertToShared(t)
	if err != nil {
		return err
	}
	return a.queue.Enqueue(rec)
}

func run(cmd *cobra.Command, args []string) error {
	queueName := viper.GetString("queue-name")
	addr := viper.GetString("addr")
	maxConns := viper.GetInt64("max-connections")
	logsDir := viper.GetString("logs-dir")

	sink, err := logx.NewFileSink(logsDir, "command-server.log")
	if err != nil {
		return err
	}
	errSink, err := logx.NewFileSink(logsDir, "command-server.error.log")
	if err != nil {
		return err
	}
	logger := logx.NewLogger(sink, errSink)

	queue := ipc.NewSharedTaskQueue(ipc.DefaultSegmentDir(), queueName)
	if err := queue.Attach(); err != nil {
		return fmt.Errorf("attach to queue %q: %w (is taskscheduler-run running?)", queueName, err)
	}
	defer queue.Detach()

	srv := command.NewServer(addr, queueAdder{queue: queue},
		command.WithLogger(logger),
		command.WithMaxConnections(maxConns),
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Printf("taskscheduler-server listening on %s, forwarding to queue %s\n", addr, queueName)
	return srv.ListenAndServe(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
