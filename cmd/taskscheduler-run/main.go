// Command taskscheduler-run hosts the scheduler process: it creates
// (or attaches to) the shared task queue, runs the executor/reorderer
// loop pair, exposes Prometheus metrics, and persists completed tasks
// to the configured history store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/taskscheduler/internal/history"
	"github.com/hrygo/taskscheduler/internal/history/postgres"
	"github.com/hrygo/taskscheduler/internal/history/sqlite"
	"github.com/hrygo/taskscheduler/internal/ipc"
	"github.com/hrygo/taskscheduler/internal/logx"
	"github.com/hrygo/taskscheduler/internal/metrics"
	"github.com/hrygo/taskscheduler/internal/policy"
	"github.com/hrygo/taskscheduler/internal/profile"
	"github.com/hrygo/taskscheduler/internal/scheduler"
	"github.com/hrygo/taskscheduler/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "taskscheduler-run",
	Short: "Runs the cooperative task scheduler against the shared task queue.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		return nil
	},
	RunE: run,
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the process, "prod", "dev", or "demo"`)
	rootCmd.PersistentFlags().String("queue-name", "/task_queue", "shared queue name")
	rootCmd.PersistentFlags().Int("queue-capacity", 100, "shared queue capacity")
	rootCmd.PersistentFlags().Int("quantum-ms", 100, "scheduler time quantum, in milliseconds")
	rootCmd.PersistentFlags().String("policy", "round-robin", "scheduling policy: round-robin, static-priority, dynamic-priority")
	rootCmd.PersistentFlags().String("metrics-addr", ":9090", "metrics listen address")
	rootCmd.PersistentFlags().String("logs-dir", "logs", "log directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "history store driver: sqlite, postgres")
	rootCmd.PersistentFlags().String("dsn", "", "history store DSN")
	rootCmd.PersistentFlags().String("data", "", "data directory")

	for _, name := range []string{
		"mode", "queue-name", "queue-capacity", "quantum-ms", "policy",
		"metrics-addr", "logs-dir", "driver", "dsn", "data",
	} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("taskscheduler")
	viper.AutomaticEnv()
}

// buildProfile fills a Profile from TASKSCHEDULER_* environment
// variables first, then overlays any flag the caller set explicitly,
// so a flag always wins over its matching environment variable.
func buildProfile() (*profile.Profile, error) {
	p := &profile.Profile{}
	p.FromEnv()

	p.Version = version.GetCurrentVersion(viper.GetString("mode"))
	p.Data = viper.GetString("data")

	overlay := map[string]*string{
		"mode":         &p.Mode,
		"queue-name":   &p.QueueName,
		"policy":       &p.PolicyName,
		"metrics-addr": &p.MetricsAddr,
		"logs-dir":     &p.LogsDir,
		"driver":       &p.Driver,
		"dsn":          &p.DSN,
	}
	for flag, field := range overlay {
		if viper.IsSet(flag) {
			*field = viper.GetString(flag)
		}
	}
	if viper.IsSet("queue-capacity") {
		p.QueueCapacity = viper.GetInt("queue-capacity")
	}
	if viper.IsSet("quantum-ms") {
		p.DefaultQuantumMs = viper.GetInt("quantum-ms")
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

func selectPolicy(name string) policy.SchedulingPolicy {
	switch name {
	case "static-priority":
		return policy.NewStaticPriority()
	case "dynamic-priority":
		return policy.NewDynamicPriority()
	default:
		return policy.NewRoundRobin()
	}
}

func openHistory(p *profile.Profile) (*history.Store, error) {
	switch p.Driver {
	case "postgres":
		db, err := postgres.Open(p.DSN)
		if err != nil {
			return nil, err
		}
		return history.New(db), nil
	default:
		db, err := sqlite.Open(p.DSN)
		if err != nil {
			return nil, err
		}
		return history.New(db), nil
	}
}

func run(cmd *cobra.Command, args []string) error {
	p, err := buildProfile()
	if err != nil {
		return err
	}

	sink, err := logx.NewFileSink(p.LogsDir, "scheduler.log")
	if err != nil {
		return err
	}
	errSink, err := logx.NewFileSink(p.LogsDir, "scheduler.error.log")
	if err != nil {
		return err
	}
	logger := logx.NewLogger(sink, errSink)

	queue := ipc.NewSharedTaskQueue(ipc.DefaultSegmentDir(), p.QueueName)
	if err := queue.Create(uint32(p.QueueCapacity)); err != nil {
		// A segment of this name may already exist from a prior run;
		// attach to it instead of failing outright.
		if attachErr := queue.Attach(); attachErr != nil {
			return fmt.Errorf("queue: create failed (%v), attach failed (%w)", err, attachErr)
		}
	}
	defer queue.Detach()

	historyStore, err := openHistory(p)
	if err != nil {
		return fmt.Errorf("history store: %w", err)
	}
	defer historyStore.Close()

	exporter := metrics.New(func() float64 {
		n, err := queue.Size()
		if err != nil {
			return 0
		}
		return float64(n)
	})

	sched := scheduler.New(queue,
		scheduler.WithPolicy(selectPolicy(p.PolicyName)),
		scheduler.WithQuantum(time.Duration(p.DefaultQuantumMs)*time.Millisecond),
		scheduler.WithLogger(logger),
		scheduler.WithHistory(historyStore),
		scheduler.WithMetrics(exporter),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: start: %w", err)
	}

	metricsServer := &http.Server{Addr: p.MetricsAddr, Handler: exporter.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	fmt.Printf("taskscheduler-run %s started: queue=%s policy=%s quantum=%dms\n",
		p.Version, p.QueueName, p.PolicyName, p.DefaultQuantumMs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, terminationSignals...)
	<-sigCh

	sched.Stop()
	_ = metricsServer.Shutdown(context.Background())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
