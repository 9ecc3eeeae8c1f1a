package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the scheduler and command server.
type Profile struct {
	Mode    string // demo, dev, prod
	Version string

	// Queue configuration (spec.md §6).
	QueueName     string
	QueueCapacity int
	SegmentDir    string

	// Scheduler configuration (spec.md §4.1, §4.3).
	DefaultQuantumMs int
	PolicyName       string // round-robin, static-priority, dynamic-priority

	// Command server configuration (spec.md §6).
	CommandAddr    string
	MaxConnections int

	// Metrics endpoint.
	MetricsAddr string

	// Logging configuration (spec.md §6).
	LogsDir string

	// History store configuration.
	Driver string // sqlite, postgres
	DSN    string

	Data string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from TASKSCHEDULER_* environment
// variables, falling back to defaults for unset ones. It reads the
// environment directly; cmd/taskscheduler-run calls it first and then
// overlays the flags it has bound with viper.
func (p *Profile) FromEnv() {
	p.QueueName = getEnvOrDefault("TASKSCHEDULER_QUEUE_NAME", "/task_queue")
	p.QueueCapacity = getEnvOrDefaultInt("TASKSCHEDULER_QUEUE_CAPACITY", 100)
	p.SegmentDir = getEnvOrDefault("TASKSCHEDULER_SEGMENT_DIR", "")

	p.DefaultQuantumMs = getEnvOrDefaultInt("TASKSCHEDULER_QUANTUM_MS", 100)
	p.PolicyName = getEnvOrDefault("TASKSCHEDULER_POLICY", "round-robin")

	p.CommandAddr = getEnvOrDefault("TASKSCHEDULER_COMMAND_ADDR", ":8080")
	p.MaxConnections = getEnvOrDefaultInt("TASKSCHEDULER_MAX_CONNECTIONS", 64)

	p.MetricsAddr = getEnvOrDefault("TASKSCHEDULER_METRICS_ADDR", ":9090")

	p.LogsDir = getEnvOrDefault("TASKSCHEDULER_LOGS_DIR", "logs")

	p.Driver = getEnvOrDefault("TASKSCHEDULER_DB_DRIVER", "sqlite")
	p.DSN = getEnvOrDefault("TASKSCHEDULER_DB_DSN", "")
}

var validPolicies = map[string]bool{
	"round-robin":      true,
	"static-priority":  true,
	"dynamic-priority": true,
}

func checkDataDir(dataDir string) (string, error) {
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}
	dataDir = strings.TrimRight(dataDir, "\\/")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes and sanity-checks the profile, filling in
// derived fields (DSN, Data) such as the sqlite DSN computed from
// Data when none was configured explicitly.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.QueueCapacity <= 0 || p.QueueCapacity > 10000 {
		return errors.Errorf("queue capacity %d out of range [1, 10000]", p.QueueCapacity)
	}
	if !validPolicies[p.PolicyName] {
		return errors.Errorf("unknown policy %q", p.PolicyName)
	}
	if p.DefaultQuantumMs <= 0 {
		return errors.Errorf("quantum must be positive, got %dms", p.DefaultQuantumMs)
	}

	if p.Data == "" {
		p.Data = "data"
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("taskscheduler_%s.db", p.Mode))
	}

	return nil
}
