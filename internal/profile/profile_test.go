package profile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"TASKSCHEDULER_QUEUE_NAME",
		"TASKSCHEDULER_QUEUE_CAPACITY",
		"TASKSCHEDULER_SEGMENT_DIR",
		"TASKSCHEDULER_QUANTUM_MS",
		"TASKSCHEDULER_POLICY",
		"TASKSCHEDULER_COMMAND_ADDR",
		"TASKSCHEDULER_MAX_CONNECTIONS",
		"TASKSCHEDULER_METRICS_ADDR",
		"TASKSCHEDULER_LOGS_DIR",
		"TASKSCHEDULER_DB_DRIVER",
		"TASKSCHEDULER_DB_DSN",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "/task_queue", p.QueueName)
	require.Equal(t, 100, p.QueueCapacity)
	require.Equal(t, 100, p.DefaultQuantumMs)
	require.Equal(t, "round-robin", p.PolicyName)
	require.Equal(t, ":8080", p.CommandAddr)
	require.Equal(t, 64, p.MaxConnections)
	require.Equal(t, ":9090", p.MetricsAddr)
	require.Equal(t, "logs", p.LogsDir)
	require.Equal(t, "sqlite", p.Driver)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Cleanup(func() { clearEnv(t) })

	os.Setenv("TASKSCHEDULER_QUEUE_NAME", "/custom_queue")
	os.Setenv("TASKSCHEDULER_QUEUE_CAPACITY", "50")
	os.Setenv("TASKSCHEDULER_POLICY", "dynamic-priority")

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "/custom_queue", p.QueueName)
	require.Equal(t, 50, p.QueueCapacity)
	require.Equal(t, "dynamic-priority", p.PolicyName)
}

func TestValidateRejectsBadCapacity(t *testing.T) {
	p := &Profile{QueueCapacity: 0, PolicyName: "round-robin", DefaultQuantumMs: 100, Data: t.TempDir()}
	require.Error(t, p.Validate())

	p.QueueCapacity = 20000
	require.Error(t, p.Validate())
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	p := &Profile{QueueCapacity: 10, PolicyName: "bogus", DefaultQuantumMs: 100, Data: t.TempDir()}
	require.Error(t, p.Validate())
}

func TestValidateDerivesSqliteDSN(t *testing.T) {
	p := &Profile{
		QueueCapacity:    10,
		PolicyName:       "round-robin",
		DefaultQuantumMs: 100,
		Driver:           "sqlite",
		Data:             t.TempDir(),
	}
	require.NoError(t, p.Validate())
	require.NotEmpty(t, p.DSN)
	require.Equal(t, "demo", p.Mode)
}

func TestValidateNormalizesUnknownMode(t *testing.T) {
	p := &Profile{
		Mode:             "bogus-mode",
		QueueCapacity:    10,
		PolicyName:       "round-robin",
		DefaultQuantumMs: 100,
		Data:             t.TempDir(),
	}
	require.NoError(t, p.Validate())
	require.Equal(t, "demo", p.Mode)
}
