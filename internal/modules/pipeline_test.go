package modules

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aescanero/dago-node-fields/internal/playbook"
)

func TestPipeline_EvaluateTask(t *testing.T) {
	runState, inv := newRunState(t, playbook.ModeApply)
	hosts := inv.Hosts()

	task, err := ParseTask([]byte(`
name: open port
when: "'web' in groups"
wait_for:
  host: "{{inventory_hostname}}"
  port: "{{http_port}}"
  open: true
`))
	require.NoError(t, err)

	results, err := NewPipeline(runState, zap.NewNop(), 2).EvaluateTask(context.Background(), task, hosts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// inventory order: db1, web1, web2
	assert.Equal(t, "db1.example.com", results[0].Host)
	assert.True(t, results[0].Skipped)
	assert.Nil(t, results[0].Fields)

	assert.Equal(t, "web1.example.com", results[1].Host)
	assert.False(t, results[1].Failed())
	assert.Equal(t, int64(8080), results[1].Fields.(WaitForFields).Port)

	assert.Equal(t, int64(9090), results[2].Fields.(WaitForFields).Port)
}

func TestPipeline_LogsHostOutcomes(t *testing.T) {
	runState, inv := newRunState(t, playbook.ModeApply)
	core, logs := observer.New(zapcore.DebugLevel)

	task, err := ParseTask([]byte(`
name: greet
when: "'web' in groups"
debug:
  msg: "{{inventory_hostname}}"
`))
	require.NoError(t, err)

	_, err = NewPipeline(runState, zap.New(core), 0).EvaluateTask(context.Background(), task, inv.Hosts())
	require.NoError(t, err)

	skipped := logs.FilterMessage("task skipped").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "db1.example.com", skipped[0].ContextMap()["host"])

	evaluated := logs.FilterMessage("task evaluated").All()
	require.Len(t, evaluated, 2)
	for _, entry := range evaluated {
		assert.Equal(t, "greet", entry.ContextMap()["task"])
	}
}

func TestPipeline_FailureIsPerHost(t *testing.T) {
	runState, inv := newRunState(t, playbook.ModeApply)

	// db1 has no http_port, so its port renders empty
	task, err := ParseTask([]byte(`
wait_for:
  host: localhost
  port: "{{http_port}}"
  open: false
`))
	require.NoError(t, err)

	results, err := NewPipeline(runState, nil, 0).EvaluateTask(context.Background(), task, inv.Hosts())
	require.NoError(t, err)

	assert.Equal(t, "evaluated to empty string", results[0].Error)
	assert.True(t, results[0].Failed())
	assert.False(t, results[1].Failed())
	assert.False(t, results[2].Failed())
}

func TestPipeline_WhenErrors(t *testing.T) {
	runState, inv := newRunState(t, playbook.ModeApply)
	host, _ := inv.Host("web1.example.com")

	task, err := ParseTask([]byte("when: \"vars.nope == 1\"\ndebug: {}\n"))
	require.NoError(t, err)

	results, err := NewPipeline(runState, nil, 1).EvaluateTask(context.Background(), task, inv.Hosts()[1:2])
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, host.Name(), results[0].Host)
	assert.Contains(t, results[0].Error, "no such key")
}

func TestPipeline_SyntaxOnlyTemplatedWhen(t *testing.T) {
	runState, inv := newRunState(t, playbook.ModeSyntaxOnly)

	task, err := ParseTask([]byte(`
when: "vars.package == '{{expected}}'"
shell:
  cmd: "systemctl restart {{service}}"
  timeout: "{{restart_timeout}}"
`))
	require.NoError(t, err)

	results, err := NewPipeline(runState, nil, 0).EvaluateTask(context.Background(), task, inv.Hosts())
	require.NoError(t, err)

	for _, result := range results {
		assert.False(t, result.Skipped, result.Host)
		assert.False(t, result.Failed(), result.Host)
		shell := result.Fields.(ShellFields)
		assert.Equal(t, "", shell.Cmd)
		require.NotNil(t, shell.Timeout)
		assert.Equal(t, int64(0), *shell.Timeout)
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	runState, inv := newRunState(t, playbook.ModeApply)
	task, err := ParseTask([]byte("debug: {}"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewPipeline(runState, nil, 1).EvaluateTask(ctx, task, inv.Hosts())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_EvaluateTasksDropsFailedHosts(t *testing.T) {
	runState, inv := newRunState(t, playbook.ModeApply)

	taskList, err := ParseTasks([]byte(`
- assert:
    that: ["vars.package == 'nginx'"]
- debug:
    msg: "{{package}}"
`))
	require.NoError(t, err)

	all, err := NewPipeline(runState, nil, 0).EvaluateTasks(context.Background(), taskList, inv.Hosts())
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.Len(t, all[0], 3)
	assert.Equal(t, "assertion failed: vars.package == 'nginx'", all[0][0].Error)

	require.Len(t, all[1], 2)
	assert.Equal(t, "web1.example.com", all[1][0].Host)
	assert.Equal(t, "nginx", all[1][0].Fields.(DebugFields).Msg)
}

func TestHostResult_JSON(t *testing.T) {
	data, err := json.Marshal(HostResult{
		Host:   "web1",
		Fields: DebugFields{Msg: "hi"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"host":"web1","skipped":false,"fields":{"msg":"hi"}}`, string(data))
}
