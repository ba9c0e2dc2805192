package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTask(t *testing.T) {
	task, err := ParseTask([]byte(`
name: install nginx
when: "vars.os == 'debian'"
shell:
  cmd: "apt-get install -y {{package}}"
  timeout: 30
  unsafe: false
`))
	require.NoError(t, err)

	assert.Equal(t, "install nginx", task.Name)
	require.NotNil(t, task.When)
	assert.Equal(t, "vars.os == 'debian'", *task.When)
	assert.Equal(t, "shell", task.Module)

	shell, ok := task.Body.(*ShellTask)
	require.True(t, ok)
	assert.Equal(t, "apt-get install -y {{package}}", shell.Cmd)
	require.NotNil(t, shell.Timeout)
	assert.Equal(t, "30", *shell.Timeout)
	require.NotNil(t, shell.Unsafe)
	assert.Equal(t, "false", *shell.Unsafe)
	assert.Nil(t, shell.Save)
}

func TestParseTask_DefaultsNameToModule(t *testing.T) {
	task, err := ParseTask([]byte("debug:\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", task.Name)
	assert.Nil(t, task.When)
	assert.IsType(t, &DebugTask{}, task.Body)
}

func TestParseTask_InlineAttributes(t *testing.T) {
	task, err := ParseTask([]byte(`
copy:
  src: motd
  dest: /etc/motd
  owner: root
  mode: "0644"
`))
	require.NoError(t, err)

	cp := task.Body.(*CopyTask)
	assert.Equal(t, "motd", cp.Src)
	require.NotNil(t, cp.Owner)
	assert.Equal(t, "root", *cp.Owner)
	assert.Equal(t, "0644", *cp.Mode)
	assert.Nil(t, cp.Group)
}

func TestParseTask_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{name: "empty", input: "", errMsg: "task is empty"},
		{name: "not a mapping", input: "- shell: {}", errMsg: "task must be a mapping"},
		{name: "no module", input: "name: nothing", errMsg: "task has no module"},
		{name: "two modules", input: "shell: {cmd: ls}\ndebug: {}", errMsg: "task names more than one module: shell, debug"},
		{name: "unknown module", input: "reboot: {}", errMsg: "unknown module: reboot"},
		{name: "unknown field", input: "shell: {cmd: ls, command: ls}", errMsg: "module shell: invalid module body"},
		{name: "body not a mapping", input: "shell: ls", errMsg: "module body must be a mapping"},
		{name: "bad yaml", input: "shell: [", errMsg: "failed to parse task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTask([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseTasks(t *testing.T) {
	parsed, err := ParseTasks([]byte(`
- name: first
  debug:
    msg: one
- assert:
    that:
      - "host == 'web1'"
`))
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "first", parsed[0].Name)
	assert.Equal(t, "assert", parsed[1].Module)
	assert.Equal(t, []string{"host == 'web1'"}, parsed[1].Body.(*AssertTask).That)

	single, err := ParseTasks([]byte("debug: {msg: hi}"))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = ParseTasks([]byte("- debug: {}\n- reboot: {}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task 1: unknown module: reboot")

	_, err = ParseTasks([]byte("just text"))
	assert.EqualError(t, err, "tasks must be a list")
}

func TestLookupAndNames(t *testing.T) {
	_, err := Lookup("shell")
	require.NoError(t, err)

	_, err = Lookup("nope")
	assert.EqualError(t, err, "unknown module: nope")

	assert.Equal(t, []string{"assert", "copy", "debug", "file", "shell", "template", "wait_for"}, Names())
}
