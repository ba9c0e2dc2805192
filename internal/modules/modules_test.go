package modules

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/inventory"
	"github.com/aescanero/dago-node-fields/internal/playbook"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

const testInventory = `
hosts:
  web1.example.com:
    vars:
      http_port: "8080"
  web2.example.com:
    vars:
      http_port: "9090"
groups:
  web:
    hosts: [web1.example.com, web2.example.com]
    vars:
      package: nginx
      conf_dir: /etc/nginx
  db:
    hosts: [db1.example.com]
    vars:
      package: postgresql
`

func newRunState(t *testing.T, mode playbook.Mode) (*playbook.RunState, *inventory.Inventory) {
	t.Helper()

	inv, err := inventory.LoadBytes([]byte(testInventory))
	require.NoError(t, err)

	ctx := playbook.NewDefaultContext(zap.NewNop())
	ctx.SetInventory(inv)
	ctx.SetPlayVars(map[string]interface{}{
		"motd_owner": "root",
		"greeting":   "hello",
	})
	ctx.SetEnvironment([]string{"JET_DEPLOY_ENV=staging"})

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "files/motd", []byte("static"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "templates/nginx.conf.hbs",
		[]byte("listen {{http_port}}; # {{env.JET_DEPLOY_ENV}}"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "templates/empty.hbs", []byte(""), 0o644))

	return playbook.NewRunState(mode, ctx, fs), inv
}

func evaluate(t *testing.T, mode playbook.Mode, hostName, body string) (Evaluated, error) {
	t.Helper()

	runState, inv := newRunState(t, mode)
	host, ok := inv.Host(hostName)
	require.True(t, ok)

	task, err := ParseTask([]byte(body))
	require.NoError(t, err)

	h := handle.NewHandle(runState, host, zap.NewNop())
	return task.Body.Evaluate(h, tasks.NewRequest(task.Name, task.Module, tasks.Validate))
}

func failure(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	resp, ok := err.(*tasks.TaskResponse)
	require.True(t, ok, "expected *tasks.TaskResponse, got %T", err)
	return resp.Message
}

func TestShell(t *testing.T) {
	fields, err := evaluate(t, playbook.ModeApply, "web1.example.com", `
shell:
  cmd: "apt-get install -y {{package}}"
  save: result
  timeout: "60"
  failed_when: "  vars.rc != 0  "
`)
	require.NoError(t, err)

	shell := fields.(ShellFields)
	assert.Equal(t, "apt-get install -y nginx", shell.Cmd)
	assert.False(t, shell.Unsafe)
	assert.Equal(t, "result", *shell.Save)
	assert.Equal(t, int64(60), *shell.Timeout)
	assert.Equal(t, "vars.rc != 0", *shell.FailedWhen)
	assert.Nil(t, shell.ChangedWhen)
	assert.Equal(t, "shell", shell.ModuleName())
}

func TestShell_Screening(t *testing.T) {
	_, err := evaluate(t, playbook.ModeApply, "web1.example.com", `
shell:
  cmd: "ls | wc -l"
`)
	assert.Contains(t, failure(t, err), "field cmd, illegal characters found")

	fields, err := evaluate(t, playbook.ModeApply, "web1.example.com", `
shell:
  cmd: "ls | wc -l"
  unsafe: true
`)
	require.NoError(t, err)
	assert.Equal(t, "ls | wc -l", fields.(ShellFields).Cmd)
	assert.True(t, fields.(ShellFields).Unsafe)

	_, err = evaluate(t, playbook.ModeApply, "web1.example.com", `
shell:
  cmd: ls
  save: "two words"
`)
	assert.Equal(t, "field (save): spaces are not allowed", failure(t, err))
}

func TestCopy(t *testing.T) {
	fields, err := evaluate(t, playbook.ModeApply, "web1.example.com", `
copy:
  src: motd
  dest: "{{conf_dir}}/motd"
  owner: "{{motd_owner}}"
  mode: "0644"
`)
	require.NoError(t, err)

	cp := fields.(CopyFields)
	assert.Equal(t, "files/motd", cp.Src)
	assert.Equal(t, "/etc/nginx/motd", cp.Dest)
	assert.Equal(t, "root", *cp.Attributes.Owner)
	assert.Equal(t, "0644", *cp.Attributes.Mode)
	assert.Nil(t, cp.Attributes.Group)

	_, err = evaluate(t, playbook.ModeApply, "web1.example.com", `
copy:
  src: missing
  dest: /tmp/x
`)
	assert.Equal(t, "field (src): no such file: missing", failure(t, err))

	_, err = evaluate(t, playbook.ModeApply, "web1.example.com", `
copy:
  src: motd
  dest: /tmp/../etc/passwd
`)
	assert.Equal(t, "path contains traversal: /tmp/../etc/passwd, for field dest", failure(t, err))
}

func TestTemplate(t *testing.T) {
	fields, err := evaluate(t, playbook.ModeApply, "web2.example.com", `
template:
  src: nginx.conf.hbs
  dest: /etc/nginx/nginx.conf
`)
	require.NoError(t, err)

	tmpl := fields.(TemplateFields)
	assert.Equal(t, "templates/nginx.conf.hbs", tmpl.Src)
	assert.Equal(t, "listen 9090; # staging", tmpl.Content)

	_, err = evaluate(t, playbook.ModeApply, "web2.example.com", `
template:
  src: empty.hbs
  dest: /tmp/empty
`)
	assert.Equal(t, "evaluated to empty string", failure(t, err))
}

func TestTemplate_SyntaxOnly(t *testing.T) {
	fields, err := evaluate(t, playbook.ModeSyntaxOnly, "web1.example.com", `
template:
  src: "{{conf_name}}"
  dest: "{{conf_dir}}/nginx.conf"
`)
	require.NoError(t, err)

	tmpl := fields.(TemplateFields)
	assert.Equal(t, "", tmpl.Src)
	assert.Equal(t, "", tmpl.Dest)
	assert.Equal(t, "", tmpl.Content)

	// the template body itself is templated, so it is skipped too
	fields, err = evaluate(t, playbook.ModeSyntaxOnly, "web1.example.com", `
template:
  src: nginx.conf.hbs
  dest: /etc/nginx/nginx.conf
`)
	require.NoError(t, err)
	assert.Equal(t, "", fields.(TemplateFields).Content)
}

func TestDebug(t *testing.T) {
	fields, err := evaluate(t, playbook.ModeApply, "db1.example.com", "debug:\n  msg: \"{{greeting}} from {{inventory_hostname}} (x=1)\"\n")
	require.NoError(t, err)
	assert.Equal(t, "hello from db1.example.com (x=1)", fields.(DebugFields).Msg)

	fields, err = evaluate(t, playbook.ModeApply, "db1.example.com", "debug:\n")
	require.NoError(t, err)
	assert.Equal(t, defaultDebugMessage, fields.(DebugFields).Msg)
}

func TestAssert(t *testing.T) {
	fields, err := evaluate(t, playbook.ModeApply, "web1.example.com", `
assert:
  that:
    - "vars.package == 'nginx'"
    - "'web' in groups"
  msg: checked
`)
	require.NoError(t, err)
	assert.Equal(t, 2, fields.(AssertFields).Checked)
	assert.Equal(t, "checked", *fields.(AssertFields).Msg)

	_, err = evaluate(t, playbook.ModeApply, "db1.example.com", `
assert:
  that:
    - "host.startsWith('db')"
    - "vars.package == 'nginx'"
`)
	assert.Equal(t, "assertion failed: vars.package == 'nginx'", failure(t, err))

	_, err = evaluate(t, playbook.ModeApply, "db1.example.com", "assert: {}\n")
	assert.Equal(t, "field (that): at least one condition is required", failure(t, err))
}

func TestFile(t *testing.T) {
	fields, err := evaluate(t, playbook.ModeApply, "web1.example.com", `
file:
  path: "{{conf_dir}}/conf.d"
  state: directory
  recurse: "true"
  attempts: "3"
`)
	require.NoError(t, err)

	file := fields.(FileFields)
	assert.Equal(t, "/etc/nginx/conf.d", file.Path)
	assert.Equal(t, StateDirectory, file.State)
	require.NotNil(t, file.Recurse)
	assert.True(t, *file.Recurse)
	assert.Equal(t, int64(3), *file.Attempts)

	fields, err = evaluate(t, playbook.ModeApply, "web1.example.com", "file:\n  path: /tmp/x\n")
	require.NoError(t, err)
	assert.Equal(t, StateFile, fields.(FileFields).State)
	assert.Nil(t, fields.(FileFields).Recurse)

	_, err = evaluate(t, playbook.ModeApply, "web1.example.com", "file:\n  path: /tmp/x\n  state: link\n")
	assert.Equal(t, "field (state): must be one of file, directory, absent: link", failure(t, err))

	// a templated state is skipped, not rejected, in a syntax-only run
	fields, err = evaluate(t, playbook.ModeSyntaxOnly, "web1.example.com", "file:\n  path: /tmp/x\n  state: \"{{wanted}}\"\n")
	require.NoError(t, err)
	assert.Equal(t, "", fields.(FileFields).State)
}

func TestWaitFor(t *testing.T) {
	fields, err := evaluate(t, playbook.ModeApply, "web1.example.com", `
wait_for:
  host: "{{inventory_hostname}}"
  port: "{{http_port}}"
  timeout: 10
  open: true
`)
	require.NoError(t, err)

	wf := fields.(WaitForFields)
	assert.Equal(t, "web1.example.com", wf.Host)
	assert.Equal(t, int64(8080), wf.Port)
	assert.Equal(t, int64(10), *wf.Timeout)
	assert.True(t, wf.Open)

	_, err = evaluate(t, playbook.ModeApply, "web1.example.com", "wait_for: {host: a, port: 70000, open: true}\n")
	assert.Equal(t, "field (port) out of range: 70000", failure(t, err))

	_, err = evaluate(t, playbook.ModeApply, "web1.example.com", "wait_for: {host: a, port: http, open: true}\n")
	assert.Equal(t, "field (port) value is not an integer: http", failure(t, err))

	_, err = evaluate(t, playbook.ModeApply, "web1.example.com", "wait_for: {host: a, port: 80, open: yes}\n")
	assert.Equal(t, "field (open) value is not a boolean: yes", failure(t, err))
}
