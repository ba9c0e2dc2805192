/*
Package handle gives module code typed, screened access to raw task fields.

A Handle is built per task and host. Its Template resolves each field through
the shared playbook context and reports every problem as a failed
*tasks.TaskResponse, which also satisfies error.

	h := handle.NewHandle(runState, host, logger)

	cmd, err := h.Template.String(req, "cmd", raw.Cmd)
	if err != nil {
		return err
	}
	timeout, err := h.Template.IntegerOption(req, "timeout", raw.Timeout)

In a syntax-only run, fields containing "{{" are not evaluated. Accessors
return a fixed placeholder instead:

	String, Path, Find*Path   ""
	Integer                   0
	Boolean                   false
	TestCond                  true
	StringOption*             pointer to ""
	IntegerOption             pointer to 0
	BooleanOptionDefaultNone  nil

Literal values are always validated, whatever the mode.
*/
package handle
