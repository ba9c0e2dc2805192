/*
Package modules defines the task modules and evaluates their fields per host.

Each module decodes its raw YAML body into string fields and resolves them
through the handle's accessor, picking the accessor that matches how the
value will be used:

	# tasks.yaml
	- name: install
	  when: "vars.os_family == 'debian'"
	  shell:
	    cmd: "apt-get install -y {{package}}"
	    timeout: "{{install_timeout}}"

Parse and evaluate a task for a set of hosts:

	task, err := modules.ParseTask(data)
	if err != nil {
		return err
	}
	results, err := modules.NewPipeline(runState, logger, 8).EvaluateTask(ctx, task, hosts)

Registered modules: assert, copy, debug, file, shell, template, wait_for.
*/
package modules
