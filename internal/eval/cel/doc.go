// Package cel provides the CEL (Common Expression Language) evaluator behind task
// conditionals such as `when:` and `assert.that`.
//
// CEL is a non-Turing complete expression language that provides fast, safe evaluation
// of conditions. Three variables are bound for every evaluation:
//   - vars: the host's blended variable scope (map<string, dyn>)
//   - host: the inventory hostname
//   - groups: the names of the groups the host belongs to
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	activation := cel.Activation(map[string]interface{}{
//	    "os_family": "debian",
//	    "http_port": 8080,
//	}, "web1", []string{"web"})
//
//	ok, err := evaluator.Test("vars.os_family == 'debian' && 'web' in groups", activation)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// ok == true
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >=
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches
//   - List operations: in, size
//   - Map access: vars.field, vars["field"], has(vars.field)
package cel
