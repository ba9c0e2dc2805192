// Package template provides the Handlebars engine that expands task field values.
//
// Field values carry template markers ({{ ... }}) that reference variables from the
// host's blended scope. The engine compiles each distinct template once and caches
// the parse tree; rendered output is never cached.
//
// Example usage:
//
//	engine := template.NewEngine()
//
//	scope := map[string]interface{}{
//	    "package": "nginx",
//	    "inventory_hostname": "web1",
//	}
//
//	out, err := engine.RenderScope("apt-get install {{package}}", scope)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Output: apt-get install nginx
//
// Scope values are rendered verbatim (no HTML escaping). Text without a marker is
// returned as-is without parsing.
//
// Built-in helpers:
//   - uppercase - Convert string to uppercase
//   - lowercase - Convert string to lowercase
//   - trim - Trim whitespace from string
//   - default - Return default value if first arg is empty
//   - eq - Equality comparison
//   - ne - Inequality comparison
//   - gt - Greater than (for numbers)
//   - lt - Less than (for numbers)
//   - contains - Check if string contains substring
//   - join - Join array elements with separator
//   - len - Get length of array/string/map
//
// Example with helpers:
//
//	{{uppercase name}}                      # "WEB1"
//	{{default port "8080"}}                 # "8080" if port is empty
//	{{#if (eq os_family "debian")}}...{{/if}}
//	{{join packages " "}}                   # "nginx curl"
package template
