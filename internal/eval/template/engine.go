package template

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
)

// Marker opens a template expression. Text without it is never parsed.
const Marker = "{{"

// Engine renders Handlebars templates
type Engine struct {
	cache map[string]*raymond.Template
	mu    sync.RWMutex
}

var registerOnce sync.Once

// NewEngine creates a new template engine
func NewEngine() *Engine {
	// raymond keeps helpers in a process-wide registry and panics on duplicates
	registerOnce.Do(registerHelpers)

	return &Engine{
		cache: make(map[string]*raymond.Template),
	}
}

// Render renders a template with the given data
func (e *Engine) Render(templateStr string, data interface{}) (string, error) {
	if !strings.Contains(templateStr, Marker) {
		return templateStr, nil
	}

	// Get or compile template
	tmpl, err := e.getTemplate(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	// Execute the template
	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// RenderScope renders a template against a blended variable scope. Values are
// emitted verbatim: field values are not HTML, and screening happens later.
func (e *Engine) RenderScope(templateStr string, scope map[string]interface{}) (string, error) {
	data, _ := unescaped(scope).(map[string]interface{})
	return e.Render(templateStr, data)
}

// getTemplate gets a compiled template from cache or compiles it
func (e *Engine) getTemplate(templateStr string) (*raymond.Template, error) {
	// Check cache first (read lock)
	e.mu.RLock()
	if tmpl, ok := e.cache[templateStr]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	// Compile the template (write lock)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if tmpl, ok := e.cache[templateStr]; ok {
		return tmpl, nil
	}

	// Parse and compile the template
	tmpl, err := raymond.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Cache the template
	e.cache[templateStr] = tmpl

	return tmpl, nil
}

// ValidateTemplate validates a template without rendering it
func (e *Engine) ValidateTemplate(templateStr string) error {
	_, err := raymond.Parse(templateStr)
	return err
}

// ClearCache clears the compiled template cache
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*raymond.Template)
}

// CacheSize returns the number of compiled templates held
func (e *Engine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// unescaped copies a scope value, turning every string into a SafeString so
// raymond does not HTML-escape it.
func unescaped(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return raymond.SafeString(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = unescaped(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = unescaped(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = raymond.SafeString(item)
		}
		return out
	default:
		return value
	}
}

// registerHelpers registers custom Handlebars helpers.
// Arguments arrive as SafeString, so helpers take interface{} and use raymond.Str.
func registerHelpers() {
	raymond.RegisterHelper("uppercase", func(str interface{}) raymond.SafeString {
		return raymond.SafeString(strings.ToUpper(raymond.Str(str)))
	})

	raymond.RegisterHelper("lowercase", func(str interface{}) raymond.SafeString {
		return raymond.SafeString(strings.ToLower(raymond.Str(str)))
	})

	raymond.RegisterHelper("trim", func(str interface{}) raymond.SafeString {
		return raymond.SafeString(strings.TrimSpace(raymond.Str(str)))
	})

	// default helper - return default value if first arg is empty
	raymond.RegisterHelper("default", func(value interface{}, defaultValue interface{}) interface{} {
		if value == nil || raymond.Str(value) == "" {
			return defaultValue
		}
		return value
	})

	raymond.RegisterHelper("eq", func(a, b interface{}) bool {
		return raymond.Str(a) == raymond.Str(b)
	})

	raymond.RegisterHelper("ne", func(a, b interface{}) bool {
		return raymond.Str(a) != raymond.Str(b)
	})

	raymond.RegisterHelper("gt", func(a, b interface{}) bool {
		x, y, ok := numbers(a, b)
		return ok && x > y
	})

	raymond.RegisterHelper("lt", func(a, b interface{}) bool {
		x, y, ok := numbers(a, b)
		return ok && x < y
	})

	raymond.RegisterHelper("contains", func(str, substr interface{}) bool {
		return strings.Contains(raymond.Str(str), raymond.Str(substr))
	})

	raymond.RegisterHelper("join", func(arr []interface{}, sep interface{}) raymond.SafeString {
		strs := make([]string, len(arr))
		for i, v := range arr {
			strs[i] = raymond.Str(v)
		}
		return raymond.SafeString(strings.Join(strs, raymond.Str(sep)))
	})

	raymond.RegisterHelper("len", func(value interface{}) int {
		switch v := value.(type) {
		case raymond.SafeString:
			return len(v)
		case string:
			return len(v)
		case []interface{}:
			return len(v)
		case map[string]interface{}:
			return len(v)
		default:
			return 0
		}
	})
}

func numbers(a, b interface{}) (float64, float64, bool) {
	x, errA := strconv.ParseFloat(raymond.Str(a), 64)
	y, errB := strconv.ParseFloat(raymond.Str(b), 64)
	return x, y, errA == nil && errB == nil
}
