package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Activation variable names visible to conditions
const (
	VarVars   = "vars"
	VarHost   = "host"
	VarGroups = "groups"
)

// Evaluator evaluates CEL conditions against a host's scope
type Evaluator struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new CEL evaluator
func NewEvaluator() *Evaluator {
	// Create CEL environment with the host activation declarations
	env, err := cel.NewEnv(
		cel.Variable(VarVars, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(VarHost, cel.StringType),
		cel.Variable(VarGroups, cel.ListType(cel.StringType)),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create CEL environment: %v", err))
	}

	return &Evaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}
}

// Activation builds the variable bindings for one host
func Activation(vars map[string]interface{}, host string, groups []string) map[string]interface{} {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	if groups == nil {
		groups = []string{}
	}
	return map[string]interface{}{
		VarVars:   vars,
		VarHost:   host,
		VarGroups: groups,
	}
}

// Test evaluates a condition and requires a boolean result
func (e *Evaluator) Test(expression string, activation map[string]interface{}) (bool, error) {
	// Get or compile program
	program, err := e.getProgram(expression)
	if err != nil {
		return false, fmt.Errorf("failed to compile expression: %w", err)
	}

	// Evaluate the program
	out, _, err := program.Eval(activation)
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition did not return a boolean: %s", expression)
	}

	return matched, nil
}

// getProgram gets a compiled program from cache or compiles it
func (e *Evaluator) getProgram(expression string) (cel.Program, error) {
	// Check cache first (read lock)
	e.mu.RLock()
	if program, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	// Compile the expression (write lock)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if program, ok := e.cache[expression]; ok {
		return program, nil
	}

	// Parse the expression
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}

	// Generate the program
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	// Cache the program
	e.cache[expression] = program

	return program, nil
}

// ValidateExpression checks that an expression compiles and can yield a boolean.
// Expressions over vars are dyn-typed and only checked at evaluation time.
func (e *Evaluator) ValidateExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}

	switch outputType := ast.OutputType().String(); outputType {
	case "bool", "dyn":
		return nil
	default:
		return fmt.Errorf("condition must return bool, got %s", outputType)
	}
}

// ClearCache clears the compiled program cache
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cel.Program)
}

// CacheSize returns the number of compiled programs held
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
