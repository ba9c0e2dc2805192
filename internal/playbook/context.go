package playbook

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aescanero/dago-node-fields/internal/eval/cel"
	"github.com/aescanero/dago-node-fields/internal/eval/template"
	"github.com/aescanero/dago-node-fields/internal/inventory"
	"go.uber.org/zap"
)

// Renderer expands a template against a variable scope
type Renderer interface {
	RenderScope(templateStr string, scope map[string]interface{}) (string, error)
}

// ConditionEvaluator evaluates a boolean expression against an activation
type ConditionEvaluator interface {
	Test(expression string, activation map[string]interface{}) (bool, error)
}

// Context is the playbook-wide variable state shared by all host pipelines.
// Renders and condition tests hold the read lock for exactly one call.
type Context struct {
	mu         sync.RWMutex
	renderer   Renderer
	conditions ConditionEvaluator
	logger     *zap.Logger

	defaults  map[string]interface{}
	playVars  map[string]interface{}
	roleVars  map[string]interface{}
	extraVars map[string]interface{}
	env       map[string]interface{}
	groups    map[string]interface{}
}

// NewContext creates a playbook context
func NewContext(renderer Renderer, conditions ConditionEvaluator, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		renderer:   renderer,
		conditions: conditions,
		logger:     logger,
		defaults:   map[string]interface{}{},
		playVars:   map[string]interface{}{},
		roleVars:   map[string]interface{}{},
		extraVars:  map[string]interface{}{},
		env:        map[string]interface{}{},
		groups:     map[string]interface{}{},
	}
}

// NewDefaultContext wires the Handlebars renderer and the CEL evaluator
func NewDefaultContext(logger *zap.Logger) *Context {
	return NewContext(template.NewEngine(), cel.NewEvaluator(), logger)
}

// SetInventory publishes group membership as the "groups" magic variable
func (c *Context) SetInventory(inv *inventory.Inventory) {
	groups := make(map[string]interface{})
	for name, members := range inv.GroupMembers() {
		list := make([]interface{}, len(members))
		for i, member := range members {
			list[i] = member
		}
		groups[name] = list
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = groups
}

// SetDefaults replaces role defaults, the lowest precedence layer
func (c *Context) SetDefaults(vars map[string]interface{}) {
	c.set(&c.defaults, vars)
}

// SetPlayVars replaces play variables
func (c *Context) SetPlayVars(vars map[string]interface{}) {
	c.set(&c.playVars, vars)
}

// SetRoleVars replaces role variables
func (c *Context) SetRoleVars(vars map[string]interface{}) {
	c.set(&c.roleVars, vars)
}

// SetExtraVars replaces extra variables, the highest precedence layer
func (c *Context) SetExtraVars(vars map[string]interface{}) {
	c.set(&c.extraVars, vars)
}

// SetEnvironment snapshots control-node environment variables ("KEY=value")
func (c *Context) SetEnvironment(environ []string) {
	env := make(map[string]interface{}, len(environ))
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if ok && key != "" {
			env[key] = value
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.env = env
}

// ClearCaches drops compiled templates and conditions held by the evaluators
func (c *Context) ClearCaches() {
	if cache, ok := c.renderer.(interface{ ClearCache() }); ok {
		cache.ClearCache()
	}
	if cache, ok := c.conditions.(interface{ ClearCache() }); ok {
		cache.ClearCache()
	}
}

func (c *Context) set(layer *map[string]interface{}, vars map[string]interface{}) {
	copied := make(map[string]interface{}, len(vars))
	blendVariables(copied, vars)

	c.mu.Lock()
	defer c.mu.Unlock()
	*layer = copied
}

// Variables returns the blended scope for a host
func (c *Context) Variables(host *inventory.Host, blend BlendTarget) map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blendLocked(host, blend)
}

// blendLocked builds defaults < groups < host < facts < play < role < extra,
// then adds magic variables. Caller holds the read lock.
func (c *Context) blendLocked(host *inventory.Host, blend BlendTarget) map[string]interface{} {
	blended := make(map[string]interface{})
	blendVariables(blended, c.defaults)
	for _, group := range host.Groups() {
		blendVariables(blended, group.Variables())
	}
	blendVariables(blended, host.Variables())
	blendVariables(blended, host.Facts())
	blendVariables(blended, c.playVars)
	blendVariables(blended, c.roleVars)
	blendVariables(blended, c.extraVars)

	groupNames := host.GroupNames()
	names := make([]interface{}, len(groupNames))
	for i, name := range groupNames {
		names[i] = name
	}
	blended[VarInventoryHostname] = host.Name()
	blended[VarGroupNames] = names
	blended[VarGroups] = c.groups

	if blend == TemplateModule {
		blended[VarEnv] = c.env
	}

	return blended
}

// RenderTemplate expands a template against the host's scope
func (c *Context) RenderTemplate(templateStr string, host *inventory.Host, blend BlendTarget) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scope := c.blendLocked(host, blend)
	result, err := c.renderer.RenderScope(templateStr, scope)
	if err != nil {
		c.logger.Debug("template render failed",
			zap.String("host", host.Name()),
			zap.Stringer("blend", blend),
			zap.Error(err),
		)
		return "", err
	}
	return result, nil
}

// TestCond evaluates a conditional for a host. Template markers inside the
// expression are expanded first.
func (c *Context) TestCond(expression string, host *inventory.Host) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scope := c.blendLocked(host, NotTemplateModule)

	expr := expression
	if strings.Contains(expr, template.Marker) {
		rendered, err := c.renderer.RenderScope(expr, scope)
		if err != nil {
			return false, fmt.Errorf("failed to expand condition: %w", err)
		}
		expr = rendered
	}
	if strings.TrimSpace(expr) == "" {
		return false, fmt.Errorf("condition is empty: %s", expression)
	}

	matched, err := c.conditions.Test(expr, cel.Activation(scope, host.Name(), host.GroupNames()))
	if err != nil {
		c.logger.Debug("condition failed",
			zap.String("host", host.Name()),
			zap.String("condition", expression),
			zap.Error(err),
		)
		return false, err
	}
	return matched, nil
}
