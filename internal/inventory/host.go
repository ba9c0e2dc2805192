package inventory

import (
	"maps"
	"sort"
	"sync"

	"github.com/mitchellh/copystructure"
)

// Group is a named set of hosts sharing variables
type Group struct {
	name string
	mu   sync.RWMutex
	vars map[string]interface{}
}

// NewGroup creates a group with its own variables
func NewGroup(name string, vars map[string]interface{}) *Group {
	return &Group{name: name, vars: copyMap(vars)}
}

// Name returns the group name
func (g *Group) Name() string {
	return g.name
}

// Variables returns a copy of the group's variables
func (g *Group) Variables() map[string]interface{} {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyMap(g.vars)
}

// Host is a managed node and the variable scope templates resolve against.
// It is shared between the task pipelines that target it.
type Host struct {
	name   string
	mu     sync.RWMutex
	vars   map[string]interface{}
	groups map[string]*Group
	facts  map[string]interface{}
}

// NewHost creates a host with its own variables
func NewHost(name string, vars map[string]interface{}) *Host {
	return &Host{
		name:   name,
		vars:   copyMap(vars),
		groups: make(map[string]*Group),
		facts:  make(map[string]interface{}),
	}
}

// Name returns the inventory hostname
func (h *Host) Name() string {
	return h.name
}

// Variables returns a copy of the host's own variables
func (h *Host) Variables() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return copyMap(h.vars)
}

// Facts returns a copy of facts gathered for the host
func (h *Host) Facts() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return copyMap(h.facts)
}

// SetFacts replaces gathered facts
func (h *Host) SetFacts(facts map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.facts = copyMap(facts)
}

// AddGroup records group membership
func (h *Host) AddGroup(group *Group) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.groups[group.Name()] = group
}

// Groups returns the host's groups ordered by name
func (h *Host) Groups() []*Group {
	h.mu.RLock()
	defer h.mu.RUnlock()

	groups := make([]*Group, 0, len(h.groups))
	for _, group := range h.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Name() < groups[j].Name()
	})
	return groups
}

// GroupNames returns the names of the host's groups, sorted
func (h *Host) GroupNames() []string {
	groups := h.Groups()
	names := make([]string, len(groups))
	for i, group := range groups {
		names[i] = group.Name()
	}
	return names
}

// copyMap deep-copies nested maps and lists so callers can't alias host state
func copyMap(in map[string]interface{}) map[string]interface{} {
	if len(in) == 0 {
		return map[string]interface{}{}
	}
	out, err := copystructure.Copy(in)
	if err != nil {
		// values copystructure cannot walk, such as channels, stay shared
		return maps.Clone(in)
	}
	return out.(map[string]interface{})
}
