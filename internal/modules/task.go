package modules

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

// Module is a decoded task body whose raw fields are still unevaluated
type Module interface {
	Evaluate(h *handle.Handle, req *tasks.TaskRequest) (Evaluated, error)
}

// Evaluated holds a module's resolved field values
type Evaluated interface {
	ModuleName() string
}

// Decoder turns a task body into a Module
type Decoder func(node *yaml.Node) (Module, error)

var registry = map[string]Decoder{
	"assert":   func(n *yaml.Node) (Module, error) { return decode(n, &AssertTask{}) },
	"copy":     func(n *yaml.Node) (Module, error) { return decode(n, &CopyTask{}) },
	"debug":    func(n *yaml.Node) (Module, error) { return decode(n, &DebugTask{}) },
	"file":     func(n *yaml.Node) (Module, error) { return decode(n, &FileTask{}) },
	"shell":    func(n *yaml.Node) (Module, error) { return decode(n, &ShellTask{}) },
	"template": func(n *yaml.Node) (Module, error) { return decode(n, &TemplateTask{}) },
	"wait_for": func(n *yaml.Node) (Module, error) { return decode(n, &WaitForTask{}) },
}

// Lookup returns the decoder for a module name
func Lookup(name string) (Decoder, error) {
	decoder, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown module: %s", name)
	}
	return decoder, nil
}

// Names returns the registered module names, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decode re-reads the node with unknown fields rejected
func decode(node *yaml.Node, into Module) (Module, error) {
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return into, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("module body must be a mapping")
	}

	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode module body: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(into); err != nil {
		return nil, fmt.Errorf("invalid module body: %w", err)
	}
	return into, nil
}

// Task is one entry of a task list: a name, an optional conditional and
// exactly one module.
type Task struct {
	Name   string
	When   *string
	Module string
	Body   Module
}

// reserved task keys that are not module names
const (
	keyName = "name"
	keyWhen = "when"
)

// ParseTask decodes a single task from YAML
func ParseTask(data []byte) (*Task, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("task is empty")
	}
	return taskFromNode(doc.Content[0])
}

// ParseTasks decodes a YAML list of tasks
func ParseTasks(data []byte) ([]*Task, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tasks: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		task, err := taskFromNode(root)
		if err != nil {
			return nil, err
		}
		return []*Task{task}, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("tasks must be a list")
	}

	parsed := make([]*Task, 0, len(root.Content))
	for i, node := range root.Content {
		task, err := taskFromNode(node)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		parsed = append(parsed, task)
	}
	return parsed, nil
}

func taskFromNode(node *yaml.Node) (*Task, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("task must be a mapping")
	}

	task := &Task{}
	var moduleNames []string
	var body *yaml.Node

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case keyName:
			task.Name = value.Value
		case keyWhen:
			when := value.Value
			task.When = &when
		default:
			moduleNames = append(moduleNames, key.Value)
			body = value
		}
	}

	switch len(moduleNames) {
	case 0:
		return nil, fmt.Errorf("task has no module")
	case 1:
	default:
		return nil, fmt.Errorf("task names more than one module: %s", strings.Join(moduleNames, ", "))
	}

	task.Module = moduleNames[0]
	decoder, err := Lookup(task.Module)
	if err != nil {
		return nil, err
	}
	task.Body, err = decoder(body)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", task.Module, err)
	}
	if task.Name == "" {
		task.Name = task.Module
	}
	return task, nil
}
