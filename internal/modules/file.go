package modules

import (
	"fmt"

	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

// File states
const (
	StateFile      = "file"
	StateDirectory = "directory"
	StateAbsent    = "absent"
)

// FileTask manages a path on the managed host
type FileTask struct {
	Path       string  `yaml:"path"`
	State      *string `yaml:"state"`
	Recurse    *string `yaml:"recurse"`
	Attempts   *string `yaml:"attempts"`
	Attributes `yaml:",inline"`
}

// FileFields are the resolved file fields
type FileFields struct {
	Path       string     `json:"path"`
	State      string     `json:"state"`
	Recurse    *bool      `json:"recurse,omitempty"`
	Attempts   *int64     `json:"attempts,omitempty"`
	Attributes Attributes `json:"attributes"`
}

func (FileFields) ModuleName() string { return "file" }

// Evaluate resolves the file fields. state defaults to "file".
func (t *FileTask) Evaluate(h *handle.Handle, req *tasks.TaskRequest) (Evaluated, error) {
	path, err := h.Template.Path(req, "path", t.Path)
	if err != nil {
		return nil, err
	}

	state := StateFile
	if t.State != nil {
		state, err = h.Template.StringNoSpaces(req, "state", *t.State)
		if err != nil {
			return nil, err
		}
	}
	switch state {
	case StateFile, StateDirectory, StateAbsent, "":
	default:
		return nil, h.Response.IsFailed(req, fmt.Sprintf("field (state): must be one of file, directory, absent: %s", state))
	}

	recurse, err := h.Template.BooleanOptionDefaultNone(req, "recurse", t.Recurse)
	if err != nil {
		return nil, err
	}
	attempts, err := h.Template.IntegerOption(req, "attempts", t.Attempts)
	if err != nil {
		return nil, err
	}
	attrs, err := t.Attributes.evaluate(h, req)
	if err != nil {
		return nil, err
	}

	return FileFields{
		Path:       path,
		State:      state,
		Recurse:    recurse,
		Attempts:   attempts,
		Attributes: attrs,
	}, nil
}
