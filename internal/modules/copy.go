package modules

import (
	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

// Attributes are the ownership and permission fields shared by file-like
// modules
type Attributes struct {
	Owner *string `yaml:"owner" json:"owner,omitempty"`
	Group *string `yaml:"group" json:"group,omitempty"`
	Mode  *string `yaml:"mode" json:"mode,omitempty"`
}

func (a Attributes) evaluate(h *handle.Handle, req *tasks.TaskRequest) (Attributes, error) {
	var out Attributes
	var err error
	if out.Owner, err = h.Template.StringOptionNoSpaces(req, "owner", a.Owner); err != nil {
		return out, err
	}
	if out.Group, err = h.Template.StringOptionNoSpaces(req, "group", a.Group); err != nil {
		return out, err
	}
	if out.Mode, err = h.Template.StringOptionNoSpaces(req, "mode", a.Mode); err != nil {
		return out, err
	}
	return out, nil
}

// CopyTask copies a control-node file to the managed host
type CopyTask struct {
	Src        string `yaml:"src"`
	Dest       string `yaml:"dest"`
	Attributes `yaml:",inline"`
}

// CopyFields are the resolved copy fields
type CopyFields struct {
	Src        string     `json:"src"`
	Dest       string     `json:"dest"`
	Attributes Attributes `json:"attributes"`
}

func (CopyFields) ModuleName() string { return "copy" }

// Evaluate resolves the copy fields. src must exist under files/ or at its
// absolute path.
func (t *CopyTask) Evaluate(h *handle.Handle, req *tasks.TaskRequest) (Evaluated, error) {
	src, err := h.Template.FindFilePath(req, "src", t.Src)
	if err != nil {
		return nil, err
	}
	dest, err := h.Template.Path(req, "dest", t.Dest)
	if err != nil {
		return nil, err
	}
	attrs, err := t.Attributes.evaluate(h, req)
	if err != nil {
		return nil, err
	}
	return CopyFields{Src: src, Dest: dest, Attributes: attrs}, nil
}
