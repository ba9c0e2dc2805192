package modules

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

// TemplateTask renders a control-node template to the managed host
type TemplateTask struct {
	Src        string `yaml:"src"`
	Dest       string `yaml:"dest"`
	Attributes `yaml:",inline"`
}

// TemplateFields are the resolved template fields including the rendered body
type TemplateFields struct {
	Src        string     `json:"src"`
	Dest       string     `json:"dest"`
	Content    string     `json:"content"`
	Attributes Attributes `json:"attributes"`
}

func (TemplateFields) ModuleName() string { return "template" }

// Evaluate locates the template under templates/, reads it and renders it with
// the template module scope.
func (t *TemplateTask) Evaluate(h *handle.Handle, req *tasks.TaskRequest) (Evaluated, error) {
	src, err := h.Template.FindTemplatePath(req, "src", t.Src)
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

	fields := TemplateFields{Src: src, Dest: dest, Attributes: attrs}
	if src == "" {
		// src was skipped in a syntax-only run
		return fields, nil
	}

	data, err := afero.ReadFile(h.Template.GetRunState().Fs, src)
	if err != nil {
		return nil, h.Response.IsFailed(req, fmt.Sprintf("unable to read template %s: %v", src, err))
	}
	fields.Content, err = h.Template.StringForTemplateModuleUseOnly(req, "src", string(data))
	if err != nil {
		return nil, err
	}
	return fields, nil
}
