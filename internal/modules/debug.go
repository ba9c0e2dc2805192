package modules

import (
	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

const defaultDebugMessage = "Hello world!"

// DebugTask prints a message
type DebugTask struct {
	Msg *string `yaml:"msg"`
}

// DebugFields are the resolved debug fields
type DebugFields struct {
	Msg string `json:"msg"`
}

func (DebugFields) ModuleName() string { return "debug" }

// Evaluate renders msg. The message is only printed, so it is not screened.
func (t *DebugTask) Evaluate(h *handle.Handle, req *tasks.TaskRequest) (Evaluated, error) {
	msg, err := h.Template.StringOptionUnsafe(req, "msg", t.Msg)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return DebugFields{Msg: defaultDebugMessage}, nil
	}
	return DebugFields{Msg: *msg}, nil
}
