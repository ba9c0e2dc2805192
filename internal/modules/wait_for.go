package modules

import (
	"fmt"

	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

const maxPort = 65535

// WaitForTask waits for a TCP port to open or close
type WaitForTask struct {
	Host    string  `yaml:"host"`
	Port    string  `yaml:"port"`
	Timeout *string `yaml:"timeout"`
	Open    string  `yaml:"open"`
}

// WaitForFields are the resolved wait_for fields
type WaitForFields struct {
	Host    string `json:"host"`
	Port    int64  `json:"port"`
	Timeout *int64 `json:"timeout,omitempty"`
	Open    bool   `json:"open"`
}

func (WaitForFields) ModuleName() string { return "wait_for" }

// Evaluate resolves the wait_for fields
func (t *WaitForTask) Evaluate(h *handle.Handle, req *tasks.TaskRequest) (Evaluated, error) {
	host, err := h.Template.StringNoSpaces(req, "host", t.Host)
	if err != nil {
		return nil, err
	}
	port, err := h.Template.Integer(req, "port", t.Port)
	if err != nil {
		return nil, err
	}
	if port < 0 || port > maxPort {
		return nil, h.Response.IsFailed(req, fmt.Sprintf("field (port) out of range: %d", port))
	}
	timeout, err := h.Template.IntegerOption(req, "timeout", t.Timeout)
	if err != nil {
		return nil, err
	}
	open, err := h.Template.Boolean(req, "open", t.Open)
	if err != nil {
		return nil, err
	}
	return WaitForFields{Host: host, Port: port, Timeout: timeout, Open: open}, nil
}
