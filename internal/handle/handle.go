package handle

import (
	"github.com/aescanero/dago-node-fields/internal/inventory"
	"github.com/aescanero/dago-node-fields/internal/playbook"
	"go.uber.org/zap"
)

// Handle is what module code receives for one task on one host
type Handle struct {
	Host     *inventory.Host
	Template *Template
	Response *Response
}

// NewHandle builds the accessor and failure reporter for a host
func NewHandle(runState *playbook.RunState, host *inventory.Host, logger *zap.Logger) *Handle {
	response := NewResponse(host.Name(), logger)
	return &Handle{
		Host:     host,
		Template: NewTemplate(runState, host, response),
		Response: response,
	}
}
