package handle

import (
	"github.com/aescanero/dago-node-fields/internal/tasks"
	"go.uber.org/zap"
)

// FailureReporter turns a message into a terminal failure for a request
type FailureReporter interface {
	IsFailed(request *tasks.TaskRequest, msg string) *tasks.TaskResponse
}

// Response builds task responses for one host
type Response struct {
	host   string
	logger *zap.Logger
}

// NewResponse creates a response builder for a host
func NewResponse(host string, logger *zap.Logger) *Response {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Response{host: host, logger: logger}
}

// IsFailed builds a failed response and logs it
func (r *Response) IsFailed(request *tasks.TaskRequest, msg string) *tasks.TaskResponse {
	fields := []zap.Field{
		zap.String("host", r.host),
		zap.String("message", msg),
	}
	if request != nil {
		fields = append(fields,
			zap.String("request_id", request.ID),
			zap.String("task", request.Task),
			zap.String("module", request.Module),
		)
	}
	r.logger.Warn("task failed", fields...)

	return &tasks.TaskResponse{
		Status:  tasks.Failed,
		Message: msg,
		Host:    r.host,
		Request: request,
	}
}

// IsSkipped builds a response for a task excluded by its conditional
func (r *Response) IsSkipped(request *tasks.TaskRequest) *tasks.TaskResponse {
	r.logger.Debug("task skipped",
		zap.String("host", r.host),
		zap.String("task", request.Task),
	)
	return &tasks.TaskResponse{
		Status:  tasks.Skipped,
		Host:    r.host,
		Request: request,
	}
}

// IsEvaluated builds a response for a task whose fields all resolved
func (r *Response) IsEvaluated(request *tasks.TaskRequest) *tasks.TaskResponse {
	r.logger.Debug("task evaluated",
		zap.String("host", r.host),
		zap.String("task", request.Task),
		zap.String("module", request.Module),
	)
	return &tasks.TaskResponse{
		Status:  tasks.Evaluated,
		Host:    r.host,
		Request: request,
	}
}
