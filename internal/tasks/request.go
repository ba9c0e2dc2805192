// Package tasks holds the request and response values that flow between the
// task traversal and the module field accessors.
package tasks

import "github.com/google/uuid"

// RequestType is the phase a request belongs to
type RequestType string

// Validate checks and evaluates a task's fields
const Validate RequestType = "validate"

// TaskRequest identifies one in-flight unit of work
type TaskRequest struct {
	ID     string      `json:"id"`
	Task   string      `json:"task"`
	Module string      `json:"module"`
	Type   RequestType `json:"type"`
}

// NewRequest creates a request with a fresh ID
func NewRequest(task, module string, requestType RequestType) *TaskRequest {
	return &TaskRequest{
		ID:     uuid.NewString(),
		Task:   task,
		Module: module,
		Type:   requestType,
	}
}
