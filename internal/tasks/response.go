package tasks

// Status is the outcome of a request
type Status string

const (
	// Failed is terminal for the request's host
	Failed Status = "failed"

	// Skipped means a conditional excluded the task
	Skipped Status = "skipped"

	// Evaluated means every field resolved
	Evaluated Status = "evaluated"
)

// TaskResponse is the result of a request. A failed response is also an
// error so accessors can return it through an ordinary error result.
type TaskResponse struct {
	Status  Status       `json:"status"`
	Message string       `json:"message,omitempty"`
	Host    string       `json:"host,omitempty"`
	Request *TaskRequest `json:"request,omitempty"`
}

// Error returns the failure message
func (r *TaskResponse) Error() string {
	return r.Message
}

// IsFailed reports whether the response is a failure
func (r *TaskResponse) IsFailed() bool {
	return r.Status == Failed
}
