package tasks

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	a := NewRequest("install", "shell", Validate)
	b := NewRequest("install", "shell", Validate)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "shell", a.Module)
	assert.Equal(t, Validate, a.Type)
}

func TestTaskResponse_AsError(t *testing.T) {
	req := NewRequest("install", "shell", Validate)
	var err error = &TaskResponse{Status: Failed, Message: "evaluated to empty string", Request: req}

	wrapped := fmt.Errorf("module shell: %w", err)

	var resp *TaskResponse
	require.True(t, errors.As(wrapped, &resp))
	assert.True(t, resp.IsFailed())
	assert.Same(t, req, resp.Request)
	assert.Equal(t, "evaluated to empty string", err.Error())
}
