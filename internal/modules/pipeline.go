package modules

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aescanero/dago-node-fields/internal/handle"
	"github.com/aescanero/dago-node-fields/internal/inventory"
	"github.com/aescanero/dago-node-fields/internal/playbook"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

// HostResult is the outcome of evaluating one task on one host
type HostResult struct {
	Host    string    `json:"host"`
	Skipped bool      `json:"skipped"`
	Fields  Evaluated `json:"fields,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Failed reports whether evaluation failed on the host
func (r HostResult) Failed() bool {
	return r.Error != ""
}

// Pipeline evaluates tasks across hosts with a bounded number of concurrent
// host pipelines
type Pipeline struct {
	runState    *playbook.RunState
	logger      *zap.Logger
	parallelism int
}

// NewPipeline creates a pipeline. parallelism <= 0 means unbounded.
func NewPipeline(runState *playbook.RunState, logger *zap.Logger, parallelism int) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		runState:    runState,
		logger:      logger,
		parallelism: parallelism,
	}
}

// EvaluateTask evaluates one task on every host. Results are in host order.
// A failure on one host never stops the others; only cancellation of ctx
// returns an error.
func (p *Pipeline) EvaluateTask(ctx context.Context, task *Task, hosts []*inventory.Host) ([]HostResult, error) {
	results := make([]HostResult, len(hosts))

	g, ctx := errgroup.WithContext(ctx)
	if p.parallelism > 0 {
		g.SetLimit(p.parallelism)
	}

	for i, host := range hosts {
		i, host := i, host
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.evaluateHost(task, host)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("task evaluated",
		zap.String("task", task.Name),
		zap.String("module", task.Module),
		zap.Int("hosts", len(hosts)),
	)
	return results, nil
}

// EvaluateTasks evaluates tasks in order. Hosts that fail a task are dropped
// from the remaining tasks.
func (p *Pipeline) EvaluateTasks(ctx context.Context, taskList []*Task, hosts []*inventory.Host) ([][]HostResult, error) {
	all := make([][]HostResult, 0, len(taskList))
	active := hosts

	for _, task := range taskList {
		results, err := p.EvaluateTask(ctx, task, active)
		if err != nil {
			return nil, err
		}
		all = append(all, results)

		remaining := make([]*inventory.Host, 0, len(active))
		for i, result := range results {
			if !result.Failed() {
				remaining = append(remaining, active[i])
			}
		}
		active = remaining
	}
	return all, nil
}

// evaluateHost owns its handle and host for the whole call
func (p *Pipeline) evaluateHost(task *Task, host *inventory.Host) HostResult {
	h := handle.NewHandle(p.runState, host, p.logger)
	req := tasks.NewRequest(task.Name, task.Module, tasks.Validate)
	result := HostResult{Host: host.Name()}

	if when := h.Template.NoTemplateStringOptionTrim(task.When); when != nil {
		matched, err := h.Template.TestCond(req, *when)
		if err != nil {
			result.Error = failureMessage(err)
			return result
		}
		if !matched {
			h.Response.IsSkipped(req)
			result.Skipped = true
			return result
		}
	}

	fields, err := task.Body.Evaluate(h, req)
	if err != nil {
		result.Error = failureMessage(err)
		return result
	}
	h.Response.IsEvaluated(req)
	result.Fields = fields
	return result
}

func failureMessage(err error) string {
	var resp *tasks.TaskResponse
	if errors.As(err, &resp) {
		return resp.Message
	}
	return err.Error()
}
