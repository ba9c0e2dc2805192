package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aescanero/dago-node-fields/internal/config"
	"github.com/aescanero/dago-node-fields/internal/inventory"
	"github.com/aescanero/dago-node-fields/internal/modules"
	"github.com/aescanero/dago-node-fields/internal/playbook"
)

// StreamClient is the part of the Redis client the worker uses
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Worker consumes task evaluation jobs from a Redis stream
type Worker struct {
	id            string
	config        *config.Config
	client        StreamClient
	inventory     *inventory.Inventory
	playCtx       *playbook.Context
	fs            afero.Fs
	mode          playbook.Mode
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker. Every job shares playCtx and fs.
func NewWorker(
	cfg *config.Config,
	client StreamClient,
	inv *inventory.Inventory,
	playCtx *playbook.Context,
	fs afero.Fs,
	logger *zap.Logger,
) (*Worker, error) {
	mode, err := playbook.ParseMode(cfg.RunMode)
	if err != nil {
		return nil, fmt.Errorf("invalid run mode: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		client:        client,
		inventory:     inv,
		playCtx:       playCtx,
		fs:            fs,
		mode:          mode,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}, nil
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting field worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
		zap.Stringer("mode", w.mode),
	)

	// Create consumer group if it doesn't exist
	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	// Start processing work
	w.wg.Add(1)
	go w.processWork()

	w.logger.Info("field worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the in-flight job to finish
func (w *Worker) Stop() error {
	w.logger.Info("stopping field worker", zap.String("worker_id", w.id))

	// Cancel context to stop work processing
	w.cancel()
	w.wg.Wait()

	w.logger.Info("field worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	// Try to create the group
	err := w.client.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP error means the group already exists, which is fine
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes work from the Redis stream
func (w *Worker) processWork() {
	defer w.wg.Done()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			// Read from stream
			streams, err := w.client.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					// No messages available, continue
					continue
				}
				w.logger.Error("failed to read from stream", zap.Error(err))
				w.sleep(time.Second)
				continue
			}

			// Process each message
			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}

// JobRequest asks for one task to be evaluated on a set of hosts. The
// variable layers replace those of the previous job.
type JobRequest struct {
	JobID    string                            `json:"job_id"`
	Task     string                            `json:"task"`
	Hosts    []string                          `json:"hosts,omitempty"`
	Mode     string                            `json:"mode,omitempty"`
	Defaults map[string]interface{}            `json:"defaults,omitempty"`
	Vars     map[string]interface{}            `json:"vars,omitempty"`
	RoleVars map[string]interface{}            `json:"role_vars,omitempty"`
	Facts    map[string]map[string]interface{} `json:"facts,omitempty"`
}

// JobResult is published for every evaluated job
type JobResult struct {
	JobID     string               `json:"job_id"`
	Task      string               `json:"task"`
	Module    string               `json:"module"`
	Mode      string               `json:"mode"`
	Results   []modules.HostResult `json:"results"`
	Timestamp time.Time            `json:"timestamp"`
}

// handleMessage handles a single job message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing evaluation job",
		zap.String("message_id", messageID),
	)

	// Parse the work request
	job, err := w.parseJobRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse job request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.publishError(&JobRequest{}, messageID, err)
		w.acknowledgeMessage(messageID)
		return
	}

	result, err := w.processJob(w.ctx, job)
	if err == nil {
		err = w.publishResult(result)
	}
	if err != nil {
		w.logger.Error("failed to process job",
			zap.String("message_id", messageID),
			zap.String("job_id", job.JobID),
			zap.Error(err),
		)
		w.publishError(job, messageID, err)
	}

	// Acknowledge the message
	w.acknowledgeMessage(messageID)
}

// parseJobRequest parses a job request from a Redis message
func (w *Worker) parseJobRequest(values map[string]interface{}) (*JobRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request JobRequest
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job request: %w", err)
	}
	if request.JobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}
	if strings.TrimSpace(request.Task) == "" {
		return nil, fmt.Errorf("task is required")
	}

	return &request, nil
}

// processJob evaluates the job's task on its hosts. Jobs run one at a time,
// so the shared context can carry the job's variables.
func (w *Worker) processJob(ctx context.Context, job *JobRequest) (*JobResult, error) {
	// Job text is arbitrary, so compiled templates are not kept across jobs
	defer w.playCtx.ClearCaches()

	task, err := modules.ParseTask([]byte(job.Task))
	if err != nil {
		return nil, err
	}

	mode := w.mode
	if job.Mode != "" {
		if mode, err = playbook.ParseMode(job.Mode); err != nil {
			return nil, err
		}
	}

	hosts, err := w.inventory.Select(job.Hosts)
	if err != nil {
		return nil, err
	}

	w.playCtx.SetDefaults(job.Defaults)
	w.playCtx.SetPlayVars(job.Vars)
	w.playCtx.SetRoleVars(job.RoleVars)
	for _, host := range hosts {
		host.SetFacts(job.Facts[host.Name()])
	}

	runState := playbook.NewRunState(mode, w.playCtx, w.fs)
	pipeline := modules.NewPipeline(runState, w.logger, w.config.MaxHostParallelism)
	results, err := pipeline.EvaluateTask(ctx, task, hosts)
	if err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}

	return &JobResult{
		JobID:     job.JobID,
		Task:      task.Name,
		Module:    task.Module,
		Mode:      mode.String(),
		Results:   results,
		Timestamp: time.Now().UTC(),
	}, nil
}

// publishResult publishes the evaluated fields
func (w *Worker) publishResult(result *JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// Publish to result stream
	if err := w.publish(w.resultStream, data); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	failed := 0
	for _, r := range result.Results {
		if r.Failed() {
			failed++
		}
	}
	w.logger.Info("published evaluation result",
		zap.String("job_id", result.JobID),
		zap.Int("hosts", len(result.Results)),
		zap.Int("failed", failed),
	)
	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(request *JobRequest, messageID string, err error) {
	errorEvent := map[string]interface{}{
		"job_id":     request.JobID,
		"message_id": messageID,
		"error":      err.Error(),
		"timestamp":  time.Now().UTC(),
	}

	data, marshalErr := json.Marshal(errorEvent)
	if marshalErr != nil {
		w.logger.Error("failed to marshal error event", zap.Error(marshalErr))
		return
	}

	// Publish error to a separate stream
	if publishErr := w.publish(w.resultStream+".errors", data); publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// publish adds an entry, retrying up to MaxRetries times
func (w *Worker) publish(stream string, data []byte) error {
	var err error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		_, err = w.client.XAdd(w.ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{
				"data": string(data),
			},
		}).Result()
		if err == nil {
			return nil
		}
		w.logger.Warn("publish failed",
			zap.String("stream", stream),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return err
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.client.XAck(w.ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
