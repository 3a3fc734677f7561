package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// JobHandler processes a run job and returns its result
type JobHandler func(ctx context.Context, job *RunJob) (*RunResult, error)

// ConsumerConfig configures the queue consumer
type ConsumerConfig struct {
	Workers  int
	Prefetch int
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  3,
		Prefetch: 1,
	}
}

// Consumer consumes run jobs from the queue and executes them
type Consumer struct {
	conn     *Connection
	handler  JobHandler
	producer *Producer
	config   ConsumerConfig

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler JobHandler, config ConsumerConfig) *Consumer {
	if config.Workers <= 0 {
		config.Workers = DefaultConsumerConfig().Workers
	}
	if config.Prefetch <= 0 {
		config.Prefetch = DefaultConsumerConfig().Prefetch
	}
	return &Consumer{
		conn:     conn,
		handler:  handler,
		producer: NewProducer(conn),
		config:   config,
	}
}

// Start begins consuming jobs. It returns once the workers are running.
func (c *Consumer) Start(ctx context.Context) error {
	ch := c.conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	if err := ch.Qos(c.config.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		RunQueueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for i := 0; i < c.config.Workers; i++ {
		c.wg.Add(1)
		go c.worker(workerCtx, i, msgs)
	}

	slog.Info("queue consumer started", "workers", c.config.Workers, "queue", RunQueueName)
	return nil
}

// Stop shuts down the workers and waits for in-flight jobs
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	slog.Info("queue consumer stopped")
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Warn("delivery channel closed", "worker", id)
				return
			}
			c.processMessage(ctx, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	var job RunJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		slog.Error("failed to unmarshal run job", "error", err)
		_ = msg.Reject(false)
		return
	}

	timeout := time.Duration(job.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	result, err := c.handler(jobCtx, &job)
	duration := time.Since(started)

	if err != nil {
		status := "failed"
		if errors.Is(err, domain.ErrRunTimeout) || errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		slog.Warn("run job failed",
			"job_id", job.ID,
			"status", status,
			"duration", duration,
			"error", err,
		)
		result = &RunResult{
			JobID:    job.ID,
			Status:   status,
			Error:    err.Error(),
			Duration: duration,
		}
	} else {
		result.JobID = job.ID
		if result.Status == "" {
			result.Status = "completed"
		}
		if result.Duration == 0 {
			result.Duration = duration
		}
	}

	if err := c.producer.PublishResult(ctx, result); err != nil {
		slog.Error("failed to publish run result", "job_id", job.ID, "error", err)
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message", "job_id", job.ID, "error", err)
	}
}

// ResultConsumer consumes run results and routes them to waiting subscribers
type ResultConsumer struct {
	conn *Connection

	mu      sync.Mutex
	waiters map[string]chan *RunResult

	cancel context.CancelFunc
	done   chan struct{}
}

// NewResultConsumer creates a consumer for the results queue
func NewResultConsumer(conn *Connection) *ResultConsumer {
	return &ResultConsumer{
		conn:    conn,
		waiters: make(map[string]chan *RunResult),
		done:    make(chan struct{}),
	}
}

// Subscribe registers interest in the result for a job.
// The returned channel receives at most one result.
func (rc *ResultConsumer) Subscribe(jobID string) <-chan *RunResult {
	ch := make(chan *RunResult, 1)
	rc.mu.Lock()
	rc.waiters[jobID] = ch
	rc.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription, e.g. after a wait times out
func (rc *ResultConsumer) Unsubscribe(jobID string) {
	rc.mu.Lock()
	delete(rc.waiters, jobID)
	rc.mu.Unlock()
}

// Start begins consuming results
func (rc *ResultConsumer) Start(ctx context.Context) error {
	ch := rc.conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	msgs, err := ch.Consume(
		ResultQueueName,
		"",
		true, // auto-ack, results are fire-and-forget
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming results: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	rc.cancel = cancel

	go rc.loop(runCtx, msgs)
	return nil
}

// Stop shuts down the result consumer
func (rc *ResultConsumer) Stop() {
	if rc.cancel != nil {
		rc.cancel()
	}
	<-rc.done
}

func (rc *ResultConsumer) loop(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer close(rc.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var result RunResult
			if err := json.Unmarshal(msg.Body, &result); err != nil {
				slog.Error("failed to unmarshal run result", "error", err)
				continue
			}
			rc.deliver(&result)
		}
	}
}

func (rc *ResultConsumer) deliver(result *RunResult) {
	jobID := result.JobID.String()
	rc.mu.Lock()
	ch, ok := rc.waiters[jobID]
	if ok {
		delete(rc.waiters, jobID)
	}
	rc.mu.Unlock()

	if !ok {
		slog.Debug("no subscriber for run result", "job_id", jobID)
		return
	}
	ch <- result
}
