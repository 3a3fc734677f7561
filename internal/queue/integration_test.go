//go:build integration

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/eliseekajingu/codequest/internal/domain"
	"github.com/eliseekajingu/codequest/internal/queue"
	"github.com/eliseekajingu/codequest/internal/sandbox"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

func testJob() *queue.RunJob {
	return queue.CreateRunJob(
		uuid.New(),
		"js-variables-1",
		domain.LangJavaScript,
		"function solution(a, b) { return a + b; }",
		[]domain.TestCase{
			{Description: "adds numbers", Expression: "solution(1, 2) === 3"},
		},
		10,
	)
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	_, err := queue.NewConnection("amqp://invalid:5672")
	if err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_Producer_PublishRunJob(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	producer := queue.NewProducer(conn)

	if err := producer.PublishRunJob(context.Background(), testJob()); err != nil {
		t.Fatalf("failed to publish run job: %v", err)
	}
}

func TestIntegration_RunRoundTrip(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	handler := func(ctx context.Context, job *queue.RunJob) (*queue.RunResult, error) {
		return &queue.RunResult{
			Status: "completed",
			Run: &sandbox.RunResult{
				OK: true,
				Tests: []sandbox.TestResult{
					{Description: "adds numbers", Passed: true},
				},
			},
		}, nil
	}

	consumer := queue.NewConsumer(conn, handler, queue.DefaultConsumerConfig())
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	results := queue.NewResultConsumer(conn)
	if err := results.Start(ctx); err != nil {
		t.Fatalf("failed to start result consumer: %v", err)
	}
	defer results.Stop()

	job := testJob()
	resultCh := results.Subscribe(job.ID.String())

	producer := queue.NewProducer(conn)
	if err := producer.PublishRunJob(ctx, job); err != nil {
		t.Fatalf("failed to publish run job: %v", err)
	}

	select {
	case result := <-resultCh:
		if result.Status != "completed" {
			t.Errorf("Status = %q; want completed", result.Status)
		}
		if result.JobID != job.ID {
			t.Errorf("JobID = %v; want %v", result.JobID, job.ID)
		}
		if result.Run == nil || !result.Run.Passed() {
			t.Error("expected a passing run result")
		}
	case <-time.After(30 * time.Second):
		results.Unsubscribe(job.ID.String())
		t.Fatal("timed out waiting for run result")
	}
}

func TestIntegration_HandlerErrorProducesFailedResult(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	handler := func(ctx context.Context, job *queue.RunJob) (*queue.RunResult, error) {
		return nil, context.DeadlineExceeded
	}

	consumer := queue.NewConsumer(conn, handler, queue.DefaultConsumerConfig())
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	results := queue.NewResultConsumer(conn)
	if err := results.Start(ctx); err != nil {
		t.Fatalf("failed to start result consumer: %v", err)
	}
	defer results.Stop()

	job := testJob()
	resultCh := results.Subscribe(job.ID.String())

	producer := queue.NewProducer(conn)
	if err := producer.PublishRunJob(ctx, job); err != nil {
		t.Fatalf("failed to publish run job: %v", err)
	}

	select {
	case result := <-resultCh:
		if result.Status != "failed" {
			t.Errorf("Status = %q; want failed", result.Status)
		}
		if result.Error == "" {
			t.Error("expected an error message")
		}
	case <-time.After(30 * time.Second):
		results.Unsubscribe(job.ID.String())
		t.Fatal("timed out waiting for run result")
	}
}
