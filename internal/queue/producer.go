package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eliseekajingu/codequest/internal/domain"
)

// Producer publishes run jobs to the queue
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishRunJob publishes a playground run to the queue
func (p *Producer) PublishRunJob(ctx context.Context, job *RunJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, RunQueueName, job); err != nil {
		return fmt.Errorf("failed to publish run job: %w", err)
	}

	slog.Info("published run job",
		"job_id", job.ID,
		"profile_id", job.ProfileID,
		"language", job.Language,
		"challenge_id", job.ChallengeID,
	)

	return nil
}

// PublishResult publishes a run result to the results queue
func (p *Producer) PublishResult(ctx context.Context, result *RunResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ResultQueueName, result); err != nil {
		return fmt.Errorf("failed to publish run result: %w", err)
	}

	slog.Info("published run result",
		"job_id", result.JobID,
		"status", result.Status,
		"duration", result.Duration,
	)

	return nil
}

// CreateRunJob creates a new run job with the given parameters
func CreateRunJob(profileID uuid.UUID, challengeID string, language domain.Language, code string, tests []domain.TestCase, timeout int) *RunJob {
	return &RunJob{
		ID:          uuid.New(),
		ProfileID:   profileID,
		ChallengeID: challengeID,
		Language:    language,
		Code:        code,
		Tests:       tests,
		Timeout:     timeout,
		CreatedAt:   time.Now(),
	}
}
