package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// Message is one job row as pushed to the queue.
type Message struct {
	RunID string     `json:"run_id"`
	Job   domain.Row `json:"job"`
}

// Publisher pushes job rows to a Redis list
type Publisher struct {
	client    *redis.Client
	queueName string
	batchSize int
	logger    arbor.ILogger
}

// NewPublisher creates a new queue publisher
func NewPublisher(client *redis.Client, queueName string, batchSize int, logger arbor.ILogger) *Publisher {
	if queueName == "" {
		queueName = "upwork:jobs"
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Publisher{
		client:    client,
		queueName: queueName,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Encode marshals rows into queue payloads.
func Encode(rows []domain.Row, runID string) ([][]byte, error) {
	out := make([][]byte, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(Message{RunID: runID, Job: row})
		if err != nil {
			return nil, fmt.Errorf("marshal job %s: %w", row.ID(), err)
		}
		out = append(out, data)
	}
	return out, nil
}

// PublishBatch pushes rows in pipelined batches
func (p *Publisher) PublishBatch(ctx context.Context, rows []domain.Row, runID string) error {
	if len(rows) == 0 {
		return nil
	}
	payloads, err := Encode(rows, runID)
	if err != nil {
		return err
	}

	for start := 0; start < len(payloads); start += p.batchSize {
		end := min(start+p.batchSize, len(payloads))
		pipe := p.client.Pipeline()
		for _, data := range payloads[start:end] {
			pipe.LPush(ctx, p.queueName, data)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("pipeline exec: %w", err)
		}
	}

	p.logger.Info().Str("queue", p.queueName).Int("jobs", len(rows)).Msg("Published jobs")
	return nil
}

// QueueLength returns the current queue length
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.queueName).Result()
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
