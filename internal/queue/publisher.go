// Package queue publishes analysis jobs to the durable channel the external
// worker consumes.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/idhub/backend/internal/config"
)

// AnalysisMessage is the wire format read by the worker.
//
// AnalysisType carries the data source's sourceType, not the job's
// analysisType: the worker selects its processing path from it.
type AnalysisMessage struct {
	AnalysisResultID uint   `json:"analysisResultId"`
	DataSourceID     uint   `json:"dataSourceId"`
	FilePath         string `json:"filePath"`
	AnalysisType     string `json:"analysisType"`
}

func (m AnalysisMessage) Encode() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis message: %w", err)
	}
	return body, nil
}

// Publisher enqueues one message per call. A nil error means the broker
// accepted the message durably; there are no retries.
type Publisher interface {
	PublishAnalysis(ctx context.Context, msg AnalysisMessage) error
	Ping(ctx context.Context) error
	Close() error
}

// New builds the publisher selected by cfg.Backend.
func New(ctx context.Context, cfg config.QueueConfig) (Publisher, error) {
	switch cfg.Backend {
	case config.QueueRabbitMQ:
		p, err := NewRabbitPublisher(cfg.RabbitMQURL, cfg.Name)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.QueueRedis:
		p, err := NewRedisPublisher(ctx, cfg.RedisURL, cfg.Name)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s", cfg.Backend)
	}
}
