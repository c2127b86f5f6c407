package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/domain/repository"
	pkgkafka "StockPilot/pkg/kafka"
)

// ClickHouseStorage implements Storage over a fetch_outcomes table.
// One row per resolution walk; the attempt log is denormalized to JSON
// so the audit query surface stays a single table.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse outcome storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func outcomeRow(o *models.FetchOutcome) ([]interface{}, error) {
	attempts, err := json.Marshal(o.Attempts)
	if err != nil {
		return nil, fmt.Errorf("marshal attempts: %w", err)
	}
	return []interface{}{
		o.Started,
		o.Symbol,
		string(o.Market),
		string(o.Kind),
		string(o.Winner),
		uint8(len(o.Attempts)),
		string(attempts),
		o.Elapsed,
	}, nil
}

func (s *ClickHouseStorage) Store(ctx context.Context, o *models.FetchOutcome) error {
	args, err := outcomeRow(o)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, market, kind, winner, attempt_count, attempts, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, outcomes []*models.FetchOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	const chunkSize = 1000
	for start := 0; start < len(outcomes); start += chunkSize {
		end := start + chunkSize
		if end > len(outcomes) {
			end = len(outcomes)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, o := range outcomes[start:end] {
			if o == nil || o.Symbol == "" {
				continue
			}
			row, err := outcomeRow(o)
			if err != nil {
				return err
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, row...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, market, kind, winner, attempt_count, attempts, elapsed_ms) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // connection owned by pkg/clickhouse
}

// KafkaPublisher implements Publisher for Kafka, keyed by symbol so one
// instrument's outcomes stay ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka outcome publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.FetchOutcome) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.Symbol), o)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, outcomes []*models.FetchOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(outcomes))
	for i, o := range outcomes {
		msgs[i] = pkgkafka.Message{Key: []byte(o.Symbol), Value: o}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
