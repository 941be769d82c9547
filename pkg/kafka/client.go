// Package kafka provides the task queue producer and consumer pool.
package kafka

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/tasks"
	"github.com/segmentio/kafka-go"
)

// TaskProcessor is implemented by anything that can process one task.
// It decouples the consumer loop from the concrete pipeline implementation.
//
// Process must return nil once the task outcome has been committed to the
// registry (success, scheduled retry, terminal failure, or lease no-op).
// A non-nil return means the message could not be handled at all and should
// be redelivered by the queue.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.ProcessingTask) error
}

var producer *kafka.Writer

// InitProducer initializes the Kafka producer.
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka producer initialized successfully")
}

// ProduceTask enqueues a file processing task.
func ProduceTask(ctx context.Context, task tasks.ProcessingTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return producer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(task.FileID),
			Value: taskBytes,
		},
	)
}

// StartConsumers runs poolSize competing consumers in one consumer group
// and blocks until ctx is cancelled. Each consumer pulls one message at a
// time; exclusivity per file is enforced by the registry lease, not by
// partition assignment.
func StartConsumers(ctx context.Context, cfg config.KafkaConfig, poolSize int, processor TaskProcessor) {
	if poolSize < 1 {
		poolSize = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < poolSize; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			consumeLoop(ctx, cfg, worker, processor)
		}(i)
	}

	log.Infof("Kafka consumer pool started with %d workers on topic '%s'", poolSize, cfg.Topic)
	wg.Wait()
}

func consumeLoop(ctx context.Context, cfg config.KafkaConfig, worker int, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("failed to close Kafka consumer %d: %v", worker, err)
		}
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Infof("Kafka consumer %d stopping", worker)
				return
			}
			log.Error("failed to fetch message from Kafka", err)
			return
		}

		var task tasks.ProcessingTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("failed to decode Kafka message: %v, value: %s", err, string(m.Value))
			// Malformed message, commit so it does not block the queue.
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("failed to commit malformed message: %v", err)
			}
			continue
		}

		log.Infof("[Consumer %d] received task, FileID: %s, Attempt: %d, offset: %d", worker, task.FileID, task.Attempt, m.Offset)

		if err := processor.Process(ctx, task); err != nil {
			// The outcome was not committed to the registry; leave the
			// offset so the queue redelivers the message.
			log.Errorf("[Consumer %d] task not handled, will be redelivered, FileID: %s, error: %v", worker, task.FileID, err)
			continue
		}

		if err := r.CommitMessages(ctx, m); err != nil {
			log.Errorf("failed to commit Kafka message offset: %v", err)
		}
	}
}
