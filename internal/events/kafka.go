package events

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"minewatch/internal/logger"
	"minewatch/internal/metrics"
)

// KafkaSink hands events to a buffered channel drained by a single
// background publisher goroutine. Emit never blocks: when the buffer
// is full the event is dropped and counted, since losing an audit
// record must not stall a mutation request.
type KafkaSink struct {
	writer *kafka.Writer
	queue  chan ChangeEvent

	wg     sync.WaitGroup
	cancel context.CancelFunc
	closed atomic.Bool

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// KafkaSinkConfig holds settings for the Kafka change-event sink.
type KafkaSinkConfig struct {
	Brokers   []string
	Topic     string
	QueueSize int
}

// NewKafkaSink creates the sink and starts its publisher goroutine.
func NewKafkaSink(cfg KafkaSinkConfig) *KafkaSink {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // Partition by entity id
		BatchTimeout: 100 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &KafkaSink{
		writer: writer,
		queue:  make(chan ChangeEvent, cfg.QueueSize),
		cancel: cancel,
	}

	s.wg.Add(1)
	go s.publishLoop(ctx)

	return s
}

// Emit enqueues the event for background publishing.
func (s *KafkaSink) Emit(event ChangeEvent) {
	if s.closed.Load() {
		return
	}

	select {
	case s.queue <- event:
		metrics.EventQueueSize.Set(float64(len(s.queue)))
	default:
		s.dropped.Add(1)
		metrics.EventsPublishedTotal.WithLabelValues("dropped").Inc()
	}
}

// Close stops accepting events, flushes the queue, and closes the
// writer. The context bounds how long the flush may take.
func (s *KafkaSink) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(s.queue)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.cancel()
		<-done
	}

	return s.writer.Close()
}

// publishLoop drains the queue until it is closed.
func (s *KafkaSink) publishLoop(ctx context.Context) {
	defer s.wg.Done()

	log := logger.WithComponent("event_sink")
	log.Info().Str("topic", s.writer.Topic).Msg("event publisher started")
	defer log.Info().Msg("event publisher stopped")

	for event := range s.queue {
		metrics.EventQueueSize.Set(float64(len(s.queue)))

		data, err := json.Marshal(event)
		if err != nil {
			s.failed.Add(1)
			metrics.EventsPublishedTotal.WithLabelValues("failed").Inc()
			log.Error().Err(err).Str("kind", string(event.Kind)).Msg("failed to serialize event")
			continue
		}

		msg := kafka.Message{
			Key:   []byte(event.EntityID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "kind", Value: []byte(event.Kind)},
			},
			Time: event.At,
		}

		if err := s.writer.WriteMessages(ctx, msg); err != nil {
			s.failed.Add(1)
			metrics.EventsPublishedTotal.WithLabelValues("failed").Inc()
			log.Error().
				Err(err).
				Str("kind", string(event.Kind)).
				Str("entity_id", event.EntityID).
				Msg("failed to publish event")
			continue
		}

		s.published.Add(1)
		metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
	}
}

// Stats reports publisher counters.
func (s *KafkaSink) Stats() (published, dropped, failed uint64) {
	return s.published.Load(), s.dropped.Load(), s.failed.Load()
}
