// Package publisher pushes capped park occupancy features to Kafka for downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/parkfan/occupancy-analytics/internal/models"
)

// Config holds the publisher settings
type Config struct {
	Brokers  []string
	Topic    string
	Interval time.Duration
}

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ParkSource lists the parks to publish
type ParkSource interface {
	IDs(ctx context.Context) ([]string, error)
}

// FeatureSource computes capped features for a set of parks
type FeatureSource interface {
	Features(ctx context.Context, parkIDs []string) []models.OccupancyFeature
}

// Recorder counts published messages. *metrics.Metrics implements it.
type Recorder interface {
	FeaturesPublished(n int, ok bool)
}

var errNoBrokers = errors.New("at least one broker is required")

// NewKafkaWriter builds a hash-balanced writer so one park always lands on one partition
func NewKafkaWriter(cfg Config) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("topic must not be empty")
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}, nil
}

// FeaturePublisher periodically publishes one feature message per park
type FeaturePublisher struct {
	cfg      Config
	writer   MessageWriter
	parks    ParkSource
	features FeatureSource
	metrics  Recorder
	log      *slog.Logger
}

// NewFeaturePublisher wires a publisher. metrics may be nil.
func NewFeaturePublisher(cfg Config, writer MessageWriter, parks ParkSource, features FeatureSource, metrics Recorder, log *slog.Logger) *FeaturePublisher {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &FeaturePublisher{
		cfg:      cfg,
		writer:   writer,
		parks:    parks,
		features: features,
		metrics:  metrics,
		log:      log.With(slog.String("component", "feature_publisher")),
	}
}

// PublishOnce computes and publishes features for every registered park.
// Returns the number of messages written.
func (p *FeaturePublisher) PublishOnce(ctx context.Context) (int, error) {
	ids, err := p.parks.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list parks: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	features := p.features.Features(ctx, ids)
	msgs := make([]kafka.Message, 0, len(features))
	for _, f := range features {
		value, err := json.Marshal(f)
		if err != nil {
			p.log.Error("feature_encode_err", slog.String("park", f.ParkID), slog.Any("err", err))
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(f.ParkID),
			Value: value,
			Time:  f.ComputedAt,
		})
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.record(len(msgs), false)
		return 0, fmt.Errorf("failed to publish features: %w", err)
	}
	p.record(len(msgs), true)
	p.log.Info("features_published", slog.Int("count", len(msgs)), slog.String("topic", p.cfg.Topic))
	return len(msgs), nil
}

// Run publishes on every tick until ctx is cancelled, then closes the writer
func (p *FeaturePublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.log.Warn("feature_writer_close_err", slog.Any("err", err))
		}
	}()

	p.log.Info("feature_publisher_started", slog.String("topic", p.cfg.Topic), slog.Duration("interval", p.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			p.log.Info("feature_publisher_stopped")
			return
		case <-ticker.C:
			if _, err := p.PublishOnce(ctx); err != nil && ctx.Err() == nil {
				p.log.Error("feature_publish_err", slog.Any("err", err))
			}
		}
	}
}

func (p *FeaturePublisher) record(n int, ok bool) {
	if p.metrics != nil {
		p.metrics.FeaturesPublished(n, ok)
	}
}
