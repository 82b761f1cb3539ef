package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/tracker-core/internal/infrastructure/logging"
	"github.com/nerrad567/tracker-core/internal/infrastructure/metrics"
	"github.com/nerrad567/tracker-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// Ingestion sources, used as metric labels and telemetry tags.
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

// Rejection reasons for the fixes_rejected metric.
const (
	RejectPayload = "payload" // malformed JSON or a missing field
	RejectFix     = "fix"     // out-of-range values
)

// EventFixRecorded is the live-feed channel and event type for stored fixes.
const EventFixRecorded = "fix.recorded"

// mqttHandleTimeout bounds the store write for one MQTT message.
const mqttHandleTimeout = 10 * time.Second

// FixWriter stores fixes.
type FixWriter interface {
	Insert(ctx context.Context, fix *tracking.Fix) error
}

// Telemetry mirrors fixes to a time-series store.
type Telemetry interface {
	WriteFix(source string, fix *tracking.Fix)
}

// FixPublisher announces stored fixes on the message bus.
type FixPublisher interface {
	PublishFixRecorded(payload []byte) error
}

// Notifier pushes events to live clients.
type Notifier interface {
	Broadcast(channel string, payload any)
}

// Subscriber registers MQTT message handlers.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Topics() mqtt.Topics
}

// FixRecorded is the event sent to the bus and live clients.
type FixRecorded struct {
	Type   string        `json:"type"`
	Source string        `json:"source"`
	Device string        `json:"device,omitempty"`
	Fix    *tracking.Fix `json:"fix"`
}

// Deps holds the dependencies of a Service. Only Fixes is required.
type Deps struct {
	Fixes     FixWriter
	Telemetry Telemetry
	Publisher FixPublisher
	Notifier  Notifier
	Logger    *logging.Logger
}

// Service records device payloads.
type Service struct {
	fixes     FixWriter
	telemetry Telemetry
	publisher FixPublisher
	notifier  Notifier
	logger    *logging.Logger
}

// NewService creates an ingestion service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		fixes:     deps.Fixes,
		telemetry: deps.Telemetry,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		logger:    logger,
	}
}

// Record decodes, validates and stores one payload, then fans the stored
// fix out to telemetry, the bus and live clients.
//
// Returns:
//   - *tracking.Fix: The stored fix with its ID set
//   - error: ErrInvalidPayload or tracking.ErrInvalidFix for bad input,
//     otherwise the store error
func (s *Service) Record(ctx context.Context, source string, data []byte) (*tracking.Fix, error) {
	return s.record(ctx, source, "", data)
}

func (s *Service) record(ctx context.Context, source, device string, data []byte) (*tracking.Fix, error) {
	fix, err := Decode(data)
	if err != nil {
		metrics.FixesRejectedTotal.WithLabelValues(source, RejectPayload).Inc()
		return nil, err
	}
	if err := tracking.Validate(fix); err != nil {
		metrics.FixesRejectedTotal.WithLabelValues(source, RejectFix).Inc()
		return nil, err
	}

	if err := s.fixes.Insert(ctx, fix); err != nil {
		return nil, fmt.Errorf("storing fix: %w", err)
	}
	metrics.FixesIngestedTotal.WithLabelValues(source).Inc()

	s.fanOut(source, device, fix)
	s.logger.Debug("fix recorded",
		"id", fix.ID,
		"source", source,
		"timestamp", fix.Timestamp,
	)
	return fix, nil
}

// fanOut delivers a stored fix to every optional consumer.
func (s *Service) fanOut(source, device string, fix *tracking.Fix) {
	if s.telemetry != nil {
		s.telemetry.WriteFix(source, fix)
	}

	event := FixRecorded{Type: EventFixRecorded, Source: source, Device: device, Fix: fix}
	if s.publisher != nil {
		payload, err := json.Marshal(event)
		if err == nil {
			err = s.publisher.PublishFixRecorded(payload)
		}
		if err != nil {
			s.logger.Warn("publishing recorded fix failed", "id", fix.ID, "error", err)
		}
	}
	if s.notifier != nil {
		s.notifier.Broadcast(EventFixRecorded, event)
	}
}

// handleMQTT records a payload received on a device location topic.
// Invalid payloads are logged and dropped so the broker does not redeliver them.
func (s *Service) handleMQTT(ctx context.Context, topic, device string, payload []byte) error {
	_, err := s.record(ctx, SourceMQTT, device, payload)
	if errors.Is(err, ErrInvalidPayload) || errors.Is(err, tracking.ErrInvalidFix) {
		s.logger.Warn("dropping invalid location payload", "topic", topic, "error", err)
		return nil
	}
	return err
}

// SubscribeMQTT records every payload published on the device location
// topics of sub.
func (s *Service) SubscribeMQTT(sub Subscriber, qos byte) error {
	topics := sub.Topics()
	pattern := topics.AllDeviceLocations()
	err := sub.Subscribe(pattern, qos, func(topic string, payload []byte) error {
		ctx, cancel := context.WithTimeout(context.Background(), mqttHandleTimeout)
		defer cancel()
		device, _ := topics.DeviceFromTopic(topic)
		return s.handleMQTT(ctx, topic, device, payload)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", pattern, err)
	}
	s.logger.Info("subscribed to device locations", "topic", pattern)
	return nil
}
