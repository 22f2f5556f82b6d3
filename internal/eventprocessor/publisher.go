// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package eventprocessor

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/surveyguard/internal/logging"
	"github.com/tomtom215/surveyguard/internal/metrics"
	"github.com/tomtom215/surveyguard/internal/models"
	"github.com/tomtom215/surveyguard/internal/scoring"
)

// Publisher wraps a Watermill publisher with circuit breaker protection.
// It implements scoring.Publisher.
type Publisher struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[interface{}]
	topic      string
	transport  string
	logger     watermill.LoggerAdapter

	server *EmbeddedServer
	conn   *natsgo.Conn
	stream *StreamInitializer

	mu     sync.RWMutex
	closed bool
}

var _ scoring.Publisher = (*Publisher)(nil)

// NewPublisher creates a publisher for the configured transport. For the
// nats and embedded transports the JetStream stream is created up front.
func NewPublisher(ctx context.Context, cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewWatermillLogger()
	}

	p := &Publisher{
		breaker:   NewCircuitBreaker(cfg.Breaker),
		topic:     cfg.Topic,
		transport: cfg.Transport,
		logger:    logger,
	}

	if cfg.Transport == TransportMemory {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.OutputBuffer}, logger)
		p.publisher = ch
		p.subscriber = ch
		return p, nil
	}

	url := cfg.URL
	if cfg.Transport == TransportEmbedded {
		serverCfg := DefaultServerConfig(cfg.StoreDir)
		srv, err := NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, err
		}
		p.server = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	if err := p.connect(ctx, url, cfg); err != nil {
		if p.publisher != nil {
			_ = p.publisher.Close()
		}
		p.shutdown()
		return nil, err
	}
	return p, nil
}

// NewPublisherWithBackend wraps an existing Watermill publisher.
func NewPublisherWithBackend(backend message.Publisher, topic string, breaker CircuitBreakerConfig) (*Publisher, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: publisher backend is required", ErrInvalidConfig)
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		publisher: backend,
		breaker:   NewCircuitBreaker(breaker),
		topic:     topic,
		transport: "custom",
		logger:    NewWatermillLogger(),
	}, nil
}

func (p *Publisher) connect(ctx context.Context, url string, cfg PublisherConfig) error {
	logger := p.logger
	natsOpts := []natsgo.Option{
		natsgo.Name("surveyguard"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	nc, err := natsgo.Connect(url, natsOpts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	p.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := cfg.Stream
	streamCfg.Subjects = withSubject(streamCfg.Subjects, cfg.Topic)
	initializer, err := NewStreamInitializer(js, &streamCfg)
	if err != nil {
		return err
	}
	if _, err := initializer.EnsureStream(ctx); err != nil {
		return err
	}
	p.stream = initializer

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // created above
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create watermill publisher: %w", err)
	}
	p.publisher = pub

	// Ephemeral push consumer bound to the stream, delivering only new
	// reports; it feeds in-process listeners such as the live verdict feed.
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:            url,
		CloseTimeout:   5 * time.Second,
		AckWaitTimeout: 30 * time.Second,
		NatsOptions:    natsOpts,
		Unmarshaler:    &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(streamCfg.Name),
				natsgo.DeliverNew(),
			},
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create watermill subscriber: %w", err)
	}
	p.subscriber = sub
	return nil
}

// Topic returns the topic reports are published on.
func (p *Publisher) Topic() string {
	return p.topic
}

// Transport returns the transport name.
func (p *Publisher) Transport() string {
	return p.transport
}

// Subscriber returns a subscriber that receives reports published on Topic.
// It is nil for publishers built with NewPublisherWithBackend.
func (p *Publisher) Subscriber() message.Subscriber {
	return p.subscriber
}

// BreakerState returns the circuit breaker state.
func (p *Publisher) BreakerState() string {
	return CircuitBreakerState(p.breaker)
}

// Healthy returns nil when the publisher can accept messages.
func (p *Publisher) Healthy(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}
	if p.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("publisher circuit breaker is open")
	}
	if p.conn != nil && !p.conn.IsConnected() {
		return fmt.Errorf("NATS connection status: %s", p.conn.Status())
	}
	if p.stream != nil && !p.stream.IsHealthy(ctx) {
		return fmt.Errorf("stream %s unavailable", p.stream.Config().Name)
	}
	return nil
}

// Publish sends a message to topic with circuit breaker protection.
// The message UUID is used as Nats-Msg-Id for deduplication if not already set.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}
	msg.SetContext(ctx)

	_, err := ExecuteWithBreaker(p.breaker, func() (interface{}, error) {
		return nil, p.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublish(topic, err)
	return err
}

// PublishReport wraps report in a SessionScoredEvent and publishes it.
func (p *Publisher) PublishReport(ctx context.Context, report *models.SessionReport) error {
	if report == nil {
		return ErrNilReport
	}

	event := NewSessionScoredEvent(report, scoring.Flagged(report))
	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("type", event.Type)
	msg.Metadata.Set("session_id", event.SessionID)
	msg.Metadata.Set("flagged", strconv.FormatBool(event.Flagged))
	if event.RiskLevel != "" {
		msg.Metadata.Set("risk_level", string(event.RiskLevel))
	}

	if err := p.Publish(ctx, p.topic, msg); err != nil {
		return fmt.Errorf("publish report %s: %w", report.ID, err)
	}
	logging.CtxDebug(ctx).Str("event_id", event.EventID).Str("topic", p.topic).Msg("Published session report")
	return nil
}

// Close shuts the publisher down, then the NATS connection and embedded
// server when present. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.publisher != nil {
		err = p.publisher.Close()
	}
	// The memory transport uses one value for both sides.
	if p.subscriber != nil && p.transport != TransportMemory {
		if subErr := p.subscriber.Close(); subErr != nil && err == nil {
			err = subErr
		}
	}
	p.shutdown()
	return err
}

func (p *Publisher) shutdown() {
	if p.conn != nil {
		p.conn.Close()
	}
	if p.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS server shutdown")
		}
	}
}
