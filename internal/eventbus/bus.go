// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package eventbus carries location fixes from the device to the capture
// task over NATS, using watermill for publishing and subscribing.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/courier-tracker/internal/models"
)

// MetadataDeliveryError carries a transport failure reported by the source
// in place of samples.
const MetadataDeliveryError = "delivery_error"

// ErrDelivery marks a batch the source could not deliver.
var ErrDelivery = errors.New("location delivery failed")

// Subject returns the NATS subject fixes for task are published on.
func Subject(prefix, task string) string {
	return prefix + "." + task + ".fixes"
}

func natsOptions(logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// NewPublisher creates a core NATS watermill publisher. Fixes are not
// retained by the broker; a lost fix is superseded by the next one.
func NewPublisher(url string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOptions(logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return pub, nil
}

// NewSubscriber creates a core NATS watermill subscriber. Each subscription
// delivers one message at a time and waits for its ack.
func NewSubscriber(url, queueGroup string, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: queueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   time.Minute,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOptions(logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}

// NewInProcess creates a pub/sub that never leaves the process. It serves as
// both publisher and subscriber when NATS is disabled.
func NewInProcess(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, logger)
}

// SamplePublisher publishes sample batches for one task.
type SamplePublisher struct {
	publisher message.Publisher
	subject   string
}

// NewSamplePublisher binds publisher to subject.
func NewSamplePublisher(publisher message.Publisher, subject string) *SamplePublisher {
	return &SamplePublisher{publisher: publisher, subject: subject}
}

// PublishBatch sends batch as a single delivery.
func (p *SamplePublisher) PublishBatch(_ context.Context, batch models.SampleBatch) error {
	msg, err := EncodeBatch(batch)
	if err != nil {
		return err
	}
	if err := p.publisher.Publish(p.subject, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// PublishDeliveryError reports a source-side failure; subscribers receive it
// as a batch error.
func (p *SamplePublisher) PublishDeliveryError(_ context.Context, reason string) error {
	msg := message.NewMessage(uuid.NewString(), nil)
	msg.Metadata.Set(MetadataDeliveryError, reason)
	return p.publisher.Publish(p.subject, msg)
}

// EncodeBatch builds a watermill message for batch.
func EncodeBatch(batch models.SampleBatch) (*message.Message, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal sample batch: %w", err)
	}
	return message.NewMessage(uuid.NewString(), payload), nil
}

// DecodeBatch reverses EncodeBatch. A delivery error in the metadata, or an
// undecodable payload, is returned as an error wrapping ErrDelivery.
func DecodeBatch(msg *message.Message) ([]models.LocationSample, error) {
	if reason := msg.Metadata.Get(MetadataDeliveryError); reason != "" {
		return nil, fmt.Errorf("%w: %s", ErrDelivery, reason)
	}
	var batch models.SampleBatch
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return batch.Samples, nil
}
