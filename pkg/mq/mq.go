/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mq is the message-queue abstraction that the delivery pipeline and
// the inbox listener publish to and subscribe from. A Queue is satisfied by
// both the in-process mempubsub.PubSub and the Watermill/RabbitMQ amqp.PubSub
// implementations already carried in this repository, so the delivery
// pipeline depends only on this interface and never on a concrete transport.
package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/semaphore"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/lifecycle"
)

// Queue publishes and subscribes to named topics. Subscribe returns a channel
// that is closed when the Queue is stopped.
type Queue interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)

	Start()
	Stop()
	State() lifecycle.State
}

// ErrNotStarted is returned by a Queue operation performed before Start or after Stop.
var ErrNotStarted = lifecycle.ErrNotStarted

// ParallelQueue decorates a Queue so that messages delivered to a subscriber are
// fanned out to a bounded pool of concurrent handlers instead of being processed
// one at a time on the subscriber's Go routine. This mirrors the worker-pool
// concurrency limiting used by the outbox's HTTP publisher, generalized from a
// fixed recipient fan-out into a reusable queue decorator.
type ParallelQueue struct {
	Queue

	maxWorkers int64
}

// NewParallelQueue returns a ParallelQueue wrapping q with at most maxWorkers
// concurrent handler invocations per subscription.
func NewParallelQueue(q Queue, maxWorkers int) *ParallelQueue {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &ParallelQueue{
		Queue:      q,
		maxWorkers: int64(maxWorkers),
	}
}

// Handler processes a single message. A transient error (see pkg/errors.IsTransient)
// signals that the message should be retried; any other error is treated as permanent.
type Handler func(ctx context.Context, msg *message.Message) error

// Consume subscribes to topic and invokes handler for every message received,
// running at most maxWorkers handlers concurrently. Consume blocks until ctx is
// cancelled or the underlying Queue is stopped.
func (q *ParallelQueue) Consume(ctx context.Context, topic string, handler Handler) error {
	msgChan, err := q.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(q.maxWorkers)

	for {
		select {
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}

			if err := sem.Acquire(ctx, 1); err != nil {
				return err //nolint:wrapcheck
			}

			go func(msg *message.Message) {
				defer sem.Release(1)

				if err := handler(ctx, msg); err != nil {
					if ferrors.IsTransient(err) {
						msg.Nack()

						return
					}

					msg.Nack()

					return
				}

				msg.Ack()
			}(msg)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
