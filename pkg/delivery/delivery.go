/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package delivery implements the three-stage activity delivery pipeline:
// fan-out (expand a single outgoing activity into one message per recipient),
// outbox (deliver a single message to a single recipient over HTTP, signing
// the request), and inbox (verify, deduplicate, and hand an incoming activity
// to the caller's dispatcher). Retries are driven by exponential backoff with
// jitter, grounded on the teacher's use of github.com/cenkalti/backoff/v4 in
// its redelivery service.
package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/trustbloc/edge-core/pkg/log"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/httpsig"
	"github.com/fedcore/federation/pkg/kv"
	"github.com/fedcore/federation/pkg/mq"
)

var logger = log.New("delivery")

const (
	metadataRecipient  = "recipient"
	metadataActivityID = "activity_id"

	idempotenceNamespace = "delivery_idempotence"

	defaultMaxAttempts    = 5
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = time.Minute
	defaultIdempotenceTTL = 24 * time.Hour
)

// RecipientResolver expands an activity's addressing (to/cc/bto/bcc plus any
// followers collection) into the concrete set of inbox URLs to deliver to.
type RecipientResolver func(ctx context.Context, activity []byte) ([]*url.URL, error)

// Config holds the delivery pipeline's tunables.
type Config struct {
	Topic          string
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	IdempotenceTTL time.Duration
	MaxWorkers     int
}

// DefaultConfig returns the delivery pipeline's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Topic:          "outbound_activities",
		MaxAttempts:    defaultMaxAttempts,
		InitialBackoff: defaultInitialBackoff,
		MaxBackoff:     defaultMaxBackoff,
		IdempotenceTTL: defaultIdempotenceTTL,
		MaxWorkers:     defaultMaxWorkers,
	}
}

const defaultMaxWorkers = 10

// Sender delivers a single signed HTTP request to a recipient and reports the
// response status. Satisfied by *http.Client.Do via the adapter below.
type Sender interface {
	Do(req *http.Request) (*http.Response, error)
}

// KeyProvider resolves the private key and key ID used to sign outbound deliveries.
type KeyProvider interface {
	SigningKey(ctx context.Context) (interface{}, string, error)
}

// Pipeline implements the fan-out -> outbox -> inbox delivery stages described
// in the queue-abstraction component. It is constructed once per Federation
// and driven by a pkg/mq.Queue.
type Pipeline struct {
	cfg       *Config
	queue     mq.Queue
	parallel  *mq.ParallelQueue
	sender    Sender
	signer    httpsig.Signer
	keys      KeyProvider
	resolve   RecipientResolver
	idempo    kv.Store
	jsonMsgID func() string
}

// New returns a new delivery Pipeline backed by the given queue.
func New(cfg *Config, q mq.Queue, sender Sender, signer httpsig.Signer, keys KeyProvider,
	resolve RecipientResolver, idempo kv.Store) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Pipeline{
		cfg:       cfg,
		queue:     q,
		parallel:  mq.NewParallelQueue(q, cfg.MaxWorkers),
		sender:    sender,
		signer:    signer,
		keys:      keys,
		resolve:   resolve,
		idempo:    idempo,
		jsonMsgID: uuid.NewString,
	}
}

// Fanout expands activity's recipients and publishes one outbox message per
// recipient to the delivery queue. It is stage 1 of the pipeline.
func (p *Pipeline) Fanout(ctx context.Context, activity []byte) error {
	recipients, err := p.resolve(ctx, activity)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	messages := make([]*message.Message, 0, len(recipients))

	for _, recipient := range recipients {
		msg := message.NewMessage(p.jsonMsgID(), activity)
		msg.Metadata.Set(metadataRecipient, recipient.String())

		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		logger.Debugf("No recipients resolved for outgoing activity; nothing to fan out")

		return nil
	}

	if err := p.queue.Publish(p.cfg.Topic, messages...); err != nil {
		return fmt.Errorf("publish fanned-out messages: %w", err)
	}

	return nil
}

// RunOutbox consumes the delivery topic and delivers each message to its
// recipient, retrying transient failures with exponential backoff up to
// Config.MaxAttempts before giving up permanently. It is stage 2 of the
// pipeline and blocks until ctx is cancelled.
func (p *Pipeline) RunOutbox(ctx context.Context) error {
	return p.parallel.Consume(ctx, p.cfg.Topic, p.deliverOne)
}

func (p *Pipeline) deliverOne(ctx context.Context, msg *message.Message) error {
	recipient, err := url.Parse(msg.Metadata.Get(metadataRecipient))
	if err != nil {
		return ferrors.NewPermanentDeliveryf("invalid recipient url: %w", err)
	}

	bo := p.newBackoff(ctx)

	return backoff.Retry(func() error {
		return p.post(ctx, recipient, msg.Payload)
	}, bo)
}

func (p *Pipeline) post(ctx context.Context, recipient *url.URL, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recipient.String(), bytes.NewReader(payload))
	if err != nil {
		return ferrors.NewPermanentDeliveryf("build delivery request: %w", err)
	}

	req.Header.Set("Content-Type", "application/activity+json")

	pKey, keyID, err := p.keys.SigningKey(ctx)
	if err != nil {
		return ferrors.NewPermanentDeliveryf("resolve signing key: %w", err)
	}

	if err := p.signer.Sign(req, pKey, keyID, payload); err != nil {
		return ferrors.NewPermanentDeliveryf("sign delivery request: %w", err)
	}

	resp, err := p.sender.Do(req)
	if err != nil {
		return ferrors.NewTransientf("deliver to %s: %w", recipient, err)
	}

	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return ferrors.NewTransientf("delivery to %s failed with status %d", recipient, resp.StatusCode)
	default:
		return backoff.Permanent(ferrors.NewPermanentDeliveryf("delivery to %s failed with status %d",
			recipient, resp.StatusCode))
	}
}

func (p *Pipeline) newBackoff(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.InitialBackoff
	exp.MaxInterval = p.cfg.MaxBackoff

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.cfg.MaxAttempts)), ctx)
}

// InboxHandler processes an already-verified incoming activity exactly once,
// deduplicating by activity ID using the idempotence KV namespace. It is
// stage 3 of the pipeline.
type InboxHandler func(ctx context.Context, activityID string, activity []byte) error

// HandleInbound verifies idempotence (skipping activities already processed
// within Config.IdempotenceTTL) and otherwise invokes handle. Signature
// verification happens upstream in the federation middleware; by the time an
// activity reaches here it has already passed verify, so this stage only
// enforces the idempotence step named in the queue-abstraction component.
func (p *Pipeline) HandleInbound(ctx context.Context, activityID string, activity []byte, handle InboxHandler) error {
	key := []string{idempotenceNamespace, activityID}

	var seen bool

	if err := p.idempo.Get(ctx, key, &seen); err == nil {
		logger.Debugf("Activity [%s] already processed; skipping", activityID)

		return nil
	} else if !ferrors.IsNotFound(err) {
		return fmt.Errorf("check idempotence for activity %s: %w", activityID, err)
	}

	if err := handle(ctx, activityID, activity); err != nil {
		return err
	}

	if err := p.idempo.Set(ctx, key, true, p.cfg.IdempotenceTTL); err != nil {
		logger.Warnf("Unable to record idempotence marker for activity [%s]: %s", activityID, err)
	}

	return nil
}
