/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package lifecycle provides a small Start/Stop state machine embedded by the
// long-running services in this repository (queues, the inbox/outbox, the
// redelivery services, NodeInfo, ...), so that each one reports a consistent
// state and cannot be started or stopped more than once concurrently.
package lifecycle

import (
	"sync/atomic"

	"github.com/trustbloc/edge-core/pkg/log"
)

var logger = log.New("lifecycle")

// State is the state of a service's lifecycle.
type State = uint32

const (
	// StateNotStarted indicates that the service has not been started.
	StateNotStarted State = iota
	// StateStarting indicates that the service is in the process of starting.
	StateStarting
	// StateStarted indicates that the service has been started.
	StateStarted
	// StateStopping indicates that the service is in the process of stopping.
	StateStopping
	// StateStopped indicates that the service has been stopped.
	StateStopped
)

// Lifecycle implements the lifecycle of a service, i.e. Start and Stop.
type Lifecycle struct {
	name  string
	state uint32
	start func()
	stop  func()
}

// Option customizes a Lifecycle.
type Option func(lc *Lifecycle)

// WithStart sets the function invoked when the service is started.
func WithStart(start func()) Option {
	return func(lc *Lifecycle) {
		lc.start = start
	}
}

// WithStop sets the function invoked when the service is stopped.
func WithStop(stop func()) Option {
	return func(lc *Lifecycle) {
		lc.stop = stop
	}
}

// New returns a new Lifecycle for the named service.
func New(name string, opts ...Option) *Lifecycle {
	lc := &Lifecycle{
		name:  name,
		start: func() {},
		stop:  func() {},
	}

	for _, opt := range opts {
		opt(lc)
	}

	return lc
}

// Start starts the service. Calling Start on an already-started service is a no-op.
func (h *Lifecycle) Start() {
	if !atomic.CompareAndSwapUint32(&h.state, StateNotStarted, StateStarting) {
		logger.Debugf("[%s] Service already started", h.name)

		return
	}

	logger.Debugf("[%s] Starting service ...", h.name)

	h.start()

	logger.Debugf("[%s] ... service started", h.name)

	atomic.StoreUint32(&h.state, StateStarted)
}

// Stop stops the service. Calling Stop on a non-started service is a no-op.
func (h *Lifecycle) Stop() {
	if !atomic.CompareAndSwapUint32(&h.state, StateStarted, StateStopping) {
		logger.Debugf("[%s] Service already stopped", h.name)

		return
	}

	logger.Debugf("[%s] Stopping service ...", h.name)

	h.stop()

	logger.Debugf("[%s] ... service stopped", h.name)

	atomic.StoreUint32(&h.state, StateStopped)
}

// State returns the current state of the service.
func (h *Lifecycle) State() State {
	return atomic.LoadUint32(&h.state)
}

// IsStarted reports whether the service has been started and not yet stopped.
func (h *Lifecycle) IsStarted() bool {
	return h.State() == StateStarted
}
