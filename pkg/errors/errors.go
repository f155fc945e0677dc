/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrContentNotFound is used to indicate that content at a given address could not be found.
	ErrContentNotFound = errors.New("content not found")

	// ErrWitnessesNotFound is used to indicate that no witnesses could not be found.
	ErrWitnessesNotFound = errors.New("witnesses not found")
)

// NewTransient returns a transient error that wraps the given error in order to indicate to the caller that a retry may
// resolve the problem, whereas a non-transient (persistent) error will always fail with the same outcome if retried.
func NewTransient(err error) error {
	return &transientError{err: err}
}

// NewTransientf returns a transient error in order to indicate to the caller that a retry may resolve the problem,
// whereas a non-transient (persistent) error will always fail with the same outcome if retried.
func NewTransientf(format string, a ...interface{}) error {
	return &transientError{err: fmt.Errorf(format, a...)}
}

// IsTransient returns true if the given error is a 'transient' error.
func IsTransient(err error) bool {
	errTransientType := &transientError{}

	return errors.As(err, &errTransientType)
}

// NewBadRequest returns a 'bad request' error that wraps the given error in order to indicate to the caller that
// the request was invalid.
func NewBadRequest(err error) error {
	return &badRequestError{err: err}
}

// NewBadRequestf returns a 'bad request' error in order to indicate to the caller that the request was invalid.
func NewBadRequestf(format string, a ...interface{}) error {
	return &badRequestError{err: fmt.Errorf(format, a...)}
}

// IsBadRequest returns true if the given error is a 'bad request' error.
func IsBadRequest(err error) bool {
	errInvalidRequestType := &badRequestError{}

	return errors.As(err, &errInvalidRequestType)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return e.err.Error()
}

func (e *transientError) Unwrap() error {
	return e.err
}

type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string {
	return e.err.Error()
}

func (e *badRequestError) Unwrap() error {
	return e.err
}

// NewNotFound returns a 'not found' error that wraps the given error, indicating that a route or resource
// does not exist.
func NewNotFound(err error) error {
	return &notFoundError{err: err}
}

// NewNotFoundf returns a 'not found' error indicating that a route or resource does not exist.
func NewNotFoundf(format string, a ...interface{}) error {
	return &notFoundError{err: fmt.Errorf(format, a...)}
}

// IsNotFound returns true if the given error is a 'not found' error.
func IsNotFound(err error) bool {
	errNotFoundType := &notFoundError{}

	return errors.As(err, &errNotFoundType)
}

type notFoundError struct {
	err error
}

func (e *notFoundError) Error() string {
	return e.err.Error()
}

func (e *notFoundError) Unwrap() error {
	return e.err
}

// NewUnauthorized returns an 'unauthorized signature' error wrapping the given error; signature verification failed.
func NewUnauthorized(err error) error {
	return &unauthorizedError{err: err}
}

// NewUnauthorizedf returns an 'unauthorized signature' error; signature verification failed.
func NewUnauthorizedf(format string, a ...interface{}) error {
	return &unauthorizedError{err: fmt.Errorf(format, a...)}
}

// IsUnauthorized returns true if the given error is an 'unauthorized signature' error.
func IsUnauthorized(err error) bool {
	errUnauthorizedType := &unauthorizedError{}

	return errors.As(err, &errUnauthorizedType)
}

type unauthorizedError struct {
	err error
}

func (e *unauthorizedError) Error() string {
	return e.err.Error()
}

func (e *unauthorizedError) Unwrap() error {
	return e.err
}

// NewPrivateAddress returns a 'private address' error wrapping the given error; the URL guard refused the address.
func NewPrivateAddress(err error) error {
	return &privateAddressError{err: err}
}

// NewPrivateAddressf returns a 'private address' error; the URL guard refused the address.
func NewPrivateAddressf(format string, a ...interface{}) error {
	return &privateAddressError{err: fmt.Errorf(format, a...)}
}

// IsPrivateAddress returns true if the given error is a 'private address' error.
func IsPrivateAddress(err error) bool {
	errPrivateAddressType := &privateAddressError{}

	return errors.As(err, &errPrivateAddressType)
}

type privateAddressError struct {
	err error
}

func (e *privateAddressError) Error() string {
	return e.err.Error()
}

func (e *privateAddressError) Unwrap() error {
	return e.err
}

// NewPermanentDelivery returns a 'permanent delivery' error wrapping the given error; the delivery worker must
// drop the task and fire the error callback rather than retry.
func NewPermanentDelivery(err error) error {
	return &permanentDeliveryError{err: err}
}

// NewPermanentDeliveryf returns a 'permanent delivery' error; the delivery worker must drop the task.
func NewPermanentDeliveryf(format string, a ...interface{}) error {
	return &permanentDeliveryError{err: fmt.Errorf(format, a...)}
}

// IsPermanentDelivery returns true if the given error is a 'permanent delivery' error.
func IsPermanentDelivery(err error) bool {
	errPermanentDeliveryType := &permanentDeliveryError{}

	return errors.As(err, &errPermanentDeliveryType)
}

type permanentDeliveryError struct {
	err error
}

func (e *permanentDeliveryError) Error() string {
	return e.err.Error()
}

func (e *permanentDeliveryError) Unwrap() error {
	return e.err
}

// NewBuilderMisuse returns a 'builder misuse' error wrapping the given error; a duplicate dispatcher registration
// or missing required build option.
func NewBuilderMisuse(err error) error {
	return &builderMisuseError{err: err}
}

// NewBuilderMisusef returns a 'builder misuse' error.
func NewBuilderMisusef(format string, a ...interface{}) error {
	return &builderMisuseError{err: fmt.Errorf(format, a...)}
}

// IsBuilderMisuse returns true if the given error is a 'builder misuse' error.
func IsBuilderMisuse(err error) bool {
	errBuilderMisuseType := &builderMisuseError{}

	return errors.As(err, &errBuilderMisuseType)
}

type builderMisuseError struct {
	err error
}

func (e *builderMisuseError) Error() string {
	return e.err.Error()
}

func (e *builderMisuseError) Unwrap() error {
	return e.err
}

// ErrCancelled indicates cooperative cancellation of an I/O-bearing operation.
var ErrCancelled = errors.New("cancelled")
