// SPDX-License-Identifier: MIT

// Package errs holds the error taxonomy shared by the capture, analysis and
// display layers. Callers wrap one of the sentinels together with the
// backend's own error so diagnostics name both the operation and the cause.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrBackendOpen marks a capture or display backend that failed to
	// initialize. Fatal at startup.
	ErrBackendOpen = errors.New("backend open failed")

	// ErrBackendIO marks a single failed capture read or render call. The
	// cycle is skipped and the loop continues.
	ErrBackendIO = errors.New("backend i/o failed")

	// ErrTransformPlan marks a transform that could not be planned for the
	// configured window size. Fatal at startup.
	ErrTransformPlan = errors.New("transform plan failed")

	// ErrResourceExhausted marks buffer sizes that cannot be allocated.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// Open wraps err as a backend open failure of op.
func Open(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackendOpen, err)
}

// IO wraps err as a recoverable backend i/o failure of op.
func IO(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackendIO, err)
}

// Plan wraps err as a transform planning failure.
func Plan(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransformPlan, err)
}

// Exhausted reports that op needed more than limit elements.
func Exhausted(op string, size, limit int) error {
	return fmt.Errorf("%s: %w: %d exceeds limit %d", op, ErrResourceExhausted, size, limit)
}

// IsFatal reports whether err must abort startup.
func IsFatal(err error) bool {
	return errors.Is(err, ErrBackendOpen) ||
		errors.Is(err, ErrTransformPlan) ||
		errors.Is(err, ErrResourceExhausted)
}
