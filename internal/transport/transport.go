// SPDX-License-Identifier: MIT
package transport

import "time"

// Frame is one exported spectrum.
type Frame struct {
	Seq       uint64    `json:"seq"`
	Timestamp int64     `json:"timestamp"` // Nanoseconds since epoch.
	Bins      []float32 `json:"bins"`
}

// Time returns the frame timestamp.
func (f Frame) Time() time.Time { return time.Unix(0, f.Timestamp) }

// Transport delivers frames to external consumers. Send must not retain
// f.Bins. Implementations should be thread-safe.
type Transport interface {
	Send(f Frame) error
	Close() error
}
