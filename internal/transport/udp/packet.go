// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"fmt"
	"math"

	"spectralyzer/internal/transport"
)

/*
Packet layout, big endian:

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |   Bin Count   |          Bins           |
|      (uint32)     |   (int64, ns epoch)   |   (uint16)    |      (N * float32)      |
+-------------------+-----------------------+---------------+-------------------------+

The sequence number is the low 32 bits of the spectrum generation.
*/

const (
	HeaderSize = 4 + 8 + 2

	// MaxBins keeps a packet inside a single IPv4 UDP datagram.
	MaxBins = (65507 - HeaderSize) / 4
)

// AppendPacket encodes f onto dst.
func AppendPacket(dst []byte, f transport.Frame) ([]byte, error) {
	if len(f.Bins) > MaxBins {
		return dst, fmt.Errorf("%d bins exceed the UDP packet limit of %d", len(f.Bins), MaxBins)
	}
	dst = binary.BigEndian.AppendUint32(dst, uint32(f.Seq))
	dst = binary.BigEndian.AppendUint64(dst, uint64(f.Timestamp))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(f.Bins)))
	for _, v := range f.Bins {
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst, nil
}

// DecodePacket parses a packet produced by AppendPacket.
func DecodePacket(p []byte) (transport.Frame, error) {
	if len(p) < HeaderSize {
		return transport.Frame{}, fmt.Errorf("short packet: %d bytes", len(p))
	}
	count := int(binary.BigEndian.Uint16(p[12:14]))
	if len(p) != HeaderSize+4*count {
		return transport.Frame{}, fmt.Errorf("packet holds %d bytes, header announces %d bins", len(p), count)
	}

	f := transport.Frame{
		Seq:       uint64(binary.BigEndian.Uint32(p[0:4])),
		Timestamp: int64(binary.BigEndian.Uint64(p[4:12])),
		Bins:      make([]float32, count),
	}
	for i := range f.Bins {
		f.Bins[i] = math.Float32frombits(binary.BigEndian.Uint32(p[HeaderSize+4*i:]))
	}
	return f, nil
}
