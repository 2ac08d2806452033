// SPDX-License-Identifier: MIT
package udp

import (
	"sync"

	applog "spectralyzer/internal/log"
	"spectralyzer/internal/transport"
)

// UDPTransport packs frames into datagrams and sends them with a
// UDPSender.
type UDPTransport struct {
	sender *UDPSender

	mu     sync.Mutex
	packet []byte // Reused packet buffer.
}

func NewUDPTransport(sender *UDPSender) *UDPTransport {
	return &UDPTransport{sender: sender}
}

// Dial is NewUDPSender followed by NewUDPTransport.
func Dial(targetAddress string) (*UDPTransport, error) {
	sender, err := NewUDPSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return NewUDPTransport(sender), nil
}

func (t *UDPTransport) Send(f transport.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	packet, err := AppendPacket(t.packet[:0], f)
	if err != nil {
		return err
	}
	t.packet = packet

	if err := t.sender.Send(packet); err != nil {
		return err
	}
	applog.Debugf("UDPTransport: Sent packet %d (%d bytes)", uint32(f.Seq), len(packet))
	return nil
}

func (t *UDPTransport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*UDPTransport)(nil)
