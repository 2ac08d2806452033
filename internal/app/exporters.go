// SPDX-License-Identifier: MIT
package app

import (
	"spectralyzer/internal/config"
	"spectralyzer/internal/errs"
	applog "spectralyzer/internal/log"
	"spectralyzer/internal/slot"
	"spectralyzer/internal/transport"
	"spectralyzer/internal/transport/udp"
)

// exporter is a transport fed from its own slot, so a slow network never
// competes with the renderer for the render slot.
type exporter struct {
	slot      *slot.Slot
	publisher *transport.Publisher
}

type exporters []exporter

func startExporters(cfg *config.Config, bins int) (exporters, error) {
	t := cfg.Transport
	var out exporters

	add := func(name string, tr transport.Transport) error {
		s, err := slot.New(bins)
		if err != nil {
			tr.Close()
			return err
		}
		p, err := transport.NewPublisher(name, t.Interval, s, tr, t.Bins)
		if err != nil {
			tr.Close()
			return err
		}
		p.Start()
		out = append(out, exporter{slot: s, publisher: p})
		return nil
	}

	if t.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(t.WebSocketAddress)
		if err != nil {
			err = errs.Open("websocket export", err)
		} else {
			err = add("websocket", ws)
		}
		if err != nil {
			out.close()
			return nil, err
		}
	}
	if t.UDPEnabled {
		u, err := udp.Dial(t.UDPTargetAddress)
		if err != nil {
			err = errs.Open("udp export", err)
		} else {
			err = add("udp", u)
		}
		if err != nil {
			out.close()
			return nil, err
		}
	}
	if t.LogEnabled {
		if err := add("log", transport.NewLoggingTransport(t.Interval, cfg.Analysis.HighCut, t.Bins)); err != nil {
			out.close()
			return nil, err
		}
	}
	return out, nil
}

func (e exporters) close() {
	for _, x := range e {
		if err := x.publisher.Close(); err != nil {
			applog.Warnf("App: Closing exporter: %v", err)
		}
	}
}
