// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"errors"
	"image/color"
	"io"
	"net"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"spectralyzer/internal/capture"
	"spectralyzer/internal/config"
	"spectralyzer/internal/display"
	"spectralyzer/internal/errs"
	"spectralyzer/internal/transport/udp"
)

// journal records lifecycle events from both goroutines.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(ev string) {
	j.mu.Lock()
	j.events = append(j.events, ev)
	j.mu.Unlock()
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.events)
}

type fakeSurface struct {
	j        *journal
	w, h     int
	presents int
	polls    int
	quit     func(s *fakeSurface) (display.Event, bool)
}

func (s *fakeSurface) Size() (int, int)       { return s.w, s.h }
func (s *fakeSurface) Clear(color.RGBA) error { return nil }
func (s *fakeSurface) DrawLine(x1, y1, x2, y2 float32, c color.RGBA) error {
	return nil
}
func (s *fakeSurface) DrawText(x, y float32, text string, c color.RGBA) error { return nil }

func (s *fakeSurface) Present() error {
	s.presents++
	return nil
}

func (s *fakeSurface) PollEvent() (display.Event, bool) {
	s.polls++
	if s.quit == nil {
		return display.Event{}, false
	}
	return s.quit(s)
}

func (s *fakeSurface) Close() error {
	s.j.add("display closed")
	return nil
}

func quitAfterPresents(n int) func(*fakeSurface) (display.Event, bool) {
	return func(s *fakeSurface) (display.Event, bool) {
		if s.presents >= n {
			return display.Event{Type: display.EventQuit}, true
		}
		return display.Event{}, false
	}
}

// trackedSource wraps a real source and journals its lifecycle.
type trackedSource struct {
	capture.Source
	j     *journal
	reads int
	eofAt int
}

func (s *trackedSource) Read(frame []float32) error {
	s.reads++
	if s.eofAt > 0 && s.reads > s.eofAt {
		return io.EOF
	}
	return s.Source.Read(frame)
}

func (s *trackedSource) Interrupt() error {
	s.j.add("source interrupted")
	if i, ok := s.Source.(capture.Interrupter); ok {
		return i.Interrupt()
	}
	return nil
}

func (s *trackedSource) Close() error {
	s.j.add("source closed")
	return s.Source.Close()
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Audio.Backend = "tone"
	cfg.Audio.SampleRate = 8000
	cfg.Audio.FrameDuration = 10 * time.Millisecond
	cfg.Audio.WindowSize = 256
	cfg.Audio.ToneFrequency = 1000
	cfg.Analysis.DisplayBins = 64
	cfg.Analysis.HighCut = 4000
	cfg.Display.Width = 64
	cfg.Display.Height = 40
	cfg.Display.FPS = 200
	cfg.Display.LabelCount = 4
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, j *journal, surface *fakeSurface, eofAt int) *App {
	t.Helper()
	a, err := New(cfg,
		WithSurface(func(display.Config) (display.Surface, error) {
			j.add("display opened")
			return surface, nil
		}),
		WithSource(func() (capture.Source, error) {
			src, err := capture.NewTone(CaptureConfig(cfg))
			if err != nil {
				return nil, err
			}
			j.add("source opened")
			return &trackedSource{Source: src, j: j, eofAt: eofAt}, nil
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestRun_QuitClosesDisplayAfterProducer(t *testing.T) {
	j := &journal{}
	surface := &fakeSurface{j: j, w: 64, h: 40, quit: quitAfterPresents(3)}
	a := newTestApp(t, testConfig(), j, surface, 0)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The producer may observe cancellation before the interrupt lands, so
	// only the relative order of open and close events is fixed.
	got := slices.DeleteFunc(j.snapshot(), func(ev string) bool { return ev == "source interrupted" })
	want := []string{"display opened", "source opened", "source closed", "display closed"}
	if !slices.Equal(got, want) {
		t.Errorf("lifecycle = %v, want %v", got, want)
	}
	if surface.presents < 3 {
		t.Errorf("presents = %d, want at least 3", surface.presents)
	}
}

func TestRun_QuitKey(t *testing.T) {
	j := &journal{}
	surface := &fakeSurface{j: j, w: 64, h: 40}
	surface.quit = func(s *fakeSurface) (display.Event, bool) {
		if s.polls%2 == 0 {
			return display.Event{}, false
		}
		if s.presents == 0 {
			return display.Event{Type: display.EventKeyDown, Key: "x"}, true
		}
		return display.Event{Type: display.EventKeyDown, Key: "q"}, true
	}
	a := newTestApp(t, testConfig(), j, surface, 0)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if surface.presents == 0 {
		t.Error("other keys should not end the loop")
	}
}

func TestRun_ContextCancel(t *testing.T) {
	j := &journal{}
	surface := &fakeSurface{j: j, w: 64, h: 40}
	a := newTestApp(t, testConfig(), j, surface, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if got := j.snapshot(); got[len(got)-1] != "display closed" {
		t.Errorf("display should close last, got %v", got)
	}
}

func TestRun_ProducerEOFKeepsDisplay(t *testing.T) {
	j := &journal{}
	surface := &fakeSurface{j: j, w: 64, h: 40}
	surface.quit = func(s *fakeSurface) (display.Event, bool) {
		if s.polls > 60 {
			return display.Event{Type: display.EventQuit}, true
		}
		return display.Event{}, false
	}
	a := newTestApp(t, testConfig(), j, surface, 2)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if surface.presents == 0 {
		t.Error("expected the last spectrum to be drawn")
	}
	if a.frames > 3 {
		t.Errorf("frames = %d, redraws should stop once the producer is done", a.frames)
	}
}

func TestRun_RepaintsOnWindowEventAfterEOF(t *testing.T) {
	j := &journal{}
	surface := &fakeSurface{j: j, w: 64, h: 40}
	before := -1
	surface.quit = func(s *fakeSurface) (display.Event, bool) {
		switch {
		case s.polls >= 200:
			return display.Event{Type: display.EventQuit}, true
		case s.polls == 100 || s.polls == 120 || s.polls == 140:
			if before < 0 {
				before = s.presents
			}
			return display.Event{Type: display.EventOther}, true
		}
		return display.Event{}, false
	}
	a := newTestApp(t, testConfig(), j, surface, 2)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if before < 0 {
		t.Fatal("window events were never delivered")
	}
	if got := surface.presents - before; got < 3 {
		t.Errorf("presents after window events = %d, want >= 3 repaints", got)
	}
}

func TestRun_StartupFailures(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		surface   error
		source    error
		wantErr   error
		wantEvent []string
	}{
		{
			name:      "oversized window",
			mutate:    func(c *config.Config) { c.Audio.WindowSize = 1 << 30 },
			wantErr:   errs.ErrResourceExhausted,
			wantEvent: nil,
		},
		{
			name:      "display open",
			surface:   errs.Open("display", errors.New("no video device")),
			wantErr:   errs.ErrBackendOpen,
			wantEvent: nil,
		},
		{
			name:      "capture open",
			source:    errs.Open("portaudio", errors.New("device busy")),
			wantErr:   errs.ErrBackendOpen,
			wantEvent: []string{"display opened", "display closed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			j := &journal{}
			surface := &fakeSurface{j: j, w: 64, h: 40}
			a, err := New(cfg,
				WithSurface(func(display.Config) (display.Surface, error) {
					if tt.surface != nil {
						return nil, tt.surface
					}
					j.add("display opened")
					return surface, nil
				}),
				WithSource(func() (capture.Source, error) {
					if tt.source != nil {
						return nil, tt.source
					}
					t.Error("source should not be opened")
					return nil, errors.New("unexpected open")
				}),
			)
			if err != nil {
				t.Fatal(err)
			}

			err = a.Run(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() = %v, want %v", err, tt.wantErr)
			}
			if !errs.IsFatal(err) {
				t.Errorf("startup failure %v should be fatal", err)
			}
			if got := j.snapshot(); !slices.Equal(got, tt.wantEvent) {
				t.Errorf("lifecycle = %v, want %v", got, tt.wantEvent)
			}
		})
	}
}

func TestRun_UDPExport(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	cfg := testConfig()
	cfg.Transport.UDPEnabled = true
	cfg.Transport.UDPTargetAddress = conn.LocalAddr().String()
	cfg.Transport.Interval = 5 * time.Millisecond
	cfg.Transport.Bins = 16
	cfg.Transport.LogEnabled = true

	received := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 2048)
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			close(received)
			return
		}
		received <- buf[:n]
	}()

	var packet []byte
	j := &journal{}
	surface := &fakeSurface{j: j, w: 64, h: 40}
	surface.quit = func(s *fakeSurface) (display.Event, bool) {
		select {
		case p := <-received:
			packet = p
			return display.Event{Type: display.EventQuit}, true
		default:
			return display.Event{}, false
		}
	}
	a := newTestApp(t, cfg, j, surface, 0)

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if packet == nil {
		t.Fatal("no spectrum datagram received")
	}
	f, err := udp.DecodePacket(packet)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if len(f.Bins) != 16 {
		t.Errorf("exported %d bins, want 16", len(f.Bins))
	}
}

func TestCaptureConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Enabled = true
	cfg.Recording.Path = "out.wav"
	cfg.Recording.BitDepth = 24
	cfg.Audio.GateThreshold = 0.1

	cc := CaptureConfig(cfg)
	if cc.FrameSize != 5760 || cc.SampleRate != 192000 {
		t.Errorf("frame %d at %.0f Hz, want 5760 at 192000", cc.FrameSize, cc.SampleRate)
	}
	if cc.RecordPath != "out.wav" || cc.RecordBitDepth != 24 || cc.GateThreshold != 0.1 {
		t.Errorf("recording/gate not mapped: %+v", cc)
	}

	cfg.Recording.Enabled = false
	if cc := CaptureConfig(cfg); cc.RecordPath != "" {
		t.Errorf("RecordPath = %q with recording disabled", cc.RecordPath)
	}
}

func TestDefaultSurface_UnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Display.Backend = "x11"
	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.openSurface(display.Config{Width: 10, Height: 10}); !errors.Is(err, errs.ErrBackendOpen) {
		t.Errorf("openSurface() = %v, want ErrBackendOpen", err)
	}
}

func TestFindFont(t *testing.T) {
	dir := t.TempDir()
	font := filepath.Join(dir, "font.ttf")
	if err := os.WriteFile(font, []byte("ttf"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := findFont([]string{filepath.Join(dir, "missing.ttf"), dir, font}); got != font {
		t.Errorf("findFont() = %q, want %q", got, font)
	}
	if got := findFont([]string{filepath.Join(dir, "missing.ttf")}); got != "" {
		t.Errorf("findFont() = %q, want empty", got)
	}
}
