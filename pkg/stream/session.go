// Package stream implements the framed-event lifecycle for one streaming
// invocation: ordered content frames, exactly one terminal frame on success
// or failure, and silent teardown on cancellation.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sitequery/mcp-gateway/pkg/protocol"
	"github.com/sitequery/mcp-gateway/pkg/retrieval"
)

const logPrefix = "stream:session"

// State is the session lifecycle state.
type State int

const (
	Open State = iota
	Emitting
	ClosedSuccess
	ClosedError
	ClosedCancelled
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Emitting:
		return "emitting"
	case ClosedSuccess:
		return "closed(success)"
	case ClosedError:
		return "closed(error)"
	case ClosedCancelled:
		return "closed(cancelled)"
	}
	return "unknown"
}

// FrameWriter delivers one frame to the client.
type FrameWriter interface {
	WriteFrame(frame protocol.StreamFrame) error
}

// Session manages frame emission for a single streaming invocation. It is
// driven by one goroutine; frame order is whatever the caller feeds it.
type Session struct {
	w       FrameWriter
	state   State
	emitted int
}

// NewSession creates a Session in the Open state.
func NewSession(w FrameWriter) *Session {
	return &Session{w: w, state: Open}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Emitted returns the number of content frames written so far.
func (s *Session) Emitted() int {
	return s.emitted
}

// Emit writes one content frame. It is an error once the session is closed.
func (s *Session) Emit(partial string) error {
	if s.closed() {
		return fmt.Errorf("%s - emit on %s session", logPrefix, s.state)
	}
	if err := s.w.WriteFrame(protocol.ContentFrame(partial)); err != nil {
		s.state = ClosedCancelled
		return fmt.Errorf("%s - content frame write failed: %w", logPrefix, err)
	}
	s.state = Emitting
	s.emitted++
	return nil
}

// CloseSuccess emits the success terminal frame. A second close is a no-op.
func (s *Session) CloseSuccess() error {
	if s.closed() {
		return nil
	}
	s.state = ClosedSuccess
	if err := s.w.WriteFrame(protocol.EndFrame()); err != nil {
		s.state = ClosedCancelled
		return fmt.Errorf("%s - terminal frame write failed: %w", logPrefix, err)
	}
	return nil
}

// CloseError emits the failure terminal frame. A second close is a no-op.
func (s *Session) CloseError(message string) error {
	if s.closed() {
		return nil
	}
	s.state = ClosedError
	if err := s.w.WriteFrame(protocol.ErrorFrame(message)); err != nil {
		s.state = ClosedCancelled
		return fmt.Errorf("%s - terminal frame write failed: %w", logPrefix, err)
	}
	return nil
}

// Cancel transitions to Closed(cancelled) without emitting anything. A
// cancelled client must never receive a misleading success terminal frame.
func (s *Session) Cancel() {
	if s.closed() {
		return
	}
	s.state = ClosedCancelled
}

func (s *Session) closed() bool {
	return s.state == ClosedSuccess || s.state == ClosedError || s.state == ClosedCancelled
}

// Run drains backend chunks into the session until completion, failure or
// cancellation, and returns the terminal state. Chunk order is preserved;
// the adapter never reorders or batches.
func Run(ctx context.Context, s *Session, ch <-chan retrieval.Chunk) State {
	for {
		select {
		case <-ctx.Done():
			s.Cancel()
			return s.State()
		case c, ok := <-ch:
			if !ok {
				if err := s.CloseSuccess(); err != nil {
					slog.Debug(fmt.Sprintf("%s - %v", logPrefix, err))
				}
				return s.State()
			}
			if c.Err != nil {
				if err := s.CloseError(c.Err.Error()); err != nil {
					slog.Debug(fmt.Sprintf("%s - %v", logPrefix, err))
				}
				return s.State()
			}
			if err := s.Emit(c.Text); err != nil {
				// Write failure means the client went away mid-stream.
				slog.Debug(fmt.Sprintf("%s - %v", logPrefix, err))
				return s.State()
			}
		}
	}
}
