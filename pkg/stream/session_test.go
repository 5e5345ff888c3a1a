package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/sitequery/mcp-gateway/pkg/protocol"
	"github.com/sitequery/mcp-gateway/pkg/retrieval"
)

const sessionTestPrefix = "stream:session_test"

// recordingWriter captures frames in order.
type recordingWriter struct {
	frames []protocol.StreamFrame
	fail   bool
}

func (w *recordingWriter) WriteFrame(frame protocol.StreamFrame) error {
	if w.fail {
		return errors.New("client gone")
	}
	w.frames = append(w.frames, frame)
	return nil
}

func TestSession_NChunksThenSuccess(t *testing.T) {
	w := &recordingWriter{}
	s := NewSession(w)

	ch := make(chan retrieval.Chunk, 3)
	ch <- retrieval.Chunk{Text: "one"}
	ch <- retrieval.Chunk{Text: "two"}
	ch <- retrieval.Chunk{Text: "three"}
	close(ch)

	state := Run(context.Background(), s, ch)
	if state != ClosedSuccess {
		t.Fatalf("%s - state = %s, want closed(success)", sessionTestPrefix, state)
	}
	if len(w.frames) != 4 {
		t.Fatalf("%s - expected 3 content + 1 terminal frame, got %d", sessionTestPrefix, len(w.frames))
	}
	for i, want := range []string{"one", "two", "three"} {
		frame := w.frames[i]
		if frame.Type != protocol.TypeStreamEvent {
			t.Errorf("%s - frame %d type = %q", sessionTestPrefix, i, frame.Type)
		}
		if frame.Content == nil || frame.Content.PartialResponse != want {
			t.Errorf("%s - frame %d content = %+v, want %q", sessionTestPrefix, i, frame.Content, want)
		}
	}
	terminal := w.frames[3]
	if terminal.Type != protocol.TypeStreamEnd || terminal.Status != protocol.StatusSuccess {
		t.Errorf("%s - terminal frame = %+v", sessionTestPrefix, terminal)
	}
}

func TestSession_FailureAfterTwoChunks(t *testing.T) {
	w := &recordingWriter{}
	s := NewSession(w)

	ch := make(chan retrieval.Chunk, 3)
	ch <- retrieval.Chunk{Text: "one"}
	ch <- retrieval.Chunk{Text: "two"}
	ch <- retrieval.Chunk{Err: errors.New("backend gave up")}
	close(ch)

	state := Run(context.Background(), s, ch)
	if state != ClosedError {
		t.Fatalf("%s - state = %s, want closed(error)", sessionTestPrefix, state)
	}
	if len(w.frames) != 3 {
		t.Fatalf("%s - expected 2 content + 1 terminal frame, got %d", sessionTestPrefix, len(w.frames))
	}
	terminal := w.frames[2]
	if terminal.Type != protocol.TypeStreamEnd || terminal.Status != protocol.StatusError {
		t.Errorf("%s - terminal frame = %+v", sessionTestPrefix, terminal)
	}
	if terminal.Error == "" {
		t.Errorf("%s - terminal frame has no error message", sessionTestPrefix)
	}
}

func TestSession_CancellationEmitsNoTerminalFrame(t *testing.T) {
	w := &recordingWriter{}
	s := NewSession(w)

	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan retrieval.Chunk)
	done := make(chan State, 1)
	go func() {
		done <- Run(ctx, s, ch)
	}()

	cancel()
	state := <-done

	if state != ClosedCancelled {
		t.Fatalf("%s - state = %s, want closed(cancelled)", sessionTestPrefix, state)
	}
	if len(w.frames) != 0 {
		t.Errorf("%s - cancelled session emitted %d frames", sessionTestPrefix, len(w.frames))
	}
}

func TestSession_NoSecondTerminalFrame(t *testing.T) {
	w := &recordingWriter{}
	s := NewSession(w)

	if err := s.Emit("partial"); err != nil {
		t.Fatalf("%s - emit failed: %v", sessionTestPrefix, err)
	}
	if err := s.CloseError("boom"); err != nil {
		t.Fatalf("%s - close failed: %v", sessionTestPrefix, err)
	}
	if err := s.CloseSuccess(); err != nil {
		t.Fatalf("%s - second close returned error: %v", sessionTestPrefix, err)
	}
	if err := s.CloseError("again"); err != nil {
		t.Fatalf("%s - third close returned error: %v", sessionTestPrefix, err)
	}

	if len(w.frames) != 2 {
		t.Fatalf("%s - expected exactly 1 content + 1 terminal frame, got %d", sessionTestPrefix, len(w.frames))
	}
}

func TestSession_NoContentAfterClose(t *testing.T) {
	w := &recordingWriter{}
	s := NewSession(w)

	if err := s.CloseSuccess(); err != nil {
		t.Fatalf("%s - close failed: %v", sessionTestPrefix, err)
	}
	if err := s.Emit("late"); err == nil {
		t.Fatalf("%s - expected error emitting after close", sessionTestPrefix)
	}
	if len(w.frames) != 1 {
		t.Fatalf("%s - expected only the terminal frame, got %d", sessionTestPrefix, len(w.frames))
	}
}

func TestSession_WriteFailureMovesToCancelled(t *testing.T) {
	w := &recordingWriter{fail: true}
	s := NewSession(w)

	if err := s.Emit("partial"); err == nil {
		t.Fatalf("%s - expected write failure", sessionTestPrefix)
	}
	if s.State() != ClosedCancelled {
		t.Errorf("%s - state = %s, want closed(cancelled)", sessionTestPrefix, s.State())
	}
}
