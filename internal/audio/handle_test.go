package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeOutput 模拟阻塞播放：直到 finish 被关闭或 ctx 取消。
type fakeOutput struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	finish  chan struct{}
	err     error
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{
		started: make(chan struct{}, 8),
		finish:  make(chan struct{}),
	}
}

func (f *fakeOutput) Play(ctx context.Context, samples []float32, sampleRate int) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	f.started <- struct{}{}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.finish:
		return f.err
	}
}

func (f *fakeOutput) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func loadTestHandle(t *testing.T, out Output) *Handle {
	t.Helper()
	h, err := NewLoader(out).Load(EncodeWAV(pcmBytes(1, 2, 3, 4), 24000, 1))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return h
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not finish")
	}
}

func TestLoader_RejectsGarbage(t *testing.T) {
	if _, err := NewLoader(newFakeOutput()).Load([]byte("nope")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestHandle_NaturalEndFiresOnce(t *testing.T) {
	out := newFakeOutput()
	h := loadTestHandle(t, out)

	var ended atomic.Int32
	h.OnEnded(func() { ended.Add(1) })

	if err := h.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	<-out.started
	close(out.finish)
	waitDone(t, h)

	if ended.Load() != 1 {
		t.Fatalf("expected onEnded once, got %d", ended.Load())
	}
	if !h.Released() {
		t.Error("handle should be released after natural end")
	}

	// 释放后的调用都是空操作
	_ = h.Play()
	h.Stop()
	if out.callCount() != 1 {
		t.Errorf("expected a single Play on the output, got %d", out.callCount())
	}
	if ended.Load() != 1 {
		t.Errorf("onEnded fired again: %d", ended.Load())
	}
}

func TestHandle_StopSuppressesOnEnded(t *testing.T) {
	out := newFakeOutput()
	h := loadTestHandle(t, out)

	var ended atomic.Int32
	h.OnEnded(func() { ended.Add(1) })

	_ = h.Play()
	<-out.started
	h.Stop()
	waitDone(t, h)

	if ended.Load() != 0 {
		t.Fatalf("onEnded must not fire after Stop, got %d", ended.Load())
	}
	if !h.Released() {
		t.Error("handle should be released after Stop")
	}
	h.Stop() // 幂等
}

func TestHandle_StopBeforePlay(t *testing.T) {
	out := newFakeOutput()
	h := loadTestHandle(t, out)

	h.Stop()
	waitDone(t, h)

	if err := h.Play(); err != nil {
		t.Fatalf("Play on released handle should be a no-op, got %v", err)
	}
	if out.callCount() != 0 {
		t.Fatalf("output should not be used, got %d calls", out.callCount())
	}
}

func TestHandle_PlayIsIdempotent(t *testing.T) {
	out := newFakeOutput()
	h := loadTestHandle(t, out)

	_ = h.Play()
	_ = h.Play()
	<-out.started
	h.Stop()
	waitDone(t, h)

	if out.callCount() != 1 {
		t.Fatalf("expected 1 output call, got %d", out.callCount())
	}
}

func TestHandle_OutputErrorEndsPlayback(t *testing.T) {
	out := newFakeOutput()
	out.err = errors.New("device lost")
	h := loadTestHandle(t, out)

	ended := make(chan struct{})
	h.OnEnded(func() { close(ended) })
	_ = h.Play()
	<-out.started
	close(out.finish)

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("expected onEnded after output error")
	}
}
