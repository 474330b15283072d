package waiter

import (
	"context"
	"testing"
	"time"
)

func TestSignalWakesWaiter(t *testing.T) {
	w := New()
	sig := NewSignal(w)

	go func() {
		time.Sleep(10 * time.Millisecond)
		sig.Raise()
	}()

	result := w.Wait(context.Background(), time.Second)
	if result != WaitWoken {
		t.Fatalf("expected WaitWoken, got %v", result)
	}
}

func TestWaitTimesOut(t *testing.T) {
	w := New()
	NewSignal(w)

	result := w.Wait(context.Background(), 20*time.Millisecond)
	if result != WaitTimedOut {
		t.Fatalf("expected WaitTimedOut, got %v", result)
	}
}

func TestWaitCancelled(t *testing.T) {
	w := New()
	NewSignal(w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := w.Wait(ctx, time.Second)
	if result != WaitCancelled {
		t.Fatalf("expected WaitCancelled, got %v", result)
	}
}

func TestSignalTestAndClearConsumesOnce(t *testing.T) {
	w := New()
	sig := NewSignal(w)
	sig.Raise()

	if !sig.TestAndClear() {
		t.Fatal("expected signal to be set")
	}
	if sig.TestAndClear() {
		t.Fatal("expected signal to be cleared after first read")
	}
}
