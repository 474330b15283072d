package whiteboard

import (
	"context"
	"testing"
	"time"

	"github.com/k64z/steamfleet/waiter"
)

type loginState struct {
	SteamID uint64
}

func TestSetAndGet(t *testing.T) {
	wb := New()
	Set(wb, loginState{SteamID: 123})

	v, ok := Has[loginState](wb)
	if !ok {
		t.Fatal("expected value present")
	}
	if v.SteamID != 123 {
		t.Errorf("SteamID: got %d, want 123", v.SteamID)
	}
}

func TestClearRemovesValue(t *testing.T) {
	wb := New()
	Set(wb, loginState{SteamID: 1})
	Clear[loginState](wb)

	if _, ok := Has[loginState](wb); ok {
		t.Fatal("expected no value after Clear")
	}
}

func TestGetOrDefault(t *testing.T) {
	wb := New()
	v := GetOr(wb, loginState{SteamID: 999})
	if v.SteamID != 999 {
		t.Errorf("default: got %d, want 999", v.SteamID)
	}
}

func TestObserverPreMarkedChangedOnExistingValue(t *testing.T) {
	wb := New()
	Set(wb, loginState{SteamID: 5})

	w := waiter.New()
	obs := CreateObserver[loginState](wb, w)

	result := w.Wait(context.Background(), 50*time.Millisecond)
	if result != waiter.WaitWoken {
		t.Fatalf("expected immediate wake for pre-existing value, got %v", result)
	}
	v, ok := ObserverHas[loginState](obs)
	if !ok || v.SteamID != 5 {
		t.Fatalf("unexpected observer read: %v ok=%v", v, ok)
	}
}

func TestObserverWakesOnChange(t *testing.T) {
	wb := New()
	w := waiter.New()
	CreateObserver[loginState](wb, w)

	go func() {
		time.Sleep(10 * time.Millisecond)
		Set(wb, loginState{SteamID: 42})
	}()

	result := w.Wait(context.Background(), time.Second)
	if result != waiter.WaitWoken {
		t.Fatalf("expected wake on Set, got %v", result)
	}
}
