package messageboard

import (
	"context"
	"testing"
	"time"

	"github.com/k64z/steamfleet/waiter"
)

type tradeNotice struct {
	Count int
}

func TestSendDeliversToAllObservers(t *testing.T) {
	mb := New()
	w1 := waiter.New()
	w2 := waiter.New()
	o1 := CreateObserver[tradeNotice](mb, w1)
	o2 := CreateObserver[tradeNotice](mb, w2)

	n := Send(mb, tradeNotice{Count: 3})
	if n != 2 {
		t.Fatalf("recipient count: got %d, want 2", n)
	}

	v1, ok := o1.Fetch()
	if !ok || v1.Count != 3 {
		t.Fatalf("o1 fetch: got %v ok=%v", v1, ok)
	}
	v2, ok := o2.Fetch()
	if !ok || v2.Count != 3 {
		t.Fatalf("o2 fetch: got %v ok=%v", v2, ok)
	}
}

func TestFIFOOrderPerSubscriber(t *testing.T) {
	mb := New()
	w := waiter.New()
	o := CreateObserver[tradeNotice](mb, w)

	Send(mb, tradeNotice{Count: 1})
	Send(mb, tradeNotice{Count: 2})
	Send(mb, tradeNotice{Count: 3})

	var got []int
	o.Handle(false, func(v tradeNotice) { got = append(got, v.Count) })

	want := []int{1, 2, 3}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("order: got %v, want %v", got, want)
		}
	}
}

func TestDroppedObserverNotDelivered(t *testing.T) {
	mb := New()
	w := waiter.New()
	o := CreateObserver[tradeNotice](mb, w)
	o.Drop()

	n := Send(mb, tradeNotice{Count: 1})
	if n != 0 {
		t.Fatalf("recipient count after drop: got %d, want 0", n)
	}
}

func TestSendWakesWaiter(t *testing.T) {
	mb := New()
	w := waiter.New()
	CreateObserver[tradeNotice](mb, w)

	go func() {
		time.Sleep(10 * time.Millisecond)
		Send(mb, tradeNotice{Count: 7})
	}()

	result := w.Wait(context.Background(), time.Second)
	if result != waiter.WaitWoken {
		t.Fatalf("expected wake on send, got %v", result)
	}
}
