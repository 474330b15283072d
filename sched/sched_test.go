package sched

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLaunchTaskRunsAndCompletes(t *testing.T) {
	s := New(context.Background(), nil)
	done := make(chan struct{})

	s.LaunchTask("t1", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	s.Wait()
}

func TestCancelPropagatesToTask(t *testing.T) {
	s := New(context.Background(), nil)
	observed := make(chan error, 1)

	s.LaunchTask("t2", func(ctx context.Context) error {
		<-ctx.Done()
		observed <- ctx.Err()
		return ErrOperationCancelled
	})

	s.Cancel()
	select {
	case err := <-observed:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("task never observed cancellation")
	}
	s.Wait()
}

func TestExecutorSubmitRunsOnTargetAndReturnsRun(t *testing.T) {
	target := New(context.Background(), nil)
	ex := NewExecutor(target)

	ran := make(chan struct{})
	stopPump := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopPump:
				return
			default:
				target.RunPending()
				time.Sleep(time.Millisecond)
			}
		}
	}()
	defer close(stopPump)

	result, err := ex.Submit(context.Background(), func() { close(ran) })
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result != ExecRun {
		t.Fatalf("expected ExecRun, got %v", result)
	}
	select {
	case <-ran:
	default:
		t.Fatal("closure never ran")
	}
}

func TestExecutorSubmitKilledWhenTargetCancelled(t *testing.T) {
	target := New(context.Background(), nil)
	ex := NewExecutor(target)
	target.Cancel()

	result, err := ex.Submit(context.Background(), func() {})
	if err == nil {
		t.Fatal("expected error")
	}
	if result != ExecKilled {
		t.Fatalf("expected ExecKilled, got %v", result)
	}
}
