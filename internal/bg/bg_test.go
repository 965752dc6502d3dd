package bg_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/bg"
)

func TestSyncRunsInline(t *testing.T) {
	var executed bool
	bg.Sync{}.Do(func() { executed = true })
	if !executed {
		t.Error("Sync.Do returned before fn ran")
	}
}

func TestAsyncDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})

	bg.Async{}.Do(func() {
		<-release
		close(done)
	})
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Async.Do never ran fn")
	}
}

func TestTrackedWaitsForWork(t *testing.T) {
	var r bg.Tracked
	var counter atomic.Int32

	for i := 0; i < 50; i++ {
		r.Do(func() {
			time.Sleep(time.Millisecond)
			counter.Add(1)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := counter.Load(); got != 50 {
		t.Errorf("counter = %d, want 50", got)
	}
}

func TestTrackedWaitHonoursContext(t *testing.T) {
	var r bg.Tracked
	block := make(chan struct{})
	defer close(block)
	r.Do(func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); err == nil {
		t.Error("Wait() should return the context error while work is pending")
	}
}

func TestRunnerInterface(t *testing.T) {
	runners := map[string]bg.Runner{
		"async":   bg.Async{},
		"sync":    bg.Sync{},
		"tracked": &bg.Tracked{},
	}
	for name, r := range runners {
		t.Run(name, func(t *testing.T) {
			done := make(chan struct{})
			r.Do(func() { close(done) })
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatalf("%s runner never ran fn", name)
			}
		})
	}
}
