package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPoolKeepsOrderPerKey(t *testing.T) {
	const perKey = 5
	var (
		mu  sync.Mutex
		got = map[string][]int{}
		wg  sync.WaitGroup
	)
	wg.Add(2 * perKey)
	pool := NewPool[string, int](context.Background(), PoolOptions[int]{
		MaxConcurrency: 2,
		QueueSize:      perKey,
		Handle: func(_ context.Context, j int) {
			defer wg.Done()
			key := "a"
			if j >= 100 {
				key = "b"
			}
			mu.Lock()
			got[key] = append(got[key], j)
			mu.Unlock()
		},
	})
	defer pool.Close()

	for i := 0; i < perKey; i++ {
		if err := pool.Submit(context.Background(), "a", i); err != nil {
			t.Fatalf("Submit(a) error = %v", err)
		}
		if err := pool.Submit(context.Background(), "b", 100+i); err != nil {
			t.Fatalf("Submit(b) error = %v", err)
		}
	}
	waitTimeout(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	for key, jobs := range got {
		for i := 1; i < len(jobs); i++ {
			if jobs[i] < jobs[i-1] {
				t.Fatalf("lane %s handled %v out of order", key, jobs)
			}
		}
		if len(jobs) != perKey {
			t.Fatalf("lane %s handled %d jobs, want %d", key, len(jobs), perKey)
		}
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var (
		mu      sync.Mutex
		running int
		peak    int
		wg      sync.WaitGroup
	)
	pool := NewPool[int, int](context.Background(), PoolOptions[int]{
		MaxConcurrency: 2,
		Handle: func(_ context.Context, _ int) {
			defer wg.Done()
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
		},
	})
	defer pool.Close()

	wg.Add(6)
	for key := 0; key < 6; key++ {
		if err := pool.Submit(context.Background(), key, key); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	waitTimeout(t, &wg)
	if peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestPoolRetiresIdleLanes(t *testing.T) {
	var wg sync.WaitGroup
	pool := NewPool[int, int](context.Background(), PoolOptions[int]{
		IdleAfter: 20 * time.Millisecond,
		Handle:    func(context.Context, int) { wg.Done() },
	})
	defer pool.Close()

	wg.Add(1)
	if err := pool.Submit(context.Background(), 7, 1); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitTimeout(t, &wg)

	deadline := time.Now().Add(2 * time.Second)
	for pool.Lanes() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Lanes() = %d after idle period, want 0", pool.Lanes())
		}
		time.Sleep(5 * time.Millisecond)
	}

	wg.Add(1)
	if err := pool.Submit(context.Background(), 7, 2); err != nil {
		t.Fatalf("Submit() after retire error = %v", err)
	}
	waitTimeout(t, &wg)
}

func TestSubmitAfterClose(t *testing.T) {
	pool := NewPool[int, int](context.Background(), PoolOptions[int]{Handle: func(context.Context, int) {}})
	pool.Close()
	if err := pool.Submit(context.Background(), 1, 1); err == nil {
		t.Fatalf("Submit() error = nil, want context error")
	}
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("jobs not handled in time")
	}
}
