package api

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNextTimestampStrictlyIncreasing(t *testing.T) {
	t.Cleanup(func() { atomic.StoreInt64(&lastTimestamp, 0) })

	prev := nextTimestamp()
	for i := 0; i < 1000; i++ {
		ts := nextTimestamp()
		if ts <= prev {
			t.Fatalf("timestamp went backwards: %d after %d", ts, prev)
		}
		prev = ts
	}
}

func TestNextTimestampUniqueUnderConcurrency(t *testing.T) {
	t.Cleanup(func() { atomic.StoreInt64(&lastTimestamp, 0) })

	const goroutines = 8
	const perGoroutine = 500

	var mu sync.Mutex
	seen := make(map[int64]struct{}, goroutines*perGoroutine)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				local = append(local, nextTimestamp())
			}
			mu.Lock()
			for _, ts := range local {
				seen[ts] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Fatalf("expected %d unique timestamps, got %d", goroutines*perGoroutine, len(seen))
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("ENV_INT_TEST", "")
	if got := envInt("ENV_INT_TEST", 7); got != 7 {
		t.Fatalf("unset var: expected default 7, got %d", got)
	}

	t.Setenv("ENV_INT_TEST", "42")
	if got := envInt("ENV_INT_TEST", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}

	t.Setenv("ENV_INT_TEST", "not-a-number")
	if got := envInt("ENV_INT_TEST", 7); got != 7 {
		t.Fatalf("garbage value: expected default 7, got %d", got)
	}

	t.Setenv("ENV_INT_TEST", "-3")
	if got := envInt("ENV_INT_TEST", 7); got != 7 {
		t.Fatalf("negative value: expected default 7, got %d", got)
	}
}

func TestEnvDur(t *testing.T) {
	t.Setenv("ENV_DUR_TEST", "")
	if got := envDur("ENV_DUR_TEST", time.Second); got != time.Second {
		t.Fatalf("unset var: expected default 1s, got %v", got)
	}

	t.Setenv("ENV_DUR_TEST", "250ms")
	if got := envDur("ENV_DUR_TEST", time.Second); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", got)
	}

	t.Setenv("ENV_DUR_TEST", "soon")
	if got := envDur("ENV_DUR_TEST", time.Second); got != time.Second {
		t.Fatalf("garbage value: expected default 1s, got %v", got)
	}

	t.Setenv("ENV_DUR_TEST", "-5s")
	if got := envDur("ENV_DUR_TEST", time.Second); got != time.Second {
		t.Fatalf("negative value: expected default 1s, got %v", got)
	}
}
