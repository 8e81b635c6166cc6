package api

import (
	"sync"
	"testing"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var wg sync.WaitGroup
	counters := map[string]int{"a": 0, "b": 0}
	var mu sync.Mutex // guards the map itself, not the counts

	for i := 0; i < 50; i++ {
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				unlock := k.Lock(key)
				defer unlock()

				mu.Lock()
				v := counters[key]
				mu.Unlock()

				mu.Lock()
				counters[key] = v + 1
				mu.Unlock()
			}(key)
		}
	}
	wg.Wait()

	if counters["a"] != 50 || counters["b"] != 50 {
		t.Errorf("lost updates: %v", counters)
	}
	if n := k.len(); n != 0 {
		t.Errorf("expected no lock entries left, got %d", n)
	}
}
