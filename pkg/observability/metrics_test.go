package observability

import (
	"sync"
	"testing"
)

func TestCounterBasics(t *testing.T) {
	m := NewMetrics()
	c := m.Counter(APIRequests)
	c.Inc()
	c.Add(2)

	if got := c.Value(); got != 3 {
		t.Errorf("counter value = %d, want 3", got)
	}
	if c.Name() != APIRequests {
		t.Errorf("counter name = %q, want %q", c.Name(), APIRequests)
	}
}

func TestCounterIdentity(t *testing.T) {
	m := NewMetrics()
	if m.Counter("x") != m.Counter("x") {
		t.Error("same name returned distinct counters")
	}
}

func TestSnapshotAndNames(t *testing.T) {
	m := NewMetrics()
	m.Counter("b").Inc()
	m.Counter("a").Add(5)

	snap := m.Snapshot()
	if snap["a"] != 5 || snap["b"] != 1 {
		t.Errorf("snapshot = %v", snap)
	}

	names := m.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v, want [a b]", names)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Counter("races").Inc()
			}
		}()
	}
	wg.Wait()

	if got := m.Counter("races").Value(); got != 5000 {
		t.Errorf("counter value = %d, want 5000", got)
	}
}
