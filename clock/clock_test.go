package clock_test

import (
	"testing"
	"time"

	bclock "github.com/benbjohnson/clock"

	"github.com/kitmetrics/metrics/clock"
)

func TestMockTicks(t *testing.T) {
	mock := bclock.NewMock()
	c := clock.New(mock)

	start := c.Tick()
	if want, have := int64(0), start; want != have {
		t.Fatalf("want %d, have %d", want, have)
	}

	mock.Add(1500 * time.Millisecond)
	if want, have := int64(1500*time.Millisecond), c.Tick()-start; want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	if want, have := time.Unix(1, 5e8), c.Time(); !want.Equal(have) {
		t.Errorf("want %v, have %v", want, have)
	}
}

func TestDefaultIsMonotonic(t *testing.T) {
	prev := clock.Default.Tick()
	for i := 0; i < 1000; i++ {
		next := clock.Default.Tick()
		if next < prev {
			t.Fatalf("tick went backwards: %d after %d", next, prev)
		}
		prev = next
	}
}

func TestFunc(t *testing.T) {
	var now int64 = 42
	c := clock.Func(func() int64 { return now })
	if want, have := int64(42), c.Tick(); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	now = 2e9
	if want, have := time.Unix(2, 0), c.Time(); !want.Equal(have) {
		t.Errorf("want %v, have %v", want, have)
	}
}
