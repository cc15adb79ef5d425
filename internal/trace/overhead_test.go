package trace

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompensator(t *testing.T) {
	c := NewCompensator()
	assert.Equal(t, time.Duration(0), c.Last())
	assert.Equal(t, 5*time.Millisecond, c.Estimate(5*time.Millisecond))

	c.Record(3 * time.Millisecond)
	assert.Equal(t, 3*time.Millisecond, c.Last())
	assert.Equal(t, 8*time.Millisecond, c.Estimate(5*time.Millisecond))

	c.Record(-time.Second)
	assert.Equal(t, time.Duration(0), c.Last())
}

func TestCompensatorConcurrentRecord(t *testing.T) {
	c := NewCompensator()

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			c.Record(d)
			_ = c.Estimate(time.Millisecond)
		}(time.Duration(i) * time.Microsecond)
	}
	wg.Wait()

	last := c.Last()
	assert.GreaterOrEqual(t, last, time.Microsecond)
	assert.LessOrEqual(t, last, 100*time.Microsecond)
}

func TestSummaryDropLast(t *testing.T) {
	s := Summary{}
	assert.False(t, s.DropLast())
	assert.False(t, s.Truncated())

	s.Insert(Entry{URL: "a", Begin: t0})
	s.Insert(Entry{URL: "b", Begin: at(time.Second)})
	assert.True(t, s.DropLast())
	assert.True(t, s.Truncated())
	assert.Equal(t, []string{"a"}, urls(s))
	assert.Equal(t, 1, s.TruncationCount)
}

func TestEntryFinalize(t *testing.T) {
	e := Entry{Begin: t0}
	e.Finalize(at(1500 * time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, e.Duration)

	e.Finalize(at(-time.Second))
	assert.Equal(t, time.Duration(0), e.Duration)
}

func TestManualClockStep(t *testing.T) {
	c := NewManualClock(t0)
	assert.Equal(t, t0, c.Now())
	assert.Equal(t, t0, c.Now())

	c.SetStep(time.Millisecond)
	assert.Equal(t, t0, c.Now())
	assert.Equal(t, at(time.Millisecond), c.Now())

	c.Advance(time.Second)
	assert.Equal(t, at(1002*time.Millisecond), c.Now())
}
