package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerPool_GetPutCycle(t *testing.T) {
	timer := GetTimer(10 * time.Millisecond)
	require.NotNil(t, timer)

	<-timer.C
	PutTimer(timer)

	// A recycled timer must fire fresh for its new duration.
	begin := time.Now()
	timer = GetTimer(50 * time.Millisecond)
	defer PutTimer(timer)

	fired := <-timer.C
	assert.GreaterOrEqual(t, fired.Sub(begin), 40*time.Millisecond)
}

func TestTimerPool_PutActiveTimer(t *testing.T) {
	// Returning a timer that has not fired yet must not leave a stale
	// tick for the next borrower.
	timer := GetTimer(20 * time.Millisecond)
	PutTimer(timer)

	timer = GetTimer(60 * time.Millisecond)
	defer PutTimer(timer)

	select {
	case <-timer.C:
		t.Fatal("timer fired from a stale expiry")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestTimerPool_Concurrency(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			timer := GetTimer(5 * time.Millisecond)
			defer PutTimer(timer)
			<-timer.C
		}()
	}
	wg.Wait()
}
