package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockerReleasesEntries(t *testing.T) {
	l := newLocker()

	unlock := l.Lock("user:", []string{"bob", "alice", "bob", ""})
	assert.Equal(t, 2, l.size())
	unlock()
	assert.Equal(t, 0, l.size())

	var (
		wg      sync.WaitGroup
		inside  int32
		counter int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("asset:", []string{"usdc", "weth"})
			defer unlock()

			// only the locker guards counter
			assert.Equal(t, int32(1), atomic.AddInt32(&inside, 1))
			counter++
			atomic.AddInt32(&inside, -1)
		}()
	}

	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.size())
}
