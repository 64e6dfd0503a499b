package feed

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferEvictsOldest(t *testing.T) {
	b := NewBuffer(DefaultCapacity)

	for i := 0; i < DefaultCapacity; i++ {
		assert.False(t, b.Add(Candidate{Address: fmt.Sprintf("mint-%d", i)}))
	}
	assert.Equal(t, DefaultCapacity, b.Len())

	assert.True(t, b.Add(Candidate{Address: "mint-new"}))
	assert.Equal(t, DefaultCapacity, b.Len())

	snap := b.Snapshot()
	require.Len(t, snap, DefaultCapacity)
	assert.Equal(t, "mint-1", snap[0].Address)
	assert.Equal(t, "mint-new", snap[len(snap)-1].Address)
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewBuffer(2)
	b.Add(Candidate{Address: "a"})

	snap := b.Snapshot()
	snap[0].Address = "changed"

	assert.Equal(t, "a", b.Snapshot()[0].Address)
}

func TestBufferDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewBuffer(0).Capacity())
	assert.Equal(t, 3, NewBuffer(3).Capacity())
}

func TestBufferConcurrentAdd(t *testing.T) {
	b := NewBuffer(10)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Add(Candidate{Address: fmt.Sprintf("%d-%d", i, j)})
				_ = b.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, b.Len())
}
