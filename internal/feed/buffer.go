// internal/feed/buffer.go
package feed

import (
	"sync"
	"time"
)

// DefaultCapacity: размер буфера последних кандидатов.
const DefaultCapacity = 50

// Candidate: токен, прошедший фильтр. Не изменяется после добавления.
type Candidate struct {
	Address    string    `json:"address"`
	MarketCap  float64   `json:"market_cap"`
	Holders    int64     `json:"holders"`
	Liquidity  float64   `json:"liquidity"`
	Volume     float64   `json:"volume"`
	AdmittedAt time.Time `json:"admitted_at"`
}

// Buffer: ограниченная FIFO-очередь кандидатов.
// При переполнении вытесняется самый старый элемент.
type Buffer struct {
	mu       sync.RWMutex
	items    []Candidate
	capacity int
}

// NewBuffer creates a buffer; non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		items:    make([]Candidate, 0, capacity),
		capacity: capacity,
	}
}

// Add appends c and reports whether the oldest entry was evicted.
func (b *Buffer) Add(c Candidate) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := false
	if len(b.items) >= b.capacity {
		copy(b.items, b.items[1:])
		b.items = b.items[:len(b.items)-1]
		evicted = true
	}
	b.items = append(b.items, c)
	return evicted
}

// Snapshot возвращает копию содержимого, от старых к новым.
func (b *Buffer) Snapshot() []Candidate {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Candidate, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}
