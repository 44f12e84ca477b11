package strategy

import (
	"fmt"
	"time"
)

// DefaultBufferSize is how many price points a strategy keeps per symbol.
const DefaultBufferSize = 50

// PricePoint is a single OHLC observation. Immutable once appended.
type PricePoint struct {
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceBuffer holds the most recent price points in arrival order, oldest
// first. It is not safe for concurrent use; the owning Strategy serializes
// access through its lock.
type PriceBuffer struct {
	points   []PricePoint
	capacity int
}

// NewPriceBuffer creates a buffer that retains at most capacity points.
func NewPriceBuffer(capacity int) *PriceBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &PriceBuffer{
		points:   make([]PricePoint, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a point, evicting the oldest entries once the buffer is full.
func (b *PriceBuffer) Append(p PricePoint) {
	b.points = append(b.points, p)
	if len(b.points) > b.capacity {
		drop := len(b.points) - b.capacity
		b.points = append(b.points[:0], b.points[drop:]...)
	}
}

// Len returns the number of buffered points.
func (b *PriceBuffer) Len() int {
	return len(b.points)
}

// Window returns the k most recent points in arrival order. The returned
// slice is a copy and safe to retain.
func (b *PriceBuffer) Window(k int) ([]PricePoint, error) {
	if len(b.points) < k {
		return nil, fmt.Errorf("%w: have %d points, need %d", ErrInsufficientData, len(b.points), k)
	}
	out := make([]PricePoint, k)
	copy(out, b.points[len(b.points)-k:])
	return out, nil
}
