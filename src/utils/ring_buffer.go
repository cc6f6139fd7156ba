package utils

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of float64 samples.
// True ring buffer - no resizing allowed!
// -----------------------------------------------------------------------------

type RingBuffer struct {
	data     []float64
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewRingBuffer creates a new buffer with fixed capacity
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 100
	}

	return &RingBuffer{
		data:     make([]float64, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append adds a sample, overwriting the oldest one when full
func (rb *RingBuffer) Append(v float64) {
	rb.data[rb.index] = v
	rb.index = (rb.index + 1) % rb.capacity

	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// Len returns the current number of samples
func (rb *RingBuffer) Len() int {
	return rb.size
}

// -----------------------------------------------------------------------------

// Average returns the mean of the stored samples, 0 when empty
func (rb *RingBuffer) Average() float64 {
	if rb.size == 0 {
		return 0
	}

	var sum float64
	startIdx := (rb.index - rb.size + rb.capacity) % rb.capacity
	for i := 0; i < rb.size; i++ {
		sum += rb.data[(startIdx+i)%rb.capacity]
	}
	return sum / float64(rb.size)
}

// -----------------------------------------------------------------------------

// Latest returns up to n most recent samples, oldest first
func (rb *RingBuffer) Latest(n int) []float64 {
	if rb.size == 0 || n <= 0 {
		return []float64{}
	}

	count := n
	if n > rb.size {
		count = rb.size
	}

	result := make([]float64, count)
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		result[i] = rb.data[(startIdx+i)%rb.capacity]
	}
	return result
}
