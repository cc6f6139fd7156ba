package utils

import (
	"testing"
)

func TestRingBuffer_FillAndWrap(t *testing.T) {
	rb := NewRingBuffer(3)

	rb.Append(1)
	rb.Append(2)
	if rb.Len() != 2 {
		t.Errorf("Expected size 2, got %d", rb.Len())
	}

	rb.Append(3)
	rb.Append(4) // overwrites 1
	if rb.Len() != 3 {
		t.Errorf("Full buffer must stay at capacity, got %d", rb.Len())
	}

	latest := rb.Latest(3)
	if len(latest) != 3 || latest[0] != 2 || latest[1] != 3 || latest[2] != 4 {
		t.Errorf("Expected [2 3 4], got %v", latest)
	}
}

func TestRingBuffer_Average(t *testing.T) {
	rb := NewRingBuffer(4)

	if rb.Average() != 0 {
		t.Errorf("Empty buffer average must be 0")
	}

	rb.Append(10)
	rb.Append(20)
	if rb.Average() != 15 {
		t.Errorf("Expected 15, got %f", rb.Average())
	}

	rb.Append(30)
	rb.Append(40)
	rb.Append(50) // overwrites 10
	if rb.Average() != 35 {
		t.Errorf("Average must ignore overwritten samples, got %f", rb.Average())
	}
}

func TestRingBuffer_LatestBounds(t *testing.T) {
	rb := NewRingBuffer(5)
	rb.Append(1)
	rb.Append(2)

	if got := rb.Latest(10); len(got) != 2 {
		t.Errorf("Latest beyond size must cap at size, got %v", got)
	}
	if got := rb.Latest(0); len(got) != 0 {
		t.Errorf("Latest(0) must be empty, got %v", got)
	}
}
