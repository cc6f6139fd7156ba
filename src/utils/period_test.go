package utils

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	if d, err := ParsePeriod("4h"); err != nil || d != 4*time.Hour {
		t.Errorf("Expected 4h, got %v (%v)", d, err)
	}
	if d, err := ParsePeriod(""); err != nil || d != DefaultPeriod {
		t.Errorf("Empty period must default to %v, got %v (%v)", DefaultPeriod, d, err)
	}
	if _, err := ParsePeriod("3y"); err == nil {
		t.Errorf("Unknown period must be rejected")
	}
}

func TestPeriodRange(t *testing.T) {
	from, to := PeriodRange(time.Hour)

	if got := to.Sub(from); got != time.Hour {
		t.Errorf("Expected 1h span, got %v", got)
	}
	if time.Since(to) > time.Second {
		t.Errorf("Range must end at now, got %v", to)
	}
}
