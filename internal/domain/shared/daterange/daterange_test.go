package daterange

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		nights   int
		wantErr  error
	}{
		{"two nights", "2024-06-10", "2024-06-12", 2, nil},
		{"across month", "2024-06-29", "2024-07-02", 3, nil},
		{"across leap day", "2024-02-28", "2024-03-01", 2, nil},
		{"same day", "2024-06-10", "2024-06-10", 0, ErrInvalidRange},
		{"inverted", "2024-06-12", "2024-06-10", 0, ErrInvalidRange},
		{"garbage", "june", "2024-06-10", 0, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr, err := Parse(tt.checkIn, tt.checkOut)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if dr.Nights() != tt.nights {
				t.Errorf("Nights() = %d, want %d", dr.Nights(), tt.nights)
			}
		})
	}
}

func TestSpan_DropsTimeOfDay(t *testing.T) {
	in := time.Date(2024, 6, 10, 23, 59, 0, 0, time.UTC)
	out := time.Date(2024, 6, 11, 0, 30, 0, 0, time.UTC)
	dr := Span(in, out)
	if !dr.CheckIn.Equal(date(2024, 6, 10)) || !dr.CheckOut.Equal(date(2024, 6, 11)) {
		t.Fatalf("Span() = %v", dr)
	}
	if dr.Nights() != 1 {
		t.Errorf("Nights() = %d, want 1", dr.Nights())
	}
}

func TestDays_ExcludesCheckOut(t *testing.T) {
	dr := Span(date(2024, 6, 10), date(2024, 6, 12))
	days := dr.Days()
	if len(days) != 2 {
		t.Fatalf("len(Days()) = %d, want 2", len(days))
	}
	if !days[0].Equal(date(2024, 6, 10)) || !days[1].Equal(date(2024, 6, 11)) {
		t.Errorf("Days() = %v", days)
	}
	if dr.ContainsDate(date(2024, 6, 12)) {
		t.Error("checkout day must not be contained")
	}
}

func TestEmptySpanHasNoDays(t *testing.T) {
	dr := Span(date(2024, 6, 10), date(2024, 6, 10))
	if !dr.Empty() {
		t.Fatal("expected empty range")
	}
	if len(dr.Days()) != 0 {
		t.Errorf("Days() = %v, want none", dr.Days())
	}
}

func TestOverlaps(t *testing.T) {
	a := Span(date(2024, 6, 10), date(2024, 6, 12))
	if !a.Overlaps(Span(date(2024, 6, 11), date(2024, 6, 13))) {
		t.Error("expected overlap")
	}
	if a.Overlaps(Span(date(2024, 6, 12), date(2024, 6, 14))) {
		t.Error("back-to-back stays must not overlap")
	}
}
