package grid

import "testing"

func TestDistance(t *testing.T) {
	if got := Distance(P(0, 0), P(3, -5)); got != 5 {
		t.Fatalf("Distance: got %d want 5", got)
	}
	if !Adjacent(P(1, 1), P(2, 2)) || Adjacent(P(1, 1), P(1, 1)) {
		t.Fatalf("Adjacent mismatch")
	}
}

func TestStepToward(t *testing.T) {
	d, ok := StepToward(P(0, 0), P(5, -2))
	if !ok || d != NorthEast {
		t.Fatalf("got %v %v want NE", d, ok)
	}
	if _, ok := StepToward(P(2, 2), P(2, 2)); ok {
		t.Fatalf("expected no step to self")
	}
}

func TestLine_Endpoints(t *testing.T) {
	l := Line(P(0, 0), P(4, 2))
	if l[0] != P(0, 0) || l[len(l)-1] != P(4, 2) {
		t.Fatalf("line endpoints: %v", l)
	}
	if len(l) != 5 {
		t.Fatalf("line length: got %d want 5 (%v)", len(l), l)
	}
	for i := 1; i < len(l); i++ {
		if !Adjacent(l[i-1], l[i]) {
			t.Fatalf("line not contiguous at %d: %v", i, l)
		}
	}
}

func TestDirection_TextRoundTrip(t *testing.T) {
	for _, d := range Directions {
		b, _ := d.MarshalText()
		var got Direction
		if err := got.UnmarshalText(b); err != nil || got != d {
			t.Fatalf("%v: got %v err %v", d, got, err)
		}
	}
	if !SouthWest.Diagonal() || East.Diagonal() {
		t.Fatalf("Diagonal mismatch")
	}
}
