package dice

import "testing"

func TestRollExplosive_AccumulatesOnMaxFace(t *testing.T) {
	r := D6.RollExplosive(NewScript(6, 3))
	if r.Natural != 6 || r.Total != 9 {
		t.Fatalf("got %+v want natural=6 total=9", r)
	}

	r = D6.RollExplosive(NewScript(6, 6, 6, 1))
	if r.Total != 19 {
		t.Fatalf("chain: got total %d want 19", r.Total)
	}
}

func TestRollExplosive_Saturates(t *testing.T) {
	vals := make([]int, 0, 40)
	for i := 0; i < 40; i++ {
		vals = append(vals, 12)
	}
	r := D12.RollExplosive(NewScript(vals...))
	if r.Total != MaxRoll {
		t.Fatalf("got %d want saturated %d", r.Total, MaxRoll)
	}
}

func TestRoll_Bounds(t *testing.T) {
	src := NewRand(7)
	for _, d := range []Die{D4, D6, D8, D10, D12} {
		exceeded := 0
		for i := 0; i < 2000; i++ {
			v := d.Roll(src)
			if v < 1 || v > d.Faces() {
				t.Fatalf("%s: roll %d out of range", d, v)
			}
			e := d.RollExplosive(src)
			if e.Total < 1 {
				t.Fatalf("%s: explosive total %d < 1", d, e.Total)
			}
			if e.Total > d.Faces() {
				exceeded++
				if e.Natural != d.Faces() {
					t.Fatalf("%s: exceeded faces without natural max: %+v", d, e)
				}
			}
		}
		if exceeded == 0 {
			t.Fatalf("%s: never exploded in 2000 rolls", d)
		}
	}
}

func TestSuccesses(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{-3, 0}, {0, 0}, {3, 0}, {4, 1}, {7, 1}, {8, 2}, {13, 3},
	}
	for _, c := range cases {
		if got := (RollResult{Total: c.total}).Successes(); got != c.want {
			t.Fatalf("total %d: got %d want %d", c.total, got, c.want)
		}
	}
}

func TestLevel_DieAndModifier(t *testing.T) {
	if Untrained.Die() != D4 || Untrained.Modifier() != -2 {
		t.Fatalf("untrained: %s %d", Untrained.Die(), Untrained.Modifier())
	}
	if LevelD8.Die() != D8 || LevelD8.Modifier() != 0 {
		t.Fatalf("d8: %s %d", LevelD8.Die(), LevelD8.Modifier())
	}
	if got := LevelD10.StepsAbove(LevelD6); got != 2 {
		t.Fatalf("StepsAbove: got %d want 2", got)
	}
	if got := Untrained.StepsAbove(LevelD4); got != -1 {
		t.Fatalf("StepsAbove below: got %d want -1", got)
	}
	if LevelD12.Next() != LevelD12 {
		t.Fatalf("Next should cap at d12")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"none": Untrained, "D6": LevelD6, " d12 ": LevelD12, "": Untrained} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("d7"); err == nil {
		t.Fatalf("expected error for d7")
	}
}

func TestTrait_RollAppliesModifiers(t *testing.T) {
	r := Trait{Level: Untrained, Bonus: 1}.Roll(NewScript(3), 2)
	if r.Natural != 3 || r.Total != 3-2+1+2 {
		t.Fatalf("got %+v", r)
	}
}

func TestTrait_RollWildKeepsBetter(t *testing.T) {
	best, trait := T(LevelD6).RollWild(NewScript(2, 5), 1)
	if trait.Total != 3 || best.Total != 6 {
		t.Fatalf("best=%+v trait=%+v", best, trait)
	}
}

func TestRand_StateRoundTrip(t *testing.T) {
	a := NewRand(42)
	for i := 0; i < 10; i++ {
		a.IntN(100)
	}
	state, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	b := NewRand(1)
	if err := b.UnmarshalBinary(state); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	for i := 0; i < 20; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("draw %d diverged: %d vs %d", i, x, y)
		}
	}
}

func TestScript_PanicsWhenExhausted(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	s := NewScript(1)
	D6.Roll(s)
	D6.Roll(s)
}

func TestParseDie(t *testing.T) {
	d, err := ParseDie("d10")
	if err != nil || d != D10 {
		t.Fatalf("got %v %v", d, err)
	}
	if _, err := ParseDie("d3"); err == nil {
		t.Fatalf("expected error for d3")
	}
}
