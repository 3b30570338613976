package journal

import "testing"

func TestNewEvents_AdvancesOffset(t *testing.T) {
	j := New()
	j.Push(Event{Text: "a"})
	j.Push(Event{Text: "b"})
	if got := j.NewEvents(); len(got) != 2 {
		t.Fatalf("first drain: %d events", len(got))
	}
	if got := j.NewEvents(); len(got) != 0 {
		t.Fatalf("second drain should be empty, got %v", got)
	}
	j.Push(Event{Text: "c"})
	got := j.NewEvents()
	if len(got) != 1 || got[0].Text != "c" {
		t.Fatalf("third drain: %v", got)
	}
	if j.Len() != 3 || len(j.Since(1)) != 2 || j.Since(9) != nil {
		t.Fatalf("entries must stay in the journal after draining")
	}
}

func TestPushUnique_DedupesAgainstLastOnly(t *testing.T) {
	j := New()
	if !j.PushUnique(Event{Text: "You can't dig here."}) {
		t.Fatalf("first push dropped")
	}
	if j.PushUnique(Event{Text: "You can't dig here."}) {
		t.Fatalf("repeat push kept")
	}
	j.Push(Event{Text: "The zombie shambles."})
	if !j.PushUnique(Event{Text: "You can't dig here."}) {
		t.Fatalf("non-adjacent repeat dropped")
	}
	if j.Len() != 3 {
		t.Fatalf("len=%d want 3", j.Len())
	}
}
