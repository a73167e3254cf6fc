package junban

import "testing"

func TestFilterUnfiltered(t *testing.T) {
	w, _ := spawn(t, 300, 10, 16)
	f := NewFilter(w)
	n := 0
	for f.Next() {
		pos, speed := f.Get()
		if pos == nil || speed == nil {
			t.Fatal("Get returned nil")
		}
		n++
	}
	if n != 300 {
		t.Errorf("expected 300 entities, got %d", n)
	}
	if f.Count() != 300 {
		t.Errorf("expected Count 300, got %d", f.Count())
	}
}

func TestFilterSetGroup(t *testing.T) {
	w, _ := spawn(t, 300, 10, 16)
	f := NewFilter(w)
	f.SetGroup(4)
	n := 0
	for f.Next() {
		if f.Group() != 4 {
			t.Fatalf("expected group 4, got %d", f.Group())
		}
		g, _ := w.Group(f.Entity())
		if g != 4 {
			t.Fatalf("entity reports group %d", g)
		}
		n++
	}
	if n != 30 {
		t.Errorf("expected 30 entities, got %d", n)
	}
	if got := len(f.Entities(nil)); got != 30 {
		t.Errorf("expected 30 from Entities, got %d", got)
	}
}

func TestFilterSwitchGroup(t *testing.T) {
	w, _ := spawn(t, 100, 10, 16)
	f := NewFilter(w)
	f.SetGroup(1)
	f.SetGroup(2)
	if f.Count() != 10 {
		t.Errorf("expected 10, got %d", f.Count())
	}
	if f.Accepts(1) || !f.Accepts(2) {
		t.Error("expected SetGroup to replace the previous group")
	}
	f.ResetFilter()
	if f.Filtered() || f.Count() != 100 {
		t.Errorf("expected unfiltered count 100, got %d", f.Count())
	}
}

func TestFilterMutateThroughGet(t *testing.T) {
	w, ents := spawn(t, 20, 2, 4)
	f := NewFilter(w)
	f.SetGroup(1)
	for f.Next() {
		pos, _ := f.Get()
		pos.Z = 9
	}
	for i, e := range ents {
		want := float32(0)
		if i%2 == 1 {
			want = 9
		}
		if got := w.Position(e).Z; got != want {
			t.Errorf("entity %d: expected Z %v, got %v", i, want, got)
		}
	}
}

func TestFilterExtract(t *testing.T) {
	w, _ := spawn(t, 50, 5, 4)
	f := NewFilter(w)
	f.SetGroup(2)
	var x extraction
	f.extract(&x)
	if x.len() != 10 {
		t.Fatalf("expected 10 rows, got %d", x.len())
	}
	for i := range x.positions {
		x.positions[i].Z = 5
	}
	x.scatter(w, 0, x.len())
	f.Reset()
	for f.Next() {
		pos, _ := f.Get()
		if pos.Z != 5 {
			t.Fatalf("expected scattered Z 5, got %v", pos.Z)
		}
	}
	f.SetGroup(3)
	f.extract(&x)
	if x.len() != 10 {
		t.Errorf("expected extract to replace rows, got %d", x.len())
	}
}

func TestExtractionLengthMismatchPanics(t *testing.T) {
	x := extraction{
		refs:      make([]entityRef, 3),
		positions: make([]Vec3, 3),
		speeds:    make([]float32, 2),
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	x.len()
}

func TestMembershipRefresh(t *testing.T) {
	w, ents := spawn(t, 40, 4, 4)
	var m membership
	m.refresh(w, 4)
	if len(m.lookup(2)) != 10 {
		t.Fatalf("expected 10 members, got %d", len(m.lookup(2)))
	}
	if m.lookup(9) != nil {
		t.Error("expected nil for a group outside the range")
	}
	w.SetGroup(ents[0], 2)
	m.refresh(w, 4)
	if len(m.lookup(2)) != 11 || len(m.lookup(0)) != 9 {
		t.Errorf("expected rescan after structural change, got %d and %d", len(m.lookup(2)), len(m.lookup(0)))
	}
	m.Release()
	if m.built || m.groups != nil {
		t.Error("expected released membership")
	}
}
