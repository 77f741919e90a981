package bloom

import "testing"

func TestEncodeIsDeterministic(t *testing.T) {
	e, err := New(1024, 2, 0, []byte("salt"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := e.Encode([]string{"_dav_", "av", "va"})
	b := e.Encode([]string{"_dav_", "av", "va"})

	if len(a) != len(b) {
		t.Fatalf("non-deterministic lengths: %d vs %d", len(a), len(b))
	}
	seen := make(map[int]bool)
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			t.Fatalf("non-deterministic index sets: %v vs %v", a, b)
		}
	}
}

func TestEncodeIndexRange(t *testing.T) {
	e, err := New(64, 3, 100, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	idx := e.Encode([]string{"alpha", "beta", "gamma", "delta"})
	for _, v := range idx {
		if v < 100 || v >= 164 {
			t.Fatalf("index %d out of range [100, 164)", v)
		}
	}
}

func TestEncodeDedup(t *testing.T) {
	e, _ := New(4, 8, 0, nil)
	idx := e.Encode([]string{"a", "b", "c"})
	seen := make(map[int]bool)
	for _, v := range idx {
		if seen[v] {
			t.Fatalf("duplicate index %d in %v", v, idx)
		}
		seen[v] = true
	}
}

func TestCollisionFractionBounds(t *testing.T) {
	e, _ := New(4, 8, 0, nil)
	_, frac := e.EncodeWithStats([]string{"a", "b", "c"})
	if frac < 0 || frac > 1 {
		t.Fatalf("collision fraction out of [0,1]: %v", frac)
	}
}

func TestEncodeEmptyFeature(t *testing.T) {
	e, _ := New(1024, 2, 0, nil)
	idx, frac := e.EncodeWithStats(nil)
	if len(idx) != 0 {
		t.Fatalf("expected empty index set, got %v", idx)
	}
	if frac != 0 {
		t.Fatalf("expected zero collision fraction for empty feature, got %v", frac)
	}
}

func TestSaltSensitivity(t *testing.T) {
	e1, _ := New(4096, 2, 0, []byte("salt-one"))
	e2, _ := New(4096, 2, 0, []byte("salt-two"))

	tokens := []string{"_dave_", "av", "da", "ve", "_john_", "oh", "jo", "hn"}
	a := e1.Encode(tokens)
	b := e2.Encode(tokens)

	setA := make(map[int]bool)
	for _, v := range a {
		setA[v] = true
	}
	overlap := 0
	for _, v := range b {
		if setA[v] {
			overlap++
		}
	}
	if overlap == len(a) && overlap == len(b) {
		t.Fatal("salt change produced identical index sets")
	}
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	if _, err := New(0, 1, 0, nil); err == nil {
		t.Fatal("expected error for non-positive size")
	}
	if _, err := New(16, 0, 0, nil); err == nil {
		t.Fatal("expected error for zero num_hashes")
	}
	if _, err := New(16, 1, -1, nil); err == nil {
		t.Fatal("expected error for negative offset")
	}
}
