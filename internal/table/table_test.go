package table

import "testing"

func TestFrameSetColumnFixesRowCount(t *testing.T) {
	f := NewFrame(0)
	if err := f.SetColumn("name", []any{"bob", "sally", "john"}); err != nil {
		t.Fatalf("SetColumn: %v", err)
	}
	if f.Len() != 3 {
		t.Fatalf("expected Len()=3, got %d", f.Len())
	}

	if err := f.SetColumn("dob", []any{"01/01/2000"}); err == nil {
		t.Fatal("expected error for mismatched row count")
	}
}

func TestFrameColumnsPreservesInsertionOrder(t *testing.T) {
	f := NewFrame(2)
	_ = f.SetColumn("a", []any{1, 2})
	_ = f.SetColumn("c", []any{1, 2})
	_ = f.SetColumn("b", []any{1, 2})

	got := f.Columns()
	want := []string{"a", "c", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFrameCloneIsIndependentForReplacedColumns(t *testing.T) {
	f := NewFrame(2)
	_ = f.SetColumn("a", []any{1, 2})

	clone := f.Clone()
	_ = clone.SetColumn("a", []any{9, 9})

	original, _ := f.Column("a")
	if original[0] != 1 {
		t.Fatalf("mutating clone's replaced column affected original: %v", original)
	}
}

func TestStringsNormalisesNilAndScalars(t *testing.T) {
	got := Strings([]any{"x", nil, 42, 3.5})
	want := []string{"x", "", "42", "3.5"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Strings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
