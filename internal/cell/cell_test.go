package cell

import (
	"reflect"
	"testing"
)

func TestTextApplyMinimalDiff(t *testing.T) {
	hello := "hello world"
	txt := NewText(&hello)

	clockBefore := txt.Clock()
	brave := "hello brave world"
	txt.Apply(&brave)

	if txt.Plain() != brave {
		t.Fatalf("Plain() = %q, want %q", txt.Plain(), brave)
	}
	if txt.Clock() != clockBefore+1 {
		t.Fatalf("Clock() = %d, want %d", txt.Clock(), clockBefore+1)
	}

	// Applying the same value again is a no-op: clock must not bump.
	again := clockBefore + 1
	txt.Apply(&brave)
	if txt.Clock() != again {
		t.Fatalf("re-applying identical text bumped clock: got %d want %d", txt.Clock(), again)
	}
}

func TestTextApplyNull(t *testing.T) {
	hello := "hello"
	txt := NewText(&hello)
	txt.Apply(nil)
	if txt.Plain() != nil {
		t.Fatalf("Plain() = %v, want nil", txt.Plain())
	}

	again := "back"
	txt.Apply(&again)
	if txt.Plain() != "back" {
		t.Fatalf("Plain() = %v, want back", txt.Plain())
	}
}

func TestTagsApplyMinimalDiff(t *testing.T) {
	tags := NewTags([]string{"a", "b", "c"})
	tags.Apply([]string{"a", "x", "b", "c", "y"})

	want := []string{"a", "x", "b", "c", "y"}
	if !reflect.DeepEqual(tags.Plain(), want) {
		t.Fatalf("Plain() = %v, want %v", tags.Plain(), want)
	}
	if tags.Clock() != 1 {
		t.Fatalf("Clock() = %d, want 1", tags.Clock())
	}

	tags.Apply([]string{"a", "x", "b", "c", "y"})
	if tags.Clock() != 1 {
		t.Fatalf("re-applying identical tags bumped clock: got %d", tags.Clock())
	}
}

func TestTagsApplyDeleteOnly(t *testing.T) {
	tags := NewTags([]string{"a", "b", "c"})
	tags.Apply([]string{"a", "c"})

	want := []string{"a", "c"}
	if !reflect.DeepEqual(tags.Plain(), want) {
		t.Fatalf("Plain() = %v, want %v", tags.Plain(), want)
	}
}

func TestScalarApplySkipsNoop(t *testing.T) {
	s := NewScalar(float64(5))
	s.Apply(float64(5))
	if s.Clock() != 0 {
		t.Fatalf("Clock() = %d, want 0 for unchanged value", s.Clock())
	}
	s.Apply(float64(6))
	if s.Clock() != 1 {
		t.Fatalf("Clock() = %d, want 1", s.Clock())
	}
}

func TestMergePartialKeepsOmittedFields(t *testing.T) {
	base := map[string]any{"id": "p1", "title": "Hello", "views": float64(0)}
	merged, err := MergePartial(base, map[string]any{"id": "p1", "views": float64(5)})
	if err != nil {
		t.Fatalf("MergePartial failed: %v", err)
	}
	if merged["title"] != "Hello" {
		t.Errorf("title = %v, want Hello (untouched)", merged["title"])
	}
	if merged["views"] != float64(5) {
		t.Errorf("views = %v, want 5", merged["views"])
	}
}
