package triggers

import (
	"encoding/json"
	"testing"
)

func TestTableJSONKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	tbl := newTable[TextTrigger]()
	for _, key := range []string{"zeta", "alpha", "نور"} {
		tbl.Insert(key, &TextTrigger{CanonicalAlias: key, Reply: key})
	}
	if tbl.Insert("alpha", &TextTrigger{Reply: "other"}) {
		t.Fatalf("Insert(existing) = true, want false")
	}

	data, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded := newTable[TextTrigger]()
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	got := decoded.Keys()
	want := []string{"zeta", "alpha", "نور"}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
	row, _ := decoded.Get("alpha")
	if row.Reply != "alpha" {
		t.Fatalf("Get(alpha).Reply = %q, want alpha", row.Reply)
	}
}

func TestTableDeleteAndNull(t *testing.T) {
	t.Parallel()

	tbl := newTable[SenderProfile]()
	tbl.Insert("1", &SenderProfile{ID: 1})
	tbl.Insert("2", &SenderProfile{ID: 2})
	if !tbl.Delete("1") || tbl.Delete("1") {
		t.Fatalf("Delete() should succeed once")
	}
	if tbl.Len() != 1 || tbl.Keys()[0] != "2" {
		t.Fatalf("Keys() = %v, want [2]", tbl.Keys())
	}
	if err := json.Unmarshal([]byte("null"), tbl); err != nil {
		t.Fatalf("Unmarshal(null) error = %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d after null, want 0", tbl.Len())
	}
	if err := json.Unmarshal([]byte(`["x"]`), tbl); err == nil {
		t.Fatalf("Unmarshal(array) expected error")
	}
}

func TestNormalizeAndSplitAliases(t *testing.T) {
	t.Parallel()

	if got := Normalize("  HeLLo  "); got != "hello" {
		t.Fatalf("Normalize() = %q, want hello", got)
	}
	got := SplitAliases(" تحيه, سلام ،مرحبا,, ")
	want := []string{"تحيه", "سلام", "مرحبا"}
	if len(got) != len(want) {
		t.Fatalf("SplitAliases() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SplitAliases() = %v, want %v", got, want)
		}
	}
}
