package ranking

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"
)

func TestBoard_BasicOperations(t *testing.T) {
	b := NewBoard()

	if b.Len() != 0 {
		t.Errorf("expected empty board, got %d", b.Len())
	}
	if top := b.Top(10); len(top) != 0 {
		t.Errorf("expected no entries, got %d", len(top))
	}

	b.Set("p1", 0.5)
	b.Set("p2", 0.9)
	b.Set("p3", 0.1)

	top := b.Top(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].ID != "p2" || top[1].ID != "p1" {
		t.Errorf("unexpected order: %+v", top)
	}

	if s, ok := b.Score("p3"); !ok || s != 0.1 {
		t.Errorf("expected p3 at 0.1, got %v %v", s, ok)
	}
}

func TestBoard_TieBreaking(t *testing.T) {
	b := NewBoard()
	for _, id := range []string{"c", "a", "d", "b"} {
		b.Set(id, 1.0)
	}
	got := b.IDs()
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestBoard_FloatNoiseTies(t *testing.T) {
	b := NewBoard()
	b.Set("b", 0.1+0.2)
	b.Set("a", 0.3)
	if ids := b.IDs(); ids[0] != "a" {
		t.Errorf("values equal up to float noise must tie by id, got %v", ids)
	}
}

func TestBoard_AddAndReplace(t *testing.T) {
	b := NewBoard()
	b.Add("x", 0.25)
	b.Add("x", 0.25)
	b.Set("y", 0.4)

	if s, _ := b.Score("x"); s != 0.5 {
		t.Errorf("expected accumulated 0.5, got %v", s)
	}
	if ids := b.IDs(); ids[0] != "x" || ids[1] != "y" {
		t.Errorf("unexpected order %v", ids)
	}

	b.Set("x", 0.1)
	if ids := b.IDs(); ids[0] != "y" || b.Len() != 2 {
		t.Errorf("replace should reorder without duplicating, got %v", ids)
	}

	b.Remove("y")
	b.Remove("missing")
	if b.Len() != 1 || b.Has("y") {
		t.Errorf("expected only x left, got %v", b.IDs())
	}
}

func TestBoard_ExtremeScoreValues(t *testing.T) {
	b := NewBoard()
	b.Set("nan", math.NaN())
	b.Set("inf", math.Inf(1))
	b.Set("neg", math.Inf(-1))
	b.Set("zero", 0)

	ids := b.IDs()
	if ids[0] != "inf" || ids[len(ids)-1] != "neg" {
		t.Errorf("unexpected extreme ordering %v", ids)
	}
}

func TestBoard_MatchesSortUnderStress(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	b := NewBoard()
	scores := make(map[string]float64)

	for i := 0; i < 5000; i++ {
		id := fmt.Sprintf("id-%03d", r.Intn(400))
		s := float64(r.Intn(50)) / 10
		if r.Intn(4) == 0 {
			b.Remove(id)
			delete(scores, id)
			continue
		}
		b.Set(id, s)
		scores[id] = s
	}

	want := make([]Entry, 0, len(scores))
	for id, s := range scores {
		want = append(want, Entry{ID: id, Score: s})
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].Score != want[j].Score {
			return want[i].Score > want[j].Score
		}
		return want[i].ID < want[j].ID
	})

	got := b.Top(0)
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: want %+v got %+v", i, want[i], got[i])
		}
	}

	if top := b.Top(7); len(top) != 7 || top[6] != want[6] {
		t.Errorf("Top(7) disagrees with full order")
	}
}
