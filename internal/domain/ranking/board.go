// Package ranking provides the ordered board used to produce deterministic
// top-N results: score DESC, then id ASC.
package ranking

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// Scores are compared in fixed point so that float noise between two
// computations of the same value cannot reorder ties.
const scoreScale = 1_000_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled >= float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled <= float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

// Entry is one ranked id.
type Entry struct {
	ID    string
	Score float64
}

type record struct {
	fp    scoreFP
	score float64
}

// treap node
type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) ranks before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: xxhash.Sum64String(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		*out = append(*out, Entry{ID: n.id, Score: records[n.id].score})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// Board keeps ids ordered by score. Node priorities come from a hash of the
// id, so the tree shape is independent of insertion order.
//
// A Board is not safe for concurrent use; callers build one per query.
type Board struct {
	root *node
	byID map[string]record
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{byID: make(map[string]record)}
}

// Set places id at score, replacing any previous score.
func (b *Board) Set(id string, score float64) {
	fp := toFixedPoint(score)
	if old, ok := b.byID[id]; ok {
		if old.fp == fp {
			b.byID[id] = record{fp: fp, score: score}
			return
		}
		b.root = deleteNode(b.root, id, old.fp)
	}
	b.byID[id] = record{fp: fp, score: score}
	b.root = insert(b.root, id, fp)
}

// Add increases the score of id by delta, inserting it at delta if absent.
func (b *Board) Add(id string, delta float64) {
	b.Set(id, b.byID[id].score+delta)
}

// Remove drops id from the board.
func (b *Board) Remove(id string) {
	if old, ok := b.byID[id]; ok {
		b.root = deleteNode(b.root, id, old.fp)
		delete(b.byID, id)
	}
}

// Score returns the current score of id.
func (b *Board) Score(id string) (float64, bool) {
	r, ok := b.byID[id]
	return r.score, ok
}

// Has reports whether id is on the board.
func (b *Board) Has(id string) bool {
	_, ok := b.byID[id]
	return ok
}

// Len returns the number of ids on the board.
func (b *Board) Len() int { return nsize(b.root) }

// Top returns up to n entries in rank order. n <= 0 returns every entry.
func (b *Board) Top(n int) []Entry {
	if n <= 0 || n > b.Len() {
		n = b.Len()
	}
	out := make([]Entry, 0, n)
	collectTopN(b.root, n, b.byID, &out)
	return out
}

// IDs returns every id on the board in rank order.
func (b *Board) IDs() []string {
	top := b.Top(0)
	ids := make([]string, len(top))
	for i, e := range top {
		ids[i] = e.ID
	}
	return ids
}
