// Package layout assigns side-by-side columns to colliding timeline items
// and turns the result into pixel and percentage positions.
package layout

import (
	"github.com/harrisonrobin/dayline/pkg/interval"
	"github.com/harrisonrobin/dayline/pkg/model"
)

// Slot is the column assignment of one item.
type Slot struct {
	Column       int
	TotalColumns int
}

// Resolve assigns columns so that colliding intervals never share one.
//
// Items sharing an exact start minute are placed first, group by group, so
// they always fan out side by side. Every other item then takes the lowest
// column not held by an already placed item it collides with. The column
// count of an item is taken from its connected collision component only.
// The input order does not matter; intervals are sorted by (start, key).
func Resolve(ivs []interval.Interval) map[model.Key]Slot {
	sorted := append([]interval.Interval(nil), ivs...)
	interval.Sort(sorted)

	n := len(sorted)
	column := make([]int, n)
	for i := range column {
		column[i] = -1
	}

	// Same-start groups first.
	for i := 0; i < n; {
		j := i + 1
		for j < n && sorted[j].Start == sorted[i].Start {
			j++
		}
		if j-i > 1 {
			for k := i; k < j; k++ {
				column[k] = firstFreeColumn(sorted, column, k)
			}
		}
		i = j
	}
	for k := 0; k < n; k++ {
		if column[k] < 0 {
			column[k] = firstFreeColumn(sorted, column, k)
		}
	}

	comps := components(sorted)
	maxCol := make(map[int]int, n)
	for k := 0; k < n; k++ {
		root := comps.find(k)
		if c, ok := maxCol[root]; !ok || column[k] > c {
			maxCol[root] = column[k]
		}
	}

	out := make(map[model.Key]Slot, n)
	for k, iv := range sorted {
		out[iv.Key] = Slot{Column: column[k], TotalColumns: maxCol[comps.find(k)] + 1}
	}
	return out
}

// firstFreeColumn scans 0, 1, 2, ... for a column not used by a placed item
// colliding with sorted[k].
func firstFreeColumn(sorted []interval.Interval, column []int, k int) int {
	used := make(map[int]bool)
	for other := range sorted {
		if other == k || column[other] < 0 {
			continue
		}
		if interval.Collides(sorted[k], sorted[other]) {
			used[column[other]] = true
		}
	}
	c := 0
	for used[c] {
		c++
	}
	return c
}

// components unions every pair of colliding intervals. sorted must be
// ordered by start so the inner scan can stop at the first non-collider.
func components(sorted []interval.Interval) *unionFind {
	uf := newUnionFind(len(sorted))
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Start >= sorted[i].End && sorted[j].Start != sorted[i].Start {
				break
			}
			if interval.Collides(sorted[i], sorted[j]) {
				uf.union(i, j)
			}
		}
	}
	return uf
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
