package database

import (
	"errors"
	"sort"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// FilterColumns compacts columns to the rows where selection is true, order
// preserved. Pure function over already-known data; callers may parallelize
// per column.
func FilterColumns(columns []Column, selection []bool) ([]Column, int) {
	indices := make([]int, 0, len(selection))
	for i, keep := range selection {
		if keep {
			indices = append(indices, i)
		}
	}
	res := make([]Column, len(columns))
	for i, c := range columns {
		res[i] = c.Gather(indices)
	}
	return res, len(indices)
}

// SelectionLength returns the number of rows a selection keeps.
func SelectionLength(selection []bool) int {
	n := 0
	for _, keep := range selection {
		if keep {
			n++
		}
	}
	return n
}

// AggregatedColumns is the output of AggregateColumns: one row per distinct
// group key, ordered by key.
type AggregatedColumns struct {
	GroupColumns []Column
	SumColumns   [][]fr.Element
	CountColumn  []int64
}

var errNoGroupColumns = errors.New("database: group by requires at least one grouping column")

// AggregateColumns groups the selected rows of groupBy lexicographically,
// sums sumColumns per group, and counts group sizes. Output rows are sorted
// in strictly increasing key order, which the verifier re-checks on the
// revealed result.
func AggregateColumns(groupBy []Column, sumColumns []Column, selection []bool) (AggregatedColumns, error) {
	if len(groupBy) == 0 {
		return AggregatedColumns{}, errNoGroupColumns
	}

	keys := make([][]fr.Element, len(groupBy))
	for i, c := range groupBy {
		keys[i] = c.Scalars()
	}
	sums := make([][]fr.Element, len(sumColumns))
	for i, c := range sumColumns {
		sums[i] = c.Scalars()
	}

	selected := make([]int, 0, len(selection))
	for i, keep := range selection {
		if keep {
			selected = append(selected, i)
		}
	}
	less := func(a, b int) bool {
		for k := range keys {
			switch keys[k][a].Cmp(&keys[k][b]) {
			case -1:
				return true
			case 1:
				return false
			}
		}
		return false
	}
	sort.SliceStable(selected, func(i, j int) bool { return less(selected[i], selected[j]) })

	sameKey := func(a, b int) bool {
		for k := range keys {
			if !keys[k][a].Equal(&keys[k][b]) {
				return false
			}
		}
		return true
	}

	var representatives []int
	var counts []int64
	outSums := make([][]fr.Element, len(sumColumns))
	for _, row := range selected {
		if len(representatives) > 0 && sameKey(representatives[len(representatives)-1], row) {
			counts[len(counts)-1]++
			for k := range outSums {
				last := len(outSums[k]) - 1
				outSums[k][last].Add(&outSums[k][last], &sums[k][row])
			}
			continue
		}
		representatives = append(representatives, row)
		counts = append(counts, 1)
		for k := range outSums {
			outSums[k] = append(outSums[k], sums[k][row])
		}
	}

	groupOut := make([]Column, len(groupBy))
	for i, c := range groupBy {
		groupOut[i] = c.Gather(representatives)
	}
	return AggregatedColumns{
		GroupColumns: groupOut,
		SumColumns:   outSums,
		CountColumn:  counts,
	}, nil
}
