package table

import (
	"fmt"
)

const (
	leftSuffix  = "_x"
	rightSuffix = "_y"
)

// JoinSpec names the key columns of a left-outer join.
type JoinSpec struct {
	Name    string
	LeftOn  string
	RightOn string
}

// LeftJoin performs a relational left-outer join. Every left row appears at least
// once; each matching right row produces one output row; unmatched left rows carry
// nulls on the right side. Null keys never match.
//
// Output columns are the left columns followed by the right columns. Names present
// on both sides get "_x"/"_y" suffixes, except a key column shared by name which is
// emitted once.
func LeftJoin(left, right *Table, spec JoinSpec) (*Table, error) {
	if left == nil || right == nil {
		return nil, fmt.Errorf("join %s: both inputs are required", spec.Name)
	}
	leftKey, ok := left.ColumnIndex(spec.LeftOn)
	if !ok {
		return nil, fmt.Errorf("join %s: left column %q not found in %s", spec.Name, spec.LeftOn, left.Name)
	}
	rightKey, ok := right.ColumnIndex(spec.RightOn)
	if !ok {
		return nil, fmt.Errorf("join %s: right column %q not found in %s", spec.Name, spec.RightOn, right.Name)
	}

	sharedKey := spec.LeftOn == spec.RightOn
	columns, rightKeep := joinColumns(left.Columns, right.Columns, sharedKey, rightKey)

	index := make(map[Key][]int, len(right.Rows))
	for idx, row := range right.Rows {
		key, ok := KeyOf(row[rightKey])
		if !ok {
			continue
		}
		index[key] = append(index[key], idx)
	}

	out := New(spec.Name, columns)
	out.Rows = make([]Row, 0, len(left.Rows))
	for _, leftRow := range left.Rows {
		var matches []int
		if key, ok := KeyOf(leftRow[leftKey]); ok {
			matches = index[key]
		}
		if len(matches) == 0 {
			out.Rows = append(out.Rows, mergeRows(leftRow, nil, rightKeep))
			continue
		}
		for _, idx := range matches {
			out.Rows = append(out.Rows, mergeRows(leftRow, right.Rows[idx], rightKeep))
		}
	}
	return out, nil
}

func joinColumns(left, right []string, sharedKey bool, rightKey int) ([]string, []int) {
	leftNames := make(map[string]struct{}, len(left))
	for _, name := range left {
		leftNames[name] = struct{}{}
	}
	rightNames := make(map[string]struct{}, len(right))
	for idx, name := range right {
		if sharedKey && idx == rightKey {
			continue
		}
		rightNames[name] = struct{}{}
	}

	columns := make([]string, 0, len(left)+len(right))
	for _, name := range left {
		if _, clash := rightNames[name]; clash {
			name += leftSuffix
		}
		columns = append(columns, name)
	}

	keep := make([]int, 0, len(right))
	for idx, name := range right {
		if sharedKey && idx == rightKey {
			continue
		}
		if _, clash := leftNames[name]; clash {
			name += rightSuffix
		}
		columns = append(columns, name)
		keep = append(keep, idx)
	}
	return columns, keep
}

func mergeRows(left Row, right Row, rightKeep []int) Row {
	merged := make(Row, 0, len(left)+len(rightKeep))
	merged = append(merged, left...)
	for _, idx := range rightKeep {
		if right == nil {
			merged = append(merged, nil)
			continue
		}
		merged = append(merged, right[idx])
	}
	return merged
}
