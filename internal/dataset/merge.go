package dataset

import "fmt"

// JoinKind selects merge semantics.
type JoinKind string

const (
	LeftJoin  JoinKind = "left"
	InnerJoin JoinKind = "inner"
)

// Merge joins right onto left by the key column. Right-hand columns whose
// names collide with left columns get the suffix "_y" (the left copy keeps
// its name). Duplicate keys on the right multiply rows, as a relational join
// would.
func Merge(left, right *Table, key string, how JoinKind) (*Table, error) {
	lk, err := left.Col(key)
	if err != nil {
		return nil, fmt.Errorf("merge left: %w", err)
	}
	rk, err := right.Col(key)
	if err != nil {
		return nil, fmt.Errorf("merge right: %w", err)
	}
	if how != LeftJoin && how != InnerJoin {
		return nil, fmt.Errorf("unsupported join %q", how)
	}

	byKey := map[string][]int{}
	for i, v := range rk.Cells {
		k := normalizeLabel(v)
		byKey[k] = append(byKey[k], i)
	}

	var rightCols []*Column
	var rightNames []string
	for _, c := range right.Columns {
		if c.Name == key {
			continue
		}
		name := c.Name
		if left.Has(name) {
			name += "_y"
		}
		rightCols = append(rightCols, c)
		rightNames = append(rightNames, name)
	}

	out := &Table{Name: left.Name}
	for _, c := range left.Columns {
		out.Columns = append(out.Columns, &Column{Name: c.Name, Levels: c.Levels})
	}
	for _, n := range rightNames {
		out.Columns = append(out.Columns, &Column{Name: n})
	}
	nl := len(left.Columns)
	for i, v := range lk.Cells {
		matches := byKey[normalizeLabel(v)]
		if len(matches) == 0 {
			if how == InnerJoin {
				continue
			}
			matches = []int{-1}
		}
		for _, r := range matches {
			for j, c := range left.Columns {
				out.Columns[j].Cells = append(out.Columns[j].Cells, c.Cells[i])
			}
			for j, c := range rightCols {
				cell := ""
				if r >= 0 {
					cell = c.Cells[r]
				}
				out.Columns[nl+j].Cells = append(out.Columns[nl+j].Cells, cell)
			}
		}
	}
	out.reindex()
	return out, nil
}
