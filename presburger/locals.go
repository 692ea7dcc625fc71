package presburger

import "golang.org/x/exp/slices"

func dropLocal(rows []row, k int) []row {
	for i := range rows {
		rows[i].coef = slices.Delete(rows[i].coef, k, k+1)
	}
	return rows
}

// eliminateLocals removes the existential columns of b without changing its
// integer points. empty is true if b has no points at all. ok is false if some
// local could only be removed by approximating, in which case b is returned unchanged.
func eliminateLocals(b basic, dims int) (out basic, empty bool, ok bool) {
	rows := cloneRows(b.rows)
	locals := b.locals
	for locals > 0 {
		var feasibleRows bool
		if rows, feasibleRows = simplify(rows); !feasibleRows || !feasible(rows) {
			return basic{}, true, true
		}
		localCols := columns(dims, dims+locals)

		if i, k := unitLocalEquality(rows, localCols); i >= 0 {
			rows = dropLocal(substitute(rows, i, k), k)
			locals--
			continue
		}

		if i := slices.IndexFunc(rows, func(r row) bool { return r.eq && minPivot(r, localCols) >= 0 }); i >= 0 {
			k := minPivot(rows[i], localCols)
			reduce(rows, i, k, localCols, false)
			if minPivot(rows[i], localCols) == k && onlyLocal(rows[i], localCols, k) {
				// a divisibility constraint on the dimensions
				return b, false, false
			}
			continue
		}

		progressed := false
		for _, k := range localCols {
			bd := boundsOf(rows, k)
			switch {
			case bd.lower == 0 || bd.upper == 0:
				rows = dropColumn(rows, k)
			case bd.exact():
				rows = shadow(rows, k, false)
			default:
				continue
			}
			rows = dropLocal(rows, k)
			locals--
			progressed = true
			break
		}
		if !progressed {
			return b, false, false
		}
	}
	rows, feasibleRows := simplify(rows)
	if !feasibleRows || !feasible(rows) {
		return basic{}, true, true
	}
	return basic{rows: rows}, false, true
}

func unitLocalEquality(rows []row, localCols []int) (int, int) {
	for i, r := range rows {
		if !r.eq {
			continue
		}
		for _, k := range localCols {
			if abs(r.coef[k]) == 1 {
				return i, k
			}
		}
	}
	return -1, -1
}

func onlyLocal(r row, localCols []int, k int) bool {
	for _, j := range localCols {
		if j != k && r.coef[j] != 0 {
			return false
		}
	}
	return true
}
