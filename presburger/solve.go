package presburger

import "golang.org/x/exp/slices"

// A row is the affine constraint Σ coef[i]·x_i + c (= or >=) 0.
// The first columns are the set dimensions, the remaining ones are existential locals.
type row struct {
	coef []int64
	c    int64
	eq   bool
}

func (r row) clone() row {
	return row{coef: slices.Clone(r.coef), c: r.c, eq: r.eq}
}

func (r row) negated() row {
	out := row{coef: make([]int64, len(r.coef)), c: -r.c, eq: r.eq}
	for i, a := range r.coef {
		out.coef[i] = -a
	}
	return out
}

// addScaled returns r + k·o
func (r row) addScaled(o row, k int64) row {
	out := r.clone()
	for i := range out.coef {
		out.coef[i] += k * o.coef[i]
	}
	out.c += k * o.c
	return out
}

func cloneRows(rows []row) []row {
	out := make([]row, len(rows))
	for i, r := range rows {
		out[i] = r.clone()
	}
	return out
}

func abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

func gcd(a, b int64) int64 {
	a, b = abs(a), abs(b)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// floorDiv rounds towards negative infinity. b must be positive.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// normalize divides the row by the gcd of its coefficients.
// ok is false if the row has no integer solution.
// trivial is true if the row has no variables and always holds.
func normalize(r row) (out row, ok bool, trivial bool) {
	var g int64
	for _, a := range r.coef {
		g = gcd(g, a)
	}
	if g == 0 {
		if r.eq {
			return r, r.c == 0, r.c == 0
		}
		return r, r.c >= 0, r.c >= 0
	}
	if g == 1 {
		return r, true, false
	}
	if r.eq && r.c%g != 0 {
		return r, false, false
	}
	out = row{coef: make([]int64, len(r.coef)), eq: r.eq}
	for i, a := range r.coef {
		out.coef[i] = a / g
	}
	if r.eq {
		out.c = r.c / g
	} else {
		out.c = floorDiv(r.c, g)
	}
	return out, true, false
}

// simplify normalizes every row and drops the ones that always hold.
// Returns false if some row can never hold.
func simplify(rows []row) ([]row, bool) {
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		n, ok, trivial := normalize(r)
		if !ok {
			return nil, false
		}
		if trivial {
			continue
		}
		out = append(out, n)
	}
	return out, true
}

// minPivot returns the column in cols with the smallest non zero coefficient in r, or -1
func minPivot(r row, cols []int) int {
	best := -1
	for _, k := range cols {
		if r.coef[k] == 0 {
			continue
		}
		if best == -1 || abs(r.coef[k]) < abs(r.coef[best]) {
			best = k
		}
	}
	return best
}

func columns(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

// substitute uses the equality rows[i], which has a unit coefficient in column k,
// to remove column k from every other row. The equality itself is dropped.
func substitute(rows []row, i, k int) []row {
	e := rows[i]
	a := e.coef[k]
	out := make([]row, 0, len(rows)-1)
	for j, r := range rows {
		if j == i {
			continue
		}
		if b := r.coef[k]; b != 0 {
			r = r.addScaled(e, -b*a)
		}
		out = append(out, r)
	}
	return out
}

// reduce performs one unimodular step on the equality rows[i] with pivot column k.
// The remaining coefficients in cols become residues modulo |a_k|, and the
// same change of variables is applied to all rows.
func reduce(rows []row, i, k int, cols []int, shiftConstant bool) {
	if rows[i].coef[k] < 0 {
		rows[i] = rows[i].negated()
	}
	a := rows[i].coef[k]
	q := make(map[int]int64, len(cols))
	for _, j := range cols {
		if j != k {
			q[j] = floorDiv(rows[i].coef[j], a)
		}
	}
	var qc int64
	if shiftConstant {
		qc = floorDiv(rows[i].c, a)
	}
	for r := range rows {
		b := rows[r].coef[k]
		if b == 0 {
			continue
		}
		for j, qj := range q {
			rows[r].coef[j] -= b * qj
		}
		rows[r].c -= b * qc
	}
}

// eliminateEquality removes the equality rows[i] and one variable with it.
func eliminateEquality(rows []row, i int) ([]row, bool) {
	rows = cloneRows(rows)
	all := columns(0, len(rows[i].coef))
	for {
		k := minPivot(rows[i], all)
		if k < 0 {
			if rows[i].c != 0 {
				return nil, false
			}
			return slices.Delete(rows, i, i+1), true
		}
		if abs(rows[i].coef[k]) == 1 {
			return substitute(rows, i, k), true
		}
		reduce(rows, i, k, all, true)
		n, ok, trivial := normalize(rows[i])
		if !ok {
			return nil, false
		}
		if trivial {
			return slices.Delete(rows, i, i+1), true
		}
		rows[i] = n
	}
}

// feasible decides whether the rows have an integer solution.
func feasible(rows []row) bool {
	rows, ok := simplify(rows)
	if !ok {
		return false
	}
	for {
		i := slices.IndexFunc(rows, func(r row) bool { return r.eq })
		if i < 0 {
			break
		}
		if rows, ok = eliminateEquality(rows, i); !ok {
			return false
		}
		if rows, ok = simplify(rows); !ok {
			return false
		}
	}
	if len(rows) == 0 {
		return true
	}
	return feasibleInequalities(rows)
}

type bounds struct {
	lower, upper         int
	unitLower, unitUpper bool
	maxUpper             int64
}

func boundsOf(rows []row, v int) bounds {
	b := bounds{unitLower: true, unitUpper: true}
	for _, r := range rows {
		switch a := r.coef[v]; {
		case a > 0:
			b.lower++
			b.unitLower = b.unitLower && a == 1
		case a < 0:
			b.upper++
			b.unitUpper = b.unitUpper && a == -1
			if -a > b.maxUpper {
				b.maxUpper = -a
			}
		}
	}
	return b
}

func (b bounds) exact() bool {
	return b.unitLower || b.unitUpper
}

// dropColumn removes every row mentioning column v.
func dropColumn(rows []row, v int) []row {
	out := make([]row, 0, len(rows))
	for _, r := range rows {
		if r.coef[v] == 0 {
			out = append(out, r)
		}
	}
	return out
}

// shadow eliminates column v from a system of inequalities by combining every
// lower bound with every upper bound. With dark set the combination is
// tightened so that an integer value for v is guaranteed to exist.
func shadow(rows []row, v int, dark bool) []row {
	var lowers, uppers, out []row
	for _, r := range rows {
		switch {
		case r.coef[v] > 0:
			lowers = append(lowers, r)
		case r.coef[v] < 0:
			uppers = append(uppers, r)
		default:
			out = append(out, r)
		}
	}
	for _, l := range lowers {
		for _, u := range uppers {
			a, b := l.coef[v], -u.coef[v]
			n := row{coef: make([]int64, len(l.coef))}
			for j := range n.coef {
				n.coef[j] = b*l.coef[j] + a*u.coef[j]
			}
			n.c = b*l.c + a*u.c
			if dark {
				n.c -= (a - 1) * (b - 1)
			}
			out = append(out, n)
		}
	}
	return out
}

func feasibleInequalities(rows []row) bool {
	width := len(rows[0].coef)
	best, bestScore := -1, 0
	var bestBounds bounds
	for v := 0; v < width; v++ {
		b := boundsOf(rows, v)
		if b.lower+b.upper == 0 {
			continue
		}
		if b.lower == 0 || b.upper == 0 {
			return feasible(dropColumn(rows, v))
		}
		score := b.lower * b.upper
		if !b.exact() {
			score += 1 << 20
		}
		if best < 0 || score < bestScore {
			best, bestScore, bestBounds = v, score, b
		}
	}
	if best < 0 {
		return true
	}
	if bestBounds.exact() {
		return feasible(shadow(rows, best, false))
	}
	if !feasible(shadow(rows, best, false)) {
		return false
	}
	if feasible(shadow(rows, best, true)) {
		return true
	}
	// The real shadow has a solution but the dark shadow does not, so any
	// integer solution lies close to one of the lower bounds.
	m := bestBounds.maxUpper
	for _, l := range rows {
		a := l.coef[best]
		if a <= 0 {
			continue
		}
		limit := floorDiv(m*a-a-m, m)
		for j := int64(0); j <= limit; j++ {
			splinter := l.clone()
			splinter.eq = true
			splinter.c -= j
			if feasible(append(cloneRows(rows), splinter)) {
				return true
			}
		}
	}
	return false
}
