package petri

import (
	"math/big"

	"golang.org/x/exp/slices"
)

// Semiflows returns a basis of the P-semiflows of the net restricted to places.
//
// A P-semiflow y satisfies sum_p y[p] * delta_t[p] = 0 for every transition t whose
// inputs all lie in places, so sum_p y[p] * m[p] is the same in every reachable
// marking m. The vectors have integer entries with no common divisor.
func (n *Net[P, T]) Semiflows(places []P) []map[P]int64 {
	index := make(map[P]int, len(places))
	for i, p := range places {
		index[p] = i
	}

	// One row per transition over the columns of places
	var rows [][]*big.Rat
	for _, t := range n.transitions {
		usable := true
		for _, p := range t.Input {
			if _, ok := index[p]; !ok {
				usable = false
				break
			}
		}
		if !usable {
			continue
		}
		row := make([]*big.Rat, len(places))
		for i := range row {
			row[i] = new(big.Rat)
		}
		nonzero := false
		for p, d := range t.Delta() {
			if i, ok := index[p]; ok {
				row[i].SetInt64(d)
				nonzero = true
			}
		}
		if nonzero {
			rows = append(rows, row)
		}
	}

	pivots := rref(rows, len(places))
	var basis []map[P]int64
	for free := range places {
		if slices.Contains(pivots, free) {
			continue
		}
		y := make([]*big.Rat, len(places))
		for i := range y {
			y[i] = new(big.Rat)
		}
		y[free].SetInt64(1)
		for r, col := range pivots {
			y[col].Neg(rows[r][free])
		}
		basis = append(basis, integral(places, y))
	}
	return basis
}

// rref reduces rows in place and returns the pivot column of each leading row
func rref(rows [][]*big.Rat, cols int) []int {
	var pivots []int
	r := 0
	for c := 0; c < cols && r < len(rows); c++ {
		pivot := -1
		for i := r; i < len(rows); i++ {
			if rows[i][c].Sign() != 0 {
				pivot = i
				break
			}
		}
		if pivot < 0 {
			continue
		}
		rows[r], rows[pivot] = rows[pivot], rows[r]
		inv := new(big.Rat).Inv(rows[r][c])
		for j := c; j < cols; j++ {
			rows[r][j].Mul(rows[r][j], inv)
		}
		for i := range rows {
			if i == r || rows[i][c].Sign() == 0 {
				continue
			}
			factor := new(big.Rat).Set(rows[i][c])
			for j := c; j < cols; j++ {
				rows[i][j].Sub(rows[i][j], new(big.Rat).Mul(factor, rows[r][j]))
			}
		}
		pivots = append(pivots, c)
		r++
	}
	return pivots
}

// integral scales y to coprime integers and drops zero entries
func integral[P comparable](places []P, y []*big.Rat) map[P]int64 {
	lcm := big.NewInt(1)
	for _, v := range y {
		d := v.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	ints := make([]*big.Int, len(y))
	gcd := new(big.Int)
	for i, v := range y {
		ints[i] = new(big.Int).Quo(new(big.Int).Mul(v.Num(), lcm), v.Denom())
		gcd.GCD(nil, nil, gcd, new(big.Int).Abs(ints[i]))
	}
	out := make(map[P]int64)
	for i, v := range ints {
		if v.Sign() == 0 {
			continue
		}
		out[places[i]] = new(big.Int).Quo(v, gcd).Int64()
	}
	return out
}
