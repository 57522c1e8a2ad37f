/*
Copyright © 2023-2026 the lpfam authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package simplex is the bundled pure-Go backend: a dense two-phase
// primal simplex with Bland's rule for linear models, extended by
// branch and bound for integer and binary columns. It is meant as a
// reference backend for small and mid-sized models; production setups
// can plug any other implementation of the solver.Backend contract.
package simplex

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/lpfam/lpfam/solver"
)

const (
	pivotTol = 1e-9
	costTol  = 1e-9
	feasTol  = 1e-7
)

// colKind describes how an original variable maps onto internal
// nonnegative simplex columns.
type colKind int

const (
	colShift colKind = iota // x = shift + x', x' >= 0
	colMirror               // x = shift - x', x' >= 0 (no lower bound)
	colSplit                // x = x' - x'', both >= 0 (free)
	colFixed                // x = shift (lower == upper)
)

type colMap struct {
	kind  colKind
	col   int
	col2  int
	shift float64
}

// lpResult is the outcome of one LP solve in terms of the original
// problem: primal values per variable, duals per original constraint.
type lpResult struct {
	status    solver.Status
	objective float64
	values    []float64
	duals     []float64
}

type lpError struct {
	stage string
	err   error
}

func (e *lpError) Error() string { return fmt.Sprintf("simplex %s: %v", e.stage, e.err) }

func (e *lpError) Unwrap() error { return e.err }

// internal row before tableau assembly
type row struct {
	coefs map[int]float64
	sense solver.Sense
	rhs   float64
	orig  int // original constraint id, or -1 for bound rows
	flip  float64
}

// solveLP solves the LP relaxation of p with optional per-variable
// bound overrides (used by branch and bound). Duals are reported per
// original constraint row in the d(objective)/d(RHS) convention.
func solveLP(ctx context.Context, p *solver.Problem, lower, upper []float64, maxIter int) (*lpResult, error) {
	nVars := len(p.Variables)
	if nVars == 0 {
		return &lpResult{
			status:    solver.StatusOptimal,
			objective: p.Objective.Constant,
			values:    []float64{},
			duals:     make([]float64, len(p.Constraints)),
		}, nil
	}

	bl := func(j int) float64 {
		if lower != nil {
			return lower[j]
		}
		return p.Variables[j].Lower
	}
	bu := func(j int) float64 {
		if upper != nil {
			return upper[j]
		}
		return p.Variables[j].Upper
	}

	// map variables to nonnegative internal columns
	cols := make([]colMap, nVars)
	nInt := 0
	for j := range p.Variables {
		l, u := bl(j), bu(j)
		switch {
		case l > u+feasTol:
			return &lpResult{status: solver.StatusInfeasible}, nil
		case u-l < 1e-12 && !math.IsInf(l, 0):
			cols[j] = colMap{kind: colFixed, shift: l, col: -1, col2: -1}
		case !math.IsInf(l, -1):
			cols[j] = colMap{kind: colShift, shift: l, col: nInt, col2: -1}
			nInt++
		case !math.IsInf(u, 1):
			cols[j] = colMap{kind: colMirror, shift: u, col: nInt, col2: -1}
			nInt++
		default:
			cols[j] = colMap{kind: colSplit, col: nInt, col2: nInt + 1}
			nInt += 2
		}
	}

	// structural rows, then explicit upper-bound rows for shifted
	// columns with a finite upper bound
	rows := make([]row, 0, len(p.Constraints)+nVars)
	for i, c := range p.Constraints {
		r := row{coefs: make(map[int]float64), sense: c.Sense, rhs: c.RHS, orig: i, flip: 1}
		for _, t := range c.Terms {
			cm := cols[t.Var]
			switch cm.kind {
			case colFixed:
				r.rhs -= t.Coef * cm.shift
			case colShift:
				r.coefs[cm.col] += t.Coef
				r.rhs -= t.Coef * cm.shift
			case colMirror:
				r.coefs[cm.col] -= t.Coef
				r.rhs -= t.Coef * cm.shift
			case colSplit:
				r.coefs[cm.col] += t.Coef
				r.coefs[cm.col2] -= t.Coef
			}
		}
		rows = append(rows, r)
	}
	for j := range p.Variables {
		cm := cols[j]
		if cm.kind != colShift {
			continue
		}
		u := bu(j)
		if math.IsInf(u, 1) {
			continue
		}
		r := row{coefs: map[int]float64{cm.col: 1}, sense: solver.SenseLE, rhs: u - cm.shift, orig: -1, flip: 1}
		rows = append(rows, r)
	}

	// normalize to nonnegative RHS
	for i := range rows {
		if rows[i].rhs < 0 {
			rows[i].rhs = -rows[i].rhs
			rows[i].flip = -1
			for k, v := range rows[i].coefs {
				rows[i].coefs[k] = -v
			}
			switch rows[i].sense {
			case solver.SenseLE:
				rows[i].sense = solver.SenseGE
			case solver.SenseGE:
				rows[i].sense = solver.SenseLE
			}
		}
	}

	// internal objective in minimize form
	minSign := 1.0
	if p.Objective.Direction == solver.Maximize {
		minSign = -1
	}
	objInt := make([]float64, nInt)
	for _, t := range p.Objective.Terms {
		cm := cols[t.Var]
		c := minSign * t.Coef
		switch cm.kind {
		case colShift:
			objInt[cm.col] += c
		case colMirror:
			objInt[cm.col] -= c
		case colSplit:
			objInt[cm.col] += c
			objInt[cm.col2] -= c
		}
	}

	t, err := newTableau(nInt, rows)
	if err != nil {
		return nil, err
	}
	if maxIter <= 0 {
		maxIter = 2000 + 200*(t.m+t.n)
	}

	// phase 1: drive artificials to zero
	if t.nArt > 0 {
		phase1 := make([]float64, t.n)
		for _, j := range t.artCols {
			phase1[j] = 1
		}
		status, err := t.iterate(ctx, phase1, nil, maxIter)
		if status == solver.StatusAborted {
			return &lpResult{status: solver.StatusAborted}, nil
		}
		if err != nil {
			return nil, err
		}
		if status != solver.StatusOptimal {
			// phase 1 is bounded below by zero; anything else is a bug
			return nil, &lpError{stage: "phase 1", err: fmt.Errorf("unexpected status %v", status)}
		}
		if t.objectiveOf(phase1) > feasTol {
			return &lpResult{status: solver.StatusInfeasible}, nil
		}
		t.evictArtificials()
	}

	// phase 2
	phase2 := make([]float64, t.n)
	copy(phase2, objInt)
	blocked := make([]bool, t.n)
	for _, j := range t.artCols {
		blocked[j] = true
	}
	status, err := t.iterate(ctx, phase2, blocked, maxIter)
	if status == solver.StatusAborted {
		return &lpResult{status: solver.StatusAborted}, nil
	}
	if err != nil {
		return nil, err
	}
	if status == solver.StatusUnbounded {
		return &lpResult{status: solver.StatusUnbounded}, nil
	}

	// recover original primal values
	xInt := t.primal()
	values := make([]float64, nVars)
	for j, cm := range cols {
		switch cm.kind {
		case colFixed:
			values[j] = cm.shift
		case colShift:
			values[j] = cm.shift + xInt[cm.col]
		case colMirror:
			values[j] = cm.shift - xInt[cm.col]
		case colSplit:
			values[j] = xInt[cm.col] - xInt[cm.col2]
		}
	}

	objective := p.Objective.Constant
	for _, term := range p.Objective.Terms {
		objective += term.Coef * values[term.Var]
	}

	// duals for the original rows, converted back to the caller's
	// orientation: d(objective)/d(RHS)
	duals := make([]float64, len(p.Constraints))
	yInt := t.duals(phase2)
	for i, r := range rows {
		if r.orig < 0 {
			continue
		}
		duals[r.orig] = minSign * r.flip * yInt[i]
	}

	return &lpResult{
		status:    solver.StatusOptimal,
		objective: objective,
		values:    values,
		duals:     duals,
	}, nil
}

// tableau is a dense full-tableau simplex kept in canonical form: the
// columns of the current basis always form the identity.
type tableau struct {
	m, n    int
	a       *mat.Dense
	b       []float64
	basis   []int
	artCols []int
	refCol  []int     // per row: column whose reduced cost encodes the dual
	refSign []float64 // per row: sign applied to that reduced cost
	nArt    int
}

func newTableau(nStruct int, rows []row) (*tableau, error) {
	m := len(rows)

	nSlack := 0
	nArt := 0
	for _, r := range rows {
		switch r.sense {
		case solver.SenseLE:
			nSlack++
		case solver.SenseGE:
			nSlack++
			nArt++
		case solver.SenseEQ:
			nArt++
		}
	}

	n := nStruct + nSlack + nArt
	t := &tableau{
		m:       m,
		n:       n,
		a:       mat.NewDense(maxInt(m, 1), maxInt(n, 1), nil),
		b:       make([]float64, m),
		basis:   make([]int, m),
		refCol:  make([]int, m),
		refSign: make([]float64, m),
		nArt:    nArt,
	}

	slack := nStruct
	art := nStruct + nSlack
	for i, r := range rows {
		for j, v := range r.coefs {
			t.a.Set(i, j, v)
		}
		t.b[i] = r.rhs
		switch r.sense {
		case solver.SenseLE:
			t.a.Set(i, slack, 1)
			t.basis[i] = slack
			t.refCol[i], t.refSign[i] = slack, -1
			slack++
		case solver.SenseGE:
			t.a.Set(i, slack, -1)
			t.refCol[i], t.refSign[i] = slack, 1
			slack++
			t.a.Set(i, art, 1)
			t.basis[i] = art
			t.artCols = append(t.artCols, art)
			art++
		case solver.SenseEQ:
			t.a.Set(i, art, 1)
			t.basis[i] = art
			t.refCol[i], t.refSign[i] = art, -1
			t.artCols = append(t.artCols, art)
			art++
		}
	}

	return t, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// reducedCosts returns cbar = costs - Aᵀ·c_B for the current canonical
// tableau.
func (t *tableau) reducedCosts(costs []float64) []float64 {
	cbar := make([]float64, t.n)
	copy(cbar, costs)
	if t.m == 0 {
		return cbar
	}
	cb := mat.NewVecDense(t.m, nil)
	for i, bi := range t.basis {
		cb.SetVec(i, costs[bi])
	}
	z := mat.NewVecDense(t.n, nil)
	z.MulVec(t.a.T(), cb)
	for j := 0; j < t.n; j++ {
		cbar[j] -= z.AtVec(j)
	}
	return cbar
}

// iterate runs Bland-rule pivots until optimality or unboundedness.
func (t *tableau) iterate(ctx context.Context, costs []float64, blocked []bool, maxIter int) (solver.Status, error) {
	for iter := 0; ; iter++ {
		if iter >= maxIter {
			return solver.StatusUnknown, &lpError{stage: "iterate", err: fmt.Errorf("iteration limit %d exceeded", maxIter)}
		}
		if iter%64 == 0 && ctx.Err() != nil {
			return solver.StatusAborted, nil
		}

		cbar := t.reducedCosts(costs)

		// Bland: entering column is the lowest-index improving one
		enter := -1
		for j := 0; j < t.n; j++ {
			if blocked != nil && blocked[j] {
				continue
			}
			if cbar[j] < -costTol {
				enter = j
				break
			}
		}
		if enter < 0 {
			return solver.StatusOptimal, nil
		}

		// ratio test; ties broken on the lowest basis index (Bland)
		leave := -1
		best := math.Inf(1)
		for i := 0; i < t.m; i++ {
			a := t.a.At(i, enter)
			if a <= pivotTol {
				continue
			}
			ratio := t.b[i] / a
			if ratio < best-pivotTol || (ratio < best+pivotTol && (leave < 0 || t.basis[i] < t.basis[leave])) {
				best = ratio
				leave = i
			}
		}
		if leave < 0 {
			return solver.StatusUnbounded, nil
		}

		t.pivot(leave, enter)
	}
}

// pivot makes column enter basic in row leave.
func (t *tableau) pivot(leave, enter int) {
	pivRow := t.a.RawRowView(leave)
	piv := pivRow[enter]
	floats.Scale(1/piv, pivRow)
	t.b[leave] /= piv
	for i := 0; i < t.m; i++ {
		if i == leave {
			continue
		}
		f := t.a.At(i, enter)
		if f == 0 {
			continue
		}
		floats.AddScaled(t.a.RawRowView(i), -f, pivRow)
		t.b[i] -= f * t.b[leave]
	}
	t.basis[leave] = enter
}

// evictArtificials pivots basic artificial columns out of the basis
// where a nonzero structural pivot exists; rows where none exists are
// redundant and keep their artificial basic at zero.
func (t *tableau) evictArtificials() {
	isArt := make(map[int]bool, len(t.artCols))
	for _, j := range t.artCols {
		isArt[j] = true
	}
	for i := 0; i < t.m; i++ {
		if !isArt[t.basis[i]] {
			continue
		}
		for j := 0; j < t.n; j++ {
			if isArt[j] {
				continue
			}
			if math.Abs(t.a.At(i, j)) > pivotTol {
				t.pivot(i, j)
				break
			}
		}
	}
}

// primal returns the current basic solution over all internal columns.
func (t *tableau) primal() []float64 {
	x := make([]float64, t.n)
	for i, bi := range t.basis {
		x[bi] = t.b[i]
	}
	return x
}

// objectiveOf evaluates a cost vector at the current basic solution.
func (t *tableau) objectiveOf(costs []float64) float64 {
	x := t.primal()
	return floats.Dot(costs, x)
}

// duals extracts per-row dual values from the reduced costs of each
// row's reference column (its slack, surplus or artificial).
func (t *tableau) duals(costs []float64) []float64 {
	cbar := t.reducedCosts(costs)
	y := make([]float64, t.m)
	for i := 0; i < t.m; i++ {
		y[i] = t.refSign[i] * cbar[t.refCol[i]]
	}
	return y
}
