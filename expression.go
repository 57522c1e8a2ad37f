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

package lpfam

// CoefFunc derives a coefficient (or bound, or right-hand side) from
// the data records of one expanded instance.
type CoefFunc func(Tuple) float64

// Constant returns a CoefFunc that ignores its tuple.
func Constant(v float64) CoefFunc {
	return func(Tuple) float64 { return v }
}

// Coef1 adapts a typed single-record function to a CoefFunc for a
// family over one dimension.
func Coef1[T any](f func(T) float64) CoefFunc {
	return func(t Tuple) float64 { return f(t[0].(T)) }
}

// Coef2 adapts a typed two-record function to a CoefFunc for a family
// over two dimensions.
func Coef2[A, B any](f func(A, B) float64) CoefFunc {
	return func(t Tuple) float64 { return f(t[0].(A), t[1].(B)) }
}

// Pred1 adapts a typed single-record predicate to a filter.
func Pred1[T any](f func(T) bool) func(Tuple) bool {
	return func(t Tuple) bool { return f(t[0].(T)) }
}

// Pred2 adapts a typed two-record predicate to a filter.
func Pred2[A, B any](f func(A, B) bool) func(Tuple) bool {
	return func(t Tuple) bool { return f(t[0].(A), t[1].(B)) }
}

// CrossCoefFunc derives a coefficient from the records of the
// enclosing constraint instance and the records of one variable
// instance, in that order.
type CrossCoefFunc func(ctx, v Tuple) float64

// Cross adapts a typed (constraint record, variable record) function to
// a CrossCoefFunc for single-dimension families.
func Cross[C, V any](f func(C, V) float64) CrossCoefFunc {
	return func(ctx, v Tuple) float64 { return f(ctx[0].(C), v[0].(V)) }
}

type exprTerm struct {
	family  *VarFamily
	coef    CoefFunc
	ctxCoef CrossCoefFunc
	matched bool
}

// Expr is a linear expression: a sum of (variable family, coefficient
// function) terms plus a constant. An Expr references families weakly;
// every referenced family must be registered with the model the Expr is
// used in before compilation.
//
// A Sum term ranges over every expanded instance of its family. A
// Matched term binds to the single instance whose key equals the key of
// the constraint instance being built; if no such instance exists (for
// example because of a feasibility filter) the term contributes
// nothing. Matched terms are only meaningful inside indexed
// constraints.
type Expr struct {
	terms    []exprTerm
	constant float64
}

// NewExpr returns an empty expression.
func NewExpr() *Expr { return &Expr{} }

// Sum appends a term that sums coef over every instance of the family.
func (e *Expr) Sum(f *VarFamily, coef CoefFunc) *Expr {
	e.terms = append(e.terms, exprTerm{family: f, coef: coef})
	return e
}

// SumWith appends a term that sums over every instance of the family
// with a coefficient derived from both the enclosing constraint
// instance's records and the variable instance's records. SumWith terms
// are only meaningful inside indexed constraints.
func (e *Expr) SumWith(f *VarFamily, coef CrossCoefFunc) *Expr {
	e.terms = append(e.terms, exprTerm{family: f, ctxCoef: coef})
	return e
}

// Matched appends a term bound to the instance of the family whose key
// matches the enclosing constraint instance's key.
func (e *Expr) Matched(f *VarFamily, coef CoefFunc) *Expr {
	e.terms = append(e.terms, exprTerm{family: f, coef: coef, matched: true})
	return e
}

// Plus adds a constant to the expression.
func (e *Expr) Plus(c float64) *Expr {
	e.constant += c
	return e
}

// clone returns a copy sharing no mutable state with the receiver, so
// the goal rewrite can extend a constraint's expression without
// touching an Expr the caller may reuse elsewhere.
func (e *Expr) clone() *Expr {
	c := &Expr{constant: e.constant}
	c.terms = append(c.terms, e.terms...)
	return c
}

// families returns the distinct families referenced by the expression.
func (e *Expr) families() []*VarFamily {
	seen := make(map[*VarFamily]bool)
	var fams []*VarFamily
	for _, t := range e.terms {
		if !seen[t.family] {
			seen[t.family] = true
			fams = append(fams, t.family)
		}
	}
	return fams
}

// rowTerms compiles the expression against an index context: the key
// and tuple of the constraint instance being built, or nil under global
// evaluation (the objective). It returns accumulated per-column
// coefficients; zero accumulations are dropped by the caller when
// emitting solver rows.
func (e *Expr) rowTerms(ctxKey Key, ctxTuple Tuple, global bool) (map[int]float64, error) {
	acc := make(map[int]float64)
	for _, t := range e.terms {
		switch {
		case t.matched:
			if global {
				return nil, configErrorf("matched term on family %q used outside a constraint", t.family.name)
			}
			if i, ok := t.family.byKey[ctxKey]; ok {
				inst := &t.family.insts[i]
				acc[inst.col] += t.coef(inst.tuple)
			}
		case t.ctxCoef != nil:
			if global {
				return nil, configErrorf("context-dependent term on family %q used outside a constraint", t.family.name)
			}
			for i := range t.family.insts {
				inst := &t.family.insts[i]
				acc[inst.col] += t.ctxCoef(ctxTuple, inst.tuple)
			}
		default:
			for i := range t.family.insts {
				inst := &t.family.insts[i]
				acc[inst.col] += t.coef(inst.tuple)
			}
		}
	}
	return acc, nil
}

// value evaluates the expression at a primal point indexed by solver
// column.
func (e *Expr) value(ctxKey Key, ctxTuple Tuple, global bool, values []float64) (float64, error) {
	acc, err := e.rowTerms(ctxKey, ctxTuple, global)
	if err != nil {
		return 0, err
	}
	v := e.constant
	for col, coef := range acc {
		v += coef * values[col]
	}
	return v, nil
}
