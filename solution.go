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

import (
	"math"
	"time"

	"github.com/lpfam/lpfam/solver"
)

// Solution is the immutable snapshot produced by one solve (or, in
// lexicographic mode, by the full multi-solve run). Lookups never
// panic: on an infeasible or aborted solve the mapped views are simply
// empty.
type Solution struct {
	model  *Model
	comp   *compiledModel
	status solver.Status

	objective float64
	solveTime time.Duration
	values    []float64
	duals     []float64

	levelAchieved map[int]float64
}

func newSolution(m *Model, comp *compiledModel, res *solver.Result, achieved map[int]float64) *Solution {
	s := &Solution{
		model:         m,
		comp:          comp,
		status:        res.Status,
		objective:     res.Objective,
		solveTime:     res.SolveTime,
		levelAchieved: achieved,
	}
	if res.Status.HasSolution() {
		s.values = res.Values
		s.duals = res.Duals
	}
	return s
}

// Status reports the backend's outcome for this solve.
func (s *Solution) Status() solver.Status { return s.status }

// IsOptimal is true only for a proven-optimal status, not for merely
// feasible or limit-terminated solves.
func (s *Solution) IsOptimal() bool { return s.status == solver.StatusOptimal }

// ObjectiveValue returns the objective value reported by the backend.
// In lexicographic mode this is the last priority level's deviation
// sum.
func (s *Solution) ObjectiveValue() float64 { return s.objective }

// SolveTime returns the backend time, accumulated over every level for
// lexicographic runs.
func (s *Solution) SolveTime() time.Duration { return s.solveTime }

// hasValues reports whether primal values are available.
func (s *Solution) hasValues() bool { return s.values != nil }

// Mapped returns the solved value of every expanded instance of the
// family, indexed by the original data keys. The map is empty when the
// solve produced no values or when the family is not part of the
// model.
func (s *Solution) Mapped(f *VarFamily) map[Key]float64 {
	out := make(map[Key]float64)
	if !s.hasValues() || f == nil || s.model.fams[f.name] != f {
		return out
	}
	for i := range f.insts {
		inst := &f.insts[i]
		out[inst.key] = s.values[inst.col]
	}
	return out
}

// Value returns the solved value of one instance of a family.
func (s *Solution) Value(f *VarFamily, key Key) (float64, bool) {
	if !s.hasValues() || f == nil || s.model.fams[f.name] != f {
		return 0, false
	}
	i, ok := f.byKey[key]
	if !ok {
		return 0, false
	}
	return s.values[f.insts[i].col], true
}

// GoalDeviations is the neg/pos deviation view of one goal, indexed by
// the goal's expanded keys. For unindexed goals use the scalar
// accessors.
type GoalDeviations struct {
	Neg map[Key]float64
	Pos map[Key]float64
}

// NegScalar returns the under-achievement of an unindexed goal.
func (g GoalDeviations) NegScalar() float64 { return g.Neg[ScalarKey] }

// PosScalar returns the over-achievement of an unindexed goal.
func (g GoalDeviations) PosScalar() float64 { return g.Pos[ScalarKey] }

// GoalDeviations returns the deviation values achieved for the named
// goal. It is a configuration error to query a constraint that is not
// a goal or a model that was never goal-prepared.
func (s *Solution) GoalDeviations(name string) (GoalDeviations, error) {
	c := s.model.cons[name]
	if c == nil || c.goal == nil {
		return GoalDeviations{}, configErrorf("no goal named %q", name)
	}
	if c.neg == nil {
		return GoalDeviations{}, configErrorf("goal %q was not rewritten; call PrepareGoalProgramming before solving", name)
	}
	return GoalDeviations{
		Neg: s.Mapped(c.neg),
		Pos: s.Mapped(c.pos),
	}, nil
}

// IsGoalSatisfied reports whether the penalized deviations of the named
// goal sum to at most tol. It is false whenever the solve produced no
// values.
func (s *Solution) IsGoalSatisfied(name string, tol float64) bool {
	c := s.model.cons[name]
	if c == nil || c.goal == nil || c.neg == nil || !s.hasValues() {
		return false
	}
	sum := 0.0
	for _, r := range s.model.deviationRefs(c) {
		sum += s.values[r.col]
	}
	return sum <= tol
}

// LevelDeviation returns the penalized deviation sum achieved at a
// priority level of a lexicographic run.
func (s *Solution) LevelDeviation(priority int) (float64, bool) {
	v, ok := s.levelAchieved[priority]
	return v, ok
}

// ConstraintReport is the sensitivity view of one expanded constraint.
type ConstraintReport struct {
	// Activity is the declared left-hand side evaluated at the
	// solution, including any Plus constant of the expression.
	Activity float64
	// RHS is the constraint's declared right-hand side. Expression
	// constants are not moved here; they stay in Activity.
	RHS float64
	// Slack is RHS−Activity for ≤ rows, Activity−RHS for ≥ rows, and
	// Activity−RHS (signed) for equalities.
	Slack float64
	// ShadowPrice is the constraint row's dual value: the marginal
	// change of the objective per unit change of the RHS. Only
	// meaningful when HasShadowPrice is true (LP solves with a
	// dual-reporting backend).
	ShadowPrice    float64
	HasShadowPrice bool
}

// Binding reports whether the constraint is tight within tol.
func (r ConstraintReport) Binding(tol float64) bool {
	return math.Abs(r.Slack) <= tol
}

// AnalyzeConstraint reports activity, slack and shadow price for an
// unindexed constraint family.
func (s *Solution) AnalyzeConstraint(name string) (ConstraintReport, error) {
	return s.AnalyzeConstraintAt(name, ScalarKey)
}

// AnalyzeConstraintAt reports activity, slack and shadow price for one
// expanded instance of a constraint family.
func (s *Solution) AnalyzeConstraintAt(name string, key Key) (ConstraintReport, error) {
	c := s.model.cons[name]
	if c == nil {
		return ConstraintReport{}, configErrorf("no constraint named %q", name)
	}
	i, ok := c.byKey[key]
	if !ok {
		return ConstraintReport{}, configErrorf("constraint %q has no instance with key %v", name, key)
	}
	if !s.hasValues() {
		return ConstraintReport{}, configErrorf("no solution values available for status %q", s.status)
	}
	inst := &c.insts[i]

	lhs, err := c.expr.value(inst.key, inst.tuple, false, s.values)
	if err != nil {
		return ConstraintReport{}, err
	}
	report := ConstraintReport{Activity: lhs, RHS: inst.rhs}
	switch c.sense {
	case LessEqual:
		report.Slack = inst.rhs - lhs
	default:
		report.Slack = lhs - inst.rhs
	}
	if s.duals != nil && inst.row < len(s.duals) {
		report.ShadowPrice = s.duals[inst.row]
		report.HasShadowPrice = true
	}
	return report, nil
}
