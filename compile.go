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
	"fmt"
	"sort"

	"github.com/lpfam/lpfam/solver"
)

// devRef is one penalized deviation column with its goal's weight.
type devRef struct {
	col    int
	weight float64
}

// compiledModel is the flattened, solver-ready form of a Model, cached
// after the first compilation so re-compiling never reassigns variable
// identities.
type compiledModel struct {
	problem    solver.Problem
	levels     map[int][]devRef // priority → penalized deviation columns
	priorities []int            // ascending
}

// Compile flattens the model into solver form, expanding every family
// and validating the configuration eagerly, before any backend is
// involved. It is idempotent; repeated calls keep the key→column
// mapping of the first.
func (m *Model) Compile() error {
	_, err := m.compile()
	return err
}

func (m *Model) compile() (*compiledModel, error) {
	if m.compiled != nil {
		return m.compiled, nil
	}

	for _, c := range m.conOrder {
		if c.goal != nil && !m.goalPrepared {
			return nil, configErrorf("model %q: constraint %q is a goal; call PrepareGoalProgramming before solving", m.name, c.name)
		}
	}

	comp := &compiledModel{levels: make(map[int][]devRef)}
	comp.problem.Name = m.name

	// expand variable families in registration order, assigning dense
	// solver columns; expansion order within a family is the
	// deterministic cartesian order of its dimensions
	col := 0
	for _, f := range m.famOrder {
		if err := f.expand(); err != nil {
			return nil, err
		}
		for i := range f.insts {
			inst := &f.insts[i]
			if inst.col < 0 {
				inst.col = col
			} else if inst.col != col {
				return nil, configErrorf("family %q is registered with another model", f.name)
			}
			comp.problem.Variables = append(comp.problem.Variables, solver.Variable{
				ID:     inst.col,
				Name:   instanceName(f.name, inst.key),
				Domain: f.vtype.solverDomain(),
				Lower:  inst.lower,
				Upper:  inst.upper,
			})
			col++
		}
		m.logger.V(1).Info("family expanded", "family", f.name, "instances", len(f.insts))
	}

	if m.objective != nil {
		if err := m.checkRegistered(m.objective, "objective"); err != nil {
			return nil, err
		}
	}

	// expand constraint families and build rows
	rowID := 0
	for _, c := range m.conOrder {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if err := m.checkRegistered(c.expr, fmt.Sprintf("constraint %q", c.name)); err != nil {
			return nil, err
		}
		if err := c.expand(); err != nil {
			return nil, err
		}
		for i := range c.insts {
			inst := &c.insts[i]
			acc, err := c.expr.rowTerms(inst.key, inst.tuple, false)
			if err != nil {
				return nil, err
			}
			inst.row = rowID
			comp.problem.Constraints = append(comp.problem.Constraints, solver.Constraint{
				ID:    rowID,
				Name:  instanceName(c.name, inst.key),
				Terms: sortedTerms(acc),
				Sense: c.sense.solverSense(),
				RHS:   inst.rhs - c.expr.constant,
			})
			rowID++
		}
		m.logger.V(1).Info("constraint expanded", "constraint", c.name, "instances", len(c.insts))
	}

	// objective: base expression plus, in weighted mode, the penalized
	// deviations scaled so they are always minimized terms
	objAcc := make(map[int]float64)
	objConst := 0.0
	if m.objective != nil {
		acc, err := m.objective.rowTerms(nil, nil, true)
		if err != nil {
			return nil, err
		}
		for c, v := range acc {
			objAcc[c] += v
		}
		objConst = m.objective.constant
	}

	penalty := 1.0
	if m.direction == Maximize {
		penalty = -1
	}
	for _, c := range m.conOrder {
		if c.goal == nil {
			continue
		}
		refs := m.deviationRefs(c)
		if m.goalMode == GoalWeighted {
			for _, r := range refs {
				objAcc[r.col] += penalty * r.weight
			}
		}
		comp.levels[c.goal.Priority] = append(comp.levels[c.goal.Priority], refs...)
	}
	for pr := range comp.levels {
		comp.priorities = append(comp.priorities, pr)
	}
	sort.Ints(comp.priorities)

	comp.problem.Objective = solver.Objective{
		Direction: m.direction.solverDirection(),
		Terms:     sortedTerms(objAcc),
		Constant:  objConst,
	}

	m.compiled = comp
	m.logger.V(1).Info("model compiled", "variables", len(comp.problem.Variables), "constraints", len(comp.problem.Constraints))

	return comp, nil
}

// deviationRefs lists the penalized deviation columns of a rewritten
// goal, weighted by the goal's weight.
func (m *Model) deviationRefs(c *ConstraintFamily) []devRef {
	var refs []devRef
	if c.penalizeNeg {
		for i := range c.neg.insts {
			refs = append(refs, devRef{col: c.neg.insts[i].col, weight: c.goal.Weight})
		}
	}
	if c.penalizePos {
		for i := range c.pos.insts {
			refs = append(refs, devRef{col: c.pos.insts[i].col, weight: c.goal.Weight})
		}
	}
	return refs
}

// checkRegistered verifies that every family an expression references
// is the family registered under that name with this model.
func (m *Model) checkRegistered(e *Expr, where string) error {
	for _, f := range e.families() {
		if m.fams[f.name] != f {
			return configErrorf("model %q: %s references unregistered variable family %q", m.name, where, f.name)
		}
	}
	return nil
}

// sortedTerms converts an accumulator to solver terms in column order,
// dropping exact zeros.
func sortedTerms(acc map[int]float64) []solver.Term {
	cols := make([]int, 0, len(acc))
	for c, v := range acc {
		if v == 0 {
			continue
		}
		cols = append(cols, c)
	}
	sort.Ints(cols)
	terms := make([]solver.Term, len(cols))
	for i, c := range cols {
		terms[i] = solver.Term{Var: c, Coef: acc[c]}
	}
	return terms
}

func instanceName(family string, key Key) string {
	if key == ScalarKey {
		return family
	}
	return fmt.Sprintf("%s[%v]", family, key)
}
