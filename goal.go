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

import "math"

// PrepareGoalProgramming rewrites every goal constraint family in
// place: the goal's relational form becomes the equality
//
//	expression + neg − pos = rhs
//
// where neg and pos are fresh non-negative continuous deviation
// families keyed exactly like the goal. Which side is penalized in the
// objective depends on the goal's original sense: ≥ penalizes neg
// (under-achievement), ≤ penalizes pos (over-achievement), = penalizes
// both.
//
// The call is idempotent; a second invocation is a no-op. It must run
// before the model is first compiled.
func (m *Model) PrepareGoalProgramming() error {
	if m.goalPrepared {
		return nil
	}
	if m.compiled != nil {
		return configErrorf("model %q: goal programming must be prepared before compilation", m.name)
	}

	goals := make([]*ConstraintFamily, 0, len(m.conOrder))
	for _, c := range m.conOrder {
		if c.goal != nil {
			goals = append(goals, c)
		}
	}

	for _, g := range goals {
		if err := g.validate(); err != nil {
			return err
		}

		neg := NewVariables(g.name + "#neg").
			Continuous().
			Bounds(0, math.Inf(1)).
			IndexedBy(g.dims...).
			Filter(g.filter)
		pos := NewVariables(g.name + "#pos").
			Continuous().
			Bounds(0, math.Inf(1)).
			IndexedBy(g.dims...).
			Filter(g.filter)
		neg.hidden, pos.hidden = true, true

		if err := m.AddVariables(neg); err != nil {
			return err
		}
		if err := m.AddVariables(pos); err != nil {
			return err
		}

		g.origSense = g.sense
		g.sense = Equal
		g.expr = g.expr.clone().
			Matched(neg, Constant(1)).
			Matched(pos, Constant(-1))
		g.neg, g.pos = neg, pos
		switch g.origSense {
		case GreaterEqual:
			g.penalizeNeg = true
		case LessEqual:
			g.penalizePos = true
		case Equal:
			g.penalizeNeg, g.penalizePos = true, true
		}

		m.logger.V(1).Info("goal rewritten", "goal", g.name, "priority", g.goal.Priority, "weight", g.goal.Weight, "sense", g.origSense.String())
	}

	m.goalPrepared = true

	return nil
}
