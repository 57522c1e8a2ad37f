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

import "github.com/lpfam/lpfam/solver"

// Sense is the relational sense of a constraint.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

func (s Sense) solverSense() solver.Sense {
	switch s {
	case GreaterEqual:
		return solver.SenseGE
	case Equal:
		return solver.SenseEQ
	default:
		return solver.SenseLE
	}
}

// GoalSpec marks a constraint family as a soft goal with a priority
// (1 = most important, for lexicographic mode) and a positive weight
// (for weighted mode).
type GoalSpec struct {
	Priority int
	Weight   float64
}

// conInstance is one expanded concrete constraint with its RHS resolved
// and its solver row assigned at compile time.
type conInstance struct {
	key   Key
	tuple Tuple
	rhs   float64
	row   int
}

// ConstraintFamily is a named template combining an expression, a
// relational sense and a right-hand side, optionally indexed by data.
// When indexed it expands into one concrete constraint per key,
// mirroring variable-family expansion.
type ConstraintFamily struct {
	name   string
	expr   *Expr
	sense  Sense
	rhs    float64
	rhsFn  CoefFunc
	dims   []*Dimension
	filter func(Tuple) bool
	goal   *GoalSpec

	expanded bool
	insts    []conInstance
	byKey    map[Key]int
	cfgErr   error

	// populated by the goal rewrite
	origSense   Sense
	neg, pos    *VarFamily
	penalizeNeg bool
	penalizePos bool
}

// NewConstraint starts a constraint family with the given name. The
// expression and a sense/RHS must be set before the family is
// registered.
func NewConstraint(name string) *ConstraintFamily {
	return &ConstraintFamily{name: name, expr: NewExpr()}
}

// Name returns the family name.
func (c *ConstraintFamily) Name() string { return c.name }

// IsGoal reports whether the family is marked as a goal.
func (c *ConstraintFamily) IsGoal() bool { return c.goal != nil }

func (c *ConstraintFamily) mutate(apply func()) *ConstraintFamily {
	if c.expanded {
		if c.cfgErr == nil {
			c.cfgErr = configErrorf("constraint %q configured after expansion", c.name)
		}
		return c
	}
	apply()
	return c
}

// Expr sets the left-hand side expression.
func (c *ConstraintFamily) Expr(e *Expr) *ConstraintFamily {
	return c.mutate(func() { c.expr = e })
}

// LE sets the sense to ≤ with a constant right-hand side.
func (c *ConstraintFamily) LE(rhs float64) *ConstraintFamily {
	return c.mutate(func() { c.sense, c.rhs, c.rhsFn = LessEqual, rhs, nil })
}

// GE sets the sense to ≥ with a constant right-hand side.
func (c *ConstraintFamily) GE(rhs float64) *ConstraintFamily {
	return c.mutate(func() { c.sense, c.rhs, c.rhsFn = GreaterEqual, rhs, nil })
}

// EQ sets the sense to = with a constant right-hand side.
func (c *ConstraintFamily) EQ(rhs float64) *ConstraintFamily {
	return c.mutate(func() { c.sense, c.rhs, c.rhsFn = Equal, rhs, nil })
}

// LEFunc sets the sense to ≤ with a per-instance right-hand side
// derived from the constraint instance's records.
func (c *ConstraintFamily) LEFunc(rhs CoefFunc) *ConstraintFamily {
	return c.mutate(func() { c.sense, c.rhsFn = LessEqual, rhs })
}

// GEFunc sets the sense to ≥ with a per-instance right-hand side.
func (c *ConstraintFamily) GEFunc(rhs CoefFunc) *ConstraintFamily {
	return c.mutate(func() { c.sense, c.rhsFn = GreaterEqual, rhs })
}

// EQFunc sets the sense to = with a per-instance right-hand side.
func (c *ConstraintFamily) EQFunc(rhs CoefFunc) *ConstraintFamily {
	return c.mutate(func() { c.sense, c.rhsFn = Equal, rhs })
}

// IndexedBy appends dimensions, expanding the family into one concrete
// constraint per composite key.
func (c *ConstraintFamily) IndexedBy(dims ...*Dimension) *ConstraintFamily {
	return c.mutate(func() { c.dims = append(c.dims, dims...) })
}

// Filter restricts expansion to tuples for which pred returns true.
func (c *ConstraintFamily) Filter(pred func(Tuple) bool) *ConstraintFamily {
	return c.mutate(func() { c.filter = pred })
}

// AsGoal marks the family as a soft goal. Priority must be positive
// (1 = most important); weight must be positive.
func (c *ConstraintFamily) AsGoal(priority int, weight float64) *ConstraintFamily {
	return c.mutate(func() { c.goal = &GoalSpec{Priority: priority, Weight: weight} })
}

func (c *ConstraintFamily) validate() error {
	if c.cfgErr != nil {
		return c.cfgErr
	}
	if c.expr == nil || len(c.expr.terms) == 0 {
		return configErrorf("constraint %q has an empty expression", c.name)
	}
	if c.goal != nil {
		if c.goal.Priority < 1 {
			return configErrorf("goal %q: priority must be positive, got %d", c.name, c.goal.Priority)
		}
		if c.goal.Weight <= 0 {
			return configErrorf("goal %q: weight must be positive, got %g", c.name, c.goal.Weight)
		}
	}
	return nil
}

// expand materializes the family's concrete constraints. Idempotent,
// like variable-family expansion.
func (c *ConstraintFamily) expand() error {
	if c.cfgErr != nil {
		return c.cfgErr
	}
	if c.expanded {
		return nil
	}

	insts, byKey, err := expandIndex(c.name, c.dims, c.filter)
	if err != nil {
		return err
	}

	c.insts = make([]conInstance, len(insts))
	for i, inst := range insts {
		rhs := c.rhs
		if c.rhsFn != nil {
			rhs = c.rhsFn(inst.tuple)
		}
		c.insts[i] = conInstance{key: inst.key, tuple: inst.tuple, rhs: rhs, row: -1}
	}
	c.byKey = byKey
	c.expanded = true

	return nil
}

// Size returns the number of expanded instances, or 0 before expansion.
func (c *ConstraintFamily) Size() int { return len(c.insts) }
