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

/*

Package lpfam models linear and mixed-integer optimization problems as
families of variables and constraints parameterized over application
data instead of raw integer indices, compiles them into a flat
solver-ready form, dispatches to a pluggable backend and maps the
numeric solution back onto the original data keys.

As an example, a small diet model over a caller-owned Food type:

	foods := lpfam.Over("foods", menu, func(f Food) lpfam.Key { return f.Name })
	nutrients := lpfam.Over("nutrients", needs, func(n Nutrient) lpfam.Key { return n.Name })

	model, _ := lpfam.NewModel("diet", lpfam.Minimize)

	buy := lpfam.NewVariables("buy").Continuous().Bounds(0, math.Inf(1)).IndexedBy(foods)
	model.AddVariables(buy)

	model.SetObjective(lpfam.NewExpr().Sum(buy, lpfam.Coef1(func(f Food) float64 { return f.Cost })))

	model.AddConstraint(lpfam.NewConstraint("need").
		IndexedBy(nutrients).
		Expr(lpfam.NewExpr().SumWith(buy, lpfam.Cross(func(n Nutrient, f Food) float64 {
			return f.Content[n.Name]
		}))).
		GEFunc(lpfam.Coef1(func(n Nutrient) float64 { return n.Minimum })))

	sol, _ := model.Solve(simplex.New())
	for key, qty := range sol.Mapped(buy) {
		fmt.Printf("%v = %f\n", key, qty)
	}

Constraint families may be marked as soft goals; see
Model.PrepareGoalProgramming for the weighted and lexicographic
goal-programming modes.

*/
package lpfam

import (
	"github.com/go-logr/logr"

	"github.com/lpfam/lpfam/solver"
)

// Direction is the optimization direction of a model's objective.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}
	return "minimize"
}

func (d Direction) solverDirection() solver.Direction {
	if d == Maximize {
		return solver.Maximize
	}
	return solver.Minimize
}

// GoalMode selects how goal deviations enter the optimization.
type GoalMode int

const (
	// GoalWeighted folds every penalized deviation, scaled by its goal's
	// weight, into a single objective and solves once.
	GoalWeighted GoalMode = iota
	// GoalLexicographic solves once per ascending priority level,
	// freezing each level's achieved deviation before the next.
	GoalLexicographic
)

// Model aggregates variable families, constraint families, an objective
// and the goal-programming configuration. A Model is not safe for
// concurrent use, and must not be mutated between the first compilation
// and the end of a solve; independent Models share no state.
type Model struct {
	name      string
	direction Direction
	objective *Expr
	goalMode  GoalMode

	famOrder []*VarFamily
	fams     map[string]*VarFamily
	conOrder []*ConstraintFamily
	cons     map[string]*ConstraintFamily

	goalPrepared bool
	compiled     *compiledModel
	logger       logr.Logger
}

// NewModel instantiates a model with a name (purely informational) and
// an optimization direction (either Minimize or Maximize).
func NewModel(name string, dir Direction, opts ...Option) (*Model, error) {
	m := &Model{
		name:      name,
		direction: dir,
		fams:      make(map[string]*VarFamily),
		cons:      make(map[string]*ConstraintFamily),
		logger:    logr.Discard(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, configErrorf("applying model option: %w", err)
		}
	}

	return m, nil
}

// Name returns the name provided upon instantiation of the model.
func (m *Model) Name() string { return m.name }

// Direction returns the model's optimization direction.
func (m *Model) Direction() Direction { return m.direction }

// SetGoalMode selects weighted or lexicographic goal programming. The
// default is GoalWeighted. The mode is baked into the compiled problem,
// so changing it after compilation is a configuration error.
func (m *Model) SetGoalMode(mode GoalMode) error {
	if m.compiled != nil {
		return configErrorf("model %q: goal mode cannot be changed after compilation", m.name)
	}
	m.goalMode = mode
	return nil
}

// GoalMode returns the configured goal mode.
func (m *Model) GoalMode() GoalMode { return m.goalMode }

// AddVariables registers a variable family. Family names are unique
// within a model; a collision is a configuration error.
func (m *Model) AddVariables(f *VarFamily) error {
	if m.compiled != nil {
		return configErrorf("model %q: families cannot be added after compilation", m.name)
	}
	if _, dup := m.fams[f.name]; dup {
		return configErrorf("model %q: duplicate variable family %q", m.name, f.name)
	}
	m.fams[f.name] = f
	m.famOrder = append(m.famOrder, f)
	return nil
}

// AddConstraint registers a constraint family. Like variable families,
// constraint family names are unique within a model.
func (m *Model) AddConstraint(c *ConstraintFamily) error {
	if m.compiled != nil {
		return configErrorf("model %q: constraints cannot be added after compilation", m.name)
	}
	if _, dup := m.cons[c.name]; dup {
		return configErrorf("model %q: duplicate constraint family %q", m.name, c.name)
	}
	if err := c.validate(); err != nil {
		return err
	}
	m.cons[c.name] = c
	m.conOrder = append(m.conOrder, c)
	return nil
}

// SetObjective sets the objective expression. Matched terms are not
// allowed in the objective, since it carries no index context. Like
// family registration, the objective is fixed once the model compiles.
func (m *Model) SetObjective(e *Expr) error {
	if m.compiled != nil {
		return configErrorf("model %q: objective cannot be changed after compilation", m.name)
	}
	m.objective = e
	return nil
}

// Constraint returns the registered constraint family with the given
// name, or nil.
func (m *Model) Constraint(name string) *ConstraintFamily { return m.cons[name] }

// Variables returns the registered variable family with the given name,
// or nil. Deviation families created by the goal rewrite are internal
// and not returned.
func (m *Model) Variables(name string) *VarFamily {
	f := m.fams[name]
	if f == nil || f.hidden {
		return nil
	}
	return f
}

// VariableCount returns the number of expanded solver variables. It is
// zero until the model has been compiled.
func (m *Model) VariableCount() int {
	if m.compiled == nil {
		return 0
	}
	return len(m.compiled.problem.Variables)
}

// ConstraintCount returns the number of expanded solver constraints. It
// is zero until the model has been compiled.
func (m *Model) ConstraintCount() int {
	if m.compiled == nil {
		return 0
	}
	return len(m.compiled.problem.Constraints)
}
