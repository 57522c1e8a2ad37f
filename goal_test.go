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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lpfam/lpfam/solver/simplex"
)

func TestGoalWithoutPrepare(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)

	x := NewVariables("x").Bounds(0, 10)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("target").Expr(NewExpr().Matched(x, Constant(1))).GE(4).AsGoal(1, 1)))

	err = model.Compile()
	require.Error(t, err)
	assert.ErrorContains(t, err, "PrepareGoalProgramming")
}

func TestPrepareIdempotent(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)

	x := NewVariables("x").Bounds(0, 10)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("target").Expr(NewExpr().Matched(x, Constant(1))).GE(4).AsGoal(1, 1)))

	require.NoError(t, model.PrepareGoalProgramming())
	require.NoError(t, model.PrepareGoalProgramming())
	require.NoError(t, model.Compile())

	// one visible variable plus two hidden deviations
	assert.Equal(t, 3, model.VariableCount())
}

func TestPrepareAfterCompile(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)
	require.NoError(t, model.AddVariables(NewVariables("x").Bounds(0, 10)))
	require.NoError(t, model.Compile())

	err = model.PrepareGoalProgramming()
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestGoalModeFixedAfterCompile(t *testing.T) {
	model, err := NewModel("test", Minimize, WithGoalMode(GoalLexicographic))
	require.NoError(t, err)

	x := NewVariables("x").Bounds(0, 5)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("floor").Expr(NewExpr().Matched(x, Constant(1))).GE(8).AsGoal(1, 5)))
	require.NoError(t, model.PrepareGoalProgramming())
	require.NoError(t, model.Compile())

	// switching modes now would desynchronize the compiled objective
	err = model.SetGoalMode(GoalWeighted)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, GoalLexicographic, model.GoalMode())

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	lvl, ok := sol.LevelDeviation(1)
	require.True(t, ok)
	assert.InDelta(t, 15, lvl, delta)
}

func TestGoalValidation(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)

	x := NewVariables("x").Bounds(0, 10)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("bad").Expr(NewExpr().Matched(x, Constant(1))).GE(4).AsGoal(0, 1)))

	err = model.PrepareGoalProgramming()
	require.Error(t, err)
	assert.ErrorContains(t, err, "priority")
}

func TestWeightedOverAchievement(t *testing.T) {
	model, err := NewModel("test", Maximize)
	require.NoError(t, err)

	x := NewVariables("x").Bounds(0, 10)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("cap").Expr(NewExpr().Matched(x, Constant(1))).LE(4).AsGoal(1, 1)))
	model.SetObjective(NewExpr().Sum(x, Constant(2)))
	require.NoError(t, model.PrepareGoalProgramming())

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())

	// the 2x payoff dominates the unit over-achievement penalty
	xVal, ok := sol.Value(model.Variables("x"), ScalarKey)
	require.True(t, ok)
	assert.InDelta(t, 10, xVal, delta)

	dev, err := sol.GoalDeviations("cap")
	require.NoError(t, err)
	assert.InDelta(t, 6, dev.PosScalar(), delta)
	assert.InDelta(t, 0, dev.NegScalar(), delta)
	assert.InDelta(t, 14, sol.ObjectiveValue(), delta)
	assert.False(t, sol.IsGoalSatisfied("cap", 1e-6))
}

func TestWeightedUnderAchievement(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)

	x := NewVariables("x").Bounds(0, 5)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("floor").Expr(NewExpr().Matched(x, Constant(1))).GE(8).AsGoal(1, 1)))
	model.SetObjective(NewExpr().Sum(x, Constant(1)))
	require.NoError(t, model.PrepareGoalProgramming())

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())

	// x + neg with x + neg - pos = 8 is constant below x = 5, so any
	// x in [0,5] is optimal at objective 8; the deviation must cover
	// the distance to the floor
	dev, err := sol.GoalDeviations("floor")
	require.NoError(t, err)
	xVal, _ := sol.Value(model.Variables("x"), ScalarKey)
	assert.InDelta(t, 8-xVal, dev.NegScalar(), delta)
	assert.InDelta(t, 0, dev.PosScalar(), delta)
	assert.InDelta(t, 8, sol.ObjectiveValue(), delta)
	assert.False(t, sol.IsGoalSatisfied("floor", 1e-6))
}

func TestGoalSatisfied(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)

	x := NewVariables("x").Bounds(3, 10)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("floor").Expr(NewExpr().Matched(x, Constant(1))).GE(2).AsGoal(1, 1)))
	model.SetObjective(NewExpr().Sum(x, Constant(1)))
	require.NoError(t, model.PrepareGoalProgramming())

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())
	assert.True(t, sol.IsGoalSatisfied("floor", 1e-6))

	dev, err := sol.GoalDeviations("floor")
	require.NoError(t, err)
	assert.InDelta(t, 0, dev.NegScalar(), delta)
}

func TestIndexedGoalDeviations(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)

	reqs := Over("requirements", testRequirements(), func(r nutrientReq) Key { return r.Nutrient })

	supply := NewVariables("supply").IndexedBy(reqs).Bounds(0, 100)
	require.NoError(t, model.AddVariables(supply))
	require.NoError(t, model.AddConstraint(
		NewConstraint("meet").
			IndexedBy(reqs).
			Expr(NewExpr().Matched(supply, Constant(1))).
			GEFunc(Coef1(func(r nutrientReq) float64 { return r.Minimum })).
			AsGoal(1, 1)))
	model.SetObjective(NewExpr().Sum(supply, Constant(1)))
	require.NoError(t, model.PrepareGoalProgramming())

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())

	dev, err := sol.GoalDeviations("meet")
	require.NoError(t, err)
	require.Len(t, dev.Neg, 3)
	for _, r := range testRequirements() {
		supplied, ok := sol.Value(supply, r.Nutrient)
		require.True(t, ok)
		// under-supply shows up one-for-one as negative deviation
		want := r.Minimum - supplied
		if want < 0 {
			want = 0
		}
		assert.InDelta(t, want, dev.Neg[r.Nutrient], delta, "nutrient %s", r.Nutrient)
	}
}

func TestLexicographicPriorities(t *testing.T) {
	model, err := NewModel("test", Minimize, WithGoalMode(GoalLexicographic))
	require.NoError(t, err)

	x := NewVariables("x").Bounds(0, 5)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("floor").Expr(NewExpr().Matched(x, Constant(1))).GE(8).AsGoal(1, 1)))
	require.NoError(t, model.AddConstraint(
		NewConstraint("cap").Expr(NewExpr().Matched(x, Constant(1))).LE(2).AsGoal(2, 1)))
	require.NoError(t, model.PrepareGoalProgramming())

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())

	// priority 1 drives x to its upper bound, leaving a shortfall of 3;
	// priority 2 may not regress that, so its own over-achievement is 3
	level1, ok := sol.LevelDeviation(1)
	require.True(t, ok)
	assert.InDelta(t, 3, level1, delta)

	level2, ok := sol.LevelDeviation(2)
	require.True(t, ok)
	assert.InDelta(t, 3, level2, delta)

	xVal, _ := sol.Value(x, ScalarKey)
	assert.InDelta(t, 5, xVal, delta)
}

func TestLexicographicNonRegression(t *testing.T) {
	model, err := NewModel("test", Minimize, WithGoalMode(GoalLexicographic))
	require.NoError(t, err)

	x := NewVariables("x").Bounds(0, 5)
	require.NoError(t, model.AddVariables(x))
	require.NoError(t, model.AddConstraint(
		NewConstraint("floor").Expr(NewExpr().Matched(x, Constant(1))).GE(8).AsGoal(1, 1)))
	require.NoError(t, model.AddConstraint(
		NewConstraint("cap").Expr(NewExpr().Matched(x, Constant(1))).LE(2).AsGoal(2, 1)))
	require.NoError(t, model.PrepareGoalProgramming())

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)

	// the achieved level-1 deviation equals what a solo level-1 solve
	// would achieve
	solo, err := NewModel("solo", Minimize)
	require.NoError(t, err)
	y := NewVariables("x").Bounds(0, 5)
	require.NoError(t, solo.AddVariables(y))
	require.NoError(t, solo.AddConstraint(
		NewConstraint("floor").Expr(NewExpr().Matched(y, Constant(1))).GE(8).AsGoal(1, 1)))
	require.NoError(t, solo.PrepareGoalProgramming())
	soloSol, err := solo.Solve(simplex.New())
	require.NoError(t, err)

	level1, ok := sol.LevelDeviation(1)
	require.True(t, ok)
	soloDev, err := soloSol.GoalDeviations("floor")
	require.NoError(t, err)
	assert.InDelta(t, soloDev.NegScalar(), level1, delta)
}

func TestGoalDeviationsUnknownGoal(t *testing.T) {
	model, _ := dietModel(t)
	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)

	_, err = sol.GoalDeviations("need")
	require.Error(t, err)
	_, err = sol.GoalDeviations("nope")
	require.Error(t, err)
}
