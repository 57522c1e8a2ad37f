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
package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lpfam/lpfam/solver/simplex"
)

const testScenario = `
scenario "diet" {
  direction = "minimize"

  food "bread" {
    cost         = 2.0
    nutrients    = { calories = 230, protein = 8 }
    max_servings = 10
  }

  food "milk" {
    cost      = 3.5
    nutrients = { calories = 150, protein = 8 }
  }

  food "fish" {
    cost      = 11.0
    nutrients = { calories = 180, protein = 25 }
  }

  requirement "calories" {
    minimum = 2000
  }

  requirement "protein" {
    minimum = 55
  }
}
`

const goalScenario = `
scenario "diet" {
  goal_mode = "lexicographic"

  food "bread" {
    cost      = 2.0
    nutrients = { calories = 230 }
    max_servings = 4
  }

  requirement "calories" {
    minimum  = 2000
    soft     = true
    priority = 1
    weight   = 2.0
  }

  budget {
    limit    = 6
    priority = 2
  }
}
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(testScenario), "diet.hcl")
	require.NoError(t, err)

	assert.Equal(t, "diet", sc.Name)
	require.Len(t, sc.Foods, 3)
	require.Len(t, sc.Requirements, 2)
	assert.Nil(t, sc.Budget)

	bread := sc.Foods[0]
	assert.Equal(t, "bread", bread.Name)
	assert.Equal(t, 2.0, bread.Cost)
	require.NotNil(t, bread.MaxServings)
	assert.Equal(t, 10.0, *bread.MaxServings)

	nutrients, err := bread.nutrientMap()
	require.NoError(t, err)
	assert.Equal(t, 230.0, nutrients["calories"])
	assert.Equal(t, 8.0, nutrients["protein"])

	assert.Nil(t, sc.Foods[1].MaxServings)
}

func TestParseGoals(t *testing.T) {
	sc, err := Parse([]byte(goalScenario), "goals.hcl")
	require.NoError(t, err)

	require.Len(t, sc.Requirements, 1)
	r := sc.Requirements[0]
	assert.True(t, r.Soft)
	assert.Equal(t, 1, r.Priority)
	assert.Equal(t, 2.0, r.weight())

	require.NotNil(t, sc.Budget)
	assert.Equal(t, 6.0, sc.Budget.Limit)
	assert.Equal(t, 1.0, sc.Budget.weight())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`scenario "x" {`), "broken.hcl")
	require.Error(t, err)

	_, err = Parse([]byte(`direction = "minimize"`), "empty.hcl")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diet.hcl")
	require.NoError(t, os.WriteFile(path, []byte(testScenario), 0o600))

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "diet", sc.Name)

	_, err = Load(filepath.Join(dir, "missing.hcl"))
	require.Error(t, err)
}

func TestBuildAndSolve(t *testing.T) {
	sc, err := Parse([]byte(testScenario), "diet.hcl")
	require.NoError(t, err)

	model, err := sc.Build()
	require.NoError(t, err)
	require.NoError(t, model.Compile())

	assert.Equal(t, 3, model.VariableCount())
	assert.Equal(t, 2, model.ConstraintCount())

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())

	servings := sol.Mapped(model.Variables(ServingsFamily))
	require.Len(t, servings, 3)

	calories := 0.0
	protein := 0.0
	cost := 0.0
	totals := map[string]map[string]float64{
		"bread": {"calories": 230, "protein": 8, "cost": 2.0},
		"milk":  {"calories": 150, "protein": 8, "cost": 3.5},
		"fish":  {"calories": 180, "protein": 25, "cost": 11.0},
	}
	for name, qty := range servings {
		n := totals[name.(string)]
		calories += n["calories"] * qty
		protein += n["protein"] * qty
		cost += n["cost"] * qty
	}
	assert.GreaterOrEqual(t, calories, 2000-1e-6)
	assert.GreaterOrEqual(t, protein, 55-1e-6)
	assert.InDelta(t, cost, sol.ObjectiveValue(), 1e-6)
}

func TestBuildGoalScenario(t *testing.T) {
	sc, err := Parse([]byte(goalScenario), "goals.hcl")
	require.NoError(t, err)

	model, err := sc.Build()
	require.NoError(t, err)

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.IsOptimal())

	// 4 servings of bread yield only 920 calories against the 2000
	// goal; priority 1 accepts the shortfall the bounds force
	level1, ok := sol.LevelDeviation(1)
	require.True(t, ok)
	assert.InDelta(t, 2*(2000-4*230), level1, 1e-6)

	dev, err := sol.GoalDeviations("need:calories")
	require.NoError(t, err)
	assert.InDelta(t, 2000-4*230, dev.NegScalar(), 1e-6)
	assert.False(t, sol.IsGoalSatisfied("need:calories", 1e-6))
}

func TestBuildErrors(t *testing.T) {
	_, err := (&Scenario{Name: "empty"}).Build()
	require.Error(t, err)

	sc := &Scenario{
		Name:      "bad-direction",
		Direction: "sideways",
		Foods:     []*Food{{Name: "a", Cost: 1}},
	}
	_, err = sc.Build()
	require.Error(t, err)

	sc = &Scenario{
		Name:     "bad-mode",
		GoalMode: "chaotic",
		Foods:    []*Food{{Name: "a", Cost: 1}},
	}
	_, err = sc.Build()
	require.Error(t, err)
}

func TestWholeUnits(t *testing.T) {
	sc, err := Parse([]byte(testScenario), "diet.hcl")
	require.NoError(t, err)
	sc.WholeUnits = true

	model, err := sc.Build()
	require.NoError(t, err)

	sol, err := model.Solve(simplex.New())
	require.NoError(t, err)
	require.True(t, sol.Status().HasSolution())

	for name, qty := range sol.Mapped(model.Variables(ServingsFamily)) {
		rounded := float64(int(qty + 0.5))
		assert.InDelta(t, rounded, qty, 1e-6, "servings of %v must be integral", name)
	}
}
