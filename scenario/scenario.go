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

// Package scenario loads declarative purchase-planning scenarios from
// HCL files and builds lpfam models from them.
package scenario

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lpfam/lpfam"
)

// Load parses and decodes a single scenario file.
func Load(path string) (*Scenario, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse scenario file %s: %s", path, diags.Error())
	}
	var root file
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode scenario file %s: %s", path, diags.Error())
	}
	if root.Scenario == nil {
		return nil, fmt.Errorf("scenario file %s: missing scenario block", path)
	}
	return root.Scenario, nil
}

// Parse decodes a scenario from an in-memory buffer. The filename is
// only used in diagnostics.
func Parse(src []byte, filename string) (*Scenario, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse scenario %s: %s", filename, diags.Error())
	}
	var root file
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode scenario %s: %s", filename, diags.Error())
	}
	if root.Scenario == nil {
		return nil, fmt.Errorf("scenario %s: missing scenario block", filename)
	}
	return root.Scenario, nil
}

// FoodRecord is the resolved form of a food block, with the nutrient
// map converted out of its HCL representation.
type FoodRecord struct {
	Name        string
	Cost        float64
	Nutrients   map[string]float64
	MaxServings float64
}

// RequirementRecord is the resolved form of a hard requirement block.
type RequirementRecord struct {
	Nutrient string
	Minimum  float64
}

// ServingsFamily is the name of the variable family Build registers for
// the per-food purchase quantities.
const ServingsFamily = "servings"

// Build constructs a model from the scenario: one purchase variable per
// food, one floor constraint per requirement (soft ones as goals) and
// an optional budget cap. The objective minimizes total cost unless the
// scenario says otherwise.
func (s *Scenario) Build(opts ...lpfam.Option) (*lpfam.Model, error) {
	if len(s.Foods) == 0 {
		return nil, fmt.Errorf("scenario %q: no food blocks", s.Name)
	}

	dir, err := s.direction()
	if err != nil {
		return nil, err
	}
	mode, err := s.goalMode()
	if err != nil {
		return nil, err
	}

	foods := make([]FoodRecord, 0, len(s.Foods))
	for _, f := range s.Foods {
		nutrients, err := f.nutrientMap()
		if err != nil {
			return nil, err
		}
		maxServings := math.Inf(1)
		if f.MaxServings != nil {
			maxServings = *f.MaxServings
		}
		foods = append(foods, FoodRecord{
			Name:        f.Name,
			Cost:        f.Cost,
			Nutrients:   nutrients,
			MaxServings: maxServings,
		})
	}

	m, err := lpfam.NewModel(s.Name, dir, opts...)
	if err != nil {
		return nil, err
	}
	if err := m.SetGoalMode(mode); err != nil {
		return nil, err
	}

	foodDim := lpfam.Over("food", foods, func(f FoodRecord) lpfam.Key { return f.Name })

	buy := lpfam.NewVariables(ServingsFamily).
		IndexedBy(foodDim).
		BoundsFunc(lpfam.Constant(0), lpfam.Coef1(func(f FoodRecord) float64 { return f.MaxServings }))
	if s.WholeUnits {
		buy.Integer()
	}
	if err := m.AddVariables(buy); err != nil {
		return nil, err
	}

	hasGoals := false

	var hard []RequirementRecord
	for _, r := range s.Requirements {
		if r.Soft {
			continue
		}
		hard = append(hard, RequirementRecord{Nutrient: r.Nutrient, Minimum: r.Minimum})
	}
	if len(hard) > 0 {
		reqDim := lpfam.Over("requirement", hard, func(r RequirementRecord) lpfam.Key { return r.Nutrient })
		need := lpfam.NewConstraint("need").
			IndexedBy(reqDim).
			Expr(lpfam.NewExpr().SumWith(buy, lpfam.Cross(func(r RequirementRecord, f FoodRecord) float64 {
				return f.Nutrients[r.Nutrient]
			}))).
			GEFunc(lpfam.Coef1(func(r RequirementRecord) float64 { return r.Minimum }))
		if err := m.AddConstraint(need); err != nil {
			return nil, err
		}
	}

	for _, r := range s.Requirements {
		if !r.Soft {
			continue
		}
		nutrient := r.Nutrient
		priority := r.Priority
		if priority == 0 {
			priority = 1
		}
		goal := lpfam.NewConstraint("need:" + nutrient).
			Expr(lpfam.NewExpr().Sum(buy, lpfam.Coef1(func(f FoodRecord) float64 {
				return f.Nutrients[nutrient]
			}))).
			GE(r.Minimum).
			AsGoal(priority, r.weight())
		if err := m.AddConstraint(goal); err != nil {
			return nil, err
		}
		hasGoals = true
	}

	costCoef := lpfam.Coef1(func(f FoodRecord) float64 { return f.Cost })

	if s.Budget != nil {
		budget := lpfam.NewConstraint("budget").
			Expr(lpfam.NewExpr().Sum(buy, costCoef)).
			LE(s.Budget.Limit)
		if s.Budget.Priority > 0 {
			budget.AsGoal(s.Budget.Priority, s.Budget.weight())
			hasGoals = true
		}
		if err := m.AddConstraint(budget); err != nil {
			return nil, err
		}
	}

	if err := m.SetObjective(lpfam.NewExpr().Sum(buy, costCoef)); err != nil {
		return nil, err
	}

	if hasGoals {
		if err := m.PrepareGoalProgramming(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (s *Scenario) direction() (lpfam.Direction, error) {
	switch s.Direction {
	case "", "minimize":
		return lpfam.Minimize, nil
	case "maximize":
		return lpfam.Maximize, nil
	default:
		return 0, fmt.Errorf("scenario %q: unknown direction %q", s.Name, s.Direction)
	}
}

func (s *Scenario) goalMode() (lpfam.GoalMode, error) {
	switch s.GoalMode {
	case "", "weighted":
		return lpfam.GoalWeighted, nil
	case "lexicographic":
		return lpfam.GoalLexicographic, nil
	default:
		return 0, fmt.Errorf("scenario %q: unknown goal_mode %q", s.Name, s.GoalMode)
	}
}
