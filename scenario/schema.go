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
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Food is one purchasable item in a scenario file.
type Food struct {
	Name        string    `hcl:"name,label"`
	Cost        float64   `hcl:"cost"`
	Nutrients   cty.Value `hcl:"nutrients"`
	MaxServings *float64  `hcl:"max_servings,optional"`
}

// Requirement is one nutrient floor. A soft requirement becomes a goal
// instead of a hard constraint.
type Requirement struct {
	Nutrient string   `hcl:"nutrient,label"`
	Minimum  float64  `hcl:"minimum"`
	Soft     bool     `hcl:"soft,optional"`
	Priority int      `hcl:"priority,optional"`
	Weight   *float64 `hcl:"weight,optional"`
}

// Budget caps total cost. With a priority it becomes a goal rather than
// a hard cap.
type Budget struct {
	Limit    float64  `hcl:"limit"`
	Priority int      `hcl:"priority,optional"`
	Weight   *float64 `hcl:"weight,optional"`
}

// Scenario is the top-level scenario block.
type Scenario struct {
	Name         string         `hcl:"name,label"`
	Direction    string         `hcl:"direction,optional"`
	GoalMode     string         `hcl:"goal_mode,optional"`
	WholeUnits   bool           `hcl:"whole_units,optional"`
	Foods        []*Food        `hcl:"food,block"`
	Requirements []*Requirement `hcl:"requirement,block"`
	Budget       *Budget        `hcl:"budget,block"`
}

// file is the root structure of a scenario file.
type file struct {
	Scenario *Scenario `hcl:"scenario,block"`
}

// nutrientMap converts the decoded nutrients attribute into plain Go
// amounts keyed by nutrient name.
func (f *Food) nutrientMap() (map[string]float64, error) {
	out := make(map[string]float64)
	if f.Nutrients.IsNull() {
		return out, nil
	}
	if !f.Nutrients.CanIterateElements() {
		return nil, fmt.Errorf("food %q: nutrients must be a map of numbers", f.Name)
	}
	for name, v := range f.Nutrients.AsValueMap() {
		var amount float64
		if err := gocty.FromCtyValue(v, &amount); err != nil {
			return nil, fmt.Errorf("food %q nutrient %q: %w", f.Name, name, err)
		}
		out[name] = amount
	}
	return out, nil
}

func (r *Requirement) weight() float64 {
	if r.Weight != nil {
		return *r.Weight
	}
	return 1
}

func (b *Budget) weight() float64 {
	if b.Weight != nil {
		return *b.Weight
	}
	return 1
}
