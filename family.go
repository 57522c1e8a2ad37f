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

	"github.com/lpfam/lpfam/solver"
)

// VariableType describes the domain of the variables of a family.
type VariableType int

const (
	ContinuousVariable VariableType = iota
	IntegerVariable
	BinaryVariable
)

func (t VariableType) String() string {
	switch t {
	case ContinuousVariable:
		return "continuous"
	case IntegerVariable:
		return "integer"
	case BinaryVariable:
		return "binary"
	default:
		return "unknown"
	}
}

func (t VariableType) solverDomain() solver.Domain {
	switch t {
	case IntegerVariable:
		return solver.DomainInteger
	case BinaryVariable:
		return solver.DomainBinary
	default:
		return solver.DomainContinuous
	}
}

// varInstance is one expanded scalar variable of a family, with its
// bounds resolved and its solver column assigned at compile time.
type varInstance struct {
	key   Key
	tuple Tuple
	lower float64
	upper float64
	col   int
}

// VarFamily is a named, typed variable template over zero or more
// dimensions. It is configured fluently, registered with a Model, and
// expanded exactly once into concrete solver variables; the key→column
// mapping established at expansion is never reassigned.
type VarFamily struct {
	name    string
	vtype   VariableType
	lower   float64
	upper   float64
	lowerFn CoefFunc
	upperFn CoefFunc
	dims    []*Dimension
	filter  func(Tuple) bool
	hidden  bool // deviation families are owned by the model, not the caller

	expanded bool
	insts    []varInstance
	byKey    map[Key]int
	cfgErr   error
}

// NewVariables starts a variable family with the given name. A fresh
// family is continuous and unbounded; zero dimensions makes it a scalar
// with the single implicit ScalarKey instance.
func NewVariables(name string) *VarFamily {
	return &VarFamily{
		name:  name,
		vtype: ContinuousVariable,
		lower: math.Inf(-1),
		upper: math.Inf(1),
	}
}

// Name returns the family name.
func (f *VarFamily) Name() string { return f.name }

// Type returns the variable type of the family.
func (f *VarFamily) Type() VariableType { return f.vtype }

func (f *VarFamily) mutate(apply func()) *VarFamily {
	if f.expanded {
		if f.cfgErr == nil {
			f.cfgErr = configErrorf("family %q configured after expansion", f.name)
		}
		return f
	}
	apply()
	return f
}

// Continuous sets the family's variables to the continuous domain.
func (f *VarFamily) Continuous() *VarFamily {
	return f.mutate(func() { f.vtype = ContinuousVariable })
}

// Integer sets the family's variables to the integer domain.
func (f *VarFamily) Integer() *VarFamily {
	return f.mutate(func() { f.vtype = IntegerVariable })
}

// Binary sets the family's variables to the binary domain. Bounds are
// forced to [0,1] regardless of any declared bounds.
func (f *VarFamily) Binary() *VarFamily {
	return f.mutate(func() { f.vtype = BinaryVariable })
}

// Bounds sets constant lower and upper bounds for every instance.
func (f *VarFamily) Bounds(lower, upper float64) *VarFamily {
	return f.mutate(func() {
		f.lower, f.upper = lower, upper
		f.lowerFn, f.upperFn = nil, nil
	})
}

// BoundsFunc derives per-instance bounds from the instance's records.
// Either function may be nil to keep the constant bound for that side.
func (f *VarFamily) BoundsFunc(lower, upper CoefFunc) *VarFamily {
	return f.mutate(func() { f.lowerFn, f.upperFn = lower, upper })
}

// IndexedBy appends dimensions to the family's index scheme, in
// declaration order. Expansion enumerates the cartesian product of all
// dimensions with the last one iterating fastest.
func (f *VarFamily) IndexedBy(dims ...*Dimension) *VarFamily {
	return f.mutate(func() { f.dims = append(f.dims, dims...) })
}

// Filter restricts expansion to tuples for which pred returns true,
// realizing sparse index schemes.
func (f *VarFamily) Filter(pred func(Tuple) bool) *VarFamily {
	return f.mutate(func() { f.filter = pred })
}

// expand materializes the family. It is idempotent: a second call keeps
// the mapping produced by the first.
func (f *VarFamily) expand() error {
	if f.cfgErr != nil {
		return f.cfgErr
	}
	if f.expanded {
		return nil
	}

	insts, byKey, err := expandIndex(f.name, f.dims, f.filter)
	if err != nil {
		return err
	}

	f.insts = make([]varInstance, len(insts))
	for i, inst := range insts {
		lower, upper := f.lower, f.upper
		if f.lowerFn != nil {
			lower = f.lowerFn(inst.tuple)
		}
		if f.upperFn != nil {
			upper = f.upperFn(inst.tuple)
		}
		if f.vtype == BinaryVariable {
			lower, upper = 0, 1
		}
		f.insts[i] = varInstance{
			key:   inst.key,
			tuple: inst.tuple,
			lower: lower,
			upper: upper,
			col:   -1,
		}
	}
	f.byKey = byKey
	f.expanded = true

	return nil
}

// Keys returns the expanded keys in expansion order. It returns nil if
// the family has not been expanded yet (i.e. before the first compile).
func (f *VarFamily) Keys() []Key {
	if !f.expanded {
		return nil
	}
	keys := make([]Key, len(f.insts))
	for i, inst := range f.insts {
		keys[i] = inst.key
	}
	return keys
}

// Size returns the number of expanded instances, or 0 before expansion.
func (f *VarFamily) Size() int { return len(f.insts) }
