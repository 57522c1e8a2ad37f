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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyDefaults(t *testing.T) {
	f := NewVariables("x")

	assert.Equal(t, "x", f.Name())
	assert.Equal(t, ContinuousVariable, f.Type())
	require.NoError(t, f.expand())

	require.Equal(t, 1, f.Size())
	assert.True(t, math.IsInf(f.insts[0].lower, -1))
	assert.True(t, math.IsInf(f.insts[0].upper, 1))
	assert.Equal(t, ScalarKey, f.insts[0].key)
}

func TestFamilyExpandIdempotent(t *testing.T) {
	plants := Over("plants", testPlants(), func(p plant) Key { return p.ID })
	f := NewVariables("make").IndexedBy(plants)

	require.NoError(t, f.expand())
	firstKeys := f.Keys()
	firstByKey := make(map[Key]int, len(f.byKey))
	for k, v := range f.byKey {
		firstByKey[k] = v
	}

	require.NoError(t, f.expand())
	assert.Equal(t, firstKeys, f.Keys())
	assert.Equal(t, firstByKey, f.byKey)
}

func TestFamilyBinaryForcesBounds(t *testing.T) {
	plants := Over("plants", testPlants(), func(p plant) Key { return p.ID })
	f := NewVariables("open").Bounds(-5, 100).Binary().IndexedBy(plants)

	require.NoError(t, f.expand())
	for _, inst := range f.insts {
		assert.Equal(t, 0.0, inst.lower)
		assert.Equal(t, 1.0, inst.upper)
	}
}

func TestFamilyBoundsFunc(t *testing.T) {
	plants := Over("plants", testPlants(), func(p plant) Key { return p.ID })
	f := NewVariables("make").
		IndexedBy(plants).
		BoundsFunc(Constant(0), Coef1(func(p plant) float64 { return p.Capacity }))

	require.NoError(t, f.expand())
	require.Equal(t, 3, f.Size())
	assert.Equal(t, 100.0, f.insts[0].upper)
	assert.Equal(t, 80.0, f.insts[1].upper)
	assert.Equal(t, 120.0, f.insts[2].upper)
	for _, inst := range f.insts {
		assert.Equal(t, 0.0, inst.lower)
	}
}

func TestFamilyConfigureAfterExpansion(t *testing.T) {
	f := NewVariables("x")
	require.NoError(t, f.expand())

	f.Integer()
	err := f.expand()
	require.Error(t, err)
	assert.ErrorContains(t, err, "configured after expansion")
}

func TestFamilyKeysBeforeExpansion(t *testing.T) {
	f := NewVariables("x")
	assert.Nil(t, f.Keys())
	assert.Equal(t, 0, f.Size())
}
