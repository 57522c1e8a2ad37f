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

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plant struct {
	ID       string
	Capacity float64
}

type city struct {
	ID     string
	Demand float64
}

func testPlants() []plant {
	return []plant{{"p1", 100}, {"p2", 80}, {"p3", 120}}
}

func testCities() []city {
	return []city{{"c1", 90}, {"c2", 110}}
}

func TestExpandCartesian(t *testing.T) {
	plants := Over("plants", testPlants(), func(p plant) Key { return p.ID })
	cities := Over("cities", testCities(), func(c city) Key { return c.ID })

	insts, byKey, err := expandIndex("ship", []*Dimension{plants, cities}, nil)
	require.NoError(t, err)

	assert.Len(t, insts, 6)
	assert.Len(t, byKey, 6)

	// last dimension iterates fastest
	wantKeys := []Key{
		[2]Key{"p1", "c1"}, [2]Key{"p1", "c2"},
		[2]Key{"p2", "c1"}, [2]Key{"p2", "c2"},
		[2]Key{"p3", "c1"}, [2]Key{"p3", "c2"},
	}
	gotKeys := make([]Key, len(insts))
	for i := range insts {
		gotKeys[i] = insts[i].key
	}
	if diff := cmp.Diff(wantKeys, gotKeys); diff != "" {
		t.Errorf("expansion order mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandDeterministic(t *testing.T) {
	plants := Over("plants", testPlants(), func(p plant) Key { return p.ID })
	cities := Over("cities", testCities(), func(c city) Key { return c.ID })

	first, _, err := expandIndex("ship", []*Dimension{plants, cities}, nil)
	require.NoError(t, err)
	second, _, err := expandIndex("ship", []*Dimension{plants, cities}, nil)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].key, second[i].key)
	}
}

func TestExpandFilter(t *testing.T) {
	plants := Over("plants", testPlants(), func(p plant) Key { return p.ID })
	cities := Over("cities", testCities(), func(c city) Key { return c.ID })

	// exclude lanes from the small plant
	insts, byKey, err := expandIndex("ship", []*Dimension{plants, cities}, func(tp Tuple) bool {
		return At[plant](tp, 0).Capacity >= 100
	})
	require.NoError(t, err)

	assert.Len(t, insts, 4)
	_, ok := byKey[[2]Key{"p2", "c1"}]
	assert.False(t, ok)
	_, ok = byKey[[2]Key{"p1", "c1"}]
	assert.True(t, ok)
}

func TestExpandZeroDimensions(t *testing.T) {
	insts, byKey, err := expandIndex("total", nil, nil)
	require.NoError(t, err)

	require.Len(t, insts, 1)
	assert.Equal(t, ScalarKey, insts[0].key)
	assert.Nil(t, insts[0].tuple)
	assert.Equal(t, 0, byKey[ScalarKey])
}

func TestExpandEmptyDimension(t *testing.T) {
	empty := Over("plants", nil, func(p plant) Key { return p.ID })
	cities := Over("cities", testCities(), func(c city) Key { return c.ID })

	insts, _, err := expandIndex("ship", []*Dimension{empty, cities}, nil)
	require.NoError(t, err)
	assert.Empty(t, insts)
}

func TestExpandDuplicateKey(t *testing.T) {
	dup := append(testPlants(), plant{"p1", 50})
	plants := Over("plants", dup, func(p plant) Key { return p.ID })

	_, _, err := expandIndex("make", []*Dimension{plants}, nil)
	require.Error(t, err)

	var dupErr *DuplicateIndexError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "make", dupErr.Family)
	assert.Equal(t, Key("p1"), dupErr.Key)

	// duplicate keys belong to the configuration-error taxonomy
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestCompileDuplicateKeyIsConfigError(t *testing.T) {
	model, err := NewModel("test", Minimize)
	require.NoError(t, err)

	dup := append(testPlants(), plant{"p1", 50})
	plants := Over("plants", dup, func(p plant) Key { return p.ID })
	require.NoError(t, model.AddVariables(NewVariables("make").IndexedBy(plants)))

	err = model.Compile()
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	var dupErr *DuplicateIndexError
	assert.True(t, errors.As(err, &dupErr))
}

func TestExpandTooManyDimensions(t *testing.T) {
	d := Over("d", testCities(), func(c city) Key { return c.ID })

	_, _, err := expandIndex("x", []*Dimension{d, d, d, d, d}, nil)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestCompositeKeyArities(t *testing.T) {
	assert.Equal(t, ScalarKey, compositeKey(nil))
	assert.Equal(t, Key("a"), compositeKey([]Key{"a"}))
	assert.Equal(t, Key([2]Key{"a", 1}), compositeKey([]Key{"a", 1}))
	assert.Equal(t, Key([3]Key{"a", 1, true}), compositeKey([]Key{"a", 1, true}))
	assert.Equal(t, Key([4]Key{"a", 1, true, 2.5}), compositeKey([]Key{"a", 1, true, 2.5}))
}
