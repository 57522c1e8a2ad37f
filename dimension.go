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

// Key identifies one expanded instance of a family. A key must be
// comparable; families indexed by several dimensions combine the
// per-dimension keys into a composite key transparently.
type Key interface{}

type scalarKey struct{}

func (scalarKey) String() string { return "scalar" }

// ScalarKey is the implicit key of an unindexed (zero-dimension) family,
// which always expands into exactly one instance.
var ScalarKey Key = scalarKey{}

// maxDimensions bounds the arity of composite keys. Composite keys are
// comparable fixed-size arrays, so the supported arity is fixed.
const maxDimensions = 4

// Tuple is the ordered list of data records backing one expanded
// instance, one record per dimension in declaration order. Coefficient,
// bound and filter functions receive the instance's Tuple.
type Tuple []interface{}

// At returns the record of the i-th dimension.
func (t Tuple) At(i int) interface{} { return t[i] }

// At returns the record of the i-th dimension of a Tuple, asserted to
// the record type the dimension was built from.
func At[T any](t Tuple, i int) T { return t[i].(T) }

// Dimension binds an ordered data collection to a key-extraction
// function. The same Dimension value may index any number of variable
// and constraint families; iteration order is the order of the supplied
// collection and is stable across expansions.
type Dimension struct {
	name    string
	records []interface{}
	keys    []Key
}

// Over builds a Dimension from an ordered collection of records and a
// key-extraction function. Key extraction must be injective over the
// collection; duplicates are reported when a family over this dimension
// is first expanded, not silently merged.
func Over[T any](name string, data []T, key func(T) Key) *Dimension {
	d := &Dimension{name: name}
	d.records = make([]interface{}, 0, len(data))
	d.keys = make([]Key, 0, len(data))
	for _, rec := range data {
		d.records = append(d.records, rec)
		d.keys = append(d.keys, key(rec))
	}
	return d
}

// Name returns the name given to the dimension on construction.
func (d *Dimension) Name() string { return d.name }

// Len returns the number of records in the dimension's collection.
func (d *Dimension) Len() int { return len(d.records) }

// compositeKey folds per-dimension keys into one comparable value.
func compositeKey(parts []Key) Key {
	switch len(parts) {
	case 0:
		return ScalarKey
	case 1:
		return parts[0]
	case 2:
		return [2]Key{parts[0], parts[1]}
	case 3:
		return [3]Key{parts[0], parts[1], parts[2]}
	case 4:
		return [4]Key{parts[0], parts[1], parts[2], parts[3]}
	default:
		panic("lpfam: composite key arity exceeds maxDimensions")
	}
}

// instance is one materialized point of an index scheme: its composite
// key and the record tuple it was derived from.
type instance struct {
	key   Key
	tuple Tuple
}

// expandIndex enumerates the cartesian product of the given dimensions
// in lexicographic order (last dimension fastest), applies the optional
// filter, and checks post-filter key uniqueness. Zero dimensions yield
// the single scalar instance. An empty dimension yields no instances.
func expandIndex(owner string, dims []*Dimension, filter func(Tuple) bool) ([]instance, map[Key]int, error) {
	if len(dims) > maxDimensions {
		return nil, nil, configErrorf("family %q: %d dimensions exceeds the supported maximum of %d", owner, len(dims), maxDimensions)
	}

	byKey := make(map[Key]int)

	if len(dims) == 0 {
		insts := []instance{{key: ScalarKey, tuple: nil}}
		byKey[ScalarKey] = 0
		return insts, byKey, nil
	}

	for _, d := range dims {
		if d.Len() == 0 {
			return nil, byKey, nil
		}
	}

	var insts []instance
	idx := make([]int, len(dims))
	parts := make([]Key, len(dims))
	for {
		tuple := make(Tuple, len(dims))
		for i, d := range dims {
			tuple[i] = d.records[idx[i]]
			parts[i] = d.keys[idx[i]]
		}
		if filter == nil || filter(tuple) {
			key := compositeKey(parts)
			if _, dup := byKey[key]; dup {
				return nil, nil, configErrorf("%w", &DuplicateIndexError{Family: owner, Key: key})
			}
			byKey[key] = len(insts)
			insts = append(insts, instance{key: key, tuple: tuple})
		}

		i := len(dims) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < dims[i].Len() {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			break
		}
	}

	return insts, byKey, nil
}
