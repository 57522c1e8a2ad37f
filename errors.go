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

import "fmt"

// ConfigError reports a malformed model: duplicate family names,
// references to unregistered families, ill-formed index schemes and the
// like. It is always detected before any backend call.
type ConfigError struct {
	msg string
	err error
}

func configErrorf(format string, args ...interface{}) *ConfigError {
	err := fmt.Errorf(format, args...)
	return &ConfigError{msg: err.Error(), err: err}
}

func (e *ConfigError) Error() string { return e.msg }

func (e *ConfigError) Unwrap() error { return e.err }

// DuplicateIndexError reports that a dimension's key extraction produced
// the same key for two distinct records of one family expansion. It is
// returned wrapped in a ConfigError, so it matches both as
// *DuplicateIndexError and as *ConfigError.
type DuplicateIndexError struct {
	Family string
	Key    Key
}

func (e *DuplicateIndexError) Error() string {
	return fmt.Sprintf("duplicate index key %v in family %q", e.Key, e.Family)
}

// BackendError wraps a failure of the solver backend itself (as opposed
// to a model-level outcome like infeasibility, which is reported as a
// Solution status). It is fatal to the solve attempt that produced it.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %q: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
