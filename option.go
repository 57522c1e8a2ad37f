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

import "github.com/go-logr/logr"

// Option configures a Model at construction time.
type Option func(*Model) error

// WithLogger attaches a logger to the model. The default discards all
// output.
func WithLogger(logger logr.Logger) Option {
	return func(m *Model) error {
		m.logger = logger

		return nil
	}
}

// WithGoalMode sets the goal-programming mode at construction time.
func WithGoalMode(mode GoalMode) Option {
	return func(m *Model) error {
		return m.SetGoalMode(mode)
	}
}
