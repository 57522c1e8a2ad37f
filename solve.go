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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lpfam/lpfam/solver"
)

// Solve compiles the model and dispatches it to the backend.
// Infeasibility and unboundedness are reported via the Solution's
// status, not as errors; errors are reserved for configuration problems
// and backend failures.
func (m *Model) Solve(backend solver.Backend) (*Solution, error) {
	return m.SolveWithContext(context.Background(), backend)
}

// SolveWithContext is Solve with a context. Cancellation is the
// backend's responsibility; a backend that honors the context reports
// it through the Solution's aborted status.
func (m *Model) SolveWithContext(ctx context.Context, backend solver.Backend) (*Solution, error) {
	comp, err := m.compile()
	if err != nil {
		return nil, err
	}

	if m.goalMode == GoalLexicographic && len(comp.priorities) > 0 {
		return m.solveLexicographic(ctx, backend, comp)
	}

	m.logger.V(1).Info("solving", "backend", backend.Name(), "variables", len(comp.problem.Variables), "constraints", len(comp.problem.Constraints))
	res, err := backend.Solve(ctx, &comp.problem)
	if err != nil {
		return nil, wrapBackendErr(backend, err)
	}

	return newSolution(m, comp, res, nil), nil
}

// solveLexicographic runs one backend call per ascending priority
// level, minimizing that level's penalized deviation sum with every
// previously solved level's achievement frozen as an equality row.
func (m *Model) solveLexicographic(ctx context.Context, backend solver.Backend, comp *compiledModel) (*Solution, error) {
	if m.objective != nil && len(m.objective.terms) > 0 {
		m.logger.Info("lexicographic mode ignores the base objective; goals are optimized by priority")
	}

	base := &comp.problem
	var frozen []solver.Constraint
	achieved := make(map[int]float64, len(comp.priorities))
	var res *solver.Result
	var total time.Duration

	for _, priority := range comp.priorities {
		refs := comp.levels[priority]
		terms := make([]solver.Term, len(refs))
		for i, r := range refs {
			terms[i] = solver.Term{Var: r.col, Coef: r.weight}
		}

		rows := make([]solver.Constraint, 0, len(base.Constraints)+len(frozen))
		rows = append(rows, base.Constraints...)
		rows = append(rows, frozen...)

		prob := solver.Problem{
			Name:        fmt.Sprintf("%s/priority-%d", m.name, priority),
			Variables:   base.Variables,
			Constraints: rows,
			Objective:   solver.Objective{Direction: solver.Minimize, Terms: terms},
		}

		m.logger.V(1).Info("solving priority level", "priority", priority, "deviations", len(terms))
		levelRes, err := backend.Solve(ctx, &prob)
		if err != nil {
			return nil, wrapBackendErr(backend, err)
		}
		total += levelRes.SolveTime
		res = levelRes
		res.SolveTime = total

		if !levelRes.Status.HasSolution() {
			return newSolution(m, comp, levelRes, achieved), nil
		}

		sum := 0.0
		for _, t := range terms {
			sum += t.Coef * levelRes.Values[t.Var]
		}
		achieved[priority] = sum

		frozen = append(frozen, solver.Constraint{
			ID:    len(base.Constraints) + len(frozen),
			Name:  fmt.Sprintf("priority-%d-achievement", priority),
			Terms: terms,
			Sense: solver.SenseEQ,
			RHS:   sum,
		})
	}

	return newSolution(m, comp, res, achieved), nil
}

func wrapBackendErr(backend solver.Backend, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &BackendError{Backend: backend.Name(), Err: err}
}
