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

package simplex

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lpfam/lpfam/solver"
)

const intTol = 1e-6

// Backend is the bundled solver.Backend. LP models get dual values;
// models with integer or binary columns are solved by branch and bound
// and report primal values only.
type Backend struct {
	maxIter  int
	maxNodes int
}

// Option configures a Backend.
type Option func(*Backend)

// WithMaxIterations caps simplex pivots per LP solve. Zero keeps the
// size-derived default.
func WithMaxIterations(n int) Option {
	return func(b *Backend) { b.maxIter = n }
}

// WithMaxNodes caps explored branch-and-bound nodes.
func WithMaxNodes(n int) Option {
	return func(b *Backend) { b.maxNodes = n }
}

// New returns a ready Backend.
func New(opts ...Option) *Backend {
	b := &Backend{maxNodes: 100000}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements solver.Backend.
func (b *Backend) Name() string { return "simplex" }

// Solve implements solver.Backend.
func (b *Backend) Solve(ctx context.Context, p *solver.Problem) (*solver.Result, error) {
	start := time.Now()

	integral := false
	for _, v := range p.Variables {
		if v.Domain != solver.DomainContinuous {
			integral = true
			break
		}
	}

	if !integral {
		lp, err := solveLP(ctx, p, nil, nil, b.maxIter)
		if err != nil {
			return nil, err
		}
		res := &solver.Result{
			Status:    lp.status,
			Objective: lp.objective,
			Values:    lp.values,
			SolveTime: time.Since(start),
		}
		if lp.status == solver.StatusOptimal {
			res.Duals = lp.duals
		}
		return res, nil
	}

	res, err := b.branchAndBound(ctx, p)
	if err != nil {
		return nil, err
	}
	res.SolveTime = time.Since(start)
	return res, nil
}

type bbNode struct {
	lower []float64
	upper []float64
}

// branchAndBound runs depth-first branch and bound over the integral
// columns, bounding with the LP relaxation.
func (b *Backend) branchAndBound(ctx context.Context, p *solver.Problem) (*solver.Result, error) {
	sign := 1.0
	if p.Objective.Direction == solver.Maximize {
		sign = -1
	}

	root := bbNode{lower: make([]float64, len(p.Variables)), upper: make([]float64, len(p.Variables))}
	for j, v := range p.Variables {
		root.lower[j], root.upper[j] = v.Lower, v.Upper
	}

	var best *lpResult
	bestObj := math.Inf(1) // in minimize orientation
	stack := []bbNode{root}
	nodes := 0

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return &solver.Result{Status: solver.StatusAborted}, nil
		}
		nodes++
		if nodes > b.maxNodes {
			if best != nil {
				return intResult(solver.StatusFeasible, best, p), nil
			}
			return nil, &lpError{stage: "branch and bound", err: fmt.Errorf("node limit %d exceeded", b.maxNodes)}
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		lp, err := solveLP(ctx, p, node.lower, node.upper, b.maxIter)
		if err != nil {
			return nil, err
		}
		switch lp.status {
		case solver.StatusAborted:
			return &solver.Result{Status: solver.StatusAborted}, nil
		case solver.StatusInfeasible:
			continue
		case solver.StatusUnbounded:
			// an unbounded relaxation at the root makes the MIP
			// unbounded or infeasible; report the stronger signal
			if nodes == 1 {
				return &solver.Result{Status: solver.StatusUnbounded}, nil
			}
			continue
		}
		if best != nil && sign*lp.objective >= bestObj-1e-9 {
			continue // bound prune
		}

		branchVar := -1
		for j, v := range p.Variables {
			if v.Domain == solver.DomainContinuous {
				continue
			}
			if math.Abs(lp.values[j]-math.Round(lp.values[j])) > intTol {
				branchVar = j
				break
			}
		}

		if branchVar < 0 {
			best = lp
			bestObj = sign * lp.objective
			continue
		}

		frac := lp.values[branchVar]
		up := node.clone()
		up.lower[branchVar] = math.Ceil(frac)
		down := node.clone()
		down.upper[branchVar] = math.Floor(frac)
		// explore the floor branch first
		stack = append(stack, up, down)
	}

	if best == nil {
		return &solver.Result{Status: solver.StatusInfeasible}, nil
	}
	return intResult(solver.StatusOptimal, best, p), nil
}

func (n bbNode) clone() bbNode {
	c := bbNode{lower: make([]float64, len(n.lower)), upper: make([]float64, len(n.upper))}
	copy(c.lower, n.lower)
	copy(c.upper, n.upper)
	return c
}

// intResult snaps integral columns to their nearest integer and drops
// duals, which are not meaningful for the MIP.
func intResult(status solver.Status, lp *lpResult, p *solver.Problem) *solver.Result {
	values := make([]float64, len(lp.values))
	copy(values, lp.values)
	for j, v := range p.Variables {
		if v.Domain != solver.DomainContinuous {
			values[j] = math.Round(values[j])
		}
	}
	objective := p.Objective.Constant
	for _, t := range p.Objective.Terms {
		objective += t.Coef * values[t.Var]
	}
	return &solver.Result{Status: status, Objective: objective, Values: values}
}
