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

// Package solver defines the contract between the modeling layer and a
// numeric LP/MILP backend: a flat standard-form problem in, primal
// values, objective value, status and (for pure LPs) dual values out.
package solver

import (
	"context"
	"time"
)

// Domain is the domain of a single solver variable.
type Domain int

const (
	DomainContinuous Domain = iota
	DomainInteger
	DomainBinary
)

// Sense is the relational sense of a constraint row.
type Sense int

const (
	SenseLE Sense = iota
	SenseGE
	SenseEQ
)

// Direction is the optimization direction of the objective.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Variable is one solver column. IDs are dense and equal to the
// column's position in Problem.Variables.
type Variable struct {
	ID     int
	Name   string
	Domain Domain
	Lower  float64
	Upper  float64
}

// Term is one nonzero coefficient of a row or of the objective.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is one solver row. IDs are dense and equal to the row's
// position in Problem.Constraints.
type Constraint struct {
	ID    int
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Objective is the linear objective with an additive constant.
type Objective struct {
	Direction Direction
	Terms     []Term
	Constant  float64
}

// Problem is a complete solver-ready model.
type Problem struct {
	Name        string
	Variables   []Variable
	Constraints []Constraint
	Objective   Objective
}

// Status is the backend-reported outcome of a solve.
type Status int

const (
	// StatusUnknown means no solve has produced a result yet.
	StatusUnknown Status = iota
	// StatusOptimal means the backend proved optimality.
	StatusOptimal
	// StatusFeasible means a feasible but not proven-optimal point was
	// found (e.g. the backend stopped at a limit).
	StatusFeasible
	// StatusInfeasible means the model has no feasible point.
	StatusInfeasible
	// StatusUnbounded means the objective is unbounded in the
	// optimization direction.
	StatusUnbounded
	// StatusAborted means the solve was cancelled before completion.
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// HasSolution reports whether primal values are meaningful for s.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Result is the outcome of one backend invocation. Values and Duals are
// indexed by variable and constraint ID respectively; Duals is nil when
// the backend cannot provide duals (e.g. for integer models).
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
	Duals     []float64
	SolveTime time.Duration
}

// HasDuals reports whether dual values are available.
func (r *Result) HasDuals() bool { return r.Duals != nil }

// Backend solves a Problem. Model-level outcomes (infeasible,
// unbounded, cancelled) are reported via Result.Status; errors are
// reserved for backend failures. A Backend must not retain the Problem
// after returning.
type Backend interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (*Result, error)
}
