package milp

import (
	"fmt"
	"log"
	"math"
	"slices"
	"time"

	"github.com/crillab/gophersat/solver"
	"github.com/samber/lo"
)

type gophersatSolver struct {
	timeLimit time.Duration
}

// In-process pseudo-boolean optimizer, it only accepts integral coefficients and bounds.
// A timeLimit of 0 means no limit
func NewGophersatSolver(timeLimit time.Duration) Solver {
	return &gophersatSolver{
		timeLimit: timeLimit,
	}
}

func (gophersat *gophersatSolver) Solve(program Program) (*Solution, error) {
	//** Translate constraints
	constraints := make([]solver.PBConstr, 0, len(program.Constraints))
	mentioned := make(map[uint64]bool, program.Variables)
	for _, constraint := range program.Constraints {
		lits, weights, err := pseudoBooleanTerms(constraint.Terms)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", constraint.Name, err)
		}
		bound, err := integral(constraint.Bound)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", constraint.Name, err)
		}

		// Constraints without terms are decided right away
		if len(lits) == 0 {
			if !(Program{Constraints: []Constraint{constraint}}).Satisfied(nil) {
				return nil, nil
			}
			continue
		}

		switch constraint.Relation {
		case LessOrEqual:
			constraints = append(constraints, solver.LtEq(lits, weights, bound))
		case GreaterOrEqual:
			constraints = append(constraints, solver.GtEq(lits, weights, bound))
		case Equal:
			// LtEq and GtEq take ownership of their slices, Eq copies them for each side
			constraints = append(constraints, solver.Eq(lits, weights, bound)...)
		}

		for _, term := range constraint.Terms {
			mentioned[term.Variable] = true
		}
	}

	// Every variable must be known by the solver, even those only present in the objective
	for variable := uint64(1); variable <= program.Variables; variable++ {
		if !mentioned[variable] {
			constraints = append(constraints, solver.AtMost([]int{int(variable)}, 1))
		}
	}

	//** Translate objective
	costLits, costWeights, offset, err := costFunction(program)
	if err != nil {
		return nil, err
	}

	problem := solver.ParsePBConstrs(constraints)
	if len(costLits) > 0 {
		problem.SetCostFunc(costLits, costWeights)
	}

	//** Optimize
	pb := solver.New(problem)
	result, optimal, err := optimize(func(results chan solver.Result) solver.Result {
		return pb.Optimal(results, nil)
	}, gophersat.timeLimit)
	if err != nil {
		return nil, err
	}
	switch result.Status {
	case solver.Unsat:
		return nil, nil
	case solver.Indet:
		return nil, fmt.Errorf("gophersat stopped before finding any feasible assignment")
	}

	values := make(map[uint64]float64, program.Variables)
	for variable := uint64(1); variable <= program.Variables; variable++ {
		if binding(result.Model, variable) {
			values[variable] = 1
		} else {
			values[variable] = 0
		}
	}

	objective := float64(offset + result.Weight)
	if program.Sense == Maximize {
		objective = -objective
	}

	return &Solution{
		Values:    values,
		Objective: objective,
		Optimal:   optimal,
	}, nil
}

// Runs the optimization and collects every improving model. The optimizer doesn't support being stopped, so
// when the time limit is reached the best model found so far is returned and the optimizer is left running
// in the background until it finishes
func optimize(run func(results chan solver.Result) solver.Result, timeLimit time.Duration) (result solver.Result, optimal bool, err error) {
	results := make(chan solver.Result)
	done := make(chan solver.Result, 1)
	go func() {
		done <- run(results)
	}()

	var timeout <-chan time.Time
	if timeLimit > 0 {
		timer := time.NewTimer(timeLimit)
		defer timer.Stop()
		timeout = timer.C
	}

	var best *solver.Result
	pending := results
	for {
		select {
		case improved, ok := <-pending:
			if !ok {
				pending = nil // Closed, the final result is on its way
				continue
			}
			improved.Model = slices.Clone(improved.Model)
			best = &improved
		case final := <-done:
			return final, true, nil
		case <-timeout:
			// Keep the optimizer from blocking on a channel nobody reads anymore
			if pending != nil {
				go func() {
					for range pending {
					}
				}()
			}
			if best == nil {
				return solver.Result{}, false, fmt.Errorf("gophersat reached the time limit (%v) before finding any feasible assignment", timeLimit)
			}
			log.Printf("warning: gophersat reached the time limit (%v), returning the best assignment found", timeLimit)
			return *best, false, nil
		}
	}
}

// Bindings are indexed by variable position, starting at 0
func binding(model []bool, variable uint64) bool {
	index := int(variable - 1)
	return index < len(model) && model[index]
}

func pseudoBooleanTerms(terms []Term) (lits []int, weights []int, err error) {
	lits, weights = make([]int, 0, len(terms)), make([]int, 0, len(terms))
	for _, term := range terms {
		weight, err := integral(term.Coefficient)
		if err != nil {
			return nil, nil, err
		}
		if weight == 0 {
			continue
		}
		lits = append(lits, int(term.Variable))
		weights = append(weights, weight)
	}
	return lits, weights, nil
}

// Builds a minimization cost function with non-negative weights: a negative weight w on x becomes
// w + (-w) * not(x), so the constant part is returned apart as offset
func costFunction(program Program) (lits []solver.Lit, weights []int, offset int, err error) {
	aggregated := make(map[uint64]int)
	for _, term := range program.Objective {
		weight, err := integral(term.Coefficient)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("objective: %w", err)
		}
		if program.Sense == Maximize {
			weight = -weight
		}
		aggregated[term.Variable] += weight
	}

	variables := lo.Keys(aggregated)
	slices.Sort(variables)

	for _, variable := range variables {
		weight := aggregated[variable]
		switch {
		case weight > 0:
			lits = append(lits, solver.IntToLit(int32(variable)))
			weights = append(weights, weight)
		case weight < 0:
			lits = append(lits, solver.IntToLit(-int32(variable)))
			weights = append(weights, -weight)
			offset += weight
		}
	}
	return lits, weights, offset, nil
}

func integral(value float64) (int, error) {
	if math.Trunc(value) != value || math.Abs(value) > math.MaxInt32 {
		return 0, fmt.Errorf("gophersat only supports integral coefficients, got %v", value)
	}
	return int(value), nil
}
