package model

import (
	"fmt"

	"github.com/limaJavier/flexday/pkg/milp"
)

type milpAssigner struct {
	solver milp.Solver
}

func NewAssigner(solver milp.Solver) Assigner {
	return &milpAssigner{
		solver: solver,
	}
}

func (assigner *milpAssigner) Build(table RankingTable, policy SchedulingPolicy) (schedule Schedule, variables uint64, constraints uint64, err error) {
	//** Build program
	model, err := BuildModel(table, policy)
	if err != nil {
		return Schedule{}, 0, 0, err
	}
	variables, constraints = model.Program.Variables, uint64(len(model.Program.Constraints))

	//** Solve program
	solution, err := assigner.solver.Solve(model.Program)
	if err != nil {
		return Schedule{}, variables, constraints, fmt.Errorf("solver failed: %w", err)
	} else if solution == nil { // The program has no feasible assignment
		return Schedule{}, variables, constraints, InfeasibleModelError{Reasons: diagnoseInfeasibility(table, policy)}
	}

	//** Decode solution
	schedule, err = model.Decode(solution)
	return schedule, variables, constraints, err
}

func (assigner *milpAssigner) Verify(schedule Schedule, table RankingTable, policy SchedulingPolicy) bool {
	return verify(schedule, table, policy)
}
