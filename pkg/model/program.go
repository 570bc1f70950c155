package model

import (
	"github.com/limaJavier/flexday/pkg/milp"
)

// Model is an assignment program built from a ranking table and a scheduling policy, along with everything
// needed to decode the program's solutions. Every run must build its own model
type Model struct {
	Program milp.Program
	Weights [][]int64 // Shaped cost per (student, session)

	table     RankingTable
	policy    SchedulingPolicy
	evaluator slotEvaluator
	indexer   indexer
}

func BuildModel(table RankingTable, policy SchedulingPolicy) (*Model, error) {
	//** Validate input
	totalStudents, totalSessions := table.Dimensions()
	if totalStudents == 0 || totalSessions == 0 {
		return nil, configurationError("ranking table must have at least one student and one session")
	}
	for student, row := range table.Rankings {
		if uint64(len(row)) != totalSessions {
			return nil, configurationError("ranking table is not rectangular: student %q has %d rankings for %d sessions", table.Students[student], len(row), totalSessions)
		}
	}
	if err := policy.Validate(totalSessions); err != nil {
		return nil, err
	}

	//** Initialize dependencies
	evaluator := newSlotEvaluator(policy, totalSessions)
	indexer := newIndexer(totalStudents, totalSessions, policy.Rotations)
	weights, err := shapeWeights(table, policy.Shaping, policy.RankBase)
	if err != nil {
		return nil, err
	}

	state := constraintState{
		evaluator: evaluator,
		indexer:   indexer,
		students:  totalStudents,
		sessions:  totalSessions,
		rotations: policy.Rotations,
	}

	//** Build program
	constraints := []func(state constraintState) []milp.Constraint{
		oneSessionPerRotationConstraints,
		atMostOncePerSessionConstraints,
		capacityConstraints,
	}

	program := milp.Program{
		Variables:   indexer.Variables(),
		Constraints: make([]milp.Constraint, 0, totalStudents*policy.Rotations+totalStudents*totalSessions+totalSessions*policy.Rotations),
		Objective:   objectiveTerms(state, weights),
		Sense:       milp.Minimize,
	}
	// Constraint families are collected in order so the program is the same on every run
	for _, constraint := range constraints {
		program.Constraints = append(program.Constraints, constraint(state)...)
	}

	return &Model{
		Program:   program,
		Weights:   weights,
		table:     table,
		policy:    policy,
		evaluator: evaluator,
		indexer:   indexer,
	}, nil
}

// Index of the variable X[student, session, rotation]
func (model *Model) Variable(student, session, rotation uint64) uint64 {
	return model.indexer.Index(student, session, rotation)
}

// Reconstructs the schedule encoded by a solution of the model's program
func (model *Model) Decode(solution *milp.Solution) (Schedule, error) {
	return decode(solution, model.indexer, model.table, model.policy.Rotations, model.Weights)
}
