package model

import (
	"fmt"

	"github.com/limaJavier/flexday/pkg/milp"
)

type constraintState struct {
	evaluator slotEvaluator
	indexer   indexer

	students,
	sessions,
	rotations uint64
}

// Every student attends exactly one available session per rotation
func oneSessionPerRotationConstraints(state constraintState) []milp.Constraint {
	constraints := make([]milp.Constraint, 0, state.students*state.rotations)

	for student := range state.students {
		for rotation := range state.rotations {
			terms := make([]milp.Term, 0, state.sessions)
			for session := range state.sessions {
				// Excluded sessions are omitted from the sum, capacity constraints keep them empty
				if !state.evaluator.Available(session, rotation) {
					continue
				}
				terms = append(terms, milp.Term{Variable: state.indexer.Index(student, session, rotation), Coefficient: 1})
			}

			constraints = append(constraints, milp.Constraint{
				Name:     fmt.Sprintf("one_session_per_student_%d_rotation_%d", student, rotation),
				Terms:    terms,
				Relation: milp.Equal,
				Bound:    1,
			})
		}
	}

	return constraints
}

// Every student attends the same session at most once over all rotations. It's emitted even with a single
// rotation, where it's redundant
func atMostOncePerSessionConstraints(state constraintState) []milp.Constraint {
	constraints := make([]milp.Constraint, 0, state.students*state.sessions)

	for student := range state.students {
		for session := range state.sessions {
			terms := make([]milp.Term, 0, state.rotations)
			for rotation := range state.rotations {
				terms = append(terms, milp.Term{Variable: state.indexer.Index(student, session, rotation), Coefficient: 1})
			}

			constraints = append(constraints, milp.Constraint{
				Name:     fmt.Sprintf("session_%d_max_once_per_student_%d", session, student),
				Terms:    terms,
				Relation: milp.LessOrEqual,
				Bound:    1,
			})
		}
	}

	return constraints
}

// Enrollment cap per session for each rotation, 0 for excluded and closed slots
func capacityConstraints(state constraintState) []milp.Constraint {
	constraints := make([]milp.Constraint, 0, state.sessions*state.rotations)

	for session := range state.sessions {
		for rotation := range state.rotations {
			terms := make([]milp.Term, 0, state.students)
			for student := range state.students {
				terms = append(terms, milp.Term{Variable: state.indexer.Index(student, session, rotation), Coefficient: 1})
			}

			constraints = append(constraints, milp.Constraint{
				Name:     fmt.Sprintf("cap_per_session_%d_rotation_%d", session, rotation),
				Terms:    terms,
				Relation: milp.LessOrEqual,
				Bound:    float64(state.evaluator.Capacity(session, rotation)),
			})
		}
	}

	return constraints
}
