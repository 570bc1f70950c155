package model

import "github.com/limaJavier/flexday/pkg/milp"

// Precomputes the cost of every (student, session) pair. Costs don't depend on the rotation, so each weight
// is computed once here and reused by every rotation's variable. A ranking equal to rankBase costs 0
func shapeWeights(table RankingTable, shaping Shaping, rankBase int64) ([][]int64, error) {
	weights := make([][]int64, len(table.Rankings))

	for student, row := range table.Rankings {
		weights[student] = make([]int64, len(row))
		for session, ranking := range row {
			offset := ranking - rankBase
			if offset < 0 {
				return nil, configurationError("student %q ranks session %q with %d, below the rank base %d", table.Students[student], table.Sessions[session], ranking, rankBase)
			}

			switch shaping {
			case LinearShaping:
				weights[student][session] = offset
			case QuadraticShaping:
				weights[student][session] = offset * offset
			default:
				return nil, configurationError("unknown objective shaping %v", shaping)
			}
		}
	}

	return weights, nil
}

// Sum of weight(student, session) * X[student, session, rotation] over the whole cube
func objectiveTerms(state constraintState, weights [][]int64) []milp.Term {
	terms := make([]milp.Term, 0, state.students*state.sessions*state.rotations)

	for student := range state.students {
		for session := range state.sessions {
			weight := float64(weights[student][session])
			for rotation := range state.rotations {
				terms = append(terms, milp.Term{Variable: state.indexer.Index(student, session, rotation), Coefficient: weight})
			}
		}
	}

	return terms
}
