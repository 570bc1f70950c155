package model

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/limaJavier/flexday/pkg/milp"
)

// exhaustiveSolver finds optimal assignments of small programs by depth-first search.
// It assumes non-negative coefficients, which holds for every program built by this package
type exhaustiveSolver struct{}

func (exhaustiveSolver) Solve(program milp.Program) (*milp.Solution, error) {
	variables := program.Variables

	occurrences := make([][][2]int, variables+1) // (constraint, term) pairs per variable
	sums := make([]float64, len(program.Constraints))
	remaining := make([]float64, len(program.Constraints))
	for c, constraint := range program.Constraints {
		for t, term := range constraint.Terms {
			occurrences[term.Variable] = append(occurrences[term.Variable], [2]int{c, t})
			remaining[c] += term.Coefficient
		}
	}
	costs := make([]float64, variables+1)
	for _, term := range program.Objective {
		costs[term.Variable] += term.Coefficient
	}

	feasible := func(c int) bool {
		constraint := program.Constraints[c]
		switch constraint.Relation {
		case milp.LessOrEqual:
			return sums[c] <= constraint.Bound
		case milp.GreaterOrEqual:
			return sums[c]+remaining[c] >= constraint.Bound
		}
		return sums[c] <= constraint.Bound && sums[c]+remaining[c] >= constraint.Bound
	}

	best := math.Inf(1)
	var bestValues []float64
	values := make([]float64, variables+1)

	var search func(variable uint64, cost float64)
	search = func(variable uint64, cost float64) {
		if cost >= best {
			return
		}
		if variable > variables {
			best = cost
			bestValues = append([]float64(nil), values...)
			return
		}

		for _, value := range []float64{0, 1} {
			ok := true
			for _, occurrence := range occurrences[variable] {
				coefficient := program.Constraints[occurrence[0]].Terms[occurrence[1]].Coefficient
				sums[occurrence[0]] += coefficient * value
				remaining[occurrence[0]] -= coefficient
			}
			for _, occurrence := range occurrences[variable] {
				if !feasible(occurrence[0]) {
					ok = false
					break
				}
			}
			if ok {
				values[variable] = value
				search(variable+1, cost+value*costs[variable])
			}
			for _, occurrence := range occurrences[variable] {
				coefficient := program.Constraints[occurrence[0]].Terms[occurrence[1]].Coefficient
				sums[occurrence[0]] -= coefficient * value
				remaining[occurrence[0]] += coefficient
			}
		}
		values[variable] = 0
	}

	// Constraints without terms
	for c := range program.Constraints {
		if !feasible(c) {
			return nil, nil
		}
	}

	search(1, 0)
	if bestValues == nil {
		return nil, nil
	}

	solution := &milp.Solution{Values: make(map[uint64]float64, variables), Objective: best, Optimal: true}
	for variable := uint64(1); variable <= variables; variable++ {
		solution.Values[variable] = bestValues[variable]
	}
	return solution, nil
}

// fixedSolver returns a predefined answer regardless of the program
type fixedSolver struct {
	solution *milp.Solution
	err      error
}

func (solver fixedSolver) Solve(milp.Program) (*milp.Solution, error) {
	return solver.solution, solver.err
}

var errSolverCrashed = errors.New("solver crashed")

func mustTable(students, sessions []string, rankings [][]int64) RankingTable {
	table, err := NewRankingTable(students, sessions, rankings)
	if err != nil {
		panic(err)
	}
	return table
}

// Every student ranks every session with a random permutation of 1..sessions
func generateRankingTable(students, sessions int) RankingTable {
	studentNames := make([]string, students)
	sessionNames := make([]string, sessions)
	rankings := make([][]int64, students)
	for session := range sessions {
		sessionNames[session] = string(rune('A' + session))
	}
	for student := range students {
		studentNames[student] = string(rune('a' + student))
		rankings[student] = make([]int64, sessions)
		for session, ranking := range rand.Perm(sessions) {
			rankings[student][session] = int64(ranking + 1)
		}
	}
	return mustTable(studentNames, sessionNames, rankings)
}

// Builds a solution where exactly the given (student, session, rotation) triples are assigned
func solutionOf(model *Model, assigned ...[3]uint64) *milp.Solution {
	solution := &milp.Solution{Values: make(map[uint64]float64, model.Program.Variables)}
	for variable := uint64(1); variable <= model.Program.Variables; variable++ {
		solution.Values[variable] = 0
	}
	for _, triple := range assigned {
		solution.Values[model.Variable(triple[0], triple[1], triple[2])] = 1
	}
	return solution
}
