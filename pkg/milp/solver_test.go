package milp

import (
	"math"
	"math/rand/v2"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/crillab/gophersat/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGophersat(t *testing.T) {
	solver := NewGophersatSolver(0)

	t.Run("Random instances", func(t *testing.T) {
		optimalExecution(t, solver)
	})

	t.Run("Infeasible instance", func(t *testing.T) {
		//** Arrange
		program := Program{
			Variables: 2,
			Constraints: []Constraint{
				{Name: "pick_one", Terms: []Term{{1, 1}, {2, 1}}, Relation: Equal, Bound: 1},
				{Name: "first_off", Terms: []Term{{1, 1}}, Relation: LessOrEqual, Bound: 0},
				{Name: "second_off", Terms: []Term{{2, 1}}, Relation: LessOrEqual, Bound: 0},
			},
			Objective: []Term{{1, 1}, {2, 1}},
		}

		//** Act
		solution, err := solver.Solve(program)

		//** Assert
		assert.Nil(t, err)
		assert.Nil(t, solution)
	})

	t.Run("Maximization", func(t *testing.T) {
		//** Arrange
		program := Program{
			Variables: 3,
			Constraints: []Constraint{
				{Terms: []Term{{1, 1}, {2, 1}, {3, 1}}, Relation: LessOrEqual, Bound: 2},
			},
			Objective: []Term{{1, 5}, {2, 3}, {3, 4}},
			Sense:     Maximize,
		}

		//** Act
		solution, err := solver.Solve(program)

		//** Assert
		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.Equal(t, 9.0, solution.Objective)
		assert.Equal(t, 1.0, solution.Value(1))
		assert.Equal(t, 0.0, solution.Value(2))
		assert.Equal(t, 1.0, solution.Value(3))
		assert.True(t, solution.Optimal)
	})

	t.Run("Equality rows", func(t *testing.T) {
		//** Arrange
		program := Program{
			Variables: 4,
			Constraints: []Constraint{
				{Name: "first_pick", Terms: []Term{{1, 1}, {2, 1}}, Relation: Equal, Bound: 1},
				{Name: "second_pick", Terms: []Term{{3, 1}, {4, 1}}, Relation: Equal, Bound: 1},
			},
			Objective: []Term{{1, 2}, {2, 3}, {3, 1}, {4, 1}},
		}

		//** Act
		solution, err := solver.Solve(program)

		//** Assert
		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.Equal(t, 3.0, solution.Objective)
		assert.Equal(t, 1.0, solution.Value(1))
		assert.Equal(t, 0.0, solution.Value(2))
		assert.Equal(t, 1.0, solution.Value(3)+solution.Value(4))
		assert.True(t, program.Satisfied(solution.Values))
	})

	t.Run("Equality rows without a feasible assignment", func(t *testing.T) {
		//** Arrange
		// Three picks, each needing exactly one of two variables, with room for only two of them
		program := Program{
			Variables: 6,
			Constraints: []Constraint{
				{Terms: []Term{{1, 1}, {2, 1}}, Relation: Equal, Bound: 1},
				{Terms: []Term{{3, 1}, {4, 1}}, Relation: Equal, Bound: 1},
				{Terms: []Term{{5, 1}, {6, 1}}, Relation: Equal, Bound: 1},
				{Terms: []Term{{1, 1}, {2, 1}, {3, 1}, {4, 1}, {5, 1}, {6, 1}}, Relation: LessOrEqual, Bound: 2},
			},
		}

		//** Act
		solution, err := solver.Solve(program)

		//** Assert
		assert.Nil(t, err)
		assert.Nil(t, solution)
	})

	t.Run("Fractional coefficients are rejected", func(t *testing.T) {
		program := Program{
			Variables: 1,
			Objective: []Term{{1, 0.5}},
		}

		_, err := solver.Solve(program)

		assert.NotNil(t, err)
	})

	t.Run("Constraint without terms", func(t *testing.T) {
		program := Program{
			Variables:   1,
			Constraints: []Constraint{{Name: "empty", Relation: Equal, Bound: 1}},
		}

		solution, err := solver.Solve(program)

		assert.Nil(t, err)
		assert.Nil(t, solution)
	})
}

func TestOptimizeTimeLimit(t *testing.T) {
	sat := func(weight int) solver.Result {
		return solver.Result{Status: solver.Sat, Model: []bool{true, false}, Weight: weight}
	}

	t.Run("Finishes before the limit", func(t *testing.T) {
		//** Arrange
		run := func(results chan solver.Result) solver.Result {
			results <- sat(5)
			close(results)
			return sat(2)
		}

		//** Act
		result, optimal, err := optimize(run, time.Minute)

		//** Assert
		require.Nil(t, err)
		assert.True(t, optimal)
		assert.Equal(t, 2, result.Weight)
	})

	t.Run("Returns the best model found when the limit is reached", func(t *testing.T) {
		//** Arrange
		release := make(chan struct{})
		defer close(release)
		run := func(results chan solver.Result) solver.Result {
			results <- sat(7)
			results <- sat(4)
			<-release
			close(results)
			return sat(1)
		}

		//** Act
		start := time.Now()
		result, optimal, err := optimize(run, 50*time.Millisecond)

		//** Assert
		require.Nil(t, err)
		assert.False(t, optimal)
		assert.Equal(t, 4, result.Weight)
		assert.Equal(t, []bool{true, false}, result.Model)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("Fails when nothing was found before the limit", func(t *testing.T) {
		//** Arrange
		release := make(chan struct{})
		defer close(release)
		run := func(results chan solver.Result) solver.Result {
			<-release
			close(results)
			return solver.Result{Status: solver.Unsat}
		}

		//** Act
		_, _, err := optimize(run, 50*time.Millisecond)

		//** Assert
		assert.NotNil(t, err)
	})

	t.Run("No limit waits for the optimizer", func(t *testing.T) {
		//** Arrange
		run := func(results chan solver.Result) solver.Result {
			time.Sleep(20 * time.Millisecond)
			close(results)
			return solver.Result{Status: solver.Unsat}
		}

		//** Act
		result, optimal, err := optimize(run, 0)

		//** Assert
		require.Nil(t, err)
		assert.True(t, optimal)
		assert.Equal(t, solver.Unsat, result.Status)
	})
}

func TestBinding(t *testing.T) {
	model := []bool{false, true}

	assert.False(t, binding(model, 1))
	assert.True(t, binding(model, 2))
	assert.False(t, binding(model, 3))
}

func TestToLP(t *testing.T) {
	//** Arrange
	program := Program{
		Variables: 3,
		Constraints: []Constraint{
			{Name: "one", Terms: []Term{{1, 1}, {2, 1}}, Relation: Equal, Bound: 1},
			{Terms: []Term{{3, 1}}, Relation: LessOrEqual, Bound: 0},
		},
		Objective: []Term{{1, 0}, {2, 4}, {3, -1}},
	}

	//** Act
	lp := program.ToLP()

	//** Assert
	assert.Contains(t, lp, "Minimize\n obj: + 0 x1 + 4 x2 - 1 x3\n")
	assert.Contains(t, lp, " one: + 1 x1 + 1 x2 = 1\n")
	assert.Contains(t, lp, " c2: + 1 x3 <= 0\n")
	assert.Contains(t, lp, "Binaries\n x1 x2 x3\n")
	assert.True(t, strings.HasSuffix(lp, "End\n"))
}

func TestCbcParseSolution(t *testing.T) {
	solver := &cbcSolver{}
	program := Program{Variables: 4}

	t.Run("Optimal", func(t *testing.T) {
		output := "Optimal - objective value 3.00000000\n" +
			"      0 x1                      1                       0\n" +
			"      3 x4                      1                       3\n"

		solution, err := solver.parseSolution(output, program)

		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.True(t, solution.Optimal)
		assert.Equal(t, 3.0, solution.Objective)
		assert.Equal(t, map[uint64]float64{1: 1, 2: 0, 3: 0, 4: 1}, solution.Values)
	})

	t.Run("Stopped on time", func(t *testing.T) {
		output := "Stopped on time - objective value 7.00000000\n" +
			"**    1 x2                      0.99999999              2\n"

		solution, err := solver.parseSolution(output, program)

		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.False(t, solution.Optimal)
		assert.InDelta(t, 1.0, solution.Value(2), 1e-6)
	})

	t.Run("Infeasible", func(t *testing.T) {
		solution, err := solver.parseSolution("Infeasible - objective value 0.00000000\n", program)

		assert.Nil(t, err)
		assert.Nil(t, solution)
	})

	t.Run("Unknown column", func(t *testing.T) {
		_, err := solver.parseSolution("Optimal - objective value 0\n      0 y1    1     0\n", program)

		assert.NotNil(t, err)
	})
}

func TestHighsParseSolution(t *testing.T) {
	solver := &highsSolver{}
	program := Program{Variables: 2}

	t.Run("Optimal", func(t *testing.T) {
		output := "Model status\nOptimal\n\n# Primal solution values\nFeasible\nObjective 2\n# Columns 2\nx1 1\nx2 0\n# Rows 1\nc1 1\n"

		solution, err := solver.parseSolution(output, program)

		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.True(t, solution.Optimal)
		assert.Equal(t, 2.0, solution.Objective)
		assert.Equal(t, 1.0, solution.Value(1))
		assert.Equal(t, 0.0, solution.Value(2))
	})

	t.Run("Time limit with incumbent", func(t *testing.T) {
		output := "Model status\nTime limit reached\n\n# Primal solution values\nFeasible\nObjective 4\n# Columns 2\nx1 0\nx2 1\n"

		solution, err := solver.parseSolution(output, program)

		require.Nil(t, err)
		require.NotNil(t, solution)
		assert.False(t, solution.Optimal)
	})

	t.Run("Infeasible", func(t *testing.T) {
		solution, err := solver.parseSolution("Model status\nInfeasible\n\n# Primal solution values\nNone\n", program)

		assert.Nil(t, err)
		assert.Nil(t, solution)
	})
}

func TestGetExecutablePath(t *testing.T) {
	previous := ConfigPath
	defer func() { ConfigPath = previous }()

	t.Run("Missing config falls back", func(t *testing.T) {
		ConfigPath = path.Join(t.TempDir(), "config.json")

		executable, err := getExecutablePath("cbcPath", "cbc")

		assert.Nil(t, err)
		assert.Equal(t, "cbc", executable)
	})

	t.Run("Configured path", func(t *testing.T) {
		ConfigPath = path.Join(t.TempDir(), "config.json")
		require.Nil(t, os.WriteFile(ConfigPath, []byte(`{"cbcPath": "/opt/cbc/bin/cbc"}`), 0666))

		executable, err := getExecutablePath("cbcPath", "cbc")
		assert.Nil(t, err)
		assert.Equal(t, "/opt/cbc/bin/cbc", executable)

		executable, err = getExecutablePath("highsPath", "highs")
		assert.Nil(t, err)
		assert.Equal(t, "highs", executable)
	})
}

func optimalExecution(t *testing.T, solver Solver) {
	for range 10 {
		//** Arrange
		variables := uint64(rand.IntN(10) + 1)
		program := generateProgram(variables, rand.IntN(6)+1)

		//** Act
		solution, err := solver.Solve(program)

		//** Assert
		assert.Nil(t, err)
		optimum, feasible := bruteForce(program)
		if !feasible {
			assert.Nil(t, solution)
			continue
		}
		require.NotNil(t, solution)
		assert.True(t, program.Satisfied(solution.Values))
		assert.Equal(t, optimum, program.ObjectiveValue(solution.Values))
		assert.Equal(t, optimum, solution.Objective)
	}
}

func generateProgram(variables uint64, constraints int) Program {
	program := Program{
		Variables:   variables,
		Constraints: make([]Constraint, 0, constraints),
		Objective:   make([]Term, 0, variables),
	}

	for variable := uint64(1); variable <= variables; variable++ {
		program.Objective = append(program.Objective, Term{variable, float64(rand.IntN(9))})
	}

	relations := []Relation{LessOrEqual, Equal, GreaterOrEqual}
	for range constraints {
		terms := make([]Term, 0, variables)
		for variable := uint64(1); variable <= variables; variable++ {
			if rand.Float32() < 0.5 {
				terms = append(terms, Term{variable, 1})
			}
		}
		if len(terms) == 0 {
			terms = append(terms, Term{1 + rand.Uint64N(variables), 1})
		}
		program.Constraints = append(program.Constraints, Constraint{
			Terms:    terms,
			Relation: relations[rand.IntN(len(relations))],
			Bound:    float64(rand.IntN(len(terms) + 1)),
		})
	}

	return program
}

func bruteForce(program Program) (optimum float64, feasible bool) {
	optimum = math.Inf(1)
	values := make(map[uint64]float64, program.Variables)
	for mask := uint64(0); mask < 1<<program.Variables; mask++ {
		for variable := uint64(1); variable <= program.Variables; variable++ {
			values[variable] = float64((mask >> (variable - 1)) & 1)
		}
		if program.Satisfied(values) {
			feasible = true
			optimum = math.Min(optimum, program.ObjectiveValue(values))
		}
	}
	return optimum, feasible
}
