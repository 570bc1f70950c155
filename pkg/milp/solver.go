package milp

type Solution struct {
	Values    map[uint64]float64 // Value of every variable, keyed by variable index
	Objective float64
	Optimal   bool // False when the solver stopped early (e.g. time limit) and returned its best model
}

// Value of a variable, missing variables are reported as 0
func (s *Solution) Value(variable uint64) float64 {
	if s == nil {
		return 0
	}
	return s.Values[variable]
}

type Solver interface {
	Solve(Program) (*Solution, error) // Returns a solution of the program if feasible, else returns nil (these are valid outputs where error shall be nil)
}
