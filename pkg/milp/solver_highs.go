package milp

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

type highsSolver struct {
	timeLimit time.Duration
}

// HiGHS solver executed as an external process
func NewHighsSolver(timeLimit time.Duration) Solver {
	return &highsSolver{
		timeLimit: timeLimit,
	}
}

func (solver *highsSolver) Solve(program Program) (*Solution, error) {
	highsPath, err := getExecutablePath("highsPath", "highs")
	if err != nil {
		return nil, err
	}

	lpFile, err := writeProgramFile(program) // Transform program into LP format
	if err != nil {
		return nil, err
	}
	defer os.Remove(lpFile) // Ensure the file is removed after execution

	outputFile, err := reserveOutputFile("highs_output-*.sol")
	if err != nil {
		return nil, err
	}
	defer os.Remove(outputFile)

	cmd := exec.Command(highsPath, "--model_file", lpFile, "--solution_file", outputFile)
	if solver.timeLimit > 0 {
		cmd.Args = append(cmd.Args, "--time_limit", strconv.FormatFloat(solver.timeLimit.Seconds(), 'f', -1, 64))
	}

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("an error occurred during highs execution: %v : %v", err.Error(), stderr.String())
	}

	output, err := os.ReadFile(outputFile) // Read the output file
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	return solver.parseSolution(string(output), program)
}

// Solution files look like:
//
//	Model status
//	Optimal
//
//	# Primal solution values
//	Feasible
//	Objective 3
//	# Columns 2
//	x1 1
//	x2 0
//	# Rows 1
//	...
func (solver *highsSolver) parseSolution(solverOutput string, program Program) (*Solution, error) {
	lines := strings.Split(solverOutput, "\n")

	status, primalStatus := "", ""
	objective := 0.0
	columns := columnsOf(program)
	values := make(map[uint64]float64)

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "Model status" && i+1 < len(lines):
			i++
			status = strings.TrimSpace(lines[i])
		case line == "# Primal solution values" && i+1 < len(lines):
			i++
			primalStatus = strings.TrimSpace(lines[i])
		case strings.HasPrefix(line, "Objective "):
			value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "Objective ")), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid objective value in highs output: %w", err)
			}
			objective = value
		case strings.HasPrefix(line, "# Columns "):
			count, err := strconv.Atoi(strings.TrimPrefix(line, "# Columns "))
			if err != nil {
				return nil, fmt.Errorf("invalid column count in highs output: %w", err)
			}
			for range count {
				i++
				if i >= len(lines) {
					return nil, fmt.Errorf("truncated highs output")
				}
				fields := strings.Fields(lines[i])
				if len(fields) < 2 {
					return nil, fmt.Errorf("invalid column line in highs output: %v", lines[i])
				}
				variable, ok := columns[fields[0]]
				if !ok {
					return nil, fmt.Errorf("unknown column in highs output: %v", fields[0])
				}
				value, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("invalid value in highs output: %w", err)
				}
				values[variable] = value
			}
		}
	}

	lowerStatus := strings.ToLower(status)
	switch {
	case strings.Contains(lowerStatus, "infeasible"):
		return nil, nil
	case lowerStatus == "optimal":
		return &Solution{Values: completeValues(program, values), Objective: objective, Optimal: true}, nil
	case primalStatus == "Feasible":
		// Stopped early (time limit, iteration limit...) with an incumbent
		return &Solution{Values: completeValues(program, values), Objective: objective, Optimal: false}, nil
	}
	return nil, fmt.Errorf("unexpected highs status: %q", status)
}
