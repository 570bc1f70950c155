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

type cbcSolver struct {
	timeLimit time.Duration
}

// COIN-OR branch-and-cut solver executed as an external process
func NewCbcSolver(timeLimit time.Duration) Solver {
	return &cbcSolver{
		timeLimit: timeLimit,
	}
}

func (solver *cbcSolver) Solve(program Program) (*Solution, error) {
	cbcPath, err := getExecutablePath("cbcPath", "cbc")
	if err != nil {
		return nil, err
	}

	lpFile, err := writeProgramFile(program) // Transform program into LP format
	if err != nil {
		return nil, err
	}
	defer os.Remove(lpFile) // Ensure the file is removed after execution

	outputFile, err := reserveOutputFile("cbc_output-*.txt")
	if err != nil {
		return nil, err
	}
	defer os.Remove(outputFile)

	cmd := exec.Command(cbcPath, lpFile)
	if solver.timeLimit > 0 {
		cmd.Args = append(cmd.Args, "sec", strconv.FormatFloat(solver.timeLimit.Seconds(), 'f', -1, 64))
	}
	cmd.Args = append(cmd.Args, "solve", "solu", outputFile)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("an error occurred during cbc execution: %v : %v", err.Error(), stderr.String())
	}

	output, err := os.ReadFile(outputFile) // Read the output file
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	return solver.parseSolution(string(output), program)
}

// The first line holds the status and the objective value, the remaining lines hold the non-zero columns:
//
//	Optimal - objective value 3.00000000
//	      0 x1                      1                       0
func (solver *cbcSolver) parseSolution(solverOutput string, program Program) (*Solution, error) {
	lines := strings.Split(strings.TrimSpace(solverOutput), "\n")
	header := strings.ToLower(strings.TrimSpace(lines[0]))

	optimal := false
	switch {
	case strings.Contains(header, "infeasible"):
		return nil, nil
	case strings.HasPrefix(header, "optimal"):
		optimal = true
	case strings.HasPrefix(header, "stopped") && !strings.Contains(header, "no integer solution"):
		optimal = false
	default:
		return nil, fmt.Errorf("unexpected cbc status: %v", lines[0])
	}

	var objective float64
	if _, after, ok := strings.Cut(header, "objective value"); ok {
		value, err := strconv.ParseFloat(strings.TrimSpace(after), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid objective value in cbc output: %w", err)
		}
		objective = value
	}

	columns := columnsOf(program)
	values := make(map[uint64]float64)
	for _, line := range lines[1:] {
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "**"))
		if len(fields) < 3 {
			continue
		}
		variable, ok := columns[fields[1]]
		if !ok {
			return nil, fmt.Errorf("unknown column in cbc output: %v", fields[1])
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in cbc output: %w", err)
		}
		values[variable] = value
	}

	return &Solution{
		Values:    completeValues(program, values),
		Objective: objective,
		Optimal:   optimal,
	}, nil
}
