package milp

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
)

var ConfigPath = "../../config.json"

func getExecutablePath(solver string, fallback string) (string, error) {
	bytes, err := os.ReadFile(ConfigPath)
	if os.IsNotExist(err) {
		return fallback, nil // Rely on PATH when there is no config
	} else if err != nil {
		return "", fmt.Errorf("cannot read config.json file: %w", err)
	}

	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return "", fmt.Errorf("cannot parse config.json file: %w", err)
	}

	var config map[string]string
	if err := mapstructure.Decode(inputJson, &config); err != nil {
		return "", fmt.Errorf("invalid config.json file: %w", err)
	}

	path, ok := config[solver]
	if !ok {
		return fallback, nil
	}
	return path, nil
}

// Writes the program in LP format into a temporary file and returns its name
func writeProgramFile(program Program) (string, error) {
	lpFile, err := os.CreateTemp("./", "program-*.lp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := lpFile.WriteString(program.ToLP()); err != nil {
		lpFile.Close()
		os.Remove(lpFile.Name())
		return "", fmt.Errorf("failed to write program to temporary file: %w", err)
	}
	if err := lpFile.Close(); err != nil {
		os.Remove(lpFile.Name())
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}
	return lpFile.Name(), nil
}

// Reserves a temporary file name for the solver's output
func reserveOutputFile(pattern string) (string, error) {
	outputFile, err := os.CreateTemp("./", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	if err := outputFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}
	return outputFile.Name(), nil
}

// Maps LP column names back to variable indices
func columnsOf(program Program) map[string]uint64 {
	columns := make(map[string]uint64, program.Variables)
	for variable := uint64(1); variable <= program.Variables; variable++ {
		columns[ColumnName(variable)] = variable
	}
	return columns
}

// Completes the solution so every variable of the program has a value
func completeValues(program Program, values map[uint64]float64) map[uint64]float64 {
	for variable := uint64(1); variable <= program.Variables; variable++ {
		if _, ok := values[variable]; !ok {
			values[variable] = 0
		}
	}
	return values
}
