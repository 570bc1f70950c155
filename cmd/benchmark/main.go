package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	executablePath = "../../bin/flexday"
	timeLimit      = "120s"

	// gophersat's search grows too fast beyond this, larger instances are left to cbc and highs
	maxGophersatStudents = 4
)

type ShapingType int

const (
	linear ShapingType = iota
	quadratic
)

type SolverType int

const (
	gophersat SolverType = iota
	cbc
	highs
)

type ResultType int

const (
	solved ResultType = iota
	infeasible
)

var (
	shapingTypes = map[ShapingType]string{
		linear:    "linear",
		quadratic: "quadratic",
	}
	solverTypes = map[SolverType]string{
		gophersat: "gophersat",
		cbc:       "cbc",
		highs:     "highs",
	}
	resultTypes = map[ResultType]string{
		solved:     "solved",
		infeasible: "infeasible",
	}
)

type TestMetadata struct {
	Name      string
	Students  int
	Sessions  int
	Rotations int
	Capacity  int
}

type BenchmarkResult struct {
	Solver        SolverType
	Shaping       ShapingType
	Test          TestMetadata
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
	Cost          string
}

func main() {
	directory, err := os.MkdirTemp("", "flexday-benchmark-")
	if err != nil {
		log.Fatalf("cannot create instance directory: %v", err)
	}
	defer os.RemoveAll(directory)

	tests := getTests(directory)
	shapings := getShapings()
	solvers := getSolvers()
	results := make([]BenchmarkResult, 0, len(tests)*len(shapings)*len(solvers))

	for _, test := range tests {
		for _, shaping := range shapings {
			for _, solver := range solvers {
				if !suitable(solver, test) {
					continue
				}
				fmt.Printf("Benchmarking test \"%v\" with shaping \"%v\" and solver \"%v\"\n", test.Name, shapingTypes[shaping], solverTypes[solver])

				duration, maxMemory, cpuPercentage, result, cost := measure(shaping, solver, test)

				results = append(results, BenchmarkResult{
					Solver:        solver,
					Shaping:       shaping,
					Test:          test,
					Duration:      duration,
					Memory:        maxMemory,
					CpuPercentage: cpuPercentage,
					Result:        result,
					Cost:          cost,
				})
			}
		}
	}

	toCsv(results)
}

// Instances grow in students while keeping the original event's shape: a handful of sessions, three rotations
// and just enough seats
func getTests(directory string) []TestMetadata {
	shapes := [][4]int{
		// students, sessions, rotations, capacity
		{4, 4, 3, 2},
		{20, 4, 3, 6},
		{60, 6, 3, 12},
		{120, 8, 3, 16},
		{200, 10, 3, 20},
		{400, 12, 3, 40},
	}

	return lo.Map(shapes, func(shape [4]int, i int) TestMetadata {
		test := TestMetadata{
			Name:      filepath.Join(directory, fmt.Sprintf("rankings_%d.csv", i)),
			Students:  shape[0],
			Sessions:  shape[1],
			Rotations: shape[2],
			Capacity:  shape[3],
		}

		file, err := os.Create(test.Name)
		if err != nil {
			log.Fatalf("cannot create instance file: %v", err)
		}
		defer file.Close()

		if err := writeRankings(csv.NewWriter(file), generateRankings(test.Students, test.Sessions)); err != nil {
			log.Fatalf("cannot write instance file: %v", err)
		}
		return test
	})
}

// Every student ranks the sessions with a random permutation of 1..sessions
func generateRankings(students, sessions int) [][]int {
	return lo.Times(students, func(_ int) []int {
		return lo.Map(rand.Perm(sessions), func(ranking int, _ int) int { return ranking + 1 })
	})
}

func writeRankings(writer *csv.Writer, rankings [][]int) error {
	sessions := 0
	if len(rankings) > 0 {
		sessions = len(rankings[0])
	}

	header := append([]string{"id"}, lo.Times(sessions, func(session int) string { return fmt.Sprintf("session_%d", session) })...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for student, row := range rankings {
		record := append([]string{fmt.Sprintf("student_%d", student)}, lo.Map(row, func(ranking int, _ int) string { return strconv.Itoa(ranking) })...)
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func suitable(solver SolverType, test TestMetadata) bool {
	return solver != gophersat || test.Students <= maxGophersatStudents
}

func getSolvers() []SolverType {
	return []SolverType{gophersat, cbc, highs}
}

func getShapings() []ShapingType {
	return []ShapingType{linear, quadratic}
}

func measure(shaping ShapingType, solver SolverType, test TestMetadata) (duration int64, maxMemory float32, cpuPercentage int64, result ResultType, cost string) {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath,
		"-shaping", shapingTypes[shaping],
		"-solver", solverTypes[solver],
		"-file", test.Name,
		"-rotations", strconv.Itoa(test.Rotations),
		"-capacity", strconv.Itoa(test.Capacity),
		"-time-limit", timeLimit,
		"-out", filepath.Join(filepath.Dir(test.Name), "out"),
	)

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	cmd.Run()
	if cmd.ProcessState.ExitCode() != 10 && cmd.ProcessState.ExitCode() != 20 {
		log.Fatalf("an error occurred during the execution \"flexday\" at test \"%v\" using shaping \"%v\" and solver \"%v\": %v\n", test.Name, shapingTypes[shaping], solverTypes[solver], stdErr.String())
	} else if cmd.ProcessState.ExitCode() == 20 {
		result = infeasible
	} else {
		result = solved
		cost = parseCost(stdOut.String())
	}
	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return duration, maxMemory, cpuPercentage, result, cost
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create("benchmark_results.csv")
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Solver", "Shaping", "Students", "Sessions", "Rotations", "Capacity", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result", "Cost"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			solverTypes[result.Solver],
			shapingTypes[result.Shaping],
			fmt.Sprintf("%d", result.Test.Students),
			fmt.Sprintf("%d", result.Test.Sessions),
			fmt.Sprintf("%d", result.Test.Rotations),
			fmt.Sprintf("%d", result.Test.Capacity),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
			result.Cost,
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}

// Extracts the value of the "Cost:" line printed by the command line tool
func parseCost(output string) string {
	line, ok := lo.Find(strings.Split(output, "\n"), func(line string) bool { return strings.HasPrefix(line, "Cost:") })
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "Cost:"))
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / 1024
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
