package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/limaJavier/flexday/pkg/export"
	"github.com/limaJavier/flexday/pkg/milp"
	"github.com/limaJavier/flexday/pkg/model"
	"github.com/samber/lo"
)

var (
	validSolvers = []string{"gophersat", "cbc", "highs"}
	solvers      = map[string]func(time.Duration) milp.Solver{
		"gophersat": milp.NewGophersatSolver,
		"cbc":       milp.NewCbcSolver,
		"highs":     milp.NewHighsSolver,
	}
)

func main() {
	setConfigPath()
	// Define arguments
	solverPtr := flag.String("solver", "highs", "Solver to use. Allowed values are: \"highs\" and \"cbc\" (external executables) and \"gophersat\" (in-process, only suitable for a handful of students), where \"highs\" is the default")
	filePathPtr := flag.String("file", "", "Path to the rankings CSV file: first column holds student identifiers, the header names the sessions")
	policyPathPtr := flag.String("policy", "", "Path to a YAML scheduling policy; flags given explicitly override its values")
	capacityPtr := flag.Uint64("capacity", model.DefaultCapacity, "Maximum number of students per session and rotation")
	rotationsPtr := flag.Uint64("rotations", model.DefaultRotations, "Number of rotations")
	shapingPtr := flag.String("shaping", "linear", "Objective shaping. Allowed values are: \"linear\" and \"quadratic\", where \"linear\" is the default")
	rankBasePtr := flag.Int64("rank-base", model.DefaultRankBase, "Ranking that costs nothing (the most preferred one)")
	closingSlotPtr := flag.Bool("closing-slot", false, "Exclude the last session from the last rotation")
	timeLimitPtr := flag.Duration("time-limit", 0, "Time limit handed to the solver (e.g. 30s), where 0 means no limit")
	outDirPtr := flag.String("out", "", "Directory where the rotation tables will be written; if empty, they'll be written into the Standard Output")
	selfCheckPtr := flag.Bool("self-check", false, "Also write the ranking realized by every assignment")
	lpPathPtr := flag.String("lp", "", "Path where the built program will be written in LP format")
	flag.Parse()
	solverStr := strings.ToLower(*solverPtr)
	filePath := *filePathPtr
	outDir := *outDirPtr

	// Validate arguments
	if !slices.Contains(validSolvers, solverStr) {
		log.Fatalf("%v is not a valid solver", solverStr)
	} else if filePath == "" {
		log.Fatal("an input file must be specified")
	} else if *timeLimitPtr < 0 {
		log.Fatalf("time-limit must not be negative: %v", *timeLimitPtr)
	}

	// Extract input
	table, err := model.RankingTableFromCsv(filePath)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	var rawPolicy model.RawPolicy
	if *policyPathPtr != "" {
		if rawPolicy, err = model.RawPolicyFromYaml(*policyPathPtr); err != nil {
			log.Fatalf("cannot parse policy file: %v", err)
		}
	}

	// Explicit flags take precedence over the policy file, presets and validation come afterwards
	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	overrides := model.PolicyOverrides{ClosingSlot: *closingSlotPtr}
	if explicit["capacity"] {
		overrides.Capacity = capacityPtr
	}
	if explicit["rotations"] {
		overrides.Rotations = rotationsPtr
	}
	if explicit["rank-base"] {
		overrides.RankBase = rankBasePtr
	}
	if explicit["shaping"] {
		overrides.Shaping = shapingPtr
	}

	policy, err := model.ProcessRawPolicy(rawPolicy.WithOverrides(overrides), table.Sessions)
	if err != nil {
		log.Fatal(err)
	}

	// Export program when requested
	if *lpPathPtr != "" {
		built, err := model.BuildModel(table, policy)
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*lpPathPtr, []byte(built.Program.ToLP()), 0666); err != nil {
			log.Fatalf("an error occurred while writing the LP file: %v", err)
		}
	}

	// Initialize engines
	solver := solvers[solverStr](*timeLimitPtr)
	assigner := model.NewAssigner(solver)

	// Build schedule
	schedule, variables, constraints, err := assigner.Build(table, policy)

	var infeasible model.InfeasibleModelError
	if errors.As(err, &infeasible) {
		fmt.Println(infeasible.Error())
		fmt.Printf("Variables: %v\n", variables)
		fmt.Printf("Constraints: %v\n", constraints)
		os.Exit(20)
	} else if err != nil {
		log.Fatalf("an error occurred during schedule construction: %v", err)
	}

	// Verify schedule correctness
	if !assigner.Verify(schedule, table, policy) {
		fmt.Printf("Variables: %v\n", variables)
		fmt.Printf("Constraints: %v\n", constraints)
		os.Exit(15)
	}

	// Verify out directory is empty, if so then write the results to the Standard Output
	if outDir == "" {
		var buffer bytes.Buffer
		for rotation := range schedule.Rotations() {
			fmt.Fprintf(&buffer, "# %v\n", export.RotationFileName(rotation))
			if err := export.WriteRotationTable(&buffer, schedule, rotation); err != nil {
				log.Fatalf("an error occurred while building the output: %v", err)
			}
		}
		if *selfCheckPtr {
			fmt.Fprintf(&buffer, "# %v\n", export.SelfCheckFileName)
			if err := export.WriteSelfCheck(&buffer, schedule); err != nil {
				log.Fatalf("an error occurred while building the output: %v", err)
			}
		}
		fmt.Print(buffer.String())
	} else {
		if _, err := export.WriteSchedule(outDir, schedule, *selfCheckPtr); err != nil {
			log.Fatalf("an error occurred while writing the output files: %v", err)
		}
	}

	fmt.Printf("Cost: %v\n", schedule.Cost)
	fmt.Printf("Variables: %v\n", variables)
	fmt.Printf("Constraints: %v\n", constraints)
	os.Exit(10)
}

// Points solver adapters to the config.json next to the executable, if any. Adapters fall back to the
// executables found in PATH otherwise
func setConfigPath() {
	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("cannot determine executable path: %v", err)
	}
	execPath = path.Dir(execPath)

	files, err := os.ReadDir(execPath)
	if err != nil {
		log.Fatalf("cannot read executable's directory: %v", err)
	}
	fileNames := lo.Map(files, func(file os.DirEntry, _ int) string { return file.Name() })

	if slices.Contains(fileNames, "config.json") {
		milp.ConfigPath = execPath + "/config.json"
	}
}
