package model

import (
	"fmt"
	"slices"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// Checks the schedule against the ranking table and every rule of the policy
func verify(schedule Schedule, table RankingTable, policy SchedulingPolicy) bool {
	totalStudents, totalSessions := table.Dimensions()
	if schedule.Rotations() != policy.Rotations || uint64(len(schedule.Realized)) != totalStudents {
		return false
	}

	evaluator := newSlotEvaluator(policy, totalSessions)

	//** Initialize student-attendance
	attendedRotations := make([][]int, totalStudents) // Sessions attended by each student per rotation
	attendedSessions := make([][]bool, totalStudents) // Whether each student already attended each session
	for student := range totalStudents {
		attendedRotations[student] = make([]int, policy.Rotations)
		attendedSessions[student] = make([]bool, totalSessions)
	}

	realized := make([][]int64, totalStudents)
	for rotation, sessions := range schedule.Enrolments {
		if uint64(len(sessions)) != totalSessions {
			return false
		}

		for session, students := range sessions {
			// Check that:
			// - The session is available during the rotation
			// - The session's capacity is not exceeded
			// - Students are listed in ascending order
			if len(students) > 0 && !evaluator.Available(uint64(session), uint64(rotation)) ||
				uint64(len(students)) > evaluator.Capacity(uint64(session), uint64(rotation)) ||
				!isStrictlyIncreasing(students) {
				return false
			}

			for _, student := range students {
				// Check that student exists and does not attend the same session twice
				if student >= totalStudents || attendedSessions[student][session] {
					return false
				}
				attendedSessions[student][session] = true // Store session attendance
				attendedRotations[student][rotation]++    // Store rotation attendance
				realized[student] = append(realized[student], table.Ranking(student, uint64(session)))
			}
		}
	}

	// Check whether every student attends exactly one session per rotation and whether the realized rankings match
	for student := range totalStudents {
		if lo.SomeBy(attendedRotations[student], func(count int) bool { return count != 1 }) ||
			!slices.Equal(realized[student], schedule.Realized[student]) {
			return false
		}
	}

	return true
}

func isStrictlyIncreasing(values []uint64) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] >= values[i] {
			return false
		}
	}
	return true
}

// Explains, when possible, why the policy admits no schedule. It's only meant to enrich infeasibility errors
func diagnoseInfeasibility(table RankingTable, policy SchedulingPolicy) []string {
	totalStudents, totalSessions := table.Dimensions()
	evaluator := newSlotEvaluator(policy, totalSessions)
	reasons := make([]string, 0)

	//** Seats per rotation
	for rotation := range policy.Rotations {
		seats := lo.SumBy(lo.Range(int(totalSessions)), func(session int) uint64 {
			return evaluator.Capacity(uint64(session), rotation)
		})
		if seats < totalStudents {
			reasons = append(reasons, fmt.Sprintf("rotation %d offers %d seats for %d students", rotation, seats, totalStudents))
		}
	}

	//** Distinct sessions across rotations
	// Every student attends a different session in each rotation, so rotations must be matched to distinct open sessions
	open := func(rotationAny any, sessionAny any) (bool, error) {
		rotation, session := rotationAny.(uint64), sessionAny.(uint64)
		return evaluator.Capacity(session, rotation) > 0, nil
	}

	rotationsAny := lo.Map(lo.Range(int(policy.Rotations)), func(rotation int, _ int) any { return uint64(rotation) })
	sessionsAny := lo.Map(lo.Range(int(totalSessions)), func(session int, _ int) any { return uint64(session) })

	graph, err := bipartitegraph.NewBipartiteGraph(rotationsAny, sessionsAny, open)
	if err == nil {
		if matching := graph.LargestMatching(); uint64(len(matching)) < policy.Rotations {
			reasons = append(reasons, fmt.Sprintf("every student needs %d distinct sessions across rotations but open sessions only cover %d rotations", policy.Rotations, len(matching)))
		}
	}

	return reasons
}
