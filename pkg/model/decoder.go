package model

import (
	"github.com/limaJavier/flexday/pkg/milp"
	"github.com/samber/lo"
)

const (
	// A variable is assigned if and only if its solved value is greater than the threshold
	AssignmentThreshold = 0.5
	// Fills the cells of rotation tables whose session has fewer students than the rotation's largest one
	AbsentMarker = ""
)

// Schedule is the enrollment decoded from a solved assignment cube. It's never mutated after decoding
type Schedule struct {
	Students   []string
	Sessions   []string
	Enrolments [][][]uint64 // Enrolments[rotation][session] holds student indices in ascending order
	Realized   [][]int64    // Realized[student] holds the ranking of the session attended in each rotation
	Cost       int64        // Objective value of the schedule
}

type SelfCheckEntry struct {
	Student  string
	Rankings []int64
}

func decode(solution *milp.Solution, indexer indexer, table RankingTable, rotations uint64, weights [][]int64) (Schedule, error) {
	totalStudents, totalSessions := table.Dimensions()

	//** Initialize (rotation, session) arena, every cell exists even if it ends up empty
	enrolments := make([][][]uint64, rotations)
	for rotation := range rotations {
		enrolments[rotation] = make([][]uint64, totalSessions)
		for session := range totalSessions {
			enrolments[rotation][session] = make([]uint64, 0)
		}
	}
	realized := make([][]int64, totalStudents)
	assignments := make([][]int, totalStudents)
	for student := range totalStudents {
		realized[student] = make([]int64, 0, rotations)
		assignments[student] = make([]int, rotations)
	}

	//** Scan assignment variables
	// Indices grow with rotation, then session, then student, so every roster ends up sorted by student index
	var cost int64
	for index := uint64(1); index <= indexer.Variables(); index++ {
		if solution.Value(index) <= AssignmentThreshold {
			continue
		}
		student, session, rotation := indexer.Attributes(index)
		enrolments[rotation][session] = append(enrolments[rotation][session], student)
		realized[student] = append(realized[student], table.Ranking(student, session))
		assignments[student][rotation]++
		cost += weights[student][session]
	}

	//** Make sure every student attends exactly one session per rotation
	for student := range totalStudents {
		for rotation := range rotations {
			if count := assignments[student][rotation]; count != 1 {
				return Schedule{}, ScheduleInconsistency{
					Student:     table.Students[student],
					Rotation:    rotation,
					Assignments: count,
				}
			}
		}
	}

	return Schedule{
		Students:   table.Students,
		Sessions:   table.Sessions,
		Enrolments: enrolments,
		Realized:   realized,
		Cost:       cost,
	}, nil
}

func (schedule Schedule) Rotations() uint64 {
	return uint64(len(schedule.Enrolments))
}

// Identifiers of the students attending the session during the rotation
func (schedule Schedule) Roster(rotation, session uint64) []string {
	return lo.Map(schedule.Enrolments[rotation][session], func(student uint64, _ int) string { return schedule.Students[student] })
}

// Rectangular table of the rotation: the header holds session names and each column lists the session's students
// followed by absent markers. Padding only depends on the rotation's own largest session
func (schedule Schedule) RotationTable(rotation uint64) [][]string {
	columns := schedule.Enrolments[rotation]
	rows := lo.Max(lo.Map(columns, func(students []uint64, _ int) int { return len(students) }))

	table := make([][]string, 0, rows+1)
	table = append(table, append([]string(nil), schedule.Sessions...))
	for row := range rows {
		record := make([]string, len(columns))
		for session, students := range columns {
			if row < len(students) {
				record[session] = schedule.Students[students[row]]
			} else {
				record[session] = AbsentMarker
			}
		}
		table = append(table, record)
	}

	return table
}

// Ranking realized by every assignment of each student, in rotation order
func (schedule Schedule) SelfCheck() []SelfCheckEntry {
	return lo.Map(schedule.Realized, func(rankings []int64, student int) SelfCheckEntry {
		return SelfCheckEntry{
			Student:  schedule.Students[student],
			Rankings: append([]int64(nil), rankings...),
		}
	})
}
