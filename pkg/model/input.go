package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// RankingTable holds the rankings submitted by every student (rows) for every session (columns).
// Lower rankings are preferred. Tables are built once and never mutated afterwards
type RankingTable struct {
	Students []string // External identifiers taken from the first input column
	Sessions []string // Session names taken from the header
	Rankings [][]int64
}

func NewRankingTable(students, sessions []string, rankings [][]int64) (RankingTable, error) {
	if len(students) == 0 {
		return RankingTable{}, configurationError("ranking table has no students")
	} else if len(sessions) == 0 {
		return RankingTable{}, configurationError("ranking table has no sessions")
	} else if len(rankings) != len(students) {
		return RankingTable{}, configurationError("ranking table has %d rows for %d students", len(rankings), len(students))
	}

	// Make sure the table is rectangular
	if row, ok := lo.Find(lo.Range(len(rankings)), func(row int) bool { return len(rankings[row]) != len(sessions) }); ok {
		return RankingTable{}, configurationError("ranking table is not rectangular: student %q has %d rankings for %d sessions", students[row], len(rankings[row]), len(sessions))
	}

	// Copy everything so the table cannot be mutated through the caller's slices
	return RankingTable{
		Students: append([]string(nil), students...),
		Sessions: append([]string(nil), sessions...),
		Rankings: lo.Map(rankings, func(row []int64, _ int) []int64 { return append([]int64(nil), row...) }),
	}, nil
}

func (table RankingTable) Dimensions() (students, sessions uint64) {
	return uint64(len(table.Students)), uint64(len(table.Sessions))
}

func (table RankingTable) Ranking(student, session uint64) int64 {
	return table.Rankings[student][session]
}

func RankingTableFromCsv(file string) (RankingTable, error) {
	reader, err := os.Open(file)
	if err != nil {
		return RankingTable{}, err
	}
	defer reader.Close()

	return ReadRankingTable(reader)
}

// Reads a table whose first column holds student identifiers and whose remaining columns hold the rankings
// of the sessions named by the header
func ReadRankingTable(reader io.Reader) (RankingTable, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1 // Row lengths are validated below
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return RankingTable{}, fmt.Errorf("cannot parse ranking table: %w", err)
	} else if len(records) == 0 {
		return RankingTable{}, configurationError("ranking table is empty")
	}

	header := records[0]
	if len(header) < 2 {
		return RankingTable{}, configurationError("ranking table must have an identifier column and at least one session column")
	}
	sessions := lo.Map(header[1:], func(name string, _ int) string { return strings.TrimSpace(name) })

	students := make([]string, 0, len(records)-1)
	rankings := make([][]int64, 0, len(records)-1)
	for line, record := range records[1:] {
		if len(record) != len(header) {
			return RankingTable{}, configurationError("ranking table is not rectangular: line %d has %d cells, expected %d", line+2, len(record), len(header))
		}

		row := make([]int64, 0, len(sessions))
		for column, cell := range record[1:] {
			ranking, err := parseRanking(cell)
			if err != nil {
				return RankingTable{}, configurationError("line %d, session %q: %v", line+2, sessions[column], err)
			}
			row = append(row, ranking)
		}

		students = append(students, strings.TrimSpace(record[0]))
		rankings = append(rankings, row)
	}

	return NewRankingTable(students, sessions, rankings)
}

func parseRanking(cell string) (int64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, fmt.Errorf("missing ranking")
	}
	if ranking, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return ranking, nil
	}

	// Spreadsheet exports may write integers as "2.0"
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.Trunc(value) != value {
		return 0, fmt.Errorf("ranking %q is not an integer", cell)
	}
	return int64(value), nil
}
