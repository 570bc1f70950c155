package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/limaJavier/flexday/pkg/model"
	"github.com/samber/lo"
)

const SelfCheckFileName = "self_check.csv"

func RotationFileName(rotation uint64) string {
	return fmt.Sprintf("enrolments_for_rotation_%d.csv", rotation)
}

// Writes the rotation's table: one column per session holding its students, padded with absent markers
func WriteRotationTable(writer io.Writer, schedule model.Schedule, rotation uint64) error {
	if rotation >= schedule.Rotations() {
		return fmt.Errorf("rotation %d does not exist, the schedule has %d rotations", rotation, schedule.Rotations())
	}
	return writeRecords(writer, schedule.RotationTable(rotation))
}

// Writes one record per student with the ranking realized in each rotation
func WriteSelfCheck(writer io.Writer, schedule model.Schedule) error {
	header := append([]string{"student"}, lo.Map(lo.Range(int(schedule.Rotations())), func(rotation int, _ int) string {
		return "rotation_" + strconv.Itoa(rotation)
	})...)

	records := [][]string{header}
	for _, entry := range schedule.SelfCheck() {
		record := append([]string{entry.Student}, lo.Map(entry.Rankings, func(ranking int64, _ int) string {
			return strconv.FormatInt(ranking, 10)
		})...)
		records = append(records, record)
	}

	return writeRecords(writer, records)
}

// Writes every rotation table (and optionally the self-check) into the directory and returns the written files.
// Everything is rendered before the first file is created, so a rendering error leaves the directory untouched
func WriteSchedule(directory string, schedule model.Schedule, selfCheck bool) ([]string, error) {
	contents := make(map[string][]byte, schedule.Rotations()+1)
	files := make([]string, 0, schedule.Rotations()+1)

	for rotation := range schedule.Rotations() {
		var buffer bytes.Buffer
		if err := WriteRotationTable(&buffer, schedule, rotation); err != nil {
			return nil, err
		}
		file := filepath.Join(directory, RotationFileName(rotation))
		contents[file] = buffer.Bytes()
		files = append(files, file)
	}

	if selfCheck {
		var buffer bytes.Buffer
		if err := WriteSelfCheck(&buffer, schedule); err != nil {
			return nil, err
		}
		file := filepath.Join(directory, SelfCheckFileName)
		contents[file] = buffer.Bytes()
		files = append(files, file)
	}

	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}
	for _, file := range files {
		if err := os.WriteFile(file, contents[file], 0666); err != nil {
			return nil, fmt.Errorf("cannot write %v: %w", file, err)
		}
	}

	return files, nil
}

func writeRecords(writer io.Writer, records [][]string) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.WriteAll(records); err != nil {
		return fmt.Errorf("cannot write CSV records: %w", err)
	}
	return nil
}
