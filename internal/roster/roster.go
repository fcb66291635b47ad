package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrNoSheets = errors.New("workbook has no sheets")

// Store is the immutable class -> students mapping loaded at startup.
// It is the source of truth for starting sessions; per-session pools are
// copied out of it and mutated elsewhere.
type Store struct {
	classes map[string][]string
}

// Load reads a roster file. CSV is the default; .xlsx workbooks are read
// from their first sheet with the same two-column contract.
func Load(path string) (*Store, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readExcelRows(path)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, err
	}

	return fromRows(rows), nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("missing roster file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("roster %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("missing roster file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return rows, nil
}

func fromRows(rows [][]string) *Store {
	classes := map[string][]string{}
	seen := map[string]map[string]bool{}

	first := true
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		if first {
			first = false
			if looksLikeHeader(row) {
				continue
			}
		}
		class := strings.TrimSpace(row[0])
		student := strings.TrimSpace(row[1])
		if class == "" || student == "" {
			continue
		}
		if seen[class] == nil {
			seen[class] = map[string]bool{}
		}
		if seen[class][student] {
			continue
		}
		seen[class][student] = true
		classes[class] = append(classes[class], student)
	}

	return &Store{classes: classes}
}

// looksLikeHeader sniffs an optional header row: skipped when the joined
// text mentions a class column and a student/name column.
func looksLikeHeader(row []string) bool {
	joined := strings.ToLower(strings.TrimSpace(strings.Join(row, ",")))
	return strings.Contains(joined, "class") &&
		(strings.Contains(joined, "student") || strings.Contains(joined, "name"))
}

// Classes returns class names in sorted order for stable display.
func (s *Store) Classes() []string {
	names := make([]string, 0, len(s.classes))
	for name := range s.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Students returns the loaded roster for class, in first-seen order.
func (s *Store) Students(class string) ([]string, bool) {
	students, ok := s.classes[class]
	if !ok {
		return nil, false
	}
	return append([]string(nil), students...), true
}
