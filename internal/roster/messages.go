package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrMessageColumns = errors.New("messages file needs Rating and Message columns")

// LoadMessages reads the feedback messages file: a CSV with named columns
// Rating and Message, grouped by rating. Blank rows are skipped.
func LoadMessages(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("missing messages file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("messages %s: %w", path, err)
	}
	ratingCol, messageCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "rating":
			ratingCol = i
		case "message":
			messageCol = i
		}
	}
	if ratingCol < 0 || messageCol < 0 {
		return nil, ErrMessageColumns
	}

	messages := map[string][]string{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("messages %s: %w", path, err)
		}
		if len(row) <= ratingCol || len(row) <= messageCol {
			continue
		}
		rating := strings.TrimSpace(row[ratingCol])
		msg := strings.TrimSpace(row[messageCol])
		if rating == "" || msg == "" {
			continue
		}
		messages[rating] = append(messages[rating], msg)
	}

	return messages, nil
}
