package utils

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed words.csv
var defaultWords string

// DefaultWords is the built-in suggestion list.
func DefaultWords() []string {
	words, err := parseWords(strings.NewReader(defaultWords))
	if err != nil {
		log.Error().Err(err).Msg("embedded word list is invalid")
		return nil
	}
	return words
}

// ReadWordList loads secret-word suggestions from a CSV file whose first
// column is the word. Extra columns and blank rows are ignored.
func ReadWordList(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read word list %s: %w", filePath, err)
	}
	defer f.Close()

	words, err := parseWords(f)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s as CSV: %w", filePath, err)
	}
	return words, nil
}

func parseWords(r io.Reader) ([]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvReader.Comment = '#'

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, len(records))
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		word := strings.TrimSpace(record[0])
		if word == "" {
			log.Debug().Strs("record", record).Msg("skipping empty record")
			continue
		}
		words = append(words, word)
	}
	return words, nil
}
