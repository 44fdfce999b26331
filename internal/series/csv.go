package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/hedgevol/internal/contracts"
)

// DateLayout is the canonical date format of CSV rows and cache keys
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, "2006/01/02", "02/01/2006"}

// ReadCSV parses `date,price` rows. A leading header row is skipped,
// blank lines are ignored, and extra columns are allowed.
func ReadCSV(r io.Reader) ([]contracts.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var out []contracts.Sample
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: expected date,price", line)
		}

		date, dateErr := parseDate(row[0])
		price, priceErr := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if dateErr != nil || priceErr != nil {
			// Skip header
			if len(out) == 0 && dateErr != nil && priceErr != nil {
				continue
			}
			return nil, fmt.Errorf("line %d: malformed row %q", line, strings.Join(row, ","))
		}

		out = append(out, contracts.Sample{Date: date, Price: price})
	}

	return out, nil
}

// LoadCSV reads a series from a CSV file. The series is named after the file.
func LoadCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	samples, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(name, samples)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
