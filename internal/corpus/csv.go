package corpus

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// LoadCSV reads a directory snapshot from a CSV file. Files ending in ".xz"
// are decompressed on the fly. The snapshot's size and BLAKE3 fingerprint are
// recorded for Stats.
func LoadCSV(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot %s: %w", path, err)
	}

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(strings.ToLower(path), ".xz") {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open xz stream %s: %w", path, err)
		}
		r = xr
	}

	records, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	digest, err := Fingerprint(path)
	if err != nil {
		return nil, err
	}

	m := NewMemory(records)
	m.source = path
	m.size = info.Size()
	m.digest = digest
	return m, nil
}

// ReadCSV parses records from CSV with a header row. Columns are matched by
// name (case-insensitive) against Columns; unknown columns are ignored and
// only "postcode" is required.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := make(map[int]string, len(header))
	hasPostcode := false
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		colMap[i] = name
		if name == "postcode" {
			hasPostcode = true
		}
	}
	if !hasPostcode {
		return nil, errors.New("header has no postcode column")
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var b recordBuilder
		for i, value := range row {
			if col, ok := colMap[i]; ok {
				b.set(col, value)
			}
		}
		rec := b.build()
		if rec.Postcode == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
