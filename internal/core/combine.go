package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Combined is the union of several CSV files.
//
// Headers keep the first file's order; headers first seen in later files
// are appended in the order they appear. Every row carries every header,
// with "" where its file had no such column.
type Combined struct {
	Headers   []string
	Rows      []map[string]string
	FileNames []string
}

type parsedFile struct {
	headers []string
	records [][]string
}

// CombineCSV parses files and merges them by header union. maxFileSize
// bounds each file (0 disables the bound).
func CombineCSV(files []ImportFile, maxFileSize int64) (*Combined, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	parsed := make([]parsedFile, 0, len(files))
	out := &Combined{FileNames: make([]string, 0, len(files))}
	seen := make(map[string]bool)

	for _, f := range files {
		pf, err := parseCSV(WrapForImport(f.Reader, f.Name, maxFileSize))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		for _, h := range pf.headers {
			if !seen[h] {
				seen[h] = true
				out.Headers = append(out.Headers, h)
			}
		}
		parsed = append(parsed, pf)
		out.FileNames = append(out.FileNames, f.Name)
	}

	for _, pf := range parsed {
		for _, rec := range pf.records {
			row := make(map[string]string, len(out.Headers))
			for _, h := range out.Headers {
				row[h] = ""
			}
			// Later duplicates of a header win, like a dict reader.
			for i, h := range pf.headers {
				if i < len(rec) {
					row[h] = rec[i]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

func parseCSV(r io.Reader) (parsedFile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return parsedFile{}, ErrEmptyFile
	}
	if err != nil {
		return parsedFile{}, wrapCSVError(err)
	}

	pf := parsedFile{headers: headers}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return parsedFile{}, wrapCSVError(err)
		}
		pf.records = append(pf.records, rec)
	}
	return pf, nil
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("invalid csv: %w", err)
	}
	return err
}
