// Package dataio reads and writes the on-disk formats of the toolkit:
// sample-by-molecule CSV matrices, two-column label CSVs and VIP result
// tables.
package dataio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/integrate"
	"github.com/turtacn/OmicsPath-Intelligence/internal/domain/omics"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Omics table CSV
// ─────────────────────────────────────────────────────────────────────────────

// ReadTableCSV parses a sample-by-molecule matrix. The first header cell is
// ignored, the remaining cells are molecule identifiers; each following row
// starts with the sample identifier and continues with one value per column.
func ReadTableCSV(r io.Reader, name string) (*omics.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "csv: failed to read header")
	}
	if len(header) < 2 {
		return nil, errors.New(errors.ErrCodeSerialization,
			"csv: expected a sample column plus at least one molecule column")
	}
	columns := header[1:]

	var samples []string
	var values []float64
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "csv: malformed record")
		}
		line++
		if len(rec) != len(header) {
			return nil, errors.Newf(errors.ErrCodeSerialization,
				"csv: line %d has %d fields, expected %d", line, len(rec), len(header))
		}
		samples = append(samples, rec[0])
		for _, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Newf(errors.ErrCodeSerialization,
					"csv: line %d: %q is not numeric", line, cell)
			}
			values = append(values, v)
		}
	}
	if len(samples) == 0 {
		return nil, errors.New(errors.ErrCodeSerialization, "csv: no data rows")
	}
	return omics.NewTable(name, samples, columns, values)
}

// ReadTableFile reads a sample-by-molecule CSV from path, naming the table
// after the file unless name is non-empty.
func ReadTableFile(path, name string) (*omics.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "csv: cannot open table file")
	}
	defer f.Close()
	if name == "" {
		name = path
	}
	return ReadTableCSV(f, name)
}

// WriteTableCSV writes t in the same layout ReadTableCSV accepts.
func WriteTableCSV(w io.Writer, t *omics.Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{"sample"}, t.Columns()...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "csv: failed to write header")
	}
	rec := make([]string, len(header))
	for i := 0; i < t.NumSamples(); i++ {
		rec[0] = t.SampleAt(i)
		for j := 0; j < t.NumColumns(); j++ {
			rec[j+1] = strconv.FormatFloat(t.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "csv: failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "csv: flush failed")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Labels CSV
// ─────────────────────────────────────────────────────────────────────────────

// ReadLabelsCSV parses a two-column sample,label file with a header row.
func ReadLabelsCSV(r io.Reader) (*omics.Labels, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 2

	if _, err := cr.Read(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "csv: failed to read label header")
	}

	var samples, labels []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "csv: malformed label record")
		}
		samples = append(samples, rec[0])
		labels = append(labels, rec[1])
	}
	if len(samples) == 0 {
		return nil, errors.New(errors.ErrCodeSerialization, "csv: no label rows")
	}
	return omics.NewLabels(samples, labels)
}

// ReadLabelsFile reads a sample,label CSV from path.
func ReadLabelsFile(path string) (*omics.Labels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "csv: cannot open labels file")
	}
	defer f.Close()
	return ReadLabelsCSV(f)
}

// ─────────────────────────────────────────────────────────────────────────────
// VIP result CSV
// ─────────────────────────────────────────────────────────────────────────────

// WriteVIPCSV writes a multi-view VIP table with one row per pathway-block
// pair.
func WriteVIPCSV(w io.Writer, entries []integrate.VIPEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pathway_id", "pathway_name", "block", "vip", "vip_scaled"}); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "csv: failed to write VIP header")
	}
	for _, e := range entries {
		rec := []string{
			e.PathwayID,
			e.PathwayName,
			e.Block,
			fmt.Sprintf("%.6g", e.VIP),
			fmt.Sprintf("%.6g", e.VIPScaled),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "csv: failed to write VIP row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "csv: flush failed")
	}
	return nil
}
