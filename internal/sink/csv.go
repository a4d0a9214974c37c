// Package sink writes finished harvest records to durable tabular outputs.
package sink

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finstat-harvester/internal/model"
)

// resultColumns is the fixed output column order. Casing is part of the
// dataset contract for downstream consumers.
var resultColumns = []string{"name", "Year", "totalIncome", "profit", "employeeCount", "netPayCosts", "averagePay"}

// CSVSink appends result records to a CSV file, flushing after every row so
// a crash loses at most the in-flight record.
type CSVSink struct {
	file *os.File
	w    *csv.Writer
}

// OpenCSV creates (truncating) the output file and writes the header row.
func OpenCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrap(err, "sink: create csv")
	}

	w := csv.NewWriter(f)
	if err := w.Write(resultColumns); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "sink: write header")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "sink: flush header")
	}

	return &CSVSink{file: f, w: w}, nil
}

// Append writes one record as one row. It does not deduplicate; uniqueness
// per (entity, statement) is the orchestrator's iteration discipline.
func (s *CSVSink) Append(r model.ResultRecord) error {
	row := []string{
		r.Name,
		r.Year,
		strconv.FormatInt(r.TotalIncome, 10),
		strconv.FormatInt(r.Profit, 10),
		strconv.FormatInt(r.EmployeeCount, 10),
		strconv.FormatInt(r.NetPayCosts, 10),
		formatAveragePay(r.AveragePay),
	}
	if err := s.w.Write(row); err != nil {
		return eris.Wrapf(err, "sink: write row for %s (%s)", r.Name, r.Year)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return eris.Wrapf(err, "sink: flush row for %s (%s)", r.Name, r.Year)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.file.Close()
		return eris.Wrap(err, "sink: final flush")
	}
	return eris.Wrap(s.file.Close(), "sink: close csv")
}

// formatAveragePay renders the derived metric with shortest round-trip
// precision, keeping a trailing .0 on integral values so the column is
// always recognizably a float.
func formatAveragePay(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
