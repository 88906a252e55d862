package inventory

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"emperror.dev/errors"
)

const utf8BOM = "\ufeff"

// ReadTable parses comma separated text with a header row.
// Values are never interpreted; missing text stays an empty string, also
// for rows shorter than the header.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no header row")
		}
		return nil, errors.Wrap(err, "cannot read header row")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read rows")
	}
	// trailing blank cells may be missing
	for i, row := range rows {
		switch {
		case len(row) > len(header):
			return nil, errors.Errorf("row %d has %d values, header has %d", i+1, len(row), len(header))
		case len(row) < len(header):
			rows[i] = append(row, make([]string, len(header)-len(row))...)
		}
	}
	return NewTable(header, rows...)
}

func ReadTableFile(path string) (*Table, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open '%s'", path)
	}
	defer fp.Close()
	t, err := ReadTable(fp)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse '%s'", path)
	}
	return t, nil
}

// WriteTable writes t as comma separated text with a header row and no index column.
func WriteTable(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return errors.Wrap(err, "cannot write header")
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return errors.Wrap(err, "cannot write rows")
	}
	return nil
}

func WriteTableFile(path string, t *Table) error {
	fp, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create '%s'", path)
	}
	if err := WriteTable(fp, t); err != nil {
		fp.Close()
		return errors.Wrapf(err, "cannot write '%s'", path)
	}
	if err := fp.Close(); err != nil {
		return errors.Wrapf(err, "cannot close '%s'", path)
	}
	return nil
}
