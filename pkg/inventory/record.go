package inventory

import (
	"golang.org/x/exp/slices"
)

const (
	FieldObjectOSN         = "object_osn"
	FieldObjectTitle       = "object_title"
	FieldObjectDeliveryURN = "object_delivery_urn"
	FieldObjectOasisURN    = "object_oasis_urn"
	FieldObjectAccess      = "object_access"
	FieldFileURN           = "file_urn"
	FieldFileOSN           = "file_osn"
	FieldFilePath          = "file_path"
	FieldFilename          = "filename"
	FieldFileFormat        = "file_format"
)

// RequiredFields must be present as columns of every inventory table.
var RequiredFields = []string{
	FieldObjectOSN,
	FieldObjectTitle,
	FieldObjectDeliveryURN,
	FieldObjectOasisURN,
	FieldObjectAccess,
	FieldFileURN,
	FieldFileOSN,
	FieldFilePath,
	FieldFilename,
	FieldFileFormat,
}

const AccessPublic = "P"
const AccessRestricted = "R"

func IsRequiredField(field string) bool {
	return slices.Contains(RequiredFields, field)
}

// FileRecord is one row of an inventory table.
// Columns outside RequiredFields are kept in Extra.
type FileRecord struct {
	ObjectOSN         string
	ObjectTitle       string
	ObjectDeliveryURN string
	ObjectOasisURN    string
	ObjectAccess      string
	FileURN           string
	FileOSN           string
	FilePath          string
	Filename          string
	FileFormat        string
	Extra             map[string]string
}

func recordFromRow(t *Table, i int) *FileRecord {
	get := func(col string) string {
		v, _ := t.Value(i, col)
		return v
	}
	rec := &FileRecord{
		ObjectOSN:         get(FieldObjectOSN),
		ObjectTitle:       get(FieldObjectTitle),
		ObjectDeliveryURN: get(FieldObjectDeliveryURN),
		ObjectOasisURN:    get(FieldObjectOasisURN),
		ObjectAccess:      get(FieldObjectAccess),
		FileURN:           get(FieldFileURN),
		FileOSN:           get(FieldFileOSN),
		FilePath:          get(FieldFilePath),
		Filename:          get(FieldFilename),
		FileFormat:        get(FieldFileFormat),
		Extra:             map[string]string{},
	}
	for _, col := range t.columns {
		if IsRequiredField(col) {
			continue
		}
		rec.Extra[col] = get(col)
	}
	return rec
}

// Get returns the value of any column of the record.
func (r *FileRecord) Get(field string) (string, bool) {
	switch field {
	case FieldObjectOSN:
		return r.ObjectOSN, true
	case FieldObjectTitle:
		return r.ObjectTitle, true
	case FieldObjectDeliveryURN:
		return r.ObjectDeliveryURN, true
	case FieldObjectOasisURN:
		return r.ObjectOasisURN, true
	case FieldObjectAccess:
		return r.ObjectAccess, true
	case FieldFileURN:
		return r.FileURN, true
	case FieldFileOSN:
		return r.FileOSN, true
	case FieldFilePath:
		return r.FilePath, true
	case FieldFilename:
		return r.Filename, true
	case FieldFileFormat:
		return r.FileFormat, true
	}
	v, ok := r.Extra[field]
	return v, ok
}

// Restricted is true unless the object access flag is public.
func (r *FileRecord) Restricted() bool {
	return r.ObjectAccess != AccessPublic
}

func (r *FileRecord) Clone() *FileRecord {
	c := *r
	c.Extra = make(map[string]string, len(r.Extra))
	for k, v := range r.Extra {
		c.Extra[k] = v
	}
	return &c
}

// NewTableFromRecords builds a table with the given columns from records.
// Missing values are blank.
func NewTableFromRecords(columns []string, records []*FileRecord) *Table {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i], _ = rec.Get(col)
		}
		rows = append(rows, row)
	}
	t, _ := NewTable(columns, rows...)
	return t
}
