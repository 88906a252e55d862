package inventory

import (
	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/pkg/validation"
	"golang.org/x/exp/slices"
)

// Loader is the capability shared by all inventory based types.
type Loader interface {
	LoadFromTable(table *Table) error
	LoadFromFile(path string) error
	FilterBy(field, value string) ([]*FileRecord, error)
	Initialized() bool
}

// FileInventory holds the validated file records of one inventory table.
// It is populated once and never modified afterwards.
type FileInventory struct {
	columns     []string
	records     []*FileRecord
	initialized bool
	logger      zLogger.ZLogger
}

func NewFileInventory(logger zLogger.ZLogger) *FileInventory {
	return &FileInventory{
		columns: []string{},
		records: []*FileRecord{},
		logger:  logger,
	}
}

func checkRequiredFields(table *Table) error {
	for _, field := range RequiredFields {
		if !table.HasColumn(field) {
			return validation.New(validation.MissingField, "missing field: %s", field)
		}
	}
	return nil
}

// LoadFromTable validates the columns of table and takes over its rows.
// On failure the inventory stays empty and uninitialized.
func (fi *FileInventory) LoadFromTable(table *Table) error {
	if fi.initialized {
		return validation.New(validation.AlreadyLoaded, "file inventory")
	}
	if table == nil {
		return errors.WithStack(validation.ErrNotATable)
	}
	if err := checkRequiredFields(table); err != nil {
		return err
	}
	records := make([]*FileRecord, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		records = append(records, recordFromRow(table, i))
	}
	fi.columns = table.Columns()
	fi.records = records
	fi.initialized = true
	fi.logger.Debug().Msgf("file inventory loaded with %d files", len(records))
	return nil
}

func (fi *FileInventory) LoadFromFile(path string) error {
	table, err := readInventoryFile(path)
	if err != nil {
		return err
	}
	return fi.LoadFromTable(table)
}

func readInventoryFile(path string) (*Table, error) {
	if path == "" {
		return nil, validation.New(validation.EmptyPath, "inventory file")
	}
	table, err := ReadTableFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read inventory")
	}
	return table, nil
}

// FilterBy returns all records where field equals value.
func (fi *FileInventory) FilterBy(field, value string) ([]*FileRecord, error) {
	if !IsRequiredField(field) {
		return nil, validation.New(validation.InvalidField, "field: %s", field)
	}
	result := []*FileRecord{}
	for _, rec := range fi.records {
		if v, _ := rec.Get(field); v == value {
			result = append(result, rec)
		}
	}
	return result, nil
}

// FindByFilename returns the records with the given filename, first match first.
func (fi *FileInventory) FindByFilename(name string) (bool, []*FileRecord) {
	if len(fi.records) == 0 {
		return false, nil
	}
	files, _ := fi.FilterBy(FieldFilename, name)
	if len(files) == 0 {
		return false, nil
	}
	return true, files
}

// UniqueOwnerIDs returns the distinct object_osn values in first-seen order.
func (fi *FileInventory) UniqueOwnerIDs() []string {
	result := []string{}
	if !fi.initialized {
		return result
	}
	for _, rec := range fi.records {
		if !slices.Contains(result, rec.ObjectOSN) {
			result = append(result, rec.ObjectOSN)
		}
	}
	return result
}

func (fi *FileInventory) Records() []*FileRecord {
	return slices.Clone(fi.records)
}

func (fi *FileInventory) Columns() []string {
	return slices.Clone(fi.columns)
}

func (fi *FileInventory) HasColumn(name string) bool {
	return slices.Contains(fi.columns, name)
}

// Table rebuilds a table from the inventory contents.
func (fi *FileInventory) Table() *Table {
	return NewTableFromRecords(fi.columns, fi.records)
}

// OwnerTable returns the rows of one object as table.
func (fi *FileInventory) OwnerTable(osn string) *Table {
	records, _ := fi.FilterBy(FieldObjectOSN, osn)
	return NewTableFromRecords(fi.columns, records)
}

func (fi *FileInventory) Len() int {
	return len(fi.records)
}

func (fi *FileInventory) Initialized() bool {
	return fi.initialized
}

var _ Loader = (*FileInventory)(nil)
