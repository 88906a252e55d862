package inventory

import (
	"strings"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/pkg/validation"
	"golang.org/x/exp/slices"
)

// derivativeInventory selects the files of one or more derivative formats
// belonging to a single object. With more than one format, the counts per
// format must be equal, otherwise the selection is empty.
type derivativeInventory struct {
	name        string
	formats     []string
	contents    *FileInventory
	perFormat   map[string][]*FileRecord
	warnings    []*validation.ValidationError
	initialized bool
	logger      zLogger.ZLogger
}

func newDerivativeInventory(name string, formats []string, logger zLogger.ZLogger) derivativeInventory {
	return derivativeInventory{
		name:      name,
		formats:   formats,
		contents:  NewFileInventory(logger),
		perFormat: map[string][]*FileRecord{},
		warnings:  []*validation.ValidationError{},
		logger:    logger,
	}
}

func (di *derivativeInventory) LoadFromTable(table *Table) error {
	if di.initialized {
		return validation.New(validation.AlreadyLoaded, "%s", di.name)
	}
	if table == nil {
		return errors.WithStack(validation.ErrNotATable)
	}
	if table.Empty() {
		return validation.New(validation.Empty, "%s", di.name)
	}
	if owners := table.Distinct(FieldObjectOSN); len(owners) > 1 {
		return validation.New(validation.MultipleOwners, "%s: %s", di.name, strings.Join(owners, ", "))
	}
	source := NewFileInventory(di.logger)
	if err := source.LoadFromTable(table); err != nil {
		return errors.Wrapf(err, "%s", di.name)
	}

	perFormat := map[string][]*FileRecord{}
	counts := []int{}
	var total int
	for _, format := range di.formats {
		files, err := source.FilterBy(FieldFileFormat, format)
		if err != nil {
			return errors.Wrapf(err, "%s", di.name)
		}
		perFormat[format] = files
		counts = append(counts, len(files))
		total += len(files)
	}

	var warning *validation.ValidationError
	selected := []*FileRecord{}
	switch {
	case len(slices.Compact(slices.Clone(counts))) > 1:
		warning = validation.New(validation.FormatMismatch, "%s: formats %v have counts %v", di.name, di.formats, counts)
		perFormat = map[string][]*FileRecord{}
	case total == 0:
		warning = validation.New(validation.NoDerivatives, "%s: formats %v", di.name, di.formats)
	default:
		for _, format := range di.formats {
			selected = append(selected, perFormat[format]...)
		}
	}

	contents := NewFileInventory(di.logger)
	if err := contents.LoadFromTable(NewTableFromRecords(source.Columns(), selected)); err != nil {
		return errors.Wrapf(err, "%s", di.name)
	}
	if warning != nil {
		di.warnings = append(di.warnings, warning)
	}
	di.contents = contents
	di.perFormat = perFormat
	di.initialized = true
	return nil
}

func (di *derivativeInventory) LoadFromFile(path string) error {
	table, err := readInventoryFile(path)
	if err != nil {
		return err
	}
	return di.LoadFromTable(table)
}

func (di *derivativeInventory) FilterBy(field, value string) ([]*FileRecord, error) {
	return di.contents.FilterBy(field, value)
}

// Files returns all selected derivative files in format order.
func (di *derivativeInventory) Files() []*FileRecord {
	return di.contents.Records()
}

// Columns are the columns of the source table.
func (di *derivativeInventory) Columns() []string {
	return di.contents.Columns()
}

func (di *derivativeInventory) FilesOfFormat(format string) []*FileRecord {
	return slices.Clone(di.perFormat[format])
}

// Empty reports a loaded inventory without derivative files.
func (di *derivativeInventory) Empty() bool {
	return di.contents.Len() == 0
}

func (di *derivativeInventory) Formats() []string {
	return slices.Clone(di.formats)
}

func (di *derivativeInventory) Warnings() []*validation.ValidationError {
	return slices.Clone(di.warnings)
}

func (di *derivativeInventory) Initialized() bool {
	return di.initialized
}

// OCRInventory holds the OCR plain text files of one object.
type OCRInventory struct {
	derivativeInventory
	textFormat string
}

func NewOCRInventory(formats *Formats, logger zLogger.ZLogger) *OCRInventory {
	return &OCRInventory{
		derivativeInventory: newDerivativeInventory("ocr inventory", []string{formats.OCRText}, logger),
		textFormat:          formats.OCRText,
	}
}

func (oi *OCRInventory) TextFiles() []*FileRecord {
	return oi.FilesOfFormat(oi.textFormat)
}

// TranscriptionInventory holds the machine transcription triad
// (image, json, text) of one object.
type TranscriptionInventory struct {
	derivativeInventory
	imageFormat, jsonFormat, textFormat string
}

func NewTranscriptionInventory(formats *Formats, logger zLogger.ZLogger) *TranscriptionInventory {
	return &TranscriptionInventory{
		derivativeInventory: newDerivativeInventory("transcription inventory", formats.Transcription(), logger),
		imageFormat:         formats.TranscriptionImage,
		jsonFormat:          formats.TranscriptionJSON,
		textFormat:          formats.TranscriptionText,
	}
}

func (ti *TranscriptionInventory) ImageFiles() []*FileRecord {
	return ti.FilesOfFormat(ti.imageFormat)
}

func (ti *TranscriptionInventory) JSONFiles() []*FileRecord {
	return ti.FilesOfFormat(ti.jsonFormat)
}

func (ti *TranscriptionInventory) TextFiles() []*FileRecord {
	return ti.FilesOfFormat(ti.textFormat)
}

var _ Loader = (*OCRInventory)(nil)
var _ Loader = (*TranscriptionInventory)(nil)
