package digitalobject

import (
	"strings"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/validation"
	"golang.org/x/exp/slices"
)

const (
	FieldMMSID      = "mms_id"
	FieldObjectTags = "object_tags"
)

// SAEFMetadata are the values stamped onto every file of an object.
type SAEFMetadata struct {
	MMSID      string
	ObjectTags string
}

func (md *SAEFMetadata) valid() bool {
	return md.MMSID != "" && md.ObjectTags != ""
}

// SAEFMetadataRecord is the final metadata of a digital object.
type SAEFMetadataRecord struct {
	ObjectMetadata
	MMSID      string
	ObjectTags string
}

// SAEFObject combines the structural document of a digital object with its
// transcription and ocr derivatives and the relationships between all files.
type SAEFObject struct {
	formats       *inventory.Formats
	document      *StructuralDocument
	transcription *inventory.TranscriptionInventory
	ocr           *inventory.OCRInventory
	files         *inventory.FileInventory
	relationships map[RelationshipClass][]Edge
	metadata      *SAEFMetadataRecord
	warnings      []*validation.ValidationError
	initialized   bool
	logger        zLogger.ZLogger
}

func NewSAEFObject(formats *inventory.Formats, logger zLogger.ZLogger) *SAEFObject {
	return &SAEFObject{
		formats:       formats,
		document:      NewStructuralDocument(formats, logger),
		transcription: inventory.NewTranscriptionInventory(formats, logger),
		ocr:           inventory.NewOCRInventory(formats, logger),
		files:         inventory.NewFileInventory(logger),
		relationships: map[RelationshipClass][]Edge{},
		warnings:      []*validation.ValidationError{},
		logger:        logger,
	}
}

func checkFilePath(table *inventory.Table) error {
	paths, ok := table.Column(inventory.FieldFilePath)
	if !ok {
		return validation.New(validation.MissingField, "missing field: %s", inventory.FieldFilePath)
	}
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			return validation.New(validation.MissingFilePath, "row %d", i)
		}
	}
	return nil
}

// LoadFromTable builds the object from table. md is optional; if given with
// both values set, they overwrite the mms_id and object_tags columns.
// The object is either fully built or left untouched.
func (so *SAEFObject) LoadFromTable(table *inventory.Table, md *SAEFMetadata) error {
	if so.initialized {
		return validation.New(validation.AlreadyLoaded, "saef object")
	}
	if table == nil {
		return errors.WithStack(validation.ErrNotATable)
	}
	if err := checkFilePath(table); err != nil {
		return err
	}
	warnings := []*validation.ValidationError{}
	if md != nil {
		if md.valid() {
			table = table.WithColumn(FieldMMSID, md.MMSID).WithColumn(FieldObjectTags, md.ObjectTags)
		} else {
			warnings = append(warnings, validation.New(validation.InvalidMetadata, "mms_id '%s', object_tags '%s'", md.MMSID, md.ObjectTags))
		}
	}

	document := NewStructuralDocument(so.formats, so.logger)
	if err := document.LoadFromTable(table); err != nil {
		return errors.Wrap(err, "cannot build structural document")
	}
	if !document.HasManifest() {
		return validation.New(validation.NoManifest, "object %s", strings.Join(table.Distinct(inventory.FieldObjectOSN), ", "))
	}
	for _, field := range []string{FieldMMSID, FieldObjectTags} {
		if !table.HasColumn(field) {
			return validation.New(validation.MissingField, "missing field: %s", field)
		}
	}

	transcription := inventory.NewTranscriptionInventory(so.formats, so.logger)
	if err := transcription.LoadFromTable(table); err != nil {
		return errors.Wrap(err, "cannot build transcription inventory")
	}
	warnings = append(warnings, transcription.Warnings()...)
	ocr := inventory.NewOCRInventory(so.formats, so.logger)
	if err := ocr.LoadFromTable(table); err != nil {
		return errors.Wrap(err, "cannot build ocr inventory")
	}
	warnings = append(warnings, ocr.Warnings()...)

	relationships := map[RelationshipClass][]Edge{
		ClassPDS: structuralEdges(document),
	}
	var err error
	if relationships[ClassMSFT], err = derivativeEdges(document, transcription.Files()); err != nil {
		return errors.Wrap(err, "transcription relationships")
	}
	if relationships[ClassOCR], err = derivativeEdges(document, ocr.Files()); err != nil {
		return errors.Wrap(err, "ocr relationships")
	}

	allFiles := append(append(document.Files(), transcription.Files()...), ocr.Files()...)
	files := inventory.NewFileInventory(so.logger)
	if err := files.LoadFromTable(inventory.NewTableFromRecords(table.Columns(), allFiles)); err != nil {
		return errors.Wrap(err, "cannot build file inventory")
	}

	manifest := document.Manifest()
	metadata := &SAEFMetadataRecord{
		ObjectMetadata: *document.Metadata(),
	}
	metadata.MMSID, _ = manifest.Get(FieldMMSID)
	metadata.ObjectTags, _ = manifest.Get(FieldObjectTags)

	for _, w := range warnings {
		so.logger.Warn().Msgf("object %s: %v", metadata.OSN, w)
	}
	so.document = document
	so.transcription = transcription
	so.ocr = ocr
	so.files = files
	so.relationships = relationships
	so.metadata = metadata
	so.warnings = warnings
	so.initialized = true
	so.logger.Debug().Msgf("object %s: %d files, %d/%d/%d relationships", metadata.OSN, files.Len(),
		len(relationships[ClassPDS]), len(relationships[ClassMSFT]), len(relationships[ClassOCR]))
	return nil
}

func (so *SAEFObject) LoadFromFile(path string, md *SAEFMetadata) error {
	if path == "" {
		return validation.New(validation.EmptyPath, "saef object")
	}
	table, err := inventory.ReadTableFile(path)
	if err != nil {
		return errors.Wrap(err, "cannot read saef object")
	}
	return so.LoadFromTable(table, md)
}

// structuralEdges links every asset with the manifest.
func structuralEdges(document *StructuralDocument) []Edge {
	manifest := document.Manifest()
	edges := []Edge{}
	for _, asset := range document.Assets() {
		edges = append(edges, edgePair(asset, BelongsTo, Contains, manifest)...)
	}
	return edges
}

// derivativeEdges joins each derivative to the asset with the same file_osn.
func derivativeEdges(document *StructuralDocument, derivatives []*inventory.FileRecord) ([]Edge, error) {
	assets := map[string][]*inventory.FileRecord{}
	for _, asset := range document.Assets() {
		assets[asset.FileOSN] = append(assets[asset.FileOSN], asset)
	}
	edges := []Edge{}
	for _, derivative := range derivatives {
		sources := assets[derivative.FileOSN]
		if len(sources) != 1 {
			return nil, validation.New(validation.UnresolvedJoin, "%s with file_osn '%s' matches %d assets",
				derivative.Filename, derivative.FileOSN, len(sources))
		}
		edges = append(edges, edgePair(derivative, IsDerivedFrom, IsSourceFor, sources[0])...)
	}
	return edges, nil
}

func (so *SAEFObject) Initialized() bool {
	return so.initialized
}

func (so *SAEFObject) FilterBy(field, value string) ([]*inventory.FileRecord, error) {
	return so.files.FilterBy(field, value)
}

func (so *SAEFObject) Document() *StructuralDocument {
	return so.document
}

func (so *SAEFObject) Transcription() *inventory.TranscriptionInventory {
	return so.transcription
}

func (so *SAEFObject) OCR() *inventory.OCRInventory {
	return so.ocr
}

// Files returns structural, transcription and ocr files.
func (so *SAEFObject) Files() []*inventory.FileRecord {
	return so.files.Records()
}

func (so *SAEFObject) FileTable() *inventory.Table {
	return so.files.Table()
}

func (so *SAEFObject) Relationships(class RelationshipClass) ([]Edge, error) {
	if !class.Valid() {
		return nil, errors.Errorf("unknown relationship class '%s'", class)
	}
	return slices.Clone(so.relationships[class]), nil
}

// Metadata returns a copy of the object metadata, nil if not initialized.
func (so *SAEFObject) Metadata() *SAEFMetadataRecord {
	if so.metadata == nil {
		return nil
	}
	md := *so.metadata
	return &md
}

func (so *SAEFObject) OSN() string {
	if so.metadata == nil {
		return ""
	}
	return so.metadata.OSN
}

func (so *SAEFObject) Warnings() []*validation.ValidationError {
	return slices.Clone(so.warnings)
}

// WriteRelationships writes the relationship table of class to path.
func (so *SAEFObject) WriteRelationships(path string, class RelationshipClass) error {
	if path == "" {
		return validation.New(validation.EmptyPath, "relationship file")
	}
	edges, err := so.Relationships(class)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		return errors.Errorf("no %s relationships for object '%s'", class, so.OSN())
	}
	return errors.WithStack(inventory.WriteTableFile(path, EdgeTable(edges)))
}
