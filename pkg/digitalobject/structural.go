package digitalobject

import (
	"strings"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/validation"
	"golang.org/x/exp/slices"
)

// ObjectMetadata are the object level values taken from the manifest record.
type ObjectMetadata struct {
	OSN         string
	Title       string
	DeliveryURN string
	OasisURN    string
	Access      string
}

// StructuralDocument is one manifest with its asset files.
type StructuralDocument struct {
	formats     *inventory.Formats
	files       *inventory.FileInventory
	manifest    *inventory.FileRecord
	assets      []*inventory.FileRecord
	metadata    *ObjectMetadata
	warnings    []*validation.ValidationError
	initialized bool
	logger      zLogger.ZLogger
}

func NewStructuralDocument(formats *inventory.Formats, logger zLogger.ZLogger) *StructuralDocument {
	return &StructuralDocument{
		formats:  formats,
		files:    inventory.NewFileInventory(logger),
		assets:   []*inventory.FileRecord{},
		warnings: []*validation.ValidationError{},
		logger:   logger,
	}
}

func (sd *StructuralDocument) LoadFromTable(table *inventory.Table) error {
	if sd.initialized {
		return validation.New(validation.AlreadyLoaded, "structural document")
	}
	if table == nil {
		return errors.WithStack(validation.ErrNotATable)
	}
	if table.Empty() {
		return validation.New(validation.Empty, "structural document")
	}
	if owners := table.Distinct(inventory.FieldObjectOSN); len(owners) > 1 {
		return validation.New(validation.MultipleOwners, "structural document: %s", strings.Join(owners, ", "))
	}
	source := inventory.NewFileInventory(sd.logger)
	if err := source.LoadFromTable(table); err != nil {
		return errors.Wrap(err, "structural document")
	}
	manifests, err := source.FilterBy(inventory.FieldFileFormat, sd.formats.Manifest)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(manifests) > 1 {
		return validation.New(validation.MultipleManifests, "found %d files of format '%s'", len(manifests), sd.formats.Manifest)
	}
	assets := []*inventory.FileRecord{}
	for _, rec := range source.Records() {
		if sd.formats.IsAsset(rec.FileFormat) {
			assets = append(assets, rec)
		}
	}
	if len(assets) == 0 {
		return validation.New(validation.NoAssets, "formats %v", sd.formats.Assets)
	}

	var manifest *inventory.FileRecord
	var metadata *ObjectMetadata
	var warning *validation.ValidationError
	if len(manifests) == 1 {
		manifest = manifests[0]
		metadata = &ObjectMetadata{
			OSN:         manifest.ObjectOSN,
			Title:       manifest.ObjectTitle,
			DeliveryURN: manifest.ObjectDeliveryURN,
			OasisURN:    manifest.ObjectOasisURN,
			Access:      manifest.ObjectAccess,
		}
	} else {
		warning = validation.New(validation.NoManifest, "object %s", assets[0].ObjectOSN)
	}

	files := inventory.NewFileInventory(sd.logger)
	if err := files.LoadFromTable(inventory.NewTableFromRecords(source.Columns(), append(manifests, assets...))); err != nil {
		return errors.Wrap(err, "structural document")
	}
	if warning != nil {
		sd.warnings = append(sd.warnings, warning)
	}
	sd.files = files
	sd.manifest = manifest
	sd.assets = assets
	sd.metadata = metadata
	sd.initialized = true
	return nil
}

func (sd *StructuralDocument) LoadFromFile(path string) error {
	if path == "" {
		return validation.New(validation.EmptyPath, "structural document")
	}
	table, err := inventory.ReadTableFile(path)
	if err != nil {
		return errors.Wrap(err, "cannot read structural document")
	}
	return sd.LoadFromTable(table)
}

func (sd *StructuralDocument) FilterBy(field, value string) ([]*inventory.FileRecord, error) {
	return sd.files.FilterBy(field, value)
}

func (sd *StructuralDocument) Initialized() bool {
	return sd.initialized
}

// Files returns the manifest (if any) followed by the assets.
func (sd *StructuralDocument) Files() []*inventory.FileRecord {
	return sd.files.Records()
}

func (sd *StructuralDocument) Columns() []string {
	return sd.files.Columns()
}

// HasManifest is false for a document loaded without a structural file.
func (sd *StructuralDocument) HasManifest() bool {
	return sd.manifest != nil
}

func (sd *StructuralDocument) Manifest() *inventory.FileRecord {
	return sd.manifest
}

func (sd *StructuralDocument) Assets() []*inventory.FileRecord {
	return slices.Clone(sd.assets)
}

// Formats lists the file formats recognized by the document.
func (sd *StructuralDocument) Formats() []string {
	return sd.formats.Structural()
}

// Metadata returns a copy of the object metadata, nil without manifest.
func (sd *StructuralDocument) Metadata() *ObjectMetadata {
	if sd.metadata == nil {
		return nil
	}
	md := *sd.metadata
	return &md
}

func (sd *StructuralDocument) Warnings() []*validation.ValidationError {
	return slices.Clone(sd.warnings)
}

var _ inventory.Loader = (*StructuralDocument)(nil)
