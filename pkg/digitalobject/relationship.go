package digitalobject

import (
	"io"

	"emperror.dev/errors"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"golang.org/x/exp/slices"
)

type Relationship string

const (
	BelongsTo     Relationship = "belongs_to"
	Contains      Relationship = "contains"
	IsDerivedFrom Relationship = "is_derived_from"
	IsSourceFor   Relationship = "is_source_for"
)

var relationships = []Relationship{BelongsTo, Contains, IsDerivedFrom, IsSourceFor}

func (r Relationship) Valid() bool {
	return slices.Contains(relationships, r)
}

// RelationshipClass names one of the three relationship tables of an object.
type RelationshipClass string

const (
	ClassPDS  RelationshipClass = "pds"
	ClassMSFT RelationshipClass = "msft"
	ClassOCR  RelationshipClass = "ocr"
)

var RelationshipClasses = []RelationshipClass{ClassPDS, ClassMSFT, ClassOCR}

func (c RelationshipClass) Valid() bool {
	return slices.Contains(RelationshipClasses, c)
}

// Tag is the label used in dataset categories, e.g. "SAEF:MSFT Relationship".
func (c RelationshipClass) Tag() string {
	switch c {
	case ClassPDS:
		return "PDS"
	case ClassMSFT:
		return "MSFT"
	case ClassOCR:
		return "OCR"
	}
	return ""
}

const (
	ColumnFilenameSource   = "filename_source"
	ColumnSourceFileFormat = "source_file_format"
	ColumnRelationship     = "relationship"
	ColumnFilenameTarget   = "filename_target"
	ColumnTargetFileFormat = "target_file_format"
)

var RelationshipColumns = []string{
	ColumnFilenameSource,
	ColumnSourceFileFormat,
	ColumnRelationship,
	ColumnFilenameTarget,
	ColumnTargetFileFormat,
}

// Edge is a directed, typed link between two files.
type Edge struct {
	FilenameSource   string
	SourceFileFormat string
	Relationship     Relationship
	FilenameTarget   string
	TargetFileFormat string
}

func newEdge(source *inventory.FileRecord, rel Relationship, target *inventory.FileRecord) Edge {
	return Edge{
		FilenameSource:   source.Filename,
		SourceFileFormat: source.FileFormat,
		Relationship:     rel,
		FilenameTarget:   target.Filename,
		TargetFileFormat: target.FileFormat,
	}
}

// edgePair returns the edge and its reciprocal.
func edgePair(source *inventory.FileRecord, rel, reverse Relationship, target *inventory.FileRecord) []Edge {
	return []Edge{newEdge(source, rel, target), newEdge(target, reverse, source)}
}

func (e Edge) row() []string {
	return []string{e.FilenameSource, e.SourceFileFormat, string(e.Relationship), e.FilenameTarget, e.TargetFileFormat}
}

// EdgeTable builds the relationship table of edges.
func EdgeTable(edges []Edge) *inventory.Table {
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, e.row())
	}
	t, _ := inventory.NewTable(RelationshipColumns, rows...)
	return t
}

// EdgesFromTable reads edges from a relationship table.
func EdgesFromTable(table *inventory.Table) ([]Edge, error) {
	if table == nil {
		return nil, errors.New("no relationship table")
	}
	for _, col := range RelationshipColumns {
		if !table.HasColumn(col) {
			return nil, errors.Errorf("relationship table is missing column '%s'", col)
		}
	}
	edges := make([]Edge, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		get := func(col string) string {
			v, _ := table.Value(i, col)
			return v
		}
		e := Edge{
			FilenameSource:   get(ColumnFilenameSource),
			SourceFileFormat: get(ColumnSourceFileFormat),
			Relationship:     Relationship(get(ColumnRelationship)),
			FilenameTarget:   get(ColumnFilenameTarget),
			TargetFileFormat: get(ColumnTargetFileFormat),
		}
		if !e.Relationship.Valid() {
			return nil, errors.Errorf("row %d: invalid relationship '%s'", i, e.Relationship)
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func ReadRelationships(r io.Reader) ([]Edge, error) {
	table, err := inventory.ReadTable(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read relationship table")
	}
	return EdgesFromTable(table)
}
