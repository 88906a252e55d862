package digitalobject

import (
	"emperror.dev/errors"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/validation"
)

// SAEFMetadataFromTable reads supplied object metadata with the columns
// object_osn, mms_id and object_tags, keyed by object osn.
func SAEFMetadataFromTable(table *inventory.Table) (map[string]*SAEFMetadata, error) {
	if table == nil {
		return nil, validation.ErrNotATable
	}
	for _, col := range []string{inventory.FieldObjectOSN, FieldMMSID, FieldObjectTags} {
		if !table.HasColumn(col) {
			return nil, validation.New(validation.MissingField, "missing field: %s", col)
		}
	}
	result := map[string]*SAEFMetadata{}
	for i := 0; i < table.Len(); i++ {
		osn, _ := table.Value(i, inventory.FieldObjectOSN)
		mmsID, _ := table.Value(i, FieldMMSID)
		tags, _ := table.Value(i, FieldObjectTags)
		if osn == "" {
			return nil, validation.New(validation.InvalidField, "row %d: empty %s", i, inventory.FieldObjectOSN)
		}
		if _, ok := result[osn]; ok {
			return nil, errors.Errorf("row %d: duplicate metadata for object '%s'", i, osn)
		}
		result[osn] = &SAEFMetadata{MMSID: mmsID, ObjectTags: tags}
	}
	return result, nil
}

func ReadSAEFMetadataFile(path string) (map[string]*SAEFMetadata, error) {
	if path == "" {
		return nil, validation.New(validation.EmptyPath, "metadata file")
	}
	table, err := inventory.ReadTableFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	result, err := SAEFMetadataFromTable(table)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid metadata file %s", path)
	}
	return result, nil
}
