package digitalobject

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/validation"
)

func TestReadSAEFMetadataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.csv")
	if err := os.WriteFile(path, []byte("object_osn,mms_id,object_tags\nOBJ1,'99',City:Richmond\nOBJ2,'98',\n"), 0644); err != nil {
		t.Fatal(err)
	}
	md, err := ReadSAEFMetadataFile(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]*SAEFMetadata{
		"OBJ1": {MMSID: "'99'", ObjectTags: "City:Richmond"},
		"OBJ2": {MMSID: "'98'", ObjectTags: ""},
	}
	if diff := deep.Equal(md, expected); diff != nil {
		t.Error(diff)
	}
	if _, err := ReadSAEFMetadataFile(""); !validation.HasCode(err, validation.EmptyPath) {
		t.Errorf("expected EmptyPath, got %v", err)
	}
}

func TestSAEFMetadataFromTable(t *testing.T) {
	if _, err := SAEFMetadataFromTable(nil); err != validation.ErrNotATable {
		t.Errorf("expected ErrNotATable, got %v", err)
	}
	table, _ := inventory.NewTable([]string{"object_osn", "mms_id"}, []string{"OBJ1", "99"})
	if _, err := SAEFMetadataFromTable(table); !validation.HasCode(err, validation.MissingField) {
		t.Errorf("expected MissingField, got %v", err)
	}
	table, _ = inventory.NewTable([]string{"object_osn", "mms_id", "object_tags"},
		[]string{"OBJ1", "99", "a:b"},
		[]string{"OBJ1", "98", "a:c"},
	)
	if _, err := SAEFMetadataFromTable(table); err == nil {
		t.Error("duplicate object not reported")
	}
}
