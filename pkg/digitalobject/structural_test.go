package digitalobject

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/validation"
)

func TestStructuralDocument(t *testing.T) {
	sd := NewStructuralDocument(inventory.DefaultFormats(), testLogger(t))
	rows := fullObjectRows()
	if err := sd.LoadFromTable(saefTable(t, rows...)); err != nil {
		t.Fatal(err)
	}
	names := []string{}
	for _, rec := range sd.Files() {
		names = append(names, rec.Filename)
	}
	if diff := deep.Equal(names, []string{"mets.xml", "p1.jp2", "p2.jpg"}); diff != nil {
		t.Error(diff)
	}
	if sd.Manifest().Filename != "mets.xml" || len(sd.Assets()) != 2 {
		t.Error("wrong manifest or assets")
	}
	expected := &ObjectMetadata{
		OSN:         "OBJ1",
		Title:       "Letter from Richmond",
		DeliveryURN: "urn-3:FHCL:OBJ1",
		Access:      "P",
	}
	if diff := deep.Equal(sd.Metadata(), expected); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(sd.Formats(), []string{formatMETS, formatJP2, "JPEG"}); diff != nil {
		t.Error(diff)
	}
	files, err := sd.FilterBy(inventory.FieldFileOSN, "P1")
	if err != nil || len(files) != 1 {
		t.Errorf("FilterBy: %v %v", files, err)
	}
}

func TestStructuralDocumentWithoutManifest(t *testing.T) {
	sd := NewStructuralDocument(inventory.DefaultFormats(), testLogger(t))
	if err := sd.LoadFromTable(saefTable(t, fullObjectRows()[1:3]...)); err != nil {
		t.Fatal(err)
	}
	if sd.HasManifest() || sd.Metadata() != nil {
		t.Error("metadata must not be taken from an asset")
	}
	if w := sd.Warnings(); len(w) != 1 || w[0].Code != validation.NoManifest {
		t.Errorf("expected %s warning, got %v", validation.NoManifest, w)
	}
}

func TestStructuralDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		code validation.ValidationErrorCode
	}{
		{"empty", nil, validation.Empty},
		{"owners", [][]string{saefRow("A", "1", "a.jp2", formatJP2), saefRow("B", "2", "b.jp2", formatJP2)}, validation.MultipleOwners},
		{"manifests", [][]string{saefRow("A", "1", "a.xml", formatMETS), saefRow("A", "2", "b.xml", formatMETS), saefRow("A", "3", "c.jp2", formatJP2)}, validation.MultipleManifests},
		{"assets", [][]string{saefRow("A", "1", "a.xml", formatMETS), saefRow("A", "2", "a.txt", "Plain text")}, validation.NoAssets},
	}
	for _, test := range tests {
		sd := NewStructuralDocument(inventory.DefaultFormats(), testLogger(t))
		err := sd.LoadFromTable(saefTable(t, test.rows...))
		if !validation.HasCode(err, test.code) {
			t.Errorf("%s: expected %s, got %v", test.name, test.code, err)
		}
		if sd.Initialized() || len(sd.Files()) != 0 {
			t.Errorf("%s: partial state exposed", test.name)
		}
	}
	sd := NewStructuralDocument(inventory.DefaultFormats(), testLogger(t))
	if err := sd.LoadFromFile(""); !validation.HasCode(err, validation.EmptyPath) {
		t.Errorf("expected %s, got %v", validation.EmptyPath, err)
	}
}
