package inventory

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/ocfl-archive/gosaef/pkg/validation"
)

func filenames(records []*FileRecord) []string {
	result := []string{}
	for _, rec := range records {
		result = append(result, rec.Filename)
	}
	return result
}

func triadRows(images, jsons, texts int) [][]string {
	rows := [][]string{row("OBJ1", "M", "/d/m.xml", "m.xml", "Extensible Markup Language")}
	for i, n := range []int{texts, jsons, images} {
		format := []string{"MSFT-TXT", "MSFT-JSON", "MSFT-PNG"}[i]
		ext := []string{"txt", "json", "png"}[i]
		for j := 0; j < n; j++ {
			name := string(rune('a'+j)) + "." + ext
			rows = append(rows, row("OBJ1", string(rune('A'+j)), "/d/"+name, name, format))
		}
	}
	return rows
}

func TestTranscriptionInventory(t *testing.T) {
	ti := NewTranscriptionInventory(DefaultFormats(), testLogger(t))
	if err := ti.LoadFromTable(mustTable(t, RequiredFields, triadRows(2, 2, 2)...)); err != nil {
		t.Fatal(err)
	}
	if !ti.Initialized() || ti.Empty() || len(ti.Warnings()) != 0 {
		t.Errorf("unexpected state: %v %v %v", ti.Initialized(), ti.Empty(), ti.Warnings())
	}
	expected := []string{"a.png", "b.png", "a.json", "b.json", "a.txt", "b.txt"}
	if diff := deep.Equal(filenames(ti.Files()), expected); diff != nil {
		t.Error(diff)
	}
	if diff := deep.Equal(filenames(ti.JSONFiles()), []string{"a.json", "b.json"}); diff != nil {
		t.Error(diff)
	}
	if len(ti.ImageFiles()) != 2 || len(ti.TextFiles()) != 2 {
		t.Error("per format subsets wrong")
	}
	if err := ti.LoadFromTable(mustTable(t, RequiredFields, triadRows(1, 1, 1)...)); !validation.HasCode(err, validation.AlreadyLoaded) {
		t.Errorf("expected %s, got %v", validation.AlreadyLoaded, err)
	}
}

func TestTranscriptionInventoryMismatch(t *testing.T) {
	ti := NewTranscriptionInventory(DefaultFormats(), testLogger(t))
	if err := ti.LoadFromTable(mustTable(t, RequiredFields, triadRows(3, 3, 2)...)); err != nil {
		t.Fatalf("count mismatch must not be an error: %v", err)
	}
	if !ti.Initialized() || !ti.Empty() {
		t.Errorf("expected initialized empty inventory")
	}
	if len(ti.ImageFiles()) != 0 {
		t.Error("per format subsets must be empty")
	}
	warnings := ti.Warnings()
	if len(warnings) != 1 || warnings[0].Code != validation.FormatMismatch {
		t.Errorf("expected one %s warning, got %v", validation.FormatMismatch, warnings)
	}
}

func TestOCRInventory(t *testing.T) {
	rows := [][]string{
		row("OBJ1", "M", "/d/m.xml", "m.xml", "Extensible Markup Language"),
		row("OBJ1", "A", "/d/a.jp2", "a.jp2", "JPEG 2000 JP2"),
	}
	oi := NewOCRInventory(DefaultFormats(), testLogger(t))
	if err := oi.LoadFromTable(mustTable(t, RequiredFields, rows...)); err != nil {
		t.Fatal(err)
	}
	if !oi.Initialized() || !oi.Empty() {
		t.Error("expected initialized empty inventory")
	}
	if w := oi.Warnings(); len(w) != 1 || w[0].Code != validation.NoDerivatives {
		t.Errorf("expected %s warning, got %v", validation.NoDerivatives, w)
	}

	oi = NewOCRInventory(DefaultFormats(), testLogger(t))
	rows = append(rows, row("OBJ1", "A", "/d/a.txt", "a.txt", "Plain text"))
	if err := oi.LoadFromTable(mustTable(t, RequiredFields, rows...)); err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(filenames(oi.TextFiles()), []string{"a.txt"}); diff != nil {
		t.Error(diff)
	}
	files, err := oi.FilterBy(FieldFileOSN, "A")
	if err != nil || len(files) != 1 {
		t.Errorf("FilterBy: %v %v", files, err)
	}
}

func TestDerivativeInventoryErrors(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
		code  validation.ValidationErrorCode
	}{
		{"empty", mustTable(t, RequiredFields), validation.Empty},
		{"owners", mustTable(t, RequiredFields,
			row("OBJ1", "A", "/d/a.txt", "a.txt", "Plain text"),
			row("OBJ2", "B", "/d/b.txt", "b.txt", "Plain text"),
		), validation.MultipleOwners},
		{"fields", mustTable(t, []string{FieldObjectOSN, FieldFileFormat}, []string{"OBJ1", "Plain text"}), validation.MissingField},
	}
	for _, test := range tests {
		oi := NewOCRInventory(DefaultFormats(), testLogger(t))
		err := oi.LoadFromTable(test.table)
		if !validation.HasCode(err, test.code) {
			t.Errorf("%s: expected %s, got %v", test.name, test.code, err)
		}
		if oi.Initialized() {
			t.Errorf("%s: inventory must not be initialized", test.name)
		}
	}
	oi := NewOCRInventory(DefaultFormats(), testLogger(t))
	if err := oi.LoadFromTable(nil); err == nil {
		t.Error("nil table not reported")
	}
}
