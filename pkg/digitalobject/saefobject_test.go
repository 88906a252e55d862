package digitalobject

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/validation"
	"github.com/rs/zerolog"
)

const (
	formatMETS = "Extensible Markup Language"
	formatJP2  = "JPEG 2000 JP2"
)

var saefColumns = append(inventory.RequiredFields[:len(inventory.RequiredFields):len(inventory.RequiredFields)], FieldMMSID, FieldObjectTags)

func testLogger(t *testing.T) zLogger.ZLogger {
	l := zerolog.New(zerolog.NewTestWriter(t))
	return &l
}

func saefRow(osn, fileOSN, filename, format string) []string {
	return []string{
		osn, "Letter from Richmond", "urn-3:FHCL:" + osn, "", "P",
		"urn-3:FHCL:" + fileOSN, fileOSN, "/data/" + osn + "/" + filename, filename, format,
		"'990091469160203941'", "Created:1864;City:Richmond;State:Virginia",
	}
}

func saefTable(t *testing.T, rows ...[]string) *inventory.Table {
	t.Helper()
	table, err := inventory.NewTable(saefColumns, rows...)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func fullObjectRows() [][]string {
	return [][]string{
		saefRow("OBJ1", "M1", "mets.xml", formatMETS),
		saefRow("OBJ1", "P1", "p1.jp2", formatJP2),
		saefRow("OBJ1", "P2", "p2.jpg", "JPEG"),
		saefRow("OBJ1", "P1", "p1.png", "MSFT-PNG"),
		saefRow("OBJ1", "P2", "p2.png", "MSFT-PNG"),
		saefRow("OBJ1", "P1", "p1.json", "MSFT-JSON"),
		saefRow("OBJ1", "P2", "p2.json", "MSFT-JSON"),
		saefRow("OBJ1", "P1", "p1.msft.txt", "MSFT-TXT"),
		saefRow("OBJ1", "P2", "p2.msft.txt", "MSFT-TXT"),
		saefRow("OBJ1", "P1", "p1.txt", "Plain text"),
	}
}

func loadObject(t *testing.T, table *inventory.Table, md *SAEFMetadata) *SAEFObject {
	t.Helper()
	so := NewSAEFObject(inventory.DefaultFormats(), testLogger(t))
	if err := so.LoadFromTable(table, md); err != nil {
		t.Fatalf("cannot load object: %v", err)
	}
	return so
}

func TestStructuralRelationships(t *testing.T) {
	so := loadObject(t, saefTable(t,
		saefRow("OBJ1", "M1", "mets.xml", formatMETS),
		saefRow("OBJ1", "P1", "p1.jp2", formatJP2),
		saefRow("OBJ1", "P2", "p2.jp2", formatJP2),
	), nil)
	edges, err := so.Relationships(ClassPDS)
	if err != nil {
		t.Fatal(err)
	}
	expected := []Edge{
		{"p1.jp2", formatJP2, BelongsTo, "mets.xml", formatMETS},
		{"mets.xml", formatMETS, Contains, "p1.jp2", formatJP2},
		{"p2.jp2", formatJP2, BelongsTo, "mets.xml", formatMETS},
		{"mets.xml", formatMETS, Contains, "p2.jp2", formatJP2},
	}
	if diff := deep.Equal(edges, expected); diff != nil {
		t.Error(diff)
	}
	for _, class := range []RelationshipClass{ClassMSFT, ClassOCR} {
		if edges, _ := so.Relationships(class); len(edges) != 0 {
			t.Errorf("%s: unexpected edges %v", class, edges)
		}
	}
	if len(so.Warnings()) != 2 {
		t.Errorf("expected two missing derivative warnings, got %v", so.Warnings())
	}
	if err := so.WriteRelationships(filepath.Join(t.TempDir(), "ocr.csv"), ClassOCR); err == nil {
		t.Error("writing empty relationship table must fail")
	}
	if _, err := so.Relationships("bogus"); err == nil {
		t.Error("unknown class not reported")
	}
}

func TestDerivativeRelationships(t *testing.T) {
	so := loadObject(t, saefTable(t, fullObjectRows()...), nil)
	msft, _ := so.Relationships(ClassMSFT)
	if len(msft) != 12 {
		t.Errorf("expected 12 transcription edges, got %d", len(msft))
	}
	ocr, _ := so.Relationships(ClassOCR)
	expected := []Edge{
		{"p1.txt", "Plain text", IsDerivedFrom, "p1.jp2", formatJP2},
		{"p1.jp2", formatJP2, IsSourceFor, "p1.txt", "Plain text"},
	}
	if diff := deep.Equal(ocr, expected); diff != nil {
		t.Error(diff)
	}
	if len(so.Files()) != 10 {
		t.Errorf("expected 10 files, got %d", len(so.Files()))
	}
	md := so.Metadata()
	if md.OSN != "OBJ1" || md.MMSID != "'990091469160203941'" || md.ObjectTags != "Created:1864;City:Richmond;State:Virginia" {
		t.Errorf("unexpected metadata %+v", md)
	}
}

func TestRelationshipSymmetry(t *testing.T) {
	reverse := map[Relationship]Relationship{
		BelongsTo: Contains, Contains: BelongsTo,
		IsDerivedFrom: IsSourceFor, IsSourceFor: IsDerivedFrom,
	}
	so := loadObject(t, saefTable(t, fullObjectRows()...), nil)
	for _, class := range RelationshipClasses {
		edges, _ := so.Relationships(class)
		count := map[Edge]int{}
		for _, e := range edges {
			count[e]++
		}
		for _, e := range edges {
			r := Edge{e.FilenameTarget, e.TargetFileFormat, reverse[e.Relationship], e.FilenameSource, e.SourceFileFormat}
			if count[r] != 1 {
				t.Errorf("%s: edge %v has %d reciprocal edges", class, e, count[r])
			}
		}
	}
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i].row(), edges[j].row()
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}

func TestRelationshipRoundTrip(t *testing.T) {
	so := loadObject(t, saefTable(t, fullObjectRows()...), nil)
	dir := t.TempDir()
	for _, class := range RelationshipClasses {
		path := filepath.Join(dir, string(class)+".csv")
		if err := so.WriteRelationships(path, class); err != nil {
			t.Fatal(err)
		}
		fp, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		back, err := ReadRelationships(fp)
		fp.Close()
		if err != nil {
			t.Fatal(err)
		}
		edges, _ := so.Relationships(class)
		sortEdges(edges)
		sortEdges(back)
		if diff := deep.Equal(back, edges); diff != nil {
			t.Errorf("%s: %v", class, diff)
		}
	}
}

func TestIdempotence(t *testing.T) {
	table := saefTable(t, fullObjectRows()...)
	so1 := loadObject(t, table, nil)
	so2 := loadObject(t, table, nil)
	for _, class := range RelationshipClasses {
		e1, _ := so1.Relationships(class)
		e2, _ := so2.Relationships(class)
		if diff := deep.Equal(e1, e2); diff != nil {
			t.Errorf("%s: %v", class, diff)
		}
	}
	if diff := deep.Equal(so1.Metadata(), so2.Metadata()); diff != nil {
		t.Error(diff)
	}
}

func TestMetadataStamping(t *testing.T) {
	rows := fullObjectRows()[:3]
	so := loadObject(t, saefTable(t, rows...), &SAEFMetadata{MMSID: "99123", ObjectTags: "Theme:War"})
	for _, rec := range so.Files() {
		if v, _ := rec.Get(FieldMMSID); v != "99123" {
			t.Errorf("%s: mms_id not stamped: %s", rec.Filename, v)
		}
	}
	if md := so.Metadata(); md.ObjectTags != "Theme:War" {
		t.Errorf("unexpected tags %s", md.ObjectTags)
	}

	so = loadObject(t, saefTable(t, rows...), &SAEFMetadata{MMSID: "99123"})
	if md := so.Metadata(); md.MMSID != "'990091469160203941'" {
		t.Errorf("invalid metadata must be ignored: %+v", md)
	}
	found := false
	for _, w := range so.Warnings() {
		found = found || w.Code == validation.InvalidMetadata
	}
	if !found {
		t.Error("invalid metadata not reported")
	}

	// stamping adds missing columns
	table, err := inventory.NewTable(inventory.RequiredFields,
		saefRow("OBJ1", "M1", "mets.xml", formatMETS)[:10],
		saefRow("OBJ1", "P1", "p1.jp2", formatJP2)[:10],
	)
	if err != nil {
		t.Fatal(err)
	}
	so = loadObject(t, table, &SAEFMetadata{MMSID: "1", ObjectTags: "Genre:Letter"})
	if md := so.Metadata(); md.MMSID != "1" || md.ObjectTags != "Genre:Letter" {
		t.Errorf("unexpected metadata %+v", md)
	}
}

func TestSAEFObjectErrors(t *testing.T) {
	blankPath := fullObjectRows()
	blankPath[4][7] = ""
	noTags, _ := inventory.NewTable(inventory.RequiredFields,
		saefRow("OBJ1", "M1", "mets.xml", formatMETS)[:10],
		saefRow("OBJ1", "P1", "p1.jp2", formatJP2)[:10],
	)
	unresolved := append(fullObjectRows()[:3], saefRow("OBJ1", "P9", "p9.txt", "Plain text"))
	ambiguous := append(fullObjectRows()[:3], saefRow("OBJ1", "P1", "p1b.jp2", formatJP2), saefRow("OBJ1", "P1", "p1.txt", "Plain text"))
	tests := []struct {
		name  string
		table *inventory.Table
		code  validation.ValidationErrorCode
	}{
		{"blank file_path", saefTable(t, blankPath...), validation.MissingFilePath},
		{"two manifests", saefTable(t, append(fullObjectRows(), saefRow("OBJ1", "M2", "mets2.xml", formatMETS))...), validation.MultipleManifests},
		{"no manifest", saefTable(t, fullObjectRows()[1:]...), validation.NoManifest},
		{"no assets", saefTable(t, fullObjectRows()[0]), validation.NoAssets},
		{"two owners", saefTable(t, append(fullObjectRows(), saefRow("OBJ2", "P3", "p3.jp2", formatJP2))...), validation.MultipleOwners},
		{"no saef columns", noTags, validation.MissingField},
		{"unresolved join", saefTable(t, unresolved...), validation.UnresolvedJoin},
		{"ambiguous join", saefTable(t, ambiguous...), validation.UnresolvedJoin},
		{"empty", saefTable(t), validation.Empty},
	}
	for _, test := range tests {
		so := NewSAEFObject(inventory.DefaultFormats(), testLogger(t))
		err := so.LoadFromTable(test.table, nil)
		if !validation.HasCode(err, test.code) {
			t.Errorf("%s: expected %s, got %v", test.name, test.code, err)
		}
		if so.Initialized() || so.Metadata() != nil || len(so.Files()) != 0 {
			t.Errorf("%s: partial state exposed", test.name)
		}
		if edges, _ := so.Relationships(ClassPDS); len(edges) != 0 {
			t.Errorf("%s: relationships exposed", test.name)
		}
	}
}

func TestWarningsLoggedOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	l := zerolog.New(buf)
	so := NewSAEFObject(inventory.DefaultFormats(), &l)
	if err := so.LoadFromTable(saefTable(t,
		saefRow("OBJ1", "M1", "mets.xml", formatMETS),
		saefRow("OBJ1", "P1", "p1.jp2", formatJP2),
		saefRow("OBJ1", "P1", "p1.png", "MSFT-PNG"),
	), nil); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), string(validation.FormatMismatch)); n != 1 {
		t.Errorf("format mismatch logged %d times:\n%s", n, buf.String())
	}
	if n := strings.Count(buf.String(), `"level":"warn"`); n != len(so.Warnings()) {
		t.Errorf("%d warnings logged, %d recorded", n, len(so.Warnings()))
	}

	buf.Reset()
	so = NewSAEFObject(inventory.DefaultFormats(), &l)
	if err := so.LoadFromTable(saefTable(t,
		saefRow("OBJ1", "M1", "mets.xml", formatMETS),
		saefRow("OBJ1", "P1", "p1.jp2", formatJP2),
		saefRow("OBJ1", "P1", "p1.png", "MSFT-PNG"),
		saefRow("OBJ1", "P9", "p9.txt", "Plain text"),
	), nil); !validation.HasCode(err, validation.UnresolvedJoin) {
		t.Fatalf("expected UnresolvedJoin, got %v", err)
	}
	if strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("warnings of failed object logged:\n%s", buf.String())
	}
}
