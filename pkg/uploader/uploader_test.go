package uploader

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/go-test/deep"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/config"
	"github.com/ocfl-archive/gosaef/pkg/dataverse"
	"github.com/ocfl-archive/gosaef/pkg/digitalobject"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/ledger"
	"github.com/rs/zerolog"
)

func testLogger(t *testing.T) zLogger.ZLogger {
	l := zerolog.New(zerolog.NewTestWriter(t))
	return &l
}

type upload struct {
	Path string
	MD   dataverse.FileMetadata
}

type fakeRepo struct {
	collection string
	created    []byte
	uploads    []upload
	direct     []upload
	finalized  []*dataverse.FileMetadata
	block      []byte
	published  string
	waits      int
	fail       map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{fail: map[string]bool{}}
}

var errForbidden = &dataverse.StatusError{Method: http.MethodPost, URL: "fake", StatusCode: http.StatusForbidden, Message: "forbidden"}

func (f *fakeRepo) CreateDataset(ctx context.Context, collection string, data []byte) (*dataverse.CreatedDataset, *dataverse.Response, error) {
	if f.fail["create"] {
		return nil, nil, errors.WithStack(errForbidden)
	}
	f.collection = collection
	f.created = data
	return &dataverse.CreatedDataset{ID: 42, PersistentID: "doi:10.5072/FK2/ABC"},
		&dataverse.Response{StatusCode: http.StatusCreated, Message: "Dataset created"}, nil
}

func (f *fakeRepo) UploadFile(ctx context.Context, pid, filePath string, md *dataverse.FileMetadata) (*dataverse.Response, error) {
	if f.fail[filepath.Base(filePath)] {
		return nil, errors.WithStack(errForbidden)
	}
	f.uploads = append(f.uploads, upload{filePath, *md})
	return &dataverse.Response{StatusCode: http.StatusOK}, nil
}

func (f *fakeRepo) DirectUpload(ctx context.Context, pid, filePath string, md *dataverse.FileMetadata) (*dataverse.FileMetadata, error) {
	if f.fail[filepath.Base(filePath)] {
		return nil, errors.New("storage unavailable")
	}
	f.direct = append(f.direct, upload{filePath, *md})
	reg := *md
	reg.FileName = filepath.Base(filePath)
	reg.StorageIdentifier = "s3://bucket:" + reg.FileName
	reg.MimeType = "application/octet-stream"
	return &reg, nil
}

func (f *fakeRepo) FinalizeDirectUpload(ctx context.Context, pid string, files []*dataverse.FileMetadata) (*dataverse.Response, error) {
	f.finalized = append(f.finalized, files...)
	return &dataverse.Response{StatusCode: http.StatusOK}, nil
}

func (f *fakeRepo) EditMetadata(ctx context.Context, pid string, block []byte, replace bool) (*dataverse.Response, error) {
	if f.fail["metadata"] {
		return nil, errors.WithStack(errForbidden)
	}
	f.block = block
	return &dataverse.Response{StatusCode: http.StatusOK}, nil
}

func (f *fakeRepo) WaitUnlocked(ctx context.Context, id int64, interval time.Duration) error {
	f.waits++
	return nil
}

func (f *fakeRepo) PublishDataset(ctx context.Context, pid, releaseType string) (*dataverse.Response, error) {
	f.published = pid + " " + releaseType
	return &dataverse.Response{StatusCode: http.StatusOK}, nil
}

func testConfig(t *testing.T) *config.SAEFConfig {
	t.Helper()
	conf, err := config.LoadSAEFConfig(`
[Dataset]
author = "Harvard Library"
authoraffiliation = "Harvard University"
contactname = "Curator"
contactaffiliation = "Houghton Library"
contactemail = "curator@example.org"

[Dataverse]
apilogfile = "api.log"
collectionurl = "https://dataverse.example.org/dataverse/saef"
installationurl = "https://dataverse.example.org"
apikey = "secret"
`)
	if err != nil {
		t.Fatal(err)
	}
	conf.DigitalObject.RelationshipsDirectory = filepath.Join(t.TempDir(), "relationships")
	return conf
}

func row(fileOSN, filename, format string) []string {
	return []string{
		"OBJ1", "Letter from Richmond", "urn-3:FHCL:OBJ1", "", "R",
		"urn-3:FHCL:" + fileOSN, fileOSN, "/data/OBJ1/" + filename, filename, format,
		"'99'", "Created:1864;City:Richmond",
	}
}

func testObject(t *testing.T) *digitalobject.SAEFObject {
	t.Helper()
	columns := append(append([]string{}, inventory.RequiredFields...), digitalobject.FieldMMSID, digitalobject.FieldObjectTags)
	table, err := inventory.NewTable(columns,
		row("M1", "mets.xml", "Extensible Markup Language"),
		row("P1", "p1.jp2", "JPEG 2000 JP2"),
		row("P1", "p1.txt", "Plain text"),
	)
	if err != nil {
		t.Fatal(err)
	}
	obj := digitalobject.NewSAEFObject(inventory.DefaultFormats(), testLogger(t))
	if err := obj.LoadFromTable(table, nil); err != nil {
		t.Fatal(err)
	}
	return obj
}

func newTestUploader(t *testing.T, repo Repository, l *ledger.Ledger) (*Uploader, *bytes.Buffer) {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	u, err := New(testObject(t), testConfig(t), repo, dataverse.NewAPILog(buf), l, testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	return u, buf
}

func TestRunNative(t *testing.T) {
	repo := newFakeRepo()
	u, apiLog := newTestUploader(t, repo, nil)
	if err := u.UploadDatafiles(context.Background(), false); err == nil {
		t.Error("upload without dataset not reported")
	}
	if err := u.Run(context.Background(), false, true); err != nil {
		t.Fatal(err)
	}
	if u.PID() != "doi:10.5072/FK2/ABC" || u.DBID() != 42 || repo.collection != "saef" {
		t.Errorf("unexpected dataset %s / %d / %s", u.PID(), u.DBID(), repo.collection)
	}
	paths := []string{}
	for _, up := range repo.uploads {
		paths = append(paths, filepath.Base(up.Path))
	}
	expected := []string{"mets.xml", "p1.jp2", "p1.txt", "OBJ1_pds_relationships.csv", "OBJ1_ocr_relationships.csv"}
	if diff := deep.Equal(paths, expected); diff != nil {
		t.Error(diff)
	}
	data := repo.uploads[0].MD
	if !data.Restrict || data.Categories[0] != "Data" || !strings.HasPrefix(data.Description, "File associated with: Letter from Richmond") {
		t.Errorf("unexpected datafile metadata %+v", data)
	}
	rel := repo.uploads[3].MD
	if rel.Restrict || rel.Categories[1] != "SAEF:PDS Relationship" || !strings.Contains(rel.Description, "doi:10.5072/FK2/ABC") {
		t.Errorf("unexpected relationship metadata %+v", rel)
	}
	if repo.waits != 3 {
		t.Errorf("expected a lock wait per relationship file and publish, got %d", repo.waits)
	}
	if !strings.Contains(string(repo.block), `"customSAEF"`) {
		t.Errorf("unexpected metadata block %s", repo.block)
	}
	if repo.published != "doi:10.5072/FK2/ABC major" {
		t.Errorf("unexpected publish %s", repo.published)
	}
	if len(u.Failed()) != 0 || len(u.Results()) != 5 {
		t.Errorf("unexpected results %d / %d", len(u.Results()), len(u.Failed()))
	}
	for _, fn := range []string{fnCreateDataset, fnUploadDatafiles, fnUploadRelationships, fnUploadSAEFMetadata, fnPublishDataset} {
		if !strings.Contains(apiLog.String(), "\t"+fn+"\t") {
			t.Errorf("no api log entry for %s", fn)
		}
	}
	if err := u.Create(context.Background()); err == nil {
		t.Error("second create not reported")
	}
}

func TestRunDirect(t *testing.T) {
	repo := newFakeRepo()
	repo.fail["p1.txt"] = true
	u, apiLog := newTestUploader(t, repo, nil)
	if err := u.Run(context.Background(), true, false); err != nil {
		t.Fatal(err)
	}
	if len(repo.uploads) != 0 {
		t.Error("native upload used")
	}
	names := []string{}
	for _, reg := range repo.finalized {
		names = append(names, reg.FileName+" "+reg.MimeType)
	}
	expected := []string{
		"mets.xml application/octet-stream",
		"p1.jp2 application/octet-stream",
		"OBJ1_pds_relationships.csv text/csv",
		"OBJ1_ocr_relationships.csv text/csv",
	}
	if diff := deep.Equal(names, expected); diff != nil {
		t.Error(diff)
	}
	failed := u.Failed()
	if len(failed) != 1 || filepath.Base(failed[0].Path) != "p1.txt" {
		t.Errorf("unexpected failures %+v", failed)
	}
	if !strings.Contains(apiLog.String(), "Direct upload failed") {
		t.Error("failed direct upload not logged")
	}
	if repo.published != "" {
		t.Error("published without request")
	}
}

func TestCreateFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.fail["create"] = true
	u, apiLog := newTestUploader(t, repo, nil)
	if err := u.Run(context.Background(), false, false); err == nil {
		t.Fatal("failed create not reported")
	}
	if !strings.Contains(apiLog.String(), "\tapi.create_dataset\t403\t") {
		t.Errorf("unexpected api log %s", apiLog.String())
	}
	if u.PID() != "" {
		t.Error("pid set after failed create")
	}
}

func TestLedger(t *testing.T) {
	l, err := ledger.Open(filepath.Join(t.TempDir(), "saef.sqlite"), false)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	repo := newFakeRepo()
	repo.fail["mets.xml"] = true
	u, _ := newTestUploader(t, repo, l)
	if err := u.Run(context.Background(), false, true); err != nil {
		t.Fatal(err)
	}
	ds, err := l.DatasetByOSN("OBJ1")
	if err != nil || ds == nil {
		t.Fatalf("dataset not recorded: %v", err)
	}
	if ds.PID != u.PID() || ds.Session != u.Session() || !ds.Published || !ds.Completed {
		t.Errorf("unexpected ledger entry %+v", ds)
	}
	files, err := l.Datafiles(u.PID())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 5 || files[0].Status != ledger.StatusFailed || files[1].Status != ledger.StatusRegistered {
		t.Errorf("unexpected datafiles %d", len(files))
	}
}

func TestLedgerIncomplete(t *testing.T) {
	l, err := ledger.Open(filepath.Join(t.TempDir(), "saef.sqlite"), false)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	repo := newFakeRepo()
	repo.fail["metadata"] = true
	u, _ := newTestUploader(t, repo, l)
	if err := u.Run(context.Background(), false, false); err == nil {
		t.Fatal("failing metadata edit not reported")
	}
	ds, err := l.DatasetByOSN("OBJ1")
	if err != nil || ds == nil {
		t.Fatalf("dataset not recorded: %v", err)
	}
	if ds.Completed {
		t.Error("partial upload marked completed")
	}
}

func TestNewErrors(t *testing.T) {
	conf := testConfig(t)
	conf.Dataverse.APIKey = ""
	if _, err := New(testObject(t), conf, newFakeRepo(), dataverse.NewAPILog(&bytes.Buffer{}), nil, testLogger(t)); err == nil {
		t.Error("missing api key not reported")
	}
	conf = testConfig(t)
	conf.Upload.FileDescription = "{{.Title"
	if _, err := New(testObject(t), conf, newFakeRepo(), dataverse.NewAPILog(&bytes.Buffer{}), nil, testLogger(t)); err == nil {
		t.Error("broken template not reported")
	}
	if _, err := New(testObject(t), testConfig(t), nil, nil, nil, testLogger(t)); err == nil {
		t.Error("missing repository not reported")
	}
}
