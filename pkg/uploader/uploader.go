package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/config"
	"github.com/ocfl-archive/gosaef/pkg/checksum"
	"github.com/ocfl-archive/gosaef/pkg/dataset"
	"github.com/ocfl-archive/gosaef/pkg/dataverse"
	"github.com/ocfl-archive/gosaef/pkg/digitalobject"
	"github.com/ocfl-archive/gosaef/pkg/ledger"
)

const (
	fnCreateDataset             = "SAEF::create_dataset"
	fnUploadDatafiles           = "SAEF::upload_datafiles"
	fnDirectUploadDatafiles     = "SAEF::direct_upload_datafiles"
	fnUploadRelationships       = "SAEF::upload_relationships"
	fnDirectUploadRelationships = "SAEF::direct_upload_relationships"
	fnUploadSAEFMetadata        = "SAEF::upload_saef_metadata"
	fnPublishDataset            = "SAEF::publish_dataset"
)

const relationshipMimeType = "text/csv"

// Repository is the part of the Dataverse native api the uploader needs.
type Repository interface {
	CreateDataset(ctx context.Context, collection string, data []byte) (*dataverse.CreatedDataset, *dataverse.Response, error)
	UploadFile(ctx context.Context, pid, filePath string, md *dataverse.FileMetadata) (*dataverse.Response, error)
	DirectUpload(ctx context.Context, pid, filePath string, md *dataverse.FileMetadata) (*dataverse.FileMetadata, error)
	FinalizeDirectUpload(ctx context.Context, pid string, files []*dataverse.FileMetadata) (*dataverse.Response, error)
	EditMetadata(ctx context.Context, pid string, block []byte, replace bool) (*dataverse.Response, error)
	WaitUnlocked(ctx context.Context, id int64, interval time.Duration) error
	PublishDataset(ctx context.Context, pid, releaseType string) (*dataverse.Response, error)
}

// FileResult is the outcome of one file upload.
type FileResult struct {
	Path   string
	Status string
	Err    error
}

// Uploader turns one digital object into a dataset with its files and metadata.
type Uploader struct {
	obj       *digitalobject.SAEFObject
	md        *dataset.Metadata
	conf      *config.SAEFConfig
	repo      Repository
	apiLog    *dataverse.APILog
	ledger    *ledger.Ledger
	describer *dataset.Describer
	session   string
	pid       string
	dbid      int64
	results   []*FileResult
	logger    zLogger.ZLogger
}

// New prepares the upload of obj. The ledger may be nil.
func New(obj *digitalobject.SAEFObject, conf *config.SAEFConfig, repo Repository, apiLog *dataverse.APILog, l *ledger.Ledger, logger zLogger.ZLogger) (*Uploader, error) {
	md, err := dataset.New(obj, conf)
	if err != nil {
		return nil, errors.Wrap(err, "cannot build dataset metadata")
	}
	if err := conf.CheckDataverse(); err != nil {
		return nil, errors.WithStack(err)
	}
	if repo == nil || apiLog == nil {
		return nil, errors.New("repository and api log required")
	}
	describer, err := dataset.NewDescriber(conf.Upload.FileDescription, conf.Upload.RelationshipDescription)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Uploader{
		obj:       obj,
		md:        md,
		conf:      conf,
		repo:      repo,
		apiLog:    apiLog,
		ledger:    l,
		describer: describer,
		session:   uuid.New().String(),
		results:   []*FileResult{},
		logger:    logger,
	}, nil
}

func (u *Uploader) Session() string {
	return u.session
}

func (u *Uploader) PID() string {
	return u.pid
}

func (u *Uploader) DBID() int64 {
	return u.dbid
}

func (u *Uploader) Metadata() *dataset.Metadata {
	return u.md
}

// Results of all file uploads so far.
func (u *Uploader) Results() []*FileResult {
	return append([]*FileResult{}, u.results...)
}

// Failed returns the results of files which could not be uploaded.
func (u *Uploader) Failed() []*FileResult {
	failed := []*FileResult{}
	for _, r := range u.results {
		if r.Status == ledger.StatusFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

func statusOf(err error) any {
	var se *dataverse.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return "error"
}

func (u *Uploader) log(function, operation string, status any, message string) {
	if err := u.apiLog.Log(function, operation, status, message); err != nil {
		u.logger.Error().Stack().Err(err).Msg("cannot write api log")
	}
}

func (u *Uploader) requireDataset() error {
	if u.pid == "" {
		return errors.Errorf("no dataset created for %s", u.md.OSN)
	}
	return nil
}

// Create creates the dataset of the object in the configured collection.
func (u *Uploader) Create(ctx context.Context) error {
	if u.pid != "" {
		return errors.Errorf("dataset of %s already created: %s", u.md.OSN, u.pid)
	}
	data, err := u.md.DatasetJSON()
	if err != nil {
		return errors.WithStack(err)
	}
	collection := dataverse.CollectionAlias(u.conf.Dataverse.CollectionURL)
	ds, resp, err := u.repo.CreateDataset(ctx, collection, data)
	if err != nil {
		u.log(fnCreateDataset, "api.create_dataset", statusOf(err), fmt.Sprintf("%s = %v", u.md.OSN, err))
		return errors.Wrapf(err, "cannot create dataset of %s", u.md.OSN)
	}
	u.log(fnCreateDataset, "api.create_dataset", resp.StatusCode, fmt.Sprintf("%s = %s", u.md.OSN, resp.Message))
	u.pid = ds.PersistentID
	u.dbid = ds.ID
	u.log(fnCreateDataset, "api.create_dataset", resp.StatusCode, fmt.Sprintf("%s - dataset_pid=%s", u.md.OSN, u.pid))
	u.logger.Info().Msgf("dataset %s created for %s", u.pid, u.md.OSN)
	if u.ledger != nil {
		if err := u.ledger.AddDataset(&ledger.Dataset{
			OSN:     u.md.OSN,
			PID:     u.pid,
			DBID:    u.dbid,
			Session: u.session,
		}); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (u *Uploader) dataPath(path string) string {
	if filepath.IsAbs(path) || u.conf.Inventory.DataDirectory == "" {
		return path
	}
	return filepath.Join(u.conf.Inventory.DataDirectory, path)
}

func (u *Uploader) record(path, status string, err error) {
	result := &FileResult{Path: path, Status: status, Err: err}
	u.results = append(u.results, result)
	if u.ledger == nil {
		return
	}
	df := &ledger.Datafile{
		PID:      u.pid,
		Filename: filepath.Base(path),
		Path:     path,
		Status:   status,
		Session:  u.session,
	}
	if err != nil {
		df.Message = err.Error()
	} else if digests, cerr := checksum.File(path, checksum.DigestMD5); cerr == nil {
		df.Checksum = digests[checksum.DigestMD5]
	}
	if lerr := u.ledger.AddDatafile(df); lerr != nil {
		u.logger.Error().Stack().Err(lerr).Msgf("cannot record %s", path)
	}
}

func (u *Uploader) pause(ctx context.Context) error {
	d := time.Duration(u.conf.Upload.Pause)
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	case <-time.After(d):
		return nil
	}
}

// UploadDatafiles uploads all files of the object. Failing files are logged
// and recorded; only a failing registration of direct uploads is an error.
func (u *Uploader) UploadDatafiles(ctx context.Context, direct bool) error {
	if err := u.requireDataset(); err != nil {
		return err
	}
	description, err := u.describer.FileDescription(u.md, u.pid)
	if err != nil {
		return errors.WithStack(err)
	}
	categories := u.md.DatafileCategories()
	function := fnUploadDatafiles
	if direct {
		function = fnDirectUploadDatafiles
	}
	registrations := []*dataverse.FileMetadata{}
	uploaded := []string{}
	for _, rec := range u.obj.Files() {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		path := u.dataPath(rec.FilePath)
		fmd := &dataverse.FileMetadata{
			Description: description,
			Categories:  categories,
			Restrict:    rec.Restricted(),
		}
		if direct {
			reg, err := u.repo.DirectUpload(ctx, u.pid, path, fmd)
			if err != nil {
				u.log(function, "api.upload_datafile: "+path, "Direct upload failed", fmt.Sprintf("%s - filename: %s - Upload failed: %v", u.md.OSN, path, err))
				u.logger.Error().Err(err).Msgf("cannot upload %s", path)
				u.record(path, ledger.StatusFailed, err)
				continue
			}
			u.log(function, "api.direct_upload_datafiles", reg.StorageIdentifier, fmt.Sprintf("%s - %s", u.md.OSN, path))
			registrations = append(registrations, reg)
			uploaded = append(uploaded, path)
			continue
		}
		resp, err := u.repo.UploadFile(ctx, u.pid, path, fmd)
		if err != nil {
			u.log(function, "api.upload_datafile: "+path, statusOf(err), fmt.Sprintf("%s - filename: %s - Upload failed: %v", u.md.OSN, path, err))
			u.logger.Error().Err(err).Msgf("cannot upload %s", path)
			u.record(path, ledger.StatusFailed, err)
		} else {
			u.log(function, "api.upload_datafile", resp.StatusCode, fmt.Sprintf("%s - %s", u.md.OSN, path))
			u.record(path, ledger.StatusRegistered, nil)
		}
		// native uploads trigger a reindex of the dataset
		if err := u.pause(ctx); err != nil {
			return err
		}
	}
	if direct {
		return u.finalize(ctx, function, registrations, uploaded)
	}
	return nil
}

func (u *Uploader) finalize(ctx context.Context, function string, registrations []*dataverse.FileMetadata, paths []string) error {
	if len(registrations) == 0 {
		return errors.Errorf("no file of %s uploaded", u.md.OSN)
	}
	resp, err := u.repo.FinalizeDirectUpload(ctx, u.pid, registrations)
	if err != nil {
		u.log(function, "api.finalize_direct_upload", statusOf(err), fmt.Sprintf("%s - %v", u.md.OSN, err))
		for _, path := range paths {
			u.record(path, ledger.StatusFailed, err)
		}
		return errors.Wrapf(err, "cannot register files of %s", u.md.OSN)
	}
	u.log(function, "api.finalize_direct_upload", resp.StatusCode, fmt.Sprintf("%s - %d files", u.md.OSN, len(registrations)))
	for _, path := range paths {
		u.record(path, ledger.StatusRegistered, nil)
	}
	return nil
}

// WriteRelationships writes the relationship tables of all classes which have
// edges and returns the written files.
func (u *Uploader) WriteRelationships() ([]dataset.RelationshipFile, error) {
	written := []dataset.RelationshipFile{}
	for _, rf := range u.md.RelationshipFiles {
		if err := os.MkdirAll(filepath.Dir(rf.Path), 0755); err != nil {
			return nil, errors.Wrapf(err, "cannot create directory for %s", rf.Path)
		}
		if err := u.obj.WriteRelationships(rf.Path, rf.Class); err != nil {
			u.logger.Warn().Msgf("no %s relationships file for %s: %v", rf.Class.Tag(), u.md.OSN, err)
			continue
		}
		written = append(written, rf)
	}
	if len(written) == 0 {
		return nil, errors.Errorf("no relationships for %s", u.md.OSN)
	}
	return written, nil
}

func (u *Uploader) waitUnlocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(u.conf.Dataverse.Timeout))
	defer cancel()
	return u.repo.WaitUnlocked(ctx, u.dbid, time.Duration(u.conf.Dataverse.LockPollInterval))
}

// UploadRelationships writes and uploads the relationship tables. Before each
// upload the dataset has to be free of locks.
func (u *Uploader) UploadRelationships(ctx context.Context, direct bool) error {
	if err := u.requireDataset(); err != nil {
		return err
	}
	files, err := u.WriteRelationships()
	if err != nil {
		return err
	}
	function := fnUploadRelationships
	if direct {
		function = fnDirectUploadRelationships
	}
	now := time.Now()
	registrations := []*dataverse.FileMetadata{}
	uploaded := []string{}
	for _, rf := range files {
		description, err := u.describer.RelationshipDescription(u.md, u.pid, rf.Class, now)
		if err != nil {
			return errors.WithStack(err)
		}
		fmd := &dataverse.FileMetadata{
			Description: description,
			Categories:  u.md.RelationshipCategories(rf.Class),
			Restrict:    false,
		}
		if err := u.waitUnlocked(ctx); err != nil {
			return errors.Wrapf(err, "cannot upload relationships of %s", u.md.OSN)
		}
		if direct {
			reg, err := u.repo.DirectUpload(ctx, u.pid, rf.Path, fmd)
			if err != nil {
				u.log(function, "api.direct_upload_relationships: "+rf.Path, statusOf(err), fmt.Sprintf("%s - filename: %s - Upload failed: %v", u.md.OSN, rf.Path, err))
				u.record(rf.Path, ledger.StatusFailed, err)
				continue
			}
			reg.MimeType = relationshipMimeType
			u.log(function, "api.direct_upload_relationships", reg.StorageIdentifier, fmt.Sprintf("%s - %s", u.md.OSN, rf.Path))
			registrations = append(registrations, reg)
			uploaded = append(uploaded, rf.Path)
			continue
		}
		resp, err := u.repo.UploadFile(ctx, u.pid, rf.Path, fmd)
		if err != nil {
			u.log(function, "api.upload_datafile: "+rf.Path, statusOf(err), fmt.Sprintf("%s - filename: %s - Upload failed: %v", u.md.OSN, rf.Path, err))
			u.record(rf.Path, ledger.StatusFailed, err)
			continue
		}
		u.log(function, "api.upload_datafile", resp.StatusCode, fmt.Sprintf("%s - %s", u.md.OSN, rf.Path))
		u.record(rf.Path, ledger.StatusRegistered, nil)
	}
	if direct {
		return u.finalize(ctx, function, registrations, uploaded)
	}
	return nil
}

// UploadSAEFMetadata replaces the custom SAEF metadata block of the dataset.
func (u *Uploader) UploadSAEFMetadata(ctx context.Context) error {
	if err := u.requireDataset(); err != nil {
		return err
	}
	block, err := u.md.SAEFBlockJSON()
	if err != nil {
		return errors.WithStack(err)
	}
	resp, err := u.repo.EditMetadata(ctx, u.pid, block, true)
	if err != nil {
		u.log(fnUploadSAEFMetadata, "api.editMetadata: "+u.pid, statusOf(err), fmt.Sprintf("Metadata update failed: %v", err))
		return errors.Wrapf(err, "cannot upload saef metadata of %s", u.md.OSN)
	}
	u.log(fnUploadSAEFMetadata, "api.editMetadata", resp.StatusCode, fmt.Sprintf("%s - %s", u.md.OSN, u.pid))
	return nil
}

// Publish releases the dataset as a major version.
func (u *Uploader) Publish(ctx context.Context) error {
	if err := u.requireDataset(); err != nil {
		return err
	}
	if err := u.waitUnlocked(ctx); err != nil {
		return errors.Wrapf(err, "cannot publish %s", u.pid)
	}
	resp, err := u.repo.PublishDataset(ctx, u.pid, "major")
	if err != nil {
		u.log(fnPublishDataset, "api.publish_dataset: "+u.pid, statusOf(err), fmt.Sprintf("%s - %v", u.md.OSN, err))
		return errors.WithStack(err)
	}
	u.log(fnPublishDataset, "api.publish_dataset", resp.StatusCode, fmt.Sprintf("%s - %s", u.md.OSN, u.pid))
	if u.ledger != nil {
		return errors.WithStack(u.ledger.MarkPublished(u.pid))
	}
	return nil
}

// Run executes the whole pipeline for the object. The ledger row is marked
// completed once files, relationships and metadata are uploaded.
func (u *Uploader) Run(ctx context.Context, direct, publish bool) error {
	if err := u.Create(ctx); err != nil {
		return err
	}
	if err := u.UploadDatafiles(ctx, direct); err != nil {
		return err
	}
	if err := u.UploadRelationships(ctx, direct); err != nil {
		return err
	}
	if err := u.UploadSAEFMetadata(ctx); err != nil {
		return err
	}
	if u.ledger != nil {
		if err := u.ledger.MarkCompleted(u.pid); err != nil {
			return errors.WithStack(err)
		}
	}
	if publish {
		return u.Publish(ctx)
	}
	return nil
}
