package ledger

import (
	"emperror.dev/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	StatusUploaded   = "uploaded"
	StatusRegistered = "registered"
	StatusFailed     = "failed"
)

// Dataset is a dataset created for a digital object.
type Dataset struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	OSN       string `gorm:"index;not null" json:"osn"`
	PID       string `gorm:"column:pid;uniqueIndex;not null" json:"pid"`
	DBID      int64  `gorm:"column:dbid" json:"dbid"`
	Session   string `gorm:"index" json:"session"`
	Completed bool   `json:"completed"`
	Published bool   `json:"published"`
	Destroyed bool   `json:"destroyed"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Dataset) TableName() string {
	return "datasets"
}

// Datafile is the upload result of one file of a dataset.
type Datafile struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PID      string `gorm:"column:pid;index;not null" json:"pid"`
	Filename string `gorm:"not null" json:"filename"`
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Status   string `gorm:"not null" json:"status"`
	Message  string `json:"message"`
	Session  string `gorm:"index" json:"session"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
}

func (Datafile) TableName() string {
	return "datafiles"
}

// Ledger records which objects were already turned into datasets.
type Ledger struct {
	db *gorm.DB
}

func Open(path string, verbose bool) (*Ledger, error) {
	level := logger.Silent
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open ledger %s", path)
	}
	if err := db.AutoMigrate(&Dataset{}, &Datafile{}); err != nil {
		return nil, errors.Wrapf(err, "cannot migrate ledger %s", path)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(sqlDB.Close())
}

func (l *Ledger) AddDataset(ds *Dataset) error {
	if err := l.db.Create(ds).Error; err != nil {
		return errors.Wrapf(err, "cannot add dataset %s", ds.PID)
	}
	return nil
}

// DatasetByOSN returns the latest not destroyed dataset of osn or nil.
func (l *Ledger) DatasetByOSN(osn string) (*Dataset, error) {
	ds := &Dataset{}
	err := l.db.Where("osn = ? AND destroyed = ?", osn, false).Order("id desc").First(ds).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot query dataset of %s", osn)
	}
	return ds, nil
}

func (l *Ledger) DatasetByPID(pid string) (*Dataset, error) {
	ds := &Dataset{}
	err := l.db.Where("pid = ?", pid).First(ds).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot query dataset %s", pid)
	}
	return ds, nil
}

func (l *Ledger) Datasets() ([]*Dataset, error) {
	datasets := []*Dataset{}
	if err := l.db.Order("id").Find(&datasets).Error; err != nil {
		return nil, errors.Wrap(err, "cannot list datasets")
	}
	return datasets, nil
}

func (l *Ledger) setFlag(pid, column string) error {
	result := l.db.Model(&Dataset{}).Where("pid = ?", pid).Update(column, true)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "cannot mark %s as %s", pid, column)
	}
	if result.RowsAffected == 0 {
		return errors.Errorf("cannot mark %s as %s: dataset not in ledger", pid, column)
	}
	return nil
}

// MarkCompleted records that all steps of the upload of pid succeeded.
func (l *Ledger) MarkCompleted(pid string) error {
	return l.setFlag(pid, "completed")
}

func (l *Ledger) MarkPublished(pid string) error {
	return l.setFlag(pid, "published")
}

func (l *Ledger) MarkDestroyed(pid string) error {
	return l.setFlag(pid, "destroyed")
}

func (l *Ledger) AddDatafile(df *Datafile) error {
	if err := l.db.Create(df).Error; err != nil {
		return errors.Wrapf(err, "cannot add datafile %s of %s", df.Filename, df.PID)
	}
	return nil
}

// UpdateDatafiles sets status of all files of pid which currently have status from.
func (l *Ledger) UpdateDatafiles(pid, session, from, status string) error {
	if err := l.db.Model(&Datafile{}).
		Where("pid = ? AND session = ? AND status = ?", pid, session, from).
		Update("status", status).Error; err != nil {
		return errors.Wrapf(err, "cannot update datafiles of %s", pid)
	}
	return nil
}

func (l *Ledger) Datafiles(pid string) ([]*Datafile, error) {
	files := []*Datafile{}
	if err := l.db.Where("pid = ?", pid).Order("id").Find(&files).Error; err != nil {
		return nil, errors.Wrapf(err, "cannot list datafiles of %s", pid)
	}
	return files, nil
}
