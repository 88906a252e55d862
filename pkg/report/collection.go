package report

import (
	"context"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/pkg/dataverse"
)

const typeDataset = "dataset"

// Source is the part of the Dataverse native api needed for reports.
type Source interface {
	CollectionContents(ctx context.Context, alias string) ([]*dataverse.CollectionItem, error)
	DatasetVersions(ctx context.Context, id int64) ([]*dataverse.DatasetVersion, error)
	Dataset(ctx context.Context, pid string) (*dataverse.DatasetInfo, error)
}

// Entry is one dataset of a collection with its latest version.
type Entry struct {
	PID     string
	Item    *dataverse.CollectionItem
	Version *dataverse.DatasetVersion
	Dataset *dataverse.DatasetInfo
}

func (e *Entry) files() []*dataverse.FileInfo {
	if e.Dataset == nil || e.Dataset.LatestVersion == nil {
		return nil
	}
	return e.Dataset.LatestVersion.Files
}

func (e *Entry) block(name string) *dataverse.MetadataBlock {
	if e.Dataset == nil || e.Dataset.LatestVersion == nil {
		return nil
	}
	return e.Dataset.LatestVersion.MetadataBlocks[name]
}

// Collection is the content of a collection as needed for the inventories.
type Collection struct {
	Alias   string
	Entries []*Entry
}

// Load reads all datasets of collection alias. Datasets which cannot be read
// are logged and left out.
func Load(ctx context.Context, src Source, alias string, logger zLogger.ZLogger) (*Collection, error) {
	items, err := src.CollectionContents(ctx, alias)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	coll := &Collection{Alias: alias, Entries: []*Entry{}}
	for _, item := range items {
		if item.Type != "" && item.Type != typeDataset {
			continue
		}
		entry := &Entry{PID: item.PID(), Item: item}
		versions, err := src.DatasetVersions(ctx, item.ID)
		if err != nil {
			logger.Error().Err(err).Msgf("cannot get versions of %s", entry.PID)
		} else if len(versions) > 0 {
			entry.Version = versions[0]
		}
		ds, err := src.Dataset(ctx, entry.PID)
		if err != nil {
			logger.Error().Err(err).Msgf("cannot get dataset %s", entry.PID)
			continue
		}
		entry.Dataset = ds
		coll.Entries = append(coll.Entries, entry)
	}
	if len(coll.Entries) == 0 {
		return nil, errors.Errorf("no datasets in collection %s", alias)
	}
	return coll, nil
}
