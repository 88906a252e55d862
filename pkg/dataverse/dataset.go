package dataverse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"emperror.dev/errors"
)

// CreatedDataset identifies a freshly created dataset.
type CreatedDataset struct {
	ID           int64  `json:"id"`
	PersistentID string `json:"persistentId"`
}

// Lock is a lock held on a dataset, e.g. while ingesting files.
type Lock struct {
	LockType string `json:"lockType"`
	Date     string `json:"date"`
	User     string `json:"user"`
	Message  string `json:"message"`
}

// MetadataField is a metadata field as returned by the installation.
// Value is kept raw because its shape depends on TypeClass and Multiple.
type MetadataField struct {
	TypeName  string          `json:"typeName"`
	Multiple  bool            `json:"multiple"`
	TypeClass string          `json:"typeClass"`
	Value     json.RawMessage `json:"value"`
}

// Strings decodes the value of a primitive or vocabulary field.
func (f *MetadataField) Strings() []string {
	if f.Multiple {
		var values []string
		if err := json.Unmarshal(f.Value, &values); err == nil {
			return values
		}
		return nil
	}
	var value string
	if err := json.Unmarshal(f.Value, &value); err == nil {
		return []string{value}
	}
	return nil
}

// Compound decodes the value of a compound field.
func (f *MetadataField) Compound() []map[string]*MetadataField {
	var values []map[string]*MetadataField
	if f.Multiple {
		if err := json.Unmarshal(f.Value, &values); err == nil {
			return values
		}
		return nil
	}
	var value map[string]*MetadataField
	if err := json.Unmarshal(f.Value, &value); err == nil {
		return []map[string]*MetadataField{value}
	}
	return nil
}

type MetadataBlock struct {
	DisplayName string           `json:"displayName"`
	Name        string           `json:"name"`
	Fields      []*MetadataField `json:"fields"`
}

// Field returns the field with typeName or nil.
func (b *MetadataBlock) Field(typeName string) *MetadataField {
	if b == nil {
		return nil
	}
	for _, f := range b.Fields {
		if f.TypeName == typeName {
			return f
		}
	}
	return nil
}

type DataFile struct {
	ID                 int64     `json:"id"`
	PersistentID       string    `json:"persistentId"`
	Filename           string    `json:"filename"`
	Description        string    `json:"description"`
	ContentType        string    `json:"contentType"`
	OriginalFileFormat string    `json:"originalFileFormat"`
	OriginalFileName   string    `json:"originalFileName"`
	CreationDate       string    `json:"creationDate"`
	Filesize           int64     `json:"filesize"`
	StorageIdentifier  string    `json:"storageIdentifier"`
	Checksum           *Checksum `json:"checksum,omitempty"`
}

// FileInfo is a file entry of a dataset version.
type FileInfo struct {
	Label            string    `json:"label"`
	Description      string    `json:"description"`
	DirectoryLabel   string    `json:"directoryLabel"`
	Restricted       bool      `json:"restricted"`
	Categories       []string  `json:"categories"`
	DatasetVersionID int64     `json:"datasetVersionId"`
	DataFile         *DataFile `json:"dataFile"`
}

type DatasetVersion struct {
	ID                  int64                     `json:"id"`
	DatasetID           int64                     `json:"datasetId"`
	DatasetPersistentID string                    `json:"datasetPersistentId"`
	VersionState        string                    `json:"versionState"`
	CreateTime          string                    `json:"createTime"`
	LastUpdateTime      string                    `json:"lastUpdateTime"`
	MetadataBlocks      map[string]*MetadataBlock `json:"metadataBlocks"`
	Files               []*FileInfo               `json:"files"`
}

type DatasetInfo struct {
	ID            int64           `json:"id"`
	Identifier    string          `json:"identifier"`
	Authority     string          `json:"authority"`
	Protocol      string          `json:"protocol"`
	PersistentURL string          `json:"persistentUrl"`
	LatestVersion *DatasetVersion `json:"latestVersion"`
}

// CollectionItem is one entry of a collection listing.
type CollectionItem struct {
	ID         int64  `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Identifier string `json:"identifier"`
	Authority  string `json:"authority"`
	Protocol   string `json:"protocol"`
}

// PID is the persistent id of a dataset item.
func (ci *CollectionItem) PID() string {
	protocol := ci.Protocol
	if protocol == "" {
		protocol = "doi"
	}
	return fmt.Sprintf("%s:%s/%s", protocol, ci.Authority, ci.Identifier)
}

// CreateDataset creates a dataset in collection from its json document.
func (c *Client) CreateDataset(ctx context.Context, collection string, data []byte) (*CreatedDataset, *Response, error) {
	ds := &CreatedDataset{}
	resp, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/dataverses/%s/datasets", url.PathEscape(collection)), nil, data, ds)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot create dataset in %s", collection)
	}
	if ds.PersistentID == "" {
		return nil, nil, errors.Errorf("no persistent id for new dataset in %s", collection)
	}
	return ds, resp, nil
}

// EditMetadata adds or, with replace, overwrites the fields of block.
func (c *Client) EditMetadata(ctx context.Context, pid string, block []byte, replace bool) (*Response, error) {
	query := pidQuery(pid)
	if replace {
		query.Set("replace", "true")
	}
	resp, err := c.doJSON(ctx, http.MethodPut, "/api/datasets/:persistentId/editMetadata/", query, block, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot edit metadata of %s", pid)
	}
	return resp, nil
}

func (c *Client) Locks(ctx context.Context, id int64) ([]Lock, error) {
	locks := []Lock{}
	if _, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/datasets/%d/locks", id), nil, nil, &locks); err != nil {
		return nil, errors.Wrapf(err, "cannot get locks of dataset %d", id)
	}
	return locks, nil
}

// WaitUnlocked polls the locks of dataset id every interval until none is left.
func (c *Client) WaitUnlocked(ctx context.Context, id int64, interval time.Duration) error {
	if interval <= 0 {
		return errors.Errorf("invalid lock poll interval %v", interval)
	}
	for {
		locks, err := c.Locks(ctx, id)
		if err != nil {
			return err
		}
		if len(locks) == 0 {
			return nil
		}
		c.logger.Debug().Msgf("dataset %d locked (%s), waiting %v", id, locks[0].LockType, interval)
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "dataset %d still locked", id)
		case <-time.After(interval):
		}
	}
}

// PublishDataset publishes the dataset as releaseType "major" or "minor".
func (c *Client) PublishDataset(ctx context.Context, pid, releaseType string) (*Response, error) {
	query := pidQuery(pid)
	query.Set("type", releaseType)
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/datasets/:persistentId/actions/:publish", query, nil, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot publish %s", pid)
	}
	return resp, nil
}

// DestroyDataset deletes the dataset permanently, including published versions.
func (c *Client) DestroyDataset(ctx context.Context, pid string) (*Response, error) {
	resp, err := c.doJSON(ctx, http.MethodDelete, "/api/datasets/:persistentId/destroy/", pidQuery(pid), nil, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot destroy %s", pid)
	}
	return resp, nil
}

func (c *Client) CollectionContents(ctx context.Context, alias string) ([]*CollectionItem, error) {
	items := []*CollectionItem{}
	if _, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/dataverses/%s/contents", url.PathEscape(alias)), nil, nil, &items); err != nil {
		return nil, errors.Wrapf(err, "cannot get contents of %s", alias)
	}
	return items, nil
}

func (c *Client) DatasetVersions(ctx context.Context, id int64) ([]*DatasetVersion, error) {
	versions := []*DatasetVersion{}
	if _, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/datasets/%d/versions", id), nil, nil, &versions); err != nil {
		return nil, errors.Wrapf(err, "cannot get versions of dataset %d", id)
	}
	return versions, nil
}

func (c *Client) Dataset(ctx context.Context, pid string) (*DatasetInfo, error) {
	ds := &DatasetInfo{}
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/datasets/:persistentId/", pidQuery(pid), nil, ds); err != nil {
		return nil, errors.Wrapf(err, "cannot get dataset %s", pid)
	}
	return ds, nil
}
