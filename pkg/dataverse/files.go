package dataverse

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ocfl-archive/gosaef/pkg/checksum"
)

type Checksum struct {
	Type  string `json:"@type"`
	Value string `json:"@value"`
}

// FileMetadata is the jsonData part of a file upload. For direct uploads it
// also carries the registration values of the stored file.
type FileMetadata struct {
	Description       string    `json:"description,omitempty"`
	DirectoryLabel    string    `json:"directoryLabel,omitempty"`
	Categories        []string  `json:"categories,omitempty"`
	Restrict          bool      `json:"restrict"`
	StorageIdentifier string    `json:"storageIdentifier,omitempty"`
	FileName          string    `json:"fileName,omitempty"`
	MimeType          string    `json:"mimeType,omitempty"`
	Checksum          *Checksum `json:"checksum,omitempty"`
}

// CollectionAlias returns the alias of a collection given as alias or collection url.
func CollectionAlias(collection string) string {
	if u, err := url.Parse(collection); err == nil && u.Scheme != "" {
		return path.Base(strings.TrimRight(u.Path, "/"))
	}
	return strings.Trim(collection, "/")
}

// multipartBody streams the form fields and the file at filePath as a
// multipart body. The file is only read while the request is sent.
func multipartBody(fields map[string][]byte, fileField, filePath string) (io.ReadCloser, string, error) {
	var fp *os.File
	if fileField != "" {
		var err error
		if fp, err = os.Open(filePath); err != nil {
			return nil, "", errors.Wrapf(err, "cannot open %s", filePath)
		}
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		if fp != nil {
			defer fp.Close()
		}
		pw.CloseWithError(writeMultipart(mw, fields, fileField, fp))
	}()
	return pr, mw.FormDataContentType(), nil
}

func writeMultipart(mw *multipart.Writer, fields map[string][]byte, fileField string, fp *os.File) error {
	if fp != nil {
		part, err := mw.CreateFormFile(fileField, filepath.Base(fp.Name()))
		if err != nil {
			return errors.Wrap(err, "cannot create file part")
		}
		if _, err := io.Copy(part, fp); err != nil {
			return errors.Wrapf(err, "cannot read %s", fp.Name())
		}
	}
	for name, value := range fields {
		if err := mw.WriteField(name, string(value)); err != nil {
			return errors.Wrapf(err, "cannot write field %s", name)
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "cannot close multipart writer")
	}
	return nil
}

// UploadFile adds the file at filePath to dataset pid through the native api.
func (c *Client) UploadFile(ctx context.Context, pid, filePath string, md *FileMetadata) (*Response, error) {
	jsonData, err := json.Marshal(md)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal file metadata")
	}
	body, contentType, err := multipartBody(map[string][]byte{"jsonData": jsonData}, "file", filePath)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	resp, err := c.do(ctx, http.MethodPost, "/api/datasets/:persistentId/add", pidQuery(pid), contentType, body)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot upload %s to %s", filePath, pid)
	}
	return resp, nil
}

type uploadURL struct {
	URL               string            `json:"url"`
	PartSize          int64             `json:"partSize"`
	URLs              map[string]string `json:"urls"`
	StorageIdentifier string            `json:"storageIdentifier"`
}

// DirectUpload puts the file at filePath into the storage of dataset pid and
// returns its registration record for FinalizeDirectUpload. Only single part
// uploads are supported.
func (c *Client) DirectUpload(ctx context.Context, pid, filePath string, md *FileMetadata) (*FileMetadata, error) {
	fi, err := os.Stat(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat %s", filePath)
	}
	query := pidQuery(pid)
	query.Set("size", strconv.FormatInt(fi.Size(), 10))
	target := &uploadURL{}
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/datasets/:persistentId/uploadurls", query, nil, target); err != nil {
		return nil, errors.Wrapf(err, "cannot get upload url for %s", filePath)
	}
	if target.URL == "" {
		return nil, errors.Errorf("no single part upload url for %s (%d parts)", filePath, len(target.URLs))
	}

	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot detect mime type of %s", filePath)
	}
	digests, err := checksum.File(filePath, checksum.DigestMD5)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	fp, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filePath)
	}
	defer fp.Close()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.URL, fp)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create storage request for %s", filePath)
	}
	req.ContentLength = fi.Size()
	req.Header.Set("x-amz-tagging", "dv-state=temp")
	c.logger.Debug().Msgf("PUT %s", target.URL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot put %s to storage", filePath)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return nil, errors.Wrapf(err, "cannot read storage response for %s", filePath)
	}
	if resp.StatusCode/100 != 2 {
		return nil, errors.WithStack(&StatusError{
			Method:     http.MethodPut,
			URL:        target.URL,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		})
	}

	result := &FileMetadata{}
	if md != nil {
		*result = *md
	}
	result.StorageIdentifier = target.StorageIdentifier
	result.FileName = filepath.Base(filePath)
	result.MimeType = mtype.String()
	result.Checksum = &Checksum{
		Type:  checksum.DigestMD5.DataverseName(),
		Value: digests[checksum.DigestMD5],
	}
	return result, nil
}

// FinalizeDirectUpload registers all direct uploaded files with dataset pid.
func (c *Client) FinalizeDirectUpload(ctx context.Context, pid string, files []*FileMetadata) (*Response, error) {
	if len(files) == 0 {
		return nil, errors.Errorf("no files to register with %s", pid)
	}
	jsonData, err := json.Marshal(files)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal file registrations")
	}
	body, contentType, err := multipartBody(map[string][]byte{"jsonData": jsonData}, "", "")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	resp, err := c.do(ctx, http.MethodPost, "/api/datasets/:persistentId/addFiles", pidQuery(pid), contentType, body)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot register %d files with %s", len(files), pid)
	}
	return resp, nil
}
