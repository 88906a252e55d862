package checksum

import (
	"fmt"
	"hash"
	"io"
	"os"

	"emperror.dev/errors"
)

// ChecksumWriter passes everything to the destination writers and builds
// the digests of all written data.
type ChecksumWriter struct {
	w      io.Writer
	hashes map[DigestAlgorithm]hash.Hash
	closed bool
}

func NewChecksumWriter(checksums []DigestAlgorithm, writer ...io.Writer) (*ChecksumWriter, error) {
	c := &ChecksumWriter{
		hashes: map[DigestAlgorithm]hash.Hash{},
	}
	writers := append([]io.Writer{}, writer...)
	for _, csType := range checksums {
		sink, err := GetHash(csType)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hash function %s", csType)
		}
		c.hashes[csType] = sink
		writers = append(writers, sink)
	}
	c.w = io.MultiWriter(writers...)
	return c, nil
}

func (c *ChecksumWriter) Write(p []byte) (int, error) {
	if c.closed {
		return 0, errors.New("writer already closed")
	}
	return c.w.Write(p)
}

func (c *ChecksumWriter) Close() error {
	if c.closed {
		return errors.New("writer already closed")
	}
	c.closed = true
	return nil
}

// GetChecksums returns the hex digests of everything written so far.
func (c *ChecksumWriter) GetChecksums() map[DigestAlgorithm]string {
	result := map[DigestAlgorithm]string{}
	for csType, sink := range c.hashes {
		result[csType] = fmt.Sprintf("%x", sink.Sum(nil))
	}
	return result
}

func Copy(dst io.Writer, src io.Reader, checksums []DigestAlgorithm) (map[DigestAlgorithm]string, error) {
	cw, err := NewChecksumWriter(checksums, dst)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(cw, src); err != nil {
		cw.Close()
		return nil, errors.Wrap(err, "cannot copy")
	}
	if err := cw.Close(); err != nil {
		return nil, errors.Wrap(err, "error closing checksumwriter")
	}
	return cw.GetChecksums(), nil
}

func Checksum(src io.Reader, checksum DigestAlgorithm) (string, error) {
	sink, err := GetHash(checksum)
	if err != nil {
		return "", errors.Wrapf(err, "invalid checksum type %s", checksum)
	}
	if _, err := io.Copy(sink, src); err != nil {
		return "", errors.Wrapf(err, "cannot create checkum %s", checksum)
	}
	return fmt.Sprintf("%x", sink.Sum(nil)), nil
}

// File builds the digests of the file at path.
func File(path string, checksums ...DigestAlgorithm) (map[DigestAlgorithm]string, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	defer fp.Close()
	result, err := Copy(io.Discard, fp, checksums)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	return result, nil
}
