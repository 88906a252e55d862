package dataverse

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
)

const APILogHeader = "time\tfunction\tapi operation\tstatus\tmessage"

const apiLogTimeFormat = "2006-01-02 15:04:05.000000"

// APILog is the tab separated audit trail of all calls to the installation.
type APILog struct {
	sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

func NewAPILog(w io.Writer) *APILog {
	return &APILog{w: w, now: time.Now}
}

// OpenAPILog opens path for appending. The header is written if the file is new or empty.
func OpenAPILog(path string) (*APILog, error) {
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open api log %s", path)
	}
	fi, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, errors.Wrapf(err, "cannot stat api log %s", path)
	}
	if fi.Size() == 0 {
		if _, err := fmt.Fprintln(fp, APILogHeader); err != nil {
			fp.Close()
			return nil, errors.Wrapf(err, "cannot write header to api log %s", path)
		}
	}
	l := NewAPILog(fp)
	l.closer = fp
	return l, nil
}

var tabReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// Log appends one entry. status is the http status code or a short text.
func (l *APILog) Log(function, operation string, status any, message string) error {
	l.Lock()
	defer l.Unlock()
	if _, err := fmt.Fprintf(l.w, "%s\t%s\t%s\t%v\t%s\n",
		l.now().Format(apiLogTimeFormat),
		tabReplacer.Replace(function),
		tabReplacer.Replace(operation),
		status,
		tabReplacer.Replace(message),
	); err != nil {
		return errors.Wrap(err, "cannot write api log")
	}
	return nil
}

func (l *APILog) Close() error {
	if l.closer == nil {
		return nil
	}
	return errors.WithStack(l.closer.Close())
}
