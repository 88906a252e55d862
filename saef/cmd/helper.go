package cmd

import (
	"crypto/tls"
	"io"
	"log"
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/pkg/digitalobject"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	ublogger "gitlab.switch.ch/ub-unibas/go-ublogger/v2"
	"go.ub.unibas.ch/cloud/certloader/v2/pkg/loader"
)

func startTimer() *timer {
	t := &timer{}
	t.Start()
	return t
}

type timer struct {
	start time.Time
}

func (t *timer) Start() {
	t.start = time.Now()
}

func (t *timer) String() string {
	delta := time.Since(t.start)
	return delta.String()
}

// createLogger builds the process logger from the [Log] section. The returned
// function closes logstash and log file connections.
func createLogger() (zLogger.ZLogger, func()) {
	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("cannot get hostname: %v", err)
	}

	closers := []io.Closer{}
	var loggerTLSConfig *tls.Config
	if conf.Log.Stash.TLS != nil {
		var loggerLoader io.Closer
		loggerTLSConfig, loggerLoader, err = loader.CreateClientLoader(conf.Log.Stash.TLS, nil)
		if err != nil {
			log.Fatalf("cannot create client loader: %v", err)
		}
		closers = append(closers, loggerLoader)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	_logger, _logstash, _logfile, err := ublogger.CreateUbMultiLoggerTLS(conf.Log.Level, conf.Log.File,
		ublogger.SetDataset(conf.Log.Stash.Dataset),
		ublogger.SetLogStash(conf.Log.Stash.LogstashHost, conf.Log.Stash.LogstashPort, conf.Log.Stash.Namespace, conf.Log.Stash.LogstashTraceLevel),
		ublogger.SetTLS(conf.Log.Stash.TLS != nil),
		ublogger.SetTLSConfig(loggerTLSConfig),
	)
	if err != nil {
		log.Fatalf("cannot create logger: %v", err)
	}
	if _logstash != nil {
		closers = append(closers, _logstash)
	}
	if _logfile != nil {
		closers = append(closers, _logfile)
	}

	l2 := _logger.With().Timestamp().Str("host", hostname).Logger()
	var logger zLogger.ZLogger = &l2
	return logger, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}
}

func inventoryPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return conf.Inventory.Filename
}

// objectResult is one object of the inventory, Err is set if it could not be
// built.
type objectResult struct {
	OSN    string
	Object *digitalobject.SAEFObject
	Err    error
}

// loadObjects builds a SAEF object for every object osn of the inventory. If
// only is not empty, all other objects are skipped.
func loadObjects(path string, only string, logger zLogger.ZLogger) ([]*objectResult, error) {
	fi := inventory.NewFileInventory(logger)
	if err := fi.LoadFromFile(path); err != nil {
		return nil, errors.Wrapf(err, "cannot load inventory %s", path)
	}
	var metadata map[string]*digitalobject.SAEFMetadata
	if conf.Dataset.Metadata != "" {
		var err error
		if metadata, err = digitalobject.ReadSAEFMetadataFile(conf.Dataset.Metadata); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	results := []*objectResult{}
	for _, osn := range fi.UniqueOwnerIDs() {
		if only != "" && osn != only {
			continue
		}
		obj := digitalobject.NewSAEFObject(conf.Formats, logger)
		result := &objectResult{OSN: osn}
		if err := obj.LoadFromTable(fi.OwnerTable(osn), metadata[osn]); err != nil {
			logger.Error().Stack().Err(err).Msgf("cannot build object %s", osn)
			result.Err = err
		} else {
			result.Object = obj
		}
		results = append(results, result)
	}
	if only != "" && len(results) == 0 {
		return nil, errors.Errorf("object %s not found in %s", only, path)
	}
	return results, nil
}
