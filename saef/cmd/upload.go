package cmd

import (
	"context"
	"fmt"
	"time"

	"emperror.dev/emperror"
	"emperror.dev/errors"
	configutil "github.com/je4/utils/v2/pkg/config"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/ocfl-archive/gosaef/pkg/dataverse"
	"github.com/ocfl-archive/gosaef/pkg/ledger"
	"github.com/ocfl-archive/gosaef/pkg/uploader"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:     "upload [path to inventory.csv]",
	Aliases: []string{"ingest"},
	Short:   "creates one dataset per digital object and uploads its files, relationships and metadata",
	Example: "saef upload ./inventory.csv --config ./saef.toml --direct --publish",
	Args:    cobra.MaximumNArgs(1),
	Run:     doUpload,
}

func initUpload() {
	uploadCmd.Flags().StringP("object", "o", "", "upload only the object with this osn")
	uploadCmd.Flags().Bool("direct", false, "upload files directly to the storage of the installation")
	uploadCmd.Flags().Bool("publish", false, "publish every dataset after upload")
	uploadCmd.Flags().Bool("force", false, "upload objects which already have a completed dataset in the ledger")
	uploadCmd.Flags().String("collection", "", "url or alias of the target collection")
	uploadCmd.Flags().String("api-key", "", "api token of the installation")
}

func doUploadConf(cmd *cobra.Command) {
	if getFlagBool(cmd, "direct") {
		conf.Upload.Direct = true
	}
	if getFlagBool(cmd, "publish") {
		conf.Upload.Publish = true
	}
	if str := getFlagString(cmd, "collection"); str != "" {
		conf.Dataverse.CollectionURL = str
	}
	if str := getFlagString(cmd, "api-key"); str != "" {
		conf.Dataverse.APIKey = configutil.EnvString(str)
	}
}

func doUpload(cmd *cobra.Command, args []string) {
	logger, closeLogger := createLogger()
	defer closeLogger()

	doUploadConf(cmd)
	if err := conf.CheckDataset(); err != nil {
		emperror.Panic(cmd.Help())
		cobra.CheckErr(err)
		return
	}
	if err := conf.CheckDataverse(); err != nil {
		emperror.Panic(cmd.Help())
		cobra.CheckErr(err)
		return
	}
	force := getFlagBool(cmd, "force")

	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	path := inventoryPath(args)
	results, err := loadObjects(path, getFlagString(cmd, "object"), logger)
	if err != nil {
		logger.Error().Stack().Err(err).Msg("cannot load objects")
		return
	}

	l, err := ledger.Open(conf.Ledger.File, false)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot open ledger '%s'", conf.Ledger.File)
		return
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Error().Stack().Err(err).Msg("cannot close ledger")
		}
	}()

	apiLog, err := dataverse.OpenAPILog(conf.Dataverse.APILogFile)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot open api log '%s'", conf.Dataverse.APILogFile)
		return
	}
	defer func() {
		if err := apiLog.Close(); err != nil {
			logger.Error().Stack().Err(err).Msg("cannot close api log")
		}
	}()

	client := dataverse.NewClient(conf.Dataverse.InstallationURL, string(conf.Dataverse.APIKey), time.Duration(conf.Dataverse.Timeout), logger)
	ctx := context.Background()

	var uploaded, skipped, failed int
	for _, result := range results {
		if result.Err != nil {
			failed++
			continue
		}
		if !force {
			ds, err := l.DatasetByOSN(result.OSN)
			if err != nil {
				logger.Error().Stack().Err(err).Msgf("cannot query ledger for %s", result.OSN)
				failed++
				continue
			}
			if ds != nil && ds.Completed {
				logger.Info().Msgf("%s already uploaded as %s", result.OSN, ds.PID)
				skipped++
				continue
			}
			if ds != nil {
				logger.Warn().Msgf("upload of %s to %s did not complete, creating a new dataset", result.OSN, ds.PID)
			}
		}
		if err := uploadObject(ctx, result, client, apiLog, l, logger); err != nil {
			logger.Error().Stack().Err(err).Msgf("cannot upload %s", result.OSN)
			failed++
			continue
		}
		uploaded++
	}
	fmt.Printf("%d uploaded, %d skipped, %d failed\n", uploaded, skipped, failed)
}

func uploadObject(ctx context.Context, result *objectResult, client *dataverse.Client, apiLog *dataverse.APILog, l *ledger.Ledger, logger zLogger.ZLogger) error {
	up, err := uploader.New(result.Object, conf, client, apiLog, l, logger)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := up.Run(ctx, conf.Upload.Direct, conf.Upload.Publish); err != nil {
		return errors.Wrapf(err, "session %s", up.Session())
	}
	for _, f := range up.Failed() {
		fmt.Printf("[%s] %s failed: %v\n", result.OSN, f.Path, f.Err)
	}
	fmt.Printf("[%s] %s (%d files, %d failed)\n", result.OSN, up.PID(), len(up.Results()), len(up.Failed()))
	return nil
}
