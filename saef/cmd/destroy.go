package cmd

import (
	"context"
	"fmt"
	"time"

	"emperror.dev/emperror"
	"emperror.dev/errors"
	"github.com/ocfl-archive/gosaef/pkg/dataverse"
	"github.com/ocfl-archive/gosaef/pkg/ledger"
	"github.com/spf13/cobra"
)

const fnDestroyDataset = "SAEF::destroy_dataset"

var destroyCmd = &cobra.Command{
	Use:     "destroy [persistent id]",
	Short:   "deletes a dataset including published versions",
	Example: "saef destroy doi:10.5072/FK2/ABCDEF --yes",
	Args:    cobra.ExactArgs(1),
	Run:     doDestroy,
}

func initDestroy() {
	destroyCmd.Flags().Bool("yes", false, "confirm the deletion")
}

func doDestroy(cmd *cobra.Command, args []string) {
	pid := args[0]
	if !getFlagBool(cmd, "yes") {
		emperror.Panic(cmd.Help())
		cobra.CheckErr(errors.Errorf("deletion of %s not confirmed, use --yes", pid))
		return
	}
	if err := conf.CheckDataverse(); err != nil {
		emperror.Panic(cmd.Help())
		cobra.CheckErr(err)
		return
	}

	logger, closeLogger := createLogger()
	defer closeLogger()

	apiLog, err := dataverse.OpenAPILog(conf.Dataverse.APILogFile)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot open api log '%s'", conf.Dataverse.APILogFile)
		return
	}
	defer apiLog.Close()

	client := dataverse.NewClient(conf.Dataverse.InstallationURL, string(conf.Dataverse.APIKey), time.Duration(conf.Dataverse.Timeout), logger)
	resp, err := client.DestroyDataset(context.Background(), pid)
	if err != nil {
		var se *dataverse.StatusError
		status := any("error")
		if errors.As(err, &se) {
			status = se.StatusCode
		}
		_ = apiLog.Log(fnDestroyDataset, "api.destroy_dataset", status, fmt.Sprintf("%s - %v", pid, err))
		logger.Error().Stack().Err(err).Msgf("cannot destroy dataset %s", pid)
		return
	}
	_ = apiLog.Log(fnDestroyDataset, "api.destroy_dataset", resp.StatusCode, fmt.Sprintf("%s - %s", pid, resp.Message))

	l, err := ledger.Open(conf.Ledger.File, false)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot open ledger '%s'", conf.Ledger.File)
		return
	}
	defer l.Close()
	if err := l.MarkDestroyed(pid); err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot mark %s as destroyed", pid)
		return
	}
	fmt.Printf("%s destroyed\n", pid)
}
