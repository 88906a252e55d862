package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"emperror.dev/emperror"
	"emperror.dev/errors"
	"github.com/ocfl-archive/gosaef/pkg/dataverse"
	"github.com/ocfl-archive/gosaef/pkg/inventory"
	"github.com/ocfl-archive/gosaef/pkg/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"inventory"},
	Short:   "writes dataset and datafile inventories of a collection",
	Example: "saef report --datasets datasets.csv --datafiles datafiles.csv --summary summary.md",
	Args:    cobra.NoArgs,
	Run:     doReport,
}

func initReport() {
	reportCmd.Flags().String("collection", "", "url or alias of the collection (default from config)")
	reportCmd.Flags().String("datasets", "", "output file of the dataset inventory")
	reportCmd.Flags().String("datafiles", "", "output file of the datafile inventory")
	reportCmd.Flags().String("summary", "", "output file of the markdown summary (- for console)")
}

func doReportConf(cmd *cobra.Command) {
	if str := getFlagString(cmd, "collection"); str != "" {
		conf.Dataverse.CollectionURL = str
	}
}

func writeInventory(path string, build func() (*inventory.Table, error)) error {
	table, err := build()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(inventory.WriteTableFile(path, table))
}

func doReport(cmd *cobra.Command, args []string) {
	logger, closeLogger := createLogger()
	defer closeLogger()

	doReportConf(cmd)
	datasets := getFlagString(cmd, "datasets")
	datafiles := getFlagString(cmd, "datafiles")
	summary := getFlagString(cmd, "summary")
	if datasets == "" && datafiles == "" && summary == "" {
		emperror.Panic(cmd.Help())
		cobra.CheckErr(errors.New("at least one of --datasets, --datafiles or --summary required"))
		return
	}
	if conf.Dataverse.InstallationURL == "" || conf.Dataverse.CollectionURL == "" {
		emperror.Panic(cmd.Help())
		cobra.CheckErr(errors.New("installation url and collection required"))
		return
	}

	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	client := dataverse.NewClient(conf.Dataverse.InstallationURL, string(conf.Dataverse.APIKey), time.Duration(conf.Dataverse.Timeout), logger)
	alias := dataverse.CollectionAlias(conf.Dataverse.CollectionURL)
	coll, err := report.Load(context.Background(), client, alias, logger)
	if err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot load collection '%s'", alias)
		return
	}
	logger.Info().Msgf("collection '%s': %d datasets", alias, len(coll.Entries))

	if datasets != "" {
		if err := writeInventory(datasets, coll.DatasetInventory); err != nil {
			logger.Error().Stack().Err(err).Msgf("cannot write dataset inventory '%s'", datasets)
		}
	}
	if datafiles != "" {
		if err := writeInventory(datafiles, coll.DatafileInventory); err != nil {
			logger.Error().Stack().Err(err).Msgf("cannot write datafile inventory '%s'", datafiles)
		}
	}
	switch summary {
	case "":
	case "-":
		fmt.Print(coll.Summary())
	default:
		if err := os.WriteFile(summary, []byte(coll.Summary()), 0644); err != nil {
			logger.Error().Stack().Err(err).Msgf("cannot write summary '%s'", summary)
		}
	}
}
