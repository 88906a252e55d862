package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ocfl-archive/gosaef/pkg/dataset"
	"github.com/spf13/cobra"
)

var relationshipsCmd = &cobra.Command{
	Use:     "relationships [path to inventory.csv]",
	Aliases: []string{"rel"},
	Short:   "writes the pds, msft and ocr relationship tables of every object",
	Example: "saef relationships ./inventory.csv --output ./relationships",
	Args:    cobra.MaximumNArgs(1),
	Run:     doRelationships,
}

func initRelationships() {
	relationshipsCmd.Flags().StringP("object", "o", "", "write only the relationships of the object with this osn")
	relationshipsCmd.Flags().String("output", "", "folder for the relationship tables (default from config)")
}

func doRelationshipsConf(cmd *cobra.Command) {
	if str := getFlagString(cmd, "output"); str != "" {
		conf.DigitalObject.RelationshipsDirectory = str
	}
}

func doRelationships(cmd *cobra.Command, args []string) {
	logger, closeLogger := createLogger()
	defer closeLogger()

	doRelationshipsConf(cmd)

	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	if err := os.MkdirAll(conf.DigitalObject.RelationshipsDirectory, 0755); err != nil {
		logger.Error().Stack().Err(err).Msgf("cannot create folder '%s'", conf.DigitalObject.RelationshipsDirectory)
		return
	}
	path := inventoryPath(args)
	results, err := loadObjects(path, getFlagString(cmd, "object"), logger)
	if err != nil {
		logger.Error().Stack().Err(err).Msg("cannot load objects")
		cobra.CheckErr(err)
		return
	}
	var written int
	for _, result := range results {
		if result.Err != nil {
			fmt.Printf("[%s] skipped: %v\n", result.OSN, result.Err)
			continue
		}
		for _, rf := range dataset.RelationshipFiles(result.OSN, conf.DigitalObject) {
			if err := result.Object.WriteRelationships(rf.Path, rf.Class); err != nil {
				logger.Warn().Err(err).Msgf("no %s relationships for %s", rf.Class.Tag(), result.OSN)
				continue
			}
			written++
			fmt.Printf("[%s] %s\n", result.OSN, filepath.ToSlash(rf.Path))
		}
	}
	logger.Info().Msgf("%d relationship tables written to '%s'", written, conf.DigitalObject.RelationshipsDirectory)
}
