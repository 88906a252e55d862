package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ocfl-archive/gosaef/pkg/digitalobject"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:     "validate [path to inventory.csv]",
	Aliases: []string{"check"},
	Short:   "validates a file inventory and the digital objects it describes",
	Example: "saef validate ./inventory.csv",
	Args:    cobra.MaximumNArgs(1),
	Run:     doValidate,
}

func initValidate() {
	validateCmd.Flags().StringP("object", "o", "", "validate only the object with this osn")
	validateCmd.Flags().Bool("files", false, "list the files of every object")
}

func showObject(w io.Writer, result *objectResult, files bool) {
	if result.Err != nil {
		fmt.Fprintf(w, "\n[%s]\n   ERROR: %v\n", result.OSN, result.Err)
		return
	}
	obj := result.Object
	md := obj.Metadata()
	fmt.Fprintf(w, "\n[%s] %s\n", md.OSN, md.Title)
	fmt.Fprintf(w, "   files: %d\n", len(obj.Files()))
	if files {
		for _, f := range obj.Files() {
			fmt.Fprintf(w, "      %s (%s)\n", f.FilePath, f.FileFormat)
		}
	}
	for _, class := range digitalobject.RelationshipClasses {
		edges, _ := obj.Relationships(class)
		fmt.Fprintf(w, "   %s relationships: %d\n", class.Tag(), len(edges))
	}
	for _, warning := range obj.Warnings() {
		fmt.Fprintf(w, "   Validation Warning #%s - %s [%s]\n", warning.Code, warning.Description, warning.Description2)
	}
}

func doValidate(cmd *cobra.Command, args []string) {
	logger, closeLogger := createLogger()
	defer closeLogger()

	t := startTimer()
	defer func() { logger.Info().Msgf("Duration: %s", t.String()) }()

	path := inventoryPath(args)
	logger.Info().Msgf("validating '%s'", path)
	results, err := loadObjects(path, getFlagString(cmd, "object"), logger)
	if err != nil {
		logger.Error().Stack().Err(err).Msg("cannot load objects")
		cobra.CheckErr(err)
		return
	}
	var failed int
	for _, result := range results {
		showObject(os.Stdout, result, getFlagBool(cmd, "files"))
		if result.Err != nil {
			failed++
		}
	}
	fmt.Printf("\n%d objects, %d invalid\n", len(results), failed)
	if failed > 0 {
		closeLogger()
		os.Exit(1)
	}
}
