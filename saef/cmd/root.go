package cmd

import (
	"fmt"
	"log"
	"os"

	"emperror.dev/errors"
	"github.com/ocfl-archive/gosaef/config"
	"github.com/ocfl-archive/gosaef/version"
	"github.com/spf13/cobra"
)

// all possible flags of all modules go here
var persistentFlagConfigFile string

var persistentFlagLogfile string
var persistentFlagLoglevel string

var conf *config.SAEFConfig

var rootCmd = &cobra.Command{
	Use:   "saef",
	Short: "saef packages digitized archival objects as Dataverse datasets",
	Long: fmt.Sprintf(`Builds digital objects from a file inventory, derives the relationships
between page images, transcriptions and ocr text and uploads every object
as a dataset to a Dataverse collection.
Version %s`, version.String()),
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func getFlagString(cmd *cobra.Command, flag string) string {
	str, err := cmd.Flags().GetString(flag)
	if err != nil {
		_ = cmd.Help()
		cobra.CheckErr(errors.Errorf("cannot get flag %s: %v", flag, err))
	}
	return str
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	b, err := cmd.Flags().GetBool(flag)
	if err != nil {
		_ = cmd.Help()
		cobra.CheckErr(errors.Errorf("cannot get flag %s: %v", flag, err))
	}
	return b
}

func initConfig() {
	data := config.DefaultConfig
	if persistentFlagConfigFile != "" {
		var err error
		data, err = os.ReadFile(persistentFlagConfigFile)
		if err != nil {
			_ = rootCmd.Help()
			log.Fatalf("error reading config file %s: %v\n", persistentFlagConfigFile, err)
		}
	}
	var err error
	conf, err = config.LoadSAEFConfig(string(data))
	if err != nil {
		_ = rootCmd.Help()
		log.Fatalf("error loading config file %s: %v\n", persistentFlagConfigFile, err)
	}

	// overwrite config file with command line data
	if persistentFlagLogfile != "" {
		conf.Log.File = persistentFlagLogfile
	}
	if persistentFlagLoglevel != "" {
		conf.Log.Level = persistentFlagLoglevel
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&persistentFlagConfigFile, "config", "", "config file (default is the embedded saef.toml)")
	rootCmd.PersistentFlags().StringVar(&persistentFlagLogfile, "log-file", "", "log output file (default is console)")
	rootCmd.PersistentFlags().StringVar(&persistentFlagLoglevel, "log-level", "", "log level (CRITICAL|ERROR|WARNING|NOTICE|INFO|DEBUG)")

	initValidate()
	initRelationships()
	initUpload()
	initReport()
	initDestroy()

	rootCmd.AddCommand(validateCmd, relationshipsCmd, uploadCmd, reportCmd, destroyCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
