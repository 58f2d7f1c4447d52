// Package cmd
package cmd

import (
	"log"

	"craftd/pkg/config"
	"craftd/pkg/utils"
	"craftd/pkg/utils/constants"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           utils.RuntimeModuleName,
	Short:         utils.RuntimeModuleName + " cli",
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Usage()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&config.LogLevelFlag, "loglevel", "l", constants.DefaultLogLevel, "Set log level")
	rootCmd.PersistentFlags().StringVarP(&config.ConfigFlag, "config", "c", "", "The path to the config file")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		execRootPersistentPreRun()
	}
}

func execRootPersistentPreRun() {
	utils.InitEnv()
	config.SetConfig(config.ConfigFlag)
}
