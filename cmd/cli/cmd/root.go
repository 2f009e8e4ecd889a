package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/picogrid/expedition-sim/pkg/config"
	"github.com/picogrid/expedition-sim/pkg/logger"
)

var (
	cfgFile     string
	archivePath string
	logLevel    string
	noColor     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "expedition-sim",
	Short: "Expedition logistics simulation CLI",
	Long: `Expedition Simulation CLI plans routes across Belize points of interest,
estimates the cost of an expedition, and runs it against a live threat feed
with automatic rerouting.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.expedition-sim/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "scenario archive database (default is expedition.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	_ = viper.BindPFlag("archive.path", rootCmd.PersistentFlags().Lookup("archive"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	defaults := config.Default()
	viper.SetDefault("archive.driver", defaults.Archive.Driver)
	viper.SetDefault("archive.path", defaults.Archive.Path)
	viper.SetDefault("engine_config", "")

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(archiveCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory
		viper.AddConfigPath("$HOME/.expedition-sim")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("EXPEDITION_SIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	_ = viper.ReadInConfig()

	// Configure logger based on flags
	logger.SetLevel(logger.ParseLevel(viper.GetString("log_level")))
	logger.SetNoColor(viper.GetBool("no_color") || !term.IsTerminal(int(os.Stdout.Fd())))
}

// archiveConfig is the archive selected by flags, CLI config and the
// EXPEDITION_ARCHIVE_* variables, in that order of precedence.
func archiveConfig() config.ArchiveConfig {
	ac := config.ArchiveConfig{
		Enabled: true,
		Driver:  viper.GetString("archive.driver"),
		Path:    viper.GetString("archive.path"),
		DSN:     viper.GetString("archive.dsn"),
	}

	env := config.Default()
	env.Archive = ac
	config.MergeWithEnvironment(env)
	if rootCmd.PersistentFlags().Changed("archive") {
		env.Archive.Path = archivePath
	}
	return env.Archive
}
