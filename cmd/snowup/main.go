package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "snowup",
	Short:         "Apply SQL migration scripts to Snowflake and journal what ran",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending script in name order",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfigDoc(viper.GetViper())
		if err != nil {
			return err
		}
		return runUp(cmd.Context(), doc, cmd.OutOrStdout())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending scripts without changing the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		doc, err := loadConfigDoc(v)
		if err != nil {
			return err
		}
		return runStatus(cmd.Context(), doc, cmd.OutOrStdout(), v.GetBool("history"), v.GetInt("history_limit"))
	},
}

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Record every pending script as applied without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfigDoc(viper.GetViper())
		if err != nil {
			return err
		}
		return runMark(cmd.Context(), doc, cmd.OutOrStdout())
	},
}

var ensureDBCmd = &cobra.Command{
	Use:   "ensure-db",
	Short: "Create the database named in the connection settings if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := viper.GetViper()
		doc, err := loadConfigDoc(v)
		if err != nil {
			return err
		}
		return runEnsureDatabase(cmd.Context(), doc, cmd.OutOrStdout(), v.GetString("timeout"))
	},
}

var dropDBCmd = &cobra.Command{
	Use:   "drop-db",
	Short: "Drop the target database (not supported)",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfigDoc(viper.GetViper())
		if err != nil {
			return err
		}
		return runDropDatabase(cmd.Context(), doc)
	},
}

func init() {
	// Defaults
	v := viper.GetViper()
	v.SetDefault("config", defaultConfigPath)
	v.SetDefault("history", false)
	v.SetDefault("history_limit", 10)

	// Environment variables support: SNOWUP_CONFIG, SNOWUP_DSN, ...
	v.SetEnvPrefix("SNOWUP")
	v.AutomaticEnv()

	// Bind flags via Cobra and then bind to Viper
	pf := rootCmd.PersistentFlags()
	pf.String("config", v.GetString("config"), "path to the snowup yaml config")
	pf.String("scripts-dir", "", "directory holding the migration scripts (overrides scripts.dir)")
	pf.String("driver", "", "database driver: snowflake, postgresql or sqlite (overrides database.driver)")
	pf.String("dsn", "", "connection string (overrides database.dsn)")
	statusCmd.Flags().Bool("history", v.GetBool("history"), "also list applied scripts in descending name order")
	statusCmd.Flags().Int("limit", v.GetInt("history_limit"), "number of applied scripts to list with --history")
	ensureDBCmd.Flags().String("timeout", "", "timeout for the create database statement (e.g. 30s)")

	_ = v.BindPFlag("config", pf.Lookup("config"))
	_ = v.BindPFlag("scripts_dir", pf.Lookup("scripts-dir"))
	_ = v.BindPFlag("driver", pf.Lookup("driver"))
	_ = v.BindPFlag("dsn", pf.Lookup("dsn"))
	_ = v.BindPFlag("history", statusCmd.Flags().Lookup("history"))
	_ = v.BindPFlag("history_limit", statusCmd.Flags().Lookup("limit"))
	_ = v.BindPFlag("timeout", ensureDBCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(ensureDBCmd)
	rootCmd.AddCommand(dropDBCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
