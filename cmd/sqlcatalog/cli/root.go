package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faucetdb/sqlcatalog/internal/config"
)

var (
	cfgFile    string
	cfgErr     error  // set by initConfig, reported by commands that need config
	appVersion string // set in Execute, reported by the MCP server
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlcatalog",
		Short: "Describe SQL Server routines, views and table types",
		Long: `sqlcatalog reads the catalog of a SQL Server database and produces one
immutable model of its stored procedures, functions, views and user-defined
table types: names, parameters, result columns and SQL types, with
identifiers that are safe to emit as code.

The model can be written as JSON or YAML, served over a read-only HTTP API,
or exposed to AI agents through MCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sqlcatalog.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "", "log format: text or json")
	viper.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newIntrospectCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig layers defaults, the config file and SQLCATALOG_* variables
// into the global viper instance. Flags bound with viper.BindPFlag win
// over all three when set.
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	path := cfgFile
	if path == "" {
		path = config.Find()
	}
	if path == "" {
		return
	}
	cfgErr = config.ReadFile(v, path)
}
