// Package cmd wires the planline command-line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/planline/planline/internal/config"
)

var (
	cfgFile  string
	planPath string
	stateDir string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "planline",
	Short: "Dependency-aware scheduler and status store for phased execution plans",
	Long: `planline parses a phased plan document, tracks per-task execution
status in a crash-safe state file, and computes which tasks can run next
under dependency, phase and sequential-group constraints.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./planline.yaml)")
	rootCmd.PersistentFlags().StringVarP(&planPath, "plan", "p", "PLAN.md", "path to the plan document")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "state directory (default <plan dir>/<store.dir_name>)")
	rootCmd.PersistentFlags().Int("max-parallel", 0, "max tasks per batch (overrides config)")
	rootCmd.PersistentFlags().String("strategy", "", "dispatch strategy: eager, critical-path or adaptive")
	rootCmd.PersistentFlags().String("log-level", "", "log level: DEBUG, INFO, WARN or ERROR")
}

func initConfig(cmd *cobra.Command) error {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("planline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("PLANLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if f := cmd.Flags().Lookup("max-parallel"); f != nil && f.Changed {
		if err := v.BindPFlag("scheduler.max_parallel", f); err != nil {
			return err
		}
	}
	if f := cmd.Flags().Lookup("strategy"); f != nil && f.Changed {
		if err := v.BindPFlag("scheduler.strategy", f); err != nil {
			return err
		}
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		if err := v.BindPFlag("logging.level", f); err != nil {
			return err
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}
