package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dkeye/WatchParty/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "watchparty",
	Short:         "Real-time coordination server for watch-party rooms",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("mode", "", "gin mode: debug or release")
	flags.String("log-level", "", "zerolog level")
	flags.String("db-driver", "", "sqlite or postgres")
	flags.String("db-dsn", "", "database connection string")

	rootCmd.AddCommand(serveCmd, schemaCmd)
}

// loadConfig binds the flags that were set to their viper keys.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(func(v *viper.Viper) error {
		for flag, key := range map[string]string{
			"mode":      "mode",
			"log-level": "log_level",
			"db-driver": "db.driver",
			"db-dsn":    "db.dsn",
			"port":      "port",
		} {
			f := cmd.Flags().Lookup(flag)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Mode != "release" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("watchparty failed")
		os.Exit(1)
	}
}
