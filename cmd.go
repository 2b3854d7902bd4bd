// cmd.go
//
// Command line for the pokeguess server.
//   - pokeguess [serve]     → run the HTTP server (default)
//   - pokeguess migrate     → apply database migrations and exit
//   - pokeguess lookup NAME → resolve one species and print it as JSON
//
// Configuration comes from the environment (and .env); flags override it.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robalobadob/pokeguess/internal/config"
	"github.com/robalobadob/pokeguess/internal/database"
	"github.com/robalobadob/pokeguess/internal/pokeapi"
)

// flagOverrides hold flag values; each applies only when set on the command line.
type flagOverrides struct {
	port      string
	dbPath    string
	logLevel  string
	logFormat string
}

func (o *flagOverrides) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("port") {
		cfg.Port = o.port
	}
	if fs.Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
}

func newCmd() *cobra.Command {
	var (
		cfg   *config.Config
		flags flagOverrides
	)

	cmd := &cobra.Command{
		Use:     "pokeguess",
		Short:   "Guess the hidden Pokémon from field-by-field hints.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			flags.apply(cmd.Flags(), c)
			if err := setupLogging(c.LogLevel, c.LogFormat, cmd.ErrOrStderr()); err != nil {
				return err
			}
			cfg = c
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVarP(&flags.port, "port", "p", "", "port to listen on (env: PORT)")
	fs.StringVar(&flags.dbPath, "db", "", "sqlite database path (env: DB_PATH)")
	fs.StringVar(&flags.logLevel, "log-level", "", "trace|debug|info|warn|error (env: LOG_LEVEL)")
	fs.StringVar(&flags.logFormat, "log-format", "", "json|console (env: LOG_FORMAT)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := database.Open(cmd.Context(), cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := database.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				log.Info().Str("db", cfg.DBPath).Msg("migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "lookup NAME",
			Short: "Resolve a species and print its record",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				api := pokeapi.New(cfg.PokeAPIBaseURL, cfg.LookupTimeout)
				rec, err := api.Lookup(cmd.Context(), args[0])
				if errors.Is(err, pokeapi.ErrNotFound) {
					return fmt.Errorf("no Pokémon named %q", args[0])
				}
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			},
		},
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("pokeguess v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// setupLogging configures the global zerolog logger.
func setupLogging(level, format string, out io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	switch format {
	case "console":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	case "json", "":
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}
