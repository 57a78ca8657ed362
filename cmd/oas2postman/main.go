package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yourorg/oas2postman/internal/config"
	"github.com/yourorg/oas2postman/internal/logging"
	"github.com/yourorg/oas2postman/internal/server"
	"github.com/yourorg/oas2postman/internal/store"
)

const defaultConfigContent = `convert:
  base_url: ""
  output_format: "json"
  indent: 2
  stable_id: false
  exporter_id: "oas2postman"
  strict: false

filter:
  ignore_paths: []
  include_tags: []
  exclude_tags: []
  skip_deprecated: false

sanitize:
  enabled: true
  headers:
    - Authorization
    - Cookie
    - Set-Cookie
    - X-Api-Key
    - X-Auth-Token
  body_fields:
    - password
    - secret
    - token
    - api_key
    - access_token
    - refresh_token
    - credential
  replacement: "***REDACTED***"

server:
  host: "127.0.0.1"
  port: 3000
  cors_origin: ""
  max_body_bytes: 10485760

store:
  enabled: true

log:
  level: "info"
  format: "text"
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every command.
type globals struct {
	cfgPath string
	verbose bool
	debug   bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "oas2postman",
		Short:         "Convert OpenAPI 3 documents into Postman collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.cfgPath, "config", "", "config file path (default ~/.oas2postman/config.yaml)")
	root.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "print progress")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	root.AddCommand(newInitCmd(g))
	root.AddCommand(newConvertCmd(g))
	root.AddCommand(newValidateCmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newHistoryCmd(g))

	return root
}

// load reads the config and builds the logger for cmd.
func (g *globals) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	level := logging.ParseLevel(cfg.Log.Level)
	if g.debug {
		level = slog.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:  level,
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	})
	return cfg, logger, nil
}

// openStore returns nil when history is disabled.
func openStore(cfg *config.Config) (store.Store, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	return store.NewSQLiteStore(cfg.Store.Path)
}

func newInitCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default config file and history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := g.cfgPath
			if cfgFile == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfgFile = filepath.Join(home, ".oas2postman", "config.yaml")
			}
			if err := os.MkdirAll(filepath.Dir(cfgFile), 0o755); err != nil {
				return err
			}

			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}

			cfg, _, err := g.load(cmd)
			if err != nil {
				return err
			}
			if !cfg.Store.Enabled {
				return nil
			}
			s, err := store.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database ready", cfg.Store.Path)
			return nil
		},
	}
}

func newServeCmd(g *globals) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{Use: "serve", Short: "Start HTTP service", RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := g.load(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = host
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
		srv, err := server.New(cfg, st, logger)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		fmt.Fprintln(cmd.OutOrStdout(), "listening on", "http://"+addr)
		logger.Info("server starting", "addr", addr, "history", st != nil)
		return srv.ListenAndServe(addr)
	}}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&port, "port", 3000, "server port")
	return cmd
}
