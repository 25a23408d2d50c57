package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgienger/coreterra/internal/api"
	"github.com/tgienger/coreterra/internal/config"
	"github.com/tgienger/coreterra/internal/db"
	"github.com/tgienger/coreterra/internal/logging"
	"github.com/tgienger/coreterra/internal/session"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

// BuildInfo is stamped by the linker
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootFlags struct {
	configPath string
	apiURL     string
	logLevel   string
}

// NewRootCmd builds the command tree. Running it without a subcommand
// starts the TUI.
func NewRootCmd(info BuildInfo) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "coreterra",
		Short:         "Coreterra: GTD with XP, gold and levels",
		Long:          "Coreterra is a terminal client for the Coreterra task backend. Capture, clarify, organize and engage; finish quests to earn XP and gold.",
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("{{.Name}} v{{.Version}} (commit %s, built %s)\n", info.Commit, info.Date))

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&flags.apiURL, "api-url", "", "backend URL, overrides the config file")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level for commands (debug, info, warn, error)")

	root.AddCommand(
		newTUICmd(flags),
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newWhoamiCmd(flags),
		newTasksCmd(flags),
		newCaptureCmd(flags),
		newCompleteCmd(flags),
		newRewardCmd(),
		newCalendarCmd(flags),
		newConfigCmd(flags),
		newMockServerCmd(flags),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure
func Execute(info BuildInfo) {
	if err := NewRootCmd(info).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Bad.Render(styles.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// env is everything a command needs to talk to the backend
type env struct {
	cfg     *config.Config
	db      *db.DB
	client  *api.Client
	session *session.Session
	store   *state.Store
}

func (e *env) Close() error {
	return e.db.Close()
}

// openEnv loads config, sends logs to w and builds the client stack
func openEnv(flags *rootFlags, w io.Writer) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	level := flags.logLevel
	if level == "" {
		level = "warn"
	}
	logging.Setup(w, level)
	return buildEnv(cfg)
}

func buildEnv(cfg *config.Config, opts ...api.Option) (*env, error) {
	database, err := db.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	opts = append([]api.Option{api.WithTimeout(cfg.Timeout)}, opts...)
	client, err := api.New(cfg.APIURL, database, opts...)
	if err != nil {
		database.Close()
		return nil, err
	}
	return &env{
		cfg:     cfg,
		db:      database,
		client:  client,
		session: session.New(client),
		store:   state.New(client, state.WithNotifier(database)),
	}, nil
}

// requireSession restores the stored session or explains how to get one
func (e *env) requireSession(ctx context.Context) error {
	if err := e.client.Health(ctx); err != nil {
		return fmt.Errorf("cannot reach %s: %w", e.client.BaseURL(), err)
	}
	if err := e.session.Restore(ctx); err != nil {
		return err
	}
	if !e.session.IsAuthenticated() {
		return fmt.Errorf("not signed in; run 'coreterra login'")
	}
	return nil
}
