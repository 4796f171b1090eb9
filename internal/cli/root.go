// Package cli implements taskctl, a command line client that works directly
// against the configured task store without going through the HTTP server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/infrastructure/persistence"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

// Session is an open task service plus whatever must be released afterwards.
type Session struct {
	Tasks ports.TaskService
	close func() error
}

func (s *Session) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// Opener builds a Session from the config file at path.
type Opener func(path string) (*Session, error)

// OpenFromConfig loads the config, opens the store it names and wraps it in a
// task service. Logging is discarded unless the config asks for debug output.
func OpenFromConfig(path string) (*Session, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log := logger.NewNop()
	if cfg.Logger.Level == "debug" {
		if l, err := logger.New(cfg.Logger); err == nil {
			log = l
		}
	}

	store, err := persistence.Open(cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("opening task store: %w", err)
	}

	return &Session{
		Tasks: services.NewTaskService(services.TaskServiceConfig{
			Repository:  store.Repository,
			Logger:      log,
			EnableLocks: cfg.Features.EnableLocks,
		}),
		close: store.Close,
	}, nil
}

// NewRootCmd wires the taskctl command tree. A nil opener uses OpenFromConfig.
func NewRootCmd(open Opener) *cobra.Command {
	if open == nil {
		open = OpenFromConfig
	}

	var (
		configPath string
		session    *Session
	)
	tasks := func() ports.TaskService { return session.Tasks }

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Manage tasks in the task board store",
		Long: `taskctl reads and edits the same task store the task board server uses.

It loads config/config.yaml (or the file given by --config) and honours the
TASKBOARD_* environment overrides, so it can point at the JSON file, a SQLite
database or PostgreSQL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsStore(cmd) {
				return nil
			}
			s, err := open(configPath)
			if err != nil {
				return err
			}
			session = s
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.ResolvePath("config/config.yaml", "../config/config.yaml"),
		"path to the config file")

	root.AddCommand(
		newVersionCmd(),
		newListCmd(tasks),
		newAddCmd(tasks),
		newShowCmd(tasks),
		newDoneCmd(tasks),
		newRemoveCmd(tasks),
		newStatsCmd(tasks),
	)

	// Cobra skips post-run hooks when RunE fails, so the session is released
	// around each RunE instead.
	closeSession := func() error {
		err := session.Close()
		session = nil
		return err
	}
	for _, c := range root.Commands() {
		releaseAfterRun(c, closeSession)
	}

	return root
}

func releaseAfterRun(cmd *cobra.Command, release func() error) {
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := release(); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args)
	}
}

// needsStore reports whether cmd touches tasks. Help, completion and version
// work without a config file.
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion":
			return false
		}
	}
	return true
}

// Execute runs taskctl with the default opener.
func Execute() error {
	return NewRootCmd(nil).Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskctl %s\ncommit: %s\n", appVersion, appCommit)
		},
	}
}
