package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"docverify/internal/client"
	"docverify/internal/config"
	"docverify/internal/history"
	"docverify/internal/logging"
	"docverify/internal/notifications"
	"docverify/internal/reports"
	"docverify/internal/session"
	"docverify/internal/workflow"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	sessionMu sync.Mutex
	session   *session.Session
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// ensureLogger builds the invocation logger and prunes expired log files.
// Logs go to the log file only unless --verbose was given.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		var (
			logger *slog.Logger
			err    error
		)
		if c.verbose != nil && *c.verbose {
			logger, err = logging.NewFromConfig(cfg)
		} else {
			logger, err = logging.NewFileOnly(cfg)
		}
		if err != nil || logger == nil {
			logger = logging.NewNop()
		}
		if cfg != nil {
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.LogDir(),
				Pattern: "*.log",
				Exclude: []string{filepath.Join(cfg.LogDir(), logging.LogFileName)},
			})
		}
		c.logger = logger.With(logging.String("session_id", c.openSession().ID()))
	})
	return c.logger
}

func (c *commandContext) openSession() *session.Session {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.session == nil {
		c.session = session.OpenFromConfig(c.configValue())
	}
	return c.session
}

func (c *commandContext) close() {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
}

func (c *commandContext) newClient() (*client.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return client.New(
		client.ConfigFromApp(cfg),
		client.WithTokenSource(c.openSession()),
		client.WithLogger(c.ensureLogger()),
	), nil
}

// notifier sends notices to the terminal and, when configured, to ntfy.
func (c *commandContext) notifier(cmd *cobra.Command) notifications.Service {
	return notifications.Multi{
		notifications.NewConsole(cmd.ErrOrStderr()),
		notifications.NewService(c.configValue()),
	}
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withManager runs fn with a workflow manager. A history ledger that cannot
// be opened only disables recording.
func (c *commandContext) withManager(cmd *cobra.Command, fn func(*workflow.Manager) error, extra ...workflow.ManagerOption) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	svc, err := c.newClient()
	if err != nil {
		return err
	}
	logger := c.ensureLogger()
	opts := []workflow.ManagerOption{
		workflow.WithLogger(logger),
		workflow.WithNotifier(c.notifier(cmd)),
	}
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this job will not appear in `docverify history`"),
		)
	} else {
		defer store.Close()
		opts = append(opts, workflow.WithHistory(store))
	}
	return fn(workflow.NewManager(cfg, svc, append(opts, extra...)...))
}

func (c *commandContext) newExporter(cmd *cobra.Command) (*reports.Exporter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	svc, err := c.newClient()
	if err != nil {
		return nil, err
	}
	return reports.NewExporter(svc, cfg.Paths.DownloadDir,
		reports.WithLogger(c.ensureLogger()),
		reports.WithNotifier(c.notifier(cmd)),
	), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
