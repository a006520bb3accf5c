package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"edubot/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// cli carries global flags and the wired application for one invocation.
type cli struct {
	configPath string
	apiURL     string
	verbose    bool

	app *app
	in  *bufio.Reader
}

// newRootCmd builds the command tree. The returned func releases the store
// and flushes logs; call it once Execute returns.
func newRootCmd() (*cobra.Command, func()) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "edubot",
		Short: "EduBot - AI study companion for classes 1 to 10",
		Long: `EduBot talks to the EduBot API Gateway.

Students open threads per class, subject and topic and ask questions;
admins upload PDFs or web pages that answers are drawn from.

Run "edubot chat" for the interactive dashboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath(), "Config file")
	root.PersistentFlags().StringVar(&c.apiURL, "api", "", "API Gateway base URL (overrides config and API_BASE_URL)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging to stderr")

	root.AddCommand(
		c.signupCmd(), c.verifyCmd(), c.loginCmd(), c.logoutCmd(), c.whoamiCmd(), c.themeCmd(),
		c.uploadCmd(), c.historyCmd(),
		c.topicsCmd(), c.threadsCmd(), c.newThreadCmd(), c.messagesCmd(), c.askCmd(), c.chatCmd(),
		c.serveCmd(),
	)
	return root, c.teardown
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIBaseURL = c.apiURL
	}

	logger, err := c.buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return err
	}
	c.app = a
	c.in = bufio.NewReader(cmd.InOrStdin())
	logger.Debug("command start", zap.String("command", cmd.CommandPath()), zap.String("api", cfg.APIBaseURL))
	return nil
}

func (c *cli) teardown() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

// buildLogger writes production JSON logs to the log file so command output
// and the dashboard stay clean. --verbose adds stderr and debug level.
func (c *cli) buildLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = nil
	zc.ErrorOutputPaths = []string{"stderr"}

	if level, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o700); err != nil {
			return nil, err
		}
		zc.OutputPaths = append(zc.OutputPaths, cfg.Logging.File)
	}
	if c.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		zc.OutputPaths = append(zc.OutputPaths, "stderr")
	}
	if len(zc.OutputPaths) == 0 {
		return zap.NewNop(), nil
	}
	return zc.Build()
}

// ========== PROMPTS ==========

func (c *cli) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword hides input on a terminal and falls back to a plain line
// when stdin is piped.
func (c *cli) promptPassword(cmd *cobra.Command, label string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), label)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	return c.prompt(cmd, label)
}
