package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"subgrab/internal/api"
	"subgrab/internal/config"
	"subgrab/internal/logging"
	"subgrab/internal/services"
)

type commandContext struct {
	serverFlag *string
	configFlag *string
	verbose    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(serverFlag, configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// cliLogger writes to stderr so stdout stays reserved for subtitle text.
func (c *commandContext) cliLogger(cfg *config.Config) (*slog.Logger, error) {
	level := "warn"
	if c.verbose != nil && *c.verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// serverAddress returns the daemon address from --server, or "" when the
// command should run locally.
func (c *commandContext) serverAddress() string {
	if c.serverFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.serverFlag)
}

// daemonClient targets --server when given and the configured bind
// otherwise. Wildcard hosts are dialed on loopback.
func (c *commandContext) daemonClient(cfg *config.Config) *api.Client {
	addr := c.serverAddress()
	if addr == "" {
		addr = dialableBind(cfg.Server.Bind)
	}
	return api.NewClient(addr, cfg.Server.APIToken, cfg.ToolTimeout()+30*time.Second)
}

func dialableBind(bind string) string {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// outcomeError carries the pipeline outcome to the process exit code.
type outcomeError struct {
	outcome services.Outcome
	err     error
}

func (e *outcomeError) Error() string { return e.err.Error() }

func (e *outcomeError) Unwrap() error { return e.err }

// exitCode maps failures onto distinct statuses so scripts can tell a video
// without subtitles from a broken installation.
func exitCode(err error) int {
	var oe *outcomeError
	if !errors.As(err, &oe) {
		return 1
	}
	switch oe.outcome {
	case services.OutcomeInputError:
		return 2
	case services.OutcomeNotFound:
		return 3
	case services.OutcomeToolFailure:
		return 4
	default:
		return 1
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func describeConfig(path string, exists bool) string {
	if exists {
		return path
	}
	return fmt.Sprintf("%s (not found; defaults in use)", path)
}
