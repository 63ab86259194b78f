package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subgrab/internal/language"
	"subgrab/internal/preflight"
)

const daemonStatusTimeout = 3 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency, and daemon health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines,
				renderStatusLine("Config", statusInfo, describeConfig(ctx.configPath, ctx.configExists), colorize),
				renderStatusLine("Default request", statusInfo,
					fmt.Sprintf("lang=%s (%s) format=%s", cfg.Subtitles.DefaultLanguage,
						language.DisplayName(cfg.Subtitles.DefaultLanguage), cfg.Subtitles.DefaultFormat), colorize),
				renderStatusLine("Cookies", statusInfo, yesNo(cfg.YtDlp.Cookies != ""), colorize),
				renderStatusLine("Notifications", statusInfo, describeNotifications(cfg.Notifications.NtfyTopic), colorize),
				"",
			)

			lines = append(lines, renderSectionHeader("Daemon", colorize)...)
			lines = append(lines, daemonLines(cmd.Context(), ctx, colorize)...)
			lines = append(lines, "")

			results := preflight.RunAll(cmd.Context(), cfg)
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, renderTable(
				[]string{"Check", "Result", "Detail"},
				checkRows(results),
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
				colorize,
			), "")

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, renderTable(
				[]string{"Name", "State", "Version", "Command"},
				dependencyRows(preflight.CheckSystemDeps(cmd.Context(), cfg)),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				colorize,
			))

			_, err = fmt.Fprintln(out, strings.Join(lines, "\n"))
			return err
		},
	}
}

func describeNotifications(topic string) string {
	if topic == "" {
		return "disabled"
	}
	return "ntfy " + topic
}

func daemonLines(parent context.Context, ctx *commandContext, colorize bool) []string {
	cfg, _ := ctx.ensureConfig()
	statusCtx, cancel := context.WithTimeout(parent, daemonStatusTimeout)
	defer cancel()

	status, err := ctx.daemonClient(cfg).Status(statusCtx)
	if err != nil {
		return []string{renderStatusLine("Daemon", statusWarn, "not reachable ("+err.Error()+")", colorize)}
	}
	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("running on %s (pid %d)", status.Bind, status.PID), colorize),
	}
	if status.StartedAt != "" {
		lines = append(lines, renderStatusLine("Started", statusInfo, status.StartedAt, colorize))
	}
	names := make([]string, 0, len(status.Requests.Outcomes))
	for name := range status.Requests.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)
	counts := make([]string, 0, len(names))
	for _, name := range names {
		counts = append(counts, fmt.Sprintf("%s=%d", name, status.Requests.Outcomes[name]))
	}
	summary := fmt.Sprintf("in_flight=%d", status.Requests.InFlight)
	if len(counts) > 0 {
		summary += " " + strings.Join(counts, " ")
	}
	lines = append(lines, renderStatusLine("Requests", statusInfo, summary, colorize))
	return lines
}
