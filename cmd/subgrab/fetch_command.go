package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"subgrab/internal/api"
	"subgrab/internal/config"
	"subgrab/internal/services"
	"subgrab/internal/subtitles"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download subtitles for a video and print them",
		Long: "Download automatic subtitles for a video.\n\n" +
			"Runs yt-dlp locally unless --server points at a running daemon. " +
			"Formats: vtt and srt return the file as produced, txt returns deduplicated plain text.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := subtitles.Request{URL: args[0], Language: lang, Format: format}

			var text string
			if ctx.serverAddress() != "" {
				text, err = fetchRemote(cmd, ctx, cfg, req)
			} else {
				text, err = fetchLocal(cmd, ctx, cfg, req)
			}
			if err != nil {
				return err
			}
			return writeSubtitles(cmd, output, text)
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Subtitle language code (default from config, usually ru)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: vtt, srt, or txt (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write subtitles to this file instead of stdout")
	return cmd
}

func fetchLocal(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, req subtitles.Request) (string, error) {
	logger, err := ctx.cliLogger(cfg)
	if err != nil {
		return "", fmt.Errorf("init logger: %w", err)
	}
	svc, err := subtitles.NewService(cfg, logger)
	if err != nil {
		return "", err
	}
	result, err := svc.Fetch(cmd.Context(), req)
	if err != nil {
		outcome := services.Classify(err)
		if detail := svc.Detail(err); detail != "" {
			err = fmt.Errorf("%w (%s)", err, detail)
		}
		return "", &outcomeError{outcome: outcome, err: fmt.Errorf("fetch subtitles: %w", err)}
	}
	return result.Text, nil
}

func fetchRemote(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, req subtitles.Request) (string, error) {
	client := ctx.daemonClient(cfg)
	resp, err := client.FetchSubtitles(cmd.Context(), api.SubtitleRequest{
		URL:      req.URL,
		Language: req.Language,
		Format:   req.Format,
	})
	if err != nil {
		return "", &outcomeError{outcome: remoteOutcome(err), err: fmt.Errorf("fetch subtitles: %w", err)}
	}
	return resp.Subtitles, nil
}

func remoteOutcome(err error) services.Outcome {
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) {
		return services.OutcomeInternalError
	}
	if outcome, ok := services.ParseOutcome(statusErr.Body.Outcome); ok {
		return outcome
	}
	switch statusErr.StatusCode {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return services.OutcomeInputError
	case http.StatusNotFound:
		return services.OutcomeNotFound
	default:
		return services.OutcomeInternalError
	}
}

func writeSubtitles(cmd *cobra.Command, output, text string) error {
	if output = strings.TrimSpace(output); output == "" {
		return writeText(cmd.OutOrStdout(), text)
	}
	path, err := config.ExpandPath(output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", len(text), path)
	return nil
}

func writeText(w io.Writer, text string) error {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}
