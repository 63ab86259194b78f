package subtitles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"subgrab/internal/services"
)

// Artifact is a subtitle file produced by yt-dlp.
type Artifact struct {
	Path   string
	Format Format
}

// ArtifactPath returns the file name yt-dlp uses for base, lang and ext.
func ArtifactPath(base, lang string, ext Format) string {
	return base + "." + lang + "." + string(ext)
}

// Locate checks the candidates declared for requested, in order, and returns
// the first regular file found. When none exists the error carries
// services.ErrNotFound: the video simply has no matching track.
func Locate(base, lang string, requested Format) (Artifact, error) {
	candidates := requested.Candidates()
	if len(candidates) == 0 {
		return Artifact{}, services.Wrap(services.ErrValidation, "subtitles", "locate",
			fmt.Sprintf("unsupported format %q", requested), nil)
	}
	tried := make([]string, 0, len(candidates))
	for _, ext := range candidates {
		path := ArtifactPath(base, lang, ext)
		info, err := os.Stat(path)
		switch {
		case err == nil && info.Mode().IsRegular():
			return Artifact{Path: path, Format: ext}, nil
		case err == nil, errors.Is(err, fs.ErrNotExist):
			tried = append(tried, "."+string(ext))
		default:
			return Artifact{}, services.Wrap(services.ErrInternal, "subtitles", "locate", path, err)
		}
	}
	return Artifact{}, services.Wrap(services.ErrNotFound, "subtitles", "locate",
		fmt.Sprintf("no %s subtitles produced (tried %s)", lang, strings.Join(tried, ", ")), nil)
}
