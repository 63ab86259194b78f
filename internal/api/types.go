package api

// SubtitleRequest is the POST /get-subtitles body.
type SubtitleRequest struct {
	URL      string `json:"url"`
	Language string `json:"lang,omitempty"`
	Format   string `json:"format,omitempty"`
}

// SubtitleResponse carries the subtitle content of a successful request.
type SubtitleResponse struct {
	Subtitles string `json:"subtitles"`
	Format    string `json:"format"`
	Language  string `json:"lang"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	// Outcome is the pipeline outcome name, e.g. "not_found".
	Outcome string `json:"outcome,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// RequestStats counts finished requests by outcome since the daemon started.
type RequestStats struct {
	InFlight int64            `json:"inFlight"`
	Outcomes map[string]int64 `json:"outcomes"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StartedAt    string             `json:"startedAt,omitempty"`
	Bind         string             `json:"bind"`
	WorkDir      string             `json:"workDir"`
	LockFilePath string             `json:"lockFilePath"`
	LogPath      string             `json:"logPath,omitempty"`
	Requests     RequestStats       `json:"requests"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
