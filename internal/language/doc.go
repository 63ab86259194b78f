// Package language validates subtitle language codes and maps them to
// human-readable names for logs and CLI output.
//
// Codes are passed to yt-dlp and embedded in output file names verbatim, so
// validation is strict about shape: a registered ISO 639 primary subtag
// followed by optional alphanumeric subtags (en, pt-BR, zh-Hans, en-orig).
package language
