package report

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvReportPath   = "CHECKMATE_REPORT"
	EnvReportFormat = "CHECKMATE_REPORT_FORMAT"
	EnvConsole      = "CHECKMATE_CONSOLE"
	EnvDebug        = "CHECKMATE_DEBUG"
)

// Format is an output format for a Document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat accepts a format name case-insensitively. An empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected json, yaml, or text)", s)
	}
}

// ConsoleMode controls what a ConsoleTestLogger prints while tests run.
type ConsoleMode int

const (
	ConsoleOff ConsoleMode = iota
	ConsoleFailures
	ConsoleAll
)

func parseConsoleMode(s string) (ConsoleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "off", "false":
		return ConsoleOff, nil
	case "failures":
		return ConsoleFailures, nil
	case "1", "all", "true":
		return ConsoleAll, nil
	default:
		return ConsoleOff, fmt.Errorf("invalid %s value %q (expected 1, failures, or off)", EnvConsole, s)
	}
}

// Config is the report configuration for one test binary.
type Config struct {
	// Path is where the report document is written after the run. Empty means no file.
	Path    string
	Format  Format
	Console ConsoleMode
	// Debug enables the recorder's own diagnostic output on stderr.
	Debug bool
}

// ConfigFromEnv reads a Config from the CHECKMATE_* environment variables.
func ConfigFromEnv() (Config, error) {
	var c Config
	var err error
	c.Path = strings.TrimSpace(os.Getenv(EnvReportPath))
	if c.Format, err = ParseFormat(os.Getenv(EnvReportFormat)); err != nil {
		return Config{}, err
	}
	if c.Format == FormatText {
		return Config{}, fmt.Errorf("%s cannot be text; use json or yaml", EnvReportFormat)
	}
	if c.Console, err = parseConsoleMode(os.Getenv(EnvConsole)); err != nil {
		return Config{}, err
	}
	switch strings.ToLower(os.Getenv(EnvDebug)) {
	case "1", "true", "yes":
		c.Debug = true
	}
	return c, nil
}
