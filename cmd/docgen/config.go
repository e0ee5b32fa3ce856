package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the command needs to run. Values come from
// Defaults, then DOCGEN_* environment variables, then flags, each layer
// overriding the previous one.
type Config struct {
	DataDir      string
	TemplatesDir string
	OutputDir    string
	FontsDir     string

	DataPath        string
	TemplateName    string
	Identifier      string
	IdentifierField string

	Engine          string
	BrowserPath     string
	WKHTMLTOPDFPath string
	NoSandbox       bool
	Timeout         time.Duration
	PageSize        string
	Landscape       bool

	JournalPath string
	NoOpen      bool
	Verbose     bool
}

// Defaults returns the stock configuration: conventional project-relative
// directories and the chromium engine.
func Defaults() Config {
	return Config{
		DataDir:      "data",
		TemplatesDir: "templates",
		OutputDir:    "out",
		FontsDir:     "assets",
		Engine:       "chromium",
		Timeout:      60 * time.Second,
	}
}

// ApplyEnv overlays DOCGEN_* environment variables onto the config.
// Unset variables leave the current value alone.
func (c *Config) ApplyEnv() {
	c.DataDir = getEnv("DOCGEN_DATA_DIR", c.DataDir)
	c.TemplatesDir = getEnv("DOCGEN_TEMPLATES_DIR", c.TemplatesDir)
	c.OutputDir = getEnv("DOCGEN_OUTPUT_DIR", c.OutputDir)
	c.FontsDir = getEnv("DOCGEN_FONTS_DIR", c.FontsDir)
	c.Engine = getEnv("DOCGEN_ENGINE", c.Engine)
	c.BrowserPath = getEnv("DOCGEN_BROWSER_PATH", c.BrowserPath)
	c.WKHTMLTOPDFPath = getEnv("DOCGEN_WKHTMLTOPDF_PATH", c.WKHTMLTOPDFPath)
	c.JournalPath = getEnv("DOCGEN_JOURNAL", c.JournalPath)
	c.PageSize = getEnv("DOCGEN_PAGE_SIZE", c.PageSize)
	c.Timeout = getEnvDuration("DOCGEN_TIMEOUT", c.Timeout)
	c.NoSandbox = getEnvBool("DOCGEN_NO_SANDBOX", c.NoSandbox)
}

// ResolveDataPath turns the -data value into a loadable path. An empty
// value selects the bundled sample dataset. A value that exists on disk is
// used as given. A bare name is looked up inside DataDir, matching how
// datasets are usually addressed ("invoices.csv" rather than
// "data/invoices.csv"). Anything else is returned unchanged so the loader
// reports the miss in the user's own words.
func (c *Config) ResolveDataPath() string {
	p := strings.TrimSpace(c.DataPath)
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	if !strings.ContainsAny(p, `/\`) && c.DataDir != "" {
		joined := filepath.Join(c.DataDir, p)
		if _, err := os.Stat(joined); err == nil {
			return joined
		}
	}
	return p
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
