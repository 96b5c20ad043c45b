package blockstream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/blockstream/ocr"
)

// DefaultMaxFileSize is the largest input accepted when Config.MaxFileSize
// is zero.
const DefaultMaxFileSize = 100 << 20

// Config holds dispatcher and extractor settings. The zero value is usable
// once defaults are applied; LoadConfig and DefaultConfig do that.
type Config struct {
	// Workers bounds how many documents a batch extracts at once.
	Workers int `yaml:"workers"`

	// OCRConcurrency bounds how many images of one document are
	// recognized at once. 1 recognizes them in sequence.
	OCRConcurrency int `yaml:"ocr_concurrency"`

	// MaxFileSize rejects larger inputs with ErrFileTooLarge. A negative
	// value disables the check.
	MaxFileSize int64 `yaml:"max_file_size"`

	// StagingDir is where per-document scratch directories are created.
	// Empty uses the system temporary directory.
	StagingDir string `yaml:"staging_dir"`

	OCR ocr.Config `yaml:"ocr"`

	// Engine overrides the OCR engine. Nil uses Tesseract when built
	// with the ocr tag.
	Engine ocr.Engine `yaml:"-"`

	// Logger receives extraction logs. Nil uses slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	var c Config
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.OCRConcurrency <= 0 {
		c.OCRConcurrency = 1
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	c.OCR = c.OCR.WithDefaults()
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// LoadConfig reads a YAML configuration file. An empty path returns
// DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	var c Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	c.defaults()
	return c, nil
}

// ApplyEnv overlays settings from the environment:
//
//	BLOCKSTREAM_WORKERS          Workers
//	BLOCKSTREAM_OCR_CONCURRENCY  OCRConcurrency
//	BLOCKSTREAM_MAX_FILE_SIZE    MaxFileSize (bytes)
//	BLOCKSTREAM_STAGING_DIR      StagingDir
//	BLOCKSTREAM_OCR_LANGS        OCR.Languages (comma-separated)
//	BLOCKSTREAM_OCR_TIMEOUT      OCR.Timeout (e.g. "90s")
//	TESSDATA_PREFIX              OCR.TessdataPrefix
//
// Unset or empty variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := envInt("BLOCKSTREAM_WORKERS", &c.Workers); err != nil {
		return err
	}
	if err := envInt("BLOCKSTREAM_OCR_CONCURRENCY", &c.OCRConcurrency); err != nil {
		return err
	}
	if v := os.Getenv("BLOCKSTREAM_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BLOCKSTREAM_MAX_FILE_SIZE: %w", err)
		}
		c.MaxFileSize = n
	}
	if v := os.Getenv("BLOCKSTREAM_STAGING_DIR"); v != "" {
		c.StagingDir = v
	}
	if v := os.Getenv("BLOCKSTREAM_OCR_LANGS"); v != "" {
		var langs []string
		for _, l := range strings.Split(v, ",") {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
		c.OCR.Languages = langs
	}
	if v := os.Getenv("BLOCKSTREAM_OCR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLOCKSTREAM_OCR_TIMEOUT: %w", err)
		}
		c.OCR.Timeout = d
	}
	if v := os.Getenv("TESSDATA_PREFIX"); v != "" {
		c.OCR.TessdataPrefix = v
	}
	c.defaults()
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
