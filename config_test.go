package blockstream

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/tsawler/blockstream/ocr"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", c.Workers, runtime.NumCPU())
	}
	if c.OCRConcurrency != 1 {
		t.Errorf("OCRConcurrency = %d, want 1", c.OCRConcurrency)
	}
	if c.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("MaxFileSize = %d", c.MaxFileSize)
	}
	if !reflect.DeepEqual(c.OCR.Languages, []string{"eng"}) {
		t.Errorf("Languages = %v", c.OCR.Languages)
	}
	if c.OCR.Timeout != ocr.DefaultTimeout || c.OCR.PageSegMode != ocr.PSM_AUTO {
		t.Errorf("OCR = %+v", c.OCR)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		yaml    string
		check   func(t *testing.T, c Config)
		wantErr bool
	}{
		{
			name: "full",
			yaml: `
workers: 3
ocr_concurrency: 2
max_file_size: 1024
staging_dir: /var/tmp/bs
ocr:
  languages: [eng, deu]
  tessdata_prefix: /usr/share/tessdata
  page_seg_mode: 6
  timeout: 90s
`,
			check: func(t *testing.T, c Config) {
				if c.Workers != 3 || c.OCRConcurrency != 2 || c.MaxFileSize != 1024 || c.StagingDir != "/var/tmp/bs" {
					t.Errorf("unexpected config %+v", c)
				}
				if !reflect.DeepEqual(c.OCR.Languages, []string{"eng", "deu"}) {
					t.Errorf("Languages = %v", c.OCR.Languages)
				}
				if c.OCR.Timeout != 90*time.Second || c.OCR.PageSegMode != ocr.PSM_SINGLE_BLOCK {
					t.Errorf("OCR = %+v", c.OCR)
				}
			},
		},
		{
			name: "partial keeps defaults",
			yaml: "workers: 1\n",
			check: func(t *testing.T, c Config) {
				if c.Workers != 1 || c.OCRConcurrency != 1 || c.MaxFileSize != DefaultMaxFileSize {
					t.Errorf("unexpected config %+v", c)
				}
			},
		},
		{
			name: "empty file",
			yaml: "",
			check: func(t *testing.T, c Config) {
				if c.Workers != runtime.NumCPU() {
					t.Errorf("Workers = %d", c.Workers)
				}
			},
		},
		{name: "unknown key", yaml: "wrokers: 2\n", wantErr: true},
		{name: "bad duration", yaml: "ocr:\n  timeout: soon\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			c, err := LoadConfig(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				tt.check(t, c)
			}
		})
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	c, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.OCR, DefaultConfig().OCR) || c.Workers != DefaultConfig().Workers {
		t.Errorf("LoadConfig(\"\") = %+v, want defaults", c)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BLOCKSTREAM_WORKERS", "7")
	t.Setenv("BLOCKSTREAM_OCR_CONCURRENCY", "3")
	t.Setenv("BLOCKSTREAM_MAX_FILE_SIZE", "2048")
	t.Setenv("BLOCKSTREAM_STAGING_DIR", "/scratch")
	t.Setenv("BLOCKSTREAM_OCR_LANGS", "eng, fra ,")
	t.Setenv("BLOCKSTREAM_OCR_TIMEOUT", "5s")
	t.Setenv("TESSDATA_PREFIX", "/opt/tessdata")

	c := DefaultConfig()
	if err := c.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if c.Workers != 7 || c.OCRConcurrency != 3 || c.MaxFileSize != 2048 || c.StagingDir != "/scratch" {
		t.Errorf("unexpected config %+v", c)
	}
	if !reflect.DeepEqual(c.OCR.Languages, []string{"eng", "fra"}) {
		t.Errorf("Languages = %v", c.OCR.Languages)
	}
	if c.OCR.Timeout != 5*time.Second || c.OCR.TessdataPrefix != "/opt/tessdata" {
		t.Errorf("OCR = %+v", c.OCR)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := []struct{ key, value string }{
		{"BLOCKSTREAM_WORKERS", "many"},
		{"BLOCKSTREAM_MAX_FILE_SIZE", "1GB"},
		{"BLOCKSTREAM_OCR_TIMEOUT", "60"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			c := DefaultConfig()
			if err := c.ApplyEnv(); err == nil {
				t.Errorf("ApplyEnv accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}
