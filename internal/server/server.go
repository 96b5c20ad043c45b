// Package server exposes extraction over HTTP. Clients upload one or more
// documents as multipart form data and receive the extracted records,
// framed as blocks, JSON Lines, or flattened text.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/tsawler/blockstream"
	"github.com/tsawler/blockstream/export"
	"github.com/tsawler/blockstream/model"
)

// SkippedHeader carries the number of uploads a multiple-mode request
// skipped because they were unsupported or failed to extract.
const SkippedHeader = "X-Blockstream-Skipped"

// maxMemory is how much of a multipart form is held in memory before
// spilling to disk.
const maxMemory = 32 << 20

// Server handles extraction requests.
type Server struct {
	dispatcher *blockstream.Dispatcher
	logger     *slog.Logger
	uploadRoot string
	maxBody    int64
	router     chi.Router
}

// New returns a server that extracts with d. Uploads are written below the
// dispatcher's staging directory.
func New(d *blockstream.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := d.Config()

	s := &Server{
		dispatcher: d,
		logger:     logger,
		uploadRoot: cfg.StagingDir,
	}
	if s.uploadRoot == "" {
		s.uploadRoot = os.TempDir()
	}
	if cfg.MaxFileSize > 0 {
		s.maxBody = cfg.MaxFileSize * 8
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Connected"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/extract", s.handleExtract)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.maxBody > 0 {
		if r.ContentLength > s.maxBody {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	mode := r.FormValue("mode")
	if mode == "" {
		mode = "single"
	}
	if mode != "single" && mode != "multiple" {
		writeError(w, http.StatusBadRequest, "mode must be single or multiple")
		return
	}

	outputType := r.FormValue("output_type")
	if outputType == "" {
		outputType = "blocks"
	}
	exp, err := export.ParseFormat(outputType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "output_type must be text, jsonl, or blocks")
		return
	}

	var files []*multipart.FileHeader
	files = append(files, r.MultipartForm.File["file"]...)
	files = append(files, r.MultipartForm.File["files"]...)
	switch {
	case mode == "single" && len(files) != 1:
		writeError(w, http.StatusBadRequest, "single mode requires exactly one file")
		return
	case mode == "multiple" && len(files) == 0:
		writeError(w, http.StatusBadRequest, "multiple mode requires at least one file")
		return
	}

	dir := filepath.Join(s.uploadRoot, "upload-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create upload directory")
		return
	}
	defer os.RemoveAll(dir)

	var records []*model.Record
	if mode == "single" {
		rec, status, err := s.extractOne(r, dir, files[0])
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		records = []*model.Record{rec}
	} else {
		var skipped int
		records, skipped, err = s.extractMany(r, dir, files)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set(SkippedHeader, strconv.Itoa(skipped))
	}

	payload, err := export.New(exp).Payload(records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": payload})
}

// extractOne handles single mode. The returned status accompanies a
// non-nil error.
func (s *Server) extractOne(r *http.Request, dir string, fh *multipart.FileHeader) (*model.Record, int, error) {
	path, err := saveUpload(dir, 0, fh)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	rec, err := s.dispatcher.ExtractAs(r.Context(), path, fh.Filename)
	switch {
	case err == nil:
		return rec, http.StatusOK, nil
	case blockstream.IsSkip(err):
		return nil, http.StatusUnsupportedMediaType, err
	case errors.Is(err, blockstream.ErrFileTooLarge):
		return nil, http.StatusRequestEntityTooLarge, err
	default:
		s.logger.Warn("extraction failed", "source", fh.Filename, "error", err)
		return nil, http.StatusUnprocessableEntity, fmt.Errorf("extraction failed for %s", fh.Filename)
	}
}

// extractMany handles multiple mode. Unsupported and failed uploads are
// counted, not reported as errors.
func (s *Server) extractMany(r *http.Request, dir string, files []*multipart.FileHeader) ([]*model.Record, int, error) {
	inputs := make([]blockstream.Input, 0, len(files))
	for i, fh := range files {
		path, err := saveUpload(dir, i, fh)
		if err != nil {
			return nil, 0, err
		}
		inputs = append(inputs, blockstream.Input{Path: path, Source: fh.Filename})
	}

	records, warnings := s.dispatcher.ExtractInputs(r.Context(), inputs)
	skipped := blockstream.CountWarnings(warnings, blockstream.WarningSkipped) +
		blockstream.CountWarnings(warnings, blockstream.WarningFailed)
	return records, skipped, nil
}

// saveUpload writes fh into dir. The index prefix keeps uploads that share
// a name apart.
func saveUpload(dir string, index int, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, strconv.Itoa(index)+"_"+uploadName(fh.Filename))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

// uploadName reduces a client-supplied file name to a safe base name.
func uploadName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "upload"
	}
	return name
}

// requestLogger logs each request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
