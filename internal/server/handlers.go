package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/observe"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/report"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

// multipartMemory is the part of a multipart body held in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

type cleanRequest struct {
	Text string `json:"text"`
}

type validateRequest struct {
	Original string `json:"original"`
	Cleaned  string `json:"cleaned"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req cleanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Cleaner.Clean(r.Context(), req.Text))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := s.cfg.Validator.Validate(r.Context(), req.Original, req.Cleaned)
	if err != nil {
		observe.Logger(r.Context()).Error("validation failed", "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Processor == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no transcription provider configured"))
		return
	}

	format, download, err := downloadFormat(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, uploadStatus(err), fmt.Errorf("parse upload: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	// An empty size lets the pipeline apply its configured default.
	var size stt.ModelSize
	if m := r.FormValue("model"); m != "" {
		if size, err = stt.ParseModelSize(m); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing audio file: %w", err))
		return
	}
	defer file.Close()

	path, cleanup, err := s.spool(file, header.Filename)
	if err != nil {
		writeError(w, uploadStatus(err), err)
		return
	}
	defer cleanup()

	res, err := s.cfg.Processor.Process(r.Context(), path, size)
	if err != nil {
		observe.Logger(r.Context()).Error("transcript processing failed", "file", header.Filename, "err", err)
		writeError(w, statusFor(err), err)
		return
	}
	res.Source = header.Filename

	if !download {
		writeJSON(w, http.StatusOK, res)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(header.Filename, format)))
	w.WriteHeader(http.StatusOK)
	if err := report.Render(w, res, format); err != nil {
		observe.Logger(r.Context()).Error("render report", "err", err)
	}
}

// spool copies the upload to a temporary file that keeps the original
// extension, which the transcription backends use to detect the format.
func (s *Server) spool(src io.Reader, name string) (string, func(), error) {
	f, err := os.CreateTemp(s.cfg.TempDir, "scribe-upload-*"+filepath.Ext(name))
	if err != nil {
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool upload: %w", err)
	}
	return f.Name(), cleanup, nil
}

func downloadFormat(r *http.Request) (report.Format, bool, error) {
	if !r.URL.Query().Has("download") {
		return report.FormatJSON, false, nil
	}
	f, err := report.ParseFormat(r.URL.Query().Get("download"))
	return f, true, err
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ner.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = report.JSON(w, v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
