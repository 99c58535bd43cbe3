package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/hansardclean/internal/models"
	"github.com/hyperjump/hansardclean/internal/storage"
)

const (
	maxCleanBody     = 32 << 20
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

type cleanRequest struct {
	Text string `json:"text"`
}

type cleanResponse struct {
	Text   string        `json:"text"`
	Issues models.Issues `json:"issues"`
}

// handleClean cleans the request text. The body is either raw UTF-8 text or,
// with a JSON content type, {"text": "..."}.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCleanBody))
	if err != nil {
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	text := string(body)
	if isJSON(r.Header.Get("Content-Type")) {
		var req cleanRequest
		if err := json.Unmarshal(body, &req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		text = req.Text
	}
	if !utf8.ValidString(text) {
		if !s.config.Input.ReplaceInvalidUTF8 {
			s.respondError(w, http.StatusBadRequest, "text is not valid UTF-8")
			return
		}
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	cleaned, issues := s.proc.Clean(text)
	s.logger.Debug("clean request", zap.Int("bytes_in", len(text)), zap.Int("bytes_out", len(cleaned)))
	s.respondJSON(w, http.StatusOK, cleanResponse{Text: cleaned, Issues: issues})
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

// handleRun runs a batch over the configured input directory.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("run request",
		zap.String("input", s.config.Input.Directory),
		zap.String("output", s.config.Output.Directory))
	summary, err := s.proc.ProcessDirectory(r.Context(), s.config.Input.Directory, s.config.Output.Directory)
	if err != nil {
		s.logger.Error("run failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.respondError(w, http.StatusNotImplemented, "ledger not enabled")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	files, err := s.ledger.ListFiles(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list files failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []*models.FileResult{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"files":  files,
		"offset": offset,
		"limit":  limit,
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		s.respondError(w, http.StatusNotImplemented, "ledger not enabled")
		return
	}
	name := chi.URLParam(r, "name")
	res, err := s.ledger.GetFileByName(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		s.logger.Error("get file failed", zap.String("name", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.proc.Status(r.Context(), s.config.Input.Directory, s.config.Output.Directory)
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
