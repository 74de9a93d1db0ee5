package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/mediatext/internal/extract"
	"github.com/hyperjump/mediatext/internal/fileid"
	"github.com/hyperjump/mediatext/internal/models"
	"github.com/hyperjump/mediatext/internal/storage"
	"go.uber.org/zap"
)

const originalPrefix = "original_"

type downloadLinks struct {
	Original string `json:"original"`
	Text     string `json:"text"`
}

type uploadResponse struct {
	Success       bool          `json:"success"`
	Filename      string        `json:"filename"`
	Pages         models.Result `json:"pages"`
	FileType      string        `json:"fileType"`
	DownloadLinks downloadLinks `json:"downloadLinks"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.config.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.respondError(w, http.StatusRequestEntityTooLarge, "file too large")
		case errors.Is(err, http.ErrMissingFile):
			s.respondError(w, http.StatusBadRequest, "No file part")
		default:
			s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		}
		return
	}
	defer file.Close()
	if header.Filename == "" {
		s.respondError(w, http.StatusBadRequest, "No selected file")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !s.allowed(ext) {
		s.respondError(w, http.StatusBadRequest, "File type not allowed")
		return
	}

	display := fileid.SecureFilename(header.Filename)
	name := fileid.UniqueName(header.Filename)
	dir := s.config.Storage.UploadDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("upload dir", zap.String("dir", dir), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Error handling upload")
		return
	}
	original := filepath.Join(dir, originalPrefix+name)
	if err := saveUpload(original, file); err != nil {
		s.logger.Error("save upload failed", zap.String("path", original), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Error handling upload")
		return
	}
	s.logger.Debug("upload saved", zap.String("path", original), zap.Int64("size", header.Size))

	textName := extract.ArtifactName(name)
	ex, err := s.extractor.ExtractTo(r.Context(), original, ext, filepath.Join(dir, textName))
	if err != nil {
		s.logger.Error("extraction failed", zap.String("path", original), zap.Error(err))
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			s.respondError(w, http.StatusBadRequest, "Unsupported file type")
			return
		}
		s.respondError(w, http.StatusInternalServerError, "Error processing file")
		return
	}
	links := downloadLinks{Original: "/download/original/" + name}
	if ex.ArtifactPath != "" {
		links.Text = "/download/text/" + textName
	}
	s.respondJSON(w, http.StatusOK, uploadResponse{
		Success:       true,
		Filename:      display,
		Pages:         ex.Result,
		FileType:      ex.Kind.String(),
		DownloadLinks: links,
	})
}

func (s *Server) allowed(ext string) bool {
	for _, e := range s.config.Extensions {
		if strings.EqualFold(strings.TrimPrefix(e, "."), strings.TrimPrefix(ext, ".")) {
			return true
		}
	}
	return false
}

func saveUpload(path string, src io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func (s *Server) handleDownloadOriginal(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	s.serveUpload(w, r, originalPrefix+name, name)
}

func (s *Server) handleDownloadText(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	s.serveUpload(w, r, name, name)
}

// serveUpload sends a file from the upload directory as an attachment. Names that are
// not already safe file names are rejected, so no request can reach outside the directory.
func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request, stored, download string) {
	if download == "" || fileid.SecureFilename(download) != download {
		s.respondError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	path := filepath.Join(s.config.Storage.UploadDir, stored)
	f, err := os.Open(path)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+download+`"`)
	http.ServeContent(w, r, download, info.ModTime(), f)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := storage.RemoveOlderThan(s.config.Storage.UploadDir, s.config.Storage.Retention, s.now())
	if err != nil {
		s.logger.Warn("cleanup incomplete", zap.Error(err))
	}
	s.logger.Info("cleanup completed", zap.Int("removed", len(removed)))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Cleanup completed",
		"removed": len(removed),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"upload_dir": s.config.Storage.UploadDir,
	}
	if n, err := storage.DiskUsageBytes(s.config.Storage.UploadDir); err == nil {
		resp["disk_usage_bytes"] = n
	} else {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	}
	resp["config"] = map[string]interface{}{
		"extensions":        s.config.Extensions,
		"max_upload_mb":     s.config.Server.MaxUploadMB,
		"retention":         s.config.Storage.Retention.String(),
		"ocr_language":      s.config.OCR.Language,
		"ocr_dpi":           s.config.OCR.DPI,
		"speech_language":   s.config.Speech.Language,
		"speech_configured": s.config.Speech.APIKey != "",
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
