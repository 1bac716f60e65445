package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ericksa/clauselens/internal/audit"
	"github.com/ericksa/clauselens/internal/chat"
	"github.com/ericksa/clauselens/internal/document"
	"github.com/ericksa/clauselens/internal/legal"
	"github.com/ericksa/clauselens/internal/middleware"
)

const (
	auditSource      = "http"
	multipartMemory  = 32 << 20
	fileNotFoundText = "File not found. Please re-upload."
)

var errNoFile = errors.New("No file uploaded.")

type documentService interface {
	AnalyzeURL(ctx context.Context, url string) (*legal.Analysis, error)
	AnalyzeDocument(ctx context.Context, data []byte) (*legal.Analysis, error)
	Ask(ctx context.Context, url, question string) (string, error)
}

type uploader interface {
	PutPDF(ctx context.Context, data []byte) (string, error)
}

type api struct {
	service  documentService
	store    uploader
	audit    *audit.Auditor
	maxBytes int64
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) analyzeURL(w http.ResponseWriter, r *http.Request) {
	fileURL := r.URL.Query().Get("fileUrl")
	if fileURL == "" {
		writeDetail(w, http.StatusBadRequest, "fileUrl is required")
		return
	}

	started := time.Now()
	analysis, err := a.service.AnalyzeURL(r.Context(), fileURL)
	a.auditAnalysis(map[string]string{"fileUrl": fileURL}, analysis, started, err)
	if err != nil {
		a.writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (a *api) analyzeUpload(w http.ResponseWriter, r *http.Request) {
	data, name, err := a.readPDF(w, r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	started := time.Now()
	analysis, err := a.service.AnalyzeDocument(r.Context(), data)
	a.auditAnalysis(map[string]any{"file": name, "bytes": len(data)}, analysis, started, err)
	if err != nil {
		a.writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (a *api) auditAnalysis(input any, analysis *legal.Analysis, started time.Time, err error) {
	var output any
	if analysis != nil {
		output = analysis.DocumentSummary
	}
	a.audit.Log(audit.ActionAnalyze, auditSource, input, output, started, err)
}

func (a *api) chat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fileURL, question := q.Get("fileUrl"), q.Get("question")
	if fileURL == "" || question == "" {
		writeDetail(w, http.StatusBadRequest, "fileUrl and question are required")
		return
	}

	started := time.Now()
	answer, err := a.service.Ask(r.Context(), fileURL, question)
	a.audit.Log(audit.ActionChat, auditSource, map[string]string{"fileUrl": fileURL, "question": question}, answer, started, err)
	if err != nil {
		a.writeError(w, r, err, true)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

func (a *api) upload(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Object storage is not enabled.")
		return
	}
	data, name, err := a.readPDF(w, r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	started := time.Now()
	fileURL, err := a.store.PutPDF(r.Context(), data)
	a.audit.Log(audit.ActionUpload, auditSource, map[string]any{"file": name, "bytes": len(data)}, fileURL, started, err)
	if err != nil {
		a.writeError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Upload successful", "fileUrl": fileURL})
}

// readPDF accepts a multipart "file" field or a raw request body.
func (a *api) readPDF(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err == nil {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errNoFile
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		if len(data) == 0 {
			return nil, "", errNoFile
		}
		return data, header.Filename, nil
	} else if !errors.Is(err, http.ErrNotMultipart) {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if buf.Len() == 0 {
		return nil, "", errNoFile
	}
	return buf.Bytes(), "", nil
}

// writeError maps a service failure to a status and a short detail. On
// chat, a document that vanished upstream is reported as 404.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error, chatting bool) {
	log.Printf("[%s] %s %s failed: %v", middleware.RequestID(r.Context()), r.Method, r.URL.Path, err)

	switch {
	case chatting && errors.Is(err, document.ErrNotFound):
		writeDetail(w, http.StatusNotFound, fileNotFoundText)
	case errors.Is(err, document.ErrSourceUnavailable):
		writeDetail(w, http.StatusBadRequest, "Failed to download PDF: "+err.Error())
	case errors.Is(err, chat.ErrEmptyQuestion):
		writeDetail(w, http.StatusBadRequest, "question is required")
	case errors.Is(err, chat.ErrNoClauses):
		writeDetail(w, http.StatusUnprocessableEntity, "Chat unavailable: the document has no clauses.")
	default:
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error: "+err.Error())
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
