// Package mcp exposes document analysis and chat as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ericksa/clauselens/internal/audit"
	"github.com/ericksa/clauselens/internal/legal"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const auditSource = "mcp"

// Service is the part of legal.Service the tools need.
type Service interface {
	AnalyzeURL(ctx context.Context, url string) (*legal.Analysis, error)
	Ask(ctx context.Context, url, question string) (string, error)
}

type AnalyzeInput struct {
	FileURL string `json:"file_url" jsonschema:"http(s) or s3:// URL of the PDF to analyse"`
}

type AskInput struct {
	FileURL  string `json:"file_url" jsonschema:"http(s) or s3:// URL of the PDF"`
	Question string `json:"question" jsonschema:"question about the document"`
}

type Handler struct {
	service Service
	audit   *audit.Auditor
	server  *mcp.Server
	http    http.Handler
}

// NewHandler registers the tools. auditor may be nil.
func NewHandler(service Service, auditor *audit.Auditor, version string) *Handler {
	h := &Handler{service: service, audit: auditor}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "clauselens",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_document",
		Description: "Score every clause of a legal PDF for risk to the signing party and summarise the document",
	}, h.analyzeDocument)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Answer a question about a legal PDF using only its most relevant clauses",
	}, h.askDocument)

	h.server = server
	h.http = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	return h
}

// Server returns the underlying MCP server, for stdio or in-memory use.
func (h *Handler) Server() *mcp.Server { return h.server }

func (h *Handler) analyzeDocument(ctx context.Context, req *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, any, error) {
	started := time.Now()
	analysis, err := h.service.AnalyzeURL(ctx, in.FileURL)
	if err != nil {
		h.audit.Log(audit.ActionAnalyze, auditSource, in, nil, started, err)
		return toolError(err), nil, nil
	}
	h.audit.Log(audit.ActionAnalyze, auditSource, in, analysis.DocumentSummary, started, nil)

	body, err := json.Marshal(analysis)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}, nil, nil
}

func (h *Handler) askDocument(ctx context.Context, req *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, any, error) {
	started := time.Now()
	answer, err := h.service.Ask(ctx, in.FileURL, in.Question)
	h.audit.Log(audit.ActionChat, auditSource, in, answer, started, err)
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: answer}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	log.Printf("MCP tool failed: %v", err)
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.http.ServeHTTP(w, r)
}
