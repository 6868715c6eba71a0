// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"cyber-survey/internal/catalog"
	"cyber-survey/internal/extract"
	"cyber-survey/internal/findings"
	"cyber-survey/internal/formatters"
	formatterShared "cyber-survey/internal/formatters/shared"
	"cyber-survey/internal/observability"
	"cyber-survey/internal/paths"
	"cyber-survey/internal/report"
	"cyber-survey/internal/scanner"
	"cyber-survey/internal/session"
	"cyber-survey/internal/version"

	// Import formatters to register them
	_ "cyber-survey/internal/formatters/csv"
	_ "cyber-survey/internal/formatters/json"
	_ "cyber-survey/internal/formatters/junit"
	_ "cyber-survey/internal/formatters/text"
	_ "cyber-survey/internal/formatters/yaml"
)

//go:embed template.html
var pageTemplate string

// SessionCookie carries the analyst session id
const SessionCookie = "cyber_survey_session"

// Config wires the review surface to the rest of the application
type Config struct {
	Port           int
	MaxUploadBytes int64
	// SessionIdle expires sessions unused for this long; zero keeps them
	SessionIdle time.Duration
	TempDir     string

	Catalog  *catalog.Catalog
	Scanner  *scanner.Scanner
	Updater  *report.Updater
	Observer *observability.StandardObserver
}

// WebServer represents the web server instance
type WebServer struct {
	config   Config
	page     *template.Template
	mux      *http.ServeMux
	sessions *session.Store
	observer *observability.StandardObserver

	mu      sync.Mutex
	server  *http.Server
	done    chan struct{}
	stopped bool
}

// Response is the JSON envelope of every API endpoint
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	Results           *formatterShared.JSONResponse `json:"results,omitempty"`
	Selected          []string                      `json:"selected,omitempty"`
	ArtifactReference *string                       `json:"artifact_reference,omitempty"`
	Finding           *findings.Finding             `json:"finding,omitempty"`
	Rows              []int                         `json:"rows,omitempty"`
}

// ControlInfo is a catalog entry as shown to the browser
type ControlInfo struct {
	Name           string   `json:"name"`
	Prompt         string   `json:"prompt"`
	AnalystInput   string   `json:"analyst_input,omitempty"`
	ReferenceCodes []string `json:"reference_codes"`
}

// NewWebServer creates a new web server instance
func NewWebServer(config Config) (*WebServer, error) {
	if config.Catalog == nil || config.Scanner == nil || config.Updater == nil {
		return nil, fmt.Errorf("web server needs a catalog, a scanner and a report updater")
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 100 << 20
	}
	if config.Observer == nil {
		config.Observer = observability.Nop()
	}

	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("template validation failed: %w", err)
	}

	ws := &WebServer{
		config:   config,
		page:     page,
		mux:      http.NewServeMux(),
		sessions: session.NewStore(),
		observer: config.Observer,
	}
	ws.setupRoutes()
	return ws, nil
}

// Handler returns the route multiplexer
func (ws *WebServer) Handler() http.Handler {
	return ws.mux
}

// Start starts the web server and blocks until it stops. When the configured
// port is busy the next nine ports are tried.
func (ws *WebServer) Start() error {
	var lastError error
	for i := 0; i < 10; i++ {
		currentPort := strconv.Itoa(ws.config.Port + i)

		listener, err := net.Listen("tcp", ":"+currentPort)
		if err != nil {
			lastError = err
			if i == 0 {
				fmt.Printf("Port %s is not available, trying alternative ports...\n", currentPort)
			}
			continue
		}

		server := ws.createSecureServer(currentPort)
		done := make(chan struct{})
		ws.mu.Lock()
		if ws.stopped {
			ws.mu.Unlock()
			listener.Close()
			return nil
		}
		ws.server = server
		ws.done = done
		ws.mu.Unlock()
		go ws.expireSessions(done)

		fmt.Printf("Cyber Survey Tool started on port %s\n", currentPort)
		fmt.Printf("Local:     http://localhost:%s\n", currentPort)

		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server on port %s failed: %w", currentPort, err)
		}
		return nil
	}

	return fmt.Errorf("could not find an available port in range %d-%d\n"+
		"Last error: %v\n"+
		"Troubleshooting:\n"+
		"  1. Try a specific port with --port <number>\n"+
		"  2. Ensure you have permission to bind to the requested port", ws.config.Port, ws.config.Port+9, lastError)
}

// Stop stops the web server
func (ws *WebServer) Stop() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.stopped = true
	if ws.done != nil {
		close(ws.done)
		ws.done = nil
	}
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) expireSessions(done <-chan struct{}) {
	if ws.config.SessionIdle <= 0 {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if removed := ws.sessions.Expire(ws.config.SessionIdle); removed > 0 {
				ws.observer.LogDetail("web", fmt.Sprintf("Expired %d idle session(s)", removed))
			}
		}
	}
}

// setupRoutes configures all HTTP route handlers
func (ws *WebServer) setupRoutes() {
	ws.mux.HandleFunc("/", ws.serveHome)
	ws.mux.HandleFunc("/health", ws.handleHealth)
	ws.mux.HandleFunc("/controls", ws.handleControls)
	ws.mux.HandleFunc("/search", ws.handleSearch)
	ws.mux.HandleFunc("/select", ws.handleSelect)
	ws.mux.HandleFunc("/submit", ws.handleSubmit)
	ws.mux.HandleFunc("/apply", ws.handleApply)
	ws.mux.HandleFunc("/export", ws.handleExport)
}

// createSecureServer creates an HTTP server with security timeouts
func (ws *WebServer) createSecureServer(port string) *http.Server {
	return &http.Server{
		Addr:    ":" + port,
		Handler: ws.mux,
		// Timeout for reading request headers (prevents slow header attacks)
		ReadHeaderTimeout: 15 * time.Second,
		// Large archive uploads and scans outlast the usual 30s
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// session returns the caller's session, issuing a cookie for new ones
func (ws *WebServer) session(responseWriter http.ResponseWriter, request *http.Request) *session.Session {
	id := ""
	if cookie, err := request.Cookie(SessionCookie); err == nil {
		id = cookie.Value
	}
	s := ws.sessions.GetOrNew(id)
	if s.ID != id {
		http.SetCookie(responseWriter, &http.Cookie{
			Name:     SessionCookie,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		ws.observer.LogMetric("web", "sessions", ws.sessions.Len())
	}
	return s
}

// serveHome serves the main HTML page
func (ws *WebServer) serveHome(responseWriter http.ResponseWriter, request *http.Request) {
	if request.URL.Path != "/" {
		http.NotFound(responseWriter, request)
		return
	}
	if request.Method != http.MethodGet {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := ws.session(responseWriter, request)

	var buf bytes.Buffer
	data := struct {
		Controls    []ControlInfo
		Version     string
		Formats     []formatters.FormatInfo
		Extensions  string
		LastOutcome string
	}{
		Controls:   ws.controlInfos(),
		Version:    version.Short(),
		Formats:    formatters.GetSupportedFormats(),
		Extensions: strings.Join(extract.SupportedExtensions(), ", "),
	}
	if outcome, ok := s.Outcome(); ok {
		data.LastOutcome = outcome.String()
	}
	if err := ws.page.Execute(&buf, data); err != nil {
		http.Error(responseWriter, "Failed to render page", http.StatusInternalServerError)
		return
	}

	responseWriter.Header().Set("Content-Type", "text/html; charset=utf-8")
	responseWriter.WriteHeader(http.StatusOK)
	responseWriter.Write(buf.Bytes())
}

// handleHealth provides a health check endpoint with version information
func (ws *WebServer) handleHealth(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	versionInfo := version.Full()
	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "cyber-survey-web",
		"version":   versionInfo["version"],
		"sessions":  ws.sessions.Len(),
		"build_info": map[string]interface{}{
			"version":    versionInfo["version"],
			"commit":     versionInfo["commit"],
			"build_date": versionInfo["buildDate"],
			"go_version": versionInfo["goVersion"],
			"platform":   versionInfo["platform"],
		},
	}

	responseWriter.Header().Set("Content-Type", "application/json")
	responseWriter.WriteHeader(http.StatusOK)
	json.NewEncoder(responseWriter).Encode(healthData)
}

func (ws *WebServer) controlInfos() []ControlInfo {
	controls := ws.config.Catalog.Controls()
	infos := make([]ControlInfo, len(controls))
	for i, control := range controls {
		infos[i] = ControlInfo{
			Name:           control.Name,
			Prompt:         control.Prompt,
			AnalystInput:   control.AnalystInput,
			ReferenceCodes: control.ReferenceCodes,
		}
	}
	return infos
}

// handleControls lists the catalog
func (ws *WebServer) handleControls(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	responseWriter.Header().Set("Content-Type", "application/json")
	json.NewEncoder(responseWriter).Encode(ws.controlInfos())
}

// handleSearch scans an uploaded archive for one control. The results
// replace whatever the session held and clear the selection.
func (ws *WebServer) handleSearch(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Room for the archive plus the other form fields
	request.Body = http.MaxBytesReader(responseWriter, request.Body, ws.config.MaxUploadBytes+1<<20)
	if err := request.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ws.sendErrorWithStatus(responseWriter, "Uploaded archive is too large", http.StatusRequestEntityTooLarge)
			return
		}
		ws.sendError(responseWriter, "Failed to parse form data")
		return
	}
	defer request.MultipartForm.RemoveAll()

	controlName := request.FormValue("control")
	control, ok := ws.config.Catalog.Get(controlName)
	if !ok {
		ws.sendError(responseWriter, fmt.Sprintf("Unknown control '%s'", sanitizeUserInput(controlName, 100)))
		return
	}

	file, header, err := request.FormFile("archive")
	if err != nil {
		ws.sendError(responseWriter, "No archive uploaded")
		return
	}
	defer file.Close()

	tempFile, err := os.CreateTemp(ws.tempDir(), "cyber_survey_upload_*.zip")
	if err != nil {
		ws.sendErrorWithStatus(responseWriter, fmt.Sprintf("Failed to store upload: %v", err), http.StatusInternalServerError)
		return
	}
	defer os.Remove(tempFile.Name())

	written, copyErr := io.Copy(tempFile, io.LimitReader(file, ws.config.MaxUploadBytes+1))
	closeErr := tempFile.Close()
	if copyErr != nil || closeErr != nil {
		ws.sendErrorWithStatus(responseWriter, "Failed to store upload", http.StatusInternalServerError)
		return
	}
	if written > ws.config.MaxUploadBytes {
		ws.sendErrorWithStatus(responseWriter, "Uploaded archive is too large", http.StatusRequestEntityTooLarge)
		return
	}

	result, err := ws.config.Scanner.Scan(request.Context(), tempFile.Name(), control)
	if err != nil {
		var openErr *scanner.ArchiveOpenError
		if errors.As(err, &openErr) {
			ws.sendError(responseWriter, fmt.Sprintf("scanning failed: %s is not a readable zip archive",
				sanitizeUserInput(header.Filename, 200)))
			return
		}
		ws.sendErrorWithStatus(responseWriter, fmt.Sprintf("scanning failed: %v", err), http.StatusInternalServerError)
		return
	}

	s := ws.session(responseWriter, request)
	s.SetScan(result)

	results := formatterShared.ConvertResultToJSONFormat(result, formatters.FormatterOptions{Verbose: true})
	reference := ""
	ws.sendJSON(responseWriter, http.StatusOK, Response{
		Success:           true,
		Results:           &results,
		Selected:          []string{},
		ArtifactReference: &reference,
	})
}

// handleSelect toggles one qualifying document in the artifact selection
func (ws *WebServer) handleSelect(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := request.ParseForm(); err != nil {
		ws.sendError(responseWriter, "Failed to parse form data")
		return
	}

	s := ws.session(responseWriter, request)
	if s.Scan() == nil {
		ws.sendError(responseWriter, "Search documents first")
		return
	}

	name := request.FormValue("document")
	on := request.FormValue("selected") != "false"
	if !s.Select(name, on) {
		ws.sendError(responseWriter, fmt.Sprintf("Document '%s' cannot be selected", sanitizeUserInput(name, 200)))
		return
	}

	selected := s.Selected()
	reference := findings.ArtifactReference(selected)
	ws.sendJSON(responseWriter, http.StatusOK, Response{
		Success:           true,
		Selected:          selected,
		ArtifactReference: &reference,
	})
}

// handleSubmit composes the finding and writes it to the report. The
// finding is stored first so a failed write can be retried via /apply.
func (ws *WebServer) handleSubmit(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := request.ParseForm(); err != nil {
		ws.sendError(responseWriter, "Failed to parse form data")
		return
	}

	s := ws.session(responseWriter, request)
	result := s.Scan()
	if result == nil {
		ws.sendError(responseWriter, "Search documents first")
		return
	}
	control, ok := ws.config.Catalog.Get(result.Control)
	if !ok {
		ws.sendError(responseWriter, fmt.Sprintf("Unknown control '%s'", sanitizeUserInput(result.Control, 100)))
		return
	}

	implemented, err := findings.ParseAnswer(request.FormValue("answer"))
	if err != nil {
		ws.sendError(responseWriter, err.Error())
		return
	}

	artifacts := findings.ArtifactReference(s.Selected())
	if _, present := request.PostForm["artifacts"]; present {
		artifacts = request.PostFormValue("artifacts")
	}

	finding := findings.Compose(control, implemented, request.FormValue("details"), artifacts)
	s.Submit(finding)

	ws.applyFinding(responseWriter, s, finding)
}

// handleApply retries writing the submitted finding to the report
func (ws *WebServer) handleApply(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := ws.session(responseWriter, request)
	finding, ok := s.Finding()
	if !ok {
		ws.sendError(responseWriter, "Submit details first")
		return
	}
	ws.applyFinding(responseWriter, s, finding)
}

func (ws *WebServer) applyFinding(responseWriter http.ResponseWriter, s *session.Session, finding findings.Finding) {
	outcome, err := ws.config.Updater.Apply(finding, "")
	if err != nil {
		status := http.StatusInternalServerError
		message := fmt.Sprintf("Failed to update report: %v", err)
		var formatErr *report.ReportFormatError
		var ioErr *report.ReportIOError
		switch {
		case errors.As(err, &formatErr):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &ioErr) && ioErr.Permission():
			message = fmt.Sprintf("Failed to update report: permission denied. Close the workbook and retry. %v", ioErr.Cause)
		}
		ws.sendJSON(responseWriter, status, Response{
			Success: false,
			Error:   message,
			Finding: &finding,
		})
		return
	}

	s.RecordOutcome(outcome)
	ws.sendJSON(responseWriter, http.StatusOK, Response{
		Success: true,
		Message: outcome.String(),
		Finding: &finding,
		Rows:    outcome.Rows,
	})
}

// handleExport exports the session's scan results in the requested format
func (ws *WebServer) handleExport(responseWriter http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		http.Error(responseWriter, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := request.URL.Query().Get("format")
	if format == "" {
		ws.sendError(responseWriter, "Format is required")
		return
	}
	if _, exists := formatters.Get(format); !exists {
		ws.sendError(responseWriter, fmt.Sprintf("Unsupported format '%s'. Available formats: %s",
			sanitizeUserInput(format, 20), strings.Join(formatters.List(), ", ")))
		return
	}

	s := ws.session(responseWriter, request)
	result := s.Scan()
	if result == nil {
		ws.sendError(responseWriter, "Search documents first")
		return
	}

	options := formatters.FormatterOptions{Verbose: request.URL.Query().Get("verbose") == "true"}
	output, contentType, filename, err := formatters.ExportForWeb(format, result, options)
	if err != nil {
		ws.sendErrorWithStatus(responseWriter, fmt.Sprintf("Failed to format results: %v", err), http.StatusInternalServerError)
		return
	}

	responseWriter.Header().Set("Content-Type", contentType)
	responseWriter.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	responseWriter.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	responseWriter.WriteHeader(http.StatusOK)
	responseWriter.Write([]byte(output))
}

func (ws *WebServer) tempDir() string {
	if ws.config.TempDir != "" {
		return ws.config.TempDir
	}
	return paths.GetTempDir()
}

func (ws *WebServer) sendJSON(responseWriter http.ResponseWriter, statusCode int, response Response) {
	responseWriter.Header().Set("Content-Type", "application/json")
	responseWriter.WriteHeader(statusCode)
	json.NewEncoder(responseWriter).Encode(response)
}

// sendError sends an error response with enhanced error information
func (ws *WebServer) sendError(responseWriter http.ResponseWriter, message string) {
	ws.sendErrorWithStatus(responseWriter, message, http.StatusBadRequest)
}

// sendErrorWithStatus sends an error response with a specific HTTP status code
func (ws *WebServer) sendErrorWithStatus(responseWriter http.ResponseWriter, message string, statusCode int) {
	ws.sendJSON(responseWriter, statusCode, Response{
		Success: false,
		Error:   ws.enhanceErrorMessage(message, statusCode),
	})
}

// enhanceErrorMessage adds troubleshooting information to error messages
func (ws *WebServer) enhanceErrorMessage(message string, statusCode int) string {
	switch {
	case strings.Contains(message, "Failed to parse form data"):
		return message + "\nTroubleshooting: Upload the archive using multipart/form-data with the 'archive' field name"
	case strings.Contains(message, "No archive uploaded"):
		return message + "\nTroubleshooting: Choose a .zip file before clicking 'Search Documents'"
	case strings.Contains(message, "scanning failed"):
		return message + "\nTroubleshooting: Ensure the uploaded file is a zip archive and is not corrupted"
	case statusCode == http.StatusRequestEntityTooLarge:
		return message + fmt.Sprintf("\nTroubleshooting: The upload limit is %d bytes", ws.config.MaxUploadBytes)
	case statusCode == http.StatusInternalServerError:
		return message + "\nTroubleshooting: Check server logs for detailed error information"
	default:
		return message
	}
}

// sanitizeUserInput removes dangerous characters from user input for safe output
func sanitizeUserInput(input string, maxLength int) string {
	sanitized := strings.Map(func(r rune) rune {
		// Remove control characters (0-31, 127)
		if r < 32 || r == 127 {
			return -1
		}
		switch r {
		case '<', '>', '"', '\'', '&':
			return -1
		}
		return r
	}, input)

	// Cut on rune boundaries so the JSON error stays valid UTF-8
	if runes := []rune(sanitized); len(runes) > maxLength {
		sanitized = string(runes[:maxLength]) + "..."
	}
	return sanitized
}
