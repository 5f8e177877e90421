package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
)

// maxUploadMemory bounds the in-memory part of multipart parsing;
// larger bodies spill to disk.
const maxUploadMemory = 32 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// CreateProjectRequest is the body for project creation
// @Description New project parameters
type CreateProjectRequest struct {
	Name         string `json:"name" example:"product-docs"`
	Description  string `json:"description,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty" example:"1000"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty" example:"200"`
}

// QueryRequest is the body for question answering
// @Description Question and retrieval options
type QueryRequest struct {
	Question       string   `json:"question" example:"How do I rotate the API key?"`
	TopK           int      `json:"top_k,omitempty" example:"5"`
	ScoreThreshold float32  `json:"score_threshold,omitempty" example:"0.7"`
	DocumentIDs    []string `json:"document_ids,omitempty"`
}

// SimilarRequest is the body for similarity search
// @Description Text and retrieval options
type SimilarRequest struct {
	Text           string   `json:"text"`
	TopK           int      `json:"top_k,omitempty"`
	ScoreThreshold float32  `json:"score_threshold,omitempty"`
	DocumentIDs    []string `json:"document_ids,omitempty"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns readiness, checking database and queue connections
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.queue != nil {
		if err := s.queue.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "task queue unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleLogin godoc
// @Summary      User login
// @Description  Authenticate with email and password to receive a JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials"
// @Router       /auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Project endpoints

// handleCreateProject godoc
// @Summary      Create project
// @Description  Create a project with optional chunking configuration
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateProjectRequest  true  "Project parameters"
// @Success      201      {object}  domain.Project
// @Failure      400      {object}  ErrorResponse  "Invalid input or chunk configuration"
// @Router       /projects [post]
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	authCtx := GetAuthContext(r.Context())
	project := &domain.Project{
		Name:         req.Name,
		Description:  req.Description,
		OwnerID:      authCtx.UserID,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
	}

	if err := s.projectService.Create(r.Context(), project); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// handleListProjects godoc
// @Summary      List projects
// @Description  List the authenticated user's projects
// @Tags         Projects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Project
// @Router       /projects [get]
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	projects, err := s.projectService.GetByOwner(r.Context(), authCtx.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if projects == nil {
		projects = []*domain.Project{}
	}

	writeJSON(w, http.StatusOK, projects)
}

// handleGetProject godoc
// @Summary      Get project
// @Tags         Projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  domain.Project
// @Failure      404  {object}  ErrorResponse  "Project not found"
// @Router       /projects/{id} [get]
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// handleProjectStats godoc
// @Summary      Project statistics
// @Description  Document and chunk counts for a project
// @Tags         Projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  domain.ProjectStats
// @Failure      404  {object}  ErrorResponse  "Project not found"
// @Router       /projects/{id}/stats [get]
func (s *Server) handleProjectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.projectService.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleDeleteProject godoc
// @Summary      Delete project
// @Description  Delete a project, its documents and its index namespace
// @Tags         Projects
// @Security     BearerAuth
// @Param        id  path  string  true  "Project ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse  "Project not found"
// @Router       /projects/{id} [delete]
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projectService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Document endpoints

// handleUploadDocument godoc
// @Summary      Upload document
// @Description  Upload a file for asynchronous ingestion. The response
// @Description  document starts in pending status; poll it for progress.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Project ID"
// @Param        file  formData  file    true  "Document file"
// @Success      202   {object}  domain.Document
// @Failure      400   {object}  ErrorResponse  "Missing, empty or oversized file"
// @Failure      404   {object}  ErrorResponse  "Project not found"
// @Router       /projects/{id}/documents [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	doc, err := s.documentService.Upload(r.Context(), driving.UploadRequest{
		ProjectID:        r.PathValue("id"),
		OriginalFilename: header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		Data:             data,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

// handleListDocuments godoc
// @Summary      List documents
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true   "Project ID"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Page offset"
// @Success      200     {array}   domain.Document
// @Router       /projects/{id}/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	docs, err := s.documentService.GetByProject(r.Context(), r.PathValue("id"), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}

	writeJSON(w, http.StatusOK, docs)
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Fetch a document including its processing status
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documentService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Delete a document, its chunks and its vectors
// @Tags         Documents
// @Security     BearerAuth
// @Param        id  path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documentService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReprocessDocument godoc
// @Summary      Reprocess document
// @Description  Re-run ingestion with the project's current chunk
// @Description  configuration. Only completed or failed documents qualify.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      409  {object}  ErrorResponse  "Document is still processing"
// @Router       /documents/{id}/reprocess [post]
func (s *Server) handleReprocessDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documentService.Reprocess(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleCancelIngestion godoc
// @Summary      Cancel ingestion
// @Description  Stop an in-flight ingestion. Only works when the API and
// @Description  worker share a process.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "No ingestion in flight"
// @Failure      503  {object}  ErrorResponse  "Cancellation not available"
// @Router       /documents/{id}/cancel [post]
func (s *Server) handleCancelIngestion(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, "cancellation not available")
		return
	}
	if !s.orchestrator.Cancel(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "no ingestion in flight for document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// Query endpoints

// handleQuery godoc
// @Summary      Answer a question
// @Description  Retrieve relevant chunks and generate a cited answer.
// @Description  Returns a no-context result when nothing relevant is indexed.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string        true  "Project ID"
// @Param        request  body      QueryRequest  true  "Question and options"
// @Success      200      {object}  domain.QueryResult
// @Failure      400      {object}  ErrorResponse  "Empty or oversized question"
// @Failure      404      {object}  ErrorResponse  "Project not found"
// @Failure      502      {object}  ErrorResponse  "Generation failed"
// @Router       /projects/{id}/query [post]
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.queryService.Answer(r.Context(), r.PathValue("id"), req.Question, domain.QueryOptions{
		TopK:           req.TopK,
		ScoreThreshold: req.ScoreThreshold,
		DocumentIDs:    req.DocumentIDs,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSimilar godoc
// @Summary      Similarity search
// @Description  Return chunks similar to the given text, without generation
// @Tags         Query
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string          true  "Project ID"
// @Param        request  body      SimilarRequest  true  "Text and options"
// @Success      200      {array}   domain.Citation
// @Failure      404      {object}  ErrorResponse  "Project not found"
// @Router       /projects/{id}/similar [post]
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req SimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	citations, err := s.queryService.Similar(r.Context(), r.PathValue("id"), req.Text, domain.QueryOptions{
		TopK:           req.TopK,
		ScoreThreshold: req.ScoreThreshold,
		DocumentIDs:    req.DocumentIDs,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if citations == nil {
		citations = []domain.Citation{}
	}

	writeJSON(w, http.StatusOK, citations)
}

// handleQueryHistory godoc
// @Summary      Query history
// @Description  Recent query/answer records for a project, newest first
// @Tags         Query
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Project ID"
// @Param        limit  query     int     false  "Maximum records"
// @Success      200    {array}   domain.QueryRecord
// @Failure      503    {object}  ErrorResponse  "History not configured"
// @Router       /projects/{id}/history [get]
func (s *Server) handleQueryHistory(w http.ResponseWriter, r *http.Request) {
	if s.historyStore == nil {
		writeError(w, http.StatusServiceUnavailable, "query history not configured")
		return
	}

	records, err := s.historyStore.GetByProject(r.Context(), r.PathValue("id"), queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []*domain.QueryRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// Helpers

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrGeneration),
		errors.Is(err, domain.ErrEmbeddingProvider):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrIndexUnavailable),
		errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
