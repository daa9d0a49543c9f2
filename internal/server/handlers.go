package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/module"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/service"
	"github.com/gorilla/mux"
)

// Handler serves the document REST api.
type Handler struct {
	documents   *service.DocumentService
	checkpoints *service.CheckpointService
	citations   *service.CitationService
	access      *service.AccessService
}

func NewHandler(documents *service.DocumentService, checkpoints *service.CheckpointService, citations *service.CitationService, access *service.AccessService) *Handler {
	return &Handler{
		documents:   documents,
		checkpoints: checkpoints,
		citations:   citations,
		access:      access,
	}
}

// NewRouter routes the api under /api behind token authentication.
func NewRouter(h *Handler, tokens module.TokenService) *mux.Router {
	router := mux.NewRouter()
	router.Use(RecoveryInterceptor(), RequestTimeInterceptor())

	api := router.PathPrefix("/api").Subrouter()
	api.Use(module.AuthMiddleware(tokens, respondError))

	api.HandleFunc("/documents", h.handleListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents", h.handleCreateDocument).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", h.handleGetDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", h.handleUpdateDocument).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id}/checkpoints", h.handleListCheckpoints).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}/checkpoints", h.handleCreateCheckpoint).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/restore", h.handleRestore).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}/export", h.handleExport).Methods(http.MethodPost)

	api.HandleFunc("/citations", h.handleSearchCitations).Methods(http.MethodGet)
	api.HandleFunc("/citations", h.handleCreateCitation).Methods(http.MethodPost)
	api.HandleFunc("/citations/by_ids", h.handleCitationsByIDs).Methods(http.MethodGet)

	api.HandleFunc("/editor/access", h.handleEditorAccess).Methods(http.MethodGet)

	return router
}

func owner(r *http.Request) string {
	return module.OwnerFromContext(r.Context())
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.ListDocuments(r.Context(), owner(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req v1.CreateDocumentRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	doc, err := h.documents.CreateDocument(r.Context(), owner(r), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.GetDocument(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req v1.UpdateDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, err := h.documents.UpdateDocument(r.Context(), owner(r), mux.Vars(r)["id"], &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		respondProblem(w, http.StatusBadRequest, "limit must be a number")
		return
	}

	checkpoints, err := h.checkpoints.ListCheckpoints(r.Context(), owner(r), mux.Vars(r)["id"], limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, checkpoints)
}

// handleCreateCheckpoint answers a refusal body instead of an error when the
// backend keeps no checkpoints.
func (h *Handler) handleCreateCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req v1.CreateCheckpointRequest
	if !decodeBody(w, r, &req) {
		return
	}

	checkpoint, err := h.checkpoints.CreateCheckpoint(r.Context(), owner(r), mux.Vars(r)["id"], &req)
	if errors.Is(err, service.ErrCheckpointsNotConfigured) {
		respondJSON(w, http.StatusOK, v1.CheckpointRefusal{Created: false, Reason: v1.ReasonCheckpointsNotConfigured})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, checkpoint)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req v1.RestoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, err := h.checkpoints.RestoreCheckpoint(r.Context(), owner(r), mux.Vars(r)["id"], &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	var req v1.ExportRequest
	if !decodeBody(w, r, &req) {
		return
	}

	export, err := h.documents.ExportDocument(r.Context(), owner(r), mux.Vars(r)["id"], &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, export)
}

func (h *Handler) handleSearchCitations(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		respondProblem(w, http.StatusBadRequest, "limit must be a number")
		return
	}

	citations, err := h.citations.SearchCitations(r.Context(), owner(r), r.URL.Query().Get("search"), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, citations)
}

func (h *Handler) handleCitationsByIDs(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	citations, err := h.citations.GetCitationsByIDs(r.Context(), owner(r), ids)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, citations)
}

func (h *Handler) handleCreateCitation(w http.ResponseWriter, r *http.Request) {
	var req v1.CreateCitationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	citation, err := h.citations.CreateCitation(r.Context(), owner(r), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, citation)
}

func (h *Handler) handleEditorAccess(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.access.EditorAccess(owner(r)))
}
