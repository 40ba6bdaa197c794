package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storyweave/internal/domain"
	"storyweave/internal/engine"
	"storyweave/internal/logging"
	"storyweave/internal/service"

	"github.com/go-chi/chi/v5"
)

// GraphHandler handles graph API requests
type GraphHandler struct {
	svc *service.GraphService
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc *service.GraphService) *GraphHandler {
	return &GraphHandler{svc: svc}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CreateGraphRequest is the body of POST /api/graphs
type CreateGraphRequest struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

// MetadataRequest is the body of PATCH /api/graphs/{graphID}
type MetadataRequest struct {
	Title  *string        `json:"title"`
	Layout map[string]any `json:"layout"`
}

// NodeStyleRequest is the body of a node style patch; null clears the style
type NodeStyleRequest struct {
	StyleRef *string `json:"style_ref"`
}

// StyleClassRequest is the body of a style class create
type StyleClassRequest struct {
	Name          string `json:"name"`
	RawDefinition string `json:"raw_definition"`
}

// NodeIDsRequest lists nodes for cluster membership changes
type NodeIDsRequest struct {
	NodeIDs []string `json:"node_ids"`
}

// CountResponse reports how many entities a cascading delete touched
type CountResponse struct {
	Count int `json:"count"`
}

// ============================================================================
// Graphs
// ============================================================================

// ListGraphs returns graph summaries
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := h.svc.ListGraphs(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list graphs", err)
		return
	}
	h.writeJSON(w, r, graphs, http.StatusOK)
}

// CreateGraph parses and stores a new graph
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var req CreateGraphRequest
	if !h.decode(w, r, &req) {
		return
	}
	g, err := h.svc.CreateGraph(r.Context(), req.Title, req.Source)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create graph", err)
		return
	}
	h.writeJSON(w, r, g, http.StatusCreated)
}

// GetGraph returns the complete structured graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.GetGraph(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to get graph", err)
		return
	}
	h.writeJSON(w, r, g, http.StatusOK)
}

// DeleteGraph removes a graph
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGraph(r.Context(), chi.URLParam(r, "graphID")); err != nil {
		h.writeServiceError(w, r, "Failed to delete graph", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncStructure submits DSL text and metadata
func (h *GraphHandler) SyncStructure(w http.ResponseWriter, r *http.Request) {
	var req engine.SyncRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		h.writeError(w, r, "Invalid request body", "source is required", http.StatusBadRequest)
		return
	}
	res, err := h.svc.SyncStructure(r.Context(), chi.URLParam(r, "graphID"), req)
	if err != nil {
		h.writeServiceError(w, r, "Failed to sync structure", err)
		return
	}
	h.writeJSON(w, r, res, http.StatusOK)
}

// UpdateMetadata changes title and/or layout only
func (h *GraphHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req MetadataRequest
	if !h.decode(w, r, &req) {
		return
	}
	g, err := h.svc.UpdateMetadata(r.Context(), chi.URLParam(r, "graphID"), req.Title, req.Layout)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update graph", err)
		return
	}
	h.writeJSON(w, r, g, http.StatusOK)
}

// ExportMermaid returns the regenerated DSL text
func (h *GraphHandler) ExportMermaid(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.ExportMermaid(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to export graph", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

// ExportFormat returns a structured snapshot
func (h *GraphHandler) ExportFormat(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	contentType := "application/json"
	switch format {
	case "yaml", "yml":
		contentType = "application/yaml"
	case "mermaid", "mmd":
		contentType = "text/plain; charset=utf-8"
	}

	// Buffer so a failure can still become an error response
	var buf strings.Builder
	if err := h.svc.Export(r.Context(), chi.URLParam(r, "graphID"), format, &buf); err != nil {
		h.writeServiceError(w, r, "Failed to export graph", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(buf.String()))
}

// ============================================================================
// Partial updates
// ============================================================================

// PatchNodeStyle sets or clears the style class of a node
func (h *GraphHandler) PatchNodeStyle(w http.ResponseWriter, r *http.Request) {
	var req NodeStyleRequest
	if !h.decode(w, r, &req) {
		return
	}
	name := ""
	if req.StyleRef != nil {
		name = *req.StyleRef
	}
	n, err := h.svc.PatchNodeStyle(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "nodeID"), name)
	if err != nil {
		h.writeServiceError(w, r, "Failed to patch node style", err)
		return
	}
	h.writeJSON(w, r, n, http.StatusOK)
}

// ImportContent bulk-imports node text keyed by mermaid ID. Numbers keep
// the digits they were sent with.
func (h *GraphHandler) ImportContent(w http.ResponseWriter, r *http.Request) {
	var content map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&content); err != nil {
		h.writeError(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.svc.ImportNodeContent(r.Context(), chi.URLParam(r, "graphID"), content)
	if err != nil {
		h.writeServiceError(w, r, "Failed to import content", err)
		return
	}
	h.writeJSON(w, r, report, http.StatusOK)
}

// ============================================================================
// Nodes and edges
// ============================================================================

// CreateNode adds a node
func (h *GraphHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var in engine.NodeInput
	if !h.decode(w, r, &in) {
		return
	}
	n, err := h.svc.CreateNode(r.Context(), chi.URLParam(r, "graphID"), in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create node", err)
		return
	}
	h.writeJSON(w, r, n, http.StatusCreated)
}

// UpdateNode changes the id, title, text or style of a node
func (h *GraphHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var patch engine.NodePatch
	if !h.decode(w, r, &patch) {
		return
	}
	n, err := h.svc.UpdateNode(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "nodeID"), patch)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update node", err)
		return
	}
	h.writeJSON(w, r, n, http.StatusOK)
}

// DeleteNode removes a node and the edges touching it
func (h *GraphHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.DeleteNode(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "nodeID"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to delete node", err)
		return
	}
	h.writeJSON(w, r, CountResponse{Count: removed}, http.StatusOK)
}

// CreateEdge links two nodes
func (h *GraphHandler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var in engine.EdgeInput
	if !h.decode(w, r, &in) {
		return
	}
	e, err := h.svc.CreateEdge(r.Context(), chi.URLParam(r, "graphID"), in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create edge", err)
		return
	}
	h.writeJSON(w, r, e, http.StatusCreated)
}

// UpdateEdge changes the endpoints, kind, label or colour of an edge
func (h *GraphHandler) UpdateEdge(w http.ResponseWriter, r *http.Request) {
	var patch engine.EdgePatch
	if !h.decode(w, r, &patch) {
		return
	}
	e, err := h.svc.UpdateEdge(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "edgeID"), patch)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update edge", err)
		return
	}
	h.writeJSON(w, r, e, http.StatusOK)
}

// DeleteEdge removes an edge
func (h *GraphHandler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEdge(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "edgeID")); err != nil {
		h.writeServiceError(w, r, "Failed to delete edge", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// Style classes
// ============================================================================

// ListStyleClasses returns the style classes of a graph
func (h *GraphHandler) ListStyleClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.svc.ListStyleClasses(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to list style classes", err)
		return
	}
	h.writeJSON(w, r, classes, http.StatusOK)
}

// CreateStyleClass adds a style class
func (h *GraphHandler) CreateStyleClass(w http.ResponseWriter, r *http.Request) {
	var req StyleClassRequest
	if !h.decode(w, r, &req) {
		return
	}
	sc, err := h.svc.CreateStyleClass(r.Context(), chi.URLParam(r, "graphID"), req.Name, req.RawDefinition)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create style class", err)
		return
	}
	h.writeJSON(w, r, sc, http.StatusCreated)
}

// UpdateStyleClass renames and/or redefines a style class
func (h *GraphHandler) UpdateStyleClass(w http.ResponseWriter, r *http.Request) {
	var patch engine.StylePatch
	if !h.decode(w, r, &patch) {
		return
	}
	sc, err := h.svc.UpdateStyleClass(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "classID"), patch)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update style class", err)
		return
	}
	h.writeJSON(w, r, sc, http.StatusOK)
}

// DeleteStyleClass removes a style class and clears references to it
func (h *GraphHandler) DeleteStyleClass(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.svc.DeleteStyleClass(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "classID"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to delete style class", err)
		return
	}
	h.writeJSON(w, r, CountResponse{Count: cleared}, http.StatusOK)
}

// ============================================================================
// Clusters
// ============================================================================

// CreateCluster adds a cluster
func (h *GraphHandler) CreateCluster(w http.ResponseWriter, r *http.Request) {
	var in service.ClusterInput
	if !h.decode(w, r, &in) {
		return
	}
	c, err := h.svc.CreateCluster(r.Context(), chi.URLParam(r, "graphID"), in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create cluster", err)
		return
	}
	h.writeJSON(w, r, c, http.StatusCreated)
}

// UpdateCluster changes title and/or style of a cluster
func (h *GraphHandler) UpdateCluster(w http.ResponseWriter, r *http.Request) {
	var patch engine.ClusterPatch
	if !h.decode(w, r, &patch) {
		return
	}
	c, err := h.svc.UpdateCluster(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "clusterID"), patch)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update cluster", err)
		return
	}
	h.writeJSON(w, r, c, http.StatusOK)
}

// AssignNodes replaces the membership of a cluster
func (h *GraphHandler) AssignNodes(w http.ResponseWriter, r *http.Request) {
	var req NodeIDsRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.svc.AssignNodesToCluster(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "clusterID"), req.NodeIDs)
	if err != nil {
		h.writeServiceError(w, r, "Failed to assign nodes", err)
		return
	}
	h.writeJSON(w, r, c, http.StatusOK)
}

// UnassignNodes releases members of a cluster
func (h *GraphHandler) UnassignNodes(w http.ResponseWriter, r *http.Request) {
	var req NodeIDsRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.svc.UnassignNodesFromCluster(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "clusterID"), req.NodeIDs)
	if err != nil {
		h.writeServiceError(w, r, "Failed to unassign nodes", err)
		return
	}
	h.writeJSON(w, r, c, http.StatusOK)
}

// DeleteCluster releases the members of a cluster and removes it
func (h *GraphHandler) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	released, err := h.svc.DeleteCluster(r.Context(), chi.URLParam(r, "graphID"), chi.URLParam(r, "clusterID"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to delete cluster", err)
		return
	}
	h.writeJSON(w, r, CountResponse{Count: released}, http.StatusOK)
}

// ============================================================================
// Helpers
// ============================================================================

func (h *GraphHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps the domain error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsConflict(err):
		return http.StatusConflict
	case domain.IsInvalid(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *GraphHandler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error(msg, "err", err)
	}
	var pe *domain.ParseError
	if errors.As(err, &pe) {
		msg = "Invalid diagram source"
	}
	h.writeError(w, r, msg, err.Error(), status)
}

func (h *GraphHandler) writeJSON(w http.ResponseWriter, r *http.Request, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.FromContext(r.Context()).Error("Failed to encode JSON", "err", err)
	}
}

func (h *GraphHandler) writeError(w http.ResponseWriter, r *http.Request, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		logging.FromContext(r.Context()).Error("Failed to encode error response", "err", err)
	}
}
