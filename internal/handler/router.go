package handler

import (
	"net/http"
	"time"

	"storyweave/internal/logging"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the graph API and, when events is non-nil, the SSE stream
func NewRouter(h *GraphHandler, events http.Handler, logger *log.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(withLogger(logger))
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Route("/api/graphs", func(r chi.Router) {
		r.Get("/", h.ListGraphs)
		r.Post("/", h.CreateGraph)

		r.Route("/{graphID}", func(r chi.Router) {
			r.Get("/", h.GetGraph)
			r.Patch("/", h.UpdateMetadata)
			r.Delete("/", h.DeleteGraph)
			r.Put("/structure", h.SyncStructure)
			r.Get("/export", h.ExportMermaid)
			r.Get("/export/{format}", h.ExportFormat)
			r.Post("/content", h.ImportContent)
			r.Patch("/nodes/{nodeID}/style", h.PatchNodeStyle)

			r.Post("/nodes", h.CreateNode)
			r.Patch("/nodes/{nodeID}", h.UpdateNode)
			r.Delete("/nodes/{nodeID}", h.DeleteNode)
			r.Post("/edges", h.CreateEdge)
			r.Patch("/edges/{edgeID}", h.UpdateEdge)
			r.Delete("/edges/{edgeID}", h.DeleteEdge)

			r.Get("/style-classes", h.ListStyleClasses)
			r.Post("/style-classes", h.CreateStyleClass)
			r.Put("/style-classes/{classID}", h.UpdateStyleClass)
			r.Delete("/style-classes/{classID}", h.DeleteStyleClass)

			r.Post("/clusters", h.CreateCluster)
			r.Patch("/clusters/{clusterID}", h.UpdateCluster)
			r.Delete("/clusters/{clusterID}", h.DeleteCluster)
			r.Put("/clusters/{clusterID}/nodes", h.AssignNodes)
			r.Post("/clusters/{clusterID}/unassign", h.UnassignNodes)
		})
	})

	if events != nil {
		r.Handle("/events", events)
	}
	return r
}

// withLogger puts a request-scoped logger into the request context
func withLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.With("req", middleware.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), l)))
		})
	}
}

// accessLog writes one debug line per request
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.FromContext(r.Context()).Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Microsecond),
		)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
