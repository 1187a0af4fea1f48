package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoQuest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Task catalog and live tracking API for the GeoQuest engine.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/tasks
	getTasks, _ := r.NewOperationContext(http.MethodGet, "/api/tasks")
	getTasks.SetSummary("Task catalog")
	getTasks.SetDescription("Returns the full task catalog. An empty list means no tasks.")
	getTasks.AddRespStructure(TasksResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getTasks)

	// GET /api/user/quest-progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/user/quest-progress")
	getProgress.SetSummary("Quest progress")
	getProgress.SetDescription("Returns the user's current step per quest chain. Requires the X-Username header.")
	getProgress.AddRespStructure(ProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getProgress)

	// GET /api/user-tasks/all
	getUserTasks, _ := r.NewOperationContext(http.MethodGet, "/api/user-tasks/all")
	getUserTasks.SetSummary("User task statuses")
	getUserTasks.SetDescription("Returns every task status for the user given by the username query parameter.")
	getUserTasks.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getUserTasks.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getUserTasks)

	// POST /api/tasks/{taskID}/complete
	postComplete, _ := r.NewOperationContext(http.MethodPost, "/api/tasks/{taskID}/complete")
	postComplete.SetSummary("Complete a task")
	postComplete.SetDescription("Marks the task done for the user and advances quest progress past it.")
	postComplete.AddRespStructure(CompleteResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postComplete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postComplete)

	// GET /ws/track
	getTrack, _ := r.NewOperationContext(http.MethodGet, "/ws/track")
	getTrack.SetSummary("Live tracking bridge")
	getTrack.SetDescription("Upgrades to a WebSocket connection. The device streams location fixes up; arrival events stream back.")
	getTrack.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getTrack)

	// GET /api/track/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/track/events")
	getEvents.SetSummary("Tracking event stream")
	getEvents.SetDescription("Server-Sent Events stream of the user's arrival and completion events.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := newOpenAPISpec()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(spec)
	}
}
