package httpx

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Enqueue     *service.EnqueueService
	Worker      *service.WorkerService
	Credentials *service.CredentialService
	Queue       core.JobQueue
	// Optional: Prometheus scrape handler. Mounted on /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	if services.Logger == nil {
		services.Logger = slog.Default()
	}

	mux := http.NewServeMux()

	queueHandlers := &QueueHandlers{
		Enqueue: services.Enqueue,
		Worker:  services.Worker,
		Logger:  services.Logger,
	}
	authHandlers := &AuthHandlers{
		Credentials: services.Credentials,
		Queue:       services.Queue,
		Logger:      services.Logger,
	}

	mux.HandleFunc("POST /api/queue-job", queueHandlers.QueueJob)
	mux.HandleFunc("POST /api/process-queue", queueHandlers.ProcessQueue)

	mux.HandleFunc("GET /api/auth/status", authHandlers.Status)
	mux.HandleFunc("GET /api/auth/google", authHandlers.Begin)
	mux.HandleFunc("GET /api/auth/google/callback", authHandlers.Callback)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	var handler http.Handler = mux
	handler = Logging(services.Logger)(handler)
	handler = Recover(services.Logger)(handler)
	return handler
}

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for readiness/liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		return
	}
}
