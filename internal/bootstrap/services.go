package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/attesta/certmailer/config"
	"github.com/attesta/certmailer/internal/adapters/googleauth"
	"github.com/attesta/certmailer/internal/adapters/mail"
	redisadapter "github.com/attesta/certmailer/internal/adapters/redis"
	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/data"
	"github.com/attesta/certmailer/internal/observability/metrics"
	"github.com/attesta/certmailer/internal/render"
	"github.com/attesta/certmailer/internal/service"
)

// ServiceDeps holds the shared dependencies services are built from.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	DB          *sql.DB // nil when the delivery log archive is disabled
	Logger      *slog.Logger
}

// ServiceContainer holds the wired application services.
type ServiceContainer struct {
	Credentials *service.CredentialService
	Enqueue     *service.EnqueueService
	Worker      *service.WorkerService
	Queue       core.JobQueue
	Metrics     http.Handler
}

// NewServices wires adapters and services from shared dependencies.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	queue := redisadapter.NewJobQueue(deps.RedisClient)
	credStore := redisadapter.NewCredentialStore(deps.RedisClient)

	broker, err := googleauth.NewProvider(googleauth.ProviderConfig{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURL:  cfg.Auth.RedirectURL,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("configure google oauth: %w", err)
	}

	credentials := service.NewCredentialService(service.CredentialServiceOptions{
		Store:  credStore,
		Broker: broker,
		Logger: logger,
	})

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.New(registry)

	enqueue := service.NewEnqueueService(service.EnqueueServiceOptions{
		Queue:       queue,
		Credentials: credentials,
		Logger:      logger,
		Metrics:     pipelineMetrics,
	})

	dispatcher := mail.NewDispatcher(mail.Options{
		Host:       cfg.Mail.Host,
		Port:       cfg.Mail.Port,
		MaxRetries: uint64(cfg.Mail.MaxRetries),
		RetryWait:  cfg.Mail.RetryWait,
		Logger:     logger,
	})

	var deliveryLog core.DeliveryLog
	if deps.DB != nil {
		deliveryLog = data.NewDeliveryLogRepo(deps.DB)
	}

	var limiter *rate.Limiter
	if cfg.Worker.SendsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Worker.SendsPerSecond), 1)
	}

	worker := service.NewWorkerService(service.WorkerServiceOptions{
		Queue:       queue,
		Credentials: credentials,
		Renderer:    render.New(),
		Dispatcher:  dispatcher,
		DeliveryLog: deliveryLog,
		Metrics:     pipelineMetrics,
		Logger:      logger,
		BatchSize:   cfg.Worker.BatchSize,
		SendLimiter: limiter,
	})

	return ServiceContainer{
		Credentials: credentials,
		Enqueue:     enqueue,
		Worker:      worker,
		Queue:       queue,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}
