package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appborrowing "github.com/rowanvale/librarysvc/internal/application/borrowing"
	appcatalog "github.com/rowanvale/librarysvc/internal/application/catalog"
	apppatron "github.com/rowanvale/librarysvc/internal/application/patron"
	apppayment "github.com/rowanvale/librarysvc/internal/application/payment"
	httptransport "github.com/rowanvale/librarysvc/internal/infrastructure/http"
	"github.com/rowanvale/librarysvc/internal/infrastructure/id"
	"github.com/rowanvale/librarysvc/internal/infrastructure/memory"
	"github.com/rowanvale/librarysvc/internal/infrastructure/paygate"
	"github.com/rowanvale/librarysvc/internal/pkg/logging"
	"github.com/rowanvale/librarysvc/internal/pkg/metrics"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	serviceName := getenvDefault("SERVICE_NAME", "librarysvc")
	env := getenvDefault("ENV", "dev")
	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	bookRepo := memory.NewBookRepository()
	borrowRepo := memory.NewBorrowRepository()
	gateway := paygate.New(getenvDefault("PAYMENT_API_KEY", "test_key_12345"))

	operationMetrics := metrics.NewOperations(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTP(prometheus.DefaultRegisterer)

	catalogService := appcatalog.NewService(bookRepo, id.NewUUIDGenerator())
	borrowingService := appborrowing.NewService(bookRepo, borrowRepo, operationMetrics)
	patronService := apppatron.NewService(bookRepo, borrowRepo)
	paymentService := apppayment.NewService(bookRepo, borrowingService, gateway, operationMetrics)

	handler := httptransport.NewHandler(catalogService, borrowingService, patronService, paymentService)
	observe := httptransport.Observability(baseLogger, httpMetrics)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", observe(handler.Router()))

	server := &http.Server{
		Addr:    getenvDefault("HTTP_ADDR", ":8080"),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		baseLogger.Info("http_server_stopped")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
