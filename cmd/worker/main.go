package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sukesh_education/internal/config"
	"sukesh_education/internal/mail"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/queue"
	"sukesh_education/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const workerCount = 3

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if cfg.RabbitMQ.URL == "" {
		logrus.Fatal("RABBITMQ_URL is required to run the mail worker")
	}

	conn, err := queue.SetupRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close RabbitMQ connection")
		}
	}()

	// Initialize Prometheus metrics
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	logrus.Info("Metrics initialized")

	// Start metrics HTTP server for Prometheus scraping
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: ":8088", Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logrus.Info("Worker metrics server started on :8088")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start metrics server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mailWorker := worker.NewMailWorker(mail.NewLogMailer(cfg.MailFrom), cfg.AppName, metrics)

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := worker.StartWorker(ctx, conn, mailWorker, id); err != nil {
				logrus.WithError(err).Errorf("Worker %d exited", id)
				stop()
			}
		}(i)
	}

	wg.Wait()
	logrus.Info("Workers stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}
