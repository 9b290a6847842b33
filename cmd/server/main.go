// main wires the platform pieces together: configuration, storage,
// cache, audit pipeline, services, HTTP handlers, and the background
// jobs. Business logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	campaignhandler "tangible/internal/campaign/handler"
	"tangible/internal/campaign/lifecycle"
	campaignservice "tangible/internal/campaign/service"
	campaignpostgres "tangible/internal/campaign/store/postgres"
	disclosurehandler "tangible/internal/disclosure/handler"
	disclosureservice "tangible/internal/disclosure/service"
	disclosurepostgres "tangible/internal/disclosure/store/postgres"
	evidencehandler "tangible/internal/evidence/handler"
	evidenceservice "tangible/internal/evidence/service"
	evidencepostgres "tangible/internal/evidence/store/postgres"
	instancehandler "tangible/internal/instance/handler"
	instanceservice "tangible/internal/instance/service"
	instancepostgres "tangible/internal/instance/store/postgres"
	"tangible/internal/jwttoken"
	"tangible/internal/platform/config"
	"tangible/internal/platform/httpserver"
	"tangible/internal/platform/logger"
	"tangible/internal/platform/metrics"
	platformpostgres "tangible/internal/platform/postgres"
	platformredis "tangible/internal/platform/redis"
	rolluphandler "tangible/internal/rollup/handler"
	rollupservice "tangible/internal/rollup/service"
	rolluppostgres "tangible/internal/rollup/store/postgres"
	"tangible/pkg/platform/audit/kafka"
	"tangible/pkg/platform/audit/publisher"
	auditpostgres "tangible/pkg/platform/audit/store/postgres"
	"tangible/pkg/platform/audit/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := platformpostgres.Open(cfg.Database)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cache, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
	}

	m := metrics.New()
	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	auditStore := auditpostgres.New(db)
	auditPub := publisher.NewPublisher(auditStore, publisher.WithLogger(log))
	defer auditPub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer producer.Close()

		relay := worker.NewRelay(auditStore, producer, log, cfg.Jobs.OutboxRelayInterval)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox relay stopped", "error", err)
			}
		}()
	}

	campaignStore := campaignpostgres.New(db)
	instanceStore := instancepostgres.New(db)
	snippetStore := evidencepostgres.NewSnippetStore(db)
	scoreStore := evidencepostgres.NewScoreStore(db)
	packStore := disclosurepostgres.New(db)
	activityStore := rolluppostgres.New(db)

	policy := lifecycle.Policy{
		MinViableVolunteers:   cfg.Policy.MinViableVolunteers,
		NearCapacityThreshold: cfg.Policy.NearCapacityThreshold,
		HighValueBudgetFloor:  cfg.Policy.HighValueBudgetFloor,
	}

	instanceSvc := instanceservice.NewService(instanceStore, campaignStore,
		instanceservice.WithLogger(log),
		instanceservice.WithMetrics(m),
		instanceservice.WithAudit(auditPub),
	)
	campaignSvc := campaignservice.NewService(campaignStore, policy,
		campaignservice.WithLogger(log),
		campaignservice.WithMetrics(m),
		campaignservice.WithAudit(auditPub),
		campaignservice.WithCascade(instanceSvc.CascadeForCampaign),
	)
	evidenceSvc := evidenceservice.NewService(snippetStore, scoreStore,
		evidenceservice.WithLogger(log),
		evidenceservice.WithAudit(auditPub),
		evidenceservice.WithCache(cache),
	)
	disclosureSvc := disclosureservice.NewService(packStore, scoreStore,
		disclosureservice.NewActivitySource(campaignStore, instanceStore),
		disclosureservice.WithLogger(log),
		disclosureservice.WithMetrics(m),
		disclosureservice.WithAudit(auditPub),
		disclosureservice.WithCache(cache),
		disclosureservice.WithRelevanceFloor(cfg.Policy.RelevanceFloor),
	)
	rollupSvc := rollupservice.NewService(activityStore, campaignSvc, instanceSvc, instanceStore,
		rollupservice.WithLogger(log),
		rollupservice.WithMetrics(m),
		rollupservice.WithAudit(auditPub),
		rollupservice.WithConsumptionAlerts(cfg.Policy.ConsumptionAlerts),
	)

	if cfg.Jobs.RollupInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Jobs.RollupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := rollupSvc.Run(ctx); err != nil {
						log.Error("scheduled rollup failed", "error", err)
					}
				}
			}
		}()
	}

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	campaignhandler.New(campaignSvc, log, m, jwtService).Register(router)
	instancehandler.New(instanceSvc, log, m, jwtService).Register(router)
	evidencehandler.New(evidenceSvc, log, m, jwtService).Register(router)
	disclosurehandler.New(disclosureSvc, log, m, jwtService).Register(router)
	rolluphandler.New(rollupSvc, log, m, jwtService).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
