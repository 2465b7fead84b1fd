// Command server is the composition root: it loads configuration, opens
// the database pool and bootstraps its schema, wires every adapter into
// its port, registers the §6.1 HTTP surface, and serves it with graceful
// shutdown, grounded on cmd/webui/main.go's
// listen-in-goroutine/signal.Notify/Shutdown(ctx) shape.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/guility/relrag/internal/chunker"
	"github.com/guility/relrag/internal/collectionadmin"
	"github.com/guility/relrag/internal/config"
	"github.com/guility/relrag/internal/docparser"
	"github.com/guility/relrag/internal/embedding"
	"github.com/guility/relrag/internal/httpapi"
	"github.com/guility/relrag/internal/identity"
	"github.com/guility/relrag/internal/ingestion"
	"github.com/guility/relrag/internal/migration"
	"github.com/guility/relrag/internal/observability"
	"github.com/guility/relrag/internal/permission"
	"github.com/guility/relrag/internal/permissionadmin"
	"github.com/guility/relrag/internal/postgres"
	"github.com/guility/relrag/internal/propertyschema"
	"github.com/guility/relrag/internal/relrag"
	"github.com/guility/relrag/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("", "info")
		log.Fatal().Err(err).Msg("load configuration")
	}
	observability.InitLogger(cfg.LogPath, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.OpenPool(ctx, cfg.DatabaseURL, cfg.DBPoolMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("open database pool")
	}
	defer pool.Close()

	if err := postgres.Bootstrap(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("bootstrap schema")
	}

	runner := postgres.NewRunner(pool)

	var embedder relrag.EmbeddingProvider = embedding.NewClient(embedding.Config{
		APIURL:  cfg.EmbeddingAPIURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
		Timeout: time.Duration(cfg.EmbeddingTimeoutSeconds) * time.Second,
	}, nil)

	if cfg.RedisURL != "" {
		cache, err := embedding.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis cache unavailable, embeddings will not be cached")
		} else {
			defer cache.Close()
			embedder = embedding.NewCachingProvider(embedder.(*embedding.Client), cache, cfg.EmbeddingModel)
		}
	}

	var verifier *identity.Verifier
	if cfg.KeycloakURL != "" {
		issuer := cfg.KeycloakURL + "/realms/" + cfg.KeycloakRealm
		verifier, err = identity.NewVerifier(ctx, issuer, cfg.KeycloakClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("construct OIDC verifier")
		}

		if cfg.KeycloakClientSecret != "" {
			cc := clientcredentials.Config{
				ClientID:     cfg.KeycloakClientID,
				ClientSecret: cfg.KeycloakClientSecret,
				TokenURL:     verifier.Endpoint().TokenURL,
			}
			if _, err := cc.Token(ctx); err != nil {
				log.Warn().Err(err).Msg("keycloak client_credentials probe failed; confidential-client operations may fail")
			}
		}
	}

	permChecker := permission.New(runner)
	textChunker := chunker.New()

	server := httpapi.NewServer(httpapi.Deps{
		UnitOfWork:      runner,
		Verifier:        verifier,
		Permission:      permChecker,
		CollectionAdmin: collectionadmin.New(runner, embedder),
		DocParser:       docparser.New(),
		Ingestion:       ingestion.New(runner, permChecker, textChunker, embedder),
		Search:          search.New(runner, permChecker, embedder),
		Migration:       migration.New(runner, permChecker, textChunker, embedder),
		PermissionAdmin: permissionadmin.New(runner, permChecker),
		PropertySchema:  propertyschema.New(runner, permChecker),
		ModelID:         cfg.EmbeddingModel,
		ModelDims:       0,
		CORSOrigins:     cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("relrag listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
