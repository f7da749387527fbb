package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	kycx "github.com/clearline-ai/kycflow/agent/agents/kyc"
	contractx "github.com/clearline-ai/kycflow/agent/contract"
	"github.com/clearline-ai/kycflow/agent/coordinator"
	llmx "github.com/clearline-ai/kycflow/agent/llm"
	statex "github.com/clearline-ai/kycflow/agent/state"
	toolx "github.com/clearline-ai/kycflow/agent/tool"
	configx "github.com/clearline-ai/kycflow/pkg/config"
	_ "github.com/clearline-ai/kycflow/pkg/logger/autoload"
	openrouterx "github.com/clearline-ai/kycflow/pkg/openrouter"
	toolserverx "github.com/clearline-ai/kycflow/pkg/toolserver"
	serverx "github.com/clearline-ai/kycflow/server"
)

type AppConfig struct {
	MaxChainDepth   int           `envconfig:"MAX_CHAIN_DEPTH" split_words:"true" default:"16"`
	DispatchTimeout time.Duration `envconfig:"DISPATCH_TIMEOUT" split_words:"true" default:"90s"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("KYC")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	pgCfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
	toolsrvCfg := configx.MustNew[toolserverx.Config]("TOOLSERVER")
	httpCfg := configx.MustNew[serverx.Config]("HTTP")

	ctx := context.Background()

	var (
		store statex.Store
		crm   *toolx.CRM
		kb    *toolx.KnowledgeBase
	)
	if pgCfg.DSN != "" {
		pg, err := statex.NewPostgresStore(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("create postgres store")
		}
		defer pg.Close()
		if err := pg.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("init postgres store")
		}
		store = pg

		crm = toolx.NewCRM(pg.DB())
		if err := crm.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("init crm tables")
		}
		kb = toolx.NewKnowledgeBase(
			pg.DB(),
			openrouterx.NewClient(llmCfg.ModelFor(contractx.StepRecommendation)),
			llmCfg.EmbeddingModel,
		)
		if err := kb.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("init kb tables")
		}
		log.Info().Msg("postgres session store connected")
	} else {
		store = statex.NewMemoryStore()
		log.Warn().Msg("POSTGRES_DSN not set; sessions are held in memory only")
	}

	var remote *toolserverx.Client
	if toolsrvCfg.URL != "" {
		remote = toolserverx.MustNew(*toolsrvCfg)
	} else {
		log.Warn().Msg("TOOLSERVER_URL not set; document and email tools are unavailable")
	}

	gateway := toolx.NewGateway(crm, kb, remote)

	registry, err := kycx.NewRegistry(ctx, *llmCfg, gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("build step agents")
	}

	coord, err := coordinator.New(store, registry, coordinator.Config{
		MaxChainDepth:   appCfg.MaxChainDepth,
		DispatchTimeout: appCfg.DispatchTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build coordinator")
	}

	srv := serverx.New(coord, store, *httpCfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}
