package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ppiankov/semsolver/internal/cache"
	"github.com/ppiankov/semsolver/internal/extract"
	"github.com/ppiankov/semsolver/internal/graph"
	"github.com/ppiankov/semsolver/internal/kb"
	"github.com/ppiankov/semsolver/internal/logging"
	"github.com/ppiankov/semsolver/internal/model"
	"github.com/ppiankov/semsolver/internal/pipeline"
	"github.com/ppiankov/semsolver/internal/recognize"
	"github.com/ppiankov/semsolver/internal/score"
	"github.com/ppiankov/semsolver/internal/sparql"
	"github.com/ppiankov/semsolver/internal/util"
	"github.com/ppiankov/semsolver/internal/validate"
	"github.com/ppiankov/semsolver/internal/worker"
)

// app holds the wired components of one command run.
type app struct {
	cfg      *model.Config
	store    *kb.Store
	pipeline *pipeline.Pipeline
}

// openStore starts the knowledge base service for cfg.
func openStore(ctx context.Context, cfg *model.Config) *kb.Store {
	return kb.Open(ctx, cfg.KnowledgeBase.Path, kb.Options{
		PersistOnClose: cfg.KnowledgeBase.PersistOnClose,
		QueueSize:      cfg.KnowledgeBase.QueueSize,
	})
}

// newApp wires the endpoint client, ontology, knowledge base and pipeline.
func newApp(ctx context.Context, cfg *model.Config, fillInBlank bool, obs pipeline.Observer) (*app, error) {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	if cfg.Endpoint.RespectRobots {
		if err := preflight(ctx, cfg, limiter); err != nil {
			return nil, err
		}
	}

	var responses cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		responses = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	client, err := sparql.NewHTTPClient(sparql.Options{
		Endpoint:     cfg.Endpoint.URL,
		UserAgent:    cfg.Endpoint.UserAgent,
		Timeout:      cfg.Endpoint.Timeout,
		MaxRetries:   cfg.Endpoint.MaxRetries,
		MaxBodyBytes: cfg.Endpoint.MaxBodyBytes,
		HTTPProxy:    cfg.Endpoint.HTTPProxy,
		HTTPSProxy:   cfg.Endpoint.HTTPSProxy,
		NoProxy:      cfg.Endpoint.NoProxy,
		Limiter:      limiter,
		Cache:        responses,
	})
	if err != nil {
		return nil, fmt.Errorf("create endpoint client: %w", err)
	}

	schema, err := graph.Load(cfg.Ontology.Path)
	if err != nil {
		return nil, fmt.Errorf("load ontology %s: %w", cfg.Ontology.Path, err)
	}
	reasoner := graph.BindSchema(schema)
	logging.Debug("ontology loaded", "path", cfg.Ontology.Path, "triples", schema.Len())

	store := openStore(ctx, cfg)

	p := pipeline.New(pipeline.Components{
		Recognizer: recognize.New(client, recognize.Options{
			Language:       cfg.Recognition.Language,
			Namespace:      cfg.Recognition.ResourceNamespace,
			ExactLimit:     cfg.Recognition.ExactLimit,
			SubstringLimit: cfg.Recognition.SubstringLimit,
			ExtraStopWords: cfg.Recognition.ExtraStopWords,
		}),
		Extractor:     extract.New(client, reasoner, cfg.Recognition.Language),
		Filter:        validate.NewFilter(cfg.Recognition.Language),
		Scorer:        score.New(client, reasoner, cfg.Concurrency.ScoringWorkers),
		KnowledgeBase: store,
		Observer:      obs,
	}, pipeline.Options{
		FillInBlank:      fillInBlank,
		MaxFragmentWords: cfg.Recognition.MaxFragmentWords,
		Timeouts:         cfg.Timeouts,
	})

	return &app{cfg: cfg, store: store, pipeline: p}, nil
}

// close drains the knowledge base, persisting when configured.
func (a *app) close(ctx context.Context) {
	if err := a.store.Close(ctx); err != nil {
		logging.Warn("knowledge base did not shut down cleanly", "err", err)
	}
}

// preflight consults the endpoint's robots.txt once and applies its crawl
// delay to the limiter. Only an explicit disallow is fatal.
func preflight(ctx context.Context, cfg *model.Config, limiter *worker.Limiter) error {
	hc := &http.Client{
		Timeout: cfg.Endpoint.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.Endpoint.HTTPProxy, cfg.Endpoint.HTTPSProxy, cfg.Endpoint.NoProxy),
		},
	}
	checker := util.NewRobotsChecker(cfg.Endpoint.UserAgent, cfg.Endpoint.Timeout, hc)

	delay, err := checker.Preflight(ctx, cfg.Endpoint.URL)
	switch {
	case errors.Is(err, util.ErrDisallowed):
		return err
	case err != nil:
		logging.Warn("robots.txt check failed, continuing", "endpoint", cfg.Endpoint.URL, "err", err)
		return nil
	}

	if delay > 0 {
		u, err := url.Parse(cfg.Endpoint.URL)
		if err == nil {
			limiter.SetHostDelay(u.Host, delay)
			logging.Info("honouring crawl delay", "host", u.Host, "delay", delay)
		}
	}
	return nil
}
