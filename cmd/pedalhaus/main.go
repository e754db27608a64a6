package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/pedalhaus/pedalhaus/agent"
	"github.com/pedalhaus/pedalhaus/plugin/crm"
	"github.com/pedalhaus/pedalhaus/plugin/llm"
	"github.com/pedalhaus/pedalhaus/plugin/memory"
	"github.com/pedalhaus/pedalhaus/plugin/vectorstore"
	"github.com/pedalhaus/pedalhaus/server"
	"github.com/pedalhaus/pedalhaus/server/profile"
	apiv1 "github.com/pedalhaus/pedalhaus/server/router/api/v1"
	"github.com/pedalhaus/pedalhaus/store"
	memdb "github.com/pedalhaus/pedalhaus/store/db/memory"
	redisdb "github.com/pedalhaus/pedalhaus/store/db/redis"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pedalhaus",
		Short: "Conversational sales assistant for an online bike shop",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Index the product catalog and FAQ into the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd, indexCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	p, err := profile.Load()
	if err != nil {
		return err
	}
	if p.LLMAPIKey == "" {
		return errors.New("PEDALHAUS_LLM_API_KEY is required")
	}

	kb, err := openKnowledgeBase(p)
	if err != nil {
		return err
	}

	gen, err := llm.New(llm.Config{
		BaseURL: p.LLMBaseURL,
		APIKey:  p.LLMAPIKey,
		Model:   p.LLMModel,
	})
	if err != nil {
		return err
	}

	var mem agent.Memory
	if p.MemoryBaseURL != "" {
		mem = memory.New(p.MemoryBaseURL, p.MemoryAPIKey)
	}

	sessions, err := newSessionStore(p)
	if err != nil {
		return err
	}

	orch := agent.New(sessions, kb, gen, crm.New(p.CRMBaseURL, p.CRMAPIKey), mem)
	api := apiv1.NewAPIV1Service(p, sessions, orch)
	srv := server.NewServer(p, sessions, api)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runIndex(ctx context.Context) error {
	p, err := profile.Load()
	if err != nil {
		return err
	}
	if p.LLMAPIKey == "" {
		return errors.New("PEDALHAUS_LLM_API_KEY is required for embeddings")
	}

	kb, err := openKnowledgeBase(p)
	if err != nil {
		return err
	}

	n, err := kb.IndexCatalog(ctx, p.CatalogPath)
	if err != nil {
		return errors.Wrap(err, "index catalog")
	}
	slog.Info("catalog indexed", "products", n)

	n, err = kb.IndexFAQ(ctx, p.FAQPath)
	if err != nil {
		return errors.Wrap(err, "index faq")
	}
	slog.Info("faq indexed", "entries", n)
	return nil
}

func openKnowledgeBase(p *profile.Profile) (*vectorstore.Store, error) {
	embedFn := chromem.NewEmbeddingFuncOpenAICompat(
		p.LLMBaseURL, p.LLMAPIKey, p.EmbeddingModel, nil)
	return vectorstore.New(p.Data, embedFn)
}

func newSessionStore(p *profile.Profile) (*store.Store, error) {
	opts := []store.Option{
		store.WithTTL(p.SessionTTL),
		store.WithMaxTurns(p.MaxTurns),
	}
	switch p.Driver {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: p.RedisAddr})
		driver, err := redisdb.New(client, p.SessionTTL)
		if err != nil {
			return nil, err
		}
		return store.New(driver, opts...)
	case "memory":
		return store.New(memdb.New(), opts...)
	default:
		return nil, errors.Wrapf(store.ErrInvalidDriver, "%q", p.Driver)
	}
}
