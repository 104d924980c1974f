// Package main runs the pump.fun graduation radar: the live migration
// stream feeds the monitor, which serves its analyzed history over the
// JSON API and the SSE stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pumpfun-radar/internal/api"
	"pumpfun-radar/internal/bus"
	"pumpfun-radar/internal/enrich"
	"pumpfun-radar/internal/monitor"
	"pumpfun-radar/internal/oracle"
	"pumpfun-radar/internal/providers"
	"pumpfun-radar/internal/pumpfun"
	"pumpfun-radar/internal/scoring"
	"pumpfun-radar/internal/solana"
)

const shutdownDrain = 5 * time.Second

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	port := flag.String("port", envOr("PORT", "8080"), "HTTP listen port")
	wsEndpoint := flag.String("ws-endpoint", envOr("PUMPFUN_WS_URL", pumpfun.DefaultEndpoint), "Pump.fun migration WebSocket endpoint")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	enhancedBase := flag.String("enhanced-api", os.Getenv("ENHANCED_API_URL"), "Enhanced transaction API base URL")
	indexerBase := flag.String("indexer-url", envOr("INDEXER_API_URL", "https://solana-gateway.moralis.io"), "Token indexer base URL (graduated, pairs, holders)")
	swapBase := flag.String("swap-feed-url", envOr("SWAP_FEED_URL", "https://solana-gateway.moralis.io"), "Swap feed base URL")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required (or SOLANA_RPC_ENDPOINT)")
	}

	indexerKeys := apiKeys("INDEXER")
	swapKeys := apiKeys("SWAP_FEED")
	if len(swapKeys) == 0 {
		swapKeys = indexerKeys
	}

	// SOL/USD oracle shared by the stream and backfill.
	priceOracle := oracle.New(oracle.Options{
		Logger: log.New(os.Stdout, "[oracle] ", log.LstdFlags),
	})

	// Providers
	providerLogger := log.New(os.Stdout, "[providers] ", log.LstdFlags)
	graduated := providers.NewGraduatedIndexClient(providers.GraduatedIndexOptions{
		BaseURL: *indexerBase,
		APIKeys: indexerKeys,
		Logger:  providerLogger,
	})
	pairs := providers.NewPairIndexClient(providers.PairIndexOptions{
		BaseURL: *indexerBase,
		APIKeys: indexerKeys,
		Logger:  providerLogger,
	})
	holders := providers.NewHolderRegistryClient(providers.HolderRegistryOptions{
		BaseURL: *indexerBase,
		APIKeys: indexerKeys,
		Logger:  providerLogger,
	})
	swaps := providers.NewSwapFeedClient(providers.SwapFeedOptions{
		BaseURL: *swapBase,
		APIKeys: swapKeys,
		Logger:  providerLogger,
	})

	// Chain RPC
	chainOpts := []solana.ClientOption{solana.WithTimeout(10 * time.Second)}
	if *enhancedBase != "" {
		chainOpts = append(chainOpts, solana.WithEnhancedAPI(*enhancedBase, os.Getenv("ENHANCED_API_KEY")))
	}
	chain := solana.NewClient(*rpcEndpoint, chainOpts...)

	// Enrichment and scoring
	cfg := scoring.FromEnv(logger)
	orchestrator := enrich.New(enrich.Options{
		Pairs:   pairs,
		Holders: holders,
		Swaps:   swaps,
		Chain:   chain,
		Engine:  scoring.NewEngine(cfg),
		Logger:  log.New(os.Stdout, "[enrich] ", log.LstdFlags),
	})

	// Live migration stream
	stream := pumpfun.NewSource(*wsEndpoint, nil, priceOracle, log.New(os.Stdout, "[pumpfun] ", log.LstdFlags))

	mon := monitor.New(monitor.Options{
		Enricher:  orchestrator,
		Graduated: graduated,
		Stream:    stream,
		SolPrice:  priceOracle,
		Bus:       bus.New(),
		Logger:    log.New(os.Stdout, "[monitor] ", log.LstdFlags),
	})

	server := api.NewServer(api.Options{
		Monitor: mon,
		Logger:  logger,
	})

	httpServer := &http.Server{
		Addr:    ":" + *port,
		Handler: server.Routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		logger.Fatalf("Server error: %v", err)
	}

	// Second signal forces immediate exit.
	go func() {
		sig := <-sigCh
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	}()

	// Close the upstream first, then stop accepting HTTP, then drain
	// in-flight enrichments.
	mon.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}

	logger.Println("Shutdown complete")
}

// envOr returns the env value or a default when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// apiKeys collects the primary key plus up to two fallbacks:
// PREFIX_API_KEY, PREFIX_API_KEY_2, PREFIX_API_KEY_3.
func apiKeys(prefix string) []string {
	var keys []string
	for _, name := range []string{
		prefix + "_API_KEY",
		prefix + "_API_KEY_2",
		prefix + "_API_KEY_3",
	} {
		if v := os.Getenv(name); v != "" {
			keys = append(keys, v)
		}
	}
	return keys
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
