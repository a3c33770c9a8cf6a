// Package main is the RecallGuard CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/alternatives"
	"github.com/safebuy/recallguard/internal/config"
	"github.com/safebuy/recallguard/internal/dictionary"
	"github.com/safebuy/recallguard/internal/imagetext"
	"github.com/safebuy/recallguard/internal/ingest"
	"github.com/safebuy/recallguard/internal/models"
	"github.com/safebuy/recallguard/internal/search"
	"github.com/safebuy/recallguard/internal/server"
	"github.com/safebuy/recallguard/internal/storage"
	"github.com/safebuy/recallguard/internal/variant"
	"github.com/safebuy/recallguard/internal/watcher"
	"github.com/safebuy/recallguard/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/recallguard/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("recallguard version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds the wired application pieces.
type Components struct {
	Store    storage.Store
	Dict     *dictionary.Cache
	Variants *variant.Filter
	Engine   *search.Engine
	Feed     *ingest.FeedIngester
	Sheets   *ingest.SpreadsheetIngester
}

// Close releases held resources.
func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// initializeComponents builds the store, dictionary, variant filter, search
// engine, and ingesters from config. Optional capabilities (variant
// generation, image extraction, alternatives) activate only when their
// credentials are configured.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	dict := dictionary.NewCache(store, logger)

	var gen variant.Generator
	if cfg.OpenAI.APIKey != "" {
		gen = variant.NewOpenAIGenerator(
			cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.ChatModel,
			time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second)
	}
	variants := variant.NewFilter(dict, gen, logger)

	opts := []search.EngineOption{
		search.WithDetailBaseURL(cfg.Search.DetailBaseURL),
	}
	if cfg.OpenAI.APIKey != "" {
		opts = append(opts, search.WithImageExtractor(imagetext.NewOpenAIExtractor(
			cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.VisionModel,
			time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second)))
	}
	if cfg.Shop.ClientID != "" && cfg.Shop.ClientSecret != "" {
		opts = append(opts, search.WithAlternatives(alternatives.NewClient(
			cfg.Shop.ClientID, cfg.Shop.ClientSecret, cfg.Shop.BaseURL,
			time.Duration(cfg.Shop.TimeoutSeconds)*time.Second, logger)))
	}
	engine := search.NewEngine(store, variants, logger, opts...)

	var feed *ingest.FeedIngester
	if cfg.Feed.URL != "" {
		feed = ingest.NewFeedIngester(
			cfg.Feed.URL, cfg.Feed.ServiceKey, cfg.Feed.PageSize,
			store, dict, time.Duration(cfg.Feed.TimeoutSeconds)*time.Second, logger)
	}

	return &Components{
		Store:    store,
		Dict:     dict,
		Variants: variants,
		Engine:   engine,
		Feed:     feed,
		Sheets:   ingest.NewSpreadsheetIngester(store, dict, logger),
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Build the dictionary from whatever is already stored so search works
	// before the first ingest finishes.
	go func() {
		if err := components.Dict.Refresh(context.Background()); err != nil {
			logger.Warn("initial dictionary build failed", zap.Error(err))
		}
	}()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if cfg.Import.Directory != "" {
		sheets := components.Sheets
		watchSvc = watcher.NewWatcher(cfg.Import.Directory, func(path string) {
			if _, err := sheets.ImportFile(context.Background(), path); err != nil {
				logger.Warn("spreadsheet import failed", zap.String("path", path), zap.Error(err))
			}
		}, logger)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start import watcher", zap.Error(err))
		}
	}

	var feedIngester server.Ingester
	if components.Feed != nil {
		feedIngester = components.Feed
	}
	srv := server.NewServer(components.Engine, feedIngester, components.Store, components.Dict, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (empty = use direct storage when server is not running)`)
	product := fs.String("product", "", "product name")
	manufacturer := fs.String("manufacturer", "", "manufacturer name")
	model := fs.String("model", "", "model name")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	// Bare positional words are taken as the product name.
	if *product == "" && fs.NArg() > 0 {
		joined := ""
		for i, a := range fs.Args() {
			if i > 0 {
				joined += " "
			}
			joined += a
		}
		*product = joined
	}
	if *product == "" && *manufacturer == "" && *model == "" {
		fmt.Println(`Usage: recallguard search [flags] [product name]

Provide at least one of --product, --manufacturer, --model, or a positional product name.`)
		os.Exit(1)
	}

	req := &models.SearchRequest{
		ProductName:  *product,
		Manufacturer: *manufacturer,
		ModelName:    *model,
	}

	var resp *models.SearchResponse
	if *serverURL != "" {
		r, err := searchViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		resp = r
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		if err := components.Dict.Refresh(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Dictionary build failed: %v\n", err)
			os.Exit(1)
		}
		r, err := components.Engine.Search(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		resp = r
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printSearchResult(resp)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printSearchResult(resp *models.SearchResponse) {
	if !resp.Found {
		fmt.Println("No recall found.")
		if resp.Message != "" {
			fmt.Println(resp.Message)
		}
		return
	}
	fmt.Printf("recall:        %s\n", resp.RecallSN)
	fmt.Printf("product:       %s\n", resp.ProductName)
	fmt.Printf("manufacturer:  %s\n", resp.Manufacturer)
	if resp.ModelName != "" {
		fmt.Printf("model:         %s\n", resp.ModelName)
	}
	if resp.DefectDescription != "" {
		fmt.Printf("defect:        %s\n", resp.DefectDescription)
	}
	if resp.PublicationDate != "" {
		fmt.Printf("published:     %s\n", resp.PublicationDate)
	}
	fmt.Printf("risk:          %d (%s)\n", resp.RiskScore, resp.RiskLevel)
	if resp.PartialMatch {
		fmt.Println("note:          partial match via full-store scan")
	}
	if resp.DetailURL != "" {
		fmt.Printf("detail:        %s\n", resp.DetailURL)
	}
	for _, alt := range resp.Alternatives {
		fmt.Printf("alternative:   %s %s %s\n", alt.Title, alt.Price, alt.Link)
	}
}

// searchViaHTTP posts the query to a running server. A 404 is a valid
// negative result carrying a response body, not a transport failure.
func searchViaHTTP(serverURL string, req *models.SearchRequest) (*models.SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	file := fs.String("file", "", "import a local .xlsx file instead of the feed")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	var res *ingest.Result
	if *file != "" {
		res, err = components.Sheets.ImportFile(context.Background(), *file)
	} else {
		if components.Feed == nil {
			fmt.Println("No feed URL configured; use --file to import a spreadsheet.")
			os.Exit(1)
		}
		res, err = components.Feed.Run(context.Background())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("fetched: %d\nstored:  %d\nskipped: %d\n", res.Fetched, res.Stored, res.Skipped)
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Records    int64          `json:"records"`
	Dictionary map[string]int `json:"dictionary"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (empty = use direct storage)`)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()

		ctx := context.Background()
		count, err := components.Store.CountRecords(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count records failed: %v\n", err)
			os.Exit(1)
		}
		if err := components.Dict.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Dictionary build failed: %v\n", err)
			os.Exit(1)
		}
		manu, prod, model := components.Dict.Snapshot().Sizes()
		status = statusResponse{
			Records: count,
			Dictionary: map[string]int{
				"manufacturers": manu,
				"products":      prod,
				"models":        model,
			},
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("records:        %d\n", status.Records)
		fmt.Printf("manufacturers:  %d\n", status.Dictionary["manufacturers"])
		fmt.Printf("products:       %d\n", status.Dictionary["products"])
		fmt.Printf("models:         %d\n", status.Dictionary["models"])
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`recallguard - product recall lookup and risk scoring

Usage:
  recallguard server [flags]            Start the HTTP server
  recallguard search [flags] [product]  Check a product against recall records
  recallguard ingest [flags]            Refresh records from the feed or a file
  recallguard status [flags]            Show record and dictionary counts
  recallguard version                   Show version
  recallguard help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/recallguard/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string        Config file path (for direct storage mode)
  --server string        Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --product string       Product name (or pass it as positional words)
  --manufacturer string  Manufacturer name
  --model string         Model name
  --output string        Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path
  --file string      Import a local .xlsx file instead of the feed

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  recallguard server
  recallguard search 유아용침대
  recallguard search --manufacturer "Sunnybury Baby" --model MC676
  recallguard search --output json 전기주전자
  recallguard ingest
  recallguard ingest --file recalls.xlsx
  recallguard status --output json`)
}
