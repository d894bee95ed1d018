package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/bill-scanner/internal/bill"
	"github.com/zombor/bill-scanner/internal/categorize"
	"github.com/zombor/bill-scanner/internal/ocr"
	"github.com/zombor/bill-scanner/internal/pricing"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("bill-scanner")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "bill-scanner.db", "Database file path")
		storagePath = fs.StringLong("storage", "./bills", "Storage directory path")
		ocrLanguage = fs.StringLong("ocr-language", "eng", "Tesseract language code")
		debugDir    = fs.StringLong("debug-dir", "", "Directory for OCR overlay images (disabled when empty)")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		feedURL     = fs.StringLong("price-feed-url", "", "Live price feed base URL (estimates only when empty)")
		feedTimeout = fs.IntLong("price-feed-timeout", 5, "Price feed request timeout in seconds")
		cacheTTL    = fs.IntLong("price-cache-ttl", 3600, "Quote cache TTL in seconds")
		amazonTag   = fs.StringLong("amazon-tag", "", "Amazon affiliate tag")
		flipkartTag = fs.StringLong("flipkart-tag", "", "Flipkart affiliate ID")
		meeshoTag   = fs.StringLong("meesho-tag", "", "Meesho affiliate ID")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BILL_SCANNER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := bill.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := bill.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize OCR
	slog.Info("Initializing OCR...", "language", *ocrLanguage)
	extractor := ocr.NewExtractor(ocr.NewTesseract(*ocrLanguage))

	// Initialize categorization. Gemini when a key is configured; without
	// one the scanner still works but items are labeled "Other" and shopping
	// lists are derived from purchase history.
	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	var (
		categorizer categorize.Categorizer
		suggester   categorize.ListSuggester
	)
	if apiKey == "" {
		slog.Warn("No Gemini API key configured, categorization disabled. Set --gemini-key flag or GEMINI_API_KEY environment variable")
		disabled := categorize.Disabled{}
		categorizer = disabled
		suggester = disabled
	} else {
		slog.Info("Initializing Gemini...", "model", *geminiModel)
		gemini, err := categorize.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		categorizer = gemini
		suggester = gemini
	}

	// Initialize price comparison
	tags := pricing.AffiliateTags{
		Amazon:   *amazonTag,
		Flipkart: *flipkartTag,
		Meesho:   *meeshoTag,
	}
	estimator := pricing.NewEstimator(rand.New(rand.NewSource(time.Now().UnixNano())), tags)
	cache := pricing.NewCache(time.Duration(*cacheTTL)*time.Second, pricing.SystemClock{})
	var source pricing.QuoteSource
	if *feedURL != "" {
		slog.Info("Initializing price feed...", "url", *feedURL)
		source = pricing.NewFeed(*feedURL, time.Duration(*feedTimeout)*time.Second)
	}
	comparer := pricing.NewComparer(estimator, cache, source)

	// Initialize service
	billService := bill.NewService(db, store, extractor, categorizer, suggester, comparer,
		rand.New(rand.NewSource(time.Now().UnixNano())), *debugDir)

	// Initialize server
	server := bill.NewServer(billService)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}
