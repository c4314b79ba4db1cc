package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/solarplanninganalytics/docket/internal/common"
	"github.com/solarplanninganalytics/docket/internal/export"
	"github.com/solarplanninganalytics/docket/internal/ingest"
	"github.com/solarplanninganalytics/docket/internal/llm"
	"github.com/solarplanninganalytics/docket/internal/ocr"
	"github.com/solarplanninganalytics/docket/internal/pipeline"
	repo "github.com/solarplanninganalytics/docket/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir        = flag.String("dir", "", "directory to scan recursively for PDFs (required)")
		out        = flag.String("out", "", "output XLSX file path (defaults to parent directory)")
		snippets   = flag.String("snippets", "", "audit snippet JSONL path (defaults to parent directory)")
		enableOCR  = flag.Bool("ocr", false, "enable OCR fallback for pages with little/no text")
		engineName = flag.String("engine", "rules", "extraction engine: rules | gemini")
		route      = flag.Bool("route", false, "gate extraction behind the relevance router")
		inmem      = flag.Bool("inmem", false, "use an in-memory SQLite ledger")
		delay      = flag.Duration("delay", -1, "inter-document delay (overrides ANALYSIS_DELAY)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *engineName != "rules" && *engineName != "gemini" {
		printError("Error: --engine must be rules or gemini\n")
		os.Exit(1)
	}
	parentDir := filepath.Dir(*dir)
	if *out == "" {
		*out = filepath.Join(parentDir, "docket.xlsx")
	}
	if *snippets == "" {
		*snippets = filepath.Join(parentDir, "snippets.jsonl")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	needsLLM := *engineName == "gemini" || *route
	if needsLLM {
		if err := cfg.ValidateForLLM(); err != nil {
			logger.Error("configuration invalid", "error", err)
			os.Exit(1)
		}
	}
	analysisDelay := cfg.Pipeline.AnalysisDelay
	if *delay >= 0 {
		analysisDelay = *delay
	}

	// Open the ledger
	dbCfg := repo.Config{DSN: cfg.Database.DSN, DialTimeout: cfg.Database.DialTimeout}
	if *inmem {
		dbCfg.DSN = ":memory:"
	}
	db, err := repo.Open(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	docs := repo.NewDocumentRepository(db, logger)
	if err := docs.Bootstrap(ctx); err != nil {
		logger.Error("failed to bootstrap ledger", "error", err)
		os.Exit(1)
	}

	// Acquisition: discover PDFs and fill the ledger
	var ocrExtractor *ocr.Extractor
	if *enableOCR {
		ocrExtractor = ocr.NewExtractor(ocr.Config{
			Pdftoppm:      cfg.OCR.Pdftoppm,
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
			TessdataDir:   cfg.OCR.TessdataDir,
			DPI:           cfg.OCR.DPI,
			MaxPages:      cfg.OCR.MaxPages,
		}, logger)
	}
	acquirer := ingest.NewAcquirer(docs, ocrExtractor, cfg.OCR.TextThreshold, logger)

	logger.Info("starting acquisition", "dir", *dir, "ocr", *enableOCR)
	stats, err := acquirer.AcquireDirectory(ctx, *dir)
	if err != nil {
		logger.Error("failed to acquire directory", "error", err)
		os.Exit(1)
	}
	if stats.Matched == 0 {
		printError("No PDFs found under %s\n", *dir)
		os.Exit(1)
	}
	logger.Info("acquisition complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"skipped", stats.Skipped,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed)

	// Output sink: snippets stream to disk as they are produced
	snipFile, err := os.Create(*snippets)
	if err != nil {
		logger.Error("failed to create snippet log", "path", *snippets, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := snipFile.Close(); err != nil {
			logger.Warn("failed to close snippet log", "error", err)
		}
	}()
	sink := export.NewSink(snipFile, logger)

	// Gemini client, shared by the router and the delegated engine
	var gemRouter llm.RelevanceRouter
	var engine pipeline.Engine
	if needsLLM {
		if *route {
			routerGen, err := llm.NewGemini(ctx, llm.GeminiConfig{
				APIKey:  cfg.LLM.APIKey,
				Model:   cfg.LLM.RouterModel,
				Timeout: cfg.LLM.Timeout,
			}, logger)
			if err != nil {
				logger.Error("failed to create router client", "error", err)
				os.Exit(1)
			}
			defer func() { _ = routerGen.Close() }()
			gemRouter = llm.NewRouter(routerGen, cfg.LLM.RouterMaxChars, logger)
		}
		if *engineName == "gemini" {
			extractGen, err := llm.NewGemini(ctx, llm.GeminiConfig{
				APIKey:  cfg.LLM.APIKey,
				Model:   cfg.LLM.ExtractModel,
				Timeout: cfg.LLM.Timeout,
			}, logger)
			if err != nil {
				logger.Error("failed to create extractor client", "error", err)
				os.Exit(1)
			}
			defer func() { _ = extractGen.Close() }()
			engine = pipeline.NewDelegatedEngine(llm.NewExtractor(extractGen, cfg.LLM.ExtractMaxChars, logger))
		}
	}
	if engine == nil {
		engine = pipeline.NewRuleEngine(sink, logger)
	}

	// Analysis run
	orch := pipeline.NewOrchestrator(docs, gemRouter, engine, analysisDelay, logger)
	counts, err := orch.Run(ctx)
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	// Materialize the workbook
	xlsxBytes, err := sink.WriteXLSX()
	if err != nil {
		logger.Error("failed to write workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"relevant", counts.Relevant,
		"irrelevant", counts.Irrelevant,
		"errors", counts.Errored,
		"rows", sink.RowCount(),
		"snippets", sink.SnippetCount(),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents analyzed: %d\n", counts.Relevant)
	fmt.Printf("- Irrelevant: %d\n", counts.Irrelevant)
	fmt.Printf("- Errors (retried next run): %d\n", counts.Errored)
	fmt.Printf("- Rows: %d (snippets: %d)\n", sink.RowCount(), sink.SnippetCount())
	fmt.Printf("- Output: %s\n", *out)
	fmt.Printf("- Snippets: %s\n", *snippets)
}
