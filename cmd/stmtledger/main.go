package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ledgerhound/stmtledger/internal/categorize"
	"github.com/ledgerhound/stmtledger/internal/classify"
	"github.com/ledgerhound/stmtledger/internal/domain"
	"github.com/ledgerhound/stmtledger/internal/export"
	"github.com/ledgerhound/stmtledger/internal/ledger"
	"github.com/ledgerhound/stmtledger/internal/lex"
	"github.com/ledgerhound/stmtledger/internal/logger"
	"github.com/ledgerhound/stmtledger/internal/reconcile"
	"github.com/ledgerhound/stmtledger/internal/registry"
	"github.com/ledgerhound/stmtledger/internal/scanner"
	"github.com/ledgerhound/stmtledger/internal/ui"
	"github.com/ledgerhound/stmtledger/internal/validate"
)

const (
	version = "0.1.0"
)

// assignList collects repeated -assign merchant=Category flags.
type assignList []string

func (a *assignList) String() string { return strings.Join(*a, ",") }

func (a *assignList) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected merchant=Category, got %q", v)
	}
	*a = append(*a, v)
	return nil
}

var (
	versionFlag = flag.Bool("version", false, "Show version")

	inputPath  = flag.String("input", "", "Statement text file or directory (required)")
	yearFlag   = flag.Int("year", 0, "Statement year (default: from filename, else current year)")
	dryRun     = flag.Bool("dry-run", false, "Show what would be processed without writing")
	verbose    = flag.Bool("verbose", false, "Show detailed processing logs")
	outputFile = flag.String("output", "-", "Output CSV file (default: stdout)")

	mappingFile = flag.String("mapping", "", "Merchant-to-category mapping CSV file")
	storeKind   = flag.String("store", "csv", "Mapping store backend: csv or sqlite")
	configFile  = flag.String("config", "", "Reconciliation config YAML (default: built-in)")
	categories  = flag.String("categories", "", "Extra category labels to register, comma-separated")
	modelFile   = flag.String("model", "", "Classifier model JSON for category suggestions")

	assigns assignList
)

func main() {
	flag.Var(&assigns, "assign", "Assign merchant=Category (repeatable)")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `stmtledger - Bank statement text to categorized ledger CSV

Usage:
  stmtledger [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Process one statement to stdout
  stmtledger -input statement-2024.txt

  # Process a directory with a persistent merchant map
  stmtledger -input ~/statements -mapping mapping.csv -output ledger.csv

  # Record categories for merchants flagged on a previous run
  stmtledger -input s.txt -mapping mapping.csv -assign "fairprice finest=Groceries"

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("stmtledger version %s\n", version)
		os.Exit(0)
	}

	if *inputPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := logger.New(*verbose)
	sessionID := uuid.New().String()
	log = log.With().Str("session", sessionID).Logger()

	for _, c := range strings.Split(*categories, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if err := domain.RegisterCategory(domain.Category(c)); err != nil {
			return fmt.Errorf("invalid -categories entry: %w", err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files, err := collectFiles()
	if err != nil {
		return err
	}

	if !*verbose {
		ui.Header("Processing Bank Statements")
		ui.Step(1, 6, "Scanning input")
		ui.Success(fmt.Sprintf("Found %d statement files", len(files)))
	}
	log.Info().Int("files", len(files)).Msg("scan complete")

	if *dryRun {
		for _, f := range files {
			fmt.Printf("would process %s (year %d)\n", f.Path, resolveYear(f))
		}
		fmt.Printf("Dry run complete. Would process %d files.\n", len(files))
		return nil
	}

	if len(files) == 0 {
		return fmt.Errorf("no statement files found at %s\n\nPlease check:\n  - Path is correct\n  - Files have a .txt extension\n\nRun with -verbose to see discovery details", *inputPath)
	}

	cat, err := buildCategorizer(log)
	if err != nil {
		return err
	}

	if !*verbose {
		ui.Step(2, 6, "Extracting transactions")
	}

	chain := registry.New()
	var allRecords []domain.TransactionRecord
	var allWarnings []string
	var grammarName string
	var trailer ledger.Trailer
	var haveTrailer bool

	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Path, err)
		}
		text := string(data)
		year := resolveYear(f)

		result, err := chain.Run(text, nil, year)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		log.Debug().Str("file", f.Path).Str("grammar", result.Grammar).
			Int("tokens", len(result.Tokens)).Msg("extracted")
		grammarName = result.Grammar

		rec := reconcile.New(cfg, nil)
		records, warnings := rec.Reconcile(result.Tokens, year)
		allRecords = append(allRecords, records...)
		allWarnings = append(allWarnings, warnings...)

		if tr, ok := ledger.ScanTrailer(text); ok {
			trailer, haveTrailer = tr, true
		}
	}

	if !*verbose {
		ui.Success(fmt.Sprintf("Extracted %d transactions via %s grammar", len(allRecords), grammarName))
		ui.Step(3, 6, "Assembling ledger")
	}

	l, err := ledger.Assemble(allRecords, grammarName, allWarnings)
	if err != nil {
		return fmt.Errorf("failed to assemble ledger: %w", err)
	}
	if haveTrailer {
		for _, w := range ledger.CheckTrailer(l, trailer, cfg.Tolerance()) {
			l.AddWarning(w)
		}
	}

	if !*verbose {
		ui.Step(4, 6, "Categorizing merchants")
	}
	if err := applyCategories(log, cat, l); err != nil {
		return err
	}

	if !*verbose {
		ui.Step(5, 6, "Validating")
	}
	result := validate.ValidateLedger(l)
	for _, w := range l.Warnings() {
		ui.Warning(w)
		log.Warn().Msg(w)
	}
	for _, w := range result.Warnings {
		log.Warn().Int("record", w.Record).Str("field", w.Field).Msg(w.Message)
	}
	if !result.IsValid() {
		ui.Error(fmt.Sprintf("Validation failed: %s", result.Summary()))
		for _, e := range result.Errors {
			ui.Error(fmt.Sprintf("record %d [%s]: %s", e.Record, e.Field, e.Message))
		}
		return fmt.Errorf("ledger validation failed: %s", result.Summary())
	}
	ui.Success(fmt.Sprintf("Validation passed (%s)", result.Summary()))

	if !*verbose {
		ui.Step(6, 6, "Writing output")
	}
	if err := export.WriteFile(*outputFile, l); err != nil {
		return err
	}
	if *outputFile != "-" {
		ui.Success(fmt.Sprintf("Output written to %s", *outputFile))
	}

	printSummary(l)
	return nil
}

func loadConfig() (*reconcile.Config, error) {
	if *configFile != "" {
		return reconcile.LoadFromFile(*configFile)
	}
	return reconcile.LoadEmbedded()
}

// collectFiles accepts either a single statement file or a directory tree.
func collectFiles() ([]scanner.ScanResult, error) {
	info, err := os.Stat(*inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input %s: %w", *inputPath, err)
	}
	if !info.IsDir() {
		return []scanner.ScanResult{{
			Path: *inputPath,
			Year: lex.ResolveYear(filepath.Base(*inputPath), 0),
		}}, nil
	}
	return scanner.New(*inputPath).Scan()
}

func resolveYear(f scanner.ScanResult) int {
	if *yearFlag > 0 {
		return *yearFlag
	}
	return f.Year
}

// buildCategorizer wires the mapping store and the optional classifier.
// Without -mapping, categorization is skipped and records export unlabeled.
func buildCategorizer(log zerolog.Logger) (*categorize.Categorizer, error) {
	if *mappingFile == "" {
		log.Debug().Msg("no mapping file, skipping categorization")
		return nil, nil
	}

	var store categorize.Store
	switch *storeKind {
	case "csv":
		store = categorize.NewCSVStore(*mappingFile)
	case "sqlite":
		s, err := categorize.NewSQLiteStore(*mappingFile)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown -store backend %q (must be csv or sqlite)", *storeKind)
	}

	var suggester categorize.Suggester
	if *modelFile != "" {
		model, err := loadOrTrainModel(log, store)
		if err != nil {
			return nil, err
		}
		suggester = model
	}

	cat, err := categorize.New(store, suggester)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("merchants", cat.Len()).Msg("mapping loaded")
	return cat, nil
}

// loadOrTrainModel loads the classifier model, training a fresh one from the
// mapping when the model file does not exist yet.
func loadOrTrainModel(log zerolog.Logger, store categorize.Store) (*classify.Model, error) {
	if _, err := os.Stat(*modelFile); err == nil {
		return classify.Load(*modelFile)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat model file: %w", err)
	}

	mapping, err := store.Load()
	if err != nil {
		return nil, err
	}
	model, err := classify.TrainFromMapping(mapping, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to train suggestion model from mapping: %w", err)
	}
	if err := model.Save(*modelFile); err != nil {
		return nil, err
	}
	log.Info().Str("model", *modelFile).Int("merchants", len(mapping)).Msg("trained suggestion model")
	return model, nil
}

// applyCategories labels the ledger from the map, records any -assign
// answers, and surfaces the rest as warnings with advisory suggestions.
func applyCategories(log zerolog.Logger, cat *categorize.Categorizer, l *domain.Ledger) error {
	if cat == nil {
		return nil
	}

	pending, err := cat.Apply(l)
	if err != nil {
		return err
	}

	answers := make(map[string]domain.Category)
	for _, a := range assigns {
		merchant, category, _ := strings.Cut(a, "=")
		answers[strings.ToLower(strings.TrimSpace(merchant))] = domain.Category(strings.TrimSpace(category))
	}

	records := l.Records()
	var unresolved []int
	for _, i := range pending {
		if category, ok := answers[strings.ToLower(records[i].Merchant)]; ok {
			if err := cat.Assign(l, i, category); err != nil {
				return err
			}
			continue
		}
		unresolved = append(unresolved, i)
	}

	// Assign fills forward, so re-check what is still unlabeled.
	records = l.Records()
	seen := make(map[string]bool)
	suggestions := make(map[int]domain.Category)
	for _, s := range cat.Suggestions(l, unresolved) {
		suggestions[s.Index] = s.Category
	}
	for _, i := range unresolved {
		if records[i].Category != "" || seen[records[i].Merchant] {
			continue
		}
		seen[records[i].Merchant] = true
		msg := fmt.Sprintf("uncategorized merchant %q", records[i].Merchant)
		if sug, ok := suggestions[i]; ok {
			msg += fmt.Sprintf(" (suggestion: %s)", sug)
		}
		ui.Warning(msg)
		log.Warn().Str("merchant", records[i].Merchant).Msg("uncategorized")
	}
	if len(seen) > 0 {
		ui.Info(fmt.Sprintf("Record categories with -assign \"merchant=Category\" (%d merchants pending)", len(seen)))
	}
	return nil
}

// formatAmount renders a summary amount with thousands grouping, e.g.
// "1,200.00". Exported CSV cells stay ungrouped.
func formatAmount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return message.NewPrinter(language.English).Sprintf("%.2f", f)
}

func printSummary(l *domain.Ledger) {
	fmt.Printf("\nLedger: %d records\n", l.Len())
	fmt.Printf("  Total withdrawals: %s\n", formatAmount(l.TotalWithdrawals()))
	fmt.Printf("  Total deposits:    %s\n", formatAmount(l.TotalDeposits()))
	if ob := l.OpeningBalance(); ob.Valid {
		fmt.Printf("  Opening balance:   %s\n", formatAmount(ob.Decimal))
	}
	if cb := l.ClosingBalance(); cb.Valid {
		fmt.Printf("  Closing balance:   %s\n", formatAmount(cb.Decimal))
	}
}
