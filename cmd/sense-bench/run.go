package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/imagesense/sense-bench/internal/ann"
	"github.com/imagesense/sense-bench/internal/bus"
	"github.com/imagesense/sense-bench/internal/config"
	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/evaluation"
	"github.com/imagesense/sense-bench/internal/features"
	"github.com/imagesense/sense-bench/internal/history"
	"github.com/imagesense/sense-bench/internal/methods"
	"github.com/imagesense/sense-bench/internal/pkg/logger"
	"github.com/imagesense/sense-bench/internal/report"
)

// methodParamFlags maps CLI flags onto per-method parameter namespaces.
// Flag names mirror the method parameter names; a flag left unset keeps the
// method default.
var methodParamFlags = []struct {
	flag   string
	method string
	param  string
	usage  string
}{
	{"aid-gamma", "AID", "gamma", "direction match strictness for AID distance adjustment"},
	{"aid-k", "AID", "k", "number of top baseline results clustered by AID"},
	{"aid-n-clusters", "AID", "n_clusters", "fixed cluster count for AID (0 = automatic)"},
	{"aid-max-clusters", "AID", "max_clusters", "maximum cluster count for AID"},
	{"clue-k", "CLUE", "k", "number of top baseline results clustered by CLUE"},
	{"clue-max-clusters", "CLUE", "max_clusters", "maximum cluster count for CLUE"},
	{"clue-t", "CLUE", "T", "normalized-cut threshold for CLUE"},
	{"hard-select-k", "Hard-Select", "k", "number of top baseline results clustered by Hard-Select"},
	{"hard-select-n-clusters", "Hard-Select", "n_clusters", "fixed cluster count for Hard-Select (0 = automatic)"},
	{"hard-select-max-clusters", "Hard-Select", "max_clusters", "maximum cluster count for Hard-Select"},
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [methods...]",
		Short: "Run the disambiguation benchmark",
		Long: fmt.Sprintf(`Run the benchmark for the given methods (default: all).

Registered methods: %v

Examples:
  sense-bench run                              # all methods, defaults
  sense-bench run Baseline AID --rounds 10     # two methods, more rounds
  sense-bench run --multiple --num-preview 20  # multi-sense selection
  sense-bench run --csv > results.csv          # machine-readable output`, methods.Names()),
		RunE:         runBenchmark,
		SilenceUsage: true,
	}

	cmd.Flags().Int("num-preview", 10, "images shown to the user per suggested sense")
	cmd.Flags().Bool("multiple", false, "allow selection of multiple suggested senses")
	cmd.Flags().Float64("min-precision", 0.5, "selection threshold with --multiple")
	cmd.Flags().Int("rounds", 5, "experiment repetitions to average out random initialization")
	cmd.Flags().Int64("seed", 0, "global random seed")
	cmd.Flags().Int("workers", 0, "scoring worker pool size (0 = all cores)")
	cmd.Flags().Bool("progress", false, "log per-query progress")

	cmd.Flags().String("gt-dir", "", "directory with ground-truth label files")
	cmd.Flags().String("query-dir", "", "directory with query list files")
	cmd.Flags().String("dup-file", "", "file listing duplicate image IDs")
	cmd.Flags().String("feature-dump", "", "feature matrix dump (.parquet or .json)")

	cmd.Flags().Bool("show-sd", false, "also print the standard deviation table")
	cmd.Flags().Bool("csv", false, "output results as CSV instead of a table")
	cmd.Flags().String("plot-precision", "", "write a precision@k plot PNG to the given path")

	for _, pf := range methodParamFlags {
		cmd.Flags().Float64(pf.flag, 0, pf.usage)
	}

	return cmd
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	queries, err := dataset.Load(cfg.Data.GTDir, cfg.Data.QueryDir, cfg.Data.DupFile)
	if err != nil {
		return fmt.Errorf("loading queries: %w", err)
	}
	log.Info("queries loaded", "count", len(queries))

	store, err := features.Load(cfg.Data.FeatureDump)
	if err != nil {
		return fmt.Errorf("loading features: %w", err)
	}
	log.Info("features loaded", "images", store.Len(), "dim", store.Dim())

	ctx := cmd.Context()

	searcher, cleanup, err := buildSearcher(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	eventBus, err := bus.NewBus(cfg.Bus)
	if err != nil {
		return err
	}
	defer eventBus.Close()

	runHistory, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer runHistory.Close()

	runner := &evaluation.Runner{
		Store:    store,
		Queries:  queries,
		Searcher: searcher,
		Bus:      eventBus,
		History:  runHistory,
		Log:      log,
	}

	runMethods := args
	if len(runMethods) == 0 {
		runMethods = methods.Names()
	}
	params := make(map[string]map[string]float64, len(runMethods))
	for _, name := range runMethods {
		params[strings.ToLower(name)] = cfg.MethodParams(name)
	}

	summary, err := runner.Run(ctx, evaluation.RunConfig{
		Methods:      args,
		NumPreview:   cfg.Eval.NumPreview,
		Multiple:     cfg.Eval.Multiple,
		MinPrecision: cfg.Eval.MinPrecision,
		Rounds:       cfg.Eval.Rounds,
		Workers:      cfg.Eval.Workers,
		Seed:         cfg.Eval.Seed,
		ShowProgress: cfg.Eval.ShowProgress,
		Params:       params,
	})
	if err != nil {
		return err
	}

	return render(cmd, summary)
}

// applyFlags overrides config values with explicitly set CLI flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("num-preview") {
		cfg.Eval.NumPreview, _ = flags.GetInt("num-preview")
	}
	if flags.Changed("multiple") {
		cfg.Eval.Multiple, _ = flags.GetBool("multiple")
	}
	if flags.Changed("min-precision") {
		cfg.Eval.MinPrecision, _ = flags.GetFloat64("min-precision")
	}
	if flags.Changed("rounds") {
		cfg.Eval.Rounds, _ = flags.GetInt("rounds")
	}
	if flags.Changed("seed") {
		cfg.Eval.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("workers") {
		cfg.Eval.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("progress") {
		cfg.Eval.ShowProgress, _ = flags.GetBool("progress")
	}

	if flags.Changed("gt-dir") {
		cfg.Data.GTDir, _ = flags.GetString("gt-dir")
	}
	if flags.Changed("query-dir") {
		cfg.Data.QueryDir, _ = flags.GetString("query-dir")
	}
	if flags.Changed("dup-file") {
		cfg.Data.DupFile, _ = flags.GetString("dup-file")
	}
	if flags.Changed("feature-dump") {
		cfg.Data.FeatureDump, _ = flags.GetString("feature-dump")
	}

	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	for _, pf := range methodParamFlags {
		if flags.Changed(pf.flag) {
			value, _ := flags.GetFloat64(pf.flag)
			cfg.SetMethodParam(pf.method, pf.param, value)
		}
	}
}

// buildSearcher constructs the configured nearest-neighbor backend. The
// qdrant backend indexes the feature store up front.
func buildSearcher(ctx context.Context, cfg *config.Config, store *features.Store) (ann.Searcher, func(), error) {
	if cfg.ANN.Type != "qdrant" {
		return ann.NewExact(store), func() {}, nil
	}

	host, port, useTLS, err := parseQdrantURL(cfg.ANN.QdrantURL)
	if err != nil {
		return nil, nil, err
	}

	searcher, err := ann.NewQdrantSearcher(ann.QdrantConfig{
		Host:       host,
		Port:       port,
		APIKey:     cfg.ANN.APIKey,
		UseTLS:     useTLS,
		Collection: cfg.ANN.Collection,
		Timeout:    30 * time.Second,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	if err := searcher.Index(ctx, store); err != nil {
		searcher.Close()
		return nil, nil, fmt.Errorf("indexing features: %w", err)
	}

	return searcher, func() { searcher.Close() }, nil
}

func parseQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("parsing qdrant URL: %w", err)
	}

	host = u.Hostname()
	port = 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("parsing qdrant port: %w", err)
		}
	}
	return host, port, u.Scheme == "https", nil
}

func render(cmd *cobra.Command, summary evaluation.Summary) error {
	asCSV, _ := cmd.Flags().GetBool("csv")
	showSD, _ := cmd.Flags().GetBool("show-sd")
	plotPath, _ := cmd.Flags().GetString("plot-precision")

	out := cmd.OutOrStdout()

	if asCSV {
		if err := report.CSV(out, summary.Methods, summary.Mean); err != nil {
			return err
		}
	} else {
		report.Table(out, summary.Methods, summary.Mean)
	}

	if showSD {
		fmt.Fprintln(out, "\nStandard Deviation:")
		if asCSV {
			if err := report.CSV(out, summary.Methods, summary.Std); err != nil {
				return err
			}
		} else {
			report.Table(out, summary.Methods, summary.Std)
		}
	}

	if plotPath != "" {
		if err := report.PrecisionPlot(plotPath, summary); err != nil {
			return fmt.Errorf("writing precision plot: %w", err)
		}
		fmt.Fprintf(os.Stderr, "precision plot written to %s\n", plotPath)
	}

	return nil
}
