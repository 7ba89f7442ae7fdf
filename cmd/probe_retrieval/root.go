package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fastpai-be/internal/bootstrap"
	"fastpai-be/internal/config"
	"fastpai-be/internal/dto"
	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/pkg/metrics"
	"fastpai-be/pkg/events"
	"fastpai-be/pkg/llm/factory"
	"fastpai-be/pkg/rag/corpus"
	"fastpai-be/pkg/rag/executor"
	"fastpai-be/pkg/rag/query"
	"fastpai-be/pkg/rag/response"
	"fastpai-be/pkg/rag/retrieval"
	"fastpai-be/pkg/rag/session"
	"fastpai-be/pkg/rag/store"
)

type probeOptions struct {
	corpusDir string
	embedder  string
	threshold float64
	topK      int
	city      string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &probeOptions{}

	root := &cobra.Command{
		Use:   "probe_retrieval",
		Short: "Inspect retrieval over the service corpus from the terminal",
		Long: `probe_retrieval loads the document corpus into an in-memory index and lets an
operator check what the retrieval gate would answer, without running the server.

Examples:
  probe_retrieval municipalities
  probe_retrieval query --city roma "rinnovo passaporto"
  probe_retrieval turn --city roma "voglio fare il passaporto"`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.corpusDir, "corpus", cfg.Rag.CorpusDir, "directory of JSON service documents")
	root.PersistentFlags().StringVar(&opts.embedder, "embedder", cfg.Ai.EmbeddingProvider, "embedding provider: ollama, gemini, openai, tfidf")
	root.PersistentFlags().Float64Var(&opts.threshold, "threshold", cfg.Rag.ScoreThreshold, "maximum accepted distance")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "log loader warnings to stdout")

	root.AddCommand(
		newMunicipalitiesCmd(cfg, opts),
		newQueryCmd(cfg, opts),
		newTurnCmd(cfg, opts),
	)
	return root
}

func newMunicipalitiesCmd(cfg *config.Config, opts *probeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "municipalities",
		Short: "List the municipalities present in the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadStore(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			names, err := s.Municipalities(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newQueryCmd(cfg *config.Config, opts *probeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Show the nearest documents and the gate decision for a search query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.city == "" {
				return fmt.Errorf("--city is required")
			}
			s, err := loadStore(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			results, err := s.Query(cmd.Context(), text, opts.city, opts.topK)
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), results, opts.threshold)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.city, "city", "", "municipality to filter on")
	cmd.Flags().IntVar(&opts.topK, "k", 3, "number of neighbours to show")
	return cmd
}

func newTurnCmd(cfg *config.Config, opts *probeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "turn [text]",
		Short: "Run one full conversation turn (calls the configured LLM)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.city == "" {
				return fmt.Errorf("--city is required")
			}
			ctx := cmd.Context()
			s, err := loadStore(ctx, cfg, opts)
			if err != nil {
				return err
			}

			llmProvider, err := factory.NewLLMProvider(ctx, factory.Settings{
				Provider: cfg.Ai.LLMProvider,
				Model:    cfg.Ai.LLMModel,
				BaseURL:  cfg.Ai.LLMBaseURL,
				APIKey:   cfg.Ai.LLMAPIKey,
			})
			if err != nil {
				return err
			}

			log := probeLogger(opts)
			exec := executor.NewPipelineExecutor(
				query.NewReformulator(llmProvider, cfg.Rag.ReformulateMaxTokens, log),
				retrieval.NewGate(s, opts.threshold, log),
				response.NewSynthesizer(llmProvider, cfg.Rag.SynthesisMaxTokens, log),
				events.NopPublisher{},
				metrics.New(),
				log,
			)

			result, err := exec.Execute(ctx, session.New(cfg.Rag.HistoryWindow), strings.Join(args, " "), opts.city)
			if err != nil {
				return err
			}
			printTurn(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.city, "city", "", "municipality to filter on")
	return cmd
}

func probeLogger(opts *probeOptions) logger.ILogger {
	if opts.verbose {
		return logger.NewConsoleLogger()
	}
	return logger.NewNopLogger()
}

func loadStore(ctx context.Context, cfg *config.Config, opts *probeOptions) (store.DocumentStore, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	aiCfg := cfg.Ai
	aiCfg.EmbeddingProvider = opts.embedder
	embedder, err := bootstrap.NewEmbeddingProvider(aiCfg)
	if err != nil {
		return nil, err
	}

	docs, err := corpus.LoadDirectory(opts.corpusDir, probeLogger(opts))
	if err != nil {
		return nil, err
	}
	s := store.NewMemoryStore(embedder)
	if err := s.Index(ctx, docs); err != nil {
		return nil, err
	}
	return s, nil
}

func printResults(w io.Writer, results []store.ScoredDocument, threshold float64) {
	if len(results) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No documents for this municipality")
		return
	}
	for i, r := range results {
		verdict := color.New(color.FgRed).Sprint("rejected")
		if retrieval.IsFound(retrieval.Classify(r.Document, r.Score, threshold)) {
			verdict = color.New(color.FgGreen).Sprint("accepted")
		}
		fmt.Fprintf(w, "%d. %-30s distance=%.4f %s\n", i+1, r.Document.ID, r.Score, verdict)
	}
	if !retrieval.IsFound(retrieval.Classify(results[0].Document, results[0].Score, threshold)) {
		color.New(color.FgYellow).Fprintf(w, "Gate: NotFound (best distance above %.2f)\n", threshold)
	}
}

func printTurn(w io.Writer, result *dto.TurnResult) {
	color.New(color.FgCyan).Fprintf(w, "Reformulated query: %s\n", result.Reformulated)
	if result.Matched {
		color.New(color.FgGreen).Fprintf(w, "Matched %s (distance %.4f)\n", result.DocumentID, result.Score)
	} else {
		color.New(color.FgYellow).Fprintln(w, "No document matched")
	}
	if result.Degraded {
		color.New(color.FgRed).Fprintln(w, "Model output was malformed, raw text shown")
	}
	b, _ := json.MarshalIndent(dto.NewReplyEnvelope(result), "", "  ")
	fmt.Fprintln(w, string(b))
}
