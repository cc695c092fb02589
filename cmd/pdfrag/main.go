// pdfrag ingests documents into a vector index and answers questions about
// them with cited Markdown.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pdf-rag/internal/chunker"
	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/ingest"
	"pdf-rag/internal/llm"
	"pdf-rag/internal/query"
	"pdf-rag/internal/store"
)

var (
	configPath string
	collection string
	verbose    bool
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	// Secrets may live in a local .env, like the usual dotenv setups.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pdfrag",
	Short: "Retrieval-augmented question answering over your documents",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&collection, "collection", "", "collection name (defaults to the configured one)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(showCmd)

	ingestCmd.Flags().Bool("reset", false, "wipe the collection before ingesting so only the given files remain")
	askCmd.Flags().Int("top-k", 0, "number of context blocks to retrieve (defaults to the configured top_k)")
	askCmd.Flags().Float64("min-relevance", 0, "max cosine distance for retrieved blocks (unset = no filter)")
}

// setupEngine loads the config and opens the configured index backend.
func setupEngine(ctx context.Context) (*config.Config, store.Engine, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if collection == "" {
		collection = cfg.Store.Collection
	}

	var engine store.Engine
	switch cfg.Store.Backend {
	case "chromem":
		engine, err = store.NewChromemEngine(cfg.Store.IndexDir, collection)
	case "postgres":
		engine, err = store.NewPostgresEngine(ctx, cfg.Store.PostgresDSN, collection, cfg.Store.VectorSize, cfg.Store.Debug)
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, engine, nil
}

// setup additionally wires the embedder; commands that embed need it,
// count/reset do not.
func setup(ctx context.Context) (*config.Config, *store.Index, error) {
	cfg, engine, err := setupEngine(ctx)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := embedding.New(ctx, &cfg.EmbedLLM)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store.NewIndex(engine, embedder), nil
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file> [<file> ...]",
	Short: "Chunk, embed and index documents (PDF, DOCX, TXT)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, index, err := setup(ctx)
		if err != nil {
			return err
		}

		chunk, err := chunker.New(cfg.RAG.Chunker, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
		if err != nil {
			return err
		}

		reset, _ := cmd.Flags().GetBool("reset")
		pipeline := ingest.NewPipeline(index, chunk, nil)
		n, err := pipeline.Run(ctx, args, reset)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("No text chunks found. Are the documents scanned (image-only)?")
			return nil
		}
		fmt.Printf("Ingested %d chunks into collection %q.\n", n, collection)
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, index, err := setup(ctx)
		if err != nil {
			return err
		}

		model, err := llm.New(ctx, &cfg.InferLLM)
		if err != nil {
			return err
		}

		opts := query.Options{}
		opts.TopK, _ = cmd.Flags().GetInt("top-k")
		if cmd.Flags().Changed("min-relevance") {
			v, _ := cmd.Flags().GetFloat64("min-relevance")
			opts.MinRelevance = &v
		}

		question := strings.Join(args, " ")
		service := query.NewService(index, model, &cfg.RAG)
		answer, err := service.Ask(ctx, question, opts)
		if err != nil {
			return err
		}

		fmt.Println(answer.Answer)
		if len(answer.Citations) > 0 {
			fmt.Println("\nSources")
			for i, c := range answer.Citations {
				page := "?"
				if c.Page != nil {
					page = strconv.Itoa(*c.Page)
				}
				fmt.Printf("%d. %s, page %s (chunk %s)\n", i+1, c.Source, page, c.ChunkID)
			}
		}
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of chunks in the collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := setupEngine(cmd.Context())
		if err != nil {
			return err
		}
		index := store.NewIndex(engine, nil)
		fmt.Printf("%d chunks in collection %q.\n", index.Count(cmd.Context()), collection)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <chunk-id> [<chunk-id> ...]",
	Short: "Print the stored text of chunks by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := setupEngine(cmd.Context())
		if err != nil {
			return err
		}
		index := store.NewIndex(engine, nil)
		texts := index.FetchTexts(cmd.Context(), args)
		for _, id := range args {
			text, ok := texts[id]
			if !ok {
				continue // missing ids are silently omitted
			}
			fmt.Printf("--- %s ---\n%s\n", id, text)
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all chunks in the collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := setupEngine(cmd.Context())
		if err != nil {
			return err
		}
		if err := engine.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Collection %q is now empty.\n", collection)
		return nil
	},
}
