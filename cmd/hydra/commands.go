package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/T-rav/hydra/internal/bus"
	"github.com/T-rav/hydra/internal/ingest"
	"github.com/T-rav/hydra/internal/qdrant"
	"github.com/T-rav/hydra/internal/search"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the index collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			cc := qdrant.DefaultCollectionConfig(a.cfg.Qdrant.Collection)
			if a.cfg.Embedding.Dimensions > 0 {
				cc.DenseVectorSize = uint64(a.cfg.Embedding.Dimensions)
			}
			if err := a.store.CreateCollection(cmd.Context(), cc); err != nil {
				return err
			}
			fmt.Printf("collection %q ready\n", a.cfg.Qdrant.Collection)
			return nil
		},
	}
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.newSearchService()
			if err != nil {
				return err
			}

			cfg := a.searchDefaults()
			if topK, _ := cmd.Flags().GetInt("top-k"); topK > 0 {
				cfg.MaxChunks = topK
				cfg.FinalTopK = topK
			}
			if strategy, _ := cmd.Flags().GetString("diversify"); strategy != "" {
				cfg.DiversifyStrategy = strategy
			}

			resp, err := svc.Retrieve(cmd.Context(), search.Request{
				Query:  args[0],
				Config: &cfg,
			})
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return json.NewEncoder(os.Stdout).Encode(resp)
			}
			printResponse(resp)
			return nil
		},
	}
	cmd.Flags().IntP("top-k", "k", 0, "number of chunks to return")
	cmd.Flags().String("diversify", "", "diversification strategy (smart, docfirst, roundrobin)")
	cmd.Flags().Bool("json", false, "emit the full response as JSON")
	return cmd
}

func printResponse(resp *search.Response) {
	if resp.RewrittenQuery != resp.Query {
		fmt.Printf("rewritten (%s): %s\n", resp.Strategy, resp.RewrittenQuery)
	}
	if len(resp.Degraded) > 0 {
		fmt.Printf("degraded stages: %v\n", resp.Degraded)
	}
	if len(resp.Chunks) == 0 {
		fmt.Println("no results")
		return
	}
	for i, c := range resp.Chunks {
		fmt.Printf("%2d. [%.3f] %s\n", i+1, c.Similarity, c.DocumentKey())
		fmt.Printf("    %s\n", firstLine(c.Content))
	}
	fmt.Printf("%d of %d candidates in %dms\n", len(resp.Chunks), resp.Total, resp.Metadata.TotalTimeMs)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
		if i > 120 {
			return s[:i] + "..."
		}
	}
	return s
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Index chunks from a JSONL file or stdin",
		Long: `Read chunks as JSON lines of the form

  {"content": "...", "metadata": {"title": "...", "file_name": "...", "document_id": "..."}}

and publish them to the ingestion bus. With the in-memory bus the
chunks are indexed before the command exits; with kafka a separate
'hydra consume' process does the indexing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			in := os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			b, err := bus.New(a.cfg.Bus, a.log)
			if err != nil {
				return err
			}
			if a.cfg.Bus.Type == "" || a.cfg.Bus.Type == "memory" {
				indexer := ingest.NewIndexer(a.store, a.cfg.Qdrant.Collection, a.embedder, a.encoder, a.log)
				if err := indexer.Start(cmd.Context(), b); err != nil {
					return err
				}
			}

			producer := ingest.NewProducer(b, "hydra-cli")
			count := 0
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 1024*1024), 4*1024*1024)
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				var ce ingest.ChunkEvent
				if err := json.Unmarshal(line, &ce); err != nil {
					return fmt.Errorf("line %d: %w", count+1, err)
				}
				if err := producer.PublishChunk(cmd.Context(), ce); err != nil {
					return err
				}
				count++
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			// Close drains in-flight handlers on the memory bus.
			if err := b.Close(); err != nil {
				return err
			}
			fmt.Printf("published %d chunks\n", count)
			return nil
		},
	}
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Remove every chunk of a document from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.store.DeleteByDocument(cmd.Context(), a.cfg.Qdrant.Collection, args[0])
		},
	}
}

func consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Run the ingestion consumer until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := bus.New(a.cfg.Bus, a.log)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			indexer := ingest.NewIndexer(a.store, a.cfg.Qdrant.Collection, a.embedder, a.encoder, a.log)
			if err := indexer.Start(ctx, b); err != nil {
				return err
			}

			a.log.Info("ingestion consumer running",
				"bus", a.cfg.Bus.Type,
				"collection", a.cfg.Qdrant.Collection)
			<-ctx.Done()
			a.log.Info("shutting down")
			return nil
		},
	}
}
