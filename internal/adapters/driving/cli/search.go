package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
	askLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Performs semantic search across all indexed documents. The query is
embedded and matched against indexed chunks by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the most relevant chunks for the question and has the
configured LLM compose an answer grounded in them, with source
citations. Requires an LLM; 'search' works without one.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 5, "number of chunks given to the LLM")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	query := args[0]
	results, err := searchService.Search(context.Background(), query, searchLimit)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return errors.New("no embedding service configured")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchResults(cmd, query, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.ScoredChunk) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchResults(cmd *cobra.Command, query string, results []domain.ScoredChunk) error {
	if len(results) == 0 {
		cmd.Printf("No results for %q. Has the index been trained?\n", query)
		return nil
	}

	cmd.Printf("Results for %q:\n\n", query)
	for i, result := range results {
		cmd.Printf("%d. %s, page %d (score %.3f)\n",
			i+1, result.Chunk.Filename, result.Chunk.Page, result.Score)
		cmd.Printf("   %s\n\n", excerpt(result.Chunk.Content, 200))
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	question := args[0]
	answer, err := searchService.Answer(context.Background(), question, askLimit)
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			return errors.New("no LLM configured; use 'paperbase search' instead")
		}
		return fmt.Errorf("answer failed: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, source := range answer.Sources {
			cmd.Printf("  - %s, page %d\n", source.Chunk.Filename, source.Chunk.Page)
		}
	}
	return nil
}

// excerpt flattens whitespace and truncates text for display.
func excerpt(text string, max int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) <= max {
		return flat
	}
	return flat[:max] + "..."
}
