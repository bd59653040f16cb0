package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

var listJSON bool

var addCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Upload PDF documents to the library",
	Long: `Stores one or more PDF files in the library. Uploaded documents are
not searchable until the next 'train' run rebuilds the index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE:  runList,
}

var removeCmd = &cobra.Command{
	Use:   "remove [filename]",
	Short: "Delete a document and its index entries",
	Long: `Deletes a stored document. Vectors derived from it are removed from
the index immediately; no retrain is needed for the deletion itself.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show library and index state",
	RunE:  runInfo,
}

var infoJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(infoCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		doc, err := libraryService.Add(ctx, filepath.Base(path), data)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrAlreadyExists):
				return fmt.Errorf("%s is already in the library (remove it first to replace it)", filepath.Base(path))
			case errors.Is(err, domain.ErrInvalidFileType):
				return fmt.Errorf("%s is not a PDF", path)
			default:
				return fmt.Errorf("add %s: %w", path, err)
			}
		}

		cmd.Printf("Added %s (%d pages, %s)\n", doc.Filename, doc.Pages, formatSize(doc.Size))
	}

	cmd.Println("\nRun 'paperbase train' to index the new documents.")
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	docs, err := libraryService.List(context.Background())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents stored. Add one with 'paperbase add <file.pdf>'.")
		return nil
	}

	for _, doc := range docs {
		cmd.Printf("  %-40s %4d pages  %10s\n", doc.Filename, doc.Pages, formatSize(doc.Size))
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	filename := args[0]
	if err := libraryService.Remove(context.Background(), filename); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no document named %s", filename)
		}
		return fmt.Errorf("remove %s: %w", filename, err)
	}

	cmd.Printf("Removed %s and its index entries.\n", filename)
	return nil
}

func runInfo(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	info, err := libraryService.Info(context.Background())
	if err != nil {
		return fmt.Errorf("read index state: %w", err)
	}

	if infoJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal info: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Documents:        %d\n", info.Documents)
	cmd.Printf("Indexed vectors:  %d\n", info.Vectors)
	if info.LastTrainedAt.IsZero() {
		cmd.Println("Last trained:     never")
	} else {
		cmd.Printf("Last trained:     %s (%d documents)\n",
			info.LastTrainedAt.Local().Format("2006-01-02 15:04:05"), info.DocumentsAtTrain)
	}
	if info.InSync {
		cmd.Println("Index state:      in sync")
	} else {
		cmd.Println("Index state:      out of sync (run 'paperbase train')")
	}
	return nil
}

// formatSize renders a byte count in a human-readable unit.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
