package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/paperbase/internal/core/domain"
)

var statusJSON bool

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Rebuild the search index",
	Long: `Rebuilds the vector index from every stored document: pages are
extracted, chunked, embedded and committed atomically. The previous
index stays live and searchable until the new one is committed.`,
	RunE: runTrain,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show training progress",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(statusCmd)
}

func runTrain(cmd *cobra.Command, _ []string) error {
	if trainerService == nil {
		return errors.New("trainer service not configured")
	}

	if err := trainerService.Start(context.Background()); err != nil {
		switch {
		case errors.Is(err, domain.ErrTrainingInProgress):
			return errors.New("a training run is already in progress (see 'paperbase status')")
		case errors.Is(err, domain.ErrNoDocuments):
			return errors.New("no documents to train on (add some with 'paperbase add')")
		case errors.Is(err, domain.ErrEmbeddingUnavailable):
			// Carries the ping failure when the backend is down.
			return fmt.Errorf("cannot train: %v", err)
		default:
			return fmt.Errorf("start training: %w", err)
		}
	}

	return trainWithProgress(cmd)
}

// trainWithProgress polls training status until the run finishes,
// printing each stage transition and progress changes.
func trainWithProgress(cmd *cobra.Command) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastStage := ""
	lastProgress := -1
	for range ticker.C {
		status := trainerService.Status()

		if status.Stage != lastStage || status.Progress != lastProgress {
			cmd.Printf("  [%3d%%] %s\n", status.Progress, status.Stage)
			lastStage = status.Stage
			lastProgress = status.Progress
		}

		if !status.Training {
			if status.Stage == domain.StageFailed {
				return fmt.Errorf("training failed: %s", status.Message)
			}
			cmd.Printf("\n%s\n", status.Message)
			return nil
		}
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if trainerService == nil {
		return errors.New("trainer service not configured")
	}

	status := trainerService.Status()

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if status.Training {
		cmd.Printf("Training: %s (%d%%)\n", status.Stage, status.Progress)
		return nil
	}

	switch status.Stage {
	case domain.StageIdle:
		cmd.Println("No training run has happened yet.")
	case domain.StageFailed:
		cmd.Printf("Last run failed: %s\n", status.Message)
	default:
		cmd.Printf("Idle. Last run: %s\n", status.Message)
	}
	return nil
}
