package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stp/internal/config"
	"stp/internal/storage"
)

// PublishCommand handles the publish command
type PublishCommand struct {
	config *config.Config
}

// NewPublishCommand creates a new PublishCommand
func NewPublishCommand(cfg *config.Config) *PublishCommand {
	return &PublishCommand{config: cfg}
}

// Execute uploads the results file to the blob container
func (pc *PublishCommand) Execute(cmd *cobra.Command, args []string) error {
	output, err := storage.NewJSONStorage(pc.config).Load()
	if err != nil {
		return err
	}
	blobStorage, err := storage.NewBlobStorage(pc.config)
	if err != nil {
		return err
	}
	if err := blobStorage.SaveOutput(output); err != nil {
		return fmt.Errorf("failed to publish run %s: %w", output.Meta.RunID, err)
	}
	color.Green("✓ Published run %s to %s/%s", output.Meta.RunID, pc.config.Blob.Container, storage.RunBlobName(output.Meta.RunID))
	return nil
}
