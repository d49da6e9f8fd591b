package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/bulkimport/internal/domain/commands"
	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// ImportController handles the "import" subcommand (one-shot batch from a file).
type ImportController struct {
	command commands.Batch
}

// NewImportController creates a new ImportController.
func NewImportController(command commands.Batch) *ImportController {
	return &ImportController{command: command}
}

// GetBind returns the Cobra command metadata for the import controller.
func (it *ImportController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "import",
		Short: "Import a batch of repositories from a file",
		Long: `Import the repositories listed in a YAML or JSON file and print
one result per item, in file order, as JSON.

With --dry-run nothing is changed; each item reports what would block
its import.`,
	}
}

// Execute imports the batch read from --file.
func (it *ImportController) Execute(cmd *cobra.Command, _ []string) {
	file, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if file == "" {
		logger.Error("--file is required")
		return
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}

	requests, err := readImportRequests(file)
	if err != nil {
		logger.Errorf("Failed to read %s: %v", file, err)
		return
	}

	results, err := it.command.Execute(context.Background(), settings, requests, dryRun)
	if err != nil {
		logger.Errorf("Import failed: %v", err)
		return
	}

	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		logger.Errorf("Failed to render results: %v", err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
}

// AddFlags adds the import-specific flags to the given Cobra command.
func (it *ImportController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "YAML or JSON file holding the list of import requests")
	cmd.Flags().Bool("dry-run", false, "Report what would block each import without changing anything")
}

// readImportRequests decodes a YAML list of import requests; JSON is accepted as YAML.
func readImportRequests(path string) ([]entities.ImportRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var requests []entities.ImportRequest
	if unmarshalErr := yaml.Unmarshal(data, &requests); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse import requests: %w", unmarshalErr)
	}
	return requests, nil
}
