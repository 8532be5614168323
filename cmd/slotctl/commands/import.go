package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/slotfinder/internal/models"
	"github.com/benvon/slotfinder/internal/services/importer"
	"github.com/benvon/slotfinder/internal/validation"
)

// NewImportCmd creates the import command
func NewImportCmd() *cobra.Command {
	var (
		file           string
		dryRun         bool
		replaceProject string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create Todoist tasks from a schedule file",
		Long:  "Import a JSON file of the form {\"items\": [...], \"options\": {...}}. Use -f - to read standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}

			req, err := readImportRequest(in, dryRun, replaceProject)
			if err != nil {
				return err
			}

			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			result, err := importer.NewService(e.store, e.logger).Import(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.Partial() {
				return fmt.Errorf("%d item errors, %d failed operations", len(result.Errors), len(result.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Schedule file, or - for stdin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be created without writing")
	cmd.Flags().StringVar(&replaceProject, "replace-project", "", "Clear this project and import every item into it")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// readImportRequest decodes and validates an import file, applying the
// command line overrides on top of its options
func readImportRequest(r io.Reader, dryRun bool, replaceProject string) (models.ImportRequest, error) {
	var req models.ImportRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid import file: %w", err)
	}

	if dryRun || replaceProject != "" {
		opts := models.DefaultImportOptions()
		if req.Options != nil {
			opts = *req.Options
		}
		if dryRun {
			opts.DryRun = true
		}
		if name := strings.TrimSpace(replaceProject); name != "" {
			opts.Mode = models.ImportModeReplaceProject
			opts.ReplaceProjectName = &name
		}
		req.Options = &opts
	}

	if err := validation.Struct(req); err != nil {
		return req, fmt.Errorf("invalid import file: %w", err)
	}
	return req, nil
}
