// Command simcase runs the case pipeline from the terminal: structuring raw
// scenario text, mapping parameter selections and building full cases.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/simcase-api/internal/app"
	"github.com/Conceptual-Machines/simcase-api/internal/config"
	"github.com/Conceptual-Machines/simcase-api/internal/database"
	"github.com/Conceptual-Machines/simcase-api/internal/docschema"
	"github.com/Conceptual-Machines/simcase-api/internal/models"
	"github.com/Conceptual-Machines/simcase-api/internal/ranges"
	"github.com/Conceptual-Machines/simcase-api/internal/services"
	"github.com/Conceptual-Machines/simcase-api/internal/structuring"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "simcase",
		Short:        "Simulation case generation and document structuring",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(structureCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(rangesCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(migrateCmd())
	return rootCmd
}

func structureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure [file]",
		Short: "Structure raw scenario text into a document (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")

			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			doc := structuring.Route(string(raw), title)
			if err := docschema.Validate(doc); err != nil {
				return err
			}
			digest, err := docschema.Digest(doc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Document models.StructuredDocument `json:"document"`
				Digest   string                    `json:"digest"`
			}{doc, digest})
		},
	}
	cmd.Flags().String("title", "", "document title")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify a block of text into a document bucket (reads stdin without args)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(raw)
			}
			return writeJSON(cmd.OutOrStdout(), structuring.ClassifyDetailed(text))
		},
	}
}

type rangesInput struct {
	Questions  []models.Question         `json:"questions"`
	Selections models.ParameterSelection `json:"selections"`
	Objectives []string                  `json:"objectives"`
}

func rangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges [file]",
		Short: "Map questionnaire selections to case parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in rangesInput
			if err := readJSON(cmd, args, &in); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ranges.MapSelections(in.Questions, in.Selections, in.Objectives))
		},
	}
}

func caseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case [file]",
		Short: "Build a full case from a JSON case request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testMode, _ := cmd.Flags().GetBool("test-mode")
			title, _ := cmd.Flags().GetString("title")

			var req services.CaseRequest
			if err := readJSON(cmd, args, &req); err != nil {
				return err
			}
			if title != "" {
				req.Title = title
			}

			cfg := config.Load()
			if testMode {
				cfg.TestMode = true
			}

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Cases.BuildCase(ctx, req)
			if err != nil {
				return err
			}
			if result.Degraded {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: generation failed, returning fallback document")
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().Bool("test-mode", false, "use synthetic generation instead of a provider")
	cmd.Flags().String("title", "", "override the request title")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the attempt log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return raw, nil
}

func readJSON(cmd *cobra.Command, args []string, v interface{}) error {
	raw, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
