package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/reroll/internal/fixer"
	tt "github.com/gnolang/reroll/internal/types"
	"github.com/gnolang/reroll/lint"
)

var (
	dryRun              bool
	confidenceThreshold float64
)

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Collapse the reported runs into loops",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := lint.New(cfgFile)
		if err != nil {
			logger.Fatal("Failed to initialize lint engine", zap.Error(err))
		}

		if err := runAutoFix(ctx, logger, engine, args, fixer.New(dryRun, confidenceThreshold)); err != nil {
			logger.Error("Error fixing issues", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	fixCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run in dry-run mode (show fixes without applying them)")
	fixCmd.Flags().Float64Var(&confidenceThreshold, "confidence", 0.75, "Confidence threshold for auto-fixing (0.0 to 1.0)")
}

// runAutoFix lints paths and applies the suggestions of every file with
// issues. A file that cannot be fixed does not stop the others.
func runAutoFix(ctx context.Context, logger *zap.Logger, engine lint.LintEngine, paths []string, fix *fixer.Fixer) error {
	var errs []error
	byFile := make(map[string][]tt.Issue)
	for _, path := range paths {
		issues, err := lint.ProcessPath(ctx, logger, engine, path, lint.ProcessFile)
		if err != nil {
			logger.Error("error processing path", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
		}
		for _, issue := range issues {
			byFile[issue.Filename] = append(byFile[issue.Filename], issue)
		}
	}

	files := make([]string, 0, len(byFile))
	for filename := range byFile {
		files = append(files, filename)
	}
	sort.Strings(files)

	for _, filename := range files {
		if err := fix.Fix(filename, byFile[filename]); err != nil {
			logger.Error("error fixing issues", zap.String("file", filename), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
