package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/reroll/internal"
	tt "github.com/gnolang/reroll/internal/types"
	"github.com/gnolang/reroll/lint"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Re-lint Go and Gno files whenever they change",
	Run: func(cmd *cobra.Command, args []string) {
		dirs := args
		if len(dirs) == 0 {
			dirs = []string{"."}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, err := lint.New(cfgFile)
		if err != nil {
			logger.Fatal("Failed to initialize lint engine", zap.Error(err))
		}
		configureIgnores(engine, ignoreRules, ignorePaths)

		if err := engine.Watch(ctx, logger, dirs, reporter(logger, os.Stdout)); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Watcher stopped", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of lint rules to ignore")
	watchCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
}

// reporter prints the issues of each re-linted file to w.
func reporter(logger *zap.Logger, w io.Writer) internal.ReportFunc {
	return func(filename string, issues []tt.Issue) {
		if len(issues) == 0 {
			fmt.Fprintf(w, "%s: no collapsible runs\n", filename)
			return
		}
		if err := printIssues(logger, w, issues, false, ""); err != nil {
			logger.Error("Error printing issues", zap.String("file", filename), zap.Error(err))
		}
	}
}
