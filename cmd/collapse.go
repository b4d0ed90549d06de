package cmd

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/reroll/internal/collapse"
	"github.com/gnolang/reroll/internal/fixer"
	"github.com/gnolang/reroll/internal/loader"
	"github.com/gnolang/reroll/internal/selection"
	"github.com/gnolang/reroll/lint"
)

var errNoStatements = errors.New("the selection does not cover whole statements of one block")

var (
	selectedLines   string
	selectedOffsets string
	checkOnly       bool
	collapseDryRun  bool
)

// collapseRequest is one run of the collapse command.
type collapseRequest struct {
	File    string
	Lines   string // "from:to", 1-based and inclusive
	Offsets string // "from:to", byte offsets, end exclusive
	Check   bool
	DryRun  bool
}

var collapseCmd = &cobra.Command{
	Use:   "collapse FILE",
	Short: "Collapse the selected statements into a loop",
	Long: `Collapses the statements covered by --lines or --offset into a single loop.
Example) reroll collapse --lines 12:16 main.go`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		config, err := lint.LoadConfig(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}

		req := collapseRequest{
			File:    args[0],
			Lines:   selectedLines,
			Offsets: selectedOffsets,
			Check:   checkOnly,
			DryRun:  collapseDryRun,
		}
		if err := runCollapse(ctx, loader.New(config.Options.Arch), config.Options, req, os.Stdout); err != nil {
			logger.Error("Cannot collapse selection", zap.String("file", req.File), zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	collapseCmd.Flags().StringVar(&selectedLines, "lines", "", "Selected lines as from:to, inclusive")
	collapseCmd.Flags().StringVar(&selectedOffsets, "offset", "", "Selected byte offsets as from:to, end exclusive")
	collapseCmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether the selection can be collapsed")
	collapseCmd.Flags().BoolVar(&collapseDryRun, "dry-run", false, "Print the rewritten file instead of writing it")
	collapseCmd.MarkFlagsMutuallyExclusive("lines", "offset")
	collapseCmd.MarkFlagsOneRequired("lines", "offset")
}

func runCollapse(ctx context.Context, ld *loader.Loader, opts lint.Options, req collapseRequest, w io.Writer) error {
	if (req.Lines == "") == (req.Offsets == "") {
		return errors.New("exactly one of --lines and --offset is required")
	}

	unit, err := ld.Load(ctx, req.File)
	if err != nil {
		return err
	}
	tf := unit.Fset.File(unit.File.Pos())

	var start, end token.Pos
	if req.Lines != "" {
		from, to, err := parseSpan(req.Lines)
		if err != nil {
			return err
		}
		start, end, err = selection.LineRange(tf, from, to)
		if err != nil {
			return err
		}
	} else {
		from, to, err := parseSpan(req.Offsets)
		if err != nil {
			return err
		}
		start, end, err = selection.OffsetRange(tf, from, to)
		if err != nil {
			return err
		}
	}

	run := selection.StatementsInRange(unit.File, unit.Fset, unit.Src, start, end)
	if run.Len() == 0 {
		return errNoStatements
	}

	copts := opts.Collapse()
	// an explicit selection is collapsed from two repetitions on, with
	// periods of any length
	copts.MinPeriods = 2
	copts.MaxPeriodLen = 0
	if unit.GoVersion != "" {
		copts.GoVersion = unit.GoVersion
	}
	env := collapse.NewEnv(unit.Fset, unit.Src, unit.File, unit.Pkg, unit.Info, unit.Sizes, copts)

	if req.Check {
		m, reason := collapse.Detect(run, env)
		if m == nil {
			return fmt.Errorf("%w: %s", collapse.ErrNotApplicable, reason)
		}
		if _, err := collapse.Synthesize(m, env); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d repetitions can be collapsed into a loop\n", req.File, m.Repetitions())
		return nil
	}

	ed := collapse.NewTextEditor(unit.Fset, unit.Src)
	if err := collapse.Collapse(run, env, ed); err != nil {
		return err
	}
	edit, err := ed.Commit()
	if err != nil {
		return err
	}
	fixed, err := fixer.ApplyEdit(unit.Src, edit)
	if err != nil {
		return err
	}

	if req.DryRun {
		_, err := w.Write(fixed)
		return err
	}
	info, err := os.Stat(req.File)
	if err != nil {
		return err
	}
	if err := os.WriteFile(req.File, fixed, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	ld.Invalidate(req.File)
	fmt.Fprintf(w, "Collapsed lines %d-%d of %s\n", edit.Start.Line, edit.End.Line, req.File)
	return nil
}

// parseSpan parses "from:to".
func parseSpan(s string) (from, to int, err error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q, want from:to", s)
	}
	if from, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if to, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
		return 0, 0, fmt.Errorf("invalid range %q: %w", s, err)
	}
	return from, to, nil
}
