package lint

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/gnolang/reroll/internal/collapse"
	"github.com/gnolang/reroll/internal/lints"
	"github.com/gnolang/reroll/internal/loader"
	"github.com/gnolang/reroll/internal/nolint"
	tt "github.com/gnolang/reroll/internal/types"
)

const analyzerDoc = `report statement runs that can be collapsed into a loop

The reroll analyzer finds runs of statements repeating one block with a
single varying value, such as

	total = add(total, 1)
	total = add(total, 2)
	total = add(total, 3)

and suggests the equivalent loop:

	for i := 1; i < 4; i++ {
		total = add(total, i)
	}`

// Analyzer reports collapsible statement runs with a suggested fix
// replacing each run by its loop.
var Analyzer = newAnalyzer()

// analyzerOptions are set through the flags of Analyzer.
type analyzerOptions struct {
	Options
	minConfidence float64
}

func newAnalyzer() *analysis.Analyzer {
	opts := &analyzerOptions{Options: DefaultConfig().Options}
	a := &analysis.Analyzer{
		Name: "reroll",
		Doc:  analyzerDoc,
		Run: func(pass *analysis.Pass) (any, error) {
			return nil, run(pass, opts)
		},
	}

	a.Flags.IntVar(&opts.MinPeriods, "min-periods", opts.MinPeriods, "minimum number of repetitions")
	a.Flags.IntVar(&opts.MaxPeriodLen, "max-period-len", opts.MaxPeriodLen, "maximum statements per repetition, 0 for no limit")
	a.Flags.BoolVar(&opts.StrictOccurrences, "strict-occurrences", opts.StrictOccurrences, "require every repetition to vary at every site")
	a.Flags.BoolVar(&opts.RangeOverInt, "range-over-int", opts.RangeOverInt, "suggest for range n for plain repetitions")
	a.Flags.Float64Var(&opts.minConfidence, "confidence", 0, "minimum confidence of reported runs")
	return a
}

func run(pass *analysis.Pass, opts *analyzerOptions) error {
	for _, file := range pass.Files {
		tf := pass.Fset.File(file.Pos())
		if tf == nil {
			continue
		}
		src, err := pass.ReadFile(tf.Name())
		if err != nil || len(src) != tf.Size() {
			// cgo-processed or otherwise rewritten files
			continue
		}

		unit := &loader.Unit{
			Filename:  tf.Name(),
			Fset:      pass.Fset,
			File:      file,
			Src:       src,
			Pkg:       pass.Pkg,
			Info:      pass.TypesInfo,
			Sizes:     pass.TypesSizes,
			GoVersion: pass.TypesInfo.FileVersions[file],
		}
		issues, err := lints.DetectCollapsibleRuns(unit, opts.Collapse(), tt.SeverityWarning)
		if err != nil {
			return err
		}

		silenced := nolint.ParseComments(file, pass.Fset)
		for _, issue := range issues {
			if issue.Confidence < opts.minConfidence || silenced.IsNolintRange(issue.Start, issue.End, issue.Rule) {
				continue
			}
			pass.Report(diagnostic(tf, file, issue))
		}
	}
	return nil
}

func diagnostic(tf *token.File, file *ast.File, issue tt.Issue) analysis.Diagnostic {
	start := tf.Pos(issue.Start.Offset)
	end := tf.Pos(issue.End.Offset)

	edits := []analysis.TextEdit{{
		Pos:     start,
		End:     end,
		NewText: []byte(issue.Suggestion),
	}}
	if len(issue.RequiredImports) > 0 {
		var decl strings.Builder
		for _, entry := range issue.RequiredImports {
			name, path := collapse.SplitImport(entry)
			decl.WriteString("\n\nimport ")
			if name != "" {
				decl.WriteString(name + " ")
			}
			decl.WriteString(strconv.Quote(path))
		}
		edits = append(edits, analysis.TextEdit{
			Pos:     file.Name.End(),
			End:     file.Name.End(),
			NewText: []byte(decl.String()),
		})
	}

	message := issue.Message
	if issue.Note != "" {
		message += " (" + issue.Note + ")"
	}
	return analysis.Diagnostic{
		Pos:      start,
		End:      end,
		Category: issue.Rule,
		Message:  message,
		SuggestedFixes: []analysis.SuggestedFix{{
			Message:   "Collapse into a loop",
			TextEdits: edits,
		}},
	}
}
