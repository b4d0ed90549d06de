package fixer

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gnolang/reroll/internal/collapse"
	tt "github.com/gnolang/reroll/internal/types"
)

// ErrStaleIssue is returned when an issue does not fit the current content
// of its file.
var ErrStaleIssue = errors.New("issue does not match the file content")

type Fixer struct {
	DryRun        bool
	MinConfidence float64 // threshold for fixing issues
	Out           io.Writer
}

func New(dryRun bool, threshold float64) *Fixer {
	return &Fixer{
		DryRun:        dryRun,
		MinConfidence: threshold,
		Out:           os.Stdout,
	}
}

// replacement is a suggestion spliced over [start, end) of the source.
type replacement struct {
	start, end int
	text       string
	imports    []string
}

// Fix applies the suggestions of issues to filename. Issues below the
// confidence threshold are skipped, and so is every issue overlapping one
// that comes later in the file.
func (f *Fixer) Fix(filename string, issues []tt.Issue) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var (
		reps    []replacement
		fixable []tt.Issue
	)
	for _, issue := range issues {
		if issue.Confidence < f.MinConfidence || issue.Suggestion == "" {
			continue
		}
		if f.DryRun {
			fmt.Fprintf(f.Out, "Would fix issue in %s at line %d: %s\n", filename, issue.Start.Line, issue.Message)
			fmt.Fprintf(f.Out, "Suggestion:\n%s\n", issue.Suggestion)
			fixable = append(fixable, issue)
			continue
		}
		reps = append(reps, replacement{
			start:   issue.Start.Offset,
			end:     issue.End.Offset,
			text:    issue.Suggestion,
			imports: issue.RequiredImports,
		})
	}
	if f.DryRun {
		if imports := CollectRequiredImports(fixable); len(imports) > 0 {
			fmt.Fprintf(f.Out, "Would add imports to %s: %s\n", filename, strings.Join(imports, ", "))
		}
		return nil
	}
	if len(reps) == 0 {
		return nil
	}

	fixed, err := apply(content, reps)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if err := os.WriteFile(filename, fixed, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(f.Out, "Fixed issues in %s\n", filename)
	return nil
}

// ApplyEdit returns src with edit applied, the imports it needs added and
// the result formatted.
func ApplyEdit(src []byte, edit *collapse.Edit) ([]byte, error) {
	return apply(src, []replacement{{
		start:   edit.Start.Offset,
		end:     edit.End.Offset,
		text:    edit.NewText,
		imports: edit.Imports,
	}})
}

func apply(src []byte, reps []replacement) ([]byte, error) {
	sort.SliceStable(reps, func(i, j int) bool {
		return reps[i].start > reps[j].start
	})

	out := append([]byte(nil), src...)
	var imports []string
	limit := len(src)
	for _, r := range reps {
		if r.start < 0 || r.start > r.end || r.end > len(src) {
			return nil, fmt.Errorf("range [%d,%d) of %d bytes: %w", r.start, r.end, len(src), ErrStaleIssue)
		}
		if r.end > limit {
			continue
		}
		var buf bytes.Buffer
		buf.Grow(len(out) - (r.end - r.start) + len(r.text))
		buf.Write(out[:r.start])
		buf.WriteString(r.text)
		buf.Write(out[r.end:])
		out = buf.Bytes()
		limit = r.start
		imports = append(imports, r.imports...)
	}

	out, err := EnsureImports(out, imports)
	if err != nil {
		return nil, fmt.Errorf("failed to add imports: %w", err)
	}
	formatted, err := format.Source(out)
	if err != nil {
		return nil, fmt.Errorf("failed to format file: %w", err)
	}
	return formatted, nil
}
