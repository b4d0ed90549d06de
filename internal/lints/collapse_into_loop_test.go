package lints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/reroll/internal/collapse"
	"github.com/gnolang/reroll/internal/loader"
	tt "github.com/gnolang/reroll/internal/types"
)

const collapseHelpers = `
var (
	total int
	ok    bool
)

func add(a, b int) int { return a + b }
func step()            {}
func show(s string)    {}
`

func TestDetectCollapsibleRuns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		suggestions []string
		confidence  []float64
	}{
		{
			name: "counting loop",
			body: `
	total = add(total, 1)
	total = add(total, 2)
	total = add(total, 3)
`,
			suggestions: []string{"for i := 1; i < 4; i++ {\n\t\ttotal = add(total, i)\n\t}"},
			confidence:  []float64{countingLoopConfidence},
		},
		{
			name: "index loop",
			body: `
	step()
	step()
	step()
`,
			suggestions: []string{"for i := 0; i < 3; i++ {\n\t\tstep()\n\t}"},
			confidence:  []float64{indexLoopConfidence},
		},
		{
			name: "element loop",
			body: `
	show("a")
	show("b")
`,
			suggestions: []string{"for _, s := range [...]string{\"a\", \"b\"} {\n\t\tshow(s)\n\t}"},
			confidence:  []float64{elementLoopConfidence},
		},
		{
			name: "distinct statements",
			body: `
	step()
	show("a")
	total = add(total, 1)
`,
		},
		{
			name: "two runs in one block",
			body: `
	step()
	step()
	x := 1
	_ = x
	show("a")
	show("b")
`,
			suggestions: []string{
				"for i := 0; i < 2; i++ {\n\t\tstep()\n\t}",
				"for _, s := range [...]string{\"a\", \"b\"} {\n\t\tshow(s)\n\t}",
			},
			confidence: []float64{indexLoopConfidence, elementLoopConfidence},
		},
		{
			name: "case clause",
			body: `
	switch {
	case ok:
		step()
		step()
	}
`,
			suggestions: []string{"for i := 0; i < 2; i++ {\n\t\t\tstep()\n\t\t}"},
			confidence:  []float64{indexLoopConfidence},
		},
		{
			name: "nested runs are reported once",
			body: `
	if ok {
		step()
		step()
	}
	if ok {
		step()
		step()
	}
`,
			suggestions: []string{"for i := 0; i < 2; i++ {\n\t\tif ok {\n\t\t\tstep()\n\t\t\tstep()\n\t\t}\n\t}"},
			confidence:  []float64{indexLoopConfidence},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src := "package main\n" + collapseHelpers + "\nfunc main() {" + tc.body + "}\n"
			unit, err := loader.CheckSource("test.go", []byte(src), "amd64")
			require.NoError(t, err)

			issues, err := DetectCollapsibleRuns(unit, collapse.Options{}, tt.SeverityWarning)
			require.NoError(t, err)
			require.Len(t, issues, len(tc.suggestions))

			for i, issue := range issues {
				assert.Equal(t, CollapseIntoLoopRule, issue.Rule)
				assert.Equal(t, "style", issue.Category)
				assert.Equal(t, "test.go", issue.Filename)
				assert.Equal(t, tt.SeverityWarning, issue.Severity)
				assert.Equal(t, tc.suggestions[i], issue.Suggestion)
				assert.InDelta(t, tc.confidence[i], issue.Confidence, 1e-9)
				assert.NotEmpty(t, issue.Message)
				assert.Less(t, issue.Start.Offset, issue.End.Offset)
			}
		})
	}
}

func TestDetectCollapsibleRunsElementNote(t *testing.T) {
	t.Parallel()

	src := "package main\n" + collapseHelpers + `
func main() {
	show("a")
	show("b")
	show("c")
}
`
	unit, err := loader.CheckSource("test.go", []byte(src), "amd64")
	require.NoError(t, err)

	issues, err := DetectCollapsibleRuns(unit, collapse.Options{}, tt.SeverityInfo)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "statement repeated for 3 values can be collapsed into a range loop", issues[0].Message)
	assert.NotEmpty(t, issues[0].Note)
	assert.Equal(t, 6, issues[0].Start.Line)
	assert.Equal(t, 8, issues[0].End.Line)
}

func TestDetectCollapsibleRunsMinPeriods(t *testing.T) {
	t.Parallel()

	src := "package main\n" + collapseHelpers + `
func main() {
	step()
	step()
}
`
	unit, err := loader.CheckSource("test.go", []byte(src), "amd64")
	require.NoError(t, err)

	issues, err := DetectCollapsibleRuns(unit, collapse.Options{MinPeriods: 3}, tt.SeverityWarning)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestDetectCollapsibleRunsGenerated(t *testing.T) {
	t.Parallel()

	src := "// Code generated by stringer. DO NOT EDIT.\n\npackage main\n" + collapseHelpers + `
func main() {
	step()
	step()
}
`
	unit, err := loader.CheckSource("test.go", []byte(src), "amd64")
	require.NoError(t, err)

	issues, err := DetectCollapsibleRuns(unit, collapse.Options{}, tt.SeverityWarning)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
