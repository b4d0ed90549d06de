package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/reroll/internal/collapse"
	"github.com/gnolang/reroll/internal/fixer"
	"github.com/gnolang/reroll/internal/lints"
	"github.com/gnolang/reroll/internal/loader"
	tt "github.com/gnolang/reroll/internal/types"
	"github.com/gnolang/reroll/lint"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type mockLintEngine struct {
	mock.Mock
}

func (m *mockLintEngine) Run(ctx context.Context, filePath string) ([]tt.Issue, error) {
	args := m.Called(ctx, filePath)
	return args.Get(0).([]tt.Issue), args.Error(1)
}

func (m *mockLintEngine) RunSource(ctx context.Context, filename string, source []byte) ([]tt.Issue, error) {
	args := m.Called(ctx, filename, source)
	return args.Get(0).([]tt.Issue), args.Error(1)
}

func (m *mockLintEngine) IgnoreRule(rule string) {
	m.Called(rule)
}

func (m *mockLintEngine) IgnorePath(path string) {
	m.Called(path)
}

const unrolled = `package main

func add(a, b int) int { return a + b }

func main() {
	total := 0
	total = add(total, 1)
	total = add(total, 2)
	total = add(total, 3)
	println(total)
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runIssue(path string) tt.Issue {
	return tt.Issue{
		Rule:       lints.CollapseIntoLoopRule,
		Category:   "style",
		Filename:   path,
		Message:    "statement repeated over 1..3 can be collapsed into a counting loop",
		Suggestion: "for i := 1; i < 4; i++ {\n\t\ttotal = add(total, i)\n\t}",
		Start:      token.Position{Filename: path, Offset: 82, Line: 7, Column: 2},
		End:        token.Position{Filename: path, Offset: 149, Line: 9, Column: 23},
		Severity:   tt.SeverityWarning,
		Confidence: 0.9,
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,", []string{"a", "b"}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, splitList(tc.in), tc.in)
	}
}

func TestConfigureIgnores(t *testing.T) {
	t.Parallel()

	engine := new(mockLintEngine)
	engine.On("IgnoreRule", lints.CollapseIntoLoopRule).Once()
	engine.On("IgnorePath", "vendor").Once()
	engine.On("IgnorePath", "*_gen.go").Once()

	configureIgnores(engine, lints.CollapseIntoLoopRule, "vendor, *_gen.go")

	engine.AssertExpectations(t)
}

func TestRunNormalLintProcess(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.go", unrolled)
	engine := new(mockLintEngine)
	engine.On("Run", mock.Anything, path).Return([]tt.Issue{runIssue(path)}, nil)

	var out bytes.Buffer
	found, err := runNormalLintProcess(context.Background(), zap.NewNop(), engine, []string{path}, &out, false, "")

	require.NoError(t, err)
	assert.Equal(t, 1, found)
	assert.Contains(t, out.String(), "warning: collapse-into-loop")
	assert.Contains(t, out.String(), path+":7:2")
	assert.Contains(t, out.String(), "Confidence: 90%")
	engine.AssertExpectations(t)
}

func TestRunNormalLintProcessJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.go", unrolled)
	output := filepath.Join(t.TempDir(), "issues.json")
	engine := new(mockLintEngine)
	engine.On("Run", mock.Anything, path).Return([]tt.Issue{runIssue(path)}, nil)

	var out bytes.Buffer
	found, err := runNormalLintProcess(context.Background(), zap.NewNop(), engine, []string{path}, &out, true, output)
	require.NoError(t, err)
	assert.Equal(t, 1, found)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded[path], 1)
	assert.Equal(t, "warning", decoded[path][0]["Severity"])
	assert.Equal(t, lints.CollapseIntoLoopRule, decoded[path][0]["Rule"])
}

func TestRunNormalLintProcessClean(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.go", "package main\n")
	engine := new(mockLintEngine)
	engine.On("Run", mock.Anything, path).Return([]tt.Issue{}, nil)

	var out bytes.Buffer
	found, err := runNormalLintProcess(context.Background(), zap.NewNop(), engine, []string{path}, &out, false, "")

	require.NoError(t, err)
	assert.Zero(t, found)
	assert.Empty(t, out.String())
}

func TestReporter(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.go", unrolled)
	var out bytes.Buffer
	report := reporter(zap.NewNop(), &out)

	report(path, nil)
	assert.Equal(t, path+": no collapsible runs\n", out.String())

	out.Reset()
	report(path, []tt.Issue{runIssue(path)})
	assert.Contains(t, out.String(), "collapse-into-loop")
}

func TestRunAutoFix(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.go", unrolled)
	engine, err := lint.NewWithConfig(lint.DefaultConfig())
	require.NoError(t, err)

	var out bytes.Buffer
	fix := fixer.New(false, 0.75)
	fix.Out = &out

	require.NoError(t, runAutoFix(context.Background(), zap.NewNop(), engine, []string{filepath.Dir(path)}, fix))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "for i := 1; i < 4; i++ {\n\t\ttotal = add(total, i)\n\t}")
	assert.NotContains(t, string(content), "add(total, 2)")
	assert.Contains(t, out.String(), "Fixed issues in "+path)
}

func TestRunAutoFixDryRun(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.go", unrolled)
	engine, err := lint.NewWithConfig(lint.DefaultConfig())
	require.NoError(t, err)

	var out bytes.Buffer
	fix := fixer.New(true, 0.75)
	fix.Out = &out

	require.NoError(t, runAutoFix(context.Background(), zap.NewNop(), engine, []string{path}, fix))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, unrolled, string(content))
	assert.Contains(t, out.String(), "Would fix issue in "+path+" at line 7")
}

func TestRunCollapse(t *testing.T) {
	t.Parallel()

	start := strings.Index(unrolled, "total = add(total, 1)")
	end := strings.Index(unrolled, "println")
	loop := "\tfor i := 1; i < 4; i++ {\n\t\ttotal = add(total, i)\n\t}\n"

	tests := []struct {
		name    string
		req     collapseRequest
		wantErr error
		check   func(t *testing.T, path, out string)
	}{
		{
			name: "lines dry run",
			req:  collapseRequest{Lines: "7:9", DryRun: true},
			check: func(t *testing.T, path, out string) {
				assert.Contains(t, out, loop)
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, unrolled, string(content))
			},
		},
		{
			name: "offsets write",
			req:  collapseRequest{Offsets: fmt.Sprintf("%d:%d", start, end)},
			check: func(t *testing.T, path, out string) {
				assert.Contains(t, out, "Collapsed lines 7-9 of "+path)
				content, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Contains(t, string(content), loop)
				assert.Contains(t, string(content), "\tprintln(total)\n")
			},
		},
		{
			name: "check two repetitions",
			req:  collapseRequest{Lines: "7:8", Check: true},
			check: func(t *testing.T, path, out string) {
				assert.Equal(t, path+": 2 repetitions can be collapsed into a loop\n", out)
			},
		},
		{
			name:    "check distinct statements",
			req:     collapseRequest{Lines: "6:7", Check: true},
			wantErr: collapse.ErrNotApplicable,
		},
		{
			name:    "selection outside a block",
			req:     collapseRequest{Lines: "3:3"},
			wantErr: errNoStatements,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, "main.go", unrolled)
			req := tc.req
			req.File = path

			var out bytes.Buffer
			err := runCollapse(context.Background(), loader.New("amd64"), lint.DefaultConfig().Options, req, &out)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, path, out.String())
		})
	}
}

func TestRunCollapseLongPeriod(t *testing.T) {
	t.Parallel()

	var src strings.Builder
	src.WriteString("package main\n\n")
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&src, "func step%d(int) {}\n", i)
	}
	src.WriteString("\nfunc main() {\n")
	for v := 1; v <= 2; v++ {
		for i := 1; i <= 9; i++ {
			fmt.Fprintf(&src, "\tstep%d(%d)\n", i, v)
		}
	}
	src.WriteString("}\n")

	path := writeFile(t, "main.go", src.String())
	opts := lint.DefaultConfig().Options
	require.Less(t, opts.MaxPeriodLen, 9)

	var out bytes.Buffer
	req := collapseRequest{File: path, Lines: "14:31", Check: true}
	require.NoError(t, runCollapse(context.Background(), loader.New("amd64"), opts, req, &out))
	assert.Equal(t, path+": 2 repetitions can be collapsed into a loop\n", out.String())

	out.Reset()
	req = collapseRequest{File: path, Lines: "14:31", DryRun: true}
	require.NoError(t, runCollapse(context.Background(), loader.New("amd64"), opts, req, &out))
	assert.Contains(t, out.String(), "for i := 1; i < 3; i++ {\n\t\tstep1(i)\n")
	assert.Contains(t, out.String(), "\t\tstep9(i)\n\t}\n")
}

func TestRunCollapseInvalidSelection(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "main.go", unrolled)
	ld := loader.New("amd64")
	opts := lint.DefaultConfig().Options

	for _, req := range []collapseRequest{
		{File: path},
		{File: path, Lines: "7:9", Offsets: "0:1"},
		{File: path, Lines: "9:7"},
		{File: path, Lines: "7-9"},
		{File: path, Offsets: "0:100000"},
	} {
		assert.Error(t, runCollapse(context.Background(), ld, opts, req, &bytes.Buffer{}), "%+v", req)
	}
}

func TestParseSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		from, to int
		wantErr  bool
	}{
		{in: "7:9", from: 7, to: 9},
		{in: " 1 : 2 ", from: 1, to: 2},
		{in: "7", wantErr: true},
		{in: "a:9", wantErr: true},
		{in: "7:", wantErr: true},
	}
	for _, tc := range tests {
		from, to, err := parseSpan(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.from, from)
		assert.Equal(t, tc.to, to)
	}
}

func TestInitConfigurationFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), lint.DefaultConfigPath)
	require.NoError(t, initConfigurationFile(path))

	config, err := lint.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, lint.DefaultConfig(), config)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	for _, verbose := range []bool{false, true} {
		l, err := newLogger(verbose)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}
