package lint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnolang/reroll/internal"
	tt "github.com/gnolang/reroll/internal/types"
	"github.com/gnolang/reroll/scanner"
)

type LintEngine interface {
	Run(ctx context.Context, filePath string) ([]tt.Issue, error)
	RunSource(ctx context.Context, filename string, source []byte) ([]tt.Issue, error)
	IgnoreRule(rule string)
	IgnorePath(path string)
}

// New creates an engine configured by the file at configurationPath.
func New(configurationPath string) (*internal.Engine, error) {
	config, err := LoadConfig(configurationPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(config, configurationPath)
}

// NewWithConfig creates an engine from config. Cached results are dropped
// whenever one of the dependency files changes.
func NewWithConfig(config Config, dependencies ...string) (*internal.Engine, error) {
	return internal.NewEngine(internal.Options{
		Rules:        config.Rules,
		Collapse:     config.Options.Collapse(),
		Arch:         config.Options.Arch,
		CacheDir:     config.CacheDir,
		Dependencies: dependencies,
	})
}

type FileProcessor func(ctx context.Context, engine LintEngine, path string) ([]tt.Issue, error)

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	sources map[string][]byte,
) ([]tt.Issue, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var allIssues []tt.Issue
	for _, name := range names {
		issues, err := ProcessSource(ctx, engine, name, sources[name])
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.String("source", name), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	paths []string,
	processor FileProcessor,
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for _, path := range paths {
		issues, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

type fileResult struct {
	issues []tt.Issue
	err    error
}

// ProcessPath runs processor on path, or on every Go and Gno file below
// it when it is a directory. Files are processed by a pool of one worker
// per CPU. The issues of every file that succeeded are returned sorted by
// file and position, along with the errors of the others, joined.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	path string,
	processor FileProcessor,
) ([]tt.Issue, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	issues := []tt.Issue{}
	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return issues, nil
		}
		fileIssues, err := processor(ctx, engine, path)
		if err != nil {
			return issues, err
		}
		return append(issues, fileIssues...), nil
	}

	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	jobs := make(chan string)
	results := make(chan fileResult, len(files))

	// limit the number of workers
	workers := runtime.NumCPU()
	if workers > len(files) {
		workers = len(files)
	}
	for range workers {
		go func() {
			for fp := range jobs {
				fileIssues, err := processor(ctx, engine, fp)
				if err != nil {
					if logger != nil {
						logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
					}
					err = fmt.Errorf("%s: %w", fp, err)
				}
				_ = bar.Add(1)
				results <- fileResult{issues: fileIssues, err: err}
			}
		}()
	}

	sent := 0
	cancelled := false
	for _, fp := range files {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case <-ctx.Done():
			cancelled = true
		case jobs <- fp:
			sent++
		}
		if cancelled {
			break
		}
	}
	close(jobs)

	var errs []error
	for range sent {
		res := <-results
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		issues = append(issues, res.issues...)
	}
	_ = bar.Finish()

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Filename != issues[j].Filename {
			return issues[i].Filename < issues[j].Filename
		}
		return issues[i].Start.Offset < issues[j].Start.Offset
	})
	if cancelled {
		return issues, ctx.Err()
	}
	return issues, errors.Join(errs...)
}

// collectFiles lists the Go and Gno files below root in lexical order.
func collectFiles(root string) ([]string, error) {
	return scanner.New(root, ".go", ".gno").Files()
}

func ProcessFile(ctx context.Context, engine LintEngine, filePath string) ([]tt.Issue, error) {
	return engine.Run(ctx, filePath)
}

func ProcessSource(ctx context.Context, engine LintEngine, filename string, source []byte) ([]tt.Issue, error) {
	return engine.RunSource(ctx, filename, source)
}

var desiredExtensions = map[string]bool{
	".go":  true,
	".gno": true,
}

func hasDesiredExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)]
}
