package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gnolang/reroll/internal/collapse"
	"github.com/gnolang/reroll/internal/lints"
	"github.com/gnolang/reroll/internal/loader"
	"github.com/gnolang/reroll/internal/nolint"
	tt "github.com/gnolang/reroll/internal/types"
)

// Options configures an Engine.
type Options struct {
	// Rules overrides the severity and confidence threshold of rules by name.
	Rules map[string]tt.ConfigRule
	// Collapse tunes the collapse-into-loop rule.
	Collapse collapse.Options
	// Arch selects the type sizes used when a file is checked on its own.
	Arch string
	// CacheDir enables the issue cache when set.
	CacheDir string
	// Dependencies are files every cached result depends on, such as the
	// configuration file.
	Dependencies []string
}

// Engine manages the linting process.
type Engine struct {
	loader       *loader.Loader
	arch         string
	cache        *Cache
	rules        map[string]LintRule
	minimums     map[string]float64
	ignoredRules map[string]bool
	ignoredPaths []string
	mu           sync.RWMutex
}

// NewEngine creates a new lint engine.
func NewEngine(opts Options) (*Engine, error) {
	engine := &Engine{
		loader:       loader.New(opts.Arch),
		arch:         opts.Arch,
		ignoredRules: make(map[string]bool),
	}
	engine.applyRules(opts)

	if opts.CacheDir != "" {
		cache, err := NewCache(opts.CacheDir)
		if err != nil {
			return nil, err
		}
		if err := cache.SetDependencies(existing(opts.Dependencies)...); err != nil {
			return nil, err
		}
		engine.cache = cache
	}

	return engine, nil
}

type ruleConstructor func(Options) LintRule

var allRuleConstructors = map[string]ruleConstructor{
	lints.CollapseIntoLoopRule: func(opts Options) LintRule {
		return NewCollapseIntoLoopRule(opts.Collapse)
	},
}

// RuleNames returns the names of every known rule, sorted.
func RuleNames() []string {
	names := make([]string, 0, len(allRuleConstructors))
	for name := range allRuleConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) applyRules(opts Options) {
	e.rules = make(map[string]LintRule)
	e.minimums = make(map[string]float64)

	for key, newRule := range allRuleConstructors {
		rule := newRule(opts)
		if cfg, ok := opts.Rules[key]; ok {
			rule.SetSeverity(cfg.Severity)
			e.minimums[key] = cfg.Confidence
		}
		if rule.Severity() != tt.SeverityOff {
			e.rules[key] = rule
		}
	}
}

// Loader returns the loader the engine type-checks files with.
func (e *Engine) Loader() *loader.Loader {
	return e.loader
}

func (e *Engine) IgnoreRule(rule string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoredRules[rule] = true
}

// IgnorePath excludes files matching pattern. A pattern is a
// filepath.Match glob, or a directory whose whole tree is excluded.
func (e *Engine) IgnorePath(pattern string) {
	if pattern == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoredPaths = append(e.ignoredPaths, filepath.Clean(pattern))
}

func (e *Engine) isIgnoredPath(filename string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	clean := filepath.Clean(filename)
	for _, pattern := range e.ignoredPaths {
		if ok, _ := filepath.Match(pattern, clean); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(clean)); ok {
			return true
		}
		if strings.HasPrefix(clean, pattern+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run applies all lint rules to the given file and returns a slice of Issues.
func (e *Engine) Run(ctx context.Context, filename string) ([]tt.Issue, error) {
	if e.isIgnoredPath(filename) {
		return nil, nil
	}
	if e.cache != nil {
		if issues, ok := e.cache.Get(filename); ok {
			return issues, nil
		}
	}

	unit, err := e.loader.Load(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("error loading file: %w", err)
	}
	issues, err := e.check(unit)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		// a failed cache write only costs a later re-run
		_ = e.cache.Set(filename, issues)
	}
	return issues, nil
}

// RunSource applies all lint rules to source, checked as a package of its
// own under the given file name.
func (e *Engine) RunSource(_ context.Context, filename string, source []byte) ([]tt.Issue, error) {
	unit, err := loader.CheckSource(filename, source, e.arch)
	if err != nil {
		return nil, fmt.Errorf("error parsing content: %w", err)
	}
	return e.check(unit)
}

// Invalidate forgets everything known about filename.
func (e *Engine) Invalidate(filename string) {
	e.loader.Invalidate(filename)
}

func (e *Engine) check(unit *loader.Unit) ([]tt.Issue, error) {
	nolintMgr := nolint.ParseComments(unit.File, unit.Fset)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		allIssues []tt.Issue
		errs      []error
	)
	for _, rule := range e.activeRules() {
		wg.Add(1)
		go func(r LintRule) {
			defer wg.Done()
			issues, err := r.Check(unit)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
				return
			}
			allIssues = append(allIssues, e.filterIssues(nolintMgr, issues)...)
		}(rule)
	}
	wg.Wait()

	sort.SliceStable(allIssues, func(i, j int) bool {
		if allIssues[i].Start.Offset != allIssues[j].Start.Offset {
			return allIssues[i].Start.Offset < allIssues[j].Start.Offset
		}
		return allIssues[i].Rule < allIssues[j].Rule
	})
	return allIssues, errors.Join(errs...)
}

func (e *Engine) activeRules() []LintRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]LintRule, 0, len(e.rules))
	for name, rule := range e.rules {
		if !e.ignoredRules[name] {
			rules = append(rules, rule)
		}
	}
	return rules
}

// filterIssues drops silenced issues and issues below the confidence
// threshold of their rule.
func (e *Engine) filterIssues(nolintMgr *nolint.Manager, issues []tt.Issue) []tt.Issue {
	filtered := make([]tt.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.Confidence < e.minimums[issue.Rule] {
			continue
		}
		if nolintMgr != nil && nolintMgr.IsNolintRange(issue.Start, issue.End, issue.Rule) {
			continue
		}
		filtered = append(filtered, issue)
	}
	return filtered
}

func existing(files []string) []string {
	var out []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// SourceCode stores the content of a source code file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")
	return &SourceCode{Lines: lines}, nil
}
