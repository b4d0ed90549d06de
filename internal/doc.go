// Package internal provides the linting engine of reroll.
//
// Key components:
//
// Engine: loads a file with its package type information, runs every
// enabled rule on it and filters the results through nolint directives,
// ignored paths and per-rule confidence thresholds.
//
// LintRule: the contract of a rule. The only rule reports statement runs
// that can be collapsed into a loop.
//
// Cache: keeps the issues of unchanged files between runs.
//
// Watch: re-lints files as they are written.
//
// Usage:
//
//	engine, err := internal.NewEngine(internal.Options{CacheDir: ".reroll-cache"})
//	if err != nil {
//	    // handle error
//	}
//
//	issues, err := engine.Run(ctx, "path/to/file.go")
//	if err != nil {
//	    // handle error
//	}
//
//	for _, issue := range issues {
//	    fmt.Printf("Found issue: %s at %s\n", issue.Message, issue.Start)
//	}
//
// This package is intended for internal use within the linting tool and should not be
// imported by external packages.
package internal
