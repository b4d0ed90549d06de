package internal

import (
	"github.com/gnolang/reroll/internal/collapse"
	"github.com/gnolang/reroll/internal/lints"
	"github.com/gnolang/reroll/internal/loader"
	tt "github.com/gnolang/reroll/internal/types"
)

/*
* Implement each lint rule as a separate struct
 */

// LintRule defines the interface for all lint rules.
type LintRule interface {
	// Check runs the lint rule on the given unit and returns a slice of Issues.
	Check(unit *loader.Unit) ([]tt.Issue, error)

	// Name returns the name of the lint rule.
	Name() string

	// Severity returns the severity the issues of the rule are reported with.
	Severity() tt.Severity

	// SetSeverity changes the severity of the rule.
	SetSeverity(tt.Severity)
}

type CollapseIntoLoopRule struct {
	severity tt.Severity
	options  collapse.Options
}

func NewCollapseIntoLoopRule(opts collapse.Options) LintRule {
	return &CollapseIntoLoopRule{
		severity: tt.SeverityWarning,
		options:  opts,
	}
}

func (r *CollapseIntoLoopRule) Check(unit *loader.Unit) ([]tt.Issue, error) {
	return lints.DetectCollapsibleRuns(unit, r.options, r.severity)
}

func (r *CollapseIntoLoopRule) Name() string {
	return lints.CollapseIntoLoopRule
}

func (r *CollapseIntoLoopRule) Severity() tt.Severity {
	return r.severity
}

func (r *CollapseIntoLoopRule) SetSeverity(severity tt.Severity) {
	r.severity = severity
}
