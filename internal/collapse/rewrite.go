package collapse

import (
	"fmt"
	"go/ast"
)

// Loop is a loop statement under construction by an Editor.
type Loop struct {
	Header  string
	Body    []ast.Stmt
	Imports []string
}

// Editor applies the tree mutations of a collapse. Implementations must
// make the whole sequence of calls visible as one edit, or not at all.
type Editor interface {
	// BuildLoop creates a loop with an empty body from a header such as
	// "for i := 0; i < n; i++".
	BuildLoop(header string) (*Loop, error)
	// ReplaceNode replaces target with the given source text.
	ReplaceNode(target ast.Node, replacement string) error
	// MoveRange moves nodes, in order, into the body of loop.
	MoveRange(nodes []ast.Stmt, into *Loop) error
	// InsertBefore places loop right before anchor.
	InsertBefore(loop *Loop, anchor ast.Stmt) error
	// DeleteRange removes nodes from their statement list.
	DeleteRange(nodes []ast.Stmt) error
	// ShortenReferences makes the type names of the loop header resolve in
	// the file, adding the imports of loop.Imports.
	ShortenReferences(loop *Loop) error
}

// Rewrite replaces the statements of plan with a loop through ed.
//
// The sites are rewritten before the template moves into the loop body;
// then the loop takes the place of the whole run.
func Rewrite(ed Editor, plan *Plan) error {
	loop, err := ed.BuildLoop(plan.Header)
	if err != nil {
		return fmt.Errorf("build loop: %w", err)
	}
	loop.Imports = plan.Imports

	for _, site := range plan.Sites {
		if !within(site, plan.Template) {
			return fmt.Errorf("replace site at %d: %w", site.Pos(), ErrStaleSite)
		}
		if err := ed.ReplaceNode(site, plan.VarName); err != nil {
			return fmt.Errorf("replace site: %w", err)
		}
	}
	if err := ed.MoveRange(plan.Template, loop); err != nil {
		return fmt.Errorf("move template: %w", err)
	}
	if err := ed.InsertBefore(loop, plan.Statements[0]); err != nil {
		return fmt.Errorf("insert loop: %w", err)
	}
	if err := ed.DeleteRange(plan.Statements); err != nil {
		return fmt.Errorf("delete statements: %w", err)
	}
	if err := ed.ShortenReferences(loop); err != nil {
		return fmt.Errorf("shorten references: %w", err)
	}
	return nil
}

// within reports whether n lies inside one of stmts.
func within(n ast.Node, stmts []ast.Stmt) bool {
	for _, stmt := range stmts {
		if n.Pos() >= stmt.Pos() && n.End() <= stmt.End() {
			return true
		}
	}
	return false
}
