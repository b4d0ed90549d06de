package formatter

// CollapseIntoLoopFormatter shows the loop replacing the reported run,
// followed by how sure the rule is that the loop behaves the same.
type CollapseIntoLoopFormatter struct{}

func (f *CollapseIntoLoopFormatter) IssueTemplate() string {
	return `{{header .Rule .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent -}}
{{suggestion .Suggestion .Padding .MaxLineNumWidth .StartLine -}}
{{note .Note -}}
{{confidence .Confidence}}
`
}
