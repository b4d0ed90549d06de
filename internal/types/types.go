package types

import (
	"fmt"
	"go/token"
	"strings"
)

// Issue represents a lint issue found in the code base.
type Issue struct {
	Rule       string
	Category   string
	Filename   string
	Message    string
	Suggestion string
	Note       string
	Start      token.Position
	End        token.Position
	Severity   Severity
	// Confidence is how sure the rule is that Suggestion preserves the
	// behavior of the code, from 0 to 1.
	Confidence float64
	// RequiredImports lists the import paths Suggestion needs.
	RequiredImports []string
}

// Severity is the level at which a rule reports its issues.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityOff:
		return "off"
	default:
		return "unknown"
	}
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	case "off":
		return SeverityOff, nil
	default:
		return SeverityError, fmt.Errorf("unknown severity %q", s)
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ConfigRule is the configuration of one rule.
type ConfigRule struct {
	Severity   Severity `yaml:"severity"`
	Confidence float64  `yaml:"confidence,omitempty"`
}
