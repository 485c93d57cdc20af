package namespace

import (
	"fmt"
	"strings"
)

const (
	// Wildcard matches any single segment when subscribed, and fans out to
	// every child of the current level when published.
	Wildcard = "*"

	// DefaultSeparator is the separator used when none is configured.
	DefaultSeparator = "/"
)

// Syntax splits and joins namespace paths for one separator.
type Syntax struct {
	Separator string
}

// NewSyntax returns a Syntax for sep, falling back to DefaultSeparator when
// sep is empty or is the wildcard itself.
func NewSyntax(sep string) Syntax {
	if sep == "" || sep == Wildcard {
		sep = DefaultSeparator
	}
	return Syntax{Separator: sep}
}

// Split splits path into segments.
func (s Syntax) Split(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	segments := strings.Split(path, s.sep())
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%q: %w", path, ErrEmptySegment)
		}
	}
	return segments, nil
}

// Join joins segments with the separator.
func (s Syntax) Join(segments []string) string {
	return strings.Join(segments, s.sep())
}

// Valid reports whether path splits without error.
func (s Syntax) Valid(path string) bool {
	_, err := s.Split(path)
	return err == nil
}

func (s Syntax) sep() string {
	if s.Separator == "" {
		return DefaultSeparator
	}
	return s.Separator
}

// IsWildcard returns true if seg is the wildcard segment.
func IsWildcard(seg string) bool {
	return seg == Wildcard
}
