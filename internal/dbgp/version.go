package dbgp

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseLanguageVersion returns the major version of a debuggee version
// string. Four-part versions such as 1.1.36.02 are truncated to their first
// three parts before parsing.
func ParseLanguageVersion(s string) (int, error) {
	s = strings.TrimSpace(s)
	core, suffix := s, ""
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core, suffix = s[:i], s[i:]
	}
	if parts := strings.Split(core, "."); len(parts) > 3 {
		core = strings.Join(parts[:3], ".")
	}

	v, err := semver.NewVersion(core + suffix)
	if err != nil {
		return 0, fmt.Errorf("parse language version %q: %w", s, err)
	}
	return int(v.Major()), nil
}
