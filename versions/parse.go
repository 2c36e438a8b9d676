package versions

import (
	"strconv"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// ParseVersion parses a concrete version string. Partial versions are
// zero-padded ("1.2" becomes 1.2.0).
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid version %q", s)
	}
	return v, nil
}

// ParseConstraint parses a constraint expression into a Range.
//
// Supported forms: "*", exact versions, "!=", comparison operators
// (">=1.0", "<2"), caret ("^1.2.3"), tilde ("~1.2"), wildcards ("1.2.*"),
// comma- or space-separated conjunctions, and "||"-separated unions.
func ParseConstraint(s string) (*Range, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Any(), nil
	}

	out := Empty()
	for _, group := range strings.Split(s, "||") {
		r, err := parseGroup(group)
		if err != nil {
			return nil, err
		}
		out = out.Union(r)
	}
	return out, nil
}

// MustConstraint is ParseConstraint for statically known inputs; it
// panics on malformed ones.
func MustConstraint(s string) *Range {
	r, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return r
}

// MustVersion is ParseVersion for statically known inputs.
func MustVersion(s string) *semver.Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseGroup(group string) (*Range, error) {
	out := Any()
	fields := strings.FieldsFunc(group, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, errors.Errorf("empty constraint in %q", group)
	}
	for _, part := range fields {
		r, err := parseSimple(part)
		if err != nil {
			return nil, err
		}
		out = out.Intersect(r)
	}
	return out, nil
}

func parseSimple(part string) (*Range, error) {
	switch {
	case part == "*":
		return Any(), nil

	case strings.HasPrefix(part, "^"):
		return parseCaret(part[1:])

	case strings.HasPrefix(part, "~"):
		return parseTilde(part[1:])

	case strings.HasPrefix(part, "!="):
		v, err := ParseVersion(part[2:])
		if err != nil {
			return nil, err
		}
		return Any().Difference(Exact(v)), nil

	case strings.HasPrefix(part, ">="):
		v, err := ParseVersion(part[2:])
		if err != nil {
			return nil, err
		}
		return NewRange(v, nil, true, false), nil

	case strings.HasPrefix(part, "<="):
		v, err := ParseVersion(part[2:])
		if err != nil {
			return nil, err
		}
		return NewRange(nil, v, false, true), nil

	case strings.HasPrefix(part, ">"):
		v, err := ParseVersion(part[1:])
		if err != nil {
			return nil, err
		}
		return NewRange(v, nil, false, false), nil

	case strings.HasPrefix(part, "<"):
		v, err := ParseVersion(part[1:])
		if err != nil {
			return nil, err
		}
		return NewRange(nil, v, false, false), nil

	case strings.HasPrefix(part, "=="):
		return parseExactOrWildcard(part[2:])

	case strings.HasPrefix(part, "="):
		return parseExactOrWildcard(part[1:])

	default:
		return parseExactOrWildcard(part)
	}
}

// parseExactOrWildcard handles bare versions and trailing-wildcard forms
// like "1.2.*".
func parseExactOrWildcard(s string) (*Range, error) {
	if i := strings.IndexAny(s, "*xX"); i >= 0 && (i == 0 || s[i-1] == '.') {
		base := strings.TrimSuffix(s[:i], ".")
		if base == "" {
			return Any(), nil
		}
		v, segs, err := parsePartial(base)
		if err != nil {
			return nil, err
		}
		return NewRange(v, bumpSegment(v, segs), true, false), nil
	}

	v, err := ParseVersion(s)
	if err != nil {
		return nil, err
	}
	return Exact(v), nil
}

// parseCaret: compatible-release range anchored at the leftmost nonzero
// segment, e.g. ^1.2.3 -> >=1.2.3 <2.0.0 and ^0.3 -> >=0.3.0 <0.4.0.
func parseCaret(s string) (*Range, error) {
	v, segs, err := parsePartial(s)
	if err != nil {
		return nil, err
	}

	var upper *semver.Version
	switch {
	case v.Major() > 0:
		upper = semver.New(v.Major()+1, 0, 0, "", "")
	case v.Minor() > 0 || segs < 3:
		upper = semver.New(0, v.Minor()+1, 0, "", "")
	default:
		upper = semver.New(0, 0, v.Patch()+1, "", "")
	}
	return NewRange(v, upper, true, false), nil
}

// parseTilde: patch-level (or minor-level for short forms) range, e.g.
// ~1.2.3 -> >=1.2.3 <1.3.0 and ~1 -> >=1.0.0 <2.0.0.
func parseTilde(s string) (*Range, error) {
	v, segs, err := parsePartial(s)
	if err != nil {
		return nil, err
	}

	var upper *semver.Version
	if segs >= 2 {
		upper = semver.New(v.Major(), v.Minor()+1, 0, "", "")
	} else {
		upper = semver.New(v.Major()+1, 0, 0, "", "")
	}
	return NewRange(v, upper, true, false), nil
}

func bumpSegment(v *semver.Version, segs int) *semver.Version {
	switch segs {
	case 1:
		return semver.New(v.Major()+1, 0, 0, "", "")
	case 2:
		return semver.New(v.Major(), v.Minor()+1, 0, "", "")
	default:
		return semver.New(v.Major(), v.Minor(), v.Patch()+1, "", "")
	}
}

// parsePartial parses a possibly truncated version and reports how many
// numeric segments were written out.
func parsePartial(s string) (*semver.Version, int, error) {
	core := s
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	segs := len(strings.Split(core, "."))
	if segs < 1 || segs > 3 {
		return nil, 0, errors.Errorf("invalid version %q", s)
	}
	for _, seg := range strings.Split(core, ".") {
		if _, err := strconv.ParseUint(seg, 10, 64); err != nil {
			return nil, 0, errors.Errorf("invalid version segment %q in %q", seg, s)
		}
	}

	v, err := ParseVersion(s)
	if err != nil {
		return nil, 0, err
	}
	return v, segs, nil
}
