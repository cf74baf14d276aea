package expr

import (
	"strings"

	"github.com/elka-projekt/cs-voltdb/internal/types"
)

// likePrefix extracts the literal prefix of a LIKE pattern, stopping at
// the first unescaped wildcard. ok is false when the pattern has no
// literal prefix or contains wildcards other than a trailing '%' run.
func likePrefix(pattern string) (string, bool) {
	var b strings.Builder

	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '\\':
			if i+1 >= len(pattern) {
				return "", false
			}
			b.WriteByte(pattern[i+1])
			i += 2
			continue
		case '%':
			// only a trailing run of '%' keeps the range exact
			if strings.Trim(pattern[i:], "%") != "" {
				return "", false
			}
			if b.Len() == 0 {
				return "", false
			}
			return b.String(), true
		case '_':
			return "", false
		}
		b.WriteByte(c)
		i++
	}

	// no wildcard at all: the pattern is its own prefix
	if b.Len() == 0 {
		return "", false
	}

	return b.String(), true
}

// IsPrefixPattern reports whether pattern can be converted to a key
// range, i.e. it is a literal prefix followed only by '%' wildcards.
func IsPrefixPattern(pattern string) bool {
	_, ok := likePrefix(pattern)
	return ok
}

// nextPrefix returns the smallest string greater than every string that
// starts with prefix. ok is false when no such string exists (the
// prefix is all 0xff bytes).
func nextPrefix(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}

	return "", false
}

// LikeRange derives the key range covered by a prefix pattern: every
// text matching the pattern sorts in [lower, upper). hasUpper is false
// when the prefix admits no upper bound.
func LikeRange(pattern string) (lower, upper string, hasUpper, ok bool) {
	prefix, ok := likePrefix(pattern)
	if !ok {
		return "", "", false, false
	}

	upper, hasUpper = nextPrefix(prefix)
	return prefix, upper, hasUpper, true
}

// LikeBounds converts a prefix-pattern constant into the pair of fresh
// constants bounding its key range. upper is nil when the range has no
// upper bound.
func LikeBounds(pattern *Constant) (lower, upper *Constant, ok bool) {
	if pattern.Value.Type() != types.TypeText {
		return nil, nil, false
	}

	lo, hi, hasUpper, ok := LikeRange(types.AsString(pattern.Value))
	if !ok {
		return nil, nil, false
	}

	lower = &Constant{Value: types.NewTextValue(lo)}
	if hasUpper {
		upper = &Constant{Value: types.NewTextValue(hi)}
	}

	return lower, upper, true
}
