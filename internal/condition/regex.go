package condition

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dlclark/regexp2"
)

// regexTimeout bounds a single match against a pathological pattern.
const regexTimeout = time.Second

// optionLetters are the characters allowed before ")" in a pattern literal.
// Only i, m, s and x change matching; the rest are accepted and ignored.
const optionLetters = "imsxADJUXSCPO`nra \t"

// regexCache holds compiled patterns keyed by the pattern literal.
type regexCache struct {
	cache *ristretto.Cache[string, *regexp2.Regexp]
}

func newRegexCache(size int64) (*regexCache, error) {
	if size <= 0 {
		size = DefaultRegexCacheSize
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, *regexp2.Regexp]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create regex cache: %w", err)
	}
	return &regexCache{cache: c}, nil
}

// compile returns the compiled form of literal, from the cache when present.
func (c *regexCache) compile(literal string) (*regexp2.Regexp, error) {
	if re, ok := c.cache.Get(literal); ok {
		return re, nil
	}

	flags, pattern := splitPatternLiteral(literal)
	re, err := regexp2.Compile(pattern, regexOptions(flags))
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = regexTimeout

	c.cache.Set(literal, re, 1)
	return re, nil
}

func (c *regexCache) close() {
	c.cache.Close()
}

// splitPatternLiteral splits "<flags>)<pattern>". Text before the first ")"
// counts as flags only when it consists of option characters, so a pattern
// such as "^(a|b)" keeps its group.
func splitPatternLiteral(literal string) (flags, pattern string) {
	i := strings.IndexByte(literal, ')')
	if i < 0 {
		return "", literal
	}
	for _, r := range literal[:i] {
		if !strings.ContainsRune(optionLetters, r) {
			return "", literal
		}
	}
	return literal[:i], literal[i+1:]
}

func regexOptions(flags string) regexp2.RegexOptions {
	var opts regexp2.RegexOptions
	for _, r := range flags {
		switch r {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		}
	}
	return opts
}
