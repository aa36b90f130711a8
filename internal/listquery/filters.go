package listquery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedFilter is returned when a filter payload cannot be decoded.
var ErrMalformedFilter = errors.New("malformed filter input")

const tokenSeparator = ":"

// Group maps a filter token prefix to the column it restricts.
type Group struct {
	Prefix  string
	Column  string
	Numeric bool
}

// ParseFilters decodes a JSON array of "prefix:value" tokens. An empty or
// null payload yields an empty selection.
func ParseFilters(raw string, groups []Group) (map[string][]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string][]string{}, nil
	}

	var tokens []string
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}
	return GroupTokens(tokens, groups)
}

// GroupTokens partitions tokens by prefix, deduplicating values while keeping
// first-seen order.
func GroupTokens(tokens []string, groups []Group) (map[string][]string, error) {
	byPrefix := make(map[string]Group, len(groups))
	for _, g := range groups {
		byPrefix[g.Prefix] = g
	}

	selected := map[string][]string{}
	seen := map[string]bool{}
	for _, token := range tokens {
		prefix, value, ok := strings.Cut(token, tokenSeparator)
		if !ok || value == "" {
			return nil, fmt.Errorf("%w: token %q", ErrMalformedFilter, token)
		}
		g, known := byPrefix[prefix]
		if !known {
			return nil, fmt.Errorf("%w: unknown filter group %q", ErrMalformedFilter, prefix)
		}
		if g.Numeric {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				return nil, fmt.Errorf("%w: token %q", ErrMalformedFilter, token)
			}
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		selected[prefix] = append(selected[prefix], value)
	}
	return selected, nil
}

// Tokens flattens a selection back into "prefix:value" tokens, in group order.
func Tokens(selected map[string][]string, groups []Group) []string {
	var tokens []string
	for _, g := range groups {
		for _, v := range selected[g.Prefix] {
			tokens = append(tokens, g.Prefix+tokenSeparator+v)
		}
	}
	return tokens
}
