package tokens

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

var (
	contactTokenRe = regexp.MustCompile(`\{contact(?:field=|\.)([A-Za-z0-9_]+)(?:\|([^}]*))?\}`)
	pageTokenRe    = regexp.MustCompile(`\{pagelink=(\d+)\}`)
	assetTokenRe   = regexp.MustCompile(`\{assetlink=(\d+)\}`)
)

// ContactProvider resolves {contactfield=alias|default} and {contact.alias}.
type ContactProvider struct{}

func (ContactProvider) FindTokens(_ context.Context, content string, tc *Context) (map[string]string, error) {
	found := map[string]string{}
	for _, m := range contactTokenRe.FindAllStringSubmatch(content, -1) {
		token, alias, fallback := m[0], m[1], m[2]
		value := fallback
		if tc != nil && tc.Contact != nil {
			if v, ok := tc.Contact.FieldValue(alias); ok {
				value = v
			}
		}
		found[token] = value
	}
	return found, nil
}

// URLLookup returns the public URL of an item, or "" when it does not exist.
type URLLookup interface {
	URL(ctx context.Context, id int64) (string, error)
}

type URLLookupFunc func(ctx context.Context, id int64) (string, error)

func (f URLLookupFunc) URL(ctx context.Context, id int64) (string, error) {
	return f(ctx, id)
}

// LinkProvider resolves {<kind>link=ID} tokens through a URLLookup.
type LinkProvider struct {
	re     *regexp.Regexp
	kind   string
	lookup URLLookup
}

func NewPageProvider(lookup URLLookup) *LinkProvider {
	return &LinkProvider{re: pageTokenRe, kind: "page", lookup: lookup}
}

func NewAssetProvider(lookup URLLookup) *LinkProvider {
	return &LinkProvider{re: assetTokenRe, kind: "asset", lookup: lookup}
}

func (p *LinkProvider) FindTokens(ctx context.Context, content string, _ *Context) (map[string]string, error) {
	found := map[string]string{}
	for _, m := range p.re.FindAllStringSubmatch(content, -1) {
		if _, done := found[m[0]]; done {
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		url, err := p.lookup.URL(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", p.kind, id, err)
		}
		found[m[0]] = url
	}
	return found, nil
}
