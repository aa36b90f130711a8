// Package tokens resolves placeholder tokens in message content.
package tokens

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/google/uuid"
)

// Context is the render target of one replacement pass.
type Context struct {
	Contact      *models.Contact
	Channel      string
	ChannelID    uuid.UUID
	TrackingHash string
}

// Provider finds the tokens in content it can resolve.
type Provider interface {
	FindTokens(ctx context.Context, content string, tc *Context) (map[string]string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, content string, tc *Context) (map[string]string, error)

func (f ProviderFunc) FindTokens(ctx context.Context, content string, tc *Context) (map[string]string, error) {
	return f(ctx, content, tc)
}

// TrackableResolver rewrites links into click-tracked indirections.
type TrackableResolver interface {
	// ParseContentForTrackables replaces URLs in content, and tokens whose
	// value is a URL, with trackable placeholders keyed in the returned map.
	ParseContentForTrackables(ctx context.Context, content string, tokens map[string]string, channel string, channelID uuid.UUID) (string, map[string]*models.Trackable, error)
	GenerateTrackableURL(t *models.Trackable, ct Clickthrough) string
}

// Pass merges provider output and substitutes the result into content.
type Pass struct {
	providers []Provider
	resolver  TrackableResolver
}

// NewPass keeps providers in order; on token collisions the later provider wins.
func NewPass(resolver TrackableResolver, providers ...Provider) *Pass {
	return &Pass{providers: providers, resolver: resolver}
}

// Tokens merges provider output for content.
func (p *Pass) Tokens(ctx context.Context, content string, tc *Context) (map[string]string, error) {
	merged := map[string]string{}
	for i, provider := range p.providers {
		found, err := provider.FindTokens(ctx, content, tc)
		if err != nil {
			return nil, fmt.Errorf("token provider %d: %w", i, err)
		}
		for k, v := range found {
			merged[k] = v
		}
	}
	return merged, nil
}

func (p *Pass) Replace(ctx context.Context, content string, tc *Context) (string, error) {
	if content == "" {
		return content, nil
	}
	if tc == nil {
		tc = &Context{}
	}

	merged, err := p.Tokens(ctx, content, tc)
	if err != nil {
		return "", err
	}

	if p.resolver != nil && tc.ChannelID != uuid.Nil {
		var trackables map[string]*models.Trackable
		content, trackables, err = p.resolver.ParseContentForTrackables(ctx, content, merged, tc.Channel, tc.ChannelID)
		if err != nil {
			return "", fmt.Errorf("parse trackables: %w", err)
		}
		ct := NewClickthrough(tc)
		for token, trackable := range trackables {
			merged[token] = p.resolver.GenerateTrackableURL(trackable, ct)
		}
	}

	return Substitute(content, merged), nil
}

// Substitute replaces every token key in one left-to-right, non-overlapping
// pass. At equal positions the longer key wins.
func Substitute(content string, tokens map[string]string) string {
	if len(tokens) == 0 {
		return content
	}
	keys := make([]string, 0, len(tokens))
	for k := range tokens {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, tokens[k])
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
