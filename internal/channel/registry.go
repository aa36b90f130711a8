// Package channel keeps the registry of messaging channels and the features
// each supports, and fans broadcast requests out to channel broadcasters.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var ErrUnknownChannel = errors.New("channel not registered")

// FeatureConfig describes how a channel plugs into a feature such as
// marketing messages.
type FeatureConfig struct {
	LookupType      string   `json:"lookupFormType,omitempty"`
	PropertiesType  string   `json:"propertiesFormType,omitempty"`
	CampaignAction  string   `json:"campaignAction,omitempty"`
	GoalsSupported  []string `json:"goalsSupported,omitempty"`
	ChannelTemplate string   `json:"channelTemplate,omitempty"`
	FormTheme       string   `json:"formTheme,omitempty"`
}

type Channel struct {
	Name     string                   `json:"name"`
	Features map[string]FeatureConfig `json:"features"`
}

type BroadcastRequest struct {
	// Channel restricts the broadcast to one channel; empty means all.
	Channel string
	// ID restricts the broadcast to one channel entity.
	ID *uuid.UUID
	// Limit caps contacts per batch; MaxBatches caps batches per entity (0 is unbounded).
	Limit      int
	MaxBatches int
}

type BroadcastResult struct {
	Channel string `json:"channel"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

type Broadcaster func(ctx context.Context, req BroadcastRequest) (BroadcastResult, error)

type broadcaster struct {
	channel string
	fn      Broadcaster
}

type Registry struct {
	mu           sync.RWMutex
	channels     map[string]*Channel
	order        []string
	broadcasters []broadcaster
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]*Channel)}
}

// AddChannel registers name with features. Registering a known channel
// merges features, later registrations winning per feature.
func (r *Registry) AddChannel(name string, features map[string]FeatureConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[name]
	if !ok {
		ch = &Channel{Name: name, Features: map[string]FeatureConfig{}}
		r.channels[name] = ch
		r.order = append(r.order, name)
	}
	for feature, cfg := range features {
		ch.Features[feature] = cfg
	}
}

func (r *Registry) Channel(name string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	if !ok {
		return Channel{}, false
	}
	return copyChannel(ch), true
}

// Channels lists channels in registration order.
func (r *Registry) Channels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, copyChannel(r.channels[name]))
	}
	return out
}

// FeatureChannels maps channel name to its config for feature.
func (r *Registry) FeatureChannels(feature string) map[string]FeatureConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]FeatureConfig{}
	for name, ch := range r.channels {
		if cfg, ok := ch.Features[feature]; ok {
			out[name] = cfg
		}
	}
	return out
}

// FeatureChannelNames is FeatureChannels' keys, sorted.
func (r *Registry) FeatureChannelNames(feature string) []string {
	names := make([]string, 0)
	for name := range r.FeatureChannels(feature) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnBroadcast appends a broadcaster for a registered channel.
func (r *Registry) OnBroadcast(channel string, fn Broadcaster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[channel]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	r.broadcasters = append(r.broadcasters, broadcaster{channel: channel, fn: fn})
	return nil
}

// Broadcast runs matching broadcasters in registration order and stops at
// the first error, returning the results gathered so far.
func (r *Registry) Broadcast(ctx context.Context, req BroadcastRequest) ([]BroadcastResult, error) {
	r.mu.RLock()
	if req.Channel != "" {
		if _, ok := r.channels[req.Channel]; !ok {
			r.mu.RUnlock()
			return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, req.Channel)
		}
	}
	matching := make([]broadcaster, 0, len(r.broadcasters))
	for _, b := range r.broadcasters {
		if req.Channel == "" || req.Channel == b.channel {
			matching = append(matching, b)
		}
	}
	r.mu.RUnlock()

	results := make([]BroadcastResult, 0, len(matching))
	for _, b := range matching {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := b.fn(ctx, req)
		if res.Channel == "" {
			res.Channel = b.channel
		}
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("broadcast %s: %w", b.channel, err)
		}
	}
	return results, nil
}

func copyChannel(ch *Channel) Channel {
	features := make(map[string]FeatureConfig, len(ch.Features))
	for k, v := range ch.Features {
		features[k] = v
	}
	return Channel{Name: ch.Name, Features: features}
}
