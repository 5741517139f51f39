package source

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

//go:embed presets.toml
var presetsTOML []byte

// Source kinds.
const (
	KindHTML = "html"
	KindFeed = "feed"
)

// Profile fully describes one remote search source.
type Profile struct {
	Kind       string           `toml:"kind"`
	Origin     string           `toml:"origin"`
	SearchPath string           `toml:"search_path"`
	PageSize   int              `toml:"page_size"`
	Selectors  SelectorsProfile `toml:"selectors"`
}

type SelectorsProfile struct {
	Item     string `toml:"item"`
	Title    string `toml:"title"`
	Link     string `toml:"link"`
	LinkAttr string `toml:"link_attr"`
	Category string `toml:"category"`
}

type presetsFile struct {
	Presets map[string]Profile `toml:"presets"`
}

// Presets decodes the embedded preset table.
func Presets() (map[string]Profile, error) {
	var f presetsFile
	if _, err := toml.Decode(string(presetsTOML), &f); err != nil {
		return nil, fmt.Errorf("decoding presets: %w", err)
	}
	return f.Presets, nil
}

// PresetNames returns the sorted names of the built-in presets.
func PresetNames() []string {
	presets, err := Presets()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Override returns p with every non-empty field of o applied on top.
func (p Profile) Override(o Profile) Profile {
	if o.Kind != "" {
		p.Kind = o.Kind
	}
	if o.Origin != "" {
		p.Origin = o.Origin
	}
	if o.SearchPath != "" {
		p.SearchPath = o.SearchPath
	}
	if o.PageSize > 0 {
		p.PageSize = o.PageSize
	}
	s := o.Selectors
	if s.Item != "" {
		p.Selectors.Item = s.Item
	}
	if s.Title != "" {
		p.Selectors.Title = s.Title
	}
	if s.Link != "" {
		p.Selectors.Link = s.Link
	}
	if s.LinkAttr != "" {
		p.Selectors.LinkAttr = s.LinkAttr
	}
	if s.Category != "" {
		p.Selectors.Category = s.Category
	}
	return p
}

// Resolve looks up preset (which may be empty) and applies overrides.
func Resolve(preset string, overrides Profile) (Profile, error) {
	if preset == "" {
		return overrides, nil
	}
	presets, err := Presets()
	if err != nil {
		return Profile{}, err
	}
	base, ok := presets[preset]
	if !ok {
		return Profile{}, fmt.Errorf("unknown source preset %q", preset)
	}
	return base.Override(overrides), nil
}

// New builds the pager described by profile.
func New(profile Profile, client *Client) (Pager, error) {
	endpoint, err := NewEndpoint(profile.Origin, profile.SearchPath, profile.PageSize)
	if err != nil {
		return nil, err
	}

	switch profile.Kind {
	case KindHTML, "":
		return NewHTMLPager(client, endpoint, Selectors{
			Item:     profile.Selectors.Item,
			Title:    profile.Selectors.Title,
			Link:     profile.Selectors.Link,
			LinkAttr: profile.Selectors.LinkAttr,
			Category: profile.Selectors.Category,
		}), nil
	case KindFeed:
		return NewFeedPager(client, endpoint), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", profile.Kind)
	}
}
