package opener

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed openers.toml
var openersTOML []byte

// Definition describes how to invoke one opener program.
type Definition struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Args        []string `toml:"args,omitempty"`
}

// Supports reports whether the opener runs on goos.
func (d Definition) Supports(goos string) bool {
	return slices.Contains(d.Platforms, goos)
}

type registryFile struct {
	Openers []Definition `toml:"openers"`
}

// Registry holds opener definitions in preference order.
type Registry struct {
	defs []Definition
}

// NewRegistry loads the built-in openers. Each file in userFiles that exists
// is merged on top: a definition with a known name replaces it in place, a
// new name is tried before all built-ins.
func NewRegistry(userFiles ...string) (*Registry, error) {
	var builtin registryFile
	if err := toml.Unmarshal(openersTOML, &builtin); err != nil {
		return nil, fmt.Errorf("parsing openers.toml: %w", err)
	}
	r := &Registry{defs: builtin.Openers}

	for _, path := range userFiles {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var user registryFile
		if err := toml.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		r.merge(user.Openers)
	}
	return r, nil
}

func (r *Registry) merge(defs []Definition) {
	var fresh []Definition
	for _, d := range defs {
		i := slices.IndexFunc(r.defs, func(e Definition) bool { return e.Name == d.Name })
		if i >= 0 {
			r.defs[i] = d
			continue
		}
		fresh = append(fresh, d)
	}
	r.defs = append(fresh, r.defs...)
}

// Definitions returns the openers in preference order.
func (r *Registry) Definitions() []Definition {
	return slices.Clone(r.defs)
}

// Lookup finds a definition by program name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	i := slices.IndexFunc(r.defs, func(d Definition) bool { return d.Name == name })
	if i < 0 {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Find returns the first opener for goos that lookPath can locate.
func (r *Registry) Find(goos string, lookPath func(string) (string, error)) (Definition, bool) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, d := range r.defs {
		if !d.Supports(goos) {
			continue
		}
		if _, err := lookPath(d.Name); err == nil {
			return d, true
		}
	}
	return Definition{}, false
}
