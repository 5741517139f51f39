// Package validation checks user-supplied source origins before any request
// is made against them.
package validation

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// OriginValidator validates the base URL of a search source. It satisfies
// ozzo-validation's Rule interface, so it can be used directly in
// validation.Field.
type OriginValidator struct {
	// AllowLocal permits loopback and private addresses, for self-hosted
	// catalogues and tests.
	AllowLocal bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewOriginValidator creates a validator that rejects local addresses.
func NewOriginValidator() *OriginValidator {
	return &OriginValidator{MaxLength: 2048}
}

// NewPermissiveOriginValidator creates a validator that allows local
// addresses.
func NewPermissiveOriginValidator() *OriginValidator {
	return &OriginValidator{AllowLocal: true, MaxLength: 2048}
}

// Validate implements validation.Rule. Empty values pass; pair it with
// validation.Required when the origin is mandatory.
func (v *OriginValidator) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return errors.New("must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := v.Normalize(s)
	return err
}

// Normalize validates input and returns it in canonical form: scheme and
// host lowercased, no trailing slash, no query or fragment. The scheme is
// required, matching what source.NewEndpoint accepts.
func (v *OriginValidator) Normalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", errors.New("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", errors.New("URL contains invalid characters")
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("URL must use http or https protocol")
	}
	if u.Hostname() == "" {
		return "", errors.New("URL must have a valid hostname")
	}
	if u.User != nil {
		return "", errors.New("credentials are not allowed in the origin")
	}
	if err := v.checkHost(u.Hostname()); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", errors.New("directory traversal patterns not allowed in URL path")
	}

	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func (v *OriginValidator) checkHost(hostname string) error {
	hostname = strings.ToLower(hostname)

	if addr, err := netip.ParseAddr(hostname); err == nil {
		if addr.IsUnspecified() || addr == netip.MustParseAddr("255.255.255.255") {
			return errors.New("unroutable address")
		}
		if !v.AllowLocal && isLocalAddr(addr) {
			return errors.New("local and private addresses are not permitted")
		}
		return nil
	}

	if !v.AllowLocal && isLocalhost(hostname) {
		return errors.New("localhost URLs are not permitted")
	}
	if isHexObfuscated(hostname) {
		return errors.New("suspicious hostname detected")
	}
	return nil
}

func isLocalAddr(addr netip.Addr) bool {
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" || strings.HasSuffix(hostname, ".localhost")
}

// isHexObfuscated flags dotted hostnames made of long hex runs, a common
// way to smuggle an IP past naive filters.
func isHexObfuscated(hostname string) bool {
	if strings.Count(hostname, ".") != 3 || net.ParseIP(hostname) != nil {
		return false
	}
	for _, part := range strings.Split(hostname, ".") {
		if len(part) <= 6 || !isHexString(part) {
			return false
		}
	}
	return true
}

func isHexString(s string) bool {
	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
