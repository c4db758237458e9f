package domain

import (
	"net"
	"net/url"
	"strings"
)

// Content-addressed locator schemes.
const (
	SchemeIPFS    = "ipfs"
	SchemeArweave = "ar"
)

// ContentLocator is a scheme-prefixed reference to an uploaded blob, e.g. ipfs://<cid>.
// The hash part is derived from the content, so a locator always resolves to the same bytes.
type ContentLocator string

// NewContentLocator builds a locator from a scheme and a content hash.
func NewContentLocator(scheme, hash string) ContentLocator {
	return ContentLocator(scheme + "://" + hash)
}

// String returns the locator as stored on-chain.
func (l ContentLocator) String() string {
	return string(l)
}

// Scheme returns the part before "://", or "" if absent.
func (l ContentLocator) Scheme() string {
	scheme, _, ok := strings.Cut(string(l), "://")
	if !ok {
		return ""
	}
	return scheme
}

// Hash returns the part after "://", or "" if absent.
func (l ContentLocator) Hash() string {
	_, hash, ok := strings.Cut(string(l), "://")
	if !ok {
		return ""
	}
	return hash
}

// IsContentAddressed reports whether the locator uses a content-addressed scheme
// and does not point at a local or loopback host.
func (l ContentLocator) IsContentAddressed() bool {
	s := string(l)
	if s == "" || strings.Contains(strings.ToLower(s), "localhost") {
		return false
	}

	switch l.Scheme() {
	case SchemeIPFS, SchemeArweave:
	default:
		return false
	}

	hash := l.Hash()
	if hash == "" || strings.ContainsAny(hash, " \t\r\n") {
		return false
	}

	// ipfs://127.0.0.1/... parses with a host; reject loopback and unspecified hosts.
	if u, err := url.Parse(s); err == nil {
		host := u.Hostname()
		if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate()) {
			return false
		}
	}

	return true
}
