package service

import (
	"strings"
	"unicode"
)

const (
	maxLabelLength     = 63
	tenantFragmentSize = 8
	defaultLabelName   = "workspace"
)

// NormalizeSubdomain turns a workspace name into a DNS label and appends
// a short tenant id fragment so identical names of different tenants do
// not collide. The result is deterministic for a given input.
func NormalizeSubdomain(workspaceName, tenantID string) string {
	name := slugify(workspaceName)
	fragment := tenantFragment(tenantID)

	maxName := maxLabelLength
	if fragment != "" {
		maxName -= len(fragment) + 1
	}
	if len(name) > maxName {
		name = strings.TrimRight(name[:maxName], "-")
	}
	if name == "" {
		name = defaultLabelName
	}
	if fragment == "" {
		return name
	}
	return name + "-" + fragment
}

// slugify lower-cases s, turns whitespace runs into '-', drops anything
// outside [a-z0-9-], then collapses and trims hyphens.
func slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || unicode.IsSpace(r):
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func tenantFragment(tenantID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(tenantID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == tenantFragmentSize {
				break
			}
		}
	}
	return b.String()
}
