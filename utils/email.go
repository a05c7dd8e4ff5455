package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var disposableDomains = map[string]struct{}{}

// SetDisposableDomains installs the blocklist of throwaway email providers.
// Called once at boot from config.
func SetDisposableDomains(domains []string) {
	m := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		m[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	disposableDomains = m
}

// ValidEmail reports whether the address is syntactically plausible.
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsDisposableEmail reports whether the address belongs to a blocked
// throwaway provider.
func IsDisposableEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	_, blocked := disposableDomains[domain]
	return blocked
}

// ExtractNameFromEmail extracts the username before '@'
func ExtractNameFromEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	return email[:at]
}
