package accounts

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders a login device display name like "Chrome on Linux"
// from a raw User-Agent header.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}
