package session

import (
	"fmt"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent header into a short display label
// ("Chrome on Linux") recorded on the session for proctor review.
func ParseUserAgent(ua string) string {
	if ua == "" {
		return "Unknown Device"
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	os := parsed.OS()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return fmt.Sprintf("%s on %s", browser, os)
}
