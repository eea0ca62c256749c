package client

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

const maxHostLength = 253

// ValidHost accepts an IPv4 literal, an IPv6 literal, or a hostname made of
// letters, digits, dots and hyphens. No dot-separated label may be empty or
// start or end with a hyphen, which also rules out a leading or trailing dot.
func ValidHost(host string) bool {
	if ip := net.ParseIP(host); ip != nil && !strings.Contains(host, "%") {
		return true
	}
	if host == "" || len(host) > maxHostLength {
		return false
	}
	for _, r := range host {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '-' {
			return false
		}
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return true
}

// ServerURL is the websocket endpoint of a coordinator.
func ServerURL(host string, port int) string {
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(host, strconv.Itoa(port)), Path: "/"}
	return u.String()
}
