package vcsprobe

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

var blockedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"0.0.0.0":   true,
	"::1":       true,
}

var dottedQuad = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

// IsSafeURL reports whether raw may be probed: https only, addressed by hostname,
// never by an IP literal of any kind.
func IsSafeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" || blockedHosts[host] {
		return false
	}
	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return false
	}
	if dottedQuad.MatchString(host) {
		return false
	}
	return true
}

// NormalizeRepoURL strips a trailing slash and then a trailing ".git".
func NormalizeRepoURL(raw string) string {
	return strings.TrimSuffix(strings.TrimSuffix(raw, "/"), ".git")
}

// InfoRefsURL is the Git smart HTTP discovery endpoint of a repository.
func InfoRefsURL(raw string) string {
	return NormalizeRepoURL(raw) + ".git/info/refs?service=git-upload-pack"
}

// isPublicIP rejects addresses a probe must never reach once a hostname resolves.
func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast())
}
