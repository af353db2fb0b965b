package dbgp

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var driveLetter = regexp.MustCompile(`^/[A-Za-z]:`)

// URIToPath converts a file:// URI from the debuggee to a local path.
// Non-file URIs are returned unchanged.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	p := u.Path
	if driveLetter.MatchString(p) {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// PathToURI converts a local path to the file:// form DBGp expects.
func PathToURI(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
