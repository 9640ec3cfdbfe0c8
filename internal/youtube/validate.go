package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Reference is a caller-supplied video reference and the id extracted from it.
type Reference struct {
	Raw string
	ID  string
}

// Validate extracts the 11-character video id from a watch URL, short link,
// embed URL, or bare id. It performs no I/O.
func Validate(raw string) (Reference, bool) {
	ref := Reference{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return ref, false
	}
	if videoIDPattern.MatchString(s) {
		ref.ID = s
		return ref, true
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ref, false
	}

	id, ok := idFromURL(u)
	if !ok || !videoIDPattern.MatchString(id) {
		return ref, false
	}
	ref.ID = id
	return ref, true
}

func idFromURL(u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())
	path := strings.TrimSuffix(u.Path, "/")

	switch host {
	case "youtu.be", "www.youtu.be":
		id := strings.TrimPrefix(path, "/")
		return id, id != "" && !strings.Contains(id, "/")
	case "youtube.com", "www.youtube.com", "m.youtube.com":
		switch {
		case path == "/watch":
			return u.Query().Get("v"), true
		case strings.HasPrefix(path, "/embed/"):
			id := strings.TrimPrefix(path, "/embed/")
			return id, !strings.Contains(id, "/")
		}
	}
	return "", false
}
