package telegram

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cuongbtq/jobfeed/internal/domain"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

// ParseChannelRef extracts the public username from a channel reference.
// Accepted forms are https://t.me/name, t.me/s/name, @name and name.
// Private invite links cannot be resolved by username and are rejected.
func ParseChannelRef(ref string) (string, error) {
	s := strings.TrimSpace(ref)

	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "www.")

	for _, host := range []string{"t.me/", "telegram.me/", "telegram.dog/"} {
		if strings.HasPrefix(s, host) {
			s = strings.TrimPrefix(s, host)
			s = strings.TrimPrefix(s, "s/")
			if i := strings.IndexAny(s, "/?#"); i >= 0 {
				s = s[:i]
			}
			break
		}
	}

	s = strings.TrimPrefix(s, "@")

	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "joinchat") {
		return "", fmt.Errorf("%w: invite links are not supported: %s", domain.ErrInvalidChannelRef, ref)
	}
	if !usernamePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidChannelRef, ref)
	}

	return s, nil
}
