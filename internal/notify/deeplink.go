package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Deep link grammar: scheme://resource[/id][?query]. The app registers a
// single scheme; resources name client screens.
const (
	ResourceOrder       = "order"
	ResourceOrderStatus = "orderStatus"
	ResourceOrders      = "orders"
)

var (
	// ErrBadDeepLink is returned for strings that do not match the grammar.
	ErrBadDeepLink = errors.New("malformed deep link")
	// ErrUnknownResource is returned for resources the app cannot route.
	ErrUnknownResource = errors.New("unknown deep link resource")
)

// Link is a parsed deep link.
type Link struct {
	Scheme   string
	Resource string
	ID       string
	Query    url.Values
}

// ParseDeepLink parses and validates a deep link against the grammar. The
// order and orderStatus resources require an id path segment; orders takes
// none.
func ParseDeepLink(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Link{}, ErrBadDeepLink
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrBadDeepLink, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Link{}, ErrBadDeepLink
	}

	link := Link{
		Scheme:   u.Scheme,
		Resource: u.Host,
		Query:    u.Query(),
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 0 && segments[0] != "" {
		link.ID = segments[0]
	}
	if len(segments) > 1 && segments[1] != "" {
		return Link{}, fmt.Errorf("%w: extra path segments", ErrBadDeepLink)
	}

	switch link.Resource {
	case ResourceOrder, ResourceOrderStatus:
		if link.ID == "" {
			return Link{}, fmt.Errorf("%w: %s requires an id", ErrBadDeepLink, link.Resource)
		}
	case ResourceOrders:
		if link.ID != "" {
			return Link{}, fmt.Errorf("%w: orders takes no id segment", ErrBadDeepLink)
		}
	default:
		return Link{}, fmt.Errorf("%w: %q", ErrUnknownResource, link.Resource)
	}
	return link, nil
}
