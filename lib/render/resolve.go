package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/feedshot/feedshot/lib/utils"
)

// ErrNoDebuggerURL is returned when the remote browser doesn't report its websocket url
var ErrNoDebuggerURL = errors.New("remote browser has no webSocketDebuggerUrl")

var regPort = regexp.MustCompile(`^\:?(\d+)$`)
var regProtocol = regexp.MustCompile(`^\w+://`)

// ResolveURL by requesting the "/json/version" endpoint of u.
// The format of u can be "9222", ":9222", "host:9222", "ws://host:9222", "wss://host:9222",
// "https://host:9222" "http://host:9222". The return string will look like:
// "ws://host:9222/devtools/browser/4371405f-84df-4ad6-9e0f-eab81f7521cc"
func ResolveURL(ctx context.Context, u string) (string, error) {
	u = strings.TrimSpace(u)
	u = regPort.ReplaceAllString(u, "127.0.0.1:$1")

	if !regProtocol.MatchString(u) {
		u = "http://" + u
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}

	switch parsed.Scheme {
	case "ws":
		parsed.Scheme = "http"
	case "wss":
		parsed.Scheme = "https"
	}
	parsed.Path = "/json/version"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", err
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve %s: unexpected status %d", parsed, res.StatusCode)
	}

	ws, err := utils.ReadJSONPathAsString(res.Body, "webSocketDebuggerUrl")
	if err != nil {
		return "", err
	}
	if ws == "" {
		return "", fmt.Errorf("%w: %s", ErrNoDebuggerURL, parsed)
	}
	return ws, nil
}
