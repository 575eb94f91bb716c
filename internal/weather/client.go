package weather

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second

	owmDefaultURL     = "https://api.openweathermap.org/data/2.5/weather"
	owmIconDefaultURL = "https://openweathermap.org/img/wn/%s@2x.png"
)

// Client fetches current conditions and condition icons from OpenWeatherMap.
// It holds no state besides its configuration and is safe for concurrent use.
type Client struct {
	apiKey       string
	baseURL      string
	iconTemplate string
	client       *http.Client
}

// NewClient constructs a Client against the production endpoints. A zero
// timeout means ten seconds.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      owmDefaultURL,
		iconTemplate: owmIconDefaultURL,
		client:       &http.Client{Timeout: timeout},
	}
}

// NewClientWithURLs constructs a Client pointing at custom endpoints (for
// tests). iconTemplate must contain a single %s for the icon id.
func NewClientWithURLs(baseURL, iconTemplate, apiKey string) *Client {
	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		iconTemplate: iconTemplate,
		client:       &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// FetchCurrent retrieves current conditions for q. Every failure is a *Error.
func (c *Client) FetchCurrent(ctx context.Context, q Query) (*Result, error) {
	endpoint, err := c.currentURL(q)
	if err != nil {
		return nil, err
	}

	status, body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	res, err := Decode(body)
	if err != nil {
		if status != http.StatusOK {
			return nil, newError(KindDecodeFailed, fmt.Errorf("provider returned status %d: %w", status, errors.Unwrap(err)))
		}
		return nil, err
	}
	return res, nil
}

// FetchIcon downloads the PNG for iconID. The bytes are returned only if
// they decode as an image.
func (c *Client) FetchIcon(ctx context.Context, iconID string) ([]byte, error) {
	if iconID == "" {
		return nil, newError(KindInvalidURL, errors.New("empty icon id"))
	}
	endpoint := fmt.Sprintf(c.iconTemplate, iconID)
	if _, err := url.ParseRequestURI(endpoint); err != nil || !validQueryText(iconID) {
		return nil, newError(KindInvalidURL, fmt.Errorf("icon url for %q is invalid", iconID))
	}

	_, body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(body)); err != nil {
		return nil, newError(KindDecodeFailed, fmt.Errorf("decoding icon %s: %w", iconID, err))
	}
	return body, nil
}

// currentURL places the city text verbatim, so anything that would need
// escaping makes the URL invalid.
func (c *Client) currentURL(q Query) (string, error) {
	var params string
	if coords, ok := q.Coordinates(); ok {
		params = "lat=" + formatCoord(coords.Lat) + "&lon=" + formatCoord(coords.Lon)
	} else if city, ok := q.City(); ok {
		if city == "" {
			return "", newError(KindInvalidURL, errors.New("empty city name"))
		}
		if !validQueryText(city) {
			return "", newError(KindInvalidURL, fmt.Errorf("city name %q is not a valid query component", city))
		}
		params = "q=" + city
	} else {
		return "", newError(KindInvalidURL, errors.New("query has neither city nor coordinates"))
	}

	endpoint := c.baseURL + "?" + params + "&appid=" + c.apiKey + "&units=imperial"
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return "", newError(KindInvalidURL, fmt.Errorf("parsing %s: %w", c.baseURL, err))
	}
	return endpoint, nil
}

// get performs a GET and returns the status code and the full body.
func (c *Client) get(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, newError(KindInvalidURL, fmt.Errorf("creating request: %w", err))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return 0, nil, newError(KindNetworkFailed, fmt.Errorf("GET %s: %w", redact(req.URL), err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, newError(KindSerializationFailed, fmt.Errorf("reading response body: %w", err))
	}
	if len(body) == 0 {
		return resp.StatusCode, nil, newError(KindSerializationFailed, fmt.Errorf("empty response body (status %d)", resp.StatusCode))
	}

	return resp.StatusCode, body, nil
}

// redact drops the query so the API key never reaches the logs.
func redact(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.Path
}

// validQueryText reports whether s consists only of characters allowed
// unescaped in a URL query, plus well-formed percent escapes.
func validQueryText(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		case strings.IndexByte("-._~!$&'()*+,;=:@/?", ch) >= 0:
		case ch == '%':
			if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
				return false
			}
			i += 2
		default:
			return false
		}
	}
	return true
}

func isHex(ch byte) bool {
	return '0' <= ch && ch <= '9' || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
