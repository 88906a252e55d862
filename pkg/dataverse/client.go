package dataverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
)

const apiKeyHeader = "X-Dataverse-key"

// StatusError is returned for every non-2xx response of the installation.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, statusCode int) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == statusCode
	}
	return false
}

// envelope is the common answer of the native api.
type envelope struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// message returns the message of the answer, which may be a string or an object.
func (e *envelope) message() string {
	if len(e.Message) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(e.Message, &str); err == nil {
		return str
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Message, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(e.Message)
}

// Response is a decoded answer of a successful call.
type Response struct {
	StatusCode int
	Message    string
	Data       json.RawMessage
}

// Client talks to the native api of a Dataverse installation.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zLogger.ZLogger
}

func NewClient(installationURL, apiKey string, timeout time.Duration, logger zLogger.ZLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(installationURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) apiURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func pidQuery(pid string) url.Values {
	return url.Values{"persistentId": []string{pid}}
}

// do sends a request to the native api and decodes the answer envelope.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*Response, error) {
	u := c.apiURL(path, query)
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create request %s %s", method, u)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.logger.Debug().Msgf("%s %s", method, u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot send request %s %s", method, u)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read response of %s %s", method, u)
	}
	env := &envelope{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, env); err != nil && resp.StatusCode/100 == 2 {
			return nil, errors.Wrapf(err, "cannot decode response of %s %s", method, u)
		}
	}
	if resp.StatusCode/100 != 2 {
		msg := env.message()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, errors.WithStack(&StatusError{
			Method:     method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Message:    msg,
		})
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Message:    env.message(),
		Data:       env.Data,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body []byte, result any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	resp, err := c.do(ctx, method, path, query, "application/json", reader)
	if err != nil {
		return nil, err
	}
	if result != nil {
		if len(resp.Data) == 0 {
			return nil, errors.Errorf("%s %s: no data in response", method, path)
		}
		if err := json.Unmarshal(resp.Data, result); err != nil {
			return nil, errors.Wrapf(err, "cannot decode data of %s %s", method, path)
		}
	}
	return resp, nil
}
