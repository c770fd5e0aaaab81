// Package apiclient is the console's HTTP client. Every request goes through
// Call, which resolves a symbolic route key, attaches the session token and
// normalizes the response into an Envelope.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/nurpe/erp-console/internal/model"
	"github.com/nurpe/erp-console/internal/routes"
	"github.com/nurpe/erp-console/internal/session"
)

const defaultTimeout = 30 * time.Second

type SessionStore interface {
	Save(profile session.Profile) error
	Load() (*session.Profile, bool)
	Clear() error
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Session SessionStore
	// OnSessionExpired runs after the cached session has been cleared because
	// the API answered SESSION_EXPIRED.
	OnSessionExpired func()
	Logger           *zerolog.Logger
}

type Client struct {
	http      *resty.Client
	session   SessionStore
	onExpired func()
	log       zerolog.Logger
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "apiclient").Logger()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{
		http:      restyClient,
		session:   opts.Session,
		onExpired: opts.OnSessionExpired,
		log:       log,
	}
}

// Upload is a multipart file part.
type Upload struct {
	Field   string
	Name    string
	Content []byte
}

type CallOptions struct {
	Params map[string]string
	Query  map[string]string
	Body   any
	File   *Upload
	// Form carries extra multipart fields sent along with File.
	Form map[string]string
}

// Call performs the request named by key. It never returns a Go error:
// resolution and transport failures come back as unsuccessful envelopes.
// Nothing is retried.
func (c *Client) Call(ctx context.Context, key string, opts CallOptions) Envelope {
	method, path, err := routes.Resolve(key, opts.Params)
	if err != nil {
		return failure(0, CodeUnknownRoute, err.Error())
	}

	req := c.http.R().SetContext(ctx)
	if c.session != nil {
		if profile, ok := c.session.Load(); ok && profile.Token != "" {
			req.SetAuthToken(profile.Token)
		}
	}
	if len(opts.Query) > 0 {
		req.SetQueryParams(opts.Query)
	}
	switch {
	case opts.File != nil:
		field := opts.File.Field
		if field == "" {
			field = "file"
		}
		req.SetFileReader(field, opts.File.Name, bytes.NewReader(opts.File.Content))
		if len(opts.Form) > 0 {
			req.SetFormData(opts.Form)
		}
	case opts.Body != nil:
		req.SetHeader("Content-Type", "application/json").SetBody(opts.Body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("request failed")
		return failure(0, CodeNetworkError, err.Error())
	}

	env := decodeResponse(resp.StatusCode(), resp.Header(), resp.Body())
	c.log.Debug().Str("key", key).Str("method", method).Str("path", path).Int("status", env.StatusCode).Msg("call")
	c.intercept(env)
	return env
}

func (c *Client) intercept(env Envelope) {
	if env.Error == nil || env.Error.Code != CodeSessionExpired {
		return
	}
	if c.session != nil {
		if err := c.session.Clear(); err != nil {
			c.log.Warn().Err(err).Msg("clear expired session")
		}
	}
	if c.onExpired != nil {
		c.onExpired()
	}
}

func decodeResponse(status int, header http.Header, body []byte) Envelope {
	contentType := header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType != "application/json" {
		if status >= http.StatusBadRequest {
			return failure(status, CodeBadResponse, strings.TrimSpace(string(body)))
		}
		return Envelope{
			StatusCode:  status,
			Success:     true,
			Raw:         body,
			ContentType: contentType,
			FileName:    attachmentName(header.Get("Content-Disposition")),
		}
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return failure(status, CodeBadResponse, err.Error())
	}
	env.StatusCode = status
	if env.Error != nil {
		env.Error.StatusCode = status
		env.Success = false
	}
	if !env.Success && env.Error == nil {
		env.Error = &APIError{StatusCode: status, Code: CodeBadResponse, Message: http.StatusText(status)}
	}
	return env
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// LoginResult is the auth.login payload.
type LoginResult struct {
	Token       string            `json:"token"`
	ExpiresAt   time.Time         `json:"expires_at"`
	User        model.UserSummary `json:"user"`
	Permissions []string          `json:"permissions"`
}

// Login authenticates and caches the resulting profile in the session store.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Profile, error) {
	env := c.Call(ctx, "auth.login", CallOptions{Body: map[string]string{
		"username": username,
		"password": password,
	}})
	var result LoginResult
	if err := env.Decode(&result); err != nil {
		return nil, err
	}
	profile := session.Profile{
		User:        result.User,
		Token:       result.Token,
		ExpiresAt:   result.ExpiresAt,
		Permissions: result.Permissions,
	}
	if c.session != nil {
		if err := c.session.Save(profile); err != nil {
			return nil, err
		}
	}
	return &profile, nil
}

// Logout revokes the server session and always clears the local one. The
// returned error reports only the server side.
func (c *Client) Logout(ctx context.Context) error {
	var callErr error
	if c.session != nil {
		if _, ok := c.session.Load(); ok {
			callErr = c.Call(ctx, "auth.logout", CallOptions{}).Err()
		}
		if err := c.session.Clear(); err != nil {
			return errors.Join(callErr, err)
		}
	}
	return callErr
}
