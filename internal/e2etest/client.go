package e2etest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/descope/virtualwebauthn"
	"github.com/justinas/nosurf"
	"github.com/simcoach/simcoach/internal/errors"
)

// Client is a passkey-capable HTTP client for exercising a running server from
// the outside, for example in deployment smoke tests.
type Client struct {
	client        *http.Client
	url           string
	rp            virtualwebauthn.RelyingParty
	authenticator virtualwebauthn.Authenticator
}

// NewClient creates a client against the server at url. rpID and rpOrigin must
// match the WebAuthn relying-party configuration of the server.
func NewClient(url, rpID, rpOrigin string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, errors.Wrap(err, "create unsafe cookie jar")
	}
	return &Client{
		client:        &http.Client{Jar: jar},
		url:           url,
		rp:            virtualwebauthn.RelyingParty{Name: "SimCoach", ID: rpID, Origin: rpOrigin},
		authenticator: virtualwebauthn.NewAuthenticator(),
	}, nil
}

// WaitForReady polls the endpoint until it returns HTTP 200 or the 1-second
// timeout passes.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	deadline := time.Now().Add(time.Second)
	for {
		resp, err := c.do(ctx, http.MethodGet, urlPath, "", nil)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Now().After(deadline) {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // poll interval
		}
	}
}

func (c *Client) do(ctx context.Context, method, urlPath, csrfToken string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if body != nil || method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrfToken != "" {
		req.Header.Set(nosurf.HeaderName, csrfToken)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// doOK performs a request, requires HTTP 200, and returns the body.
func (c *Client) doOK(ctx context.Context, method, urlPath, csrfToken string, body io.Reader) ([]byte, error) {
	resp, err := c.do(ctx, method, urlPath, csrfToken, body)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status code",
			slog.Int("status", resp.StatusCode), slog.String("path", urlPath))
	}
	return data, nil
}

// GetJSON fetches urlPath and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, urlPath string, v any) error {
	data, err := c.doOK(ctx, http.MethodGet, urlPath, "", nil)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "decode response", slog.String("path", urlPath))
	}
	return nil
}

// GetDoc fetches urlPath and parses it as an HTML document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	data, err := c.doOK(ctx, http.MethodGet, urlPath, "", nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, errors.Wrap(err, "parse document")
	}
	return doc, nil
}

func (c *Client) csrfToken(ctx context.Context, formActionURLPath string) (string, error) {
	doc, err := c.GetDoc(ctx, "/")
	if err != nil {
		return "", errors.Wrap(err, "get front page")
	}
	formSelector := fmt.Sprintf("form[action='%s']", formActionURLPath)
	csrfToken, ok := doc.Find(formSelector).Find("input[name=csrf_token]").Attr("value")
	if !ok {
		return "", errors.New("csrf_token not found in form", slog.String("form", formSelector))
	}
	return csrfToken, nil
}

// Register registers a fresh passkey with the server, which also signs the
// client in.
func (c *Client) Register(ctx context.Context) error {
	csrfToken, err := c.csrfToken(ctx, "/api/registration/start")
	if err != nil {
		return err
	}
	data, err := c.doOK(ctx, http.MethodPost, "/api/registration/start", csrfToken, nil)
	if err != nil {
		return errors.Wrap(err, "start registration")
	}
	attOpts, err := virtualwebauthn.ParseAttestationOptions(string(data))
	if err != nil {
		return errors.Wrap(err, "parse attestation options")
	}
	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	attestationResponse := virtualwebauthn.CreateAttestationResponse(c.rp, c.authenticator, credential, *attOpts)
	if _, err = c.doOK(ctx, http.MethodPost, "/api/registration/finish", csrfToken,
		strings.NewReader(attestationResponse)); err != nil {
		return errors.Wrap(err, "finish registration")
	}
	c.authenticator.AddCredential(credential)
	// Needed for making passkey login work.
	c.authenticator.Options.UserHandle = []byte(attOpts.UserID)
	return nil
}

// Login signs in with the passkey registered earlier on this client.
func (c *Client) Login(ctx context.Context) error {
	csrfToken, err := c.csrfToken(ctx, "/api/login/start")
	if err != nil {
		return err
	}
	data, err := c.doOK(ctx, http.MethodPost, "/api/login/start", csrfToken, nil)
	if err != nil {
		return errors.Wrap(err, "start login")
	}
	asOpts, err := virtualwebauthn.ParseAssertionOptions(string(data))
	if err != nil {
		return errors.Wrap(err, "parse assertion options")
	}
	credential := c.authenticator.Credentials[0]
	assertionResponse := virtualwebauthn.CreateAssertionResponse(c.rp, c.authenticator, credential, *asOpts)
	if _, err = c.doOK(ctx, http.MethodPost, "/api/login/finish", csrfToken,
		strings.NewReader(assertionResponse)); err != nil {
		return errors.Wrap(err, "finish login")
	}
	return nil
}

// Logout submits the logout form on the front page.
func (c *Client) Logout(ctx context.Context) error {
	csrfToken, err := c.csrfToken(ctx, "/api/logout")
	if err != nil {
		return err
	}
	formData := neturl.Values{}
	formData.Add("csrf_token", csrfToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api/logout",
		strings.NewReader(formData.Encode()))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	if err = resp.Body.Close(); err != nil {
		return errors.Wrap(err, "close response body")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	return nil
}
