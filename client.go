package dulceria

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// APIClient performs the HTTP calls against the remote catalog API. Every
// call issues one request; non-2xx responses are mapped into the error
// taxonomy at this boundary and never leak raw status codes to callers.
//
// Write operations attach the currently stored token as a bearer credential
// through the read-only TokenSource. Catalog reads are intentionally
// unauthenticated: the upstream service exposes the public menu without
// credentials.
type APIClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  Logger
}

// LoginResult is the successful login response.
type LoginResult struct {
	IDToken string `json:"idToken"`
}

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

type APIClientOption func(*APIClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(client *http.Client) APIClientOption {
	return func(c *APIClient) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTokenSource wires the read-only token accessor used for bearer auth.
func WithTokenSource(tokens TokenSource) APIClientOption {
	return func(c *APIClient) {
		c.tokens = tokens
	}
}

// WithAPILogger overrides the logger.
func WithAPILogger(logger Logger) APIClientOption {
	return func(c *APIClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAPIClient returns a client for the API at cfg.GetBaseURL().
func NewAPIClient(cfg Config, opts ...APIClientOption) *APIClient {
	c := &APIClient{
		baseURL: cfg.GetBaseURL(),
		http:    &http.Client{Timeout: cfg.GetHTTPTimeout()},
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Login exchanges credentials for a token. Unlike the generic endpoints, a
// 401 here means the credentials were rejected, not that a session expired,
// so it maps to ErrInvalidCredentials and never forces a logout.
func (c *APIClient) Login(ctx context.Context, cred Credential) (*LoginResult, error) {
	resp, err := c.send(ctx, http.MethodPost, "/login", cred, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readErrorBody(resp.Body)

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrInvalidCredentials
		}

		msg := body.Detail
		if msg == "" {
			msg = body.Message
		}
		if msg == "" {
			msg = MsgLoginFailed
		}

		return nil, goerrors.New(msg, goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized).
			WithMetadata(map[string]any{"status": resp.StatusCode})
	}

	result := &LoginResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to parse login response")
	}

	return result, nil
}

// RegisterUser creates a new account. It never establishes a session.
func (c *APIClient) RegisterUser(ctx context.Context, payload RegisterUserPayload) (*UserRecord, error) {
	user := &UserRecord{}
	if err := c.do(ctx, http.MethodPost, "/users", payload, false, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListCatalogTypes fetches every catalog type. Requires a session.
func (c *APIClient) ListCatalogTypes(ctx context.Context) ([]CatalogType, error) {
	var types []CatalogType
	if err := c.do(ctx, http.MethodGet, "/catalogtypes", nil, true, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// GetCatalogType fetches a single catalog type by id.
func (c *APIClient) GetCatalogType(ctx context.Context, id int) (*CatalogType, error) {
	catalogType := &CatalogType{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/catalogtypes/%d", id), nil, true, catalogType); err != nil {
		return nil, err
	}
	return catalogType, nil
}

// CreateCatalogType creates a catalog type.
func (c *APIClient) CreateCatalogType(ctx context.Context, payload CatalogTypePayload) (*CatalogType, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	catalogType := &CatalogType{}
	if err := c.do(ctx, http.MethodPost, "/catalogtypes", payload, true, catalogType); err != nil {
		return nil, err
	}
	return catalogType, nil
}

// UpdateCatalogType updates a catalog type.
func (c *APIClient) UpdateCatalogType(ctx context.Context, id int, payload CatalogTypePayload) (*CatalogType, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	catalogType := &CatalogType{}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/catalogtypes/%d", id), payload, true, catalogType); err != nil {
		return nil, err
	}
	return catalogType, nil
}

// DeactivateCatalogType removes a catalog type. The server decides between
// deletion and deactivation based on product references.
func (c *APIClient) DeactivateCatalogType(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/catalogtypes/%d", id), nil, true, nil)
}

// ListCatalogs fetches the product list. Intentionally anonymous: the
// catalog read endpoint is the public menu.
func (c *APIClient) ListCatalogs(ctx context.Context) ([]Catalog, error) {
	var result struct {
		Catalogs []Catalog `json:"catalogs"`
	}
	if err := c.do(ctx, http.MethodGet, "/catalogs", nil, false, &result); err != nil {
		return nil, err
	}
	return result.Catalogs, nil
}

// GetCatalog fetches a single product by id. Anonymous, like ListCatalogs.
func (c *APIClient) GetCatalog(ctx context.Context, id int) (*Catalog, error) {
	catalog := &Catalog{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/catalogs/%d", id), nil, false, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// CreateCatalog creates a product.
func (c *APIClient) CreateCatalog(ctx context.Context, payload CatalogPayload) (*Catalog, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	catalog := &Catalog{}
	if err := c.do(ctx, http.MethodPost, "/catalogs", payload, true, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// UpdateCatalog updates a product.
func (c *APIClient) UpdateCatalog(ctx context.Context, id int, payload CatalogPayload) (*Catalog, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	catalog := &Catalog{}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/catalogs/%d", id), payload, true, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// DeactivateCatalog removes a product.
func (c *APIClient) DeactivateCatalog(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/catalogs/%d", id), nil, true, nil)
}

// do issues one request and decodes a 2xx response into out. Non-2xx
// responses are mapped through mapStatusError.
func (c *APIClient) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	resp, err := c.send(ctx, method, path, body, authed)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody := readErrorBody(resp.Body)
		mapped := mapStatusError(resp.StatusCode, http.StatusText(resp.StatusCode), errBody.Message)
		c.logger.Debug("%s %s failed: %v", method, path, mapped)
		return mapped
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to parse response")
	}

	return nil
}

func (c *APIClient) send(ctx context.Context, method, path string, body any, authed bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if authed && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to read stored token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "request failed").
			WithMetadata(map[string]any{"method": method, "path": path})
	}

	return resp, nil
}

func readErrorBody(r io.Reader) errorBody {
	body := errorBody{}
	// Parse failures leave an empty body; the caller falls back to the
	// canned message for the status code.
	_ = json.NewDecoder(r).Decode(&body)
	return body
}
