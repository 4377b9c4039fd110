package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"wedding-invitations/internal/models"
)

// ErrEmptyToken is returned when authentication succeeds without a token
var ErrEmptyToken = errors.New("auth response has no token")

// StatusError reports an unexpected HTTP status from the backend
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Client talks to the record backend's REST API
type Client struct {
	http    *http.Client
	authURL string
	log     zerolog.Logger
}

// NewClient creates a client for the given auth endpoint. A nil httpClient
// uses http.DefaultClient, which has no timeout.
func NewClient(authURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:    httpClient,
		authURL: authURL,
		log:     logger.With().Str("component", "Backend").Logger(),
	}
}

type authRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges admin credentials for a bearer token
func (c *Client) Authenticate(ctx context.Context, identity, password string) (*Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, c.authURL, "", authRequest{Identity: identity, Password: password}, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("authenticate as admin: %w", err)
	}
	if resp.Token == "" {
		return nil, ErrEmptyToken
	}

	c.log.Debug().Str("identity", identity).Msg("Authenticated as admin")
	return &Session{client: c, token: resp.Token}, nil
}

// Session is an authenticated handle; every call carries the bearer token
type Session struct {
	client *Client
	token  string
}

// Token returns the admin bearer token
func (s *Session) Token() string {
	return s.token
}

type listResponse struct {
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	TotalItems int             `json:"totalItems"`
	Items      []models.Record `json:"items"`
}

// ListRecords fetches one page (1-based) of records, sized by the backend default
func (s *Session) ListRecords(ctx context.Context, collectionURL string, page int) ([]models.Record, error) {
	if page < 1 {
		page = 1
	}
	var resp listResponse
	pageURL := collectionURL + "?page=" + strconv.Itoa(page)
	if err := s.client.do(ctx, http.MethodGet, pageURL, s.token, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// DeleteRecord removes one record from a collection
func (s *Session) DeleteRecord(ctx context.Context, collectionURL, id string) error {
	return s.client.do(ctx, http.MethodDelete, collectionURL+"/"+id, s.token, nil, http.StatusNoContent, nil)
}

// CreateRecord posts a new record and returns it with its assigned id
func (s *Session) CreateRecord(ctx context.Context, collectionURL string, payload any) (models.Record, error) {
	var rec models.Record
	if err := s.client.do(ctx, http.MethodPost, collectionURL, s.token, payload, http.StatusOK, &rec); err != nil {
		return models.Record{}, err
	}
	if rec.ID == "" {
		return models.Record{}, fmt.Errorf("%s %s: response has no id", http.MethodPost, collectionURL)
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, method, url, token string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, url, err)
	}

	if resp.StatusCode != wantStatus {
		return &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, url, err)
	}
	return nil
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a StatusError
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
