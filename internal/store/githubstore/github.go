// Package githubstore persists blobs as files in a GitHub repository via
// the repository contents API. The blob sha returned by the API is the
// revision token: a PUT carrying a stale sha is rejected by GitHub, which
// is what the ledger's optimistic-concurrency contract relies on.
package githubstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/pgagates/gatesite/internal/store"
)

const defaultBaseURL = "https://api.github.com"

// Store implements store.Store on top of the GitHub contents API.
type Store struct {
	client  *http.Client
	baseURL string
	repo    string // "owner/repo"
	branch  string
	token   string
	logger  *slog.Logger
}

// Option customizes the store.
type Option func(*Store)

// WithBaseURL overrides the API base URL (tests, GitHub Enterprise).
func WithBaseURL(baseURL string) Option {
	return func(s *Store) { s.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) { s.client = client }
}

// New creates a GitHub-backed store committing to the given repo and branch.
func New(log *slog.Logger, repo, token, branch string, opts ...Option) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if strings.Count(repo, "/") != 1 {
		return nil, fmt.Errorf("repo must be owner/repo, got %q", repo)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if branch == "" {
		branch = "main"
	}
	s := &Store{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
		repo:    repo,
		branch:  branch,
		token:   token,
		logger:  log.With(slog.String("store", "github"), slog.String("repo", repo)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type contentResponse struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Get fetches a file and its blob sha.
func (s *Store) Get(ctx context.Context, filePath string) (store.Object, error) {
	body, status, err := s.do(ctx, http.MethodGet, filePath+"?ref="+url.QueryEscape(s.branch), nil)
	if err != nil {
		return store.Object{}, err
	}
	if status == http.StatusNotFound {
		return store.Object{}, store.ErrNotFound
	}
	if status != http.StatusOK {
		return store.Object{}, fmt.Errorf("github get %s: status %d: %s", filePath, status, truncate(body))
	}
	var resp contentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return store.Object{}, fmt.Errorf("github get %s: decode: %w", filePath, err)
	}
	// The API wraps base64 content with newlines.
	raw, err := base64.StdEncoding.DecodeString(strings.Map(dropSpace, resp.Content))
	if err != nil {
		return store.Object{}, fmt.Errorf("github get %s: decode content: %w", filePath, err)
	}
	return store.Object{Content: raw, Revision: resp.SHA}, nil
}

// Put commits content at filePath. expectedRevision is the blob sha from a
// prior Get; GitHub rejects the write when it is stale (409/422), which
// surfaces as store.ErrRevisionMismatch.
func (s *Store) Put(ctx context.Context, filePath string, content []byte, expectedRevision string) (string, error) {
	payload, err := json.Marshal(putRequest{
		Message: commitMessage(filePath),
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  s.branch,
		SHA:     expectedRevision,
	})
	if err != nil {
		return "", fmt.Errorf("github put %s: encode: %w", filePath, err)
	}
	body, status, err := s.do(ctx, http.MethodPut, filePath, payload)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return "", fmt.Errorf("%w: github put %s: status %d", store.ErrRevisionMismatch, filePath, status)
	default:
		return "", fmt.Errorf("github put %s: status %d: %s", filePath, status, truncate(body))
	}
	var resp putResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("github put %s: decode: %w", filePath, err)
	}
	s.logger.Info("committed",
		slog.String("path", filePath),
		slog.String("commit", resp.Commit.SHA))
	return resp.Content.SHA, nil
}

// List returns the file paths directly under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	body, status, err := s.do(ctx, http.MethodGet, prefix+"?ref="+url.QueryEscape(s.branch), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, store.ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("github list %s: status %d: %s", prefix, status, truncate(body))
	}
	var entries []contentResponse
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("github list %s: decode: %w", prefix, err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type == "file" {
			paths = append(paths, entry.Path)
		}
	}
	return paths, nil
}

func (s *Store) do(ctx context.Context, method, filePath string, payload []byte) ([]byte, int, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", s.baseURL, s.repo, filePath)
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, fmt.Errorf("github %s %s: %w", method, filePath, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("github %s %s: %w", method, filePath, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("github %s %s: read response: %w", method, filePath, err)
	}
	return raw, resp.StatusCode, nil
}

// commitMessage mirrors the messages the gallery tooling expects in the
// content repo's history.
func commitMessage(filePath string) string {
	if path.Base(filePath) == "metadata.json" {
		return "chore(metadata): update gallery index"
	}
	return fmt.Sprintf("feat(gallery): add %s", path.Base(filePath))
}

func dropSpace(r rune) rune {
	switch r {
	case '\n', '\r', ' ', '\t':
		return -1
	}
	return r
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
