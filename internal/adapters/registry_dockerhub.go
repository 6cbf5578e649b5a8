package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"hubclean/internal/ports"
	"hubclean/internal/shared"
	"hubclean/internal/types"
)

const defaultHubEndpoint = "https://hub.docker.com/v2"
const defaultHubPageSize = 100
const defaultHubTimeout = 30 * time.Second
const defaultHubRetries = 3
const defaultHubRetryDelay = 200 * time.Millisecond
const maxHubRetryDelay = 2 * time.Second

type DockerHubConfig struct {
	Endpoint     string
	Username     string
	Token        string
	TimeoutSec   int
	Retries      int
	RetryDelayMs int
}

// DockerHubAdapter talks to the Docker Hub v2 API: JWT login, paginated
// repository and tag listings, and per-tag deletion.
type DockerHubAdapter struct {
	endpoint   string
	username   string
	token      string
	client     *http.Client
	retries    int
	retryDelay time.Duration

	mu  sync.Mutex
	jwt string
}

func NewDockerHubAdapter(cfg DockerHubConfig) *DockerHubAdapter {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultHubEndpoint
	}
	return &DockerHubAdapter{
		endpoint:   endpoint,
		username:   strings.TrimSpace(cfg.Username),
		token:      cfg.Token,
		client:     &http.Client{Timeout: normalizeHubTimeout(cfg.TimeoutSec)},
		retries:    normalizeHubRetries(cfg.Retries),
		retryDelay: normalizeHubRetryDelay(cfg.RetryDelayMs),
	}
}

func (a *DockerHubAdapter) ListRepositories(ctx context.Context, namespace string) ([]string, error) {
	if strings.TrimSpace(namespace) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("namespace is empty")
	}
	url := fmt.Sprintf("%s/repositories/%s/?page_size=%d", a.endpoint, namespace, defaultHubPageSize)
	var names []string
	for url != "" {
		var page struct {
			Next    string `json:"next"`
			Results []struct {
				Name string `json:"name"`
			} `json:"results"`
		}
		if err := a.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		for _, result := range page.Results {
			names = append(names, result.Name)
		}
		url = page.Next
	}
	return names, nil
}

func (a *DockerHubAdapter) ListTags(ctx context.Context, namespace string, repository string) ([]types.Tag, error) {
	if strings.TrimSpace(repository) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repository is empty")
	}
	url := fmt.Sprintf("%s/repositories/%s/%s/tags/?page_size=%d", a.endpoint, namespace, repository, defaultHubPageSize)
	var tags []types.Tag
	for url != "" {
		var page struct {
			Next    string `json:"next"`
			Results []struct {
				Name        string `json:"name"`
				LastUpdated string `json:"last_updated"`
			} `json:"results"`
		}
		if err := a.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		for _, result := range page.Results {
			tags = append(tags, types.Tag{
				Name:        result.Name,
				LastUpdated: parseTimeFlexible(result.LastUpdated),
			})
		}
		url = page.Next
	}
	return tags, nil
}

func (a *DockerHubAdapter) DeleteTag(ctx context.Context, namespace string, repository string, tag string) error {
	url := fmt.Sprintf("%s/repositories/%s/%s/tags/%s/", a.endpoint, namespace, repository, tag)
	resp, err := a.doWithRetry(ctx, http.MethodDelete, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return hubStatusError(resp, "tag delete rejected")
}

// login authenticates once and caches the JWT for the lifetime of the
// adapter; Docker Hub tokens comfortably outlive a single run.
func (a *DockerHubAdapter) login(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.jwt != "" {
		return a.jwt, nil
	}
	if a.username == "" || a.token == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("docker hub username and token are required")
	}
	payload, err := json.Marshal(map[string]string{
		"username": a.username,
		"password": a.token,
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode login payload").
			WithCause(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/users/login", bytes.NewReader(payload))
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create login request").
			WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("docker hub login failed").
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", hubStatusError(resp, "docker hub login rejected")
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Token == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("docker hub login returned no token").
			WithCause(err)
	}
	a.jwt = body.Token
	return a.jwt, nil
}

func (a *DockerHubAdapter) getJSON(ctx context.Context, url string, out any) error {
	resp, err := a.doWithRetry(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return hubStatusError(resp, "docker hub request rejected")
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode docker hub response").
			WithCause(err)
	}
	return nil
}

func (a *DockerHubAdapter) doWithRetry(ctx context.Context, method string, url string) (*http.Response, error) {
	jwt, err := a.login(ctx)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt < a.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("docker hub request cancelled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create docker hub request").
				WithCause(err)
		}
		req.Header.Set("Authorization", "Bearer "+jwt)
		resp, err := a.client.Do(req)
		if err != nil {
			lastErr = errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("docker hub request failed").
				WithCause(err)
			time.Sleep(a.hubRetryDelay(attempt))
			continue
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("docker hub request failed").
				WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, url, string(body)))
			time.Sleep(a.hubRetryDelay(attempt))
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (a *DockerHubAdapter) hubRetryDelay(attempt int) time.Duration {
	delay := a.retryDelay * time.Duration(1<<attempt)
	if delay > maxHubRetryDelay {
		delay = maxHubRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func hubStatusError(resp *http.Response, msg string) error {
	body, _ := io.ReadAll(resp.Body)
	code := errbuilder.CodeInternal
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		code = errbuilder.CodePermissionDenied
	case http.StatusNotFound:
		code = errbuilder.CodeNotFound
	}
	return errbuilder.New().
		WithCode(code).
		WithMsg(msg).
		WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, resp.Request.URL.String(), string(body)))
}

func normalizeHubTimeout(value int) time.Duration {
	timeout := time.Duration(value) * time.Second
	if timeout <= 0 {
		return defaultHubTimeout
	}
	return timeout
}

func normalizeHubRetries(value int) int {
	if value <= 0 {
		return defaultHubRetries
	}
	return value
}

func normalizeHubRetryDelay(value int) time.Duration {
	delay := time.Duration(value) * time.Millisecond
	if delay <= 0 {
		return defaultHubRetryDelay
	}
	return delay
}

var _ ports.RegistryPort = (*DockerHubAdapter)(nil)
