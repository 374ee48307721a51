package storage

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

	"legacy-keeper-go/internal/domain/attachment"
)

// SupabaseStore talks to the Supabase Storage REST API with the service role key.
type SupabaseStore struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewSupabaseStore(baseURL, serviceRoleKey string, timeout time.Duration) *SupabaseStore {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SupabaseStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     serviceRoleKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type createBucketRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Public        bool   `json:"public"`
	FileSizeLimit int64  `json:"file_size_limit,omitempty"`
}

type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

type apiError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func (s *SupabaseStore) EnsureBucket(ctx context.Context, name string, opts attachment.BucketOptions) error {
	resp, err := s.do(ctx, http.MethodGet, "/storage/v1/bucket/"+url.PathEscape(name), nil, "")
	if err != nil {
		return err
	}
	drain(resp)
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, err := json.Marshal(createBucketRequest{ID: name, Name: name, Public: opts.Public, FileSizeLimit: opts.SizeLimit})
	if err != nil {
		return err
	}
	resp, err = s.do(ctx, http.MethodPost, "/storage/v1/bucket", body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	apiErr := decodeError(resp)
	// Another instance may have created it between the two calls.
	if strings.Contains(strings.ToLower(apiErr.Message), "already exists") {
		return nil
	}
	return fmt.Errorf("create bucket %s: status %d: %s", name, resp.StatusCode, apiErr.Message)
}

func (s *SupabaseStore) Put(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	resp, err := s.doWithHeaders(ctx, http.MethodPost, "/storage/v1/object/"+bucket+"/"+escapePath(objectPath), data, contentType, map[string]string{
		"x-upsert": "true",
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload %s/%s: status %d: %s", bucket, objectPath, resp.StatusCode, decodeError(resp).Message)
	}
	return s.baseURL + "/storage/v1/object/public/" + bucket + "/" + escapePath(objectPath), nil
}

func (s *SupabaseStore) Remove(ctx context.Context, bucket string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	body, err := json.Marshal(removeRequest{Prefixes: paths})
	if err != nil {
		return err
	}
	resp, err := s.do(ctx, http.MethodDelete, "/storage/v1/object/"+bucket, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remove from %s: status %d: %s", bucket, resp.StatusCode, decodeError(resp).Message)
	}
	return nil
}

func (s *SupabaseStore) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	return s.doWithHeaders(ctx, method, path, body, contentType, nil)
}

func (s *SupabaseStore) doWithHeaders(ctx context.Context, method, path string, body []byte, contentType string, headers map[string]string) (*http.Response, error) {
	if s.baseURL == "" || s.key == "" {
		return nil, fmt.Errorf("storage not configured")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("apikey", s.key)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return s.client.Do(req)
}

func decodeError(resp *http.Response) apiError {
	var payload apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(raw))
	}
	return payload
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

func escapePath(objectPath string) string {
	parts := strings.Split(objectPath, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
