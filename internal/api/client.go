package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "CADENZA_HTTP_TIMEOUT"
	apiTokenEnvKey     = "CADENZA_API_TOKEN"
)

// Client is a simple HTTP client for the cadenza API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// MediaUpload is an optional media part for create and update calls.
type MediaUpload struct {
	Content     io.Reader
	ContentType string
	Filename    string
}

// CreateRecord uploads a new record, optionally with a media payload.
func (c *Client) CreateRecord(ctx context.Context, ownerID, title, caption string, media *MediaUpload) (RecordResponse, error) {
	fields := map[string]string{
		"owner_id": ownerID,
		"title":    title,
		"caption":  caption,
	}
	var resp RecordResponse
	err := c.doMultipart(ctx, http.MethodPost, "/v1/records", fields, media, &resp)
	return resp, err
}

func (c *Client) GetRecord(ctx context.Context, id string) (RecordResponse, error) {
	var resp RecordResponse
	err := c.do(ctx, http.MethodGet, "/v1/records/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) ListRecords(ctx context.Context, ownerID string) ([]RecordResponse, error) {
	query := url.Values{"owner": []string{ownerID}}
	var resp []RecordResponse
	err := c.do(ctx, http.MethodGet, "/v1/records", query, nil, &resp)
	return resp, err
}

// UpdateRecord applies a partial update. With a media payload the request is
// sent as multipart and the record's media is replaced; without one it is a
// plain JSON patch.
func (c *Client) UpdateRecord(ctx context.Context, id string, req RecordUpdateRequest, media *MediaUpload) (RecordResponse, error) {
	var resp RecordResponse
	path := "/v1/records/" + url.PathEscape(id)
	if media == nil {
		err := c.do(ctx, http.MethodPatch, path, nil, req, &resp)
		return resp, err
	}

	fields := map[string]string{
		"expected_version": strconv.FormatInt(req.ExpectedVersion, 10),
	}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Caption != nil {
		fields["caption"] = *req.Caption
	}
	err := c.doMultipart(ctx, http.MethodPatch, path, fields, media, &resp)
	return resp, err
}

func (c *Client) DeleteRecord(ctx context.Context, id string, expectedVersion int64) error {
	query := url.Values{"expected_version": []string{strconv.FormatInt(expectedVersion, 10)}}
	return c.do(ctx, http.MethodDelete, "/v1/records/"+url.PathEscape(id), query, nil, nil)
}

// DownloadMedia streams a media blob to a writer.
func (c *Client) DownloadMedia(ctx context.Context, name string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/media/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	c.setAuthHeader(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// GCBlobs runs an orphan blob sweep on the server.
func (c *Client) GCBlobs(ctx context.Context, apply bool) (BlobGCResponse, error) {
	query := url.Values{}
	if apply {
		query.Set("apply", "true")
	}
	var resp BlobGCResponse
	err := c.do(ctx, http.MethodPost, "/v1/gc/blobs", query, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, media *MediaUpload, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	// Every provided field is written, including empty values. The server
	// treats form-key presence as "explicitly set", so dropping an empty
	// field would turn a clear into a no-op.
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	if media != nil {
		part, err := writer.CreatePart(mediaPartHeader(media))
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, media.Content); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func mediaPartHeader(media *MediaUpload) textproto.MIMEHeader {
	filename := media.Filename
	if filename == "" {
		filename = "media"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="media"; filename=%q`, filename))
	if media.ContentType != "" {
		header.Set("Content-Type", media.ContentType)
	}
	return header
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
		return apiErr
	}
	apiErr.Message = resp.Status
	return apiErr
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
