package treeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mooki/internal/domain"
	"mooki/internal/domain/models"
	"mooki/internal/domain/services"
	"mooki/internal/httputil"
)

// Client is an HTTP RemoteStore backed by the folder API. Server errors
// arrive as RFC 7807 problem documents; the detail string is surfaced as
// the error message and the status mapped onto the shared error taxonomy
// so errors.Is works the same on both ends of the wire.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ RemoteStore = (*Client)(nil)

// NewClient creates a client for the folder API at baseURL (no trailing
// slash) authenticating with the given bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) FetchTree(ctx context.Context) ([]*models.FolderNode, error) {
	var forest []*models.FolderNode
	if err := c.do(ctx, http.MethodGet, "/api/folders/tree", nil, http.StatusOK, &forest); err != nil {
		return nil, err
	}
	return forest, nil
}

func (c *Client) Create(ctx context.Context, name string, parentID, slugOverride *string) (*models.Folder, error) {
	req := &services.CreateFolderRequest{
		Name:     name,
		ParentID: parentID,
		Slug:     slugOverride,
	}
	var folder models.Folder
	if err := c.do(ctx, http.MethodPost, "/api/folders", req, http.StatusCreated, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (c *Client) Rename(ctx context.Context, folderID, newName string, newSlug *string) error {
	req := services.RenameFolderRequest{Name: newName, Slug: newSlug}
	return c.do(ctx, http.MethodPatch, "/api/folders/"+folderID, req, http.StatusOK, nil)
}

func (c *Client) Move(ctx context.Context, folderID string, newParentID *string) error {
	req := services.MoveFolderRequest{ParentID: newParentID}
	return c.do(ctx, http.MethodPost, "/api/folders/"+folderID+"/move", req, http.StatusNoContent, nil)
}

func (c *Client) Delete(ctx context.Context, folderID string) error {
	return c.do(ctx, http.MethodDelete, "/api/folders/"+folderID, nil, http.StatusNoContent, nil)
}

// do performs one authenticated round trip. out is decoded from the body
// when non-nil and the response matches wantStatus; any other status is
// turned into a typed error from the problem document.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, wantStatus int, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call folder API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return errorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorFromResponse maps a problem document back onto the error types the
// service layer raises, keyed by status code. Conflict-family statuses
// collapse into ConflictError since the document does not distinguish them.
func errorFromResponse(resp *http.Response) error {
	var problem httputil.ProblemDetail
	detail := ""
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
		detail = problem.Detail
	}
	if detail == "" {
		detail = fmt.Sprintf("folder API returned %s", resp.Status)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &domain.ValidationError{Message: detail}
	case http.StatusUnauthorized:
		return &domain.UnauthorizedError{Message: detail}
	case http.StatusForbidden:
		return &domain.RootProtectedError{Message: detail}
	case http.StatusNotFound:
		return &domain.NotFoundError{Message: detail}
	case http.StatusConflict:
		return &domain.ConflictError{Message: detail}
	default:
		return fmt.Errorf("%s", detail)
	}
}
