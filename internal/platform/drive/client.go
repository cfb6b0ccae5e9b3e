// Package drive wraps the Google Drive v3 API for deliverable browsing.
package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/karsa-studio/api/internal/services"
)

const (
	listPageSize = 200
	listFields   = "nextPageToken, files(id, name, mimeType, size, modifiedTime, webContentLink, webViewLink)"
)

// ErrFolderNotFound indicates the folder does not exist or the service
// account cannot see it.
var ErrFolderNotFound = errors.New("drive: folder not found")

// Client lists Drive folders on behalf of the file browser.
type Client struct {
	files *drivev3.FilesService
}

// NewClient constructs a read-only Drive client authenticated with the given
// service account credentials file. An empty path falls back to application
// default credentials.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(drivev3.DriveReadonlyScope)}
	if path := strings.TrimSpace(credentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive: new service: %w", err)
	}
	return &Client{files: svc.Files}, nil
}

// ListFolder returns the folder's display name and its direct children.
// Trashed entries are skipped; folders sort before files.
func (c *Client) ListFolder(ctx context.Context, folderID string) (string, []services.DriveFile, error) {
	if c == nil || c.files == nil {
		return "", nil, errors.New("drive: client not initialised")
	}
	id := strings.TrimSpace(folderID)
	if id == "" {
		return "", nil, errors.New("drive: folder id is required")
	}

	folder, err := c.files.Get(id).
		Fields("id, name, mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", nil, wrapDriveError("get folder", err)
	}

	var (
		files     []services.DriveFile
		pageToken string
	)
	for {
		call := c.files.List().
			Q(fmt.Sprintf("'%s' in parents and trashed = false", id)).
			Fields(listFields).
			OrderBy("folder,name").
			PageSize(listPageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return "", nil, wrapDriveError("list folder", err)
		}
		for _, file := range page.Files {
			files = append(files, toDriveFile(file))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return folder.Name, files, nil
}

// FolderParents returns the parent IDs of a folder. The file browser walks
// these to confirm a requested folder sits beneath a product's share.
func (c *Client) FolderParents(ctx context.Context, folderID string) ([]string, error) {
	if c == nil || c.files == nil {
		return nil, errors.New("drive: client not initialised")
	}
	id := strings.TrimSpace(folderID)
	if id == "" {
		return nil, errors.New("drive: folder id is required")
	}

	file, err := c.files.Get(id).
		Fields("id, parents").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapDriveError("get parents", err)
	}
	return file.Parents, nil
}

func toDriveFile(file *drivev3.File) services.DriveFile {
	entry := services.DriveFile{
		ID:             file.Id,
		Name:           file.Name,
		MimeType:       file.MimeType,
		SizeBytes:      file.Size,
		WebContentLink: file.WebContentLink,
		WebViewLink:    file.WebViewLink,
	}
	if file.ModifiedTime != "" {
		if ts, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
			entry.ModifiedAt = ts
		}
	}
	return entry
}

func wrapDriveError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 404 || apiErr.Code == 403) {
		return fmt.Errorf("%w: %s: %v", ErrFolderNotFound, op, err)
	}
	return fmt.Errorf("drive: %s: %w", op, err)
}

var _ services.DriveClient = (*Client)(nil)
