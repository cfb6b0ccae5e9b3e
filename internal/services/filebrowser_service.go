package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/karsa-studio/api/internal/domain"
	"github.com/karsa-studio/api/internal/repositories"
)

const driveFolderMimeType = "application/vnd.google-apps.folder"

var (
	// ErrFileAccessDenied indicates the requester failed the order email gate
	// or the order has not been paid for.
	ErrFileAccessDenied = errors.New("files: access denied")
	// ErrFilesUnavailable indicates the product has no deliverable folder.
	ErrFilesUnavailable = errors.New("files: no deliverables")
)

// DriveFile is a raw Drive entry before classification.
type DriveFile struct {
	ID             string
	Name           string
	MimeType       string
	SizeBytes      int64
	ModifiedAt     time.Time
	WebContentLink string
	WebViewLink    string
}

// DriveClient lists files stored in Google Drive folders.
type DriveClient interface {
	ListFolder(ctx context.Context, folderID string) (string, []DriveFile, error)
	FolderParents(ctx context.Context, folderID string) ([]string, error)
}

// maxFolderDepth bounds the parent walk when checking that a requested
// subfolder belongs to the product's deliverable share.
const maxFolderDepth = 16

// FileBrowserServiceDeps bundles collaborators required to construct the file browser service.
type FileBrowserServiceDeps struct {
	StoreOrders repositories.StoreOrderRepository
	Catalog     repositories.CatalogRepository
	Drive       DriveClient
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type fileBrowserService struct {
	storeOrders repositories.StoreOrderRepository
	catalog     repositories.CatalogRepository
	drive       DriveClient
	logger      func(context.Context, string, map[string]any)
}

// NewFileBrowserService wires dependencies into a concrete FileBrowserService implementation.
func NewFileBrowserService(deps FileBrowserServiceDeps) (FileBrowserService, error) {
	if deps.StoreOrders == nil {
		return nil, errors.New("file browser service: store order repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("file browser service: catalog repository is required")
	}
	if deps.Drive == nil {
		return nil, errors.New("file browser service: drive client is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &fileBrowserService{
		storeOrders: deps.StoreOrders,
		catalog:     deps.Catalog,
		drive:       deps.Drive,
		logger:      logger,
	}, nil
}

// BrowseOrderFiles lists the deliverable folder for a store order. The
// requester must present the order number together with the email used at
// checkout, and the order must have reached paid or completed.
func (s *fileBrowserService) BrowseOrderFiles(ctx context.Context, cmd BrowseFilesCommand) (FolderListing, error) {
	number := strings.ToUpper(strings.TrimSpace(cmd.OrderNumber))
	if number == "" {
		return FolderListing{}, fmt.Errorf("%w: order number is required", ErrOrderInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(cmd.CustomerEmail))
	if email == "" {
		return FolderListing{}, fmt.Errorf("%w: customer email is required", ErrOrderInvalidInput)
	}

	order, err := s.storeOrders.FindByOrderNumber(ctx, number)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return FolderListing{}, fmt.Errorf("%w: order %s", ErrOrderNotFound, number)
		}
		return FolderListing{}, err
	}

	if !strings.EqualFold(order.Customer.Email, email) {
		return FolderListing{}, fmt.Errorf("%w: email does not match order %s", ErrFileAccessDenied, number)
	}
	if order.Status != domain.OrderStatusPaid && order.Status != domain.OrderStatusCompleted {
		return FolderListing{}, fmt.Errorf("%w: order %s is %s", ErrFileAccessDenied, number, order.Status)
	}

	product, err := s.catalog.FindProduct(ctx, order.ProductID)
	if err != nil {
		return FolderListing{}, err
	}
	if strings.TrimSpace(product.DriveFolderID) == "" {
		return FolderListing{}, fmt.Errorf("%w: product %s has no drive folder", ErrFilesUnavailable, product.ID)
	}

	folderID := strings.TrimSpace(cmd.FolderID)
	if folderID == "" {
		folderID = product.DriveFolderID
	} else if folderID != product.DriveFolderID {
		if err := s.checkFolderWithinShare(ctx, folderID, product.DriveFolderID); err != nil {
			return FolderListing{}, err
		}
	}

	name, files, err := s.drive.ListFolder(ctx, folderID)
	if err != nil {
		return FolderListing{}, fmt.Errorf("file browser: list folder %s: %w", folderID, err)
	}

	entries := make([]FileEntry, 0, len(files))
	for _, file := range files {
		entries = append(entries, classifyDriveFile(file))
	}

	s.logger(ctx, "files.browsed", map[string]any{
		"order":  order.ID,
		"folder": folderID,
		"count":  len(entries),
	})
	return FolderListing{
		FolderID:   folderID,
		FolderName: name,
		Entries:    entries,
	}, nil
}

// checkFolderWithinShare walks the parent chain of a requested folder and
// requires the product's root folder to appear in it. Any folder the service
// account happens to read but that lives outside the share is rejected.
func (s *fileBrowserService) checkFolderWithinShare(ctx context.Context, folderID, rootID string) error {
	current := folderID
	for depth := 0; depth < maxFolderDepth; depth++ {
		parents, err := s.drive.FolderParents(ctx, current)
		if err != nil {
			return fmt.Errorf("file browser: resolve parents of %s: %w", current, err)
		}
		if len(parents) == 0 {
			break
		}
		for _, parent := range parents {
			if parent == rootID {
				return nil
			}
		}
		current = parents[0]
	}
	return fmt.Errorf("%w: folder %s is outside the order deliverables", ErrFileAccessDenied, folderID)
}

// classifyDriveFile maps a raw Drive entry onto a presentation category.
// Google-native documents cannot be downloaded directly, so they carry the
// view link instead of a download link.
func classifyDriveFile(file DriveFile) FileEntry {
	entry := FileEntry{
		ID:         file.ID,
		Name:       file.Name,
		Category:   categoriseMimeType(file.MimeType),
		MimeType:   file.MimeType,
		SizeBytes:  file.SizeBytes,
		ModifiedAt: file.ModifiedAt,
	}
	if strings.HasPrefix(file.MimeType, "application/vnd.google-apps.") {
		entry.ViewLink = file.WebViewLink
		return entry
	}
	if file.WebContentLink != "" {
		entry.DownloadLink = file.WebContentLink
	} else {
		entry.ViewLink = file.WebViewLink
	}
	return entry
}

func categoriseMimeType(mimeType string) domain.FileCategory {
	switch {
	case mimeType == driveFolderMimeType:
		return domain.FileCategoryFolder
	case strings.HasPrefix(mimeType, "image/"):
		return domain.FileCategoryImage
	case strings.HasPrefix(mimeType, "video/"):
		return domain.FileCategoryVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return domain.FileCategoryAudio
	}

	switch mimeType {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.google-apps.document",
		"application/vnd.google-apps.spreadsheet",
		"application/vnd.google-apps.presentation":
		return domain.FileCategoryDocument
	case "application/zip",
		"application/x-zip-compressed",
		"application/x-rar-compressed",
		"application/vnd.rar",
		"application/x-7z-compressed",
		"application/x-tar",
		"application/gzip":
		return domain.FileCategoryArchive
	}

	if strings.HasPrefix(mimeType, "text/") {
		return domain.FileCategoryDocument
	}
	return domain.FileCategoryOther
}
