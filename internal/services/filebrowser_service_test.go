package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/karsa-studio/api/internal/domain"
)

func newTestFileBrowserService(t *testing.T, deps FileBrowserServiceDeps) FileBrowserService {
	t.Helper()
	if deps.StoreOrders == nil {
		deps.StoreOrders = &stubStoreOrderRepository{
			findByNumberFunc: func(ctx context.Context, number string) (domain.StoreOrder, error) {
				return domain.StoreOrder{
					ID:          "sto_1",
					OrderNumber: number,
					ProductID:   "prd-icons",
					Customer:    domain.Customer{Name: "Dewi", Email: "dewi@example.com"},
					Status:      domain.OrderStatusPaid,
				}, nil
			},
		}
	}
	if deps.Catalog == nil {
		deps.Catalog = &stubCatalogRepository{
			findProductFunc: func(ctx context.Context, productID string) (domain.Product, error) {
				return testProduct(), nil
			},
		}
	}
	if deps.Drive == nil {
		deps.Drive = &stubDriveClient{}
	}
	service, err := NewFileBrowserService(deps)
	if err != nil {
		t.Fatalf("unexpected error constructing file browser service: %v", err)
	}
	return service
}

func TestFileBrowserServiceRejectsEmailMismatch(t *testing.T) {
	service := newTestFileBrowserService(t, FileBrowserServiceDeps{})

	_, err := service.BrowseOrderFiles(context.Background(), BrowseFilesCommand{
		OrderNumber:   "ST-20250402-XYZ12",
		CustomerEmail: "intruder@example.com",
	})
	if !errors.Is(err, ErrFileAccessDenied) {
		t.Fatalf("expected ErrFileAccessDenied, got %v", err)
	}
}

func TestFileBrowserServiceRequiresPaidOrder(t *testing.T) {
	storeOrders := &stubStoreOrderRepository{
		findByNumberFunc: func(ctx context.Context, number string) (domain.StoreOrder, error) {
			return domain.StoreOrder{
				ID:        "sto_1",
				ProductID: "prd-icons",
				Customer:  domain.Customer{Email: "dewi@example.com"},
				Status:    domain.OrderStatusPendingPayment,
			}, nil
		},
	}

	service := newTestFileBrowserService(t, FileBrowserServiceDeps{StoreOrders: storeOrders})

	_, err := service.BrowseOrderFiles(context.Background(), BrowseFilesCommand{
		OrderNumber:   "ST-1",
		CustomerEmail: "dewi@example.com",
	})
	if !errors.Is(err, ErrFileAccessDenied) {
		t.Fatalf("expected ErrFileAccessDenied for unpaid order, got %v", err)
	}
}

func TestFileBrowserServiceMapsUnknownOrder(t *testing.T) {
	storeOrders := &stubStoreOrderRepository{
		findByNumberFunc: func(ctx context.Context, number string) (domain.StoreOrder, error) {
			return domain.StoreOrder{}, &repositoryErrorStub{notFound: true}
		},
	}

	service := newTestFileBrowserService(t, FileBrowserServiceDeps{StoreOrders: storeOrders})

	_, err := service.BrowseOrderFiles(context.Background(), BrowseFilesCommand{
		OrderNumber:   "ST-MISSING",
		CustomerEmail: "dewi@example.com",
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestFileBrowserServiceRequiresDriveFolder(t *testing.T) {
	catalog := &stubCatalogRepository{
		findProductFunc: func(ctx context.Context, productID string) (domain.Product, error) {
			product := testProduct()
			product.DriveFolderID = ""
			return product, nil
		},
	}

	service := newTestFileBrowserService(t, FileBrowserServiceDeps{Catalog: catalog})

	_, err := service.BrowseOrderFiles(context.Background(), BrowseFilesCommand{
		OrderNumber:   "ST-1",
		CustomerEmail: "dewi@example.com",
	})
	if !errors.Is(err, ErrFilesUnavailable) {
		t.Fatalf("expected ErrFilesUnavailable, got %v", err)
	}
}

func TestFileBrowserServiceListsAndClassifies(t *testing.T) {
	modified := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	drive := &stubDriveClient{
		listFunc: func(ctx context.Context, folderID string) (string, []DriveFile, error) {
			if folderID != "folder-root" {
				t.Fatalf("expected product folder, got %q", folderID)
			}
			return "Icon Pack Deliverables", []DriveFile{
				{
					ID:          "f1",
					Name:        "brief.gdoc",
					MimeType:    "application/vnd.google-apps.document",
					WebViewLink: "https://docs.google.com/d/f1",
				},
				{
					ID:             "f2",
					Name:           "icons.zip",
					MimeType:       "application/zip",
					SizeBytes:      2048,
					ModifiedAt:     modified,
					WebContentLink: "https://drive.google.com/uc?id=f2",
					WebViewLink:    "https://drive.google.com/file/d/f2",
				},
				{
					ID:       "f3",
					Name:     "previews",
					MimeType: "application/vnd.google-apps.folder",
				},
			}, nil
		},
	}

	service := newTestFileBrowserService(t, FileBrowserServiceDeps{Drive: drive})

	listing, err := service.BrowseOrderFiles(context.Background(), BrowseFilesCommand{
		OrderNumber:   "ST-20250402-XYZ12",
		CustomerEmail: "DEWI@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if listing.FolderName != "Icon Pack Deliverables" {
		t.Fatalf("unexpected folder name %q", listing.FolderName)
	}
	if len(listing.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(listing.Entries))
	}

	doc := listing.Entries[0]
	if doc.DownloadLink != "" || doc.ViewLink != "https://docs.google.com/d/f1" {
		t.Fatalf("google-native document must expose view link only, got %+v", doc)
	}
	archive := listing.Entries[1]
	if archive.DownloadLink != "https://drive.google.com/uc?id=f2" {
		t.Fatalf("expected download link for binary file, got %+v", archive)
	}
	if archive.Category != domain.FileCategoryArchive || archive.ModifiedAt != modified {
		t.Fatalf("unexpected archive entry %+v", archive)
	}
	if listing.Entries[2].Category != domain.FileCategoryFolder {
		t.Fatalf("expected folder category, got %+v", listing.Entries[2])
	}
}

func TestFileBrowserServiceBrowsesSubfolder(t *testing.T) {
	drive := &stubDriveClient{
		listFunc: func(ctx context.Context, folderID string) (string, []DriveFile, error) {
			if folderID != "folder-sub" {
				t.Fatalf("expected requested subfolder, got %q", folderID)
			}
			return "previews", nil, nil
		},
		parentsFunc: func(ctx context.Context, folderID string) ([]string, error) {
			switch folderID {
			case "folder-sub":
				return []string{"folder-nested"}, nil
			case "folder-nested":
				return []string{"folder-root"}, nil
			default:
				t.Fatalf("unexpected parents lookup for %q", folderID)
				return nil, nil
			}
		},
	}

	service := newTestFileBrowserService(t, FileBrowserServiceDeps{Drive: drive})

	listing, err := service.BrowseOrderFiles(context.Background(), BrowseFilesCommand{
		OrderNumber:   "ST-1",
		CustomerEmail: "dewi@example.com",
		FolderID:      "folder-sub",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listing.FolderID != "folder-sub" {
		t.Fatalf("unexpected folder id %q", listing.FolderID)
	}
}

func TestFileBrowserServiceRejectsFolderOutsideShare(t *testing.T) {
	drive := &stubDriveClient{
		listFunc: func(ctx context.Context, folderID string) (string, []DriveFile, error) {
			t.Fatalf("folder %q must not be listed", folderID)
			return "", nil, nil
		},
		parentsFunc: func(ctx context.Context, folderID string) ([]string, error) {
			if folderID == "folder-elsewhere" {
				return []string{"someone-elses-root"}, nil
			}
			return nil, nil
		},
	}

	service := newTestFileBrowserService(t, FileBrowserServiceDeps{Drive: drive})

	_, err := service.BrowseOrderFiles(context.Background(), BrowseFilesCommand{
		OrderNumber:   "ST-1",
		CustomerEmail: "dewi@example.com",
		FolderID:      "folder-elsewhere",
	})
	if !errors.Is(err, ErrFileAccessDenied) {
		t.Fatalf("expected ErrFileAccessDenied, got %v", err)
	}
}

func TestCategoriseMimeType(t *testing.T) {
	cases := []struct {
		mimeType string
		want     domain.FileCategory
	}{
		{"application/vnd.google-apps.folder", domain.FileCategoryFolder},
		{"image/png", domain.FileCategoryImage},
		{"video/mp4", domain.FileCategoryVideo},
		{"audio/mpeg", domain.FileCategoryAudio},
		{"application/pdf", domain.FileCategoryDocument},
		{"application/vnd.google-apps.spreadsheet", domain.FileCategoryDocument},
		{"text/plain", domain.FileCategoryDocument},
		{"application/x-7z-compressed", domain.FileCategoryArchive},
		{"application/octet-stream", domain.FileCategoryOther},
	}

	for _, tc := range cases {
		if got := categoriseMimeType(tc.mimeType); got != tc.want {
			t.Fatalf("categoriseMimeType(%q) = %q, want %q", tc.mimeType, got, tc.want)
		}
	}
}
