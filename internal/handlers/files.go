package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/karsa-studio/api/internal/platform/httpx"
	"github.com/karsa-studio/api/internal/services"
)

// FileHandlers exposes the deliverable file browser for store orders.
type FileHandlers struct {
	files services.FileBrowserService
}

// NewFileHandlers constructs a new FileHandlers instance.
func NewFileHandlers(files services.FileBrowserService) *FileHandlers {
	return &FileHandlers{files: files}
}

// Routes registers the /files endpoints. Access is gated by order number and
// checkout email rather than authentication.
func (h *FileHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.browseFiles)
}

func (h *FileHandlers) browseFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.files == nil {
		httpx.WriteError(ctx, w, httpx.NewError("file_service_unavailable", "file browser unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	listing, err := h.files.BrowseOrderFiles(ctx, services.BrowseFilesCommand{
		OrderNumber:   strings.TrimSpace(query.Get("order")),
		CustomerEmail: strings.TrimSpace(query.Get("email")),
		FolderID:      strings.TrimSpace(query.Get("folder")),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	entries := make([]fileEntryPayload, 0, len(listing.Entries))
	for _, entry := range listing.Entries {
		entries = append(entries, fileEntryPayload{
			ID:           entry.ID,
			Name:         entry.Name,
			Category:     string(entry.Category),
			MimeType:     entry.MimeType,
			SizeBytes:    entry.SizeBytes,
			ModifiedAt:   formatTime(entry.ModifiedAt),
			DownloadLink: entry.DownloadLink,
			ViewLink:     entry.ViewLink,
		})
	}

	writeJSONResponse(w, http.StatusOK, folderListingResponse{
		FolderID:   listing.FolderID,
		FolderName: listing.FolderName,
		Entries:    entries,
	})
}

type folderListingResponse struct {
	FolderID   string             `json:"folder_id"`
	FolderName string             `json:"folder_name"`
	Entries    []fileEntryPayload `json:"entries"`
}

type fileEntryPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
	ModifiedAt   string `json:"modified_at,omitempty"`
	DownloadLink string `json:"download_link,omitempty"`
	ViewLink     string `json:"view_link,omitempty"`
}
