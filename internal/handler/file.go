package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/linnoak/teamboard-api/internal/model"
	"github.com/linnoak/teamboard-api/internal/payload"
	"github.com/linnoak/teamboard-api/internal/repository"
)

// FileHandler serves multipart upload and download of workspace files.
type FileHandler struct {
	fileRepo     repository.FileRepository
	maxSizeBytes int64
	logger       *zerolog.Logger
}

// NewFileHandler creates a new FileHandler instance.
func NewFileHandler(fileRepo repository.FileRepository, maxSizeBytes int64, logger *zerolog.Logger) *FileHandler {
	return &FileHandler{
		fileRepo:     fileRepo,
		maxSizeBytes: maxSizeBytes,
		logger:       logger,
	}
}

// Routes mounts the handler under /api/files.
func (h *FileHandler) Routes(r chi.Router) {
	r.Post("/", h.Upload)
	r.Get("/{id}", h.Download)
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, payload.UploadResponse{Error: "not authenticated"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, payload.UploadResponse{Error: "missing or oversized file field"})
		return
	}
	defer file.Close()

	upload, err := h.fileRepo.SaveFile(r.Context(), &model.FileUpload{
		UploaderID:  actor.UserID,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
	}, file)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to save file upload")
		respondJSON(w, http.StatusInternalServerError, payload.UploadResponse{Error: "something went wrong"})
		return
	}

	respondJSON(w, http.StatusCreated, payload.UploadResponse{Success: true, FileID: upload.ID.Hex()})
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	upload, err := h.fileRepo.GetFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondJSON(w, http.StatusNotFound, payload.StatusResponse{Error: "file not found"})
			return
		}

		h.logger.Error().Err(err).Msg("failed to look up file")
		respondJSON(w, http.StatusInternalServerError, payload.StatusResponse{Error: "something went wrong"})
		return
	}

	if upload.ContentType != "" {
		w.Header().Set("Content-Type", upload.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(upload.SizeBytes, 10))
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(upload.Name))

	if _, err := h.fileRepo.DownloadFile(r.Context(), upload, w); err != nil {
		// Headers are gone already; all we can do is log.
		h.logger.Error().Err(err).Str("file_id", upload.ID.Hex()).Msg("failed to stream file")
	}
}
