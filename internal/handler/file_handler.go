package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/domain"
)

// FileHandler serves the file endpoints. Files belong to exactly one
// account; only the owner may read, mutate or delete them. Ownership misses
// are reported as not-found so callers cannot probe for other accounts'
// file IDs.
type FileHandler struct {
	files  FileService
	auth   Authenticator
	logger zerolog.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files FileService, auth Authenticator, logger zerolog.Logger) *FileHandler {
	return &FileHandler{
		files:  files,
		auth:   auth,
		logger: logger.With().Str("handler", "file").Logger(),
	}
}

type createFileRequest struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// filePatch carries a partial file update; nil fields are left unchanged.
type filePatch struct {
	Name     *string `json:"name"`
	MimeType *string `json:"mimeType"`
	Data     *[]byte `json:"data"`
}

func (p *filePatch) apply(file *domain.File) {
	if p.Name != nil {
		file.Name = *p.Name
	}
	if p.MimeType != nil {
		file.MimeType = *p.MimeType
	}
	if p.Data != nil {
		file.Data = *p.Data
	}
}

// Create stores a new file owned by the authenticated caller.
func (h *FileHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := h.auth.AuthenticateRequest(r.Context(), r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req createFileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "malformed_body")
		return
	}

	file := domain.NewFile(caller.ID, req.Name, req.MimeType, req.Data)
	created, err := h.files.Insert(r.Context(), file)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Get returns one of the caller's files by ID.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	file, ok := h.ownedFile(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, file)
}

// Update applies a partial patch to one of the caller's files.
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	file, ok := h.ownedFile(w, r)
	if !ok {
		return
	}

	var patch filePatch
	if err := decodeJSON(r, &patch); err != nil {
		respondBadRequest(w, "malformed_body")
		return
	}

	modified := file.Clone()
	patch.apply(modified)

	updated, err := h.files.Update(r.Context(), modified)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Delete removes one of the caller's files.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	file, ok := h.ownedFile(w, r)
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), file.ID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ownedFile authenticates the request, loads the file from the path ID and
// enforces ownership. A file owned by someone else responds not-found.
func (h *FileHandler) ownedFile(w http.ResponseWriter, r *http.Request) (*domain.File, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	caller, err := h.auth.AuthenticateRequest(r.Context(), r)
	if err != nil {
		respondError(w, h.logger, err)
		return nil, false
	}

	file, err := h.files.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return nil, false
	}

	if file.OwnerID != caller.ID {
		respondError(w, h.logger, domain.ErrFileNotFound)
		return nil, false
	}

	return file, true
}
