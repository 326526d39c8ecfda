package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/witnesschain/witnesschain-go/pkg/model"
	"github.com/witnesschain/witnesschain-go/pkg/storage"
	"github.com/witnesschain/witnesschain-go/pkg/store"
)

type authError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// wallet extracts the caller's wallet address, writing a 401 when missing.
func wallet(w http.ResponseWriter, r *http.Request) (string, bool) {
	addr := r.Header.Get("X-Wallet-Address")
	if addr == "" {
		writeJSON(w, http.StatusUnauthorized, authError{
			Error:   "UNAUTHORIZED",
			Code:    "UNAUTHORIZED",
			Message: "Wallet address is required.",
		})
		return "", false
	}
	return addr, true
}

func evidenceID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, store.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// handleUploadEvidence accepts a multipart form with fields title,
// description, contentHash and a file part named "file". The payload is
// expected to be encrypted client-side; the server stores it as opaque bytes.
func (s *Server) handleUploadEvidence(w http.ResponseWriter, r *http.Request) {
	addr, ok := wallet(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, storage.NewError(storage.CodeInvalidData, err.Error()))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, storage.NewError(storage.CodeInvalidData, "missing file part: "+err.Error()))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, storage.NewError(storage.CodeInvalidData, err.Error()))
		return
	}

	title := r.FormValue("title")
	if title == "" {
		writeError(w, storage.NewError(storage.CodeInvalidData, "title is required"))
		return
	}
	contentHash := r.FormValue("contentHash")
	if contentHash == "" {
		writeError(w, storage.NewError(storage.CodeInvalidData, "contentHash is required"))
		return
	}

	user, err := s.store.EnsureUser(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}

	ev := &model.Evidence{
		UserID:      user.ID,
		Title:       title,
		Description: r.FormValue("description"),
		ContentHash: contentHash,
		MimeType:    r.FormValue("mimeType"),
		FileSize:    int64(len(data)),
	}
	if err := s.store.CreateEvidence(r.Context(), ev); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.storage.Upload(r.Context(), data, storage.UploadRequest{
		EvidenceID:  ev.ID.String(),
		ContentHash: contentHash,
	})
	if err != nil {
		if markErr := s.store.MarkFailed(r.Context(), ev.ID); markErr != nil {
			zap.L().Error("failed to mark evidence failed", zap.Error(markErr))
		}
		writeError(w, err)
		return
	}

	if err := s.store.MarkStored(r.Context(), ev.ID, res.PieceCID, res.UploadedBytes); err != nil {
		writeError(w, err)
		return
	}

	ev.PieceCID = res.PieceCID
	ev.Status = model.EvidenceStored
	writeJSON(w, http.StatusCreated, struct {
		Evidence *model.Evidence       `json:"evidence"`
		Upload   *storage.UploadResult `json:"upload"`
	}{ev, res})
}

func (s *Server) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	addr, ok := wallet(w, r)
	if !ok {
		return
	}
	user, err := s.store.EnsureUser(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.store.ListEvidenceByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	id, ok := evidenceID(w, r)
	if !ok {
		return
	}
	ev, err := s.store.GetEvidence(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleDownloadEvidence streams the stored (still encrypted) payload back
// to the caller and appends an access log line.
func (s *Server) handleDownloadEvidence(w http.ResponseWriter, r *http.Request) {
	addr, ok := wallet(w, r)
	if !ok {
		return
	}
	id, ok := evidenceID(w, r)
	if !ok {
		return
	}
	ev, err := s.store.GetEvidence(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if ev.PieceCID == "" {
		writeError(w, storage.NewError(storage.CodeNotFound, "evidence has no stored payload"))
		return
	}

	data, err := s.storage.Retrieve(r.Context(), ev.PieceCID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.LogAccess(r.Context(), ev.ID, addr, "download"); err != nil {
		zap.L().Error("failed to record access", zap.Error(err))
	}

	contentType := ev.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		zap.L().Error("failed to write payload", zap.Error(err))
	}
}

func (s *Server) handleCreateVerification(w http.ResponseWriter, r *http.Request) {
	if _, ok := wallet(w, r); !ok {
		return
	}
	id, ok := evidenceID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetEvidence(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Verified bool   `json:"verified"`
		Notes    string `json:"notes"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, storage.NewError(storage.CodeInvalidData, err.Error()))
		return
	}

	v := &model.Verification{EvidenceID: id, Verified: body.Verified, Notes: body.Notes}
	if err := s.store.CreateVerification(r.Context(), v); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleListVerifications(w http.ResponseWriter, r *http.Request) {
	id, ok := evidenceID(w, r)
	if !ok {
		return
	}
	vs, err := s.store.ListVerifications(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vs)
}

func (s *Server) handleListAccessLog(w http.ResponseWriter, r *http.Request) {
	id, ok := evidenceID(w, r)
	if !ok {
		return
	}
	logs, err := s.store.ListAccessLog(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleStorageStatus surfaces the fail-soft status lookup: an invalid CID
// or any backend failure renders as 404 rather than an error detail.
func (s *Server) handleStorageStatus(w http.ResponseWriter, r *http.Request) {
	info, ok := s.storage.StoredInfo(r.Context(), chi.URLParam(r, "cid"))
	if !ok {
		writeError(w, storage.NewError(storage.CodeNotFound, "no status available"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
