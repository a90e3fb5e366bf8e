package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/vocdoni/sealed-tally/log"
	"github.com/vocdoni/sealed-tally/storage"
	"github.com/vocdoni/sealed-tally/types"
)

const (
	defaultMaxUploadSize = types.MaxMetadataSize
	// multipartOverhead leaves room for the form boundaries and headers
	multipartOverhead = 64 << 10
	uploadFormField   = "file"
)

// upload stores a metadata file and returns its content identifier
// POST /storage/upload
func (a *API) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadSize+multipartOverhead)
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrFileTooLarge.Write(w)
			return
		}
		ErrMalformedFile.WithErr(err).Write(w)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnw("failed to close uploaded file", "error", err)
		}
	}()
	data, err := io.ReadAll(io.LimitReader(file, a.maxUploadSize+1))
	if err != nil {
		ErrMalformedFile.WithErr(err).Write(w)
		return
	}
	if int64(len(data)) > a.maxUploadSize {
		ErrFileTooLarge.Write(w)
		return
	}
	cid, err := a.storage.SetBlob(header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidExtension):
			ErrMalformedFile.WithErr(err).Write(w)
		case errors.Is(err, storage.ErrBlobTooLarge):
			ErrFileTooLarge.Write(w)
		default:
			ErrGenericInternalServerError.WithErr(err).Write(w)
		}
		return
	}
	log.Infow("file uploaded", "cid", cid, "name", header.Filename, "size", len(data))
	httpWriteJSON(w, &UploadResponse{CID: cid})
}

// file returns a stored file by its content identifier
// GET /storage/{cid}
func (a *API) file(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, CIDURLParam)
	name, err := storage.Filename(cid)
	if err != nil {
		ErrMalformedCID.WithErr(err).Write(w)
		return
	}
	data, err := a.storage.Blob(cid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrResourceNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Warnw("failed to write file", "cid", cid, "error", err)
	}
}
