package api

import (
	"io"
	"net/http"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Import handles POST /api/import (multipart/form-data, field "file", optional
// form field "dir"). An existing name gets a numeric suffix instead of being
// overwritten.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	res, err := h.svc.ImportUpload(r.Context(), r.FormValue("dir"), header.Filename, data)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
