package api

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/render"
)

const maxImageBytes = 16 << 20

// uploadImageRequest is the JSON body variant: raw base64 image data, or a
// render descriptor to have the rendering service produce the image first.
type uploadImageRequest struct {
	Filename string             `json:"filename"`
	Data     string             `json:"data,omitempty"`
	Render   *render.Descriptor `json:"render,omitempty"`
}

// UploadImageHandler accepts an image (multipart file, base64 JSON, or a
// render descriptor) and uploads it to the ad account image library,
// returning the platform-assigned hash.
func (s *Server) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := s.requireToken(w)
	if !ok {
		return
	}

	filename, data, ok := s.readImage(w, r)
	if !ok {
		return
	}

	hash, err := s.Platform.UploadImage(r.Context(), token, filename, data)
	if err != nil {
		s.Logger.Error("image upload failed", zap.String("filename", filename), zap.Error(err))
		writeError(w, http.StatusBadGateway, "image upload failed")
		return
	}
	writeJSON(w, map[string]string{"imageHash": hash})
}

func (s *Server) readImage(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body")
			return "", nil, false
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing image file")
			return "", nil, false
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read image file")
			return "", nil, false
		}
		return header.Filename, data, true
	}

	var req uploadImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return "", nil, false
	}
	filename := req.Filename
	if filename == "" {
		filename = "creative.png"
	}

	if req.Render != nil {
		if s.Renderer == nil {
			writeError(w, http.StatusBadRequest, "render service not configured")
			return "", nil, false
		}
		data, err := s.Renderer.Render(r.Context(), *req.Render)
		if err != nil {
			s.Logger.Error("render failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "image rendering failed")
			return "", nil, false
		}
		return filename, data, true
	}

	if req.Data == "" {
		writeError(w, http.StatusBadRequest, "missing image data")
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 image data")
		return "", nil, false
	}
	return filename, data, true
}
