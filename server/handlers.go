package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/georgepadayatti/docstacker/assembly"
	"github.com/georgepadayatti/docstacker/docerr"
	"github.com/georgepadayatti/docstacker/document"
	"github.com/georgepadayatti/docstacker/pdf/images"
)

// StackResponse is returned by POST /api/stack.
type StackResponse struct {
	DocumentID string `json:"documentId"`
	PageCount  int    `json:"pageCount"`
	Message    string `json:"message"`
}

// StackRequest is the JSON form of a stack request. Parts are base64,
// optionally as data URIs. Variables are accepted for compatibility and
// not used.
type StackRequest struct {
	LetterheadBase64 string         `json:"letterheadBase64,omitempty"`
	CoverBase64      string         `json:"coverBase64"`
	BodyBase64       string         `json:"bodyBase64"`
	TermsBase64      string         `json:"termsBase64,omitempty"`
	StampBase64      string         `json:"stampBase64,omitempty"`
	Variables        map[string]any `json:"variables,omitempty"`
}

// FieldsRequest is the body of POST fields.
type FieldsRequest struct {
	Fields []document.SignatureField `json:"fields"`
}

// FieldsResponse is returned by POST fields.
type FieldsResponse struct {
	DocumentID string `json:"documentId"`
	FieldCount int    `json:"fieldCount"`
	Message    string `json:"message"`
}

// SignatureData is one signature image in a sign request.
type SignatureData struct {
	ImageBase64 string `json:"imageBase64"`
	FieldID     string `json:"fieldId"`
}

// SignRequest is the body of POST sign, keyed by field id.
type SignRequest struct {
	Signatures map[string]SignatureData `json:"signatures"`
}

// DocumentResponse is returned by sign and finalize.
type DocumentResponse struct {
	DocumentID string `json:"documentId"`
	Message    string `json:"message"`
}

// InfoResponse is returned by GET info.
type InfoResponse struct {
	DocumentID string  `json:"documentId"`
	PageCount  int     `json:"pageCount"`
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
}

var stackParts = []string{"letterhead", "cover", "body", "terms", "stamp"}

func (s *Server) stackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

		var (
			parts assembly.Parts
			err   error
		)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			parts, err = decodeStackJSON(r.Body)
		} else {
			parts, err = s.decodeStackForm(r)
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}

		res, err := s.svc.Stack(r.Context(), parts)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, StackResponse{
			DocumentID: res.DocumentID,
			PageCount:  res.PageCount,
			Message:    "Document stacked successfully",
		})
	}
}

func decodeStackJSON(body io.Reader) (assembly.Parts, error) {
	var req StackRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return assembly.Parts{}, requestError("stack", err)
	}
	var parts assembly.Parts
	fields := []struct {
		name    string
		payload string
		dst     *[]byte
	}{
		{"letterhead", req.LetterheadBase64, &parts.Letterhead},
		{"cover", req.CoverBase64, &parts.Cover},
		{"body", req.BodyBase64, &parts.Body},
		{"terms", req.TermsBase64, &parts.Terms},
		{"stamp", req.StampBase64, &parts.Stamp},
	}
	for _, f := range fields {
		if f.payload == "" {
			continue
		}
		data, err := images.DecodePayload(f.payload)
		if err != nil {
			return assembly.Parts{}, docerr.Malformed("stack", fmt.Errorf("%s: %w", f.name, err))
		}
		*f.dst = data
	}
	return parts, nil
}

func (s *Server) decodeStackForm(r *http.Request) (assembly.Parts, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return assembly.Parts{}, requestError("stack", err)
	}
	defer r.MultipartForm.RemoveAll()

	got := make(map[string][]byte, len(stackParts))
	for _, name := range stackParts {
		data, err := formFile(r.MultipartForm, name)
		if err != nil {
			return assembly.Parts{}, docerr.Malformed("stack", fmt.Errorf("%s: %w", name, err))
		}
		got[name] = data
	}
	return assembly.Parts{
		Letterhead: got["letterhead"],
		Cover:      got["cover"],
		Body:       got["body"],
		Terms:      got["terms"],
		Stamp:      got["stamp"],
	}, nil
}

// formFile reads the first file uploaded as name, nil when absent.
func formFile(form *multipart.Form, name string) ([]byte, error) {
	files := form.File[name]
	if len(files) == 0 {
		return nil, nil
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) pdfHandler(disposition, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pdf, err := s.svc.Document(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, filename))
		writeBinary(w, r, "application/pdf", pdf)
	}
}

func (s *Server) saveFieldsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
		var req FieldsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, r, requestError("fields", err))
			return
		}
		n, err := s.svc.SaveFields(r.Context(), id, req.Fields)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, FieldsResponse{
			DocumentID: id,
			FieldCount: n,
			Message:    "Fields saved successfully",
		})
	}
}

func (s *Server) getFieldsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := s.svc.Fields(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, fields)
	}
}

func (s *Server) signHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
		var req SignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, r, requestError("sign", err))
			return
		}
		signatures := make(map[string]string, len(req.Signatures))
		for key, sig := range req.Signatures {
			if key == "" {
				key = sig.FieldID
			}
			signatures[key] = sig.ImageBase64
		}

		signedID, err := s.svc.Sign(r.Context(), chi.URLParam(r, "id"), signatures)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DocumentResponse{DocumentID: signedID, Message: "Document signed successfully"})
	}
}

func (s *Server) finalizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		finalID, err := s.svc.Finalize(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DocumentResponse{DocumentID: finalID, Message: "Document finalized successfully"})
	}
}

func (s *Server) infoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := s.svc.Info(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, InfoResponse{
			DocumentID: info.DocumentID,
			PageCount:  info.PageCount,
			PageWidth:  info.PageWidth,
			PageHeight: info.PageHeight,
		})
	}
}

func (s *Server) pageImageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "pageNumber")
		page, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(w, r, docerr.Malformedf("render", "page number %q is not an integer", raw))
			return
		}
		data, err := s.svc.RenderPage(r.Context(), chi.URLParam(r, "id"), page)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Cache-Control", "max-age=300")
		writeBinary(w, r, "image/png", data)
	}
}

// requestError classifies a body decoding failure.
func requestError(op string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return docerr.Malformed(op, fmt.Errorf("invalid request body: %w", err))
}

// fail writes err with the status of its kind.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, code, err.Error())
}

func statusOf(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "too_large"
	}
	kind := docerr.KindOf(err)
	switch kind {
	case docerr.KindNotFound:
		return http.StatusNotFound, kind.String()
	case docerr.KindMalformedInput, docerr.KindInvalidPageIndex:
		return http.StatusBadRequest, kind.String()
	default:
		return http.StatusInternalServerError, kind.String()
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

// writeBinary writes body with a content digest ETag, answering 304 when
// the client already holds it.
func writeBinary(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	sum := blake2b.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
