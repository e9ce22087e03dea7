package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"memories-backend/internal/apperr"
	"memories-backend/internal/i18n"
	"memories-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, resp ErrorResponse, statusCode int) {
	respondJSON(w, statusCode, resp)
}

var authStatus = map[apperr.AuthCode]int{
	apperr.CodeInvalidCredential: http.StatusUnauthorized,
	apperr.CodeEmailInUse:        http.StatusConflict,
	apperr.CodeWeakPassword:      http.StatusBadRequest,
	apperr.CodeInvalidEmail:      http.StatusBadRequest,
	apperr.CodeUserDisabled:      http.StatusForbidden,
	apperr.CodeUserNotFound:      http.StatusNotFound,
	apperr.CodeSessionExpired:    http.StatusUnauthorized,
}

// classify maps an error to its status code and response body
func classify(err error) (int, ErrorResponse) {
	var (
		authErr       *apperr.AuthError
		validationErr *apperr.ValidationError
		storageErr    *apperr.StorageError
		externalErr   *apperr.ExternalError
		dataErr       *apperr.DataAccessError
	)

	switch {
	case errors.As(err, &authErr):
		status, ok := authStatus[authErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		return status, ErrorResponse{Error: "auth/" + string(authErr.Code), Code: string(authErr.Code)}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{Error: "validation/" + validationErr.Reason, Code: validationErr.Reason, Field: validationErr.Field}
	case errors.Is(err, apperr.ErrConfirmationRequired):
		return http.StatusConflict, ErrorResponse{Error: "confirmation-required", Code: "confirmation-required"}
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not-found", Code: "not-found"}
	case errors.As(err, &storageErr):
		return http.StatusBadGateway, ErrorResponse{Error: "storage", Code: "storage"}
	case errors.As(err, &externalErr):
		return http.StatusBadGateway, ErrorResponse{Error: "external", Code: "external"}
	case errors.As(err, &dataErr):
		return http.StatusInternalServerError, ErrorResponse{Error: "data-access", Code: "data-access"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal", Code: "internal"}
	}
}

// writeError logs err and sends its localized form
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, resp := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	} else {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg(msg)
	}
	resp.Error = i18n.Message(i18n.FromRequest(r), resp.Error)
	respondError(w, resp, status)
}

// decodeJSON decodes the request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Invalid("body", apperr.ReasonInvalid)
	}
	return nil
}

// listParams reads the category filter and page of a list request
func listParams(r *http.Request) (string, int) {
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err == nil {
			page = parsed
		}
	}
	return r.URL.Query().Get("category"), page
}

// confirmed reports whether a destructive request was confirmed with ?confirm=true
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// parseMultipart parses a multipart form of at most maxBytes
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return apperr.Invalid("body", apperr.ReasonInvalid)
	}
	return nil
}

// formUploads opens every file of field. The returned function closes them.
func formUploads(r *http.Request, field string) ([]services.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	if r.MultipartForm == nil {
		return nil, closeAll, nil
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperr.Invalid(field, apperr.ReasonInvalid)
		}
		opened = append(opened, f)
		uploads = append(uploads, services.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}

// formUpload opens the single optional file of field
func formUpload(r *http.Request, field string) (*services.Upload, func(), error) {
	uploads, closeAll, err := formUploads(r, field)
	if err != nil || len(uploads) == 0 {
		return nil, closeAll, err
	}
	return &uploads[0], closeAll, nil
}
