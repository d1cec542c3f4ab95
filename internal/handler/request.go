package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

const (
	// maxJSONBody caps JSON request bodies. Base64 images inflate by a
	// third, so the pro upload ceiling is scaled accordingly.
	maxJSONBody = domain.MaxUploadSize*4/3 + 1<<20

	// maxMultipartBody caps multipart bodies; the image ceiling itself is
	// enforced while staging.
	maxMultipartBody = domain.MaxUploadSize + 1<<20

	// maxFormField caps plain text fields of a multipart form.
	maxFormField = 64 << 10
)

// decodeJSON reads a JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	const op = "handler.decodeJSON"

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return domain.PayloadTooLarge(op, maxErr.Limit+1, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body is required")
		default:
			return domain.Invalid(op, "Request body must be valid JSON")
		}
	}
	return nil
}

// isMultipart reports whether the request carries a multipart form.
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// uploadForm is a streamed multipart form with at most one processed image.
type uploadForm struct {
	Image  *domain.Image
	Fields map[string]string
}

// readUpload streams a multipart form. The part named fileField goes
// through the image pipeline as it arrives; text parts are collected.
// With required set a missing image is rejected.
func readUpload(w http.ResponseWriter, r *http.Request, images service.ImageService, fileField string, purpose domain.ImagePurpose, isPro, required bool) (*uploadForm, error) {
	const op = "handler.readUpload"

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, domain.Invalid(op, "Request must be multipart/form-data")
	}

	form := &uploadForm{Fields: map[string]string{}}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.Invalid(op, "Malformed multipart body")
		}

		name := part.FormName()
		switch {
		case name == fileField && part.FileName() != "":
			if form.Image != nil {
				_ = part.Close()
				return nil, domain.Invalid(op, "Only one image may be uploaded")
			}
			img, err := images.ProcessUpload(r.Context(), part, part.FileName(), purpose, isPro)
			_ = part.Close()
			if err != nil {
				return nil, err
			}
			form.Image = img
		case name != "":
			value, err := io.ReadAll(io.LimitReader(part, maxFormField+1))
			_ = part.Close()
			if err != nil {
				return nil, domain.Invalid(op, "Malformed multipart body")
			}
			if len(value) > maxFormField {
				return nil, domain.Invalid(op, "Form field "+name+" is too long")
			}
			form.Fields[name] = string(value)
		default:
			_ = part.Close()
		}
	}

	if required && form.Image == nil {
		return nil, domain.NewValidationError(op, fileField, "Image file is required")
	}
	return form, nil
}

// pathID parses a UUID path value.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.Invalid("handler.pathID", "Invalid "+name)
	}
	return id, nil
}

// pageParams reads limit/offset query parameters. Bad values fall back to
// the defaults.
func pageParams(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// isProRequest reports the caller's plan as resolved by the limit gate, or
// by the auth middleware on ungated routes.
func isProRequest(r *http.Request) bool {
	if info := auth.GetLimitInfo(r.Context()); info != nil {
		return info.IsPro
	}
	if user := auth.GetUser(r.Context()); user != nil {
		return user.Subscription.IsPro()
	}
	return false
}
