package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:        uuid.MustParse("9b2f6a51-7d0e-4c8b-a1f3-2e5d8c7b6a90"),
		Email:     "aigerim@example.com",
		Name:      "Aigerim",
		CreatedAt: time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC),
		Subscription: domain.Subscription{
			Type: domain.SubscriptionFree,
		},
	}
}

type route interface {
	RegisterRoutes(mux *http.ServeMux, mw RouteMiddleware)
}

// serve registers h on a fresh mux without gating middleware and runs the
// request as user (anonymous when nil).
func serve(t *testing.T, h route, user *domain.User, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, RouteMiddleware{})

	return serveMux(mux, user, req)
}

func serveMux(mux *http.ServeMux, user *domain.User, req *http.Request) *httptest.ResponseRecorder {
	if user != nil {
		req = req.WithContext(auth.SetUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	var r io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a form with text fields and, when fileField is
// set, one file part.
func multipartRequest(t *testing.T, target string, fields map[string]string, fileField string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "meal.jpg")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "no error object in %s", rec.Body.String())
	code, _ := e["code"].(string)
	return code
}

// fakeImages records what reached the pipeline and returns a fixed image.
type fakeImages struct {
	img      *domain.Image
	err      error
	calls    int
	raw      []byte
	purpose  domain.ImagePurpose
	isPro    bool
	filename string
}

func (f *fakeImages) ProcessUpload(_ context.Context, r io.Reader, filename string, purpose domain.ImagePurpose, isPro bool) (*domain.Image, error) {
	f.calls++
	f.raw, _ = io.ReadAll(r)
	f.filename, f.purpose, f.isPro = filename, purpose, isPro
	return f.result()
}

func (f *fakeImages) ProcessBase64(_ context.Context, payload string, purpose domain.ImagePurpose, isPro bool) (*domain.Image, error) {
	f.calls++
	f.raw = []byte(payload)
	f.purpose, f.isPro = purpose, isPro
	return f.result()
}

func (f *fakeImages) result() (*domain.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.img != nil {
		return f.img, nil
	}
	return &domain.Image{Data: []byte{0xff, 0xd8, 0xff}, ContentType: "image/jpeg", Width: 10, Height: 10}, nil
}
