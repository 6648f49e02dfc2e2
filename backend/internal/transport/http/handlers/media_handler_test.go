package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mediasvc "github.com/kaze3114/castket/backend/internal/services/media"
	"github.com/kaze3114/castket/backend/internal/transport/http/dto"
)

type objectStorageStub struct{}

func (objectStorageStub) EnsureBucket(context.Context) error { return nil }

func (objectStorageStub) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.example/upload/" + key + "?sig=1", nil
}

func (objectStorageStub) GetObject(context.Context, string, int64) ([]byte, string, error) {
	return nil, "", nil
}

func TestPrepareUpload(t *testing.T) {
	h := NewMediaHandler(mediasvc.NewService(objectStorageStub{}, mediasvc.Config{PublicURL: "https://pub.example.r2.dev"}))

	req := withUser(httptest.NewRequest(http.MethodPost, "/v1/uploads", jsonBody(t, map[string]string{"content_type": "image/webp"})))
	rr := httptest.NewRecorder()
	h.PrepareUpload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var payload dto.UploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasSuffix(payload.ObjectKey, ".webp") {
		t.Fatalf("unexpected object key: %q", payload.ObjectKey)
	}
	if payload.PublicURL != "https://pub.example.r2.dev/"+payload.ObjectKey {
		t.Fatalf("unexpected public url: %q", payload.PublicURL)
	}
}

func TestPrepareUploadRejectsUnsupportedType(t *testing.T) {
	h := NewMediaHandler(mediasvc.NewService(objectStorageStub{}, mediasvc.Config{PublicURL: "https://pub.example.r2.dev"}))

	req := withUser(httptest.NewRequest(http.MethodPost, "/v1/uploads", jsonBody(t, map[string]string{"content_type": "application/pdf"})))
	rr := httptest.NewRecorder()
	h.PrepareUpload(rr, req)

	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnsupportedMediaType)
	}
}
