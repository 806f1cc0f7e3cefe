package documents_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"records-backend/internal/bootstrap"
	"records-backend/internal/shared/config"
)

func buildTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:                   "0",
		Env:                    "development",
		ObjectStoreType:        "local",
		LocalStoreDir:          t.TempDir(),
		QuotaDefaultLimitBytes: 1 << 20,
		MaxUploadBytes:         1 << 20,
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app.Router
}

func multipartBody(t *testing.T, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func upload(t *testing.T, router *gin.Engine, owner, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fileName, "text/plain", content)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Owner-Id", owner)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestUploadListAndDownload(t *testing.T) {
	router := buildTestRouter(t)

	resp := upload(t, router, "owner-1", "acta.txt", []byte("hola mundo"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", resp.Code, resp.Body.String())
	}

	var created struct {
		DocumentID string   `json:"documentId"`
		Category   string   `json:"category"`
		Tags       []string `json:"tags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.DocumentID == "" {
		t.Fatal("expected documentId")
	}
	// No classifier configured, so the fallback applies.
	if created.Category != "otro" {
		t.Fatalf("category = %q, want otro", created.Category)
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	reqList.Header.Set("X-Owner-Id", "owner-1")
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)
	if respList.Code != http.StatusOK {
		t.Fatalf("list status = %d", respList.Code)
	}
	var listing struct {
		Documents []json.RawMessage `json:"documents"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&listing); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listing.Documents) != 1 {
		t.Fatalf("listed %d documents, want 1", len(listing.Documents))
	}

	// Local store has no signed URLs, so download streams the bytes.
	reqDl := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID+"/download", nil)
	reqDl.Header.Set("X-Owner-Id", "owner-1")
	respDl := httptest.NewRecorder()
	router.ServeHTTP(respDl, reqDl)
	if respDl.Code != http.StatusOK {
		t.Fatalf("download status = %d", respDl.Code)
	}
	streamed, _ := io.ReadAll(respDl.Body)
	if string(streamed) != "hola mundo" {
		t.Fatalf("downloaded %q, want original content", streamed)
	}
}

func TestUploadDuplicateRejected(t *testing.T) {
	router := buildTestRouter(t)

	if resp := upload(t, router, "owner-1", "uno.txt", []byte("contenido")); resp.Code != http.StatusCreated {
		t.Fatalf("first upload status = %d", resp.Code)
	}
	resp := upload(t, router, "owner-1", "dos.txt", []byte("contenido"))
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate upload status = %d, want 409", resp.Code)
	}
}

func TestDeleteThenFetchReturnsNotFound(t *testing.T) {
	router := buildTestRouter(t)

	resp := upload(t, router, "owner-1", "temp.txt", []byte("temporal"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.Code)
	}
	var created struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	reqDel := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+created.DocumentID, nil)
	reqDel.Header.Set("X-Owner-Id", "owner-1")
	respDel := httptest.NewRecorder()
	router.ServeHTTP(respDel, reqDel)
	if respDel.Code != http.StatusOK {
		t.Fatalf("delete status = %d", respDel.Code)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil)
	reqGet.Header.Set("X-Owner-Id", "owner-1")
	respGet := httptest.NewRecorder()
	router.ServeHTTP(respGet, reqGet)
	if respGet.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", respGet.Code)
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	router := buildTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestRenewalRoutesEmpty(t *testing.T) {
	router := buildTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/renewals/expiring?days=30", nil)
	req.Header.Set("X-Owner-Id", "owner-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expiring status = %d", resp.Code)
	}

	var payload struct {
		Expiring []json.RawMessage `json:"expiring"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Expiring) != 0 {
		t.Fatalf("expiring = %d entries, want 0", len(payload.Expiring))
	}
}
