package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"records-backend/internal/classify"
	"records-backend/internal/documents"
	"records-backend/internal/extract"
	"records-backend/internal/quota"
)

type fakeStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	saveCount   int
	deleteCount int
	failSave    bool
	failDelete  bool
	respectCtx  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Save(_ context.Context, ownerID, fileName, _ string, r io.Reader) (string, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCount++
	if s.failSave {
		return "", 0, errors.New("store unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	key := fmt.Sprintf("%s/%d-%s", ownerID, s.saveCount, fileName)
	s.objects[key] = data
	return key, int64(len(data)), nil
}

func (s *fakeStore) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) Delete(ctx context.Context, storageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCount++
	if s.respectCtx {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if s.failDelete {
		return errors.New("delete failed")
	}
	delete(s.objects, storageKey)
	return nil
}

func (s *fakeStore) SignedURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

func (s *fakeStore) stats() (saves, deletes, held int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCount, s.deleteCount, len(s.objects)
}

type fakeLLM struct {
	response string
	err      error
}

func (f fakeLLM) ClassifyDocument(_ context.Context, _ string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.response), nil
}

type failingCreateRepo struct {
	*documents.MemoryRepo
}

func (r *failingCreateRepo) Create(_ context.Context, _ documents.Document) error {
	return errors.New("insert failed")
}

// cancelingCreateRepo simulates a client disconnect landing mid-insert.
type cancelingCreateRepo struct {
	*documents.MemoryRepo
	cancel context.CancelFunc
}

func (r *cancelingCreateRepo) Create(ctx context.Context, _ documents.Document) error {
	r.cancel()
	return ctx.Err()
}

const validClassification = `{
	"category": "contrato",
	"confidence": 0.9,
	"tags": ["legal", "firmado"],
	"summary": "Contrato de servicios.",
	"language": "es",
	"priority": "high",
	"classificationLevel": "confidential"
}`

func newService(repo documents.Repo, store *fakeStore, quotaStore *quota.MemoryStore, llm classify.Client) *Service {
	return &Service{
		Repo:           repo,
		Store:          store,
		Quota:          quota.NewLedger(quotaStore),
		Extractor:      &extract.Extractor{},
		Classifier:     &classify.Classifier{LLM: llm, Timeout: time.Second},
		MaxUploadBytes: 1 << 20,
	}
}

func textInput(owner, fileName string, data []byte) Input {
	return Input{
		OwnerID:  owner,
		FileName: fileName,
		MimeType: "text/plain",
		Data:     data,
	}
}

func TestIngestSuccess(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	quotaStore := quota.NewMemoryStore(1 << 20)
	svc := newService(repo, store, quotaStore, fakeLLM{response: validClassification})

	data := []byte("acta de la reunion del consejo")
	doc, err := svc.Ingest(context.Background(), textInput("owner-1", "acta.txt", data))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if doc.ID == "" || doc.StorageKey == "" {
		t.Fatalf("document missing identity: %+v", doc)
	}
	if doc.Category != "contrato" || doc.Confidence != 0.9 {
		t.Fatalf("classification = %q/%v, want contrato/0.9", doc.Category, doc.Confidence)
	}
	if doc.StoredSizeBytes != int64(len(data)) {
		t.Fatalf("stored bytes = %d, want %d", doc.StoredSizeBytes, len(data))
	}

	persisted, err := repo.GetByID(context.Background(), "owner-1", doc.ID)
	if err != nil {
		t.Fatalf("persisted document missing: %v", err)
	}
	if persisted.ContentHash != doc.ContentHash {
		t.Fatal("persisted hash mismatch")
	}

	account, err := quotaStore.Get(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("quota get: %v", err)
	}
	if account.UsedBytes != int64(len(data)) {
		t.Fatalf("quota used = %d, want %d", account.UsedBytes, len(data))
	}
	if repo.OwnerCount("owner-1") != 1 {
		t.Fatalf("owner counter = %d, want 1", repo.OwnerCount("owner-1"))
	}
}

func TestIngestRejectsDisallowedMimeType(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{response: validClassification})

	in := textInput("owner-1", "payload.bin", []byte("x"))
	in.MimeType = "application/x-executable"

	_, err := svc.Ingest(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if saves, _, _ := store.stats(); saves != 0 {
		t.Fatalf("store writes = %d, want 0", saves)
	}
}

func TestIngestDuplicateContent(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{response: validClassification})

	data := []byte("contenido identico")
	first, err := svc.Ingest(context.Background(), textInput("owner-1", "uno.txt", data))
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	_, err = svc.Ingest(context.Background(), textInput("owner-1", "dos.txt", data))
	var dup *DuplicateContentError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateContentError", err)
	}
	if dup.ExistingID != first.ID {
		t.Fatalf("existing id = %s, want %s", dup.ExistingID, first.ID)
	}
	if saves, _, _ := store.stats(); saves != 1 {
		t.Fatalf("store writes = %d, want 1", saves)
	}
}

func TestIngestEntityScopedSkipsDedup(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{response: validClassification})

	data := []byte("plantilla compartida entre expedientes")
	in := textInput("owner-1", "plantilla.txt", data)
	in.Class = documents.ClassEntityScoped

	if _, err := svc.Ingest(context.Background(), in); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	in.FileName = "plantilla-2.txt"
	if _, err := svc.Ingest(context.Background(), in); err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
}

func TestIngestQuotaExceededWritesNothing(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	quotaStore := quota.NewMemoryStore(1 << 20)
	quotaStore.SetLimit("owner-1", 10)
	svc := newService(repo, store, quotaStore, fakeLLM{response: validClassification})

	_, err := svc.Ingest(context.Background(), textInput("owner-1", "grande.txt", []byte("mas de diez bytes de contenido")))
	var qerr *QuotaExceededError
	if !errors.As(err, &qerr) {
		t.Fatalf("err = %v, want QuotaExceededError", err)
	}
	if qerr.AvailableBytes != 10 {
		t.Fatalf("available = %d, want 10", qerr.AvailableBytes)
	}
	if saves, _, _ := store.stats(); saves != 0 {
		t.Fatalf("store writes = %d, want 0", saves)
	}
}

func TestIngestPersistenceFailureCompensates(t *testing.T) {
	repo := &failingCreateRepo{MemoryRepo: documents.NewMemoryRepo()}
	store := newFakeStore()
	quotaStore := quota.NewMemoryStore(1 << 20)
	svc := newService(repo, store, quotaStore, fakeLLM{response: validClassification})

	_, err := svc.Ingest(context.Background(), textInput("owner-1", "acta.txt", []byte("contenido")))
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}

	saves, deletes, held := store.stats()
	if saves != 1 {
		t.Fatalf("store writes = %d, want 1", saves)
	}
	if deletes != 1 {
		t.Fatalf("compensating deletes = %d, want exactly 1", deletes)
	}
	if held != 0 {
		t.Fatalf("orphaned objects = %d, want 0", held)
	}

	account, err := quotaStore.Get(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("quota get: %v", err)
	}
	if account.UsedBytes != 0 {
		t.Fatalf("quota used = %d, want 0", account.UsedBytes)
	}
}

func TestIngestCompensationRetriesOnce(t *testing.T) {
	repo := &failingCreateRepo{MemoryRepo: documents.NewMemoryRepo()}
	store := newFakeStore()
	store.failDelete = true
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{response: validClassification})

	_, err := svc.Ingest(context.Background(), textInput("owner-1", "acta.txt", []byte("contenido")))
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if _, deletes, _ := store.stats(); deletes != 2 {
		t.Fatalf("delete attempts = %d, want 2 (original plus one retry)", deletes)
	}
}

func TestIngestCompensationSurvivesRequestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &cancelingCreateRepo{MemoryRepo: documents.NewMemoryRepo(), cancel: cancel}
	store := newFakeStore()
	store.respectCtx = true
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{response: validClassification})

	_, err := svc.Ingest(ctx, textInput("owner-1", "acta.txt", []byte("contenido")))
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}

	saves, deletes, held := store.stats()
	if saves != 1 {
		t.Fatalf("store writes = %d, want 1", saves)
	}
	if deletes != 1 {
		t.Fatalf("compensating deletes = %d, want 1", deletes)
	}
	if held != 0 {
		t.Fatalf("orphaned objects = %d, want 0 after cancelled request", held)
	}
}

func TestIngestCancelledBeforeUploadIsNotStorageError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{response: validClassification})

	_, err := svc.Ingest(ctx, textInput("owner-1", "acta.txt", []byte("contenido")))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	var serr *StorageError
	if errors.As(err, &serr) {
		t.Fatalf("cancellation misreported as StorageError: %v", err)
	}
	if saves, _, _ := store.stats(); saves != 0 {
		t.Fatalf("store writes = %d, want 0", saves)
	}
}

func TestIngestClassificationFallbackStillSucceeds(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{err: errors.New("service down")})

	doc, err := svc.Ingest(context.Background(), textInput("owner-1", "acta.txt", []byte("contenido")))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.Category != "otro" {
		t.Fatalf("category = %q, want otro", doc.Category)
	}
	if len(doc.Tags) != 1 || doc.Tags[0] != "sin-clasificar" {
		t.Fatalf("tags = %v, want [sin-clasificar]", doc.Tags)
	}
}

func TestIngestConcurrentUploadsExactlyOneQuotaRejected(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	quotaStore := quota.NewMemoryStore(1 << 20)
	quotaStore.SetLimit("owner-1", 1000)
	svc := newService(repo, store, quotaStore, fakeLLM{response: validClassification})

	payload := func(fill byte) []byte {
		data := make([]byte, 600)
		for i := range data {
			data[i] = fill
		}
		return data
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i, fill := range []byte{'a', 'b'} {
		wg.Add(1)
		go func(i int, fill byte) {
			defer wg.Done()
			_, err := svc.Ingest(context.Background(), textInput("owner-1", fmt.Sprintf("doc-%d.txt", i), payload(fill)))
			errs <- err
		}(i, fill)
	}
	wg.Wait()
	close(errs)

	var rejected, succeeded int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var qerr *QuotaExceededError
		if errors.As(err, &qerr) {
			rejected++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("succeeded = %d, rejected = %d, want exactly one of each", succeeded, rejected)
	}
}

func TestIngestExpirationFromTypePolicy(t *testing.T) {
	repo := documents.NewMemoryRepo()
	repo.SeedType(documents.DocumentType{
		ID:            "permiso-anual",
		Name:          "Permiso anual",
		HasExpiration: true,
		RenewalPeriod: 1,
		RenewalUnit:   documents.UnitYears,
	})
	store := newFakeStore()
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{response: validClassification})

	in := textInput("owner-1", "permiso.txt", []byte("permiso de operacion"))
	in.TypeID = "permiso-anual"
	in.EffectiveDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	doc, err := svc.Ingest(context.Background(), in)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.ExpirationDate == nil {
		t.Fatal("expected expiration date")
	}
	want := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !doc.ExpirationDate.Equal(want) {
		t.Fatalf("expiration = %v, want %v", doc.ExpirationDate, want)
	}
}

func TestIngestUnknownTypeRejected(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	svc := newService(repo, store, quota.NewMemoryStore(1<<20), fakeLLM{response: validClassification})

	in := textInput("owner-1", "permiso.txt", []byte("contenido"))
	in.TypeID = "no-such-type"

	_, err := svc.Ingest(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestDeleteReleasesQuota(t *testing.T) {
	repo := documents.NewMemoryRepo()
	store := newFakeStore()
	quotaStore := quota.NewMemoryStore(1 << 20)
	svc := newService(repo, store, quotaStore, fakeLLM{response: validClassification})

	data := []byte("documento temporal")
	doc, err := svc.Ingest(context.Background(), textInput("owner-1", "temp.txt", data))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := svc.Delete(context.Background(), "owner-1", doc.ID, "req-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.GetByID(context.Background(), "owner-1", doc.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("document still readable after delete: %v", err)
	}
	account, err := quotaStore.Get(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("quota get: %v", err)
	}
	if account.UsedBytes != 0 {
		t.Fatalf("quota used = %d, want 0 after release", account.UsedBytes)
	}
	if _, deletes, _ := store.stats(); deletes != 1 {
		t.Fatalf("object deletes = %d, want 1", deletes)
	}
}
