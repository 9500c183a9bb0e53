package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tressa/tressa/internal/apperror"
	"github.com/tressa/tressa/internal/guard"
	"github.com/tressa/tressa/internal/model"
	"github.com/tressa/tressa/internal/repository"
)

// ---------------------------------------------------------------------------
// Mock repository
// ---------------------------------------------------------------------------

// mockTressRepo is an in-memory TressRepository. It mirrors the real
// repository's expiry semantics: reads other than GetByIDIncludingExpired
// treat expired rows as absent.
type mockTressRepo struct {
	mu      sync.Mutex
	tresses map[string]model.Tress
	nextID  int
	now     func() time.Time

	createErr error
}

func newMockTressRepo(now func() time.Time) *mockTressRepo {
	return &mockTressRepo{
		tresses: make(map[string]model.Tress),
		now:     now,
	}
}

var _ repository.TressRepository = (*mockTressRepo)(nil)

func (m *mockTressRepo) Create(ctx context.Context, tress *model.Tress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	tress.ID = fmt.Sprintf("tress-%d", m.nextID)
	tress.CreatedAt = m.now().UTC()
	m.tresses[tress.ID] = *tress
	return nil
}

func (m *mockTressRepo) GetByID(ctx context.Context, id string) (*model.Tress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tresses[id]
	if !ok || t.Expired(m.now()) {
		return nil, apperror.NotFound("tress", id)
	}
	out := t
	return &out, nil
}

func (m *mockTressRepo) GetByIDIncludingExpired(ctx context.Context, id string) (*model.Tress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tresses[id]
	if !ok {
		return nil, apperror.NotFound("tress", id)
	}
	out := t
	return &out, nil
}

func (m *mockTressRepo) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.Tress, error) {
	return m.list(func(t model.Tress) bool { return t.IsPublic }, opts), nil
}

func (m *mockTressRepo) ListOwnedBy(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Tress, error) {
	return m.list(func(t model.Tress) bool {
		return t.OwnerID != nil && *t.OwnerID == ownerID
	}, opts), nil
}

func (m *mockTressRepo) CountPublic(ctx context.Context) (int, error) {
	return len(m.list(func(t model.Tress) bool { return t.IsPublic },
		repository.ListOptions{Limit: len(m.tresses)})), nil
}

func (m *mockTressRepo) CountOwnedBy(ctx context.Context, ownerID string) (int, error) {
	return len(m.list(func(t model.Tress) bool {
		return t.OwnerID != nil && *t.OwnerID == ownerID
	}, repository.ListOptions{Limit: len(m.tresses)})), nil
}

func (m *mockTressRepo) Update(ctx context.Context, tress *model.Tress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tresses[tress.ID]; !ok {
		return apperror.NotFound("tress", tress.ID)
	}
	m.tresses[tress.ID] = *tress
	return nil
}

func (m *mockTressRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tresses[id]; !ok {
		return apperror.NotFound("tress", id)
	}
	delete(m.tresses, id)
	return nil
}

func (m *mockTressRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tresses {
		if t.Expired(now) {
			delete(m.tresses, id)
			n++
		}
	}
	return n, nil
}

func (m *mockTressRepo) list(keep func(model.Tress) bool, opts repository.ListOptions) []model.Tress {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()

	out := make([]model.Tress, 0)
	for _, t := range m.tresses {
		if keep(t) && !t.Expired(now) {
			out = append(out, t)
		}
	}
	// Newest first, like the real repository's ORDER BY created_at DESC.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if opts.Offset >= len(out) {
		return []model.Tress{}
	}
	out = out[opts.Offset:]
	if opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out
}

// ---------------------------------------------------------------------------
// Test fixtures
// ---------------------------------------------------------------------------

var testStart = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*TressService, *mockTressRepo) {
	t.Helper()
	repo := newMockTressRepo(func() time.Time { return testStart })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewTressService(repo, logger)
	svc.now = func() time.Time { return testStart }
	return svc, repo
}

func testUser(id, username string) *model.User {
	return &model.User{ID: id, Username: username}
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_AnonymousDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	tress, err := svc.Create(context.Background(), CreateInput{
		Title:   "My snippet",
		Content: "hello world",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tress.OwnerID != nil {
		t.Error("anonymous tress should have no owner ID")
	}
	if tress.OwnerUsername != model.AnonymousUsername {
		t.Errorf("OwnerUsername = %q, want %q", tress.OwnerUsername, model.AnonymousUsername)
	}
	if !tress.IsPublic {
		t.Error("IsPublic should default to true")
	}
	if tress.ExpiresAt == nil {
		t.Fatal("anonymous tress should get a default expiry")
	}
	want := testStart.Add(DefaultAnonymousExpiryDays * 24 * time.Hour)
	if !tress.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v (30 days out)", tress.ExpiresAt, want)
	}
}

func TestCreate_AuthenticatedDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	owner := testUser("u1", "alice")

	tress, err := svc.Create(context.Background(), CreateInput{
		Title:   "My snippet",
		Content: "hello world",
	}, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tress.OwnerID == nil || *tress.OwnerID != "u1" {
		t.Errorf("OwnerID = %v, want u1", tress.OwnerID)
	}
	if tress.OwnerUsername != "alice" {
		t.Errorf("OwnerUsername = %q, want alice", tress.OwnerUsername)
	}
	if tress.ExpiresAt != nil {
		t.Errorf("authenticated tress should default to no expiry, got %v", tress.ExpiresAt)
	}
}

func TestCreate_ExplicitExpiry(t *testing.T) {
	svc, _ := newTestService(t)

	tress, err := svc.Create(context.Background(), CreateInput{
		Title:         "Short-lived",
		Content:       "gone in a week",
		ExpiresInDays: intPtr(7),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := testStart.Add(7 * 24 * time.Hour)
	if tress.ExpiresAt == nil || !tress.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", tress.ExpiresAt, want)
	}
}

func TestCreate_ExpiryBounds(t *testing.T) {
	svc, _ := newTestService(t)

	for _, days := range []int{0, -1, 366} {
		_, err := svc.Create(context.Background(), CreateInput{
			Title:         "Bad expiry",
			Content:       "x",
			ExpiresInDays: intPtr(days),
		}, testUser("u1", "alice"))
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("days=%d: want validation error, got %v", days, err)
		}
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"empty title", CreateInput{Title: "", Content: "x"}},
		{"whitespace title", CreateInput{Title: "   ", Content: "x"}},
		{"overlong title", CreateInput{Title: strings.Repeat("a", MaxTitleLength+1), Content: "x"}},
		{"empty content", CreateInput{Title: "t", Content: ""}},
		{"language mismatch", CreateInput{Title: "t", Content: "just prose", Language: "python"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.input, nil); !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("want validation error, got %v", err)
			}
		})
	}
}

func TestCreate_SizeCeilings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	oversized := strings.Repeat("a", guard.MaxContentSizeAnonymous+1)

	// Over the anonymous ceiling, anonymously: rejected.
	_, err := svc.Create(ctx, CreateInput{Title: "big", Content: oversized}, nil)
	if !errors.Is(err, apperror.ErrPayloadTooLarge) {
		t.Errorf("anonymous oversize: want payload-too-large, got %v", err)
	}

	// The same content from an authenticated user fits the larger budget.
	if _, err := svc.Create(ctx, CreateInput{Title: "big", Content: oversized}, testUser("u1", "alice")); err != nil {
		t.Errorf("authenticated: unexpected error %v", err)
	}
}

func TestCreate_SanitizesContent(t *testing.T) {
	svc, _ := newTestService(t)

	tress, err := svc.Create(context.Background(), CreateInput{
		Title:   "XSS attempt",
		Content: `hi<script>alert("x")</script> & <b>bold</b>`,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(tress.Content, "<script") {
		t.Errorf("stored content still contains a script tag: %q", tress.Content)
	}
	want := "hi &amp; &lt;b&gt;bold&lt;/b&gt;"
	if tress.Content != want {
		t.Errorf("Content = %q, want %q", tress.Content, want)
	}
}

func TestCreate_RepositoryFailure(t *testing.T) {
	svc, repo := newTestService(t)
	repo.createErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), CreateInput{Title: "t", Content: "x"}, nil)
	if err == nil {
		t.Fatal("want an error when the repository fails")
	}
	// Infrastructure failures must not masquerade as client errors.
	if errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("repository failure surfaced as a client error: %v", err)
	}
}

func TestCreate_LanguageCheckedAgainstSubmittedText(t *testing.T) {
	svc, _ := newTestService(t)

	// "<div" only exists pre-sanitization, so this passing proves the
	// language check sees the submitted text, not the escaped copy.
	tress, err := svc.Create(context.Background(), CreateInput{
		Title:    "markup",
		Content:  "<div>hello</div>",
		Language: "HTML",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tress.Language != "html" {
		t.Errorf("Language = %q, want lowercased html", tress.Language)
	}
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestGetByID_Visibility(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := testUser("u1", "alice")

	private, err := svc.Create(ctx, CreateInput{
		Title: "secret", Content: "x", IsPublic: boolPtr(false),
	}, owner)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Owner reads it fine.
	if _, err := svc.GetByID(ctx, private.ID, "u1"); err != nil {
		t.Errorf("owner read: unexpected error %v", err)
	}

	// Anonymous and non-owner callers are forbidden.
	if _, err := svc.GetByID(ctx, private.ID, ""); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("anonymous read: want forbidden, got %v", err)
	}
	if _, err := svc.GetByID(ctx, private.ID, "u2"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-owner read: want forbidden, got %v", err)
	}
}

func TestGetByID_ExpiredIsNotFound(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tress, err := svc.Create(ctx, CreateInput{
		Title: "fleeting", Content: "x", ExpiresInDays: intPtr(1),
	}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Move the clock past the expiry. The row is still in the store, but
	// reads must behave exactly as if it never existed.
	later := testStart.Add(48 * time.Hour)
	repo.now = func() time.Time { return later }
	svc.now = repo.now

	if _, err := svc.GetByID(ctx, tress.ID, ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expired read: want not-found, got %v", err)
	}
}

func TestGetByID_Missing(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.GetByID(context.Background(), "nope", ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("want not-found, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Listing and pagination
// ---------------------------------------------------------------------------

func seedTresses(t *testing.T, svc *TressService, repo *mockTressRepo, n int, owner *model.User) {
	t.Helper()
	base := testStart
	for i := 0; i < n; i++ {
		// Distinct creation times so ordering is deterministic.
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		if _, err := svc.Create(context.Background(), CreateInput{
			Title:   fmt.Sprintf("tress %d", i),
			Content: "content",
		}, owner); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	repo.now = func() time.Time { return base }
}

func TestListPublic_ExcludesPrivate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := testUser("u1", "alice")

	if _, err := svc.Create(ctx, CreateInput{Title: "pub", Content: "x"}, owner); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, CreateInput{Title: "priv", Content: "x", IsPublic: boolPtr(false)}, owner); err != nil {
		t.Fatal(err)
	}

	tresses, err := svc.ListPublic(ctx, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tresses) != 1 || tresses[0].Title != "pub" {
		t.Errorf("got %d tresses, want just the public one", len(tresses))
	}
}

func TestListPublic_ClampsParameters(t *testing.T) {
	svc, repo := newTestService(t)
	seedTresses(t, svc, repo, 5, nil)

	// Negative skip and zero limit clamp to 0 and the default.
	tresses, err := svc.ListPublic(context.Background(), -3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tresses) != 5 {
		t.Errorf("got %d tresses, want 5", len(tresses))
	}
}

func TestPagePublic_Math(t *testing.T) {
	svc, repo := newTestService(t)
	seedTresses(t, svc, repo, 45, nil)
	ctx := context.Background()

	page1, err := svc.PagePublic(ctx, 1, 20)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if page1.Total != 45 || page1.TotalPages != 3 {
		t.Errorf("total=%d totalPages=%d, want 45 and 3", page1.Total, page1.TotalPages)
	}
	if len(page1.Items) != 20 {
		t.Errorf("page 1 has %d items, want 20", len(page1.Items))
	}
	if !page1.HasNext || page1.HasPrev {
		t.Errorf("page 1: hasNext=%v hasPrev=%v, want true/false", page1.HasNext, page1.HasPrev)
	}

	page3, err := svc.PagePublic(ctx, 3, 20)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3.Items) != 5 {
		t.Errorf("page 3 has %d items, want the 5 leftovers", len(page3.Items))
	}
	if page3.HasNext || !page3.HasPrev {
		t.Errorf("page 3: hasNext=%v hasPrev=%v, want false/true", page3.HasNext, page3.HasPrev)
	}

	// Newest first across the page boundary.
	if page1.Items[0].Title != "tress 44" {
		t.Errorf("first item = %q, want the newest (tress 44)", page1.Items[0].Title)
	}
}

func TestPagePublic_BeyondLastPage(t *testing.T) {
	svc, repo := newTestService(t)
	seedTresses(t, svc, repo, 5, nil)

	page, err := svc.PagePublic(context.Background(), 9, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("got %d items past the end, want an empty page", len(page.Items))
	}
	if page.HasNext {
		t.Error("page past the end should not report hasNext")
	}
}

func TestPagePublic_InvalidParameters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct{ page, pageSize int }{
		{0, 20}, {-1, 20}, {1, 0}, {1, 101},
	}
	for _, c := range cases {
		if _, err := svc.PagePublic(ctx, c.page, c.pageSize); !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("page=%d pageSize=%d: want validation error, got %v", c.page, c.pageSize, err)
		}
	}
}

func TestPagePublic_TruncatesPreviews(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	long := strings.Repeat("x", model.PreviewLength+50)
	if _, err := svc.Create(ctx, CreateInput{Title: "long", Content: long}, nil); err != nil {
		t.Fatal(err)
	}

	page, err := svc.PagePublic(ctx, 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := strings.Repeat("x", model.PreviewLength) + "..."
	if page.Items[0].ContentPreview != want {
		t.Errorf("preview not truncated to %d chars with ellipsis", model.PreviewLength)
	}
}

func TestPageOwned_OnlyOwnersTresses(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Title: "mine", Content: "x"}, testUser("u1", "alice")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, CreateInput{Title: "theirs", Content: "x"}, testUser("u2", "bob")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, CreateInput{Title: "nobody's", Content: "x"}, nil); err != nil {
		t.Fatal(err)
	}

	page, err := svc.PageOwned(ctx, "u1", 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].Title != "mine" {
		t.Errorf("got total=%d items=%d, want exactly the owner's one tress", page.Total, len(page.Items))
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_OwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tress, err := svc.Create(ctx, CreateInput{Title: "orig", Content: "x"}, testUser("u1", "alice"))
	if err != nil {
		t.Fatal(err)
	}

	in := UpdateInput{Title: "changed", Content: "y"}

	if _, err := svc.Update(ctx, tress.ID, in, "u2"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-owner update: want forbidden, got %v", err)
	}

	updated, err := svc.Update(ctx, tress.ID, in, "u1")
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "changed" || updated.Content != "y" {
		t.Errorf("update not applied: %+v", updated)
	}
}

func TestUpdate_AnonymousTressIsImmutable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tress, err := svc.Create(ctx, CreateInput{Title: "orphan", Content: "x"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	// No owner means nobody can ever pass the ownership check.
	_, err = svc.Update(ctx, tress.ID, UpdateInput{Title: "t", Content: "y"}, "u1")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("want forbidden, got %v", err)
	}
}

func TestUpdate_PreservesExpiryWhenOmitted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tress, err := svc.Create(ctx, CreateInput{
		Title: "t", Content: "x", ExpiresInDays: intPtr(10),
	}, testUser("u1", "alice"))
	if err != nil {
		t.Fatal(err)
	}
	originalExpiry := *tress.ExpiresAt

	updated, err := svc.Update(ctx, tress.ID, UpdateInput{Title: "t2", Content: "y"}, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ExpiresAt == nil || !updated.ExpiresAt.Equal(originalExpiry) {
		t.Errorf("ExpiresAt = %v, want the original %v preserved", updated.ExpiresAt, originalExpiry)
	}
}

func TestUpdate_RecomputesExpiryWhenSupplied(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tress, err := svc.Create(ctx, CreateInput{
		Title: "t", Content: "x", ExpiresInDays: intPtr(10),
	}, testUser("u1", "alice"))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, tress.ID, UpdateInput{
		Title: "t", Content: "x", ExpiresInDays: intPtr(90),
	}, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := testStart.Add(90 * 24 * time.Hour)
	if updated.ExpiresAt == nil || !updated.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", updated.ExpiresAt, want)
	}
}

func TestUpdate_OwnerIdentityImmutable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tress, err := svc.Create(ctx, CreateInput{Title: "t", Content: "x"}, testUser("u1", "alice"))
	if err != nil {
		t.Fatal(err)
	}
	createdAt := tress.CreatedAt

	updated, err := svc.Update(ctx, tress.ID, UpdateInput{Title: "t2", Content: "y"}, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if updated.OwnerID == nil || *updated.OwnerID != "u1" || updated.OwnerUsername != "alice" {
		t.Errorf("owner identity changed on update: %+v", updated)
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", createdAt, updated.CreatedAt)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_OwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tress, err := svc.Create(ctx, CreateInput{Title: "t", Content: "x"}, testUser("u1", "alice"))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, tress.ID, "u2"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-owner delete: want forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, tress.ID, "u1"); err != nil {
		t.Errorf("owner delete: unexpected error %v", err)
	}
	if _, err := svc.GetByID(ctx, tress.ID, "u1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: want not-found, got %v", err)
	}
}

func TestDelete_ExpiredButOwnedStillDeletable(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tress, err := svc.Create(ctx, CreateInput{
		Title: "t", Content: "x", ExpiresInDays: intPtr(1),
	}, testUser("u1", "alice"))
	if err != nil {
		t.Fatal(err)
	}

	// Expired but not yet swept: regular reads miss it, delete still works.
	later := testStart.Add(48 * time.Hour)
	repo.now = func() time.Time { return later }
	svc.now = repo.now

	if _, err := svc.GetByID(ctx, tress.ID, "u1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expired read should be not-found, got %v", err)
	}
	if err := svc.Delete(ctx, tress.ID, "u1"); err != nil {
		t.Errorf("owner should be able to delete an expired tress, got %v", err)
	}
}

func TestDelete_Missing(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.Delete(context.Background(), "nope", "u1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("want not-found, got %v", err)
	}
}
