package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/adapters/youtube"
	"creator-dashboard/internal/domain"
)

type stubAccountRepo struct {
	upserted   []string
	lastPatch  domain.AccountPatch
	deleted    int64
	totals     domain.AccountAggregate
	deleteErr  error
	lastUpsert domain.Account
}

func (s *stubAccountRepo) UpsertAccount(_ context.Context, ownerID int64, platform domain.Platform, externalID string, patch domain.AccountPatch) (domain.Account, bool, error) {
	s.upserted = append(s.upserted, externalID)
	s.lastPatch = patch
	s.lastUpsert = domain.Account{ID: "acc-1", OwnerID: ownerID, Platform: platform, ExternalID: externalID, URL: patch.URL, Handle: patch.Handle}
	return s.lastUpsert, true, nil
}
func (s *stubAccountRepo) GetAccount(context.Context, int64, string) (domain.Account, error) {
	return s.lastUpsert, nil
}
func (s *stubAccountRepo) ListAccounts(context.Context, int64, domain.Platform) ([]domain.Account, error) {
	return nil, nil
}
func (s *stubAccountRepo) SaveFetchResult(context.Context, string, domain.ContentKind, string, *domain.NormalizedProfile) error {
	return nil
}
func (s *stubAccountRepo) DeleteAccount(context.Context, int64, string) (int64, error) {
	return s.deleted, s.deleteErr
}
func (s *stubAccountRepo) AccountTotals(context.Context, int64, domain.Platform) (domain.AccountAggregate, error) {
	return s.totals, nil
}

type stubContentRepo struct {
	count  int64
	totals domain.ContentTotals
}

func (s *stubContentRepo) UpsertItem(context.Context, int64, string, domain.Platform, domain.NormalizedItem) (domain.ContentItem, error) {
	return domain.ContentItem{}, nil
}
func (s *stubContentRepo) ListItems(context.Context, domain.ContentFilter, int, int) ([]domain.ContentItem, error) {
	return nil, nil
}
func (s *stubContentRepo) CountItems(context.Context, domain.ContentFilter) (int64, error) {
	return s.count, nil
}
func (s *stubContentRepo) SumCounters(context.Context, domain.ContentFilter) (domain.ContentTotals, error) {
	return s.totals, nil
}
func (s *stubContentRepo) DeleteItems(context.Context, int64, []string) (int64, error) {
	return 0, nil
}

type stubLookup struct {
	channel youtube.Channel
	err     error
	calls   int
	handles []string
}

func (s *stubLookup) ChannelByHandle(_ context.Context, handle string) (youtube.Channel, error) {
	s.calls++
	s.handles = append(s.handles, handle)
	return s.channel, s.err
}

func newTestService(repo *stubAccountRepo, lookup *stubLookup) *Service {
	return NewService(repo, &stubContentRepo{}, lookup, zerolog.Nop())
}

func TestRegisterChannelIDWithoutLookup(t *testing.T) {
	repo := &stubAccountRepo{}
	lookup := &stubLookup{}
	svc := newTestService(repo, lookup)

	acc, created, err := svc.Register(context.Background(), 1, domain.PlatformYouTube, "UCdQw4w9WgXcQabcdefghijk")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !created {
		t.Fatal("ожидали создание")
	}
	if lookup.calls != 0 {
		t.Fatal("канонический ID не должен требовать сетевого вызова")
	}
	if acc.ExternalID != "UCdQw4w9WgXcQabcdefghijk" {
		t.Fatalf("неожиданный ID: %s", acc.ExternalID)
	}
}

func TestRegisterHandleResolvesOnce(t *testing.T) {
	lookup := &stubLookup{}
	lookup.channel.ID = "UCresolved0000000000000"
	lookup.channel.Snippet.CustomURL = "@creator"
	repo := &stubAccountRepo{}
	svc := newTestService(repo, lookup)

	for _, input := range []string{"@creator", "https://www.youtube.com/@creator", "youtube.com/@creator"} {
		lookup.calls = 0
		acc, _, err := svc.Register(context.Background(), 1, domain.PlatformYouTube, input)
		if err != nil {
			t.Fatalf("%s: не ожидали ошибку: %v", input, err)
		}
		if lookup.calls != 1 {
			t.Fatalf("%s: ожидали ровно один вызов, было %d", input, lookup.calls)
		}
		if acc.ExternalID != "UCresolved0000000000000" {
			t.Fatalf("%s: неожиданный ID: %s", input, acc.ExternalID)
		}
		if repo.lastPatch.Handle != "@creator" {
			t.Fatalf("%s: неожиданный хэндл: %s", input, repo.lastPatch.Handle)
		}
	}
}

func TestRegisterChannelURLWithoutLookup(t *testing.T) {
	lookup := &stubLookup{}
	svc := newTestService(&stubAccountRepo{}, lookup)

	acc, _, err := svc.Register(context.Background(), 1, domain.PlatformYouTube, "https://www.youtube.com/channel/UCdQw4w9WgXcQabcdefghijk")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if lookup.calls != 0 {
		t.Fatal("ID из ссылки не должен требовать сетевого вызова")
	}
	if acc.ExternalID != "UCdQw4w9WgXcQabcdefghijk" {
		t.Fatalf("неожиданный ID: %s", acc.ExternalID)
	}
}

func TestRegisterExplicitHandleNotFound(t *testing.T) {
	lookup := &stubLookup{err: domain.ErrNotFound}
	svc := newTestService(&stubAccountRepo{}, lookup)

	_, _, err := svc.Register(context.Background(), 1, domain.PlatformYouTube, "@nobody")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestRegisterBareTokenFallsBackToID(t *testing.T) {
	lookup := &stubLookup{err: domain.ErrNotFound}
	repo := &stubAccountRepo{}
	svc := newTestService(repo, lookup)

	acc, _, err := svc.Register(context.Background(), 1, domain.PlatformYouTube, "sometoken")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if acc.ExternalID != "sometoken" {
		t.Fatalf("голый токен должен стать идентификатором, получили %s", acc.ExternalID)
	}
}

func TestRegisterInstagramStripsURL(t *testing.T) {
	repo := &stubAccountRepo{}
	svc := newTestService(repo, &stubLookup{})

	cases := map[string]string{
		"@someuser":                         "someuser",
		"someuser":                          "someuser",
		"https://www.instagram.com/someuser/": "someuser",
	}
	for input, want := range cases {
		acc, _, err := svc.Register(context.Background(), 1, domain.PlatformInstagram, input)
		if err != nil {
			t.Fatalf("%s: не ожидали ошибку: %v", input, err)
		}
		if acc.ExternalID != want {
			t.Fatalf("%s: ожидали %s, получили %s", input, want, acc.ExternalID)
		}
	}
}

func TestRegisterTikTokURL(t *testing.T) {
	repo := &stubAccountRepo{}
	svc := newTestService(repo, &stubLookup{})

	acc, _, err := svc.Register(context.Background(), 1, domain.PlatformTikTok, "https://www.tiktok.com/@dancer")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if acc.ExternalID != "dancer" {
		t.Fatalf("ожидали dancer, получили %s", acc.ExternalID)
	}
	if repo.lastPatch.URL != "https://www.tiktok.com/@dancer" {
		t.Fatalf("неожиданный URL: %s", repo.lastPatch.URL)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(&stubAccountRepo{}, &stubLookup{})

	if _, _, err := svc.Register(context.Background(), 1, domain.PlatformYouTube, "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("пустой ввод: ожидали ErrInvalidInput, получили %v", err)
	}
	if _, _, err := svc.Register(context.Background(), 1, "VK", "user"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("неизвестная платформа: ожидали ErrInvalidInput, получили %v", err)
	}
}

func TestOverview(t *testing.T) {
	repo := &stubAccountRepo{totals: domain.AccountAggregate{Accounts: 2, Subscribers: 100, TotalViews: 5000}}
	content := &stubContentRepo{count: 42, totals: domain.ContentTotals{Views: 4000, Likes: 300, Comments: 20}}
	svc := NewService(repo, content, &stubLookup{}, zerolog.Nop())

	overview, err := svc.Overview(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if overview.Accounts != 2 || overview.Items != 42 {
		t.Fatalf("неожиданная сводка: %+v", overview)
	}
	if overview.Content.Views != 4000 {
		t.Fatalf("ожидали 4000 просмотров, получили %d", overview.Content.Views)
	}
}
