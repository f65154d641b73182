package favorites

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/domain"
)

type stubFavorites struct {
	stored     map[string]domain.Favorite
	transcript map[string]string
}

func newStubFavorites() *stubFavorites {
	return &stubFavorites{stored: map[string]domain.Favorite{}, transcript: map[string]string{}}
}

func (s *stubFavorites) UpsertFavorite(_ context.Context, fav domain.Favorite) (domain.Favorite, error) {
	if fav.ID == "" {
		fav.ID = "fav-" + fav.ExternalID
	}
	s.stored[fav.ID] = fav
	return fav, nil
}
func (s *stubFavorites) ListFavorites(context.Context, int64) ([]domain.Favorite, error) {
	var out []domain.Favorite
	for _, fav := range s.stored {
		out = append(out, fav)
	}
	return out, nil
}
func (s *stubFavorites) FindFavorite(_ context.Context, _ int64, idOrExternalID string) (domain.Favorite, error) {
	if fav, ok := s.stored[idOrExternalID]; ok {
		return fav, nil
	}
	for _, fav := range s.stored {
		if fav.ExternalID == idOrExternalID {
			return fav, nil
		}
	}
	return domain.Favorite{}, domain.ErrFavoriteNotFound
}
func (s *stubFavorites) DeleteFavorite(_ context.Context, _ int64, favoriteID string) error {
	if _, ok := s.stored[favoriteID]; !ok {
		return domain.ErrFavoriteNotFound
	}
	delete(s.stored, favoriteID)
	return nil
}
func (s *stubFavorites) SetTranscript(_ context.Context, _ int64, favoriteID, transcript string) error {
	fav, ok := s.stored[favoriteID]
	if !ok {
		return domain.ErrFavoriteNotFound
	}
	fav.Transcript = transcript
	s.stored[favoriteID] = fav
	return nil
}

type stubProvider struct {
	text  string
	err   error
	calls int
}

func (s *stubProvider) FetchTranscript(context.Context, string, []string) (string, error) {
	s.calls++
	return s.text, s.err
}

type memCache struct {
	values map[string][]byte
}

func newMemCache() *memCache { return &memCache{values: map[string][]byte{}} }

func (c *memCache) Once(string, time.Duration, func() error) error { return nil }
func (c *memCache) Set(key string, value []byte, _ time.Duration) error {
	c.values[key] = value
	return nil
}
func (c *memCache) Get(key string) ([]byte, error) {
	v, ok := c.values[key]
	if !ok {
		return nil, errors.New("nil")
	}
	return v, nil
}

func TestAddDefaultsToYouTube(t *testing.T) {
	repo := newStubFavorites()
	svc := NewService(repo, &stubProvider{}, nil, 0, zerolog.Nop())

	fav, err := svc.Add(context.Background(), 1, AddInput{ExternalID: "vid1", Title: "Видео"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if fav.Platform != domain.PlatformYouTube {
		t.Fatalf("ожидали платформу по умолчанию, получили %s", fav.Platform)
	}
}

func TestAddValidation(t *testing.T) {
	svc := NewService(newStubFavorites(), &stubProvider{}, nil, 0, zerolog.Nop())

	if _, err := svc.Add(context.Background(), 1, AddInput{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("пустой ID: ожидали ErrInvalidInput, получили %v", err)
	}
	if _, err := svc.Add(context.Background(), 1, AddInput{ExternalID: "x", Platform: "VK"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("неизвестная платформа: ожидали ErrInvalidInput, получили %v", err)
	}
}

func TestRemoveByExternalID(t *testing.T) {
	repo := newStubFavorites()
	svc := NewService(repo, &stubProvider{}, nil, 0, zerolog.Nop())

	if _, err := svc.Add(context.Background(), 1, AddInput{ExternalID: "vid1"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := svc.Remove(context.Background(), 1, "vid1"); err != nil {
		t.Fatalf("удаление по external_id должно работать: %v", err)
	}
	if err := svc.Remove(context.Background(), 1, "vid1"); !errors.Is(err, domain.ErrFavoriteNotFound) {
		t.Fatalf("повторное удаление: ожидали ErrFavoriteNotFound, получили %v", err)
	}
}

func TestAttachTranscriptFetchesAndPersists(t *testing.T) {
	repo := newStubFavorites()
	provider := &stubProvider{text: "полный текст"}
	cache := newMemCache()
	svc := NewService(repo, provider, cache, time.Hour, zerolog.Nop())

	if _, err := svc.Add(context.Background(), 1, AddInput{ExternalID: "vid1"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	fav, err := svc.AttachTranscript(context.Background(), 1, "vid1", nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if fav.Transcript != "полный текст" {
		t.Fatalf("неожиданный транскрипт: %q", fav.Transcript)
	}
	if provider.calls != 1 {
		t.Fatalf("ожидали один вызов провайдера, было %d", provider.calls)
	}
	if string(cache.values["transcript:vid1"]) != "полный текст" {
		t.Fatal("транскрипт должен кэшироваться")
	}

	// Повторный запрос: текст уже сохранён в закладке, провайдер не нужен.
	if _, err := svc.AttachTranscript(context.Background(), 1, "vid1", nil); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("сохранённый транскрипт не должен дёргать провайдера, вызовов %d", provider.calls)
	}
}

func TestAttachTranscriptUsesCache(t *testing.T) {
	repo := newStubFavorites()
	provider := &stubProvider{text: "из провайдера"}
	cache := newMemCache()
	cache.values["transcript:vid1"] = []byte("из кэша")
	svc := NewService(repo, provider, cache, time.Hour, zerolog.Nop())

	if _, err := svc.Add(context.Background(), 1, AddInput{ExternalID: "vid1"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	fav, err := svc.AttachTranscript(context.Background(), 1, "vid1", nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if fav.Transcript != "из кэша" {
		t.Fatalf("ожидали текст из кэша, получили %q", fav.Transcript)
	}
	if provider.calls != 0 {
		t.Fatalf("попадание в кэш не должно дёргать провайдера, вызовов %d", provider.calls)
	}
}

func TestAttachTranscriptProviderError(t *testing.T) {
	repo := newStubFavorites()
	provider := &stubProvider{err: &domain.UpstreamError{Kind: domain.UpstreamData, Source: "transcript", Operation: "fetch", Code: "no_transcript"}}
	svc := NewService(repo, provider, nil, time.Hour, zerolog.Nop())

	if _, err := svc.Add(context.Background(), 1, AddInput{ExternalID: "vid1"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := svc.AttachTranscript(context.Background(), 1, "vid1", nil); !domain.IsUpstreamData(err) {
		t.Fatalf("ожидали ошибку данных, получили %v", err)
	}
}
