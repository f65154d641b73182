package favorites

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/domain"
)

// AddInput — закладка глазами клиента: снимок карточки публикации на момент
// добавления.
type AddInput struct {
	ExternalID      string
	Platform        domain.Platform
	Title           string
	ThumbnailURL    string
	ChannelName     string
	ViewsCount      string
	LikesCount      string
	CommentsCount   string
	DurationSeconds *int64
}

// Service управляет закладками и их транскриптами.
type Service struct {
	favorites   domain.FavoriteRepo
	transcripts domain.TranscriptProvider
	cache       domain.Cache
	cacheTTL    time.Duration
	log         zerolog.Logger
}

// NewService создаёт сервис закладок. cache может быть nil — тогда каждый
// запрос транскрипта уходит в провайдера.
func NewService(favorites domain.FavoriteRepo, transcripts domain.TranscriptProvider, cache domain.Cache, cacheTTL time.Duration, logger zerolog.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Service{favorites: favorites, transcripts: transcripts, cache: cache, cacheTTL: cacheTTL, log: logger}
}

// Add сохраняет закладку. Платформа по умолчанию — YouTube: исторически
// клиенты присылали только идентификатор видео.
func (s *Service) Add(ctx context.Context, ownerID int64, input AddInput) (domain.Favorite, error) {
	if input.ExternalID == "" {
		return domain.Favorite{}, fmt.Errorf("%w: пустой идентификатор публикации", domain.ErrInvalidInput)
	}
	if input.Platform == "" {
		input.Platform = domain.PlatformYouTube
	}
	if !input.Platform.Valid() {
		return domain.Favorite{}, fmt.Errorf("%w: неизвестная платформа %q", domain.ErrInvalidInput, input.Platform)
	}
	fav, err := s.favorites.UpsertFavorite(ctx, domain.Favorite{
		OwnerID:         ownerID,
		Platform:        input.Platform,
		ExternalID:      input.ExternalID,
		Title:           input.Title,
		ThumbnailURL:    input.ThumbnailURL,
		ChannelName:     input.ChannelName,
		ViewsCount:      input.ViewsCount,
		LikesCount:      input.LikesCount,
		CommentsCount:   input.CommentsCount,
		DurationSeconds: input.DurationSeconds,
	})
	if err != nil {
		return domain.Favorite{}, err
	}
	s.log.Info().
		Int64("owner_id", ownerID).
		Str("external_id", input.ExternalID).
		Str("platform", string(input.Platform)).
		Msg("favorites: закладка сохранена")
	return fav, nil
}

// List возвращает закладки владельца.
func (s *Service) List(ctx context.Context, ownerID int64) ([]domain.Favorite, error) {
	return s.favorites.ListFavorites(ctx, ownerID)
}

// Remove удаляет закладку по идентификатору строки либо по external_id
// публикации.
func (s *Service) Remove(ctx context.Context, ownerID int64, idOrExternalID string) error {
	fav, err := s.favorites.FindFavorite(ctx, ownerID, idOrExternalID)
	if err != nil {
		return err
	}
	return s.favorites.DeleteFavorite(ctx, ownerID, fav.ID)
}

func transcriptCacheKey(externalID string) string {
	return "transcript:" + externalID
}

// AttachTranscript получает транскрипт публикации и сохраняет его в
// закладке. Уже сохранённый или закэшированный текст не запрашивается у
// провайдера повторно.
func (s *Service) AttachTranscript(ctx context.Context, ownerID int64, idOrExternalID string, languages []string) (domain.Favorite, error) {
	fav, err := s.favorites.FindFavorite(ctx, ownerID, idOrExternalID)
	if err != nil {
		return domain.Favorite{}, err
	}
	if fav.Transcript != "" {
		return fav, nil
	}

	text := ""
	if s.cache != nil {
		if cached, err := s.cache.Get(transcriptCacheKey(fav.ExternalID)); err == nil && len(cached) > 0 {
			text = string(cached)
		}
	}
	if text == "" {
		text, err = s.transcripts.FetchTranscript(ctx, fav.ExternalID, languages)
		if err != nil {
			return domain.Favorite{}, err
		}
		if s.cache != nil {
			if err := s.cache.Set(transcriptCacheKey(fav.ExternalID), []byte(text), s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Str("external_id", fav.ExternalID).Msg("favorites: не удалось закэшировать транскрипт")
			}
		}
	}

	if err := s.favorites.SetTranscript(ctx, ownerID, fav.ID, text); err != nil {
		return domain.Favorite{}, err
	}
	fav.Transcript = text
	return fav, nil
}
