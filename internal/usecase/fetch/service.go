package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/adapters/apify"
	"creator-dashboard/internal/adapters/instaloader"
	"creator-dashboard/internal/adapters/youtube"
	"creator-dashboard/internal/domain"
	"creator-dashboard/internal/infra/config"
	"creator-dashboard/internal/infra/metrics"
	"creator-dashboard/internal/usecase/normalize"
)

// YouTubeAPI — операции типизированного API, нужные координатору.
type YouTubeAPI interface {
	ChannelByID(ctx context.Context, channelID string) (youtube.Channel, error)
	UploadsPage(ctx context.Context, channelID string, limit int, pageToken string) ([]string, string, error)
	ShortsPage(ctx context.Context, channelID string, limit int, pageToken string) ([]string, string, error)
	VideosByIDs(ctx context.Context, ids []string) ([]youtube.Video, error)
}

// JobRunner — запуск scrape-задачи и чтение её результатов.
type JobRunner interface {
	RunActorSync(ctx context.Context, actorID string, input any) (string, error)
	DatasetItems(ctx context.Context, datasetID string, limit int) ([]map[string]any, error)
}

// ProfileScraper — локальный скрипт выгрузки профиля.
type ProfileScraper interface {
	Configured() bool
	FetchProfile(ctx context.Context, username string, limit int) (instaloader.Result, error)
}

// Options — параметры одной операции выгрузки.
type Options struct {
	Limit    int
	LoadMore bool
}

// Result — итог операции выгрузки. Fetched и Skipped считаются по элементам
// текущей операции, Total — по всему сохранённому контенту аккаунта.
type Result struct {
	ItemsFetched int
	ItemsSkipped int
	ItemsTotal   int64
	Message      string
}

const (
	msgNoMoreVideos = "Все доступные видео уже загружены"
	msgNoMoreShorts = "Все доступные Shorts уже загружены"
	msgNoMorePosts  = "Все доступные публикации уже загружены"
)

// Service координирует инкрементальную выгрузку: выбирает адаптер по
// платформе, нормализует элементы и фиксирует курсор с профилем строго
// после того, как все вызовы адаптера завершились успешно.
type Service struct {
	cfg       *config.AppConfig
	accounts  domain.AccountRepo
	content   domain.ContentRepo
	youtube   YouTubeAPI
	jobs      JobRunner
	instagram ProfileScraper
	log       zerolog.Logger
}

// NewService создаёт координатор выгрузки.
func NewService(cfg *config.AppConfig, accounts domain.AccountRepo, content domain.ContentRepo, yt YouTubeAPI, jobs JobRunner, instagram ProfileScraper, logger zerolog.Logger) *Service {
	return &Service{cfg: cfg, accounts: accounts, content: content, youtube: yt, jobs: jobs, instagram: instagram, log: logger}
}

// RefreshAccount выгружает основную ленту аккаунта.
func (s *Service) RefreshAccount(ctx context.Context, ownerID int64, accountID string, opts Options) (Result, error) {
	return s.refresh(ctx, ownerID, accountID, domain.KindMain, opts)
}

// RefreshShorts выгружает ленту коротких роликов. Операция определена
// только для платформы с типизированным API.
func (s *Service) RefreshShorts(ctx context.Context, ownerID int64, accountID string, opts Options) (Result, error) {
	return s.refresh(ctx, ownerID, accountID, domain.KindShorts, opts)
}

func (s *Service) refresh(ctx context.Context, ownerID int64, accountID string, kind domain.ContentKind, opts Options) (Result, error) {
	acc, err := s.accounts.GetAccount(ctx, ownerID, accountID)
	if err != nil {
		return Result{}, err
	}
	if kind == domain.KindShorts && acc.Platform != domain.PlatformYouTube {
		return Result{}, fmt.Errorf("%w: лента shorts есть только у YouTube", domain.ErrInvalidInput)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.Limits.FetchPerAccount
	}
	if limit > s.cfg.Limits.FetchMax {
		limit = s.cfg.Limits.FetchMax
	}

	start := time.Now()
	var res Result
	switch acc.Platform {
	case domain.PlatformYouTube:
		res, err = s.refreshYouTube(ctx, acc, kind, limit, opts.LoadMore)
	case domain.PlatformInstagram:
		res, err = s.refreshInstagram(ctx, acc, limit, opts.LoadMore)
	case domain.PlatformTikTok:
		res, err = s.refreshTikTok(ctx, acc, limit, opts.LoadMore)
	default:
		err = fmt.Errorf("%w: неизвестная платформа %q", domain.ErrInvalidInput, acc.Platform)
	}
	metrics.ObserveFetch(string(acc.Platform), string(kind), start, res.ItemsFetched, res.ItemsSkipped, err)
	if err != nil {
		s.log.Error().Err(err).
			Str("account_id", acc.ID).
			Str("platform", string(acc.Platform)).
			Str("kind", string(kind)).
			Msg("fetch: выгрузка не удалась")
		return Result{}, err
	}

	res.ItemsTotal, err = s.content.CountItems(ctx, domain.ContentFilter{OwnerID: ownerID, AccountID: acc.ID})
	if err != nil {
		return Result{}, err
	}
	s.log.Info().
		Str("account_id", acc.ID).
		Str("platform", string(acc.Platform)).
		Str("kind", string(kind)).
		Int("fetched", res.ItemsFetched).
		Int("skipped", res.ItemsSkipped).
		Int64("total", res.ItemsTotal).
		Msg("fetch: выгрузка завершена")
	return res, nil
}

// refreshYouTube выгружает одну страницу плейлиста канала. При LoadMore
// продолжает с сохранённого курсора; сохранённый маркер конца означает, что
// страниц больше нет, и обращений к API не происходит вовсе.
func (s *Service) refreshYouTube(ctx context.Context, acc domain.Account, kind domain.ContentKind, limit int, loadMore bool) (Result, error) {
	stored := acc.NextPageToken
	endMessage := msgNoMoreVideos
	if kind == domain.KindShorts {
		stored = acc.ShortsNextPageToken
		endMessage = msgNoMoreShorts
	}

	pageToken := ""
	if loadMore && stored != nil {
		if *stored == domain.CursorEnd {
			return Result{Message: endMessage}, nil
		}
		pageToken = *stored
	}

	var (
		ids  []string
		next string
		err  error
	)
	if kind == domain.KindShorts {
		ids, next, err = s.youtube.ShortsPage(ctx, acc.ExternalID, limit, pageToken)
	} else {
		ids, next, err = s.youtube.UploadsPage(ctx, acc.ExternalID, limit, pageToken)
	}
	if err != nil {
		return Result{}, err
	}

	var videos []youtube.Video
	if len(ids) > 0 {
		videos, err = s.youtube.VideosByIDs(ctx, ids)
		if err != nil {
			return Result{}, err
		}
	}

	var profile *domain.NormalizedProfile
	if !loadMore && kind == domain.KindMain {
		ch, err := s.youtube.ChannelByID(ctx, acc.ExternalID)
		if err != nil {
			return Result{}, err
		}
		p := normalize.YouTubeChannelProfile(ch)
		profile = &p
	}

	cursor := next
	if cursor == "" {
		cursor = domain.CursorEnd
	}
	if err := s.accounts.SaveFetchResult(ctx, acc.ID, kind, cursor, profile); err != nil {
		return Result{}, err
	}

	var res Result
	for _, v := range videos {
		item, ok := normalize.YouTubeVideo(v, kind == domain.KindShorts)
		if !ok {
			res.ItemsSkipped++
			continue
		}
		if _, err := s.content.UpsertItem(ctx, acc.OwnerID, acc.ID, acc.Platform, item); err != nil {
			return Result{}, err
		}
		res.ItemsFetched++
	}
	if cursor == domain.CursorEnd && loadMore {
		res.Message = endMessage
	}
	return res, nil
}

// refreshInstagram выгружает публикации через локальный скрипт, если тот
// настроен, иначе через управляемую scrape-задачу.
func (s *Service) refreshInstagram(ctx context.Context, acc domain.Account, limit int, loadMore bool) (Result, error) {
	if done, res := scrapeAlreadyComplete(acc, loadMore); done {
		return res, nil
	}

	if s.instagram != nil && s.instagram.Configured() {
		return s.refreshViaScript(ctx, acc, limit)
	}

	profileURL := acc.URL
	if profileURL == "" {
		profileURL = "https://www.instagram.com/" + acc.ExternalID
	}
	input := map[string]any{
		"directUrls":   []string{profileURL},
		"resultsLimit": limit,
	}
	return s.refreshViaJob(ctx, acc, s.cfg.Apify.InstagramActor, input, limit, normalize.ProducerApifyInstagram)
}

// refreshTikTok выгружает публикации через управляемую scrape-задачу.
func (s *Service) refreshTikTok(ctx context.Context, acc domain.Account, limit int, loadMore bool) (Result, error) {
	if done, res := scrapeAlreadyComplete(acc, loadMore); done {
		return res, nil
	}
	input := map[string]any{
		"profiles":       []string{acc.ExternalID},
		"resultsPerPage": limit,
	}
	return s.refreshViaJob(ctx, acc, s.cfg.Apify.TikTokActor, input, limit, normalize.ProducerApifyTikTok)
}

// У scrape-источников нет пагинации: каждый запуск отдаёт последние N
// публикаций, поэтому курсор сразу получает маркер конца.
func scrapeAlreadyComplete(acc domain.Account, loadMore bool) (bool, Result) {
	if loadMore && acc.NextPageToken != nil && *acc.NextPageToken == domain.CursorEnd {
		return true, Result{Message: msgNoMorePosts}
	}
	return false, Result{}
}

func (s *Service) refreshViaScript(ctx context.Context, acc domain.Account, limit int) (Result, error) {
	result, err := s.instagram.FetchProfile(ctx, acc.ExternalID, limit)
	if err != nil {
		return Result{}, err
	}

	profile := normalize.InstaloaderProfile(result.Profile)
	if err := s.accounts.SaveFetchResult(ctx, acc.ID, domain.KindMain, domain.CursorEnd, profile); err != nil {
		return Result{}, err
	}
	return s.upsertScraped(ctx, acc, result.Posts, normalize.ProducerInstaloader)
}

func (s *Service) refreshViaJob(ctx context.Context, acc domain.Account, actorID string, input map[string]any, limit int, producer normalize.Producer) (Result, error) {
	datasetID, err := s.jobs.RunActorSync(ctx, actorID, input)
	if err != nil {
		return Result{}, err
	}
	items, err := s.jobs.DatasetItems(ctx, datasetID, limit)
	if err != nil {
		return Result{}, err
	}

	// Частичный сбой задача сообщает маркером внутри элемента. Такой маркер
	// проваливает всю операцию до какой-либо записи в БД.
	for _, item := range items {
		if ue := apify.ItemError(item); ue != nil {
			return Result{}, ue
		}
	}

	if err := s.accounts.SaveFetchResult(ctx, acc.ID, domain.KindMain, domain.CursorEnd, nil); err != nil {
		return Result{}, err
	}
	return s.upsertScraped(ctx, acc, items, producer)
}

func (s *Service) upsertScraped(ctx context.Context, acc domain.Account, items []map[string]any, producer normalize.Producer) (Result, error) {
	var res Result
	for _, raw := range items {
		item, ok := normalize.ScrapedItem(raw, producer)
		if !ok {
			res.ItemsSkipped++
			continue
		}
		if _, err := s.content.UpsertItem(ctx, acc.OwnerID, acc.ID, acc.Platform, item); err != nil {
			return Result{}, err
		}
		res.ItemsFetched++
	}
	return res, nil
}
