package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/adapters/youtube"
	"creator-dashboard/internal/domain"
	"creator-dashboard/internal/usecase/normalize"
)

// SearchAPI — операции типизированного API, нужные поиску трендов.
type SearchAPI interface {
	Search(ctx context.Context, req youtube.SearchRequest) (youtube.SearchPage, error)
	VideosByIDs(ctx context.Context, ids []string) ([]youtube.Video, error)
	ChannelsByIDs(ctx context.Context, ids []string) ([]youtube.Channel, error)
}

// Request — параметры поиска трендовых видео.
type Request struct {
	Query    string
	Region   string
	Language string
	Duration string
	Order    string
	Limit    int
}

// Video — найденное видео со счётчиками и данными канала.
type Video struct {
	ExternalID         string
	URL                string
	Title              string
	Description        string
	ThumbnailURL       string
	PublishedAt        *time.Time
	ViewsCount         *int64
	LikesCount         *int64
	CommentsCount      *int64
	DurationSeconds    *int64
	ChannelID          string
	ChannelTitle       string
	ChannelSubscribers *int64
}

// Service ищет трендовые видео по ключевым словам. Поиск всегда сетевой и
// ничего не сохраняет в БД.
type Service struct {
	api      SearchAPI
	maxLimit int
	log      zerolog.Logger
}

// NewService создаёт сервис трендов.
func NewService(api SearchAPI, maxLimit int, logger zerolog.Logger) *Service {
	if maxLimit <= 0 {
		maxLimit = 200
	}
	return &Service{api: api, maxLimit: maxLimit, log: logger}
}

// searchPageSize — потолок одной страницы поиска на стороне API.
const searchPageSize = 50

// Search собирает до Limit видео: листает поисковую выдачу страницами,
// затем одним батчем дотягивает счётчики видео и подписчиков каналов.
func (s *Service) Search(ctx context.Context, req Request) ([]Video, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("%w: пустой поисковый запрос", domain.ErrInvalidInput)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = searchPageSize
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	var ids []string
	pageToken := ""
	for len(ids) < limit {
		pageSize := limit - len(ids)
		if pageSize > searchPageSize {
			pageSize = searchPageSize
		}
		page, err := s.api.Search(ctx, youtube.SearchRequest{
			Query:     req.Query,
			Region:    req.Region,
			Language:  req.Language,
			Duration:  req.Duration,
			Order:     req.Order,
			Limit:     pageSize,
			PageToken: pageToken,
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, page.VideoIDs...)
		if page.NextPageToken == "" || len(page.VideoIDs) == 0 {
			break
		}
		pageToken = page.NextPageToken
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videos, err := s.api.VideosByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	channelIDs := make([]string, 0, len(videos))
	seen := make(map[string]bool, len(videos))
	for _, v := range videos {
		id := v.Snippet.ChannelID
		if id != "" && !seen[id] {
			seen[id] = true
			channelIDs = append(channelIDs, id)
		}
	}
	subscribers := make(map[string]*int64, len(channelIDs))
	if len(channelIDs) > 0 {
		channels, err := s.api.ChannelsByIDs(ctx, channelIDs)
		if err != nil {
			return nil, err
		}
		for _, ch := range channels {
			profile := normalize.YouTubeChannelProfile(ch)
			subscribers[ch.ID] = profile.SubscribersCount
		}
	}

	result := make([]Video, 0, len(videos))
	for _, v := range videos {
		item, ok := normalize.YouTubeVideo(v, false)
		if !ok {
			continue
		}
		result = append(result, Video{
			ExternalID:         item.ExternalID,
			URL:                item.URL,
			Title:              item.Title,
			Description:        item.Description,
			ThumbnailURL:       item.ThumbnailURL,
			PublishedAt:        item.PublishedAt,
			ViewsCount:         item.ViewsCount,
			LikesCount:         item.LikesCount,
			CommentsCount:      item.CommentsCount,
			DurationSeconds:    item.DurationSeconds,
			ChannelID:          v.Snippet.ChannelID,
			ChannelTitle:       v.Snippet.ChannelTitle,
			ChannelSubscribers: subscribers[v.Snippet.ChannelID],
		})
	}
	s.log.Debug().Str("query", req.Query).Int("results", len(result)).Msg("trends: поиск выполнен")
	return result, nil
}
