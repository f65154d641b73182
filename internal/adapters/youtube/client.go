package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creator-dashboard/internal/domain"
	"creator-dashboard/internal/infra/metrics"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// maxBatchIDs — потолок количества ID в одном запросе videos/channels.
const maxBatchIDs = 50

// Client выполняет запросы к типизированному API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient создаёт клиента YouTube Data API.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}, baseURL: baseURL, apiKey: apiKey}
}

// Thumbnails — набор превью разных размеров.
type Thumbnails struct {
	Default *Thumbnail `json:"default,omitempty"`
	Medium  *Thumbnail `json:"medium,omitempty"`
	High    *Thumbnail `json:"high,omitempty"`
}

// Thumbnail — одно превью.
type Thumbnail struct {
	URL string `json:"url"`
}

// BestURL возвращает превью в наибольшем доступном размере.
func (t Thumbnails) BestURL() string {
	switch {
	case t.High != nil && t.High.URL != "":
		return t.High.URL
	case t.Medium != nil && t.Medium.URL != "":
		return t.Medium.URL
	case t.Default != nil && t.Default.URL != "":
		return t.Default.URL
	}
	return ""
}

// Channel описывает канал в ответе channels.list.
type Channel struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string     `json:"title"`
		CustomURL   string     `json:"customUrl"`
		Description string     `json:"description"`
		Thumbnails  Thumbnails `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		SubscriberCount string `json:"subscriberCount"`
		ViewCount       string `json:"viewCount"`
		VideoCount      string `json:"videoCount"`
	} `json:"statistics"`
}

// Video описывает видео в ответе videos.list.
type Video struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string     `json:"title"`
		Description  string     `json:"description"`
		PublishedAt  string     `json:"publishedAt"`
		ChannelID    string     `json:"channelId"`
		ChannelTitle string     `json:"channelTitle"`
		Thumbnails   Thumbnails `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type channelsResponse struct {
	Items []Channel `json:"items"`
}

type videosResponse struct {
	Items []Video `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// SearchPage — страница результатов search.list.
type SearchPage struct {
	VideoIDs      []string
	NextPageToken string
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, operation, resource string, params url.Values, out any) error {
	if c.apiKey == "" {
		return &domain.ConfigError{Name: "YOUTUBE_API_KEY"}
	}
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + "/" + resource + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("youtube: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("youtube", operation, resource, start, err)
		return &domain.UpstreamError{Kind: domain.UpstreamTransport, Source: "youtube", Operation: operation, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("youtube", operation, resource, start, err)
		return &domain.UpstreamError{Kind: domain.UpstreamTransport, Source: "youtube", Operation: operation, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(body))
		var apiErr apiErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		ue := &domain.UpstreamError{Kind: domain.UpstreamTransport, Source: "youtube", Operation: operation, Status: resp.StatusCode, Message: message}
		metrics.ObserveNetworkRequest("youtube", operation, resource, start, ue)
		return ue
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.ObserveNetworkRequest("youtube", operation, resource, start, err)
		return fmt.Errorf("youtube: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("youtube", operation, resource, start, nil)
	return nil
}

// ChannelByHandle ищет канал по хэндлу. Пустой результат — domain.ErrNotFound.
func (c *Client) ChannelByHandle(ctx context.Context, handle string) (Channel, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("forHandle", handle)
	params.Set("maxResults", "1")
	var resp channelsResponse
	if err := c.get(ctx, "channels_by_handle", "channels", params, &resp); err != nil {
		return Channel{}, err
	}
	if len(resp.Items) == 0 {
		return Channel{}, domain.ErrNotFound
	}
	return resp.Items[0], nil
}

// ChannelByID возвращает канал по нативному ID. Пустой результат —
// domain.ErrNotFound.
func (c *Client) ChannelByID(ctx context.Context, channelID string) (Channel, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", channelID)
	params.Set("maxResults", "1")
	var resp channelsResponse
	if err := c.get(ctx, "channels_by_id", "channels", params, &resp); err != nil {
		return Channel{}, err
	}
	if len(resp.Items) == 0 {
		return Channel{}, domain.ErrNotFound
	}
	return resp.Items[0], nil
}

// ChannelsByIDs возвращает статистику каналов пачками по maxBatchIDs.
func (c *Client) ChannelsByIDs(ctx context.Context, ids []string) ([]Channel, error) {
	var channels []Channel
	for start := 0; start < len(ids); start += maxBatchIDs {
		end := start + maxBatchIDs
		if end > len(ids) {
			end = len(ids)
		}
		params := url.Values{}
		params.Set("part", "statistics")
		params.Set("id", strings.Join(ids[start:end], ","))
		var resp channelsResponse
		if err := c.get(ctx, "channels_by_ids", "channels", params, &resp); err != nil {
			return nil, err
		}
		channels = append(channels, resp.Items...)
	}
	return channels, nil
}

// UploadsPlaylistID адресует коллекцию всех загрузок канала: у нативного ID
// заменяется префикс "UC" на "UU". Это единственный способ получить полный
// бэклог в порядке публикации.
func UploadsPlaylistID(channelID string) string {
	return "UU" + strings.TrimPrefix(channelID, "UC")
}

// ShortsPlaylistID адресует параллельную коллекцию коротких роликов
// (префикс "UUSH"). Коллекции может не существовать вовсе.
func ShortsPlaylistID(channelID string) string {
	return "UUSH" + strings.TrimPrefix(channelID, "UC")
}

// PlaylistPage возвращает одну страницу ID видео из плейлиста.
func (c *Client) PlaylistPage(ctx context.Context, playlistID string, limit int, pageToken string) ([]string, string, error) {
	if limit <= 0 || limit > maxBatchIDs {
		limit = maxBatchIDs
	}
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", fmt.Sprintf("%d", limit))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	var resp playlistItemsResponse
	if err := c.get(ctx, "playlist_items", "playlistItems", params, &resp); err != nil {
		return nil, "", err
	}
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails.VideoID != "" {
			ids = append(ids, item.ContentDetails.VideoID)
		}
	}
	return ids, resp.NextPageToken, nil
}

// UploadsPage возвращает страницу основной ленты канала.
func (c *Client) UploadsPage(ctx context.Context, channelID string, limit int, pageToken string) ([]string, string, error) {
	return c.PlaylistPage(ctx, UploadsPlaylistID(channelID), limit, pageToken)
}

// ShortsPage возвращает страницу коротких роликов. HTTP 404 означает, что у
// канала нет коллекции Shorts: это пустой результат, а не сбой.
func (c *Client) ShortsPage(ctx context.Context, channelID string, limit int, pageToken string) ([]string, string, error) {
	ids, next, err := c.PlaylistPage(ctx, ShortsPlaylistID(channelID), limit, pageToken)
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
			return nil, "", nil
		}
		return nil, "", err
	}
	return ids, next, nil
}

// VideosByIDs возвращает детали и статистику видео, разбивая запросы пачками
// по maxBatchIDs и сохраняя порядок входных ID.
func (c *Client) VideosByIDs(ctx context.Context, ids []string) ([]Video, error) {
	byID := make(map[string]Video, len(ids))
	for start := 0; start < len(ids); start += maxBatchIDs {
		end := start + maxBatchIDs
		if end > len(ids) {
			end = len(ids)
		}
		params := url.Values{}
		params.Set("part", "snippet,statistics,contentDetails")
		params.Set("id", strings.Join(ids[start:end], ","))
		var resp videosResponse
		if err := c.get(ctx, "videos_by_ids", "videos", params, &resp); err != nil {
			return nil, err
		}
		for _, v := range resp.Items {
			byID[v.ID] = v
		}
	}
	videos := make([]Video, 0, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			videos = append(videos, v)
		}
	}
	return videos, nil
}

// SearchRequest описывает параметры поиска по ключевым словам.
type SearchRequest struct {
	Query     string
	Region    string
	Language  string
	Duration  string
	Order     string
	Limit     int
	PageToken string
}

// Search возвращает одну страницу поиска. Поисковая выдача не годится для
// полного бэклога канала и используется только для трендов.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchPage, error) {
	if req.Limit <= 0 || req.Limit > maxBatchIDs {
		req.Limit = maxBatchIDs
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", req.Query)
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", req.Limit))
	if req.Region != "" {
		params.Set("regionCode", req.Region)
	}
	if req.Language != "" {
		params.Set("relevanceLanguage", req.Language)
	}
	if req.Order != "" {
		params.Set("order", req.Order)
	}
	if req.Duration != "" && req.Duration != "any" {
		params.Set("videoDuration", req.Duration)
	}
	if req.PageToken != "" {
		params.Set("pageToken", req.PageToken)
	}
	var resp searchResponse
	if err := c.get(ctx, "search", "search", params, &resp); err != nil {
		return SearchPage{}, err
	}
	page := SearchPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.ID.VideoID != "" {
			page.VideoIDs = append(page.VideoIDs, item.ID.VideoID)
		}
	}
	return page, nil
}
