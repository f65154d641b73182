package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"creator-dashboard/internal/adapters/apify"
	"creator-dashboard/internal/adapters/instaloader"
	"creator-dashboard/internal/adapters/repo"
	"creator-dashboard/internal/adapters/transcript"
	"creator-dashboard/internal/adapters/youtube"
	"creator-dashboard/internal/domain"
	"creator-dashboard/internal/infra/cache"
	"creator-dashboard/internal/infra/config"
	"creator-dashboard/internal/infra/db"
	httpinfra "creator-dashboard/internal/infra/http"
	"creator-dashboard/internal/infra/log"
	"creator-dashboard/internal/infra/metrics"
	"creator-dashboard/internal/usecase/accounts"
	"creator-dashboard/internal/usecase/favorites"
	"creator-dashboard/internal/usecase/fetch"
	"creator-dashboard/internal/usecase/trends"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	var appCache domain.Cache
	if cfg.RedisAddr != "" {
		appCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	ytClient := youtube.NewClient(cfg.YouTube.APIKey, cfg.YouTube.BaseURL, cfg.YouTube.Timeout)
	apifyClient := apify.NewClient(cfg.Apify.Token, cfg.Apify.BaseURL, cfg.Apify.WaitForFinish, cfg.Apify.RequestTimeout)
	igScraper := instaloader.NewScraper(cfg.Instagram.PythonBin, cfg.Instagram.ScraperScript,
		cfg.Instagram.Username, cfg.Instagram.Password, cfg.Instagram.Timeout,
		logger.With().Str("component", "instaloader").Logger())
	transcripts := transcript.NewScript(cfg.Instagram.PythonBin, cfg.Transcript.Script, cfg.Transcript.Timeout,
		logger.With().Str("component", "transcript").Logger())

	accountsSvc := accounts.NewService(repoAdapter, repoAdapter, ytClient,
		logger.With().Str("component", "accounts").Logger())
	fetchSvc := fetch.NewService(&cfg, repoAdapter, repoAdapter, ytClient, apifyClient, igScraper,
		logger.With().Str("component", "fetch").Logger())
	favoritesSvc := favorites.NewService(repoAdapter, transcripts, appCache, cfg.Transcript.CacheTTL,
		logger.With().Str("component", "favorites").Logger())
	trendsSvc := trends.NewService(ytClient, cfg.Limits.SearchMax,
		logger.With().Str("component", "trends").Logger())

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())

	srv.Router.Route("/api/v1", func(r chi.Router) {
		r.Use(ownerMiddleware)

		r.Post("/accounts", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var req registerAccountRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "некорректное тело запроса")
				return
			}
			acc, created, err := accountsSvc.Register(r.Context(), ownerID(r), domain.Platform(req.Platform), req.Input)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			status := http.StatusOK
			if created {
				status = http.StatusCreated
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(accountResponse(acc))
		})

		r.Get("/accounts", func(w http.ResponseWriter, r *http.Request) {
			list, err := accountsSvc.List(r.Context(), ownerID(r), domain.Platform(r.URL.Query().Get("platform")))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]map[string]any, 0, len(list))
			for _, acc := range list {
				resp = append(resp, accountResponse(acc))
			}
			writeJSON(w, resp)
		})

		r.Get("/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
			acc, err := accountsSvc.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, accountResponse(acc))
		})

		r.Delete("/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
			deleted, err := accountsSvc.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id"))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, map[string]any{"items_deleted": deleted})
		})

		r.Post("/accounts/{id}/fetch", func(w http.ResponseWriter, r *http.Request) {
			res, err := fetchSvc.RefreshAccount(r.Context(), ownerID(r), chi.URLParam(r, "id"), fetchOptions(r))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, fetchResponse(res))
		})

		r.Post("/accounts/{id}/shorts", func(w http.ResponseWriter, r *http.Request) {
			res, err := fetchSvc.RefreshShorts(r.Context(), ownerID(r), chi.URLParam(r, "id"), fetchOptions(r))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, fetchResponse(res))
		})

		r.Get("/content", func(w http.ResponseWriter, r *http.Request) {
			filter := domain.ContentFilter{
				OwnerID:   ownerID(r),
				Platform:  domain.Platform(r.URL.Query().Get("platform")),
				AccountID: r.URL.Query().Get("accountId"),
			}
			if raw := r.URL.Query().Get("isShort"); raw != "" {
				isShort := raw == "true" || raw == "1"
				filter.IsShort = &isShort
			}
			limit := queryInt(r, "limit", 50)
			offset := queryInt(r, "offset", 0)
			items, err := repoAdapter.ListItems(r.Context(), filter, limit, offset)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			total, err := repoAdapter.CountItems(r.Context(), filter)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]map[string]any, 0, len(items))
			for _, item := range items {
				resp = append(resp, contentResponse(item))
			}
			writeJSON(w, map[string]any{"items": resp, "total": total})
		})

		r.Delete("/content", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var req deleteContentRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			owner := ownerID(r)
			ids := req.AccountIDs
			if len(ids) == 0 {
				list, err := accountsSvc.List(r.Context(), owner, "")
				if err != nil {
					writeDomainError(w, err)
					return
				}
				for _, acc := range list {
					ids = append(ids, acc.ID)
				}
			}
			deleted, err := repoAdapter.DeleteItems(r.Context(), owner, ids)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, map[string]any{"items_deleted": deleted})
		})

		r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			overview, err := accountsSvc.Overview(r.Context(), ownerID(r), domain.Platform(r.URL.Query().Get("platform")))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, map[string]any{
				"accounts":    overview.Accounts,
				"subscribers": overview.Subscribers,
				"total_views": overview.TotalViews,
				"items":       overview.Items,
				"content": map[string]int64{
					"views":    overview.Content.Views,
					"likes":    overview.Content.Likes,
					"comments": overview.Content.Comments,
				},
			})
		})

		r.Post("/favorites", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var req favoriteRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "некорректное тело запроса")
				return
			}
			fav, err := favoritesSvc.Add(r.Context(), ownerID(r), favorites.AddInput{
				ExternalID:      req.ExternalID,
				Platform:        domain.Platform(req.Platform),
				Title:           req.Title,
				ThumbnailURL:    req.ThumbnailURL,
				ChannelName:     req.ChannelName,
				ViewsCount:      req.ViewsCount,
				LikesCount:      req.LikesCount,
				CommentsCount:   req.CommentsCount,
				DurationSeconds: req.DurationSeconds,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, favoriteResponse(fav))
		})

		r.Get("/favorites", func(w http.ResponseWriter, r *http.Request) {
			list, err := favoritesSvc.List(r.Context(), ownerID(r))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]map[string]any, 0, len(list))
			for _, fav := range list {
				resp = append(resp, favoriteResponse(fav))
			}
			writeJSON(w, resp)
		})

		r.Delete("/favorites/{id}", func(w http.ResponseWriter, r *http.Request) {
			if err := favoritesSvc.Remove(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Patch("/favorites/{id}", func(w http.ResponseWriter, r *http.Request) {
			defer r.Body.Close()
			var req transcriptRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			fav, err := favoritesSvc.AttachTranscript(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.Languages)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, favoriteResponse(fav))
		})

		r.Get("/trends/search", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			videos, err := trendsSvc.Search(r.Context(), trends.Request{
				Query:    q.Get("q"),
				Region:   q.Get("region"),
				Language: q.Get("language"),
				Duration: q.Get("duration"),
				Order:    q.Get("order"),
				Limit:    queryInt(r, "limit", 0),
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]map[string]any, 0, len(videos))
			for _, v := range videos {
				resp = append(resp, trendResponse(v))
			}
			writeJSON(w, map[string]any{"videos": resp})
		})
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		logger.Info().Msg("api: старт")
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type ownerKey struct{}

// ownerMiddleware извлекает идентификатор владельца из заголовка X-User-ID.
// Запросы без владельца не доходят до обработчиков.
func ownerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusUnauthorized, "нужен заголовок X-User-ID")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, id)))
	})
}

func ownerID(r *http.Request) int64 {
	id, _ := r.Context().Value(ownerKey{}).(int64)
	return id
}

func fetchOptions(r *http.Request) fetch.Options {
	q := r.URL.Query()
	loadMore := q.Get("loadMore") == "true" || q.Get("loadMore") == "1"
	return fetch.Options{Limit: queryInt(r, "limit", 0), LoadMore: loadMore}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

type registerAccountRequest struct {
	Platform string `json:"platform"`
	Input    string `json:"input"`
}

type favoriteRequest struct {
	ExternalID      string `json:"external_id"`
	Platform        string `json:"platform"`
	Title           string `json:"title"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ChannelName     string `json:"channel_name"`
	ViewsCount      string `json:"views_count"`
	LikesCount      string `json:"likes_count"`
	CommentsCount   string `json:"comments_count"`
	DurationSeconds *int64 `json:"duration_seconds"`
}

type transcriptRequest struct {
	Languages []string `json:"languages"`
}

type deleteContentRequest struct {
	AccountIDs []string `json:"account_ids"`
}

func accountResponse(acc domain.Account) map[string]any {
	return map[string]any{
		"id":                acc.ID,
		"platform":          acc.Platform,
		"external_id":       acc.ExternalID,
		"display_name":      acc.DisplayName,
		"handle":            acc.Handle,
		"url":               acc.URL,
		"avatar_url":        acc.AvatarURL,
		"subscribers_count": acc.SubscribersCount,
		"total_views_count": acc.TotalViewsCount,
		"videos_count":      acc.VideosCount,
		"last_fetched_at":   acc.LastFetchedAt,
		"created_at":        acc.CreatedAt,
	}
}

func contentResponse(item domain.ContentItem) map[string]any {
	return map[string]any{
		"id":               item.ID,
		"account_id":       item.AccountID,
		"platform":         item.Platform,
		"external_id":      item.ExternalID,
		"url":              item.URL,
		"title":            item.Title,
		"description":      item.Description,
		"thumbnail_url":    item.ThumbnailURL,
		"published_at":     item.PublishedAt,
		"views_count":      item.ViewsCount,
		"likes_count":      item.LikesCount,
		"comments_count":   item.CommentsCount,
		"duration_seconds": item.DurationSeconds,
		"is_short":         item.IsShort,
	}
}

func favoriteResponse(fav domain.Favorite) map[string]any {
	return map[string]any{
		"id":               fav.ID,
		"platform":         fav.Platform,
		"external_id":      fav.ExternalID,
		"title":            fav.Title,
		"thumbnail_url":    fav.ThumbnailURL,
		"channel_name":     fav.ChannelName,
		"views_count":      fav.ViewsCount,
		"likes_count":      fav.LikesCount,
		"comments_count":   fav.CommentsCount,
		"duration_seconds": fav.DurationSeconds,
		"transcript":       fav.Transcript,
		"created_at":       fav.CreatedAt,
	}
}

func trendResponse(v trends.Video) map[string]any {
	return map[string]any{
		"external_id":         v.ExternalID,
		"url":                 v.URL,
		"title":               v.Title,
		"description":         v.Description,
		"thumbnail_url":       v.ThumbnailURL,
		"published_at":        v.PublishedAt,
		"views_count":         v.ViewsCount,
		"likes_count":         v.LikesCount,
		"comments_count":      v.CommentsCount,
		"duration_seconds":    v.DurationSeconds,
		"channel_id":          v.ChannelID,
		"channel_title":       v.ChannelTitle,
		"channel_subscribers": v.ChannelSubscribers,
	}
}

func fetchResponse(res fetch.Result) map[string]any {
	resp := map[string]any{
		"items_fetched": res.ItemsFetched,
		"items_skipped": res.ItemsSkipped,
		"items_total":   res.ItemsTotal,
	}
	if res.Message != "" {
		resp["message"] = res.Message
	}
	return resp
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

// writeDomainError переводит ошибку сервиса в HTTP-статус: валидация — 400,
// отсутствие записи — 404, недостающий конфиг — 503, сбой источника — 502.
func writeDomainError(w http.ResponseWriter, err error) {
	var cfgErr *domain.ConfigError
	var upErr *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrFavoriteNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &upErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
	}
}
