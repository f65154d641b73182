package domain

import (
	"context"
	"time"
)

// AccountRepo управляет отслеживаемыми аккаунтами.
type AccountRepo interface {
	UpsertAccount(ctx context.Context, ownerID int64, platform Platform, externalID string, patch AccountPatch) (Account, bool, error)
	GetAccount(ctx context.Context, ownerID int64, accountID string) (Account, error)
	ListAccounts(ctx context.Context, ownerID int64, platform Platform) ([]Account, error)
	// SaveFetchResult фиксирует итог одной операции выгрузки: момент выгрузки,
	// курсор указанного вида (пустая строка — не трогать) и, при полном
	// обновлении, поля профиля со снимком сырого ответа.
	SaveFetchResult(ctx context.Context, accountID string, kind ContentKind, cursor string, profile *NormalizedProfile) error
	DeleteAccount(ctx context.Context, ownerID int64, accountID string) (int64, error)
	AccountTotals(ctx context.Context, ownerID int64, platform Platform) (AccountAggregate, error)
}

// ContentRepo управляет публикациями. UpsertItem сверяет запись по
// натуральному ключу (owner, platform, external_id) и никогда не создаёт
// дубликатов.
type ContentRepo interface {
	UpsertItem(ctx context.Context, ownerID int64, accountID string, platform Platform, item NormalizedItem) (ContentItem, error)
	ListItems(ctx context.Context, filter ContentFilter, limit, offset int) ([]ContentItem, error)
	CountItems(ctx context.Context, filter ContentFilter) (int64, error)
	SumCounters(ctx context.Context, filter ContentFilter) (ContentTotals, error)
	DeleteItems(ctx context.Context, ownerID int64, accountIDs []string) (int64, error)
}

// FavoriteRepo управляет закладками.
type FavoriteRepo interface {
	UpsertFavorite(ctx context.Context, fav Favorite) (Favorite, error)
	ListFavorites(ctx context.Context, ownerID int64) ([]Favorite, error)
	FindFavorite(ctx context.Context, ownerID int64, idOrExternalID string) (Favorite, error)
	DeleteFavorite(ctx context.Context, ownerID int64, favoriteID string) error
	SetTranscript(ctx context.Context, ownerID int64, favoriteID string, transcript string) error
}

// TranscriptProvider получает транскрипт публикации во внешнем канале.
type TranscriptProvider interface {
	FetchTranscript(ctx context.Context, externalID string, languages []string) (string, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
