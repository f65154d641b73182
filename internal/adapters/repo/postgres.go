package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"creator-dashboard/internal/domain"
	"creator-dashboard/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.AccountRepo = (*Postgres)(nil)
var _ domain.ContentRepo = (*Postgres)(nil)
var _ domain.FavoriteRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const accountColumns = `id, owner_id, platform, external_id, display_name, handle, url, avatar_url,
subscribers_count, total_views_count, videos_count, next_page_token, shorts_next_page_token,
last_fetched_at, raw_json, created_at, updated_at`

func scanAccount(row pgx.Row, extra ...any) (domain.Account, error) {
	var (
		acc         domain.Account
		displayName sql.NullString
		handle      sql.NullString
		accURL      sql.NullString
		avatarURL   sql.NullString
		subscribers sql.NullInt64
		totalViews  sql.NullInt64
		videos      sql.NullInt64
		nextToken   sql.NullString
		shortsToken sql.NullString
		lastFetched sql.NullTime
	)
	dest := []any{
		&acc.ID, &acc.OwnerID, &acc.Platform, &acc.ExternalID, &displayName, &handle, &accURL, &avatarURL,
		&subscribers, &totalViews, &videos, &nextToken, &shortsToken,
		&lastFetched, &acc.RawJSON, &acc.CreatedAt, &acc.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.Account{}, err
	}
	if displayName.Valid {
		acc.DisplayName = displayName.String
	}
	if handle.Valid {
		acc.Handle = handle.String
	}
	if accURL.Valid {
		acc.URL = accURL.String
	}
	if avatarURL.Valid {
		acc.AvatarURL = avatarURL.String
	}
	if subscribers.Valid {
		v := subscribers.Int64
		acc.SubscribersCount = &v
	}
	if totalViews.Valid {
		v := totalViews.Int64
		acc.TotalViewsCount = &v
	}
	if videos.Valid {
		v := videos.Int64
		acc.VideosCount = &v
	}
	if nextToken.Valid {
		v := nextToken.String
		acc.NextPageToken = &v
	}
	if shortsToken.Valid {
		v := shortsToken.String
		acc.ShortsNextPageToken = &v
	}
	if lastFetched.Valid {
		ts := lastFetched.Time
		acc.LastFetchedAt = &ts
	}
	return acc, nil
}

// UpsertAccount сверяет аккаунт по натуральному ключу (owner_id, platform,
// external_id): повторная регистрация освежает URL и хэндл, но не создаёт
// дубликата. Второй результат — true для впервые созданной записи.
func (p *Postgres) UpsertAccount(ctx context.Context, ownerID int64, platform domain.Platform, externalID string, patch domain.AccountPatch) (domain.Account, bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var created bool
	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO accounts (id, owner_id, platform, external_id, url, handle)
VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''))
ON CONFLICT (owner_id, platform, external_id) DO UPDATE
SET url = COALESCE(NULLIF(EXCLUDED.url,''), accounts.url),
    handle = COALESCE(NULLIF(EXCLUDED.handle,''), accounts.handle),
    updated_at = now()
RETURNING `+accountColumns+`, (xmax = 0) AS inserted
`, uuid.NewString(), ownerID, string(platform), externalID, patch.URL, patch.Handle)
	acc, err := scanAccount(row, &created)
	metrics.ObserveNetworkRequest("postgres", "accounts_upsert", "accounts", start, err)
	if err != nil {
		return domain.Account{}, false, err
	}
	return acc, created, nil
}

// GetAccount возвращает аккаунт владельца по идентификатору строки.
func (p *Postgres) GetAccount(ctx context.Context, ownerID int64, accountID string) (domain.Account, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+accountColumns+` FROM accounts WHERE owner_id=$1 AND id=$2
`, ownerID, accountID)
	acc, err := scanAccount(row)
	metrics.ObserveNetworkRequest("postgres", "accounts_get", "accounts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	return acc, err
}

// ListAccounts возвращает аккаунты владельца, новые первыми. Пустая
// платформа — без фильтра.
func (p *Postgres) ListAccounts(ctx context.Context, ownerID int64, platform domain.Platform) ([]domain.Account, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+accountColumns+` FROM accounts
WHERE owner_id=$1 AND ($2='' OR platform=$2)
ORDER BY created_at DESC
`, ownerID, string(platform))
	metrics.ObserveNetworkRequest("postgres", "accounts_list", "accounts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// SaveFetchResult фиксирует итог одной операции выгрузки одним UPDATE:
// момент выгрузки, курсор своего вида и поля профиля. Пустой курсор не
// трогает сохранённый, nil-профиль не трогает поля профиля, nil-счётчики
// внутри профиля сохраняют прежние значения.
func (p *Postgres) SaveFetchResult(ctx context.Context, accountID string, kind domain.ContentKind, cursor string, profile *domain.NormalizedProfile) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	set := []string{"last_fetched_at = now()", "updated_at = now()"}
	args := []any{accountID}

	if cursor != "" {
		column := "next_page_token"
		if kind == domain.KindShorts {
			column = "shorts_next_page_token"
		}
		args = append(args, cursor)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if profile != nil {
		args = append(args, profile.DisplayName)
		set = append(set, fmt.Sprintf("display_name = COALESCE(NULLIF($%d,''), accounts.display_name)", len(args)))
		args = append(args, profile.Handle)
		set = append(set, fmt.Sprintf("handle = COALESCE(NULLIF($%d,''), accounts.handle)", len(args)))
		args = append(args, profile.AvatarURL)
		set = append(set, fmt.Sprintf("avatar_url = COALESCE(NULLIF($%d,''), accounts.avatar_url)", len(args)))
		args = append(args, nullInt64(profile.SubscribersCount))
		set = append(set, fmt.Sprintf("subscribers_count = COALESCE($%d, accounts.subscribers_count)", len(args)))
		args = append(args, nullInt64(profile.TotalViewsCount))
		set = append(set, fmt.Sprintf("total_views_count = COALESCE($%d, accounts.total_views_count)", len(args)))
		args = append(args, nullInt64(profile.VideosCount))
		set = append(set, fmt.Sprintf("videos_count = COALESCE($%d, accounts.videos_count)", len(args)))
		if len(profile.Raw) > 0 {
			args = append(args, profile.Raw)
			set = append(set, fmt.Sprintf("raw_json = $%d", len(args)))
		}
	}

	start := time.Now()
	res, err := p.pool.Exec(ctx, `UPDATE accounts SET `+strings.Join(set, ", ")+` WHERE id=$1`, args...)
	metrics.ObserveNetworkRequest("postgres", "accounts_save_fetch_result", "accounts", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAccount удаляет аккаунт вместе с его контентом. Возвращает число
// удалённых публикаций.
func (p *Postgres) DeleteAccount(ctx context.Context, ownerID int64, accountID string) (int64, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "accounts", start, err)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	items, err := tx.Exec(ctx, `DELETE FROM content_items WHERE owner_id=$1 AND account_id=$2`, ownerID, accountID)
	metrics.ObserveNetworkRequest("postgres", "content_items_delete_by_account", "content_items", start, err)
	if err != nil {
		return 0, err
	}

	start = time.Now()
	res, err := tx.Exec(ctx, `DELETE FROM accounts WHERE owner_id=$1 AND id=$2`, ownerID, accountID)
	metrics.ObserveNetworkRequest("postgres", "accounts_delete", "accounts", start, err)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected() == 0 {
		return 0, domain.ErrNotFound
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "accounts", start, err)
	if err != nil {
		return 0, err
	}
	return items.RowsAffected(), nil
}

// AccountTotals возвращает суммарные показатели по аккаунтам владельца.
func (p *Postgres) AccountTotals(ctx context.Context, ownerID int64, platform domain.Platform) (domain.AccountAggregate, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var agg domain.AccountAggregate
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT COUNT(*), COALESCE(SUM(subscribers_count), 0), COALESCE(SUM(total_views_count), 0)
FROM accounts WHERE owner_id=$1 AND ($2='' OR platform=$2)
`, ownerID, string(platform)).Scan(&agg.Accounts, &agg.Subscribers, &agg.TotalViews)
	metrics.ObserveNetworkRequest("postgres", "accounts_totals", "accounts", start, err)
	return agg, err
}

const contentColumns = `id, owner_id, account_id, platform, external_id, url, title, description,
thumbnail_url, published_at, views_count, likes_count, comments_count, duration_seconds, is_short,
raw_json, created_at, updated_at`

func scanContentItem(row pgx.Row) (domain.ContentItem, error) {
	var (
		item        domain.ContentItem
		title       sql.NullString
		description sql.NullString
		thumbnail   sql.NullString
		published   sql.NullTime
		views       sql.NullInt64
		likes       sql.NullInt64
		comments    sql.NullInt64
		duration    sql.NullInt64
	)
	err := row.Scan(&item.ID, &item.OwnerID, &item.AccountID, &item.Platform, &item.ExternalID, &item.URL,
		&title, &description, &thumbnail, &published, &views, &likes, &comments, &duration, &item.IsShort,
		&item.RawJSON, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return domain.ContentItem{}, err
	}
	if title.Valid {
		item.Title = title.String
	}
	if description.Valid {
		item.Description = description.String
	}
	if thumbnail.Valid {
		item.ThumbnailURL = thumbnail.String
	}
	if published.Valid {
		ts := published.Time
		item.PublishedAt = &ts
	}
	if views.Valid {
		v := views.Int64
		item.ViewsCount = &v
	}
	if likes.Valid {
		v := likes.Int64
		item.LikesCount = &v
	}
	if comments.Valid {
		v := comments.Int64
		item.CommentsCount = &v
	}
	if duration.Valid {
		v := duration.Int64
		item.DurationSeconds = &v
	}
	return item, nil
}

// UpsertItem сохраняет публикацию по натуральному ключу (owner_id, platform,
// external_id). Свежие счётчики перекрывают сохранённые, nil-счётчики
// («источник промолчал») прежние значения не затирают.
func (p *Postgres) UpsertItem(ctx context.Context, ownerID int64, accountID string, platform domain.Platform, item domain.NormalizedItem) (domain.ContentItem, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO content_items (id, owner_id, account_id, platform, external_id, url, title, description,
    thumbnail_url, published_at, views_count, likes_count, comments_count, duration_seconds, is_short, raw_json)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (owner_id, platform, external_id) DO UPDATE
SET account_id = EXCLUDED.account_id,
    url = EXCLUDED.url,
    title = COALESCE(EXCLUDED.title, content_items.title),
    description = COALESCE(EXCLUDED.description, content_items.description),
    thumbnail_url = COALESCE(EXCLUDED.thumbnail_url, content_items.thumbnail_url),
    published_at = COALESCE(EXCLUDED.published_at, content_items.published_at),
    views_count = COALESCE(EXCLUDED.views_count, content_items.views_count),
    likes_count = COALESCE(EXCLUDED.likes_count, content_items.likes_count),
    comments_count = COALESCE(EXCLUDED.comments_count, content_items.comments_count),
    duration_seconds = COALESCE(EXCLUDED.duration_seconds, content_items.duration_seconds),
    is_short = EXCLUDED.is_short,
    raw_json = EXCLUDED.raw_json,
    updated_at = now()
RETURNING `+contentColumns+`
`, uuid.NewString(), ownerID, accountID, string(platform), item.ExternalID, item.URL, item.Title, item.Description,
		item.ThumbnailURL, nullTime(item.PublishedAt), nullInt64(item.ViewsCount), nullInt64(item.LikesCount),
		nullInt64(item.CommentsCount), nullInt64(item.DurationSeconds), item.IsShort, item.Raw)
	saved, err := scanContentItem(row)
	metrics.ObserveNetworkRequest("postgres", "content_items_upsert", "content_items", start, err)
	return saved, err
}

func contentFilterClause(filter domain.ContentFilter) (string, []any) {
	clauses := []string{"owner_id=$1"}
	args := []any{filter.OwnerID}
	if filter.Platform != "" {
		args = append(args, string(filter.Platform))
		clauses = append(clauses, fmt.Sprintf("platform=$%d", len(args)))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		clauses = append(clauses, fmt.Sprintf("account_id=$%d", len(args)))
	}
	if filter.IsShort != nil {
		args = append(args, *filter.IsShort)
		clauses = append(clauses, fmt.Sprintf("is_short=$%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// ListItems возвращает публикации по фильтру, свежие первыми. Публикации без
// даты уходят в конец выдачи.
func (p *Postgres) ListItems(ctx context.Context, filter domain.ContentFilter, limit, offset int) ([]domain.ContentItem, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	where, args := contentFilterClause(filter)
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
SELECT %s FROM content_items
WHERE %s
ORDER BY published_at DESC NULLS LAST, created_at DESC
LIMIT $%d OFFSET $%d
`, contentColumns, where, len(args)-1, len(args)), args...)
	metrics.ObserveNetworkRequest("postgres", "content_items_list", "content_items", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountItems считает публикации по фильтру.
func (p *Postgres) CountItems(ctx context.Context, filter domain.ContentFilter) (int64, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	where, args := contentFilterClause(filter)
	var count int64
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM content_items WHERE `+where, args...).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "content_items_count", "content_items", start, err)
	return count, err
}

// SumCounters суммирует счётчики по фильтру. NULL-счётчики в сумме не
// участвуют.
func (p *Postgres) SumCounters(ctx context.Context, filter domain.ContentFilter) (domain.ContentTotals, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	where, args := contentFilterClause(filter)
	var totals domain.ContentTotals
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(views_count), 0), COALESCE(SUM(likes_count), 0), COALESCE(SUM(comments_count), 0)
FROM content_items WHERE `+where, args...).Scan(&totals.Views, &totals.Likes, &totals.Comments)
	metrics.ObserveNetworkRequest("postgres", "content_items_sum", "content_items", start, err)
	return totals, err
}

// DeleteItems удаляет публикации указанных аккаунтов владельца.
func (p *Postgres) DeleteItems(ctx context.Context, ownerID int64, accountIDs []string) (int64, error) {
	if len(accountIDs) == 0 {
		return 0, nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM content_items WHERE owner_id=$1 AND account_id = ANY($2)`, ownerID, accountIDs)
	metrics.ObserveNetworkRequest("postgres", "content_items_delete", "content_items", start, err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

const favoriteColumns = `id, owner_id, platform, external_id, title, thumbnail_url, channel_name,
views_count, likes_count, comments_count, duration_seconds, transcript, created_at`

func scanFavorite(row pgx.Row) (domain.Favorite, error) {
	var (
		fav        domain.Favorite
		title      sql.NullString
		thumbnail  sql.NullString
		channel    sql.NullString
		views      sql.NullString
		likes      sql.NullString
		comments   sql.NullString
		duration   sql.NullInt64
		transcript sql.NullString
	)
	err := row.Scan(&fav.ID, &fav.OwnerID, &fav.Platform, &fav.ExternalID, &title, &thumbnail, &channel,
		&views, &likes, &comments, &duration, &transcript, &fav.CreatedAt)
	if err != nil {
		return domain.Favorite{}, err
	}
	if title.Valid {
		fav.Title = title.String
	}
	if thumbnail.Valid {
		fav.ThumbnailURL = thumbnail.String
	}
	if channel.Valid {
		fav.ChannelName = channel.String
	}
	if views.Valid {
		fav.ViewsCount = views.String
	}
	if likes.Valid {
		fav.LikesCount = likes.String
	}
	if comments.Valid {
		fav.CommentsCount = comments.String
	}
	if duration.Valid {
		v := duration.Int64
		fav.DurationSeconds = &v
	}
	if transcript.Valid {
		fav.Transcript = transcript.String
	}
	return fav, nil
}

// UpsertFavorite сохраняет закладку. Повторное добавление той же публикации
// освежает снимок счётчиков, транскрипт и дата создания не трогаются.
func (p *Postgres) UpsertFavorite(ctx context.Context, fav domain.Favorite) (domain.Favorite, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO favorites (id, owner_id, platform, external_id, title, thumbnail_url, channel_name,
    views_count, likes_count, comments_count, duration_seconds)
VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), NULLIF($10,''), $11)
ON CONFLICT (owner_id, platform, external_id) DO UPDATE
SET title = COALESCE(EXCLUDED.title, favorites.title),
    thumbnail_url = COALESCE(EXCLUDED.thumbnail_url, favorites.thumbnail_url),
    channel_name = COALESCE(EXCLUDED.channel_name, favorites.channel_name),
    views_count = COALESCE(EXCLUDED.views_count, favorites.views_count),
    likes_count = COALESCE(EXCLUDED.likes_count, favorites.likes_count),
    comments_count = COALESCE(EXCLUDED.comments_count, favorites.comments_count),
    duration_seconds = COALESCE(EXCLUDED.duration_seconds, favorites.duration_seconds)
RETURNING `+favoriteColumns+`
`, uuid.NewString(), fav.OwnerID, string(fav.Platform), fav.ExternalID, fav.Title, fav.ThumbnailURL,
		fav.ChannelName, fav.ViewsCount, fav.LikesCount, fav.CommentsCount, nullInt64(fav.DurationSeconds))
	saved, err := scanFavorite(row)
	metrics.ObserveNetworkRequest("postgres", "favorites_upsert", "favorites", start, err)
	return saved, err
}

// ListFavorites возвращает закладки владельца, новые первыми.
func (p *Postgres) ListFavorites(ctx context.Context, ownerID int64) ([]domain.Favorite, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+favoriteColumns+` FROM favorites WHERE owner_id=$1 ORDER BY created_at DESC
`, ownerID)
	metrics.ObserveNetworkRequest("postgres", "favorites_list", "favorites", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var favorites []domain.Favorite
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, fav)
	}
	return favorites, rows.Err()
}

// FindFavorite ищет закладку по идентификатору строки либо по external_id
// публикации: клиенты присылают и то и другое.
func (p *Postgres) FindFavorite(ctx context.Context, ownerID int64, idOrExternalID string) (domain.Favorite, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+favoriteColumns+` FROM favorites
WHERE owner_id=$1 AND (id=$2 OR external_id=$2)
LIMIT 1
`, ownerID, idOrExternalID)
	fav, err := scanFavorite(row)
	metrics.ObserveNetworkRequest("postgres", "favorites_find", "favorites", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Favorite{}, domain.ErrFavoriteNotFound
	}
	return fav, err
}

// DeleteFavorite удаляет закладку.
func (p *Postgres) DeleteFavorite(ctx context.Context, ownerID int64, favoriteID string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM favorites WHERE owner_id=$1 AND id=$2`, ownerID, favoriteID)
	metrics.ObserveNetworkRequest("postgres", "favorites_delete", "favorites", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFavoriteNotFound
	}
	return nil
}

// SetTranscript сохраняет транскрипт закладки.
func (p *Postgres) SetTranscript(ctx context.Context, ownerID int64, favoriteID string, transcript string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `UPDATE favorites SET transcript=$3 WHERE owner_id=$1 AND id=$2`, ownerID, favoriteID, transcript)
	metrics.ObserveNetworkRequest("postgres", "favorites_set_transcript", "favorites", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFavoriteNotFound
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
