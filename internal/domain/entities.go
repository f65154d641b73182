package domain

import "time"

// Platform определяет платформу, на которой отслеживается аккаунт.
type Platform string

const (
	// PlatformYouTube — типизированный REST API.
	PlatformYouTube Platform = "YOUTUBE"
	// PlatformInstagram — управляемый скрейпинг либо локальный скрипт.
	PlatformInstagram Platform = "INSTAGRAM"
	// PlatformTikTok — управляемый скрейпинг.
	PlatformTikTok Platform = "TIKTOK"
)

// Valid сообщает, известна ли платформа.
func (p Platform) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformInstagram, PlatformTikTok:
		return true
	}
	return false
}

// CursorEnd — зарезервированное значение курсора «страниц больше нет».
const CursorEnd = "__END__"

// ContentKind различает основную ленту и короткие ролики: у каждой свой
// независимый курсор пагинации.
type ContentKind string

const (
	KindMain   ContentKind = "main"
	KindShorts ContentKind = "shorts"
)

// Account описывает один отслеживаемый профиль на одной платформе.
// Натуральный ключ — (owner_id, platform, external_id).
type Account struct {
	ID                  string
	OwnerID             int64
	Platform            Platform
	ExternalID          string
	DisplayName         string
	Handle              string
	URL                 string
	AvatarURL           string
	SubscribersCount    *int64
	TotalViewsCount     *int64
	VideosCount         *int64
	NextPageToken       *string
	ShortsNextPageToken *string
	LastFetchedAt       *time.Time
	RawJSON             []byte
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ContentItem представляет одну публикацию (видео, reel, short, пост),
// принадлежащую ровно одному аккаунту. Счётчики равны nil, когда источник
// их не сообщил: ноль никогда не выдумывается.
type ContentItem struct {
	ID              string
	OwnerID         int64
	AccountID       string
	Platform        Platform
	ExternalID      string
	URL             string
	Title           string
	Description     string
	ThumbnailURL    string
	PublishedAt     *time.Time
	ViewsCount      *int64
	LikesCount      *int64
	CommentsCount   *int64
	DurationSeconds *int64
	IsShort         bool
	RawJSON         []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Favorite — закладка пользователя на публикацию. Хранит external_id, а не
// внешний ключ: закладка переживает очистку контента. Счётчики — снимок на
// момент добавления, поэтому хранятся строками.
type Favorite struct {
	ID              string
	OwnerID         int64
	Platform        Platform
	ExternalID      string
	Title           string
	ThumbnailURL    string
	ChannelName     string
	ViewsCount      string
	LikesCount      string
	CommentsCount   string
	DurationSeconds *int64
	Transcript      string
	CreatedAt       time.Time
}

// NormalizedItem — каноничная форма публикации после нормализации сырого
// ответа источника. ExternalID и URL обязательны, остальное опционально.
type NormalizedItem struct {
	ExternalID      string
	URL             string
	Title           string
	Description     string
	ThumbnailURL    string
	PublishedAt     *time.Time
	ViewsCount      *int64
	LikesCount      *int64
	CommentsCount   *int64
	DurationSeconds *int64
	IsShort         bool
	Raw             []byte
}

// NormalizedProfile — каноничная форма профиля аккаунта.
type NormalizedProfile struct {
	DisplayName      string
	Handle           string
	AvatarURL        string
	SubscribersCount *int64
	TotalViewsCount  *int64
	VideosCount      *int64
	Raw              []byte
}

// AccountPatch — поля, проставляемые при регистрации аккаунта.
type AccountPatch struct {
	URL    string
	Handle string
}

// ContentFilter ограничивает выборки и агрегаты по контенту.
type ContentFilter struct {
	OwnerID   int64
	Platform  Platform
	AccountID string
	IsShort   *bool
}

// ContentTotals — суммы счётчиков по выборке контента.
type ContentTotals struct {
	Views    int64
	Likes    int64
	Comments int64
}

// AccountAggregate — суммарные показатели по аккаунтам владельца.
type AccountAggregate struct {
	Accounts    int64
	Subscribers int64
	TotalViews  int64
}
