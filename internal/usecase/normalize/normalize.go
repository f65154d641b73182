package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"creator-dashboard/internal/adapters/instaloader"
	"creator-dashboard/internal/adapters/youtube"
	"creator-dashboard/internal/domain"
)

// Producer идентифицирует происхождение сырого элемента: имена полей у
// каждого производителя свои, иногда даже внутри одной платформы.
type Producer string

const (
	ProducerApifyInstagram Producer = "apify-instagram"
	ProducerApifyTikTok    Producer = "apify-tiktok"
	ProducerInstaloader    Producer = "instaloader"
)

// field — каноничное поле публикации.
type field string

const (
	fieldExternalID  field = "external_id"
	fieldURL         field = "url"
	fieldTitle       field = "title"
	fieldDescription field = "description"
	fieldThumbnail   field = "thumbnail"
	fieldViews       field = "views"
	fieldLikes       field = "likes"
	fieldComments    field = "comments"
	fieldPublished   field = "published"
	fieldDuration    field = "duration"
)

// itemFields — таблица соответствий: производитель -> каноничное поле ->
// упорядоченный список путей-кандидатов. Берётся первое присутствующее
// значение; пути с точкой читаются из вложенных объектов.
var itemFields = map[Producer]map[field][]string{
	ProducerApifyInstagram: {
		fieldExternalID:  {"id", "shortCode", "code", "postId", "url"},
		fieldURL:         {"url", "postUrl"},
		fieldTitle:       {"caption", "text", "title"},
		fieldDescription: {"caption", "text", "description"},
		fieldThumbnail:   {"displayUrl", "thumbnailUrl", "imageUrl", "videoThumbnail"},
		fieldViews:       {"videoPlayCount", "videoViewCount", "playCount", "views"},
		fieldLikes:       {"likesCount", "likes", "likeCount"},
		fieldComments:    {"commentsCount", "comments", "commentCount"},
		fieldPublished:   {"timestamp", "takenAt", "publishedAt", "createdAt"},
		fieldDuration:    {"videoDuration"},
	},
	ProducerApifyTikTok: {
		fieldExternalID:  {"id", "videoId", "postId"},
		fieldURL:         {"webVideoUrl", "url", "videoUrl"},
		fieldTitle:       {"text", "desc", "title"},
		fieldDescription: {"text", "desc", "description"},
		fieldThumbnail:   {"videoMeta.coverUrl", "covers.default", "thumbnail", "videoThumbnail"},
		fieldViews:       {"playCount", "plays", "views", "viewCount"},
		fieldLikes:       {"diggCount", "likes", "likeCount"},
		fieldComments:    {"commentCount", "comments", "commentsCount"},
		fieldPublished:   {"createTimeISO", "createTime", "createdAt"},
		fieldDuration:    {"videoMeta.duration", "duration"},
	},
	ProducerInstaloader: {
		fieldExternalID:  {"shortcode"},
		fieldURL:         {"url"},
		fieldTitle:       {"caption"},
		fieldDescription: {"caption"},
		fieldThumbnail:   {"thumbnail_url"},
		fieldViews:       {"video_view_count"},
		fieldLikes:       {"likes"},
		fieldComments:    {"comments"},
		fieldPublished:   {"date"},
		fieldDuration:    {"video_duration"},
	},
}

// instaloaderTitleLimit — подпись поста уходит и в заголовок; обрезаем.
const instaloaderTitleLimit = 200

// ScrapedItem нормализует сырой элемент скрейп-источника. Возвращает false,
// если у элемента нет external ID или URL: это необходимый минимум для
// сохранения, такой элемент пропускается вызывающей стороной.
func ScrapedItem(raw map[string]any, producer Producer) (domain.NormalizedItem, bool) {
	table, ok := itemFields[producer]
	if !ok {
		return domain.NormalizedItem{}, false
	}

	externalID, _ := firstString(raw, table[fieldExternalID])
	itemURL, _ := firstString(raw, table[fieldURL])
	if externalID == "" || itemURL == "" {
		return domain.NormalizedItem{}, false
	}

	item := domain.NormalizedItem{
		ExternalID: externalID,
		URL:        itemURL,
	}
	if title, ok := firstString(raw, table[fieldTitle]); ok {
		if producer == ProducerInstaloader && len(title) > instaloaderTitleLimit {
			title = title[:instaloaderTitleLimit]
		}
		item.Title = title
	}
	item.Description, _ = firstString(raw, table[fieldDescription])
	item.ThumbnailURL, _ = firstString(raw, table[fieldThumbnail])
	item.ViewsCount = firstCount(raw, table[fieldViews])
	item.LikesCount = firstCount(raw, table[fieldLikes])
	item.CommentsCount = firstCount(raw, table[fieldComments])
	item.DurationSeconds = firstCount(raw, table[fieldDuration])
	if published, ok := firstString(raw, table[fieldPublished]); ok {
		item.PublishedAt = ParseTimestamp(published)
	}
	item.Raw, _ = json.Marshal(raw)
	return item, true
}

// InstaloaderProfile переводит профиль скрипта в каноничную форму.
func InstaloaderProfile(p *instaloader.Profile) *domain.NormalizedProfile {
	if p == nil {
		return nil
	}
	profile := &domain.NormalizedProfile{
		DisplayName: p.FullName,
		Handle:      p.Username,
		AvatarURL:   p.ProfilePicURL,
	}
	if p.Followers >= 0 {
		followers := p.Followers
		profile.SubscribersCount = &followers
	}
	if p.MediaCount >= 0 {
		media := p.MediaCount
		profile.VideosCount = &media
	}
	profile.Raw, _ = json.Marshal(p)
	return profile
}

// YouTubeVideo нормализует видео типизированного API. Поля читаются из
// известных вложенных групп snippet/statistics/contentDetails.
func YouTubeVideo(v youtube.Video, isShort bool) (domain.NormalizedItem, bool) {
	if v.ID == "" {
		return domain.NormalizedItem{}, false
	}
	itemURL := "https://www.youtube.com/watch?v=" + v.ID
	if isShort {
		itemURL = "https://www.youtube.com/shorts/" + v.ID
	}
	item := domain.NormalizedItem{
		ExternalID:   v.ID,
		URL:          itemURL,
		Title:        v.Snippet.Title,
		Description:  v.Snippet.Description,
		ThumbnailURL: v.Snippet.Thumbnails.BestURL(),
		PublishedAt:  ParseTimestamp(v.Snippet.PublishedAt),
		IsShort:      isShort,
	}
	item.ViewsCount = parseCount(v.Statistics.ViewCount)
	item.LikesCount = parseCount(v.Statistics.LikeCount)
	item.CommentsCount = parseCount(v.Statistics.CommentCount)
	if seconds, ok := ParseISODuration(v.ContentDetails.Duration); ok {
		item.DurationSeconds = &seconds
	}
	item.Raw, _ = json.Marshal(v)
	return item, true
}

// YouTubeChannelProfile нормализует профиль канала.
func YouTubeChannelProfile(ch youtube.Channel) domain.NormalizedProfile {
	profile := domain.NormalizedProfile{
		DisplayName: ch.Snippet.Title,
		Handle:      ch.Snippet.CustomURL,
		AvatarURL:   ch.Snippet.Thumbnails.BestURL(),
	}
	profile.SubscribersCount = parseCount(ch.Statistics.SubscriberCount)
	profile.TotalViewsCount = parseCount(ch.Statistics.ViewCount)
	profile.VideosCount = parseCount(ch.Statistics.VideoCount)
	profile.Raw, _ = json.Marshal(ch)
	return profile
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration разбирает длительность вида "PT1H2M3S" в секунды.
// Каждая группа опциональна, отсутствующая считается нулём. Строка без
// узнаваемого шаблона — «длительность неизвестна», не ошибка.
func ParseISODuration(iso string) (int64, bool) {
	if iso == "" {
		return 0, false
	}
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil {
		return 0, false
	}
	var total int64
	for i, mult := range []int64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, false
		}
		total += n * mult
	}
	return total, true
}

// msThreshold разрешает неоднозначность числовых дат: значения меньше
// считаются секундами с эпохи, большие — уже миллисекундами.
const msThreshold = 10_000_000_000

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var digitsRe = regexp.MustCompile(`^\d+$`)

// ParseTimestamp разбирает дату из ISO-строки либо числовой строки
// (секунды или миллисекунды с эпохи). Неразборчивое значение — nil,
// никогда не паника.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if digitsRe.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return nil
		}
		ms := n
		if n < msThreshold {
			ms = n * 1000
		}
		ts := time.UnixMilli(ms).UTC()
		return &ts
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			ts := parsed.UTC()
			return &ts
		}
	}
	return nil
}

// firstString возвращает первое присутствующее значение по списку путей,
// приведённое к строке. Пустые строки и nil пропускаются.
func firstString(raw map[string]any, paths []string) (string, bool) {
	for _, path := range paths {
		v, ok := lookupPath(raw, path)
		if !ok {
			continue
		}
		s := coerceString(v)
		if s != "" {
			return s, true
		}
	}
	return "", false
}

// firstCount возвращает первый разбираемый счётчик по списку путей.
// Отрицательные значения считаются мусором и отбрасываются.
func firstCount(raw map[string]any, paths []string) *int64 {
	for _, path := range paths {
		v, ok := lookupPath(raw, path)
		if !ok {
			continue
		}
		if n := coerceCount(v); n != nil {
			return n
		}
	}
	return nil
}

func lookupPath(raw map[string]any, path string) (any, bool) {
	current := any(raw)
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

func coerceString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case json.Number:
		return value.String()
	}
	return ""
}

func coerceCount(v any) *int64 {
	switch value := v.(type) {
	case float64:
		if value < 0 {
			return nil
		}
		n := int64(value)
		return &n
	case string:
		return parseCount(value)
	case json.Number:
		return parseCount(value.String())
	}
	return nil
}

// parseCount разбирает строковый счётчик. Пустая строка — «источник
// промолчал», сохраняется nil, а не ноль.
func parseCount(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
