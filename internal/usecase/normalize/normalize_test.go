package normalize

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"creator-dashboard/internal/adapters/youtube"
)

func TestParseISODuration(t *testing.T) {
	for _, h := range []int64{0, 2} {
		for _, m := range []int64{0, 5, 59} {
			for _, sec := range []int64{0, 5, 59} {
				iso := "PT"
				if h > 0 {
					iso += fmt.Sprintf("%dH", h)
				}
				if m > 0 {
					iso += fmt.Sprintf("%dM", m)
				}
				if sec > 0 {
					iso += fmt.Sprintf("%dS", sec)
				}
				got, ok := ParseISODuration(iso)
				if !ok {
					t.Fatalf("не разобрали %s", iso)
				}
				want := h*3600 + m*60 + sec
				if got != want {
					t.Fatalf("%s: ожидали %d, получили %d", iso, want, got)
				}
			}
		}
	}
}

func TestParseISODurationMalformed(t *testing.T) {
	for _, iso := range []string{"", "P1D", "PT1X", "1H2M", "часы"} {
		if _, ok := ParseISODuration(iso); ok {
			t.Fatalf("ожидали отказ для %q", iso)
		}
	}
}

func TestParseTimestampNumeric(t *testing.T) {
	// 9999999999 — ещё секунды, 10000000000 — уже миллисекунды.
	seconds := ParseTimestamp("9999999999")
	if seconds == nil {
		t.Fatal("не разобрали секунды")
	}
	millis := ParseTimestamp("10000000000")
	if millis == nil {
		t.Fatal("не разобрали миллисекунды")
	}
	if !seconds.After(*millis) {
		t.Fatalf("граница сломана: %v должно быть позже %v", seconds, millis)
	}
	if got := ParseTimestamp("1700000000"); got == nil || got.Year() != 2023 {
		t.Fatalf("ожидали 2023 год, получили %v", got)
	}
}

func TestParseTimestampISO(t *testing.T) {
	got := ParseTimestamp("2024-03-01T12:30:00Z")
	if got == nil {
		t.Fatal("не разобрали RFC3339")
	}
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ожидали %v, получили %v", want, got)
	}
	if ParseTimestamp("не дата") != nil {
		t.Fatal("мусор должен давать nil")
	}
	if ParseTimestamp("") != nil {
		t.Fatal("пустая строка должна давать nil")
	}
}

func TestScrapedItemRequiresIDAndURL(t *testing.T) {
	cases := []map[string]any{
		{},
		{"id": "abc"},
		{"url": "https://example.com/p/abc"},
	}
	for i, raw := range cases {
		if _, ok := ScrapedItem(raw, ProducerApifyInstagram); ok {
			t.Fatalf("случай %d: элемент без ID или URL должен отбрасываться", i)
		}
	}
	if _, ok := ScrapedItem(map[string]any{"id": "abc", "url": "https://example.com/p/abc"}, ProducerApifyInstagram); !ok {
		t.Fatal("элемент с ID и URL должен приниматься")
	}
}

func TestScrapedItemCandidateOrder(t *testing.T) {
	raw := map[string]any{
		"id":             "first",
		"shortCode":      "second",
		"url":            "https://example.com/p/first",
		"videoPlayCount": float64(100),
		"playCount":      float64(5),
		"likesCount":     float64(10),
		"timestamp":      "2024-03-01T12:30:00Z",
	}
	item, ok := ScrapedItem(raw, ProducerApifyInstagram)
	if !ok {
		t.Fatal("элемент должен приниматься")
	}
	if item.ExternalID != "first" {
		t.Fatalf("ожидали первого кандидата, получили %s", item.ExternalID)
	}
	if item.ViewsCount == nil || *item.ViewsCount != 100 {
		t.Fatalf("ожидали просмотры по первому кандидату, получили %v", item.ViewsCount)
	}
	if item.LikesCount == nil || *item.LikesCount != 10 {
		t.Fatalf("ожидали 10 лайков, получили %v", item.LikesCount)
	}
	if item.PublishedAt == nil {
		t.Fatal("ожидали разобранную дату")
	}
	if item.CommentsCount != nil {
		t.Fatal("отсутствующий счётчик должен оставаться nil")
	}
}

func TestScrapedItemTikTokNestedPaths(t *testing.T) {
	raw := map[string]any{
		"id":          "7123",
		"webVideoUrl": "https://www.tiktok.com/@user/video/7123",
		"videoMeta": map[string]any{
			"coverUrl": "https://cdn.example.com/cover.jpg",
			"duration": float64(42),
		},
		"diggCount":  float64(7),
		"createTime": "1700000000",
	}
	item, ok := ScrapedItem(raw, ProducerApifyTikTok)
	if !ok {
		t.Fatal("элемент должен приниматься")
	}
	if item.ThumbnailURL != "https://cdn.example.com/cover.jpg" {
		t.Fatalf("ожидали превью из вложенного пути, получили %s", item.ThumbnailURL)
	}
	if item.DurationSeconds == nil || *item.DurationSeconds != 42 {
		t.Fatalf("ожидали длительность 42, получили %v", item.DurationSeconds)
	}
	if item.LikesCount == nil || *item.LikesCount != 7 {
		t.Fatalf("ожидали diggCount, получили %v", item.LikesCount)
	}
	if item.PublishedAt == nil || item.PublishedAt.Year() != 2023 {
		t.Fatalf("ожидали дату из createTime, получили %v", item.PublishedAt)
	}
}

func TestScrapedItemInstaloaderTitleLimit(t *testing.T) {
	raw := map[string]any{
		"shortcode": "abc",
		"url":       "https://www.instagram.com/p/abc",
		"caption":   strings.Repeat("ы", 300),
	}
	item, ok := ScrapedItem(raw, ProducerInstaloader)
	if !ok {
		t.Fatal("элемент должен приниматься")
	}
	if len(item.Title) > instaloaderTitleLimit {
		t.Fatalf("заголовок не обрезан: %d байт", len(item.Title))
	}
	if len(item.Description) <= instaloaderTitleLimit {
		t.Fatal("описание обрезаться не должно")
	}
}

func TestYouTubeVideo(t *testing.T) {
	var v youtube.Video
	v.ID = "vid123"
	v.Snippet.Title = "Заголовок"
	v.Snippet.PublishedAt = "2024-03-01T12:30:00Z"
	v.Statistics.ViewCount = "1000"
	v.Statistics.LikeCount = ""
	v.ContentDetails.Duration = "PT2M5S"

	item, ok := YouTubeVideo(v, false)
	if !ok {
		t.Fatal("видео с ID должно приниматься")
	}
	if item.URL != "https://www.youtube.com/watch?v=vid123" {
		t.Fatalf("неожиданный URL: %s", item.URL)
	}
	if item.ViewsCount == nil || *item.ViewsCount != 1000 {
		t.Fatalf("ожидали 1000 просмотров, получили %v", item.ViewsCount)
	}
	if item.LikesCount != nil {
		t.Fatal("пустой счётчик должен оставаться nil")
	}
	if item.DurationSeconds == nil || *item.DurationSeconds != 125 {
		t.Fatalf("ожидали 125 секунд, получили %v", item.DurationSeconds)
	}

	short, _ := YouTubeVideo(v, true)
	if short.URL != "https://www.youtube.com/shorts/vid123" {
		t.Fatalf("неожиданный URL шортса: %s", short.URL)
	}
	if !short.IsShort {
		t.Fatal("ожидали признак короткого ролика")
	}

	if _, ok := YouTubeVideo(youtube.Video{}, false); ok {
		t.Fatal("видео без ID должно отбрасываться")
	}
}

func TestYouTubeChannelProfile(t *testing.T) {
	var ch youtube.Channel
	ch.ID = "UCabc"
	ch.Snippet.Title = "Канал"
	ch.Snippet.CustomURL = "@kanal"
	ch.Statistics.SubscriberCount = "500"
	ch.Statistics.ViewCount = "нечисло"

	profile := YouTubeChannelProfile(ch)
	if profile.DisplayName != "Канал" || profile.Handle != "@kanal" {
		t.Fatalf("неожиданный профиль: %+v", profile)
	}
	if profile.SubscribersCount == nil || *profile.SubscribersCount != 500 {
		t.Fatalf("ожидали 500 подписчиков, получили %v", profile.SubscribersCount)
	}
	if profile.TotalViewsCount != nil {
		t.Fatal("неразборчивый счётчик должен оставаться nil")
	}
}
