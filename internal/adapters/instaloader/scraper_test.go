package instaloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/domain"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scraper.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("не удалось записать скрипт: %v", err)
	}
	return path
}

func TestFetchProfileRequiresScript(t *testing.T) {
	s := NewScraper("sh", "", "", "", time.Second, zerolog.Nop())
	if s.Configured() {
		t.Fatal("без скрипта адаптер не настроен")
	}
	_, err := s.FetchProfile(context.Background(), "someuser", 10)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("ожидали ConfigError, получили %v", err)
	}
}

func TestFetchProfileParsesStdout(t *testing.T) {
	script := writeScript(t, `echo '{"success":true,"profile":{"username":"someuser","full_name":"Кто-то","followers":10,"mediacount":3},"posts":[{"shortcode":"p1","url":"https://www.instagram.com/p/p1"}],"total_posts":1}'`)
	s := NewScraper("sh", script, "", "", 5*time.Second, zerolog.Nop())

	result, err := s.FetchProfile(context.Background(), "someuser", 10)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if result.Profile == nil || result.Profile.Username != "someuser" {
		t.Fatalf("неожиданный профиль: %+v", result.Profile)
	}
	if len(result.Posts) != 1 {
		t.Fatalf("ожидали 1 публикацию, получили %d", len(result.Posts))
	}
}

func TestFetchProfileStructuredErrorPreferred(t *testing.T) {
	// Скрипт завершается с ненулевым кодом, но stdout несёт структурированную
	// ошибку: она точнее текста исключения.
	script := writeScript(t, `echo '{"success":false,"error":"профиль приватный","error_code":"private_profile"}'; exit 1`)
	s := NewScraper("sh", script, "", "", 5*time.Second, zerolog.Nop())

	_, err := s.FetchProfile(context.Background(), "someuser", 10)
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("ожидали UpstreamError, получили %v", err)
	}
	if ue.Kind != domain.UpstreamData || ue.Code != "private_profile" {
		t.Fatalf("код скрипта должен сохраняться дословно: %+v", ue)
	}
}

func TestFetchProfileFailureReported(t *testing.T) {
	script := writeScript(t, `echo '{"success":false,"error":"логин не удался"}'`)
	s := NewScraper("sh", script, "", "", 5*time.Second, zerolog.Nop())

	_, err := s.FetchProfile(context.Background(), "someuser", 10)
	if !domain.IsUpstreamData(err) {
		t.Fatalf("ожидали ошибку данных, получили %v", err)
	}
}

func TestFetchProfileGarbageStdout(t *testing.T) {
	script := writeScript(t, `echo 'это не JSON'`)
	s := NewScraper("sh", script, "", "", 5*time.Second, zerolog.Nop())

	_, err := s.FetchProfile(context.Background(), "someuser", 10)
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.Kind != domain.UpstreamTransport {
		t.Fatalf("мусорный stdout — транспортный сбой, получили %v", err)
	}
}
