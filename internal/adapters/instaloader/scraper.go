package instaloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/domain"
	"creator-dashboard/internal/infra/metrics"
)

// Scraper вызывает внешний скрипт по хэндлу аккаунта и разбирает его stdout
// как один JSON-документ. Пагинации нет: каждый вызов отдаёт последние N
// публикаций.
type Scraper struct {
	python   string
	script   string
	username string
	password string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewScraper создаёт адаптер внешнего скрипта. username/password — необязательные
// учётные данные, передаются скрипту дополнительными аргументами.
func NewScraper(python, script, username, password string, timeout time.Duration, logger zerolog.Logger) *Scraper {
	if python == "" {
		python = "python3"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Scraper{python: python, script: script, username: username, password: password, timeout: timeout, log: logger}
}

// Configured сообщает, задан ли путь к скрипту.
func (s *Scraper) Configured() bool {
	return s != nil && s.script != ""
}

// Profile — данные профиля из скрипта.
type Profile struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	Biography     string `json:"biography"`
	Followers     int64  `json:"followers"`
	Following     int64  `json:"following"`
	IsVerified    bool   `json:"is_verified"`
	IsPrivate     bool   `json:"is_private"`
	ProfilePicURL string `json:"profile_pic_url"`
	ExternalURL   string `json:"external_url"`
	MediaCount    int64  `json:"mediacount"`
}

// Result — полный ответ скрипта: флаг успеха, профиль и публикации либо
// структурированная ошибка.
type Result struct {
	Success    bool             `json:"success"`
	Profile    *Profile         `json:"profile"`
	Posts      []map[string]any `json:"posts"`
	TotalPosts int              `json:"total_posts"`
	Error      string           `json:"error"`
	ErrorCode  string           `json:"error_code"`
}

// FetchProfile запускает скрипт и возвращает разобранный результат.
// Ненулевой код выхода — сбой, если только stdout не разбирается как
// структурированная ошибка: она точнее текста исключения.
func (s *Scraper) FetchProfile(ctx context.Context, username string, limit int) (Result, error) {
	if s.script == "" {
		return Result{}, &domain.ConfigError{Name: "INSTAGRAM_SCRAPER_SCRIPT"}
	}

	args := []string{s.script, username, strconv.Itoa(limit)}
	if s.username != "" && s.password != "" {
		args = append(args, s.username, s.password)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.python, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	metrics.ObserveNetworkRequest("instaloader", "scrape_profile", username, start, runErr)

	if msg := strings.TrimSpace(stderr.String()); msg != "" && !strings.Contains(msg, "Warning") {
		s.log.Warn().Str("username", username).Str("stderr", msg).Msg("instaloader: скрипт пишет в stderr")
	}

	var result Result
	parseErr := json.Unmarshal(stdout.Bytes(), &result)

	if runErr != nil {
		metrics.ScraperProcessErrors.Inc()
		if parseErr == nil && (result.Error != "" || result.ErrorCode != "") {
			return Result{}, s.dataError(result)
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return Result{}, &domain.UpstreamError{
				Kind: domain.UpstreamTransport, Source: "instaloader", Operation: "scrape_profile",
				Message: fmt.Sprintf("скрипт не уложился в %s", s.timeout),
			}
		}
		return Result{}, &domain.UpstreamError{
			Kind: domain.UpstreamTransport, Source: "instaloader", Operation: "scrape_profile",
			Message: runErr.Error(),
		}
	}
	if parseErr != nil {
		return Result{}, &domain.UpstreamError{
			Kind: domain.UpstreamTransport, Source: "instaloader", Operation: "scrape_profile",
			Message: fmt.Sprintf("stdout не разбирается как JSON: %v", parseErr),
		}
	}
	if !result.Success {
		return Result{}, s.dataError(result)
	}
	return result, nil
}

func (s *Scraper) dataError(result Result) error {
	message := result.Error
	if message == "" {
		message = "скрипт сообщил об ошибке без описания"
	}
	return &domain.UpstreamError{
		Kind:      domain.UpstreamData,
		Source:    "instaloader",
		Operation: "scrape_profile",
		Code:      result.ErrorCode,
		Message:   message,
	}
}
