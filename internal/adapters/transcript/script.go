package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/domain"
	"creator-dashboard/internal/infra/metrics"
)

// Script получает транскрипт видео внешним скриптом: тот же процессный
// адаптер, что и скрейпер, но с собственным форматом вывода.
type Script struct {
	python  string
	script  string
	timeout time.Duration
	log     zerolog.Logger
}

// NewScript создаёт адаптер скрипта транскриптов.
func NewScript(python, script string, timeout time.Duration, logger zerolog.Logger) *Script {
	if python == "" {
		python = "python3"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Script{python: python, script: script, timeout: timeout, log: logger}
}

type scriptResponse struct {
	Success   bool   `json:"success"`
	VideoID   string `json:"video_id"`
	Language  string `json:"language"`
	FullText  string `json:"full_text"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

var _ domain.TranscriptProvider = (*Script)(nil)

// FetchTranscript возвращает полный текст транскрипта публикации.
func (s *Script) FetchTranscript(ctx context.Context, externalID string, languages []string) (string, error) {
	if s.script == "" {
		return "", &domain.ConfigError{Name: "TRANSCRIPT_SCRIPT"}
	}

	args := []string{s.script, externalID}
	if len(languages) > 0 {
		args = append(args, strings.Join(languages, ","))
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.python, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	metrics.ObserveNetworkRequest("transcript", "fetch", externalID, start, runErr)

	if msg := strings.TrimSpace(stderr.String()); msg != "" && !strings.Contains(msg, "DeprecationWarning") {
		s.log.Warn().Str("video_id", externalID).Str("stderr", msg).Msg("transcript: скрипт пишет в stderr")
	}

	var resp scriptResponse
	parseErr := json.Unmarshal(stdout.Bytes(), &resp)

	if runErr != nil {
		metrics.ScraperProcessErrors.Inc()
		if parseErr == nil && (resp.Error != "" || resp.ErrorCode != "") {
			return "", s.dataError(resp)
		}
		return "", &domain.UpstreamError{
			Kind: domain.UpstreamTransport, Source: "transcript", Operation: "fetch",
			Message: runErr.Error(),
		}
	}
	if parseErr != nil {
		return "", &domain.UpstreamError{
			Kind: domain.UpstreamTransport, Source: "transcript", Operation: "fetch",
			Message: fmt.Sprintf("stdout не разбирается как JSON: %v", parseErr),
		}
	}
	if !resp.Success {
		return "", s.dataError(resp)
	}
	return resp.FullText, nil
}

func (s *Script) dataError(resp scriptResponse) error {
	message := resp.Error
	if message == "" {
		message = "скрипт сообщил об ошибке без описания"
	}
	return &domain.UpstreamError{
		Kind:      domain.UpstreamData,
		Source:    "transcript",
		Operation: "fetch",
		Code:      resp.ErrorCode,
		Message:   message,
	}
}
