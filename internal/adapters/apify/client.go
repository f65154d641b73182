package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creator-dashboard/internal/domain"
	"creator-dashboard/internal/infra/metrics"
)

const defaultBaseURL = "https://api.apify.com/v2"

// Client запускает scrape-задачи на управляемой платформе и читает их
// результаты. Настоящей пагинации здесь нет: каждый вызов — новая задача.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	wait    time.Duration
}

// NewClient создаёт клиента платформы. wait — ограниченное ожидание
// синхронного завершения задачи на стороне сервера.
func NewClient(token, baseURL string, wait, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if wait <= 0 {
		wait = 120 * time.Second
	}
	if timeout <= 0 {
		timeout = wait + 30*time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}, baseURL: baseURL, token: token, wait: wait}
}

type runResponse struct {
	Data struct {
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// RunActorSync запускает актора и ждёт завершения в пределах wait.
// Возвращает идентификатор набора результатов.
func (c *Client) RunActorSync(ctx context.Context, actorID string, input any) (string, error) {
	if c.token == "" {
		return "", &domain.ConfigError{Name: "APIFY_TOKEN"}
	}
	if actorID == "" {
		return "", &domain.ConfigError{Name: "APIFY_ACTOR_ID"}
	}
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("apify: marshal input: %w", err)
	}
	endpoint := fmt.Sprintf("%s/acts/%s/runs?token=%s&waitForFinish=%d",
		c.baseURL, url.PathEscape(actorID), url.QueryEscape(c.token), int(c.wait.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("apify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var run runResponse
	if err := c.do(req, "run_actor", actorID, &run); err != nil {
		return "", err
	}
	if run.Data.DefaultDatasetID == "" {
		return "", &domain.UpstreamError{
			Kind:      domain.UpstreamData,
			Source:    "apify",
			Operation: "run_actor",
			Message:   "задача не вернула defaultDatasetId",
		}
	}
	return run.Data.DefaultDatasetID, nil
}

// DatasetItems читает результаты задачи, не больше limit штук.
func (c *Client) DatasetItems(ctx context.Context, datasetID string, limit int) ([]map[string]any, error) {
	if c.token == "" {
		return nil, &domain.ConfigError{Name: "APIFY_TOKEN"}
	}
	endpoint := fmt.Sprintf("%s/datasets/%s/items?token=%s&clean=true&format=json&limit=%d",
		c.baseURL, url.PathEscape(datasetID), url.QueryEscape(c.token), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("apify: build request: %w", err)
	}
	var items []map[string]any
	if err := c.do(req, "dataset_items", datasetID, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) do(req *http.Request, operation, target string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("apify", operation, target, start, err)
		return &domain.UpstreamError{Kind: domain.UpstreamTransport, Source: "apify", Operation: operation, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("apify", operation, target, start, err)
		return &domain.UpstreamError{Kind: domain.UpstreamTransport, Source: "apify", Operation: operation, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ue := &domain.UpstreamError{
			Kind:      domain.UpstreamTransport,
			Source:    "apify",
			Operation: operation,
			Status:    resp.StatusCode,
			Message:   strings.TrimSpace(string(body)),
		}
		metrics.ObserveNetworkRequest("apify", operation, target, start, ue)
		return ue
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.ObserveNetworkRequest("apify", operation, target, start, err)
		return fmt.Errorf("apify: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("apify", operation, target, start, nil)
	return nil
}

// Частичный сбой задача сообщает не транспортной ошибкой, а маркером внутри
// элемента результата. Такой элемент — признак провала всей задачи.
var errorCodeKeys = []string{"errorCode", "error_code"}
var errorMessageKeys = []string{"errorDescription", "errorMessage", "error"}

// ItemError проверяет элемент результата на встроенный маркер ошибки.
// Возвращает nil, если элемент выглядит как данные.
func ItemError(item map[string]any) *domain.UpstreamError {
	var code, message string
	for _, key := range errorCodeKeys {
		if v, ok := item[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				code = s
				break
			}
		}
	}
	for _, key := range errorMessageKeys {
		if v, ok := item[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				message = s
				break
			}
		}
	}
	if code == "" && message == "" {
		return nil
	}
	if message == "" {
		message = "задача сообщила об ошибке"
	}
	return &domain.UpstreamError{
		Kind:      domain.UpstreamData,
		Source:    "apify",
		Operation: "dataset_items",
		Code:      code,
		Message:   message,
	}
}
