package apify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"creator-dashboard/internal/domain"
)

func TestRunActorSyncRequiresToken(t *testing.T) {
	client := NewClient("", "http://unused", time.Second, time.Second)
	_, err := client.RunActorSync(context.Background(), "actor", nil)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Name != "APIFY_TOKEN" {
		t.Fatalf("ожидали ConfigError по токену, получили %v", err)
	}
}

func TestRunActorSyncRequiresActor(t *testing.T) {
	client := NewClient("token", "http://unused", time.Second, time.Second)
	_, err := client.RunActorSync(context.Background(), "", nil)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("ожидали ConfigError по актору, получили %v", err)
	}
}

func TestRunActorSyncMissingDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	client := NewClient("token", srv.URL, time.Second, time.Second)
	_, err := client.RunActorSync(context.Background(), "actor", map[string]any{})
	if !domain.IsUpstreamData(err) {
		t.Fatalf("ожидали ошибку данных источника, получили %v", err)
	}
}

func TestRunActorSyncWaitParameter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("waitForFinish") != "120" {
			t.Errorf("ожидали waitForFinish=120, получили %q", r.URL.Query().Get("waitForFinish"))
		}
		_, _ = w.Write([]byte(`{"data":{"defaultDatasetId":"ds-1"}}`))
	}))
	defer srv.Close()

	client := NewClient("token", srv.URL, 120*time.Second, time.Second)
	datasetID, err := client.RunActorSync(context.Background(), "actor", map[string]any{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if datasetID != "ds-1" {
		t.Fatalf("ожидали ds-1, получили %s", datasetID)
	}
}

func TestDatasetItemsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("clean") != "true" || q.Get("format") != "json" || q.Get("limit") != "30" {
			t.Errorf("неожиданные параметры: %v", q)
		}
		_, _ = w.Write([]byte(`[{"id":"p1"},{"id":"p2"}]`))
	}))
	defer srv.Close()

	client := NewClient("token", srv.URL, time.Second, time.Second)
	items, err := client.DatasetItems(context.Background(), "ds-1", 30)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ожидали 2 элемента, получили %d", len(items))
	}
}

func TestItemError(t *testing.T) {
	if ItemError(map[string]any{"id": "p1", "likes": float64(5)}) != nil {
		t.Fatal("обычный элемент не должен считаться ошибкой")
	}

	ue := ItemError(map[string]any{"errorCode": "no_items", "errorDescription": "профиль пуст"})
	if ue == nil {
		t.Fatal("маркер ошибки должен распознаваться")
	}
	if ue.Code != "no_items" || ue.Message != "профиль пуст" {
		t.Fatalf("код и сообщение должны сохраняться дословно: %+v", ue)
	}
	if ue.Kind != domain.UpstreamData {
		t.Fatalf("ожидали ошибку данных, получили %s", ue.Kind)
	}

	if ItemError(map[string]any{"error": "упало"}) == nil {
		t.Fatal("одно сообщение без кода — тоже маркер ошибки")
	}
	if ItemError(map[string]any{"error_code": "blocked"}) == nil {
		t.Fatal("один код без сообщения — тоже маркер ошибки")
	}
}
