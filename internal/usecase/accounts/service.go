package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"creator-dashboard/internal/adapters/youtube"
	"creator-dashboard/internal/domain"
)

// ChannelLookup — разрешение хэндла в канал у типизированного API.
type ChannelLookup interface {
	ChannelByHandle(ctx context.Context, handle string) (youtube.Channel, error)
}

// Service регистрирует отслеживаемые аккаунты и считает сводку по ним.
type Service struct {
	accounts domain.AccountRepo
	content  domain.ContentRepo
	youtube  ChannelLookup
	log      zerolog.Logger
}

// NewService создаёт сервис аккаунтов.
func NewService(accounts domain.AccountRepo, content domain.ContentRepo, lookup ChannelLookup, logger zerolog.Logger) *Service {
	return &Service{accounts: accounts, content: content, youtube: lookup, log: logger}
}

// channelIDRe распознаёт канонический идентификатор канала. Такой ввод
// принимается лексически, без сетевого вызова.
var channelIDRe = regexp.MustCompile(`^UC[0-9A-Za-z_-]{20,}$`)

// Register разрешает пользовательский ввод (идентификатор, хэндл или URL
// страницы) в канонический внешний идентификатор и сохраняет аккаунт.
// Повторная регистрация возвращает существующую запись, created=false.
func (s *Service) Register(ctx context.Context, ownerID int64, platform domain.Platform, input string) (domain.Account, bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return domain.Account{}, false, fmt.Errorf("%w: пустой идентификатор аккаунта", domain.ErrInvalidInput)
	}
	if !platform.Valid() {
		return domain.Account{}, false, fmt.Errorf("%w: неизвестная платформа %q", domain.ErrInvalidInput, platform)
	}

	var (
		externalID string
		patch      domain.AccountPatch
		err        error
	)
	switch platform {
	case domain.PlatformYouTube:
		externalID, patch, err = s.resolveYouTube(ctx, input)
	default:
		externalID, patch = resolveHandle(platform, input)
	}
	if err != nil {
		return domain.Account{}, false, err
	}

	acc, created, err := s.accounts.UpsertAccount(ctx, ownerID, platform, externalID, patch)
	if err != nil {
		return domain.Account{}, false, err
	}
	s.log.Info().
		Int64("owner_id", ownerID).
		Str("platform", string(platform)).
		Str("external_id", externalID).
		Bool("created", created).
		Msg("accounts: аккаунт зарегистрирован")
	return acc, created, nil
}

// resolveYouTube приводит ввод к идентификатору канала. Канонический ID
// доверяется лексически; хэндл из URL или с «@» стоит ровно одного вызова
// channels.list; голый токен сперва пробуется как хэндл и лишь затем как ID.
func (s *Service) resolveYouTube(ctx context.Context, input string) (string, domain.AccountPatch, error) {
	if channelIDRe.MatchString(input) {
		return input, domain.AccountPatch{URL: "https://www.youtube.com/channel/" + input}, nil
	}

	handle := input
	explicit := false
	if strings.Contains(input, "/") {
		explicit = true
		if id, h, ok := parseYouTubeURL(input); ok {
			if id != "" {
				return id, domain.AccountPatch{URL: "https://www.youtube.com/channel/" + id}, nil
			}
			handle = h
		} else {
			return "", domain.AccountPatch{}, fmt.Errorf("%w: не удалось разобрать ссылку %q", domain.ErrInvalidInput, input)
		}
	}
	if strings.HasPrefix(handle, "@") {
		explicit = true
		handle = strings.TrimPrefix(handle, "@")
	}
	if handle == "" {
		return "", domain.AccountPatch{}, fmt.Errorf("%w: пустой хэндл", domain.ErrInvalidInput)
	}

	ch, err := s.youtube.ChannelByHandle(ctx, handle)
	if errors.Is(err, domain.ErrNotFound) && !explicit {
		// Голый токен без «@» может оказаться нестандартным идентификатором
		// канала: оставляем как есть, API проверит его на этапе выгрузки.
		return input, domain.AccountPatch{}, nil
	}
	if err != nil {
		return "", domain.AccountPatch{}, err
	}

	patch := domain.AccountPatch{Handle: ch.Snippet.CustomURL}
	if patch.Handle == "" {
		patch.Handle = "@" + handle
	}
	patch.URL = "https://www.youtube.com/" + patch.Handle
	return ch.ID, patch, nil
}

// parseYouTubeURL извлекает из ссылки идентификатор канала либо хэндл.
func parseYouTubeURL(raw string) (id, handle string, ok bool) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}
	switch {
	case parts[0] == "channel" && len(parts) > 1 && channelIDRe.MatchString(parts[1]):
		return parts[1], "", true
	case strings.HasPrefix(parts[0], "@"):
		return "", strings.TrimPrefix(parts[0], "@"), true
	}
	return "", "", false
}

// resolveHandle приводит ввод скрейп-платформ к хэндлу. Сетевых вызовов
// нет: хэндл и есть внешний идентификатор.
func resolveHandle(platform domain.Platform, input string) (string, domain.AccountPatch) {
	handle := input
	if strings.Contains(input, "/") {
		raw := input
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		if u, err := url.Parse(raw); err == nil {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) > 0 && parts[0] != "" {
				handle = parts[0]
			}
		}
	}
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")

	patch := domain.AccountPatch{Handle: handle}
	switch platform {
	case domain.PlatformInstagram:
		patch.URL = "https://www.instagram.com/" + handle
	case domain.PlatformTikTok:
		patch.URL = "https://www.tiktok.com/@" + handle
	}
	return handle, patch
}

// List возвращает аккаунты владельца.
func (s *Service) List(ctx context.Context, ownerID int64, platform domain.Platform) ([]domain.Account, error) {
	if platform != "" && !platform.Valid() {
		return nil, fmt.Errorf("%w: неизвестная платформа %q", domain.ErrInvalidInput, platform)
	}
	return s.accounts.ListAccounts(ctx, ownerID, platform)
}

// Get возвращает аккаунт владельца.
func (s *Service) Get(ctx context.Context, ownerID int64, accountID string) (domain.Account, error) {
	return s.accounts.GetAccount(ctx, ownerID, accountID)
}

// Delete удаляет аккаунт вместе с его контентом. Возвращает число удалённых
// публикаций.
func (s *Service) Delete(ctx context.Context, ownerID int64, accountID string) (int64, error) {
	deleted, err := s.accounts.DeleteAccount(ctx, ownerID, accountID)
	if err != nil {
		return 0, err
	}
	s.log.Info().
		Int64("owner_id", ownerID).
		Str("account_id", accountID).
		Int64("items_deleted", deleted).
		Msg("accounts: аккаунт удалён")
	return deleted, nil
}

// Overview — сводка дашборда: аккаунты и агрегаты по сохранённому контенту.
type Overview struct {
	Accounts    int64
	Subscribers int64
	TotalViews  int64
	Items       int64
	Content     domain.ContentTotals
}

// Overview собирает сводку по сохранённым данным владельца. Сетевых
// вызовов нет: дашборд считается из локальной БД.
func (s *Service) Overview(ctx context.Context, ownerID int64, platform domain.Platform) (Overview, error) {
	if platform != "" && !platform.Valid() {
		return Overview{}, fmt.Errorf("%w: неизвестная платформа %q", domain.ErrInvalidInput, platform)
	}
	agg, err := s.accounts.AccountTotals(ctx, ownerID, platform)
	if err != nil {
		return Overview{}, err
	}
	filter := domain.ContentFilter{OwnerID: ownerID, Platform: platform}
	items, err := s.content.CountItems(ctx, filter)
	if err != nil {
		return Overview{}, err
	}
	totals, err := s.content.SumCounters(ctx, filter)
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		Accounts:    agg.Accounts,
		Subscribers: agg.Subscribers,
		TotalViews:  agg.TotalViews,
		Items:       items,
		Content:     totals,
	}, nil
}
