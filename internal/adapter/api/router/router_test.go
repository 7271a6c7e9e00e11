package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradehub/internal/adapter/api"
	"tradehub/internal/adapter/api/handler"
	"tradehub/internal/adapter/api/middleware"
	"tradehub/internal/adapter/repository"
	"tradehub/internal/domain/entity"
	domainrepo "tradehub/internal/domain/repository"
	"tradehub/internal/domain/service"
	"tradehub/internal/infrastructure/firebase"
	"tradehub/internal/infrastructure/ratelimit"
	"tradehub/internal/usecase"
	"tradehub/pkg/logger"
	"tradehub/pkg/response"
)

func init() {
	logger.SetNop()
}

type envelope struct {
	Success bool               `json:"success"`
	Data    json.RawMessage    `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

type server struct {
	t *testing.T
	e *echo.Echo
}

func newServer(t *testing.T) *server {
	t.Helper()

	store := repository.NewMemoryStore()
	require.NoError(t, store.RunTransaction(context.Background(), func(ctx context.Context, tx domainrepo.Tx) error {
		for _, u := range []*entity.User{
			{ID: "alice", Username: "Alice"},
			{ID: "bob", Username: "Bob"},
			{ID: "mia", Username: "Mia", Roles: []string{entity.RoleMiddleman}},
			{ID: "root", Username: "Root", Roles: []string{entity.RoleAdmin}},
		} {
			if err := tx.PutUser(u); err != nil {
				return err
			}
		}
		return tx.PutItem(&entity.Item{ID: "item1", GameID: "g1", Name: "Golden Sword"})
	}))
	return serve(t, store)
}

// newDevServer starts from the built-in development seed, as the memory backend does.
func newDevServer(t *testing.T) *server {
	t.Helper()

	store := repository.NewMemoryStore()
	seed, err := repository.LoadSeed("")
	require.NoError(t, err)
	require.NoError(t, seed.Apply(context.Background(), store, time.Now().UTC()))
	return serve(t, store)
}

func serve(t *testing.T, store domainrepo.Store) *server {
	t.Helper()

	gate := service.NewPermissionGate()
	limiter := ratelimit.Unlimited{}
	profiles := usecase.NewProfileResolver(store)
	notifications := usecase.NewNotificationUseCase(store)
	ads := usecase.NewTradeAdUseCase(store, gate, limiter)
	followUps := usecase.NewFollowUpUseCase(store, ads, notifications, 3)
	chats := usecase.NewChatUseCase(store, gate, limiter)
	offers := usecase.NewTradeOfferUseCase(store, chats, followUps, gate, limiter, profiles)
	calls := usecase.NewMiddlemanCallUseCase(store, chats, followUps, gate, limiter, profiles)
	users := usecase.NewUserUseCase(store, nil)

	e := echo.New()
	e.Validator = api.NewValidator()
	Setup(e, Handlers{
		Health:        handler.NewHealthHandler(),
		TradeAd:       handler.NewTradeAdHandler(ads),
		Chat:          handler.NewChatHandler(chats),
		TradeOffer:    handler.NewTradeOfferHandler(offers),
		MiddlemanCall: handler.NewMiddlemanCallHandler(calls),
		Notification:  handler.NewNotificationHandler(notifications),
		User:          handler.NewUserHandler(users),
	}, middleware.NewAuthMiddleware(firebase.NewDevAuthClient(store)))

	return &server{t: t, e: e}
}

func (s *server) do(method, path, user, body string) (int, envelope) {
	s.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+firebase.DevTokenPrefix+user)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(path, "/v1") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *server) decode(env envelope, v interface{}) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(env.Data, v))
}

func TestHealthCheck(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAuthenticationRequired(t *testing.T) {
	s := newServer(t)

	code, env := s.do(http.MethodGet, "/v1/chats", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/chats", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTradeFlowOverHTTP(t *testing.T) {
	s := newServer(t)

	code, env := s.do(http.MethodPost, "/v1/trade-ads", "alice", `{"have_items":[{"item_id":"item1","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var ad entity.TradeAd
	s.decode(env, &ad)

	code, env = s.do(http.MethodPost, "/v1/chats", "bob", `{"type":"trade","participant_ids":["alice"],"trade_ad_id":"`+ad.ID+`"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var chat entity.Chat
	s.decode(env, &chat)

	code, env = s.do(http.MethodPost, "/v1/chats/"+chat.ID+"/trade-offers", "bob", `{"offering":[{"item_id":"item1","quantity":0}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, env = s.do(http.MethodPost, "/v1/chats/"+chat.ID+"/trade-offers", "bob", `{"requesting":[{"item_id":"item1","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(http.MethodGet, "/v1/chats/"+chat.ID, "alice", "")
	require.Equal(t, http.StatusOK, code)
	s.decode(env, &chat)
	require.NotEmpty(t, chat.ActiveTradeOfferID)
	assert.Equal(t, entity.TradeStatusPending, chat.TradeStatus)

	path := "/v1/trade-offers/" + chat.ActiveTradeOfferID + "/status"
	code, env = s.do(http.MethodPut, path, "bob", `{"status":"accepted"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	code, _ = s.do(http.MethodPut, path, "alice", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodPut, path, "alice", `{"status":"declined"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	code, _ = s.do(http.MethodPut, path, "alice", `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/v1/trade-ads/"+ad.ID, "bob", "")
	require.Equal(t, http.StatusOK, code)
	s.decode(env, &ad)
	assert.Equal(t, entity.TradeAdClosed, ad.Status)

	code, env = s.do(http.MethodGet, "/v1/chats/"+chat.ID+"/unread", "alice", "")
	require.Equal(t, http.StatusOK, code)
	var unread map[string]int
	s.decode(env, &unread)
	assert.Equal(t, 2, unread["unread_count"], "bob's offer plus the acceptance notice")

	code, env = s.do(http.MethodGet, "/v1/notifications", "bob", "")
	require.Equal(t, http.StatusOK, code)
	var page response.PaginatedResponse
	s.decode(env, &page)
	assert.Equal(t, int64(1), page.Total)
}

func TestMiddlemanRoutesOverHTTP(t *testing.T) {
	s := newServer(t)

	code, env := s.do(http.MethodPost, "/v1/chats", "alice", `{"type":"direct_message","participant_ids":["bob"]}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var chat entity.Chat
	s.decode(env, &chat)

	code, env = s.do(http.MethodPost, "/v1/chats/"+chat.ID+"/middleman-calls", "alice", `{"reason":"","estimated_wait_time":5}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodPost, "/v1/chats/"+chat.ID+"/middleman-calls", "alice", `{"reason":"check the account","estimated_wait_time":5}`)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, _ = s.do(http.MethodGet, "/v1/middleman-calls/pending", "alice", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodGet, "/v1/middleman-calls/pending", "mia", "")
	require.Equal(t, http.StatusOK, code)
	var queue []usecase.PendingCall
	s.decode(env, &queue)
	require.Len(t, queue, 1)

	code, _ = s.do(http.MethodPut, "/v1/middleman-calls/"+queue[0].ID+"/status", "mia", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodPost, "/v1/chats/"+chat.ID+"/resolve", "mia", `{"outcome":"completed"}`)
	assert.Equal(t, http.StatusBadRequest, code, "direct messages have no trade to resolve")
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = s.do(http.MethodPost, "/v1/trade-ads/whatever/expire", "alice", "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestDevSeedRunsFullTrade(t *testing.T) {
	s := newDevServer(t)

	code, env := s.do(http.MethodPost, "/v1/trade-ads", "alice", `{"have_items":[{"item_id":"golden-sword","quantity":1}],"want_items":[{"item_id":"dragon-mount","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var ad entity.TradeAd
	s.decode(env, &ad)

	code, env = s.do(http.MethodPost, "/v1/chats", "bob", `{"type":"trade","participant_ids":["alice"],"trade_ad_id":"`+ad.ID+`"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var chat entity.Chat
	s.decode(env, &chat)

	code, env = s.do(http.MethodPost, "/v1/chats/"+chat.ID+"/trade-offers", "bob", `{"offering":[{"item_id":"dragon-mount","quantity":1}],"requesting":[{"item_id":"golden-sword","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(http.MethodGet, "/v1/chats/"+chat.ID, "alice", "")
	require.Equal(t, http.StatusOK, code)
	s.decode(env, &chat)
	code, _ = s.do(http.MethodPut, "/v1/trade-offers/"+chat.ActiveTradeOfferID+"/status", "alice", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodPost, "/v1/chats/"+chat.ID+"/middleman-calls", "bob", `{"reason":"escort the swap","desired_middleman_id":"max"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)

	code, env = s.do(http.MethodGet, "/v1/middleman-calls/pending", "max", "")
	require.Equal(t, http.StatusOK, code)
	var queue []usecase.PendingCall
	s.decode(env, &queue)
	require.Len(t, queue, 1)

	code, _ = s.do(http.MethodPut, "/v1/middleman-calls/"+queue[0].ID+"/status", "max", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, code)
	code, env = s.do(http.MethodPost, "/v1/chats/"+chat.ID+"/resolve", "max", `{"outcome":"completed"}`)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(http.MethodGet, "/v1/chats/"+chat.ID, "bob", "")
	require.Equal(t, http.StatusOK, code)
	s.decode(env, &chat)
	assert.Equal(t, entity.TradeStatusCompleted, chat.TradeStatus)
}

func TestRoleGrantOverHTTP(t *testing.T) {
	s := newDevServer(t)

	code, _ := s.do(http.MethodPut, "/v1/users/bob/roles", "alice", `{"roles":["middleman"]}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodPut, "/v1/users/bob/roles", "root", `{"roles":["wizard"]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = s.do(http.MethodGet, "/v1/middleman-calls/pending", "bob", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPut, "/v1/users/bob/roles", "root", `{"roles":["middleman"]}`)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = s.do(http.MethodGet, "/v1/users/me", "bob", "")
	require.Equal(t, http.StatusOK, code)
	var me entity.Actor
	s.decode(env, &me)
	assert.Equal(t, []string{entity.RoleMiddleman}, me.Roles)

	code, _ = s.do(http.MethodGet, "/v1/middleman-calls/pending", "bob", "")
	assert.Equal(t, http.StatusOK, code)
}
