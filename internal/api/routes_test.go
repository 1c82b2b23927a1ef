package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskhub/internal/repositories"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const testAdminKey = "admin-secret"

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryStore()
	kv := repositories.NewMemoryKeyValue(nil)
	if err := services.Bootstrap(context.Background(), store, nil); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	auth := services.NewAuthService("test-secret", time.Hour, nil)
	auth.SetCost(bcrypt.MinCost)
	notices := services.NewNotificationService(store, nil)

	if cfg.AdminApiKey == "" {
		cfg.AdminApiKey = testAdminKey
	}
	return NewRouter(cfg, &Services{
		Auth:          auth,
		Users:         services.NewUserService(store, auth, nil),
		Ledger:        services.NewLedgerService(store),
		Referrals:     services.NewReferralService(store),
		Crawl:         services.NewCrawlService(store, nil),
		Tasks:         services.NewTaskService(store, nil),
		Vip:           services.NewVipService(store, nil),
		LoginRewards:  services.NewLoginRewardService(store, nil),
		Notifications: notices,
		Recharges:     services.NewRechargeService(store, notices, nil),
		Withdrawals:   services.NewWithdrawalService(store, auth, notices, nil),
		Activities:    services.NewActivityService(store, nil),
		Settings:      services.NewSettingsService(store, kv),
		Wallets:       services.NewWalletService(store),
		Telegram:      services.NewTelegramService(store, kv, nil),
	})
}

func perform(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var res apiResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, res
}

func registerUser(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	rec, res := perform(t, router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": "Secret1",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("register: %d %s", rec.Code, res.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("register token: %v", err)
	}
	return data.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func admin() map[string]string {
	return map[string]string{"X-Admin-Key": testAdminKey}
}

func TestRegisterLoginAndProfile(t *testing.T) {
	router := setupRouter(t, RouterConfig{})
	registerUser(t, router, "api@x.io")

	rec, res := perform(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "api@x.io", "password": "Secret1",
	}, nil)
	if rec.Code != http.StatusOK || res.Code != 0 {
		t.Fatalf("login: %d %+v", rec.Code, res)
	}
	var login struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(res.Data, &login)

	rec, res = perform(t, router, http.MethodGet, "/api/v1/me", nil, bearer(login.Token))
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, res.Message)
	}
	var me struct {
		Id       int64  `json:"id"`
		Email    string `json:"email"`
		VipLevel string `json:"vip_level"`
	}
	if err := json.Unmarshal(res.Data, &me); err != nil {
		t.Fatal(err)
	}
	if me.Id == 0 || me.Email != "api@x.io" || me.VipLevel != "Nadec1" {
		t.Errorf("me = %+v", me)
	}
	if bytes.Contains(res.Data, []byte("password")) {
		t.Error("profile leaks the password hash")
	}

	rec, res = perform(t, router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "api@x.io", "password": "Wrong1",
	}, nil)
	if rec.Code != http.StatusUnauthorized || res.Message != "invalid_credentials" {
		t.Errorf("wrong password: %d %s", rec.Code, res.Message)
	}
}

func TestUserRoutesRequireToken(t *testing.T) {
	router := setupRouter(t, RouterConfig{})

	rec, res := perform(t, router, http.MethodGet, "/api/v1/me", nil, nil)
	if rec.Code != http.StatusUnauthorized || res.Message != "unauthorized" {
		t.Errorf("no token: %d %s", rec.Code, res.Message)
	}
	rec, res = perform(t, router, http.MethodGet, "/api/v1/me", nil, bearer("garbage"))
	if rec.Code != http.StatusUnauthorized || res.Message != "invalid_token" {
		t.Errorf("bad token: %d %s", rec.Code, res.Message)
	}
}

func TestReasonErrorsMapToStatus(t *testing.T) {
	router := setupRouter(t, RouterConfig{})
	token := registerUser(t, router, "daily@x.io")

	rec, _ := perform(t, router, http.MethodPost, "/api/v1/tasks/daily/complete", nil, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("first completion: %d", rec.Code)
	}
	rec, res := perform(t, router, http.MethodPost, "/api/v1/tasks/daily/complete", nil, bearer(token))
	if rec.Code != http.StatusConflict || res.Message != "errorTaskAlreadyCompleted" || res.Code != http.StatusConflict {
		t.Errorf("second completion: %d %+v", rec.Code, res)
	}

	rec, res = perform(t, router, http.MethodPost, "/api/v1/tasks/crawl/9/claim", nil, bearer(token))
	if rec.Code != http.StatusBadRequest || res.Message != "errorInvalidCrawlSet" {
		t.Errorf("invalid set: %d %s", rec.Code, res.Message)
	}
	rec, res = perform(t, router, http.MethodPost, "/api/v1/tasks/crawl/x/claim", nil, bearer(token))
	if rec.Code != http.StatusBadRequest || res.Message != "errorInvalidCrawlSet" {
		t.Errorf("unparsable set: %d %s", rec.Code, res.Message)
	}

	rec, res = perform(t, router, http.MethodGet, "/api/v1/wallets/USDT/TRC20", nil, bearer(token))
	if rec.Code != http.StatusNotFound || res.Message != "errorWalletNotConfigured" {
		t.Errorf("wallet: %d %s", rec.Code, res.Message)
	}
}

func TestAdminKeyRequired(t *testing.T) {
	router := setupRouter(t, RouterConfig{})

	rec, _ := perform(t, router, http.MethodGet, "/api/v1/admin/users", nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("no key: %d", rec.Code)
	}
	rec, _ = perform(t, router, http.MethodGet, "/api/v1/admin/users", nil, map[string]string{"X-Admin-Key": "nope"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: %d", rec.Code)
	}
	rec, res := perform(t, router, http.MethodGet, "/api/v1/admin/users", nil, admin())
	if rec.Code != http.StatusOK || res.Code != 0 {
		t.Errorf("with key: %d %+v", rec.Code, res)
	}
}

func TestRechargeApprovedByOperator(t *testing.T) {
	router := setupRouter(t, RouterConfig{})
	token := registerUser(t, router, "deposit@x.io")

	rec, res := perform(t, router, http.MethodPost, "/api/v1/recharges", map[string]string{
		"amount": "25", "currency": "USDT", "network": "TRC20", "payment_proof": "proof.png",
	}, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, res.Message)
	}
	var req struct {
		Id int64 `json:"id"`
	}
	_ = json.Unmarshal(res.Data, &req)

	path := "/api/v1/admin/recharges/" + jsonNumber(req.Id) + "/approve"
	rec, res = perform(t, router, http.MethodPost, path, nil, admin())
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", rec.Code, res.Message)
	}
	rec, res = perform(t, router, http.MethodPost, path, nil, admin())
	if rec.Code != http.StatusConflict || res.Message != "errorRequestNotPending" {
		t.Errorf("second approve: %d %s", rec.Code, res.Message)
	}

	_, res = perform(t, router, http.MethodGet, "/api/v1/me", nil, bearer(token))
	var me struct {
		MainBalance string `json:"main_balance"`
	}
	_ = json.Unmarshal(res.Data, &me)
	if me.MainBalance != "25" {
		t.Errorf("main balance = %s", me.MainBalance)
	}

	_, res = perform(t, router, http.MethodGet, "/api/v1/messages", nil, bearer(token))
	var inbox struct {
		Unread int `json:"unread"`
	}
	_ = json.Unmarshal(res.Data, &inbox)
	if inbox.Unread != 2 {
		t.Errorf("unread = %d", inbox.Unread)
	}
}

func meOf(t *testing.T, router *gin.Engine, token string) (id int64, code string, activeSet int) {
	t.Helper()
	_, res := perform(t, router, http.MethodGet, "/api/v1/me", nil, bearer(token))
	var me struct {
		Id             int64  `json:"id"`
		InvitationCode string `json:"invitation_code"`
		ActiveCrawlSet int    `json:"active_crawl_set"`
	}
	if err := json.Unmarshal(res.Data, &me); err != nil {
		t.Fatal(err)
	}
	return me.Id, me.InvitationCode, me.ActiveCrawlSet
}

func TestCrawlOverviewActivatesFreeTask(t *testing.T) {
	router := setupRouter(t, RouterConfig{})
	token := registerUser(t, router, "crawler@x.io")
	id, _, active := meOf(t, router, token)
	if active != 0 {
		t.Errorf("active set before enabling = %d", active)
	}

	rec, res := perform(t, router, http.MethodPut, "/api/v1/admin/users/"+jsonNumber(id)+"/crawl", map[string]any{
		"enabled": map[string]bool{"2": true, "3": true},
	}, admin())
	if rec.Code != http.StatusOK {
		t.Fatalf("configure: %d %s", rec.Code, res.Message)
	}
	if _, _, active = meOf(t, router, token); active != 2 {
		t.Errorf("active set = %d", active)
	}

	rec, res = perform(t, router, http.MethodGet, "/api/v1/tasks/crawl/2", nil, bearer(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("overview: %d %s", rec.Code, res.Message)
	}
	var overview struct {
		InProgress []struct {
			Id string `json:"id"`
		} `json:"in_progress"`
	}
	_ = json.Unmarshal(res.Data, &overview)
	if len(overview.InProgress) != 1 || overview.InProgress[0].Id != "ct_s2_free" {
		t.Errorf("in progress = %+v", overview.InProgress)
	}

	rec, res = perform(t, router, http.MethodPost, "/api/v1/tasks/crawl/2/claim", nil, bearer(token))
	if rec.Code != http.StatusConflict || res.Message != "taskInProgressError" {
		t.Errorf("claim with free task active: %d %s", rec.Code, res.Message)
	}
}

func TestAdminUpline(t *testing.T) {
	router := setupRouter(t, RouterConfig{})
	topToken := registerUser(t, router, "top@x.io")
	topId, code, _ := meOf(t, router, topToken)

	rec, res := perform(t, router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "mid@x.io", "password": "Secret1", "invitation_code": code,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("register invited: %d %s", rec.Code, res.Message)
	}
	var reg struct {
		User struct {
			Id int64 `json:"id"`
		} `json:"user"`
	}
	_ = json.Unmarshal(res.Data, &reg)

	rec, res = perform(t, router, http.MethodGet, "/api/v1/admin/users/"+jsonNumber(reg.User.Id)+"/upline", nil, admin())
	if rec.Code != http.StatusOK {
		t.Fatalf("upline: %d %s", rec.Code, res.Message)
	}
	var upline []struct {
		Level      int    `json:"level"`
		ReferrerId int64  `json:"referrer_id"`
		Rate       string `json:"rate"`
	}
	_ = json.Unmarshal(res.Data, &upline)
	if len(upline) != 1 || upline[0].ReferrerId != topId || upline[0].Rate != "12" {
		t.Errorf("upline = %+v", upline)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	router := setupRouter(t, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	rec, _ := perform(t, router, http.MethodGet, "/api/v1/settings", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec, res := perform(t, router, http.MethodGet, "/api/v1/settings", nil, nil)
	if rec.Code != http.StatusTooManyRequests || res.Message != "too_many_requests" {
		t.Errorf("second request: %d %s", rec.Code, res.Message)
	}

	rec, _ = perform(t, router, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz is not rate limited: %d", rec.Code)
	}
}

func TestRequestIdHeader(t *testing.T) {
	router := setupRouter(t, RouterConfig{})
	rec, _ := perform(t, router, http.MethodGet, "/api/v1/vip", nil, nil)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id")
	}
	rec, _ = perform(t, router, http.MethodGet, "/api/v1/vip", nil, map[string]string{"X-Request-Id": "abc"})
	if rec.Header().Get("X-Request-Id") != "abc" {
		t.Errorf("request id = %s", rec.Header().Get("X-Request-Id"))
	}
}

func jsonNumber(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
