package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/http/middleware"
	"felini_trivia/internal/service"
	"felini_trivia/internal/session"

	"github.com/gin-gonic/gin"
)

type fakeUsers struct {
	balances map[int64]int64
	top      []domain.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{balances: map[int64]int64{}} }

func (f *fakeUsers) TokenBalance(_ context.Context, userID int64) (int64, error) {
	return f.balances[userID], nil
}

func (f *fakeUsers) CreditTokens(_ context.Context, userID, delta int64) (int64, error) {
	f.balances[userID] += delta
	return f.balances[userID], nil
}

func (f *fakeUsers) ZeroTokens(_ context.Context, userID int64) error {
	f.balances[userID] = 0
	return nil
}

func (f *fakeUsers) Leaderboard(_ context.Context, limit int) ([]domain.User, error) {
	if len(f.top) > limit {
		return f.top[:limit], nil
	}
	return f.top, nil
}

type staticPicker struct{ q domain.Question }

func (p staticPicker) Pick(_ context.Context) (domain.Question, error) { return p.q, nil }

type tableRewarder struct{}

func (tableRewarder) Reward(_ context.Context, d domain.Difficulty, correct bool) int64 {
	if !correct {
		return 0
	}
	switch d {
	case domain.DifficultyMedium:
		return 500
	default:
		return 100
	}
}

type staticPool struct{ total float64 }

func (p staticPool) TotalPoolBalance(_ context.Context) float64 { return p.total }

type stubChain struct {
	valid     bool
	trustline bool
}

func (s stubChain) ValidAddress(string) bool { return s.valid }
func (s stubChain) HasTrustline(context.Context, string) (bool, error) {
	return s.trustline, nil
}
func (s stubChain) SendPayment(context.Context, string, string, int64) (string, error) {
	return "txhash", nil
}

type noopIntents struct{}

func (noopIntents) Create(_ context.Context, w *domain.Withdrawal) error { w.ID = 1; return nil }
func (noopIntents) MarkSubmitted(context.Context, int64, string) error   { return nil }
func (noopIntents) MarkCompleted(context.Context, int64) error           { return nil }
func (noopIntents) MarkFailed(context.Context, int64, string) error      { return nil }
func (noopIntents) ListSubmitted(context.Context) ([]domain.Withdrawal, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, users *fakeUsers, minDelay time.Duration) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("handler-test-secret")

	store := session.NewMemoryStore()
	q := domain.Question{
		Text:        "Which planet is known as the Red Planet?",
		Options:     []string{"A: Mars", "B: Venus", "C: Jupiter", "D: Saturn", "E: Mercury"},
		Answer:      "A",
		Explanation: "Iron oxide gives Mars its color.",
	}
	gameSvc := service.NewGameService(store, staticPicker{q: q}, tableRewarder{}, users, nil, minDelay)
	settlementSvc := service.NewSettlementService(stubChain{valid: true, trustline: true}, users, noopIntents{}, store, nil, "FELNY")

	h := &Handler{
		Game:       gameSvc,
		Settlement: settlementSvc,
		Users:      users,
		Pool:       staticPool{total: 1_000_000},
		AssetCode:  "FELNY",
	}

	r := gin.New()
	r.GET("/", h.Landing)
	r.GET("/users", h.Leaderboard)
	authed := r.Group("/")
	authed.Use(middleware.JWT(), middleware.ReconcileGameState(store, users))
	{
		authed.GET("/start", h.Start)
		authed.GET("/fetch-question", h.FetchQuestion)
		authed.POST("/answer", h.Answer)
		authed.GET("/withdraw", h.WithdrawForm)
		authed.POST("/process-withdrawal", h.ProcessWithdrawal)
	}

	sid, err := service.NewSessionID()
	if err != nil {
		t.Fatal(err)
	}
	token, err := service.GenerateJWT(7, sid)
	if err != nil {
		t.Fatal(err)
	}
	return r, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var payload map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("response not JSON: %v (%s)", err, w.Body.String())
		}
	}
	return w, payload
}

func TestGameRoutesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t, newFakeUsers(), 0)

	for _, path := range []string{"/start", "/fetch-question", "/withdraw"} {
		w, _ := doJSON(t, r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s without token = %d, want 401", path, w.Code)
		}
	}
}

func TestFullGameLoop(t *testing.T) {
	users := newFakeUsers()
	users.balances[7] = 100
	r, token := newTestRouter(t, users, 0)

	w, payload := doJSON(t, r, http.MethodGet, "/start", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start = %d: %v", w.Code, payload)
	}
	if payload["balance"].(float64) != 100 {
		t.Fatalf("start balance = %v, want 100", payload["balance"])
	}

	w, payload = doJSON(t, r, http.MethodGet, "/fetch-question", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fetch-question = %d: %v", w.Code, payload)
	}
	qToken, _ := payload["token"].(string)
	if qToken == "" {
		t.Fatal("fetch-question returned no token")
	}
	if _, present := payload["answer"]; present {
		t.Fatal("answer must not be exposed to the client")
	}

	// case-insensitive first-letter match at medium pays 500
	w, payload = doJSON(t, r, http.MethodPost, "/answer", token, gin.H{"token": qToken, "answer": "a"})
	if w.Code != http.StatusOK {
		t.Fatalf("answer = %d: %v", w.Code, payload)
	}
	if payload["is_correct"] != true || payload["reward"].(float64) != 500 {
		t.Fatalf("answer payload = %v, want correct with reward 500", payload)
	}
	if payload["balance"].(float64) != 600 {
		t.Fatalf("balance = %v, want 600", payload["balance"])
	}

	// replay returns the identical verdict without a second credit
	w, replay := doJSON(t, r, http.MethodPost, "/answer", token, gin.H{"token": qToken, "answer": "a"})
	if w.Code != http.StatusOK {
		t.Fatalf("replay = %d: %v", w.Code, replay)
	}
	if replay["reward"].(float64) != 500 || replay["is_correct"] != true {
		t.Fatalf("replay payload = %v", replay)
	}
	if users.balances[7] != 600 {
		t.Fatalf("durable balance = %d, want 600 after replay", users.balances[7])
	}
}

func TestAnswerErrorMapping(t *testing.T) {
	users := newFakeUsers()
	r, token := newTestRouter(t, users, time.Hour)

	// no game yet
	w, payload := doJSON(t, r, http.MethodPost, "/answer", token, gin.H{"token": "x", "answer": "a"})
	if w.Code != http.StatusBadRequest || payload["message"] != "No active game found." {
		t.Fatalf("no-game answer = %d %v", w.Code, payload)
	}

	doJSON(t, r, http.MethodGet, "/start", token, nil)
	_, fetched := doJSON(t, r, http.MethodGet, "/fetch-question", token, nil)
	qToken := fetched["token"].(string)

	// wrong token
	w, payload = doJSON(t, r, http.MethodPost, "/answer", token, gin.H{"token": "bogus", "answer": "a"})
	if w.Code != http.StatusBadRequest || payload["message"] != "Invalid question token." {
		t.Fatalf("bad-token answer = %d %v", w.Code, payload)
	}

	// too soon (minDelay is an hour)
	w, payload = doJSON(t, r, http.MethodPost, "/answer", token, gin.H{"token": qToken, "answer": "a"})
	if w.Code != http.StatusBadRequest || payload["message"] != "Please wait before submitting your answer." {
		t.Fatalf("too-soon answer = %d %v", w.Code, payload)
	}
}

func TestWithdrawalRoutes(t *testing.T) {
	users := newFakeUsers()
	r, token := newTestRouter(t, users, 0)
	doJSON(t, r, http.MethodGet, "/start", token, nil)

	// empty balance is rejected before any ledger work
	w, payload := doJSON(t, r, http.MethodPost, "/process-withdrawal", token, gin.H{"wallet_address": "GABC"})
	if w.Code != http.StatusBadRequest || payload["message"] != "You have no tokens to withdraw." {
		t.Fatalf("zero-balance withdrawal = %d %v", w.Code, payload)
	}

	users.balances[7] = 1500
	w, payload = doJSON(t, r, http.MethodGet, "/withdraw", token, nil)
	if w.Code != http.StatusOK || payload["balance"].(float64) != 1500 {
		t.Fatalf("withdraw form = %d %v", w.Code, payload)
	}

	w, payload = doJSON(t, r, http.MethodPost, "/process-withdrawal", token, gin.H{"wallet_address": "GABC"})
	if w.Code != http.StatusOK {
		t.Fatalf("withdrawal = %d %v", w.Code, payload)
	}
	if payload["amount"] != "1500.0000000" {
		t.Fatalf("amount = %v, want 1500.0000000", payload["amount"])
	}
	if users.balances[7] != 0 {
		t.Fatalf("durable balance = %d, want 0", users.balances[7])
	}
}

func TestLandingAndLeaderboard(t *testing.T) {
	users := newFakeUsers()
	users.top = []domain.User{
		{Username: "ani", Tokens: 900},
		{Username: "nor", Tokens: 400},
	}
	r, _ := newTestRouter(t, users, 0)

	w, payload := doJSON(t, r, http.MethodGet, "/", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("landing = %d", w.Code)
	}
	if payload["pool_total"].(float64) != 1_000_000 {
		t.Fatalf("pool_total = %v", payload["pool_total"])
	}
	if payload["logged_in"] != false {
		t.Fatal("anonymous landing should report logged_in=false")
	}

	w, payload = doJSON(t, r, http.MethodGet, "/users", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard = %d", w.Code)
	}
	entries := payload["users"].([]any)
	if len(entries) != 2 {
		t.Fatalf("leaderboard entries = %d, want 2", len(entries))
	}
	first := entries[0].(map[string]any)
	if first["username"] != "ani" || first["rank"].(float64) != 1 {
		t.Fatalf("first entry = %v", first)
	}
}
