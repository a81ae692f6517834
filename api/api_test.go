package api

import (
	// Go Internal Packages
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	// Local Packages
	config "cardflow/config"
	errors "cardflow/errors"
	models "cardflow/models"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	sender    = "111111111111111"
	recipient = "222222222222222"
)

type cardsStub struct {
	created []models.CreateCardCommand
}

func (s *cardsStub) CreateCard(_ context.Context, cmd models.CreateCardCommand) (models.CardView, error) {
	if cmd.CardNumber == sender && len(s.created) > 0 {
		return models.CardView{}, errors.ConflictErr("card", cmd.CardNumber, nil)
	}
	s.created = append(s.created, cmd)
	return models.CardView{CardNumber: cmd.CardNumber, Balance: cmd.InitialBalance}, nil
}

func (s *cardsStub) UpdateCard(context.Context, models.UpdateCardCommand) (bool, error) {
	return true, nil
}

func (s *cardsStub) GetCard(_ context.Context, n string) (*models.CardView, error) {
	if n != sender {
		return nil, nil
	}
	return &models.CardView{CardNumber: sender, Balance: decimal.NewFromInt(500)}, nil
}

func (s *cardsStub) CardLogs(_ context.Context, n string) ([]models.CardLog, error) {
	if n != sender {
		return nil, errors.NotFoundErr("card", n)
	}
	return []models.CardLog{{ID: uuid.New(), CardNumber: sender, Amount: decimal.NewFromInt(500), Type: models.LogInitialBalance}}, nil
}

type authorizerStub struct {
	err error
}

func (s authorizerStub) AuthorizeTransaction(context.Context, models.AuthorizeTransactionCommand) (models.Decision, error) {
	if s.err != nil {
		return models.Decision{}, s.err
	}
	return models.Decision{Authorized: true, TransactionID: uuid.New()}, nil
}

func (s authorizerStub) Authorize(context.Context, string) (bool, error) {
	return true, nil
}

func newAuthenticator() *Authenticator {
	return NewAuthenticator(config.Auth{
		JWTSecret:       "test-secret",
		Issuer:          "cardflow",
		TokenTTLMinutes: 5,
		Users: map[string]config.User{
			"admin": {Password: "admin-pass", Roles: []string{RoleAdmin, RoleUser}},
			sender:  {Password: "holder-pass", Roles: []string{RoleUser}},
		},
	})
}

func newServer(t *testing.T, auth *Authenticator, apis ...Routes) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(zap.NewNop(), auth, http.NotFoundHandler(), apis...))
	t.Cleanup(srv.Close)
	return srv
}

func newCardsServer(t *testing.T) (*httptest.Server, *cardsStub) {
	t.Helper()
	auth := newAuthenticator()
	cards := &cardsStub{}
	return newServer(t, auth, NewCardsAPI(cards, auth, "X-Internal-API-Key", "internal")), cards
}

func newAuthorizationServer(t *testing.T, authorizer authorizerStub) *httptest.Server {
	t.Helper()
	auth := newAuthenticator()
	return newServer(t, auth, NewAuthorizationAPI(authorizer, authorizer, auth))
}

func do(t *testing.T, method, url, token string, body any, headers ...string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Token
}

func TestLiveness(t *testing.T) {
	srv := newServer(t, nil)
	resp := do(t, http.MethodGet, srv.URL+"/-/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	srv := newServer(t, newAuthenticator())

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", loginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "", map[string]string{"user": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.NotEmpty(t, login(t, srv, "admin", "admin-pass"))
}

func TestCardRoutesRequireAdminToWrite(t *testing.T) {
	srv, cards := newCardsServer(t)
	admin := login(t, srv, "admin", "admin-pass")
	holder := login(t, srv, sender, "holder-pass")
	create := models.CreateCardCommand{CardNumber: sender, InitialBalance: decimal.NewFromInt(500)}

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/cards/", "", create)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/cards/", holder, create)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/cards/", admin, create)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, cards.created, 1)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/cards/", admin, create)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/cards/"+sender, holder, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/cards/"+recipient, holder, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCardLogsAndParams(t *testing.T) {
	srv, _ := newCardsServer(t)
	admin := login(t, srv, "admin", "admin-pass")
	holder := login(t, srv, sender, "holder-pass")

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/cards/"+sender+"/logs", holder, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/cards/"+sender+"/logs", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs []models.CardLog
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs))
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogInitialBalance, logs[0].Type)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/cards/"+recipient+"/logs", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/cards/12ab", holder, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInternalCardLookup(t *testing.T) {
	srv, _ := newCardsServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/internal/cards/"+sender, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/internal/cards/"+sender, "", nil, "X-Internal-API-Key", "internal")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view models.CardView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.True(t, view.Balance.Equal(decimal.NewFromInt(500)))
}

func TestAuthorizeTransactionOwnCardOnly(t *testing.T) {
	srv := newAuthorizationServer(t, authorizerStub{})
	holder := login(t, srv, sender, "holder-pass")
	admin := login(t, srv, "admin", "admin-pass")

	own := models.AuthorizeTransactionCommand{SenderNumber: sender, RecipientNumber: recipient, Amount: decimal.NewFromInt(10)}
	other := models.AuthorizeTransactionCommand{SenderNumber: recipient, RecipientNumber: sender, Amount: decimal.NewFromInt(10)}

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/transactions/authorize", holder, own)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var decision models.Decision
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decision))
	assert.True(t, decision.Authorized)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/transactions/authorize", holder, other)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/transactions/authorize", admin, other)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthorizeCardChecksPath(t *testing.T) {
	srv := newAuthorizationServer(t, authorizerStub{})
	admin := login(t, srv, "admin", "admin-pass")
	holder := login(t, srv, sender, "holder-pass")

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/cards/"+sender+"/authorize", holder, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/cards/12ab/authorize", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/api/v1/cards/"+sender+"/authorize", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["authorized"])
}

func TestInternalErrorsAreHidden(t *testing.T) {
	srv := newAuthorizationServer(t, authorizerStub{err: errors.New("mongo: no reachable servers")})
	admin := login(t, srv, "admin", "admin-pass")

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/transactions/authorize", admin,
		models.AuthorizeTransactionCommand{SenderNumber: sender, RecipientNumber: recipient, Amount: decimal.NewFromInt(10)})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "internal server error", body.Error)
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := NewAuthenticator(config.Auth{JWTSecret: "s", Issuer: "cardflow", TokenTTLMinutes: 1, Users: map[string]config.User{"u": {Password: "p"}}})
	token, err := auth.Login("u", "p")
	require.NoError(t, err)

	auth.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = auth.Verify(token)
	assert.True(t, errors.IsKind(err, errors.Unauthorized))
}
