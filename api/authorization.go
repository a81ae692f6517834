package api

import (
	// Go Internal Packages
	"context"
	"net/http"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"

	// External Packages
	"github.com/go-chi/chi/v5"
)

type TransactionAuthorizer interface {
	AuthorizeTransaction(ctx context.Context, cmd models.AuthorizeTransactionCommand) (models.Decision, error)
}

type CardAuthorizer interface {
	Authorize(ctx context.Context, cardNumber string) (bool, error)
}

// AuthorizationAPI is the HTTP surface of the authorization service.
type AuthorizationAPI struct {
	transactions TransactionAuthorizer
	cards        CardAuthorizer
	auth         *Authenticator
}

func NewAuthorizationAPI(transactions TransactionAuthorizer, cards CardAuthorizer, auth *Authenticator) *AuthorizationAPI {
	return &AuthorizationAPI{transactions: transactions, cards: cards, auth: auth}
}

func (a *AuthorizationAPI) AppendRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(a.auth.Middleware)
		r.Post("/api/v1/transactions/authorize", a.authorizeTransaction)
		r.With(RequireRole(RoleAdmin)).Post("/api/v1/cards/{cardNumber}/authorize", a.authorizeCard)
	})
}

// authorizeTransaction answers 200 for both admitted and rejected transfers; the
// decision body says which.
func (a *AuthorizationAPI) authorizeTransaction(w http.ResponseWriter, r *http.Request) {
	var cmd models.AuthorizeTransactionCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, err)
		return
	}

	claims := ClaimsFrom(r.Context())
	if !claims.HasRole(RoleAdmin) && claims.Subject != cmd.SenderNumber {
		writeError(w, r, errors.ForbiddenErr("transfers are only allowed from your own card"))
		return
	}

	decision, err := a.transactions.AuthorizeTransaction(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (a *AuthorizationAPI) authorizeCard(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := cardNumberParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	authorized, err := a.cards.Authorize(r.Context(), cardNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authorized": authorized})
}
