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

type CardCommands interface {
	CreateCard(ctx context.Context, cmd models.CreateCardCommand) (models.CardView, error)
	UpdateCard(ctx context.Context, cmd models.UpdateCardCommand) (bool, error)
	GetCard(ctx context.Context, cardNumber string) (*models.CardView, error)
	CardLogs(ctx context.Context, cardNumber string) ([]models.CardLog, error)
}

// CardsAPI is the HTTP surface of the card management service.
type CardsAPI struct {
	cards          CardCommands
	auth           *Authenticator
	internalHeader string
	internalKey    string
}

func NewCardsAPI(cards CardCommands, auth *Authenticator, internalHeader, internalKey string) *CardsAPI {
	return &CardsAPI{cards: cards, auth: auth, internalHeader: internalHeader, internalKey: internalKey}
}

func (a *CardsAPI) AppendRoutes(r chi.Router) {
	r.Route("/api/v1/cards", func(r chi.Router) {
		r.Use(a.auth.Middleware)
		r.With(RequireRole(RoleAdmin)).Post("/", a.createCard)
		r.With(RequireRole(RoleAdmin)).Put("/{cardNumber}", a.updateCard)
		r.Get("/{cardNumber}", a.getCard)
		r.With(RequireRole(RoleAdmin)).Get("/{cardNumber}/logs", a.cardLogs)
	})

	r.Route("/internal/cards", func(r chi.Router) {
		r.Use(RequireAPIKey(a.internalHeader, a.internalKey))
		r.Get("/{cardNumber}", a.getCard)
	})
}

func (a *CardsAPI) createCard(w http.ResponseWriter, r *http.Request) {
	var cmd models.CreateCardCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := a.cards.CreateCard(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (a *CardsAPI) updateCard(w http.ResponseWriter, r *http.Request) {
	var cmd models.UpdateCardCommand
	if err := decodeJSON(r, &cmd); err != nil {
		writeError(w, r, err)
		return
	}
	cmd.CardNumber = chi.URLParam(r, "cardNumber")

	updated, err := a.cards.UpdateCard(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

func (a *CardsAPI) getCard(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := cardNumberParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := a.cards.GetCard(r.Context(), cardNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if view == nil {
		writeError(w, r, errors.NotFoundErr("card", cardNumber))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *CardsAPI) cardLogs(w http.ResponseWriter, r *http.Request) {
	cardNumber, err := cardNumberParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logs, err := a.cards.CardLogs(r.Context(), cardNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func cardNumberParam(r *http.Request) (string, error) {
	cardNumber := chi.URLParam(r, "cardNumber")
	if err := models.ValidateCardNumber(cardNumber); err != nil {
		return "", errors.InvalidParamsErr(err)
	}
	return cardNumber, nil
}
