package rest

import (
	"net/http"

	"nftlend/handler/render"
	"nftlend/handler/views"
	"nftlend/service/pool"

	"github.com/go-chi/chi"
)

func accountHandler(p *pool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		account, err := p.Account(ctx, chi.URLParam(r, "user"))
		if err != nil {
			render.Err(w, err)
			return
		}

		view := &views.Account{
			UserID:   account.Account.UserID,
			State:    p.RiskState(account.Data),
			Data:     account.Data,
			Supplies: account.Supplies,
			Debts:    account.Debts,
			Tokens:   make([]*views.Token, 0, len(account.Account.Tokens)),
		}

		for _, pos := range account.Account.Tokens {
			multiplier, err := p.AuctionMultiplier(ctx, pos.Collection, pos.TokenID)
			if err != nil {
				render.Err(w, err)
				return
			}

			view.Tokens = append(view.Tokens, &views.Token{NFTPosition: pos, PriceMultiplier: multiplier})
		}

		view.SortTokens()
		render.JSON(w, view)
	}
}

func tokenHandler(p *pool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, tokenID := chi.URLParam(r, "collection"), chi.URLParam(r, "token")

		owner, err := p.OwnerOf(r.Context(), collection, tokenID)
		if err != nil {
			render.Err(w, err)
			return
		}

		render.JSON(w, render.H{
			"collection": collection,
			"token_id":   tokenID,
			"owner":      owner,
		})
	}
}
