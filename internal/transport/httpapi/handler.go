// Package httpapi exposes the ledger operations over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"assetverse/internal/schema"
)

// Ledger is the operation surface served over HTTP.
type Ledger interface {
	RegisterPlayer(ctx context.Context, p schema.Principal, name string) (schema.Account, error)
	GetPlayer(ctx context.Context, p schema.Principal) (schema.Account, error)
	RegisterAsset(ctx context.Context, game schema.GameID, asset schema.AssetID, price schema.Balance) (schema.AssetDef, error)
	ListGames(ctx context.Context) ([]schema.GameID, error)
	ListAssets(ctx context.Context, game schema.GameID) ([]schema.AssetDef, error)
	PurchaseAsset(ctx context.Context, p schema.Principal, game schema.GameID, asset schema.AssetID, count schema.Quantity) (schema.AssetPurchased, error)
	RemoveAsset(ctx context.Context, p schema.Principal, asset schema.AssetID, count schema.Quantity) (schema.AssetModified, error)
	GiftAsset(ctx context.Context, sender, receiver schema.Principal, asset schema.AssetID, amount schema.Quantity) (schema.AssetGifted, error)
	ExchangeAsset(ctx context.Context, p schema.Principal, give schema.AssetID, giveUnits schema.Quantity, take schema.AssetID, takeUnits schema.Quantity) (schema.AssetExchanged, error)
	ModifyAsset(ctx context.Context, p schema.Principal, asset schema.AssetID, count schema.Quantity, increase bool) (schema.AssetModified, error)
}

// Options configures the HTTP surface.
type Options struct {
	// IdentityHeader carries the pre-verified caller principal.
	IdentityHeader string
	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
}

// Handler serves the ledger API.
type Handler struct {
	ledger Ledger
	opts   Options
}

// New creates a handler over l.
func New(l Ledger, opts Options) *Handler {
	if opts.IdentityHeader == "" {
		opts.IdentityHeader = "X-Principal"
	}
	return &Handler{ledger: l, opts: opts}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(accessLog)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	if h.opts.Metrics != nil {
		r.Handle("/metrics", h.opts.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/games", h.listGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{game}/assets", h.listAssets).Methods(http.MethodGet)
	api.HandleFunc("/games/{game}/assets", h.registerAsset).Methods(http.MethodPost)

	auth := requirePrincipal(h.opts.IdentityHeader)
	api.Handle("/me", auth(http.HandlerFunc(h.getPlayer))).Methods(http.MethodGet)
	api.Handle("/me", auth(http.HandlerFunc(h.registerPlayer))).Methods(http.MethodPost)
	api.Handle("/me/purchases", auth(http.HandlerFunc(h.purchase))).Methods(http.MethodPost)
	api.Handle("/me/removals", auth(http.HandlerFunc(h.remove))).Methods(http.MethodPost)
	api.Handle("/me/gifts", auth(http.HandlerFunc(h.gift))).Methods(http.MethodPost)
	api.Handle("/me/exchanges", auth(http.HandlerFunc(h.exchange))).Methods(http.MethodPost)
	api.Handle("/me/adjustments", auth(http.HandlerFunc(h.modify))).Methods(http.MethodPost)
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerPlayerRequest struct {
	Name string `json:"name"`
}

func (h *Handler) registerPlayer(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req registerPlayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acc, err := h.ledger.RegisterPlayer(r.Context(), p, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	acc, err := h.ledger.GetPlayer(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

type registerAssetRequest struct {
	Asset schema.AssetID `json:"asset"`
	Price schema.Balance `json:"price"`
}

func (h *Handler) registerAsset(w http.ResponseWriter, r *http.Request) {
	game := schema.GameID(mux.Vars(r)["game"])
	var req registerAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	def, err := h.ledger.RegisterAsset(r.Context(), game, req.Asset, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.ledger.ListGames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *Handler) listAssets(w http.ResponseWriter, r *http.Request) {
	defs, err := h.ledger.ListAssets(r.Context(), schema.GameID(mux.Vars(r)["game"]))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

type purchaseRequest struct {
	Game  schema.GameID   `json:"game"`
	Asset schema.AssetID  `json:"asset"`
	Count schema.Quantity `json:"count"`
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.ledger.PurchaseAsset(r.Context(), p, req.Game, req.Asset, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type removeRequest struct {
	Asset schema.AssetID  `json:"asset"`
	Count schema.Quantity `json:"count"`
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req removeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.ledger.RemoveAsset(r.Context(), p, req.Asset, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type giftRequest struct {
	Receiver schema.Principal `json:"receiver"`
	Asset    schema.AssetID   `json:"asset"`
	Amount   schema.Quantity  `json:"amount"`
}

func (h *Handler) gift(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req giftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.ledger.GiftAsset(r.Context(), p, req.Receiver, req.Asset, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type exchangeRequest struct {
	GiveAsset schema.AssetID  `json:"give_asset"`
	GiveUnits schema.Quantity `json:"give_units"`
	TakeAsset schema.AssetID  `json:"take_asset"`
	TakeUnits schema.Quantity `json:"take_units"`
}

func (h *Handler) exchange(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req exchangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.ledger.ExchangeAsset(r.Context(), p, req.GiveAsset, req.GiveUnits, req.TakeAsset, req.TakeUnits)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type modifyRequest struct {
	Asset    schema.AssetID  `json:"asset"`
	Count    schema.Quantity `json:"count"`
	Increase bool            `json:"increase"`
}

func (h *Handler) modify(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req modifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.ledger.ModifyAsset(r.Context(), p, req.Asset, req.Count, req.Increase)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
