// Package api exposes the till over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/appetiteclub/till/internal/admin"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/menu"
	"github.com/appetiteclub/till/internal/notify"
	"github.com/appetiteclub/till/internal/order"
	"github.com/appetiteclub/till/internal/remote"
	"github.com/appetiteclub/till/internal/settings"
	"github.com/appetiteclub/till/internal/shift"
	"github.com/appetiteclub/till/internal/syncer"
	"github.com/appetiteclub/till/pkg/platform"
)

// MaxBodyBytes leaves room for offline images sent as data URLs.
const MaxBodyBytes = 4 << 20

// SyncRunner runs one reconciliation pass on demand.
type SyncRunner interface {
	SyncOnce(ctx context.Context) (syncer.Result, error)
}

// OrderArchive serves orders of finished days.
type OrderArchive interface {
	Orders(ctx context.Context, from, to time.Time) ([]ledger.Order, error)
}

type Deps struct {
	Store    *ledger.Store
	Engine   *order.Engine
	Cart     *order.Cart
	Shifts   *shift.Manager
	Sync     SyncRunner
	Menu     *menu.Catalog
	Settings *settings.Service
	Guard    *admin.Guard
	Notify   *notify.Center
	Archive  OrderArchive
	Location *time.Location
}

type Handler struct {
	deps   Deps
	logger platform.Logger
}

func NewHandler(deps Deps, logger platform.Logger) *Handler {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Handler{deps: deps, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(h.deps.Guard.Attach)

		r.Get("/ledger", h.GetLedger)
		r.Get("/ledger/log", h.GetActivityLog)

		r.Route("/shift", func(r chi.Router) {
			r.Get("/", h.GetShift)
			r.Get("/history", h.ListShiftHistory)
			r.Post("/start", h.StartShift)
			r.Post("/paid", h.RecordPaidInOut)
			r.Post("/drawer-open", h.OpenDrawer)
			r.Post("/close", h.CloseShift)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{id}", h.SetCartQuantity)
			r.Delete("/items/{id}", h.RemoveCartItem)
			r.Put("/discount", h.SetCartDiscount)
			r.Put("/vat", h.SetCartVat)
			r.Post("/checkout", h.Checkout)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.PlaceOrder)
			r.Post("/{id}/cancel", h.CancelBill)
		})

		r.Route("/kitchen", func(r chi.Router) {
			r.Get("/", h.ListKitchen)
			r.Patch("/{id}/status", h.UpdateKitchenStatus)
			r.Post("/{id}/complete", h.CompleteKitchenOrder)
		})

		r.Post("/sync", h.SyncNow)

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.GetMenu)
			r.Post("/reload", h.ReloadMenu)
			r.Post("/favorites/{id}", h.ToggleFavorite)

			r.Group(func(r chi.Router) {
				r.Use(h.deps.Guard.RequireAdmin)
				r.Post("/items", h.AddMenuItem)
				r.Put("/items/{id}", h.UpdateMenuItem)
				r.Delete("/items/{id}", h.DeleteMenuItem)
				r.Post("/categories", h.AddCategory)
				r.Delete("/categories/{name}", h.DeleteCategory)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Get("/images/{kind}", h.GetOfflineImage)

			r.Group(func(r chi.Router) {
				r.Use(h.deps.Guard.RequireAdmin)
				r.Put("/", h.SaveSettings)
				r.Put("/images/{kind}", h.SetOfflineImage)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(h.deps.Guard.RequireAdmin).Put("/password", h.ChangePassword)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", h.DailyReport)
			r.Get("/period", h.PeriodReport)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Delete("/{id}", h.DismissNotification)
		})
	})
}

func (h *Handler) log(r *http.Request) platform.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}

// decode reads a JSON body into v and answers 400 when it cannot.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		platform.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// fail answers with the status matching err. Operator mistakes also raise a
// warning notification.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError && code != http.StatusBadGateway {
		h.log(r).Error("request failed", "path", r.URL.Path, "error", err)
		platform.RespondError(w, code, "Internal error")
		return
	}
	h.notify(notify.Warning, err.Error())
	platform.RespondError(w, code, err.Error())
}

func (h *Handler) notify(sev notify.Severity, msg string) {
	if h.deps.Notify != nil {
		h.deps.Notify.Push(sev, msg)
	}
}

func statusFor(err error) int {
	var remoteErr *remote.Error
	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidPrice),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, order.ErrInsufficientCash),
		errors.Is(err, order.ErrInvalidKitchenStatus),
		errors.Is(err, shift.ErrInvalidAmount),
		errors.Is(err, shift.ErrInvalidActivity),
		errors.Is(err, menu.ErrInvalidItem),
		errors.Is(err, menu.ErrInvalidCategory),
		errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, settings.ErrInvalidImage),
		errors.Is(err, settings.ErrUnknownImage),
		errors.Is(err, admin.ErrPasswordTooShort),
		errors.Is(err, admin.ErrPasswordConfirmMismatch):
		return http.StatusBadRequest
	case errors.Is(err, admin.ErrInvalidPassword),
		errors.Is(err, admin.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrKitchenOrderNotFound),
		errors.Is(err, order.ErrLineNotFound),
		errors.Is(err, menu.ErrItemNotFound),
		errors.Is(err, menu.ErrCategoryNotFound),
		errors.Is(err, notify.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shift.ErrShiftAlreadyOpen),
		errors.Is(err, shift.ErrShiftLimitReached),
		errors.Is(err, shift.ErrNoOpenShift),
		errors.Is(err, order.ErrAlreadyCancelled),
		errors.Is(err, order.ErrReversalNotCancellable),
		errors.Is(err, menu.ErrDuplicateCategory),
		errors.Is(err, menu.ErrCategoryInUse):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, remote.ErrNotConfigured),
		errors.Is(err, menu.ErrItemNotAcknowledged),
		errors.As(err, &remoteErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// confirmation is embedded by requests for irreversible actions.
type confirmation struct {
	Confirm bool `json:"confirm"`
}

func (h *Handler) confirmed(w http.ResponseWriter, c confirmation) bool {
	if !c.Confirm {
		platform.RespondError(w, http.StatusBadRequest, "Confirmation required")
		return false
	}
	return true
}
