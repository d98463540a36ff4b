// Package settings stores the shop profile and receipt layout.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

const (
	ModeDesktop = "desktop"
	ModeTouch   = "touch"

	ImageLogo  = "logo"
	ImagePromo = "promo"
)

var (
	ErrInvalidSettings = errors.New("invalid shop settings")
	ErrInvalidImage    = errors.New("image must be a data:image URL")
	ErrUnknownImage    = errors.New("image kind must be logo or promo")
)

type ShopSettings struct {
	ShopName             string  `json:"shopName"`
	Address              string  `json:"address"`
	Phone                string  `json:"phone"`
	TaxID                string  `json:"taxId"`
	IsVatDefaultEnabled  bool    `json:"isVatDefaultEnabled"`
	LogoURL              string  `json:"logoUrl"`
	PromoURL             string  `json:"promoUrl"`
	HeaderText           string  `json:"headerText"`
	FooterText           string  `json:"footerText"`
	LogoSizePercent      int     `json:"logoSizePercent"`
	PromoSizePercent     int     `json:"promoSizePercent"`
	ReceiptTopMargin     int     `json:"receiptTopMargin"`
	ReceiptBottomMargin  int     `json:"receiptBottomMargin"`
	ReceiptLineSpacing   float64 `json:"receiptLineSpacing"`
	InteractionMode      string  `json:"interactionMode"`
	IsKeyboardNavEnabled bool    `json:"isKeyboardNavEnabled"`
}

func Defaults() ShopSettings {
	return ShopSettings{
		ShopName:            "Takoyaki Bar",
		LogoSizePercent:     80,
		PromoSizePercent:    100,
		ReceiptTopMargin:    5,
		ReceiptBottomMargin: 5,
		ReceiptLineSpacing:  1.2,
		InteractionMode:     ModeDesktop,
	}
}

func (s ShopSettings) Validate() error {
	var problems []string
	if s.InteractionMode != ModeDesktop && s.InteractionMode != ModeTouch {
		problems = append(problems, "interactionMode must be desktop or touch")
	}
	if s.LogoSizePercent < 10 || s.LogoSizePercent > 100 {
		problems = append(problems, "logoSizePercent must be 10..100")
	}
	if s.PromoSizePercent < 10 || s.PromoSizePercent > 100 {
		problems = append(problems, "promoSizePercent must be 10..100")
	}
	if s.ReceiptTopMargin < 0 || s.ReceiptTopMargin > 50 {
		problems = append(problems, "receiptTopMargin must be 0..50")
	}
	if s.ReceiptBottomMargin < 0 || s.ReceiptBottomMargin > 50 {
		problems = append(problems, "receiptBottomMargin must be 0..50")
	}
	if s.ReceiptLineSpacing < 1 || s.ReceiptLineSpacing > 2 {
		problems = append(problems, "receiptLineSpacing must be 1..2")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// Service loads and saves settings. Stored values are decoded over the
// defaults so fields added later keep their default.
type Service struct {
	mu       sync.RWMutex
	kv       storage.KV
	logger   platform.Logger
	current  ShopSettings
	onChange []func(ShopSettings)
}

func NewService(kv storage.KV, logger platform.Logger) *Service {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	return &Service{kv: kv, logger: logger, current: Defaults()}
}

// OnChange registers fn to run after settings are loaded or saved.
func (s *Service) OnChange(fn func(ShopSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Service) Load(ctx context.Context) ShopSettings {
	loaded := Defaults()
	err := storage.GetJSON(ctx, s.kv, storage.ShopSettingsKey, &loaded)
	switch {
	case err == nil:
		if verr := loaded.Validate(); verr != nil {
			s.logger.Error("stored settings invalid, using defaults", "error", verr)
			loaded = Defaults()
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.logger.Error("cannot read settings, using defaults", "error", err)
		loaded = Defaults()
	}
	s.set(loaded)
	return loaded
}

func (s *Service) Get() ShopSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) Save(ctx context.Context, next ShopSettings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	if err := storage.PutJSON(ctx, s.kv, storage.ShopSettingsKey, next); err != nil {
		return fmt.Errorf("cannot store settings: %w", err)
	}
	s.set(next)
	s.logger.Info("shop settings saved", "shop_name", next.ShopName)
	return nil
}

func (s *Service) set(v ShopSettings) {
	s.mu.Lock()
	s.current = v
	hooks := append([]func(ShopSettings){}, s.onChange...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(v)
	}
}

// OfflineImage returns the stored data URL for kind, or "" when none is stored.
func (s *Service) OfflineImage(ctx context.Context, kind string) (string, error) {
	key, err := imageKey(kind)
	if err != nil {
		return "", err
	}
	var v string
	if err := storage.GetJSON(ctx, s.kv, key, &v); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

// SetOfflineImage stores a receipt image for printing without network
// access. An empty value removes it.
func (s *Service) SetOfflineImage(ctx context.Context, kind, dataURL string) error {
	key, err := imageKey(kind)
	if err != nil {
		return err
	}
	if dataURL == "" {
		return s.kv.Delete(ctx, key)
	}
	if !strings.HasPrefix(dataURL, "data:image/") {
		return ErrInvalidImage
	}
	return storage.PutJSON(ctx, s.kv, key, dataURL)
}

func imageKey(kind string) (string, error) {
	switch kind {
	case ImageLogo:
		return storage.OfflineLogoKey, nil
	case ImagePromo:
		return storage.OfflinePromoKey, nil
	}
	return "", ErrUnknownImage
}
