// Package remote talks to the shop's remote order and menu store. Every call
// is a single JSON request; the reply carries a status field that must read
// "success".
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/pkg/platform"
)

const (
	ActionGetMenu        = "getMenu"
	ActionSaveOrder      = "saveOrder"
	ActionAddMenuItem    = "addMenuItem"
	ActionUpdateMenuItem = "updateMenuItem"
	ActionDeleteMenuItem = "deleteMenuItem"
	ActionAddCategory    = "addCategory"
	ActionDeleteCategory = "deleteCategory"

	contentType   = "text/plain;charset=utf-8"
	statusSuccess = "success"
)

var ErrNotConfigured = errors.New("remote endpoint not configured")

// Error is a reply that arrived but did not report success.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 && e.StatusCode/100 != 2 {
		return fmt.Sprintf("remote returned HTTP %d", e.StatusCode)
	}
	if e.Message == "" {
		return "remote reported an error"
	}
	return "remote error: " + e.Message
}

type Menu struct {
	Items      []ledger.MenuItem `json:"menuItems"`
	Categories []string          `json:"categories"`
}

// Reply is the decoded answer to a mutation.
type Reply struct {
	Status  string           `json:"status"`
	Message string           `json:"message,omitempty"`
	Item    *ledger.MenuItem `json:"item,omitempty"`
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     platform.Logger
}

func NewClient(endpoint string, timeout time.Duration, logger platform.Logger) *Client {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Configured reports whether the endpoint is an absolute http or https URL.
func (c *Client) Configured() bool {
	if c == nil || c.endpoint == "" {
		return false
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// FetchMenu downloads the full menu with its category order.
func (c *Client) FetchMenu(ctx context.Context) (*Menu, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	u, _ := url.Parse(c.endpoint)
	q := u.Query()
	q.Set("action", ActionGetMenu)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	var reply struct {
		Status     string       `json:"status"`
		Message    string       `json:"message"`
		MenuItems  []remoteItem `json:"menuItems"`
		Categories []string     `json:"categories"`
	}
	if err := c.do(req, &reply); err != nil {
		return nil, err
	}
	if reply.Status != statusSuccess {
		return nil, &Error{Message: reply.Message}
	}

	menu := &Menu{
		Items:      make([]ledger.MenuItem, 0, len(reply.MenuItems)),
		Categories: reply.Categories,
	}
	if menu.Categories == nil {
		menu.Categories = []string{}
	}
	for _, ri := range reply.MenuItems {
		item, ok := ri.normalize()
		if !ok {
			c.logger.Warn("menu item skipped", "name", ri.Name, "id", string(ri.ID))
			continue
		}
		menu.Items = append(menu.Items, item)
	}
	return menu, nil
}

// SaveOrder upserts one order keyed by its id.
func (c *Client) SaveOrder(ctx context.Context, o ledger.Order) error {
	_, err := c.post(ctx, map[string]interface{}{
		"action": ActionSaveOrder,
		"order":  o,
	})
	return err
}

// Mutate sends a menu change. payload fields are merged beside the action.
func (c *Client) Mutate(ctx context.Context, action string, payload map[string]interface{}) (*Reply, error) {
	body := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["action"] = action
	return c.post(ctx, body)
}

func (c *Client) post(ctx context.Context, body map[string]interface{}) (*Reply, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cannot encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var raw struct {
		Status  string      `json:"status"`
		Message string      `json:"message"`
		Item    *remoteItem `json:"item"`
	}
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	if raw.Status != statusSuccess {
		return nil, &Error{Message: raw.Message}
	}

	reply := &Reply{Status: raw.Status, Message: raw.Message}
	if raw.Item != nil {
		if item, ok := raw.Item.normalize(); ok {
			reply.Item = &item
		}
	}
	return reply, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &Error{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// remoteItem accepts ids and prices sent either as numbers or strings.
type remoteItem struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
}

func (ri remoteItem) normalize() (ledger.MenuItem, bool) {
	id, err := strconv.Atoi(unquote(ri.ID))
	if err != nil || id <= 0 {
		return ledger.MenuItem{}, false
	}
	price, err := decimal.NewFromString(unquote(ri.Price))
	if err != nil || price.IsNegative() {
		price = decimal.Zero
	}
	return ledger.MenuItem{
		ID:       id,
		Name:     ri.Name,
		Price:    price,
		Image:    ri.Image,
		Category: ri.Category,
	}, true
}

func unquote(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if u, err := strconv.Unquote(s); err == nil {
		s = u
	}
	return strings.TrimSpace(s)
}
