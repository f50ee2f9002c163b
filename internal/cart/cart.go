// internal/cart/cart.go
//
// The cart is a client-local soft reservation: it lives entirely in the
// client's persistent storage, expires one hour after it was first created,
// and is re-validated against live stock at checkout. It is never stored
// server-side.
package cart

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/phonespot/backend/internal/apperrors"
	"github.com/phonespot/backend/internal/models"
)

// TTL after which a loaded cart is discarded in full. Anchored to cart
// creation, not last activity.
const TTL = time.Hour

const storageKey = "cart"

// SelectedVariant is the snapshot of what the buyer picked, preserved as
// seen at selection time rather than as a live reference.
type SelectedVariant struct {
	Color   string `json:"color,omitempty"`
	Memory  string `json:"memory,omitempty"`
	Battery string `json:"battery,omitempty"`
}

// LineItem is one cart entry. Two selections of the same product with
// different (color, memory) pairs are distinct lines.
type LineItem struct {
	ProductID       string           `json:"productId"`
	DisplayName     string           `json:"displayName"`
	Image           string           `json:"image,omitempty"`
	UnitPrice       float64          `json:"unitPrice"`
	Quantity        int              `json:"quantity"`
	SelectedVariant *SelectedVariant `json:"selectedVariant,omitempty"`
}

type persistedCart struct {
	Items                []LineItem `json:"items"`
	CreatedAtEpochMillis int64      `json:"createdAtEpochMillis"`
}

// CheckoutLine is the shape handed to order creation.
type CheckoutLine struct {
	ProductID string
	Quantity  int
	UnitPrice float64
	Color     string
	Memory    string
}

type EventType string

const (
	EventLineAdded   EventType = "line_added"
	EventLineRemoved EventType = "line_removed"
	EventCleared     EventType = "cleared"
	EventExpired     EventType = "expired"
)

// Event is broadcast to subscribers after every successful mutation so
// dependent views (availability badges, catalog re-render) refresh
// synchronously. Local pub/sub only, no network I/O.
type Event struct {
	Type EventType
	Line *LineItem
}

type Store struct {
	mu          sync.Mutex
	storage     Storage
	ttl         time.Duration
	now         func() time.Time
	items       []LineItem
	createdAt   time.Time
	subscribers []func(Event)
}

type Option func(*Store)

// WithTTL overrides the default one-hour TTL. Used by tests.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		ttl:     TTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a callback for cart-changed notifications.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Load reads the persisted cart. A cart older than the TTL is discarded in
// full (never partially pruned) and apperrors.ErrCartExpired is returned so
// the caller can tell the shopper their reservation lapsed.
func (s *Store) Load() ([]LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.storage.GetItem(storageKey)
	if !ok {
		s.items = nil
		s.createdAt = time.Time{}
		return nil, nil
	}

	var pc persistedCart
	if err := json.Unmarshal([]byte(raw), &pc); err != nil {
		// Unreadable carts are treated like missing ones.
		s.discardLocked()
		return nil, nil
	}

	createdAt := time.UnixMilli(pc.CreatedAtEpochMillis)
	if s.now().Sub(createdAt) > s.ttl {
		s.discardLocked()
		s.publish(Event{Type: EventExpired})
		return nil, apperrors.ErrCartExpired
	}

	s.items = pc.Items
	s.createdAt = createdAt
	return s.itemsCopy(), nil
}

// AddLine adds quantity units of a product/variant selection. If a line with
// the same (product id, color, memory) key exists its quantity is
// incremented, otherwise a new line is appended. The line is rejected as a
// no-op with apperrors.ErrOutOfStock when the resolved stock minus what this
// line already holds leaves nothing available.
func (s *Store) AddLine(product *models.Product, selection *SelectedVariant, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	color, memory := selectionKey(selection)
	resolution := product.ResolveVariant(color, memory)

	existing := s.findLineLocked(product.ProductID, color, memory)
	current := 0
	if existing != nil {
		current = existing.Quantity
	}

	available := resolution.Stock - current
	if available <= 0 {
		return apperrors.ErrOutOfStock
	}

	var changed *LineItem
	if existing != nil {
		existing.Quantity += quantity
		changed = existing
	} else {
		line := LineItem{
			ProductID:   product.ProductID,
			DisplayName: product.Name,
			Image:       product.Image,
			UnitPrice:   resolution.Price,
			Quantity:    quantity,
		}
		if selection != nil {
			line.SelectedVariant = &SelectedVariant{
				Color:   color,
				Memory:  memory,
				Battery: resolution.Battery,
			}
		}
		s.items = append(s.items, line)
		changed = &s.items[len(s.items)-1]
	}

	if err := s.persistLocked(); err != nil {
		return err
	}
	s.publish(Event{Type: EventLineAdded, Line: changed})
	return nil
}

// RemoveLine removes a whole line identified by product and selection.
func (s *Store) RemoveLine(productID string, selection *SelectedVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, memory := selectionKey(selection)
	for i := range s.items {
		if !s.items[i].matches(productID, color, memory) {
			continue
		}
		removed := s.items[i]
		s.items = append(s.items[:i], s.items[i+1:]...)
		if err := s.persistLocked(); err != nil {
			return err
		}
		s.publish(Event{Type: EventLineRemoved, Line: &removed})
		return nil
	}
	return &apperrors.NotFoundError{Resource: "cart line", ID: productID}
}

// Clear empties the cart and drops the persisted copy.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked()
	s.publish(Event{Type: EventCleared})
}

// TotalQuantity sums all line quantities, for the cart badge.
func (s *Store) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// Items returns a copy of the current lines.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsCopy()
}

// AvailableFor reports how many more units of a selection could still be
// added: the resolved stock minus what this line already reserves.
func (s *Store) AvailableFor(product *models.Product, selection *SelectedVariant) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, memory := selectionKey(selection)
	resolution := product.ResolveVariant(color, memory)

	current := 0
	if line := s.findLineLocked(product.ProductID, color, memory); line != nil {
		current = line.Quantity
	}
	if available := resolution.Stock - current; available > 0 {
		return available
	}
	return 0
}

// CheckoutLines converts the cart into the line requests submitted to order
// creation. The server re-validates against live stock; these carry the
// prices the buyer saw.
func (s *Store) CheckoutLines() []CheckoutLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]CheckoutLine, 0, len(s.items))
	for _, item := range s.items {
		line := CheckoutLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		if item.SelectedVariant != nil {
			line.Color = item.SelectedVariant.Color
			line.Memory = item.SelectedVariant.Memory
		}
		lines = append(lines, line)
	}
	return lines
}

func (s *Store) findLineLocked(productID, color, memory string) *LineItem {
	for i := range s.items {
		if s.items[i].matches(productID, color, memory) {
			return &s.items[i]
		}
	}
	return nil
}

// matches treats "no variant" as its own bucket: a line without a selection
// only matches an empty selection.
func (l *LineItem) matches(productID, color, memory string) bool {
	if l.ProductID != productID {
		return false
	}
	if l.SelectedVariant == nil {
		return color == "" && memory == ""
	}
	return l.SelectedVariant.Color == color && l.SelectedVariant.Memory == memory
}

// persistLocked writes the cart back. The timestamp is set only when the
// cart is first created; later mutations do not refresh the TTL.
func (s *Store) persistLocked() error {
	if s.createdAt.IsZero() {
		s.createdAt = s.now()
	}
	data, err := json.Marshal(persistedCart{
		Items:                s.items,
		CreatedAtEpochMillis: s.createdAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return s.storage.SetItem(storageKey, string(data))
}

func (s *Store) discardLocked() {
	s.items = nil
	s.createdAt = time.Time{}
	s.storage.RemoveItem(storageKey)
}

func (s *Store) publish(event Event) {
	for _, fn := range s.subscribers {
		fn(event)
	}
}

func (s *Store) itemsCopy() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func selectionKey(selection *SelectedVariant) (color, memory string) {
	if selection == nil {
		return "", ""
	}
	return strings.TrimSpace(selection.Color), strings.TrimSpace(selection.Memory)
}
