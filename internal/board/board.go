package board

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"CryptoSentinel/internal/model"
)

// ErrEmpty is returned before the first snapshot has been published.
var ErrEmpty = errors.New("board has not been collected yet")

// Filter selects assets by recommendation label.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterBuy  Filter = "buy"
	FilterSell Filter = "sell"
)

// Order sorts assets by current price.
type Order string

const (
	OrderNone Order = ""
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Query narrows and orders a board view.
type Query struct {
	Filter Filter `query:"filter" default:"all" validate:"oneof=all buy sell"`
	Search string `query:"q" validate:"max=64"`
	Sort   Order  `query:"sort" validate:"omitempty,oneof=asc desc"`
}

// Store holds the most recent board snapshot.
type Store struct {
	mu   sync.RWMutex
	snap *model.BoardSnapshot
}

func NewStore() *Store { return &Store{} }

// Publish swaps in a new snapshot.
func (s *Store) Publish(snap *model.BoardSnapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Latest returns the current snapshot, or ErrEmpty.
func (s *Store) Latest() (*model.BoardSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrEmpty
	}
	return s.snap, nil
}

// Find returns the analysed asset with the given id or symbol.
func (s *Store) Find(idOrSymbol string) (model.AssetAnalysis, bool) {
	snap, err := s.Latest()
	if err != nil {
		return model.AssetAnalysis{}, false
	}
	for _, a := range snap.Assets {
		if strings.EqualFold(a.Quote.ID, idOrSymbol) || strings.EqualFold(a.Quote.Symbol, idOrSymbol) {
			return a, true
		}
	}
	return model.AssetAnalysis{}, false
}

// View applies q to the latest snapshot. The stored snapshot is never modified.
func (s *Store) View(q Query) ([]model.AssetAnalysis, error) {
	snap, err := s.Latest()
	if err != nil {
		return nil, err
	}
	return Apply(snap.Assets, q), nil
}

// Apply filters, searches and sorts a copy of assets.
func Apply(assets []model.AssetAnalysis, q Query) []model.AssetAnalysis {
	out := make([]model.AssetAnalysis, 0, len(assets))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, a := range assets {
		if !matchesFilter(a, q.Filter) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.Quote.Name), search) &&
			!strings.Contains(strings.ToLower(a.Quote.Symbol), search) {
			continue
		}
		out = append(out, a)
	}

	switch q.Sort {
	case OrderAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Quote.Price() < out[j].Quote.Price() })
	case OrderDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Quote.Price() > out[j].Quote.Price() })
	}
	return out
}

func matchesFilter(a model.AssetAnalysis, f Filter) bool {
	switch f {
	case FilterBuy:
		return a.Recommendation.Label == model.LabelBuy
	case FilterSell:
		return a.Recommendation.Label == model.LabelSell
	default:
		return true
	}
}

// Counts returns the number of assets per label, for metrics.
func Counts(snap *model.BoardSnapshot) map[string]int {
	counts := map[string]int{
		string(model.LabelBuy):  0,
		string(model.LabelSell): 0,
		string(model.LabelHold): 0,
	}
	for _, a := range snap.Assets {
		counts[string(a.Recommendation.Label)]++
	}
	return counts
}
