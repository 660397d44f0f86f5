package synthesis

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Price is the cost per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// Pricing maps a model name to its price. Keys may carry a provider prefix
// ("anthropic/claude-opus-4-1") or not ("claude-opus-4-1").
type Pricing map[string]Price

// Cost returns the estimated cost of one call. Unknown models cost zero.
func (p Pricing) Cost(model string, inputTokens, outputTokens int) float64 {
	price, ok := p.lookup(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)*price.Input/1_000_000 + float64(outputTokens)*price.Output/1_000_000
}

// Known reports whether model has a price.
func (p Pricing) Known(model string) bool {
	_, ok := p.lookup(model)
	return ok
}

func (p Pricing) lookup(model string) (Price, bool) {
	model = strings.TrimSpace(model)
	if price, ok := p[model]; ok {
		return price, true
	}
	if _, bare, found := strings.Cut(model, "/"); found {
		price, ok := p[bare]
		return price, ok
	}
	return Price{}, false
}

// Budget accumulates spend for one run.
type Budget struct {
	limit float64
	alert float64

	mu      sync.Mutex
	spent   float64
	calls   int
	alerted bool
	byModel map[string]float64
}

// NewBudget returns a Budget that alerts once at alert and stops at limit.
func NewBudget(limit, alert float64) *Budget {
	return &Budget{limit: limit, alert: alert, byModel: map[string]float64{}}
}

// Charge adds cost to the running total. alerted is true only on the call
// that first reaches the alert threshold. Reaching the limit returns
// ErrBudgetExceeded; the charge is still counted.
func (b *Budget) Charge(model string, cost float64) (alerted bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spent += cost
	b.calls++
	b.byModel[model] += cost
	if !b.alerted && b.alert > 0 && b.spent >= b.alert {
		b.alerted = true
		alerted = true
	}
	if b.limit > 0 && b.spent >= b.limit {
		return alerted, fmt.Errorf("%w: $%.2f spent of $%.2f", ErrBudgetExceeded, b.spent, b.limit)
	}
	return alerted, nil
}

// Exhausted reports whether the limit has already been reached.
func (b *Budget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit > 0 && b.spent >= b.limit
}

// Spent returns the running total.
func (b *Budget) Spent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent
}

// Limit returns the configured limit.
func (b *Budget) Limit() float64 { return b.limit }

// Calls returns the number of charged calls.
func (b *Budget) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// ModelCost is the spend attributed to one model.
type ModelCost struct {
	Model string
	Cost  float64
}

// ByModel returns spend per model, most expensive first.
func (b *Budget) ByModel() []ModelCost {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ModelCost, 0, len(b.byModel))
	for model, cost := range b.byModel {
		out = append(out, ModelCost{Model: model, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost > out[j].Cost
		}
		return out[i].Model < out[j].Model
	})
	return out
}
