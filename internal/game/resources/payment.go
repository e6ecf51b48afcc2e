package resources

import (
	"fmt"
	"sort"

	"github.com/tabletop-labs/cardengine/internal/game/model"
)

// Shortfall records a resource the player cannot cover.
type Shortfall struct {
	Resource string
	Need     int
	Have     int
}

// Error returns the short form used in action results.
func (s Shortfall) Error() string {
	return fmt.Sprintf("Insufficient %s", s.Resource)
}

// Detail returns the long form used by rule enforcement.
func (s Shortfall) Detail() string {
	return fmt.Sprintf("Insufficient %s: need %d, have %d", s.Resource, s.Need, s.Have)
}

// PaymentResult represents the result of a payment attempt.
type PaymentResult struct {
	Success    bool
	Plan       map[string]int // resource -> amount to deduct
	Total      int
	Shortfalls []Shortfall
}

// Reason returns the first shortfall in short form, or "".
func (r *PaymentResult) Reason() string {
	if len(r.Shortfalls) == 0 {
		return ""
	}
	return r.Shortfalls[0].Error()
}

// CalculatePayment checks costs against the available resources without
// modifying them. Every shortfall is collected, in resource-name order.
func CalculatePayment(costs map[string]int, available model.Resources) *PaymentResult {
	result := &PaymentResult{
		Success: true,
		Plan:    make(map[string]int, len(costs)),
	}

	for _, name := range SortedKeys(costs) {
		need := costs[name]
		if need <= 0 {
			continue
		}
		have := available.Get(name)
		if have < need {
			result.Success = false
			result.Shortfalls = append(result.Shortfalls, Shortfall{Resource: name, Need: need, Have: have})
			continue
		}
		result.Plan[name] = need
		result.Total += need
	}

	if !result.Success {
		result.Plan = nil
		result.Total = 0
	}
	return result
}

// CanAfford reports whether available covers every cost.
func CanAfford(costs map[string]int, available model.Resources) bool {
	return CalculatePayment(costs, available).Success
}

// Pay deducts costs from res and returns the total spent. Nothing is deducted
// unless every cost can be covered; the first shortfall is returned as the
// error.
func Pay(res model.Resources, costs map[string]int) (int, error) {
	result := CalculatePayment(costs, res)
	if !result.Success {
		return 0, result.Shortfalls[0]
	}
	for name, amount := range result.Plan {
		res[name] -= amount
	}
	return result.Total, nil
}

// Add applies a signed delta to a named resource.
func Add(res model.Resources, name string, delta int) {
	res[name] += delta
}

// Merge returns base overlaid with overrides. Neither input is modified.
func Merge(base, overrides map[string]int) model.Resources {
	out := make(model.Resources, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
