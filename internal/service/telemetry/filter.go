package telemetry

type predicate[T any] func(T) bool

// apply keeps items matching every non-nil predicate, preserving order, then
// truncates to limit when limit > 0.
func apply[T any](items []T, limit int, preds ...predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchesAll(item, preds) {
			out = append(out, item)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesAll[T any](item T, preds []predicate[T]) bool {
	for _, p := range preds {
		if p != nil && !p(item) {
			return false
		}
	}
	return true
}

// matchString returns nil (no filter) for an empty want.
func matchString[T any](want string, field func(T) string) predicate[T] {
	if want == "" {
		return nil
	}
	return func(item T) bool { return field(item) == want }
}

// matchBool returns nil (no filter) for a nil want.
func matchBool[T any](want *bool, field func(T) bool) predicate[T] {
	if want == nil {
		return nil
	}
	expected := *want
	return func(item T) bool { return field(item) == expected }
}
