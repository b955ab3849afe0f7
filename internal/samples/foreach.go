package samples

// ForEach calls cb with every item in order.
func ForEach[T, R any](items []T, cb func(T) R) {
	for _, item := range items {
		cb(item)
	}
}
