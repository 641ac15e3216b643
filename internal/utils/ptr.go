package utils

func Ptr[T any](v T) *T {
	return &v
}

// Deref returns fallback for a nil pointer.
func Deref[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
