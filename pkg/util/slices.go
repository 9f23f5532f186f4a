package util

// InPlaceFilter keeps the elements of s for which p returns true, preserving order
func InPlaceFilter[T any](s *[]T, p func(T) bool) {
	i := 0
	for _, e := range *s {
		if p(e) {
			(*s)[i] = e
			i++
		}
	}

	var zero T
	for j := i; j < len(*s); j++ {
		(*s)[j] = zero
	}

	*s = (*s)[:i]
}
