//go:build arenadebug

package arena

// In debug builds, every mutation is followed by a full consistency check.

func debugValidate[K comparable](m *Manager[K]) {
	if err := m.Check(); err != nil {
		panic(err)
	}
}
