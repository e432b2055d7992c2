//go:build !arenadebug

package arena

// debugValidate checks the arena after a mutation in arenadebug builds.
// No-op in normal builds.
func debugValidate[K comparable](m *Manager[K]) {}
