package credentials

// Derivations reports how many times the tier ran argon2id.
func (f *FileTier) Derivations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.derivations
}
