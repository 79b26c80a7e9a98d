package assembler

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithPoolPages sets how many upstream pages feed one candidate pool.
func WithPoolPages(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.poolPages = n
		}
	}
}
