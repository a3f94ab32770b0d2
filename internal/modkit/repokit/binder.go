package repokit

// Binder builds a repo over a Queryer, either the pool or an open transaction
type Binder[T any] interface {
	Bind(Queryer) T
}
