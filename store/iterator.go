package store

type Iterator interface {
	Key() []byte
	First() bool
	Last() bool
	Next() bool
	Valid() bool
	Value() []byte
	Close() error
}

type TypedIterator[T any] interface {
	First() bool
	Next() bool
	Valid() bool
	Value() (T, error)
	Close() error
}
