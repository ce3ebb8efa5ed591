package project

import (
	"github.com/goliatone/go-project/internal/hydrate"
)

// DecodeOption configures typed decoding of resolved documents.
type DecodeOption[T any] = hydrate.DecoderOption[T]

// DecodeWithPostHook validates or adjusts the hydrated value after decoding.
func DecodeWithPostHook[T any](hook func(*T) error) DecodeOption[T] {
	return hydrate.WithPostHook[T](func(_ hydrate.Context, value *T) error {
		return hook(value)
	})
}

// DecodeStrict rejects document keys that have no matching struct field.
func DecodeStrict[T any]() DecodeOption[T] {
	return hydrate.WithDisallowUnknownFields[T]()
}

// Decode hydrates a resolved configuration document into T.
func Decode[T any](doc map[string]any, opts ...DecodeOption[T]) (T, error) {
	return decodeWith[T]("", doc, opts...)
}

func decodeScoped[T any](scope string, doc map[string]any, opts ...DecodeOption[T]) (T, error) {
	return decodeWith[T](scope, doc, opts...)
}

func decodeWith[T any](scope string, doc map[string]any, opts ...DecodeOption[T]) (T, error) {
	decoder := hydrate.NewDecoder[T](opts...)
	return decoder.Decode(hydrate.Context{Scope: scope}, doc)
}
