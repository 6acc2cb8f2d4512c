package dto

import (
	"github.com/bytedance/sonic"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// Optional tells an absent JSON field apart from an explicit null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return sonic.Unmarshal(data, &o.Value)
}

// Patch maps the field onto a domain patch; null clears.
func (o Optional[T]) Patch() domain.Patch[T] {
	switch {
	case !o.Set:
		return domain.Patch[T]{}
	case o.Null:
		return domain.Clear[T]()
	default:
		return domain.SetTo(o.Value)
	}
}
