package tracker

import (
	"context"
	"reflect"
)

// Func is the shape of a scraping function accepted by Wrap. The URL is an
// explicit parameter, so the tracker never inspects arguments to find it; a
// function without a meaningful URL passes "".
type Func[T any] func(ctx context.Context, url string) (T, error)

// WrapOption configures Wrap.
type WrapOption[T any] func(*wrapConfig[T])

type wrapConfig[T any] struct {
	itemType string
	counter  func(T) int
}

// WithItemType sets the item_type label for the items-scraped counter.
func WithItemType[T any](itemType string) WrapOption[T] {
	return func(cfg *wrapConfig[T]) { cfg.itemType = itemType }
}

// WithItemCounter replaces the default CountItems inference with an
// explicit count derived from the return value.
func WithItemCounter[T any](counter func(T) int) WrapOption[T] {
	return func(cfg *wrapConfig[T]) { cfg.counter = counter }
}

// Wrap instruments a scraping function with the same tracking semantics as
// Track. After a successful call the item count is taken from the return
// value and, when non-zero, recorded on the items-scraped counter.
//
// A wrapped function invoked from inside a tracked block is tracked twice,
// once per layer. That is accepted, documented behavior, not a bug.
func Wrap[T any](t *Tracker, operation string, fn Func[T], opts ...WrapOption[T]) Func[T] {
	cfg := wrapConfig[T]{
		itemType: "item",
		counter:  func(v T) int { return CountItems(v) },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, url string) (T, error) {
		var result T
		err := t.Track(Operation{Name: operation, URL: url, ItemType: cfg.itemType}, func(_ *Scope) error {
			v, err := fn(ctx, url)
			if err != nil {
				return err
			}
			result = v
			return nil
		})
		if err != nil {
			return result, err
		}

		if count := cfg.counter(result); count > 0 {
			t.collector.RecordItemsScraped(operation, cfg.itemType, count)
			t.logger.Info().
				Str("operation", operation).
				Str("item_type", cfg.itemType).
				Int("count", count).
				Msg("items scraped")
		}
		return result, nil
	}
}

// CountItems infers how many items a scraping function returned:
//
//   - slices and arrays count their length
//   - a string-keyed map counts the length of the value under its "items"
//     key when present; any other non-nil map counts as a single item
//   - any other non-nil value counts as a single item
//   - nil counts as zero
//
// The "items" special case over other map shapes mirrors long-standing
// behavior that callers depend on; use WithItemCounter for anything more
// structured.
func CountItems(v interface{}) int {
	if v == nil {
		return 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len()
	case reflect.Map:
		if rv.IsNil() {
			return 0
		}
		if rv.Type().Key().Kind() == reflect.String {
			items := rv.MapIndex(reflect.ValueOf("items").Convert(rv.Type().Key()))
			if items.IsValid() {
				return sizedLen(items)
			}
		}
		return 1
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return CountItems(rv.Elem().Interface())
	default:
		return 1
	}
}

// sizedLen measures a value pulled out of a map: sized kinds report their
// length, anything else counts as one.
func sizedLen(v reflect.Value) int {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return v.Len()
	default:
		return 1
	}
}
