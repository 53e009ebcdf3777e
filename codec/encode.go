package codec

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/wippyai/valuebridge/errors"
)

// Stringish is implemented by values that already own a canonical string.
type Stringish interface {
	AsString() (string, error)
}

// Encode renders a native Go value as a canonical string.
//
// Slices and arrays become lists, maps become key-sorted mappings, nil is
// the empty string.
func Encode(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case Stringish:
		return x.AsString()
	case []byte:
		return string(x), nil
	case []string:
		return EncodeList(x), nil
	case bool:
		return FormatBool(x), nil
	case int:
		return FormatInt(int64(x)), nil
	case int64:
		return FormatInt(x), nil
	case float64:
		return FormatFloat(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return encodeReflect(reflect.ValueOf(v))
}

func encodeReflect(rv reflect.Value) (string, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return FormatInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return FormatFloat(float64(float32(rv.Float()))), nil
	case reflect.Float64:
		return FormatFloat(rv.Float()), nil
	case reflect.Bool:
		return FormatBool(rv.Bool()), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", nil
		}
		return Encode(rv.Elem().Interface())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), nil
		}
		return encodeSeq(rv)
	case reflect.Array:
		return encodeSeq(rv)
	case reflect.Map:
		return encodeMap(rv)
	}
	return "", errors.New(errors.PhaseEncode, errors.KindConversion).
		Convert(rv.Type().String(), "string", "").
		Detail("unsupported kind %s", rv.Kind()).
		Build()
}

func encodeSeq(rv reflect.Value) (string, error) {
	items := make([]string, rv.Len())
	for i := range items {
		s, err := Encode(rv.Index(i).Interface())
		if err != nil {
			return "", err
		}
		items[i] = s
	}
	return EncodeList(items), nil
}

func encodeMap(rv reflect.Value) (string, error) {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := Encode(iter.Key().Interface())
		if err != nil {
			return "", err
		}
		v, err := Encode(iter.Value().Interface())
		if err != nil {
			return "", err
		}
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	items := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		items = append(items, p.k, p.v)
	}
	return EncodeList(items), nil
}
