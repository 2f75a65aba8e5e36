package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type keyKind uint8

const (
	kindString keyKind = iota + 1
	kindNumber
	kindBool
	kindTime
)

// Key is the comparable form of a cell used for join lookups and row equality.
// Numbers of any width compare by value; a number never equals a string.
// Whole numbers that fit in int64 are held exactly, so large integers never
// collide through float rounding.
type Key struct {
	kind     keyKind
	text     string
	integral bool
	i        int64
	num      float64
}

// float64 bounds of int64; both are exact powers of two.
const (
	minIntFloat = -9223372036854775808.0
	maxIntFloat = 9223372036854775808.0
)

func numberKey(f float64) Key {
	if f >= minIntFloat && f < maxIntFloat && f == math.Trunc(f) {
		return Key{kind: kindNumber, integral: true, i: int64(f)}
	}
	return Key{kind: kindNumber, num: f}
}

// KeyOf returns the comparable key of v. Null values have no key.
func KeyOf(v any) (Key, bool) {
	v = Normalize(v)
	switch value := v.(type) {
	case nil:
		return Key{}, false
	case string:
		return Key{kind: kindString, text: value}, true
	case int64:
		return Key{kind: kindNumber, integral: true, i: value}, true
	case float64:
		if math.IsNaN(value) {
			return Key{}, false
		}
		return numberKey(value), true
	case bool:
		if value {
			return Key{kind: kindBool, integral: true, i: 1}, true
		}
		return Key{kind: kindBool, integral: true}, true
	case time.Time:
		return Key{kind: kindTime, text: value.UTC().Format(time.RFC3339Nano)}, true
	default:
		return Key{kind: kindString, text: Text(value)}, true
	}
}

// IsNull reports whether v is a missing value.
func IsNull(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(value)
	case float32:
		return math.IsNaN(float64(value))
	}
	return false
}

// Normalize folds driver and parser values into the scalar set tables carry:
// string, int64, float64, bool, time.Time or nil.
func Normalize(v any) any {
	switch value := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(value)
	case int:
		return int64(value)
	case int8:
		return int64(value)
	case int16:
		return int64(value)
	case int32:
		return int64(value)
	case uint8:
		return int64(value)
	case uint16:
		return int64(value)
	case uint32:
		return int64(value)
	case uint:
		return int64(value)
	case uint64:
		if value > math.MaxInt64 {
			return float64(value)
		}
		return int64(value)
	case float32:
		return float64(value)
	case *time.Time:
		if value == nil {
			return nil
		}
		return *value
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return i
		}
		if f, err := value.Float64(); err == nil {
			return f
		}
		return value.String()
	default:
		return v
	}
}

// Text renders a value the way join keys compare it as text.
func Text(v any) string {
	v = Normalize(v)
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case time.Time:
		if value.Hour() == 0 && value.Minute() == 0 && value.Second() == 0 && value.Nanosecond() == 0 {
			return value.Format(dateLayout)
		}
		return value.Format(time.RFC3339)
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}

// rowKey encodes a row so that equal rows, and only equal rows, share a key.
// Every field is its kind byte followed by a length-prefixed payload.
func rowKey(row Row) string {
	var b strings.Builder
	for _, v := range row {
		key, ok := KeyOf(v)
		if !ok {
			b.WriteByte(0)
			continue
		}
		b.WriteByte(byte(key.kind))
		var payload string
		switch {
		case key.integral:
			payload = "i" + strconv.FormatInt(key.i, 10)
		case key.kind == kindNumber:
			payload = "f" + strconv.FormatFloat(key.num, 'g', -1, 64)
		default:
			payload = key.text
		}
		b.WriteString(strconv.Itoa(len(payload)))
		b.WriteByte(':')
		b.WriteString(payload)
	}
	return b.String()
}
