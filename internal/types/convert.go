package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ToInt64 converts an interface{} to int64.
// Supports the signed and unsigned integer kinds, float32, float64 and json.Number.
// Anything else converts to 0.
func ToInt64(v interface{}) int64 {
	switch i := v.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	case int32:
		return int64(i)
	case int16:
		return int64(i)
	case int8:
		return int64(i)
	case uint:
		return int64(i)
	case uint64:
		return int64(i)
	case uint32:
		return int64(i)
	case uint16:
		return int64(i)
	case uint8:
		return int64(i)
	case float64:
		return int64(i)
	case float32:
		return int64(i)
	case json.Number:
		n, err := i.Int64()
		if err != nil {
			f, _ := i.Float64()
			return int64(f)
		}
		return n
	default:
		return 0
	}
}

// ToString renders a loosely typed record value as a string. Integral floats lose their
// fractional part so ids decoded from JSON ("42" vs 42.0) compare equal. nil becomes "".
func ToString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return ToString(float64(s))
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return strconv.FormatInt(ToInt64(s), 10)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", s)
	}
}
