package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-module/carbon/v2"
)

var (
	epoch   = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).UnixMicro()
	maxTime = math.MaxInt64 - epoch
	minTime = math.MinInt64 + epoch
)

// A Value stores a decoded scalar alongside its type.
type Value interface {
	Type() Type
	V() any
	String() string
}

type value[T any] struct {
	tp Type
	v  T
}

var _ Value = &value[bool]{}

func (v *value[T]) Type() Type {
	return v.tp
}

func (v *value[T]) V() any {
	return v.v
}

func (v *value[T]) String() string {
	switch v.tp {
	case TypeNull:
		return "NULL"
	case TypeText:
		return "'" + strings.ReplaceAll(any(v.v).(string), "'", "''") + "'"
	case TypeBytea:
		return fmt.Sprintf("'\\x%x'", any(v.v).([]byte))
	case TypeTimestamp:
		return "'" + any(v.v).(time.Time).Format(time.RFC3339Nano) + "'"
	case TypeDouble:
		return strconv.FormatFloat(any(v.v).(float64), 'g', -1, 64)
	}

	return fmt.Sprintf("%v", v.v)
}

// NewNullValue returns a SQL NULL value.
func NewNullValue() Value {
	return &value[struct{}]{
		tp: TypeNull,
	}
}

// NewBooleanValue returns a SQL BOOLEAN value.
func NewBooleanValue(x bool) Value {
	return &value[bool]{
		tp: TypeBoolean,
		v:  x,
	}
}

// NewTinyintValue returns a SQL TINYINT value.
func NewTinyintValue(x int8) Value {
	return &value[int8]{
		tp: TypeTinyint,
		v:  x,
	}
}

// NewSmallintValue returns a SQL SMALLINT value.
func NewSmallintValue(x int16) Value {
	return &value[int16]{
		tp: TypeSmallint,
		v:  x,
	}
}

// NewIntegerValue returns a SQL INTEGER value.
func NewIntegerValue(x int32) Value {
	return &value[int32]{
		tp: TypeInteger,
		v:  x,
	}
}

// NewBigintValue returns a SQL BIGINT value.
func NewBigintValue(x int64) Value {
	return &value[int64]{
		tp: TypeBigint,
		v:  x,
	}
}

// NewDoubleValue returns a SQL DOUBLE PRECISION value.
func NewDoubleValue(x float64) Value {
	return &value[float64]{
		tp: TypeDouble,
		v:  x,
	}
}

// NewTimestampValue returns a SQL TIMESTAMP value, truncated to
// microsecond precision.
func NewTimestampValue(x time.Time) Value {
	return &value[time.Time]{
		tp: TypeTimestamp,
		v:  x.UTC().Truncate(time.Microsecond),
	}
}

// NewTextValue returns a SQL TEXT value.
func NewTextValue(x string) Value {
	return &value[string]{
		tp: TypeText,
		v:  x,
	}
}

// NewByteaValue returns a SQL BYTEA value.
func NewByteaValue(x []byte) Value {
	return &value[[]byte]{
		tp: TypeBytea,
		v:  x,
	}
}

// AsString returns the string stored in a text value.
func AsString(v Value) string {
	return v.V().(string)
}

// AsInt64 returns the integer stored in any of the integer values,
// widened to 64 bits.
func AsInt64(v Value) int64 {
	switch x := v.V().(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	}

	panic(fmt.Sprintf("not an integer value: %v", v))
}

// IsEqual reports whether a and b hold the same scalar. Integers of
// different widths compare by value; other types must match exactly.
func IsEqual(a, b Value) bool {
	if a.Type().IsInteger() && b.Type().IsInteger() {
		return AsInt64(a) == AsInt64(b)
	}

	if a.Type() != b.Type() {
		return false
	}

	switch a.Type() {
	case TypeNull:
		return true
	case TypeBytea:
		return string(a.V().([]byte)) == string(b.V().([]byte))
	case TypeTimestamp:
		return a.V().(time.Time).Equal(b.V().(time.Time))
	default:
		return a.V() == b.V()
	}
}

// ParseTimestamp parses a timestamp literal. It accepts anything carbon
// can make sense of and returns an error when the result falls outside
// the range storable in microseconds since the engine epoch.
func ParseTimestamp(s string) (time.Time, error) {
	c := carbon.Parse(s, "UTC")
	if c.Error != nil {
		return time.Time{}, errors.New("invalid timestamp")
	}

	ts := c.ToStdTime()
	m := ts.UnixMicro()
	if m > maxTime || m < minTime {
		return time.Time{}, errors.New("timestamp out of range")
	}

	return ts, nil
}

// ParseValue parses the literal representation of a value of the given
// type, as found in serialized expressions.
func ParseValue(tp Type, s string) (Value, error) {
	switch tp {
	case TypeNull:
		return NewNullValue(), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.Errorf("invalid input syntax for type %s: %s", tp, s)
		}
		return NewBooleanValue(b), nil
	case TypeTinyint, TypeSmallint, TypeInteger, TypeBigint:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid input syntax for type %s: %s", tp, s)
		}
		switch tp {
		case TypeTinyint:
			if i < math.MinInt8 || i > math.MaxInt8 {
				return nil, errors.Errorf("%s out of range: %s", tp, s)
			}
			return NewTinyintValue(int8(i)), nil
		case TypeSmallint:
			if i < math.MinInt16 || i > math.MaxInt16 {
				return nil, errors.Errorf("%s out of range: %s", tp, s)
			}
			return NewSmallintValue(int16(i)), nil
		case TypeInteger:
			if i < math.MinInt32 || i > math.MaxInt32 {
				return nil, errors.Errorf("%s out of range: %s", tp, s)
			}
			return NewIntegerValue(int32(i)), nil
		default:
			return NewBigintValue(i), nil
		}
	case TypeDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Errorf("invalid input syntax for type %s: %s", tp, s)
		}
		return NewDoubleValue(f), nil
	case TypeTimestamp:
		ts, err := ParseTimestamp(s)
		if err != nil {
			return nil, err
		}
		return NewTimestampValue(ts), nil
	case TypeText:
		return NewTextValue(s), nil
	case TypeBytea:
		return NewByteaValue([]byte(s)), nil
	}

	return nil, errors.Errorf("cannot parse value of type %s", tp)
}
