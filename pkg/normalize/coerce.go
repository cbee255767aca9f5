package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/policyaudit/policyaudit/pkg/jsonutil"
	"github.com/policyaudit/policyaudit/pkg/policy"
)

var errNotInteger = errors.New("not an integer")

// toInt coerces a raw value the way the appliance's own tooling reads it:
// integers, integral-or-not floats (truncated), numeric strings and
// booleans. present is false for a missing key or JSON null.
func toInt(raw jsonutil.Raw) (n int64, present bool, err error) {
	switch jsonutil.KindOf(raw) {
	case jsonutil.KindAbsent, jsonutil.KindNull:
		return 0, false, nil
	case jsonutil.KindBool:
		var b bool
		if err := jsonutil.Unmarshal(raw, &b); err != nil {
			return 0, true, err
		}
		if b {
			return 1, true, nil
		}
		return 0, true, nil
	case jsonutil.KindNumber:
		n, err := parseNumber(strings.TrimSpace(string(raw)))
		return n, true, err
	case jsonutil.KindString:
		var s string
		if err := jsonutil.Unmarshal(raw, &s); err != nil {
			return 0, true, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, true, errNotInteger
		}
		return n, true, nil
	}
	return 0, true, errNotInteger
}

func parseNumber(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotInteger
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errNotInteger
	}
	return int64(f), nil
}

// toText reads a scalar as text. Strings are taken as-is, numbers and
// true by their JSON spelling. Falsy scalars (false, zero, "") and
// everything else are absent.
func toText(raw jsonutil.Raw) policy.Text {
	switch jsonutil.KindOf(raw) {
	case jsonutil.KindString:
		var s string
		if err := jsonutil.Unmarshal(raw, &s); err != nil {
			return policy.Missing()
		}
		return policy.Known(s)
	case jsonutil.KindNumber:
		lit := strings.TrimSpace(string(raw))
		if f, err := strconv.ParseFloat(lit, 64); err == nil && f == 0 {
			return policy.Missing()
		}
		return policy.Known(lit)
	case jsonutil.KindBool:
		if strings.TrimSpace(string(raw)) == "false" {
			return policy.Missing()
		}
		return policy.Known("true")
	}
	return policy.Missing()
}

// NameList flattens a list of named objects such as
// [{"name":"port4"},{"name":"port2"}] into "port4,port2". Elements that are
// not objects or carry no usable name are skipped. An empty, null or
// non-list value, or one that yields no names, is absent.
func NameList(raw jsonutil.Raw) policy.Text {
	if jsonutil.KindOf(raw) != jsonutil.KindArray {
		return policy.Missing()
	}
	var elems []jsonutil.Raw
	if err := jsonutil.Unmarshal(raw, &elems); err != nil {
		return policy.Missing()
	}

	names := make([]string, 0, len(elems))
	for _, e := range elems {
		if jsonutil.KindOf(e) != jsonutil.KindObject {
			continue
		}
		var obj map[string]jsonutil.Raw
		if err := jsonutil.Unmarshal(e, &obj); err != nil {
			continue
		}
		if name, ok := toText(obj["name"]).Value(); ok {
			names = append(names, name)
		}
	}
	return policy.Known(strings.Join(names, ","))
}
