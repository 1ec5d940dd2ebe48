// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package matcher

import (
	"math"
	"reflect"

	"github.com/pkg/errors"
)

// Kind enumerates the declarable pattern shapes.
type Kind int

const (
	// KindLength consumes a fixed number of bytes.
	KindLength Kind = iota
	// KindLengths consumes the longest of a set of lengths that fits.
	KindLengths
	// KindLiteral matches a string.
	KindLiteral
	// KindList matches one string out of a list.
	KindList
	// KindRange matches bytes inside inclusive bounds.
	KindRange
	// KindFirstOf searches for the earliest occurrence of one of its strings.
	KindFirstOf
	// KindFunc delegates matching to user supplied functions.
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindLength:
		return "length"
	case KindLengths:
		return "lengths"
	case KindLiteral:
		return "literal"
	case KindList:
		return "list"
	case KindRange:
		return "range"
	case KindFirstOf:
		return "firstOf"
	case KindFunc:
		return "func"
	}
	return "unknown"
}

// Func is a custom matcher. It returns the number of bytes it accepts at
// offset, or a negative value when it does not match.
type Func func(data []byte, offset int) int

// Pattern is the declaration of one part of a rule. Patterns are plain values:
// they are validated and turned into a Matcher by New.
type Pattern struct {
	kind  Kind
	n     int
	ns    []int
	str   string
	list  []string
	start []byte
	end   []byte
	funcs []Func
}

// Kind returns the shape of the pattern.
func (p Pattern) Kind() Kind {
	return p.kind
}

// Length returns a pattern consuming exactly n bytes.
func Length(n int) Pattern {
	return Pattern{kind: KindLength, n: n}
}

// Lengths returns a pattern consuming the longest of ns that fits in the
// available data.
func Lengths(ns ...int) Pattern {
	return Pattern{kind: KindLengths, ns: append([]int(nil), ns...)}
}

// Literal returns a pattern matching s. The empty literal is only valid as the
// first pattern of a rule, where it stands for "no pattern".
func Literal(s string) Pattern {
	return Pattern{kind: KindLiteral, str: s}
}

// AnyOf returns a pattern matching one of list.
func AnyOf(list ...string) Pattern {
	return Pattern{kind: KindList, list: append([]string(nil), list...)}
}

// Range matches a single byte c with start <= c <= end.
func Range(start, end byte) Pattern {
	return Pattern{kind: KindRange, start: []byte{start}, end: []byte{end}}
}

// Ranges matches a single byte inside any of the sub-ranges formed by the
// bytes of start and end taken pairwise.
func Ranges(start, end string) Pattern {
	return Pattern{kind: KindRange, start: []byte(start), end: []byte(end)}
}

// From matches a single byte greater or equal to any of starts.
func From(starts ...byte) Pattern {
	return Pattern{kind: KindRange, start: append([]byte{}, starts...)}
}

// UpTo matches a single byte lower or equal to any of ends.
func UpTo(ends ...byte) Pattern {
	return Pattern{kind: KindRange, end: append([]byte{}, ends...)}
}

// FirstOf returns a pattern searching for the left-most occurrence of any of
// list. At least two candidates are required.
func FirstOf(list ...string) Pattern {
	return Pattern{kind: KindFirstOf, list: append([]string(nil), list...)}
}

// FirstOfChars is FirstOf with every byte of s as a candidate.
func FirstOfChars(s string) Pattern {
	list := make([]string, 0, len(s))
	for i := 0; i < len(s); i++ {
		list = append(list, s[i:i+1])
	}
	return Pattern{kind: KindFirstOf, list: list}
}

// Funcs returns a pattern trying each function in order.
func Funcs(fns ...Func) Pattern {
	return Pattern{kind: KindFunc, funcs: append([]Func(nil), fns...)}
}

// Parse converts a loosely typed value, as found in decoded configuration
// files, into a Pattern:
//
//   - integer: Length
//   - string: Literal
//   - list of integers: Lengths
//   - list of strings: AnyOf
//   - list of functions: Funcs
//   - map with "start" and/or "end": Range (byte codes or strings)
//   - map with "firstOf": FirstOf (string of candidate bytes or list)
func Parse(v any) (Pattern, error) {
	switch t := v.(type) {
	case Pattern:
		return t, nil
	case string:
		return Literal(t), nil
	case Func:
		return Funcs(t), nil
	case func([]byte, int) int:
		return Funcs(t), nil
	case []int:
		return Lengths(t...), nil
	case []string:
		return AnyOf(t...), nil
	case []Func:
		return Funcs(t...), nil
	case []any:
		return parseList(t)
	case map[string]any:
		return parseObject(t)
	}

	if n, ok := toInt(v); ok {
		if n < 0 {
			return Pattern{}, errors.Wrapf(ErrNegativeLength, "length %d", n)
		}
		return Length(n), nil
	}
	return Pattern{}, errors.Wrapf(ErrUnsupportedPattern, "type %T", v)
}

func parseList(items []any) (Pattern, error) {
	if len(items) == 0 {
		return AnyOf(), nil
	}

	kind := itemKind(items[0])
	for _, item := range items[1:] {
		if itemKind(item) != kind {
			return Pattern{}, errors.Wrapf(ErrMixedTypes, "%v", items)
		}
	}

	switch kind {
	case reflect.Int:
		ns := make([]int, len(items))
		for i, item := range items {
			ns[i], _ = toInt(item)
		}
		return Lengths(ns...), nil
	case reflect.String:
		list := make([]string, len(items))
		for i, item := range items {
			list[i] = item.(string)
		}
		return AnyOf(list...), nil
	case reflect.Func:
		fns := make([]Func, len(items))
		for i, item := range items {
			fns[i] = toFunc(item)
		}
		return Funcs(fns...), nil
	}
	return Pattern{}, errors.Wrapf(ErrUnsupportedPattern, "list of %T", items[0])
}

func parseObject(obj map[string]any) (Pattern, error) {
	if v, ok := obj["firstOf"]; ok {
		switch t := v.(type) {
		case string:
			return FirstOfChars(t), nil
		case []string:
			return FirstOf(t...), nil
		case []any:
			list := make([]string, len(t))
			for i, item := range t {
				s, ok := item.(string)
				if !ok {
					return Pattern{}, errors.Wrapf(ErrMixedTypes, "firstOf item %v", item)
				}
				list[i] = s
			}
			return FirstOf(list...), nil
		}
		return Pattern{}, errors.Wrapf(ErrUnsupportedPattern, "firstOf of type %T", v)
	}

	p := Pattern{kind: KindRange}
	startV, hasStart := obj["start"]
	endV, hasEnd := obj["end"]
	if !hasStart && !hasEnd {
		return Pattern{}, errors.Wrapf(ErrUnsupportedPattern, "object %v", obj)
	}

	var err error
	if hasStart {
		if p.start, err = toCodes(startV); err != nil {
			return Pattern{}, err
		}
	}
	if hasEnd {
		if p.end, err = toCodes(endV); err != nil {
			return Pattern{}, err
		}
	}
	return p, nil
}

// toCodes turns a range bound into byte codes.
func toCodes(v any) ([]byte, error) {
	if s, ok := v.(string); ok {
		if s == "" {
			return nil, errors.Wrap(ErrEmptyPattern, "range bound")
		}
		return []byte(s), nil
	}
	if n, ok := toInt(v); ok {
		if n < 0 || n > math.MaxUint8 {
			return nil, errors.Wrapf(ErrUnsupportedPattern, "range bound %d out of byte range", n)
		}
		return []byte{byte(n)}, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedPattern, "range bound of type %T", v)
}

func itemKind(v any) reflect.Kind {
	if _, ok := toInt(v); ok {
		return reflect.Int
	}
	switch v.(type) {
	case string:
		return reflect.String
	case Func, func([]byte, int) int:
		return reflect.Func
	}
	return reflect.Invalid
}

func toFunc(v any) Func {
	switch f := v.(type) {
	case Func:
		return f
	case func([]byte, int) int:
		return f
	}
	return nil
}

// toInt accepts every integer type and integral floats, as produced by JSON
// and YAML decoders.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case float32:
		if float64(n) == math.Trunc(float64(n)) {
			return int(n), true
		}
	}
	return 0, false
}
