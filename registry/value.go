package registry

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

// Value is one decoded, immutable registry value.
type Value struct {
	name string
	kind types.ValueKind
	data any // []byte, uint64, []string, or string depending on kind
}

// DecodeValue converts a single wire-format value record into a typed Value.
// Decoding is pure: the same inputs always yield the same result and no
// state is touched.
//
// Unknown tags decode as plain strings, never as errors. Multi-string
// payloads are split on the literal comma; this is lossy when an element
// itself contains a comma, which the wire format cannot represent
// unambiguously. That limitation is inherited from the backend, not
// something this layer can repair.
func DecodeValue(name, rawData, typeTag string) (Value, error) {
	kind := types.KindOf(typeTag)
	switch kind {
	case types.KindBinary:
		b, err := hex.DecodeString(rawData)
		if err != nil {
			return Value{}, &types.Error{
				Kind: types.ErrKindEncoding,
				Msg:  fmt.Sprintf("value %q: bad hex payload", name),
				Err:  err,
			}
		}
		return Value{name: name, kind: kind, data: b}, nil

	case types.KindDword, types.KindQword:
		// Both integer widths decode into uint64, the widest type needed to
		// hold an unsigned 64-bit wire value without overflow.
		n, err := strconv.ParseUint(rawData, 10, 64)
		if err != nil {
			return Value{}, &types.Error{
				Kind: types.ErrKindEncoding,
				Msg:  fmt.Sprintf("value %q: non-numeric %s payload", name, kind),
				Err:  err,
			}
		}
		return Value{name: name, kind: kind, data: n}, nil

	case types.KindMultiString:
		return Value{name: name, kind: kind, data: strings.Split(rawData, ",")}, nil

	default:
		return Value{name: name, kind: types.KindString, data: rawData}, nil
	}
}

// Name returns the value name, case-preserving.
func (v Value) Name() string { return v.name }

// Kind returns the decoded representation kind.
func (v Value) Kind() types.ValueKind { return v.kind }

// Data returns the decoded payload without a type check: []byte, uint64,
// []string, or string depending on Kind.
func (v Value) Data() any { return v.data }

// String returns the payload of a string value.
func (v Value) String() (string, error) {
	if v.kind != types.KindString {
		return "", v.mismatch(types.KindString)
	}
	return v.data.(string), nil
}

// Bytes returns the payload of a binary value.
func (v Value) Bytes() ([]byte, error) {
	if v.kind != types.KindBinary {
		return nil, v.mismatch(types.KindBinary)
	}
	return v.data.([]byte), nil
}

// Uint64 returns the payload of a DWORD or QWORD value.
func (v Value) Uint64() (uint64, error) {
	if v.kind != types.KindDword && v.kind != types.KindQword {
		return 0, v.mismatch(types.KindQword)
	}
	return v.data.(uint64), nil
}

// Strings returns the payload of a multi-string value.
func (v Value) Strings() ([]string, error) {
	if v.kind != types.KindMultiString {
		return nil, v.mismatch(types.KindMultiString)
	}
	return v.data.([]string), nil
}

func (v Value) mismatch(want types.ValueKind) error {
	return &types.Error{
		Kind: types.ErrKindType,
		Msg:  fmt.Sprintf("value %q is %s, not %s", v.name, v.kind, want),
	}
}
