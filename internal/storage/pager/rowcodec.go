package pager

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ───────────────────────────────────────────────────────────────────────────
// Row codec (C6)
// ───────────────────────────────────────────────────────────────────────────
//
// A row descriptor is an ordered list of type tags (spec.md §6). The low 7
// bits select the scalar kind; the high bit, set only on the varchar tag,
// marks a variable-width column. A varchar tag is followed by 4 big-endian
// bytes carrying its declared maximum length N — part of the descriptor,
// never the payload.
//
// Resolved ambiguity (see DESIGN.md): spec.md §8 S6 encodes varchar(5)
// holding "hi" as two raw UTF-8 bytes with neither padding to N nor an
// in-payload length prefix, yet decode must still know where "hi" ends.
// The only way both hold simultaneously is if the descriptor's declared N
// never bounds the actual run length at decode time, and the actual run
// length is instead implied positionally: a varchar column's bytes run from
// its start to the end of the payload. That's only unambiguous if a row
// descriptor carries at most one varchar column, and it is the last column.
// This package enforces that restriction (ErrInvalidTag if violated) rather
// than inventing an in-payload length prefix the worked example doesn't
// show.

const varcharHighBit = 0x80

// TypeTag identifies the scalar type of one descriptor column.
type TypeTag byte

const (
	TagBool    TypeTag = 0
	TagU8      TypeTag = 1
	TagU16     TypeTag = 2
	TagU32     TypeTag = 3
	TagU64     TypeTag = 4
	TagU128    TypeTag = 5
	TagI8      TypeTag = 11
	TagI16     TypeTag = 12
	TagI32     TypeTag = 13
	TagI64     TypeTag = 14
	TagI128    TypeTag = 15
	TagF32     TypeTag = 22
	TagF64     TypeTag = 23
	TagVarchar TypeTag = 21 // always carries the high bit when on the wire
)

func (t TypeTag) String() string {
	switch t & 0x7f {
	case TagBool:
		return "bool"
	case TagU8:
		return "u8"
	case TagU16:
		return "u16"
	case TagU32:
		return "u32"
	case TagU64:
		return "u64"
	case TagU128:
		return "u128"
	case TagI8:
		return "i8"
	case TagI16:
		return "i16"
	case TagI32:
		return "i32"
	case TagI64:
		return "i64"
	case TagI128:
		return "i128"
	case TagF32:
		return "f32"
	case TagF64:
		return "f64"
	case TagVarchar:
		return "varchar"
	default:
		return fmt.Sprintf("tag(0x%02x)", byte(t))
	}
}

// fixedWidth returns the on-wire width of a fixed-width tag, or (0, false)
// for varchar and unrecognised tags.
func fixedWidth(t TypeTag) (int, bool) {
	switch t & 0x7f {
	case TagBool, TagU8, TagI8:
		return 1, true
	case TagU16, TagI16:
		return 2, true
	case TagU32, TagI32, TagF32:
		return 4, true
	case TagU64, TagI64, TagF64:
		return 8, true
	case TagU128, TagI128:
		return 16, true
	default:
		return 0, false
	}
}

// Column is one entry of a row descriptor: a type tag plus, for varchar,
// its declared maximum length.
type Column struct {
	Name     string
	Tag      TypeTag
	VarcharN uint32 // meaningful only when Tag == TagVarchar
}

// Descriptor is the ordered list of a row's columns. At most one column may
// be TagVarchar, and if present it must be the last column (see the codec
// doc comment above).
type Descriptor []Column

// Validate checks the at-most-one-trailing-varchar restriction.
func (d Descriptor) Validate() error {
	for i, col := range d {
		if col.Tag == TagVarchar && i != len(d)-1 {
			return &InvalidTagError{Tag: byte(col.Tag) | varcharHighBit}
		}
	}
	return nil
}

// EncodeDescriptor renders a descriptor to its on-wire tag-byte form.
func (d Descriptor) EncodeDescriptor() []byte {
	out := make([]byte, 0, len(d)*2)
	for _, col := range d {
		if col.Tag == TagVarchar {
			out = append(out, byte(col.Tag)|varcharHighBit)
			var n [4]byte
			binary.BigEndian.PutUint32(n[:], col.VarcharN)
			out = append(out, n[:]...)
		} else {
			out = append(out, byte(col.Tag))
		}
	}
	return out
}

// DecodeDescriptor parses the on-wire tag-byte form back into a Descriptor.
// Column names are not carried on the wire; callers that need them supply
// their own via the table catalog.
func DecodeDescriptor(b []byte) (Descriptor, error) {
	var d Descriptor
	i := 0
	for i < len(b) {
		raw := b[i]
		tag := TypeTag(raw &^ varcharHighBit)
		if raw&varcharHighBit != 0 {
			if tag != TagVarchar {
				return nil, &InvalidTagError{Tag: raw}
			}
			if i+5 > len(b) {
				return nil, &InvalidTagError{Tag: raw}
			}
			n := binary.BigEndian.Uint32(b[i+1 : i+5])
			d = append(d, Column{Tag: TagVarchar, VarcharN: n})
			i += 5
			continue
		}
		if _, ok := fixedWidth(tag); !ok {
			return nil, &InvalidTagError{Tag: raw}
		}
		d = append(d, Column{Tag: tag})
		i += 1
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Value is a single decoded scalar. Exactly one field is meaningful,
// selected by Tag.
type Value struct {
	Tag  TypeTag
	Bool bool
	// U64 holds every integer width up to 64 bits as its raw bit pattern,
	// signed or unsigned alike; Int64 reinterprets it as signed per Tag's
	// width (sign-extending from the narrower width), which is what the
	// comparator and encoder actually need.
	U64     uint64
	F32     float32
	F64     float64
	Str     string // varchar
	// Wide128 carries the raw 16 bytes of a u128/i128 value big-endian;
	// Go has no native 128-bit integer type, matching the teacher's use
	// of byte slices for anything wider than its arithmetic types.
	Wide128 [16]byte
}

// Int64 reinterprets U64 as a signed value of v.Tag's width, sign-extending
// from the narrower integer widths.
func (v Value) Int64() int64 {
	switch v.Tag {
	case TagI8:
		return int64(int8(v.U64))
	case TagI16:
		return int64(int16(v.U64))
	case TagI32:
		return int64(int32(v.U64))
	default:
		return int64(v.U64)
	}
}

// String renders v for error messages and logging.
func (v Value) String() string {
	switch v.Tag {
	case TagVarchar:
		return v.Str
	case TagBool:
		return fmt.Sprintf("%v", v.Bool)
	case TagI8, TagI16, TagI32, TagI64:
		return fmt.Sprintf("%d", v.Int64())
	case TagF32:
		return fmt.Sprintf("%v", v.F32)
	case TagF64:
		return fmt.Sprintf("%v", v.F64)
	case TagU128, TagI128:
		return fmt.Sprintf("%x", v.Wide128)
	default:
		return fmt.Sprintf("%d", v.U64)
	}
}

// Row is an ordered list of values, one per descriptor column.
type Row []Value

// Encode renders row to its payload bytes per descriptor d. Returns
// DescriptorMismatchError if row and d have different lengths, or
// TypeMismatchError if a value's tag disagrees with its column.
func Encode(d Descriptor, row Row) ([]byte, error) {
	if len(row) != len(d) {
		return nil, &DescriptorMismatchError{ExpectedLen: len(d), GotLen: len(row)}
	}
	out := make([]byte, 0, 32)
	for i, col := range d {
		v := row[i]
		if v.Tag != col.Tag {
			return nil, &TypeMismatchError{Column: col.Name, Expected: col.Tag, Got: v.Tag.String()}
		}
		switch col.Tag {
		case TagVarchar:
			out = append(out, []byte(v.Str)...)
		case TagBool:
			if v.Bool {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		case TagU8, TagI8:
			out = append(out, byte(v.U64))
		case TagU16, TagI16:
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(v.U64))
			out = append(out, b[:]...)
		case TagU32, TagI32:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(v.U64))
			out = append(out, b[:]...)
		case TagU64, TagI64:
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], v.U64)
			out = append(out, b[:]...)
		case TagU128, TagI128:
			out = append(out, v.Wide128[:]...)
		case TagF32:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], math.Float32bits(v.F32))
			out = append(out, b[:]...)
		case TagF64:
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], math.Float64bits(v.F64))
			out = append(out, b[:]...)
		default:
			return nil, &InvalidTagError{Tag: byte(col.Tag)}
		}
	}
	return out, nil
}

// Decode parses payload into a Row per descriptor d. Fixed-width columns
// consume exactly their prescribed width; a trailing varchar column (the
// only kind permitted — see Descriptor.Validate) consumes every remaining
// byte. Returns DescriptorMismatchError if the fixed-width prefix doesn't
// fit within payload.
func Decode(d Descriptor, payload []byte) (Row, error) {
	row := make(Row, len(d))
	off := 0
	for i, col := range d {
		if col.Tag == TagVarchar {
			row[i] = Value{Tag: TagVarchar, Str: string(payload[off:])}
			off = len(payload)
			continue
		}
		width, ok := fixedWidth(col.Tag)
		if !ok {
			return nil, &InvalidTagError{Tag: byte(col.Tag)}
		}
		if off+width > len(payload) {
			return nil, &DescriptorMismatchError{ExpectedLen: off + width, GotLen: len(payload)}
		}
		field := payload[off : off+width]
		switch col.Tag {
		case TagBool:
			row[i] = Value{Tag: TagBool, Bool: field[0] != 0}
		case TagU8, TagI8:
			row[i] = Value{Tag: col.Tag, U64: uint64(field[0])}
		case TagU16, TagI16:
			row[i] = Value{Tag: col.Tag, U64: uint64(binary.BigEndian.Uint16(field))}
		case TagU32, TagI32:
			row[i] = Value{Tag: col.Tag, U64: uint64(binary.BigEndian.Uint32(field))}
		case TagU64, TagI64:
			row[i] = Value{Tag: col.Tag, U64: binary.BigEndian.Uint64(field)}
		case TagU128, TagI128:
			var w [16]byte
			copy(w[:], field)
			row[i] = Value{Tag: col.Tag, Wide128: w}
		case TagF32:
			row[i] = Value{Tag: TagF32, F32: math.Float32frombits(binary.BigEndian.Uint32(field))}
		case TagF64:
			row[i] = Value{Tag: TagF64, F64: math.Float64frombits(binary.BigEndian.Uint64(field))}
		default:
			return nil, &InvalidTagError{Tag: byte(col.Tag)}
		}
		off += width
	}
	if off != len(payload) && !descriptorHasVarchar(d) {
		return nil, &DescriptorMismatchError{ExpectedLen: off, GotLen: len(payload)}
	}
	return row, nil
}

func descriptorHasVarchar(d Descriptor) bool {
	return len(d) > 0 && d[len(d)-1].Tag == TagVarchar
}
