// Package binio holds the raw binary primitives shared by the model readers:
// length-prefixed blob files and int32 streams whose byte order is resolved
// once from a magic number.
package binio

import "encoding/binary"

// Order is the byte order of a file relative to the host.
type Order int

const (
	// Native means the file was written on a host with our byte order.
	Native Order = iota
	// Swapped means every multi-byte field must be byte-swapped.
	Swapped
)

func (o Order) String() string {
	if o == Swapped {
		return "swapped"
	}
	return "native"
}

var swappedOrder binary.ByteOrder

func init() {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		swappedOrder = binary.BigEndian
	} else {
		swappedOrder = binary.LittleEndian
	}
}

// ByteOrder returns the encoding/binary order that decodes a file of order o.
func (o Order) ByteOrder() binary.ByteOrder {
	if o == Swapped {
		return swappedOrder
	}
	return binary.NativeEndian
}

// DetectOrder interprets b as magic in both byte orders.
// ok is false when neither interpretation matches.
func DetectOrder(b [4]byte, magic int32) (o Order, ok bool) {
	if int32(binary.NativeEndian.Uint32(b[:])) == magic {
		return Native, true
	}
	if int32(swappedOrder.Uint32(b[:])) == magic {
		return Swapped, true
	}
	return Native, false
}

// HostBigEndian reports whether the host stores integers big-endian.
func HostBigEndian() bool {
	return swappedOrder == binary.LittleEndian
}
