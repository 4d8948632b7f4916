package frame

import "encoding/binary"

// EncodeLength returns the little-endian encoding of n.
func EncodeLength(n uint32) [LengthLength]byte {
	var b [LengthLength]byte
	PutLength(b[:], n)
	return b
}

// PutLength writes the little-endian encoding of n into the first four
// bytes of b.
func PutLength(b []byte, n uint32) {
	binary.LittleEndian.PutUint32(b, n)
}

// DecodeLength reads a little-endian length starting at offset.
func DecodeLength(b []byte, offset int) (uint32, error) {
	if offset < 0 || len(b)-offset < LengthLength {
		return 0, &InvalidDataError{
			Msg:  "truncated length field",
			Data: b,
		}
	}
	return binary.LittleEndian.Uint32(b[offset : offset+LengthLength]), nil
}
