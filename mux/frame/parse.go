package frame

import "fmt"

// Parse decodes one complete frame. Payloads are copied out of raw so the
// caller may reuse its buffer.
func Parse(raw []byte, f Framing) (Message, error) {
	if len(raw) < HeaderLength {
		return nil, &InvalidDataError{
			Msg:  fmt.Sprintf("frame of %d bytes is shorter than the header", len(raw)),
			Data: raw,
		}
	}

	ch := raw[0]
	kind := Kind(raw[1])
	if !kind.Valid() {
		return nil, &InvalidDataError{
			Msg:  fmt.Sprintf("unknown message kind %d for channel %d", raw[1], ch),
			Data: raw,
		}
	}

	if !f.HasPayload(kind) {
		switch kind {
		case KindNew:
			return NewMessage{ChannelID: ch}, nil
		case KindAccept:
			return AcceptMessage{ChannelID: ch}, nil
		default:
			return CloseMessage{ChannelID: ch}, nil
		}
	}

	length, err := DecodeLength(raw, HeaderLength)
	if err != nil {
		return nil, &InvalidDataError{
			Msg:  fmt.Sprintf("%s frame for channel %d has no length field", kind, ch),
			Data: raw,
		}
	}
	available := len(raw) - HeaderLength - LengthLength
	if uint64(length) > uint64(available) {
		return nil, &InvalidDataError{
			Msg:  fmt.Sprintf("%s frame for channel %d declares %d bytes but %d are available", kind, ch, length, available),
			Data: raw,
		}
	}

	offset := HeaderLength + LengthLength
	payload := make([]byte, length)
	copy(payload, raw[offset:offset+int(length)])

	switch kind {
	case KindData:
		return DataMessage{ChannelID: ch, Data: payload}, nil
	case KindRefused:
		return RefusedMessage{ChannelID: ch, Reason: string(payload)}, nil
	default:
		if length == 0 {
			payload = nil
		}
		return NewMessage{ChannelID: ch, Payload: payload}, nil
	}
}
