package shared

import "bytes"

// PadCouponID stores id in a fixed 10 byte, space padded field.
func PadCouponID(id string) ([CouponIDLength]byte, error) {
	var out [CouponIDLength]byte
	if err := padInto(out[:], id, len(id) > CouponIDLength); err != nil {
		return out, err
	}
	return out, nil
}

// PadRecordID stores id in a fixed 20 byte, space padded field. Token,
// tracker and vote ids must stay strictly shorter than the field.
func PadRecordID(id string) ([RecordIDLength]byte, error) {
	var out [RecordIDLength]byte
	if err := padInto(out[:], id, len(id) >= RecordIDLength); err != nil {
		return out, err
	}
	return out, nil
}

func padInto(dst []byte, id string, tooLong bool) error {
	if id == "" || tooLong {
		return ErrInvalidIdLength
	}
	for i := range dst {
		dst[i] = ' '
	}
	copy(dst, id)
	return nil
}

// TrimID returns the id stored in a space padded field.
func TrimID(b []byte) string {
	return string(bytes.TrimRight(b, " "))
}
