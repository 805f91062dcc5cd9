// Package sourcemap generates Source Map v3 documents for rewritten modules.
package sourcemap

import "strings"

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values [128]int

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i, c := range base64Alphabet {
		base64Values[c] = i
	}
}

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
	vlqSignBit         = 1
)

// EncodeVLQ encodes a signed integer as a base64 VLQ string.
func EncodeVLQ(value int) string {
	var buf strings.Builder

	var vlq uint32
	if value < 0 {
		vlq = uint32((-value)<<1) | vlqSignBit
	} else {
		vlq = uint32(value << 1)
	}

	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift
		if vlq > 0 {
			digit |= vlqContinuationBit
		}
		buf.WriteByte(base64Alphabet[digit])
		if vlq == 0 {
			break
		}
	}

	return buf.String()
}

// DecodeVLQ decodes one base64 VLQ value and returns it with the number of
// bytes consumed. Invalid or truncated input yields (0, 0).
func DecodeVLQ(input string) (int, int) {
	var vlq, shift uint32

	for i := 0; i < len(input); i++ {
		c := input[i]
		if c >= 128 || base64Values[c] < 0 {
			return 0, 0
		}

		digit := base64Values[c]
		continuation := digit&vlqContinuationBit != 0
		vlq |= uint32(digit&vlqBaseMask) << shift
		shift += vlqBaseShift

		if !continuation {
			negative := vlq&vlqSignBit != 0
			vlq >>= 1
			if negative {
				return -int(vlq), i + 1
			}
			return int(vlq), i + 1
		}
	}

	return 0, 0
}
