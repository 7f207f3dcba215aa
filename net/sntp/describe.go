package sntp

import (
	"fmt"
	"net/netip"
	"strings"
	"unicode"
)

func DescribeLeapIndicator(li uint8) string {
	switch li {
	case LeapIndicatorNoWarning:
		return "no warning"
	case LeapIndicatorInsertSecond:
		return "last minute has 61 seconds"
	case LeapIndicatorDeleteSecond:
		return "last minute has 59 seconds"
	case LeapIndicatorUnknown:
		return "alarm condition (clock not synchronized)"
	}
	panic("unexpected SNTP leap indicator value")
}

func DescribeMode(m uint8) string {
	switch m {
	case ModeReserved0:
		return "reserved"
	case ModeSymmetricActive:
		return "symmetric active"
	case ModeSymmetricPassive:
		return "symmetric passive"
	case ModeClient:
		return "client"
	case ModeServer:
		return "server"
	case ModeBroadcast:
		return "broadcast"
	case ModeControl:
		return "reserved for NTP control message"
	case ModeReserved7:
		return "reserved for private use"
	}
	panic("unexpected SNTP mode value")
}

func DescribeStratum(stratum uint8) string {
	switch {
	case stratum == 0:
		return "kiss-o'-death message"
	case stratum == 1:
		return "primary reference"
	case stratum <= 15:
		return "secondary reference"
	case stratum == 16:
		return "clock not synchronized"
	default:
		return "reserved"
	}
}

// DescribeReferenceID renders the reference identifier as a 4-byte code
// for kiss-o'-death and primary reference replies, and as a dotted-decimal
// IPv4 address otherwise.
func DescribeReferenceID(refID uint32, stratum uint8) string {
	b := [4]byte{byte(refID >> 24), byte(refID >> 16), byte(refID >> 8), byte(refID)}
	if stratum > 1 {
		return netip.AddrFrom4(b).String()
	}
	var sb strings.Builder
	for _, c := range b {
		if c <= unicode.MaxASCII && unicode.IsPrint(rune(c)) {
			sb.WriteByte(c)
		}
	}
	if sb.Len() == 0 {
		return fmt.Sprintf("0x%08x", refID)
	}
	return sb.String()
}
