package probe

import (
	"fmt"
	"io"

	"github.com/eel3/sntpsend/net/sntp"
)

// WriteReport renders the decoded reply, one line per field, followed by a
// blank line and the round-trip time in milliseconds. Timestamps are in
// NTP-epoch seconds.nanoseconds.
func WriteReport(w io.Writer, res *Result) error {
	pkt := &res.Packet
	var err error
	put := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	put("LI: %s\n", sntp.DescribeLeapIndicator(pkt.LeapIndicator()))
	put("VN: %d\n", pkt.Version())
	put("Mode: %s\n", sntp.DescribeMode(pkt.Mode()))
	put("Stratum: %s\n", sntp.DescribeStratum(pkt.Stratum))
	put("Poll: %d\n", pkt.Poll)
	put("Precision: %d\n", pkt.Precision)
	put("Root-Delay: %.6f\n", pkt.RootDelay.Value())
	put("Root-Dispersion: %.6f\n", pkt.RootDispersion.Value())
	put("Reference-Identifier: %s\n", sntp.DescribeReferenceID(pkt.ReferenceID, pkt.Stratum))
	put("Reference-Timestamp: %s\n", pkt.ReferenceTime)
	put("Originate-Timestamp: %s\n", pkt.OriginTime)
	put("Receive-Timestamp: %s\n", pkt.ReceiveTime)
	put("Transmit-Timestamp: %s\n", pkt.TransmitTime)
	put("Destination-Timestamp: %s\n", sntp.Time64FromTime(res.DestinationTime))
	put("\n")
	put("RTT: %d ms\n", res.RTT.Milliseconds())
	return err
}
