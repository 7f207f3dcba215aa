package probe

import (
	"errors"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"go.uber.org/zap"

	"github.com/eel3/sntpsend/core/timebase"
	"github.com/eel3/sntpsend/net/sntp"
	"github.com/eel3/sntpsend/net/udp"
)

// readCapLen leaves room beyond the expected packet so oversize replies
// are detected instead of silently truncated to a valid length.
const readCapLen = 68

var (
	errWrite = errors.New("failed to write packet")

	// ErrTimeout marks budget exhaustion without a valid reply. It is not
	// a fatal condition for the process; callers report it separately.
	ErrTimeout = errors.New("receive timeout")
)

// Probe holds the configuration for a single request/response exchange.
type Probe struct {
	RemoteAddr     *net.UDPAddr
	BindSNTPPort   bool
	TimeoutSeconds int
	DSCP           uint8
	Histo          *hdrhistogram.Histogram
}

// Result carries the accepted reply, the local clock sample taken when it
// was accepted, and the round-trip delay derived from the exchange.
type Result struct {
	Packet          sntp.Packet
	DestinationTime time.Time
	RTT             time.Duration
}

func compareAddrs(x, y netip.Addr) int {
	return x.Unmap().Compare(y.Unmap())
}

// Run performs one exchange: send the request, then read with one-second
// deadline slices until the first valid reply or until the timeout budget
// is exhausted. Datagrams from the wrong peer, with the wrong length, or
// not echoing the request's transmit timestamp are discarded and the wait
// continues within the remaining budget.
func (p *Probe) Run(log *zap.Logger) (Result, error) {
	if p.TimeoutSeconds < 1 {
		panic("timeout budget must be at least one second")
	}
	mtrcs := probeMetrics.Load()

	var localPort uint16
	if p.BindSNTPPort {
		localPort = sntp.ServerPort
	}
	conn, err := udp.Listen(localPort)
	if err != nil {
		return Result{}, err
	}
	defer conn.Close()
	err = udp.SetDSCP(conn, p.DSCP)
	if err != nil {
		log.Info("failed to set DSCP", zap.Error(err))
	}

	remoteAddrPort := p.RemoteAddr.AddrPort()

	cTxTime := timebase.Now()
	req := sntp.RequestPacket(cTxTime)
	buf := make([]byte, sntp.PacketLen, readCapLen)
	sntp.EncodePacket(&buf, &req)

	n, err := conn.WriteToUDPAddrPort(buf, remoteAddrPort)
	if err != nil {
		return Result{}, err
	}
	if n != len(buf) {
		return Result{}, errWrite
	}
	mtrcs.reqsSent.Inc()
	log.Debug("sent request",
		zap.Time("at", cTxTime),
		zap.Stringer("to", remoteAddrPort),
	)

	deadline := cTxTime.Add(time.Duration(p.TimeoutSeconds) * time.Second)
	for {
		slice := timebase.Now().Add(time.Second)
		if slice.After(deadline) {
			slice = deadline
		}
		err = conn.SetReadDeadline(slice)
		if err != nil {
			return Result{}, err
		}
		buf = buf[:cap(buf)]
		n, _, flags, srcAddr, err := conn.ReadMsgUDPAddrPort(buf, nil)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				if timebase.Now().Before(deadline) {
					continue
				}
				mtrcs.timeouts.Inc()
				return Result{}, ErrTimeout
			}
			return Result{}, err
		}
		cRxTime := timebase.Now()
		mtrcs.pktsReceived.Inc()

		if flags != 0 {
			log.Info("received packet with unexpected flags", zap.Int("flags", flags))
			mtrcs.pktsDiscarded.Inc()
			continue
		}
		if compareAddrs(srcAddr.Addr(), remoteAddrPort.Addr()) != 0 ||
			srcAddr.Port() != remoteAddrPort.Port() {
			log.Debug("received packet from unexpected source", zap.Stringer("from", srcAddr))
			mtrcs.pktsDiscarded.Inc()
			continue
		}
		if n != sntp.PacketLen {
			log.Debug("received packet with unexpected length", zap.Int("len", n))
			mtrcs.pktsDiscarded.Inc()
			continue
		}

		var resp sntp.Packet
		err = sntp.DecodePacket(&resp, buf[:n])
		if err != nil {
			log.Debug("failed to decode packet payload", zap.Error(err))
			mtrcs.pktsDiscarded.Inc()
			continue
		}
		if resp.OriginTime != req.TransmitTime {
			log.Debug("received packet with unexpected origin timestamp")
			mtrcs.pktsDiscarded.Inc()
			continue
		}
		err = sntp.ValidateResponseMetadata(&resp)
		if err != nil {
			log.Info("response metadata is unusual", zap.Error(err))
		}
		mtrcs.respsAccepted.Inc()

		t0 := sntp.TimeFromTime64(resp.OriginTime, cRxTime)
		t1 := sntp.TimeFromTime64(resp.ReceiveTime, cRxTime)
		t2 := sntp.TimeFromTime64(resp.TransmitTime, cRxTime)
		t3 := cRxTime
		off := sntp.ClockOffset(t0, t1, t2, t3)
		rtd := sntp.RoundTripDelay(t0, t1, t2, t3)

		log.Debug("received response",
			zap.Time("at", cRxTime),
			zap.Stringer("from", srcAddr),
			zap.Object("data", sntp.PacketMarshaler{Pkt: &resp}),
			zap.Duration("clock offset", off),
			zap.Duration("round trip delay", rtd),
		)

		if p.Histo != nil {
			_ = p.Histo.RecordValue(rtd.Microseconds())
		}

		return Result{
			Packet:          resp,
			DestinationTime: cRxTime,
			RTT:             rtd,
		}, nil
	}
}
