package probe_test

import (
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"go.uber.org/zap"

	"github.com/eel3/sntpsend/core/probe"
	"github.com/eel3/sntpsend/core/timebase"
	"github.com/eel3/sntpsend/driver/clock"
	"github.com/eel3/sntpsend/net/sntp"
)

func init() {
	lclk := &clock.SystemClock{}
	timebase.RegisterClock(lclk)
}

func startServer(t *testing.T) (*net.UDPConn, *net.UDPAddr) {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().(*net.UDPAddr)
}

func readRequest(t *testing.T, conn *net.UDPConn) (sntp.Packet, netip.AddrPort) {
	t.Helper()
	err := conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err != nil {
		t.Error(err)
	}
	buf := make([]byte, 128)
	n, addr, err := conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		t.Error(err)
		return sntp.Packet{}, netip.AddrPort{}
	}
	var req sntp.Packet
	err = sntp.DecodePacket(&req, buf[:n])
	if err != nil {
		t.Error(err)
	}
	return req, addr
}

func makeReply(req *sntp.Packet, stratum uint8) []byte {
	now := timebase.Now()
	resp := sntp.Packet{Stratum: stratum, Poll: 6, Precision: -20}
	resp.SetVersion(sntp.VersionMax)
	resp.SetMode(sntp.ModeServer)
	resp.ReferenceID = 0x47505300 // "GPS\0"
	resp.ReferenceTime = sntp.Time64FromTime(now)
	resp.OriginTime = req.TransmitTime
	resp.ReceiveTime = sntp.Time64FromTime(now)
	resp.TransmitTime = sntp.Time64FromTime(now)
	var buf []byte
	sntp.EncodePacket(&buf, &resp)
	return buf
}

func TestRunAcceptsValidReply(t *testing.T) {
	conn, addr := startServer(t)
	go func() {
		req, client := readRequest(t, conn)
		_, _ = conn.WriteToUDPAddrPort(makeReply(&req, 1), client)
	}()

	p := &probe.Probe{RemoteAddr: addr, TimeoutSeconds: 5}
	res, err := p.Run(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if res.Packet.Stratum != 1 {
		t.Errorf("unexpected stratum: %d", res.Packet.Stratum)
	}
	if res.Packet.Mode() != sntp.ModeServer {
		t.Errorf("unexpected mode: %d", res.Packet.Mode())
	}
	if res.RTT < 0 || res.RTT > time.Second {
		t.Errorf("unexpected round trip delay: %v", res.RTT)
	}
	if res.DestinationTime.IsZero() {
		t.Errorf("destination time must be set")
	}
}

func TestRunDiscardsMismatchedSource(t *testing.T) {
	conn, addr := startServer(t)
	rogue, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer rogue.Close()

	go func() {
		req, client := readRequest(t, conn)
		// valid payload, wrong source port
		_, _ = rogue.WriteToUDPAddrPort(makeReply(&req, 2), client)
		time.Sleep(50 * time.Millisecond)
		_, _ = conn.WriteToUDPAddrPort(makeReply(&req, 1), client)
	}()

	p := &probe.Probe{RemoteAddr: addr, TimeoutSeconds: 5}
	res, err := p.Run(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if res.Packet.Stratum != 1 {
		t.Errorf("reply from the wrong source must be discarded, accepted stratum %d",
			res.Packet.Stratum)
	}
}

func TestRunDiscardsWrongLength(t *testing.T) {
	conn, addr := startServer(t)
	go func() {
		req, client := readRequest(t, conn)
		reply := makeReply(&req, 1)
		_, _ = conn.WriteToUDPAddrPort(reply[:47], client)
		_, _ = conn.WriteToUDPAddrPort(append(append([]byte{}, reply...), 0), client)
		time.Sleep(50 * time.Millisecond)
		_, _ = conn.WriteToUDPAddrPort(reply, client)
	}()

	p := &probe.Probe{RemoteAddr: addr, TimeoutSeconds: 5}
	res, err := p.Run(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if res.Packet.Stratum != 1 {
		t.Errorf("unexpected stratum: %d", res.Packet.Stratum)
	}
}

func TestRunDiscardsUnexpectedOrigin(t *testing.T) {
	conn, addr := startServer(t)
	go func() {
		req, client := readRequest(t, conn)
		stale := req
		stale.TransmitTime = sntp.Time64{}
		_, _ = conn.WriteToUDPAddrPort(makeReply(&stale, 2), client)
		time.Sleep(50 * time.Millisecond)
		_, _ = conn.WriteToUDPAddrPort(makeReply(&req, 1), client)
	}()

	p := &probe.Probe{RemoteAddr: addr, TimeoutSeconds: 5}
	res, err := p.Run(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if res.Packet.Stratum != 1 {
		t.Errorf("reply with a stale origin timestamp must be discarded")
	}
}

func TestRunTimeout(t *testing.T) {
	conn, addr := startServer(t)
	go func() {
		readRequest(t, conn)
	}()

	p := &probe.Probe{RemoteAddr: addr, TimeoutSeconds: 2}
	start := time.Now()
	_, err := p.Run(zap.NewNop())
	elapsed := time.Since(start)

	if !errors.Is(err, probe.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed < 1900*time.Millisecond {
		t.Errorf("timeout reported too early: %v", elapsed)
	}
	if elapsed > 4*time.Second {
		t.Errorf("timeout reported too late: %v", elapsed)
	}
}

func TestRunRecordsRoundTripDelay(t *testing.T) {
	conn, addr := startServer(t)
	go func() {
		req, client := readRequest(t, conn)
		_, _ = conn.WriteToUDPAddrPort(makeReply(&req, 1), client)
	}()

	p := &probe.Probe{
		RemoteAddr:     addr,
		TimeoutSeconds: 5,
		Histo:          hdrhistogram.New(1, 10_000_000, 3),
	}
	_, err := p.Run(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if p.Histo.TotalCount() != 1 {
		t.Errorf("histogram must hold one sample, got %d", p.Histo.TotalCount())
	}
}
