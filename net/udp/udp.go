package udp

import (
	"errors"
	"fmt"
	"net"

	"github.com/libp2p/go-reuseport"
)

var (
	errUnexpectedConnType = errors.New("unexpected connection type")
)

// Listen opens a UDP/IPv4 socket. With localPort 0 the OS assigns an
// ephemeral port; otherwise the socket is bound to localPort on all
// interfaces with SO_REUSEPORT, so the probe can share the well-known
// SNTP port with a local time service.
func Listen(localPort uint16) (*net.UDPConn, error) {
	if localPort == 0 {
		return net.ListenUDP("udp4", &net.UDPAddr{})
	}
	pconn, err := reuseport.ListenPacket("udp4", fmt.Sprintf(":%d", localPort))
	if err != nil {
		return nil, err
	}
	conn, ok := pconn.(*net.UDPConn)
	if !ok {
		pconn.Close()
		return nil, errUnexpectedConnType
	}
	return conn, nil
}
