package udp

import (
	"net"

	"golang.org/x/sys/unix"
)

func SetDSCP(conn *net.UDPConn, dscp uint8) error {
	sconn, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var res struct {
		err error
	}
	err = sconn.Control(func(fd uintptr) {
		res.err = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS, int(dscp)<<2)
	})
	if err != nil {
		return err
	}
	return res.err
}
