package sntp

import (
	"errors"
)

var (
	errUnexpectedResponse = errors.New("unexpected response structure")
)

// ValidateResponseMetadata reports whether a reply looks like a normal
// answer from a synchronized server. A failure is advisory: kiss-o'-death
// and unsynchronized replies are still decodable and reportable.
func ValidateResponseMetadata(resp *Packet) error {
	if resp.LeapIndicator() == LeapIndicatorUnknown {
		return errUnexpectedResponse
	}
	if resp.Version() != 3 && resp.Version() != 4 {
		return errUnexpectedResponse
	}
	if resp.Mode() != ModeServer {
		return errUnexpectedResponse
	}
	if resp.Stratum == 0 || resp.Stratum > 15 {
		return errUnexpectedResponse
	}
	return nil
}
