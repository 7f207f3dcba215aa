package sntp_test

import (
	"testing"

	"github.com/eel3/sntpsend/net/sntp"
)

func TestDescribeLeapIndicator(t *testing.T) {
	vs := []struct {
		li   uint8
		want string
	}{
		{0, "no warning"},
		{1, "last minute has 61 seconds"},
		{2, "last minute has 59 seconds"},
		{3, "alarm condition (clock not synchronized)"},
	}
	for _, v := range vs {
		if got := sntp.DescribeLeapIndicator(v.li); got != v.want {
			t.Errorf("DescribeLeapIndicator(%d) = %q, want %q", v.li, got, v.want)
		}
	}
}

func TestDescribeMode(t *testing.T) {
	vs := []struct {
		mode uint8
		want string
	}{
		{0, "reserved"},
		{1, "symmetric active"},
		{2, "symmetric passive"},
		{3, "client"},
		{4, "server"},
		{5, "broadcast"},
		{6, "reserved for NTP control message"},
		{7, "reserved for private use"},
	}
	for _, v := range vs {
		if got := sntp.DescribeMode(v.mode); got != v.want {
			t.Errorf("DescribeMode(%d) = %q, want %q", v.mode, got, v.want)
		}
	}
}

func TestDescribeStratum(t *testing.T) {
	vs := []struct {
		stratum uint8
		want    string
	}{
		{0, "kiss-o'-death message"},
		{1, "primary reference"},
		{2, "secondary reference"},
		{15, "secondary reference"},
		{16, "clock not synchronized"},
		{17, "reserved"},
		{255, "reserved"},
	}
	for _, v := range vs {
		if got := sntp.DescribeStratum(v.stratum); got != v.want {
			t.Errorf("DescribeStratum(%d) = %q, want %q", v.stratum, got, v.want)
		}
	}
}

func TestDescribeReferenceID(t *testing.T) {
	// "GPS\0", a typical primary reference source code
	const refID = uint32(0x47505300)

	if got := sntp.DescribeReferenceID(refID, 1); got != "GPS" {
		t.Errorf("stratum 1 reference ID must render as a code, got %q", got)
	}
	if got := sntp.DescribeReferenceID(refID, 2); got != "71.80.83.0" {
		t.Errorf("stratum 2 reference ID must render as an IPv4 address, got %q", got)
	}

	// "RATE", a kiss code
	if got := sntp.DescribeReferenceID(0x52415445, 0); got != "RATE" {
		t.Errorf("kiss-o'-death reference ID must render as a code, got %q", got)
	}
	if got := sntp.DescribeReferenceID(0x7f000001, 3); got != "127.0.0.1" {
		t.Errorf("secondary reference ID must render as an IPv4 address, got %q", got)
	}
}
