// sntpsend sends a single SNTP request and prints the decoded reply.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/HdrHistogram/hdrhistogram-go"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eel3/sntpsend/base/zaplog"

	"github.com/eel3/sntpsend/core/config"
	"github.com/eel3/sntpsend/core/probe"
	"github.com/eel3/sntpsend/core/timebase"

	"github.com/eel3/sntpsend/driver/clock"

	"github.com/eel3/sntpsend/net/sntp"
)

const (
	defaultTimeout = 10

	usage = `Usage: sntpsend -host <FQDN|IPv4> [options]

Send a single SNTP (RFC 2030) request and print the decoded reply plus the
measured round-trip time. The system clock is not adjusted.

Options:
  -host <FQDN|IPv4>     SNTP server to query (required)
  -b, -bind-sntp-port   Bind the local SNTP port (123) instead of an
                        ephemeral port
  -port <1-65535>       Server port (default 123)
  -timeout <seconds>    Receive timeout budget, whole seconds >= 1 (default 10)
  -verbose              Verbose logging
  -help                 Show this help
`
)

var (
	errNoIPv4Address = errors.New("no IPv4 address")
)

func initLogger(verbose bool) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	l, err := c.Build()
	if err != nil {
		panic(err)
	}
	zaplog.SetLogger(l)
}

func exitWithUsage() {
	fmt.Print(usage)
	os.Exit(1)
}

func resolveIPv4(host string) (net.IP, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, errNoIPv4Address
}

func main() {
	var (
		host         string
		bindSNTPPort bool
		port         int
		timeout      int
		verbose      bool
	)

	flags := flag.NewFlagSet("sntpsend", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&host, "host", "", "SNTP server to query")
	flags.BoolVar(&bindSNTPPort, "bind-sntp-port", false, "Bind the local SNTP port")
	flags.BoolVar(&bindSNTPPort, "b", false, "Bind the local SNTP port")
	flags.IntVar(&port, "port", sntp.ServerPort, "Server port")
	flags.IntVar(&timeout, "timeout", defaultTimeout, "Receive timeout budget in seconds")
	flags.BoolVar(&verbose, "verbose", false, "Verbose logging")

	err := flags.Parse(os.Args[1:])
	if err != nil || flags.NArg() != 0 || host == "" {
		exitWithUsage()
	}
	if port < 1 || port > 65535 {
		fmt.Fprintf(os.Stderr, "port out of range 1-65535: %d\n", port)
		os.Exit(1)
	}
	if timeout < 1 {
		fmt.Fprintf(os.Stderr, "timeout must be at least 1 second: %d\n", timeout)
		os.Exit(1)
	}

	initLogger(verbose)

	ip, err := resolveIPv4(host)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown host: %s\n", host)
		os.Exit(1)
	}

	lclk := &clock.SystemClock{}
	timebase.RegisterClock(lclk)

	p := &probe.Probe{
		RemoteAddr:     &net.UDPAddr{IP: ip, Port: port},
		BindSNTPPort:   bindSNTPPort,
		TimeoutSeconds: timeout,
		DSCP:           config.DSCP,
	}
	if verbose {
		p.Histo = hdrhistogram.New(1, int64(timeout)*1_000_000, 3)
	}

	os.Exit(runProbe(os.Stdout, os.Stderr, zaplog.Logger(), p))
}

// runProbe performs the exchange and emits the report or the timeout
// notice, returning the process exit code. A receive timeout is not a
// process failure: the notice goes to ew and the exit code stays 0.
func runProbe(w, ew io.Writer, log *zap.Logger, p *probe.Probe) int {
	res, err := p.Run(log)
	if err != nil {
		if errors.Is(err, probe.ErrTimeout) {
			fmt.Fprintln(ew, "receive timeout")
			return 0
		}
		log.Error("failed to complete exchange", zap.Error(err))
		return 1
	}
	if p.Histo != nil {
		log.Debug("round trip delay recorded",
			zap.Int64("count", p.Histo.TotalCount()),
			zap.Int64("max_us", p.Histo.Max()),
		)
	}
	err = probe.WriteReport(w, &res)
	if err != nil {
		log.Error("failed to write report", zap.Error(err))
		return 1
	}
	return 0
}
