// Command arptest checks whether an IPv4 host is alive on a local Ethernet
// segment by sending it a single ARP request.
//
// On a matching reply it prints the responder's MAC address and exits 0.
// It exits 1 when no reply arrives in time, 2 on bad arguments and 3 on
// system errors.
package main

import (
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mdlayher/arptest"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

// Exit codes.
const (
	exitFound    = 0
	exitNotFound = 1
	exitArgs     = 2
	exitSystem   = 3
)

func main() {
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		lookup: arptest.InterfaceByName,
		listen: arptest.Listen,
	}

	os.Exit(a.run(os.Args[0], os.Args[1:]))
}

// An app is the arptest command with its collaborators, which tests
// replace.
type app struct {
	stdout io.Writer
	stderr io.Writer
	lookup func(name string) (*net.Interface, error)
	listen func(ifi *net.Interface) (*arptest.Conn, error)
}

// config is the validated command line.
type config struct {
	iface   string
	ip      netip.Addr
	timeout time.Duration
	verbose bool
}

// run executes the command with args and returns its exit code.
func (a *app) run(prog string, args []string) int {
	cfg, ok := a.parse(prog, args)
	if !ok {
		return exitArgs
	}

	var logger log.Logger
	logger = log.NewLogfmtLogger(log.NewSyncWriter(a.stderr))
	if cfg.verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	ifi, err := a.lookup(cfg.iface)
	if err != nil {
		level.Error(logger).Log("msg", "invalid interface", "interface", cfg.iface, "op", "lookup", "err", err)
		return exitSystem
	}

	c, err := a.listen(ifi)
	if err != nil {
		switch {
		case errors.Is(err, arptest.ErrNoHardwareAddr):
			level.Error(logger).Log("msg", "interface has no link-layer address", "interface", cfg.iface, "op", "getsockname")
		case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
			level.Error(logger).Log("msg", "check this program has sufficient privileges", "interface", cfg.iface, "op", "socket", "err", err)
		default:
			level.Error(logger).Log("msg", "failed to open link-layer socket", "interface", cfg.iface, "op", "socket", "err", err)
		}
		return exitSystem
	}
	defer c.Close()

	mac, err := arptest.Probe(c, cfg.ip, cfg.timeout, &arptest.ProbeConfig{
		Logger: log.With(logger, "interface", cfg.iface),
	})
	switch {
	case err == nil:
	case errors.Is(err, arptest.ErrNotFound):
		return exitNotFound
	default:
		level.Error(logger).Log("msg", "probe failed", "interface", cfg.iface, "op", "probe", "err", err)
		return exitSystem
	}

	fmt.Fprintln(a.stdout, formatMAC(mac))
	return exitFound
}

// parse validates the command line, reporting problems and usage on
// a.stderr.
func (a *app) parse(prog string, args []string) (config, bool) {
	fs := pflag.NewFlagSet(prog, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() { usage(a.stderr, prog) }

	timeout := fs.StringP("timeout", "w", "1", "probe timeout in whole seconds")
	verbose := fs.BoolP("verbose", "v", false, "log ignored frames to standard error")

	if err := fs.Parse(args); err != nil {
		if err != pflag.ErrHelp {
			fmt.Fprintln(a.stderr, err)
			usage(a.stderr, prog)
		}
		return config{}, false
	}

	secs, err := strconv.Atoi(*timeout)
	if err != nil || secs < 1 {
		fmt.Fprintf(a.stderr, "Invalid timeout '%s'\n", *timeout)
		return config{}, false
	}

	if fs.NArg() != 2 {
		usage(a.stderr, prog)
		return config{}, false
	}

	ip, err := netip.ParseAddr(fs.Arg(1))
	if err != nil || !ip.Is4() {
		fmt.Fprintf(a.stderr, "Invalid IP address %s\n", fs.Arg(1))
		usage(a.stderr, prog)
		return config{}, false
	}

	return config{
		iface:   fs.Arg(0),
		ip:      ip,
		timeout: time.Duration(secs) * time.Second,
		verbose: *verbose,
	}, true
}

func usage(w io.Writer, prog string) {
	fmt.Fprintf(w, `Usage:
  %s [options] iface ipaddr

Options:
  -w timeout: set timeout in seconds
  -v: log ignored frames
`, prog)
}

// formatMAC renders a hardware address as upper-case, colon-separated hex.
func formatMAC(mac net.HardwareAddr) string {
	if len(mac) != 6 {
		return fmt.Sprintf("%X", []byte(mac))
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])
}
