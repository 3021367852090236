package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNSDiagnosis explains why a hostname did or did not resolve. It is
// attached to down-transition logging when a probe fails at the
// transport level, so operators can tell a dead DNS record from a dead
// server.
type DNSDiagnosis struct {
	Host  string
	Class string // "NXDOMAIN" | "NO_A_RECORD" | "RESOLVES" | "SERVFAIL_or_TIMEOUT" | "INVALID_NAME"
	Addrs []string
	Err   string
}

var dnsTimeout = 3 * time.Second

// DiagnoseDNS resolves the host of rawURL and classifies the result.
func DiagnoseDNS(rawURL string) DNSDiagnosis {
	d := DNSDiagnosis{Host: hostFromURL(rawURL)}
	if d.Host == "" {
		d.Class = "INVALID_NAME"
		return d
	}

	ctx, cancel := context.WithTimeout(context.Background(), dnsTimeout)
	defer cancel()
	r := &net.Resolver{} // OS resolver

	ips, err := r.LookupIP(ctx, "ip", d.Host)
	if err == nil && len(ips) > 0 {
		d.Class = "RESOLVES"
		for _, ip := range ips {
			d.Addrs = append(d.Addrs, ip.String())
		}
		return d
	}

	if err != nil {
		d.Err = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			switch {
			case de.IsNotFound:
				// The zone may still exist without address records.
				if ns, nsErr := r.LookupNS(ctx, d.Host); nsErr == nil && len(ns) > 0 {
					d.Class = "NO_A_RECORD"
				} else {
					d.Class = "NXDOMAIN"
				}
				return d
			case de.IsTemporary || de.Timeout():
				d.Class = "SERVFAIL_or_TIMEOUT"
				return d
			}
		}
	}
	d.Class = "SERVFAIL_or_TIMEOUT"
	return d
}

// hostFromURL pulls the bare hostname out of a URL, tolerating inputs
// that are already bare hostnames.
func hostFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	if strings.Contains(raw, "://") {
		return ""
	}
	return raw
}
