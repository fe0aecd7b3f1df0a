package api

import (
	"net"
	"net/http"

	"github.com/trainctl/throttle/internal/command"
)

// privateRanges are the RFC1918 and loopback ranges a request's remote
// address is checked against to decide whether it arrived over the local
// network (spec.md's WebLocal) or the wider web (WebApi). Grounded on the
// teacher's LANGuard CIDR classification, simplified to the two-source
// split this API needs rather than an allow/deny gate.
var privateRanges = mustParseCIDRs([]string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"::1/128",
	"fe80::/10",
})

func mustParseCIDRs(cidrs []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// classifySource derives the CommandSource (WebLocal or WebApi) a request
// should be attributed, based on whether its remote address falls inside a
// private/loopback range.
func classifySource(r *http.Request) command.Source {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return command.WebApi
	}
	for _, n := range privateRanges {
		if n.Contains(ip) {
			return command.WebLocal
		}
	}
	return command.WebApi
}
