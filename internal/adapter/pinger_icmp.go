package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const protocolICMP = 1

// ICMPPinger sends ICMP echo requests using golang.org/x/net/icmp. It prefers
// an unprivileged datagram socket and falls back to a raw socket, which
// needs CAP_NET_RAW. Each probe owns its socket.
type ICMPPinger struct {
	id  int
	seq atomic.Uint32
}

func NewICMPPinger() *ICMPPinger {
	return &ICMPPinger{id: os.Getpid() & 0xffff}
}

// Ping sends one echo request and waits for the matching reply
func (p *ICMPPinger) Ping(ctx context.Context, addr netip.Addr, timeout time.Duration) (bool, error) {
	if !addr.Is4() {
		return false, fmt.Errorf("not an IPv4 address: %s", addr)
	}

	conn, privileged, err := listenICMP()
	if err != nil {
		return false, err
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return false, fmt.Errorf("set deadline: %w", err)
	}

	seq := int(p.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: []byte("devicectl")},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return false, fmt.Errorf("marshal echo: %w", err)
	}

	var dst net.Addr = &net.UDPAddr{IP: addr.AsSlice()}
	if privileged {
		dst = &net.IPAddr{IP: addr.AsSlice()}
	}
	if _, err := conn.WriteTo(wb, dst); err != nil {
		return false, fmt.Errorf("send echo: %w", err)
	}

	rb := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return false, nil
			}
			return false, fmt.Errorf("read reply: %w", err)
		}

		if peerAddr(peer) != addr {
			continue
		}

		reply, err := icmp.ParseMessage(protocolICMP, rb[:n])
		if err != nil || reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || echo.Seq != seq {
			continue
		}
		// the kernel rewrites the identifier on datagram sockets
		if privileged && echo.ID != p.id {
			continue
		}
		return true, nil
	}
}

func listenICMP() (*icmp.PacketConn, bool, error) {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err == nil {
		return conn, false, nil
	}

	conn, rawErr := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if rawErr != nil {
		return nil, false, fmt.Errorf("open icmp socket: %w", errors.Join(err, rawErr))
	}
	return conn, true, nil
}

func peerAddr(a net.Addr) netip.Addr {
	var ip net.IP
	switch v := a.(type) {
	case *net.UDPAddr:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	default:
		return netip.Addr{}
	}
	addr, _ := netip.AddrFromSlice(ip)
	return addr.Unmap()
}
