package adapter

import (
	"encoding/binary"
	"fmt"
	"iter"
	"net/netip"
)

// HostRange returns the first and last usable host addresses of an IPv4
// prefix. /31 and /32 have no network or broadcast address to exclude.
func HostRange(prefix netip.Prefix) (first, last netip.Addr, err error) {
	if !prefix.IsValid() || !prefix.Addr().Is4() {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("only IPv4 prefixes supported: %s", prefix)
	}

	prefix = prefix.Masked()
	bits := prefix.Bits()

	network := prefix.Addr().As4()
	base := binary.BigEndian.Uint32(network[:])
	broadcast := base | ^uint32(0)>>bits

	lo, hi := base, broadcast
	if bits < 31 {
		lo++
		hi--
	}

	return u32ToAddr(lo), u32ToAddr(hi), nil
}

// HostCount returns the number of usable host addresses in prefix
func HostCount(prefix netip.Prefix) (uint64, error) {
	first, last, err := HostRange(prefix)
	if err != nil {
		return 0, err
	}
	return uint64(addrToU32(last)-addrToU32(first)) + 1, nil
}

// Hosts lazily yields every usable host address in prefix in ascending order
func Hosts(prefix netip.Prefix) iter.Seq[netip.Addr] {
	return func(yield func(netip.Addr) bool) {
		first, last, err := HostRange(prefix)
		if err != nil {
			return
		}
		for addr := first; ; addr = addr.Next() {
			if !yield(addr) || addr == last {
				return
			}
		}
	}
}

func addrToU32(a netip.Addr) uint32 {
	b := a.As4()
	return binary.BigEndian.Uint32(b[:])
}

func u32ToAddr(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}
