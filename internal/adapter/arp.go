package adapter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/netip"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

var macPattern = regexp.MustCompile(`(?i)\b([0-9a-f]{1,2}[:-]){5}[0-9a-f]{1,2}\b`)

// ARPTable looks up hardware addresses in the kernel neighbour cache. It
// reads the Linux procfs table and falls back to `arp -n` elsewhere.
type ARPTable struct {
	path   string
	arpCmd string
}

// NewARPTable reads from path (normally /proc/net/arp)
func NewARPTable(path string) *ARPTable {
	return &ARPTable{path: path, arpCmd: "arp"}
}

// Lookup returns the upper-cased MAC for ip, or "" when the cache has no
// complete entry
func (t *ARPTable) Lookup(ctx context.Context, ip netip.Addr) (string, error) {
	data, err := os.ReadFile(t.path)
	if err == nil {
		return parseProcARP(data, ip.String()), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", t.path, err)
	}

	out, err := exec.CommandContext(ctx, t.arpCmd, "-n", ip.String()).Output()
	if err != nil {
		return "", fmt.Errorf("%s -n %s: %w", t.arpCmd, ip, err)
	}
	return parseARPCommand(out, ip.String()), nil
}

// parseProcARP scans /proc/net/arp:
//
//	IP address       HW type     Flags       HW address            Mask     Device
//	192.168.1.1      0x1         0x2         aa:bb:cc:dd:ee:ff     *        eth0
func parseProcARP(data []byte, ip string) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != ip {
			continue
		}
		// Skip incomplete entries
		if mac := normalizeMAC(fields[3]); mac != "" && mac != "00:00:00:00:00:00" {
			return mac
		}
	}
	return ""
}

// parseARPCommand handles the BSD and net-tools variants of `arp -n`
func parseARPCommand(out []byte, ip string) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, ip) {
			continue
		}
		if m := macPattern.FindString(line); m != "" {
			if mac := normalizeMAC(m); mac != "00:00:00:00:00:00" {
				return mac
			}
		}
	}
	return ""
}

// normalizeMAC pads octets and returns AA:BB:CC:DD:EE:FF, or "" if s is not
// a 48-bit hardware address
func normalizeMAC(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) == 6 {
		for i, p := range parts {
			if len(p) == 1 {
				parts[i] = "0" + p
			}
		}
		s = strings.Join(parts, ":")
	}

	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != 6 {
		return ""
	}
	return strings.ToUpper(hw.String())
}
