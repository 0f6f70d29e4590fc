package adapter

import (
	"context"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const procARP = `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         a4:91:b1:0c:22:10     *        eth0
192.168.1.10     0x1         0x2         00:1b:54:aa:bb:cc     *        eth0
192.168.1.11     0x1         0x0         00:00:00:00:00:00     *        eth0
192.168.1.100    0x1         0x2         b8:27:eb:01:02:03     *        eth0
`

func TestParseProcARP(t *testing.T) {
	assert.Equal(t, "00:1B:54:AA:BB:CC", parseProcARP([]byte(procARP), "192.168.1.10"))
	assert.Equal(t, "B8:27:EB:01:02:03", parseProcARP([]byte(procARP), "192.168.1.100"))
	assert.Empty(t, parseProcARP([]byte(procARP), "192.168.1.11"), "incomplete entry")
	assert.Empty(t, parseProcARP([]byte(procARP), "192.168.1.99"), "missing entry")
	assert.Empty(t, parseProcARP([]byte(procARP), "192.168.1.1000"))
}

func TestParseARPCommand(t *testing.T) {
	bsd := "? (192.168.1.20) at 0:1b:54:a:bb:cc on en0 ifscope [ethernet]\n"
	assert.Equal(t, "00:1B:54:0A:BB:CC", parseARPCommand([]byte(bsd), "192.168.1.20"))

	netTools := "Address                  HWtype  HWaddress           Flags Mask            Iface\n" +
		"192.168.1.30             ether   f0:9f:c2:11:22:33   C                     eth0\n"
	assert.Equal(t, "F0:9F:C2:11:22:33", parseARPCommand([]byte(netTools), "192.168.1.30"))

	incomplete := "? (192.168.1.40) at (incomplete) on en0 ifscope [ethernet]\n"
	assert.Empty(t, parseARPCommand([]byte(incomplete), "192.168.1.40"))
}

func TestNormalizeMAC(t *testing.T) {
	tests := map[string]string{
		"aa:bb:cc:dd:ee:ff": "AA:BB:CC:DD:EE:FF",
		"AA-BB-CC-DD-EE-FF": "AA:BB:CC:DD:EE:FF",
		"a:b:c:d:e:f":       "0A:0B:0C:0D:0E:0F",
		"not-a-mac":         "",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeMAC(in), in)
	}
}

func TestARPTableLookupFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp")
	require.NoError(t, os.WriteFile(path, []byte(procARP), 0644))

	table := NewARPTable(path)

	mac, err := table.Lookup(context.Background(), netip.MustParseAddr("192.168.1.1"))
	require.NoError(t, err)
	assert.Equal(t, "A4:91:B1:0C:22:10", mac)

	mac, err = table.Lookup(context.Background(), netip.MustParseAddr("192.168.1.200"))
	require.NoError(t, err)
	assert.Empty(t, mac)
}

func TestARPTableFallbackCommandFailure(t *testing.T) {
	table := NewARPTable(filepath.Join(t.TempDir(), "missing"))
	table.arpCmd = filepath.Join(t.TempDir(), "no-such-arp")

	_, err := table.Lookup(context.Background(), netip.MustParseAddr("192.168.1.1"))
	assert.Error(t, err)
}
