package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOUIDatabaseBuiltin(t *testing.T) {
	db, err := LoadOUIDatabase("", WithRegistrySearch())
	require.NoError(t, err)
	assert.Greater(t, db.Len(), 100)
	assert.Empty(t, db.Registry())

	assert.Equal(t, "Cisco Systems, Inc", db.Lookup("00:1B:54:AA:BB:CC"))
	assert.Equal(t, "Cisco Systems, Inc", db.Lookup("00-1b-54-aa-bb-cc"))
	assert.Equal(t, "Ubiquiti Networks Inc.", db.Lookup("F0:9F:C2:11:22:33"))
	assert.Empty(t, db.Lookup("02:00:00:00:00:01"))
	assert.Empty(t, db.Lookup("Unknown"))
	assert.Empty(t, db.Lookup(""))

	// common endpoints, not just network gear
	assert.Equal(t, "Raspberry Pi Trading Ltd", db.Lookup("D8:3A:DD:01:02:03"))
	assert.Equal(t, "Espressif Inc.", db.Lookup("24:0a:c4:99:88:77"))
	assert.Equal(t, "Apple, Inc.", db.Lookup("A4:5E:60:00:00:01"))
	assert.Equal(t, "PCS Systemtechnik GmbH", db.Lookup("08:00:27:12:34:56"))
}

const ieeeCSV = "\xef\xbb\xbfRegistry,Assignment,Organization Name,Organization Address\n" +
	"MA-L,001B54,\"Cisco Systems, Inc\",80 West Tasman Drive San Jose CA US 94568\n" +
	"MA-L,5CAAFD,\"Sonos, Inc.\",614 Chapala St Santa Barbara CA US 93101\n" +
	"MA-L,FCF152,Sony Corporation,Gotenyama Tokyo JP 141-0001\n" +
	"MA-M,70B3D5F,Too Small Ltd,Somewhere\n"

const ieeeTXT = `OUI/MA-L                                                    Organization
company_id                                                  Organization
                                                            Address

FC-F1-52   (hex)		Sony Corporation
FCF152     (base 16)		Sony Corporation
				Gotenyama Tokyo
				JP

5C-AA-FD   (hex)		Sonos, Inc.
5CAAFD     (base 16)		Sonos, Inc.
				DECADE Road Santa Barbara
`

const nmapPrefixes = `# $Id$ generated by make-mac-prefixes.pl
FCF152 Sony
5CAAFD Sonos
`

const wiresharkManuf = "# manuf - Ethernet vendor codes\n" +
	"FC:F1:52\tSony\tSony Corporation\n" +
	"5C:AA:FD\tSonos\tSonos, Inc.\n" +
	"00:1B:C5:00:00:00/36\tConverg\tConverging Systems Inc.\n" +
	"00:00:0C\tCisco                  # Cisco Systems, Inc\n"

func TestParseRegistryFormats(t *testing.T) {
	tests := []struct {
		name string
		data string
		sony string
		n    int
	}{
		{"ieee csv", ieeeCSV, "Sony Corporation", 3},
		{"ieee txt", ieeeTXT, "Sony Corporation", 2},
		{"nmap", nmapPrefixes, "Sony", 2},
		{"wireshark", wiresharkManuf, "Sony Corporation", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendors := make(map[string]string)
			n, err := parseRegistry([]byte(tt.data), vendors)
			require.NoError(t, err)
			assert.Equal(t, tt.n, n)
			assert.Len(t, vendors, tt.n)
			assert.Equal(t, tt.sony, vendors["FCF152"])
		})
	}

	vendors := make(map[string]string)
	_, err := parseRegistry([]byte(wiresharkManuf), vendors)
	require.NoError(t, err)
	assert.Equal(t, "Cisco Systems, Inc", vendors["00000C"])

	_, err = parseRegistry([]byte("not a registry\n"), map[string]string{})
	assert.Error(t, err)
}

func TestOUIDatabaseRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oui.csv")
	require.NoError(t, os.WriteFile(path, []byte(ieeeCSV), 0644))

	db, err := LoadOUIDatabase("", WithRegistryFile(path))
	require.NoError(t, err)
	assert.Equal(t, path, db.Registry())

	// only in the registry
	assert.Equal(t, "Sony Corporation", db.Lookup("FC:F1:52:00:00:01"))
	// the built-in table still fills gaps
	assert.Equal(t, "Aruba Networks", db.Lookup("00:0B:86:00:00:01"))

	_, err = LoadOUIDatabase("", WithRegistryFile(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Error(t, err)
}

func TestOUIDatabaseRegistrySearch(t *testing.T) {
	dir := t.TempDir()
	damaged := filepath.Join(dir, "manuf")
	require.NoError(t, os.WriteFile(damaged, []byte("garbage\n"), 0644))
	nmapFile := filepath.Join(dir, "nmap-mac-prefixes")
	require.NoError(t, os.WriteFile(nmapFile, []byte(nmapPrefixes), 0644))

	db, err := LoadOUIDatabase("", WithRegistrySearch(
		filepath.Join(dir, "absent.csv"),
		damaged,
		nmapFile,
	))
	require.NoError(t, err)
	assert.Equal(t, nmapFile, db.Registry())
	assert.Equal(t, "Sony", db.Lookup("FC:F1:52:AA:BB:CC"))
}

func TestOUIDatabaseOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oui.yaml")
	content := `vendors:
  "02:00:00": Lab DNS Appliance
  "00:1B:54": Rebadged Switch Co
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	db, err := LoadOUIDatabase(path, WithRegistrySearch())
	require.NoError(t, err)

	assert.Equal(t, "Lab DNS Appliance", db.Lookup("02:00:00:00:00:01"))
	assert.Equal(t, "Rebadged Switch Co", db.Lookup("00:1B:54:00:00:01"))
	assert.Equal(t, "Aruba Networks", db.Lookup("00:0B:86:00:00:01"), "builtin entries survive")
}

func TestOUIDatabaseOverrideErrors(t *testing.T) {
	_, err := LoadOUIDatabase(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vendors:\n  \"ZZ:00\": Nope\n"), 0644))
	_, err = LoadOUIDatabase(path)
	assert.Error(t, err)
}

func TestOUIDatabaseReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vendors:\n  \"02:00:00\": First Vendor\n"), 0644))

	db, err := LoadOUIDatabase(path, WithRegistrySearch())
	require.NoError(t, err)
	assert.Equal(t, "First Vendor", db.Lookup("02:00:00:11:22:33"))

	require.NoError(t, os.WriteFile(path, []byte("vendors:\n  \"02:00:00\": Second Vendor\n"), 0644))
	require.NoError(t, db.Reload())
	assert.Equal(t, "Second Vendor", db.Lookup("02:00:00:11:22:33"))

	// a broken edit keeps the last good table
	require.NoError(t, os.WriteFile(path, []byte("vendors: [\n"), 0644))
	assert.Error(t, db.Reload())
	assert.Equal(t, "Second Vendor", db.Lookup("02:00:00:11:22:33"))
}
