package adapter

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultRegistryPaths are where distribution packages install a full
// MAC vendor registry: ieee-data, nmap and wireshark respectively.
var DefaultRegistryPaths = []string{
	"/usr/share/ieee-data/oui.csv",
	"/var/lib/ieee-data/oui.csv",
	"/usr/share/ieee-data/oui.txt",
	"/usr/share/misc/oui.txt",
	"/usr/share/nmap/nmap-mac-prefixes",
	"/usr/local/share/nmap/nmap-mac-prefixes",
	"/usr/share/wireshark/manuf",
}

// parseRegistry reads a vendor registry in one of the common formats and
// adds its MA-L (24-bit) assignments to vendors:
//
//	IEEE oui.csv   MA-L,001B54,"Cisco Systems, Inc",...
//	IEEE oui.txt   00-1B-54   (hex)		Cisco Systems, Inc
//	nmap           001B54 Cisco Systems
//	wireshark      00:1B:54	Cisco	Cisco Systems, Inc
//
// Larger blocks (MA-M, MA-S, /28 and /36 entries) are skipped. It returns
// the number of prefixes read.
func parseRegistry(data []byte, vendors map[string]string) (int, error) {
	first := firstLine(data)
	switch {
	case strings.HasPrefix(first, "Registry,"):
		return parseRegistryCSV(data, vendors)
	case strings.HasPrefix(first, "OUI/MA-L"):
		return parseRegistryText(data, vendors)
	default:
		return parsePrefixList(data, vendors)
	}
}

func firstLine(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	for _, line := range bytes.Split(data, []byte("\n")) {
		if s := strings.TrimSpace(string(line)); s != "" {
			return s
		}
	}
	return ""
}

func parseRegistryCSV(data []byte, vendors map[string]string) (int, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	if _, err := r.Read(); err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	n := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if len(rec) < 3 || rec[0] != "MA-L" {
			continue
		}
		if addVendor(vendors, rec[1], rec[2]) {
			n++
		}
	}
}

func parseRegistryText(data []byte, vendors map[string]string) (int, error) {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		prefix, vendor, ok := strings.Cut(sc.Text(), "(hex)")
		if ok && addVendor(vendors, strings.TrimSpace(prefix), vendor) {
			n++
		}
	}
	return n, sc.Err()
}

func parsePrefixList(data []byte, vendors map[string]string) (int, error) {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		// continuation and comment lines
		if line == "" || line[0] == '#' || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		prefix, rest, ok := strings.Cut(strings.Replace(line, "\t", " ", 1), " ")
		if !ok || strings.Contains(prefix, "/") {
			continue
		}
		// wireshark: short name, then long name in the last column
		cols := strings.Split(rest, "\t")
		vendor := cols[len(cols)-1]
		// older manuf files: "Cisco   # Cisco Systems, Inc"
		if _, long, ok := strings.Cut(vendor, "#"); ok && strings.TrimSpace(long) != "" {
			vendor = long
		}
		if addVendor(vendors, prefix, vendor) {
			n++
		}
	}
	if n == 0 && sc.Err() == nil {
		return 0, errors.New("no vendor prefixes found")
	}
	return n, sc.Err()
}

func addVendor(vendors map[string]string, prefix, vendor string) bool {
	key := ouiKey(prefix)
	vendor = strings.TrimSpace(vendor)
	if len(key) != 6 || vendor == "" {
		return false
	}
	vendors[key] = vendor
	return true
}
