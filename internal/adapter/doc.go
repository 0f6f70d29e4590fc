// Package adapter implements the network-facing pieces of device discovery
// and remote control.
//
// # Discovery
//
// SubnetResolver picks the local IPv4 subnet from the first non-loopback
// interface. A Prober then sweeps every usable host address in it:
// PoolProber fans single pings (ICMPPinger or ExecPinger) out over a
// bounded worker pool, while NmapProber hands the whole subnet to one nmap
// ping sweep. IdentityResolver maps each responder to a MAC address through
// the ARP cache, to a vendor through the OUI table, and finally to a device
// type through Classify.
//
// # Remote control
//
// Executor opens one SSH session per call through a Dialer, runs a single
// command and always closes the session before returning.
package adapter
