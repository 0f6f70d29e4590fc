package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicectl/internal/domain"
)

var adminCreds = DefaultCredentials{Username: "admin", Password: "admin"}

func TestScanEndToEnd(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// .50 is already on record
	require.NoError(t, store.Create(ctx, &domain.Device{
		Name: "edge-ap", Type: domain.DeviceTypeAccessPoint, IP: "192.168.1.50",
		MAC: "AA:BB:CC:00:00:50", Location: "lobby", SSHUsername: "ops", SSHPassword: "pw",
	}))

	identity := staticIdentity{
		"192.168.1.10": {MAC: "AA:BB:CC:00:00:01", Vendor: "Cisco", Type: domain.DeviceTypeSwitch},
		"192.168.1.50": {MAC: "AA:BB:CC:00:00:50", Vendor: "Ubiquiti", Type: domain.DeviceTypeAccessPoint},
	}
	prober := &staticProber{live: []string{"192.168.1.10", "192.168.1.11", "192.168.1.50"}}

	bus := NewEventBus()
	events := recordEvents(t, bus)

	svc := NewDiscoveryService(
		staticSubnet{prefix: "192.168.1.0/24"},
		prober,
		identity,
		NewReconciler(store, adminCreds, bus, zerolog.Nop()),
		bus,
		zerolog.Nop(),
	)

	created, err := svc.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, created, 2)

	cisco := created[0]
	assert.Equal(t, "192.168.1.10", cisco.IP)
	assert.Equal(t, "AA:BB:CC:00:00:01", cisco.MAC)
	assert.Equal(t, "Cisco", cisco.Name)
	assert.Equal(t, domain.DeviceTypeSwitch, cisco.Type)
	assert.Equal(t, "Unknown", cisco.Location)
	assert.Equal(t, "Auto-discovered device", cisco.Description)
	assert.Equal(t, "admin", cisco.SSHUsername)
	assert.Equal(t, "admin", cisco.SSHPassword)
	assert.False(t, cisco.CredentialsVerified)
	assert.NotEmpty(t, cisco.ID)

	unknown := created[1]
	assert.Equal(t, "192.168.1.11", unknown.IP)
	assert.Equal(t, domain.UnknownMAC, unknown.MAC)
	assert.Equal(t, "Unknown Device", unknown.Name)
	assert.Equal(t, domain.DeviceTypeOther, unknown.Type)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.Equal(t, []EventType{
		EventScanStarted, EventDeviceCreated, EventDeviceCreated, EventScanCompleted,
	}, events.waitFor(t, 4))
	assert.False(t, svc.Scanning())
}

func TestRepeatedScansDoNotDuplicateUnresolvedHosts(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// .11 never appears in the ARP table, like the scanning host itself
	svc := NewDiscoveryService(
		staticSubnet{prefix: "192.168.1.0/24"},
		&staticProber{live: []string{"192.168.1.11"}},
		staticIdentity{},
		NewReconciler(store, adminCreds, nil, zerolog.Nop()),
		nil,
		zerolog.Nop(),
	)

	first, err := svc.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	for range 2 {
		again, err := svc.Scan(ctx)
		require.NoError(t, err)
		assert.Empty(t, again)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestScanIsIdempotentForKnownMACs(t *testing.T) {
	store := newStore(t)
	identity := staticIdentity{
		"10.0.0.2": {MAC: "00:1B:54:00:00:02", Vendor: "Cisco Systems", Type: domain.DeviceTypeSwitch},
		"10.0.0.3": {MAC: "F0:9F:C2:00:00:03", Vendor: "Ubiquiti", Type: domain.DeviceTypeAccessPoint},
	}
	svc := NewDiscoveryService(
		staticSubnet{prefix: "10.0.0.0/24"},
		&staticProber{live: []string{"10.0.0.2", "10.0.0.3"}},
		identity,
		NewReconciler(store, adminCreds, nil, zerolog.Nop()),
		nil,
		zerolog.Nop(),
	)

	first, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, second)
	assert.Empty(t, second)
}

func TestScanNoSubnet(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"sentinel", domain.ErrNoSubnetFound},
		{"other resolver failure", errors.New("netlink: permission denied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := &staticProber{}
			svc := NewDiscoveryService(
				staticSubnet{err: tt.err},
				prober,
				staticIdentity{},
				NewReconciler(newStore(t), adminCreds, nil, zerolog.Nop()),
				nil,
				zerolog.Nop(),
			)

			created, err := svc.Scan(context.Background())
			assert.ErrorIs(t, err, domain.ErrNoSubnetFound)
			assert.Nil(t, created)
		})
	}
}

func TestScanSweepFailure(t *testing.T) {
	svc := NewDiscoveryService(
		staticSubnet{prefix: "10.0.0.0/24"},
		&staticProber{err: errors.New("nmap binary not found")},
		staticIdentity{},
		NewReconciler(newStore(t), adminCreds, nil, zerolog.Nop()),
		nil,
		zerolog.Nop(),
	)

	_, err := svc.Scan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmap binary not found")
	assert.False(t, svc.Scanning())
}

func TestScanRejectsConcurrentScan(t *testing.T) {
	prober := &staticProber{
		live:    []string{"10.0.0.2"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewDiscoveryService(
		staticSubnet{prefix: "10.0.0.0/24"},
		prober,
		staticIdentity{},
		NewReconciler(newStore(t), adminCreds, nil, zerolog.Nop()),
		nil,
		zerolog.Nop(),
	)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Scan(context.Background())
		done <- err
	}()

	<-prober.started
	assert.True(t, svc.Scanning())

	_, err := svc.Scan(context.Background())
	assert.ErrorIs(t, err, domain.ErrScanInProgress)

	close(prober.release)
	require.NoError(t, <-done)
	assert.False(t, svc.Scanning())
}
