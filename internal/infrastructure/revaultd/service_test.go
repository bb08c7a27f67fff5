package revaultd_test

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/revault/revault-gui/internal/core/domain"
	"github.com/revault/revault-gui/internal/core/ports"
	"github.com/revault/revault-gui/internal/infrastructure/revaultd"
	"github.com/revault/revault-gui/pkg/circuitbreaker"
	"github.com/stretchr/testify/require"
)

const testTxid = "9d3d6a2b2f1c5b8e3f0a4e1b7c6d5e4f3a2b1c0d9e8f7a6b5c4d3e2f1a0b9c8d"

var testOutpoint = mustParseOutpoint(testTxid + ":1")

func mustParseOutpoint(s string) domain.Outpoint {
	outpoint, err := domain.ParseOutpoint(s)
	if err != nil {
		panic(err)
	}
	return outpoint
}

func newTestService(t *testing.T, path string, timeout time.Duration) ports.RevaultD {
	t.Helper()

	svc, err := revaultd.NewService(revaultd.Config{
		SocketPath: path,
		Timeout:    timeout,
		RateLimit:  1000,
	})
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	_, err := revaultd.NewService(revaultd.Config{RateLimit: 1})
	require.ErrorIs(t, err, revaultd.ErrMissingSocketPath)

	_, err = revaultd.NewService(revaultd.Config{SocketPath: "rpc"})
	require.ErrorIs(t, err, revaultd.ErrInvalidRateLimit)
}

func TestGetInfo(t *testing.T) {
	daemon := newFakeDaemon(t, func(req fakeRequest) (interface{}, *fakeError) {
		return map[string]interface{}{
			"version":            "0.3.1",
			"network":            "regtest",
			"blockheight":        512,
			"sync":               1.0,
			"vaults":             4,
			"managers_threshold": 2,
		}, nil
	})
	svc := newTestService(t, daemon.path, time.Second)

	info, err := svc.GetInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.DaemonInfo{
		Version:           "0.3.1",
		Network:           "regtest",
		BlockHeight:       512,
		Sync:              1,
		Vaults:            4,
		ManagersThreshold: 2,
	}, info)
	require.True(t, info.IsSynced())

	req := daemon.lastRequest(t)
	require.Equal(t, "2.0", req.JSONRPC)
	require.Equal(t, "getinfo", req.Method)
	require.NotEmpty(t, req.ID)
	require.Empty(t, req.Params)
}

func TestListVaults(t *testing.T) {
	daemon := newFakeDaemon(t, func(req fakeRequest) (interface{}, *fakeError) {
		return map[string]interface{}{
			"vaults": []map[string]interface{}{
				{
					"amount":           150000000,
					"blockheight":      201,
					"status":           "secured",
					"txid":             testTxid,
					"vout":             1,
					"derivation_index": 7,
					"address":          "bcrt1qvault",
					"received_at":      1600000000,
					"updated_at":       1600000100,
				},
			},
		}, nil
	})
	svc := newTestService(t, daemon.path, time.Second)

	vaults, err := svc.ListVaults(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []domain.Vault{{
		Outpoint:        testOutpoint,
		Status:          domain.VaultStatusSecured,
		Amount:          150000000,
		Address:         "bcrt1qvault",
		DerivationIndex: 7,
		BlockHeight:     201,
		ReceivedAt:      1600000000,
		UpdatedAt:       1600000100,
	}}, vaults)
	require.Empty(t, daemon.lastRequest(t).Params)

	_, err = svc.ListVaults(
		context.Background(),
		[]domain.VaultStatus{domain.VaultStatusFunded, domain.VaultStatusSecuring},
		[]domain.Outpoint{testOutpoint},
	)
	require.NoError(t, err)

	params := daemon.lastRequest(t).Params
	require.Len(t, params, 2)
	require.JSONEq(t, `["funded","securing"]`, string(params[0]))
	require.JSONEq(t, `["`+testTxid+`:1"]`, string(params[1]))
}

func TestListVaultsUnknownStatus(t *testing.T) {
	daemon := newFakeDaemon(t, func(req fakeRequest) (interface{}, *fakeError) {
		return map[string]interface{}{
			"vaults": []map[string]interface{}{
				{"status": "lost", "txid": testTxid, "vout": 0},
			},
		}, nil
	})
	svc := newTestService(t, daemon.path, time.Second)

	_, err := svc.ListVaults(context.Background(), nil, nil)
	daemonErr := ports.ToDaemonError(err)
	require.Equal(t, ports.DaemonErrorUnexpected, daemonErr.Kind)
	require.Contains(t, err.Error(), "unknown vault status")
}

func TestListOnchainTransactions(t *testing.T) {
	deposit, depositHex := newTestTxHex(t, 0x01)
	unvault, unvaultHex := newTestTxHex(t, 0x02)

	daemon := newFakeDaemon(t, func(req fakeRequest) (interface{}, *fakeError) {
		return map[string]interface{}{
			"onchain_transactions": []map[string]interface{}{
				{
					"vault_outpoint": testOutpoint.String(),
					"deposit": map[string]interface{}{
						"hex":           depositHex,
						"blockheight":   100,
						"received_time": 1000,
						"blocktime":     1001,
					},
					"unvault": map[string]interface{}{
						"hex":           unvaultHex,
						"received_time": 2000,
					},
				},
			},
		}, nil
	})
	svc := newTestService(t, daemon.path, time.Second)

	txs, err := svc.ListOnchainTransactions(context.Background(), testOutpoint)
	require.NoError(t, err)
	require.Equal(t, testOutpoint, txs.Outpoint)
	require.Equal(t, deposit.TxHash(), txs.Deposit.Tx.TxHash())
	require.True(t, txs.Deposit.IsConfirmed())
	require.Equal(t, unvault.TxHash(), txs.Unvault.Tx.TxHash())
	require.False(t, txs.Unvault.IsConfirmed())
	require.Nil(t, txs.Cancel)
	require.Equal(t, txs.Unvault, txs.LastBroadcastedTx())

	params := daemon.lastRequest(t).Params
	require.Len(t, params, 1)
	require.JSONEq(t, `["`+testOutpoint.String()+`"]`, string(params[0]))

	other := domain.Outpoint{Vout: 9}
	_, err = svc.ListOnchainTransactions(context.Background(), other)
	require.Equal(t, ports.DaemonErrorUnexpected, ports.ToDaemonError(err).Kind)
}

func TestTemplates(t *testing.T) {
	unvaultTx := newTestPacket(t, 0x10)
	cancelTx := newTestPacket(t, 0x11)
	emergencyTx := newTestPacket(t, 0x12)
	emergencyUnvaultTx := newTestPacket(t, 0x13)

	daemon := newFakeDaemon(t, func(req fakeRequest) (interface{}, *fakeError) {
		switch req.Method {
		case "getunvaulttx":
			return map[string]string{
				"unvault_tx": encodePacket(t, unvaultTx),
			}, nil
		case "getrevocationtxs":
			return map[string]string{
				"cancel_tx":            encodePacket(t, cancelTx),
				"emergency_tx":         encodePacket(t, emergencyTx),
				"emergency_unvault_tx": encodePacket(t, emergencyUnvaultTx),
			}, nil
		}
		return struct{}{}, nil
	})
	svc := newTestService(t, daemon.path, time.Second)
	ctx := context.Background()

	unvault, err := svc.GetUnvaultTx(ctx, testOutpoint)
	require.NoError(t, err)
	require.Equal(t, unvaultTx.UnsignedTx.TxHash(), unvault.UnvaultTx.UnsignedTx.TxHash())

	revocation, err := svc.GetRevocationTxs(ctx, testOutpoint)
	require.NoError(t, err)
	require.Equal(t, cancelTx.UnsignedTx.TxHash(), revocation.CancelTx.UnsignedTx.TxHash())
	require.Equal(t, emergencyTx.UnsignedTx.TxHash(), revocation.EmergencyTx.UnsignedTx.TxHash())
	require.Equal(
		t, emergencyUnvaultTx.UnsignedTx.TxHash(),
		revocation.EmergencyUnvaultTx.UnsignedTx.TxHash(),
	)

	require.NoError(t, svc.SetUnvaultTx(ctx, testOutpoint, unvaultTx))
	req := daemon.lastRequest(t)
	require.Equal(t, "unvaulttx", req.Method)
	require.Equal(t, []string{testOutpoint.String(), encodePacket(t, unvaultTx)}, decodeStrings(t, req.Params))

	require.NoError(t, svc.SetRevocationTxs(
		ctx, testOutpoint, emergencyTx, emergencyUnvaultTx, cancelTx,
	))
	req = daemon.lastRequest(t)
	require.Equal(t, "revocationtxs", req.Method)
	require.Equal(t, []string{
		testOutpoint.String(),
		encodePacket(t, cancelTx),
		encodePacket(t, emergencyTx),
		encodePacket(t, emergencyUnvaultTx),
	}, decodeStrings(t, req.Params))

	require.NoError(t, svc.Revault(ctx, testOutpoint))
	req = daemon.lastRequest(t)
	require.Equal(t, "revault", req.Method)
	require.Equal(t, []string{testOutpoint.String()}, decodeStrings(t, req.Params))

	numRequests := daemon.numRequests()
	err = svc.SetUnvaultTx(ctx, testOutpoint, nil)
	require.EqualError(t, err, "failed to encode unvaulttx params: psbt must not be null")
	require.Equal(t, numRequests, daemon.numRequests())
}

func TestRpcError(t *testing.T) {
	daemon := newFakeDaemon(t, func(req fakeRequest) (interface{}, *fakeError) {
		return nil, &fakeError{Code: 12000, Message: "invalid vault status"}
	})
	svc := newTestService(t, daemon.path, time.Second)

	err := svc.Revault(context.Background(), testOutpoint)
	require.ErrorIs(t, err, ports.NewRpcError(12000, ""))
	require.EqualError(t, err, "[12000] invalid vault status")

	// Rpc errors never open the breaker.
	for i := 0; i <= circuitbreaker.MaxNumOfFailingRequests; i++ {
		require.Error(t, svc.Revault(context.Background(), testOutpoint))
	}
	require.EqualError(
		t, svc.Revault(context.Background(), testOutpoint),
		"[12000] invalid vault status",
	)
}

func TestTransportErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rpc")
		listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
		require.NoError(t, err)
		listener.SetUnlinkOnClose(false)
		require.NoError(t, listener.Close())

		svc := newTestService(t, path, time.Second)
		_, err = svc.GetInfo(context.Background())
		require.EqualError(t, err, "failed to connect to daemon")
		require.ErrorIs(t, err, ports.NewTransportError(
			ports.TransportKindConnectionRefused, "",
		))
	})

	t.Run("socket not found", func(t *testing.T) {
		svc := newTestService(t, filepath.Join(t.TempDir(), "rpc"), time.Second)
		_, err := svc.GetInfo(context.Background())
		require.ErrorIs(t, err, ports.NewTransportError(
			ports.TransportKindNotFound, "",
		))
	})

	t.Run("no answer", func(t *testing.T) {
		daemon := newFakeDaemon(t, nil)
		svc := newTestService(t, daemon.path, 100*time.Millisecond)

		_, err := svc.GetInfo(context.Background())
		require.EqualError(t, err, "daemon did not answer")
		require.Equal(t, 1, daemon.numRequests())
	})

	t.Run("context deadline wins over client timeout", func(t *testing.T) {
		daemon := newFakeDaemon(t, nil)
		svc := newTestService(t, daemon.path, time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		err := svc.Revault(ctx, testOutpoint)
		require.EqualError(t, err, "daemon did not answer")
		require.Less(t, time.Since(start), 10*time.Second)
	})
}

func TestCircuitBreakerOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rpc")
	svc := newTestService(t, path, time.Second)
	ctx := context.Background()

	for i := 0; i <= circuitbreaker.MaxNumOfFailingRequests; i++ {
		_, err := svc.GetInfo(ctx)
		require.ErrorIs(t, err, ports.NewTransportError(
			ports.TransportKindNotFound, "",
		))
	}

	// The daemon comes up, but the breaker is open and keeps reporting the
	// failure that tripped it.
	newFakeDaemonAt(t, path)
	_, err := svc.GetInfo(ctx)
	require.ErrorIs(t, err, ports.NewTransportError(
		ports.TransportKindNotFound, "",
	))
}

func TestCircuitBreakerKeepsConnectionRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rpc")
	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	require.NoError(t, err)
	listener.SetUnlinkOnClose(false)
	require.NoError(t, listener.Close())

	svc := newTestService(t, path, time.Second)
	for i := 0; i < circuitbreaker.MaxNumOfFailingRequests+3; i++ {
		_, err := svc.GetInfo(context.Background())
		require.EqualError(t, err, "failed to connect to daemon", "call %d", i)
		require.ErrorIs(t, err, ports.NewTransportError(
			ports.TransportKindConnectionRefused, "",
		))
	}
}

func TestCircuitBreakerOpenAfterTimeouts(t *testing.T) {
	daemon := newFakeDaemon(t, nil)
	svc := newTestService(t, daemon.path, 50*time.Millisecond)

	for i := 0; i <= circuitbreaker.MaxNumOfFailingRequests; i++ {
		_, err := svc.GetInfo(context.Background())
		require.EqualError(t, err, "daemon did not answer")
	}
	requests := daemon.numRequests()

	_, err := svc.GetInfo(context.Background())
	require.EqualError(t, err, "daemon did not answer")
	// The breaker answers without reaching the daemon.
	require.Equal(t, requests, daemon.numRequests())
}

func newFakeDaemonAt(t *testing.T, path string) {
	t.Helper()

	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })
}

func decodeStrings(t *testing.T, params []json.RawMessage) []string {
	t.Helper()

	strs := make([]string, 0, len(params))
	for _, p := range params {
		var s string
		require.NoError(t, json.Unmarshal(p, &s))
		strs = append(strs, s)
	}
	return strs
}
