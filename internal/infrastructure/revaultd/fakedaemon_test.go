package revaultd_test

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

type fakeRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type fakeResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *fakeError  `json:"error,omitempty"`
}

type fakeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handler returns the reply to a request. A nil handler never replies.
type handler func(req fakeRequest) (interface{}, *fakeError)

// fakeDaemon serves JSON-RPC requests on a unix socket the way revaultd
// does: one request per connection.
type fakeDaemon struct {
	path string

	lock     sync.Mutex
	requests []fakeRequest
}

func newFakeDaemon(t *testing.T, handle handler) *fakeDaemon {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rpc")
	listener, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	d := &fakeDaemon{path: path}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go d.serve(conn, handle)
		}
	}()
	return d
}

func (d *fakeDaemon) serve(conn net.Conn, handle handler) {
	defer conn.Close()

	var req fakeRequest
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		return
	}
	d.lock.Lock()
	d.requests = append(d.requests, req)
	d.lock.Unlock()

	if handle == nil {
		// Hold the connection until the client gives up.
		io.Copy(io.Discard, conn)
		return
	}

	result, rpcErr := handle(req)
	json.NewEncoder(conn).Encode(fakeResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

func (d *fakeDaemon) lastRequest(t *testing.T) fakeRequest {
	t.Helper()

	d.lock.Lock()
	defer d.lock.Unlock()
	require.NotEmpty(t, d.requests)
	return d.requests[len(d.requests)-1]
}

func (d *fakeDaemon) numRequests() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return len(d.requests)
}

func newTestPacket(t *testing.T, seed byte) *psbt.Packet {
	t.Helper()

	packet, err := psbt.New(
		[]*wire.OutPoint{{Hash: chainhash.Hash{seed}, Index: 0}},
		[]*wire.TxOut{wire.NewTxOut(5000, []byte{0x00, 0x14})},
		2, 0, []uint32{wire.MaxTxInSequenceNum},
	)
	require.NoError(t, err)
	return packet
}

func encodePacket(t *testing.T, packet *psbt.Packet) string {
	t.Helper()

	b64, err := packet.B64Encode()
	require.NoError(t, err)
	return b64
}

func newTestTxHex(t *testing.T, seed byte) (*wire.MsgTx, string) {
	t.Helper()

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.Hash{seed}}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(10000, []byte{0x51}))

	buf := &bytes.Buffer{}
	require.NoError(t, tx.Serialize(buf))
	return tx, hex.EncodeToString(buf.Bytes())
}
