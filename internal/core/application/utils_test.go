package application_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/revault/revault-gui/internal/core/application"
	"github.com/revault/revault-gui/internal/core/domain"
	"github.com/stretchr/testify/require"
)

var (
	testOutpoint  = domain.Outpoint{Txid: chainhash.Hash{0x01}, Vout: 0}
	otherOutpoint = domain.Outpoint{Txid: chainhash.Hash{0x02}, Vout: 3}
)

func newTestEnv() (*application.Env, *mockRevaultD, *mockSigningDevice) {
	revaultd := &mockRevaultD{}
	device := &mockSigningDevice{}
	env := &application.Env{
		RevaultD:       revaultd,
		Device:         device,
		CallTimeout:    time.Second,
		SigningTimeout: time.Second,
	}
	return env, revaultd, device
}

func newTestVault(
	status domain.VaultStatus,
) (*application.Vault, *mockRevaultD, *mockSigningDevice) {
	env, revaultd, device := newTestEnv()
	vault := application.NewVault(domain.Vault{
		Outpoint: testOutpoint,
		Status:   status,
		Amount:   100000000,
	}, env)
	return vault, revaultd, device
}

// newTestPacket returns an unsigned single-input packet. Packets built with
// different seeds have different txids.
func newTestPacket(t *testing.T, seed byte) *psbt.Packet {
	t.Helper()

	prevOut := &wire.OutPoint{Hash: chainhash.Hash{seed}, Index: 1}
	script := append([]byte{txscript.OP_0, txscript.OP_DATA_32}, make([]byte, 32)...)
	packet, err := psbt.New(
		[]*wire.OutPoint{prevOut},
		[]*wire.TxOut{wire.NewTxOut(99000, script)},
		2, 0, []uint32{wire.MaxTxInSequenceNum},
	)
	require.NoError(t, err)
	return packet
}

// withSignature returns a copy of packet with one more partial signature on
// every input.
func withSignature(t *testing.T, packet *psbt.Packet) *psbt.Packet {
	t.Helper()

	buf := &bytes.Buffer{}
	require.NoError(t, packet.Serialize(buf))
	signed, err := psbt.NewFromRawBytes(buf, false)
	require.NoError(t, err)

	for i := range signed.Inputs {
		key, err := btcec.NewPrivateKey()
		require.NoError(t, err)
		hash := chainhash.HashB([]byte{byte(i)})
		sig := ecdsa.Sign(key, hash)
		signed.Inputs[i].PartialSigs = append(
			signed.Inputs[i].PartialSigs, &psbt.PartialSig{
				PubKey:    key.PubKey().SerializeCompressed(),
				Signature: append(sig.Serialize(), byte(txscript.SigHashAll)),
			},
		)
	}
	return signed
}

func newRevocationTxs(t *testing.T) domain.RevocationTransactions {
	return domain.RevocationTransactions{
		EmergencyTx:        newTestPacket(t, 0x10),
		EmergencyUnvaultTx: newTestPacket(t, 0x11),
		CancelTx:           newTestPacket(t, 0x12),
	}
}

// runCmd executes cmd, and every command it batches, returning the messages
// they produce.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	msgs := make([]tea.Msg, 0, len(batch))
	for _, c := range batch {
		msgs = append(msgs, runCmd(c)...)
	}
	return msgs
}

// runVaultCmd executes cmd and feeds back every message it produces to the
// vault, until no more commands are issued.
func runVaultCmd(t *testing.T, vault *application.Vault, cmd tea.Cmd) {
	t.Helper()

	for _, msg := range runCmd(cmd) {
		vaultMsg, ok := msg.(application.VaultMessage)
		require.True(t, ok, "unexpected message %T", msg)
		runVaultCmd(t, vault, vault.Update(vaultMsg))
	}
}
