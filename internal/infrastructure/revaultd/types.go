package revaultd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/revault/revault-gui/internal/core/domain"
)

const jsonrpcVersion = "2.0"

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type getInfoResult struct {
	Version           string  `json:"version"`
	Network           string  `json:"network"`
	BlockHeight       int32   `json:"blockheight"`
	Sync              float64 `json:"sync"`
	Vaults            int     `json:"vaults"`
	ManagersThreshold int     `json:"managers_threshold"`
}

func (r getInfoResult) toDomain() domain.DaemonInfo {
	return domain.DaemonInfo{
		Version:           r.Version,
		Network:           r.Network,
		BlockHeight:       r.BlockHeight,
		Sync:              r.Sync,
		Vaults:            r.Vaults,
		ManagersThreshold: r.ManagersThreshold,
	}
}

type listVaultsResult struct {
	Vaults []vault `json:"vaults"`
}

type vault struct {
	Amount          int64  `json:"amount"`
	BlockHeight     int32  `json:"blockheight"`
	Status          string `json:"status"`
	Txid            string `json:"txid"`
	Vout            uint32 `json:"vout"`
	DerivationIndex uint32 `json:"derivation_index"`
	Address         string `json:"address"`
	ReceivedAt      int64  `json:"received_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

func (v vault) toDomain() (domain.Vault, error) {
	txid, err := chainhash.NewHashFromStr(v.Txid)
	if err != nil {
		return domain.Vault{}, fmt.Errorf("invalid vault txid: %w", err)
	}
	status, err := domain.ParseVaultStatus(v.Status)
	if err != nil {
		return domain.Vault{}, fmt.Errorf("%w: %s", err, v.Status)
	}
	return domain.Vault{
		Outpoint:        domain.Outpoint{Txid: *txid, Vout: v.Vout},
		Status:          status,
		Amount:          btcutil.Amount(v.Amount),
		Address:         v.Address,
		DerivationIndex: v.DerivationIndex,
		BlockHeight:     v.BlockHeight,
		ReceivedAt:      v.ReceivedAt,
		UpdatedAt:       v.UpdatedAt,
	}, nil
}

type listOnchainTransactionsResult struct {
	OnchainTransactions []vaultTransactions `json:"onchain_transactions"`
}

type vaultTransactions struct {
	VaultOutpoint    string             `json:"vault_outpoint"`
	Deposit          *walletTransaction `json:"deposit"`
	Unvault          *walletTransaction `json:"unvault"`
	Cancel           *walletTransaction `json:"cancel"`
	Emergency        *walletTransaction `json:"emergency"`
	UnvaultEmergency *walletTransaction `json:"unvault_emergency"`
	Spend            *walletTransaction `json:"spend"`
}

func (t vaultTransactions) toDomain() (domain.VaultTransactions, error) {
	outpoint, err := domain.ParseOutpoint(t.VaultOutpoint)
	if err != nil {
		return domain.VaultTransactions{}, err
	}
	deposit, err := t.Deposit.toDomain()
	if err != nil {
		return domain.VaultTransactions{}, fmt.Errorf("deposit: %w", err)
	}
	txs, err := domain.NewVaultTransactions(outpoint, deposit)
	if err != nil {
		return domain.VaultTransactions{}, err
	}

	for _, f := range []struct {
		name string
		src  *walletTransaction
		dst  **domain.WalletTransaction
	}{
		{"unvault", t.Unvault, &txs.Unvault},
		{"cancel", t.Cancel, &txs.Cancel},
		{"emergency", t.Emergency, &txs.Emergency},
		{"unvault emergency", t.UnvaultEmergency, &txs.UnvaultEmergency},
		{"spend", t.Spend, &txs.Spend},
	} {
		tx, err := f.src.toDomain()
		if err != nil {
			return domain.VaultTransactions{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = tx
	}
	return txs, nil
}

type walletTransaction struct {
	Hex          string `json:"hex"`
	BlockHeight  *int32 `json:"blockheight"`
	ReceivedTime int64  `json:"received_time"`
	BlockTime    *int64 `json:"blocktime"`
}

func (t *walletTransaction) toDomain() (*domain.WalletTransaction, error) {
	if t == nil {
		return nil, nil
	}
	buf, err := hex.DecodeString(t.Hex)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction hex: %w", err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}
	return &domain.WalletTransaction{
		Tx:          tx,
		BlockHeight: t.BlockHeight,
		ReceivedAt:  t.ReceivedTime,
		BlockTime:   t.BlockTime,
	}, nil
}

type getUnvaultTxResult struct {
	UnvaultTx string `json:"unvault_tx"`
}

type getRevocationTxsResult struct {
	CancelTx           string `json:"cancel_tx"`
	EmergencyTx        string `json:"emergency_tx"`
	EmergencyUnvaultTx string `json:"emergency_unvault_tx"`
}

func decodePsbt(b64 string) (*psbt.Packet, error) {
	return psbt.NewFromRawBytes(strings.NewReader(b64), true)
}

func encodePsbt(packet *psbt.Packet) (string, error) {
	if packet == nil {
		return "", domain.ErrNullPsbt
	}
	return packet.B64Encode()
}
