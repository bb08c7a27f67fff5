package application

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/revault/revault-gui/internal/core/domain"
)

// VaultMessage is the closed set of messages a Vault controller handles.
type VaultMessage interface {
	vaultMessage()
}

// ListOnchainTransactionsMsg asks for the onchain history of the vault.
type ListOnchainTransactionsMsg struct{}

// OnchainTransactionsMsg carries the result of ListOnchainTransactions.
type OnchainTransactionsMsg struct {
	Txs domain.VaultTransactions
	Err error
}

// SelectDelegateMsg opens the delegation workflow.
type SelectDelegateMsg struct{}

// UnvaultTransactionMsg carries the result of GetUnvaultTx.
type UnvaultTransactionMsg struct {
	Tx  domain.UnvaultTransaction
	Err error
}

// SelectSecureMsg opens the revocation signing workflow.
type SelectSecureMsg struct{}

// RevocationTransactionsMsg carries the result of GetRevocationTxs.
type RevocationTransactionsMsg struct {
	Txs domain.RevocationTransactions
	Err error
}

// SelectRevaultMsg opens the revault confirmation.
type SelectRevaultMsg struct{}

// RevaultMsg is the user confirmation to revault.
type RevaultMsg struct{}

// RevaultedMsg carries the result of Revault.
type RevaultedMsg struct {
	Err error
}

// DelegateMsg is a signing message of the delegation workflow.
type DelegateMsg struct {
	Msg SignMessage
}

// DelegatedMsg carries the result of SetUnvaultTx.
type DelegatedMsg struct {
	Err error
}

// SecureMsg is a signing message of the revocation workflow.
type SecureMsg struct {
	Msg SignMessage
}

// SecuredMsg carries the result of SetRevocationTxs.
type SecuredMsg struct {
	Err error
}

func (ListOnchainTransactionsMsg) vaultMessage() {}
func (OnchainTransactionsMsg) vaultMessage()     {}
func (SelectDelegateMsg) vaultMessage()          {}
func (UnvaultTransactionMsg) vaultMessage()      {}
func (SelectSecureMsg) vaultMessage()            {}
func (RevocationTransactionsMsg) vaultMessage()  {}
func (SelectRevaultMsg) vaultMessage()           {}
func (RevaultMsg) vaultMessage()                 {}
func (RevaultedMsg) vaultMessage()               {}
func (DelegateMsg) vaultMessage()                {}
func (DelegatedMsg) vaultMessage()               {}
func (SecureMsg) vaultMessage()                  {}
func (SecuredMsg) vaultMessage()                 {}

// SignMessage is the closed set of messages a Signer handles.
type SignMessage interface {
	signMessage()
}

// SignRequestMsg asks the signing device to sign the next unsigned
// transaction of the target.
type SignRequestMsg struct{}

// SignResultMsg is the outcome of one signing device round-trip for the
// transaction at Index. Request identifies the round-trip, zero when the
// result answers none of them.
type SignResultMsg struct {
	Index   int
	Psbt    *psbt.Packet
	Err     error
	Request uint64
}

func (SignRequestMsg) signMessage() {}
func (SignResultMsg) signMessage()  {}

// ListMessage is the closed set of messages a VaultList handles.
type ListMessage interface {
	listMessage()
}

// RefreshMsg reloads daemon info and the vault list.
type RefreshMsg struct{}

// InfoLoadedMsg carries the result of GetInfo.
type InfoLoadedMsg struct {
	Info domain.DaemonInfo
	Err  error
}

// VaultsLoadedMsg carries the result of ListVaults.
type VaultsLoadedMsg struct {
	Vaults []domain.Vault
	Err    error
}

// SelectVaultMsg opens the vault with the given outpoint.
type SelectVaultMsg struct {
	Outpoint domain.Outpoint
}

// CloseVaultMsg drops the selected vault.
type CloseVaultMsg struct{}

// VaultMsg routes a message to the vault with the given outpoint.
type VaultMsg struct {
	Outpoint domain.Outpoint
	Msg      VaultMessage
}

func (RefreshMsg) listMessage()      {}
func (InfoLoadedMsg) listMessage()   {}
func (VaultsLoadedMsg) listMessage() {}
func (SelectVaultMsg) listMessage()  {}
func (CloseVaultMsg) listMessage()   {}
func (VaultMsg) listMessage()        {}
