package application

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/revault/revault-gui/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// Vault is the controller of the vault selected by the user. It owns the
// vault record, the section shown for it and the warning raised by the last
// failed history or template fetch.
type Vault struct {
	env     *Env
	vault   domain.Vault
	warning error
	section Section
}

func NewVault(vault domain.Vault, env *Env) *Vault {
	return &Vault{
		env:     env,
		vault:   vault,
		section: &UnloadedSection{},
	}
}

// Load fetches the onchain history of the vault.
func (v *Vault) Load() tea.Cmd {
	return v.Update(ListOnchainTransactionsMsg{})
}

// Update applies a message to the vault and returns the daemon or signing
// device call it triggers, if any.
func (v *Vault) Update(msg VaultMessage) tea.Cmd {
	outpoint := v.vault.Outpoint

	switch m := msg.(type) {
	case ListOnchainTransactionsMsg:
		v.warning = nil
		return v.env.getOnchainTxs(outpoint)

	case OnchainTransactionsMsg:
		if m.Err != nil {
			v.setWarning(m.Err, "failed to list onchain transactions")
			return nil
		}
		v.section = &OnchainTransactionsSection{m.Txs}

	case SelectDelegateMsg:
		v.warning = nil
		return v.env.getUnvaultTx(outpoint)

	case UnvaultTransactionMsg:
		if m.Err == nil && m.Tx.UnvaultTx == nil {
			m.Err = domain.ErrNullPsbt
		}
		if m.Err != nil {
			v.setWarning(m.Err, "failed to get unvault transaction")
			return nil
		}
		v.section = newDelegateSection(m.Tx, v.env)

	case SelectSecureMsg:
		v.warning = nil
		return v.env.getRevocationTxs(outpoint)

	case RevocationTransactionsMsg:
		if m.Err == nil && (m.Txs.EmergencyTx == nil ||
			m.Txs.EmergencyUnvaultTx == nil || m.Txs.CancelTx == nil) {
			m.Err = domain.ErrNullPsbt
		}
		if m.Err != nil {
			v.setWarning(m.Err, "failed to get revocation transactions")
			return nil
		}
		v.section = newSecureSection(m.Txs, v.env)

	case SelectRevaultMsg:
		v.section = &RevaultSection{}

	default:
		return v.section.update(v.env, &v.vault, msg)
	}
	return nil
}

// Reconcile replaces the vault record with the one freshly listed by the
// daemon. A record for another vault is ignored.
func (v *Vault) Reconcile(vault domain.Vault) bool {
	if vault.Outpoint != v.vault.Outpoint {
		return false
	}
	v.vault = vault
	return true
}

func (v *Vault) Vault() domain.Vault {
	return v.vault
}

func (v *Vault) Warning() error {
	return v.warning
}

func (v *Vault) Section() Section {
	return v.section
}

func (v *Vault) Title() string {
	return v.section.Title(v.vault)
}

func (v *Vault) setWarning(err error, msg string) {
	v.warning = NewError(err)
	log.WithError(err).WithField("vault", v.vault.Outpoint.String()).Warn(msg)
}
