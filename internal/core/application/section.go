package application

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/revault/revault-gui/internal/core/domain"
)

// Section is the panel currently shown for a vault. The set of sections is
// closed: UnloadedSection, OnchainTransactionsSection, DelegateSection,
// SecureSection and RevaultSection.
type Section interface {
	Title(vault domain.Vault) string
	// update handles the messages that belong to the section. Anything else,
	// including results addressed to a section that was replaced since, is
	// dropped.
	update(env *Env, vault *domain.Vault, msg VaultMessage) tea.Cmd
}

// UnloadedSection is the section of a vault whose history is not loaded yet.
type UnloadedSection struct{}

func (s *UnloadedSection) Title(domain.Vault) string { return "" }

func (s *UnloadedSection) update(*Env, *domain.Vault, VaultMessage) tea.Cmd {
	return nil
}

// OnchainTransactionsSection shows the onchain history of the vault.
type OnchainTransactionsSection struct {
	txs domain.VaultTransactions
}

func (s *OnchainTransactionsSection) Title(vault domain.Vault) string {
	if vault.IsDeposit() {
		return "Deposit details"
	}
	return "Vault details"
}

func (s *OnchainTransactionsSection) Txs() domain.VaultTransactions {
	return s.txs
}

func (s *OnchainTransactionsSection) update(
	*Env, *domain.Vault, VaultMessage,
) tea.Cmd {
	return nil
}

// DelegateSection collects our signature of the unvault transaction and hands
// it to the daemon once it is complete.
type DelegateSection struct {
	signer     *Signer[*UnvaultTarget]
	warning    error
	submitting bool
	delegated  bool
}

func newDelegateSection(tx domain.UnvaultTransaction, env *Env) *DelegateSection {
	return &DelegateSection{
		signer: NewSigner(NewUnvaultTarget(tx), env.Device, env.SigningTimeout),
	}
}

func (s *DelegateSection) Title(domain.Vault) string { return "Delegate vault" }

func (s *DelegateSection) Signer() *Signer[*UnvaultTarget] {
	return s.signer
}

func (s *DelegateSection) Warning() error {
	return s.warning
}

// Processing returns whether the signed unvault transaction is being
// submitted to the daemon.
func (s *DelegateSection) Processing() bool {
	return s.submitting
}

// Delegated returns whether the daemon accepted the signed unvault
// transaction.
func (s *DelegateSection) Delegated() bool {
	return s.delegated
}

func (s *DelegateSection) update(
	env *Env, vault *domain.Vault, msg VaultMessage,
) tea.Cmd {
	switch m := msg.(type) {
	case DelegateMsg:
		s.warning = nil
		cmd := mapSignCmd(s.signer.Update(m.Msg), func(sm SignMessage) VaultMessage {
			return DelegateMsg{sm}
		})
		if !s.signer.Signed() || s.submitting || s.delegated {
			return cmd
		}
		s.submitting = true
		return tea.Batch(
			cmd, env.setUnvaultTx(vault.Outpoint, s.signer.Target().UnvaultTx),
		)
	case DelegatedMsg:
		if !s.submitting {
			return nil
		}
		s.submitting = false
		if m.Err != nil {
			s.warning = NewError(m.Err)
			return nil
		}
		s.warning = nil
		s.delegated = true
	}
	return nil
}

// SecureSection collects our signatures of the revocation transactions and
// hands the bundle to the daemon after every signature.
type SecureSection struct {
	signer  *Signer[*RevocationTarget]
	warning error
	secured bool
}

func newSecureSection(txs domain.RevocationTransactions, env *Env) *SecureSection {
	return &SecureSection{
		signer: NewSigner(NewRevocationTarget(txs), env.Device, env.SigningTimeout),
	}
}

func (s *SecureSection) Title(domain.Vault) string { return "Create vault" }

func (s *SecureSection) Signer() *Signer[*RevocationTarget] {
	return s.signer
}

func (s *SecureSection) Warning() error {
	return s.warning
}

// Secured returns whether the daemon accepted the last submitted bundle and
// every transaction of it carries our signature.
func (s *SecureSection) Secured() bool {
	return s.secured && s.signer.Signed()
}

func (s *SecureSection) update(
	env *Env, vault *domain.Vault, msg VaultMessage,
) tea.Cmd {
	switch m := msg.(type) {
	case SecureMsg:
		s.warning = nil
		cmd := mapSignCmd(s.signer.Update(m.Msg), func(sm SignMessage) VaultMessage {
			return SecureMsg{sm}
		})
		if _, ok := m.Msg.(SignResultMsg); !ok ||
			s.signer.Err() != nil || s.signer.Processing() {
			return cmd
		}
		s.secured = false
		t := s.signer.Target()
		return tea.Batch(cmd, env.setRevocationTxs(
			vault.Outpoint, t.EmergencyTx, t.EmergencyUnvaultTx, t.CancelTx,
		))
	case SecuredMsg:
		if m.Err != nil {
			s.warning = NewError(m.Err)
			return nil
		}
		s.warning = nil
		s.secured = true
	}
	return nil
}

// RevaultSection asks for the confirmation to cancel the unvault of the
// vault and broadcasts the cancel transaction.
type RevaultSection struct {
	processing bool
	success    bool
	warning    error
}

func (s *RevaultSection) Title(domain.Vault) string { return "Revault funds" }

func (s *RevaultSection) Processing() bool {
	return s.processing
}

func (s *RevaultSection) Success() bool {
	return s.success
}

func (s *RevaultSection) Warning() error {
	return s.warning
}

func (s *RevaultSection) update(
	env *Env, vault *domain.Vault, msg VaultMessage,
) tea.Cmd {
	switch m := msg.(type) {
	case RevaultMsg:
		if s.processing || s.success {
			return nil
		}
		s.processing = true
		s.warning = nil
		return env.revault(vault.Outpoint)
	case RevaultedMsg:
		// The cancel may have been broadcast by a previous revault section
		// of the vault, success applies anyway.
		if m.Err == nil {
			s.processing = false
			s.warning = nil
			s.success = true
			vault.Status = domain.VaultStatusCanceling
			return nil
		}
		if !s.processing {
			return nil
		}
		s.processing = false
		s.warning = NewError(m.Err)
	}
	return nil
}

// mapSignCmd wraps the signing message returned by cmd into the message of
// the section that issued it.
func mapSignCmd(cmd tea.Cmd, wrap func(SignMessage) VaultMessage) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd()
		if m, ok := msg.(SignMessage); ok {
			return wrap(m)
		}
		return msg
	}
}
