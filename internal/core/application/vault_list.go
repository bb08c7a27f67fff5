package application

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/revault/revault-gui/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// VaultList holds the vaults listed by the daemon and the controller of the
// one selected by the user.
type VaultList struct {
	env *Env

	vaults   []domain.Vault
	info     *domain.DaemonInfo
	warning  error
	loading  bool
	selected *Vault
}

func NewVaultList(env *Env) *VaultList {
	return &VaultList{env: env}
}

// Init loads daemon info and the vault list.
func (l *VaultList) Init() tea.Cmd {
	return l.Update(RefreshMsg{})
}

func (l *VaultList) Update(msg ListMessage) tea.Cmd {
	switch m := msg.(type) {
	case RefreshMsg:
		l.warning = nil
		l.loading = true
		return tea.Batch(l.env.getInfo(), l.env.listVaults())

	case InfoLoadedMsg:
		if m.Err != nil {
			l.setWarning(m.Err, "failed to get daemon info")
			return nil
		}
		info := m.Info
		l.info = &info

	case VaultsLoadedMsg:
		l.loading = false
		if m.Err != nil {
			l.setWarning(m.Err, "failed to list vaults")
			return nil
		}
		l.vaults = m.Vaults
		if l.selected == nil {
			return nil
		}
		for _, v := range l.vaults {
			if l.selected.Reconcile(v) {
				break
			}
		}

	case SelectVaultMsg:
		vault, ok := l.find(m.Outpoint)
		if !ok {
			l.setWarning(ErrVaultNotFound, "failed to select vault")
			return nil
		}
		l.warning = nil
		l.selected = NewVault(vault, l.env)
		return tagCmd(m.Outpoint, l.selected.Load())

	case CloseVaultMsg:
		l.selected = nil

	case VaultMsg:
		if l.selected == nil || l.selected.Vault().Outpoint != m.Outpoint {
			return nil
		}
		return tagCmd(m.Outpoint, l.selected.Update(m.Msg))
	}
	return nil
}

func (l *VaultList) Vaults() []domain.Vault {
	return l.vaults
}

// Info returns the last daemon info, if any was loaded.
func (l *VaultList) Info() (domain.DaemonInfo, bool) {
	if l.info == nil {
		return domain.DaemonInfo{}, false
	}
	return *l.info, true
}

func (l *VaultList) Warning() error {
	return l.warning
}

func (l *VaultList) Loading() bool {
	return l.loading
}

// Selected returns the controller of the selected vault, nil if none.
func (l *VaultList) Selected() *Vault {
	return l.selected
}

func (l *VaultList) find(outpoint domain.Outpoint) (domain.Vault, bool) {
	for _, v := range l.vaults {
		if v.Outpoint == outpoint {
			return v, true
		}
	}
	return domain.Vault{}, false
}

func (l *VaultList) setWarning(err error, msg string) {
	l.warning = NewError(err)
	log.WithError(err).Warn(msg)
}

// tagCmd addresses the messages returned by cmd to the vault with the given
// outpoint.
func tagCmd(outpoint domain.Outpoint, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		switch msg := cmd().(type) {
		case VaultMessage:
			return VaultMsg{outpoint, msg}
		case tea.BatchMsg:
			cmds := make(tea.BatchMsg, 0, len(msg))
			for _, c := range msg {
				cmds = append(cmds, tagCmd(outpoint, c))
			}
			return cmds
		default:
			return msg
		}
	}
}
