package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/revault/revault-gui/internal/core/application"
	"github.com/revault/revault-gui/internal/core/domain"
)

// Model is the bubbletea model of the vault viewer. It forwards user intents
// to the vault list controller and renders its state.
type Model struct {
	list      *application.VaultList
	keys      KeyMap
	theme     Theme
	converter domain.Converter

	cursor int
	width  int
	height int
}

// NewModel returns a viewer over the vaults of the daemon reachable through
// env. Amounts are rendered with converter.
func NewModel(env *application.Env, converter domain.Converter) Model {
	return Model{
		list:      application.NewVaultList(env),
		keys:      DefaultKeyMap,
		theme:     DefaultTheme,
		converter: converter,
	}
}

func (model Model) Init() tea.Cmd {
	return model.list.Init()
}

func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		return model, nil

	case tea.KeyMsg:
		if key.Matches(message, model.keys.Quit) {
			return model, tea.Quit
		}
		if key.Matches(message, model.keys.Refresh) {
			return model, model.list.Update(application.RefreshMsg{})
		}
		if model.list.Selected() != nil {
			return model, model.handleVaultKeys(message)
		}
		return model, model.handleListKeys(message)

	case application.ListMessage:
		cmd := model.list.Update(message)
		model.clampCursor()
		return model, cmd
	}
	return model, nil
}

// List returns the controller rendered by the model.
func (model Model) List() *application.VaultList {
	return model.list
}

// Cursor returns the index of the highlighted vault.
func (model Model) Cursor() int {
	return model.cursor
}

func (model *Model) handleListKeys(message tea.KeyMsg) tea.Cmd {
	vaults := model.list.Vaults()
	switch {
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}
	case key.Matches(message, model.keys.Down):
		if model.cursor < len(vaults)-1 {
			model.cursor++
		}
	case key.Matches(message, model.keys.Open):
		if len(vaults) == 0 {
			return nil
		}
		return model.list.Update(application.SelectVaultMsg{
			Outpoint: vaults[model.cursor].Outpoint,
		})
	}
	return nil
}

func (model *Model) handleVaultKeys(message tea.KeyMsg) tea.Cmd {
	selected := model.list.Selected()
	vault := selected.Vault()

	var msg application.VaultMessage
	switch {
	case key.Matches(message, model.keys.Back):
		return model.list.Update(application.CloseVaultMsg{})
	case key.Matches(message, model.keys.History):
		msg = application.ListOnchainTransactionsMsg{}
	case key.Matches(message, model.keys.Delegate):
		if canDelegate(vault) {
			msg = application.SelectDelegateMsg{}
		}
	case key.Matches(message, model.keys.Secure):
		if canSecure(vault) {
			msg = application.SelectSecureMsg{}
		}
	case key.Matches(message, model.keys.Revault):
		if canRevault(vault) {
			msg = application.SelectRevaultMsg{}
		}
	case key.Matches(message, model.keys.Confirm):
		if _, ok := selected.Section().(*application.RevaultSection); ok {
			msg = application.RevaultMsg{}
		}
	case key.Matches(message, model.keys.Sign):
		switch selected.Section().(type) {
		case *application.DelegateSection:
			msg = application.DelegateMsg{Msg: application.SignRequestMsg{}}
		case *application.SecureSection:
			msg = application.SecureMsg{Msg: application.SignRequestMsg{}}
		}
	}
	if msg == nil {
		return nil
	}
	return model.list.Update(application.VaultMsg{
		Outpoint: vault.Outpoint, Msg: msg,
	})
}

func (model *Model) clampCursor() {
	last := len(model.list.Vaults()) - 1
	if model.cursor > last {
		model.cursor = last
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
}

// canDelegate returns whether the unvault transaction of the vault can be
// signed and handed to the managers.
func canDelegate(vault domain.Vault) bool {
	return vault.Status == domain.VaultStatusSecured
}

// canSecure returns whether the revocation transactions of the vault can be
// signed.
func canSecure(vault domain.Vault) bool {
	return vault.Status == domain.VaultStatusFunded ||
		vault.Status == domain.VaultStatusSecuring
}

// canRevault returns whether an unvault of the vault is in flight and can be
// canceled.
func canRevault(vault domain.Vault) bool {
	return vault.Status == domain.VaultStatusUnvaulting ||
		vault.Status == domain.VaultStatusUnvaulted
}
