package application

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil/psbt"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/revault/revault-gui/internal/core/domain"
	"github.com/revault/revault-gui/internal/core/ports"
)

// Target is the set of transactions a Signer collects signatures for.
type Target interface {
	Len() int
	Name(i int) string
	Transaction(i int) *psbt.Packet
	SetTransaction(i int, tx *psbt.Packet)
}

// UnvaultTarget is the single unvault transaction of the delegation workflow.
type UnvaultTarget struct {
	UnvaultTx *psbt.Packet
}

func NewUnvaultTarget(tx domain.UnvaultTransaction) *UnvaultTarget {
	return &UnvaultTarget{tx.UnvaultTx}
}

func (t *UnvaultTarget) Len() int { return 1 }

func (t *UnvaultTarget) Name(i int) string {
	if i != 0 {
		return ""
	}
	return "unvault"
}

func (t *UnvaultTarget) Transaction(i int) *psbt.Packet {
	if i != 0 {
		return nil
	}
	return t.UnvaultTx
}

func (t *UnvaultTarget) SetTransaction(i int, tx *psbt.Packet) {
	if i == 0 {
		t.UnvaultTx = tx
	}
}

// RevocationTarget is the emergency, emergency-unvault and cancel bundle of
// the securing workflow, in that order.
type RevocationTarget struct {
	EmergencyTx        *psbt.Packet
	EmergencyUnvaultTx *psbt.Packet
	CancelTx           *psbt.Packet
}

func NewRevocationTarget(txs domain.RevocationTransactions) *RevocationTarget {
	return &RevocationTarget{
		EmergencyTx:        txs.EmergencyTx,
		EmergencyUnvaultTx: txs.EmergencyUnvaultTx,
		CancelTx:           txs.CancelTx,
	}
}

var revocationTxNames = [3]string{"emergency", "emergency unvault", "cancel"}

func (t *RevocationTarget) Len() int { return 3 }

func (t *RevocationTarget) Name(i int) string {
	if i < 0 || i >= len(revocationTxNames) {
		return ""
	}
	return revocationTxNames[i]
}

func (t *RevocationTarget) Transaction(i int) *psbt.Packet {
	if slot := t.slot(i); slot != nil {
		return *slot
	}
	return nil
}

func (t *RevocationTarget) SetTransaction(i int, tx *psbt.Packet) {
	if slot := t.slot(i); slot != nil {
		*slot = tx
	}
}

func (t *RevocationTarget) slot(i int) **psbt.Packet {
	switch i {
	case 0:
		return &t.EmergencyTx
	case 1:
		return &t.EmergencyUnvaultTx
	case 2:
		return &t.CancelTx
	}
	return nil
}

// Signer drives the signing device over every transaction of its target and
// tracks which of them carry our signature.
type Signer[T Target] struct {
	target  T
	device  ports.SigningDevice
	timeout time.Duration

	signed     []bool
	processing bool
	err        Error

	// requests counts the device round-trips, pending is the one in flight.
	requests uint64
	pending  uint64
}

// NewSigner returns a signer with no signature collected. A zero timeout
// lets the device take as long as it needs.
func NewSigner[T Target](
	target T, device ports.SigningDevice, timeout time.Duration,
) *Signer[T] {
	return &Signer[T]{
		target:  target,
		device:  device,
		timeout: timeout,
		signed:  make([]bool, target.Len()),
	}
}

// Update applies a signing message. Only a SignRequestMsg returns a command:
// the device round-trip for the first transaction still unsigned.
func (s *Signer[T]) Update(msg SignMessage) tea.Cmd {
	switch m := msg.(type) {
	case SignRequestMsg:
		return s.requestSignature()
	case SignResultMsg:
		s.applyResult(m)
	}
	return nil
}

// Signed returns whether every transaction of the target has been signed.
func (s *Signer[T]) Signed() bool {
	for _, signed := range s.signed {
		if !signed {
			return false
		}
	}
	return true
}

func (s *Signer[T]) Target() T {
	return s.target
}

func (s *Signer[T]) IsSigned(i int) bool {
	if i < 0 || i >= len(s.signed) {
		return false
	}
	return s.signed[i]
}

// Processing returns whether a device round-trip is in flight.
func (s *Signer[T]) Processing() bool {
	return s.processing
}

// Err returns the failure of the last signing attempt, if any.
func (s *Signer[T]) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

func (s *Signer[T]) requestSignature() tea.Cmd {
	if s.processing || s.Signed() {
		return nil
	}
	if s.device == nil {
		s.err = NewError(ErrNoSigningDevice)
		return nil
	}

	index := s.nextUnsigned()
	packet, err := copyPacket(s.target.Transaction(index))
	if err != nil {
		s.err = UnexpectedError{fmt.Sprintf(
			"failed to copy %s transaction: %s", s.target.Name(index), err,
		)}
		return nil
	}

	s.requests++
	s.pending = s.requests
	s.processing = true
	s.err = nil
	device, timeout, request := s.device, s.timeout, s.pending
	return func() tea.Msg {
		ctx, cancel := signingContext(timeout)
		defer cancel()

		signed, err := device.SignPsbt(ctx, packet)
		return SignResultMsg{Index: index, Psbt: signed, Err: err, Request: request}
	}
}

func signingContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s *Signer[T]) applyResult(res SignResultMsg) {
	// While a round-trip is in flight, only its own result ends it.
	if s.processing && res.Request != s.pending {
		return
	}
	s.processing = false
	s.pending = 0

	if res.Err != nil {
		s.err = NewError(res.Err)
		return
	}
	if res.Index < 0 || res.Index >= s.target.Len() {
		s.err = UnexpectedError{fmt.Sprintf(
			"signing result for unknown transaction %d", res.Index,
		)}
		return
	}
	if res.Psbt == nil || res.Psbt.UnsignedTx == nil {
		s.err = NewError(domain.ErrNullPsbt)
		return
	}

	current := s.target.Transaction(res.Index)
	if current == nil || current.UnsignedTx == nil {
		s.err = NewError(domain.ErrNullPsbt)
		return
	}
	if current.UnsignedTx.TxHash() != res.Psbt.UnsignedTx.TxHash() {
		s.err = UnexpectedError{fmt.Sprintf(
			"signing device returned another transaction than %s",
			s.target.Name(res.Index),
		)}
		return
	}

	s.err = nil
	// A result without new signatures is a replay or a device that had
	// nothing to sign: the target is left as is.
	if countSignatures(res.Psbt) <= countSignatures(current) {
		return
	}
	s.target.SetTransaction(res.Index, res.Psbt)
	if hasSignatures(res.Psbt) {
		s.signed[res.Index] = true
	}
}

func (s *Signer[T]) nextUnsigned() int {
	for i, signed := range s.signed {
		if !signed {
			return i
		}
	}
	return -1
}

func copyPacket(packet *psbt.Packet) (*psbt.Packet, error) {
	if packet == nil {
		return nil, domain.ErrNullPsbt
	}
	buf := &bytes.Buffer{}
	if err := packet.Serialize(buf); err != nil {
		return nil, err
	}
	return psbt.NewFromRawBytes(buf, false)
}

func countSignatures(packet *psbt.Packet) int {
	count := 0
	for _, in := range packet.Inputs {
		count += len(in.PartialSigs)
		if isFinalized(in) {
			count++
		}
	}
	return count
}

// hasSignatures returns whether every input carries at least one signature.
func hasSignatures(packet *psbt.Packet) bool {
	if len(packet.Inputs) == 0 {
		return false
	}
	for _, in := range packet.Inputs {
		if len(in.PartialSigs) == 0 && !isFinalized(in) {
			return false
		}
	}
	return true
}

func isFinalized(in psbt.PInput) bool {
	return len(in.FinalScriptWitness) > 0 || len(in.FinalScriptSig) > 0
}
