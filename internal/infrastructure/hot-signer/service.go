package hotsigner

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/revault/revault-gui/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// service is a signing device holding an extended private key in memory.
// The key is treated as the root of every BIP32 derivation it signs for.
type service struct {
	root        *hdkeychain.ExtendedKey
	rootPubKey  []byte
	fingerprint uint32
}

func NewService(xprv string, net *chaincfg.Params) (ports.SigningDevice, error) {
	key, err := hdkeychain.NewKeyFromString(xprv)
	if err != nil {
		return nil, fmt.Errorf("invalid extended key: %w", err)
	}
	if !key.IsPrivate() {
		return nil, ErrNotPrivateKey
	}
	if !key.IsForNet(net) {
		return nil, ErrWrongNetwork
	}

	pubKey, err := key.ECPubKey()
	if err != nil {
		return nil, err
	}
	rootPubKey := pubKey.SerializeCompressed()

	return &service{
		root:        key,
		rootPubKey:  rootPubKey,
		fingerprint: Fingerprint(rootPubKey),
	}, nil
}

// Fingerprint returns the BIP32 fingerprint of the given compressed public
// key, in the byte order used by PSBT derivation records.
func Fingerprint(pubKey []byte) uint32 {
	return binary.LittleEndian.Uint32(btcutil.Hash160(pubKey)[:4])
}

// SignPsbt adds a signature to every P2WSH input the key can sign for and
// returns the same packet. Inputs already signed by the key are left as is.
func (s *service) SignPsbt(
	ctx context.Context, packet *psbt.Packet,
) (*psbt.Packet, error) {
	if packet == nil {
		return nil, ErrNullPsbt
	}

	updater, err := psbt.NewUpdater(packet)
	if err != nil {
		return nil, err
	}

	prevOuts := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range packet.Inputs {
		if in.WitnessUtxo != nil {
			prevOuts.AddPrevOut(
				packet.UnsignedTx.TxIn[i].PreviousOutPoint, in.WitnessUtxo,
			)
		}
	}
	sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, prevOuts)

	for i := range packet.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.signInput(updater, sigHashes, i); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return packet, nil
}

func (s *service) signInput(
	updater *psbt.Updater, sigHashes *txscript.TxSigHashes, inIndex int,
) error {
	ptx := updater.Upsbt
	in := ptx.Inputs[inIndex]
	if in.WitnessUtxo == nil || len(in.WitnessScript) == 0 {
		log.Debugf("skipping input %d: not a witness script input", inIndex)
		return nil
	}
	if len(in.FinalScriptWitness) > 0 {
		return nil
	}

	keys, err := s.signingKeys(in)
	if err != nil {
		return err
	}

	hashType := txscript.SigHashAll
	if in.SighashType != 0 {
		hashType = in.SighashType
	}

	for _, prvkey := range keys {
		pubkey := prvkey.PubKey()
		serializedPubkey := pubkey.SerializeCompressed()
		if hasSigned(in, serializedPubkey) {
			continue
		}

		hashForSignature, err := txscript.CalcWitnessSigHash(
			in.WitnessScript, sigHashes, hashType,
			ptx.UnsignedTx, inIndex, in.WitnessUtxo.Value,
		)
		if err != nil {
			return err
		}

		signature := ecdsa.Sign(prvkey, hashForSignature)
		if !signature.Verify(hashForSignature, pubkey) {
			return fmt.Errorf("signature verification failed")
		}

		sigWithSigHashType := append(signature.Serialize(), byte(hashType))
		outcome, err := updater.Sign(
			inIndex, sigWithSigHashType, serializedPubkey, nil, nil,
		)
		if err != nil {
			return err
		}
		if outcome != psbt.SignSuccesful {
			return fmt.Errorf("signature rejected with outcome %d", outcome)
		}
		// Sign replaces the input value, refresh the local copy.
		in = ptx.Inputs[inIndex]
	}
	return nil
}

// signingKeys returns the private keys of the input derivations rooted at
// our key. Inputs without derivations are signed with the root key itself if
// the witness script commits to it.
func (s *service) signingKeys(in psbt.PInput) ([]*btcec.PrivateKey, error) {
	if len(in.Bip32Derivation) == 0 {
		if !bytes.Contains(in.WitnessScript, s.rootPubKey) {
			return nil, nil
		}
		prvkey, err := s.root.ECPrivKey()
		if err != nil {
			return nil, err
		}
		return []*btcec.PrivateKey{prvkey}, nil
	}

	keys := make([]*btcec.PrivateKey, 0, len(in.Bip32Derivation))
	for _, derivation := range in.Bip32Derivation {
		if derivation.MasterKeyFingerprint != s.fingerprint {
			continue
		}

		key := s.root
		for _, index := range derivation.Bip32Path {
			var err error
			if key, err = key.Derive(index); err != nil {
				return nil, err
			}
		}
		prvkey, err := key.ECPrivKey()
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(prvkey.PubKey().SerializeCompressed(), derivation.PubKey) {
			log.Warnf(
				"derived key does not match pubkey %x of derivation record",
				derivation.PubKey,
			)
			continue
		}
		keys = append(keys, prvkey)
	}
	return keys, nil
}

func hasSigned(in psbt.PInput, pubkey []byte) bool {
	for _, sig := range in.PartialSigs {
		if bytes.Equal(sig.PubKey, pubkey) {
			return true
		}
	}
	return false
}
