package txn

import (
	"encoding/hex"

	"github.com/AlexZinkM/canopy-wallet/internal/model"
)

// ToSubmissionRequest maps a signed transaction to the send-raw wire format.
func ToSubmissionRequest(t *SignedTransaction) *model.RawTransaction {
	return &model.RawTransaction{
		Type: t.Tx.MessageType,
		Msg: model.RawMessage{
			FromAddress: hex.EncodeToString(t.Tx.FromAddress),
			ToAddress:   hex.EncodeToString(t.Tx.ToAddress),
			Amount:      t.Tx.Amount,
		},
		Signature: model.RawSignature{
			PublicKey: hex.EncodeToString(t.PublicKey),
			Signature: hex.EncodeToString(t.Signature),
		},
		Time:          t.Tx.Time,
		CreatedHeight: t.Tx.CreatedHeight,
		Fee:           t.Tx.Fee,
		Memo:          t.Tx.Memo,
		NetworkID:     t.Tx.NetworkID,
		ChainID:       t.Tx.ChainID,
	}
}
