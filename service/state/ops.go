package state

import (
	"context"
	"fmt"

	"nftlend/core"

	"github.com/shopspring/decimal"
)

type opKind int

const (
	opTransferUnderlying opKind = iota
	opMintShare
	opBurnShare
	opTransferNFT
)

// op queued custody movement
type op struct {
	kind    opKind
	asset   string
	tokenID string
	from    string
	to      string
	amount  decimal.Decimal
}

func (o op) String() string {
	switch o.kind {
	case opMintShare:
		return fmt.Sprintf("mint %s %s to %s", o.amount, o.asset, o.to)
	case opBurnShare:
		return fmt.Sprintf("burn %s %s of %s", o.amount, o.asset, o.from)
	case opTransferNFT:
		return fmt.Sprintf("transfer %s #%s %s -> %s", o.asset, o.tokenID, o.from, o.to)
	default:
		return fmt.Sprintf("transfer %s %s %s -> %s", o.amount, o.asset, o.from, o.to)
	}
}

func (o op) apply(ctx context.Context, c core.ICustody) error {
	switch o.kind {
	case opMintShare:
		return c.MintShare(ctx, o.asset, o.to, o.amount)
	case opBurnShare:
		return c.BurnShare(ctx, o.asset, o.from, o.amount)
	case opTransferNFT:
		return c.TransferNFT(ctx, o.asset, o.tokenID, o.from, o.to)
	default:
		return c.TransferUnderlying(ctx, o.asset, o.from, o.to, o.amount)
	}
}

// revert applies the inverse movement
func (o op) revert(ctx context.Context, c core.ICustody) error {
	switch o.kind {
	case opMintShare:
		return c.BurnShare(ctx, o.asset, o.to, o.amount)
	case opBurnShare:
		return c.MintShare(ctx, o.asset, o.from, o.amount)
	case opTransferNFT:
		return c.TransferNFT(ctx, o.asset, o.tokenID, o.to, o.from)
	default:
		return c.TransferUnderlying(ctx, o.asset, o.to, o.from, o.amount)
	}
}

func (t *Txn) queue(o op) {
	if o.kind != opTransferNFT && !o.amount.IsPositive() {
		return
	}

	t.ops = append(t.ops, o)
}

// TransferUnderlying queues an underlying transfer, zero amounts are dropped
func (t *Txn) TransferUnderlying(assetID, from, to string, amount decimal.Decimal) {
	t.queue(op{kind: opTransferUnderlying, asset: assetID, from: from, to: to, amount: amount})
}

// MintShare queues a share mint, amounts are scaled
func (t *Txn) MintShare(assetID, to string, amount core.ScaledAmount) {
	t.queue(op{kind: opMintShare, asset: assetID, to: to, amount: amount.Raw()})
}

// BurnShare queues a share burn, amounts are scaled
func (t *Txn) BurnShare(assetID, from string, amount core.ScaledAmount) {
	t.queue(op{kind: opBurnShare, asset: assetID, from: from, amount: amount.Raw()})
}

// TransferNFT queues a token transfer
func (t *Txn) TransferNFT(collection, tokenID, from, to string) {
	t.queue(op{kind: opTransferNFT, asset: collection, tokenID: tokenID, from: from, to: to})
}
