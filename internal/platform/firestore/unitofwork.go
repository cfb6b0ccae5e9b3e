package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
)

var errNilTxFunc = errors.New("firestore: transaction function is nil")

type txContextKey struct{}

// ContextWithTx stores a running transaction in the context so repositories
// invoked through a unit of work participate in the same transaction.
func ContextWithTx(ctx context.Context, tx *firestore.Transaction) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TxFromContext returns the transaction carried by ctx, if any.
func TxFromContext(ctx context.Context) (*firestore.Transaction, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*firestore.Transaction)
	return tx, ok && tx != nil
}

// RunInTx executes fn inside a Firestore transaction, exposing it to
// repositories via the context. Implements the unit-of-work contract used by
// services that group writes across repositories.
func (p *Provider) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return WrapError("transaction", errNilTxFunc)
	}
	return p.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ContextWithTx(ctx, tx))
	})
}
