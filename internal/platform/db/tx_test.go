package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
	commitErr error
}

func (f *fakeTx) Commit(context.Context) error {
	f.commits++
	return f.commitErr
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rollbacks++
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	opts     pgx.TxOptions
	beginErr error
}

func (f *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	f.opts = opts
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	called := false
	err := WithTx(context.Background(), b, func(pgx.Tx) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, pgx.RepeatableRead, b.opts.IsoLevel)
	assert.Equal(t, 1, b.tx.commits)
	assert.Zero(t, b.tx.rollbacks)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	boom := errors.New("boom")
	err := WithTxOptions(context.Background(), b, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(pgx.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, pgx.ReadCommitted, b.opts.IsoLevel)
	assert.Zero(t, b.tx.commits)
	assert.Equal(t, 1, b.tx.rollbacks)
}

func TestWithTxBeginAndCommitFailures(t *testing.T) {
	b := &fakeBeginner{beginErr: errors.New("no conn")}
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return nil })
	assert.ErrorContains(t, err, "begin tx")

	b = &fakeBeginner{tx: &fakeTx{commitErr: errors.New("serialization")}}
	err = WithTx(context.Background(), b, func(pgx.Tx) error { return nil })
	assert.ErrorContains(t, err, "commit tx")
	assert.Equal(t, 1, b.tx.rollbacks)

	assert.Error(t, WithTx(context.Background(), nil, func(pgx.Tx) error { return nil }))
}
