package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

const completeAttempts = 3

// Options tunes the guard.
type Options struct {
	TTL          time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// Guard runs an operation at most once per key and replays its outcome.
type Guard struct {
	store Store
	opts  Options
	logg  *logger.Logger
}

// NewGuard builds a guard on top of the given store.
func NewGuard(store Store, opts Options, logg *logger.Logger) (*Guard, error) {
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Guard{store: store, opts: opts, logg: logg}, nil
}

// Do executes fn once for key. A later call with the same key and
// fingerprint decodes the stored result into dst (or returns the stored
// domain error) and reports replayed=true. An empty key always executes fn.
//
// Retryable failures release the key so the client can try again.
func (g *Guard) Do(ctx context.Context, key, fingerprint string, dst any, fn func(ctx context.Context) (any, error)) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		result, err := fn(ctx)
		if err != nil {
			return false, err
		}
		return false, decodeInto(result, dst)
	}

	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := g.store.Claim(ctx, key, fingerprint, g.opts.TTL)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "claim idempotency key")
		}
		if claimed {
			return false, g.execute(ctx, key, fingerprint, dst, fn)
		}

		record, err := g.await(ctx, key, fingerprint)
		if errors.Is(err, ErrNotFound) {
			// The holder released the key; claim it again.
			continue
		}
		if err != nil {
			return false, err
		}
		return true, recordOutcome(record, dst)
	}
	return false, pkgerrors.New(pkgerrors.CodeConflict, "idempotency key is contended")
}

func (g *Guard) execute(ctx context.Context, key, fingerprint string, dst any, fn func(ctx context.Context) (any, error)) error {
	result, runErr := fn(ctx)
	if runErr != nil {
		return g.finishWithError(ctx, key, fingerprint, runErr)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		g.release(ctx, key)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotent result")
	}
	g.complete(ctx, key, Record{Fingerprint: fingerprint, Response: payload})
	return decodeRaw(payload, dst)
}

func (g *Guard) finishWithError(ctx context.Context, key, fingerprint string, runErr error) error {
	typed := pkgerrors.As(runErr)
	if typed == nil || pkgerrors.Retryable(runErr) {
		g.release(ctx, key)
		return runErr
	}
	record := Record{
		Fingerprint:  fingerprint,
		ErrorCode:    string(typed.Code()),
		ErrorMessage: typed.Message(),
	}
	g.complete(ctx, key, record)
	return runErr
}

// complete stores the outcome, retrying briefly. If the store keeps failing
// the key is released so a retry runs the operation again instead of
// waiting on a pending key until it expires.
func (g *Guard) complete(ctx context.Context, key string, record Record) {
	storeCtx := context.WithoutCancel(ctx)
	var err error
	for attempt := 0; attempt < completeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(g.opts.PollInterval)
		}
		if err = g.store.Complete(storeCtx, key, record, g.opts.TTL); err == nil {
			return
		}
	}
	logCtx := g.logg.WithFields(ctx, map[string]any{"idempotency_key": key, "attempts": completeAttempts})
	g.logg.Error(logCtx, "idempotency.complete_failed", err)
	g.release(ctx, key)
}

// await polls the record held by another request until it completes.
func (g *Guard) await(ctx context.Context, key, fingerprint string) (*Record, error) {
	waitCtx, cancel := context.WithTimeout(ctx, g.opts.WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(g.opts.PollInterval)
	defer ticker.Stop()

	for {
		record, err := g.store.Get(waitCtx, key)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrNotFound
		case err != nil && waitCtx.Err() == nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, err, "read idempotency key")
		case err == nil && record.Fingerprint != fingerprint:
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused for a different request")
		case err == nil && record.State == StateCompleted:
			return record, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeTransient, ctx.Err(), "waiting for idempotent request")
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress")
		case <-ticker.C:
		}
	}
}

func (g *Guard) release(ctx context.Context, key string) {
	if err := g.store.Release(context.WithoutCancel(ctx), key); err != nil {
		logCtx := g.logg.WithField(ctx, "idempotency_key", key)
		g.logg.Error(logCtx, "idempotency.release_failed", err)
	}
}

func recordOutcome(record *Record, dst any) error {
	if record.ErrorCode != "" {
		return pkgerrors.New(pkgerrors.Code(record.ErrorCode), record.ErrorMessage)
	}
	return decodeRaw(record.Response, dst)
}

func decodeInto(result, dst any) error {
	if dst == nil || result == nil {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode result")
	}
	return decodeRaw(payload, dst)
}

func decodeRaw(payload json.RawMessage, dst any) error {
	if dst == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode idempotent result")
	}
	return nil
}
