package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"wasteportal/pkg/domain"
)

// Wallets keeps the reward wallet of each resident under per-user keys.
type Wallets struct {
	mu              sync.Mutex
	kv              domain.KeyValueStore
	balancePerPoint float64
	now             func() time.Time
	logger          Logger
}

// NewWallets returns wallets persisted in kv. Each point is worth
// balancePerPoint in balance.
func NewWallets(kv domain.KeyValueStore, balancePerPoint float64, logger Logger) *Wallets {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Wallets{kv: kv, balancePerPoint: balancePerPoint, now: time.Now, logger: logger}
}

func balanceKey(userID int64) string { return fmt.Sprintf("balance_%d", userID) }
func pointsKey(userID int64) string  { return fmt.Sprintf("points_%d", userID) }
func historyKey(userID int64) string { return fmt.Sprintf("history_%d", userID) }

// Get returns the wallet of userID. Missing keys read as an empty wallet;
// unreadable values are logged and read as empty too.
func (w *Wallets) Get(ctx context.Context, userID int64) (domain.Wallet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.read(ctx, userID)
}

// Credit adds points to userID and appends a history entry. Points and
// balance are written before history; when a write fails the keys already
// written are restored, so history never lists a credit the totals lack.
func (w *Wallets) Credit(ctx context.Context, userID, points int64, reason string) (domain.Wallet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	wallet, err := w.read(ctx, userID)
	if err != nil {
		return domain.Wallet{}, err
	}
	amount := float64(points) * w.balancePerPoint
	wallet.Points += points
	wallet.Balance += amount
	wallet.History = append(wallet.History, domain.WalletEntry{
		At:      w.now().UTC().Format(TimestampLayout),
		Points:  points,
		Balance: amount,
		Reason:  reason,
	})
	history, err := json.Marshal(wallet.History)
	if err != nil {
		return domain.Wallet{}, fmt.Errorf("encode wallet history: %w", err)
	}
	writes := []walletWrite{
		{key: pointsKey(userID), value: strconv.FormatInt(wallet.Points, 10)},
		{key: balanceKey(userID), value: strconv.FormatFloat(wallet.Balance, 'f', -1, 64)},
		{key: historyKey(userID), value: string(history)},
	}
	for i := range writes {
		wr := &writes[i]
		var err error
		wr.old, wr.existed, err = w.kv.Get(ctx, wr.key)
		if err == nil {
			err = w.kv.Set(ctx, wr.key, wr.value)
		}
		if err != nil {
			w.restore(ctx, userID, writes[:i])
			return domain.Wallet{}, fmt.Errorf("save wallet %d: %w", userID, err)
		}
	}
	return wallet, nil
}

type walletWrite struct {
	key, value string
	old        string
	existed    bool
}

// restore puts back the values written keys held before a failed credit.
func (w *Wallets) restore(ctx context.Context, userID int64, done []walletWrite) {
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		var err error
		if done[i].existed {
			err = w.kv.Set(ctx, done[i].key, done[i].old)
		} else {
			err = w.kv.Delete(ctx, done[i].key)
		}
		if err != nil {
			w.logger.Error("restore wallet after failed credit", "user", userID, "key", done[i].key, "error", err)
		}
	}
}

func (w *Wallets) read(ctx context.Context, userID int64) (domain.Wallet, error) {
	wallet := domain.Wallet{UserID: userID, History: []domain.WalletEntry{}}
	raw, ok, err := w.kv.Get(ctx, balanceKey(userID))
	if err != nil {
		return domain.Wallet{}, err
	}
	if ok {
		if v, perr := strconv.ParseFloat(raw, 64); perr == nil {
			wallet.Balance = v
		} else {
			w.logger.Warn("wallet balance unreadable", "user", userID, "error", perr)
		}
	}
	raw, ok, err = w.kv.Get(ctx, pointsKey(userID))
	if err != nil {
		return domain.Wallet{}, err
	}
	if ok {
		if v, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			wallet.Points = v
		} else {
			w.logger.Warn("wallet points unreadable", "user", userID, "error", perr)
		}
	}
	raw, ok, err = w.kv.Get(ctx, historyKey(userID))
	if err != nil {
		return domain.Wallet{}, err
	}
	if ok {
		var history []domain.WalletEntry
		if perr := json.Unmarshal([]byte(raw), &history); perr == nil && history != nil {
			wallet.History = history
		} else if perr != nil {
			w.logger.Warn("wallet history unreadable", "user", userID, "error", perr)
		}
	}
	return wallet, nil
}
