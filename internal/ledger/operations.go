package ledger

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"assetverse/internal/errors"
	"assetverse/internal/inventory"
	"assetverse/internal/schema"
	"assetverse/pkg/exception"
)

// RegisterPlayer creates the account of p with the initial grant.
func (e *Engine) RegisterPlayer(ctx context.Context, p schema.Principal, name string) (acc schema.Account, err error) {
	defer func(start time.Time) { e.observe(schema.OpRegisterPlayer, start, err) }(time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, err = e.accounts.Register(ctx, p, name)
	if err != nil {
		return schema.Account{}, err
	}
	e.emit(schema.PlayerCreated{Account: p, Name: name, Balance: acc.Balance})
	logs.Infof("player %s registered, balance %s", p, acc.Balance)
	return acc, nil
}

// GetPlayer returns the account of p.
func (e *Engine) GetPlayer(ctx context.Context, p schema.Principal) (acc schema.Account, err error) {
	defer func(start time.Time) { e.observe(schema.OpGetPlayer, start, err) }(time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.accounts.Get(ctx, p)
}

// RegisterAsset appends an asset to game's catalog.
func (e *Engine) RegisterAsset(ctx context.Context, game schema.GameID, asset schema.AssetID, price schema.Balance) (def schema.AssetDef, err error) {
	defer func(start time.Time) { e.observe(schema.OpRegisterAsset, start, err) }(time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	def, err = e.catalog.Register(ctx, game, asset, price)
	if err != nil {
		return schema.AssetDef{}, err
	}
	e.emit(schema.AssetCreated{Game: game, Name: asset, Price: price})
	logs.Infof("asset %s/%s registered at %s", game, asset, price)
	return def, nil
}

// ListGames returns registered games in registration order, duplicates kept.
func (e *Engine) ListGames(ctx context.Context) (games []schema.GameID, err error) {
	defer func(start time.Time) { e.observe(schema.OpListGames, start, err) }(time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.catalog.ListGames(ctx)
}

// ListAssets returns game's assets in registration order.
func (e *Engine) ListAssets(ctx context.Context, game schema.GameID) (defs []schema.AssetDef, err error) {
	defer func(start time.Time) { e.observe(schema.OpListAssets, start, err) }(time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.catalog.ListAssets(ctx, game)
}

// PurchaseAsset buys count units of asset from game for p.
func (e *Engine) PurchaseAsset(ctx context.Context, p schema.Principal, game schema.GameID, asset schema.AssetID, count schema.Quantity) (rec schema.AssetPurchased, err error) {
	defer func(start time.Time) { e.observe(schema.OpPurchaseAsset, start, err) }(time.Now())
	if err := requirePositive(count); err != nil {
		return rec, err
	}
	if err := requireIDs(string(p), string(game), string(asset)); err != nil {
		return rec, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	price, err := e.catalog.FindPrice(ctx, game, asset)
	if err != nil {
		return rec, err
	}
	acc, err := e.accounts.Get(ctx, p)
	if err != nil {
		return rec, err
	}
	total, ok := price.MulUint64(uint64(count))
	if !ok {
		return rec, errors.Wrapf(exception.ErrArithmeticOverflow, "%s x %d", price, count)
	}
	balance, ok := acc.Balance.Sub(total)
	if !ok {
		return rec, errors.Wrapf(exception.ErrInsufficientBalance, "balance %s, total %s", acc.Balance, total)
	}
	if _, err := inventory.Increase(acc.Inventory, asset, count); err != nil {
		return rec, err
	}
	acc.Balance = balance

	if err := e.accounts.Save(ctx, acc); err != nil {
		return rec, err
	}
	rec = schema.AssetPurchased{Account: p, Asset: asset, Count: count, TotalPrice: total}
	e.emit(rec)
	return rec, nil
}

// RemoveAsset discards count units of asset from p's inventory without refund.
func (e *Engine) RemoveAsset(ctx context.Context, p schema.Principal, asset schema.AssetID, count schema.Quantity) (rec schema.AssetModified, err error) {
	defer func(start time.Time) { e.observe(schema.OpRemoveAsset, start, err) }(time.Now())
	if err := requirePositive(count); err != nil {
		return rec, err
	}
	if err := requireIDs(string(p), string(asset)); err != nil {
		return rec, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.adjust(ctx, p, asset, count, false)
}

// ModifyAsset adjusts p's holding of asset by count without payment.
// Increasing creates the entry when absent; decreasing requires it.
func (e *Engine) ModifyAsset(ctx context.Context, p schema.Principal, asset schema.AssetID, count schema.Quantity, increase bool) (rec schema.AssetModified, err error) {
	defer func(start time.Time) { e.observe(schema.OpModifyAsset, start, err) }(time.Now())
	if err := requirePositive(count); err != nil {
		return rec, err
	}
	if err := requireIDs(string(p), string(asset)); err != nil {
		return rec, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.adjust(ctx, p, asset, count, increase)
}

func (e *Engine) adjust(ctx context.Context, p schema.Principal, asset schema.AssetID, count schema.Quantity, increase bool) (schema.AssetModified, error) {
	acc, err := e.accounts.Get(ctx, p)
	if err != nil {
		return schema.AssetModified{}, err
	}
	var next schema.Quantity
	if increase {
		next, err = inventory.Increase(acc.Inventory, asset, count)
	} else {
		next, err = inventory.Decrease(acc.Inventory, asset, count)
	}
	if err != nil {
		return schema.AssetModified{}, err
	}
	if err := e.accounts.Save(ctx, acc); err != nil {
		return schema.AssetModified{}, err
	}
	rec := schema.AssetModified{Account: p, Asset: asset, NewCount: next, Increased: increase}
	e.emit(rec)
	return rec, nil
}

// GiftAsset moves amount units of asset from sender to receiver. Both
// accounts are validated before either is written and the two writes are
// committed together when the store supports batches.
func (e *Engine) GiftAsset(ctx context.Context, sender, receiver schema.Principal, asset schema.AssetID, amount schema.Quantity) (rec schema.AssetGifted, err error) {
	defer func(start time.Time) { e.observe(schema.OpGiftAsset, start, err) }(time.Now())
	if err := requirePositive(amount); err != nil {
		return rec, err
	}
	if err := requireIDs(string(sender), string(receiver), string(asset)); err != nil {
		return rec, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	from, err := e.accounts.Get(ctx, sender)
	if err != nil {
		return rec, err
	}
	if _, err := inventory.Decrease(from.Inventory, asset, amount); err != nil {
		return rec, err
	}

	// A self gift applies both legs to the one loaded account.
	to := from
	if receiver != sender {
		to, err = e.accounts.Get(ctx, receiver)
		if err != nil {
			return rec, err
		}
	}
	if _, err := inventory.Increase(to.Inventory, asset, amount); err != nil {
		return rec, err
	}

	if receiver == sender {
		err = e.accounts.Save(ctx, from)
	} else {
		err = e.accounts.SaveAll(ctx, from, to)
	}
	if err != nil {
		return rec, err
	}
	rec = schema.AssetGifted{From: sender, To: receiver, Asset: asset, Count: amount}
	e.emit(rec)
	return rec, nil
}

// ExchangeAsset trades giveUnits of give for takeUnits of take. Prices are
// resolved across every game, first registered match wins. The surrendered
// value must cover the received value; the difference is refunded.
func (e *Engine) ExchangeAsset(ctx context.Context, p schema.Principal, give schema.AssetID, giveUnits schema.Quantity, take schema.AssetID, takeUnits schema.Quantity) (rec schema.AssetExchanged, err error) {
	defer func(start time.Time) { e.observe(schema.OpExchangeAsset, start, err) }(time.Now())
	if err := requirePositive(giveUnits, takeUnits); err != nil {
		return rec, err
	}
	if err := requireIDs(string(p), string(give), string(take)); err != nil {
		return rec, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	givePrice, err := e.catalog.FindPriceAnyGame(ctx, give)
	if err != nil {
		return rec, err
	}
	takePrice, err := e.catalog.FindPriceAnyGame(ctx, take)
	if err != nil {
		return rec, err
	}
	totalGive, ok := givePrice.MulUint64(uint64(giveUnits))
	if !ok {
		return rec, errors.Wrapf(exception.ErrArithmeticOverflow, "%s x %d", givePrice, giveUnits)
	}
	totalTake, ok := takePrice.MulUint64(uint64(takeUnits))
	if !ok {
		return rec, errors.Wrapf(exception.ErrArithmeticOverflow, "%s x %d", takePrice, takeUnits)
	}
	refund, ok := totalGive.Sub(totalTake)
	if !ok {
		return rec, errors.Wrapf(exception.ErrInsufficientBalance, "give %s, take %s", totalGive, totalTake)
	}

	acc, err := e.accounts.Get(ctx, p)
	if err != nil {
		return rec, err
	}
	if _, err := inventory.Decrease(acc.Inventory, give, giveUnits); err != nil {
		return rec, err
	}
	if _, err := inventory.Increase(acc.Inventory, take, takeUnits); err != nil {
		return rec, err
	}
	balance, ok := acc.Balance.Add(refund)
	if !ok {
		return rec, errors.Wrapf(exception.ErrArithmeticOverflow, "refund %s", refund)
	}
	acc.Balance = balance

	if err := e.accounts.Save(ctx, acc); err != nil {
		return rec, err
	}
	rec = schema.AssetExchanged{
		Account:   p,
		FromAsset: give,
		ToAsset:   take,
		FromCount: giveUnits,
		ToCount:   takeUnits,
		Refund:    refund,
	}
	e.emit(rec)
	return rec, nil
}
