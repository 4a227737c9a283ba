package cart

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/internal/localstore"
	"github.com/angelmondragon/storefront/internal/notifications"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	msgMergeFailed  = "Could not merge your guest cart. It will be retried on your next visit."
	msgFetchFailed  = "Could not load your cart from the server."
	msgAddFailed    = "Could not sync cart with the server. Please try again."
	msgUpdateFailed = "Could not update item quantity. Please check your connection."
	msgRemoveFailed = "Could not remove the item from your cart on the server."
	msgClearFailed  = "Could not clear cart on the server. Please try again."
)

// EngineParams groups dependencies for the reconciliation engine.
type EngineParams struct {
	API      API
	Auth     AuthProber
	Store    Store
	Renderer Renderer
	Notifier notifications.Notifier
	Logger   *logger.Logger
	Metrics  *metrics.ClientMetrics
}

// Engine reconciles the local cart with the backend for one session.
// Mutations are applied locally first, then written through. Concurrent
// mutations are not serialized against each other: the last response to
// arrive wins the local overwrite.
type Engine struct {
	api      API
	auth     AuthProber
	store    Store
	renderer Renderer
	notifier notifications.Notifier
	logg     *logger.Logger
	metrics  *metrics.ClientMetrics

	mu           sync.Mutex
	mergePending bool
	current      View
}

// NewEngine validates deps and builds an engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart api is required")
	}
	if params.Auth == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth prober is required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart store is required")
	}
	e := &Engine{
		api:      params.API,
		auth:     params.Auth,
		store:    params.Store,
		renderer: params.Renderer,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
		current:  NewView(nil, SourceLocal),
	}
	if e.renderer == nil {
		e.renderer = discardRenderer{}
	}
	if e.notifier == nil {
		e.notifier = notifications.Discard{}
	}
	if e.logg == nil {
		e.logg = logger.Nop()
	}
	return e, nil
}

// Current returns the last rendered view.
func (e *Engine) Current() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// MergePending reports whether a guest cart merge failed in this session.
func (e *Engine) MergePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mergePending
}

// Load renders the local cart, then merges it into the server cart and
// adopts the canonical cart when the session is authenticated. Only a guest
// cart is merged; a stored copy of the server cart is just refreshed.
// Network failures degrade to the local view and are reported via the
// notifier.
func (e *Engine) Load(ctx context.Context) (View, error) {
	local, origin := e.store.LoadWithOrigin(ctx)
	coalesced := Coalesce(local)
	if len(coalesced) != len(local) {
		e.store.SaveWithOrigin(ctx, coalesced, origin)
	}
	view := e.render(ctx, coalesced, SourceLocal)

	loggedIn, err := e.auth.IsLoggedIn(ctx)
	if err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "auth check failed, using local cart only")
		return view, nil
	}
	if !loggedIn {
		return view, nil
	}

	merged := false
	if origin == localstore.OriginLocal && len(coalesced) > 0 {
		if err := e.api.MergeCart(ctx, coalesced); err != nil {
			e.metrics.IncMerge(metrics.OutcomeRejected)
			e.logg.Error(e.logg.WithField(ctx, "lines", len(coalesced)), "guest cart merge failed", err)
			e.setMergePending(true)
			e.notifier.Notify(ctx, notifications.Error(msgMergeFailed))
			return e.render(ctx, coalesced, SourceLocal), nil
		}
		e.metrics.IncMerge(metrics.OutcomeSuccess)
		e.store.Clear(ctx)
		e.setMergePending(false)
		merged = true
	}

	lines, err := e.api.GetCart(ctx)
	if err != nil {
		e.logg.Error(ctx, "fetching server cart failed", err)
		e.notifier.Notify(ctx, notifications.Error(msgFetchFailed))
		if merged {
			// The server now holds the merged lines; keep them as its copy.
			e.store.SaveWithOrigin(ctx, coalesced, localstore.OriginServer)
		}
		return view, nil
	}
	return e.adoptCanonical(ctx, lines), nil
}

// Add puts a line in the cart, incrementing an existing (productId, size).
func (e *Engine) Add(ctx context.Context, line Line) (View, error) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	current, origin := e.store.LoadWithOrigin(ctx)
	lines := AddLine(current, line)
	e.store.SaveWithOrigin(ctx, lines, origin)
	e.render(ctx, lines, SourceLocal)

	res, err := e.api.AddCartItem(ctx, AddRequest{ProductID: line.ProductID, Size: line.Size, Quantity: line.Quantity})
	return e.afterWrite(ctx, "add", res, err, msgAddFailed)
}

// UpdateQuantity stores max(qty, 1) locally but sends qty as given.
func (e *Engine) UpdateQuantity(ctx context.Context, id types.ID, qty int) (View, error) {
	current, origin := e.store.LoadWithOrigin(ctx)
	lines, _ := SetQuantity(current, id, qty)
	e.store.SaveWithOrigin(ctx, lines, origin)
	e.render(ctx, lines, SourceLocal)

	res, err := e.api.UpdateCartItem(ctx, id, qty)
	return e.afterWrite(ctx, "update", res, err, msgUpdateFailed)
}

// Remove drops a line locally and always issues the server delete, even
// when the line was not in the local cart. An empty id is rejected because
// the backend reads it as clear-all.
func (e *Engine) Remove(ctx context.Context, id types.ID) (View, error) {
	if strings.TrimSpace(id.String()) == "" {
		return e.Current(), pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	current, origin := e.store.LoadWithOrigin(ctx)
	lines, found := RemoveLine(current, id)
	if found {
		e.store.SaveWithOrigin(ctx, lines, origin)
	}
	e.render(ctx, lines, SourceLocal)

	res, err := e.api.RemoveCartItem(ctx, id)
	return e.afterWrite(ctx, "remove", res, err, msgRemoveFailed)
}

// Clear empties the cart locally and on the server.
func (e *Engine) Clear(ctx context.Context) (View, error) {
	e.store.Clear(ctx)
	e.render(ctx, nil, SourceLocal)

	res, err := e.api.ClearCart(ctx)
	return e.afterWrite(ctx, "clear", res, err, msgClearFailed)
}

// afterWrite settles a write-through. Failures keep the optimistic local
// state. Guests are expected to be rejected with 401 and keep the local
// state silently.
func (e *Engine) afterWrite(ctx context.Context, op string, res WriteResult, err error, failMsg string) (View, error) {
	ctx = e.logg.WithField(ctx, "cart_op", op)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			e.logg.Debug(ctx, "cart write rejected for guest session, keeping local cart")
			e.markGuest(ctx)
			return e.Current(), nil
		}
		e.logg.Error(ctx, "cart write-through failed", err)
		e.notifier.Notify(ctx, notifications.Error(failMsg))
		return e.Current(), err
	}

	loggedIn, authErr := e.auth.IsLoggedIn(ctx)
	if authErr != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", authErr.Error()), "auth check failed after cart write")
		return e.Current(), nil
	}
	if !loggedIn {
		e.markGuest(ctx)
		return e.Current(), nil
	}
	if e.MergePending() {
		e.logg.Debug(ctx, "guest merge pending, keeping local cart")
		return e.Current(), nil
	}

	lines := res.Lines
	if !res.Canonical {
		lines, err = e.api.GetCart(ctx)
		if err != nil {
			e.logg.Error(ctx, "could not re-sync cart after write", err)
			return e.Current(), nil
		}
	}
	return e.adoptCanonical(ctx, lines), nil
}

// adoptCanonical makes the server cart the local copy, unless a failed
// merge is still pending.
func (e *Engine) adoptCanonical(ctx context.Context, lines []Line) View {
	if e.MergePending() {
		return e.Current()
	}
	if lines == nil {
		lines = []Line{}
	}
	e.store.SaveWithOrigin(ctx, lines, localstore.OriginServer)
	return e.render(ctx, lines, SourceServer)
}

// markGuest flags the stored lines as a guest cart so the next
// authenticated load merges them.
func (e *Engine) markGuest(ctx context.Context) {
	lines, origin := e.store.LoadWithOrigin(ctx)
	if origin != localstore.OriginLocal {
		e.store.SaveWithOrigin(ctx, lines, localstore.OriginLocal)
	}
}

// ForgetServerCart drops a stored copy of the server cart, used when the
// session ends. A guest cart is kept.
func (e *Engine) ForgetServerCart(ctx context.Context) View {
	_, origin := e.store.LoadWithOrigin(ctx)
	if origin != localstore.OriginServer {
		return e.Current()
	}
	e.store.Clear(ctx)
	return e.render(ctx, nil, SourceLocal)
}

func (e *Engine) render(ctx context.Context, lines []Line, source string) View {
	view := NewView(lines, source)
	e.mu.Lock()
	view.MergePending = e.mergePending
	e.current = view
	e.mu.Unlock()
	e.renderer.Render(ctx, view)
	return view
}

func (e *Engine) setMergePending(v bool) {
	e.mu.Lock()
	e.mergePending = v
	e.mu.Unlock()
}
