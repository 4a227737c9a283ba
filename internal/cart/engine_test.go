package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront/internal/localstore"
	"github.com/angelmondragon/storefront/internal/notifications"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubAPI struct {
	mu sync.Mutex

	serverCart []Line
	getErr     error
	mergeErr   error
	writeErr   error
	canonical  bool

	getCalls   int
	merged     [][]Line
	added      []AddRequest
	updated    map[types.ID]int
	removed    []types.ID
	clearCalls int
}

func (s *stubAPI) GetCart(context.Context) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return append([]Line(nil), s.serverCart...), nil
}

func (s *stubAPI) result() (WriteResult, error) {
	if s.writeErr != nil {
		return WriteResult{}, s.writeErr
	}
	if s.canonical {
		return WriteResult{Lines: append([]Line(nil), s.serverCart...), Canonical: true}, nil
	}
	return WriteResult{}, nil
}

func (s *stubAPI) AddCartItem(_ context.Context, req AddRequest) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, req)
	return s.result()
}

func (s *stubAPI) UpdateCartItem(_ context.Context, id types.ID, qty int) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updated == nil {
		s.updated = map[types.ID]int{}
	}
	s.updated[id] = qty
	return s.result()
}

func (s *stubAPI) RemoveCartItem(_ context.Context, id types.ID) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, id)
	return s.result()
}

func (s *stubAPI) ClearCart(context.Context) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	return s.result()
}

func (s *stubAPI) MergeCart(_ context.Context, lines []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merged = append(s.merged, append([]Line(nil), lines...))
	return s.mergeErr
}

type stubProber struct {
	loggedIn bool
	err      error
}

func (s stubProber) IsLoggedIn(context.Context) (bool, error) {
	return s.loggedIn, s.err
}

type memStore struct {
	lines   []Line
	origin  localstore.Origin
	cleared int
}

func (m *memStore) LoadWithOrigin(context.Context) ([]Line, localstore.Origin) {
	if m.origin == "" {
		return append([]Line{}, m.lines...), localstore.OriginLocal
	}
	return append([]Line{}, m.lines...), m.origin
}

func (m *memStore) SaveWithOrigin(_ context.Context, lines []Line, origin localstore.Origin) {
	m.lines = append([]Line{}, lines...)
	m.origin = origin
}

func (m *memStore) Clear(context.Context) {
	m.cleared++
	m.lines = nil
	m.origin = ""
}

type recordingNotifier struct {
	notes []notifications.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notifications.Notification) {
	r.notes = append(r.notes, n)
}

type fixture struct {
	api      *stubAPI
	store    *memStore
	notifier *recordingNotifier
	renders  []View
	engine   *Engine
}

func newFixture(t *testing.T, prober AuthProber, local []Line) *fixture {
	t.Helper()
	f := &fixture{
		api:      &stubAPI{},
		store:    &memStore{lines: local},
		notifier: &recordingNotifier{},
	}
	engine, err := NewEngine(EngineParams{
		API:      f.api,
		Auth:     prober,
		Store:    f.store,
		Notifier: f.notifier,
		Renderer: RendererFunc(func(_ context.Context, v View) {
			f.renders = append(f.renders, v)
		}),
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

func serverLines() []Line {
	return []Line{
		{ID: "101", ProductID: "p1", Name: "Linen Shirt", Price: types.NewMoney(1000), Size: "M", Quantity: 3},
		{ID: "102", ProductID: "p9", Name: "Cap", Price: types.NewMoney(500), Quantity: 1},
	}
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	_, err := NewEngine(EngineParams{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = NewEngine(EngineParams{API: &stubAPI{}})
	require.Error(t, err)

	_, err = NewEngine(EngineParams{API: &stubAPI{}, Auth: stubProber{}})
	require.Error(t, err)
}

func TestLoadGuestRendersLocalOnly(t *testing.T) {
	f := newFixture(t, stubProber{}, []Line{shirt("M", 2)})

	view, err := f.engine.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceLocal, view.Source)
	assert.Equal(t, 2, view.ItemCount)
	assert.Empty(t, f.api.merged)
	assert.Zero(t, f.api.getCalls)
	require.Len(t, f.renders, 1)
}

func TestLoadAuthFailureDegradesToGuest(t *testing.T) {
	f := newFixture(t, stubProber{err: pkgerrors.New(pkgerrors.CodeConnectivity, "dial")}, []Line{shirt("M", 1)})

	view, err := f.engine.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, view.Source)
	assert.Empty(t, f.api.merged)
	assert.Zero(t, f.api.getCalls)
}

func TestLoadAuthenticatedEmptyLocalSkipsMerge(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, nil)
	f.api.serverCart = serverLines()

	view, err := f.engine.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.api.merged)
	assert.Equal(t, 1, f.api.getCalls)
	assert.Equal(t, SourceServer, view.Source)
	assert.Equal(t, serverLines(), f.store.lines)
}

func TestLoadMergesThenAdoptsCanonicalCart(t *testing.T) {
	local := []Line{shirt("M", 2), {ID: "p1-M", ProductID: "p1", Name: "Linen Shirt", Price: types.NewMoney(1000), Size: "M", Quantity: 1}}
	f := newFixture(t, stubProber{loggedIn: true}, local)
	f.api.serverCart = serverLines()

	view, err := f.engine.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, f.api.merged, 1)
	require.Len(t, f.api.merged[0], 1)
	assert.Equal(t, 3, f.api.merged[0][0].Quantity)
	assert.Equal(t, types.ID("p1-M"), f.api.merged[0][0].ID)
	assert.Equal(t, 1, f.store.cleared)

	if diff := cmp.Diff(serverLines(), view.Lines); diff != "" {
		t.Fatalf("view should equal canonical cart (-want +got):\n%s", diff)
	}
	assert.Equal(t, serverLines(), f.store.lines)

	require.Len(t, f.renders, 2)
	assert.Equal(t, SourceLocal, f.renders[0].Source)
	assert.Equal(t, SourceServer, f.renders[1].Source)
	assert.False(t, f.engine.MergePending())
}

func TestRepeatedAuthenticatedLoadsMergeOnce(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, []Line{shirt("M", 2)})
	f.api.serverCart = []Line{shirt("M", 2)}
	f.api.serverCart[0].ID = LineID("p1", "M")

	for i := 0; i < 3; i++ {
		view, err := f.engine.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SourceServer, view.Source)
		assert.Equal(t, 2, view.ItemCount)
	}

	require.Len(t, f.api.merged, 1)
	assert.Equal(t, 3, f.api.getCalls)
	assert.Equal(t, localstore.OriginServer, f.store.origin)
	assert.Equal(t, f.api.serverCart, f.store.lines)
}

func TestAuthenticatedLoadAfterWriteDoesNotMerge(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, nil)
	f.api.serverCart = serverLines()
	f.api.canonical = true

	_, err := f.engine.Add(context.Background(), shirt("M", 1))
	require.NoError(t, err)
	assert.Equal(t, localstore.OriginServer, f.store.origin)

	_, err = f.engine.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.api.merged)
}

func TestFailedWriteOnServerCopyKeepsItUnmerged(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, nil)
	f.store.SaveWithOrigin(context.Background(), serverLines(), localstore.OriginServer)
	f.api.writeErr = pkgerrors.New(pkgerrors.CodeConnectivity, "dial")

	_, err := f.engine.UpdateQuantity(context.Background(), "101", 5)
	require.Error(t, err)
	assert.Equal(t, localstore.OriginServer, f.store.origin)
	assert.Equal(t, 5, f.store.lines[0].Quantity)

	f.api.writeErr = nil
	f.api.serverCart = serverLines()
	view, err := f.engine.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.api.merged)
	assert.Equal(t, serverLines(), view.Lines)
}

func TestGuestWriteMarksStoredCartForMerge(t *testing.T) {
	f := newFixture(t, stubProber{}, nil)
	f.store.SaveWithOrigin(context.Background(), serverLines(), localstore.OriginServer)
	f.api.writeErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authenticated")

	_, err := f.engine.Add(context.Background(), shirt("L", 1))
	require.NoError(t, err)
	assert.Equal(t, localstore.OriginLocal, f.store.origin)
	assert.Len(t, f.store.lines, 3)
}

func TestLoadFetchFailureAfterMergeKeepsMergedLines(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, []Line{shirt("M", 2)})
	f.api.getErr = pkgerrors.New(pkgerrors.CodeConnectivity, "dial")

	view, err := f.engine.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, 1, f.store.cleared)
	assert.Equal(t, localstore.OriginServer, f.store.origin)
	require.Len(t, f.store.lines, 1)

	_, err = f.engine.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.api.merged, 1)
}

func TestForgetServerCart(t *testing.T) {
	f := newFixture(t, stubProber{}, nil)
	f.store.SaveWithOrigin(context.Background(), serverLines(), localstore.OriginServer)

	view := f.engine.ForgetServerCart(context.Background())
	assert.True(t, view.Empty())
	assert.Empty(t, f.store.lines)

	f.store.SaveWithOrigin(context.Background(), []Line{shirt("M", 1)}, localstore.OriginLocal)
	f.engine.ForgetServerCart(context.Background())
	assert.Len(t, f.store.lines, 1)
}

func TestLoadMergeFailureKeepsGuestCart(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, []Line{shirt("M", 2)})
	f.api.mergeErr = pkgerrors.New(pkgerrors.CodeServerRejected, "merge failed")
	f.api.serverCart = serverLines()

	view, err := f.engine.Load(context.Background())
	require.NoError(t, err)

	assert.Zero(t, f.store.cleared)
	assert.Zero(t, f.api.getCalls)
	assert.True(t, view.MergePending)
	assert.True(t, f.engine.MergePending())
	assert.Equal(t, SourceLocal, view.Source)
	require.Len(t, f.store.lines, 1)
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, notifications.LevelError, f.notifier.notes[0].Level)

	f.api.canonical = true
	view, err = f.engine.Add(context.Background(), shirt("L", 1))
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, view.Source)
	assert.Len(t, f.store.lines, 2)
}

func TestLoadCanonicalFetchFailureKeepsLocalView(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, nil)
	f.api.getErr = pkgerrors.New(pkgerrors.CodeConnectivity, "dial")

	view, err := f.engine.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, view.Source)
	require.Len(t, f.notifier.notes, 1)
}

func TestGuestAddTwiceSumsQuantity(t *testing.T) {
	f := newFixture(t, stubProber{}, nil)
	f.api.writeErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authenticated")

	_, err := f.engine.Add(context.Background(), shirt("M", 2))
	require.NoError(t, err)
	view, err := f.engine.Add(context.Background(), shirt("M", 1))
	require.NoError(t, err)

	require.Len(t, f.store.lines, 1)
	assert.Equal(t, types.ID("p1-M"), f.store.lines[0].ID)
	assert.Equal(t, 3, f.store.lines[0].Quantity)
	assert.Equal(t, 3, view.ItemCount)
	assert.Len(t, f.api.added, 2)
	assert.Empty(t, f.notifier.notes)
}

func TestAddConnectivityFailureKeepsOptimisticState(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, nil)
	f.api.writeErr = pkgerrors.New(pkgerrors.CodeConnectivity, "dial")

	view, err := f.engine.Add(context.Background(), shirt("M", 1))
	require.Error(t, err)

	assert.Len(t, f.store.lines, 1)
	assert.Equal(t, 1, view.ItemCount)
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, msgAddFailed, f.notifier.notes[0].Message)
	assert.Zero(t, f.api.getCalls)
}

func TestAuthenticatedAddRefetchesOnAck(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, nil)
	f.api.serverCart = serverLines()

	view, err := f.engine.Add(context.Background(), shirt("M", 1))
	require.NoError(t, err)

	assert.Equal(t, 1, f.api.getCalls)
	assert.Equal(t, AddRequest{ProductID: "p1", Size: "M", Quantity: 1}, f.api.added[0])
	assert.Equal(t, serverLines(), view.Lines)
	assert.Equal(t, serverLines(), f.store.lines)
}

func TestAuthenticatedWriteAdoptsCanonicalPayload(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, serverLines())
	f.api.serverCart = serverLines()[:1]
	f.api.canonical = true

	view, err := f.engine.Remove(context.Background(), "102")
	require.NoError(t, err)

	assert.Zero(t, f.api.getCalls)
	assert.Equal(t, []types.ID{"102"}, f.api.removed)
	assert.Equal(t, SourceServer, view.Source)
	assert.Len(t, f.store.lines, 1)
}

func TestUpdateQuantityClampsLocallyButSendsTypedValue(t *testing.T) {
	f := newFixture(t, stubProber{}, []Line{{ID: "p1-M", ProductID: "p1", Size: "M", Quantity: 3}})

	view, err := f.engine.UpdateQuantity(context.Background(), "p1-M", 0)
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.lines[0].Quantity)
	assert.Equal(t, 1, view.ItemCount)
	assert.Equal(t, 0, f.api.updated["p1-M"])
}

func TestUpdateQuantityFailureNotifies(t *testing.T) {
	f := newFixture(t, stubProber{}, []Line{{ID: "p1-M", ProductID: "p1", Size: "M", Quantity: 3}})
	f.api.writeErr = errors.New("network down")

	_, err := f.engine.UpdateQuantity(context.Background(), "p1-M", 5)
	require.Error(t, err)
	assert.Equal(t, 5, f.store.lines[0].Quantity)
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, msgUpdateFailed, f.notifier.notes[0].Message)
}

func TestRemoveMissingLineStillIssuesDelete(t *testing.T) {
	local := []Line{{ID: "p1-M", ProductID: "p1", Size: "M", Quantity: 1}}
	f := newFixture(t, stubProber{}, local)

	_, err := f.engine.Remove(context.Background(), "ghost")
	require.NoError(t, err)

	assert.Equal(t, local, f.store.lines)
	assert.Equal(t, []types.ID{"ghost"}, f.api.removed)
}

func TestRemoveRejectsEmptyID(t *testing.T) {
	local := []Line{{ID: "p1-M", ProductID: "p1", Size: "M", Quantity: 1}}
	f := newFixture(t, stubProber{loggedIn: true}, local)

	for _, id := range []types.ID{"", "  "} {
		_, err := f.engine.Remove(context.Background(), id)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	}

	assert.Empty(t, f.api.removed)
	assert.Zero(t, f.api.clearCalls)
	assert.Equal(t, local, f.store.lines)
}

func TestClearEmptiesLocalAndServer(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, serverLines())
	f.api.canonical = true

	view, err := f.engine.Clear(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.api.clearCalls)
	assert.True(t, view.Empty())
	assert.Empty(t, f.store.lines)
}

func TestClearFailureNotifiesAndKeepsLocalEmpty(t *testing.T) {
	f := newFixture(t, stubProber{loggedIn: true}, serverLines())
	f.api.writeErr = pkgerrors.New(pkgerrors.CodeServerRejected, "boom")

	view, err := f.engine.Clear(context.Background())
	require.Error(t, err)
	assert.True(t, view.Empty())
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, msgClearFailed, f.notifier.notes[0].Message)
}

func TestConcurrentMutationsDoNotRace(t *testing.T) {
	api := &stubAPI{}
	engine, err := NewEngine(EngineParams{API: api, Auth: stubProber{}, Store: &lockedStore{}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = engine.Add(context.Background(), shirt("M", 1))
		}()
	}
	wg.Wait()

	assert.Len(t, api.added, 8)
	assert.NotEmpty(t, engine.Current().Lines)
}

type lockedStore struct {
	mu sync.Mutex
	memStore
}

func (l *lockedStore) LoadWithOrigin(ctx context.Context) ([]Line, localstore.Origin) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.memStore.LoadWithOrigin(ctx)
}

func (l *lockedStore) SaveWithOrigin(ctx context.Context, lines []Line, origin localstore.Origin) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.memStore.SaveWithOrigin(ctx, lines, origin)
}

func (l *lockedStore) Clear(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.memStore.Clear(ctx)
}
