package store

import (
	"context"
	"errors"
	"testing"

	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/cache"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteStore_LoadFailClosed(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "A", 5, 2), product("2", "B", 1, 2)}}
	s := NewProductStore(api, admin(), nullLogger())
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, model.ProductQuery{}))
	assert.Equal(t, 2, s.Len())
	assert.Empty(t, s.Err())
	assert.True(t, s.Loaded())

	api.fail = &apperr.RemoteError{StatusCode: 500}
	err := s.Load(ctx, model.ProductQuery{})
	require.Error(t, err)
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Snapshot())
	assert.Equal(t, "Failed to load products", s.Err())
	assert.False(t, s.Loading())

	api.fail = &apperr.RemoteError{StatusCode: 403, Message: "Forbidden"}
	_ = s.Load(ctx, model.ProductQuery{})
	assert.Equal(t, "Forbidden", s.Err())
}

func TestRemoteStore_NotifiesLoadingTransitions(t *testing.T) {
	api := &fakeAPI{}
	s := NewProductStore(api, admin(), nullLogger())

	var seen []bool
	unsubscribe := s.Subscribe(func() { seen = append(seen, s.Loading()) })
	require.NoError(t, s.Load(context.Background(), model.ProductQuery{}))
	assert.Equal(t, []bool{true, false}, seen)

	unsubscribe()
	require.NoError(t, s.Load(context.Background(), model.ProductQuery{}))
	assert.Len(t, seen, 2)
}

func TestRemoteStore_ReloadUsesLastQuery(t *testing.T) {
	p1 := product("1", "A", 5, 2)
	p2 := product("2", "B", 5, 2)
	p2.Category = "Tools"
	api := &fakeAPI{products: []model.Product{p1, p2}}
	s := NewProductStore(api, admin(), nullLogger())
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, model.ProductQuery{Category: "Tools"}))
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, []model.Product{p2}, s.Snapshot())
	assert.Equal(t, "Tools", s.Query().Category)
}

func TestRemoteStore_SnapshotIsCopy(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "A", 5, 2)}}
	s := NewProductStore(api, admin(), nullLogger())
	require.NoError(t, s.Load(context.Background(), model.ProductQuery{}))

	snap := s.Snapshot()
	snap[0].Name = "changed"
	assert.Equal(t, "Product 1", s.Snapshot()[0].Name)
}

func TestRemoteStore_MutateFailureKeepsSnapshot(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "A", 5, 2)}}
	s := NewProductStore(api, admin(), nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, model.ProductQuery{}))

	err := s.Delete(ctx, "missing")
	assert.Equal(t, "Product not found", apperr.Message(err, "Failed to delete product"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, api.count("listProducts"))
}

func TestRemoteStore_MutateSucceedsDespiteReloadFailure(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "A", 5, 2)}}
	s := NewProductStore(api, admin(), nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, model.ProductQuery{}))

	api.failList = errOffline
	require.NoError(t, s.Delete(ctx, "1"))
	assert.Equal(t, "Failed to load products", s.Err())
	assert.Zero(t, s.Len())
}

func TestProductStore_PreFlight(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "SKU-1", 5, 2)}}
	s := NewProductStore(api, admin(), nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, model.ProductQuery{}))

	tests := []struct {
		name string
		in   model.ProductInput
		want string
	}{
		{"duplicate sku ignores case", model.ProductInput{SKU: "sku-1", Name: "X", Category: "C"}, "SKU sku-1 already exists"},
		{"missing name", model.ProductInput{SKU: "N", Category: "C"}, "Name is required"},
		{"negative price", model.ProductInput{SKU: "N", Name: "X", Category: "C", UnitPrice: decimal.NewFromInt(-1)}, "Unit price must be 0 or more"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Create(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
	assert.Zero(t, api.count("createProduct"))
}

func TestProductStore_UpdateKeepsOwnSKU(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "SKU-1", 5, 2)}}
	s := NewProductStore(api, admin(), nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, model.ProductQuery{}))

	in := api.products[0].Input()
	in.Name = "Renamed"
	require.NoError(t, s.Update(ctx, "1", in))

	p, ok := s.Find("1")
	require.True(t, ok)
	assert.Equal(t, "Renamed", p.Name)
}

func TestProductStore_AdminGate(t *testing.T) {
	api := &fakeAPI{}
	user := &fakeSession{user: &model.User{Name: "bob", Role: model.RoleUser}}
	s := NewProductStore(api, user, nullLogger())
	ctx := context.Background()

	assert.ErrorIs(t, s.Create(ctx, model.ProductInput{SKU: "A", Name: "A", Category: "C"}), apperr.ErrAdminRequired)
	assert.ErrorIs(t, s.Delete(ctx, "1"), apperr.ErrAdminRequired)
	assert.ErrorIs(t, s.AdjustStock(ctx, "1", model.StockAdjustment{Quantity: 1, Type: model.AdjustIn}), apperr.ErrAdminRequired)

	anon := NewProductStore(api, &fakeSession{}, nullLogger())
	assert.ErrorIs(t, anon.Delete(ctx, "1"), apperr.ErrNotAuthenticated)
	assert.Empty(t, api.calls)
}

func TestProductStore_AdjustStock(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "A", 5, 2)}}
	products := NewProductStore(api, admin(), nullLogger())
	txs := NewTransactionStore(api, admin(), products, nullLogger())
	ctx := context.Background()
	require.NoError(t, products.Load(ctx, model.ProductQuery{}))

	err := products.AdjustStock(ctx, "1", model.StockAdjustment{Quantity: 6, Type: model.AdjustOut})
	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, api.count("adjustStock"))

	// transactions not loaded yet: no reload issued
	require.NoError(t, products.AdjustStock(ctx, "1", model.StockAdjustment{Quantity: 2, Type: model.AdjustOut}))
	assert.Zero(t, api.count("listTransactions"))
	p, _ := products.Find("1")
	assert.Equal(t, 3, p.StockLevel)

	require.NoError(t, txs.Load(ctx, model.TransactionQuery{}))
	require.NoError(t, products.AdjustStock(ctx, "1", model.StockAdjustment{Quantity: 4, Type: model.AdjustIn}))
	assert.Equal(t, 2, api.count("listTransactions"))
	assert.Equal(t, 2, txs.Len())
}

func TestProductStore_LocalQueries(t *testing.T) {
	p1 := product("1", "A", 5, 5)
	p2 := product("2", "B", 0, 1)
	p2.Category = "Tools"
	p3 := product("3", "C", 9, 1)
	api := &fakeAPI{products: []model.Product{p1, p2, p3}}
	s := NewProductStore(api, admin(), nullLogger())
	require.NoError(t, s.Load(context.Background(), model.ProductQuery{}))

	assert.Equal(t, []model.Product{p1, p2}, s.LowStock())
	assert.Equal(t, []string{"General", "Tools"}, s.Categories())
	assert.True(t, s.InventoryValue().Equal(decimal.NewFromInt(140)))
}

func TestLowStockStore(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "A", 2, 2), product("2", "B", 3, 2)}}
	s := NewLowStockStore(api, nullLogger())
	require.NoError(t, s.Load(context.Background(), NoQuery{}))
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "1", s.Snapshot()[0].ID)
}

func TestTransactionStore_SalePreFlight(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "A", 3, 1)}}
	products := NewProductStore(api, admin(), nullLogger())
	txs := NewTransactionStore(api, admin(), products, nullLogger())
	ctx := context.Background()
	require.NoError(t, products.Load(ctx, model.ProductQuery{}))

	err := txs.Create(ctx, model.TransactionInput{ProductID: "1", Type: model.Sale, Quantity: 4, UnitPrice: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.Equal(t, "Insufficient stock. Available: 3", err.Error())

	err = txs.Create(ctx, model.TransactionInput{Type: model.Sale, Quantity: 1})
	assert.Equal(t, "Please select a product", err.Error())

	err = txs.Create(ctx, model.TransactionInput{ProductID: "9", Type: model.Purchase, Quantity: 1})
	assert.True(t, apperr.IsValidation(err))

	assert.Zero(t, api.count("createTransaction"))
}

func TestTransactionStore_ReloadsProducts(t *testing.T) {
	api := &fakeAPI{products: []model.Product{product("1", "A", 3, 1)}}
	products := NewProductStore(api, admin(), nullLogger())
	txs := NewTransactionStore(api, admin(), products, nullLogger())
	ctx := context.Background()
	require.NoError(t, products.Load(ctx, model.ProductQuery{}))
	require.NoError(t, txs.Load(ctx, model.TransactionQuery{}))

	require.NoError(t, txs.Create(ctx, model.TransactionInput{ProductID: "1", Type: model.Sale, Quantity: 3, UnitPrice: decimal.NewFromInt(10)}))
	assert.Equal(t, 2, api.count("listProducts"))
	require.Equal(t, 1, txs.Len())

	require.NoError(t, txs.Delete(ctx, txs.Snapshot()[0].ID))
	assert.Equal(t, 3, api.count("listProducts"))
	assert.Zero(t, txs.Len())
}

func TestTransactionStore_Totals(t *testing.T) {
	api := &fakeAPI{transactions: []model.Transaction{
		{ID: "1", Type: model.Purchase, TotalAmount: decimal.RequireFromString("100.10")},
		{ID: "2", Type: model.Sale, TotalAmount: decimal.RequireFromString("40.05")},
		{ID: "3", Type: model.Sale, TotalAmount: decimal.RequireFromString("80.00")},
	}}
	txs := NewTransactionStore(api, admin(), NewProductStore(api, admin(), nullLogger()), nullLogger())
	require.NoError(t, txs.Load(context.Background(), model.TransactionQuery{}))

	totals := txs.Totals()
	assert.Equal(t, 1, totals.PurchaseCount)
	assert.Equal(t, 2, totals.SaleCount)
	assert.Equal(t, "120.05", totals.Sales.StringFixed(2))
	assert.Equal(t, "19.95", totals.Net().StringFixed(2))
}

func TestUserStore_TwoTierLoad(t *testing.T) {
	api := &fakeAPI{users: []model.User{{ID: "1", Name: "alice", Email: "a@example.com", Password: "hunter22", Role: model.RoleAdmin}}}
	mem := cache.NewMemory()
	s := NewUserStore(api, admin(), mem, nullLogger())
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, NoQuery{}))
	assert.False(t, s.Offline())
	assert.NotContains(t, mem.Raw(cache.KeyUsers), "hunter22")

	api.fail = errOffline
	require.NoError(t, s.Load(ctx, NoQuery{}))
	assert.True(t, s.Offline())
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "alice", s.Snapshot()[0].Name)

	require.NoError(t, mem.Delete(ctx, cache.KeyUsers))
	assert.Error(t, s.Load(ctx, NoQuery{}))
	assert.Zero(t, s.Len())
}

func TestUserStore_CreateValidation(t *testing.T) {
	api := &fakeAPI{users: []model.User{{ID: "1", Name: "alice", Email: "alice@example.com", Role: model.RoleAdmin}}}
	s := NewUserStore(api, admin(), cache.NewMemory(), nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, NoQuery{}))

	err := s.Create(ctx, model.User{Name: "al", Email: "al@example.com", Password: "al123", Role: model.RoleUser})
	assert.Equal(t, "Password must be at least 6 characters", err.Error())

	err = s.Create(ctx, model.User{Name: "alice2", Email: "ALICE@example.com", Password: "secret", Role: model.RoleUser})
	assert.True(t, apperr.IsValidation(err))

	assert.Zero(t, api.count("createUser"))
}

func TestUserStore_UpdateKeyedByName(t *testing.T) {
	api := &fakeAPI{users: []model.User{{ID: "7", Name: "jane", Email: "jane@example.com", Role: model.RoleUser}}}
	s := NewUserStore(api, admin(), cache.NewMemory(), nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, NoQuery{}))

	require.NoError(t, s.Update(ctx, "jane", model.User{ID: "7", Name: "janet", Email: "jane@example.com", Role: model.RoleUser}))
	assert.Equal(t, 1, api.count("updateUser:jane"))
	_, ok := s.FindByName("janet")
	assert.True(t, ok)
}

func TestUserStore_SelfUpdate(t *testing.T) {
	bob := model.User{ID: "2", Name: "bob", Email: "bob@example.com", Role: model.RoleUser}
	api := &fakeAPI{users: []model.User{bob}}
	sess := &fakeSession{user: &bob}
	s := NewUserStore(api, sess, cache.NewMemory(), nullLogger())
	ctx := context.Background()

	promoted := bob
	promoted.Role = model.RoleAdmin
	assert.ErrorIs(t, s.Update(ctx, "bob", promoted), apperr.ErrAdminRequired)
	assert.ErrorIs(t, s.Update(ctx, "alice", bob), apperr.ErrAdminRequired)

	bob.Email = "robert@example.com"
	require.NoError(t, s.Update(ctx, "bob", bob))
}

func TestUserStore_LocalFallbackOnTransportError(t *testing.T) {
	users := []model.User{
		{ID: "1", Name: "alice", Email: "alice@example.com", Role: model.RoleAdmin},
		{ID: "2", Name: "bob", Email: "bob@example.com", Role: model.RoleUser},
	}
	api := &fakeAPI{users: users}
	mem := cache.NewMemory()
	s := NewUserStore(api, admin(), mem, nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, NoQuery{}))

	api.fail = errOffline
	err := s.Update(ctx, "bob", model.User{ID: "2", Name: "robert", Email: "bob@example.com", Role: model.RoleUser})
	var local *apperr.LocalFallbackError
	require.ErrorAs(t, err, &local)
	assert.Contains(t, apperr.Message(err, "Failed to update user"), "Saved locally")

	var cached []model.User
	_, cerr := mem.Get(ctx, cache.KeyUsers, &cached)
	require.NoError(t, cerr)
	assert.Equal(t, "robert", cached[1].Name)
	_, ok := s.FindByName("robert")
	assert.True(t, ok)

	require.ErrorAs(t, s.Create(ctx, model.User{Name: "carol", Email: "carol@example.com", Password: "secret1", Role: model.RoleUser}), &local)
	assert.Equal(t, 3, s.Len())
	carol, ok := s.FindByName("carol")
	require.True(t, ok)
	assert.NotEmpty(t, carol.ID)
	assert.Empty(t, carol.Password)

	require.ErrorAs(t, s.Delete(ctx, carol), &local)
	assert.Equal(t, 2, s.Len())
}

func TestUserStore_LocalFallbackMatchesByName(t *testing.T) {
	bob := model.User{ID: "2", Name: "bob", Email: "bob@example.com", Role: model.RoleUser}
	mem := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, cache.KeyUsers, []model.User{bob}))

	// Sessions built from a login response carry no id.
	sess := &fakeSession{user: &model.User{Name: "bob", Role: model.RoleUser}}
	api := &fakeAPI{fail: errOffline}
	s := NewUserStore(api, sess, mem, nullLogger())

	err := s.Update(ctx, "bob", model.User{Name: "bob", Email: "bob.new@example.com", Role: model.RoleUser})
	var local *apperr.LocalFallbackError
	require.ErrorAs(t, err, &local)

	var cached []model.User
	_, cerr := mem.Get(ctx, cache.KeyUsers, &cached)
	require.NoError(t, cerr)
	require.Len(t, cached, 1)
	assert.Equal(t, "2", cached[0].ID)
	assert.Equal(t, "bob.new@example.com", cached[0].Email)
}

func TestUserStore_UnmatchedFallbackReturnsTransportError(t *testing.T) {
	bob := model.User{ID: "2", Name: "bob", Email: "bob@example.com", Role: model.RoleUser}
	mem := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, cache.KeyUsers, []model.User{bob}))
	before := mem.Raw(cache.KeyUsers)

	api := &fakeAPI{fail: errOffline}
	s := NewUserStore(api, admin(), mem, nullLogger())

	err := s.Update(ctx, "ghost", model.User{Name: "ghost", Email: "ghost@example.com", Role: model.RoleUser})
	require.Error(t, err)
	assert.True(t, apperr.IsTransport(err))
	var local *apperr.LocalFallbackError
	assert.False(t, errors.As(err, &local))

	err = s.Delete(ctx, model.User{Name: "ghost"})
	assert.True(t, apperr.IsTransport(err))
	assert.False(t, errors.As(err, &local))

	assert.Equal(t, before, mem.Raw(cache.KeyUsers))
	assert.False(t, s.Offline())
}

func TestUserStore_RemoteRejectionLeavesCache(t *testing.T) {
	api := &fakeAPI{users: []model.User{{ID: "2", Name: "bob", Email: "bob@example.com", Role: model.RoleUser}}}
	mem := cache.NewMemory()
	s := NewUserStore(api, admin(), mem, nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, NoQuery{}))
	before := mem.Raw(cache.KeyUsers)

	api.fail = &apperr.RemoteError{StatusCode: 409, Message: "Email already in use"}
	err := s.Update(ctx, "bob", model.User{ID: "2", Name: "bob", Email: "new@example.com", Role: model.RoleUser})
	assert.Equal(t, "Email already in use", apperr.Message(err, "Failed to update user"))
	assert.Equal(t, before, mem.Raw(cache.KeyUsers))
}

func TestUserStore_DeleteSelfLogsOut(t *testing.T) {
	sess := admin()
	api := &fakeAPI{users: []model.User{*sess.user, {ID: "2", Name: "bob", Email: "b@example.com", Role: model.RoleUser}}}
	s := NewUserStore(api, sess, cache.NewMemory(), nullLogger())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx, NoQuery{}))

	require.NoError(t, s.Delete(ctx, model.User{ID: "2", Name: "bob"}))
	assert.False(t, sess.loggedOut)

	require.NoError(t, s.Delete(ctx, model.User{ID: "a1", Name: "admin"}))
	assert.True(t, sess.loggedOut)
	assert.Equal(t, 1, api.count("deleteUser:admin"))
}

func TestUserStore_Signup(t *testing.T) {
	api := &fakeAPI{}
	s := NewUserStore(api, &fakeSession{}, cache.NewMemory(), nullLogger())

	require.NoError(t, s.Signup(context.Background(), model.User{Name: "eve", Email: "eve@example.com", Password: "secret1", Role: model.RoleAdmin}))
	require.Len(t, api.users, 1)
	assert.Equal(t, model.RoleUser, api.users[0].Role)
	assert.Zero(t, api.count("listUsers"))
}

func TestAlertStore(t *testing.T) {
	api := &fakeAPI{}
	mem := cache.NewMemory()
	s := NewAlertStore(api, admin(), mem, nullLogger())
	ctx := context.Background()

	assert.Equal(t, model.DefaultAlertSettings(), s.Settings())
	assert.Error(t, s.Load(ctx))
	assert.Equal(t, SourceDefault, s.Source())

	want := model.AlertSettings{Enabled: true, EmailAlerts: true}
	require.NoError(t, s.Save(ctx, want))
	assert.Equal(t, SourceRemote, s.Source())

	api.fail = errOffline
	offline := model.AlertSettings{SMSAlerts: true}
	err := s.Save(ctx, offline)
	var local *apperr.LocalFallbackError
	require.ErrorAs(t, err, &local)
	assert.Equal(t, offline, s.Settings())

	fresh := NewAlertStore(api, admin(), mem, nullLogger())
	assert.Error(t, fresh.Load(ctx))
	assert.Equal(t, offline, fresh.Settings())
	assert.Equal(t, SourceCache, fresh.Source())

	api.fail = nil
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, want, fresh.Settings())
}

func TestAlertStore_RequiresAdmin(t *testing.T) {
	s := NewAlertStore(&fakeAPI{}, &fakeSession{}, cache.NewMemory(), nullLogger())
	assert.True(t, errors.Is(s.Save(context.Background(), model.AlertSettings{}), apperr.ErrNotAuthenticated))
}

func TestDashboardStore(t *testing.T) {
	api := &fakeAPI{stats: model.DashboardStats{TotalProducts: 4, LowStockCount: 1}}
	s := NewDashboardStore(api, nullLogger())
	ctx := context.Background()

	require.NoError(t, s.Load(ctx, model.DateRange{}))
	assert.Equal(t, 4, s.Stats().TotalProducts)

	api.fail = errOffline
	assert.Error(t, s.Load(ctx, model.DateRange{}))
	assert.Equal(t, model.DashboardStats{}, s.Stats())
	assert.Equal(t, "Failed to load dashboard statistics", s.Err())
}
