package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var errOffline = &apperr.TransportError{Op: "GET /", Err: errors.New("connection refused")}

// fakeAPI is an in-memory backend. Setting fail makes every call return it.
type fakeAPI struct {
	mu       sync.Mutex
	fail     error
	failList error
	calls    []string
	nextID   int

	products     []model.Product
	transactions []model.Transaction
	users        []model.User
	alerts       *model.AlertSettings
	stats        model.DashboardStats
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.fail != nil {
		return f.fail
	}
	if f.failList != nil && strings.HasPrefix(call, "list") {
		return f.failList
	}
	return nil
}

func (f *fakeAPI) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ListProducts(_ context.Context, q model.ProductQuery) ([]model.Product, error) {
	if err := f.record("listProducts"); err != nil {
		return nil, err
	}
	var out []model.Product
	for _, p := range f.products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeAPI) LowStockProducts(_ context.Context) ([]model.Product, error) {
	if err := f.record("listLowStock"); err != nil {
		return nil, err
	}
	var out []model.Product
	for _, p := range f.products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateProduct(_ context.Context, in model.ProductInput) (*model.Product, error) {
	if err := f.record("createProduct"); err != nil {
		return nil, err
	}
	p := model.Product{ID: f.id(), SKU: in.SKU, Name: in.Name, Category: in.Category, UnitPrice: in.UnitPrice, MinStockThreshold: in.MinStockThreshold}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeAPI) UpdateProduct(_ context.Context, id string, in model.ProductInput) error {
	if err := f.record("updateProduct"); err != nil {
		return err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Name = in.Name
			f.products[i].SKU = in.SKU
			return nil
		}
	}
	return &apperr.RemoteError{StatusCode: 404, Message: "Product not found"}
}

func (f *fakeAPI) DeleteProduct(_ context.Context, id string) error {
	if err := f.record("deleteProduct"); err != nil {
		return err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return &apperr.RemoteError{StatusCode: 404, Message: "Product not found"}
}

func (f *fakeAPI) AdjustStock(_ context.Context, id string, adj model.StockAdjustment) error {
	if err := f.record("adjustStock"); err != nil {
		return err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			if adj.Type == model.AdjustIn {
				f.products[i].StockLevel += adj.Quantity
			} else {
				f.products[i].StockLevel -= adj.Quantity
			}
			f.transactions = append(f.transactions, model.Transaction{ID: f.id(), ProductID: id, Quantity: adj.Quantity})
			return nil
		}
	}
	return &apperr.RemoteError{StatusCode: 404}
}

func (f *fakeAPI) ListTransactions(_ context.Context, _ model.TransactionQuery) ([]model.Transaction, error) {
	if err := f.record("listTransactions"); err != nil {
		return nil, err
	}
	return append([]model.Transaction(nil), f.transactions...), nil
}

func (f *fakeAPI) CreateTransaction(_ context.Context, in model.TransactionInput) (*model.Transaction, error) {
	if err := f.record("createTransaction"); err != nil {
		return nil, err
	}
	tx := model.Transaction{
		ID: f.id(), ProductID: in.ProductID, Type: in.Type, Quantity: in.Quantity,
		UnitPrice: in.UnitPrice, TotalAmount: in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))),
	}
	f.transactions = append(f.transactions, tx)
	return &tx, nil
}

func (f *fakeAPI) DeleteTransaction(_ context.Context, id string) error {
	if err := f.record("deleteTransaction"); err != nil {
		return err
	}
	for i := range f.transactions {
		if f.transactions[i].ID == id {
			f.transactions = append(f.transactions[:i], f.transactions[i+1:]...)
			return nil
		}
	}
	return &apperr.RemoteError{StatusCode: 404}
}

func (f *fakeAPI) ListUsers(_ context.Context) ([]model.User, error) {
	if err := f.record("listUsers"); err != nil {
		return nil, err
	}
	return append([]model.User(nil), f.users...), nil
}

func (f *fakeAPI) CreateUser(_ context.Context, u model.User) (*model.User, error) {
	if err := f.record("createUser:" + u.Name); err != nil {
		return nil, err
	}
	u.ID = f.id()
	f.users = append(f.users, u)
	return &u, nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, username string, u model.User) error {
	if err := f.record("updateUser:" + username); err != nil {
		return err
	}
	for i := range f.users {
		if f.users[i].Name == username {
			f.users[i] = u
			return nil
		}
	}
	return &apperr.RemoteError{StatusCode: 404, Message: "User not found"}
}

func (f *fakeAPI) DeleteUser(_ context.Context, username string) error {
	if err := f.record("deleteUser:" + username); err != nil {
		return err
	}
	for i := range f.users {
		if f.users[i].Name == username {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return &apperr.RemoteError{StatusCode: 404, Message: "User not found"}
}

func (f *fakeAPI) AlertSettings(_ context.Context) (*model.AlertSettings, error) {
	if err := f.record("getAlerts"); err != nil {
		return nil, err
	}
	if f.alerts == nil {
		return nil, &apperr.RemoteError{StatusCode: 404}
	}
	s := *f.alerts
	return &s, nil
}

func (f *fakeAPI) UpdateAlertSettings(_ context.Context, s model.AlertSettings) error {
	if err := f.record("putAlerts"); err != nil {
		return err
	}
	f.alerts = &s
	return nil
}

func (f *fakeAPI) DashboardStats(_ context.Context, _ model.DateRange) (*model.DashboardStats, error) {
	if err := f.record("getStats"); err != nil {
		return nil, err
	}
	s := f.stats
	return &s, nil
}

// fakeSession is a settable Session.
type fakeSession struct {
	user      *model.User
	loggedOut bool
}

func (s *fakeSession) RequireAdmin() error {
	if s.user == nil {
		return apperr.ErrNotAuthenticated
	}
	if !s.user.IsAdmin() {
		return apperr.ErrAdminRequired
	}
	return nil
}

func (s *fakeSession) IsAdmin() bool { return s.user != nil && s.user.IsAdmin() }

func (s *fakeSession) CanEditUser(name string) bool {
	return s.user != nil && (s.user.IsAdmin() || s.user.Name == name)
}

func (s *fakeSession) IsCurrent(u model.User) bool {
	return s.user != nil && s.user.Name == u.Name
}

func (s *fakeSession) Logout(context.Context) error {
	s.user = nil
	s.loggedOut = true
	return nil
}

func admin() *fakeSession {
	return &fakeSession{user: &model.User{ID: "a1", Name: "admin", Role: model.RoleAdmin}}
}

func nullLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func product(id, sku string, stock, threshold int) model.Product {
	return model.Product{
		ID: id, SKU: sku, Name: "Product " + id, Category: "General",
		UnitPrice: decimal.NewFromInt(10), StockLevel: stock, MinStockThreshold: threshold,
	}
}
