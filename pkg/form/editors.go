package form

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/shopspring/decimal"
)

// DefaultMinStockThreshold pre-fills new products.
const DefaultMinStockThreshold = 10

// MinPasswordLength is the shortest password accepted for a new account.
const MinPasswordLength = 6

// ProductWriter is satisfied by store.ProductStore.
type ProductWriter interface {
	Create(ctx context.Context, in model.ProductInput) error
	Update(ctx context.Context, id string, in model.ProductInput) error
}

// ProductEditor stages product create and edit.
type ProductEditor = Editor[model.Product, model.ProductInput]

// NewProductEditor creates a ProductEditor.
func NewProductEditor(w ProductWriter, opts ...Option) *ProductEditor {
	return NewEditor(Hooks[model.Product, model.ProductInput]{
		Defaults: func() model.ProductInput {
			return model.ProductInput{UnitPrice: decimal.Zero, MinStockThreshold: DefaultMinStockThreshold}
		},
		FromEntity: model.Product.Input,
		Key:        func(p model.Product) string { return p.ID },
		Create:     w.Create,
		Update:     w.Update,

		CreatedMessage: "Product created successfully",
		UpdatedMessage: "Product updated successfully",
		Fallback:       "Failed to save product",
	}, opts...)
}

// ProductLookup finds products for the transaction editor.
type ProductLookup interface {
	Find(id string) (model.Product, bool)
}

// TransactionCreator is satisfied by store.TransactionStore.
type TransactionCreator interface {
	Create(ctx context.Context, in model.TransactionInput) error
}

// TransactionEditor stages new transactions. Transactions are immutable, so
// it only supports create.
type TransactionEditor = Editor[model.Transaction, model.TransactionInput]

// NewTransactionEditor creates a TransactionEditor. A zero unit price is
// filled in from the selected product.
func NewTransactionEditor(w TransactionCreator, products ProductLookup, opts ...Option) *TransactionEditor {
	return NewEditor(Hooks[model.Transaction, model.TransactionInput]{
		Defaults: func() model.TransactionInput {
			return model.TransactionInput{Type: model.Purchase, Quantity: 1, UnitPrice: decimal.Zero}
		},
		Prepare: func(_ Mode, b *model.TransactionInput) error {
			b.Notes = strings.TrimSpace(b.Notes)
			if b.UnitPrice.IsZero() {
				if p, ok := products.Find(b.ProductID); ok {
					b.UnitPrice = p.UnitPrice
				}
			}
			return nil
		},
		Create: w.Create,

		CreatedMessage: "Transaction recorded successfully",
		Fallback:       "Failed to record transaction",
	}, opts...)
}

// StockAdjuster is satisfied by store.ProductStore.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, id string, adj model.StockAdjustment) error
}

// StockAdjustmentEditor stages a stock adjustment of one product. Open it
// with StartEdit on the product being adjusted.
type StockAdjustmentEditor = Editor[model.Product, model.StockAdjustment]

// NewStockAdjustmentEditor creates a StockAdjustmentEditor.
func NewStockAdjustmentEditor(w StockAdjuster, opts ...Option) *StockAdjustmentEditor {
	defaults := func() model.StockAdjustment {
		return model.StockAdjustment{Quantity: 1, Type: model.AdjustIn}
	}
	return NewEditor(Hooks[model.Product, model.StockAdjustment]{
		Defaults:   defaults,
		FromEntity: func(model.Product) model.StockAdjustment { return defaults() },
		Key:        func(p model.Product) string { return p.ID },
		Update:     w.AdjustStock,

		UpdatedMessage: "Stock adjusted successfully",
		Fallback:       "Failed to adjust stock",
	}, opts...)
}

// UserWriter is satisfied by store.UserStore. Update is keyed by the user's
// current name.
type UserWriter interface {
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, originalName string, u model.User) error
}

// UserEditor stages user create and edit.
type UserEditor = Editor[model.User, model.User]

// NewUserEditor creates a UserEditor. Edits never start with the stored
// password; leaving it empty keeps it unchanged.
func NewUserEditor(w UserWriter, opts ...Option) *UserEditor {
	return NewEditor(Hooks[model.User, model.User]{
		Defaults:   func() model.User { return model.User{Role: model.RoleUser} },
		FromEntity: model.User.Redacted,
		Key:        func(u model.User) string { return u.Name },
		Prepare:    prepareUser,
		Create:     w.Create,
		Update:     w.Update,

		CreatedMessage: "User created successfully",
		UpdatedMessage: "User updated successfully",
		Fallback:       "Failed to save user",
	}, opts...)
}

// Registrar is satisfied by store.UserStore.
type Registrar interface {
	Signup(ctx context.Context, u model.User) error
}

// NewSignupEditor creates an editor for self-registration.
func NewSignupEditor(r Registrar, opts ...Option) *UserEditor {
	return NewEditor(Hooks[model.User, model.User]{
		Defaults: func() model.User { return model.User{Role: model.RoleUser} },
		Prepare: func(mode Mode, u *model.User) error {
			u.Role = model.RoleUser
			return prepareUser(mode, u)
		},
		Create: r.Signup,

		CreatedMessage: "Account created, you can now log in",
		Fallback:       "Failed to create account",
	}, opts...)
}

func prepareUser(mode Mode, u *model.User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if mode == ModeCreate && u.Password == "" {
		u.Password = GeneratePassword(u.Name)
	}
	if u.Password != "" && utf8.RuneCountInString(u.Password) < MinPasswordLength {
		return apperr.Invalid("password", "Password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// GeneratePassword derives the initial password of a user created without
// one: the first four letters of the name, lowercased, followed by 123.
func GeneratePassword(name string) string {
	runes := []rune(strings.ToLower(strings.TrimSpace(name)))
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return string(runes) + "123"
}
