// Package mockapi is an in-memory implementation of the inventory REST API
// for tests and local demos. Nothing is persisted.
package mockapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Options configures a Server.
type Options struct {
	// JWTSecret signs session tokens.
	JWTSecret string
	// TokenTTL is the lifetime of issued tokens. Defaults to 24h.
	TokenTTL time.Duration
	// AllowOrigins lists browser origins allowed by CORS. Empty allows all.
	AllowOrigins []string
	Logger       logrus.FieldLogger
	// Now overrides the clock.
	Now func() time.Time
}

type userRecord struct {
	model.User
	hash []byte
}

// Server holds the in-memory data set.
type Server struct {
	secret []byte
	ttl    time.Duration
	log    logrus.FieldLogger
	now    func() time.Time
	engine *gin.Engine

	mu           sync.RWMutex
	users        []*userRecord
	products     []*model.Product
	transactions []*model.Transaction
	alerts       model.AlertSettings
}

// New creates an empty server.
func New(opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "stockdash-dev-secret"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		secret: []byte(opts.JWTSecret),
		ttl:    opts.TokenTTL,
		log:    opts.Logger,
		now:    opts.Now,
		alerts: model.DefaultAlertSettings(),
	}
	s.engine = s.routes(opts.AllowOrigins)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", s.login)
	// Signup and admin create share this route; see createUser.
	r.POST("/users", s.optionalAuth(), s.createUser)

	api := r.Group("/")
	api.Use(s.authRequired())
	{
		api.GET("/products", s.listProducts)
		api.GET("/products/low-stock", s.lowStock)
		api.GET("/transactions", s.listTransactions)
		api.GET("/dashboard/stats", s.dashboardStats)
		api.GET("/alerts/settings", s.getAlerts)
		api.PUT("/users/:username", s.updateUser)

		admin := api.Group("/")
		admin.Use(requireRole(model.RoleAdmin))
		{
			admin.GET("/users", s.listUsers)
			admin.DELETE("/users/:username", s.deleteUser)

			admin.POST("/products", s.createProduct)
			admin.PUT("/products/:id", s.updateProduct)
			admin.DELETE("/products/:id", s.deleteProduct)
			admin.POST("/products/:id/stock", s.adjustStock)

			admin.POST("/transactions", s.createTransaction)
			admin.DELETE("/transactions/:id", s.deleteTransaction)

			admin.PUT("/alerts/settings", s.putAlerts)
		}
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

// SeedUser adds an account directly, bypassing the API.
func (s *Server) SeedUser(name, email, password string, role model.Role) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return model.User{}, err
	}
	u := &userRecord{
		User: model.User{ID: uuid.NewString(), Name: name, Email: email, Role: role},
		hash: hash,
	}
	s.mu.Lock()
	s.users = append(s.users, u)
	s.mu.Unlock()
	return u.User, nil
}

// SeedProduct adds a product directly, bypassing the API.
func (s *Server) SeedProduct(p model.Product) model.Product {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.mu.Lock()
	s.products = append(s.products, &p)
	s.mu.Unlock()
	return p
}

// SeedDemo loads a small demo catalog with an admin (admin@example.com /
// admin123) and a user (user@example.com / user123).
func (s *Server) SeedDemo() error {
	if _, err := s.SeedUser("admin", "admin@example.com", "admin123", model.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.SeedUser("user", "user@example.com", "user123", model.RoleUser); err != nil {
		return err
	}

	demo := []struct {
		sku, name, category, supplier, price string
		stock, min                           int
	}{
		{"TL-001", "Claw Hammer", "Tools", "Acme Supply", "12.50", 40, 10},
		{"TL-002", "Screwdriver Set", "Tools", "Acme Supply", "18.00", 6, 10},
		{"PT-001", "Interior Paint 1L", "Paint", "ColorWorks", "9.75", 0, 5},
		{"PT-002", "Paint Roller", "Paint", "ColorWorks", "4.20", 25, 5},
		{"EL-001", "LED Bulb", "Electrical", "BrightCo", "3.10", 120, 30},
		{"EL-002", "Extension Cord 5m", "Electrical", "BrightCo", "11.90", 8, 8},
	}
	for _, d := range demo {
		s.SeedProduct(model.Product{
			SKU: d.sku, Name: d.name, Category: d.category, Supplier: d.supplier,
			UnitPrice: decimal.RequireFromString(d.price), StockLevel: d.stock, MinStockThreshold: d.min,
		})
	}
	return nil
}

func (s *Server) findUserByName(name string) *userRecord {
	for _, u := range s.users {
		if strings.EqualFold(u.Name, name) {
			return u
		}
	}
	return nil
}

func (s *Server) findUserByEmail(email string) *userRecord {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (s *Server) findProduct(id string) (int, *model.Product) {
	for i, p := range s.products {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
