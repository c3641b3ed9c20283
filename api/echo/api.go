package echo

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopd-io/shopd/domain"
	serrors "github.com/shopd-io/shopd/errors"
	appmw "github.com/shopd-io/shopd/middleware"
	"github.com/shopd-io/shopd/mongodb"
	"github.com/shopd-io/shopd/services"
)

// API struct to hold dependencies.
type API struct {
	authService    *services.AuthService
	userService    *services.UserService
	productService *services.ProductService
	authenticator  *appmw.Authenticator
}

// NewAPI initializes the HTTP API.
func NewAPI(
	authService *services.AuthService,
	userService *services.UserService,
	productService *services.ProductService,
	authenticator *appmw.Authenticator,
) *API {
	return &API{
		authService:    authService,
		userService:    userService,
		productService: productService,
		authenticator:  authenticator,
	}
}

// RegisterRoutes registers all API routes. The authentication middleware
// runs on every /api route; RequireAuth guards only the protected ones.
func (a *API) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", a.HealthHandler)

	api := e.Group("/api", a.authenticator.Authenticate())

	api.POST("/users", a.RegisterUserHandler)
	api.GET("/users/me", a.ProfileHandler, appmw.RequireAuth())

	api.POST("/sessions", a.LoginHandler)
	api.GET("/sessions", a.ListSessionsHandler, appmw.RequireAuth())
	api.DELETE("/sessions", a.LogoutHandler, appmw.RequireAuth())
	api.DELETE("/sessions/:id", a.RevokeSessionHandler, appmw.RequireAuth())

	api.GET("/products", a.ListProductsHandler)
	api.GET("/products/:id", a.GetProductHandler)
	api.POST("/products", a.CreateProductHandler, appmw.RequireAuth())
	api.PUT("/products/:id", a.UpdateProductHandler, appmw.RequireAuth())
	api.DELETE("/products/:id", a.DeleteProductHandler, appmw.RequireAuth())
}

// --- Request/response bodies ---

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// --- User handlers ---

// RegisterUserHandler creates a new user account.
func (a *API) RegisterUserHandler(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, serrors.NewInvalidRequest("malformed request body"))
	}

	user, err := a.userService.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// ProfileHandler returns the authenticated caller's profile.
func (a *API) ProfileHandler(c echo.Context) error {
	identity, _ := domain.IdentityFromContext(c.Request().Context())

	user, err := a.userService.GetProfile(c.Request().Context(), identity.UserID)
	if err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// --- Session handlers ---

// LoginHandler authenticates credentials and returns a token pair.
func (a *API) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, serrors.NewInvalidRequest("malformed request body"))
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, serrors.NewInvalidRequest("email and password are required"))
	}

	pair, err := a.authService.Login(c.Request().Context(), req.Email, req.Password, c.Request().UserAgent())
	if err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

// ListSessionsHandler returns the caller's active sessions.
func (a *API) ListSessionsHandler(c echo.Context) error {
	identity, _ := domain.IdentityFromContext(c.Request().Context())

	sessions, err := a.authService.ListSessions(c.Request().Context(), identity.UserID)
	if err != nil {
		return a.serviceError(c, err)
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionResponse{
			ID:        s.ID,
			UserAgent: s.UserAgent,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// LogoutHandler revokes the caller's current session, identified by the
// refresh token header. Logout is declarative and always answers 200.
func (a *API) LogoutHandler(c echo.Context) error {
	refreshToken := c.Request().Header.Get(appmw.RefreshTokenHeader)

	if err := a.authService.RevokeByRefreshToken(c.Request().Context(), refreshToken); err != nil {
		// Storage failure is the one thing logout cannot paper over.
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"revoked": true})
}

// RevokeSessionHandler revokes one of the caller's sessions by ID.
func (a *API) RevokeSessionHandler(c echo.Context) error {
	identity, _ := domain.IdentityFromContext(c.Request().Context())

	if err := a.authService.RevokeOwnedSession(c.Request().Context(), identity.UserID, c.Param("id")); err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"revoked": true})
}

// --- Product handlers ---

// CreateProductHandler creates a product.
func (a *API) CreateProductHandler(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, serrors.NewInvalidRequest("malformed request body"))
	}

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	}
	if err := a.productService.CreateProduct(c.Request().Context(), product); err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, toProductResponse(product))
}

// GetProductHandler returns a single product.
func (a *API) GetProductHandler(c echo.Context) error {
	product, err := a.productService.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toProductResponse(product))
}

// ListProductsHandler returns a page of products.
func (a *API) ListProductsHandler(c echo.Context) error {
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	offset, _ := strconv.ParseInt(c.QueryParam("offset"), 10, 64)

	products, total, err := a.productService.ListProducts(c.Request().Context(), limit, offset)
	if err != nil {
		return a.serviceError(c, err)
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"products": out, "total": total})
}

// UpdateProductHandler updates an existing product.
func (a *API) UpdateProductHandler(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, serrors.NewInvalidRequest("malformed request body"))
	}

	product := &domain.Product{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	}
	if err := a.productService.UpdateProduct(c.Request().Context(), product); err != nil {
		return a.serviceError(c, err)
	}

	updated, err := a.productService.GetProduct(c.Request().Context(), product.ID)
	if err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, toProductResponse(updated))
}

// DeleteProductHandler removes a product.
func (a *API) DeleteProductHandler(c echo.Context) error {
	if err := a.productService.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return a.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

// --- Infrastructure handlers ---

// HealthHandler pings the database.
func (a *API) HealthHandler(c echo.Context) error {
	if err := mongodb.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// serviceError maps service-layer errors onto HTTP responses. Anything not
// in the taxonomy is a storage/server failure and answers 500.
func (a *API) serviceError(c echo.Context, err error) error {
	var apiErr *serrors.APIError
	if errors.As(err, &apiErr) {
		return c.JSON(http.StatusBadRequest, apiErr)
	}

	switch {
	case errors.Is(err, serrors.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, serrors.NewInvalidCredentials())
	case errors.Is(err, serrors.ErrTooManyAttempts):
		return c.JSON(http.StatusTooManyRequests, serrors.NewTooManyAttempts())
	case errors.Is(err, serrors.ErrEmailTaken):
		return c.JSON(http.StatusConflict, serrors.NewConflict("email address already registered"))
	case errors.Is(err, serrors.ErrNotFound):
		return c.JSON(http.StatusNotFound, serrors.NewNotFound("resource not found"))
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return c.JSON(http.StatusInternalServerError, serrors.NewServerError("internal server error"))
	}
}
