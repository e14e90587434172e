package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	checkoutdomain "github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	"github.com/Apurer/go-order-console/internal/pages/storefront"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type checkoutRequest struct {
	CustomerName   string `json:"customerName"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type openStorefrontResponse struct {
	ID           string                   `json:"id"`
	Products     []storefront.ProductView `json:"products"`
	CatalogError string                   `json:"catalogError,omitempty"`
}

// OpenStorefront creates a storefront instance and loads its catalog.
func (s *Server) OpenStorefront(c *gin.Context) {
	id, page := s.storefronts.Open(func(id string) *storefront.Page {
		return storefront.New(id, s.storefrontDeps)
	})
	response := openStorefrontResponse{ID: id, Products: []storefront.ProductView{}}
	if products, err := page.Refresh(c.Request.Context()); err != nil {
		response.CatalogError = err.Error()
	} else {
		response.Products = products
	}
	c.JSON(http.StatusCreated, response)
}

func (s *Server) CloseStorefront(c *gin.Context) {
	if !s.storefronts.Close(c.Param("sid")) {
		s.responder.NotFound(c, "storefront session", c.Param("sid"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) Catalog(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": page.Products()})
}

// Focus refetches the catalog when the shopper returns to the tab.
func (s *Server) Focus(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	products, err := page.Focus(c.Request.Context())
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) Cart(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, page.Cart())
}

func (s *Server) AddToCart(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	view, err := page.AddToCart(req.ProductID)
	if err != nil {
		if storefront.IsUnknownProduct(err) {
			s.responder.NotFound(c, "product", req.ProductID)
			return
		}
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) IncrementLine(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, page.Increment(c.Param("pid")))
}

func (s *Server) DecrementLine(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, page.Decrement(c.Param("pid")))
}

func (s *Server) RemoveLine(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, page.Remove(c.Param("pid")))
}

// Checkout places the cart's orders. On a partial failure the problem document
// carries how many orders were created before the failing line.
func (s *Server) Checkout(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	}
	customer := checkoutdomain.Customer{
		Name:        req.CustomerName,
		Credentials: authdomain.NewCredentials(req.Username, req.Password),
	}
	result, err := page.Checkout(c.Request.Context(), customer, key)
	if err != nil {
		s.responder.Respond(c, problemFor(err).
			WithExtension("created", result.Created).
			WithExtension("recentOrders", result.Recent))
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) RecentOrders(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"recentOrders": page.Recent()})
}

func (s *Server) Track(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	view, err := page.Track(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) StorefrontEvents(c *gin.Context) {
	page, ok := s.storefront(c)
	if !ok {
		return
	}
	s.streamEvents(c, page.Events, func() { s.storefronts.Touch(page.ID) })
}

func (s *Server) storefront(c *gin.Context) (*storefront.Page, bool) {
	page, ok := s.storefronts.Get(c.Param("sid"))
	if !ok {
		s.responder.NotFound(c, "storefront session", c.Param("sid"))
	}
	return page, ok
}
