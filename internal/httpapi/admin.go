package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	catalogdomain "github.com/Apurer/go-order-console/internal/domains/catalog/domain"
	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/pages/admin"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) OpenAdmin(c *gin.Context) {
	id, _ := s.admins.Open(func(id string) *admin.Page {
		return admin.New(id, s.adminDeps)
	})
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) CloseAdmin(c *gin.Context) {
	if !s.admins.Close(c.Param("sid")) {
		s.responder.NotFound(c, "admin session", c.Param("sid"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListOrders(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	result, err := page.LoadOrders(c.Request.Context(), credentials(c))
	s.respondOrders(c, http.StatusOK, result, err)
}

func (s *Server) CreateOrder(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	var form ordersdomain.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	result, err := page.CreateOrder(c.Request.Context(), credentials(c), form)
	s.respondOrders(c, http.StatusCreated, result, err)
}

func (s *Server) SetOrderStatus(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	id, ok := s.orderID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	result, err := page.SetStatus(c.Request.Context(), credentials(c), id, req.Status)
	s.respondOrders(c, http.StatusOK, result, err)
}

func (s *Server) CancelOrder(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	id, ok := s.orderID(c)
	if !ok {
		return
	}
	result, err := page.Cancel(c.Request.Context(), credentials(c), id)
	s.respondOrders(c, http.StatusOK, result, err)
}

// DeleteOrder requires ?confirm=true; an unconfirmed delete never reaches the backend.
func (s *Server) DeleteOrder(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	id, ok := s.orderID(c)
	if !ok {
		return
	}
	if confirmed, _ := strconv.ParseBool(c.Query("confirm")); !confirmed {
		s.responder.BadRequest(c, "Deleting an order must be confirmed.")
		return
	}
	result, err := page.Delete(c.Request.Context(), credentials(c), id)
	s.respondOrders(c, http.StatusOK, result, err)
}

func (s *Server) BeginEdit(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	id, ok := s.orderID(c)
	if !ok {
		return
	}
	result, err := page.BeginEdit(id)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) CurrentEdit(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	result, editing := page.Editing()
	if !editing {
		s.responder.NotFound(c, "edit session", c.Param("sid"))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) SaveEdit(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	var form ordersdomain.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	result, err := page.SaveEdit(c.Request.Context(), credentials(c), form)
	s.respondOrders(c, http.StatusOK, result, err)
}

func (s *Server) CancelEdit(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	page.CancelEdit()
	c.Status(http.StatusNoContent)
}

func (s *Server) ListProducts(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	result, err := page.LoadProducts(c.Request.Context())
	if err != nil {
		s.respondWithProducts(c, err, result.Products)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdminFocus refetches the catalog table when the operator returns to the tab.
func (s *Server) AdminFocus(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	result, err := page.Focus(c.Request.Context())
	if err != nil {
		s.respondWithProducts(c, err, result.Products)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) CreateProduct(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	var form catalogdomain.ProductForm
	if err := c.ShouldBindJSON(&form); err != nil {
		s.responder.BadRequest(c, err.Error())
		return
	}
	result, err := page.CreateProduct(c.Request.Context(), credentials(c), form)
	if err != nil {
		s.respondWithProducts(c, err, result.Products)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) AdminEvents(c *gin.Context) {
	page, ok := s.admin(c)
	if !ok {
		return
	}
	s.streamEvents(c, page.Events, func() { s.admins.Touch(page.ID) })
}

func (s *Server) admin(c *gin.Context) (*admin.Page, bool) {
	page, ok := s.admins.Get(c.Param("sid"))
	if !ok {
		s.responder.NotFound(c, "admin session", c.Param("sid"))
	}
	return page, ok
}

func (s *Server) orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.responder.BadRequest(c, "Order ID must be numeric.")
		return 0, false
	}
	return id, true
}

// respondOrders renders a failed operation as a problem that still carries the
// table as last fetched.
func (s *Server) respondOrders(c *gin.Context, status int, result admin.OrdersResult, err error) {
	if err != nil {
		s.responder.Respond(c, problemFor(err).WithExtension("orders", result.Orders))
		return
	}
	c.JSON(status, result)
}

func (s *Server) respondWithProducts(c *gin.Context, err error, products []admin.ProductRow) {
	s.responder.Respond(c, problemFor(err).WithExtension("products", products))
}

func credentials(c *gin.Context) authdomain.Credentials {
	username, password, _ := c.Request.BasicAuth()
	return authdomain.NewCredentials(username, password)
}

func problemFor(err error) apierrors.ProblemDetail {
	if problem, ok := apierrors.ProblemFor(err); ok {
		return problem
	}
	return apierrors.ProblemInternal.WithDetail(err.Error())
}
