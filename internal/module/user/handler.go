package user

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/docbase/internal/domain"
	"github.com/simp-lee/docbase/internal/pkg"
)

// UserHandler handles REST API requests for the user resource.
type UserHandler struct {
	svc domain.UserService
}

// NewUserHandler creates a new UserHandler with the given service.
func NewUserHandler(svc domain.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// DeleteUserRequest holds the query parameters of DELETE /users/:email.
type DeleteUserRequest struct {
	Permanent bool `form:"permanent"`
}

// List handles GET /api/v1/users.
//
// @Summary      List users
// @Description  Lists users that are not deleted. page and page_size paginate the result; without them every match is returned and the pagination fields are -1.
// @Tags         Users
// @Produce      json
// @Param        email      query  string  false  "Exact email"
// @Param        status     query  string  false  "Status"  Enums(active, inactive, banned)
// @Param        page       query  int     false  "Page number, 1-based"  minimum(1)
// @Param        page_size  query  int     false  "Page size"  minimum(1)  maximum(100)
// @Param        sort       query  string  false  "Sort, e.g. last_name:asc,created_at:desc"
// @Param        search     query  string  false  "Case-insensitive substring search, e.g. email:example,first_name:ja"
// @Success      200  {object}  pkg.ListResponse{data=[]UserResponse}
// @Failure      400  {object}  pkg.ValidationErrorResponse
// @Failure      500  {object}  pkg.Response
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter, q, ok := bindListQuery(c)
	if !ok {
		return
	}

	result, err := h.svc.ListUsers(c.Request.Context(), filter, q)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	users, err := ToUserResponses(result.Data)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, users, &result.Meta)
}

// Export handles GET /api/v1/users/export.
//
// @Summary      Export users
// @Description  Returns every matching user in one unpaginated list. page_size alone caps the result; page together with page_size is rejected.
// @Tags         Users
// @Produce      json
// @Param        email      query  string  false  "Exact email"
// @Param        status     query  string  false  "Status"  Enums(active, inactive, banned)
// @Param        page_size  query  int     false  "Maximum number of users"  minimum(1)  maximum(100)
// @Param        sort       query  string  false  "Sort, e.g. email:asc"
// @Param        search     query  string  false  "Case-insensitive substring search"
// @Success      200  {object}  pkg.ListResponse{data=[]UserResponse}
// @Failure      400  {object}  pkg.Response
// @Failure      500  {object}  pkg.Response
// @Router       /users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	filter, q, ok := bindListQuery(c)
	if !ok {
		return
	}
	if q.Paginated() {
		pkg.Error(c, domain.Validationf("export is not paginated; use page_size alone to limit the result"))
		return
	}

	found, err := h.svc.ExportUsers(c.Request.Context(), filter, q)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	users, err := ToUserResponses(found)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, users, nil)
}

// Get handles GET /api/v1/users/:email.
//
// @Summary      Find user by email
// @Tags         Users
// @Produce      json
// @Param        email  path  string  true  "Email"
// @Success      200  {object}  pkg.Response{data=UserResponse}
// @Failure      404  {object}  pkg.Response
// @Failure      500  {object}  pkg.Response
// @Router       /users/{email} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.FindUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	resp, err := ToUserResponse(user)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, resp)
}

// Exists handles GET /api/v1/users/exists/:email.
//
// @Summary      Check whether a user exists
// @Tags         Users
// @Produce      json
// @Param        email  path  string  true  "Email"
// @Success      200  {object}  pkg.Response{data=bool}
// @Failure      500  {object}  pkg.Response
// @Router       /users/exists/{email} [get]
func (h *UserHandler) Exists(c *gin.Context) {
	exists, err := h.svc.UserExists(c.Request.Context(), c.Param("email"))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, exists)
}

// Create handles POST /api/v1/users.
//
// @Summary      Create user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body  CreateUserRequest  true  "User"
// @Success      201  {object}  pkg.Response{data=UserResponse}
// @Failure      400  {object}  pkg.ValidationErrorResponse
// @Failure      409  {object}  pkg.Response
// @Failure      500  {object}  pkg.Response
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), domain.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		pkg.Error(c, err)
		return
	}

	resp, err := ToUserResponse(user)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, resp)
}

// Update handles PATCH /api/v1/users/:email.
//
// @Summary      Update user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        email  path  string             true  "Email"
// @Param        body   body  UpdateUserRequest  true  "Fields to change"
// @Success      200  {object}  pkg.Response{data=UserResponse}
// @Failure      400  {object}  pkg.ValidationErrorResponse
// @Failure      404  {object}  pkg.Response
// @Failure      500  {object}  pkg.Response
// @Router       /users/{email} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	user, err := h.svc.UpdateUser(c.Request.Context(), c.Param("email"), req.Input())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	resp, err := ToUserResponse(user)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, resp)
}

// Delete handles DELETE /api/v1/users/:email.
//
// @Summary      Delete user
// @Description  Soft-deletes the user. permanent=true removes it from storage instead.
// @Tags         Users
// @Produce      json
// @Param        email      path   string  true   "Email"
// @Param        permanent  query  bool    false  "Remove permanently"
// @Success      200  {object}  pkg.Response
// @Failure      400  {object}  pkg.Response
// @Failure      404  {object}  pkg.Response
// @Failure      500  {object}  pkg.Response
// @Router       /users/{email} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	var req DeleteUserRequest
	if !pkg.BindQueryAndValidate(c, &req) {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), c.Param("email"), req.Permanent); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, nil)
}

// bindListQuery binds the filters and query options shared by List and Export.
// It writes a 400 response and returns false on invalid input.
func bindListQuery(c *gin.Context) (domain.UserFilter, domain.QueryOptions, bool) {
	var filter ListUsersRequest
	if !pkg.BindQueryAndValidate(c, &filter) {
		return domain.UserFilter{}, domain.QueryOptions{}, false
	}
	q, ok := pkg.BindQueryOptions(c)
	if !ok {
		return domain.UserFilter{}, domain.QueryOptions{}, false
	}
	return filter.Filter(), q, true
}
