package users

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/apierr"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/models"
)

type UserService struct {
	UserStorage storage.UserStorage
}

var usersPrefix = "users"

func New(userStorage storage.UserStorage) *UserService {
	return &UserService{
		UserStorage: userStorage,
	}
}

// RegisterRoutes serves every path with and without the trailing slash.
func (s *UserService) RegisterRoutes(r gin.IRouter) {
	userRouter := r.Group("/" + usersPrefix)

	for _, root := range []string{"", "/"} {
		userRouter.POST(root, s.CreateUser)
		userRouter.GET(root, s.GetUsers)
	}
	userRouter.GET("/:user_id", s.GetUser)
}

func (s *UserService) CreateUser(c *gin.Context) {
	var req models.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.InvalidRequest(c, err)
		return
	}

	// bcrypt limits by bytes, the binding max would count runes
	if len(req.PasswordValue()) > models.MaxPasswordBytes {
		apierr.InvalidRequest(c, fmt.Errorf("password must be at most %d bytes", models.MaxPasswordBytes))
		return
	}

	ctx := c.Request.Context()

	// Fast path only, the unique index on users.email decides under races.
	_, err := s.UserStorage.GetUserByEmail(ctx, req.EmailValue())
	switch {
	case err == nil:
		emailExists(c)
		return
	case !errors.Is(err, storage.ErrNotFound):
		apierr.Internal(c, "failed to look up user", err)
		return
	}

	user, err := s.UserStorage.CreateUser(ctx, req)
	if err != nil {
		if errors.Is(err, storage.ErrEmailExists) {
			emailExists(c)
			return
		}
		apierr.Internal(c, "failed to create user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *UserService) GetUsers(c *gin.Context) {
	var p models.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		apierr.InvalidRequest(c, err)
		return
	}
	skip, limit := p.Bounds()

	users, err := s.UserStorage.GetUsers(c.Request.Context(), skip, limit)
	if err != nil {
		apierr.Internal(c, "failed to list users", err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (s *UserService) GetUser(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		apierr.InvalidRequest(c, err)
		return
	}

	user, err := s.UserStorage.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			apierr.NotFound(c, "User not found")
			return
		}
		apierr.Internal(c, "failed to get user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func parseUserID(c *gin.Context) (int64, error) {
	raw := c.Param("user_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("user_id must be an integer")
	}
	return id, nil
}

func emailExists(c *gin.Context) {
	apierr.Write(c, http.StatusBadRequest, apierr.CodeEmailExists, "Email already registered")
}
