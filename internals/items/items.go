package items

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/apierr"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage"
	"github.com/vasilis-tsatalis/basic-crud-operations/internals/storage/models"
)

type ItemService struct {
	ItemStorage storage.ItemStorage
	UserStorage storage.UserStorage
}

var itemsPrefix = "items"

func New(itemStorage storage.ItemStorage, userStorage storage.UserStorage) *ItemService {
	return &ItemService{
		ItemStorage: itemStorage,
		UserStorage: userStorage,
	}
}

func (s *ItemService) RegisterRoutes(r gin.IRouter) {
	itemRouter := r.Group("/" + itemsPrefix)
	ownerRouter := r.Group("/users/:user_id/" + itemsPrefix)

	for _, root := range []string{"", "/"} {
		itemRouter.GET(root, s.GetItems)
		ownerRouter.POST(root, s.CreateUserItem)
	}
}

func (s *ItemService) CreateUserItem(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		apierr.InvalidRequest(c, errors.New("user_id must be an integer"))
		return
	}

	var req models.ItemCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.InvalidRequest(c, err)
		return
	}

	ctx := c.Request.Context()

	if _, err := s.UserStorage.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			apierr.NotFound(c, "User not found")
			return
		}
		apierr.Internal(c, "failed to look up user", err)
		return
	}

	item, err := s.ItemStorage.CreateUserItem(ctx, req, userID)
	if err != nil {
		// The owner can vanish between the lookup and the insert.
		if errors.Is(err, storage.ErrNotFound) {
			apierr.NotFound(c, "User not found")
			return
		}
		apierr.Internal(c, "failed to create item", err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *ItemService) GetItems(c *gin.Context) {
	var p models.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		apierr.InvalidRequest(c, err)
		return
	}
	skip, limit := p.Bounds()

	items, err := s.ItemStorage.GetItems(c.Request.Context(), skip, limit)
	if err != nil {
		apierr.Internal(c, "failed to list items", err)
		return
	}

	c.JSON(http.StatusOK, items)
}
