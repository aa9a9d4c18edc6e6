package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/soma-lab/relation-core/internal/repository"
	"github.com/soma-lab/relation-core/internal/service"
	"github.com/soma-lab/relation-core/pkg/response"
)

// Handler 关系链 HTTP 入口
type Handler struct {
	followingSvc  service.FollowingService
	friendshipSvc service.FriendshipService
}

func NewHandler(followingSvc service.FollowingService, friendshipSvc service.FriendshipService) *Handler {
	return &Handler{followingSvc: followingSvc, friendshipSvc: friendshipSvc}
}

// writeServiceError 业务错误码到 HTTP 状态的映射
func writeServiceError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrInvalidCursor) {
		response.BadRequest(c, "INVALID_CURSOR", err.Error())
		return
	}
	var se *service.StatusError
	if !errors.As(err, &se) {
		response.InternalError(c, err)
		return
	}
	switch se.Code {
	case "ALREADY_FOLLOWING", "INVITATION_EXISTS", "ALREADY_FRIENDS", "ALREADY_EXISTS":
		response.Conflict(c, se.Code, se.Message)
	case "USER_NOT_FOUND", "NO_FOLLOWING", "INVITATION_NOT_FOUND":
		response.NotFound(c, se.Code, se.Message)
	case "CORRUPTED_FRIENDSHIP_STATE":
		response.InternalError(c, se)
	default:
		response.BadRequest(c, se.Code, se.Message)
	}
}

// writeBindError 参数校验失败：逐字段拼出可读信息
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
		response.BadRequest(c, "INVALID_REQUEST", strings.Join(fields, "; "))
		return
	}
	response.BadRequest(c, "INVALID_REQUEST", err.Error())
}

func pageRequest(c *gin.Context) repository.PageRequest {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	return repository.PageRequest{Limit: limit, Cursor: c.Query("cursor")}
}
