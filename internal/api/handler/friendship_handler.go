package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/soma-lab/relation-core/internal/service"
    "github.com/soma-lab/relation-core/pkg/middleware"
    "github.com/soma-lab/relation-core/pkg/response"
)

type friendshipActionRequest struct {
    TargetID int64  `json:"target_id" binding:"required,gt=0"`
    Action   string `json:"action" binding:"required,oneof=ADD REJECT"`
}

// FriendshipAction 好友操作（发起 / 确认 / 拒绝 / 解除）
// @Summary 好友操作
// @Tags 好友
// @Accept json
// @Produce json
// @Param request body friendshipActionRequest true "目标用户与操作"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/friendships/action [post]
func (h *Handler) FriendshipAction(c *gin.Context) {
    actorID, ok := middleware.UserID(c)
    if !ok {
        response.Unauthorized(c, "login required")
        return
    }
    var req friendshipActionRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        writeBindError(c, err)
        return
    }
    err := h.friendshipSvc.FriendshipAction(c.Request.Context(), actorID, req.TargetID,
        service.FriendshipActionType(req.Action))
    if err != nil {
        writeServiceError(c, err)
        return
    }
    response.Success(c, nil)
}

// ListFriends 我的好友页（待处理邀请在前）
// @Summary 查询我的好友
// @Tags 好友
// @Param limit query int false "页大小"
// @Param cursor query string false "上一页返回的游标"
// @Success 200 {object} response.Response{data=service.FriendPage}
// @Router /api/v1/friendships [get]
func (h *Handler) ListFriends(c *gin.Context) {
    actorID, ok := middleware.UserID(c)
    if !ok {
        response.Unauthorized(c, "login required")
        return
    }
    page, err := h.friendshipSvc.ListFriends(c.Request.Context(), actorID, pageRequest(c))
    if err != nil {
        writeServiceError(c, err)
        return
    }
    response.Success(c, page)
}

// ListAnothersFriends 他人好友页（仅已确认）
// @Summary 查询他人好友
// @Tags 好友
// @Param user_id path int true "用户ID"
// @Param limit query int false "页大小"
// @Param cursor query string false "上一页返回的游标"
// @Success 200 {object} response.Response{data=service.FriendPage}
// @Router /api/v1/friendships/{user_id} [get]
func (h *Handler) ListAnothersFriends(c *gin.Context) {
    userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
    if err != nil {
        response.BadRequest(c, "INVALID_REQUEST", "invalid user id")
        return
    }
    page, err := h.friendshipSvc.ListAnothersFriends(c.Request.Context(), userID, pageRequest(c))
    if err != nil {
        writeServiceError(c, err)
        return
    }
    response.Success(c, page)
}
