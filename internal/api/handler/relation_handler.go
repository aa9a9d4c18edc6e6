package handler

import (
    "strconv"

    "github.com/gin-gonic/gin"

    "github.com/soma-lab/relation-core/pkg/middleware"
    "github.com/soma-lab/relation-core/pkg/response"
)

type followRequest struct {
    UserID int64 `json:"user_id" binding:"required,gt=0"`
}

// Follow 建立关注
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "被关注用户"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
    actorID, ok := middleware.UserID(c)
    if !ok {
        response.Unauthorized(c, "login required")
        return
    }
    var req followRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        writeBindError(c, err)
        return
    }
    if err := h.followingSvc.CreateFollowing(c.Request.Context(), actorID, req.UserID); err != nil {
        writeServiceError(c, err)
        return
    }
    response.Success(c, nil)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "被取关用户"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
    actorID, ok := middleware.UserID(c)
    if !ok {
        response.Unauthorized(c, "login required")
        return
    }
    var req followRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        writeBindError(c, err)
        return
    }
    if err := h.followingSvc.DeleteFollowing(c.Request.Context(), actorID, req.UserID); err != nil {
        writeServiceError(c, err)
        return
    }
    response.Success(c, nil)
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path int true "用户ID"
// @Param limit query int false "页大小"
// @Param cursor query string false "上一页返回的游标"
// @Success 200 {object} response.Response{data=service.FollowPage}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
    userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
    if err != nil {
        response.BadRequest(c, "INVALID_REQUEST", "invalid user id")
        return
    }
    page, err := h.followingSvc.ListFollowing(c.Request.Context(), userID, pageRequest(c))
    if err != nil {
        writeServiceError(c, err)
        return
    }
    response.Success(c, page)
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param user_id path int true "用户ID"
// @Param limit query int false "页大小"
// @Param cursor query string false "上一页返回的游标"
// @Success 200 {object} response.Response{data=service.FollowPage}
// @Router /api/v1/relations/{user_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
    userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
    if err != nil {
        response.BadRequest(c, "INVALID_REQUEST", "invalid user id")
        return
    }
    page, err := h.followingSvc.ListFollowers(c.Request.Context(), userID, pageRequest(c))
    if err != nil {
        writeServiceError(c, err)
        return
    }
    response.Success(c, page)
}

// IsFollower 关注关系探测
// @Summary 是否已关注
// @Tags 关系链
// @Param follower_id query int true "关注者"
// @Param followed_id query int true "被关注者"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Router /api/v1/relations/is-follower [get]
func (h *Handler) IsFollower(c *gin.Context) {
    followerID, err1 := strconv.ParseInt(c.Query("follower_id"), 10, 64)
    followedID, err2 := strconv.ParseInt(c.Query("followed_id"), 10, 64)
    if err1 != nil || err2 != nil {
        response.BadRequest(c, "INVALID_REQUEST", "follower_id and followed_id are required")
        return
    }
    ok, err := h.followingSvc.IsFollower(c.Request.Context(), followerID, followedID)
    if err != nil {
        writeServiceError(c, err)
        return
    }
    response.Success(c, gin.H{"is_follower": ok})
}
