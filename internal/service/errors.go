package service

// StatusError 携带稳定错误码的业务错误，API 层据此映射传输层响应
type StatusError struct {
	Code    string
	Message string
}

func (e *StatusError) Error() string { return e.Message }

var (
	ErrFollowSelf = &StatusError{Code: "UNABLE_FOLLOW_YOURSELF", Message: "cannot follow yourself"}

	ErrAlreadyFollowing = &StatusError{Code: "ALREADY_FOLLOWING", Message: "already following this user"}

	ErrNoFollowing = &StatusError{Code: "NO_FOLLOWING", Message: "not following this user"}

	ErrUserNotFound = &StatusError{Code: "USER_NOT_FOUND", Message: "user does not exist"}

	ErrFriendSelf = &StatusError{Code: "UNABLE_FRIEND_YOURSELF", Message: "cannot friend yourself"}

	ErrAlreadyFriends = &StatusError{Code: "ALREADY_FRIENDS", Message: "users are already friends"}

	ErrInvitationExists = &StatusError{Code: "INVITATION_EXISTS", Message: "invitation already sent"}

	ErrInvitationNotFound = &StatusError{Code: "INVITATION_NOT_FOUND", Message: "no invitation to reject"}

	// ErrCorruptedState 同一有向对出现多行邀请，属致命一致性损坏，不自动修复
	ErrCorruptedState = &StatusError{Code: "CORRUPTED_FRIENDSHIP_STATE", Message: "inconsistent friendship state"}

	ErrAlreadyExists = &StatusError{Code: "ALREADY_EXISTS", Message: "relation already exists"}
)
