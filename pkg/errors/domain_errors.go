package errors

import "strings"

var (
	// 通用
	ErrParameter     = InvalidArg("parameter error")
	ErrPermission    = Forbidden("permission denied")
	ErrInvalidUserID = InvalidArg("invalid user id")

	// 用户
	ErrUserNotFound      = NotFound("user not found")
	ErrUsernameTaken     = AlreadyExists("username is already taken")
	ErrTelTaken          = AlreadyExists("tel is already registered")
	ErrInvalidTel        = InvalidField("tel", "invalid tel number")
	ErrInvalidCredential = Unauthenticated("invalid username or password")
	ErrVerifyCodeMissing = InvalidField("code", "verification code not sent")
	ErrVerifyCodeWrong   = InvalidField("code", "verification code is wrong")
	ErrVerifyTooFrequent = InvalidArg("verification code requested too frequently")

	// 好友关系
	ErrRelationshipNotFound = NotFound("relationship not found")
	ErrAlreadyFriends       = New(CodeAlreadyFriends, "cannot re-add an existing friend")
	ErrAlreadyProcessed     = New(CodeAlreadyProcessed, "cannot process this request again")
	ErrCannotAddSelf        = InvalidField("to_user", "cannot add yourself as a friend")

	// 关注
	ErrCannotFollowSelf = InvalidArg("cannot follow yourself")

	// 帖子 / 评论
	ErrPostNotFound       = NotFound("post not found")
	ErrCommentNotFound    = NotFound("comment not found")
	ErrParentPostMismatch = InvalidField("parent", "parent comment must belong to the same post")
	ErrCommentImmutable   = InvalidArg("comments cannot be edited")

	// 收藏夹
	ErrFavoritesNotFound = NotFound("favorites not found")

	// 推荐
	ErrRecommendNotFound = NotFound("recommend not found")

	// 敏感词
	ErrSensitiveUnavailable = New(CodeUnavailable, "sensitive word filter is not ready")
)

// ErrSensitiveWords 评论包含敏感词
func ErrSensitiveWords(matches []string) error {
	return &AppError{Code: CodeInvalidArgument, Message: "text contains sensitive words: " + strings.Join(matches, ","), Field: "text"}
}

// ErrInvalidFieldValue 字段取值非法
func ErrInvalidFieldValue(field string) error {
	return InvalidField(field, "invalid value for "+field)
}
