package apperrors

import (
	"fmt"
	"net/http"
	"time"
)

// --- Auth ---

var (
	ErrAuthenticationFailed = New(CodeAuthenticationFailed, "auth", "Authentication failed", http.StatusUnauthorized)
	ErrAuthTimeout          = New(CodeAuthenticationFailed, "auth", "Authentication timeout", http.StatusUnauthorized)
	ErrInvalidCredentials   = New(CodeInvalidCredentials, "auth", "Invalid credentials", http.StatusUnauthorized)
	ErrInvalidToken         = New(CodeInvalidToken, "auth", "Invalid or expired token", http.StatusUnauthorized)
	ErrNotAuthenticated     = New(CodeUnauthorized, "auth", "Not authenticated", http.StatusUnauthorized)
	ErrAlreadyAuthenticated = New(CodeInvalidOperation, "auth", "Connection is already authenticated", http.StatusBadRequest)
)

// --- Users ---

var (
	ErrUserNotFound      = New(CodeNotFound, "user", "User not found", http.StatusNotFound)
	ErrUniqueIDInUse     = New(CodeConflict, "user", "Unique ID already in use", http.StatusConflict)
	ErrCannotBlockSelf   = New(CodeInvalidOperation, "block", "Cannot block yourself", http.StatusBadRequest)
	ErrBlockTargetAbsent = New(CodeNotFound, "block", "User to block not found", http.StatusNotFound)
)

// --- Friendships ---

var (
	ErrCannotFriendSelf      = New(CodeInvalidOperation, "friendship", "Cannot add yourself as a friend", http.StatusBadRequest)
	ErrAlreadyFriends        = New(CodeConflict, "friendship", "Already friends with this user", http.StatusBadRequest)
	ErrFriendRequestPending  = New(CodeConflict, "friendship", "Friend request already pending", http.StatusBadRequest)
	ErrFriendRequestNotFound = New(CodeNotFound, "friendship", "Friend request not found", http.StatusNotFound)
	ErrFriendRequestNotYours = New(CodeForbidden, "friendship", "Only the recipient can answer this friend request", http.StatusForbidden)
)

// --- Chat ---

var (
	ErrNotFriends         = New(CodeForbidden, "chat", "Not authorized to send message to this user", http.StatusForbidden)
	ErrBlocked            = New(CodeForbidden, "chat", "Message could not be sent due to blocking", http.StatusForbidden)
	ErrHistoryForbidden   = New(CodeForbidden, "chat", "Not authorized to view these messages", http.StatusForbidden)
	ErrMessageNotFound    = New(CodeNotFound, "chat", "Message not found", http.StatusNotFound)
	ErrNotParticipant     = New(CodeForbidden, "chat", "Not a participant of this conversation", http.StatusForbidden)
	ErrNotReceiver        = New(CodeForbidden, "chat", "Only the receiver can mark a message as read", http.StatusForbidden)
	ErrUnknownMessage     = New(CodeValidationFailed, "chat", "Message does not exist", http.StatusBadRequest)
	ErrContentTooLong     = New(CodeValidationFailed, "chat", "Message content is too long", http.StatusBadRequest)
	ErrEditNotPermitted   = EditNotPermitted(30 * time.Minute)
	ErrDeleteNotPermitted = DeleteNotPermitted(10 * time.Minute)
	ErrUnknownEvent       = New(CodeValidationFailed, "protocol", "Unknown event type", http.StatusBadRequest)
	ErrMalformedEvent     = New(CodeValidationFailed, "protocol", "Malformed event", http.StatusBadRequest)
)

// --- Media ---

var (
	ErrFileTooLarge    = New(CodeTooLarge, "media", "File too large", http.StatusRequestEntityTooLarge)
	ErrInvalidFileType = New(CodeValidationFailed, "media", "Invalid file type", http.StatusBadRequest)
)

// EditNotPermitted describes the edit rule for the configured window.
func EditNotPermitted(window time.Duration) *AppError {
	return New(CodePreconditionFailed, "chat",
		fmt.Sprintf("Messages can only be edited by their sender within %s of sending", humanWindow(window)),
		http.StatusConflict)
}

func DeleteNotPermitted(window time.Duration) *AppError {
	return New(CodePreconditionFailed, "chat",
		fmt.Sprintf("Messages can only be deleted by their sender within %s of sending", humanWindow(window)),
		http.StatusConflict)
}

func humanWindow(d time.Duration) string {
	if d%time.Minute != 0 {
		return d.String()
	}
	if m := int(d / time.Minute); m != 1 {
		return fmt.Sprintf("%d minutes", m)
	}
	return "1 minute"
}
