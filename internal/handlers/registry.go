package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler       *AuthHandler
	UserHandler       *UserHandler
	FriendHandler     *FriendHandler
	MessageHandler    *MessageHandler
	PreferenceHandler *PreferenceHandler
	MediaHandler      *MediaHandler
	HealthHandler     *HealthHandler
}
