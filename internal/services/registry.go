package services

import (
	"talkio_backend/internal/auth"
	"talkio_backend/internal/config"
	"talkio_backend/internal/repositories"
	"talkio_backend/internal/services/chat"
	"talkio_backend/internal/storage"
)

// ServiceContainer holds every service of the application.
type ServiceContainer struct {
	UserService         *UserService
	FriendService       *FriendService
	BlockService        *BlockService
	PreferenceService   *PreferenceService
	MessageQueryService *MessageQueryService
	MediaService        *MediaService

	MessageService  *chat.MessageService
	ReactionService *chat.ReactionService
	MutationService *chat.MutationService
}

func NewServiceContainer(cfg *config.Config, gw repositories.Gateway, tokens *auth.TokenManager, store storage.Storage) *ServiceContainer {
	windows := repositories.Windows{
		Edit:   cfg.Chat.EditWindow.Std(),
		Delete: cfg.Chat.DeleteWindow.Std(),
	}
	return &ServiceContainer{
		UserService:         NewUserService(gw, tokens),
		FriendService:       NewFriendService(gw),
		BlockService:        NewBlockService(gw),
		PreferenceService:   NewPreferenceService(gw),
		MessageQueryService: NewMessageQueryService(gw, cfg.Chat.HistoryLimit),
		MediaService:        NewMediaService(store, cfg.Storage.MaxVoiceBytes),
		MessageService:      chat.NewMessageService(gw, cfg.Chat.MaxContentLength),
		ReactionService:     chat.NewReactionService(gw),
		MutationService:     chat.NewMutationService(gw, windows, cfg.Chat.MaxContentLength),
	}
}
