package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"talkio_backend/internal/logger"
	"talkio_backend/internal/storage"
	"talkio_backend/pkg/apperrors"

	"github.com/google/uuid"
)

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,6}$`)

var ErrMediaNotFound = apperrors.NewNotFoundError("media", "File not found")

// MediaService stores voice clips. The returned URL is what clients send as
// the content of a voice message.
type MediaService struct {
	store         storage.Storage
	maxVoiceBytes int64
}

func NewMediaService(store storage.Storage, maxVoiceBytes int64) *MediaService {
	return &MediaService{store: store, maxVoiceBytes: maxVoiceBytes}
}

func (s *MediaService) UploadVoice(ctx context.Context, userID uint, filename, contentType string, size int64, r io.Reader) (string, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "audio/") {
		return "", apperrors.ErrInvalidFileType.WithDetails("only audio files are accepted")
	}
	if s.maxVoiceBytes > 0 && size > s.maxVoiceBytes {
		return "", apperrors.ErrFileTooLarge
	}

	// declared size is not trusted
	var buf bytes.Buffer
	src := r
	if s.maxVoiceBytes > 0 {
		src = io.LimitReader(r, s.maxVoiceBytes+1)
	}
	n, err := io.Copy(&buf, src)
	if err != nil {
		return "", apperrors.NewBadRequestError("Failed to read upload")
	}
	if s.maxVoiceBytes > 0 && n > s.maxVoiceBytes {
		return "", apperrors.ErrFileTooLarge
	}

	key := voiceKey(userID, filename)
	if err := s.store.Save(ctx, key, bytes.NewReader(buf.Bytes()), contentType); err != nil {
		return "", apperrors.StorageError(err, "Failed to store voice clip")
	}

	logger.CtxInfo(ctx, "voice clip stored", "key", key, "bytes", n)
	return s.store.URL(key), nil
}

// Open is used to serve locally stored media.
func (s *MediaService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, apperrors.StorageError(err, "Failed to read file")
	}
	return rc, nil
}

func voiceKey(userID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("voice/%d/%s%s", userID, uuid.NewString(), ext)
}
