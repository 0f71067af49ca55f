package user

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-mail/mail"
	"github.com/google/uuid"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/compress"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/storage"
	"golang.org/x/crypto/scrypt"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(
	logger *slog.Logger,
	uiUrl string,
	mailFrom string,
	passwordTokenTtl uint,
	repository userRepository,
	dialer dialer,
	objectStore objectStore,
	compressor compressor,
	sessions sessionRevoker,
) *Service {
	return &Service{
		logger:           logger,
		uiUrl:            uiUrl,
		mailFrom:         mailFrom,
		passwordTokenTtl: passwordTokenTtl,
		repository:       repository,
		dialer:           dialer,
		objectStore:      objectStore,
		compressor:       compressor,
		sessions:         sessions,
	}
}

type userRepository interface {
	save(ctx context.Context, user *model.User) error
	create(ctx context.Context, u *model.User) error
	findAll(ctx context.Context) ([]*model.User, error)
	findByEmail(ctx context.Context, email string) (*model.User, error)
	findByEmailToken(ctx context.Context, token uuid.UUID) (*model.User, error)
	findByPasswordResetToken(ctx context.Context, token string) (*model.User, error)
	findOrCreate(ctx context.Context, user *model.User) (*model.User, error)
	findById(ctx context.Context, id uint) (*model.User, error)
	delete(ctx context.Context, id uint) error
	update(ctx context.Context, user *model.User) (*model.User, error)
	resetPassword(ctx context.Context, user *model.User) error
}

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, body storage.ReadAtSeeker, size int64, contentType string, progress storage.ProgressFunc) error
	Download(ctx context.Context, key string, dst io.Writer, cb func(contentLength int64)) error
	Delete(ctx context.Context, key string) error
}

type compressor interface {
	Compress(data []byte) (*compress.Image, error)
}

type sessionRevoker interface {
	DeleteRefreshTokens(ctx context.Context, userId uint) error
}

type Service struct {
	logger           *slog.Logger
	uiUrl            string
	mailFrom         string
	passwordTokenTtl uint
	repository       userRepository
	dialer           dialer
	objectStore      objectStore
	compressor       compressor
	sessions         sessionRevoker
}

func (s Service) Save(ctx context.Context, user *model.User) error {
	return s.repository.save(ctx, user)
}

func (s Service) SignUp(ctx context.Context, email, password, displayName string) (*model.User, error) {
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("password hashing failed: %v", err)
	}

	user := &model.User{
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(displayName),
		EmailToken:  uuid.New(),
		Password:    hashedPassword,
	}

	err = s.repository.create(ctx, user)
	if err != nil {
		return nil, err
	}

	err = s.sendValidationEmail(user)
	if err != nil {
		return nil, fmt.Errorf("failed to send validation email: %v", err)
	}

	return user, nil
}

func (s Service) sendValidationEmail(user *model.User) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.mailFrom)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", "Welcome to PartyHub")
	link := fmt.Sprintf("%s/validate/%s", s.uiUrl, user.EmailToken)
	body := fmt.Sprintf("Hello %s, please click the below link to verify your email.<br/>%s", user.DisplayName, link)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func hashPassword(password string) (string, error) {
	// example for making salt - https://play.golang.org/p/_Aw6WeWC42I
	salt := make([]byte, 32)
	_, err := rand.Read(salt)
	if err != nil {
		return "", err
	}

	// using recommended cost parameters from - https://godoc.org/golang.org/x/crypto/scrypt
	hash, err := scrypt.Key([]byte(password), salt, 32768, 8, 1, 32)
	if err != nil {
		return "", err
	}

	hashedPassword := fmt.Sprintf("%s.%s", hex.EncodeToString(hash), hex.EncodeToString(salt))

	return hashedPassword, nil
}

func comparePasswords(storedPassword string, suppliedPassword string) (bool, error) {
	passwordAndSalt := strings.Split(storedPassword, ".")
	if len(passwordAndSalt) != 2 {
		return false, fmt.Errorf("wrong password/salt format")
	}

	salt, err := hex.DecodeString(passwordAndSalt[1])
	if err != nil {
		return false, fmt.Errorf("unable to verify user password")
	}

	hash, err := scrypt.Key([]byte(suppliedPassword), salt, 32768, 8, 1, 32)
	if err != nil {
		return false, err
	}

	return hex.EncodeToString(hash) == passwordAndSalt[0], nil
}

func (s Service) ValidateEmail(ctx context.Context, token uuid.UUID) error {
	user, err := s.repository.findByEmailToken(ctx, token)
	if err != nil {
		return err
	}

	user.Validated = true
	return s.repository.save(ctx, user)
}

func (s Service) SignIn(ctx context.Context, email string, password string) (*model.User, error) {
	const unauthorizedError = "invalid email and password combination"

	user, err := s.repository.findByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, errdef.NewUnauthorized(unauthorizedError)
		}
		return nil, err
	}

	match, err := comparePasswords(user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("password hashing failed: %v", err)
	}

	if !match {
		return nil, errdef.NewUnauthorized(unauthorizedError)
	}

	if !user.Validated {
		return nil, errdef.NewForbidden("account not validated")
	}

	return user, nil
}

func (s Service) FindAll(ctx context.Context) ([]*model.User, error) {
	return s.repository.findAll(ctx)
}

func (s Service) FindById(ctx context.Context, id uint) (*model.User, error) {
	return s.repository.findById(ctx, id)
}

func (s Service) FindOrCreate(ctx context.Context, email string, password string) (*model.User, error) {
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := &model.User{
		Email:       email,
		DisplayName: strings.Split(email, "@")[0],
		EmailToken:  uuid.New(),
		Password:    hashedPassword,
	}

	return s.repository.findOrCreate(ctx, user)
}

// Delete deletes the user and its avatar. Users can't delete themselves through this.
func (s Service) Delete(ctx context.Context, currentUser *model.User, id uint) error {
	if currentUser.ID == id {
		return errdef.NewBadRequest("you can't delete your own account")
	}

	user, err := s.repository.findById(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repository.delete(ctx, id); err != nil {
		return err
	}

	if user.AvatarKey != "" {
		if err := s.objectStore.Delete(ctx, user.AvatarKey); err != nil {
			s.logger.ErrorContext(ctx, "Failed to delete avatar", "error", err, "key", user.AvatarKey)
		}
	}

	return nil
}

type UpdateUser struct {
	DisplayName *string
	Bio         *string
	Password    *string
}

func (s Service) Update(ctx context.Context, id uint, update UpdateUser) (*model.User, error) {
	user, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*update.DisplayName)
	}

	if update.Bio != nil {
		user.Bio = strings.TrimSpace(*update.Bio)
	}

	if update.Password != nil {
		user.Password, err = hashPassword(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %v", err)
		}
	}

	return s.repository.update(ctx, user)
}

// UpdateAvatar compresses and stores the given image as the users avatar. The previous avatar is
// removed.
func (s Service) UpdateAvatar(ctx context.Context, id uint, data []byte) (*model.User, error) {
	user, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}

	contentType := mimetype.Detect(data)
	if !strings.HasPrefix(contentType.String(), "image/") {
		return nil, errdef.NewUnsupportedMediaType("avatar must be an image, got %q", contentType.String())
	}

	image, err := s.compressor.Compress(data)
	if err != nil {
		return nil, err
	}

	var extension string
	if m := mimetype.Lookup(image.ContentType); m != nil {
		extension = m.Extension()
	}
	key := fmt.Sprintf("avatars/%d/%s%s", user.ID, uuid.NewString(), extension)
	err = s.objectStore.Upload(ctx, key, bytes.NewReader(image.Data), int64(len(image.Data)), image.ContentType, nil)
	if err != nil {
		return nil, err
	}

	previousKey := user.AvatarKey
	user.AvatarKey = key
	user.AvatarType = image.ContentType
	user, err = s.repository.update(ctx, user)
	if err != nil {
		return nil, err
	}

	if previousKey != "" {
		if err := s.objectStore.Delete(ctx, previousKey); err != nil {
			s.logger.ErrorContext(ctx, "Failed to delete previous avatar", "error", err, "key", previousKey)
		}
	}

	return user, nil
}

// DownloadAvatar writes the avatar of the user to dst. The header callback is called with the
// content type and length before any byte is written.
func (s Service) DownloadAvatar(ctx context.Context, id uint, dst io.Writer, header func(contentType string, contentLength int64)) error {
	user, err := s.repository.findById(ctx, id)
	if err != nil {
		return err
	}

	if user.AvatarKey == "" {
		return errdef.NewNotFound("user %d has no avatar", id)
	}

	return s.objectStore.Download(ctx, user.AvatarKey, dst, func(contentLength int64) {
		header(user.AvatarType, contentLength)
	})
}

func (s Service) sendResetPasswordEmail(user *model.User) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.mailFrom)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", "Reset your PartyHub password")
	link := fmt.Sprintf("%s/reset-password/%s", s.uiUrl, user.PasswordToken.String)
	body := fmt.Sprintf("Hello, please click the link below to reset your password.<br/>%s", link)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

// RequestPasswordReset sends a reset link to the given email. Unknown emails are ignored so the
// endpoint can't be used to find registered accounts.
func (s Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repository.findByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errdef.IsNotFound(err) {
			s.logger.InfoContext(ctx, "Password reset requested for unknown email")
			return nil
		}
		return err
	}

	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	token := base64.URLEncoding.EncodeToString(b)

	user.PasswordToken = sql.NullString{String: token, Valid: true}
	user.PasswordTokenTTL = uint(time.Now().Unix()) + s.passwordTokenTtl

	err = s.repository.save(ctx, user)
	if err != nil {
		return err
	}

	return s.sendResetPasswordEmail(user)
}

func (s Service) ResetPassword(ctx context.Context, token string, password string) error {
	user, err := s.repository.findByPasswordResetToken(ctx, token)
	if err != nil {
		return err
	}

	tokenTtl := time.Unix(int64(user.PasswordTokenTTL), 0).UTC()
	if tokenTtl.Before(time.Now()) {
		return errdef.NewBadRequest("reset token has expired")
	}

	user.Password, err = hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	if err := s.repository.resetPassword(ctx, user); err != nil {
		return err
	}

	// sessions started with the old password must not outlive it
	if err := s.sessions.DeleteRefreshTokens(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions of user %d: %v", user.ID, err)
	}
	return nil
}
