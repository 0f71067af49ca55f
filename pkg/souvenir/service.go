package souvenir

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/compress"
	"github.com/partyhub/partyhub/pkg/event"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/storage"
	"golang.org/x/sync/errgroup"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(logger *slog.Logger, repository souvenirRepository, partyService partyService, objectStore objectStore, compressor compressor, publisher publisher, broker broker) *service {
	return &service{
		logger:       logger,
		repository:   repository,
		partyService: partyService,
		objectStore:  objectStore,
		compressor:   compressor,
		publisher:    publisher,
		broker:       broker,
	}
}

type souvenirRepository interface {
	create(ctx context.Context, souvenir *model.Souvenir) error
	findById(ctx context.Context, id uint) (*model.Souvenir, error)
	findByParty(ctx context.Context, partyID uint, kind model.SouvenirKind) ([]model.Souvenir, error)
	delete(ctx context.Context, id uint) error
}

type partyService interface {
	FindById(ctx context.Context, id uint) (*model.Party, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, body storage.ReadAtSeeker, size int64, contentType string, progress storage.ProgressFunc) error
	Download(ctx context.Context, key string, dst io.Writer, cb func(contentLength int64)) error
	Delete(ctx context.Context, key string) error
}

type compressor interface {
	Compress(data []byte) (*compress.Image, error)
}

type publisher interface {
	Publish(ctx context.Context, kind string, userID, partyID uint, payload any)
}

type broker interface {
	Send(userID uint, event event.Event) int
}

type service struct {
	logger       *slog.Logger
	repository   souvenirRepository
	partyService partyService
	objectStore  objectStore
	compressor   compressor
	publisher    publisher
	broker       broker
}

// Kind returns the souvenir kind of a content type.
func Kind(contentType string) (model.SouvenirKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return model.SouvenirPhoto, true
	case strings.HasPrefix(contentType, "video/"):
		return model.SouvenirVideo, true
	case strings.HasPrefix(contentType, "audio/"):
		return model.SouvenirAudio, true
	default:
		return "", false
	}
}

type UploadSouvenir struct {
	Filename string
	Caption  string
	Body     storage.ReadAtSeeker
	Size     int64
}

// Upload stores a souvenir of the party. The kind is derived from the sniffed content type and
// photos are compressed. The uploader receives upload-progress events while the object is stored.
func (s service) Upload(ctx context.Context, uploader *model.User, partyID uint, upload UploadSouvenir) (*model.Souvenir, error) {
	party, err := s.partyService.FindById(ctx, partyID)
	if err != nil {
		return nil, err
	}

	detected, err := mimetype.DetectReader(upload.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to detect content type: %v", err)
	}
	if _, err := upload.Body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %v", err)
	}

	contentType := detected.String()
	kind, ok := Kind(contentType)
	if !ok {
		return nil, errdef.NewUnsupportedMediaType("souvenirs must be photos, videos or audio, got %q", contentType)
	}

	souvenir := &model.Souvenir{
		PartyID:      party.ID,
		UserID:       uploader.ID,
		Kind:         kind,
		ContentType:  contentType,
		Size:         upload.Size,
		OriginalName: path.Base(strings.ReplaceAll(upload.Filename, `\`, "/")),
		Caption:      strings.TrimSpace(upload.Caption),
	}

	body := upload.Body
	if kind == model.SouvenirPhoto {
		data, err := io.ReadAll(upload.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read photo: %v", err)
		}

		image, err := s.compressor.Compress(data)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(image.Data)
		souvenir.Size = int64(len(image.Data))
		souvenir.ContentType = image.ContentType
		souvenir.Width = image.Width
		souvenir.Height = image.Height
		detected = mimetype.Lookup(image.ContentType)
	}

	var extension string
	if detected != nil {
		extension = detected.Extension()
	}
	souvenir.Key = fmt.Sprintf("souvenirs/%d/%s%s", party.ID, uuid.NewString(), extension)

	progress := s.progressReporter(uploader.ID, party.ID, souvenir.OriginalName)
	if err := s.objectStore.Upload(ctx, souvenir.Key, body, souvenir.Size, souvenir.ContentType, progress); err != nil {
		return nil, err
	}

	if err := s.repository.create(ctx, souvenir); err != nil {
		s.removeObject(ctx, souvenir.Key)
		return nil, err
	}

	s.publisher.Publish(ctx, model.EventSouvenirUploaded, uploader.ID, party.ID, map[string]any{
		"souvenirId": souvenir.ID,
		"kind":       souvenir.Kind,
		"size":       souvenir.Size,
	})

	return souvenir, nil
}

// Progress of an upload as sent to the uploader
type Progress struct {
	PartyID     uint   `json:"partyId"`
	Filename    string `json:"filename"`
	Transferred int64  `json:"transferred"`
	Total       int64  `json:"total"`
	Percent     int    `json:"percent"`
}

// progressReporter returns a progress function sending an event each time the completed
// percentage increases. It may be called from the goroutines uploading parts.
func (s service) progressReporter(userID, partyID uint, filename string) storage.ProgressFunc {
	var mu sync.Mutex
	last := -1
	return func(transferred, total int64) {
		percent := 100
		if total > 0 {
			percent = int(transferred * 100 / total)
		}

		mu.Lock()
		defer mu.Unlock()
		if percent <= last {
			return
		}
		last = percent

		message, err := json.Marshal(Progress{
			PartyID:     partyID,
			Filename:    filename,
			Transferred: transferred,
			Total:       total,
			Percent:     percent,
		})
		if err != nil {
			return
		}
		s.broker.Send(userID, event.Event{Type: model.EventUploadProgress, Message: string(message)})
	}
}

func (s service) removeObject(ctx context.Context, key string) {
	if err := s.objectStore.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.ErrorContext(ctx, "Failed to remove souvenir object", "key", key, "error", err)
	}
}

func (s service) FindById(ctx context.Context, id uint) (*model.Souvenir, error) {
	return s.repository.findById(ctx, id)
}

// FindByParty returns the souvenirs of the party newest first, optionally of a single kind.
func (s service) FindByParty(ctx context.Context, partyID uint, kind string) ([]model.Souvenir, error) {
	switch model.SouvenirKind(kind) {
	case "", model.SouvenirPhoto, model.SouvenirVideo, model.SouvenirAudio:
	default:
		return nil, errdef.NewBadRequest("unknown souvenir kind %q", kind)
	}

	if _, err := s.partyService.FindById(ctx, partyID); err != nil {
		return nil, err
	}

	souvenirs, err := s.repository.findByParty(ctx, partyID, model.SouvenirKind(kind))
	if err != nil {
		return nil, err
	}

	if souvenirs == nil {
		souvenirs = []model.Souvenir{}
	}
	return souvenirs, nil
}

// Download writes the stored souvenir to dst. The header callback is called before any byte is
// written.
func (s service) Download(ctx context.Context, id uint, dst io.Writer, header func(souvenir *model.Souvenir, contentLength int64)) error {
	souvenir, err := s.repository.findById(ctx, id)
	if err != nil {
		return err
	}

	return s.objectStore.Download(ctx, souvenir.Key, dst, func(contentLength int64) {
		header(souvenir, contentLength)
	})
}

// Delete removes a souvenir. The uploader, the party creator and administrators may delete it.
func (s service) Delete(ctx context.Context, user *model.User, id uint) error {
	souvenir, err := s.repository.findById(ctx, id)
	if err != nil {
		return err
	}

	if user.ID != souvenir.UserID {
		party, err := s.partyService.FindById(ctx, souvenir.PartyID)
		if err != nil {
			return err
		}
		if !user.CanModify(party.CreatorID) {
			return errdef.NewForbidden("only the uploader, the party creator or an administrator may delete souvenir %d", id)
		}
	}

	if err := s.repository.delete(ctx, id); err != nil {
		return err
	}

	s.removeObject(ctx, souvenir.Key)
	return nil
}

// Archive streams a gzipped tarball of every souvenir of the party to w. The header callback is
// called with the archive file name before anything is written.
func (s service) Archive(ctx context.Context, partyID uint, w io.Writer, header func(filename string)) error {
	party, err := s.partyService.FindById(ctx, partyID)
	if err != nil {
		return err
	}

	souvenirs, err := s.repository.findByParty(ctx, partyID, "")
	if err != nil {
		return err
	}

	header(party.Slug + ".tar.gz")

	pr, pw := io.Pipe()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.writeArchive(ctx, pw, souvenirs)
		_ = pw.CloseWithError(err)
		return err
	})

	g.Go(func() error {
		_, err := io.Copy(w, pr)
		_ = pr.CloseWithError(err)
		return err
	})

	return g.Wait()
}

func (s service) writeArchive(ctx context.Context, w io.Writer, souvenirs []model.Souvenir) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	for _, souvenir := range souvenirs {
		err := tw.WriteHeader(&tar.Header{
			Name:    archiveName(souvenir),
			Mode:    0o644,
			Size:    souvenir.Size,
			ModTime: souvenir.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to write archive header of souvenir %d: %v", souvenir.ID, err)
		}

		if err := s.objectStore.Download(ctx, souvenir.Key, tw, nil); err != nil {
			return fmt.Errorf("failed to archive souvenir %d: %v", souvenir.ID, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

// archiveName prefixes the original name with the id so names are unique within an archive.
func archiveName(souvenir model.Souvenir) string {
	name := strings.TrimSpace(souvenir.OriginalName)
	if name == "" || name == "." || name == "/" {
		name = string(souvenir.Kind) + path.Ext(souvenir.Key)
	}
	return fmt.Sprintf("%d-%s", souvenir.ID, name)
}
