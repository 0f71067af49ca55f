package comment

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/event"
	"github.com/partyhub/partyhub/pkg/model"
)

const MaxBodyLength = 2000

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(logger *slog.Logger, repository commentRepository, partyService partyService, publisher publisher, broker broker) *service {
	return &service{
		logger:       logger,
		repository:   repository,
		partyService: partyService,
		publisher:    publisher,
		broker:       broker,
	}
}

type commentRepository interface {
	create(ctx context.Context, comment *model.Comment) error
	findById(ctx context.Context, id uint) (*model.Comment, error)
	findByParty(ctx context.Context, partyID uint) ([]model.Comment, error)
	updateBody(ctx context.Context, comment *model.Comment) error
	delete(ctx context.Context, id uint) error
}

type partyService interface {
	FindById(ctx context.Context, id uint) (*model.Party, error)
}

type publisher interface {
	Publish(ctx context.Context, kind string, userID, partyID uint, payload any)
}

type broker interface {
	Send(userID uint, event event.Event) int
}

type service struct {
	logger       *slog.Logger
	repository   commentRepository
	partyService partyService
	publisher    publisher
	broker       broker
}

// CreatedPayload is the payload of the comment.created event.
type CreatedPayload struct {
	CommentID      uint   `json:"commentId"`
	PartyID        uint   `json:"partyId"`
	PartyTitle     string `json:"partyTitle"`
	PartySlug      string `json:"partySlug"`
	PartyCreatorID uint   `json:"partyCreatorId"`
	AuthorID       uint   `json:"authorId"`
	AuthorName     string `json:"authorName"`
	Body           string `json:"body"`
}

func validateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", errdef.NewBadRequest("comment can't be empty")
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return "", errdef.NewBadRequest("comment can't be longer than %d characters", MaxBodyLength)
	}
	return body, nil
}

// Create adds a comment to the party. A reply to a reply is attached to the root of the thread.
func (s service) Create(ctx context.Context, author *model.User, partyID uint, body string, parentID *uint) (*model.Comment, error) {
	body, err := validateBody(body)
	if err != nil {
		return nil, err
	}

	party, err := s.partyService.FindById(ctx, partyID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PartyID: partyID,
		UserID:  author.ID,
		Body:    body,
	}

	if parentID != nil {
		parent, err := s.repository.findById(ctx, *parentID)
		if err != nil {
			if errdef.IsNotFound(err) {
				return nil, errdef.NewBadRequest("parent comment %d doesn't exist", *parentID)
			}
			return nil, err
		}
		if parent.PartyID != partyID {
			return nil, errdef.NewBadRequest("parent comment %d belongs to another party", *parentID)
		}

		rootID := parent.ID
		if parent.ParentID != nil {
			rootID = *parent.ParentID
		}
		comment.ParentID = &rootID
	}

	if err := s.repository.create(ctx, comment); err != nil {
		return nil, err
	}
	comment.User = author

	payload := CreatedPayload{
		CommentID:      comment.ID,
		PartyID:        party.ID,
		PartyTitle:     party.Title,
		PartySlug:      party.Slug,
		PartyCreatorID: party.CreatorID,
		AuthorID:       author.ID,
		AuthorName:     author.DisplayName,
		Body:           comment.Body,
	}
	s.publisher.Publish(ctx, model.EventCommentCreated, author.ID, party.ID, payload)
	s.notifyCreator(ctx, party, payload)

	return comment, nil
}

func (s service) notifyCreator(ctx context.Context, party *model.Party, payload CreatedPayload) {
	if party.CreatorID == 0 || party.CreatorID == payload.AuthorID {
		return
	}

	message, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal comment notification", "error", err)
		return
	}

	delivered := s.broker.Send(party.CreatorID, event.Event{Type: model.EventCommentOnYourParty, Message: string(message)})
	s.logger.DebugContext(ctx, "Sent comment notification", "userId", party.CreatorID, "subscriptions", delivered)
}

// FindThreads returns the root comments of the party, oldest first, each with its replies oldest
// first. Deleted comments keep their place with an empty body.
func (s service) FindThreads(ctx context.Context, partyID uint) ([]model.Comment, error) {
	if _, err := s.partyService.FindById(ctx, partyID); err != nil {
		return nil, err
	}

	comments, err := s.repository.findByParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	return Threads(comments), nil
}

// Threads groups comments ordered oldest first into threads. Replies whose root is missing are
// dropped.
func Threads(comments []model.Comment) []model.Comment {
	roots := make([]model.Comment, 0)
	index := make(map[uint]int)
	for _, comment := range comments {
		if comment.ParentID != nil {
			continue
		}
		index[comment.ID] = len(roots)
		roots = append(roots, redact(comment))
	}

	for _, comment := range comments {
		if comment.ParentID == nil {
			continue
		}
		i, ok := index[*comment.ParentID]
		if !ok {
			continue
		}
		roots[i].Replies = append(roots[i].Replies, redact(comment))
	}

	return roots
}

func redact(comment model.Comment) model.Comment {
	if comment.Deleted {
		comment.Body = ""
		comment.UserID = 0
		comment.User = nil
	}
	return comment
}

// Update changes the body of a comment. Only the author may edit a comment.
func (s service) Update(ctx context.Context, user *model.User, id uint, body string) (*model.Comment, error) {
	body, err := validateBody(body)
	if err != nil {
		return nil, err
	}

	comment, err := s.repository.findById(ctx, id)
	if err != nil {
		return nil, err
	}

	if comment.Deleted {
		return nil, errdef.NewNotFound("comment not found by id: %d", id)
	}

	if comment.UserID != user.ID {
		return nil, errdef.NewForbidden("only the author may edit comment %d", id)
	}

	comment.Body = body
	if err := s.repository.updateBody(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// Delete soft deletes a comment. The author and administrators may delete a comment.
func (s service) Delete(ctx context.Context, user *model.User, id uint) error {
	comment, err := s.repository.findById(ctx, id)
	if err != nil {
		return err
	}

	if comment.Deleted {
		return errdef.NewNotFound("comment not found by id: %d", id)
	}

	if !user.CanModify(comment.UserID) {
		return errdef.NewForbidden("only the author or an administrator may delete comment %d", id)
	}

	return s.repository.delete(ctx, id)
}
