package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/partyhub/partyhub/pkg/comment"
	"github.com/partyhub/partyhub/pkg/config"
	"github.com/partyhub/partyhub/pkg/event"
	"github.com/partyhub/partyhub/pkg/group"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/party"
	"github.com/partyhub/partyhub/pkg/rating"
	"github.com/partyhub/partyhub/pkg/storage"
	"github.com/partyhub/partyhub/pkg/user"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	file := flag.String("file", "cmd/seed/fixtures.yaml", "fixture file to load")
	flag.Parse()

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()

	fixtures, err := loadFixtures(f)
	if err != nil {
		return err
	}

	db, err := newDB(logger)
	if err != nil {
		return err
	}

	s := newSeeder(logger, db, fixtures.geocoder())
	result, err := s.seed(context.Background(), fixtures)
	if err != nil {
		return err
	}

	logger.Info("seed completed", "users", result.Users, "parties", result.Parties, "comments", result.Comments, "ratings", result.Ratings)
	return nil
}

type seeder struct {
	logger         *slog.Logger
	userService    userService
	groupService   groupService
	partyService   partyService
	commentService commentService
	ratingService  ratingService
}

type userService interface {
	FindOrCreate(ctx context.Context, email string, password string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

type groupService interface {
	FindOrCreate(ctx context.Context, name string) (*model.Group, error)
	AddUser(ctx context.Context, groupName string, userId uint) error
}

type partyService interface {
	Create(ctx context.Context, creator *model.User, request party.CreateParty) (*model.Party, error)
}

type commentService interface {
	Create(ctx context.Context, author *model.User, partyID uint, body string, parentID *uint) (*model.Comment, error)
}

type ratingService interface {
	Rate(ctx context.Context, partyID, userID uint, score int) (*model.Rating, error)
}

type result struct {
	Users    int
	Parties  int
	Comments int
	Ratings  int
}

func newSeeder(logger *slog.Logger, db *gorm.DB, geocoder fixtureGeocoder) seeder {
	userService := user.NewService(logger, "", "", 0, user.NewRepository(db), nil, nil, nil, nil)
	publisher := event.NewPublisher(logger, nil, "", event.NewRepository(db))
	partyService := party.NewService(logger, party.NewRepository(db), geocoder, nil, publisher)

	return seeder{
		logger:         logger,
		userService:    userService,
		groupService:   group.NewService(group.NewRepository(db), userService),
		partyService:   partyService,
		commentService: comment.NewService(logger, comment.NewRepository(db), partyService, publisher, event.NewEventBroker(1)),
		ratingService:  rating.NewService(rating.NewRepository(db), partyService),
	}
}

func (s seeder) seed(ctx context.Context, fixtures *Fixtures) (result, error) {
	var r result

	users := make(map[string]*model.User, len(fixtures.Users))
	for _, fu := range fixtures.Users {
		u, err := s.userService.FindOrCreate(ctx, fu.Email, fu.Password)
		if err != nil {
			return r, fmt.Errorf("user %s: %w", fu.Email, err)
		}

		u.Validated = true
		if fu.DisplayName != "" {
			u.DisplayName = fu.DisplayName
		}
		if fu.Bio != "" {
			u.Bio = fu.Bio
		}
		if err := s.userService.Save(ctx, u); err != nil {
			return r, fmt.Errorf("save user %s: %w", fu.Email, err)
		}

		if fu.Admin {
			if _, err := s.groupService.FindOrCreate(ctx, model.AdministratorGroupName); err != nil {
				return r, err
			}
			if err := s.groupService.AddUser(ctx, model.AdministratorGroupName, u.ID); err != nil {
				return r, fmt.Errorf("make %s administrator: %w", fu.Email, err)
			}
		}

		users[fu.Email] = u
		r.Users++
	}

	lookup := func(email string) (*model.User, error) {
		u, ok := users[email]
		if !ok {
			return nil, fmt.Errorf("unknown user %q", email)
		}
		return u, nil
	}

	for _, fp := range fixtures.Parties {
		creator, err := lookup(fp.Creator)
		if err != nil {
			return r, fmt.Errorf("party %q: %w", fp.Title, err)
		}

		p, err := s.partyService.Create(ctx, creator, party.CreateParty{
			Title:       fp.Title,
			Description: fp.Description,
			City:        fp.City,
			Address:     fp.Address,
			StartsAt:    fp.StartsAt,
		})
		if err != nil {
			return r, fmt.Errorf("party %q: %w", fp.Title, err)
		}
		r.Parties++
		s.logger.Info("party created", "slug", p.Slug)

		for _, fc := range fp.Comments {
			n, err := s.seedComment(ctx, lookup, p.ID, fc, nil)
			if err != nil {
				return r, fmt.Errorf("party %q: %w", fp.Title, err)
			}
			r.Comments += n
		}

		for _, fr := range fp.Ratings {
			u, err := lookup(fr.User)
			if err != nil {
				return r, fmt.Errorf("party %q: %w", fp.Title, err)
			}
			if _, err := s.ratingService.Rate(ctx, p.ID, u.ID, fr.Score); err != nil {
				return r, fmt.Errorf("party %q rating by %s: %w", fp.Title, fr.User, err)
			}
			r.Ratings++
		}
	}

	return r, nil
}

func (s seeder) seedComment(ctx context.Context, lookup func(string) (*model.User, error), partyID uint, fc FixtureComment, parentID *uint) (int, error) {
	author, err := lookup(fc.Author)
	if err != nil {
		return 0, err
	}

	c, err := s.commentService.Create(ctx, author, partyID, fc.Body, parentID)
	if err != nil {
		return 0, fmt.Errorf("comment by %s: %w", fc.Author, err)
	}

	n := 1
	for _, reply := range fc.Replies {
		added, err := s.seedComment(ctx, lookup, partyID, reply, &c.ID)
		if err != nil {
			return n, err
		}
		n += added
	}
	return n, nil
}

func newDB(logger *slog.Logger) (*gorm.DB, error) {
	host, err := requireEnv("DATABASE_HOST")
	if err != nil {
		return nil, err
	}
	port, err := requireEnvAsInt("DATABASE_PORT")
	if err != nil {
		return nil, err
	}
	username, err := requireEnv("DATABASE_USERNAME")
	if err != nil {
		return nil, err
	}
	password, err := requireEnv("DATABASE_PASSWORD")
	if err != nil {
		return nil, err
	}
	name, err := requireEnv("DATABASE_NAME")
	if err != nil {
		return nil, err
	}
	return storage.NewDatabase(logger, config.Postgresql{
		Host:         host,
		Port:         port,
		Username:     username,
		Password:     password,
		DatabaseName: name,
	})
}

func requireEnv(key string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return "", fmt.Errorf("required environment variable %q not set", key)
	}
	return value, nil
}

func requireEnvAsInt(key string) (int, error) {
	valueStr, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse environment variable %q as int: %w", key, err)
	}
	return value, nil
}
