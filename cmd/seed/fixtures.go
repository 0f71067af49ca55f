package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/geocode"
	"gopkg.in/yaml.v3"
)

type Fixtures struct {
	Users   []FixtureUser  `yaml:"users"`
	Parties []FixtureParty `yaml:"parties"`
}

type FixtureUser struct {
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"displayName"`
	Bio         string `yaml:"bio"`
	Admin       bool   `yaml:"admin"`
}

type FixtureParty struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	City        string           `yaml:"city"`
	Address     string           `yaml:"address"`
	StartsAt    time.Time        `yaml:"startsAt"`
	Creator     string           `yaml:"creator"`
	Latitude    *float64         `yaml:"latitude"`
	Longitude   *float64         `yaml:"longitude"`
	Comments    []FixtureComment `yaml:"comments"`
	Ratings     []FixtureRating  `yaml:"ratings"`
}

type FixtureComment struct {
	Author  string           `yaml:"author"`
	Body    string           `yaml:"body"`
	Replies []FixtureComment `yaml:"replies"`
}

type FixtureRating struct {
	User  string `yaml:"user"`
	Score int    `yaml:"score"`
}

func loadFixtures(r io.Reader) (*Fixtures, error) {
	var fixtures Fixtures
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	if err := fixtures.validate(); err != nil {
		return nil, err
	}

	return &fixtures, nil
}

func (f Fixtures) validate() error {
	var errs []error

	emails := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			errs = append(errs, fmt.Errorf("user %d: email and password are required", i))
		}
		if emails[u.Email] {
			errs = append(errs, fmt.Errorf("user %d: duplicate email %q", i, u.Email))
		}
		emails[u.Email] = true
	}

	for i, p := range f.Parties {
		if p.Title == "" || p.City == "" || p.StartsAt.IsZero() {
			errs = append(errs, fmt.Errorf("party %d: title, city and startsAt are required", i))
		}
		if !emails[p.Creator] {
			errs = append(errs, fmt.Errorf("party %q: unknown creator %q", p.Title, p.Creator))
		}
		if (p.Latitude == nil) != (p.Longitude == nil) {
			errs = append(errs, fmt.Errorf("party %q: latitude and longitude must be set together", p.Title))
		}
		for _, r := range p.Ratings {
			if !emails[r.User] {
				errs = append(errs, fmt.Errorf("party %q: unknown rating user %q", p.Title, r.User))
			}
		}
	}

	return errors.Join(errs...)
}

// geocoder resolves cities to the coordinates given in the fixtures so seeding never calls the
// public geocoding API.
func (f Fixtures) geocoder() fixtureGeocoder {
	g := fixtureGeocoder{}
	for _, p := range f.Parties {
		if p.Latitude != nil && p.Longitude != nil {
			g[geocode.Normalize(p.City)] = geocode.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}
		}
	}
	return g
}

type fixtureGeocoder map[string]geocode.Coordinates

func (g fixtureGeocoder) Lookup(_ context.Context, city string) (*geocode.Coordinates, error) {
	coordinates, ok := g[geocode.Normalize(city)]
	if !ok {
		return nil, errdef.NewNotFound("no coordinates for %q", city)
	}
	return &coordinates, nil
}
