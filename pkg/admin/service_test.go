package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/partyhub/partyhub/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	counts   map[string]int64
	countErr error
	limit    int
}

func (r *stubRepository) count(_ context.Context, value any) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.counts[fmt.Sprintf("%T", value)], nil
}

func (r *stubRepository) findLatestComments(_ context.Context, limit int) ([]LatestComment, error) {
	r.limit = limit
	return nil, nil
}

func TestStats(t *testing.T) {
	repository := &stubRepository{counts: map[string]int64{
		fmt.Sprintf("%T", &model.User{}):     3,
		fmt.Sprintf("%T", &model.Party{}):    5,
		fmt.Sprintf("%T", &model.Comment{}):  8,
		fmt.Sprintf("%T", &model.Souvenir{}): 13,
		fmt.Sprintf("%T", &model.Rating{}):   21,
	}}

	stats, err := NewService(repository).Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 3, Parties: 5, Comments: 8, Souvenirs: 13, Ratings: 21}, *stats)
}

func TestStats_Error(t *testing.T) {
	repository := &stubRepository{countErr: errors.New("database is down")}

	_, err := NewService(repository).Stats(context.Background())

	assert.ErrorContains(t, err, "database is down")
}

func TestLatestComments_Limit(t *testing.T) {
	tests := map[int]int{
		0:    1,
		10:   10,
		1000: MaxCommentLimit,
	}

	for limit, expected := range tests {
		repository := &stubRepository{}

		comments, err := NewService(repository).LatestComments(context.Background(), limit)

		require.NoError(t, err)
		assert.NotNil(t, comments)
		assert.Equal(t, expected, repository.limit)
	}
}
