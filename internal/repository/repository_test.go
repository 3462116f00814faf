package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yamdb/internal/config"
	"yamdb/internal/db"
	"yamdb/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.Open(config.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB, false))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

type fixture struct {
	db       *gorm.DB
	users    UserRepository
	cats     CategoryRepository
	genres   GenreRepository
	titles   TitleRepository
	reviews  ReviewRepository
	comments CommentRepository
}

func newFixture(t *testing.T) *fixture {
	gormDB := newTestDB(t)
	return &fixture{
		db:       gormDB,
		users:    NewUserRepository(gormDB),
		cats:     NewCategoryRepository(gormDB),
		genres:   NewGenreRepository(gormDB),
		titles:   NewTitleRepository(gormDB),
		reviews:  NewReviewRepository(gormDB),
		comments: NewCommentRepository(gormDB),
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@x.com", Role: model.RoleUser}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) title(t *testing.T, name string, year int, category *model.Category, genres ...model.Genre) *model.Title {
	t.Helper()
	title := &model.Title{Name: name, Year: year, Genres: genres}
	if category != nil {
		title.CategoryID = &category.ID
	}
	require.NoError(t, f.titles.Create(context.Background(), title))
	return title
}

func (f *fixture) review(t *testing.T, author *model.User, title *model.Title, score int) *model.Review {
	t.Helper()
	r := &model.Review{Post: model.Post{AuthorID: author.ID, Text: "text"}, TitleID: title.ID, Score: score}
	require.NoError(t, f.reviews.Create(context.Background(), r))
	return r
}

func TestUserRepository_UniqueFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "bob")

	err := f.users.Create(ctx, &model.User{Username: "bob", Email: "other@x.com", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = f.users.Create(ctx, &model.User{Username: "robert", Email: "bob@x.com", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_FindAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	f.user(t, "alice")

	got, err := f.users.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	got, err = f.users.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = f.users.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := f.users.List(ctx, "BO")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].Username)

	list, err = f.users.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", list[0].Username)
}

func TestUserRepository_SetConfirmationCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")

	require.NoError(t, f.users.SetConfirmationCode(ctx, bob.ID, "hash"))
	got, err := f.users.FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.ConfirmationCode)

	assert.ErrorIs(t, f.users.SetConfirmationCode(ctx, 999, "hash"), gorm.ErrRecordNotFound)
}

func TestUserRepository_DeleteRemovesPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	amy := f.user(t, "amy")
	title := f.title(t, "Dune", 1965, nil)
	bobReview := f.review(t, bob, title, 8)
	amyReview := f.review(t, amy, title, 6)
	require.NoError(t, f.comments.Create(ctx, &model.Comment{Post: model.Post{AuthorID: amy.ID, Text: "hi"}, ReviewID: bobReview.ID}))
	require.NoError(t, f.comments.Create(ctx, &model.Comment{Post: model.Post{AuthorID: bob.ID, Text: "hey"}, ReviewID: amyReview.ID}))

	require.NoError(t, f.users.Delete(ctx, bob.ID))

	reviews, err := f.reviews.ListByTitle(ctx, title.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, amyReview.ID, reviews[0].ID)

	comments, err := f.comments.ListByReview(ctx, amyReview.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	assert.ErrorIs(t, f.users.Delete(ctx, bob.ID), gorm.ErrRecordNotFound)
}

func TestReviewRepository_OneReviewPerAuthorAndTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	amy := f.user(t, "amy")
	dune := f.title(t, "Dune", 1965, nil)
	solaris := f.title(t, "Solaris", 1961, nil)

	f.review(t, bob, dune, 9)

	dup := &model.Review{Post: model.Post{AuthorID: bob.ID, Text: "again"}, TitleID: dune.ID, Score: 3}
	assert.ErrorIs(t, f.reviews.Create(ctx, dup), ErrDuplicate)

	// Same author on another title, another author on the same title.
	f.review(t, bob, solaris, 7)
	f.review(t, amy, dune, 5)

	exists, err := f.reviews.Exists(ctx, bob.ID, dune.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.reviews.Exists(ctx, amy.ID, solaris.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReviewRepository_IndexBacksUniqueness(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")
	dune := f.title(t, "Dune", 1965, nil)
	f.review(t, bob, dune, 9)

	// Bypass the pre-check entirely; only the index stands in the way.
	err := f.db.Omit(clause.Associations).Create(&model.Review{
		Post:    model.Post{AuthorID: bob.ID, Text: "raw"},
		TitleID: dune.ID,
		Score:   4,
	}).Error
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestReviewRepository_ConcurrentCreates(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")
	dune := f.title(t, "Dune", 1965, nil)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- f.reviews.Create(context.Background(), &model.Review{
				Post:    model.Post{AuthorID: bob.ID, Text: fmt.Sprintf("take %d", i)},
				TitleID: dune.ID,
				Score:   5,
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicate)
	}
	assert.Equal(t, 1, created)
}

func TestReviewRepository_FindUpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	dune := f.title(t, "Dune", 1965, nil)
	other := f.title(t, "Solaris", 1961, nil)
	review := f.review(t, bob, dune, 9)

	got, err := f.reviews.FindForTitle(ctx, dune.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Author.Username)

	_, err = f.reviews.FindForTitle(ctx, other.ID, review.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got.Text = "changed"
	got.Score = 4
	require.NoError(t, f.reviews.Update(ctx, got))
	got, err = f.reviews.FindForTitle(ctx, dune.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Text)
	assert.Equal(t, 4, got.Score)
	assert.Equal(t, bob.ID, got.AuthorID)

	require.NoError(t, f.comments.Create(ctx, &model.Comment{Post: model.Post{AuthorID: bob.ID, Text: "c"}, ReviewID: review.ID}))
	require.NoError(t, f.reviews.Delete(ctx, review.ID))
	comments, err := f.comments.ListByReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.ErrorIs(t, f.reviews.Delete(ctx, review.ID), gorm.ErrRecordNotFound)
}

func TestReviewRepository_ScoreCheckConstraint(t *testing.T) {
	f := newFixture(t)
	bob := f.user(t, "bob")
	dune := f.title(t, "Dune", 1965, nil)

	err := f.reviews.Create(context.Background(), &model.Review{
		Post: model.Post{AuthorID: bob.ID, Text: "t"}, TitleID: dune.ID, Score: 11,
	})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicate))
}

func TestTitleRepository_RatingAndRelations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	films := &model.Category{Classifier: model.Classifier{Name: "Films", Slug: "films"}}
	require.NoError(t, f.cats.Create(ctx, films))
	drama := &model.Genre{Classifier: model.Classifier{Name: "Drama", Slug: "drama"}}
	scifi := &model.Genre{Classifier: model.Classifier{Name: "Sci-Fi", Slug: "sci-fi"}}
	require.NoError(t, f.genres.Create(ctx, drama))
	require.NoError(t, f.genres.Create(ctx, scifi))

	title := f.title(t, "Solaris", 1972, films, *drama, *scifi)

	got, err := f.titles.FindByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)
	require.NotNil(t, got.Category)
	assert.Equal(t, "films", got.Category.Slug)
	require.Len(t, got.Genres, 2)
	assert.Equal(t, "drama", got.Genres[0].Slug)

	f.review(t, f.user(t, "bob"), title, 8)
	f.review(t, f.user(t, "amy"), title, 7)

	got, err = f.titles.FindByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 8, *got.Rating) // 7.5 rounds up
}

func TestTitleRepository_ListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	films := &model.Category{Classifier: model.Classifier{Name: "Films", Slug: "films"}}
	books := &model.Category{Classifier: model.Classifier{Name: "Books", Slug: "books"}}
	require.NoError(t, f.cats.Create(ctx, films))
	require.NoError(t, f.cats.Create(ctx, books))
	drama := &model.Genre{Classifier: model.Classifier{Name: "Drama", Slug: "drama"}}
	comedy := &model.Genre{Classifier: model.Classifier{Name: "Comedy", Slug: "comedy"}}
	require.NoError(t, f.genres.Create(ctx, drama))
	require.NoError(t, f.genres.Create(ctx, comedy))

	f.title(t, "Stalker", 1979, films, *drama)
	f.title(t, "Solaris", 1961, books, *drama, *comedy)
	f.title(t, "Playtime", 1967, films, *comedy)

	names := func(filter TitleFilter) []string {
		list, err := f.titles.List(ctx, filter)
		require.NoError(t, err)
		out := make([]string, 0, len(list))
		for _, tt := range list {
			out = append(out, tt.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Stalker", "Playtime", "Solaris"}, names(TitleFilter{}))
	assert.Equal(t, []string{"Stalker", "Playtime"}, names(TitleFilter{Category: "films"}))
	assert.Equal(t, []string{"Stalker", "Solaris"}, names(TitleFilter{Genre: "drama"}))
	assert.Equal(t, []string{"Stalker", "Solaris"}, names(TitleFilter{Name: "s"}))
	assert.Equal(t, []string{"Playtime"}, names(TitleFilter{Year: 1967}))
	assert.Equal(t, []string{"Playtime"}, names(TitleFilter{Category: "films", Genre: "comedy"}))
	assert.Empty(t, names(TitleFilter{Genre: "horror"}))
}

func TestTitleRepository_UpdateReplacesGenres(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	drama := &model.Genre{Classifier: model.Classifier{Name: "Drama", Slug: "drama"}}
	comedy := &model.Genre{Classifier: model.Classifier{Name: "Comedy", Slug: "comedy"}}
	require.NoError(t, f.genres.Create(ctx, drama))
	require.NoError(t, f.genres.Create(ctx, comedy))
	title := f.title(t, "Playtime", 1967, nil, *drama)

	title.Name = "PlayTime"
	require.NoError(t, f.titles.Update(ctx, title, []model.Genre{*comedy}))

	got, err := f.titles.FindByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, "PlayTime", got.Name)
	require.Len(t, got.Genres, 1)
	assert.Equal(t, "comedy", got.Genres[0].Slug)

	// nil genres keeps the links
	got.Year = 1968
	require.NoError(t, f.titles.Update(ctx, got, nil))
	got, err = f.titles.FindByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, 1968, got.Year)
	assert.Len(t, got.Genres, 1)
}

func TestTitleRepository_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	title := f.title(t, "Dune", 1965, nil)
	review := f.review(t, bob, title, 9)
	require.NoError(t, f.comments.Create(ctx, &model.Comment{Post: model.Post{AuthorID: bob.ID, Text: "c"}, ReviewID: review.ID}))

	require.NoError(t, f.titles.Delete(ctx, title.ID))

	exists, err := f.titles.Exists(ctx, title.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	var reviews, comments int64
	require.NoError(t, f.db.Model(&model.Review{}).Count(&reviews).Error)
	require.NoError(t, f.db.Model(&model.Comment{}).Count(&comments).Error)
	assert.Zero(t, reviews)
	assert.Zero(t, comments)

	assert.ErrorIs(t, f.titles.Delete(ctx, title.ID), gorm.ErrRecordNotFound)
}

func TestCategoryRepository_DeleteKeepsTitles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	films := &model.Category{Classifier: model.Classifier{Name: "Films", Slug: "films"}}
	require.NoError(t, f.cats.Create(ctx, films))
	title := f.title(t, "Stalker", 1979, films)

	require.NoError(t, f.cats.DeleteBySlug(ctx, "films"))

	got, err := f.titles.FindByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)

	assert.ErrorIs(t, f.cats.DeleteBySlug(ctx, "films"), gorm.ErrRecordNotFound)
}

func TestGenreRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	drama := &model.Genre{Classifier: model.Classifier{Name: "Drama", Slug: "drama"}}
	require.NoError(t, f.genres.Create(ctx, drama))
	require.NoError(t, f.genres.Create(ctx, &model.Genre{Classifier: model.Classifier{Name: "Comedy", Slug: "comedy"}}))

	err := f.genres.Create(ctx, &model.Genre{Classifier: model.Classifier{Name: "Dup", Slug: "drama"}})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := f.genres.FindBySlugs(ctx, []string{"drama", "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	list, err := f.genres.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Comedy", list[0].Name)

	list, err = f.genres.List(ctx, "dra")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	title := f.title(t, "Stalker", 1979, nil, *drama)
	require.NoError(t, f.genres.DeleteBySlug(ctx, "drama"))
	got, err := f.titles.FindByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Genres)
}

func TestCommentRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.user(t, "bob")
	title := f.title(t, "Dune", 1965, nil)
	review := f.review(t, bob, title, 9)
	other := f.review(t, f.user(t, "amy"), title, 3)

	comment := &model.Comment{Post: model.Post{AuthorID: bob.ID, Text: "first"}, ReviewID: review.ID}
	require.NoError(t, f.comments.Create(ctx, comment))

	got, err := f.comments.FindForReview(ctx, review.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Author.Username)

	_, err = f.comments.FindForReview(ctx, other.ID, comment.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got.Text = "edited"
	require.NoError(t, f.comments.Update(ctx, got))
	list, err := f.comments.ListByReview(ctx, review.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Text)

	require.NoError(t, f.comments.Delete(ctx, comment.ID))
	assert.ErrorIs(t, f.comments.Delete(ctx, comment.ID), gorm.ErrRecordNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("x")))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)))
}
