// Package importer bulk-loads CSV exports into the database. Rows keep the
// ids from the export so the cross-file references stay valid.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yamdb/internal/model"
)

// Stats counts the outcome of one file.
type Stats struct {
	File    string
	Created int
	Skipped int
}

type row map[string]string

type source struct {
	file  string
	build func(row) (any, error)
}

// sources in dependency order.
var sources = []source{
	{file: "users.csv", build: buildUser},
	{file: "category.csv", build: buildCategory},
	{file: "genre.csv", build: buildGenre},
	{file: "titles.csv", build: buildTitle},
	{file: "genre_title.csv", build: buildGenreTitle},
	{file: "review.csv", build: buildReview},
	{file: "comments.csv", build: buildComment},
}

var sequenceTables = []string{"users", "categories", "genres", "titles", "reviews", "comments"}

// Importer loads the CSV files of one directory.
type Importer struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New creates an importer.
func New(db *gorm.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, logger: logger}
}

// Run imports every known file found in dir. Missing files are skipped;
// rows that fail to parse or already exist are counted as skipped.
func (im *Importer) Run(ctx context.Context, dir string) ([]Stats, error) {
	var all []Stats
	for _, src := range sources {
		path := filepath.Join(dir, src.file)
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				im.logger.Warn("csv file missing, skipping", "file", path)
				continue
			}
			return all, fmt.Errorf("open %s: %w", path, err)
		}

		stats, err := im.importFile(ctx, src, f)
		_ = f.Close()
		if err != nil {
			return all, fmt.Errorf("import %s: %w", src.file, err)
		}
		im.logger.Info("imported", "file", src.file, "created", stats.Created, "skipped", stats.Skipped)
		all = append(all, stats)
	}

	if err := im.syncSequences(ctx); err != nil {
		return all, err
	}
	return all, nil
}

func (im *Importer) importFile(ctx context.Context, src source, r io.Reader) (Stats, error) {
	stats := Stats{File: src.file}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line := 1
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			line++
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}

			values := make(row, len(header))
			for i, name := range header {
				if i < len(record) {
					values[name] = record[i]
				}
			}

			item, err := src.build(values)
			if err != nil {
				im.logger.Warn("skipping row", "file", src.file, "line", line, "error", err)
				stats.Skipped++
				continue
			}

			res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(item)
			if res.Error != nil {
				return fmt.Errorf("line %d: %w", line, res.Error)
			}
			if res.RowsAffected == 0 {
				stats.Skipped++
				continue
			}
			stats.Created++
		}
	})
	return stats, err
}

// syncSequences moves postgres id sequences past the imported ids.
func (im *Importer) syncSequences(ctx context.Context) error {
	if im.db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range sequenceTables {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
			table, table,
		)
		if err := im.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("sync %s id sequence: %w", table, err)
		}
	}
	return nil
}

func (r row) id(name string) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(r[name]), 10, 0)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%s: invalid id %q", name, r[name])
	}
	return uint(v), nil
}

func (r row) optionalID(name string) (*uint, error) {
	if strings.TrimSpace(r[name]) == "" {
		return nil, nil
	}
	id, err := r.id(name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r row) number(name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(r[name]))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", name, r[name])
	}
	return v, nil
}

func (r row) timestamp(name string) (time.Time, error) {
	raw := strings.TrimSpace(r[name])
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid timestamp %q", name, raw)
	}
	return t, nil
}

func buildUser(r row) (any, error) {
	id, err := r.id("id")
	if err != nil {
		return nil, err
	}
	if err := model.CheckUsername(r["username"]); err != nil {
		return nil, err
	}
	if r["email"] == "" {
		return nil, errors.New("email is required")
	}
	role := model.Role(r["role"])
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return &model.User{
		ID:        id,
		Username:  r["username"],
		Email:     r["email"],
		Role:      role,
		Bio:       r["bio"],
		FirstName: r["first_name"],
		LastName:  r["last_name"],
	}, nil
}

func buildClassifier(r row) (model.Classifier, error) {
	id, err := r.id("id")
	if err != nil {
		return model.Classifier{}, err
	}
	if r["name"] == "" || r["slug"] == "" {
		return model.Classifier{}, errors.New("name and slug are required")
	}
	return model.Classifier{ID: id, Name: r["name"], Slug: r["slug"]}, nil
}

func buildCategory(r row) (any, error) {
	c, err := buildClassifier(r)
	if err != nil {
		return nil, err
	}
	return &model.Category{Classifier: c}, nil
}

func buildGenre(r row) (any, error) {
	c, err := buildClassifier(r)
	if err != nil {
		return nil, err
	}
	return &model.Genre{Classifier: c}, nil
}

func buildTitle(r row) (any, error) {
	id, err := r.id("id")
	if err != nil {
		return nil, err
	}
	year, err := r.number("year")
	if err != nil {
		return nil, err
	}
	category, err := r.optionalID("category")
	if err != nil {
		return nil, err
	}
	return &model.Title{
		ID:          id,
		Name:        r["name"],
		Year:        year,
		Description: r["description"],
		CategoryID:  category,
	}, nil
}

func buildGenreTitle(r row) (any, error) {
	titleID, err := r.id("title_id")
	if err != nil {
		return nil, err
	}
	genreID, err := r.id("genre_id")
	if err != nil {
		return nil, err
	}
	return &model.GenreTitle{TitleID: titleID, GenreID: genreID}, nil
}

func buildPost(r row) (model.Post, error) {
	id, err := r.id("id")
	if err != nil {
		return model.Post{}, err
	}
	author, err := r.id("author")
	if err != nil {
		return model.Post{}, err
	}
	pubDate, err := r.timestamp("pub_date")
	if err != nil {
		return model.Post{}, err
	}
	if strings.TrimSpace(r["text"]) == "" {
		return model.Post{}, errors.New("text is required")
	}
	return model.Post{ID: id, AuthorID: author, Text: r["text"], PubDate: pubDate}, nil
}

func buildReview(r row) (any, error) {
	post, err := buildPost(r)
	if err != nil {
		return nil, err
	}
	titleID, err := r.id("title_id")
	if err != nil {
		return nil, err
	}
	score, err := r.number("score")
	if err != nil {
		return nil, err
	}
	if score < model.MinScore || score > model.MaxScore {
		return nil, fmt.Errorf("score %d out of range", score)
	}
	return &model.Review{Post: post, TitleID: titleID, Score: score}, nil
}

func buildComment(r row) (any, error) {
	post, err := buildPost(r)
	if err != nil {
		return nil, err
	}
	reviewID, err := r.id("review_id")
	if err != nil {
		return nil, err
	}
	return &model.Comment{Post: post, ReviewID: reviewID}, nil
}
