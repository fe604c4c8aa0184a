// Package loader ingests the offline-curated catalog and review snapshots.
// All inputs are keyed by natural keys (program code, course code, tag name,
// user email) so every load is idempotent: re-running a file corrects names
// and fills gaps without duplicating rows.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

type catalogStore interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	UpsertProgramTx(ctx context.Context, tx *sqlx.Tx, program models.Program) (string, error)
	EnsureSpecializationTx(ctx context.Context, tx *sqlx.Tx, name, programID string) (string, error)
	UpsertCourseTx(ctx context.Context, tx *sqlx.Tx, course models.Course) (string, error)
	LinkCourseProgramTx(ctx context.Context, tx *sqlx.Tx, courseID, programID string) error
	LinkCourseSpecializationTx(ctx context.Context, tx *sqlx.Tx, courseID, specializationID string) error
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type courseFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
}

type tagStore interface {
	ListByNames(ctx context.Context, names []string) ([]models.Tag, error)
	InsertIfAbsent(ctx context.Context, tag *models.Tag) error
}

type snapshotImporter interface {
	ImportSnapshot(ctx context.Context, review *models.Review, tagIDs []string) (inserted bool, err error)
}

// ProgramFile is the on-disk shape of one program's curriculum export.
type ProgramFile struct {
	Program struct {
		Name                 string `json:"name"`
		Code                 string `json:"code"`
		ProgramType          string `json:"programType"`
		Credits              int    `json:"credits"`
		HasIntegratedMasters bool   `json:"hasIntegratedMasters"`
	} `json:"program"`
	Specializations []string `json:"specializations"`
	Courses         []struct {
		Code            string   `json:"code"`
		Name            string   `json:"name"`
		Specializations []string `json:"specializations"`
	} `json:"courses"`
}

// TagFile is the on-disk shape of the tag reference set.
type TagFile struct {
	Tags []struct {
		Name      string `json:"name"`
		Sentiment string `json:"sentiment"`
	} `json:"tags"`
}

// ReviewFile is the on-disk shape of a historical review snapshot: one file
// per user email, each record referencing its course and tags by natural key
// since snapshot exports carry no database IDs.
type ReviewFile struct {
	Email   string         `json:"email"`
	Reviews []ReviewRecord `json:"reviews"`
}

// ReviewRecord is one snapshot review.
type ReviewRecord struct {
	CourseCode      string    `json:"courseCode"`
	DatePosted      time.Time `json:"datePosted"`
	YearTaken       int       `json:"yearTaken"`
	RatingProfessor int       `json:"ratingProfessor"`
	RatingMaterial  int       `json:"ratingMaterial"`
	RatingPeers     int       `json:"ratingPeers"`
	Workload        string    `json:"workload"`
	Content         *string   `json:"content"`
	TagNames        []string  `json:"tagNames"`
}

// RecordFailure identifies one snapshot record that could not be imported.
// Failures never abort the surrounding file: historical data is imported
// best effort and reported.
type RecordFailure struct {
	File   string `json:"file"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report summarises a load run.
type Report struct {
	ProgramFiles    int
	CoursesLoaded   int
	TagsLoaded      int
	ReviewsImported int
	ReviewsSkipped  int
	Failures        []RecordFailure
}

// Loader drives catalog and snapshot ingestion.
type Loader struct {
	catalog catalogStore
	users   userFinder
	courses courseFinder
	tags    tagStore
	reviews snapshotImporter
	logger  *zap.Logger
}

// New constructs a Loader.
func New(catalog catalogStore, users userFinder, courses courseFinder, tags tagStore, reviews snapshotImporter, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		catalog: catalog,
		users:   users,
		courses: courses,
		tags:    tags,
		reviews: reviews,
		logger:  logger,
	}
}

// LoadProgramDir loads every *.json program file in dir, one transaction per
// file. A failing file is logged and skipped; the remaining files still load.
func (l *Loader) LoadProgramDir(ctx context.Context, dir string, report *Report) error {
	paths, err := listJSONFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := l.LoadProgramFile(ctx, path, report); err != nil {
			l.logger.Error("program file failed", zap.String("file", path), zap.Error(err))
			report.Failures = append(report.Failures, RecordFailure{File: filepath.Base(path), Index: -1, Reason: err.Error()})
		}
	}
	return nil
}

// LoadProgramFile loads one program file atomically: the program row, its
// specializations, its courses and all curriculum links commit together or
// not at all.
func (l *Loader) LoadProgramFile(ctx context.Context, path string, report *Report) error {
	var file ProgramFile
	if err := readJSON(path, &file); err != nil {
		return err
	}
	if file.Program.Code == "" || file.Program.Name == "" {
		return fmt.Errorf("program file %s: missing program code or name", filepath.Base(path))
	}

	coursesLoaded := 0
	err := l.catalog.WithinTx(ctx, func(tx *sqlx.Tx) error {
		programID, err := l.catalog.UpsertProgramTx(ctx, tx, models.Program{
			Name:                 file.Program.Name,
			Code:                 file.Program.Code,
			ProgramType:          models.ProgramType(file.Program.ProgramType),
			Credits:              file.Program.Credits,
			HasIntegratedMasters: file.Program.HasIntegratedMasters,
		})
		if err != nil {
			return err
		}

		specIDs := make(map[string]string, len(file.Specializations))
		for _, name := range file.Specializations {
			id, err := l.catalog.EnsureSpecializationTx(ctx, tx, name, programID)
			if err != nil {
				return err
			}
			specIDs[name] = id
		}

		for _, course := range file.Courses {
			courseID, err := l.catalog.UpsertCourseTx(ctx, tx, models.Course{Name: course.Name, Code: course.Code})
			if err != nil {
				return err
			}
			if err := l.catalog.LinkCourseProgramTx(ctx, tx, courseID, programID); err != nil {
				return err
			}
			for _, specName := range course.Specializations {
				specID, ok := specIDs[specName]
				if !ok {
					return fmt.Errorf("course %s references undeclared specialization %q", course.Code, specName)
				}
				if err := l.catalog.LinkCourseSpecializationTx(ctx, tx, courseID, specID); err != nil {
					return err
				}
			}
			coursesLoaded++
		}
		return nil
	})
	if err != nil {
		return err
	}

	report.ProgramFiles++
	report.CoursesLoaded += coursesLoaded
	l.logger.Info("program file loaded",
		zap.String("program", file.Program.Code),
		zap.Int("courses", coursesLoaded))
	return nil
}

// LoadTagFile loads the tag reference set, inserting missing names.
func (l *Loader) LoadTagFile(ctx context.Context, path string, report *Report) error {
	var file TagFile
	if err := readJSON(path, &file); err != nil {
		return err
	}
	for _, t := range file.Tags {
		tag := models.Tag{Name: t.Name, Sentiment: models.TagSentiment(t.Sentiment)}
		if err := l.tags.InsertIfAbsent(ctx, &tag); err != nil {
			return err
		}
		report.TagsLoaded++
	}
	return nil
}

// LoadReviewDir imports every *.json review snapshot in dir.
func (l *Loader) LoadReviewDir(ctx context.Context, dir string, report *Report) error {
	paths, err := listJSONFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := l.LoadReviewFile(ctx, path, report); err != nil {
			l.logger.Error("review file failed", zap.String("file", path), zap.Error(err))
			report.Failures = append(report.Failures, RecordFailure{File: filepath.Base(path), Index: -1, Reason: err.Error()})
		}
	}
	return nil
}

// LoadReviewFile imports one per-user snapshot file. Each record resolves
// its natural keys and imports independently: a bad record is collected as a
// failure and the rest of the file proceeds. Records whose (user, course)
// pair already has a review are counted as skipped, which makes re-imports
// safe.
func (l *Loader) LoadReviewFile(ctx context.Context, path string, report *Report) error {
	var file ReviewFile
	if err := readJSON(path, &file); err != nil {
		return err
	}
	base := filepath.Base(path)

	user, err := l.users.FindByEmail(ctx, strings.ToLower(file.Email))
	if err != nil {
		report.Failures = append(report.Failures, RecordFailure{
			File:   base,
			Index:  -1,
			Reason: fmt.Sprintf("unknown user %s", file.Email),
		})
		return nil
	}

	for i, record := range file.Reviews {
		if err := l.importReview(ctx, user.ID, record); err != nil {
			if err == errSnapshotExists {
				report.ReviewsSkipped++
				continue
			}
			report.Failures = append(report.Failures, RecordFailure{File: base, Index: i, Reason: err.Error()})
			continue
		}
		report.ReviewsImported++
	}
	return nil
}

var errSnapshotExists = fmt.Errorf("review snapshot already imported")

func (l *Loader) importReview(ctx context.Context, userID string, record ReviewRecord) error {
	workload := models.Workload(record.Workload)
	if !workload.Valid() {
		return fmt.Errorf("invalid workload %q", record.Workload)
	}
	if !validRating(record.RatingProfessor) || !validRating(record.RatingMaterial) || !validRating(record.RatingPeers) {
		return fmt.Errorf("rating out of range for %s", record.CourseCode)
	}

	course, err := l.courses.FindByCode(ctx, record.CourseCode)
	if err != nil {
		return fmt.Errorf("unknown course %s", record.CourseCode)
	}

	tagIDs, err := l.resolveTagIDs(ctx, record.TagNames)
	if err != nil {
		return err
	}

	review := &models.Review{
		UserID:          userID,
		CourseID:        course.ID,
		DatePosted:      record.DatePosted,
		YearTaken:       record.YearTaken,
		RatingProfessor: record.RatingProfessor,
		RatingMaterial:  record.RatingMaterial,
		RatingPeers:     record.RatingPeers,
		RatingWorkload:  workload,
		Content:         record.Content,
	}
	inserted, err := l.reviews.ImportSnapshot(ctx, review, tagIDs)
	if err != nil {
		return err
	}
	if !inserted {
		return errSnapshotExists
	}
	return nil
}

func (l *Loader) resolveTagIDs(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tags, err := l.tags.ListByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(names) {
		known := make(map[string]bool, len(tags))
		for _, t := range tags {
			known[t.Name] = true
		}
		for _, name := range names {
			if !known[name] {
				return nil, fmt.Errorf("unknown tag %q", name)
			}
		}
	}
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids, nil
}

func validRating(v int) bool { return v >= 1 && v <= 5 }

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func listJSONFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
