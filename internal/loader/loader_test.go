package loader

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kurskollen/kurskollen-api/internal/models"
)

type fakeCatalogStore struct {
	programs     map[string]string // code -> id
	specs        map[string]string // name|programID -> id
	courses      map[string]string // code -> id
	programLinks [][2]string
	specLinks    [][2]string
	failCourse   string
	txCommits    int
	txRollbacks  int
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		programs: map[string]string{},
		specs:    map[string]string{},
		courses:  map[string]string{},
	}
}

func (f *fakeCatalogStore) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	// Snapshot state so a failing callback observes rollback semantics.
	programs := copyMap(f.programs)
	specs := copyMap(f.specs)
	courses := copyMap(f.courses)
	programLinks := append([][2]string{}, f.programLinks...)
	specLinks := append([][2]string{}, f.specLinks...)

	if err := fn(nil); err != nil {
		f.programs, f.specs, f.courses = programs, specs, courses
		f.programLinks, f.specLinks = programLinks, specLinks
		f.txRollbacks++
		return err
	}
	f.txCommits++
	return nil
}

func (f *fakeCatalogStore) UpsertProgramTx(ctx context.Context, tx *sqlx.Tx, program models.Program) (string, error) {
	if id, ok := f.programs[program.Code]; ok {
		return id, nil
	}
	id := "prog-" + program.Code
	f.programs[program.Code] = id
	return id, nil
}

func (f *fakeCatalogStore) EnsureSpecializationTx(ctx context.Context, tx *sqlx.Tx, name, programID string) (string, error) {
	key := name + "|" + programID
	if id, ok := f.specs[key]; ok {
		return id, nil
	}
	id := "spec-" + name
	f.specs[key] = id
	return id, nil
}

func (f *fakeCatalogStore) UpsertCourseTx(ctx context.Context, tx *sqlx.Tx, course models.Course) (string, error) {
	if course.Code == f.failCourse {
		return "", errors.New("boom")
	}
	if id, ok := f.courses[course.Code]; ok {
		return id, nil
	}
	id := "course-" + course.Code
	f.courses[course.Code] = id
	return id, nil
}

func (f *fakeCatalogStore) LinkCourseProgramTx(ctx context.Context, tx *sqlx.Tx, courseID, programID string) error {
	f.programLinks = append(f.programLinks, [2]string{courseID, programID})
	return nil
}

func (f *fakeCatalogStore) LinkCourseSpecializationTx(ctx context.Context, tx *sqlx.Tx, courseID, specializationID string) error {
	f.specLinks = append(f.specLinks, [2]string{courseID, specializationID})
	return nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type fakeUserFinder struct {
	byEmail map[string]*models.User
}

func (f *fakeUserFinder) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type fakeCourseFinder struct {
	byCode map[string]*models.Course
}

func (f *fakeCourseFinder) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	c, ok := f.byCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

type fakeTagStore struct {
	byName map[string]models.Tag
}

func (f *fakeTagStore) ListByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	var out []models.Tag
	for _, name := range names {
		if t, ok := f.byName[name]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTagStore) InsertIfAbsent(ctx context.Context, tag *models.Tag) error {
	if _, ok := f.byName[tag.Name]; !ok {
		tag.ID = "tag-" + tag.Name
		f.byName[tag.Name] = *tag
	}
	return nil
}

type fakeSnapshotImporter struct {
	existing map[string]bool // userID|courseID
	imported []*models.Review
}

func (f *fakeSnapshotImporter) ImportSnapshot(ctx context.Context, review *models.Review, tagIDs []string) (bool, error) {
	key := review.UserID + "|" + review.CourseID
	if f.existing[key] {
		return false, nil
	}
	if f.existing == nil {
		f.existing = map[string]bool{}
	}
	f.existing[key] = true
	f.imported = append(f.imported, review)
	return true, nil
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const programFileJSON = `{
  "program": {"name": "Computer Science", "code": "D", "programType": "bachelor", "credits": 180},
  "specializations": ["Software Engineering"],
  "courses": [
    {"code": "DA3018", "name": "Algorithms", "specializations": ["Software Engineering"]},
    {"code": "DA3019", "name": "Databases"}
  ]
}`

func newTestLoader(catalog *fakeCatalogStore) (*Loader, *fakeUserFinder, *fakeCourseFinder, *fakeTagStore, *fakeSnapshotImporter) {
	users := &fakeUserFinder{byEmail: map[string]*models.User{}}
	courses := &fakeCourseFinder{byCode: map[string]*models.Course{}}
	tags := &fakeTagStore{byName: map[string]models.Tag{}}
	reviews := &fakeSnapshotImporter{existing: map[string]bool{}}
	l := New(catalog, users, courses, tags, reviews, zap.NewNop())
	return l, users, courses, tags, reviews
}

func TestLoadProgramFileLinksCurriculum(t *testing.T) {
	catalog := newFakeCatalogStore()
	l, _, _, _, _ := newTestLoader(catalog)
	path := writeTestFile(t, t.TempDir(), "d.json", programFileJSON)

	var report Report
	require.NoError(t, l.LoadProgramFile(context.Background(), path, &report))

	assert.Equal(t, 1, report.ProgramFiles)
	assert.Equal(t, 2, report.CoursesLoaded)
	assert.Equal(t, 1, catalog.txCommits)
	assert.Len(t, catalog.programLinks, 2)
	require.Len(t, catalog.specLinks, 1)
	assert.Equal(t, "course-DA3018", catalog.specLinks[0][0])
}

func TestLoadProgramFileIsIdempotent(t *testing.T) {
	catalog := newFakeCatalogStore()
	l, _, _, _, _ := newTestLoader(catalog)
	path := writeTestFile(t, t.TempDir(), "d.json", programFileJSON)

	var report Report
	require.NoError(t, l.LoadProgramFile(context.Background(), path, &report))
	require.NoError(t, l.LoadProgramFile(context.Background(), path, &report))

	assert.Len(t, catalog.programs, 1)
	assert.Len(t, catalog.courses, 2)
}

func TestLoadProgramFileRollsBackOnFailure(t *testing.T) {
	catalog := newFakeCatalogStore()
	catalog.failCourse = "DA3019"
	l, _, _, _, _ := newTestLoader(catalog)
	path := writeTestFile(t, t.TempDir(), "d.json", programFileJSON)

	var report Report
	err := l.LoadProgramFile(context.Background(), path, &report)
	require.Error(t, err)
	assert.Equal(t, 1, catalog.txRollbacks)
	assert.Empty(t, catalog.programs, "partial file must not commit")
	assert.Zero(t, report.ProgramFiles)
}

func TestLoadProgramFileUndeclaredSpecialization(t *testing.T) {
	catalog := newFakeCatalogStore()
	l, _, _, _, _ := newTestLoader(catalog)
	path := writeTestFile(t, t.TempDir(), "bad.json", `{
      "program": {"name": "X", "code": "X", "programType": "bachelor", "credits": 180},
      "courses": [{"code": "C1", "name": "One", "specializations": ["Ghost"]}]
    }`)

	var report Report
	err := l.LoadProgramFile(context.Background(), path, &report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared specialization")
}

func TestLoadReviewFileImportsAndCollectsFailures(t *testing.T) {
	catalog := newFakeCatalogStore()
	l, users, courses, tags, imported := newTestLoader(catalog)
	users.byEmail["s@example.com"] = &models.User{ID: "user-1", Email: "s@example.com"}
	courses.byCode["DA3018"] = &models.Course{ID: "course-1", Code: "DA3018"}
	tags.byName["engaging lectures"] = models.Tag{ID: "tag-1", Name: "engaging lectures"}

	path := writeTestFile(t, t.TempDir(), "reviews.json", `{"email": "s@example.com", "reviews": [
      {"courseCode": "DA3018", "datePosted": "2023-06-01T12:00:00Z",
       "yearTaken": 2023, "ratingProfessor": 5, "ratingMaterial": 4, "ratingPeers": 4,
       "workload": "heavy", "tagNames": ["engaging lectures"]},
      {"courseCode": "XX9999", "datePosted": "2023-06-01T12:00:00Z",
       "yearTaken": 2023, "ratingProfessor": 3, "ratingMaterial": 3, "ratingPeers": 3,
       "workload": "medium"},
      {"courseCode": "DA3018", "datePosted": "2023-06-02T12:00:00Z",
       "yearTaken": 2023, "ratingProfessor": 6, "ratingMaterial": 3, "ratingPeers": 3,
       "workload": "light"}
    ]}`)

	var report Report
	require.NoError(t, l.LoadReviewFile(context.Background(), path, &report))

	assert.Equal(t, 1, report.ReviewsImported)
	require.Len(t, report.Failures, 2)
	assert.Contains(t, report.Failures[0].Reason, "unknown course")
	assert.Contains(t, report.Failures[1].Reason, "rating out of range")
	require.Len(t, imported.imported, 1)
	assert.Equal(t, time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC), imported.imported[0].DatePosted,
		"original posted timestamp must be preserved")
}

func TestLoadReviewFileUnknownUserFailsWholeFile(t *testing.T) {
	catalog := newFakeCatalogStore()
	l, _, courses, _, imported := newTestLoader(catalog)
	courses.byCode["DA3018"] = &models.Course{ID: "course-1", Code: "DA3018"}

	path := writeTestFile(t, t.TempDir(), "ghost.json", `{"email": "ghost@example.com", "reviews": [
      {"courseCode": "DA3018", "datePosted": "2023-06-01T12:00:00Z",
       "yearTaken": 2023, "ratingProfessor": 4, "ratingMaterial": 4, "ratingPeers": 4,
       "workload": "medium"}
    ]}`)

	var report Report
	require.NoError(t, l.LoadReviewFile(context.Background(), path, &report))

	assert.Zero(t, report.ReviewsImported)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, -1, report.Failures[0].Index)
	assert.Contains(t, report.Failures[0].Reason, "unknown user ghost@example.com")
	assert.Empty(t, imported.imported)
}

func TestLoadReviewFileSkipsExistingPairs(t *testing.T) {
	catalog := newFakeCatalogStore()
	l, users, courses, _, _ := newTestLoader(catalog)
	users.byEmail["s@example.com"] = &models.User{ID: "user-1"}
	courses.byCode["DA3018"] = &models.Course{ID: "course-1", Code: "DA3018"}

	path := writeTestFile(t, t.TempDir(), "reviews.json", `{"email": "s@example.com", "reviews": [
      {"courseCode": "DA3018", "datePosted": "2023-06-01T12:00:00Z",
       "yearTaken": 2023, "ratingProfessor": 4, "ratingMaterial": 4, "ratingPeers": 4,
       "workload": "medium"}
    ]}`)

	var report Report
	require.NoError(t, l.LoadReviewFile(context.Background(), path, &report))
	require.NoError(t, l.LoadReviewFile(context.Background(), path, &report))

	assert.Equal(t, 1, report.ReviewsImported)
	assert.Equal(t, 1, report.ReviewsSkipped)
	assert.Empty(t, report.Failures)
}

func TestLoadTagFile(t *testing.T) {
	catalog := newFakeCatalogStore()
	l, _, _, tags, _ := newTestLoader(catalog)
	path := writeTestFile(t, t.TempDir(), "tags.json", `{"tags": [
      {"name": "engaging lectures", "sentiment": "positive"},
      {"name": "heavy reading", "sentiment": "negative"}
    ]}`)

	var report Report
	require.NoError(t, l.LoadTagFile(context.Background(), path, &report))
	assert.Equal(t, 2, report.TagsLoaded)
	assert.Len(t, tags.byName, 2)
}

func TestLoadProgramDirContinuesPastBadFile(t *testing.T) {
	catalog := newFakeCatalogStore()
	l, _, _, _, _ := newTestLoader(catalog)
	dir := t.TempDir()
	writeTestFile(t, dir, "a_bad.json", `{not json`)
	writeTestFile(t, dir, "b_good.json", programFileJSON)

	var report Report
	require.NoError(t, l.LoadProgramDir(context.Background(), dir, &report))
	assert.Equal(t, 1, report.ProgramFiles)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "a_bad.json", report.Failures[0].File)
}
