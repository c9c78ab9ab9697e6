package ad

import (
	"context"
	"errors"
	"testing"

	domain "sooq-service/internal/domain/ad"
	"sooq-service/internal/domain/taxonomy"
	xerrors "sooq-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- fakes ----

type adTx struct {
	committed  bool
	rolledBack bool
}

func (t *adTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *adTx) Commit(context.Context) error          { t.committed = true; return nil }
func (t *adTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}
func (t *adTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *adTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *adTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *adTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *adTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *adTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *adTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *adTx) Conn() *pgx.Conn                                         { return nil }

type adTxBeginner struct {
	tx *adTx
}

func (b *adTxBeginner) BeginTx(context.Context) (pgx.Tx, error) {
	b.tx = &adTx{}
	return b.tx, nil
}

type fakeAdStore struct {
	byID   map[int64]*domain.Ad
	nextID int64
}

func newFakeAdStore() *fakeAdStore {
	return &fakeAdStore{byID: make(map[int64]*domain.Ad), nextID: 1}
}

func (s *fakeAdStore) CreateWithTx(_ context.Context, _ pgx.Tx, a *domain.Ad) error {
	a.ID = s.nextID
	s.nextID++
	saved := *a
	s.byID[a.ID] = &saved
	return nil
}

func (s *fakeAdStore) UpdateWithTx(_ context.Context, _ pgx.Tx, a *domain.Ad) error {
	if _, ok := s.byID[a.ID]; !ok {
		return xerrors.ErrNotFound
	}
	saved := *a
	s.byID[a.ID] = &saved
	return nil
}

func (s *fakeAdStore) FindByID(_ context.Context, id int64) (*domain.Ad, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	found := *a
	return &found, nil
}

func (s *fakeAdStore) List(_ context.Context, _ *domain.ListFilters) ([]domain.Ad, int64, error) {
	ads := []domain.Ad{}
	for _, a := range s.byID {
		ads = append(ads, *a)
	}
	return ads, int64(len(ads)), nil
}

func (s *fakeAdStore) IncrementViews(_ context.Context, id int64) error {
	if a, ok := s.byID[id]; ok {
		a.ViewsCount++
	}
	return nil
}

func (s *fakeAdStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

type valueKey struct {
	adID    int64
	fieldID int64
}

type fakeValueStore struct {
	rows    map[valueKey]*domain.AdFieldValue
	options map[int64]*taxonomy.CategoryFieldOption
	nextID  int64

	// failFieldID makes the upsert for that field fail, to exercise the
	// all-or-nothing save policy.
	failFieldID int64
}

func newFakeValueStore() *fakeValueStore {
	return &fakeValueStore{
		rows:    make(map[valueKey]*domain.AdFieldValue),
		options: make(map[int64]*taxonomy.CategoryFieldOption),
		nextID:  1,
	}
}

func (s *fakeValueStore) UpsertWithTx(_ context.Context, _ pgx.Tx, fv *domain.AdFieldValue) error {
	if s.failFieldID != 0 && fv.CategoryFieldID == s.failFieldID {
		return errors.New("value write refused")
	}

	key := valueKey{fv.AdID, fv.CategoryFieldID}
	if existing, ok := s.rows[key]; ok {
		fv.ID = existing.ID
	} else {
		fv.ID = s.nextID
		s.nextID++
	}
	saved := *fv
	s.rows[key] = &saved
	return nil
}

func (s *fakeValueStore) DeleteWithTx(_ context.Context, _ pgx.Tx, adID, fieldID int64) error {
	delete(s.rows, valueKey{adID, fieldID})
	return nil
}

func (s *fakeValueStore) ExistsForField(_ context.Context, adID, fieldID int64) (bool, error) {
	_, ok := s.rows[valueKey{adID, fieldID}]
	return ok, nil
}

func (s *fakeValueStore) ListByAd(_ context.Context, adID int64) ([]domain.AdFieldValue, error) {
	values := []domain.AdFieldValue{}
	for key, row := range s.rows {
		if key.adID != adID {
			continue
		}
		fv := *row
		if fv.CategoryFieldOptionID.Valid {
			if option, ok := s.options[fv.CategoryFieldOptionID.Int64]; ok {
				fv.SelectedOption = option
			}
		}
		values = append(values, fv)
	}
	return values, nil
}

type fakeCategoryFinder struct {
	category *taxonomy.Category
}

func (f *fakeCategoryFinder) FindByID(_ context.Context, id int64) (*taxonomy.Category, error) {
	if f.category != nil && f.category.ID == id {
		return f.category, nil
	}
	return nil, xerrors.ErrNotFound
}

type adFixture struct {
	svc    *AdService
	ads    *fakeAdStore
	values *fakeValueStore
	db     *adTxBeginner
}

// newAdFixture wires a service over category 10 with a required select
// field "make" (options Toyota/Honda), an optional text field "color", and
// an optional number field whose upstream id differs from its display name.
func newAdFixture() *adFixture {
	selectField := makeField(1, "make", taxonomy.FieldSelect, true)
	selectField.Options = []taxonomy.CategoryFieldOption{
		{ID: 42, CategoryFieldID: 1, Value: "toyota", Label: "Toyota"},
		{ID: 43, CategoryFieldID: 1, Value: "honda", Label: "Honda"},
	}
	colorField := makeField2(2, "color", taxonomy.FieldText, false)
	engineField := taxonomy.CategoryField{
		ID:         3,
		ExternalID: "engine_size",
		Name:       "engine",
		Label:      "Engine size",
		FieldType:  taxonomy.FieldNumber,
	}

	f := &adFixture{
		ads:    newFakeAdStore(),
		values: newFakeValueStore(),
		db:     &adTxBeginner{},
	}
	for i := range selectField.Options {
		option := selectField.Options[i]
		f.values.options[option.ID] = &option
	}

	lister := &fakeFieldLister{fields: []taxonomy.CategoryField{selectField, colorField, engineField}}
	finder := &fakeCategoryFinder{category: &taxonomy.Category{ID: 10, ExternalID: "cars", Name: "Cars"}}

	f.svc = NewAdService(f.ads, f.values, lister, finder, f.db, zap.NewNop())
	return f
}

// makeField2 mirrors makeField for fields addressed by name only.
func makeField2(id int64, name string, ft taxonomy.FieldType, required bool) taxonomy.CategoryField {
	return taxonomy.CategoryField{
		ID:         id,
		Name:       name,
		Label:      name,
		FieldType:  ft,
		IsRequired: required,
	}
}

func createReq(fields map[string]interface{}) *domain.CreateAdRequest {
	return &domain.CreateAdRequest{
		CategoryID:  10,
		Title:       "Toyota Corolla 2015",
		Description: "Clean single-owner car, serviced on schedule.",
		Fields:      fields,
	}
}

// ---- tests ----

func TestCreateAdPersistsSelectValueAndResolvesOption(t *testing.T) {
	f := newAdFixture()

	resp, err := f.svc.CreateAd(context.Background(), 7, createReq(map[string]interface{}{
		"make": float64(42),
	}))
	require.NoError(t, err)
	assert.True(t, f.db.tx.committed)
	assert.NotEmpty(t, resp.PublicID)

	row := f.values.rows[valueKey{resp.ID, 1}]
	require.NotNil(t, row)
	assert.True(t, row.CategoryFieldOptionID.Valid)
	assert.EqualValues(t, 42, row.CategoryFieldOptionID.Int64)
	assert.Equal(t, 1, row.PopulatedColumns())

	assert.Equal(t, domain.SelectedOptionValue{ID: 42, Value: "toyota", Label: "Toyota"}, resp.Fields["make"])
}

func TestCreateAdMissingRequiredFieldFailsValidation(t *testing.T) {
	f := newAdFixture()

	_, err := f.svc.CreateAd(context.Background(), 7, createReq(nil))
	require.Error(t, err)

	ve, ok := xerrors.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "make")
	assert.Empty(t, f.ads.byID)
}

func TestCreateAdValueFailureAbortsWholeWrite(t *testing.T) {
	f := newAdFixture()
	f.values.failFieldID = 2

	_, err := f.svc.CreateAd(context.Background(), 7, createReq(map[string]interface{}{
		"make":  float64(42),
		"color": "red",
	}))
	require.Error(t, err)

	assert.False(t, f.db.tx.committed)
	assert.True(t, f.db.tx.rolledBack)
}

func TestUpdateAdExplicitNullClearsValue(t *testing.T) {
	f := newAdFixture()

	created, err := f.svc.CreateAd(context.Background(), 7, createReq(map[string]interface{}{
		"make":  float64(42),
		"color": "red",
	}))
	require.NoError(t, err)
	require.Contains(t, f.values.rows, valueKey{created.ID, 2})

	resp, err := f.svc.UpdateAd(context.Background(), created.ID, 7, &domain.UpdateAdRequest{
		Fields:         map[string]interface{}{"color": nil},
		FieldsProvided: true,
	})
	require.NoError(t, err)

	assert.NotContains(t, f.values.rows, valueKey{created.ID, 2})
	assert.NotContains(t, resp.Fields, "color")

	// the untouched select value survives
	assert.Contains(t, f.values.rows, valueKey{created.ID, 1})
}

func TestUpdateAdRequiredFieldRelaxedWhenValueExists(t *testing.T) {
	f := newAdFixture()

	created, err := f.svc.CreateAd(context.Background(), 7, createReq(map[string]interface{}{
		"make": float64(42),
	}))
	require.NoError(t, err)

	// "make" is required but already stored, so an update omitting it passes
	resp, err := f.svc.UpdateAd(context.Background(), created.ID, 7, &domain.UpdateAdRequest{
		Fields:         map[string]interface{}{"color": "blue"},
		FieldsProvided: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "blue", resp.Fields["color"])
}

func TestSaveFieldValuesMatchOnCanonicalKeyOnly(t *testing.T) {
	f := newAdFixture()

	// the engine field's canonical key is its upstream id, not its name
	resp, err := f.svc.CreateAd(context.Background(), 7, createReq(map[string]interface{}{
		"make":        float64(42),
		"engine":      float64(1600),
		"engine_size": float64(1800),
	}))
	require.NoError(t, err)

	row := f.values.rows[valueKey{resp.ID, 3}]
	require.NotNil(t, row)
	require.True(t, row.ValueInteger.Valid)
	assert.EqualValues(t, 1800, row.ValueInteger.Int64)

	assert.EqualValues(t, 1800, resp.Fields["engine_size"])
	assert.NotContains(t, resp.Fields, "engine")
}

func TestCreateAdEmptyStringSkipsOptionalField(t *testing.T) {
	f := newAdFixture()

	resp, err := f.svc.CreateAd(context.Background(), 7, createReq(map[string]interface{}{
		"make":  float64(42),
		"color": "   ",
	}))
	require.NoError(t, err)
	assert.NotContains(t, f.values.rows, valueKey{resp.ID, 2})
}

func TestUpdateAdForbiddenForOtherUser(t *testing.T) {
	f := newAdFixture()

	created, err := f.svc.CreateAd(context.Background(), 7, createReq(map[string]interface{}{
		"make": float64(42),
	}))
	require.NoError(t, err)

	title := "Honda Civic 2018"
	_, err = f.svc.UpdateAd(context.Background(), created.ID, 8, &domain.UpdateAdRequest{Title: &title})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)
}

func TestGetAdBumpsViews(t *testing.T) {
	f := newAdFixture()

	created, err := f.svc.CreateAd(context.Background(), 7, createReq(map[string]interface{}{
		"make": float64(42),
	}))
	require.NoError(t, err)

	_, err = f.svc.GetAd(context.Background(), created.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.ads.byID[created.ID].ViewsCount)
}
