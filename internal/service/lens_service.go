package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"

	apperrors "lenstrack/backend/internal/errors"
	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/repository"
	"lenstrack/backend/internal/timeutil"
	"lenstrack/backend/internal/wear"
)

// LensService runs the lens lifecycle transitions. Each operation reads one
// timestamp, opens one transaction, computes the new field values purely, and
// writes them sequentially before committing, so a demote-previous plus
// promote-target pair can never be split by a crash.
type LensService struct {
	repo    *repository.LensRepository
	nowFunc func() time.Time
}

func NewLensService(repo *repository.LensRepository) *LensService {
	return &LensService{
		repo:    repo,
		nowFunc: time.Now,
	}
}

// WithNowFunc allows tests to override the time source.
func (s *LensService) WithNowFunc(now func() time.Time) {
	s.nowFunc = now
}

// LensView is a lens plus the derived quantities clients render from.
type LensView struct {
	model.Lens
	TotalUsageMs   int64 `json:"totalUsageMs"`
	Expired        bool  `json:"expired"`
	RemainingDays  *int  `json:"remainingDays"`
	RemainingHours *int  `json:"remainingHours"`
}

type CollectionView struct {
	Lenses      []LensView `json:"lenses"`
	CurrentLens *LensView  `json:"currentLens"`
}

type SwapResult struct {
	Current  LensView  `json:"current"`
	Previous *LensView `json:"previous,omitempty"`
}

type AddLensInput struct {
	Manufacturer    string
	Brand           string
	WearPeriodTitle string
	Status          model.Status
	OpenedDate      string
	Sphere          string
	BaseCurveRadius string
}

type EditLensInput struct {
	Manufacturer       string
	Brand              string
	WearPeriodTitle    string
	UsagePeriodDays    int
	DiscardDate        string
	Status             model.Status
	OpenedDate         string
	Sphere             string
	BaseCurveRadius    string
	AccumulatedUsageMs int64
	LastResumedAt      string
}

// List returns the user's lenses, most recently opened first, with the
// current lens derived by scanning for status in-use.
func (s *LensService) List(ctx context.Context, userID string) (*CollectionView, *apperrors.APIError) {
	now := s.nowFunc()
	lenses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list lenses")
	}

	view := CollectionView{Lenses: make([]LensView, 0, len(lenses))}
	for _, lens := range lenses {
		lensView := s.toView(lens, now)
		view.Lenses = append(view.Lenses, lensView)
		if lens.Status == model.StatusInUse && view.CurrentLens == nil {
			current := lensView
			view.CurrentLens = &current
		}
	}
	return &view, nil
}

// Add creates a lens record. A lens arriving with status in-use becomes the
// current lens; any previously current lens is demoted in the same
// transaction so at most one lens stays in use.
func (s *LensService) Add(ctx context.Context, userID string, input AddLensInput) (*LensView, *apperrors.APIError) {
	status := input.Status
	if status == "" {
		status = model.StatusUnopened
	}
	if status != model.StatusUnopened && status != model.StatusOpened && status != model.StatusInUse {
		return nil, apperrors.BadRequest("invalid_status", "status must be one of unopened, opened, in-use")
	}

	days, ok := model.WearPeriodDaysForTitle(input.WearPeriodTitle)
	if !ok {
		return nil, apperrors.BadRequest("invalid_wear_period", "wearPeriodTitle must be one of daily, two-week, monthly")
	}

	openedDate, apiErr := normalizeInputDate(input.OpenedDate)
	if apiErr != nil {
		return nil, apiErr
	}

	now := s.nowFunc()
	lens := model.Lens{
		ID:              uuid.NewString(),
		UserID:          userID,
		Manufacturer:    input.Manufacturer,
		Brand:           input.Brand,
		WearPeriodTitle: input.WearPeriodTitle,
		WearPeriodDays:  days,
		Status:          status,
		OpenedDate:      openedDate,
		Sphere:          input.Sphere,
		BaseCurveRadius: input.BaseCurveRadius,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if status == model.StatusInUse {
		lens.LastResumedAt = isoStamp(now)
		if lens.OpenedDate == "" {
			lens.OpenedDate = isoStamp(now)
		}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	if status == model.StatusInUse {
		if apiErr := s.demoteCurrentTx(ctx, tx, userID, "", now); apiErr != nil {
			return nil, apiErr
		}
	}

	if err := s.repo.InsertTx(ctx, tx, &lens); err != nil {
		return nil, apperrors.Internal("failed to create lens")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	view := s.toView(lens, now)
	return &view, nil
}

// Edit fully replaces a lens record by id. WearPeriodDays always follows the
// title mapping, and LastResumedAt is forced consistent with the status so the
// in-use invariant cannot be edited into an illegal shape.
func (s *LensService) Edit(ctx context.Context, userID, lensID string, input EditLensInput) (*LensView, *apperrors.APIError) {
	if !input.Status.Valid() {
		return nil, apperrors.BadRequest("invalid_status", "unknown lens status")
	}

	days, ok := model.WearPeriodDaysForTitle(input.WearPeriodTitle)
	if !ok {
		return nil, apperrors.BadRequest("invalid_wear_period", "wearPeriodTitle must be one of daily, two-week, monthly")
	}

	openedDate, apiErr := normalizeInputDate(input.OpenedDate)
	if apiErr != nil {
		return nil, apiErr
	}
	discardDate, apiErr := normalizeInputDate(input.DiscardDate)
	if apiErr != nil {
		return nil, apiErr
	}

	now := s.nowFunc()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	lens, err := s.repo.GetTx(ctx, tx, userID, lensID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("lens_not_found", "lens not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get lens")
	}

	lens.Manufacturer = input.Manufacturer
	lens.Brand = input.Brand
	lens.WearPeriodTitle = input.WearPeriodTitle
	lens.WearPeriodDays = days
	lens.UsagePeriodDays = input.UsagePeriodDays
	lens.DiscardDate = discardDate
	lens.Status = input.Status
	lens.OpenedDate = openedDate
	lens.Sphere = input.Sphere
	lens.BaseCurveRadius = input.BaseCurveRadius
	lens.AccumulatedUsageMs = input.AccumulatedUsageMs
	lens.LastResumedAt = input.LastResumedAt
	lens.UpdatedAt = now

	if lens.Status == model.StatusInUse {
		if lens.LastResumedAt == "" {
			lens.LastResumedAt = isoStamp(now)
		}
		if apiErr := s.demoteCurrentTx(ctx, tx, userID, lens.ID, now); apiErr != nil {
			return nil, apiErr
		}
	} else {
		lens.LastResumedAt = ""
	}

	if err := s.repo.UpdateTx(ctx, tx, lens); err != nil {
		return nil, apperrors.Internal("failed to update lens")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	view := s.toView(*lens, now)
	return &view, nil
}

// Delete removes a lens. Deleting the current lens drops its unsaved open
// session time; nothing is accumulated first.
func (s *LensService) Delete(ctx context.Context, userID, lensID string) *apperrors.APIError {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	if err := s.repo.DeleteTx(ctx, tx, userID, lensID); err != nil {
		if err == repository.ErrNotFound {
			return apperrors.NotFound("lens_not_found", "lens not found")
		}
		return apperrors.Internal("failed to delete lens")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return apperrors.Internal("failed to commit transaction")
	}
	return nil
}

// Swap makes the target lens current. The previously current lens is demoted
// to opened with its open session discarded (swap does not accumulate; only
// take-off and discard do).
func (s *LensService) Swap(ctx context.Context, userID, lensID string) (*SwapResult, *apperrors.APIError) {
	now := s.nowFunc()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	target, err := s.repo.GetTx(ctx, tx, userID, lensID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("lens_not_found", "lens not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get lens")
	}

	if target.Status == model.StatusExpired {
		view := s.toView(*target, now)
		return nil, apperrors.Conflict("lens_expired", "lens has expired", map[string]interface{}{
			"lens": view,
		})
	}

	if target.Status == model.StatusInUse {
		view := s.toView(*target, now)
		return &SwapResult{Current: view}, nil
	}

	previous, apiErr := s.demoteAndFetchCurrentTx(ctx, tx, userID, target.ID, now)
	if apiErr != nil {
		return nil, apiErr
	}

	target.Status = model.StatusInUse
	target.LastResumedAt = isoStamp(now)
	if target.OpenedDate == "" {
		target.OpenedDate = isoStamp(now)
	}
	target.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, target); err != nil {
		return nil, apperrors.Internal("failed to update lens")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	result := SwapResult{Current: s.toView(*target, now)}
	if previous != nil {
		prevView := s.toView(*previous, now)
		result.Previous = &prevView
	}
	return &result, nil
}

// TakeOff closes the current lens's open session, folding it into the
// accumulator, and marks the lens taken-off.
func (s *LensService) TakeOff(ctx context.Context, userID string) (*LensView, *apperrors.APIError) {
	now := s.nowFunc()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	current, err := s.repo.CurrentTx(ctx, tx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NoCurrentLens()
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get current lens")
	}

	current.AccumulatedUsageMs = wear.TotalUsage(*current, now).Milliseconds()
	current.Status = model.StatusTakenOff
	current.LastResumedAt = ""
	current.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, current); err != nil {
		return nil, apperrors.Internal("failed to update lens")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	view := s.toView(*current, now)
	return &view, nil
}

// Resume puts the target lens back in use. A lens already past its wear
// period is force-expired instead: the expiry is persisted, the lens does not
// become current, and the caller gets a lens_expired conflict carrying the
// updated record. This is a hard lockout, not a retryable error.
func (s *LensService) Resume(ctx context.Context, userID, lensID string) (*SwapResult, *apperrors.APIError) {
	now := s.nowFunc()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	target, err := s.repo.GetTx(ctx, tx, userID, lensID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("lens_not_found", "lens not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get lens")
	}

	if target.Status == model.StatusExpired || s.pastWearPeriod(*target, now) {
		target.Status = model.StatusExpired
		if target.DiscardDate == "" {
			target.DiscardDate = isoStamp(now)
		}
		target.LastResumedAt = ""
		target.UpdatedAt = now

		if err := s.repo.UpdateTx(ctx, tx, target); err != nil {
			return nil, apperrors.Internal("failed to update lens")
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return nil, apperrors.Internal("failed to commit transaction")
		}

		view := s.toView(*target, now)
		return nil, apperrors.Conflict("lens_expired", "lens has expired and cannot be resumed", map[string]interface{}{
			"lens": view,
		})
	}

	if target.Status == model.StatusInUse {
		view := s.toView(*target, now)
		return &SwapResult{Current: view}, nil
	}

	previous, apiErr := s.demoteAndFetchCurrentTx(ctx, tx, userID, target.ID, now)
	if apiErr != nil {
		return nil, apiErr
	}

	target.Status = model.StatusInUse
	target.LastResumedAt = isoStamp(now)
	if target.OpenedDate == "" {
		target.OpenedDate = isoStamp(now)
	}
	target.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, target); err != nil {
		return nil, apperrors.Internal("failed to update lens")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	result := SwapResult{Current: s.toView(*target, now)}
	if previous != nil {
		prevView := s.toView(*previous, now)
		result.Previous = &prevView
	}
	return &result, nil
}

// Discard finalizes the current lens: its total usage is converted to whole
// days (rounded, capped at the wear period), persisted, and the lens is
// marked expired.
func (s *LensService) Discard(ctx context.Context, userID string) (*LensView, *apperrors.APIError) {
	now := s.nowFunc()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	current, err := s.repo.CurrentTx(ctx, tx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NoCurrentLens()
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get current lens")
	}

	total := wear.TotalUsage(*current, now)
	usageDays := int(math.Round(total.Hours() / 24))
	if usageDays > current.WearPeriodDays {
		usageDays = current.WearPeriodDays
	}

	current.Status = model.StatusExpired
	current.DiscardDate = isoStamp(now)
	current.UsagePeriodDays = usageDays
	current.AccumulatedUsageMs = total.Milliseconds()
	current.LastResumedAt = ""
	current.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, current); err != nil {
		return nil, apperrors.Internal("failed to update lens")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	view := s.toView(*current, now)
	return &view, nil
}

// pastWearPeriod checks the resume lockout. Daily lenses are locked out on
// any calendar day after their opening day; multi-day lenses once their
// excess-adjusted usage reaches the wear period.
func (s *LensService) pastWearPeriod(lens model.Lens, now time.Time) bool {
	if lens.WearPeriodDays == 1 {
		opened, ok, err := timeutil.ParseDate(lens.OpenedDate)
		if err != nil || !ok {
			return false
		}
		return !timeutil.SameLocalDay(opened.In(now.Location()), now)
	}
	return wear.IsExpired(lens, now)
}

// demoteCurrentTx moves the user's current lens, if any and not excluded, to
// opened without accumulating its open session.
func (s *LensService) demoteCurrentTx(ctx context.Context, tx *sql.Tx, userID, excludeID string, now time.Time) *apperrors.APIError {
	_, apiErr := s.demoteAndFetchCurrentTx(ctx, tx, userID, excludeID, now)
	return apiErr
}

func (s *LensService) demoteAndFetchCurrentTx(ctx context.Context, tx *sql.Tx, userID, excludeID string, now time.Time) (*model.Lens, *apperrors.APIError) {
	current, err := s.repo.CurrentTx(ctx, tx, userID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get current lens")
	}
	if current.ID == excludeID {
		return nil, nil
	}

	current.Status = model.StatusOpened
	current.LastResumedAt = ""
	current.UpdatedAt = now

	if err := s.repo.UpdateTx(ctx, tx, current); err != nil {
		return nil, apperrors.Internal("failed to demote current lens")
	}
	return current, nil
}

func (s *LensService) toView(lens model.Lens, now time.Time) LensView {
	view := LensView{
		Lens:         lens,
		TotalUsageMs: wear.TotalUsage(lens, now).Milliseconds(),
		Expired:      wear.IsExpired(lens, now),
	}
	if days, ok := wear.RemainingDays(lens, now); ok {
		view.RemainingDays = &days
	}
	if hours, ok := wear.RemainingHours(lens, now); ok {
		view.RemainingHours = &hours
	}
	return view
}

func normalizeInputDate(s string) (string, *apperrors.APIError) {
	if s == "" {
		return "", nil
	}
	if _, _, err := timeutil.ParseDate(s); err != nil {
		return "", apperrors.InvalidDate("invalid date: " + s)
	}
	return s, nil
}

func isoStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
