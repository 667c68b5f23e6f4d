// Package scheduler fills the fixed daily posting slots with approved
// content under the diversity and content-type balance rules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

// candidateFetchLimit bounds one run's candidate query; ten times the
// slot count is plenty even with heavy diversity exclusion.
const candidateFetchLimit = domain.SlotsPerDay * 10

// ContentStore is the slice of the content repository the scheduler needs.
type ContentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentItem, error)
	ListSchedulable(ctx context.Context, limit int) ([]domain.ContentItem, error)
	CountSchedulable(ctx context.Context) (int64, error)
	MarkScheduled(ctx context.Context, id uuid.UUID) error
	ReleaseScheduled(ctx context.Context, id uuid.UUID) error
}

// SlotStore is the slice of the slot repository the scheduler needs.
type SlotStore interface {
	ListByDate(ctx context.Context, date string) ([]domain.ScheduleSlot, error)
	Save(ctx context.Context, slot *domain.ScheduleSlot) error
	ContentScheduledElsewhere(ctx context.Context, contentID uuid.UUID) (bool, error)
}

// SettingsStore loads the coordination configuration.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.CoordinationConfig, error)
}

// Scheduler generates and refills daily schedules.
type Scheduler struct {
	content   ContentStore
	slots     SlotStore
	settings  SettingsStore
	slotTimes []string
	logger    logger.Logger
	locks     *dateLocks
	now       func() time.Time
}

func NewScheduler(content ContentStore, slots SlotStore, settings SettingsStore, slotTimes []string, log logger.Logger) *Scheduler {
	return &Scheduler{
		content:   content,
		slots:     slots,
		settings:  settings,
		slotTimes: slotTimes,
		logger:    log,
		locks:     newDateLocks(),
		now:       time.Now,
	}
}

// GenerateSchedule runs the slot-fill algorithm for one date. Slots are
// processed in increasing index order because the diversity and balance
// decisions for slot N depend on slots 0..N-1.
func (s *Scheduler) GenerateSchedule(ctx context.Context, date string, mode domain.ScheduleMode) (*domain.ScheduleResult, error) {
	return s.generate(ctx, date, mode, domain.SlotsPerDay)
}

// RefillTwoDays refills today and tomorrow in one call.
func (s *Scheduler) RefillTwoDays(ctx context.Context, date string) (*domain.TwoDayResult, error) {
	day, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", domain.ErrInvalidSettings, date)
	}

	today, err := s.generate(ctx, date, domain.ScheduleModeRefill, domain.SlotsPerDay)
	if err != nil {
		return nil, err
	}
	tomorrowDate := day.AddDate(0, 0, 1).Format(domain.DateFormat)
	tomorrow, err := s.generate(ctx, tomorrowDate, domain.ScheduleModeRefill, domain.SlotsPerDay)
	if err != nil {
		return nil, err
	}

	result := &domain.TwoDayResult{
		Today:    today,
		Tomorrow: tomorrow,
		Summary: domain.BatchSummary{
			TotalScheduled: today.Filled + tomorrow.Filled,
		},
	}
	result.Summary.Errors = append(result.Summary.Errors, today.Errors...)
	result.Summary.Errors = append(result.Summary.Errors, tomorrow.Errors...)
	return result, nil
}

// ScheduleNextBatch refills up to count slots per day over the next
// days, starting today.
func (s *Scheduler) ScheduleNextBatch(ctx context.Context, days, count int) (*domain.BatchSummary, error) {
	if days <= 0 {
		days = 1
	}
	if count <= 0 || count > domain.SlotsPerDay {
		count = domain.SlotsPerDay
	}

	summary := &domain.BatchSummary{}
	start := s.now()
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format(domain.DateFormat)
		result, err := s.generate(ctx, date, domain.ScheduleModeRefill, count)
		if err != nil {
			return nil, err
		}
		summary.TotalScheduled += result.Filled
		summary.Errors = append(summary.Errors, result.Errors...)
	}
	return summary, nil
}

func (s *Scheduler) generate(ctx context.Context, date string, mode domain.ScheduleMode, maxFill int) (*domain.ScheduleResult, error) {
	if _, err := time.Parse(domain.DateFormat, date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", domain.ErrInvalidSettings, date)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown schedule mode %q", domain.ErrInvalidSettings, mode)
	}

	// Two concurrent runs for the same date must not double-assign a
	// slot; runs for different dates proceed independently.
	unlock := s.locks.lock(date)
	defer unlock()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coordination settings: %w", err)
	}

	existing, err := s.slots.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	slotByIndex := make(map[int]*domain.ScheduleSlot, len(existing))
	for i := range existing {
		slotByIndex[existing[i].SlotIndex] = &existing[i]
	}

	run := &fillRun{
		scheduler:     s,
		date:          date,
		mode:          mode,
		settings:      settings,
		platformCount: make(map[domain.Platform]int),
		typeCount:     make(map[domain.ContentType]int),
		usedContent:   make(map[uuid.UUID]bool),
		prevBinding:   make(map[int]uuid.UUID),
	}

	if err := run.loadCandidates(ctx); err != nil {
		return nil, err
	}
	if mode == domain.ScheduleModeFull {
		if err := run.releasePendingBindings(ctx, slotByIndex); err != nil {
			return nil, err
		}
	}

	result := &domain.ScheduleResult{Date: date, Mode: mode}
	filled := 0

	for idx := 0; idx < domain.SlotsPerDay; idx++ {
		slot := slotByIndex[idx]

		if slot != nil && slot.Occupied() {
			run.countSlot(ctx, slot)
			result.Slots = append(result.Slots, domain.SlotReport{
				SlotIndex: idx,
				Action:    domain.SlotActionKept,
				ContentID: slot.ContentID,
				Platform:  slot.Platform,
			})
			continue
		}

		if mode == domain.ScheduleModeRefill && slot != nil && slot.Assigned() {
			run.countSlot(ctx, slot)
			result.Slots = append(result.Slots, domain.SlotReport{
				SlotIndex: idx,
				Action:    domain.SlotActionKept,
				ContentID: slot.ContentID,
				Platform:  slot.Platform,
			})
			continue
		}

		if filled >= maxFill {
			result.Slots = append(result.Slots, domain.SlotReport{
				SlotIndex: idx,
				Action:    domain.SlotActionSkipped,
				Reason:    "fill_limit_reached",
			})
			continue
		}

		report, didFill, fillErr := run.fillSlot(ctx, idx, slot)
		if fillErr != nil {
			return nil, fillErr
		}
		result.Slots = append(result.Slots, report)
		if didFill {
			filled++
		}
	}

	result.Filled = filled
	if run.exhausted {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Only %d content items available", run.totalCandidates))
	}

	s.logger.Info("Schedule run completed",
		logger.String("date", date),
		logger.String("mode", string(mode)),
		logger.Int("filled", filled),
		logger.Int("candidates", run.totalCandidates),
	)
	return result, nil
}

// fillRun carries the mutable state of one schedule-generation run.
type fillRun struct {
	scheduler *Scheduler
	date      string
	mode      domain.ScheduleMode
	settings  *domain.CoordinationConfig

	pool      []domain.ContentItem
	boundHere map[uuid.UUID]bool

	platformCount map[domain.Platform]int
	typeCount     map[domain.ContentType]int
	filledSlots   int
	usedContent   map[uuid.UUID]bool
	prevBinding   map[int]uuid.UUID

	totalCandidates int
	exhausted       bool
}

func (r *fillRun) loadCandidates(ctx context.Context) error {
	count, err := r.scheduler.content.CountSchedulable(ctx)
	if err != nil {
		return err
	}
	r.totalCandidates = int(count)

	candidates, err := r.scheduler.content.ListSchedulable(ctx, candidateFetchLimit)
	if err != nil {
		return err
	}
	r.pool = candidates
	r.boundHere = make(map[uuid.UUID]bool)
	return nil
}

// releasePendingBindings returns every pending binding on this date to
// the approved pool so a full rebuild can re-derive each slot from
// scratch. Re-deriving the same item for the same slot reports "kept".
func (r *fillRun) releasePendingBindings(ctx context.Context, slotByIndex map[int]*domain.ScheduleSlot) error {
	for idx, slot := range slotByIndex {
		if !slot.Assigned() {
			continue
		}
		contentID := *slot.ContentID
		r.prevBinding[idx] = contentID

		if err := r.scheduler.content.ReleaseScheduled(ctx, contentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("release slot %d binding: %w", idx, err)
		}
		item, err := r.scheduler.content.GetByID(ctx, contentID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if item.IsPosted {
			continue
		}
		r.pool = append(r.pool, *item)
		r.boundHere[contentID] = true
	}

	// Released items re-enter the pool in candidate order.
	sort.SliceStable(r.pool, func(i, j int) bool {
		a, b := &r.pool[i], &r.pool[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.ConfidenceScore != b.ConfidenceScore {
			return a.ConfidenceScore > b.ConfidenceScore
		}
		return a.DiscoveredAt.Before(b.DiscoveredAt)
	})
	if len(r.pool) > r.totalCandidates {
		r.totalCandidates = len(r.pool)
	}
	return nil
}

// countSlot folds an untouched slot into the diversity and balance
// accounting so later slots see it.
func (r *fillRun) countSlot(ctx context.Context, slot *domain.ScheduleSlot) {
	if slot.Platform != nil {
		r.platformCount[*slot.Platform]++
	}
	if slot.ContentID != nil {
		r.usedContent[*slot.ContentID] = true
		if item, err := r.scheduler.content.GetByID(ctx, *slot.ContentID); err == nil {
			r.typeCount[item.ContentType]++
		}
		r.filledSlots++
	}
}

func (r *fillRun) fillSlot(ctx context.Context, idx int, slot *domain.ScheduleSlot) (domain.SlotReport, bool, error) {
	selected, anyAvailable, err := r.selectCandidate(ctx)
	if err != nil {
		return domain.SlotReport{}, false, err
	}

	if selected == nil {
		if !anyAvailable {
			r.exhausted = true
		}
		if err := r.clearSlot(ctx, idx, slot); err != nil {
			return domain.SlotReport{}, false, err
		}
		return domain.SlotReport{
			SlotIndex: idx,
			Action:    domain.SlotActionSkipped,
			Reason:    domain.ReasonNoCandidates,
		}, false, nil
	}

	if err := r.scheduler.content.MarkScheduled(ctx, selected.ID); err != nil {
		return domain.SlotReport{}, false, fmt.Errorf("mark content scheduled: %w", err)
	}

	r.usedContent[selected.ID] = true
	r.platformCount[selected.SourcePlatform]++
	r.typeCount[selected.ContentType]++
	r.filledSlots++

	prev, hadPrev := r.prevBinding[idx]
	p := selected.SourcePlatform

	action := domain.SlotActionCreated
	switch {
	case hadPrev && prev == selected.ID:
		// Same item re-derived for the same slot; nothing to write.
		action = domain.SlotActionKept
	case hadPrev:
		action = domain.SlotActionUpdated
	case slot != nil && slot.ContentID != nil:
		// A failed slot's previous binding is being replaced.
		action = domain.SlotActionUpdated
	}

	if action != domain.SlotActionKept {
		scheduledTime, timeErr := r.scheduler.slotTime(r.date, idx)
		if timeErr != nil {
			return domain.SlotReport{}, false, timeErr
		}
		newSlot := domain.ScheduleSlot{
			Date:          r.date,
			SlotIndex:     idx,
			ContentID:     &selected.ID,
			Platform:      &p,
			Status:        domain.SlotStatusPending,
			ScheduledTime: scheduledTime,
		}
		if slot != nil {
			newSlot.ID = slot.ID
		}
		if err := r.scheduler.slots.Save(ctx, &newSlot); err != nil {
			return domain.SlotReport{}, false, fmt.Errorf("save slot %d: %w", idx, err)
		}
	}

	filled := action == domain.SlotActionCreated || action == domain.SlotActionUpdated
	return domain.SlotReport{
		SlotIndex: idx,
		Action:    action,
		ContentID: &selected.ID,
		Platform:  &p,
	}, filled, nil
}

// clearSlot resets a full-mode slot whose binding was released but for
// which no replacement exists.
func (r *fillRun) clearSlot(ctx context.Context, idx int, slot *domain.ScheduleSlot) error {
	if _, hadPrev := r.prevBinding[idx]; !hadPrev || slot == nil {
		return nil
	}
	scheduledTime, err := r.scheduler.slotTime(r.date, idx)
	if err != nil {
		return err
	}
	cleared := domain.ScheduleSlot{
		ID:            slot.ID,
		Date:          r.date,
		SlotIndex:     idx,
		Status:        domain.SlotStatusEmpty,
		ScheduledTime: scheduledTime,
	}
	return r.scheduler.slots.Save(ctx, &cleared)
}

// selectCandidate picks the next item for the current slot. The second
// return reports whether any unused candidate existed at all, which
// distinguishes diversity exclusion from total exhaustion.
func (r *fillRun) selectCandidate(ctx context.Context) (*domain.ContentItem, bool, error) {
	var eligible []*domain.ContentItem
	anyAvailable := false

	for i := range r.pool {
		item := &r.pool[i]
		if r.usedContent[item.ID] {
			continue
		}
		anyAvailable = true

		if r.platformCount[item.SourcePlatform] >= domain.DiversityCap {
			continue
		}
		if !r.boundHere[item.ID] {
			booked, err := r.scheduler.slots.ContentScheduledElsewhere(ctx, item.ID)
			if err != nil {
				return nil, false, err
			}
			if booked {
				continue
			}
		}
		eligible = append(eligible, item)
	}
	if len(eligible) == 0 {
		return nil, anyAvailable, nil
	}

	if !r.settings.ContentBalancingEnabled || len(r.settings.TargetContentDistribution) == 0 {
		return eligible[0], true, nil
	}

	// Prefer the content type furthest below its target share of
	// today's filled slots; ties fall back to base candidate order.
	best := eligible[0]
	bestDeficit := r.deficit(best.ContentType)
	for _, item := range eligible[1:] {
		if d := r.deficit(item.ContentType); d > bestDeficit {
			best = item
			bestDeficit = d
		}
	}
	return best, true, nil
}

func (r *fillRun) deficit(ct domain.ContentType) float64 {
	target := r.settings.TargetContentDistribution[ct]
	if r.filledSlots == 0 {
		return target
	}
	share := float64(r.typeCount[ct]) / float64(r.filledSlots) * 100
	return target - share
}

// slotTime resolves a slot index to its wall-clock posting time.
func (s *Scheduler) slotTime(date string, idx int) (time.Time, error) {
	if idx >= len(s.slotTimes) {
		return time.Time{}, fmt.Errorf("no slot time configured for index %d", idx)
	}
	t, err := time.ParseInLocation(domain.DateFormat+" 15:04", date+" "+s.slotTimes[idx], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot time %q: %w", s.slotTimes[idx], err)
	}
	return t, nil
}
