package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	prompt  ScheduledPrompt
	content Content
	timer   *time.Timer
}

// Scheduler keeps local reminders armed as in-process timers.
type Scheduler struct {
	content   Content
	deliverer Deliverer
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewScheduler(content Content, deliverer Deliverer) *Scheduler {
	return &Scheduler{
		content:   content,
		deliverer: deliverer,
		now:       time.Now,
		entries:   make(map[string]*entry),
	}
}

// NextOccurrence returns the first hour:minute strictly after now, in now's location.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ScheduleDailyPrompts cancels everything scheduled so far and arms the
// three daily reminders. Calling it again yields the same three prompts.
func (s *Scheduler) ScheduleDailyPrompts(ctx context.Context) ([]ScheduledPrompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.CancelAll()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().In(time.Local)
	scheduled := make([]ScheduledPrompt, 0, len(DailyPrompts))

	for _, p := range DailyPrompts {
		prompt := ScheduledPrompt{
			ID:       uuid.NewString(),
			Label:    p.Label,
			Hour:     p.Hour,
			Minute:   p.Minute,
			Repeats:  true,
			NextFire: NextOccurrence(now, p.Hour, p.Minute),
			Payload:  Payload{Screen: ScreenSurvey, Time: p.Label},
		}
		s.arm(&entry{prompt: prompt, content: s.content}, now)
		scheduled = append(scheduled, prompt)

		slog.Info("Reminder scheduled", "label", p.Label, "time", prompt.NextFire.Format("15:04"), "id", prompt.ID)
	}

	return scheduled, nil
}

// SendTest fires a one-off reminder after delay.
func (s *Scheduler) SendTest(delay time.Duration) ScheduledPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	prompt := ScheduledPrompt{
		ID:       uuid.NewString(),
		Label:    "test",
		NextFire: now.Add(delay),
		Payload:  Payload{Screen: ScreenSurvey},
	}
	content := Content{Title: "Test Notification", Body: "This is a test notification from EmoGo!", Sound: s.content.Sound}
	s.arm(&entry{prompt: prompt, content: content}, now)

	return prompt
}

func (s *Scheduler) Scheduled() []ScheduledPrompt {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompts := make([]ScheduledPrompt, 0, len(s.entries))
	for _, e := range s.entries {
		prompts = append(prompts, e.prompt)
	}
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].NextFire.Before(prompts[j].NextFire) })
	return prompts
}

func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
}

// arm must be called with s.mu held.
func (s *Scheduler) arm(e *entry, now time.Time) {
	s.entries[e.prompt.ID] = e
	e.timer = time.AfterFunc(e.prompt.NextFire.Sub(now), func() { s.fire(e) })
}

func (s *Scheduler) fire(e *entry) {
	s.mu.Lock()
	if s.entries[e.prompt.ID] != e {
		// cancelled or rescheduled while the timer was pending
		s.mu.Unlock()
		return
	}

	notification := Notification{
		ID:          uuid.NewString(),
		Content:     e.content,
		Payload:     e.prompt.Payload,
		DeliveredAt: s.now(),
	}

	if e.prompt.Repeats {
		now := s.now().In(time.Local)
		e.prompt.NextFire = NextOccurrence(now, e.prompt.Hour, e.prompt.Minute)
		e.timer = time.AfterFunc(e.prompt.NextFire.Sub(now), func() { s.fire(e) })
	} else {
		delete(s.entries, e.prompt.ID)
	}
	s.mu.Unlock()

	if err := s.deliverer.Deliver(context.Background(), notification); err != nil {
		slog.Error("Failed to deliver reminder", "label", e.prompt.Label, "error", err)
	}
}
