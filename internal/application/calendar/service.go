// Package calendar implements event operations for the authenticated user.
// Authorization happens at the route layer via permission checks; this
// service only enforces ownership of individual events.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kalenso/kalenso/internal/domain/entity"
	repo "github.com/kalenso/kalenso/internal/domain/repository"
)

var ErrEventNotFound = errors.New("event not found")

type Service struct {
	Events repo.EventRepository
	Logger *logrus.Logger
}

func NewService(events repo.EventRepository, logger *logrus.Logger) *Service {
	return &Service{Events: events, Logger: logger}
}

type EventInput struct {
	Title    string
	StartsAt time.Time
	EndsAt   time.Time
	Location *string
	Notes    *string
}

func (s *Service) List(ctx context.Context, userID int64, from, to time.Time) ([]entity.Event, error) {
	return s.Events.ListByUser(ctx, userID, from, to)
}

func (s *Service) Create(ctx context.Context, userID int64, in EventInput) (*entity.Event, error) {
	e := &entity.Event{
		UserID:   userID,
		Title:    in.Title,
		StartsAt: in.StartsAt,
		EndsAt:   in.EndsAt,
		Location: in.Location,
		Notes:    in.Notes,
	}
	if err := s.Events.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, userID, eventID int64, in EventInput) (*entity.Event, error) {
	e, err := s.owned(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	e.Title = in.Title
	e.StartsAt = in.StartsAt
	e.EndsAt = in.EndsAt
	e.Location = in.Location
	e.Notes = in.Notes
	if err := s.Events.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, userID, eventID int64) error {
	if _, err := s.owned(ctx, userID, eventID); err != nil {
		return err
	}
	return s.Events.Delete(ctx, eventID)
}

// owned loads the event and hides other users' events behind the same
// not-found error as a genuinely missing id.
func (s *Service) owned(ctx context.Context, userID, eventID int64) (*entity.Event, error) {
	e, err := s.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if e.UserID != userID {
		return nil, ErrEventNotFound
	}
	return e, nil
}
