package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/poll-engine/domain/errors"
	"newsroom/contexts/news-engagement/poll-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter backing unit tests and local wiring. It
// mirrors the postgres adapter's semantics, including the atomic duplicate
// check inside CreateBallot.
type Store struct {
	mu sync.RWMutex

	polls      map[string]entities.Poll
	votes      map[string]entities.Vote
	statistics map[string]entities.VoteStatistics
	users      map[string]time.Time
	outbox     map[string]outboxRecord
}

func NewStore(seed []entities.Poll) *Store {
	polls := make(map[string]entities.Poll, len(seed))
	for _, poll := range seed {
		polls[poll.PollID] = poll
	}
	return &Store{
		polls:      polls,
		votes:      make(map[string]entities.Vote),
		statistics: make(map[string]entities.VoteStatistics),
		users:      make(map[string]time.Time),
		outbox:     make(map[string]outboxRecord),
	}
}

func (s *Store) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.TrimSpace(userID)] = time.Now().UTC()
}

func (s *Store) SetPoll(poll entities.Poll) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[strings.TrimSpace(poll.PollID)] = poll
}

func (s *Store) CreatePoll(_ context.Context, poll entities.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pollID := strings.TrimSpace(poll.PollID)
	if _, exists := s.polls[pollID]; exists {
		return domainerrors.ErrConflict
	}
	s.polls[pollID] = poll
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return poll, nil
}

func (s *Store) GetLatestPollByState(
	_ context.Context,
	state entities.PollState,
) (entities.Poll, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidates := s.pollsByStateLocked(state)
	if len(candidates) == 0 {
		return entities.Poll{}, false, nil
	}
	return candidates[len(candidates)-1], true, nil
}

func (s *Store) ListPollsByState(
	_ context.Context,
	state entities.PollState,
) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pollsByStateLocked(state), nil
}

func (s *Store) MarkScheduled(_ context.Context, pollID string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok || poll.State != entities.PollStateDraft {
		return domainerrors.ErrInvalidStateChange
	}
	poll.State = entities.PollStateScheduled
	poll.UpdatedAt = updatedAt.UTC()
	s.polls[poll.PollID] = poll
	return nil
}

func (s *Store) RetireExpiredPublished(_ context.Context, now time.Time) ([]entities.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	retired := make([]entities.Poll, 0)
	for key, poll := range s.polls {
		if poll.State != entities.PollStatePublished {
			continue
		}
		if !poll.EndAt.Before(now.UTC()) {
			continue
		}
		poll.State = entities.PollStateDeleted
		poll.UpdatedAt = now.UTC()
		s.polls[key] = poll
		retired = append(retired, poll)
	}
	sort.Slice(retired, func(i, j int) bool {
		return retired[i].CreatedAt.Before(retired[j].CreatedAt)
	})
	return retired, nil
}

func (s *Store) PromoteScheduled(
	_ context.Context,
	pollID string,
	updatedAt time.Time,
) (entities.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, poll := range s.polls {
		if poll.State == entities.PollStatePublished {
			return entities.Poll{}, domainerrors.ErrPublishedPollExists
		}
	}
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok || poll.State != entities.PollStateScheduled {
		return entities.Poll{}, domainerrors.ErrInvalidStateChange
	}
	poll.State = entities.PollStatePublished
	poll.UpdatedAt = updatedAt.UTC()
	s.polls[poll.PollID] = poll
	return poll, nil
}

func (s *Store) CreateBallot(_ context.Context, votes []entities.Vote) error {
	if len(votes) == 0 {
		return domainerrors.ErrInvalidPollInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pollID := strings.TrimSpace(votes[0].PollID)
	userID := strings.TrimSpace(votes[0].UserID)
	for _, existing := range s.votes {
		if existing.PollID == pollID && existing.UserID == userID {
			return domainerrors.ErrAlreadyVoted
		}
	}
	for _, vote := range votes {
		s.votes[strings.TrimSpace(vote.VoteID)] = vote
	}
	return nil
}

func (s *Store) HasUserVoted(_ context.Context, pollID string, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, vote := range s.votes {
		if vote.PollID == strings.TrimSpace(pollID) && vote.UserID == strings.TrimSpace(userID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountVotesByOption(_ context.Context, pollID string, optionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, vote := range s.votes {
		if vote.PollID == strings.TrimSpace(pollID) && vote.OptionID == strings.TrimSpace(optionID) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListVotesByPoll(_ context.Context, pollID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.PollID == strings.TrimSpace(pollID) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpsertStatistics(_ context.Context, stats entities.VoteStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(stats.PollID) + "/" + strings.TrimSpace(stats.OptionID)
	if existing, ok := s.statistics[key]; ok {
		stats.StatID = existing.StatID
	}
	s.statistics[key] = stats
	return nil
}

func (s *Store) ListStatisticsByPoll(_ context.Context, pollID string) ([]entities.VoteStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.VoteStatistics, 0)
	for _, stats := range s.statistics {
		if stats.PollID == strings.TrimSpace(pollID) {
			items = append(items, stats)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].OptionID < items[j].OptionID
	})
	return items, nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) pollsByStateLocked(state entities.PollState) []entities.Poll {
	items := make([]entities.Poll, 0)
	for _, poll := range s.polls {
		if poll.State == state {
			items = append(items, poll)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

var _ ports.PollRepository = (*Store)(nil)
var _ ports.VoteRepository = (*Store)(nil)
var _ ports.StatsRepository = (*Store)(nil)
var _ ports.UserDirectory = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
