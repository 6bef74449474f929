package queries

import (
	"context"
	"strings"

	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	"newsroom/contexts/news-engagement/poll-engine/ports"
)

type PollQueryUseCase struct {
	Polls ports.PollRepository
}

func (uc PollQueryUseCase) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	return uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
}
