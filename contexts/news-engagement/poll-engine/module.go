package pollengine

import (
	"log/slog"

	httpadapter "newsroom/contexts/news-engagement/poll-engine/adapters/http"
	"newsroom/contexts/news-engagement/poll-engine/adapters/memory"
	"newsroom/contexts/news-engagement/poll-engine/application/commands"
	"newsroom/contexts/news-engagement/poll-engine/application/queries"
	"newsroom/contexts/news-engagement/poll-engine/application/workers"
	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	"newsroom/contexts/news-engagement/poll-engine/ports"
)

type Module struct {
	Handler           httpadapter.Handler
	StateTransitioner workers.StateTransitioner
	StatisticsJob     workers.StatisticsJob
	Store             *memory.Store
}

type Dependencies struct {
	Polls  ports.PollRepository
	Votes  ports.VoteRepository
	Stats  ports.StatsRepository
	Users  ports.UserDirectory
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	pollUseCase := commands.PollUseCase{
		Polls:  deps.Polls,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Polls:  deps.Polls,
		Votes:  deps.Votes,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	statisticsUseCase := queries.StatisticsUseCase{
		Polls:  deps.Polls,
		Votes:  deps.Votes,
		Stats:  deps.Stats,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Polls:      pollUseCase,
			Votes:      voteUseCase,
			PollQuery:  queries.PollQueryUseCase{Polls: deps.Polls},
			Statistics: statisticsUseCase,
			Logger:     deps.Logger,
		},
		StateTransitioner: workers.StateTransitioner{
			Polls:  deps.Polls,
			Users:  deps.Users,
			Outbox: deps.Outbox,
			Clock:  deps.Clock,
			IDGen:  deps.IDGen,
			Logger: deps.Logger,
		},
		StatisticsJob: workers.StatisticsJob{
			Polls:      deps.Polls,
			Statistics: statisticsUseCase,
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Poll, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Polls:  store,
		Votes:  store,
		Stats:  store,
		Users:  store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
