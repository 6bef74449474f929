package alarmservice

import (
	"log/slog"
	"time"

	httpadapter "newsroom/contexts/news-engagement/alarm-service/adapters/http"
	"newsroom/contexts/news-engagement/alarm-service/adapters/memory"
	"newsroom/contexts/news-engagement/alarm-service/application/commands"
	"newsroom/contexts/news-engagement/alarm-service/application/queries"
	"newsroom/contexts/news-engagement/alarm-service/application/workers"
	"newsroom/contexts/news-engagement/alarm-service/ports"
)

type Module struct {
	Handler               httpadapter.Handler
	Fanout                commands.FanoutUseCase
	PollPublishedConsumer workers.PollPublishedConsumer
	RetentionJob          workers.RetentionJob
	Store                 *memory.Store
}

type Dependencies struct {
	Alarms           ports.AlarmRepository
	UserAlarms       ports.UserAlarmRepository
	Users            ports.UserDirectory
	Bookmarks        ports.BookmarkDirectory
	Dedup            ports.EventDedupStore
	Subscriber       ports.EventSubscriber
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	PageSize         int
	RetentionWindow  time.Duration
	ConsumerDisabled bool
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	fanout := commands.FanoutUseCase{
		Alarms:     deps.Alarms,
		UserAlarms: deps.UserAlarms,
		Users:      deps.Users,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Feed: queries.FeedUseCase{
				UserAlarms: deps.UserAlarms,
				Bookmarks:  deps.Bookmarks,
				PageSize:   deps.PageSize,
				Logger:     deps.Logger,
			},
			ReadState: commands.ReadStateUseCase{
				UserAlarms: deps.UserAlarms,
				Clock:      deps.Clock,
				Logger:     deps.Logger,
			},
			Logger: deps.Logger,
		},
		Fanout: fanout,
		PollPublishedConsumer: workers.PollPublishedConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Fanout:     fanout,
			Clock:      deps.Clock,
			Disabled:   deps.ConsumerDisabled,
			Logger:     deps.Logger,
		},
		RetentionJob: workers.RetentionJob{
			Alarms: deps.Alarms,
			Window: deps.RetentionWindow,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
	}
}

func NewInMemoryModule(subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Alarms:     store,
		UserAlarms: store,
		Users:      store,
		Bookmarks:  store,
		Dedup:      store,
		Subscriber: subscriber,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
