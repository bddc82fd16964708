// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"campus_lostfound_backend/internal/app"
	"campus_lostfound_backend/internal/auth"
	"campus_lostfound_backend/internal/chat"
	"campus_lostfound_backend/internal/claim"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/connection"
	"campus_lostfound_backend/internal/filestorage"
	"campus_lostfound_backend/internal/firebase"
	"campus_lostfound_backend/internal/item"
	"campus_lostfound_backend/internal/jobs"
	"campus_lostfound_backend/internal/mailer"
	"campus_lostfound_backend/internal/notification"
	platformES "campus_lostfound_backend/internal/platform/elasticsearch"
	"campus_lostfound_backend/internal/platform/worker"
	"campus_lostfound_backend/internal/realtime"
	"campus_lostfound_backend/internal/shared"
	"campus_lostfound_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform
		provideLogger,
		provideDatabase,
		provideWorkerPool,
		provideMessageLimiter,
		platformES.NewClient,
		filestorage.NewFileStorageService,
		realtime.NewHub,
		mailer.NewMailer,
		mailer.NewAsyncDispatcher,
		wire.Bind(new(mailer.Service), new(*mailer.AsyncDispatcher)),
		wire.Bind(new(item.TaskRunner), new(*worker.Pool)),
		wire.Bind(new(notification.Pusher), new(*realtime.Hub)),
		wire.Bind(new(chat.Pusher), new(*realtime.Hub)),

		// Identity
		firebase.NewFirebaseService,
		auth.NewJWTService,
		auth.NewInMemoryBlocklist,
		wire.Bind(new(auth.TokenBlocklist), new(*auth.InMemoryBlocklist)),
		auth.NewVerifier,
		wire.Bind(new(shared.TokenVerifier), new(*auth.Verifier)),
		auth.NewHandler,

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(shared.UserProvisioner), new(*user.ServiceImplementation)),
		wire.Bind(new(item.ReporterDirectory), new(*user.ServiceImplementation)),
		wire.Bind(new(jobs.AdminDirectory), new(*user.ServiceImplementation)),
		wire.Bind(new(chat.ParticipantDirectory), new(*user.ServiceImplementation)),
		user.NewHandler,

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		notification.NewHandler,

		// Items
		item.NewGORMRepository,
		item.NewSearchIndex,
		item.NewService,
		wire.Bind(new(item.ImageStore), new(*filestorage.FileStorageService)),
		wire.Bind(new(item.Service), new(*item.ServiceImplementation)),
		wire.Bind(new(claim.ItemResolver), new(*item.ServiceImplementation)),
		wire.Bind(new(connection.ItemSource), new(*item.ServiceImplementation)),
		wire.Bind(new(chat.ItemSource), new(*item.ServiceImplementation)),
		item.NewHandler,

		// Claims
		claim.NewGORMRepository,
		claim.NewService,
		wire.Bind(new(claim.ProofEncoder), new(*filestorage.FileStorageService)),
		wire.Bind(new(claim.Service), new(*claim.ServiceImplementation)),
		wire.Bind(new(jobs.StaleClaimCounter), new(*claim.ServiceImplementation)),
		claim.NewHandler,

		// Connections and chats
		connection.NewGORMRepository,
		connection.NewService,
		wire.Bind(new(connection.Service), new(*connection.ServiceImplementation)),
		connection.NewHandler,
		chat.NewGORMRepository,
		chat.NewService,
		wire.Bind(new(chat.Service), new(*chat.ServiceImplementation)),
		chat.NewHandler,

		// Realtime, jobs, application
		realtime.NewHandler,
		jobs.NewPendingClaimsReminderJob,
		app.NewServer,
	)
	return nil, nil, nil
}
