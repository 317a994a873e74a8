package internal

import (
	"net/http"
	"regenwasi/internal/controllers"
	"regenwasi/internal/providers"
	"regenwasi/internal/structures"
)

func InitRoutes(petController *controllers.PetController, chatController *controllers.ChatController, trainingController *controllers.TrainingController, hubController *controllers.HubController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/pet", http.HandlerFunc(petController.Adopt))
	routers.Get("/pet", http.HandlerFunc(petController.GetState))
	routers.Post("/pet/action", http.HandlerFunc(petController.Action))
	routers.Post("/pet/feed", http.HandlerFunc(petController.Feed))
	routers.Post("/pet/reset", http.HandlerFunc(petController.Reset))
	routers.Post("/pet/claim", http.HandlerFunc(petController.Claim))
	routers.Get("/pet/activity", http.HandlerFunc(petController.Activity))
	routers.Post("/pet/visibility", http.HandlerFunc(petController.Visibility))

	routers.Post("/chat", http.HandlerFunc(chatController.Send))
	routers.Get("/chat/messages", http.HandlerFunc(chatController.Messages))
	routers.Get("/chat/memories", http.HandlerFunc(chatController.Memories))

	routers.Post("/training", http.HandlerFunc(trainingController.Submit))
	routers.Post("/training/thumbnail", http.HandlerFunc(trainingController.AttachThumbnail))

	routers.Post("/hub/register", http.HandlerFunc(hubController.Register))
	routers.Post("/hub/sync", http.HandlerFunc(hubController.Sync))
	routers.Get("/hub/leaderboard", http.HandlerFunc(hubController.Leaderboard))
	routers.Get("/hub/profile", http.HandlerFunc(hubController.Profile))
	routers.Post("/hub/feed", http.HandlerFunc(hubController.Feed))
	routers.Post("/hub/gift", http.HandlerFunc(hubController.Gift))
	routers.Get("/hub/messages", http.HandlerFunc(hubController.Messages))
	routers.Post("/hub/message", http.HandlerFunc(hubController.SendMessage))
	routers.Get("/hub/activity", http.HandlerFunc(hubController.Activity))

	return routers
}
