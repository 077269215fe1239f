package router

import (
	"github.com/beego/beego/v2/server/web"

	"github.com/studyhub/backend-go/app/controllers"
)

// Init registers all routes. Must be called after bootstrap.
func Init() {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Router("/metrics", &controllers.MetricsController{}, "get:Metrics")

	chatController := &controllers.ChatController{}
	web.Router("/api/chat", chatController, "post:Post")
	web.Router("/api/chats", chatController, "get:ListChats;post:CreateChat")
	web.Router("/api/chats/:id/messages", chatController, "get:GetMessages")

	profileController := &controllers.ProfileController{}
	web.Router("/api/profile", profileController, "get:Get;put:Put")
}
