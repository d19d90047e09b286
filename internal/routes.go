package internal

import (
	"net/http"

	"lfd/internal/controllers"
	"lfd/internal/providers"
	"lfd/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/", http.HandlerFunc(apiController.ReceiveFeedback))
	routers.Get("/chart", http.HandlerFunc(apiController.GetChart))
	routers.Post("/comment", http.HandlerFunc(apiController.ReceiveComment))
	routers.Get("/comments", http.HandlerFunc(apiController.GetComments))
	routers.Get("/thread", http.HandlerFunc(apiController.GetThread))
	routers.Get("/lectures", http.HandlerFunc(apiController.GetLectures))
	return routers
}
