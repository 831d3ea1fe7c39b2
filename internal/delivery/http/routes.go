package http

import (
	"net/http"

	wsDelivery "batchchat/internal/delivery/websocket"

	"github.com/go-chi/chi/v5"
)

func MapHttpRoutes(r *chi.Mux, messageHandler MessageHandler, websocketHandler wsDelivery.WebsocketHandler, authHandler AuthHandler, authMiddleware *AuthMiddleware) {
	r.Handle("/ws", http.HandlerFunc(websocketHandler.HandleWebSocket))

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", http.HandlerFunc(authHandler.Register))
		r.Post("/login", http.HandlerFunc(authHandler.Login))
		r.Post("/refresh", http.HandlerFunc(authHandler.RefreshToken))
		r.Post("/logout", http.HandlerFunc(authHandler.Logout))

		// Protected auth routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Post("/logout-all", http.HandlerFunc(authHandler.LogoutAllDevices))
		})
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/api/messages", func(r chi.Router) {
			r.Get("/direct/{otherUserId}", http.HandlerFunc(messageHandler.GetDirectMessages))
			r.Get("/challenge/{challengeId}", http.HandlerFunc(messageHandler.GetChallengeMessages))
			r.Get("/mentorship/{mentorshipId}", http.HandlerFunc(messageHandler.GetMentorshipMessages))
			r.Get("/conversations", http.HandlerFunc(messageHandler.GetLastConversations))
			r.Get("/unread/count", http.HandlerFunc(messageHandler.GetUnreadCount))
			r.Get("/search", http.HandlerFunc(messageHandler.Search))
			r.Put("/{messageId}/read", http.HandlerFunc(messageHandler.MarkAsRead))
			r.Put("/conversations/{userId}/read", http.HandlerFunc(messageHandler.MarkConversationAsRead))
		})
	})
}
