package handler

import (
	"github.com/krishkalaria12/snap-swap/services"
)

// Services groups the domain services the HTTP layer calls into.
type Services struct {
	Users   *services.UserService
	Uploads *services.UploadService
	Jobs    *services.JobService
	Results *services.ResultService
	Prompts *services.PromptService
}

type Handler struct {
	svc          Services
	secureCookie bool
}

// New builds the route handlers. secureCookie marks the session cookie
// Secure, which browsers only honour over HTTPS.
func New(svc Services, secureCookie bool) *Handler {
	return &Handler{svc: svc, secureCookie: secureCookie}
}
