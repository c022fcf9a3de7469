package internal

import (
	"fitlog/fitness-api/internal/auth"
	"fitlog/fitness-api/internal/mail"
	"fitlog/fitness-api/internal/store"
	"fitlog/fitness-api/internal/token"
	"fitlog/fitness-api/internal/workout"
)

type Deps struct {
	Stores   *store.Stores
	Issuer   *token.Issuer
	Mailer   mail.Sender
	Auth     *auth.Service
	Workouts *workout.Service
}
