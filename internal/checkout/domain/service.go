package domain

import "context"

type Service interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (Session, error)
}
