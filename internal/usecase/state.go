package usecase

import "whitelist-vpn-miniapp/internal/domain/model"

// StateCell is the slice of the application state container the usecases write to.
type StateCell interface {
	Snapshot() model.AppState
	Update(fn func(model.AppState) model.AppState) model.AppState
}
