package notify

import (
	"log/slog"
)

type Navigator interface {
	Navigate(screen string)
}

type NavigatorFunc func(screen string)

func (f NavigatorFunc) Navigate(screen string) {
	f(screen)
}

// Router handles notification taps. Only survey payloads navigate.
type Router struct {
	navigator Navigator
}

func NewRouter(navigator Navigator) *Router {
	return &Router{navigator: navigator}
}

func (r *Router) HandleTap(payload Payload) bool {
	if payload.Screen != ScreenSurvey {
		slog.Debug("Ignoring notification tap", "screen", payload.Screen)
		return false
	}
	r.navigator.Navigate(ScreenSurvey)
	return true
}
