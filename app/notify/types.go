package notify

import (
	"context"
	"time"
)

const ScreenSurvey = "survey"

// Payload travels with every notification and tells the tap handler where to go.
type Payload struct {
	Screen string `json:"screen"`
	Time   string `json:"time,omitempty"`
}

type Prompt struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Label  string `json:"label"`
}

// DailyPrompts are the fixed local reminder times.
var DailyPrompts = []Prompt{
	{Hour: 9, Minute: 0, Label: "morning"},
	{Hour: 14, Minute: 0, Label: "afternoon"},
	{Hour: 20, Minute: 0, Label: "evening"},
}

type Content struct {
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
	Sound bool   `yaml:"sound" json:"sound"`
}

var DefaultContent = Content{
	Title: "Time to check in!",
	Body:  "How are you feeling right now?",
	Sound: true,
}

type Notification struct {
	ID          string    `json:"id"`
	Content     Content   `json:"content"`
	Payload     Payload   `json:"payload"`
	DeliveredAt time.Time `json:"delivered_at"`
}

type ScheduledPrompt struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Hour     int       `json:"hour"`
	Minute   int       `json:"minute"`
	Repeats  bool      `json:"repeats"`
	NextFire time.Time `json:"next_fire"`
	Payload  Payload   `json:"payload"`
}

type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}
