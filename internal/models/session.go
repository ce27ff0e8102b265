package models

import "time"

// BootstrapStep identifies one stage of the strictly sequential session
// bootstrap. Each step's output gates the next; there is no parallelism.
type BootstrapStep string

const (
	StepCheckingAuth    BootstrapStep = "checking_auth"
	StepLoadingProfile  BootstrapStep = "loading_profile"
	StepLoadingOrder    BootstrapStep = "loading_order"
	StepLoadingArticles BootstrapStep = "loading_articles"
	StepComplete        BootstrapStep = "complete"
	StepFailed          BootstrapStep = "failed"
)

// BootstrapProgress is published on the session stream as each step starts,
// completes, or fails.
type BootstrapProgress struct {
	Step    BootstrapStep `json:"step"`
	Failed  BootstrapStep `json:"failed_step,omitempty"`
	Message string        `json:"message,omitempty"`
}

// PickupDateOption is one offered pickup date together with the moment an
// order for it becomes read-only.
type PickupDateOption struct {
	PickupDate   time.Time `json:"pickup_date"`
	DateKey      string    `json:"date_key"`
	EditDeadline time.Time `json:"edit_deadline"`
}

// BootstrapResult is the assembled session state handed back once the
// sequencer reaches Complete. Token is only set when the bootstrap created a
// fresh guest session.
type BootstrapResult struct {
	Token         string              `json:"token,omitempty"`
	ExpiresIn     int                 `json:"expires_in,omitempty"`
	Anonymous     bool                `json:"anonymous"`
	Profile       *BuyerProfile       `json:"profile"`
	Basket        *Basket             `json:"basket"`
	UpcomingOrder *Order              `json:"upcoming_order,omitempty"`
	Articles      []Article           `json:"articles"`
	PickupDates   []PickupDateOption  `json:"pickup_dates"`
	Steps         []BootstrapProgress `json:"steps"`
}
