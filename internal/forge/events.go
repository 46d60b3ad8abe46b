package forge

import "time"

type EventType string

const (
	EventStaked                      EventType = "Staked"
	EventUnstaked                    EventType = "Unstaked"
	EventMintRequested               EventType = "MintRequested"
	EventRandomnessDelivered         EventType = "RandomnessDelivered"
	EventTokenMinted                 EventType = "TokenMinted"
	EventMintFailed                  EventType = "MintFailed"
	EventRollTypesInitialized        EventType = "RollTypesInitialized"
	EventTierTypesInitialized        EventType = "TierTypesInitialized"
	EventRarityLevelsInitialized     EventType = "RarityLevelsInitialized"
	EventStakingModeUpdated          EventType = "StakingModeUpdated"
	EventMintingModeUpdated          EventType = "MintingModeUpdated"
	EventPointsPerDayPerTokenUpdated EventType = "PointsPerDayPerTokenUpdated"
	EventProviderUpdated             EventType = "ProviderUpdated"
	EventDwaginzContractUpdated      EventType = "DwaginzContractUpdated"
	EventDailyCheckin                EventType = "DailyCheckin"
)

// Event is a state-boundary notification. Only the fields relevant to Type are set.
type Event struct {
	Seq            uint64    `json:"seq"`
	Type           EventType `json:"type"`
	Account        Address   `json:"account,omitempty"`
	TokenID        uint64    `json:"token_id,omitempty"`
	SequenceNumber uint64    `json:"sequence_number,omitempty"`
	Value          uint64    `json:"value,omitempty"`
	Enabled        bool      `json:"enabled,omitempty"`
	Target         Address   `json:"target,omitempty"`
	URI            string    `json:"uri,omitempty"`
	At             time.Time `json:"at"`
}

// Sink receives the events of every successful operation, in order.
// Publish is called while the engine is locked and must not block or call back into the engine.
type Sink interface {
	Publish(events []Event)
}

type Sinks []Sink

func (s Sinks) Publish(events []Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Publish(events)
		}
	}
}

// eventBatch collects the events of one operation until it commits.
type eventBatch struct {
	at     time.Time
	events []Event
}

func (b *eventBatch) add(ev Event) {
	ev.At = b.at
	b.events = append(b.events, ev)
}
