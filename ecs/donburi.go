package ecs

import (
	"github.com/phanxgames/vellum"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for vellum interaction
// events.
var InteractionEventType = events.NewEventType[vellum.InteractionEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are queued on InteractionEventType and delivered by
// ProcessEvents.
func NewDonburiStore(world donburi.World) vellum.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event vellum.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
}

// ClicksOn returns a subscriber that calls fn for click events on the
// given entity ID.
func ClicksOn(entityID uint32, fn func(vellum.InteractionEvent)) func(donburi.World, vellum.InteractionEvent) {
	return func(_ donburi.World, e vellum.InteractionEvent) {
		if e.Type == vellum.MouseClicked && e.EntityID == entityID {
			fn(e)
		}
	}
}
