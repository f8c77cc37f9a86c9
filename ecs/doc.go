// Package ecs provides ECS adapters for vellum's interaction events.
//
// The primary adapter is [NewDonburiStore], which bridges pointer events
// (press, release, click, move, drag, enter, exit) of nodes that carry an
// entity ID into a [Donburi] world as typed events. Subscribe to
// [InteractionEventType] in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	canvas.Dispatcher().SetEntityStore(store)
//	node.SetEntityID(42)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
