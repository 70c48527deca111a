// Package protocol defines the JSON wire frames exchanged over the
// framed message stream after the HTTP upgrade handshake: PlayerAction
// inbound, AuthInfo and GameInfo outbound.
package protocol

// PlayerAction is the client-to-server frame. Exactly one of Login or
// ShipState is set, matching the tagged-union wire encoding.
type PlayerAction struct {
	Login     *LoginAction     `json:"Login,omitempty"`
	ShipState *ShipStateAction `json:"ShipState,omitempty"`
}

type LoginAction struct {
	Nickname string `json:"nickname"`
}

type ShipStateAction struct {
	ThrottleUp bool       `json:"throttle_up"`
	Direction  [3]float64 `json:"direction"`
}

// AuthInfo is the single reply to a Login frame. Message carries the
// assigned player id as a decimal string on success, or the rendered
// error on failure.
type AuthInfo struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BodyInfo describes one celestial body as observed by a player.
type BodyInfo struct {
	Coords        [3]float64 `json:"coords"`
	RotatingSpeed float64    `json:"rotating_speed"`
	GravityCenter uint32     `json:"gravity_center"`
	Id            uint32     `json:"id"`
	ElementType   string     `json:"element_type"`
}

// PlayerInfo carries a player's own updated coordinates.
type PlayerInfo struct {
	Coords [3]float64 `json:"coords"`
}

// GameInfo is the outbound observation frame. Exactly one field is set
// per message: Player, BodiesInSystem (≤50 entries), or PlayersInSystem.
type GameInfo struct {
	Player          *PlayerInfo  `json:"Player,omitempty"`
	BodiesInSystem  []BodyInfo   `json:"BodiesInSystem,omitempty"`
	PlayersInSystem []PlayerInfo `json:"PlayersInSystem,omitempty"`
}

// MaxBodiesPerFrame is the batch size limit for BodiesInSystem frames.
const MaxBodiesPerFrame = 50
