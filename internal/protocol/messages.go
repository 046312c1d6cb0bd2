package protocol

import "fmt"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	// MaxQueue bounds the outgoing messages buffered for the client.
	MaxQueue int `json:"max_queue,omitempty"`
	// Blocks asks for painted block counts with every STRUCTURE.
	Blocks bool `json:"blocks,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	Families        []string `json:"families"`
	TuningDigest    string   `json:"tuning_digest"`
	WorldID         string   `json:"world_id,omitempty"`
}

// BUILD (client -> server). Facing is a facing name or "" for a random one.
type BuildMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Family          string `json:"family"`
	Seed            int64  `json:"seed"`
	Anchor          [3]int `json:"anchor"`
	Facing          string `json:"facing,omitempty"`
}

// STRUCTURE (server -> client)
type StructureMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ReqID           string         `json:"req_id,omitempty"`
	ID              string         `json:"id"`
	Family          string         `json:"family"`
	Seed            int64          `json:"seed"`
	Anchor          [3]int         `json:"anchor"`
	Facing          string         `json:"facing"`
	Digest          string         `json:"digest"`
	Bounds          [6]int         `json:"bounds"`
	Pieces          []PieceRef     `json:"pieces"`
	Chunks          [][2]int       `json:"chunks"`
	Stats           map[string]int `json:"stats,omitempty"`
	Blocks          map[string]int `json:"blocks,omitempty"`
}

type PieceRef struct {
	Kind   string `json:"kind"`
	Bounds [6]int `json:"bounds"`
	Facing string `json:"facing"`
	Depth  int    `json:"depth"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func (e ErrorMsg) Error() string { return e.Code + ": " + e.Message }

func NewError(reqID, code, format string, args ...any) ErrorMsg {
	return ErrorMsg{
		Type:            TypeError,
		ProtocolVersion: Version,
		ReqID:           reqID,
		Code:            code,
		Message:         fmt.Sprintf(format, args...),
	}
}
