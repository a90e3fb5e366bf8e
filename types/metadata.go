package types

type (
	GenericMetadata    map[string]string
	MultilingualString map[string]string
)

type MediaMetadata struct {
	Header string `json:"header" cbor:"0,keyasint,omitempty"`
	Logo   string `json:"logo"   cbor:"1,keyasint,omitempty"`
}

// CandidateMetadata describes one of the options of a proposal.
type CandidateMetadata struct {
	Title       MultilingualString `json:"title"       cbor:"0,keyasint,omitempty"`
	Description MultilingualString `json:"description" cbor:"1,keyasint,omitempty"`
	Avatar      string             `json:"avatar"      cbor:"2,keyasint,omitempty"`
	Meta        GenericMetadata    `json:"meta"        cbor:"3,keyasint,omitempty"`
}

// Metadata is the human readable content of a proposal, stored in the blob
// store and referenced by its content identifier.
type Metadata struct {
	Title       MultilingualString  `json:"title"       cbor:"0,keyasint,omitempty"`
	Description MultilingualString  `json:"description" cbor:"1,keyasint,omitempty"`
	Media       MediaMetadata       `json:"media"       cbor:"2,keyasint,omitempty"`
	Candidates  []CandidateMetadata `json:"candidates"  cbor:"3,keyasint,omitempty"`
}
