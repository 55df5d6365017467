package domain

// Category identifies one independent numbering stream. It is read-only
// reference data owned by the configuration side of the system.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}
