package models

import "time"

// Fix is one position reported by a location watch.
type Fix struct {
	Coordinate
	AccuracyMeters float64
	At             time.Time
}

// LocationUpdate is what a watch delivers to its handler: either a fix or
// an error (for example the permission was revoked while watching).
type LocationUpdate struct {
	Fix Fix
	Err error
}

// WatchOptions mirror the knobs of an OS foreground position watch.
type WatchOptions struct {
	Accuracy         string
	Interval         time.Duration
	DistanceInterval float64
}

// Notification is a local notification scheduled by the proximity watcher.
type Notification struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	VendorID int64     `json:"vendor_id"`
	Distance float64   `json:"distance_m"`
	At       time.Time `json:"at"`
}
