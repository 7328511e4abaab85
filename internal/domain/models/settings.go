package models

// NotificationSettings are the viewer's proximity preferences.
type NotificationSettings struct {
	Enabled bool `json:"enabled"`
	Radius  int  `json:"radius"`
}
