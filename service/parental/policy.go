package parental

// Policy holds the parental control settings a parent can edit.
type Policy struct {
	AllowedApps          []string `yaml:"allowedApps" json:"allowedApps"`
	DailyLimitMinutes    int      `yaml:"dailyLimitMinutes" json:"dailyLimitMinutes"`
	SessionLimitMinutes  int      `yaml:"sessionLimitMinutes" json:"sessionLimitMinutes"`
	BedtimeEnabled       bool     `yaml:"bedtimeEnabled" json:"bedtimeEnabled"`
	BedtimeStart         string   `yaml:"bedtimeStart" json:"bedtimeStart"`
	BedtimeEnd           string   `yaml:"bedtimeEnd" json:"bedtimeEnd"`
	ContentFilterEnabled bool     `yaml:"contentFilterEnabled" json:"contentFilterEnabled"`
	MaxVolume            int      `yaml:"maxVolume" json:"maxVolume"`
}

// DefaultPolicy returns the out-of-the-box settings: all kid apps allowed,
// two hours a day, a break every half hour, bedtime 8pm-7am.
func DefaultPolicy() Policy {
	return Policy{
		AllowedApps:          []string{"drawing", "stories", "music", "puzzle"},
		DailyLimitMinutes:    120,
		SessionLimitMinutes:  30,
		BedtimeEnabled:       true,
		BedtimeStart:         "20:00",
		BedtimeEnd:           "07:00",
		ContentFilterEnabled: true,
		MaxVolume:            80,
	}
}
