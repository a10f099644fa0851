package domain

type WiFi struct {
	Name     string `json:"name" yaml:"name"`
	Password string `json:"password" yaml:"password"`
}

type EmergencyContact struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
}

// Settings is the site-wide configuration record. It is loaded once and never
// mutated afterwards.
type Settings struct {
	HostelName        string             `json:"hostelName" yaml:"hostelName"`
	Logo              string             `json:"logo" yaml:"logo"`
	PrimaryColor      string             `json:"primaryColor" yaml:"primaryColor"`
	AccentColor       string             `json:"accentColor" yaml:"accentColor"`
	WiFi              WiFi               `json:"wifi" yaml:"wifi"`
	CheckIn           string             `json:"checkIn" yaml:"checkIn"`
	CheckOut          string             `json:"checkOut" yaml:"checkOut"`
	ContactWhatsApp   string             `json:"contactWhatsApp" yaml:"contactWhatsApp"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts" yaml:"emergencyContacts"`
	Timezone          string             `json:"timezone" yaml:"timezone"`
}
